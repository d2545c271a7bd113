package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{16, InviteTokenSize, 64} {
		token, err := GenerateToken(size)
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, raw, size)
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestGenerateInviteToken(t *testing.T) {
	const count = 100
	seen := make(map[string]struct{}, count)

	for range count {
		token, err := GenerateInviteToken()
		require.NoError(t, err)
		require.Len(t, token, 43)
		require.NotContains(t, token, "/")
		require.NotContains(t, token, "+")
		require.NotContains(t, token, "=")
		require.NotContains(t, seen, token, "duplicate token generated")
		seen[token] = struct{}{}
	}
}
