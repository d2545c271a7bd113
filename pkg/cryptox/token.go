package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// InviteTokenSize is 256 bits of entropy, 43 characters once encoded.
const InviteTokenSize = 32

// GenerateToken returns size random bytes as unpadded base64url, safe to
// place in a URL path segment.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateInviteToken mints the bearer secret of an invite link.
func GenerateInviteToken() (string, error) {
	return GenerateToken(InviteTokenSize)
}
