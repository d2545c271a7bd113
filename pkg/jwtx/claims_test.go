package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/compass/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "compass-api"}}

	require.NoError(t, c.ValidateIssuer("compass-api"))
	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
}

func TestValidateExpiryAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid token", func(t *testing.T) {
		c := jwtx.NewClaims("u1", "a@b.co", "", time.Minute, now)
		require.NoError(t, c.ValidateExpiryAt(now))
	})

	t.Run("expired token", func(t *testing.T) {
		c := jwtx.NewClaims("u1", "a@b.co", "", time.Minute, now)
		require.ErrorIs(t, c.ValidateExpiryAt(now.Add(time.Minute)), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := jwtx.NewClaims("u1", "a@b.co", "", time.Hour, now)
		require.ErrorIs(t, c.ValidateExpiryAt(now.Add(-time.Minute)), jwtx.ErrNotYetValid)
	})

	t.Run("missing exp", func(t *testing.T) {
		c := &jwtx.Claims{}
		require.ErrorIs(t, c.ValidateExpiryAt(now), jwtx.ErrInvalidClaim)
	})
}

func TestNewClaims(t *testing.T) {
	now := time.Now()
	c := jwtx.NewClaims("user-1", "a@b.co", "compass-api", jwtx.DefaultTTL, now)

	require.Equal(t, "user-1", c.UserID)
	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "a@b.co", c.Email)
	require.NotEmpty(t, c.ID)
	require.WithinDuration(t, now.Add(7*24*time.Hour), c.ExpiresAt.Time, time.Second)
}
