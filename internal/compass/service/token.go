package service

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/pkg/jwtx"
)

// TokenService issues session tokens for users.
type TokenService struct {
	Signer jwtx.Signer
	Issuer string
	TTL    time.Duration
	Now    Clock
}

// Issue signs a token carrying the user's id and email.
func (s *TokenService) Issue(u domain.User) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultTTL
	}

	claims := jwtx.NewClaims(u.ID, u.Email, s.Issuer, ttl, s.Now.now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
