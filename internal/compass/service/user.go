package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/internal/compass/store"
	"github.com/aussiebroadwan/compass/pkg/cryptox"
	"github.com/aussiebroadwan/compass/pkg/slogx"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  domain.User
	Token string
}

type UserService struct {
	Store        store.Store
	Tokens       *TokenService
	StoreTimeout time.Duration
}

// Register creates a user and signs them in. The unique email index decides
// duplicates, so two concurrent registrations cannot both succeed.
func (s *UserService) Register(ctx context.Context, email, password string) (AuthResult, error) {
	log := slogx.FromContext(ctx)

	email, err := validateEmail(email)
	if err != nil {
		return AuthResult{}, err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return AuthResult{}, invalidInput("Password must be at least 8 characters")
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return AuthResult{}, err
	}

	sctx, cancel := withStoreTimeout(ctx, s.StoreTimeout)
	defer cancel()

	u, err := s.Store.Users().CreateUser(sctx, domain.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return AuthResult{}, ErrConflict
		}
		log.Error("failed to create user", slog.Any("error", err))
		return AuthResult{}, mapStoreErr(err)
	}

	token, err := s.Tokens.Issue(u)
	if err != nil {
		return AuthResult{}, err
	}

	log.Info("user registered", slog.String("user_id", u.ID))
	return AuthResult{User: u, Token: token}, nil
}

// Login checks credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	log := slogx.FromContext(ctx)
	email = domain.NormalizeEmail(email)

	sctx, cancel := withStoreTimeout(ctx, s.StoreTimeout)
	defer cancel()

	u, err := s.Store.Users().GetUserByEmail(sctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same hashing time as a real check.
			cryptox.CheckPassword(password, dummyHash())
			return AuthResult{}, ErrInvalidCredentials
		}
		log.Error("failed to look up user", slog.Any("error", err))
		return AuthResult{}, mapStoreErr(err)
	}

	if !cryptox.CheckPassword(password, u.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}

	if cryptox.NeedsRehash(u.PasswordHash) {
		s.rehash(sctx, log, u.ID, password)
	}

	token, err := s.Tokens.Issue(u)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Token: token}, nil
}

// rehash upgrades a legacy hash. Failure is logged and the login proceeds.
func (s *UserService) rehash(ctx context.Context, log *slog.Logger, userID, password string) {
	hash, err := cryptox.HashPassword(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		log.Warn("failed to upgrade password hash", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	log.Info("upgraded legacy password hash", slog.String("user_id", userID))
}

// CurrentUser resolves a verified identity to a stored user. Every failure
// is ErrUnauthorized.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, ErrUnauthorized
	}

	sctx, cancel := withStoreTimeout(ctx, s.StoreTimeout)
	defer cancel()

	u, err := s.Store.Users().GetUserByID(sctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
			slogx.FromContext(ctx).Warn("failed to resolve current user", slog.Any("error", err))
		}
		return domain.User{}, ErrUnauthorized
	}
	return u, nil
}

func validateEmail(raw string) (string, error) {
	email := domain.NormalizeEmail(raw)
	if email == "" {
		return "", invalidInput("Email is required")
	}
	if !isBareAddress(email) {
		return "", invalidInput("Invalid email address")
	}
	return email, nil
}

// isBareAddress accepts a single addr-spec, rejecting display names and
// angle brackets that mail.ParseAddress would otherwise allow.
func isBareAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Name == "" && addr.Address == s
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = cryptox.HashPassword("compass-placeholder-password")
	})
	return dummy
}
