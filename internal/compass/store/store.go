package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrInvalidID is returned when an id is not in the driver's id format.
	ErrInvalidID = errors.New("store: invalid id")
)

// Store is the root data access interface implemented by the sqlite and
// mongo drivers. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Assessments() Assessments

	// ApplyMigrations brings the schema (sqlite) or indexes (mongo) up to date.
	ApplyMigrations(ctx context.Context) error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	Close() error
}

type Users interface {
	// CreateUser assigns ID and CreatedAt when empty and returns the stored
	// user. A duplicate email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already normalised email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdatePasswordHash replaces the stored hash, used to upgrade legacy hashes.
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// AssessmentFilter narrows which record an update may touch. Zero fields are
// not constrained. At least one of ID or InviteToken must be set.
type AssessmentFilter struct {
	ID          string
	OwnerID     string
	InviteToken string

	// OpenAt, when non-zero, requires status active and
	// invite_expires_at >= OpenAt at the moment of the write.
	OpenAt time.Time
}

type Assessments interface {
	// CreateAssessment assigns ID when empty and returns the stored record.
	// A duplicate invite token yields ErrAlreadyExists.
	CreateAssessment(ctx context.Context, a domain.Assessment) (domain.Assessment, error)

	GetAssessmentByID(ctx context.Context, id string) (domain.Assessment, error)
	GetAssessmentByInviteToken(ctx context.Context, token string) (domain.Assessment, error)

	// ListAssessmentsByOwner returns the owner's records, newest first.
	ListAssessmentsByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error)

	// UpdateAssessment applies c atomically to the record matching f and
	// returns ErrNotFound when nothing matched. updated_at becomes
	// max(c.UpdatedAt, previous+1ms).
	UpdateAssessment(ctx context.Context, f AssessmentFilter, c domain.AssessmentChanges) error
}
