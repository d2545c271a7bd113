package sqlite_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/internal/compass/store"
	"github.com/aussiebroadwan/compass/internal/compass/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations(t.Context()))
	return s
}

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	u, err := s.Users().CreateUser(t.Context(), domain.User{Email: email, PasswordHash: "hash"})
	require.NoError(t, err)
	return u
}

func seedAssessment(t *testing.T, s store.Store, ownerID, token string, created time.Time) domain.Assessment {
	t.Helper()
	a, err := s.Assessments().CreateAssessment(t.Context(), domain.Assessment{
		OwnerID:         ownerID,
		CompanyName:     "Acme",
		InviteToken:     token,
		InviteExpiresAt: created.Add(30 * 24 * time.Hour),
		Status:          domain.StatusActive,
		CreatedAt:       created,
		UpdatedAt:       created,
	})
	require.NoError(t, err)
	return a
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations(t.Context()))
	require.NoError(t, s.Ping(t.Context()))
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	u := seedUser(t, s, "owner@example.com")
	require.NotEmpty(t, u.ID)
	require.False(t, u.CreatedAt.IsZero())

	byEmail, err := s.Users().GetUserByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)
	require.True(t, u.CreatedAt.Equal(byID.CreatedAt))

	_, err = s.Users().CreateUser(ctx, domain.User{Email: "owner@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByID(ctx, "not-an-id")
	require.ErrorIs(t, err, store.ErrInvalidID)

	require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"))
	byID, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", byID.PasswordHash)
}

func TestAssessmentCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	owner := seedUser(t, s, "owner@example.com")
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	a := seedAssessment(t, s, owner.ID, "tok-1", now)

	got, err := s.Assessments().GetAssessmentByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.CompanyName)
	require.Nil(t, got.CompanyIndustry)
	require.Nil(t, got.ExecProfile)
	require.Nil(t, got.Selections)
	require.True(t, now.Equal(got.CreatedAt))

	byToken, err := s.Assessments().GetAssessmentByInviteToken(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, a.ID, byToken.ID)

	_, err = s.Assessments().GetAssessmentByInviteToken(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Assessments().GetAssessmentByID(ctx, "507f1f77bcf86cd799439011")
	require.ErrorIs(t, err, store.ErrInvalidID)

	_, err = s.Assessments().CreateAssessment(ctx, domain.Assessment{
		OwnerID: owner.ID, CompanyName: "Dup", InviteToken: "tok-1",
		InviteExpiresAt: now, Status: domain.StatusActive,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestListAssessmentsByOwnerNewestFirst(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com")
	other := seedUser(t, s, "other@example.com")
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	first := seedAssessment(t, s, owner.ID, "t1", base)
	second := seedAssessment(t, s, owner.ID, "t2", base.Add(time.Minute))
	third := seedAssessment(t, s, owner.ID, "t3", base.Add(2*time.Minute))
	seedAssessment(t, s, other.ID, "t4", base.Add(3*time.Minute))

	list, err := s.Assessments().ListAssessmentsByOwner(t.Context(), owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{third.ID, second.ID, first.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	empty, err := s.Assessments().ListAssessmentsByOwner(t.Context(), "nobody")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestUpdateAssessmentSparse(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	owner := seedUser(t, s, "owner@example.com")
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	a := seedAssessment(t, s, owner.ID, "tok", base)
	industry := "Retail"

	progress := domain.Progress{CompletedMetrics: 3, TotalMetrics: 10, Percent: 30, UpdatedAt: base}
	err := s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{ID: a.ID, OwnerID: owner.ID}, domain.AssessmentChanges{
		CompanyIndustry: domain.Set(industry),
		ExecProfile:     domain.Set(domain.ExecProfile{Name: "Jo", Title: "CEO", Email: "jo@example.com"}),
		Scores:          domain.Set(domain.Payload(`{"ops":4}`)),
		Progress:        domain.Set(progress),
		UpdatedAt:       base.Add(time.Hour),
	})
	require.NoError(t, err)

	got, err := s.Assessments().GetAssessmentByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.CompanyName)
	require.Equal(t, &industry, got.CompanyIndustry)
	require.Equal(t, "CEO", got.ExecProfile.Title)
	require.JSONEq(t, `{"ops":4}`, string(got.Scores))
	require.Nil(t, got.Responses)
	require.Equal(t, 30, got.Progress.Percent)
	require.True(t, base.Equal(got.Progress.UpdatedAt))
	require.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))

	// Clearing an optional field and an empty string are both applied.
	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{ID: a.ID}, domain.AssessmentChanges{
		CompanyIndustry: domain.Clear[string](),
		CompanySize:     domain.Set(""),
		UpdatedAt:       base.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	got, err = s.Assessments().GetAssessmentByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, got.CompanyIndustry)
	require.NotNil(t, got.CompanySize)
	require.Equal(t, "", *got.CompanySize)
	require.NotNil(t, got.ExecProfile)
}

func TestUpdateAssessmentStampIsStrictlyIncreasing(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	owner := seedUser(t, s, "owner@example.com")
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	a := seedAssessment(t, s, owner.ID, "tok", base)

	prev := base
	for range 3 {
		// Same (stale) clock on every write.
		err := s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{ID: a.ID}, domain.AssessmentChanges{
			Status:    domain.Set(domain.StatusActive),
			UpdatedAt: base,
		})
		require.NoError(t, err)

		got, err := s.Assessments().GetAssessmentByID(ctx, a.ID)
		require.NoError(t, err)
		require.True(t, got.UpdatedAt.After(prev), "updated_at %s not after %s", got.UpdatedAt, prev)
		prev = got.UpdatedAt
	}
}

func TestUpdateAssessmentFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	owner := seedUser(t, s, "owner@example.com")
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	a := seedAssessment(t, s, owner.ID, "tok", base)
	change := domain.AssessmentChanges{Status: domain.Set(domain.StatusCompleted), UpdatedAt: base}

	err := s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{ID: a.ID, OwnerID: "someone-else"}, change)
	require.ErrorIs(t, err, store.ErrNotFound)

	expiredAt := a.InviteExpiresAt.Add(time.Millisecond)
	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{InviteToken: "tok", OpenAt: expiredAt}, change)
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{InviteToken: "tok", OpenAt: a.InviteExpiresAt}, change)
	require.NoError(t, err)

	// Now completed, the open filter no longer matches.
	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{InviteToken: "tok", OpenAt: base}, change)
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{ID: "bad"}, change)
	require.ErrorIs(t, err, store.ErrInvalidID)

	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{}, change)
	require.Error(t, err)
}
