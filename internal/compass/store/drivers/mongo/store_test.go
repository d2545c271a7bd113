package mongo_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/internal/compass/store"
	"github.com/aussiebroadwan/compass/internal/compass/store/drivers/mongo"
	"github.com/aussiebroadwan/compass/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// One mongod is shared by every test in the package; each test gets its own
// database.
var (
	mongoOnce      sync.Once
	mongoURI       string
	mongoErr       error
	mongoContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	code := m.Run()
	if mongoContainer != nil {
		_ = mongoContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func startMongo(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	mongoOnce.Do(func() {
		ctx := context.Background()
		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "mongo:7",
				ExposedPorts: []string{"27017/tcp"},
				WaitingFor: wait.ForListeningPort("27017/tcp").
					WithStartupTimeout(90 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			mongoErr = err
			return
		}
		mongoContainer = c

		host, err := c.Host(ctx)
		if err != nil {
			mongoErr = err
			return
		}
		port, err := c.MappedPort(ctx, "27017")
		if err != nil {
			mongoErr = err
			return
		}
		mongoURI = fmt.Sprintf("mongodb://%s:%s/", host, port.Port())
	})

	require.NoError(t, mongoErr)
	return mongoURI
}

func newTestStore(t *testing.T) *mongo.Store {
	t.Helper()
	uri := startMongo(t)

	dbName := "compass_" + strings.ToLower(idx.New().String())
	s, err := mongo.NewStore(mongo.Config{
		URI:                    uri,
		Database:               dbName,
		ServerSelectionTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(t.Context()))
	require.NoError(t, s.ApplyMigrations(t.Context()))
	return s
}

func TestNewStoreRequiresDatabase(t *testing.T) {
	_, err := mongo.NewStore(mongo.Config{URI: "mongodb://localhost:27017/"})
	require.Error(t, err)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	u, err := s.Users().CreateUser(ctx, domain.User{Email: "owner@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Len(t, u.ID, 24)

	got, err := s.Users().GetUserByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.True(t, u.CreatedAt.Equal(got.CreatedAt))

	_, err = s.Users().CreateUser(ctx, domain.User{Email: "owner@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.Users().GetUserByID(ctx, "not-hex")
	require.ErrorIs(t, err, store.ErrInvalidID)

	_, err = s.Users().GetUserByID(ctx, "507f1f77bcf86cd799439011")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "rehashed"))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "rehashed", got.PasswordHash)
}

func TestAssessmentsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	a, err := s.Assessments().CreateAssessment(ctx, domain.Assessment{
		OwnerID:         "owner-1",
		CompanyName:     "$not-an-expression",
		InviteToken:     "tok-1",
		InviteExpiresAt: base.Add(24 * time.Hour),
		Status:          domain.StatusActive,
		CreatedAt:       base,
		UpdatedAt:       base,
	})
	require.NoError(t, err)

	_, err = s.Assessments().CreateAssessment(ctx, domain.Assessment{
		OwnerID: "owner-1", CompanyName: "Dup", InviteToken: "tok-1",
		InviteExpiresAt: base, Status: domain.StatusActive,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{InviteToken: "tok-1", OpenAt: base}, domain.AssessmentChanges{
		CompanyName: domain.Set("$still-literal"),
		ExecProfile: domain.Set(domain.ExecProfile{Name: "Jo", Title: "CEO", Email: "jo@example.com"}),
		Selections:  domain.Set(domain.Payload(`["a","b"]`)),
		Responses:   domain.Set(domain.Payload(`{"q1":{"answer":3,"note":"$x"}}`)),
		Progress:    domain.Set(domain.Progress{CompletedMetrics: 3, TotalMetrics: 10, Percent: 30, UpdatedAt: base}),
		UpdatedAt:   base, // stale clock
	})
	require.NoError(t, err)

	got, err := s.Assessments().GetAssessmentByInviteToken(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.Equal(t, "$still-literal", got.CompanyName)
	require.Equal(t, "CEO", got.ExecProfile.Title)
	require.JSONEq(t, `["a","b"]`, string(got.Selections))
	require.JSONEq(t, `{"q1":{"answer":3,"note":"$x"}}`, string(got.Responses))
	require.Nil(t, got.Scores)
	require.Equal(t, 30, got.Progress.Percent)
	require.True(t, got.UpdatedAt.After(base), "updated_at must advance past %s, got %s", base, got.UpdatedAt)

	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{InviteToken: "tok-1", OpenAt: base.Add(48 * time.Hour)}, domain.AssessmentChanges{
		Status:    domain.Set(domain.StatusCompleted),
		UpdatedAt: base,
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{ID: a.ID, OwnerID: "owner-2"}, domain.AssessmentChanges{UpdatedAt: base})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Assessments().GetAssessmentByID(ctx, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV")
	require.ErrorIs(t, err, store.ErrInvalidID)
}

func TestListAssessmentsByOwnerNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	var ids []string
	for i := range 3 {
		a, err := s.Assessments().CreateAssessment(ctx, domain.Assessment{
			OwnerID:         "owner-1",
			CompanyName:     fmt.Sprintf("Co %d", i),
			InviteToken:     fmt.Sprintf("tok-%d", i),
			InviteExpiresAt: base.Add(time.Hour),
			Status:          domain.StatusActive,
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		ids = append([]string{a.ID}, ids...)
	}

	list, err := s.Assessments().ListAssessmentsByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := range list {
		require.Equal(t, ids[i], list[i].ID)
	}
}

func TestPayloadsAndBlankStatusRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	a, err := s.Assessments().CreateAssessment(ctx, domain.Assessment{
		OwnerID:         "owner-1",
		CompanyName:     "Acme",
		InviteToken:     "tok-raw",
		InviteExpiresAt: base.Add(24 * time.Hour),
		Status:          domain.StatusActive,
		Scores:          domain.Payload(`{"a":{"$numberLong":"5"}}`),
		CreatedAt:       base,
	})
	require.NoError(t, err)

	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{InviteToken: "tok-raw", OpenAt: base}, domain.AssessmentChanges{
		Selections: domain.Set(domain.Payload(`{"n":12345678901234567890}`)),
		Responses:  domain.Set(domain.Payload(`{"$set":{"$gt":1}}`)),
		UpdatedAt:  base,
	})
	require.NoError(t, err)

	got, err := s.Assessments().GetAssessmentByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, `{"a":{"$numberLong":"5"}}`, string(got.Scores))
	require.Equal(t, `{"n":12345678901234567890}`, string(got.Selections))
	require.Equal(t, `{"$set":{"$gt":1}}`, string(got.Responses))

	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{ID: a.ID, OwnerID: "owner-1"}, domain.AssessmentChanges{
		Status:    domain.Set(""),
		UpdatedAt: base,
	})
	require.NoError(t, err)

	got, err = s.Assessments().GetAssessmentByID(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, got.Status)

	// A blank status no longer passes the open-invite filter.
	err = s.Assessments().UpdateAssessment(ctx, store.AssessmentFilter{InviteToken: "tok-raw", OpenAt: base}, domain.AssessmentChanges{UpdatedAt: base})
	require.ErrorIs(t, err, store.ErrNotFound)
}
