package service_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/internal/compass/service"
	"github.com/aussiebroadwan/compass/internal/compass/store/drivers/sqlite"
	"github.com/aussiebroadwan/compass/pkg/cryptox"
	"github.com/aussiebroadwan/compass/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("service-test-pepper")
	os.Exit(m.Run())
}

var testSecret = []byte("service-test-secret-0123456789abcdef")

const testIssuer = "compass-test"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	store       *sqlite.Store
	clock       *fakeClock
	metrics     *service.Metrics
	verifier    *jwtx.HS256Verifier
	users       *service.UserService
	assessments *service.AssessmentService
	invites     *service.InviteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations(t.Context()))

	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	metrics := service.NewMetrics(prometheus.NewRegistry(), "compass")

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(testSecret, testIssuer)
	require.NoError(t, err)
	verifier.Now = clock.Now

	tokens := &service.TokenService{Signer: signer, Issuer: testIssuer, Now: clock.Now}

	return &testEnv{
		store:       st,
		clock:       clock,
		metrics:     metrics,
		verifier:    verifier,
		users:       &service.UserService{Store: st, Tokens: tokens},
		assessments: &service.AssessmentService{Store: st, Metrics: metrics, Now: clock.Now},
		invites:     &service.InviteService{Store: st, Metrics: metrics, Now: clock.Now},
	}
}

func (e *testEnv) register(t *testing.T, email string) domain.User {
	t.Helper()
	res, err := e.users.Register(t.Context(), email, "correct-horse")
	require.NoError(t, err)
	return res.User
}

func (e *testEnv) createAssessment(t *testing.T, ownerID, company string, days int) domain.Assessment {
	t.Helper()
	a, err := e.assessments.Create(t.Context(), ownerID, service.CreateAssessment{
		CompanyName: company,
		InviteDays:  &days,
	})
	require.NoError(t, err)
	return a
}

func ptr[T any](v T) *T { return &v }
