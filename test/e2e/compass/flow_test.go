package compass_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/compass/pkg/compasssdk"
)

// TestAssessmentFlowSQLite drives an owner and an invitee through a full
// assessment against the embedded store.
func TestAssessmentFlowSQLite(t *testing.T) {
	runAssessmentFlow(t, setupCompassContainer(t))
}

// TestAssessmentFlowMongo runs the same flow against mongo.
func TestAssessmentFlowMongo(t *testing.T) {
	runAssessmentFlow(t, setupCompassWithMongo(t))
}

func runAssessmentFlow(t *testing.T, client *compasssdk.Client) {
	ctx := t.Context()

	owner := registerOwner(t, client, "owner@example.com")

	// Login is case-insensitive on email.
	login, err := client.Login(ctx, "Owner@Example.com", ownerPassword)
	require.NoError(t, err)
	require.Equal(t, owner.User.ID, login.User.ID)

	_, err = client.Login(ctx, "owner@example.com", "wrong password")
	requireStatus(t, err, http.StatusUnauthorized, "Invalid credentials")

	industry := "Retail"
	created, err := owner.CreateAssessment(ctx, compasssdk.CreateAssessmentRequest{
		CompanyName:     "Acme",
		CompanyIndustry: &industry,
	})
	require.NoError(t, err)
	require.Equal(t, "active", created.Status)
	require.NotEmpty(t, created.InviteToken)

	list, err := owner.ListAssessments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)

	// Another owner can neither see nor touch it.
	other := registerOwner(t, client, "other@example.com")
	_, err = other.GetAssessment(ctx, created.ID)
	requireStatus(t, err, http.StatusForbidden, "")
	others, err := other.ListAssessments(ctx)
	require.NoError(t, err)
	require.Empty(t, others)

	// The invitee fills in the assessment.
	snap, err := client.GetInvite(ctx, created.InviteToken)
	require.NoError(t, err)
	require.Equal(t, "Acme", snap.CompanyName)
	require.Equal(t, &industry, snap.CompanyIndustry)

	err = client.UpdateInvite(ctx, created.InviteToken, compasssdk.UpdateInviteRequest{
		ExecProfile: &compasssdk.ExecProfile{Name: "Jo", Title: "CEO", Email: "jo@acme.test"},
		Scores:      json.RawMessage(`{"strategy":{"$gt":3}}`),
		Progress:    &compasssdk.Progress{CompletedMetrics: 2, TotalMetrics: 10, Percent: 20},
		Clear:       []string{"company_industry"},
	})
	require.NoError(t, err)

	snap, err = client.GetInvite(ctx, created.InviteToken)
	require.NoError(t, err)
	require.Nil(t, snap.CompanyIndustry)
	require.NotNil(t, snap.ExecProfile)
	require.Equal(t, "Jo", snap.ExecProfile.Name)
	require.JSONEq(t, `{"strategy":{"$gt":3}}`, string(snap.Scores))
	require.Equal(t, 20, snap.Progress.Percent)

	got, err := owner.GetAssessment(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Progress)
	require.Equal(t, 2, got.Progress.CompletedMetrics)

	// Completing closes the link.
	completed := "completed"
	require.NoError(t, client.UpdateInvite(ctx, created.InviteToken, compasssdk.UpdateInviteRequest{Status: &completed}))

	_, err = client.GetInvite(ctx, created.InviteToken)
	requireStatus(t, err, http.StatusForbidden, "Assessment cancelled")

	// The owner can reopen it.
	active := "active"
	require.NoError(t, owner.UpdateAssessment(ctx, created.ID, compasssdk.UpdateAssessmentRequest{Status: &active}))
	_, err = client.GetInvite(ctx, created.InviteToken)
	require.NoError(t, err)

	_, err = client.GetInvite(ctx, "no-such-token")
	requireStatus(t, err, http.StatusNotFound, "")
}

func TestUnauthenticatedAccess(t *testing.T) {
	client := setupCompassContainer(t)

	_, err := client.NewSession("").ListAssessments(t.Context())
	requireStatus(t, err, http.StatusUnauthorized, "Not authenticated")

	_, err = client.NewSession("garbage").Me(t.Context())
	requireStatus(t, err, http.StatusUnauthorized, "Invalid token")

	_, err = client.Register(t.Context(), "not-an-email", ownerPassword)
	requireStatus(t, err, http.StatusBadRequest, "Invalid email address")
}
