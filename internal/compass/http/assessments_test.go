package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/compass/pkg/compasssdk"
	"github.com/stretchr/testify/require"
)

func TestAssessmentLifecycle(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	owner := srv.register(t, "owner@example.com")

	created, err := owner.CreateAssessment(ctx, compasssdk.CreateAssessmentRequest{
		CompanyName:     "Acme",
		CompanyIndustry: ptr("Retail"),
		InviteDays:      ptr(14),
	})
	require.NoError(t, err)
	require.Equal(t, "active", created.Status)
	require.Len(t, created.InviteToken, 43)
	require.WithinDuration(t, srv.clock.Now().Add(14*24*time.Hour), created.InviteExpiresAt, time.Second)
	require.Nil(t, created.Progress)

	srv.clock.Advance(time.Second)
	second, err := owner.CreateAssessment(ctx, compasssdk.CreateAssessmentRequest{CompanyName: "Globex"})
	require.NoError(t, err)

	list, err := owner.ListAssessments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, created.ID, list[1].ID)

	require.NoError(t, owner.UpdateAssessment(ctx, created.ID, compasssdk.UpdateAssessmentRequest{
		CompanyName: ptr(""),
		Status:      ptr("cancelled"),
		Clear:       []string{"company_industry"},
	}))

	got, err := owner.GetAssessment(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "", got.CompanyName)
	require.Equal(t, "cancelled", got.Status)
	require.Nil(t, got.CompanyIndustry)
	require.Equal(t, created.InviteToken, got.InviteToken)
}

func TestAssessmentAccess(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	owner := srv.register(t, "owner@example.com")
	stranger := srv.register(t, "stranger@example.com")

	a, err := owner.CreateAssessment(ctx, compasssdk.CreateAssessmentRequest{CompanyName: "Acme"})
	require.NoError(t, err)

	_, err = stranger.GetAssessment(ctx, a.ID)
	requireAPIError(t, err, http.StatusForbidden, "Forbidden")

	err = stranger.UpdateAssessment(ctx, a.ID, compasssdk.UpdateAssessmentRequest{Status: ptr("cancelled")})
	requireAPIError(t, err, http.StatusForbidden, "Forbidden")

	_, err = owner.GetAssessment(ctx, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV")
	requireAPIError(t, err, http.StatusNotFound, "Not found")

	_, err = owner.GetAssessment(ctx, "not-an-id")
	requireAPIError(t, err, http.StatusBadRequest, "Invalid id")

	theirs, err := stranger.ListAssessments(ctx)
	require.NoError(t, err)
	require.Empty(t, theirs)

	_, err = srv.client.NewSession("").ListAssessments(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, "Not authenticated")
}

func TestAssessmentValidation(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	owner := srv.register(t, "owner@example.com")

	_, err := owner.CreateAssessment(ctx, compasssdk.CreateAssessmentRequest{CompanyName: " "})
	requireAPIError(t, err, http.StatusBadRequest, "company_name is required")

	_, err = owner.CreateAssessment(ctx, compasssdk.CreateAssessmentRequest{CompanyName: "Acme", InviteDays: ptr(0)})
	requireAPIError(t, err, http.StatusBadRequest, "invite_days must be between 1 and 365")

	a, err := owner.CreateAssessment(ctx, compasssdk.CreateAssessmentRequest{CompanyName: "Acme"})
	require.NoError(t, err)

	err = owner.UpdateAssessment(ctx, a.ID, compasssdk.UpdateAssessmentRequest{InviteDays: ptr(400)})
	requireAPIError(t, err, http.StatusBadRequest, "invite_days must be between 1 and 365")
}
