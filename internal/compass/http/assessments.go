package http

import (
	"net/http"

	"github.com/aussiebroadwan/compass/internal/compass/service"
	"github.com/aussiebroadwan/compass/pkg/compasssdk"
	"github.com/aussiebroadwan/compass/pkg/httpx"
)

// AssessmentsHandler serves the owner endpoints. Every route sits behind
// httpx.RequireAuth.
type AssessmentsHandler struct {
	AssessmentService *service.AssessmentService
}

// HandleList godoc
//
//	@Summary	List assessments
//	@Tags		Assessments
//	@Produce	json
//	@Success	200	{array}		compasssdk.AssessmentSummary	"Newest first"
//	@Failure	401	{object}	httpx.ErrorBody
//	@Security	BearerAuth
//	@Router		/api/assessments [get]
func (h *AssessmentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := httpx.UserIDFromContext(r.Context())

	list, err := h.AssessmentService.List(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]compasssdk.AssessmentSummary, 0, len(list))
	for _, a := range list {
		out = append(out, toSummary(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate godoc
//
//	@Summary		Create assessment
//	@Description	Opens an assessment with a fresh invite token valid for invite_days (default 30, max 365).
//	@Tags			Assessments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		compasssdk.CreateAssessmentRequest	true	"Company profile"
//	@Success		201		{object}	compasssdk.AssessmentSummary
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Security		BearerAuth
//	@Router			/api/assessments [post]
func (h *AssessmentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := httpx.UserIDFromContext(r.Context())

	var req service.CreateAssessment
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	a, err := h.AssessmentService.Create(r.Context(), ownerID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toSummary(a))
}

// HandleGet godoc
//
//	@Summary	Get assessment
//	@Tags		Assessments
//	@Produce	json
//	@Param		id	path		string	true	"Assessment id"
//	@Success	200	{object}	compasssdk.AssessmentSummary
//	@Failure	400	{object}	httpx.ErrorBody	"Malformed id"
//	@Failure	401	{object}	httpx.ErrorBody
//	@Failure	403	{object}	httpx.ErrorBody	"Not the owner"
//	@Failure	404	{object}	httpx.ErrorBody
//	@Security	BearerAuth
//	@Router		/api/assessments/{id} [get]
func (h *AssessmentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := httpx.UserIDFromContext(r.Context())

	a, err := h.AssessmentService.Get(r.Context(), r.PathValue("id"), ownerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSummary(a))
}

// HandleUpdate godoc
//
//	@Summary		Update assessment
//	@Description	Sparse update. Absent fields are left alone; null clears company_industry and company_size.
//	@Description	invite_days moves the invite expiry to now plus that many days and keeps the token.
//	@Tags			Assessments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Assessment id"
//	@Param			request	body		compasssdk.UpdateAssessmentRequest	true	"Fields to change"
//	@Success		200		{object}	compasssdk.OKResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody
//	@Security		BearerAuth
//	@Router			/api/assessments/{id} [patch]
func (h *AssessmentsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := httpx.UserIDFromContext(r.Context())

	var patch service.OwnerPatch
	if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		writeBadJSON(w)
		return
	}

	if err := h.AssessmentService.Update(r.Context(), r.PathValue("id"), ownerID, patch); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, compasssdk.OKResponse{OK: true})
}
