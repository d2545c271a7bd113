package http

import (
	"net/http"

	"github.com/aussiebroadwan/compass/internal/compass/service"
	"github.com/aussiebroadwan/compass/pkg/compasssdk"
	"github.com/aussiebroadwan/compass/pkg/httpx"
)

// InviteHandler serves the anonymous invite endpoints. The token in the
// path is the only credential.
type InviteHandler struct {
	InviteService *service.InviteService
}

// HandleGet godoc
//
//	@Summary	Open invite
//	@Tags		Invites
//	@Produce	json
//	@Param		token	path		string	true	"Invite token"
//	@Success	200		{object}	compasssdk.InviteSnapshot
//	@Failure	403		{object}	httpx.ErrorBody	"Assessment cancelled, or Invite expired"
//	@Failure	404		{object}	httpx.ErrorBody
//	@Router		/api/invite/{token} [get].
func (h *InviteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.InviteService.Snapshot(r.Context(), r.PathValue("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSnapshot(snap))
}

// HandleUpdate godoc
//
//	@Summary		Update through invite
//	@Description	Sparse update. exec_profile and progress replace the stored value.
//	@Description	status is only applied when it is "completed"; other values are ignored.
//	@Tags			Invites
//	@Accept			json
//	@Produce		json
//	@Param			token	path		string							true	"Invite token"
//	@Param			request	body		compasssdk.UpdateInviteRequest	true	"Fields to change"
//	@Success		200		{object}	compasssdk.OKResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Failure		404		{object}	httpx.ErrorBody
//	@Router			/api/invite/{token} [patch].
func (h *InviteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch service.InvitePatch
	if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		writeBadJSON(w)
		return
	}

	if err := h.InviteService.UpdateSnapshot(r.Context(), r.PathValue("token"), patch); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, compasssdk.OKResponse{OK: true})
}
