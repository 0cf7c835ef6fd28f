package handlers

import (
	"net/http"

	"familytree/internal/service"
)

type inviteRequest struct {
	RecipientEmail string `json:"recipientEmail" validate:"omitempty,email"`
}

// InviteHandler serves invite endpoints
type InviteHandler struct {
	invites *service.InviteService
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(invites *service.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// IssueInvite handles POST /api/trees/{id}/invites. The body is optional.
func (h *InviteHandler) IssueInvite(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	var req inviteRequest
	if err := decodeJSON(r, &req, true); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	issued, err := h.invites.IssueInvite(r.Context(), CallerFromContext(r.Context()), treeID, req.RecipientEmail)
	if err != nil {
		respondWithServiceError(w, "Failed to issue invite", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, issued)
}

// ValidateInvite handles GET /api/invites/validate?token=
func (h *InviteHandler) ValidateInvite(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, ErrMissingToken, "", nil)
		return
	}

	details, err := h.invites.ValidateInvite(token)
	if err != nil {
		respondWithServiceError(w, "Failed to validate invite", err)
		return
	}
	respondWithJSON(w, http.StatusOK, details)
}

// AcceptInvite handles POST /api/invites/accept?token=
func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, ErrMissingToken, "", nil)
		return
	}

	assignment, err := h.invites.RedeemInvite(CallerFromContext(r.Context()), token)
	if err != nil {
		respondWithServiceError(w, "Failed to accept invite", err)
		return
	}
	respondWithJSON(w, http.StatusOK, assignment)
}
