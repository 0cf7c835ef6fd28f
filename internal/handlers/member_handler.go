package handlers

import (
	"net/http"
	"time"

	"familytree/internal/service"
)

type memberRequest struct {
	ID          *int64     `json:"id,omitempty"`
	TreeID      int64      `json:"treeId" validate:"gte=0"`
	FirstName   string     `json:"firstName" validate:"required,max=100"`
	LastName    string     `json:"lastName" validate:"required,max=100"`
	Gender      string     `json:"gender" validate:"required"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	DateOfDeath *time.Time `json:"dateOfDeath,omitempty"`
}

func (req memberRequest) input() service.MemberInput {
	return service.MemberInput{
		TreeID:      req.TreeID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
		DateOfDeath: req.DateOfDeath,
	}
}

// MemberHandler serves member endpoints
type MemberHandler struct {
	members *service.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(members *service.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

// CreateMember handles POST /api/members
func (h *MemberHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if req.TreeID == 0 {
		respondWithError(w, http.StatusBadRequest, "treeId is required", "", nil)
		return
	}

	member, err := h.members.CreateMember(CallerFromContext(r.Context()), req.input())
	if err != nil {
		respondWithServiceError(w, "Failed to create member", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, member)
}

// GetMember handles GET /api/members/{id}
func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	member, err := h.members.GetMember(CallerFromContext(r.Context()), memberID)
	if err != nil {
		respondWithServiceError(w, "Failed to get member", err)
		return
	}
	respondWithJSON(w, http.StatusOK, member)
}

// UpdateMember handles PUT /api/members/{id}
func (h *MemberHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	var req memberRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if req.ID != nil && *req.ID != memberID {
		respondWithServiceError(w, "", service.ErrIDMismatch)
		return
	}

	member, err := h.members.UpdateMember(CallerFromContext(r.Context()), memberID, req.input())
	if err != nil {
		respondWithServiceError(w, "Failed to update member", err)
		return
	}
	respondWithJSON(w, http.StatusOK, member)
}

// DeleteMember handles DELETE /api/members/{id}
func (h *MemberHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	if err := h.members.DeleteMember(CallerFromContext(r.Context()), memberID); err != nil {
		respondWithServiceError(w, "Failed to delete member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
