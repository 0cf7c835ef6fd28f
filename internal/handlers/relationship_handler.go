package handlers

import (
	"net/http"
	"time"

	"familytree/internal/service"
)

type relationshipRequest struct {
	ID               *int64     `json:"id,omitempty"`
	FromPersonID     int64      `json:"fromPersonId" validate:"required,gt=0"`
	ToPersonID       int64      `json:"toPersonId" validate:"required,gt=0"`
	RelationshipType string     `json:"relationshipType" validate:"required"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
}

func (req relationshipRequest) input() service.RelationshipInput {
	return service.RelationshipInput{
		FromPersonID: req.FromPersonID,
		ToPersonID:   req.ToPersonID,
		Type:         req.RelationshipType,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
}

// RelationshipHandler serves relationship endpoints
type RelationshipHandler struct {
	rels *service.RelationshipService
}

// NewRelationshipHandler creates a new relationship handler
func NewRelationshipHandler(rels *service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{rels: rels}
}

// CreateRelationship handles POST /api/relationships
func (h *RelationshipHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	rel, err := h.rels.CreateRelationship(CallerFromContext(r.Context()), req.input())
	if err != nil {
		respondWithServiceError(w, "Failed to create relationship", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, rel)
}

// GetRelationship handles GET /api/relationships/{id}
func (h *RelationshipHandler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	relID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	rel, err := h.rels.GetRelationship(CallerFromContext(r.Context()), relID)
	if err != nil {
		respondWithServiceError(w, "Failed to get relationship", err)
		return
	}
	respondWithJSON(w, http.StatusOK, rel)
}

// UpdateRelationship handles PUT /api/relationships/{id}
func (h *RelationshipHandler) UpdateRelationship(w http.ResponseWriter, r *http.Request) {
	relID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	var req relationshipRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if req.ID != nil && *req.ID != relID {
		respondWithServiceError(w, "", service.ErrIDMismatch)
		return
	}

	rel, err := h.rels.UpdateRelationship(CallerFromContext(r.Context()), relID, req.input())
	if err != nil {
		respondWithServiceError(w, "Failed to update relationship", err)
		return
	}
	respondWithJSON(w, http.StatusOK, rel)
}

// DeleteRelationship handles DELETE /api/relationships/{id}
func (h *RelationshipHandler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	relID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	if err := h.rels.DeleteRelationship(CallerFromContext(r.Context()), relID); err != nil {
		respondWithServiceError(w, "Failed to delete relationship", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
