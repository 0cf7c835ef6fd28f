package handlers

import (
	"net/http"

	"familytree/internal/service"
)

type treeRequest struct {
	ID       *int64 `json:"id,omitempty"`
	Name     string `json:"name" validate:"required,max=100"`
	IsPublic bool   `json:"isPublic"`
}

type roleRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

// TreeHandler serves tree and role assignment endpoints
type TreeHandler struct {
	trees   *service.TreeService
	members *service.MemberService
	rels    *service.RelationshipService
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(trees *service.TreeService, members *service.MemberService, rels *service.RelationshipService) *TreeHandler {
	return &TreeHandler{trees: trees, members: members, rels: rels}
}

// CreateTree handles POST /api/trees
func (h *TreeHandler) CreateTree(w http.ResponseWriter, r *http.Request) {
	var req treeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	tree, err := h.trees.CreateTree(CallerFromContext(r.Context()), req.Name, req.IsPublic)
	if err != nil {
		respondWithServiceError(w, "Failed to create tree", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, tree)
}

// ListTrees handles GET /api/trees
func (h *TreeHandler) ListTrees(w http.ResponseWriter, r *http.Request) {
	trees, err := h.trees.ListTrees(CallerFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Failed to list trees", err)
		return
	}
	respondWithJSON(w, http.StatusOK, trees)
}

// GetTree handles GET /api/trees/{id}
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	tree, err := h.trees.GetTree(CallerFromContext(r.Context()), treeID)
	if err != nil {
		respondWithServiceError(w, "Failed to get tree", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tree)
}

// UpdateTree handles PUT /api/trees/{id}
func (h *TreeHandler) UpdateTree(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	var req treeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if req.ID != nil && *req.ID != treeID {
		respondWithServiceError(w, "", service.ErrIDMismatch)
		return
	}

	tree, err := h.trees.UpdateTree(CallerFromContext(r.Context()), treeID, req.Name, req.IsPublic)
	if err != nil {
		respondWithServiceError(w, "Failed to update tree", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tree)
}

// DeleteTree handles DELETE /api/trees/{id}
func (h *TreeHandler) DeleteTree(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	if err := h.trees.DeleteTree(CallerFromContext(r.Context()), treeID); err != nil {
		respondWithServiceError(w, "Failed to delete tree", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /api/trees/{id}/members
func (h *TreeHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	members, err := h.members.ListMembers(CallerFromContext(r.Context()), treeID)
	if err != nil {
		respondWithServiceError(w, "Failed to list members", err)
		return
	}
	respondWithJSON(w, http.StatusOK, members)
}

// ListRelationships handles GET /api/trees/{id}/relationships
func (h *TreeHandler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	rels, err := h.rels.ListRelationships(CallerFromContext(r.Context()), treeID)
	if err != nil {
		respondWithServiceError(w, "Failed to list relationships", err)
		return
	}
	respondWithJSON(w, http.StatusOK, rels)
}

// ListTreeRoles handles GET /api/trees/{id}/roles
func (h *TreeHandler) ListTreeRoles(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	roles, err := h.trees.ListTreeRoles(CallerFromContext(r.Context()), treeID)
	if err != nil {
		respondWithServiceError(w, "Failed to list roles", err)
		return
	}
	respondWithJSON(w, http.StatusOK, roles)
}

// AssignRole handles POST /api/trees/{id}/roles
func (h *TreeHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	var req roleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	assignment, err := h.trees.AssignRole(CallerFromContext(r.Context()), treeID, req.UserID, req.Role)
	if err != nil {
		respondWithServiceError(w, "Failed to assign role", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, assignment)
}

// RevokeRole handles DELETE /api/trees/{id}/roles/{userId}
func (h *TreeHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	if err := h.trees.RevokeRole(CallerFromContext(r.Context()), treeID, r.PathValue("userId")); err != nil {
		respondWithServiceError(w, "Failed to revoke role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUserRoles handles GET /api/user-roles
func (h *TreeHandler) ListUserRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.trees.ListUserRoles(CallerFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Failed to list user roles", err)
		return
	}
	respondWithJSON(w, http.StatusOK, roles)
}
