package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything the router serves
type Handlers struct {
	Middleware    *Middleware
	Trees         *TreeHandler
	Members       *MemberHandler
	Relationships *RelationshipHandler
	Invites       *InviteHandler
}

// NewRouter registers every route and wraps the mux with request logging
func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()
	auth := h.Middleware.RequireAuth

	mux.HandleFunc("GET /healthz", Healthz)
	mux.HandleFunc("GET /readyz", Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Trees and roles
	mux.HandleFunc("POST /api/trees", auth(h.Trees.CreateTree))
	mux.HandleFunc("GET /api/trees", auth(h.Trees.ListTrees))
	mux.HandleFunc("GET /api/trees/{id}", auth(h.Trees.GetTree))
	mux.HandleFunc("PUT /api/trees/{id}", auth(h.Trees.UpdateTree))
	mux.HandleFunc("DELETE /api/trees/{id}", auth(h.Trees.DeleteTree))
	mux.HandleFunc("GET /api/trees/{id}/members", auth(h.Trees.ListMembers))
	mux.HandleFunc("GET /api/trees/{id}/relationships", auth(h.Trees.ListRelationships))
	mux.HandleFunc("GET /api/trees/{id}/roles", auth(h.Trees.ListTreeRoles))
	mux.HandleFunc("POST /api/trees/{id}/roles", auth(h.Trees.AssignRole))
	mux.HandleFunc("DELETE /api/trees/{id}/roles/{userId}", auth(h.Trees.RevokeRole))
	mux.HandleFunc("GET /api/user-roles", auth(h.Trees.ListUserRoles))

	// Members
	mux.HandleFunc("POST /api/members", auth(h.Members.CreateMember))
	mux.HandleFunc("GET /api/members/{id}", auth(h.Members.GetMember))
	mux.HandleFunc("PUT /api/members/{id}", auth(h.Members.UpdateMember))
	mux.HandleFunc("DELETE /api/members/{id}", auth(h.Members.DeleteMember))

	// Relationships
	mux.HandleFunc("POST /api/relationships", auth(h.Relationships.CreateRelationship))
	mux.HandleFunc("GET /api/relationships/{id}", auth(h.Relationships.GetRelationship))
	mux.HandleFunc("PUT /api/relationships/{id}", auth(h.Relationships.UpdateRelationship))
	mux.HandleFunc("DELETE /api/relationships/{id}", auth(h.Relationships.DeleteRelationship))

	// Invites
	mux.HandleFunc("POST /api/trees/{id}/invites", auth(h.Invites.IssueInvite))
	mux.HandleFunc("GET /api/invites/validate", h.Middleware.RateLimit(h.Invites.ValidateInvite))
	mux.HandleFunc("POST /api/invites/accept", h.Middleware.RateLimit(auth(h.Invites.AcceptInvite)))

	return Logging(mux)
}
