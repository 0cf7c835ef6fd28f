package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree/internal/auth"
	"familytree/internal/database"
	"familytree/internal/security"
	"familytree/internal/service"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
	tokens  *auth.TokenManager
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	tokens, err := auth.NewTokenManager("test-secret", "FamilyTree", "FamilyTreeUsers")
	require.NoError(t, err)

	rels := service.NewRelationshipService(db)
	members := service.NewMemberService(db)
	trees := service.NewTreeService(db)
	invites := service.NewInviteService(db, "http://example.test", nil)

	router := NewRouter(Handlers{
		Middleware:    NewMiddleware(tokens, security.NewRateLimiter(100, 100, time.Minute)),
		Trees:         NewTreeHandler(trees, members, rels),
		Members:       NewMemberHandler(members),
		Relationships: NewRelationshipHandler(rels),
		Invites:       NewInviteHandler(invites),
	})
	return &apiClient{t: t, handler: router, tokens: tokens}
}

// do sends a request as userID ("" for no token) and decodes a JSON
// response into out when out is non-nil
func (c *apiClient) do(method, path, userID string, body interface{}, out interface{}) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		token, err := c.tokens.Issue(userID, time.Hour)
		require.NoError(c.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type idResponse struct {
	ID       int64  `json:"id"`
	MotherID *int64 `json:"motherId"`
	FatherID *int64 `json:"fatherId"`
	Error    string `json:"error"`
}

func TestAPIRequiresBearerToken(t *testing.T) {
	api := newAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.do("GET", "/api/trees", "", nil, nil))

	req := httptest.NewRequest("GET", "/api/trees", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIFamilyFlow(t *testing.T) {
	api := newAPI(t)

	var tree idResponse
	require.Equal(t, http.StatusCreated, api.do("POST", "/api/trees", "alice", map[string]interface{}{"name": "Smith"}, &tree))

	var father, child idResponse
	require.Equal(t, http.StatusCreated, api.do("POST", "/api/members", "alice",
		map[string]interface{}{"treeId": tree.ID, "firstName": "Sam", "lastName": "Smith", "gender": "male"}, &father))
	require.Equal(t, http.StatusCreated, api.do("POST", "/api/members", "alice",
		map[string]interface{}{"treeId": tree.ID, "firstName": "Kit", "lastName": "Smith", "gender": "female", "dateOfBirth": "1990-04-01T00:00:00Z"}, &child))

	var rel idResponse
	require.Equal(t, http.StatusCreated, api.do("POST", "/api/relationships", "alice",
		map[string]interface{}{"fromPersonId": father.ID, "toPersonId": child.ID, "relationshipType": "Parent"}, &rel))

	var got idResponse
	require.Equal(t, http.StatusOK, api.do("GET", fmt.Sprintf("/api/members/%d", child.ID), "alice", nil, &got))
	require.NotNil(t, got.FatherID)
	assert.Equal(t, father.ID, *got.FatherID)

	// Reverse link closes a loop
	var rejected idResponse
	assert.Equal(t, http.StatusBadRequest, api.do("POST", "/api/relationships", "alice",
		map[string]interface{}{"fromPersonId": child.ID, "toPersonId": father.ID, "relationshipType": "Parent"}, &rejected))
	assert.Contains(t, rejected.Error, "cycle")

	// Path and body ids must agree
	assert.Equal(t, http.StatusBadRequest, api.do("PUT", fmt.Sprintf("/api/relationships/%d", rel.ID), "alice",
		map[string]interface{}{"id": rel.ID + 1, "fromPersonId": father.ID, "toPersonId": child.ID, "relationshipType": "Parent"}, nil))

	// Strangers cannot see a private tree
	assert.Equal(t, http.StatusForbidden, api.do("GET", fmt.Sprintf("/api/trees/%d/members", tree.ID), "mallory", nil, nil))

	var rels []idResponse
	require.Equal(t, http.StatusOK, api.do("GET", fmt.Sprintf("/api/trees/%d/relationships", tree.ID), "alice", nil, &rels))
	assert.Len(t, rels, 1)

	assert.Equal(t, http.StatusNoContent, api.do("DELETE", fmt.Sprintf("/api/relationships/%d", rel.ID), "alice", nil, nil))
	var unlinked map[string]interface{}
	require.Equal(t, http.StatusOK, api.do("GET", fmt.Sprintf("/api/members/%d", child.ID), "alice", nil, &unlinked))
	require.Contains(t, unlinked, "fatherId")
	assert.Nil(t, unlinked["fatherId"])
	assert.Nil(t, unlinked["motherId"])

	assert.Equal(t, http.StatusNoContent, api.do("DELETE", fmt.Sprintf("/api/trees/%d", tree.ID), "alice", nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do("GET", fmt.Sprintf("/api/members/%d", father.ID), "alice", nil, nil))
}

func TestAPIInviteFlow(t *testing.T) {
	api := newAPI(t)

	var tree idResponse
	require.Equal(t, http.StatusCreated, api.do("POST", "/api/trees", "alice", map[string]interface{}{"name": "Smith"}, &tree))

	// Only the owner may invite
	assert.Equal(t, http.StatusForbidden, api.do("POST", fmt.Sprintf("/api/trees/%d/invites", tree.ID), "bob", nil, nil))

	var issued service.IssuedInvite
	require.Equal(t, http.StatusCreated, api.do("POST", fmt.Sprintf("/api/trees/%d/invites", tree.ID), "alice", nil, &issued))
	assert.Equal(t, "http://example.test/invite?token="+issued.Token, issued.URL)

	var details service.InviteDetails
	require.Equal(t, http.StatusOK, api.do("GET", "/api/invites/validate?token="+issued.Token, "", nil, &details))
	assert.Equal(t, "Smith", details.TreeName)

	assert.Equal(t, http.StatusUnauthorized, api.do("POST", "/api/invites/accept?token="+issued.Token, "", nil, nil))
	assert.Equal(t, http.StatusOK, api.do("POST", "/api/invites/accept?token="+issued.Token, "bob", nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do("POST", "/api/invites/accept?token="+issued.Token, "carol", nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do("GET", "/api/invites/validate?token=unknown", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do("GET", "/api/invites/validate", "", nil, nil))

	var roles []map[string]interface{}
	require.Equal(t, http.StatusOK, api.do("GET", "/api/user-roles", "bob", nil, &roles))
	require.Len(t, roles, 1)
	assert.Equal(t, "Family Member", roles[0]["role"])
}

func TestAPIRejectsInvalidBodies(t *testing.T) {
	api := newAPI(t)

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"missing tree name", "/api/trees", map[string]interface{}{"isPublic": true}},
		{"unknown field", "/api/trees", map[string]interface{}{"name": "x", "colour": "red"}},
		{"member without tree", "/api/members", map[string]interface{}{"firstName": "A", "lastName": "B", "gender": "male"}},
		{"relationship without type", "/api/relationships", map[string]interface{}{"fromPersonId": 1, "toPersonId": 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, api.do("POST", tt.path, "alice", tt.body, nil))
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t)

	assert.Equal(t, http.StatusOK, api.do("GET", "/healthz", "", nil, nil))

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "familytree_http_request_duration_seconds")
}
