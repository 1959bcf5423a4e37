package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"resdir/internal/config"
	"resdir/internal/db/dbtest"
	"resdir/internal/models"
)

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := dbtest.OpenTest(t)
	cfg := config.Config{JWTSecret: "test-secret", AdminGroup: "admin"}
	return NewRouter(gdb, cfg), gdb
}

func seedAdmin(t *testing.T, gdb *gorm.DB) *models.User {
	t.Helper()
	group := &models.Group{Name: "admin"}
	require.NoError(t, gdb.Create(group).Error)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &models.User{Username: "root", PasswordHash: string(hash), Active: true}
	require.NoError(t, gdb.Create(user).Error)
	require.NoError(t, gdb.Exec(
		"INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)", user.ID, group.ID).Error)
	return user
}

func do(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/auth/login", "",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLoginFailureBodiesAreIdentical(t *testing.T) {
	r, gdb := testRouter(t)
	seedAdmin(t, gdb)

	unknown := do(r, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"ghost","password":"x"}`)
	badPass := do(r, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"root","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, badPass.Code)
	assert.Equal(t, unknown.Body.String(), badPass.Body.String())
	assert.JSONEq(t,
		`{"error":"Unauthorized","message":"Authentication failure"}`,
		unknown.Body.String())
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r, _ := testRouter(t)
	w := do(r, http.MethodGet, "/api/v1/namespaces", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t,
		`{"error":"Unauthorized","message":"Authentication failure"}`,
		w.Body.String())

	w = do(r, http.MethodGet, "/api/v1/namespaces", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestErrorKindsMapToStatuses(t *testing.T) {
	r, gdb := testRouter(t)
	seedAdmin(t, gdb)
	token := login(t, r, "root", "hunter22")

	// Create a namespace through the API, granted to a fresh group.
	w := do(r, http.MethodPost, "/api/v1/groups", token, `{"name":"ops"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var groupResp struct {
		Group models.Group `json:"group"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groupResp))

	body := fmt.Sprintf(`{"name":"prod","group_id":%d}`, groupResp.Group.ID)
	w = do(r, http.MethodPost, "/api/v1/namespaces", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Conflict on a duplicate name.
	w = do(r, http.MethodPost, "/api/v1/namespaces", token, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "Conflict", errResp.Error)

	// NotFound for a missing namespace.
	w = do(r, http.MethodGet, "/api/v1/namespaces/424242", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// BadRequest from the filter compiler, message passed through.
	w = do(r, http.MethodGet, "/api/v1/classes?color=blue", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Message, "Field 'color' isn't searchable")

	// OperatorMismatch also renders as 400.
	w = do(r, http.MethodGet, "/api/v1/classes?name__gt=3", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "OperatorMismatch", errResp.Error)
}

func TestMeReportsGroupLookupFailures(t *testing.T) {
	r, gdb := testRouter(t)
	seedAdmin(t, gdb)
	token := login(t, r, "root", "hunter22")

	w := do(r, http.MethodGet, "/api/v1/me", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var meResp struct {
		Groups []string `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meResp))
	assert.Equal(t, []string{"admin"}, meResp.Groups)

	// A broken membership table must surface as a DatabaseError, not as an
	// empty group list.
	require.NoError(t, gdb.Exec("DROP TABLE user_groups").Error)
	w = do(r, http.MethodGet, "/api/v1/me", token, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var errResp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "DatabaseError", errResp.Error)
}

func TestPermissionEndpointsRoundTrip(t *testing.T) {
	r, gdb := testRouter(t)
	seedAdmin(t, gdb)
	token := login(t, r, "root", "hunter22")

	w := do(r, http.MethodPost, "/api/v1/groups", token, `{"name":"devs"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var groupResp struct {
		Group models.Group `json:"group"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groupResp))

	w = do(r, http.MethodPost, "/api/v1/namespaces", token,
		fmt.Sprintf(`{"name":"lab","group_id":%d}`, groupResp.Group.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var nsResp struct {
		Namespace models.Namespace `json:"namespace"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nsResp))

	base := fmt.Sprintf("/api/v1/namespaces/%d/permissions/%d", nsResp.Namespace.ID, groupResp.Group.ID)

	// Replace the initial full grant with a single flag.
	w = do(r, http.MethodPut, base, token, `{"permissions":["ReadClass"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var grantResp struct {
		Grant models.PermissionGrant `json:"grant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grantResp))
	assert.True(t, grantResp.Grant.HasReadClass)
	assert.False(t, grantResp.Grant.HasDeleteNamespace)

	// Revoking the last flag leaves an empty row; revoke-all removes it.
	w = do(r, http.MethodPatch, base, token, `{"permissions":["ReadClass"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, base, token, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodGet, base, token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
