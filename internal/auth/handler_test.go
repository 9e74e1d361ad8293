package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(p *LocalProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(p, nil).RegisterRoutes(r.Group("/auth"))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": testEmail, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHandler_Login(t *testing.T) {
	r := newAuthRouter(testProvider())

	token := login(t, r)

	w := doJSON(t, r, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, testEmail, me.Email)
	assert.Equal(t, RoleAdmin, me.Role)

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": testEmail, "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_LogoutRevokesTokens(t *testing.T) {
	r := newAuthRouter(testProvider())
	token := login(t, r)

	w := doJSON(t, r, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	fresh := login(t, r)
	w = doJSON(t, r, http.MethodGet, "/auth/me", fresh, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_ResetPassword(t *testing.T) {
	r := newAuthRouter(testProvider())

	w := doJSON(t, r, http.MethodPost, "/auth/reset-password", "", gin.H{"email": testEmail})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/reset-password", "", gin.H{"email": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/reset-password", "", gin.H{"email": "nobody@example.org"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	p := testProvider()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthMiddleware(p.Tokens, p), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": MustGetClaims(c).Email})
	})

	w := doJSON(t, r, http.MethodGet, "/private", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/private", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	viewer, _, err := p.Tokens.Sign(User{Email: "viewer@example.org", Role: "viewer"}, p.TokenVersion())
	require.NoError(t, err)
	w = doJSON(t, r, http.MethodGet, "/private", viewer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, _, err := p.Tokens.Sign(User{Email: testEmail, Role: RoleAdmin}, p.TokenVersion())
	require.NoError(t, err)
	w = doJSON(t, r, http.MethodGet, "/private", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), testEmail)
}
