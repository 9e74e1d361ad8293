package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microteca/internal/auth"
	"microteca/internal/catalog"
	"microteca/internal/server"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seed, err := catalog.LoadSeed("")
	require.NoError(t, err)
	v, err := auth.NewBcryptVerifier("curator@lab.example", "", "pw")
	require.NoError(t, err)
	provider := auth.NewLocalProvider(v,
		auth.TokenService{Secret: []byte("k"), Issuer: "microteca", Duration: time.Hour},
		auth.User{Email: "curator@lab.example", Name: "Curator"})

	srv := httptest.NewServer(server.NewRouter(server.Deps{
		Store: catalog.NewSeededStore(seed),
		Auth:  provider,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIClient_Authenticate(t *testing.T) {
	srv := newTestAPI(t)
	c := newAPIClient(srv.URL)
	ctx := context.Background()

	grant, err := c.Authenticate(ctx, "curator@lab.example", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, auth.RoleAdmin, grant.User.Role)

	_, err = c.Authenticate(ctx, "curator@lab.example", "bad")
	assert.True(t, errors.Is(err, auth.ErrInvalidCredentials))

	_, err = c.RequestReset(ctx, "nobody@lab.example")
	assert.True(t, errors.Is(err, auth.ErrUnknownEmail))
}

func TestAPIClient_SessionRoundTrip(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()
	ks := auth.NewFileKeyStore(t.TempDir() + "/session.json")

	s := auth.NewSession(newAPIClient(srv.URL), ks, nil)
	require.NoError(t, s.Init())
	require.True(t, s.Login(ctx, "curator@lab.example", "pw").Success)

	var stats catalog.Stats
	err := newAPIClient(srv.URL).doJSON(ctx, "GET", "/admin/stats", s.Token(), nil, &stats)
	require.NoError(t, err)
	assert.Positive(t, stats.Total)

	// a later invocation picks the session up from disk
	later := auth.NewSession(newAPIClient(srv.URL), ks, nil)
	require.NoError(t, later.Init())
	assert.True(t, later.Status().IsAuthenticated)
	assert.Equal(t, s.Token(), later.Token())
}

func TestAPIClient_ErrorBody(t *testing.T) {
	srv := newTestAPI(t)
	err := newAPIClient(srv.URL).doJSON(context.Background(), "GET", "/admin/stats", "", nil, nil)

	var ae *apiError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 401, ae.Status)
	assert.Equal(t, "missing bearer token", ae.Message)
}

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "/microorganisms", withQuery("/microorganisms", map[string]string{"q": ""}))
	assert.Equal(t, "/microorganisms?category=Fungus&q=asp",
		withQuery("/microorganisms", map[string]string{"q": "asp", "category": "Fungus"}))
}

func TestWebsocketURL(t *testing.T) {
	u, err := websocketURL("http://localhost:8080", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws", u)

	u, err = websocketURL("https://microteca.example", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "wss://microteca.example/ws", u)
}
