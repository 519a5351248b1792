package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picshelf/service/internal/auth"
	"github.com/picshelf/service/internal/config"
	"github.com/picshelf/service/internal/image"
	"github.com/picshelf/service/internal/metrics"
	"github.com/picshelf/service/internal/storage"
	"github.com/picshelf/service/internal/testutil"
	"github.com/picshelf/service/internal/user"
)

const testSecret = "server-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: testSecret,
		Port:      "0",
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

func newTestServer(t *testing.T, ping func(context.Context) error) *httptest.Server {
	t.Helper()
	st := testutil.OpenSQLite(t)
	users := user.NewService(user.NewSQLiteRepository(st))

	resolver, err := storage.NewResolver("images", 8)
	require.NoError(t, err)
	prom, err := metrics.New()
	require.NoError(t, err)

	h := NewRouter(Deps{
		Config:  testConfig(),
		Users:   users,
		Auth:    auth.NewService(users, testSecret, time.Hour),
		Images:  image.NewService(resolver, image.NewSQLiteRepository(st), prom),
		Metrics: prom.Handler(),
		Ping:    ping,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	token string
	http  *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	return &client{
		t:    t,
		base: srv.URL,
		http: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	c := newClient(t, newTestServer(t, nil))
	resp, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestHealth_DatabaseDown(t *testing.T) {
	c := newClient(t, newTestServer(t, func(context.Context) error { return errors.New("down") }))
	resp, _ := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestImageFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	c := newClient(t, srv)

	resp, body := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alice", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var reg struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &reg))
	c.token = reg.Token

	resp, _ = c.do(http.MethodPost, "/api/v1/images", map[string]int{"number": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "no storage configured yet")

	resp, _ = c.do(http.MethodPut, "/api/v1/users/me/storage", user.StorageConfig{
		Endpoint: "https://s3.test.local/photos", AccessKey: "AKIATEST", SecretKey: "secret-test-key",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = c.do(http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "secret-test-key")
	assert.Contains(t, string(body), `"has_storage":true`)

	resp, body = c.do(http.MethodPost, "/api/v1/images", map[string]int{"number": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var slots []image.UploadSlot
	require.NoError(t, json.Unmarshal(body, &slots))
	require.Len(t, slots, 3)

	resp, body = c.do(http.MethodGet, "/api/v1/images", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var groups []image.Group
	require.NoError(t, json.Unmarshal(body, &groups))
	require.Len(t, groups, 3)

	resp, _ = c.do(http.MethodGet, "/api/v1/images/"+groups[0].Small, nil)
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/photos/"+groups[0].Small, loc.Path)

	resp, _ = c.do(http.MethodGet, "/api/v1/images/"+image.NewFilename(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "picshelf_image_groups_allocated_total 3")
}

func TestImageIsolation(t *testing.T) {
	srv := newTestServer(t, nil)
	storageCfg := user.StorageConfig{Endpoint: "http://minio:9000", AccessKey: "ak", SecretKey: "sk"}

	register := func(name string) *client {
		c := newClient(t, srv)
		resp, body := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
			"username": name, "password": "long-enough-password",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
		var reg struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(body, &reg))
		c.token = reg.Token
		resp, _ = c.do(http.MethodPut, "/api/v1/users/me/storage", storageCfg)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		return c
	}

	alice := register("alice")
	mallory := register("mallory")

	resp, _ := alice.do(http.MethodPost, "/api/v1/images", map[string]int{"number": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, body := alice.do(http.MethodGet, "/api/v1/images", nil)
	var groups []image.Group
	require.NoError(t, json.Unmarshal(body, &groups))
	require.Len(t, groups, 1)

	resp, _ = mallory.do(http.MethodGet, "/api/v1/images/"+groups[0].Original, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = mallory.do(http.MethodGet, "/api/v1/images", nil)
	assert.JSONEq(t, `[]`, string(body))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newClient(t, newTestServer(t, nil))
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPut, "/api/v1/users/me/storage"},
		{http.MethodDelete, "/api/v1/users/me/storage"},
		{http.MethodPost, "/api/v1/images"},
		{http.MethodGet, "/api/v1/images"},
		{http.MethodGet, "/api/v1/images/abc"},
	} {
		resp, _ := c.do(tc.method, tc.path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.method+" "+tc.path)
	}
}

func TestSwaggerUI(t *testing.T) {
	c := newClient(t, newTestServer(t, nil))
	resp, _ := c.do(http.MethodGet, "/swagger/index.html", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	cfg.Port = "9090"
	cfg.HTTP = config.HTTPConfig{ReadTimeout: time.Second, WriteTimeout: 2 * time.Second, IdleTimeout: 3 * time.Second}

	srv := New(cfg, http.NotFoundHandler())
	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
}
