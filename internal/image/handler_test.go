package image

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picshelf/service/internal/middleware"
	"github.com/picshelf/service/internal/user"
)

func newTestRouter(svc *Service, users UserLookup, userID int64) http.Handler {
	h := NewHandler(svc, users)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID > 0 {
				r = r.WithContext(middleware.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Post("/images", h.RequestUpload)
	r.Get("/images", h.ListImages)
	r.Get("/images/{id}", h.GetImage)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_UploadListDownload(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "alice", true)
	router := newTestRouter(f.svc, f.users, u.ID)

	rec := do(t, router, http.MethodPost, "/images", `{"number":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var slots []UploadSlot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	require.Len(t, slots, 2)

	rec = do(t, router, http.MethodGet, "/images", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []Group
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 2)
	assert.NotContains(t, rec.Body.String(), "user_id")

	rec = do(t, router, http.MethodGet, "/images/"+groups[1].Medium, "")
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/photos/"+groups[1].Medium, loc.Path)
	assert.Equal(t, "600", loc.Query().Get("X-Amz-Expires"))
}

func TestHandler_UploadZero(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "alice", true)
	router := newTestRouter(f.svc, f.users, u.ID)

	rec := do(t, router, http.MethodPost, "/images", `{"number":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_UploadRejects(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "alice", true)
	router := newTestRouter(f.svc, f.users, u.ID)

	for _, body := range []string{`{"number":33}`, `{"number":-1}`, `{}`, `{"number":"3"}`, `nope`} {
		rec := do(t, router, http.MethodPost, "/images", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := do(t, router, http.MethodGet, "/images", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_UploadWithoutStorage(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "bob", false)
	router := newTestRouter(f.svc, f.users, u.ID)

	rec := do(t, router, http.MethodPost, "/images", `{"number":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestHandler_DownloadNotFound(t *testing.T) {
	f := newFixture(t)
	alice := f.newUser(t, "alice", true)
	mallory := f.newUser(t, "mallory", true)

	rec := do(t, newTestRouter(f.svc, f.users, alice.ID), http.MethodPost, "/images", `{"number":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	groups, err := f.svc.ListGroups(context.Background(), alice.ID)
	require.NoError(t, err)

	rec = do(t, newTestRouter(f.svc, f.users, mallory.ID), http.MethodGet, "/images/"+groups[0].Small, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, newTestRouter(f.svc, f.users, alice.ID), http.MethodGet, "/images/"+NewFilename(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_DownloadAfterStorageCleared(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "alice", true)
	router := newTestRouter(f.svc, f.users, u.ID)
	ctx := context.Background()

	rec := do(t, router, http.MethodPost, "/images", `{"number":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	groups, err := f.svc.ListGroups(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	require.NoError(t, f.users.SetStorage(ctx, u.ID, nil))

	unknown := do(t, router, http.MethodGet, "/images/"+NewFilename(), "")
	for _, v := range Variants {
		rec = do(t, router, http.MethodGet, "/images/"+groups[0].Filename(v), "")
		assert.Equal(t, http.StatusNotFound, rec.Code, v)
		assert.Empty(t, rec.Header().Get("Location"), v)
		assert.JSONEq(t, `{"error":"image not found"}`, rec.Body.String(), v)
		assert.Equal(t, unknown.Body.String(), rec.Body.String(), v)
	}
}

func TestHandler_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f.svc, f.users, 0)

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/images", `{"number":1}`).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/images", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/images/abc", "").Code)
}

func TestHandler_UnknownUser(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f.svc, f.users, 4242)

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/images", `{"number":1}`).Code)
}

func TestHandler_ObjectStoreFailure(t *testing.T) {
	f := newFixture(t)
	u := f.newUser(t, "alice", true)
	svc := NewService(fakeResolver{bucket: fakeBucket{failUpload: true}}, f.groups, nil)
	router := newTestRouter(svc, f.users, u.ID)

	rec := do(t, router, http.MethodPost, "/images", `{"number":1}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), testStorage.SecretKey)
}

type failingUsers struct{}

func (failingUsers) GetByID(context.Context, int64) (*user.User, error) {
	return nil, assert.AnError
}

func TestHandler_UserLookupFailure(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f.svc, failingUsers{}, 1)

	assert.Equal(t, http.StatusInternalServerError, do(t, router, http.MethodPost, "/images", `{"number":1}`).Code)
}
