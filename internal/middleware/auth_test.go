package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(userID int64) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func protected() (http.Handler, *int64) {
	var seen int64
	h := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserIDFrom(r.Context())
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &seen
}

func TestRequireAuth_ValidToken(t *testing.T) {
	h, seen := protected()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims(42), jwt.SigningMethodHS256))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), *seen)
}

func TestRequireAuth_Rejects(t *testing.T) {
	expired := validClaims(7)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	nonNumeric := validClaims(7)
	nonNumeric.Subject = "alice"

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims(7)).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Token abc",
		"garbage token":   "Bearer not-a-jwt",
		"wrong secret":    "Bearer " + signToken(t, "other-secret", validClaims(7), jwt.SigningMethodHS256),
		"expired":         "Bearer " + signToken(t, testSecret, expired, jwt.SigningMethodHS256),
		"non numeric sub": "Bearer " + signToken(t, testSecret, nonNumeric, jwt.SigningMethodHS256),
		"zero subject":    "Bearer " + signToken(t, testSecret, validClaims(0), jwt.SigningMethodHS256),
		"unsigned (none)": "Bearer " + unsigned,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			h, seen := protected()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Zero(t, *seen)
		})
	}
}

func TestUserIDFrom_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserIDFrom(req.Context())
	assert.False(t, ok)
}

func TestLogger_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/images?secret=x", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "status=418")
	assert.Contains(t, buf.String(), "path=/api/v1/images")
	assert.NotContains(t, buf.String(), "secret=x")
}
