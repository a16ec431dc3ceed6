package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func captureSession(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = SessionID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", SessionCookie)
	return nil
}

func TestSession_IssuesCookie(t *testing.T) {
	var got string
	h := Session(time.Hour, false, zaptest.NewLogger(t))(captureSession(&got))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/status", nil))

	_, err := uuid.Parse(got)
	require.NoError(t, err)
	c := sessionCookie(t, w)
	assert.Equal(t, got, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestSession_KeepsExistingCookie(t *testing.T) {
	var got string
	h := Session(time.Hour, true, zaptest.NewLogger(t))(captureSession(&got))

	id := uuid.NewString()
	r := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, id, got)
	assert.True(t, sessionCookie(t, w).Secure)
}

func TestSession_ReplacesMalformedCookie(t *testing.T) {
	var got string
	h := Session(time.Hour, false, zaptest.NewLogger(t))(captureSession(&got))

	r := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.NotEqual(t, "../../etc", got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestSessionID_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, SessionID(r.Context()))
	assert.Equal(t, "abc", SessionID(WithSessionID(r.Context(), "abc")))
}
