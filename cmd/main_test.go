package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/authapi"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/config"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/handler"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/middleware"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/storage"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/verification"
)

func TestRun_StartsAndShutsDown(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "0")
	t.Setenv("API_BASE_URL", "http://localhost:9999/api/") // dummy endpoint

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := Run(ctx)
	assert.NoError(t, err)
}

func TestRun_RedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "0")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, Run(ctx))
}

func TestRun_UnknownStorage(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "0")
	t.Setenv("STORAGE_DRIVER", "etcd")

	err := Run(context.Background())
	assert.ErrorContains(t, err, `unknown storage driver "etcd"`)
}

func TestMain_GracefulExit(t *testing.T) {
	// Set environment variables so config.Load() doesn't panic
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "0")

	// Run main in a goroutine (this will block waiting for signal)
	go func() {
		main()
	}()

	// Give time for main to start
	time.Sleep(500 * time.Millisecond)

	// Send SIGINT to simulate Ctrl+C
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("unable to find process: %v", err)
	}
	_ = p.Signal(syscall.SIGINT)

	// Wait for graceful shutdown
	time.Sleep(1 * time.Second)
}

func newTestRouter(t *testing.T, backend http.HandlerFunc) http.Handler {
	t.Helper()
	api := httptest.NewServer(backend)
	t.Cleanup(api.Close)

	log := zaptest.NewLogger(t)
	cfg := &config.Config{
		Env:               "test",
		SessionTTL:        time.Hour,
		TokenTTL:          time.Hour,
		DefaultRetryAfter: 120,
		CountdownInterval: time.Second,
		OTPRateInterval:   time.Minute,
		OTPRateBurst:      1,
	}
	validate := validator.New()
	verifier, err := verification.New(validate)
	require.NoError(t, err)

	h := handler.New(log, storage.NewMemoryStore(), authapi.NewClient(api.URL+"/api/", time.Second, log), validate, verifier, handler.Options{
		SessionTTL:        cfg.SessionTTL,
		TokenTTL:          cfg.TokenTTL,
		DefaultRetryAfter: cfg.DefaultRetryAfter,
		CountdownInterval: cfg.CountdownInterval,
	})
	return newRouter(cfg, log, h, middleware.NewRateLimiter(cfg.OTPRateInterval, cfg.OTPRateBurst, log))
}

func TestRouter_OTPFlow(t *testing.T) {
	var sends atomic.Int32
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/send-otp":
			sends.Add(1)
			_, _ = w.Write([]byte(`{"success":true,"retryAfter":30}`))
		case "/api/auth/verify-otp":
			_, _ = w.Write([]byte(`{"message":"ok","token":"opaque","organizerId":3}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/send-otp", strings.NewReader(`{"mobileNumber":"9876543210"}`)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	send := func(path, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w
	}

	// same session, limiter bucket of one
	w = send("/auth/send-otp", `{"mobileNumber":"9876543210"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, int32(1), sends.Load())

	w = send("/auth/verify-otp", `{"otp":"123456"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"next":"/dashboard"`)
	assert.Contains(t, w.Body.String(), `"isAuthenticated":true`)
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	tests := []struct {
		method     string
		target     string
		body       string
		expectCode int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/auth/status", "", http.StatusOK},
		{http.MethodGet, "/organizer/profile", "", http.StatusUnauthorized},
		{http.MethodGet, "/verification/id-format-hint?id_type=AADHAAR", "", http.StatusOK},
		{http.MethodPost, "/verification/validate", "{}", http.StatusUnprocessableEntity},
		{http.MethodPost, "/verification/validate-field", `{"path":"verifier_id","value":"v-1"}`, http.StatusOK},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body)))
			assert.Equal(t, tc.expectCode, w.Code)
		})
	}
}
