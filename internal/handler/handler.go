// Package handler contains the HTTP handlers of the organizer portal.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/apperror"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/authapi"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/middleware"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/model"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/session"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/storage"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/verification"
)

// Pages the UI is sent to.
const (
	PageLogin        = "/"
	PageVerifyOTP    = "/verify-otp"
	PageProfileSetup = "/profile-setup"
	PageDashboard    = "/dashboard"
)

const (
	msgSessionExpired = "Your session has expired. Please log in again."
	msgEnterMobile    = "Please enter your mobile number"
)

// Options holds the session settings the handlers pass to every manager.
type Options struct {
	SessionTTL        time.Duration
	TokenTTL          time.Duration
	DefaultRetryAfter int
	CountdownInterval time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler wraps HTTP handlers with their dependencies.
type Handler struct {
	log      *zap.Logger
	store    storage.Store
	api      authapi.Client
	validate *validator.Validate
	verifier *verification.Validator
	opts     Options
}

// New creates a new Handler instance.
func New(log *zap.Logger, store storage.Store, api authapi.Client, v *validator.Validate, verifier *verification.Validator, opts Options) *Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{log: log, store: store, api: api, validate: v, verifier: verifier, opts: opts}
}

// Healthz is a simple health check endpoint.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type mobileRequest struct {
	MobileNumber string `json:"mobileNumber"`
}

type otpRequest struct {
	OTP string `json:"otp"`
}

type sessionResponse struct {
	Session        session.Snapshot `json:"session"`
	Error          string           `json:"error,omitempty"`
	Message        string           `json:"message,omitempty"`
	Next           string           `json:"next,omitempty"`
	SessionExpired bool             `json:"sessionExpired,omitempty"`
}

// sessionRequest is the manager for the caller's session, restored from
// storage. logout records a forced or requested logout during the request.
type sessionRequest struct {
	mgr    *session.Manager
	state  *storage.Session
	logout *session.LogoutReason
}

func (h *Handler) sessionFor(w http.ResponseWriter, r *http.Request) (*sessionRequest, bool) {
	id := middleware.SessionID(r.Context())
	if id == "" {
		h.log.Error("request without session id", zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
		return nil, false
	}

	sr := &sessionRequest{state: storage.NewSession(h.store, id, h.opts.SessionTTL)}
	sr.mgr = session.NewManager(h.api, sr.state, h.log.With(zap.String("session", id)), session.Options{
		DefaultRetryAfter: h.opts.DefaultRetryAfter,
		TokenTTL:          h.opts.TokenTTL,
		Now:               h.opts.Now,
		OnLogout: func(reason session.LogoutReason) {
			sr.logout = &reason
		},
	})
	sr.mgr.Restore(r.Context())
	return sr, true
}

// SetMobileNumber records a mobile number edit and returns its validation
// message, if any.
func (h *Handler) SetMobileNumber(w http.ResponseWriter, r *http.Request) {
	var req mobileRequest
	if !h.decode(w, r, &req) {
		return
	}
	sr, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	if err := sr.mgr.SetMobileNumber(r.Context(), req.MobileNumber); err != nil {
		h.log.Error("unable to save mobile number", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": authapi.UserMessage(err)})
		return
	}
	snap := sr.mgr.Snapshot()
	writeJSON(w, http.StatusOK, sessionResponse{
		Session: snap,
		Error:   session.ValidateMobileNumber(snap.MobileNumber),
	})
}

// SendOTP dispatches an OTP to the posted mobile number.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req mobileRequest
	if !h.decode(w, r, &req) {
		return
	}
	sr, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	resp, err := sr.mgr.SendOTP(r.Context(), req.MobileNumber)
	h.writeDispatch(w, sr, resp, err)
}

// ResendOTP re-dispatches to the session's mobile number once the cooldown
// has run out.
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	sr, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	resp, err := sr.mgr.ResendOTP(r.Context())
	switch {
	case errors.Is(err, session.ErrCooldownActive):
		left := sr.mgr.TimeRemaining()
		w.Header().Set("Retry-After", fmt.Sprint(left))
		writeJSON(w, http.StatusTooManyRequests, sessionResponse{
			Session: sr.mgr.Snapshot(),
			Error:   fmt.Sprintf("You can resend the OTP in %d seconds", left),
		})
		return
	case errors.Is(err, session.ErrNoMobileNumber):
		writeJSON(w, http.StatusBadRequest, sessionResponse{
			Session: sr.mgr.Snapshot(),
			Error:   msgEnterMobile,
			Next:    PageLogin,
		})
		return
	}
	h.writeDispatch(w, sr, resp, err)
}

func (h *Handler) writeDispatch(w http.ResponseWriter, sr *sessionRequest, resp *authapi.SendOTPResponse, err error) {
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, session.ErrRequestInFlight) {
			status = http.StatusConflict
		}
		writeJSON(w, status, sessionResponse{Session: sr.mgr.Snapshot(), Error: authapi.UserMessage(err)})
		return
	}

	snap := sr.mgr.Snapshot()
	switch {
	case resp.Success:
		writeJSON(w, http.StatusOK, sessionResponse{Session: snap, Message: resp.Message, Next: PageVerifyOTP})
	case resp.ShouldRedirect:
		// an OTP is already out for this number
		writeJSON(w, http.StatusOK, sessionResponse{Session: snap, Message: resp.Error, Next: PageVerifyOTP})
	default:
		msg := snap.Error
		if msg == "" {
			msg = resp.Error
		}
		writeJSON(w, http.StatusBadRequest, sessionResponse{Session: snap, Error: msg})
	}
}

// VerifyOTP exchanges the posted code for a token kept in the session.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !h.decode(w, r, &req) {
		return
	}
	sr, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	resp, err := sr.mgr.VerifyOTP(r.Context(), req.OTP)
	if err != nil {
		var verr *session.ValidationError
		var apiErr *authapi.APIError
		status := http.StatusBadGateway
		msg := authapi.UserMessage(err)
		next := ""
		switch {
		case errors.As(err, &verr):
			status = http.StatusBadRequest
			msg = verr.Message
		case errors.Is(err, session.ErrNoMobileNumber):
			status = http.StatusBadRequest
			msg = msgEnterMobile
			next = PageLogin
		case errors.Is(err, session.ErrRequestInFlight):
			status = http.StatusConflict
		case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
			status = http.StatusBadRequest
		}
		writeJSON(w, status, sessionResponse{Session: sr.mgr.Snapshot(), Error: msg, Next: next})
		return
	}

	next := PageDashboard
	if resp.NeedsProfile() {
		next = PageProfileSetup
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sr.mgr.Snapshot(), Message: resp.Message, Next: next})
}

// SignUp submits the organizer profile for the logged in mobile number.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req authapi.SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Warn("validation failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apperror.CustomValidationError(err))
		return
	}

	sr, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	resp, err := sr.mgr.SignUp(r.Context(), req)
	if err != nil {
		if h.writeLoggedOut(w, sr) {
			return
		}
		if errors.Is(err, session.ErrNoMobileNumber) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgEnterMobile, "redirect": PageLogin})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": authapi.UserMessage(err)})
		return
	}

	switch {
	case resp.Success:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": resp.Message, "next": PageDashboard})
	case resp.ShouldRedirect:
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": resp.Error, "next": PageDashboard})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": sr.mgr.Error()})
	}
}

// Logout clears the session and sends the UI back to the entry screen.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sr, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	if err := sr.mgr.Logout(r.Context()); err != nil {
		h.log.Error("logout failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": PageLogin})
}

// Status returns the session state. The one-shot expiry notice left by a
// forced logout is reported and consumed here.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	sr, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	resp := sessionResponse{Session: sr.mgr.Snapshot()}
	if !resp.Session.IsAuthenticated {
		expired, err := sr.state.ConsumeSessionExpired(r.Context())
		if err != nil {
			h.log.Warn("unable to read session expiry notice", zap.Error(err))
		}
		if expired {
			resp.SessionExpired = true
			resp.Error = msgSessionExpired
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Countdown streams the remaining resend cooldown as server-sent events: a
// "tick" per interval and a final "ready" once resend is allowed.
func (h *Handler) Countdown(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}
	sr, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	// the server write timeout would cut the stream before the cooldown ends
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.Warn("unable to clear write deadline", zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sr.mgr.Countdown(r.Context(), h.opts.CountdownInterval).
		OnTick(func(left int) {
			writeEvent(w, "tick", map[string]int{"timeRemaining": left})
			flusher.Flush()
		}).
		OnReady(func() {
			writeEvent(w, "ready", map[string]bool{"canResend": true})
			flusher.Flush()
		}).
		Run(r.Context())
}

// Profile returns the organizer profile. A rejected token ends the session.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sr, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	org, err := sr.mgr.Profile(r.Context())
	if err != nil {
		if h.writeLoggedOut(w, sr) {
			return
		}
		if errors.Is(err, session.ErrNotAuthenticated) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Please log in", "redirect": PageLogin})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": authapi.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, org)
}

type validateFieldRequest struct {
	Path     string          `json:"path"`
	Value    any             `json:"value"`
	Document *model.Document `json:"document,omitempty"`
}

// ValidateDocument validates a whole verification document.
func (h *Handler) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	var doc *model.Document
	if !h.decode(w, r, &doc) {
		return
	}

	errs := h.verifier.ValidateDocument(doc)
	if len(errs) > 0 {
		h.log.Debug("verification document invalid", zap.Int("errors", len(errs)))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"valid": false, "errors": errs})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "errors": errs})
}

// ValidateField validates one field for live feedback. When the request
// carries the document, sibling fields are taken into account.
func (h *Handler) ValidateField(w http.ResponseWriter, r *http.Request) {
	var req validateFieldRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		msg string
		err error
	)
	if req.Document != nil {
		msg, err = h.verifier.ValidateFieldInDocument(req.Document, req.Path)
	} else {
		msg, err = h.verifier.ValidateField(req.Path, req.Value)
	}
	if err != nil {
		h.log.Warn("field validation failed", zap.String("path", req.Path), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "path": req.Path})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": req.Path, "valid": msg == "", "error": msg})
}

// IDFormatHint describes the id_number format for the id_type query value.
func (h *Handler) IDFormatHint(w http.ResponseWriter, r *http.Request) {
	idType := r.URL.Query().Get("id_type")
	writeJSON(w, http.StatusOK, map[string]string{
		"id_type": idType,
		"hint":    verification.IDFormatHint(idType),
	})
}

// writeLoggedOut answers with 401 when the request ended in a forced logout.
func (h *Handler) writeLoggedOut(w http.ResponseWriter, sr *sessionRequest) bool {
	if sr.logout == nil || *sr.logout != session.LogoutExpired {
		return false
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"error":          msgSessionExpired,
		"redirect":       PageLogin,
		"sessionExpired": true,
	})
	return true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Error("failed to decode json", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request payload",
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, _ := json.Marshal(v)
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
