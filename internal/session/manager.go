// Package session drives the organizer OTP login flow: mobile capture, OTP
// dispatch and verification, the reload-proof resend cooldown and the
// authentication state derived from the stored token.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/authapi"
)

var (
	ErrCooldownActive   = errors.New("resend is not allowed until the cooldown ends")
	ErrRequestInFlight  = errors.New("a request is already in progress")
	ErrNoMobileNumber   = errors.New("no mobile number in session")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenExpired     = errors.New("received an already expired token")
)

// ValidationError is returned when input is rejected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// State is the durable storage behind a session. storage.Session implements it.
type State interface {
	MobileNumber(ctx context.Context) (string, error)
	SetMobileNumber(ctx context.Context, mobile string) error
	OTPSent(ctx context.Context) (bool, error)
	SetOTPSent(ctx context.Context, sent bool) error
	RetryTimer(ctx context.Context) (retryAfter int, retryTimestamp int64, ok bool, err error)
	SetRetryTimer(ctx context.Context, retryAfter int, retryTimestamp int64) error
	ClearRetryTimer(ctx context.Context) error
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string, ttl time.Duration) error
	MarkSessionExpired(ctx context.Context) error
	Clear(ctx context.Context) error
}

// LogoutReason tells the logout hook why the session ended.
type LogoutReason int

const (
	// LogoutRequested is an explicit user logout.
	LogoutRequested LogoutReason = iota
	// LogoutExpired is a forced logout after the backend rejected the token.
	LogoutExpired
)

func (r LogoutReason) String() string {
	if r == LogoutExpired {
		return "expired"
	}
	return "requested"
}

// Options configures a Manager.
type Options struct {
	// DefaultRetryAfter is the cooldown in seconds used when the backend does
	// not send one.
	DefaultRetryAfter int
	// TokenTTL is how long tokens without an exp claim are kept.
	TokenTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// OnLogout is called after the session keys were cleared. It is where the
	// caller navigates back to the entry screen.
	OnLogout func(reason LogoutReason)
}

// Snapshot is a point-in-time copy of the session for rendering.
type Snapshot struct {
	MobileNumber    string `json:"mobileNumber"`
	OTPSent         bool   `json:"otpSent"`
	RetryAfter      int    `json:"retryAfter"`
	RetryTimestamp  int64  `json:"retryTimestamp"`
	TimeRemaining   int    `json:"timeRemaining"`
	CanResend       bool   `json:"canResend"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	Error           string `json:"error,omitempty"`
}

// Manager owns one browser session's login state.
type Manager struct {
	api   authapi.Client
	state State
	log   *zap.Logger
	opts  Options

	mu              sync.Mutex
	inFlight        bool
	mobileNumber    string
	otpSent         bool
	retryAfter      int
	retryTimestamp  int64
	isAuthenticated bool
	err             string
}

// NewManager creates a Manager with empty in-memory state. Call Restore to
// pick up where a previous page load left off.
func NewManager(api authapi.Client, state State, log *zap.Logger, opts Options) *Manager {
	if opts.DefaultRetryAfter <= 0 {
		opts.DefaultRetryAfter = 120
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{api: api, state: state, log: log, opts: opts}
}

// Restore rehydrates the session from durable storage without any network
// call. Missing or unparseable values are treated as absent.
func (m *Manager) Restore(ctx context.Context) {
	mobile, err := m.state.MobileNumber(ctx)
	if err != nil {
		m.log.Warn("unable to read mobile number", zap.Error(err))
	}
	sent, err := m.state.OTPSent(ctx)
	if err != nil {
		m.log.Warn("unable to read otp-sent flag", zap.Error(err))
	}
	retryAfter, retryTimestamp, ok, err := m.state.RetryTimer(ctx)
	if err != nil {
		m.log.Warn("unable to read retry timer", zap.Error(err))
	}

	m.mu.Lock()
	m.mobileNumber = mobile
	m.otpSent = sent && ValidateMobileNumber(mobile) == ""
	m.mu.Unlock()

	if ok {
		m.RestoreRetryTimer(retryAfter, retryTimestamp)
	} else {
		m.RestoreRetryTimer(0, 0)
	}
	m.CheckAuthentication(ctx)
}

// RestoreRetryTimer sets the cooldown pair read back from storage.
func (m *Manager) RestoreRetryTimer(retryAfter int, retryTimestamp int64) {
	if retryAfter < 0 || retryTimestamp < 0 {
		retryAfter, retryTimestamp = 0, 0
	}
	m.mu.Lock()
	m.retryAfter = retryAfter
	m.retryTimestamp = retryTimestamp
	m.mu.Unlock()
}

// TimeRemaining is the resend cooldown left, in whole seconds.
func (m *Manager) TimeRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return RemainingSeconds(m.retryAfter, m.retryTimestamp, m.opts.Now())
}

// SetMobileNumber records a mobile number edit and clears the last error.
// Changing the number drops any dispatched OTP along with its cooldown.
func (m *Manager) SetMobileNumber(ctx context.Context, mobile string) error {
	mobile = NormalizeMobileNumber(mobile)

	m.mu.Lock()
	changed := mobile != m.mobileNumber
	m.mobileNumber = mobile
	m.err = ""
	if changed {
		m.otpSent = false
		m.retryAfter = 0
		m.retryTimestamp = 0
	}
	m.mu.Unlock()

	if err := m.state.SetMobileNumber(ctx, mobile); err != nil {
		return fmt.Errorf("error saving mobile number: %w", err)
	}
	if changed {
		m.persist("otp-sent flag", func() error { return m.state.SetOTPSent(ctx, false) })
		m.persist("retry timer", func() error { return m.state.ClearRetryTimer(ctx) })
	}
	return nil
}

// SendOTP dispatches an OTP to mobile. A number that fails validation comes
// back as an unsuccessful response without touching the network.
func (m *Manager) SendOTP(ctx context.Context, mobile string) (*authapi.SendOTPResponse, error) {
	mobile = NormalizeMobileNumber(mobile)
	if msg := ValidateMobileNumber(mobile); msg != "" {
		m.setError(msg)
		return &authapi.SendOTPResponse{Success: false, Error: msg}, nil
	}

	if !m.begin() {
		return nil, ErrRequestInFlight
	}
	defer m.end()

	resp, err := m.api.SendOTP(ctx, mobile)
	if err != nil {
		m.setError(authapi.UserMessage(err))
		m.log.Error("send otp failed", zap.Error(err))
		return nil, err
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		m.mu.Lock()
		m.mobileNumber = mobile
		if resp.ShouldRedirect {
			m.err = ""
		} else {
			m.err = msg
		}
		m.mu.Unlock()
		if err := m.state.SetMobileNumber(ctx, mobile); err != nil {
			m.log.Warn("unable to persist mobile number", zap.Error(err))
		}
		m.log.Info("send otp declined",
			zap.String("message", msg),
			zap.Bool("should_redirect", resp.ShouldRedirect))
		return resp, nil
	}

	retryAfter := m.opts.DefaultRetryAfter
	if resp.RetryAfter != nil && *resp.RetryAfter > 0 {
		retryAfter = *resp.RetryAfter
	}
	sentAt := m.opts.Now().UnixMilli()

	m.mu.Lock()
	m.mobileNumber = mobile
	m.otpSent = true
	m.retryAfter = retryAfter
	m.retryTimestamp = sentAt
	m.err = ""
	m.mu.Unlock()

	m.persist("mobile number", func() error { return m.state.SetMobileNumber(ctx, mobile) })
	m.persist("otp-sent flag", func() error { return m.state.SetOTPSent(ctx, true) })
	m.persist("retry timer", func() error { return m.state.SetRetryTimer(ctx, retryAfter, sentAt) })

	m.log.Info("otp sent", zap.Int("retry_after", retryAfter))
	return resp, nil
}

// ResendOTP re-dispatches to the session's mobile number once the cooldown
// is over.
func (m *Manager) ResendOTP(ctx context.Context) (*authapi.SendOTPResponse, error) {
	if m.TimeRemaining() > 0 {
		return nil, ErrCooldownActive
	}
	m.mu.Lock()
	mobile := m.mobileNumber
	m.mu.Unlock()
	if mobile == "" {
		return nil, ErrNoMobileNumber
	}
	return m.SendOTP(ctx, mobile)
}

// VerifyOTP exchanges code for a token. On success the token is stored and
// the session is authenticated.
func (m *Manager) VerifyOTP(ctx context.Context, code string) (*authapi.VerifyOTPResponse, error) {
	code = strings.TrimSpace(code)
	if msg := ValidateOTP(code); msg != "" {
		m.setError(msg)
		return nil, &ValidationError{Message: msg}
	}

	m.mu.Lock()
	mobile := m.mobileNumber
	m.mu.Unlock()
	if mobile == "" {
		return nil, ErrNoMobileNumber
	}

	if !m.begin() {
		return nil, ErrRequestInFlight
	}
	defer m.end()

	resp, err := m.api.VerifyOTP(ctx, mobile, code)
	if err != nil {
		m.setError(authapi.UserMessage(err))
		m.log.Warn("verify otp failed", zap.Error(err))
		return nil, err
	}

	ttl := tokenTTL(resp.Token, m.opts.Now(), m.opts.TokenTTL)
	if ttl <= 0 {
		m.setError(authapi.UserMessage(ErrTokenExpired))
		return nil, ErrTokenExpired
	}
	if err := m.state.SetToken(ctx, resp.Token, ttl); err != nil {
		m.setError(authapi.UserMessage(err))
		return nil, fmt.Errorf("error saving token: %w", err)
	}

	m.mu.Lock()
	m.isAuthenticated = true
	m.otpSent = false
	m.retryAfter = 0
	m.retryTimestamp = 0
	m.err = ""
	m.mu.Unlock()

	m.persist("otp-sent flag", func() error { return m.state.SetOTPSent(ctx, false) })
	m.persist("retry timer", func() error { return m.state.ClearRetryTimer(ctx) })

	m.log.Info("otp verified", zap.Bool("needs_profile", resp.NeedsProfile()))
	return resp, nil
}

// CheckAuthentication re-derives isAuthenticated from the stored token.
func (m *Manager) CheckAuthentication(ctx context.Context) bool {
	token, err := m.state.Token(ctx)
	if err != nil {
		m.log.Warn("unable to read token", zap.Error(err))
	}
	authenticated := token != ""
	if authenticated {
		if exp, ok := tokenExpiry(token); ok && !m.opts.Now().Before(exp) {
			authenticated = false
		}
	}

	m.mu.Lock()
	m.isAuthenticated = authenticated
	m.mu.Unlock()
	return authenticated
}

// IsAuthenticated returns the last derived authentication state.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isAuthenticated
}

// Profile fetches the organizer profile with the session token.
func (m *Manager) Profile(ctx context.Context) (*authapi.Organizer, error) {
	token, err := m.state.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading token: %w", err)
	}
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	org, err := m.api.Profile(ctx, token)
	if err != nil {
		m.handleAuthError(ctx, err)
		return nil, err
	}
	return org, nil
}

// SignUp submits the organizer profile for the session's mobile number.
func (m *Manager) SignUp(ctx context.Context, req authapi.SignUpRequest) (*authapi.SignUpResponse, error) {
	if req.MobileNumber == "" {
		m.mu.Lock()
		req.MobileNumber = m.mobileNumber
		m.mu.Unlock()
	}
	if req.MobileNumber == "" {
		return nil, ErrNoMobileNumber
	}

	token, err := m.state.Token(ctx)
	if err != nil {
		m.log.Warn("unable to read token", zap.Error(err))
	}

	resp, err := m.api.SignUp(ctx, token, req)
	if err != nil {
		m.setError(authapi.UserMessage(err))
		m.handleAuthError(ctx, err)
		return nil, err
	}
	if !resp.Success && !resp.ShouldRedirect {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		m.setError(msg)
	}
	return resp, nil
}

// Logout clears every durable session key and hands control back to the
// entry screen.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.state.Clear(ctx)
	m.reset()
	m.log.Info("session logged out")
	if m.opts.OnLogout != nil {
		m.opts.OnLogout(LogoutRequested)
	}
	if err != nil {
		return fmt.Errorf("error clearing session: %w", err)
	}
	return nil
}

// Error is the last user-facing error message.
func (m *Manager) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Snapshot returns the current state for rendering.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	left := RemainingSeconds(m.retryAfter, m.retryTimestamp, m.opts.Now())
	return Snapshot{
		MobileNumber:    m.mobileNumber,
		OTPSent:         m.otpSent,
		RetryAfter:      m.retryAfter,
		RetryTimestamp:  m.retryTimestamp,
		TimeRemaining:   left,
		CanResend:       m.otpSent && left == 0,
		IsAuthenticated: m.isAuthenticated,
		Error:           m.err,
	}
}

// Countdown returns a ticker that reports this session's remaining cooldown.
// Each tick re-reads the stored retry timer so a resend from another request
// restarts the count.
func (m *Manager) Countdown(ctx context.Context, interval time.Duration) *Countdown {
	return NewCountdown(func() int { return m.refreshRetryTimer(ctx) }, interval, m.log)
}

// refreshRetryTimer reloads the cooldown pair from storage and returns the
// seconds left. A failed read keeps the pair already in memory.
func (m *Manager) refreshRetryTimer(ctx context.Context) int {
	retryAfter, retryTimestamp, ok, err := m.state.RetryTimer(ctx)
	switch {
	case err != nil:
		m.log.Warn("unable to read retry timer", zap.Error(err))
	case ok:
		m.RestoreRetryTimer(retryAfter, retryTimestamp)
	default:
		m.RestoreRetryTimer(0, 0)
	}
	return m.TimeRemaining()
}

// handleAuthError forces a logout when the backend rejected the token. It is
// the only path that ends a session without a user action.
func (m *Manager) handleAuthError(ctx context.Context, err error) {
	if !errors.Is(err, authapi.ErrUnauthorized) {
		return
	}
	m.log.Warn("session rejected by backend, logging out")
	if err := m.state.Clear(ctx); err != nil {
		m.log.Error("unable to clear session", zap.Error(err))
	}
	if err := m.state.MarkSessionExpired(ctx); err != nil {
		m.log.Error("unable to record session expiry", zap.Error(err))
	}
	m.reset()
	if m.opts.OnLogout != nil {
		m.opts.OnLogout(LogoutExpired)
	}
}

func (m *Manager) reset() {
	m.mu.Lock()
	m.mobileNumber = ""
	m.otpSent = false
	m.retryAfter = 0
	m.retryTimestamp = 0
	m.isAuthenticated = false
	m.err = ""
	m.mu.Unlock()
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.err = msg
	m.mu.Unlock()
}

func (m *Manager) begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return false
	}
	m.inFlight = true
	return true
}

func (m *Manager) end() {
	m.mu.Lock()
	m.inFlight = false
	m.mu.Unlock()
}

func (m *Manager) persist(what string, write func() error) {
	if err := write(); err != nil {
		m.log.Error("unable to persist "+what, zap.Error(err))
	}
}
