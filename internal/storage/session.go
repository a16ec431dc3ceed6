package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Keys of the per-session values, relative to the session prefix.
const (
	KeyToken          = "auth_token"
	KeyMobileNumber   = "mobile_number"
	KeyOTPSent        = "otp_sent"
	KeyRetryAfter     = "retry_after"
	KeyRetryTimestamp = "retry_timestamp"
	KeySessionExpired = "session_expired"
)

var sessionKeys = []string{
	KeyToken,
	KeyMobileNumber,
	KeyOTPSent,
	KeyRetryAfter,
	KeyRetryTimestamp,
	KeySessionExpired,
}

// Session is the typed view of one browser session's durable values.
// Values are JSON encoded. Reads never fail on a corrupt value: strings fall
// back to the raw stored text and other types are reported absent.
type Session struct {
	store  Store
	prefix string
	ttl    time.Duration
}

// NewSession scopes store to the session id. ttl applies to every key except
// the auth token, which carries its own expiry.
func NewSession(store Store, id string, ttl time.Duration) *Session {
	return &Session{
		store:  store,
		prefix: "session:" + id + ":",
		ttl:    ttl,
	}
}

// Key returns the fully qualified store key for name.
func (s *Session) Key(name string) string {
	return s.prefix + name
}

func (s *Session) MobileNumber(ctx context.Context) (string, error) {
	v, _, err := s.getString(ctx, KeyMobileNumber)
	return v, err
}

func (s *Session) SetMobileNumber(ctx context.Context, mobile string) error {
	return s.set(ctx, KeyMobileNumber, mobile, s.ttl)
}

func (s *Session) OTPSent(ctx context.Context) (bool, error) {
	v, _, err := s.getBool(ctx, KeyOTPSent)
	return v, err
}

func (s *Session) SetOTPSent(ctx context.Context, sent bool) error {
	return s.set(ctx, KeyOTPSent, sent, s.ttl)
}

// RetryTimer returns the persisted cooldown pair. ok is false unless both
// halves are present and parseable.
func (s *Session) RetryTimer(ctx context.Context) (retryAfter int, retryTimestamp int64, ok bool, err error) {
	after, okAfter, err := s.getInt(ctx, KeyRetryAfter)
	if err != nil {
		return 0, 0, false, err
	}
	ts, okTS, err := s.getInt(ctx, KeyRetryTimestamp)
	if err != nil {
		return 0, 0, false, err
	}
	if !okAfter || !okTS {
		return 0, 0, false, nil
	}
	return int(after), ts, true, nil
}

func (s *Session) SetRetryTimer(ctx context.Context, retryAfter int, retryTimestamp int64) error {
	if err := s.set(ctx, KeyRetryAfter, retryAfter, s.ttl); err != nil {
		return err
	}
	return s.set(ctx, KeyRetryTimestamp, retryTimestamp, s.ttl)
}

func (s *Session) ClearRetryTimer(ctx context.Context) error {
	return s.store.Delete(ctx, s.Key(KeyRetryAfter), s.Key(KeyRetryTimestamp))
}

func (s *Session) Token(ctx context.Context) (string, error) {
	v, _, err := s.getString(ctx, KeyToken)
	return v, err
}

// SetToken stores the auth token with its own ttl.
func (s *Session) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	return s.set(ctx, KeyToken, token, ttl)
}

// MarkSessionExpired records the one-time "session expired" notice.
func (s *Session) MarkSessionExpired(ctx context.Context) error {
	return s.set(ctx, KeySessionExpired, true, s.ttl)
}

// ConsumeSessionExpired reports whether the notice was pending and removes it.
func (s *Session) ConsumeSessionExpired(ctx context.Context) (bool, error) {
	pending, _, err := s.getBool(ctx, KeySessionExpired)
	if err != nil || !pending {
		return false, err
	}
	if err := s.store.Delete(ctx, s.Key(KeySessionExpired)); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes every key of the session.
func (s *Session) Clear(ctx context.Context) error {
	keys := make([]string, 0, len(sessionKeys))
	for _, k := range sessionKeys {
		keys = append(keys, s.Key(k))
	}
	return s.store.Delete(ctx, keys...)
}

func (s *Session) set(ctx context.Context, name string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", name, err)
	}
	return s.store.Set(ctx, s.Key(name), string(raw), ttl)
}

func (s *Session) getString(ctx context.Context, name string) (string, bool, error) {
	raw, ok, err := s.store.Get(ctx, s.Key(name))
	if err != nil || !ok {
		return "", false, err
	}
	var v string
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw, true, nil
	}
	return v, true, nil
}

func (s *Session) getBool(ctx context.Context, name string) (bool, bool, error) {
	raw, ok, err := s.store.Get(ctx, s.Key(name))
	if err != nil || !ok {
		return false, false, err
	}
	var v bool
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v, true, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b, true, nil
	}
	return false, false, nil
}

func (s *Session) getInt(ctx context.Context, name string) (int64, bool, error) {
	raw, ok, err := s.store.Get(ctx, s.Key(name))
	if err != nil || !ok {
		return 0, false, err
	}
	var v int64
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v, true, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true, nil
	}
	return 0, false, nil
}
