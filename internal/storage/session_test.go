package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSession(NewMemoryStore(), "abc", time.Hour)

	require.NoError(t, s.SetMobileNumber(ctx, "9876543210"))
	require.NoError(t, s.SetOTPSent(ctx, true))
	require.NoError(t, s.SetRetryTimer(ctx, 120, 1_700_000_000_000))
	require.NoError(t, s.SetToken(ctx, "tok", time.Minute))

	mobile, err := s.MobileNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", mobile)

	sent, err := s.OTPSent(ctx)
	require.NoError(t, err)
	assert.True(t, sent)

	after, ts, ok, err := s.RetryTimer(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 120, after)
	assert.Equal(t, int64(1_700_000_000_000), ts)

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestSession_KeysAreScoped(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := NewSession(store, "a", 0)
	b := NewSession(store, "b", 0)

	require.NoError(t, a.SetMobileNumber(ctx, "9876543210"))
	mobile, err := b.MobileNumber(ctx)
	require.NoError(t, err)
	assert.Empty(t, mobile)
	assert.Equal(t, "session:a:mobile_number", a.Key(KeyMobileNumber))
}

func TestSession_CorruptValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSession(store, "x", 0)

	require.NoError(t, store.Set(ctx, s.Key(KeyMobileNumber), "9876543210", 0))
	require.NoError(t, store.Set(ctx, s.Key(KeyOTPSent), "{not json", 0))
	require.NoError(t, store.Set(ctx, s.Key(KeyRetryAfter), "\"abc\"", 0))
	require.NoError(t, store.Set(ctx, s.Key(KeyRetryTimestamp), "1700000000000", 0))

	mobile, err := s.MobileNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", mobile, "raw string fallback")

	sent, err := s.OTPSent(ctx)
	require.NoError(t, err)
	assert.False(t, sent)

	_, _, ok, err := s.RetryTimer(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "partial timer state means no cooldown")
}

func TestSession_PartialTimer(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSession(store, "x", 0)

	require.NoError(t, store.Set(ctx, s.Key(KeyRetryAfter), "120", 0))
	_, _, ok, err := s.RetryTimer(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetRetryTimer(ctx, 30, 5))
	require.NoError(t, s.ClearRetryTimer(ctx))
	_, _, ok, err = s.RetryTimer(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_ClearAndExpiredNotice(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSession(store, "x", 0)

	require.NoError(t, s.SetMobileNumber(ctx, "9876543210"))
	require.NoError(t, s.SetToken(ctx, "tok", 0))
	require.NoError(t, s.SetRetryTimer(ctx, 120, 1))
	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, store.Len())

	require.NoError(t, s.MarkSessionExpired(ctx))
	pending, err := s.ConsumeSessionExpired(ctx)
	require.NoError(t, err)
	assert.True(t, pending)

	pending, err = s.ConsumeSessionExpired(ctx)
	require.NoError(t, err)
	assert.False(t, pending, "notice is shown once")
}
