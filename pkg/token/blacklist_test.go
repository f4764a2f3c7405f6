package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/testutil"
)

func newTestBlacklist(r *testutil.MockRedis) *Blacklist {
	b := NewBlacklist(r, "portal", zerolog.Nop())
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }
	return b
}

func TestBlacklistKeys(t *testing.T) {
	b := newTestBlacklist(&testutil.MockRedis{})

	// sha256("abc")
	assert.Equal(t, "portal:token_blacklist:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", b.AccessKey("abc"))
	assert.Equal(t, "portal:refresh_token_blacklist:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", b.RefreshKey("abc"))
}

func TestBlacklistAdd(t *testing.T) {
	tests := []struct {
		name   string
		left   time.Duration
		ttl    time.Duration
		stored bool
	}{
		{name: "whole seconds", left: time.Hour, ttl: time.Hour, stored: true},
		{name: "partial second rounds up", left: 90*time.Second + 300*time.Millisecond, ttl: 91 * time.Second, stored: true},
		{name: "under a second left", left: 400 * time.Millisecond, ttl: time.Second, stored: true},
		{name: "already expired", left: -time.Second},
		{name: "expires now", left: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &testutil.MockRedis{}
			b := newTestBlacklist(r)
			if tt.stored {
				r.On("SetEx", b.AccessKey("tok"), "1", tt.ttl).Return("OK", nil).Once()
			}
			assert.Equal(t, tt.stored, b.Add(context.Background(), "tok", b.now().Add(tt.left)))
			r.AssertExpectations(t)
			if !tt.stored {
				r.AssertNotCalled(t, "SetEx", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestBlacklistAddRedisDown(t *testing.T) {
	r := &testutil.MockRedis{}
	b := newTestBlacklist(r)

	r.On("SetEx", b.RefreshKey("rt"), "1", time.Hour).Return("", errors.New("down")).Once()
	assert.False(t, b.AddRefresh(context.Background(), "rt", b.now().Add(time.Hour)))
	r.AssertExpectations(t)
}

func TestIsBlacklisted(t *testing.T) {
	r := &testutil.MockRedis{}
	b := newTestBlacklist(r)
	ctx := context.Background()

	r.On("Exists", []string{b.AccessKey("revoked")}).Return(1, nil)
	r.On("Exists", []string{b.AccessKey("fresh")}).Return(0, nil)
	r.On("Exists", []string{b.AccessKey("unknown")}).Return(0, errors.New("connection refused"))

	assert.True(t, b.IsBlacklisted(ctx, "revoked"))
	assert.False(t, b.IsBlacklisted(ctx, "fresh"))
	assert.False(t, b.IsBlacklisted(ctx, "unknown"))
}

func TestBlacklistStats(t *testing.T) {
	r := &testutil.MockRedis{}
	b := newTestBlacklist(r)

	r.On("Keys", "portal:token_blacklist:*").Return([]string{"a", "b"}, nil)
	r.On("Keys", "portal:refresh_token_blacklist:*").Return([]string{"c"}, nil)

	stats, err := b.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BlacklistStats{AccessTokens: 2, RefreshTokens: 1}, stats)
	r.AssertNotCalled(t, "Del", mock.Anything)
}
