package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckRotatable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		status  TokenStatus
		expires time.Time
		wantErr error
	}{
		{"active unexpired", TokenStatusActive, now.Add(time.Hour), nil},
		{"active expired", TokenStatusActive, now.Add(-time.Hour), ErrTokenExpired},
		{"rotated", TokenStatusRotated, now.Add(time.Hour), ErrTokenReplayed},
		{"revoked", TokenStatusRevoked, now.Add(time.Hour), ErrTokenReplayed},
		// Reuse of a terminal token is a replay signal even past expiry.
		{"rotated and expired", TokenStatusRotated, now.Add(-time.Hour), ErrTokenReplayed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &RefreshToken{Status: tt.status, ExpiresAt: tt.expires}
			err := token.CheckRotatable(now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	token := &RefreshToken{ExpiresAt: now}

	assert.True(t, token.Expired(now))
	assert.True(t, token.Expired(now.Add(time.Second)))
	assert.False(t, token.Expired(now.Add(-time.Second)))
}
