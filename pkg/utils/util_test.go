package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnectDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: -1, want: time.Second},
		{attempt: 0, want: time.Second},
		{attempt: 1, want: 2 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 4, want: 16 * time.Second},
		{attempt: 5, want: 30 * time.Second},
		{attempt: 9, want: 30 * time.Second},
		{attempt: 60, want: 30 * time.Second},
	}

	for _, tt := range tests {
		got := ReconnectDelay(tt.attempt, time.Second, 30*time.Second)
		assert.Equal(t, tt.want, got, "attempt %d", tt.attempt)
	}
}

func TestNewUserID(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	id := NewUserID(now)
	parts := strings.Split(id, "_")

	assert.True(t, strings.HasPrefix(id, UserIDPrefix))
	assert.Len(t, parts, 3)
	assert.Equal(t, "1700000000123", parts[1])
	assert.Len(t, parts[2], 9)
	assert.NotEqual(t, id, NewUserID(now))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "a@example.com", MaskEmail("a@example.com"))
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
}
