package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_RemovesExpired(t *testing.T) {
	s := NewMemoryUserStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(context.Background(), pending("old@example.com", now.Add(-time.Minute))))
	require.NoError(t, s.Create(context.Background(), pending("new@example.com", now.Add(time.Hour))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	sw := &Sweeper{Store: s, Interval: 5 * time.Millisecond, Now: func() time.Time { return now }}
	go func() { done <- sw.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := s.GetByEmail(context.Background(), "old@example.com")
		return err == ErrNotFound
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	_, err := s.GetByEmail(context.Background(), "new@example.com")
	assert.NoError(t, err)
}

func TestSweeper_DisabledReturnsImmediately(t *testing.T) {
	sw := &Sweeper{Store: NewMemoryUserStore()}
	assert.NoError(t, sw.Run(context.Background()))
}
