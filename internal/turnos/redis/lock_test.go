package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client using miniredis for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestAcquireAndRelease(t *testing.T) {
	client, mr := setupTestRedis(t)
	seq := NewSequencer(client, time.Minute, nil)

	release, err := seq.Acquire(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.True(t, mr.Exists("turno_lock:2024-01-01"))

	release()
	assert.False(t, mr.Exists("turno_lock:2024-01-01"))
}

func TestAcquireBlocksWhileHeld(t *testing.T) {
	client, _ := setupTestRedis(t)
	seq := NewSequencer(client, time.Minute, nil)

	release, err := seq.Acquire(context.Background(), "2024-01-01")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = seq.Acquire(ctx, "2024-01-01")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Another date is independent
	other, err := seq.Acquire(context.Background(), "2024-01-02")
	require.NoError(t, err)
	other()
}

func TestWaiterGetsLockAfterRelease(t *testing.T) {
	client, _ := setupTestRedis(t)
	seq := NewSequencer(client, time.Minute, nil)

	release, err := seq.Acquire(context.Background(), "2024-01-01")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		next, err := seq.Acquire(context.Background(), "2024-01-01")
		if err == nil {
			next()
		}
		close(acquired)
	}()

	time.Sleep(50 * time.Millisecond)
	release()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestExpiredHolderDoesNotReleaseNewOwner(t *testing.T) {
	client, mr := setupTestRedis(t)
	seq := NewSequencer(client, time.Second, nil)

	stale, err := seq.Acquire(context.Background(), "2024-01-01")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists("turno_lock:2024-01-01"))

	fresh, err := seq.Acquire(context.Background(), "2024-01-01")
	require.NoError(t, err)
	owner, err := mr.Get("turno_lock:2024-01-01")
	require.NoError(t, err)

	stale()
	current, err := mr.Get("turno_lock:2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, owner, current, "stale release must not delete the new lock")

	fresh()
	assert.False(t, mr.Exists("turno_lock:2024-01-01"))
}

func TestPing(t *testing.T) {
	client, _ := setupTestRedis(t)
	assert.NoError(t, NewSequencer(client, 0, nil).Ping(context.Background()))
}
