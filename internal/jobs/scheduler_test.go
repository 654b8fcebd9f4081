package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloser struct {
	calls int
	after time.Duration
	err   error
}

func (f *fakeCloser) AutoClose(_ context.Context, after time.Duration) (int, error) {
	f.calls++
	f.after = after
	return 2, f.err
}

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client), mr
}

func TestCloseStaleTicketsPassesThreshold(t *testing.T) {
	closer := &fakeCloser{}
	s := NewScheduler(Config{AutoCloseAfter: 48 * time.Hour}, closer, nil, nil)

	require.NoError(t, s.CloseStaleTickets(context.Background()))
	assert.Equal(t, 1, closer.calls)
	assert.Equal(t, 48*time.Hour, closer.after)
}

func TestPruneLogsUsesRetentionCutoff(t *testing.T) {
	var cutoff time.Time
	prune := func(_ context.Context, c time.Time) (int64, error) {
		cutoff = c
		return 3, nil
	}
	s := NewScheduler(Config{LogRetention: 24 * time.Hour}, nil, prune, nil)

	before := time.Now()
	require.NoError(t, s.PruneLogs(context.Background()))
	assert.WithinDuration(t, before.Add(-24*time.Hour), cutoff, time.Second)
}

func TestRunSkipsWhenLockHeld(t *testing.T) {
	locker, _ := newRedisLocker(t)
	ok, err := locker.TryAcquire(context.Background(), "ticket_auto_close", "other-pod", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	closer := &fakeCloser{}
	s := NewScheduler(Config{AutoCloseAfter: time.Hour}, closer, nil, locker)
	s.run("ticket_auto_close", s.CloseStaleTickets)
	assert.Zero(t, closer.calls)
}

func TestRunReleasesLock(t *testing.T) {
	locker, mr := newRedisLocker(t)
	closer := &fakeCloser{err: errors.New("db down")}
	s := NewScheduler(Config{AutoCloseAfter: time.Hour}, closer, nil, locker)

	s.run("ticket_auto_close", s.CloseStaleTickets)
	assert.Equal(t, 1, closer.calls)
	assert.False(t, mr.Exists(lockKey("ticket_auto_close")))
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()
	_, err := locker.TryAcquire(ctx, "log_retention", "pod-a", time.Minute)
	require.NoError(t, err)

	require.NoError(t, locker.Release(ctx, "log_retention", "pod-b"))
	assert.True(t, mr.Exists(lockKey("log_retention")))
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(Config{AutoCloseAfter: time.Hour, AutoCloseSpec: "not a spec"}, &fakeCloser{}, nil, nil)
	assert.Error(t, s.Start())
}
