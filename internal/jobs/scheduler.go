// Package jobs runs periodic maintenance: closing resolved tickets nobody
// reopened and pruning old system logs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// TicketCloser closes tickets resolved longer than after ago.
type TicketCloser interface {
	AutoClose(ctx context.Context, after time.Duration) (int, error)
}

// LogPruner deletes system logs older than cutoff.
type LogPruner func(ctx context.Context, cutoff time.Time) (int64, error)

// Locker makes sure a job runs on one instance at a time.
type Locker interface {
	TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

type Config struct {
	AutoCloseAfter time.Duration
	LogRetention   time.Duration
	AutoCloseSpec  string
	PruneSpec      string
}

type Scheduler struct {
	cron       *cron.Cron
	cfg        Config
	tickets    TicketCloser
	prune      LogPruner
	locker     Locker
	instanceID string
}

// NewScheduler wires the jobs. A nil locker runs every job locally.
func NewScheduler(cfg Config, tickets TicketCloser, prune LogPruner, locker Locker) *Scheduler {
	if cfg.AutoCloseSpec == "" {
		cfg.AutoCloseSpec = "@hourly"
	}
	if cfg.PruneSpec == "" {
		cfg.PruneSpec = "0 3 * * *"
	}
	instanceID, _ := os.Hostname()
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		cfg:        cfg,
		tickets:    tickets,
		prune:      prune,
		locker:     locker,
		instanceID: instanceID,
	}
}

func (s *Scheduler) Start() error {
	if s.tickets != nil && s.cfg.AutoCloseAfter > 0 {
		if _, err := s.cron.AddFunc(s.cfg.AutoCloseSpec, func() { s.run("ticket_auto_close", s.CloseStaleTickets) }); err != nil {
			return fmt.Errorf("register auto-close job: %w", err)
		}
	}
	if s.prune != nil && s.cfg.LogRetention > 0 {
		if _, err := s.cron.AddFunc(s.cfg.PruneSpec, func() { s.run("log_retention", s.PruneLogs) }); err != nil {
			return fmt.Errorf("register log retention job: %w", err)
		}
	}
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) run(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if s.locker != nil {
		acquired, err := s.locker.TryAcquire(ctx, name, s.instanceID, 2*jobTimeout)
		if err != nil {
			slog.Error("job lock failed", "job", name, "error", err)
			return
		}
		if !acquired {
			slog.Debug("job running elsewhere, skipping", "job", name)
			return
		}
		defer func() {
			if err := s.locker.Release(context.Background(), name, s.instanceID); err != nil {
				slog.Warn("job unlock failed", "job", name, "error", err)
			}
		}()
	}

	start := time.Now()
	if err := job(ctx); err != nil {
		slog.Error("job failed", "job", name, "error", err, "latency_ms", time.Since(start).Milliseconds())
		return
	}
	slog.Info("job finished", "job", name, "latency_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) CloseStaleTickets(ctx context.Context) error {
	closed, err := s.tickets.AutoClose(ctx, s.cfg.AutoCloseAfter)
	if err != nil {
		return err
	}
	if closed > 0 {
		slog.Info("resolved tickets closed", "count", closed)
	}
	return nil
}

func (s *Scheduler) PruneLogs(ctx context.Context) error {
	deleted, err := s.prune(ctx, time.Now().Add(-s.cfg.LogRetention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		slog.Info("old system logs deleted", "count", deleted)
	}
	return nil
}

// RedisLocker holds job locks as SET NX keys with a TTL.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func lockKey(name string) string { return "lms:job:" + name }

func (l *RedisLocker) TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, lockKey(name), owner, ttl).Result()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Release drops the lock only if owner still holds it.
func (l *RedisLocker) Release(ctx context.Context, name, owner string) error {
	return releaseScript.Run(ctx, l.client, []string{lockKey(name)}, owner).Err()
}
