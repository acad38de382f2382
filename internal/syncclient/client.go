// Package syncclient keeps a near-real-time copy of the shared session by
// polling. Every poll and every refresh replaces the whole snapshot.
package syncclient

import (
	"context"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
)

const DefaultInterval = 1500 * time.Millisecond

// Fetcher reads the current session. Implemented in-process by the session
// service and over HTTP by Remote.
type Fetcher interface {
	FetchSession(ctx context.Context) (engine.Session, error)
}

type Client struct {
	fetcher  Fetcher
	interval time.Duration
	onChange []func(engine.Session)
	log      *zap.Logger

	// held across fetch+replace+notify so listeners see snapshots in fetch order
	refreshMu sync.Mutex

	mu     sync.RWMutex
	snap   engine.Session
	loaded bool

	kick chan struct{}
}

type Option func(*Client)

func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// OnChange registers fn to be called with each snapshot that differs from
// the previous one. The first successful fetch always counts as a change.
func OnChange(fn func(engine.Session)) Option {
	return func(c *Client) { c.onChange = append(c.onChange, fn) }
}

func New(f Fetcher, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		fetcher:  f,
		interval: DefaultInterval,
		log:      log.Named("sync"),
		kick:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run polls until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	_, _ = c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-c.kick:
		}
		_, _ = c.Refresh(ctx)
	}
}

// Kick asks a running poll loop to fetch now instead of waiting for the next
// tick. It never blocks.
func (c *Client) Kick() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Refresh fetches immediately and replaces the snapshot. On error the last
// snapshot is kept.
func (c *Client) Refresh(ctx context.Context) (engine.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	next, err := c.fetcher.FetchSession(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Warn("session fetch failed", zap.Error(err))
		}
		return engine.Session{}, err
	}

	c.mu.Lock()
	changed := !c.loaded || !reflect.DeepEqual(c.snap, next)
	c.snap = next
	c.loaded = true
	c.mu.Unlock()

	if changed {
		for _, fn := range c.onChange {
			fn(next)
		}
	}
	return next, nil
}

// Mutate runs a write and then refreshes so the caller sees its own effect
// without waiting for the next poll.
func (c *Client) Mutate(ctx context.Context, write func(ctx context.Context) error) (engine.Session, error) {
	if err := write(ctx); err != nil {
		return engine.Session{}, err
	}
	return c.Refresh(ctx)
}

// Snapshot returns the latest session. ok is false until the first fetch
// succeeded.
func (c *Client) Snapshot() (engine.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Clone(), c.loaded
}

// Loading reports whether the first fetch is still outstanding.
func (c *Client) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loaded
}
