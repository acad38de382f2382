package syncclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/session"
	"github.com/DoyleJ11/askai-quiz-backend/internal/store"
)

// fakeFetcher serves whatever session it currently holds.
type fakeFetcher struct {
	mu    sync.Mutex
	s     engine.Session
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) FetchSession(context.Context) (engine.Session, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s.Clone(), f.err
}

func (f *fakeFetcher) set(fn func(*engine.Session)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.s)
}

func TestClient_LoadingUntilFirstFetch(t *testing.T) {
	f := &fakeFetcher{s: engine.NewDefaultSession()}
	c := New(f, zaptest.NewLogger(t))

	assert.True(t, c.Loading())
	_, ok := c.Snapshot()
	assert.False(t, ok)

	s, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.SessionID, s.ID)
	assert.False(t, c.Loading())

	snap, ok := c.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, s, snap)
}

func TestClient_OnChangeOnlyWhenDifferent(t *testing.T) {
	f := &fakeFetcher{s: engine.NewDefaultSession()}
	var seen []engine.Session
	c := New(f, zaptest.NewLogger(t), OnChange(func(s engine.Session) { seen = append(seen, s) }))
	ctx := context.Background()

	_, _ = c.Refresh(ctx)
	_, _ = c.Refresh(ctx)
	require.Len(t, seen, 1, "unchanged session is not re-announced")

	f.set(func(s *engine.Session) { s.Status = engine.StatusLive; s.Version = 2 })
	_, _ = c.Refresh(ctx)
	require.Len(t, seen, 2)
	assert.Equal(t, engine.StatusLive, seen[1].Status)
}

func TestClient_FetchErrorKeepsSnapshot(t *testing.T) {
	f := &fakeFetcher{s: engine.NewDefaultSession()}
	c := New(f, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := c.Refresh(ctx)
	require.NoError(t, err)

	f.set(func(s *engine.Session) { s.Status = engine.StatusLocked })
	f.mu.Lock()
	f.err = errors.New("offline")
	f.mu.Unlock()

	_, err = c.Refresh(ctx)
	require.Error(t, err)

	snap, ok := c.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, engine.StatusPreview, snap.Status)
}

func TestClient_RunPollsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetcher{s: engine.NewDefaultSession()}
	changed := make(chan engine.Session, 4)
	c := New(f, zaptest.NewLogger(t),
		WithInterval(5*time.Millisecond),
		OnChange(func(s engine.Session) {
			select {
			case changed <- s:
			default:
			}
		}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	recvSession(t, changed, time.Second)

	f.set(func(s *engine.Session) { s.ActiveTeamID = "t3"; s.Version = 1 })
	got := recvSession(t, changed, time.Second)
	assert.Equal(t, "t3", got.ActiveTeamID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	assert.GreaterOrEqual(t, f.calls.Load(), int32(2))
}

func TestClient_KickTriggersImmediatePoll(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetcher{s: engine.NewDefaultSession()}
	changed := make(chan engine.Session, 4)
	c := New(f, zaptest.NewLogger(t),
		WithInterval(time.Hour),
		OnChange(func(s engine.Session) { changed <- s }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	recvSession(t, changed, time.Second)

	f.set(func(s *engine.Session) { s.Status = engine.StatusRevealed })
	c.Kick()
	got := recvSession(t, changed, time.Second)
	assert.Equal(t, engine.StatusRevealed, got.Status)

	cancel()
	<-done
}

func TestClient_MutateThenRefresh(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	svc := session.NewService(session.NewStore(store.NewMemory(), log), log)
	c := New(svc, log)

	s, err := c.Mutate(ctx, func(ctx context.Context) error {
		_, err := svc.SetActiveTeam(ctx, "t4")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "t4", s.ActiveTeamID)

	snap, _ := c.Snapshot()
	assert.Equal(t, "t4", snap.ActiveTeamID)

	_, err = c.Mutate(ctx, func(context.Context) error { return errors.New("rejected") })
	require.Error(t, err)
	snap, _ = c.Snapshot()
	assert.Equal(t, "t4", snap.ActiveTeamID)
}

func recvSession(t *testing.T, ch <-chan engine.Session, within time.Duration) engine.Session {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(within):
		t.Fatalf("timed out waiting for session")
		return engine.Session{}
	}
}
