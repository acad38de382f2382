package feed

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			return
		}
		t.Fatalf("expected no snapshot within %v, but got: %+v", within, s)
	case <-time.After(within):
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func view(t *testing.T, f *Feed) View {
	t.Helper()
	reply := make(chan View, 1)
	f.Inbox() <- GetState{Reply: reply}
	return recvView(t, reply, 100*time.Millisecond)
}

func TestFeed_PublishBroadcastsAndSeqIncrements(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := New(ctx, nil)

	out := make(chan Snapshot, 2)
	f.Inbox() <- Join{ClientID: "c1", Outbox: out}

	// Nothing published yet, so nothing to replay.
	recvNoSnapshot(t, out, 20*time.Millisecond)

	s := engine.NewDefaultSession()
	s.ActiveTeamID = "t2"
	f.PublishSession(s)

	got := recvSnapshot(t, out, 100*time.Millisecond)
	if got.Seq != 1 {
		t.Fatalf("after publish: want seq=1, got %d", got.Seq)
	}
	if got.Session.ActiveTeamID != "t2" {
		t.Fatalf("after publish: want active team t2, got %q", got.Session.ActiveTeamID)
	}

	f.Inbox() <- Shutdown{}
}

func TestFeed_JoinReplaysLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := New(ctx, nil)

	first := engine.NewDefaultSession()
	second := engine.NewDefaultSession()
	second.Status = engine.StatusLive
	f.PublishSession(first)
	f.PublishSession(second)

	out := make(chan Snapshot, 1)
	f.Inbox() <- Join{ClientID: "late", Outbox: out}

	got := recvSnapshot(t, out, 100*time.Millisecond)
	if got.Seq != 2 || got.Session.Status != engine.StatusLive {
		t.Fatalf("late joiner: want seq=2 LIVE, got seq=%d %s", got.Seq, got.Session.Status)
	}
}

func TestFeed_SeqSurvivesVersionRestart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := New(ctx, nil)

	out := make(chan Snapshot, 4)
	f.Inbox() <- Join{ClientID: "c1", Outbox: out}

	before := engine.NewDefaultSession()
	before.Version = 9
	restarted := engine.NewDefaultSession()

	f.PublishSession(before)
	f.PublishSession(restarted)

	a := recvSnapshot(t, out, 100*time.Millisecond)
	b := recvSnapshot(t, out, 100*time.Millisecond)
	if b.Seq <= a.Seq {
		t.Fatalf("seq must grow across a version restart: %d then %d", a.Seq, b.Seq)
	}
	if b.Session.Version != 0 {
		t.Fatalf("restarted session should carry version 0, got %d", b.Session.Version)
	}
}

func TestFeed_DropSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := New(ctx, nil)

	slow := make(chan Snapshot, 1)
	f.Inbox() <- Join{ClientID: "slow", Outbox: slow}

	f.PublishSession(engine.NewDefaultSession())
	f.PublishSession(engine.NewDefaultSession())

	v := view(t, f)
	if v.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", v.NumClients)
	}

	// The first snapshot is still buffered, then the channel is closed.
	<-slow
	if _, ok := <-slow; ok {
		t.Fatalf("expected dropped client's outbox to be closed")
	}
}

func TestFeed_LeaveClosesOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := New(ctx, nil)

	out := make(chan Snapshot, 1)
	f.Inbox() <- Join{ClientID: "c1", Outbox: out}
	f.Inbox() <- Leave{ClientID: "c1"}
	// A second leave for the same client is harmless.
	f.Inbox() <- Leave{ClientID: "c1"}

	if v := view(t, f); v.NumClients != 0 {
		t.Fatalf("want 0 clients after leave, got %d", v.NumClients)
	}
	if _, ok := <-out; ok {
		t.Fatalf("expected outbox to be closed on leave")
	}
}

func TestFeed_ShutdownClosesClientsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := New(context.Background(), nil)

	out := make(chan Snapshot, 1)
	f.Inbox() <- Join{ClientID: "c1", Outbox: out}
	f.Inbox() <- Shutdown{}

	select {
	case <-f.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("feed did not stop")
	}
	if _, ok := <-out; ok {
		t.Fatalf("expected outbox to be closed on shutdown")
	}
	if f.Send(Leave{ClientID: "c1"}) {
		t.Fatalf("send after shutdown must be refused")
	}
}
