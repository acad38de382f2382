// Package feed fans session snapshots out to connected subscribers. A single
// goroutine owns the subscriber set; everything else talks to it through the
// inbox.
package feed

import (
	"context"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/metrics"
)

type Msg interface{ isFeedMsg() }

type Publish struct {
	Session engine.Session
}

func (Publish) isFeedMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isFeedMsg() {}

type Leave struct{ ClientID string }

func (Leave) isFeedMsg() {}

type Shutdown struct{}

func (Shutdown) isFeedMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isFeedMsg() {}

// Snapshot is what subscribers receive. Seq counts publishes and only grows,
// even when the store restarts and session versions begin again.
type Snapshot struct {
	Seq     int64
	Session engine.Session
}

type View struct {
	Seq        int64
	NumClients int
	Session    engine.Session
	HasSession bool
}

type Feed struct {
	inbox      chan Msg
	session    engine.Session
	hasSession bool
	seq        int64
	clients    map[string]chan Snapshot
	metrics    *metrics.Metrics
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(parent context.Context, m *metrics.Metrics) *Feed {
	ctx, cancel := context.WithCancel(parent)

	f := &Feed{
		inbox:   make(chan Msg, 64),
		clients: make(map[string]chan Snapshot),
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}

	go f.loop()
	return f
}

func (f *Feed) loop() {
	for {
		select {
		case <-f.ctx.Done():
			f.shutdown()
			return

		case m := <-f.inbox:
			switch msg := m.(type) {
			case Join:
				f.clients[msg.ClientID] = msg.Outbox
				f.metrics.SetSubscribers(len(f.clients))
				// New subscribers get the latest snapshot right away.
				if f.hasSession {
					f.send(msg.ClientID, msg.Outbox, Snapshot{Seq: f.seq, Session: f.session})
				}

			case Leave:
				// A dropped client's outbox is already closed and gone.
				if ch, ok := f.clients[msg.ClientID]; ok {
					close(ch)
					delete(f.clients, msg.ClientID)
				}
				f.metrics.SetSubscribers(len(f.clients))

			case Publish:
				f.session = msg.Session
				f.hasSession = true
				f.seq++
				f.broadcast(Snapshot{Seq: f.seq, Session: f.session})

			case GetState:
				msg.Reply <- View{
					Seq:        f.seq,
					NumClients: len(f.clients),
					Session:    f.session,
					HasSession: f.hasSession,
				}

			case Shutdown:
				f.shutdown()
				return
			}
		}
	}
}

func (f *Feed) shutdown() {
	for id, ch := range f.clients {
		close(ch)
		delete(f.clients, id)
	}
	f.metrics.SetSubscribers(0)
	f.cancel()
}

func (f *Feed) broadcast(snap Snapshot) {
	for id, ch := range f.clients {
		f.send(id, ch, snap)
	}
	f.metrics.ObserveBroadcast()
}

// send drops a client whose outbox is full.
func (f *Feed) send(id string, ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
	default:
		close(ch)
		delete(f.clients, id)
		f.metrics.SetSubscribers(len(f.clients))
	}
}

func (f *Feed) Inbox() chan<- Msg { return f.inbox }

// Send delivers m unless the feed has shut down. It reports whether m was
// accepted.
func (f *Feed) Send(m Msg) bool {
	if f.ctx.Err() != nil {
		return false
	}
	select {
	case f.inbox <- m:
		return true
	case <-f.ctx.Done():
		return false
	}
}

// PublishSession is Send(Publish{...}), shaped as a syncclient change listener.
func (f *Feed) PublishSession(s engine.Session) {
	f.Send(Publish{Session: s})
}

// Done is closed once the feed stopped.
func (f *Feed) Done() <-chan struct{} { return f.ctx.Done() }
