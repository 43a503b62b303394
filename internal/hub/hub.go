// Package hub provides the transport agnostic event loop that serializes every
// command, sign-on and state read through a single goroutine.
package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

const (
	SubjSignon  = "+"
	SubjSignoff = "-"
	SubjExec    = "!"
)

// Reserved reports whether subj is used by the hub itself and must not be
// accepted from a client.
func Reserved(subj string) bool {
	return subj == SubjSignon || subj == SubjSignoff || subj == SubjExec
}

// ErrStopped is returned when posting to a hub that is no longer running.
var ErrStopped = errors.New("hub stopped")

// Msg is the unit passed between connections and the hub.
//
// From and Subj must be populated. Tok is chosen by the origin connection to
// match replies to requests. Inbound messages carry the raw payload and the
// verified actor of the connection; outbound messages carry a fully encoded
// frame in Raw so that no shared state escapes the loop.
type Msg struct {
	// From is the connection this message originates from.
	From Conn
	// Subj is the message header used for routing, usually a command name.
	Subj  string
	Tok   string
	Actor models.Actor
	Raw   []byte
	Data  any
}

// Router routes a received message.
type Router interface{ Route(*Msg) }

// RouterFunc implements Router for simple route functions.
type RouterFunc func(*Msg)

func (r RouterFunc) Route(m *Msg) { r(m) }

// Conn is the common interface providing an ID and channel for participants
// connected to a hub.
type Conn interface {
	// ID is an internal connection identifier, the hub has id 0.
	ID() int64
	// Chan returns an unchanging receiver channel. The hub closes it after the
	// sign-off message from this conn was routed.
	Chan() chan<- *Msg
}

// lastID holds the last id returned from NextID.
var lastID atomic.Int64

// NextID returns a new unused connection id.
func NextID() int64 { return lastID.Add(1) }

// ChanConn is a channel based connection for in-process participants.
type ChanConn struct {
	id int64
	ch chan *Msg
}

// NewChanConn returns a new channel connection with the given id and channel.
func NewChanConn(id int64, c chan *Msg) *ChanConn { return &ChanConn{id, c} }

func (c *ChanConn) ID() int64         { return c.id }
func (c *ChanConn) Chan() chan<- *Msg { return c.ch }

// Hub is the central participant that manages connection sign-on and
// sign-off, keeps a list of signed on connections and runs every routed
// message on one goroutine. Hub itself implements a Conn with ID 0.
type Hub struct {
	mu     sync.Mutex
	cmap   map[int64]Conn
	mque   chan *Msg
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// New creates and returns a new hub.
func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		cmap:   make(map[int64]Conn, 64),
		mque:   make(chan *Msg, 256),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (h *Hub) ID() int64         { return 0 }
func (h *Hub) Chan() chan<- *Msg { return h.mque }

// Run routes received messages with r until Stop is called. It is usually run
// in a go routine.
func (h *Hub) Run(r Router) {
	h.logger.Info("hub started")
	for {
		select {
		case <-h.done:
			h.logger.Info("hub stopped")
			return
		case m := <-h.mque:
			if m != nil {
				h.route(r, m)
			}
		}
	}
}

// Stop ends Run. Pending messages are discarded.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Done is closed once Stop was called.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Post queues m for routing. It blocks while the queue is full.
func (h *Hub) Post(ctx context.Context, m *Msg) error {
	select {
	case h.mque <- m:
		return nil
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Signon registers c. The router sees the sign-on after registration.
func (h *Hub) Signon(ctx context.Context, c Conn, actor models.Actor) error {
	return h.Post(ctx, &Msg{From: c, Subj: SubjSignon, Actor: actor})
}

// Signoff unregisters c and closes its channel once routed.
func (h *Hub) Signoff(c Conn) error {
	return h.Post(context.Background(), &Msg{From: c, Subj: SubjSignoff})
}

// Exec runs fn inside the loop and waits for it to return.
func (h *Hub) Exec(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	m := &Msg{From: h, Subj: SubjExec, Data: func() {
		defer close(finished)
		fn()
	}}
	if err := h.Post(ctx, m); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count returns the number of signed on connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cmap)
}

// Send delivers m to c without blocking. It must be called from inside the
// loop. A connection whose buffer is full is evicted: it is unregistered and
// its channel closed, so the client reconnects and receives a fresh snapshot.
// Send reports false when m was not delivered.
func (h *Hub) Send(c Conn, m *Msg) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.cmap[c.ID()]; !ok {
		return false
	}
	select {
	case c.Chan() <- m:
		return true
	default:
	}

	delete(h.cmap, c.ID())
	close(c.Chan())
	connectedClients.Set(float64(len(h.cmap)))
	evictedClients.Inc()
	h.logger.Warn("connection buffer full, evicting", zap.Int64("conn", c.ID()), zap.String("subj", m.Subj))
	return false
}

// Broadcast delivers m to every signed on connection and returns the number
// of connections that accepted it. It must be called from inside the loop.
func (h *Hub) Broadcast(m *Msg) int {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.cmap))
	for _, c := range h.cmap {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range conns {
		if h.Send(c, m) {
			sent++
		}
	}
	return sent
}

func (h *Hub) route(r Router, m *Msg) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("router panic", zap.String("subj", m.Subj), zap.Any("panic", p))
		}
	}()

	switch m.Subj {
	case SubjExec:
		if fn, ok := m.Data.(func()); ok {
			fn()
		}
		return
	case SubjSignon:
		h.mu.Lock()
		h.cmap[m.From.ID()] = m.From
		connectedClients.Set(float64(len(h.cmap)))
		h.mu.Unlock()
	}

	r.Route(m)

	if m.Subj == SubjSignoff {
		h.mu.Lock()
		if _, ok := h.cmap[m.From.ID()]; ok {
			delete(h.cmap, m.From.ID())
			close(m.From.Chan())
		}
		connectedClients.Set(float64(len(h.cmap)))
		h.mu.Unlock()
	}
}
