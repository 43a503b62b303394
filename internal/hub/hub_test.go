package hub

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func start(t *testing.T, r Router) *Hub {
	t.Helper()
	h := New(nil)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		h.Run(r)
	}()
	t.Cleanup(func() {
		h.Stop()
		<-stopped
	})
	return h
}

func TestSignonSignoff(t *testing.T) {
	seen := make(chan string, 4)
	h := start(t, RouterFunc(func(m *Msg) {
		seen <- fmt.Sprintf("%s%d:%s", m.Subj, m.From.ID(), m.Actor.Name)
	}))

	ch := make(chan *Msg, 1)
	c := NewChanConn(NextID(), ch)
	actor := models.Actor{Name: "sam", Role: models.RoleStaff}
	require.NoError(t, h.Signon(context.Background(), c, actor))
	require.Equal(t, fmt.Sprintf("+%d:sam", c.ID()), <-seen)
	require.Equal(t, 1, h.Count())

	require.NoError(t, h.Signoff(c))
	require.Equal(t, fmt.Sprintf("-%d:", c.ID()), <-seen)

	_, open := <-ch
	require.False(t, open)
	require.Equal(t, 0, h.Count())
}

func TestMessagesAreRoutedInOrder(t *testing.T) {
	var got []string
	h := start(t, RouterFunc(func(m *Msg) { got = append(got, m.Subj) }))

	c := NewChanConn(NextID(), make(chan *Msg, 1))
	for i := 0; i < 500; i++ {
		require.NoError(t, h.Post(context.Background(), &Msg{From: c, Subj: fmt.Sprint(i)}))
	}

	var n int
	require.NoError(t, h.Exec(context.Background(), func() { n = len(got) }))
	require.Equal(t, 500, n)
	for i, subj := range got {
		require.Equal(t, fmt.Sprint(i), subj)
	}
}

func TestBroadcastNeverBlocks(t *testing.T) {
	h := start(t, RouterFunc(func(*Msg) {}))

	fast := make(chan *Msg, 4)
	slow := make(chan *Msg)
	for _, c := range []Conn{NewChanConn(NextID(), fast), NewChanConn(NextID(), slow)} {
		require.NoError(t, h.Signon(context.Background(), c, models.Actor{Role: models.RoleAdmin}))
	}

	var sent int
	require.NoError(t, h.Exec(context.Background(), func() {
		sent = h.Broadcast(&Msg{From: h, Subj: models.EventSnapshot, Raw: []byte("{}")})
	}))
	require.Equal(t, 1, sent)
	require.Equal(t, models.EventSnapshot, (<-fast).Subj)
	require.Equal(t, 1, h.Count())
	_, open := <-slow
	require.False(t, open)
}

func TestFullBufferEvictsConnection(t *testing.T) {
	h := start(t, RouterFunc(func(*Msg) {}))

	ch := make(chan *Msg, 1)
	c := NewChanConn(NextID(), ch)
	require.NoError(t, h.Signon(context.Background(), c, models.Actor{Role: models.RoleAdmin}))

	var snapshot, reply bool
	require.NoError(t, h.Exec(context.Background(), func() {
		snapshot = h.Send(c, &Msg{From: h, Subj: models.EventSnapshot})
		reply = h.Send(c, &Msg{From: h, Subj: "order:create", Tok: "1"})
	}))
	require.True(t, snapshot)
	require.False(t, reply)
	require.Equal(t, 0, h.Count())

	require.Equal(t, models.EventSnapshot, (<-ch).Subj)
	_, open := <-ch
	require.False(t, open, "evicted connection must be closed")

	// later sends and the sign-off of the evicted conn are harmless
	var again bool
	require.NoError(t, h.Exec(context.Background(), func() { again = h.Send(c, &Msg{From: h, Subj: "x"}) }))
	require.False(t, again)
	require.NoError(t, h.Signoff(c))
	require.NoError(t, h.Exec(context.Background(), func() {}))
	require.Equal(t, 0, h.Count())
}

func TestSendToUnknownConnection(t *testing.T) {
	h := start(t, RouterFunc(func(*Msg) {}))
	ch := make(chan *Msg, 1)

	var sent bool
	require.NoError(t, h.Exec(context.Background(), func() { sent = h.Send(NewChanConn(NextID(), ch), &Msg{Subj: "x"}) }))
	require.False(t, sent)
	require.Empty(t, ch)
}

func TestRouterPanicKeepsLoopAlive(t *testing.T) {
	h := start(t, RouterFunc(func(m *Msg) {
		if m.Subj == "boom" {
			panic("handler bug")
		}
	}))
	c := NewChanConn(NextID(), make(chan *Msg, 1))
	require.NoError(t, h.Post(context.Background(), &Msg{From: c, Subj: "boom"}))

	ran := false
	require.NoError(t, h.Exec(context.Background(), func() { ran = true }))
	require.True(t, ran)
}

func TestStoppedHub(t *testing.T) {
	h := New(nil)
	h.Stop()
	h.Stop()

	err := h.Exec(context.Background(), func() {})
	require.ErrorIs(t, err, ErrStopped)

	select {
	case <-h.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestExecHonorsContext(t *testing.T) {
	h := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// no loop is running, so the closure is queued but never executed
	err := h.Exec(ctx, func() {})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
