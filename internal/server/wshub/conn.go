package wshub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/hub"
)

const (
	writeTimeout = 10 * time.Second
	pingPeriod   = 30 * time.Second
	pongWait     = 2 * pingPeriod
	readLimit    = 1 << 20
	sendBuffer   = 64
)

type conn struct {
	id     int64
	wc     *websocket.Conn
	actor  models.Actor
	hub    *hub.Hub
	send   chan *hub.Msg
	logger *zap.Logger
}

func (c *conn) ID() int64             { return c.id }
func (c *conn) Chan() chan<- *hub.Msg { return c.send }

// read pumps client frames into the hub until the connection fails.
func (c *conn) read() error {
	c.wc.SetReadLimit(readLimit)
	c.wc.SetReadDeadline(time.Now().Add(pongWait))
	c.wc.SetPongHandler(func(string) error {
		return c.wc.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		op, frame, err := c.wc.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil // client disconnected
			}
			return err
		}
		if op != websocket.TextMessage {
			if err := c.fail("", "binary frames are not supported"); err != nil {
				return ignoreStopped(err)
			}
			continue
		}

		cmd, err := models.ParseCommand(frame)
		if err != nil {
			if err := c.fail(cmd.ID, "malformed frame"); err != nil {
				return ignoreStopped(err)
			}
			continue
		}
		if hub.Reserved(string(cmd.Type)) {
			if err := c.fail(cmd.ID, "reserved event name"); err != nil {
				return ignoreStopped(err)
			}
			continue
		}

		m := &hub.Msg{From: c, Subj: string(cmd.Type), Tok: cmd.ID, Actor: c.actor, Raw: cmd.Payload}
		if err := c.hub.Post(context.Background(), m); err != nil {
			return ignoreStopped(err)
		}
	}
}

// write drains the send channel until the hub closes it, pinging the client
// meanwhile. It owns all writes to the websocket.
func (c *conn) write(ping time.Duration) {
	t := time.NewTicker(ping)
	defer t.Stop()
	defer c.wc.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
				c.wc.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.wc.WriteMessage(websocket.TextMessage, msg.Raw); err != nil {
				c.logger.Debug("websocket write failed", zap.Int64("conn", c.id), zap.Error(err))
				return
			}
		case <-t.C:
			c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.wc.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.hub.Done():
			c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.wc.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// fail answers a frame the hub never saw. The reply goes through the loop,
// which owns the send channel.
func (c *conn) fail(tok, reason string) error {
	raw, _ := json.Marshal(models.ReplyFrame{Event: "error", ID: tok, Reply: models.Reply{Error: reason}})
	m := &hub.Msg{From: c.hub, Subj: "error", Tok: tok, Raw: raw}
	return c.hub.Exec(context.Background(), func() { c.hub.Send(c, m) })
}

func ignoreStopped(err error) error {
	if errors.Is(err, hub.ErrStopped) {
		return nil
	}
	return err
}
