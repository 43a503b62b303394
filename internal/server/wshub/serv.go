// Package wshub accepts websocket clients and connects them to the hub.
package wshub

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/auth"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/hub"
)

// Authenticator verifies the token presented at the handshake.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Actor, error)
}

// Server upgrades authenticated requests and pumps frames between the
// websocket and the hub.
type Server struct {
	hub    *hub.Hub
	auth   Authenticator
	upgr   websocket.Upgrader
	ping   time.Duration
	logger *zap.Logger
	wg     sync.WaitGroup
}

// New returns a websocket acceptor for h.
func New(h *hub.Hub, authn Authenticator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		hub:  h,
		auth: authn,
		upgr: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		ping:   pingPeriod,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	actor, err := s.auth.Authenticate(r.Context(), token)
	if err != nil {
		if auth.IsAuthError(err) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		s.logger.Error("handshake authentication failed", zap.Error(err))
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	wc, err := s.upgr.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	c := &conn{
		id:     hub.NextID(),
		wc:     wc,
		actor:  actor,
		hub:    s.hub,
		send:   make(chan *hub.Msg, sendBuffer),
		logger: s.logger,
	}
	if err := s.hub.Signon(r.Context(), c, actor); err != nil {
		wc.Close()
		return
	}
	s.logger.Info("client connected", zap.Int64("conn", c.id), zap.String("actor", actor.String()))

	written := make(chan struct{})
	go func() {
		defer close(written)
		c.write(s.ping)
	}()

	err = c.read()
	if serr := s.hub.Signoff(c); serr != nil {
		wc.Close()
	}
	<-written
	if err != nil {
		s.logger.Debug("websocket read ended", zap.Int64("conn", c.id), zap.Error(err))
	}
	s.logger.Info("client disconnected", zap.Int64("conn", c.id))
}

// Wait blocks until every connection handler returned. Stop the hub first.
func (s *Server) Wait() {
	s.wg.Wait()
}

func tokenFrom(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
