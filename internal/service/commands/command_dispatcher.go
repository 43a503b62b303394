package commands

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/hub"
	"github.com/mamadbah2/restopos/internal/service/audit"
	"github.com/mamadbah2/restopos/internal/service/customers"
	"github.com/mamadbah2/restopos/internal/service/inventory"
	"github.com/mamadbah2/restopos/internal/service/metrics"
	"github.com/mamadbah2/restopos/internal/service/reporting"
	"github.com/mamadbah2/restopos/internal/service/store"
)

// ErrUnsupportedCommand indicates the command name is not part of the catalog.
var ErrUnsupportedCommand = &models.Error{Kind: models.KindValidation, Msg: "unsupported command"}

// access is the capability a command requires.
type access int

const (
	adminOnly access = iota
	staffOrAdmin
)

// Publisher delivers encoded frames to connections.
type Publisher interface {
	Broadcast(m *hub.Msg) int
	Send(c hub.Conn, m *hub.Msg) bool
	Count() int
}

// PasswordHasher hashes staff passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Dispatcher executes commands against the canonical state.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, actor models.Actor) models.Reply
}

type handler struct {
	access  access
	mutates bool
	run     func(c *call) (any, error)
}

// call carries one command through its handler.
type call struct {
	state   *models.State
	actor   models.Actor
	now     time.Time
	payload json.RawMessage
	// record is the business payload written to the audit log.
	record any
}

// Service implements Dispatcher and hub.Router. Every method must run on the
// hub loop.
type Service struct {
	store     *store.Store
	publisher Publisher
	hasher    PasswordHasher
	audit     *audit.Recorder
	metrics   *metrics.Aggregator
	inventory *inventory.Service
	customers *customers.Service
	reporting *reporting.Service
	validate  *validator.Validate
	handlers  map[models.CommandType]handler
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(st *store.Store, publisher Publisher, hasher PasswordHasher, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		store:     st,
		publisher: publisher,
		hasher:    hasher,
		audit:     audit.NewRecorder(models.MaxLogEntries),
		metrics:   metrics.NewAggregator(loc),
		inventory: inventory.NewService(),
		customers: customers.NewService(),
		reporting: reporting.NewService(loc, logger.Named("reporting")),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
		now:       time.Now,
	}
	s.validate.RegisterTagNameFunc(jsonFieldName)
	s.handlers = s.routes()
	return s
}

// Read runs fn with the live state. It must be called on the hub loop; see
// hub.Hub.Exec.
func (s *Service) Read(fn func(*models.State)) {
	fn(s.store.State())
}

// Route implements hub.Router.
func (s *Service) Route(m *hub.Msg) {
	switch m.Subj {
	case hub.SubjSignon:
		s.logger.Debug("client signed on", zap.Int64("conn", m.From.ID()), zap.String("actor", m.Actor.String()))
		if raw, err := s.snapshotFrame(); err == nil {
			s.publisher.Send(m.From, &hub.Msg{Subj: models.EventSnapshot, Raw: raw})
		}
		return
	case hub.SubjSignoff:
		s.logger.Debug("client signed off", zap.Int64("conn", m.From.ID()))
		return
	}

	cmd := models.Command{Type: models.CommandType(m.Subj), ID: m.Tok, Payload: m.Raw}
	reply := s.HandleCommand(context.Background(), cmd, m.Actor)

	raw, err := json.Marshal(models.ReplyFrame{Event: cmd.Type, ID: cmd.ID, Reply: reply})
	if err != nil {
		s.logger.Error("encode reply failed", zap.String("command", m.Subj), zap.Error(err))
		raw, _ = json.Marshal(models.ReplyFrame{Event: cmd.Type, ID: cmd.ID, Reply: models.Reply{Error: "failed to encode reply"}})
	}
	s.publisher.Send(m.From, &hub.Msg{Subj: m.Subj, Tok: m.Tok, Raw: raw})
}

// HandleCommand authorizes cmd, applies its handler and, for mutations,
// records the audit entry, persists the state and broadcasts a snapshot
// before replying.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, actor models.Actor) models.Reply {
	started := s.now()
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("actor", actor.String()))

	h, ok := s.handlers[cmd.Type]
	if !ok {
		return s.reject(cmd, actor, started, ErrUnsupportedCommand)
	}

	state := s.store.State()
	actor, err := s.authorize(state, h.access, actor, cmd.Type)
	if err != nil {
		return s.reject(cmd, actor, started, err)
	}

	c := &call{state: state, actor: actor, now: started, payload: cmd.Payload}
	data, err := h.run(c)
	if err != nil {
		return s.reject(cmd, actor, started, err)
	}

	if h.mutates {
		if _, err := s.audit.Record(state, started, string(cmd.Type), actor, c.record); err != nil {
			s.logger.Error("audit record failed", zap.String("command", string(cmd.Type)), zap.Error(err))
		}
		if err := s.store.Persist(); err != nil {
			persistFailures.Inc()
			return s.reject(cmd, actor, started, err)
		}
		s.broadcast()
	}

	s.observe(cmd.Type, "ok", s.now().Sub(started))
	return models.Reply{OK: true, Data: data}
}

func (s *Service) authorize(state *models.State, need access, actor models.Actor, cmd models.CommandType) (models.Actor, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return actor, nil
	case models.RoleStaff:
	default:
		return actor, models.Forbidden("unknown role")
	}

	idx := state.StaffIndex(actor.ID)
	if idx < 0 || state.Staff[idx].Status != models.StaffActive {
		return actor, models.Forbidden("staff account is not active")
	}
	actor.StaffRole = state.Staff[idx].Role

	if need == adminOnly {
		return actor, models.Forbidden("%s requires admin", cmd)
	}
	return actor, nil
}

func (s *Service) reject(cmd models.Command, actor models.Actor, started time.Time, err error) models.Reply {
	kind := models.KindOf(err)
	result := string(kind)
	if result == "" {
		result = "error"
	}
	s.observe(cmd.Type, result, s.now().Sub(started))

	fields := []zap.Field{zap.String("command", string(cmd.Type)), zap.String("actor", actor.String()), zap.Error(err)}
	if kind == models.KindPersistence {
		s.logger.Error("command not persisted", fields...)
	} else {
		s.logger.Warn("command rejected", fields...)
	}
	return models.Reply{OK: false, Error: err.Error()}
}

func (s *Service) broadcast() {
	if s.publisher.Count() == 0 {
		return
	}
	raw, err := s.snapshotFrame()
	if err != nil {
		return
	}
	s.publisher.Broadcast(&hub.Msg{Subj: models.EventSnapshot, Raw: raw})
}

func (s *Service) snapshotFrame() ([]byte, error) {
	raw, err := json.Marshal(models.PushFrame{Event: models.EventSnapshot, Payload: s.store.State().Snapshot()})
	if err != nil {
		s.logger.Error("encode snapshot failed", zap.Error(err))
		return nil, err
	}
	return raw, nil
}

// typed decodes and validates the payload before calling fn. The decoded
// payload becomes the audit record unless fn replaces it.
func typed[P any](s *Service, fn func(c *call, p P) (any, error)) func(c *call) (any, error) {
	return func(c *call) (any, error) {
		var p P
		raw := c.payload
		if len(raw) == 0 || string(raw) == "null" {
			raw = json.RawMessage("{}")
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, models.Invalid("malformed payload: %v", err)
		}
		if err := s.validate.Struct(p); err != nil {
			return nil, validationError(err)
		}
		c.record = p
		return fn(c, p)
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.Invalid("invalid payload: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
		if fe.Param() != "" {
			msgs = append(msgs, field+" must satisfy "+fe.Tag()+"="+fe.Param())
		} else {
			msgs = append(msgs, field+" is "+fe.Tag())
		}
	}
	return models.Invalid("invalid payload: %s", strings.Join(msgs, "; "))
}
