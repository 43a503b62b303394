package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

// AdminID is the subject of admin tokens.
const AdminID = "admin"

// StateReader runs fn with exclusive read access to the live state.
type StateReader interface {
	Read(ctx context.Context, fn func(*models.State)) error
}

// Session is the login response.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Role      models.Role      `json:"role"`
	StaffRole models.StaffRole `json:"staffRole,omitempty"`
	StaffID   string           `json:"staffId,omitempty"`
	Name      string           `json:"name"`
}

// Service authenticates admin and staff callers.
type Service struct {
	tokens        *Tokens
	hasher        Bcrypt
	state         StateReader
	adminUsername string
	adminHash     string
	logger        *zap.Logger
}

// NewService builds an auth service. adminHash is a bcrypt hash of the admin
// password.
func NewService(tokens *Tokens, hasher Bcrypt, state StateReader, adminUsername, adminHash string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tokens:        tokens,
		hasher:        hasher,
		state:         state,
		adminUsername: adminUsername,
		adminHash:     adminHash,
		logger:        logger,
	}
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	if username == s.adminUsername {
		if !s.hasher.Compare(s.adminHash, password) {
			s.logger.Warn("admin login rejected")
			return Session{}, ErrInvalidCredentials
		}
		return s.issue(models.Actor{ID: AdminID, Name: username, Role: models.RoleAdmin})
	}

	var (
		account models.StaffAccount
		found   bool
	)
	err := s.state.Read(ctx, func(st *models.State) {
		if idx := st.StaffByUsername(username); idx >= 0 {
			account, found = st.Staff[idx], true
		}
	})
	if err != nil {
		return Session{}, fmt.Errorf("read staff: %w", err)
	}

	// bcrypt runs outside the loop
	if !found || !s.hasher.Compare(account.PasswordHash, password) {
		s.logger.Warn("staff login rejected", zap.String("username", username))
		return Session{}, ErrInvalidCredentials
	}
	if account.Status != models.StaffActive {
		return Session{}, ErrAccountDisabled
	}

	name := account.DisplayName
	if name == "" {
		name = account.Username
	}
	return s.issue(models.Actor{ID: account.ID, Name: name, Role: models.RoleStaff, StaffRole: account.Role})
}

// Authenticate verifies a token presented at the handshake. Staff tokens are
// checked against the live account so that paused or deleted staff cannot
// connect with a token issued earlier.
func (s *Service) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	actor, err := s.tokens.Verify(token)
	if err != nil {
		return models.Actor{}, err
	}
	if actor.Role != models.RoleStaff {
		return actor, nil
	}

	var active bool
	err = s.state.Read(ctx, func(st *models.State) {
		if idx := st.StaffIndex(actor.ID); idx >= 0 && st.Staff[idx].Status == models.StaffActive {
			active = true
			actor.StaffRole = st.Staff[idx].Role
		}
	})
	if err != nil {
		return models.Actor{}, fmt.Errorf("read staff: %w", err)
	}
	if !active {
		return models.Actor{}, ErrAccountDisabled
	}
	return actor, nil
}

// IsAuthError reports whether err should be answered with 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountDisabled)
}

func (s *Service) issue(actor models.Actor) (Session, error) {
	token, expires, err := s.tokens.Issue(actor)
	if err != nil {
		return Session{}, err
	}
	session := Session{
		Token:     token,
		ExpiresAt: expires,
		Role:      actor.Role,
		StaffRole: actor.StaffRole,
		Name:      actor.Name,
	}
	if actor.Role == models.RoleStaff {
		session.StaffID = actor.ID
	}
	s.logger.Info("session issued", zap.String("role", string(actor.Role)), zap.String("subject", actor.ID))
	return session, nil
}
