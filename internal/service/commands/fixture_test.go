package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/hub"
	"github.com/mamadbah2/restopos/internal/service/store"
)

var (
	admin   = models.Actor{ID: "admin", Name: "admin", Role: models.RoleAdmin}
	cashier = models.Actor{ID: "stf_cash", Name: "casey", Role: models.RoleStaff, StaffRole: models.StaffCashier}
	cook    = models.Actor{ID: "stf_cook", Name: "kim", Role: models.RoleStaff, StaffRole: models.StaffKitchen}
	manager = models.Actor{ID: "stf_mgr", Name: "max", Role: models.RoleStaff, StaffRole: models.StaffManager}
	paused  = models.Actor{ID: "stf_off", Name: "pat", Role: models.RoleStaff, StaffRole: models.StaffManager}
)

type memRepo struct {
	saves int
	err   error
}

func (m *memRepo) Load() (*models.State, error) { return models.NewState(), nil }

func (m *memRepo) Save(*models.State) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	return nil
}

type publisher struct {
	clients    int
	broadcasts []*hub.Msg
	sent       []*hub.Msg
}

func (p *publisher) Broadcast(m *hub.Msg) int {
	p.broadcasts = append(p.broadcasts, m)
	return p.clients
}

func (p *publisher) Send(_ hub.Conn, m *hub.Msg) bool {
	p.sent = append(p.sent, m)
	return true
}

func (p *publisher) Count() int { return p.clients }

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	if password == "explode" {
		return "", errors.New("hasher down")
	}
	return "hashed:" + password, nil
}

type fixture struct {
	svc   *Service
	repo  *memRepo
	pub   *publisher
	clock time.Time

	burger string
	fries  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  &memRepo{},
		pub:   &publisher{clients: 1},
		clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	state := models.NewState()
	for _, a := range []models.Actor{cashier, cook, manager, paused} {
		status := models.StaffActive
		if a.ID == paused.ID {
			status = models.StaffPaused
		}
		state.Staff = append(state.Staff, models.StaffAccount{
			ID: a.ID, Username: a.Name, PasswordHash: "x", Role: a.StaffRole, Status: status,
		})
	}

	f.svc = NewService(store.New(state, f.repo, nil), f.pub, fakeHasher{}, time.UTC, nil)
	f.svc.now = func() time.Time { return f.clock }

	f.mustDo(t, admin, models.CmdSettingsUpdate, map[string]any{"taxPercent": 5, "serviceChargePercent": 10})
	cat := f.mustDo(t, admin, models.CmdCategoryCreate, map[string]any{"name": "Mains"})
	catID := cat.(models.Category).ID
	f.burger = f.mustDo(t, admin, models.CmdMenuCreate, map[string]any{"categoryId": catID, "name": "Burger", "price": 10}).(models.MenuItem).ID
	f.fries = f.mustDo(t, admin, models.CmdMenuCreate, map[string]any{"categoryId": catID, "name": "Fries", "price": 5}).(models.MenuItem).ID
	f.mustDo(t, admin, models.CmdPromoCreate, map[string]any{"code": "ten", "type": "percentage", "value": 10})
	return f
}

func (f *fixture) state() *models.State { return f.svc.store.State() }

func (f *fixture) do(t *testing.T, actor models.Actor, cmd models.CommandType, payload any) models.Reply {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return f.svc.HandleCommand(context.Background(), models.Command{Type: cmd, Payload: raw}, actor)
}

func (f *fixture) mustDo(t *testing.T, actor models.Actor, cmd models.CommandType, payload any) any {
	t.Helper()
	reply := f.do(t, actor, cmd, payload)
	require.True(t, reply.OK, "%s failed: %s", cmd, reply.Error)
	return reply.Data
}

func (f *fixture) order(t *testing.T, actor models.Actor, payload map[string]any) models.Order {
	t.Helper()
	base := map[string]any{
		"customerName": "Ada",
		"tableId":      "T1",
		"items": []map[string]any{
			{"menuItemId": f.burger, "qty": 2},
			{"menuItemId": f.fries, "qty": 1},
		},
	}
	for k, v := range payload {
		base[k] = v
	}
	return f.mustDo(t, actor, models.CmdOrderCreate, base).(models.Order)
}

// counts captures the side effects a rejected command must not produce.
type counts struct {
	logs, saves, broadcasts int
	revenue                 float64
}

func (f *fixture) counts() counts {
	return counts{
		logs:       len(f.state().Logs),
		saves:      f.repo.saves,
		broadcasts: len(f.pub.broadcasts),
		revenue:    f.state().Revenue.Total,
	}
}
