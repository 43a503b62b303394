package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/hub"
)

func TestAuthorizationFailuresHaveNoSideEffects(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, cashier, nil)

	cases := []struct {
		name    string
		actor   models.Actor
		cmd     models.CommandType
		payload any
	}{
		{"staff changes settings", cashier, models.CmdSettingsUpdate, map[string]any{"taxPercent": 50}},
		{"staff resets revenue", manager, models.CmdRevenueReset, map[string]any{}},
		{"staff reads reports", cashier, models.CmdReportMetrics, map[string]any{}},
		{"kitchen deletes order", cook, models.CmdOrderDelete, map[string]any{"id": o.ID}},
		{"paused staff creates order", paused, models.CmdOrderCreate, map[string]any{"customerName": "x", "tableId": "1", "items": []map[string]any{{"menuItemId": f.fries, "qty": 1}}}},
		{"deleted staff", models.Actor{ID: "stf_gone", Role: models.RoleStaff, StaffRole: models.StaffManager}, models.CmdOrderSetStatus, map[string]any{"id": o.ID, "status": "done"}},
		{"unknown role", models.Actor{ID: "x", Role: "guest"}, models.CmdPromoApply, map[string]any{"code": "TEN", "subtotal": 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.counts()
			reply := f.do(t, tc.actor, tc.cmd, tc.payload)
			require.False(t, reply.OK)
			require.NotEmpty(t, reply.Error)
			require.Equal(t, before, f.counts())
		})
	}
	require.Equal(t, 10.0, f.state().Settings.ServiceChargePercent)
	require.Len(t, f.state().Orders, 1)
}

func TestOrderDeleteOpenToEveryStaffRole(t *testing.T) {
	f := newFixture(t)

	for _, actor := range []models.Actor{cashier, cook, manager, admin} {
		o := f.order(t, cashier, nil)
		deleted := f.mustDo(t, actor, models.CmdOrderDelete, map[string]any{"id": o.ID}).(models.Order)
		require.Equal(t, o.ID, deleted.ID, actor.Name)
	}
	require.Empty(t, f.state().Orders)
	require.Zero(t, f.state().Revenue.Total)
}

func TestStaffAccountIsReadFromLiveRecord(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, cashier, nil)

	// the token still names the account, which was removed since
	f.mustDo(t, admin, models.CmdStaffDelete, map[string]any{"id": cook.ID})
	reply := f.do(t, cook, models.CmdOrderDelete, map[string]any{"id": o.ID})
	require.False(t, reply.OK)
	require.Contains(t, reply.Error, "not active")
	require.Len(t, f.state().Orders, 1)

	f.mustDo(t, cashier, models.CmdOrderDelete, map[string]any{"id": o.ID})
	require.Empty(t, f.state().Orders)
}

func TestMutationPipeline(t *testing.T) {
	f := newFixture(t)
	before := f.counts()

	f.order(t, cashier, nil)

	after := f.counts()
	require.Equal(t, before.logs+1, after.logs)
	require.Equal(t, before.saves+1, after.saves)
	require.Equal(t, before.broadcasts+1, after.broadcasts)

	entry := f.state().Logs[0]
	require.Equal(t, string(models.CmdOrderCreate), entry.Type)
	require.Equal(t, "staff:casey", entry.Actor)
	var rec orderRecord
	require.NoError(t, json.Unmarshal(entry.Payload, &rec))
	require.Equal(t, orderRecord{OrderID: f.state().Orders[0].ID, Status: models.OrderNew, Total: 28.75, Delta: 28.75, TableID: "T1", Items: 3}, rec)

	var frame struct {
		Event   string       `json:"event"`
		Payload models.State `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(f.pub.broadcasts[len(f.pub.broadcasts)-1].Raw, &frame))
	require.Equal(t, models.EventSnapshot, frame.Event)
	require.Len(t, frame.Payload.Orders, 1)
	for _, acc := range frame.Payload.Staff {
		require.Empty(t, acc.PasswordHash)
	}
	require.Equal(t, "x", f.state().Staff[0].PasswordHash)
}

func TestQueriesSkipAuditPersistAndBroadcast(t *testing.T) {
	f := newFixture(t)
	f.order(t, cashier, nil)
	before := f.counts()

	for _, cmd := range []models.CommandType{
		models.CmdReportMetrics,
		models.CmdReportExportCSV,
		models.CmdInventoryLowStock,
		models.CmdCustomerSearch,
		models.CmdExportPromoUsage,
	} {
		f.mustDo(t, admin, cmd, map[string]any{})
	}
	f.mustDo(t, cashier, models.CmdPromoApply, map[string]any{"code": "TEN", "subtotal": 10})

	require.Equal(t, before, f.counts())
}

func TestPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	before := f.counts()
	f.repo.err = errors.New("disk full")

	reply := f.do(t, admin, models.CmdRevenueAdjust, map[string]any{"amount": 5, "reason": "tip jar"})
	require.False(t, reply.OK)
	require.Contains(t, reply.Error, "failed to persist state")

	// memory keeps the mutation and its audit entry; nothing is broadcast
	require.Equal(t, 5.0, f.state().Revenue.Total)
	require.Len(t, f.state().Logs, before.logs+1)
	require.Len(t, f.pub.broadcasts, before.broadcasts)

	f.repo.err = nil
	f.mustDo(t, admin, models.CmdRevenueAdjust, map[string]any{"amount": 1, "reason": "retry"})
	require.Equal(t, 6.0, f.state().Revenue.Total)
}

func TestAuditLogKeepsNewestEntries(t *testing.T) {
	f := newFixture(t)
	f.pub.clients = 0

	for i := 1; i <= 6000; i++ {
		f.mustDo(t, admin, models.CmdRevenueAdjust, map[string]any{"amount": 1, "reason": "tick"})
	}

	logs := f.state().Logs
	require.Len(t, logs, models.MaxLogEntries)
	require.Equal(t, 6000.0, f.state().Revenue.Total)

	var newest, oldest models.RevenueAdjustment
	require.NoError(t, json.Unmarshal(logs[0].Payload, &newest))
	require.NoError(t, json.Unmarshal(logs[len(logs)-1].Payload, &oldest))
	require.Equal(t, 5999.0, newest.PreviousTotal)
	require.Equal(t, 1000.0, oldest.PreviousTotal)
}

func TestValidationErrors(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name    string
		cmd     models.CommandType
		payload any
	}{
		{"unknown command", "order:explode", map[string]any{}},
		{"malformed payload", models.CmdOrderCreate, []int{1}},
		{"missing items", models.CmdOrderCreate, map[string]any{"customerName": "a", "tableId": "1"}},
		{"bad qty", models.CmdOrderCreate, map[string]any{"customerName": "a", "tableId": "1", "items": []map[string]any{{"menuItemId": f.fries, "qty": 0}}}},
		{"bad email", models.CmdOrderCreate, map[string]any{"customerName": "a", "tableId": "1", "customerEmail": "nope", "items": []map[string]any{{"menuItemId": f.fries, "qty": 1}}}},
		{"unknown order", models.CmdOrderSetStatus, map[string]any{"id": "ord_missing", "status": "done"}},
		{"bad status", models.CmdOrderSetStatus, map[string]any{"id": "ord_missing", "status": "eaten"}},
		{"zero adjustment", models.CmdRevenueAdjust, map[string]any{"amount": 0, "reason": "x"}},
		{"tax above 100", models.CmdSettingsUpdate, map[string]any{"taxPercent": 120}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.counts()
			reply := f.do(t, admin, tc.cmd, tc.payload)
			require.False(t, reply.OK)
			require.Equal(t, before, f.counts())
		})
	}

	raw, _ := json.Marshal(map[string]any{"customerName": "a", "tableId": "1"})
	_, err := f.svc.handlers[models.CmdOrderCreate].run(&call{state: f.state(), actor: admin, now: f.clock, payload: raw})
	require.ErrorIs(t, err, models.ErrValidation)
	require.Contains(t, err.Error(), "items")
}

func TestRouteRepliesAndSignonSnapshot(t *testing.T) {
	f := newFixture(t)
	conn := hub.NewChanConn(hub.NextID(), make(chan *hub.Msg, 1))

	f.svc.Route(&hub.Msg{From: conn, Subj: hub.SubjSignon, Actor: cashier})
	require.Len(t, f.pub.sent, 1)
	require.Equal(t, models.EventSnapshot, f.pub.sent[0].Subj)

	var snap struct {
		Event   string       `json:"event"`
		Payload models.State `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(f.pub.sent[0].Raw, &snap))
	require.Len(t, snap.Payload.Menu, 2)

	f.svc.Route(&hub.Msg{From: conn, Subj: string(models.CmdPromoApply), Tok: "req-7", Actor: cashier, Raw: []byte(`{"code":"ten","subtotal":25}`)})
	require.Len(t, f.pub.sent, 2)

	var frame struct {
		Event string `json:"event"`
		ID    string `json:"id"`
		Reply struct {
			OK   bool         `json:"ok"`
			Data PromoPreview `json:"data"`
		} `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(f.pub.sent[1].Raw, &frame))
	require.Equal(t, "promo:apply", frame.Event)
	require.Equal(t, "req-7", frame.ID)
	require.True(t, frame.Reply.OK)
	require.Equal(t, 2.5, frame.Reply.Data.Discount)

	f.svc.Route(&hub.Msg{From: conn, Subj: hub.SubjSignoff})
	require.Len(t, f.pub.sent, 2)
}

func TestReadRunsAgainstLiveState(t *testing.T) {
	f := newFixture(t)
	var n int
	f.svc.Read(func(st *models.State) { n = len(st.Menu) })
	require.Equal(t, 2, n)
}

type inline struct{ calls int }

func (e *inline) Exec(_ context.Context, fn func()) error {
	e.calls++
	fn()
	return nil
}

func TestLoopReaderRunsOnExecutor(t *testing.T) {
	f := newFixture(t)
	exec := &inline{}
	reader := NewLoopReader(exec, f.svc)

	var items int
	require.NoError(t, reader.Read(context.Background(), func(st *models.State) { items = len(st.Menu) }))
	require.Equal(t, 2, items)
	require.Equal(t, 1, exec.calls)
}
