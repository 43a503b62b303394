package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// CommandType is the event name a client sends over the channel.
type CommandType string

const (
	CmdSettingsUpdate CommandType = "settings:update"

	CmdCategoryCreate CommandType = "category:create"
	CmdCategoryUpdate CommandType = "category:update"
	CmdCategoryDelete CommandType = "category:delete"

	CmdMenuCreate CommandType = "menu:create"
	CmdMenuUpdate CommandType = "menu:update"
	CmdMenuDelete CommandType = "menu:delete"

	CmdStaffCreate    CommandType = "staff:create"
	CmdStaffSetStatus CommandType = "staff:setStatus"
	CmdStaffSetRole   CommandType = "staff:setRole"
	CmdStaffDelete    CommandType = "staff:delete"

	CmdPromoCreate CommandType = "promo:create"
	CmdPromoUpdate CommandType = "promo:update"
	CmdPromoDelete CommandType = "promo:delete"
	CmdPromoApply  CommandType = "promo:apply"

	CmdRevenueReset  CommandType = "revenue:reset"
	CmdRevenueAdjust CommandType = "revenue:adjust"

	CmdOrderCreate    CommandType = "order:create"
	CmdOrderUpdate    CommandType = "order:update"
	CmdOrderDelete    CommandType = "order:delete"
	CmdOrderSetStatus CommandType = "order:setStatus"

	CmdReceiptCreate  CommandType = "receipt:create"
	CmdReceiptPreview CommandType = "receipt:preview"

	CmdReportExportCSV CommandType = "report:exportCSV"
	CmdReportMetrics   CommandType = "report:metrics"

	CmdInventoryCreate     CommandType = "inventory:create"
	CmdInventoryUpdate     CommandType = "inventory:update"
	CmdInventoryDelete     CommandType = "inventory:delete"
	CmdInventoryArchive    CommandType = "inventory:archive"
	CmdInventorySearch     CommandType = "inventory:search"
	CmdInventoryLowStock   CommandType = "inventory:lowStock"
	CmdInventoryOutOfStock CommandType = "inventory:outOfStock"
	CmdInventoryMetrics    CommandType = "inventory:metrics"
	CmdInventoryLogs       CommandType = "inventory:logs"

	CmdCustomerSearch     CommandType = "customer:search"
	CmdCustomerExport     CommandType = "customer:export"
	CmdCustomerGetHistory CommandType = "customer:getHistory"

	CmdExportCustomers        CommandType = "export:customers"
	CmdExportInventory        CommandType = "export:inventory"
	CmdExportStaffPerformance CommandType = "export:staffPerformance"
	CmdExportPromoUsage       CommandType = "export:promoUsage"
)

// EventSnapshot is the server push carrying the full state.
const EventSnapshot = "state:snapshot"

// Role is the verified role claim of a caller.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Actor identifies who issued a command.
type Actor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	StaffRole StaffRole `json:"staffRole,omitempty"`
}

// String renders the actor for audit and inventory logs.
func (a Actor) String() string {
	if a.Name == "" {
		return string(a.Role)
	}
	return string(a.Role) + ":" + a.Name
}

// Command is an inbound request frame.
type Command struct {
	Type    CommandType     `json:"event"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is sent back to the issuing connection only.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// ErrEmptyCommand is returned for frames without an event name.
var ErrEmptyCommand = errors.New("command without event name")

// ParseCommand decodes a client frame.
func ParseCommand(frame []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(frame, &cmd); err != nil {
		return Command{}, err
	}
	cmd.Type = CommandType(strings.TrimSpace(string(cmd.Type)))
	if cmd.Type == "" {
		return Command{}, ErrEmptyCommand
	}
	return cmd, nil
}

// ReplyFrame answers a command on the issuing connection.
type ReplyFrame struct {
	Event CommandType `json:"event"`
	ID    string      `json:"id,omitempty"`
	Reply Reply       `json:"reply"`
}

// PushFrame is a server initiated message such as the state snapshot.
type PushFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}
