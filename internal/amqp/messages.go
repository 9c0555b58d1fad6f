package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Entity names carried by change messages.
const (
	EntityProject  = "project"
	EntityManager  = "manager"
	EntityCategory = "category"
	EntityBudget   = "budget"
	EntityExpense  = "expense"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeMessage announces that a record was written. It carries only ids;
// consumers read the current state from the database.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	BudgetID  int64     `json:"budgetid,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(entity, action string, id, budgetID int64) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		BudgetID:  budgetID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ChangeMessage) Validate() error {
	switch m.Entity {
	case EntityProject, EntityManager, EntityCategory, EntityBudget, EntityExpense:
	default:
		return fmt.Errorf("unknown entity %q", m.Entity)
	}
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	if m.ID <= 0 {
		return errors.New("missing id")
	}
	return nil
}

// AffectsBudget reports whether the change can move a budget's utilization.
func (m *ChangeMessage) AffectsBudget() bool {
	return (m.Entity == EntityExpense || m.Entity == EntityBudget) && m.BudgetID > 0
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
