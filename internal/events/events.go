// Package events publishes notifications about committed expense changes.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/pkg/metrics"
)

// Type names an expense change. It is also the routing key.
type Type string

const (
	ExpenseCreated Type = "expense.created"
	ExpenseUpdated Type = "expense.updated"
	ExpenseDeleted Type = "expense.deleted"
)

// Event is a lightweight change notice. Consumers fetch the expense itself.
type Event struct {
	Type       Type  `json:"type"`
	ExpenseID  int64 `json:"expense_id"`
	GroupID    int64 `json:"group_id"`
	OccurredAt int64 `json:"occurred_at"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t Type, expenseID, groupID int64) Event {
	return Event{Type: t, ExpenseID: expenseID, GroupID: groupID, OccurredAt: time.Now().Unix()}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Emit publishes e and only logs a failure: the change is already committed.
func Emit(ctx context.Context, p Publisher, e Event) {
	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "Failed to publish event",
			"type", e.Type,
			"expense_id", e.ExpenseID,
			"group_id", e.GroupID,
			"error", err)
		metrics.RecordEvent(string(e.Type), "error")
		return
	}
	metrics.RecordEvent(string(e.Type), "ok")
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
