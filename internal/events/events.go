package events

import (
	"context"
	"time"

	"shop-admin/internal/model"

	"github.com/google/uuid"
)

// Action names what happened to a status record.
type Action string

const (
	ActionAppended Action = "appended"
	ActionEdited   Action = "edited"
	ActionRemoved  Action = "removed"
)

// StatusChanged is emitted after every successful status-history mutation.
// For ActionRemoved, Status and Description describe the deleted record.
type StatusChanged struct {
	EventID       uuid.UUID             `json:"eventId"`
	Action        Action                `json:"action"`
	OrderID       int                   `json:"orderId"`
	OrderStatusID int                   `json:"orderStatusId"`
	Status        model.OrderStatusCode `json:"status"`
	Description   string                `json:"description"`
	CurrentStatus model.OrderStatusCode `json:"currentStatus"`
	OccurredAt    time.Time             `json:"occurredAt"`
}

// NewStatusChanged builds an event for record s.
func NewStatusChanged(action Action, s model.OrderStatus, current model.OrderStatusCode, at time.Time) StatusChanged {
	return StatusChanged{
		EventID:       uuid.New(),
		Action:        action,
		OrderID:       s.OrderID,
		OrderStatusID: s.OrderStatusID,
		Status:        s.Status,
		Description:   s.Description,
		CurrentStatus: current,
		OccurredAt:    at.UTC(),
	}
}

// Publisher delivers status change notifications.
type Publisher interface {
	Publish(ctx context.Context, e StatusChanged) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, StatusChanged) error { return nil }
func (Nop) Close() error                                 { return nil }
