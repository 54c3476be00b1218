package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OrderStatusCode is the closed set of order states. The numeric order is
// the nominal business progression, but any code may follow any other.
type OrderStatusCode int

const (
	StatusPending    OrderStatusCode = 1
	StatusConfirmed  OrderStatusCode = 2
	StatusDelivering OrderStatusCode = 3
	StatusDelivered  OrderStatusCode = 4
)

// MaxStatusDescription is the longest description accepted, in characters.
const MaxStatusDescription = 500

// AllStatuses lists every status code in progression order.
var AllStatuses = []OrderStatusCode{StatusPending, StatusConfirmed, StatusDelivering, StatusDelivered}

// Valid reports whether c is one of the four known codes.
func (c OrderStatusCode) Valid() bool {
	return c >= StatusPending && c <= StatusDelivered
}

func (c OrderStatusCode) String() string {
	switch c {
	case StatusPending:
		return "Pending"
	case StatusConfirmed:
		return "Confirmed"
	case StatusDelivering:
		return "Delivering"
	case StatusDelivered:
		return "Delivered"
	default:
		return fmt.Sprintf("OrderStatusCode(%d)", int(c))
	}
}

// ParseOrderStatus accepts either the numeric code or the case-insensitive name.
func ParseOrderStatus(s string) (OrderStatusCode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		c := OrderStatusCode(n)
		if !c.Valid() {
			return 0, ErrInvalidStatus
		}
		return c, nil
	}
	for _, c := range AllStatuses {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return 0, ErrInvalidStatus
}

// OrderStatus is one record of an order's status history.
type OrderStatus struct {
	OrderStatusID int             `json:"orderStatusID"`
	OrderID       int             `json:"orderID"`
	Status        OrderStatusCode `json:"status"`
	Description   string          `json:"description"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// OrderStatusRequest is what an operator submits to append or edit a record.
type OrderStatusRequest struct {
	Status      OrderStatusCode
	Description string
}

// Validate enforces the status form rules. It never touches r.
func (r OrderStatusRequest) Validate() error {
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return NewValidationError("description", "status description is required")
	}
	if len([]rune(desc)) > MaxStatusDescription {
		return NewValidationError("description", fmt.Sprintf("description must not exceed %d characters", MaxStatusDescription))
	}
	if !r.Status.Valid() {
		return NewValidationError("status", "status must be one of 1, 2, 3 or 4")
	}
	return nil
}

// AppendStatusBody is the wire body for POST /api/orders/{id}/status.
type AppendStatusBody struct {
	OrderID     int             `json:"OrderID"`
	Status      OrderStatusCode `json:"Status"`
	Description string          `json:"Description"`
}

// EditStatusBody is the wire body for PUT /api/orders/{id}/status/{statusId}.
type EditStatusBody struct {
	Status      OrderStatusCode `json:"Status"`
	Description string          `json:"Description"`
}

// NewAppendStatusBody builds the append body from a validated request.
func NewAppendStatusBody(orderID int, r OrderStatusRequest) AppendStatusBody {
	return AppendStatusBody{OrderID: orderID, Status: r.Status, Description: strings.TrimSpace(r.Description)}
}

// NewEditStatusBody builds the edit body from a validated request.
func NewEditStatusBody(r OrderStatusRequest) EditStatusBody {
	return EditStatusBody{Status: r.Status, Description: strings.TrimSpace(r.Description)}
}
