package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a customer order. CurrentStatus and
// CurrentStatusDescription mirror the latest status record and are derived
// by the server.
type Order struct {
	OrderID                  int             `json:"orderId"`
	UserID                   int             `json:"userId"`
	CustomerName             string          `json:"customerName,omitempty"`
	BillingAddress           string          `json:"billingAddress"`
	PaymentMethod            string          `json:"paymentMethod"`
	OrderDate                time.Time       `json:"orderDate"`
	TotalAmount              decimal.Decimal `json:"totalAmount"`
	OrderDetails             []OrderDetail   `json:"orderDetails"`
	CurrentStatus            OrderStatusCode `json:"currentStatus"`
	CurrentStatusDescription string          `json:"currentStatusDescription"`
}

// OrderDetail represents a line item in an order.
type OrderDetail struct {
	OrderDetailID int             `json:"orderDetailId"`
	OrderID       int             `json:"orderId"`
	ProductID     int             `json:"productId"`
	ProductName   string          `json:"productName,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
}

// LineTotal returns quantity * unit price.
func (d OrderDetail) LineTotal() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	UserID         int                  `json:"userId"`
	CustomerName   string               `json:"customerName,omitempty"`
	BillingAddress string               `json:"billingAddress"`
	PaymentMethod  string               `json:"paymentMethod"`
	Items          []OrderDetailRequest `json:"orderDetails"`
}

// OrderDetailRequest represents a single item in an order request.
type OrderDetailRequest struct {
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Validate checks the order request.
func (r *OrderRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("order request is nil")
	}
	if strings.TrimSpace(r.BillingAddress) == "" {
		return NewValidationError("billingAddress", "billing address is required")
	}
	if len(r.Items) == 0 {
		return NewValidationError("orderDetails", "order must contain at least one item")
	}
	for i, item := range r.Items {
		if item.ProductID <= 0 {
			return NewValidationError(fmt.Sprintf("orderDetails[%d].productId", i), "product ID is required")
		}
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if item.UnitPrice.IsNegative() {
			return NewValidationError(fmt.Sprintf("orderDetails[%d].unitPrice", i), "unit price must not be negative")
		}
	}
	return nil
}

// OrderUpdateRequest carries the order fields an operator may change.
type OrderUpdateRequest struct {
	BillingAddress string `json:"billingAddress"`
	PaymentMethod  string `json:"paymentMethod"`
}

// OrderListResponse is the paginated envelope returned for order lists.
type OrderListResponse struct {
	Items      []Order `json:"items"`
	TotalCount int     `json:"totalCount"`
	PageNumber int     `json:"pageNumber"`
	PageSize   int     `json:"pageSize"`
	TotalPages int     `json:"totalPages"`
}
