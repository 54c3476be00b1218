package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"shop-admin/internal/events"
	"shop-admin/internal/model"
	"shop-admin/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// InitialStatusDescription labels the record every new order starts with.
const InitialStatusDescription = "Order placed"

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	publisher   events.Publisher
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. A nil publisher discards
// status events.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// List retrieves one page of orders, newest first.
func (s *orderService) List(ctx context.Context, params OrderListParams) (*model.OrderListResponse, error) {
	if params.Status != 0 && !params.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	page := params.Page.normalize()
	orders, total, err := s.orderRepo.List(ctx, repository.OrderQuery{
		Status: params.Status,
		Limit:  page.Size,
		Offset: page.offset(),
	})
	if err != nil {
		s.logger.Error().Err(err).Int("page_number", page.Number).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &model.OrderListResponse{
		Items:      orders,
		TotalCount: total,
		PageNumber: page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages(total, page.Size),
	}, nil
}

// Get retrieves an order with its details and current status.
func (s *orderService) Get(ctx context.Context, id int) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Int("order_id", id).Msg("order not found")
		return nil, model.ErrNotFound
	}
	return order, nil
}

// Create stores an order priced from the catalogue and opens its status
// history with a Pending record.
func (s *orderService) Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	details := make([]model.OrderDetail, len(req.Items))
	total := decimal.Zero
	for i, item := range req.Items {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up product: %w", err)
		}
		if product == nil {
			s.logger.Warn().Int("product_id", item.ProductID).Msg("order references unknown product")
			return nil, model.NewValidationError(fmt.Sprintf("orderDetails[%d].productId", i), fmt.Sprintf("product %d does not exist", item.ProductID))
		}

		unitPrice := item.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = product.Price
		}
		details[i] = model.OrderDetail{
			ProductID:   item.ProductID,
			ProductName: product.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
		}
		total = total.Add(details[i].LineTotal())
	}

	order := &model.Order{
		UserID:         req.UserID,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		BillingAddress: strings.TrimSpace(req.BillingAddress),
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		TotalAmount:    total,
		OrderDetails:   details,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Int("item_count", len(details)).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	initial := &model.OrderStatus{
		OrderID:     order.OrderID,
		Status:      model.StatusPending,
		Description: InitialStatusDescription,
		UpdatedAt:   order.OrderDate,
	}
	if err := s.orderRepo.AppendStatus(ctx, initial); err != nil {
		s.logger.Error().Err(err).Int("order_id", order.OrderID).Msg("failed to record initial status")
		return nil, fmt.Errorf("failed to record initial status: %w", err)
	}

	s.logger.Info().
		Int("order_id", order.OrderID).
		Int("item_count", len(details)).
		Str("total_amount", total.StringFixed(2)).
		Msg("order created successfully")

	created, err := s.Get(ctx, order.OrderID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ActionAppended, *initial, created.CurrentStatus)
	return created, nil
}

// Update changes the billing address and payment method of an order.
func (s *orderService) Update(ctx context.Context, id int, req model.OrderUpdateRequest) (*model.Order, error) {
	req.BillingAddress = strings.TrimSpace(req.BillingAddress)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.BillingAddress == "" {
		return nil, model.NewValidationError("billingAddress", "billing address is required")
	}

	if err := s.orderRepo.Update(ctx, id, req); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int("order_id", id).Msg("failed to update order")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes an order with its details and status history.
func (s *orderService) Delete(ctx context.Context, id int) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int("order_id", id).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	s.logger.Info().Int("order_id", id).Msg("order deleted")
	return nil
}

// Statuses returns the status history of an order, oldest first unless
// order is SortDesc.
func (s *orderService) Statuses(ctx context.Context, orderID int, order model.SortOrder) ([]model.OrderStatus, error) {
	history, err := s.orderRepo.ListStatuses(ctx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int("order_id", orderID).Msg("failed to list statuses")
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	if order == model.SortDesc {
		slices.Reverse(history)
	}
	return history, nil
}

// AppendStatus adds a record to the history. The body's OrderID, when set,
// must match the path.
func (s *orderService) AppendStatus(ctx context.Context, orderID int, body model.AppendStatusBody) (*model.OrderStatus, error) {
	if body.OrderID != 0 && body.OrderID != orderID {
		return nil, model.NewValidationError("OrderID", "order ID does not match the path")
	}
	req := model.OrderStatusRequest{Status: body.Status, Description: body.Description}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	record := &model.OrderStatus{
		OrderID:     orderID,
		Status:      body.Status,
		Description: strings.TrimSpace(body.Description),
	}
	if err := s.orderRepo.AppendStatus(ctx, record); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int("order_id", orderID).Msg("failed to append status")
		return nil, fmt.Errorf("failed to append status: %w", err)
	}

	s.logger.Info().
		Int("order_id", orderID).
		Int("order_status_id", record.OrderStatusID).
		Str("status", record.Status.String()).
		Msg("status appended")
	s.publish(ctx, events.ActionAppended, *record, s.currentStatus(ctx, orderID))
	return record, nil
}

// EditStatus replaces the status and description of one record.
func (s *orderService) EditStatus(ctx context.Context, orderID, statusID int, body model.EditStatusBody) (*model.OrderStatus, error) {
	req := model.OrderStatusRequest{Status: body.Status, Description: body.Description}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	record := &model.OrderStatus{
		OrderStatusID: statusID,
		OrderID:       orderID,
		Status:        body.Status,
		Description:   strings.TrimSpace(body.Description),
	}
	if err := s.orderRepo.UpdateStatus(ctx, record); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int("order_id", orderID).Int("order_status_id", statusID).Msg("failed to edit status")
		return nil, fmt.Errorf("failed to edit status: %w", err)
	}

	s.publish(ctx, events.ActionEdited, *record, s.currentStatus(ctx, orderID))
	return record, nil
}

// RemoveStatus deletes one record. The order's current status falls back
// to the latest remaining record.
func (s *orderService) RemoveStatus(ctx context.Context, orderID, statusID int) error {
	history, err := s.orderRepo.ListStatuses(ctx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to list statuses: %w", err)
	}
	idx := slices.IndexFunc(history, func(r model.OrderStatus) bool { return r.OrderStatusID == statusID })
	if idx < 0 {
		return model.ErrNotFound
	}

	if err := s.orderRepo.DeleteStatus(ctx, orderID, statusID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int("order_id", orderID).Int("order_status_id", statusID).Msg("failed to remove status")
		return fmt.Errorf("failed to remove status: %w", err)
	}

	s.logger.Info().Int("order_id", orderID).Int("order_status_id", statusID).Msg("status removed")
	s.publish(ctx, events.ActionRemoved, history[idx], s.currentStatus(ctx, orderID))
	return nil
}

func (s *orderService) currentStatus(ctx context.Context, orderID int) model.OrderStatusCode {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil || order == nil {
		return 0
	}
	return order.CurrentStatus
}

// publish reports a status change. Delivery failures are logged, not returned.
func (s *orderService) publish(ctx context.Context, action events.Action, record model.OrderStatus, current model.OrderStatusCode) {
	e := events.NewStatusChanged(action, record, current, s.now())
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).
			Int("order_id", record.OrderID).
			Str("action", string(action)).
			Msg("failed to publish status event")
	}
}
