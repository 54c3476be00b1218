package repository

import (
	"context"
	"errors"
	"fmt"

	"shop-admin/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// orderFrom joins every order with its most recent status record.
const orderFrom = `
	FROM orders o
	LEFT JOIN LATERAL (
		SELECT status, description
		FROM order_statuses
		WHERE order_id = o.order_id
		ORDER BY updated_at DESC, order_status_id DESC
		LIMIT 1
	) s ON TRUE`

const orderColumns = `
	SELECT o.order_id, o.user_id, o.customer_name, o.billing_address,
		o.payment_method, o.order_date, o.total_amount,
		COALESCE(s.status, 0), COALESCE(s.description, '')`

func scanOrder(row pgx.Row, o *model.Order) error {
	var status int
	err := row.Scan(
		&o.OrderID,
		&o.UserID,
		&o.CustomerName,
		&o.BillingAddress,
		&o.PaymentMethod,
		&o.OrderDate,
		&o.TotalAmount,
		&status,
		&o.CurrentStatusDescription,
	)
	o.CurrentStatus = model.OrderStatusCode(status)
	return err
}

// List retrieves one page of orders, newest first.
func (r *orderRepository) List(ctx context.Context, q OrderQuery) ([]model.Order, int, error) {
	where := " WHERE ($1::int = 0 OR s.status = $1::int)"
	status := int(q.Status)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+orderFrom+where, status).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := orderColumns + orderFrom + where + " ORDER BY o.order_date DESC, o.order_id DESC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", q.Limit).
			Int("offset", q.Offset).
			Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	ids := []int{}
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		o.OrderDetails = []model.OrderDetail{}
		orders = append(orders, o)
		ids = append(ids, o.OrderID)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	details, err := r.details(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		if d, ok := details[orders[i].OrderID]; ok {
			orders[i].OrderDetails = d
		}
	}

	return orders, total, nil
}

// details loads the line items of every listed order.
func (r *orderRepository) details(ctx context.Context, orderIDs []int) (map[int][]model.OrderDetail, error) {
	out := make(map[int][]model.OrderDetail, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT order_detail_id, order_id, product_id, product_name, quantity, unit_price
		FROM order_details
		WHERE order_id = ANY($1)
		ORDER BY order_detail_id`, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(orderIDs)).Msg("failed to query order details")
		return nil, fmt.Errorf("failed to query order details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d model.OrderDetail
		if err := rows.Scan(&d.OrderDetailID, &d.OrderID, &d.ProductID, &d.ProductName, &d.Quantity, &d.UnitPrice); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order detail row")
			return nil, fmt.Errorf("failed to scan order detail: %w", err)
		}
		out[d.OrderID] = append(out[d.OrderID], d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order details: %w", err)
	}

	return out, nil
}

// GetByID retrieves an order by its ID along with its details.
func (r *orderRepository) GetByID(ctx context.Context, id int) (*model.Order, error) {
	var o model.Order
	err := scanOrder(r.pool.QueryRow(ctx, orderColumns+orderFrom+" WHERE o.order_id = $1", id), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	details, err := r.details(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	o.OrderDetails = details[id]
	if o.OrderDetails == nil {
		o.OrderDetails = []model.OrderDetail{}
	}

	return &o, nil
}

// Create inserts the order and its details in one transaction.
func (r *orderRepository) Create(ctx context.Context, o *model.Order) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	explicitID := o.OrderID != 0
	if explicitID {
		_, err = tx.Exec(ctx, `
			INSERT INTO orders (order_id, user_id, customer_name, billing_address,
				payment_method, order_date, total_amount)
			VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), $7)`,
			o.OrderID, o.UserID, o.CustomerName, o.BillingAddress,
			o.PaymentMethod, nullTime(o.OrderDate), o.TotalAmount)
	} else {
		err = tx.QueryRow(ctx, `
			INSERT INTO orders (user_id, customer_name, billing_address,
				payment_method, order_date, total_amount)
			VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), $6)
			RETURNING order_id`,
			o.UserID, o.CustomerName, o.BillingAddress,
			o.PaymentMethod, nullTime(o.OrderDate), o.TotalAmount).Scan(&o.OrderID)
	}
	if err != nil {
		r.logger.Error().Err(err).Int("order_id", o.OrderID).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if len(o.OrderDetails) > 0 {
		query := `
			INSERT INTO order_details (order_id, product_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING order_detail_id`

		batch := &pgx.Batch{}
		for _, d := range o.OrderDetails {
			batch.Queue(query, o.OrderID, d.ProductID, d.ProductName, d.Quantity, d.UnitPrice)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range o.OrderDetails {
			if err = results.QueryRow().Scan(&o.OrderDetails[i].OrderDetailID); err != nil {
				results.Close()
				r.logger.Error().
					Err(err).
					Int("order_id", o.OrderID).
					Int("product_id", o.OrderDetails[i].ProductID).
					Msg("failed to create order detail")
				return fmt.Errorf("failed to create order detail: %w", err)
			}
			o.OrderDetails[i].OrderID = o.OrderID
		}
		if err = results.Close(); err != nil {
			return fmt.Errorf("failed to create order details: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Int("order_id", o.OrderID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if explicitID {
		if err = syncSequence(ctx, r.pool, "orders", "order_id"); err != nil {
			return err
		}
	}

	r.logger.Debug().
		Int("order_id", o.OrderID).
		Int("detail_count", len(o.OrderDetails)).
		Msg("order created successfully")

	stored, err := r.GetByID(ctx, o.OrderID)
	if err != nil {
		return err
	}
	*o = *stored
	return nil
}

// Update changes the billing address and payment method.
func (r *orderRepository) Update(ctx context.Context, id int, req model.OrderUpdateRequest) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET billing_address = $2, payment_method = $3
		WHERE order_id = $1`,
		id, req.BillingAddress, req.PaymentMethod)
	if err != nil {
		r.logger.Error().Err(err).Int("order_id", id).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes an order. Details and history cascade.
func (r *orderRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM orders WHERE order_id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Int("order_id", id).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListStatuses returns the order's status history, oldest first.
func (r *orderRepository) ListStatuses(ctx context.Context, orderID int) ([]model.OrderStatus, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1)", orderID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	if !exists {
		return nil, model.ErrNotFound
	}

	rows, err := r.pool.Query(ctx, `
		SELECT order_status_id, order_id, status, description, updated_at
		FROM order_statuses
		WHERE order_id = $1
		ORDER BY updated_at, order_status_id`, orderID)
	if err != nil {
		r.logger.Error().Err(err).Int("order_id", orderID).Msg("failed to query order statuses")
		return nil, fmt.Errorf("failed to query order statuses: %w", err)
	}
	defer rows.Close()

	history := []model.OrderStatus{}
	for rows.Next() {
		var (
			s      model.OrderStatus
			status int
		)
		if err := rows.Scan(&s.OrderStatusID, &s.OrderID, &status, &s.Description, &s.UpdatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order status row")
			return nil, fmt.Errorf("failed to scan order status: %w", err)
		}
		s.Status = model.OrderStatusCode(status)
		history = append(history, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order statuses: %w", err)
	}

	return history, nil
}

// AppendStatus inserts a status record.
func (r *orderRepository) AppendStatus(ctx context.Context, s *model.OrderStatus) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO order_statuses (order_id, status, description, updated_at)
		VALUES ($1, $2, $3, COALESCE($4, NOW()))
		RETURNING order_status_id, updated_at`,
		s.OrderID, int(s.Status), s.Description, nullTime(s.UpdatedAt)).
		Scan(&s.OrderStatusID, &s.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrNotFound
		}
		r.logger.Error().Err(err).Int("order_id", s.OrderID).Msg("failed to append order status")
		return fmt.Errorf("failed to append order status: %w", err)
	}

	r.logger.Debug().
		Int("order_id", s.OrderID).
		Int("order_status_id", s.OrderStatusID).
		Msg("order status appended")

	return nil
}

// UpdateStatus changes an existing record's status and description.
func (r *orderRepository) UpdateStatus(ctx context.Context, s *model.OrderStatus) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE order_statuses SET status = $3, description = $4
		WHERE order_id = $1 AND order_status_id = $2
		RETURNING updated_at`,
		s.OrderID, s.OrderStatusID, int(s.Status), s.Description).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		r.logger.Error().Err(err).Int("order_status_id", s.OrderStatusID).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// DeleteStatus removes one status record.
func (r *orderRepository) DeleteStatus(ctx context.Context, orderID, statusID int) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM order_statuses WHERE order_id = $1 AND order_status_id = $2",
		orderID, statusID)
	if err != nil {
		r.logger.Error().Err(err).Int("order_status_id", statusID).Msg("failed to delete order status")
		return fmt.Errorf("failed to delete order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
