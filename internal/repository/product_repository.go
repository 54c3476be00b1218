package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop-admin/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productColumns = `
	p.product_id, p.product_name, p.brief_description, p.full_description,
	p.technical_specifications, p.price, p.image_url, p.category_id,
	COALESCE(c.category_name, '')`

var productSortColumns = map[string]string{
	"price":       "p.price",
	"name":        "p.product_name",
	"productname": "p.product_name",
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ProductID,
		&p.ProductName,
		&p.BriefDescription,
		&p.FullDescription,
		&p.TechnicalSpecifications,
		&p.Price,
		&p.ImageURL,
		&p.CategoryID,
		&p.CategoryName,
	)
}

// productFilter renders the WHERE clause for q.
func productFilter(q ProductQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if term := strings.TrimSpace(q.SearchTerm); term != "" {
		ph := arg("%" + term + "%")
		conds = append(conds, fmt.Sprintf("(p.product_name ILIKE %s OR p.brief_description ILIKE %s)", ph, ph))
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		ph := arg(category)
		conds = append(conds, fmt.Sprintf("(LOWER(c.category_name) = LOWER(%s) OR CAST(p.category_id AS TEXT) = %s)", ph, ph))
	}
	if !q.MinPrice.IsZero() {
		conds = append(conds, "p.price >= "+arg(q.MinPrice))
	}
	if !q.MaxPrice.IsZero() {
		conds = append(conds, "p.price <= "+arg(q.MaxPrice))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List retrieves one page of products matching q.
func (r *productRepository) List(ctx context.Context, q ProductQuery) ([]model.Product, int, error) {
	where, args := productFilter(q)
	from := " FROM products p LEFT JOIN categories c ON c.category_id = p.category_id" + where

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	column, ok := productSortColumns[strings.ToLower(q.SortBy)]
	if !ok {
		column = "p.product_id"
	}
	direction := "ASC"
	if q.SortOrder == model.SortDesc {
		direction = "DESC"
	}
	query := fmt.Sprintf("SELECT %s%s ORDER BY %s %s, p.product_id %s", productColumns, from, column, direction, direction)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", q.Limit).
			Int("offset", q.Offset).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int) (*model.Product, error) {
	query := "SELECT" + productColumns + `
		FROM products p LEFT JOIN categories c ON c.category_id = p.category_id
		WHERE p.product_id = $1`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// Create inserts a product. A non-zero ProductID is kept as given.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	args := []any{
		p.ProductName, p.BriefDescription, p.FullDescription,
		p.TechnicalSpecifications, p.Price, p.ImageURL, p.CategoryID,
	}
	query := `
		INSERT INTO products (product_name, brief_description, full_description,
			technical_specifications, price, image_url, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING product_id`
	if p.ProductID != 0 {
		args = append(args, p.ProductID)
		query = `
			INSERT INTO products (product_name, brief_description, full_description,
				technical_specifications, price, image_url, category_id, product_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING product_id`
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.ProductID); err != nil {
		r.logger.Error().Err(err).Str("product_name", p.ProductName).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}
	if len(args) == 8 {
		if err := syncSequence(ctx, r.pool, "products", "product_id"); err != nil {
			return err
		}
	}

	return r.reload(ctx, p)
}

// Update overwrites a product's editable fields.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET product_name = $2, brief_description = $3, full_description = $4,
			technical_specifications = $5, price = $6, image_url = $7, category_id = $8
		WHERE product_id = $1`

	tag, err := r.pool.Exec(ctx, query,
		p.ProductID, p.ProductName, p.BriefDescription, p.FullDescription,
		p.TechnicalSpecifications, p.Price, p.ImageURL, p.CategoryID,
	)
	if err != nil {
		r.logger.Error().Err(err).Int("product_id", p.ProductID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return r.reload(ctx, p)
}

// Delete removes a product.
func (r *productRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE product_id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Int("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// reload refreshes p so derived columns reflect the stored row.
func (r *productRepository) reload(ctx context.Context, p *model.Product) error {
	stored, err := r.GetByID(ctx, p.ProductID)
	if err != nil {
		return err
	}
	if stored == nil {
		return model.ErrNotFound
	}
	*p = *stored
	return nil
}
