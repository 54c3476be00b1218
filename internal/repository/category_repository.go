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

type categoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) CategoryRepository {
	return &categoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "category").Logger(),
	}
}

const categorySelect = `
	SELECT c.category_id, c.category_name,
		(SELECT COUNT(*) FROM products p WHERE p.category_id = c.category_id)
	FROM categories c`

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, categorySelect+" ORDER BY c.category_id")
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.CategoryID, &c.CategoryName, &c.ProductCount); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan category row")
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id int) (*model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx, categorySelect+" WHERE c.category_id = $1", id).
		Scan(&c.CategoryID, &c.CategoryName, &c.ProductCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int("category_id", id).Msg("category not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int("category_id", id).Msg("failed to query category")
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &c, nil
}

func (r *categoryRepository) Products(ctx context.Context, categoryID int) ([]model.CategoryProduct, error) {
	query := `
		SELECT product_id, product_name, brief_description, price, image_url
		FROM products
		WHERE category_id = $1
		ORDER BY product_id`

	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		r.logger.Error().Err(err).Int("category_id", categoryID).Msg("failed to query category products")
		return nil, fmt.Errorf("failed to query category products: %w", err)
	}
	defer rows.Close()

	products := []model.CategoryProduct{}
	for rows.Next() {
		var p model.CategoryProduct
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.BriefDescription, &p.Price, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan category product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category products: %w", err)
	}

	return products, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	var err error
	if c.CategoryID != 0 {
		_, err = r.pool.Exec(ctx,
			"INSERT INTO categories (category_id, category_name) VALUES ($1, $2)",
			c.CategoryID, c.CategoryName)
		if err == nil {
			err = syncSequence(ctx, r.pool, "categories", "category_id")
		}
	} else {
		err = r.pool.QueryRow(ctx,
			"INSERT INTO categories (category_name) VALUES ($1) RETURNING category_id",
			c.CategoryName).Scan(&c.CategoryID)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("category_name", c.CategoryName).Msg("failed to create category")
		return fmt.Errorf("failed to create category: %w", err)
	}
	c.ProductCount = 0
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, c *model.Category) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE categories SET category_name = $2 WHERE category_id = $1
		RETURNING (SELECT COUNT(*) FROM products p WHERE p.category_id = $1)`,
		c.CategoryID, c.CategoryName).Scan(&c.ProductCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		r.logger.Error().Err(err).Int("category_id", c.CategoryID).Msg("failed to update category")
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM categories WHERE category_id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrCategoryNotEmpty
		}
		r.logger.Error().Err(err).Int("category_id", id).Msg("failed to delete category")
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
