package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop-admin/internal/model"
	"shop-admin/internal/repository"

	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	logger       zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger.With().Str("service", "catalog").Logger(),
	}
}

// ListProducts retrieves one page of products matching params.
func (s *catalogService) ListProducts(ctx context.Context, params ProductListParams) (*model.ProductListResponse, error) {
	if params.MinPrice.IsNegative() || params.MaxPrice.IsNegative() {
		return nil, model.NewValidationError("minPrice", "price bounds must not be negative")
	}
	if !params.MaxPrice.IsZero() && params.MinPrice.GreaterThan(params.MaxPrice) {
		return nil, model.NewValidationError("minPrice", "minimum price must not exceed maximum price")
	}

	page := params.Page.normalize()
	products, total, err := s.productRepo.List(ctx, repository.ProductQuery{
		SearchTerm: params.SearchTerm,
		Category:   params.Category,
		MinPrice:   params.MinPrice,
		MaxPrice:   params.MaxPrice,
		SortBy:     params.SortBy,
		SortOrder:  params.SortOrder,
		Limit:      page.Size,
		Offset:     page.offset(),
	})
	if err != nil {
		s.logger.Error().Err(err).
			Int("page_number", page.Number).
			Int("page_size", page.Size).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Int("page_number", page.Number).
		Msg("retrieved products")

	return &model.ProductListResponse{
		Products:   products,
		TotalCount: total,
		PageNumber: page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages(total, page.Size),
	}, nil
}

// GetProduct retrieves a single product by ID.
func (s *catalogService) GetProduct(ctx context.Context, id int) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Int("product_id", id).Msg("product not found")
		return nil, model.ErrNotFound
	}
	return product, nil
}

// CreateProduct validates and stores a new product.
func (s *catalogService) CreateProduct(ctx context.Context, req model.ProductRequest) (*model.Product, error) {
	if err := s.validateProduct(ctx, req); err != nil {
		return nil, err
	}

	product := productFromRequest(0, req)
	if err := s.productRepo.Create(ctx, &product); err != nil {
		s.logger.Error().Err(err).Str("product_name", product.ProductName).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Int("product_id", product.ProductID).Msg("product created")
	return &product, nil
}

// UpdateProduct replaces the editable fields of a product.
func (s *catalogService) UpdateProduct(ctx context.Context, id int, req model.ProductRequest) (*model.Product, error) {
	if err := s.validateProduct(ctx, req); err != nil {
		return nil, err
	}

	product := productFromRequest(id, req)
	if err := s.productRepo.Update(ctx, &product); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info().Int("product_id", id).Msg("product updated")
	return &product, nil
}

// DeleteProduct removes a product.
func (s *catalogService) DeleteProduct(ctx context.Context, id int) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.logger.Info().Int("product_id", id).Msg("product deleted")
	return nil
}

// ListCategories returns every category with its product count.
func (s *catalogService) ListCategories(ctx context.Context) (*model.CategoryListResponse, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return &model.CategoryListResponse{Categories: categories, TotalCount: len(categories)}, nil
}

// GetCategory returns a category with its products.
func (s *catalogService) GetCategory(ctx context.Context, id int) (*model.CategoryDetail, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int("category_id", id).Msg("failed to get category")
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, model.ErrNotFound
	}

	products, err := s.categoryRepo.Products(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int("category_id", id).Msg("failed to get category products")
		return nil, fmt.Errorf("failed to get category products: %w", err)
	}

	return &model.CategoryDetail{Category: *category, Products: products}, nil
}

// CreateCategory stores a new, empty category.
func (s *catalogService) CreateCategory(ctx context.Context, req model.CategoryRequest) (*model.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	category := model.Category{CategoryName: strings.TrimSpace(req.CategoryName)}
	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		s.logger.Error().Err(err).Str("category_name", category.CategoryName).Msg("failed to create category")
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info().Int("category_id", category.CategoryID).Msg("category created")
	return &category, nil
}

// UpdateCategory renames a category.
func (s *catalogService) UpdateCategory(ctx context.Context, id int, req model.CategoryRequest) (*model.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	category := model.Category{CategoryID: id, CategoryName: strings.TrimSpace(req.CategoryName)}
	if err := s.categoryRepo.Update(ctx, &category); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int("category_id", id).Msg("failed to update category")
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &category, nil
}

// DeleteCategory removes a category that has no products.
func (s *catalogService) DeleteCategory(ctx context.Context, id int) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrCategoryNotEmpty) {
			s.logger.Warn().Err(err).Int("category_id", id).Msg("category not deleted")
			return err
		}
		s.logger.Error().Err(err).Int("category_id", id).Msg("failed to delete category")
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.logger.Info().Int("category_id", id).Msg("category deleted")
	return nil
}

func (s *catalogService) validateProduct(ctx context.Context, req model.ProductRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.CategoryID == nil {
		return nil
	}

	category, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if category == nil {
		return model.NewValidationError("categoryID", fmt.Sprintf("category %d does not exist", *req.CategoryID))
	}
	return nil
}

func productFromRequest(id int, req model.ProductRequest) model.Product {
	return model.Product{
		ProductID:               id,
		ProductName:             strings.TrimSpace(req.ProductName),
		BriefDescription:        req.BriefDescription,
		FullDescription:         req.FullDescription,
		TechnicalSpecifications: req.TechnicalSpecifications,
		Price:                   req.Price,
		ImageURL:                req.ImageURL,
		CategoryID:              req.CategoryID,
	}
}
