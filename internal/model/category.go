package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category groups products. ProductCount is derived by the server and is
// never part of a write payload.
type Category struct {
	CategoryID   int    `json:"categoryID"`
	CategoryName string `json:"categoryName"`
	ProductCount int    `json:"productCount"`
}

// CategoryDetail is a category together with its products.
type CategoryDetail struct {
	Category
	Products []CategoryProduct `json:"products"`
}

// CategoryProduct is the condensed product view nested in a category.
type CategoryProduct struct {
	ProductID        int             `json:"productID"`
	ProductName      string          `json:"productName"`
	BriefDescription string          `json:"briefDescription,omitempty"`
	Price            decimal.Decimal `json:"price"`
	ImageURL         string          `json:"imageURL,omitempty"`
}

// CategoryRequest is the create/update payload for a category.
type CategoryRequest struct {
	CategoryName string `json:"categoryName"`
}

// Validate checks the category name.
func (r CategoryRequest) Validate() error {
	name := strings.TrimSpace(r.CategoryName)
	if name == "" {
		return NewValidationError("categoryName", "category name is required")
	}
	if len([]rune(name)) > 100 {
		return NewValidationError("categoryName", "category name must not exceed 100 characters")
	}
	return nil
}

// CategoryListResponse is the envelope returned for the category list.
type CategoryListResponse struct {
	Categories []Category `json:"categories"`
	TotalCount int        `json:"totalCount"`
}
