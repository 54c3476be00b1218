package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers on the shop API.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents an instrument or accessory in the catalogue.
type Product struct {
	ProductID               int             `json:"productID"`
	ProductName             string          `json:"productName"`
	BriefDescription        string          `json:"briefDescription,omitempty"`
	FullDescription         string          `json:"fullDescription,omitempty"`
	TechnicalSpecifications string          `json:"technicalSpecifications,omitempty"`
	Price                   decimal.Decimal `json:"price"`
	ImageURL                string          `json:"imageURL,omitempty"`
	CategoryID              *int            `json:"categoryID,omitempty"`
	CategoryName            string          `json:"categoryName,omitempty"`
}

// ProductRequest is the create/update payload for a product.
type ProductRequest struct {
	ProductName             string          `json:"productName"`
	BriefDescription        string          `json:"briefDescription,omitempty"`
	FullDescription         string          `json:"fullDescription,omitempty"`
	TechnicalSpecifications string          `json:"technicalSpecifications,omitempty"`
	Price                   decimal.Decimal `json:"price"`
	ImageURL                string          `json:"imageURL,omitempty"`
	CategoryID              *int            `json:"categoryID,omitempty"`
}

// Validate checks the fields an operator must fill in before submitting.
func (r ProductRequest) Validate() error {
	if strings.TrimSpace(r.ProductName) == "" {
		return NewValidationError("productName", "product name is required")
	}
	if !r.Price.IsPositive() {
		return NewValidationError("price", "price must be greater than zero")
	}
	return nil
}

// ProductListResponse is the paginated envelope returned for product lists.
type ProductListResponse struct {
	Products   []Product `json:"products"`
	TotalCount int       `json:"totalCount"`
	PageNumber int       `json:"pageNumber"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
}
