package model

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// SortOrder is the direction of a sorted list.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Filter declares the search, sort and pagination criteria of a list fetch.
// Zero values mean "not set" and are never sent.
type Filter struct {
	SortBy     string
	SortOrder  SortOrder
	Category   string
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	SearchTerm string
	Status     OrderStatusCode
	PageNumber int
	PageSize   int
}

// FilterPatch is a partial filter; nil fields are left unchanged.
type FilterPatch struct {
	SortBy     *string
	SortOrder  *SortOrder
	Category   *string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SearchTerm *string
	Status     *OrderStatusCode
	PageNumber *int
	PageSize   *int
}

// Apply returns f with every non-nil field of p copied over.
func (f Filter) Apply(p FilterPatch) Filter {
	if p.SortBy != nil {
		f.SortBy = *p.SortBy
	}
	if p.SortOrder != nil {
		f.SortOrder = *p.SortOrder
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.MinPrice != nil {
		f.MinPrice = *p.MinPrice
	}
	if p.MaxPrice != nil {
		f.MaxPrice = *p.MaxPrice
	}
	if p.SearchTerm != nil {
		f.SearchTerm = *p.SearchTerm
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.PageNumber != nil {
		f.PageNumber = *p.PageNumber
	}
	if p.PageSize != nil {
		f.PageSize = *p.PageSize
	}
	return f
}

// SameCriteria reports whether f and o are equal in every field except
// PageNumber.
func (f Filter) SameCriteria(o Filter) bool {
	return f.SortBy == o.SortBy &&
		f.SortOrder == o.SortOrder &&
		f.Category == o.Category &&
		f.MinPrice.Equal(o.MinPrice) &&
		f.MaxPrice.Equal(o.MaxPrice) &&
		f.SearchTerm == o.SearchTerm &&
		f.Status == o.Status &&
		f.PageSize == o.PageSize
}

// Validate rejects filters that can never match.
func (f Filter) Validate() error {
	if f.SortOrder != "" && f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		return NewValidationError("sortOrder", "sort order must be asc or desc")
	}
	if f.MinPrice.IsNegative() {
		return NewValidationError("minPrice", "minimum price must not be negative")
	}
	if !f.MinPrice.IsZero() && !f.MaxPrice.IsZero() && f.MinPrice.GreaterThan(f.MaxPrice) {
		return NewValidationError("maxPrice", "maximum price must not be below minimum price")
	}
	if f.Status != 0 && !f.Status.Valid() {
		return NewValidationError("status", "status must be one of 1, 2, 3 or 4")
	}
	if f.PageNumber < 0 || f.PageSize < 0 {
		return NewValidationError("pageNumber", "pagination values must not be negative")
	}
	return nil
}

// ProductQuery encodes the whitelisted product list parameters.
func (f Filter) ProductQuery() url.Values {
	q := url.Values{}
	setString(q, "searchTerm", f.SearchTerm)
	setString(q, "category", f.Category)
	setDecimal(q, "minPrice", f.MinPrice)
	setDecimal(q, "maxPrice", f.MaxPrice)
	setString(q, "sort", f.SortBy)
	setString(q, "sortOrder", string(f.SortOrder))
	setInt(q, "pageNumber", f.PageNumber)
	setInt(q, "pageSize", f.PageSize)
	return q
}

// OrderQuery encodes the whitelisted order list parameters.
func (f Filter) OrderQuery() url.Values {
	q := url.Values{}
	setInt(q, "pageNumber", f.PageNumber)
	setInt(q, "pageSize", f.PageSize)
	setInt(q, "status", int(f.Status))
	return q
}

func setString(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setInt(q url.Values, key string, value int) {
	if value > 0 {
		q.Set(key, strconv.Itoa(value))
	}
}

func setDecimal(q url.Values, key string, value decimal.Decimal) {
	if !value.IsZero() {
		q.Set(key, value.String())
	}
}
