// Package seed loads the demo catalogue the mock shop API starts with.
package seed

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"shop-admin/internal/app"
	"shop-admin/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Catalog is a complete data set. Statuses reference orders by OrderID.
type Catalog struct {
	Categories []model.Category      `json:"categories"`
	Products   []model.Product       `json:"products"`
	Locations  []model.StoreLocation `json:"locations"`
	Orders     []model.Order         `json:"orders"`
	Statuses   []model.OrderStatus   `json:"statuses"`
}

// Validate checks identities and references inside the catalogue.
func (c *Catalog) Validate() error {
	categories := map[int]bool{}
	for _, cat := range c.Categories {
		if cat.CategoryID <= 0 || categories[cat.CategoryID] {
			return fmt.Errorf("category %q: missing or duplicate id %d", cat.CategoryName, cat.CategoryID)
		}
		categories[cat.CategoryID] = true
	}

	products := map[int]bool{}
	for _, p := range c.Products {
		if p.ProductID <= 0 || products[p.ProductID] {
			return fmt.Errorf("product %q: missing or duplicate id %d", p.ProductName, p.ProductID)
		}
		if p.CategoryID != nil && !categories[*p.CategoryID] {
			return fmt.Errorf("product %d: unknown category %d", p.ProductID, *p.CategoryID)
		}
		if !p.Price.IsPositive() {
			return fmt.Errorf("product %d: price must be positive", p.ProductID)
		}
		products[p.ProductID] = true
	}

	orders := map[int]bool{}
	for _, o := range c.Orders {
		if o.OrderID <= 0 || orders[o.OrderID] {
			return fmt.Errorf("order: missing or duplicate id %d", o.OrderID)
		}
		for _, d := range o.OrderDetails {
			if !products[d.ProductID] {
				return fmt.Errorf("order %d: unknown product %d", o.OrderID, d.ProductID)
			}
			if d.Quantity < 1 {
				return fmt.Errorf("order %d: %w", o.OrderID, model.ErrInvalidQuantity)
			}
		}
		orders[o.OrderID] = true
	}

	for _, s := range c.Statuses {
		if !orders[s.OrderID] {
			return fmt.Errorf("status %q: unknown order %d", s.Description, s.OrderID)
		}
		if !s.Status.Valid() {
			return fmt.Errorf("order %d: %w", s.OrderID, model.ErrInvalidStatus)
		}
	}
	return nil
}

// Apply writes the catalogue through repos, keeping every explicit ID.
func Apply(ctx context.Context, c *Catalog, repos app.Repositories, logger zerolog.Logger) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid seed catalog: %w", err)
	}

	for _, cat := range c.Categories {
		if err := repos.Categories.Create(ctx, &cat); err != nil {
			return fmt.Errorf("failed to seed category %d: %w", cat.CategoryID, err)
		}
	}
	for _, p := range c.Products {
		if err := repos.Products.Create(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed product %d: %w", p.ProductID, err)
		}
	}
	for _, l := range c.Locations {
		if err := repos.Locations.Create(ctx, &l); err != nil {
			return fmt.Errorf("failed to seed store location %d: %w", l.LocationID, err)
		}
	}
	for _, o := range c.Orders {
		if o.TotalAmount.IsZero() {
			for _, d := range o.OrderDetails {
				o.TotalAmount = o.TotalAmount.Add(d.LineTotal())
			}
		}
		if err := repos.Orders.Create(ctx, &o); err != nil {
			return fmt.Errorf("failed to seed order %d: %w", o.OrderID, err)
		}
	}
	for _, s := range c.Statuses {
		s.OrderStatusID = 0
		if err := repos.Orders.AppendStatus(ctx, &s); err != nil {
			return fmt.Errorf("failed to seed status for order %d: %w", s.OrderID, err)
		}
	}

	logger.Info().
		Int("categories", len(c.Categories)).
		Int("products", len(c.Products)).
		Int("locations", len(c.Locations)).
		Int("orders", len(c.Orders)).
		Int("statuses", len(c.Statuses)).
		Msg("seed catalog applied")
	return nil
}

// Decode reads a gzip-compressed JSON catalogue.
func Decode(r io.Reader) (*Catalog, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	var c Catalog
	if err := json.NewDecoder(gzipReader).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode seed catalog: %w", err)
	}
	return &c, nil
}

// Encode writes c as gzip-compressed JSON.
func Encode(w io.Writer, c *Catalog) error {
	gzipWriter := gzip.NewWriter(w)
	enc := json.NewEncoder(gzipWriter)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		gzipWriter.Close()
		return fmt.Errorf("failed to encode seed catalog: %w", err)
	}
	return gzipWriter.Close()
}

func intPtr(v int) *int { return &v }

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the built-in demo catalogue. Prices are in VND.
func Default() *Catalog {
	vnd := decimal.NewFromInt
	return &Catalog{
		Categories: []model.Category{
			{CategoryID: 1, CategoryName: "Guitar"},
			{CategoryID: 2, CategoryName: "Piano"},
			{CategoryID: 3, CategoryName: "Drums"},
			{CategoryID: 4, CategoryName: "Violin"},
			{CategoryID: 5, CategoryName: "Accessories"},
		},
		Products: []model.Product{
			{
				ProductID:               1,
				ProductName:             "Guitar Acoustic Yamaha",
				BriefDescription:        "Solid spruce top dreadnought",
				FullDescription:         "Dreadnought acoustic guitar with a solid spruce top and rosewood fingerboard.",
				TechnicalSpecifications: "Top: solid spruce; Back/sides: nato; Scale: 650mm",
				Price:                   vnd(2500000),
				ImageURL:                "/images/products/guitar-acoustic-yamaha.jpg",
				CategoryID:              intPtr(1),
			},
			{
				ProductID:               2,
				ProductName:             "Piano Điện Casio",
				BriefDescription:        "88 weighted keys",
				FullDescription:         "Digital piano with 88 scaled hammer-action keys and built-in speakers.",
				TechnicalSpecifications: "Keys: 88; Polyphony: 192; Speakers: 2 x 8W",
				Price:                   vnd(8900000),
				ImageURL:                "/images/products/piano-casio.jpg",
				CategoryID:              intPtr(2),
			},
			{
				ProductID:        3,
				ProductName:      "Trống Jazz Pearl",
				BriefDescription: "5-piece drum kit with cymbals",
				Price:            vnd(12500000),
				ImageURL:         "/images/products/drums-pearl.jpg",
				CategoryID:       intPtr(3),
			},
			{
				ProductID:        4,
				ProductName:      "Dây đàn guitar",
				BriefDescription: "Phosphor bronze acoustic strings, 12-53",
				Price:            vnd(350000),
				CategoryID:       intPtr(5),
			},
			{
				ProductID:        5,
				ProductName:      "Violin 4/4",
				BriefDescription: "Full size student violin with case and bow",
				Price:            vnd(1800000),
				ImageURL:         "/images/products/violin-44.jpg",
				CategoryID:       intPtr(4),
			},
			{
				ProductID:        6,
				ProductName:      "Guitar Điện Fender Stratocaster",
				BriefDescription: "Alder body, three single-coil pickups",
				Price:            vnd(18900000),
				ImageURL:         "/images/products/guitar-fender-strat.jpg",
				CategoryID:       intPtr(1),
			},
		},
		Locations: []model.StoreLocation{
			{LocationID: 1, Latitude: 21.0285, Longitude: 105.8542, Address: "36 Hàng Bài, Hoàn Kiếm, Hà Nội"},
			{LocationID: 2, Latitude: 10.7769, Longitude: 106.7009, Address: "120 Nguyễn Huệ, Quận 1, TP. Hồ Chí Minh"},
		},
		Orders: []model.Order{
			{
				OrderID:        12345,
				UserID:         1,
				CustomerName:   "Nguyễn Văn A",
				BillingAddress: "12 Lý Thường Kiệt, Hà Nội",
				PaymentMethod:  "COD",
				OrderDate:      day("2024-01-15"),
				OrderDetails: []model.OrderDetail{
					{ProductID: 1, ProductName: "Guitar Acoustic Yamaha", Quantity: 1, UnitPrice: vnd(2500000)},
					{ProductID: 4, ProductName: "Dây đàn guitar", Quantity: 2, UnitPrice: vnd(350000)},
				},
			},
			{
				OrderID:        12346,
				UserID:         2,
				CustomerName:   "Trần Thị B",
				BillingAddress: "45 Lê Lợi, Đà Nẵng",
				PaymentMethod:  "Bank transfer",
				OrderDate:      day("2024-01-14"),
				OrderDetails: []model.OrderDetail{
					{ProductID: 2, ProductName: "Piano Điện Casio", Quantity: 1, UnitPrice: vnd(8900000)},
				},
			},
			{
				OrderID:        12347,
				UserID:         3,
				CustomerName:   "Lê Văn C",
				BillingAddress: "7 Pasteur, Quận 3, TP. Hồ Chí Minh",
				PaymentMethod:  "Card",
				OrderDate:      day("2024-01-13"),
				OrderDetails: []model.OrderDetail{
					{ProductID: 5, ProductName: "Violin 4/4", Quantity: 1, UnitPrice: vnd(1800000)},
				},
			},
		},
		Statuses: []model.OrderStatus{
			{OrderID: 12345, Status: model.StatusPending, Description: "Order placed", UpdatedAt: day("2024-01-15")},
			{OrderID: 12346, Status: model.StatusPending, Description: "Order placed", UpdatedAt: day("2024-01-14")},
			{OrderID: 12346, Status: model.StatusConfirmed, Description: "Payment received", UpdatedAt: day("2024-01-14").Add(3 * time.Hour)},
			{OrderID: 12347, Status: model.StatusPending, Description: "Order placed", UpdatedAt: day("2024-01-13")},
			{OrderID: 12347, Status: model.StatusConfirmed, Description: "Payment received", UpdatedAt: day("2024-01-13").Add(2 * time.Hour)},
			{OrderID: 12347, Status: model.StatusDelivering, Description: "Handed to courier", UpdatedAt: day("2024-01-14").Add(9 * time.Hour)},
		},
	}
}
