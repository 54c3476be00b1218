package repository

import (
	"context"
	"testing"
	"time"

	"shop-admin/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repoSet bundles one implementation of every repository.
type repoSet struct {
	products   ProductRepository
	categories CategoryRepository
	locations  LocationRepository
	orders     OrderRepository
}

func intPtr(v int) *int { return &v }

// runContract exercises behaviour every implementation must share.
func runContract(t *testing.T, newSet func(t *testing.T) repoSet) {
	t.Run("Categories derive product count", func(t *testing.T) {
		repos := newSet(t)
		ctx := context.Background()

		guitars := &model.Category{CategoryName: "Guitars"}
		pianos := &model.Category{CategoryName: "Pianos"}
		require.NoError(t, repos.categories.Create(ctx, guitars))
		require.NoError(t, repos.categories.Create(ctx, pianos))
		assert.NotZero(t, guitars.CategoryID)
		assert.NotEqual(t, guitars.CategoryID, pianos.CategoryID)

		require.NoError(t, repos.products.Create(ctx, &model.Product{
			ProductName: "Stratocaster",
			Price:       decimal.RequireFromString("1299.99"),
			CategoryID:  intPtr(guitars.CategoryID),
		}))

		list, err := repos.categories.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 1, list[0].ProductCount)
		assert.Equal(t, 0, list[1].ProductCount)

		got, err := repos.categories.GetByID(ctx, guitars.CategoryID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 1, got.ProductCount)

		nested, err := repos.categories.Products(ctx, guitars.CategoryID)
		require.NoError(t, err)
		require.Len(t, nested, 1)
		assert.Equal(t, "Stratocaster", nested[0].ProductName)

		assert.ErrorIs(t, repos.categories.Delete(ctx, guitars.CategoryID), model.ErrCategoryNotEmpty)
		assert.NoError(t, repos.categories.Delete(ctx, pianos.CategoryID))
		assert.ErrorIs(t, repos.categories.Delete(ctx, pianos.CategoryID), model.ErrNotFound)

		missing, err := repos.categories.GetByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, missing)

		renamed := &model.Category{CategoryID: guitars.CategoryID, CategoryName: "Electric Guitars"}
		require.NoError(t, repos.categories.Update(ctx, renamed))
		assert.Equal(t, 1, renamed.ProductCount)
		assert.ErrorIs(t, repos.categories.Update(ctx, &model.Category{CategoryID: 9999, CategoryName: "x"}), model.ErrNotFound)
	})

	t.Run("Products filter sort and paginate", func(t *testing.T) {
		repos := newSet(t)
		ctx := context.Background()

		guitars := &model.Category{CategoryName: "Guitars"}
		drums := &model.Category{CategoryName: "Drums"}
		require.NoError(t, repos.categories.Create(ctx, guitars))
		require.NoError(t, repos.categories.Create(ctx, drums))

		seed := []model.Product{
			{ProductName: "Les Paul", Price: decimal.NewFromInt(2499), CategoryID: intPtr(guitars.CategoryID)},
			{ProductName: "Telecaster", Price: decimal.NewFromInt(999), CategoryID: intPtr(guitars.CategoryID)},
			{ProductName: "Snare Drum", Price: decimal.NewFromInt(299), CategoryID: intPtr(drums.CategoryID), BriefDescription: "14 inch"},
			{ProductName: "Guitar Strings", Price: decimal.NewFromInt(12)},
		}
		for i := range seed {
			require.NoError(t, repos.products.Create(ctx, &seed[i]))
		}
		assert.Equal(t, "Guitars", seed[0].CategoryName)

		tests := []struct {
			name          string
			query         ProductQuery
			expectedNames []string
			expectedTotal int
		}{
			{
				name:          "All products by id",
				query:         ProductQuery{},
				expectedNames: []string{"Les Paul", "Telecaster", "Snare Drum", "Guitar Strings"},
				expectedTotal: 4,
			},
			{
				name:          "Search term is case-insensitive",
				query:         ProductQuery{SearchTerm: "GUITAR"},
				expectedNames: []string{"Guitar Strings"},
				expectedTotal: 1,
			},
			{
				name:          "Search matches brief description",
				query:         ProductQuery{SearchTerm: "14 inch"},
				expectedNames: []string{"Snare Drum"},
				expectedTotal: 1,
			},
			{
				name:          "Category by name",
				query:         ProductQuery{Category: "guitars", SortBy: "price", SortOrder: model.SortAsc},
				expectedNames: []string{"Telecaster", "Les Paul"},
				expectedTotal: 2,
			},
			{
				name:          "Price range",
				query:         ProductQuery{MinPrice: decimal.NewFromInt(100), MaxPrice: decimal.NewFromInt(1000)},
				expectedNames: []string{"Telecaster", "Snare Drum"},
				expectedTotal: 2,
			},
			{
				name:          "Sorted by price descending, second page",
				query:         ProductQuery{SortBy: "price", SortOrder: model.SortDesc, Limit: 2, Offset: 2},
				expectedNames: []string{"Snare Drum", "Guitar Strings"},
				expectedTotal: 4,
			},
			{
				name:          "Offset past the end",
				query:         ProductQuery{Limit: 2, Offset: 10},
				expectedNames: []string{},
				expectedTotal: 4,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				products, total, err := repos.products.List(ctx, tt.query)
				require.NoError(t, err)
				names := make([]string, 0, len(products))
				for _, p := range products {
					names = append(names, p.ProductName)
				}
				assert.Equal(t, tt.expectedNames, names)
				assert.Equal(t, tt.expectedTotal, total)
			})
		}

		updated := seed[1]
		updated.Price = decimal.NewFromInt(899)
		updated.CategoryID = nil
		require.NoError(t, repos.products.Update(ctx, &updated))
		assert.Empty(t, updated.CategoryName)
		got, err := repos.products.GetByID(ctx, updated.ProductID)
		require.NoError(t, err)
		assert.True(t, got.Price.Equal(decimal.NewFromInt(899)))

		assert.ErrorIs(t, repos.products.Update(ctx, &model.Product{ProductID: 9999, ProductName: "x", Price: decimal.NewFromInt(1)}), model.ErrNotFound)
		require.NoError(t, repos.products.Delete(ctx, updated.ProductID))
		assert.ErrorIs(t, repos.products.Delete(ctx, updated.ProductID), model.ErrNotFound)
		missing, err := repos.products.GetByID(ctx, updated.ProductID)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Explicit ids are kept and later ids follow them", func(t *testing.T) {
		repos := newSet(t)
		ctx := context.Background()

		first := &model.Category{CategoryID: 40, CategoryName: "Violins"}
		require.NoError(t, repos.categories.Create(ctx, first))
		next := &model.Category{CategoryName: "Cellos"}
		require.NoError(t, repos.categories.Create(ctx, next))

		assert.Equal(t, 40, first.CategoryID)
		assert.Greater(t, next.CategoryID, 40)
	})

	t.Run("Store locations", func(t *testing.T) {
		repos := newSet(t)
		ctx := context.Background()

		loc := &model.StoreLocation{Latitude: 10.762622, Longitude: 106.660172, Address: "1 Music Street"}
		require.NoError(t, repos.locations.Create(ctx, loc))

		list, err := repos.locations.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, *loc, list[0])

		loc.Address = "2 Music Street"
		require.NoError(t, repos.locations.Update(ctx, loc))
		got, err := repos.locations.GetByID(ctx, loc.LocationID)
		require.NoError(t, err)
		assert.Equal(t, "2 Music Street", got.Address)

		require.NoError(t, repos.locations.Delete(ctx, loc.LocationID))
		assert.ErrorIs(t, repos.locations.Delete(ctx, loc.LocationID), model.ErrNotFound)
		assert.ErrorIs(t, repos.locations.Update(ctx, loc), model.ErrNotFound)
	})

	t.Run("Orders derive current status from latest record", func(t *testing.T) {
		repos := newSet(t)
		ctx := context.Background()
		base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

		order := &model.Order{
			UserID:         7,
			CustomerName:   "Ana",
			BillingAddress: "12 Harbour Rd",
			PaymentMethod:  "card",
			OrderDate:      base,
			TotalAmount:    decimal.NewFromInt(300),
			OrderDetails: []model.OrderDetail{
				{ProductID: 1, ProductName: "Snare Drum", Quantity: 1, UnitPrice: decimal.NewFromInt(299)},
				{ProductID: 2, ProductName: "Sticks", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
			},
		}
		require.NoError(t, repos.orders.Create(ctx, order))
		require.NotZero(t, order.OrderID)
		require.Len(t, order.OrderDetails, 2)
		assert.NotZero(t, order.OrderDetails[0].OrderDetailID)
		assert.Equal(t, order.OrderID, order.OrderDetails[1].OrderID)

		other := &model.Order{BillingAddress: "3 Quay St", OrderDate: base.Add(time.Hour), TotalAmount: decimal.NewFromInt(5)}
		require.NoError(t, repos.orders.Create(ctx, other))

		pending := &model.OrderStatus{OrderID: order.OrderID, Status: model.StatusPending, Description: "Order placed", UpdatedAt: base}
		confirmed := &model.OrderStatus{OrderID: order.OrderID, Status: model.StatusConfirmed, Description: "Payment received", UpdatedAt: base.Add(time.Minute)}
		require.NoError(t, repos.orders.AppendStatus(ctx, confirmed))
		require.NoError(t, repos.orders.AppendStatus(ctx, pending))
		require.NoError(t, repos.orders.AppendStatus(ctx, &model.OrderStatus{OrderID: other.OrderID, Status: model.StatusPending, Description: "Order placed", UpdatedAt: base}))

		got, err := repos.orders.GetByID(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got.CurrentStatus)
		assert.Equal(t, "Payment received", got.CurrentStatusDescription)
		assert.Len(t, got.OrderDetails, 2)

		history, err := repos.orders.ListStatuses(ctx, order.OrderID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "Order placed", history[0].Description)
		assert.Equal(t, "Payment received", history[1].Description)

		orders, total, err := repos.orders.List(ctx, OrderQuery{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, orders, 2)
		assert.Equal(t, other.OrderID, orders[0].OrderID, "newest first")

		orders, total, err = repos.orders.List(ctx, OrderQuery{Status: model.StatusConfirmed})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, orders, 1)
		assert.Equal(t, order.OrderID, orders[0].OrderID)

		confirmed.Status = model.StatusDelivering
		confirmed.Description = "Handed to courier"
		require.NoError(t, repos.orders.UpdateStatus(ctx, confirmed))
		assert.True(t, confirmed.UpdatedAt.Equal(base.Add(time.Minute)))
		got, err = repos.orders.GetByID(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusDelivering, got.CurrentStatus)

		require.NoError(t, repos.orders.DeleteStatus(ctx, order.OrderID, confirmed.OrderStatusID))
		got, err = repos.orders.GetByID(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, got.CurrentStatus)

		assert.ErrorIs(t, repos.orders.DeleteStatus(ctx, order.OrderID, confirmed.OrderStatusID), model.ErrNotFound)
		assert.ErrorIs(t, repos.orders.UpdateStatus(ctx, &model.OrderStatus{OrderID: order.OrderID, OrderStatusID: 9999, Status: 1, Description: "x"}), model.ErrNotFound)
		assert.ErrorIs(t, repos.orders.AppendStatus(ctx, &model.OrderStatus{OrderID: 9999, Status: 1, Description: "x"}), model.ErrNotFound)
		_, err = repos.orders.ListStatuses(ctx, 9999)
		assert.ErrorIs(t, err, model.ErrNotFound)

		require.NoError(t, repos.orders.Update(ctx, order.OrderID, model.OrderUpdateRequest{BillingAddress: "New Rd", PaymentMethod: "cash"}))
		got, err = repos.orders.GetByID(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, "New Rd", got.BillingAddress)

		require.NoError(t, repos.orders.Delete(ctx, order.OrderID))
		got, err = repos.orders.GetByID(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, repos.orders.Delete(ctx, order.OrderID), model.ErrNotFound)
	})

	t.Run("Order without history has no current status", func(t *testing.T) {
		repos := newSet(t)
		ctx := context.Background()

		order := &model.Order{BillingAddress: "1 Road", TotalAmount: decimal.NewFromInt(1)}
		require.NoError(t, repos.orders.Create(ctx, order))
		assert.False(t, order.OrderDate.IsZero())

		history, err := repos.orders.ListStatuses(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Empty(t, history)
		assert.NotNil(t, history)

		got, err := repos.orders.GetByID(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCode(0), got.CurrentStatus)
		assert.NotNil(t, got.OrderDetails)
	})
}
