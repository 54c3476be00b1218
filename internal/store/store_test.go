package store

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/apiclient/apiclienttest"
	"shop-admin/internal/model"
)

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		field         string
		expectErr     bool
		expectedShape ListShape
		expectedLen   int
		expectedTotal int
		expectedPages int
	}{
		{name: "Bare array", body: `[{"locationID":1},{"locationID":2}]`, expectedShape: ShapeArray, expectedLen: 2, expectedTotal: 2},
		{name: "Envelope with metadata", body: `{"products":[{"productID":1}],"totalCount":12,"pageNumber":1,"pageSize":1,"totalPages":12}`, field: "products", expectedShape: ShapeEnvelope, expectedLen: 1, expectedTotal: 12, expectedPages: 12},
		{name: "Envelope without total", body: `{"categories":[{"categoryID":1},{"categoryID":2}]}`, field: "categories", expectedShape: ShapeEnvelope, expectedLen: 2, expectedTotal: 2},
		{name: "Envelope with null items", body: `{"items":null,"totalCount":0}`, field: "items", expectedShape: ShapeEnvelope},
		{name: "Envelope missing field", body: `{"orders":[]}`, field: "items", expectErr: true},
		{name: "Object when only arrays accepted", body: `{"items":[]}`, expectErr: true},
		{name: "Scalar", body: `42`, field: "items", expectErr: true},
		{name: "Empty", body: ``, field: "items", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := DecodeList[map[string]any]([]byte(tt.body), tt.field)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedShape, page.Shape)
			assert.Len(t, page.Items, tt.expectedLen)
			assert.NotNil(t, page.Items)
			assert.Equal(t, tt.expectedTotal, page.TotalCount)
			assert.Equal(t, tt.expectedPages, page.TotalPages)
		})
	}
}

func TestDecodeEntity(t *testing.T) {
	bare, err := DecodeEntity[model.Category]([]byte(`{"categoryID":3,"categoryName":"Drums"}`), "category")
	require.NoError(t, err)
	assert.Equal(t, 3, bare.CategoryID)

	wrapped, err := DecodeEntity[model.Category]([]byte(`{"category":{"categoryID":4,"categoryName":"Keys"}}`), "category")
	require.NoError(t, err)
	assert.Equal(t, "Keys", wrapped.CategoryName)

	_, err = DecodeEntity[model.Category]([]byte(` `), "category")
	assert.Error(t, err)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 1, TotalPages(5, 0))
}

func TestStore_FetchEmptyBackend(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, ProductsPath)).
		Return(apiclienttest.Raw(`{"products":[],"totalCount":0}`), nil)

	s := NewProducts(api, zerolog.Nop())
	items, err := s.Fetch(context.Background(), model.Filter{PageNumber: 1, PageSize: 10})

	require.NoError(t, err)
	assert.Empty(t, items)
	st := s.Snapshot()
	assert.Equal(t, 0, st.TotalCount)
	assert.Equal(t, 1, st.TotalPages)
	assert.Equal(t, 10, st.PageSize)
	assert.False(t, st.Loading)
	api.AssertExpectations(t)
}

func TestStore_FetchReplacesItems(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, LocationsPath)).
		Return(apiclienttest.Raw(`[{"locationID":1,"address":"A"},{"locationID":2,"address":"B"}]`), nil).Once()
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, LocationsPath)).
		Return(apiclienttest.Raw(`[{"locationID":3,"address":"C"}]`), nil).Once()

	s := NewLocations(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	st := s.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, 3, st.Items[0].LocationID)
	assert.Equal(t, 1, st.TotalCount)
}

func TestStore_FetchDerivesTotalPages(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, mock.MatchedBy(func(r apiclient.Request) bool {
		return r.Path == OrdersPath && r.Query.Get("pageSize") == "10" && r.Query.Get("status") == "2"
	})).Return(apiclienttest.Raw(`{"items":[{"orderId":1}],"totalCount":25}`), nil)

	s := NewOrders(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{PageNumber: 1, PageSize: 10, Status: model.StatusConfirmed})
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Equal(t, 25, st.TotalCount)
	assert.Equal(t, 3, st.TotalPages)
	api.AssertExpectations(t)
}

func TestStore_FetchIsIdempotent(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, CategoriesPath)).
		Return(apiclienttest.Raw(`{"categories":[{"categoryID":2,"categoryName":"B"},{"categoryID":1,"categoryName":"A"}]}`), nil)

	s := NewCategories(api, zerolog.Nop())
	first, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)
	second, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, first[0].CategoryID, "server order is kept")
}

func TestStore_FetchFailureKeepsItems(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, LocationsPath)).
		Return(apiclienttest.Raw(`[{"locationID":1}]`), nil).Once()
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, LocationsPath)).
		Return(nil, &apiclient.HTTPError{Status: 500}).Once()

	s := NewLocations(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	_, err = s.Fetch(context.Background(), model.Filter{})
	require.Error(t, err)

	st := s.Snapshot()
	assert.Len(t, st.Items, 1)
	assert.Equal(t, "HTTP error! status: 500", st.Error())
	assert.False(t, st.Loading)
}

func TestStore_FetchUndecodableBodyIsNetworkError(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, mock.Anything).Return(apiclienttest.Raw(`"nope"`), nil)

	s := NewProducts(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	assert.True(t, apiclient.IsNetwork(err))
}

func TestStore_CreateAppendsAndCounts(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, CategoriesPath)).
		Return(apiclienttest.Raw(`{"categories":[{"categoryID":1,"categoryName":"Pianos"}],"totalCount":1}`), nil)
	api.On("Do", mock.Anything, mock.MatchedBy(func(r apiclient.Request) bool {
		body, ok := r.Body.(model.CategoryRequest)
		return r.Method == http.MethodPost && ok && body.CategoryName == "Guitars"
	})).Return(apiclienttest.Status(http.StatusCreated, model.Category{CategoryID: 2, CategoryName: "Guitars"}), nil)

	s := NewCategories(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	created, err := s.Create(context.Background(), model.CategoryRequest{CategoryName: "Guitars"})
	require.NoError(t, err)
	assert.Equal(t, 2, created.CategoryID)

	st := s.Snapshot()
	assert.Equal(t, 2, st.TotalCount)
	require.Len(t, st.Items, 2)
	assert.Equal(t, "Guitars", st.Items[1].CategoryName)
}

func TestStore_CreateWithoutBodyRefetches(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, CategoriesPath)).
		Return(apiclienttest.Raw(`{"categories":[{"categoryID":1,"categoryName":"Pianos"}],"totalCount":1}`), nil).Once()
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodPost, CategoriesPath)).
		Return(&apiclient.Response{Status: http.StatusNoContent}, nil).Once()
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, CategoriesPath)).
		Return(apiclienttest.Raw(`{"categories":[{"categoryID":1,"categoryName":"Pianos"},{"categoryID":2,"categoryName":"Guitars"}],"totalCount":2}`), nil).Once()

	s := NewCategories(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	created, err := s.Create(context.Background(), model.CategoryRequest{CategoryName: "Guitars"})
	require.NoError(t, err)
	assert.Zero(t, created.CategoryID)

	st := s.Snapshot()
	assert.Equal(t, 2, st.TotalCount)
	require.Len(t, st.Items, 2)
	assert.Equal(t, 2, st.Items[1].CategoryID)
	api.AssertExpectations(t)
}

func TestStore_UpdateReplacesByID(t *testing.T) {
	price := decimal.NewFromInt(100)
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, ProductsPath)).
		Return(apiclienttest.JSON(model.ProductListResponse{
			Products:   []model.Product{{ProductID: 1, ProductName: "Drum", Price: price}, {ProductID: 2, ProductName: "Flute", Price: price}},
			TotalCount: 2,
		}), nil)
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodPut, ProductsPath+"/2")).
		Return(apiclienttest.JSON(model.Product{ProductID: 2, ProductName: "Silver Flute", Price: price}), nil)
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodPut, ProductsPath+"/9")).
		Return(apiclienttest.JSON(model.Product{ProductID: 9, ProductName: "Ghost", Price: price}), nil)

	s := NewProducts(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	_, err = s.Update(context.Background(), 2, model.ProductRequest{ProductName: "Silver Flute", Price: price})
	require.NoError(t, err)
	_, err = s.Update(context.Background(), 9, model.ProductRequest{ProductName: "Ghost", Price: price})
	require.NoError(t, err)

	st := s.Snapshot()
	require.Len(t, st.Items, 2, "unknown id is not inserted")
	assert.Equal(t, "Drum", st.Items[0].ProductName)
	assert.Equal(t, "Silver Flute", st.Items[1].ProductName)
}

func TestStore_DeleteNeverGoesNegative(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, LocationsPath)).
		Return(apiclienttest.Raw(`[{"locationID":1}]`), nil)
	api.On("Do", mock.Anything, mock.MatchedBy(func(r apiclient.Request) bool { return r.Method == http.MethodDelete })).
		Return(&apiclient.Response{Status: http.StatusNoContent}, nil)

	s := NewLocations(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), 1))
	require.NoError(t, s.Delete(context.Background(), 1))
	require.NoError(t, s.Delete(context.Background(), 7))

	st := s.Snapshot()
	assert.Empty(t, st.Items)
	assert.Equal(t, 0, st.TotalCount)
	assert.Equal(t, 1, st.TotalPages)
}

func TestStore_FailedMutationLeavesState(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, LocationsPath)).
		Return(apiclienttest.Raw(`[{"locationID":1,"address":"Main St"}]`), nil)
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodDelete, LocationsPath+"/1")).
		Return(nil, &apiclient.HTTPError{Status: 404}).Once()
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodPost, LocationsPath)).
		Return(nil, &apiclient.NetworkError{Message: "connection refused"}).Once()

	s := NewLocations(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	err = s.Delete(context.Background(), 1)
	assert.True(t, apiclient.IsNotFound(err))
	_, err = s.Create(context.Background(), model.StoreLocationRequest{Address: "x"})
	assert.True(t, apiclient.IsNetwork(err))

	st := s.Snapshot()
	assert.Len(t, st.Items, 1)
	assert.Equal(t, 1, st.TotalCount)
	assert.Equal(t, "connection refused", st.Error())
}

func TestStore_SupersededFetchIsDiscarded(t *testing.T) {
	slowStarted := make(chan struct{})
	api := apiclient.DoerFunc(func(ctx context.Context, req apiclient.Request) (*apiclient.Response, error) {
		if req.Query.Get("searchTerm") == "guitar" {
			close(slowStarted)
			<-ctx.Done()
			// a stale success arriving after the newer fetch must not apply
			return apiclienttest.Raw(`{"products":[{"productID":1,"productName":"stale"}],"totalCount":1}`), nil
		}
		return apiclienttest.Raw(`{"products":[{"productID":2,"productName":"fresh"}],"totalCount":1}`), nil
	})

	s := NewProducts(api, zerolog.Nop())
	errs := make(chan error, 1)
	go func() {
		_, err := s.Fetch(context.Background(), model.Filter{SearchTerm: "guitar"})
		errs <- err
	}()
	<-slowStarted

	items, err := s.Fetch(context.Background(), model.Filter{SearchTerm: "guitar solo"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, apiclient.ErrCanceled)
	case <-time.After(time.Second):
		t.Fatal("superseded fetch did not return")
	}

	st := s.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "fresh", st.Items[0].ProductName)
	assert.Nil(t, st.Err)
	assert.Equal(t, "guitar solo", s.Filter().SearchTerm)
}

func TestStore_CanceledFetchIsNoop(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, mock.Anything).Return(apiclienttest.Raw(`[{"locationID":1}]`), nil).Once()
	api.On("Do", mock.Anything, mock.Anything).Return(nil, apiclient.ErrCanceled).Once()

	s := NewLocations(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	_, err = s.Fetch(context.Background(), model.Filter{})
	assert.ErrorIs(t, err, apiclient.ErrCanceled)

	st := s.Snapshot()
	assert.Len(t, st.Items, 1)
	assert.Nil(t, st.Err)
	assert.False(t, st.Loading)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Fetch(ctx, model.Filter{})
	assert.ErrorIs(t, err, apiclient.ErrCanceled)
	api.AssertNumberOfCalls(t, "Do", 2)
}

func TestStore_SubscribeSeesLoadingThenResult(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, mock.Anything).Return(apiclienttest.Raw(`[{"locationID":1}]`), nil)

	s := NewLocations(api, zerolog.Nop())
	var seen []bool
	unsubscribe := s.Subscribe(func(st State[model.StoreLocation]) { seen = append(seen, st.Loading) })
	defer unsubscribe()

	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, seen)
}

func TestStore_Refresh(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, mock.MatchedBy(func(r apiclient.Request) bool {
		return r.Query.Get("searchTerm") == "piano"
	})).Return(apiclienttest.Raw(`{"products":[]}`), nil).Twice()

	s := NewProducts(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{SearchTerm: "piano"})
	require.NoError(t, err)
	require.NoError(t, s.Refresh(context.Background()))
	api.AssertExpectations(t)
}

func TestCategories_DeleteRefusedWhenNotEmpty(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, CategoriesPath)).
		Return(apiclienttest.Raw(`{"categories":[{"categoryID":1,"categoryName":"Guitars","productCount":5}]}`), nil)

	s := NewCategories(api, zerolog.Nop())
	_, err := s.Fetch(context.Background(), model.Filter{})
	require.NoError(t, err)

	err = s.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCategoryNotEmpty)
	api.AssertNumberOfCalls(t, "Do", 1)
	assert.Len(t, s.Snapshot().Items, 1)
}

func TestCategories_DeleteUnloadedChecksDetail(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, CategoriesPath+"/4")).
		Return(apiclienttest.Raw(`{"categoryID":4,"categoryName":"Brass","productCount":0,"products":[]}`), nil)
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodDelete, CategoriesPath+"/4")).
		Return(&apiclient.Response{Status: http.StatusNoContent}, nil)

	s := NewCategories(api, zerolog.Nop())
	require.NoError(t, s.Delete(context.Background(), 4))
	api.AssertExpectations(t)
}

func TestCategories_Detail(t *testing.T) {
	api := &apiclienttest.MockDoer{}
	api.On("Do", mock.Anything, apiclienttest.Req(http.MethodGet, CategoriesPath+"/3")).
		Return(apiclienttest.Raw(`{"categoryID":3,"categoryName":"Drums","products":[{"productID":8,"productName":"Snare","price":120.5}]}`), nil)

	s := NewCategories(api, zerolog.Nop())
	detail, err := s.Detail(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Drums", detail.CategoryName)
	require.Len(t, detail.Products, 1)
	assert.True(t, decimal.RequireFromString("120.5").Equal(detail.Products[0].Price))
	assert.Equal(t, 1, detail.ProductCount)
}
