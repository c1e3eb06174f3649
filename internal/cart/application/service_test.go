package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *mockCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

type mockProducts struct {
	mock.Mock
}

func (m *mockProducts) GetByPublicID(ctx context.Context, productID string) (*catalogdomain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogdomain.Product), args.Error(1)
}

func (m *mockProducts) FindByIDs(ctx context.Context, productIDs []string) ([]*catalogdomain.Product, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalogdomain.Product), args.Error(1)
}

func product(id string, price string, stock int, active bool) *catalogdomain.Product {
	return &catalogdomain.Product{
		ProductID: id,
		Name:      "Produto " + id,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		IsActive:  active,
	}
}

func cartJSON(t *testing.T, state domain.State) string {
	t.Helper()
	data, err := json.Marshal(state)
	assert.NoError(t, err)
	return string(data)
}

func TestCartAdd(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, 7*24*time.Hour)

	products.On("GetByPublicID", ctx, "p1").Return(product("p1", "79.90", 10, true), nil)
	cache.On("SetNX", ctx, "cart:lock:u1", mock.Anything, lockTTL).Return(true, nil)
	cache.On("Get", ctx, "cart:u1").Return("", nil)
	cache.On("SetJSON", ctx, "cart:u1", mock.Anything, 7*24*time.Hour).Return(nil)
	cache.On("Delete", ctx, []string{"cart:lock:u1"}).Return(nil)

	state, err := svc.Add(ctx, "u1", "p1", 2)
	assert.NoError(t, err)
	assert.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.True(t, state.Items[0].Price.Equal(decimal.RequireFromString("79.90")))
	cache.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestCartAddMergesExistingItem(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, time.Hour)

	existing := domain.State{Items: []domain.Item{{ProductID: "p1", Quantity: 1, Price: decimal.RequireFromString("79.90")}}}
	products.On("GetByPublicID", ctx, "p1").Return(product("p1", "79.90", 10, true), nil)
	cache.On("SetNX", ctx, "cart:lock:u1", mock.Anything, lockTTL).Return(true, nil)
	cache.On("Get", ctx, "cart:u1").Return(cartJSON(t, existing), nil)
	cache.On("SetJSON", ctx, "cart:u1", mock.Anything, time.Hour).Return(nil)
	cache.On("Delete", ctx, []string{"cart:lock:u1"}).Return(nil)

	state, err := svc.Add(ctx, "u1", "p1", 3)
	assert.NoError(t, err)
	assert.Len(t, state.Items, 1)
	assert.Equal(t, 4, state.Items[0].Quantity)
}

func TestCartAddValidation(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, time.Hour)

	_, err := svc.Add(ctx, "u1", "p1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	products.On("GetByPublicID", ctx, "inactive").Return(product("inactive", "10.00", 10, false), nil)
	_, err = svc.Add(ctx, "u1", "inactive", 1)
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)

	products.On("GetByPublicID", ctx, "low").Return(product("low", "10.00", 1, true), nil)
	_, err = svc.Add(ctx, "u1", "low", 5)
	assert.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)
}

func TestCartAddLockBusy(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, time.Hour)

	products.On("GetByPublicID", ctx, "p1").Return(product("p1", "10.00", 10, true), nil)
	cache.On("SetNX", ctx, "cart:lock:u1", mock.Anything, lockTTL).Return(false, nil)

	_, err := svc.Add(ctx, "u1", "p1", 1)
	assert.ErrorIs(t, err, domain.ErrCartBusy)
	cache.AssertNumberOfCalls(t, "SetNX", lockRetries)
}

func TestCartGetFiltersUnavailableItems(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, time.Hour)

	stored := domain.State{Items: []domain.Item{
		{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("79.90")},
		{ProductID: "p2", Quantity: 1, Price: decimal.RequireFromString("50.00")},
		{ProductID: "p3", Quantity: 5, Price: decimal.RequireFromString("20.00")},
	}}
	cache.On("Get", ctx, "cart:u1").Return(cartJSON(t, stored), nil)
	// p1 涨价,p2 已下架,p3 库存不足
	products.On("FindByIDs", ctx, []string{"p1", "p2", "p3"}).Return([]*catalogdomain.Product{
		product("p1", "99.90", 10, true),
		product("p2", "50.00", 10, false),
		product("p3", "20.00", 2, true),
	}, nil)

	view, err := svc.Get(ctx, "u1")
	assert.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, "p1", view.Items[0].ProductID)
	// 总价按当前价格计算,而非加入购物车时的快照
	assert.True(t, view.Total.Equal(decimal.RequireFromString("199.80")))
}

func TestCartGetEmpty(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, time.Hour)

	cache.On("Get", ctx, "cart:u1").Return("", nil)

	view, err := svc.Get(ctx, "u1")
	assert.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

func TestCartUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, time.Hour)

	stored := domain.State{Items: []domain.Item{{ProductID: "p1", Quantity: 2}}}
	cache.On("SetNX", ctx, "cart:lock:u1", mock.Anything, lockTTL).Return(true, nil)
	cache.On("Get", ctx, "cart:u1").Return(cartJSON(t, stored), nil)
	cache.On("SetJSON", ctx, "cart:u1", mock.Anything, time.Hour).Return(nil)
	cache.On("Delete", ctx, []string{"cart:lock:u1"}).Return(nil)

	state, err := svc.UpdateQuantity(ctx, "u1", "p1", 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, state.Items[0].Quantity)
}

func TestCartUpdateQuantityMissingCart(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, time.Hour)

	cache.On("SetNX", ctx, "cart:lock:u1", mock.Anything, lockTTL).Return(true, nil)
	cache.On("Get", ctx, "cart:u1").Return("", nil)
	cache.On("Delete", ctx, []string{"cart:lock:u1"}).Return(nil)

	_, err := svc.UpdateQuantity(ctx, "u1", "p1", 5)
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestCartClear(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, time.Hour)

	cache.On("Delete", ctx, []string{"cart:u1"}).Return(nil)

	assert.NoError(t, svc.Clear(ctx, "u1"))
	cache.AssertExpectations(t)
}

func TestCartLoadCorruptState(t *testing.T) {
	ctx := context.Background()
	cache := new(mockCache)
	products := new(mockProducts)
	svc := NewCartService(cache, products, time.Hour)

	cache.On("Get", ctx, "cart:u1").Return("{not-json", nil)

	_, err := svc.Raw(ctx, "u1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt cart state")
}
