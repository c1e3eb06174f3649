package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *mockCache) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Save(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) GetByPublicID(ctx context.Context, productID string) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) FindByIDs(ctx context.Context, productIDs []string) ([]*domain.Product, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Product), args.Get(1).(int64), args.Error(2)
}

func (m *mockProductRepo) Delete(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) Save(ctx context.Context, category *domain.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *mockCategoryRepo) GetByPublicID(ctx context.Context, categoryID string) (*domain.Category, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Category), args.Error(1)
}

func (m *mockCategoryRepo) Delete(ctx context.Context, categoryID string) error {
	args := m.Called(ctx, categoryID)
	return args.Error(0)
}

func newService() (*CatalogService, *mockProductRepo, *mockCategoryRepo, *mockCache) {
	products := new(mockProductRepo)
	categories := new(mockCategoryRepo)
	cache := new(mockCache)
	return NewCatalogService(products, categories, cache, metrics.New("test")), products, categories, cache
}

func TestListProductsCacheMiss(t *testing.T) {
	ctx := context.Background()
	svc, products, _, cache := newService()

	cache.On("GetJSON", ctx, mock.Anything, mock.Anything).Return(false, nil)
	products.On("List", ctx, mock.Anything).Return([]*domain.Product{
		{ProductID: "p1", Name: "Produto"},
	}, int64(1), nil)
	cache.On("SetJSON", ctx, mock.Anything, mock.Anything, listCacheTTL).Return(nil)

	page, err := svc.ListProducts(ctx, domain.ProductFilter{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 12, page.Limit)
	products.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestListProductsCacheHit(t *testing.T) {
	ctx := context.Background()
	svc, products, _, cache := newService()

	cache.On("GetJSON", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			page := args.Get(2).(*ProductPage)
			page.Total = 42
		}).
		Return(true, nil)

	page, err := svc.ListProducts(ctx, domain.ProductFilter{})
	assert.NoError(t, err)
	assert.Equal(t, int64(42), page.Total)
	products.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestCreateProductSlugTaken(t *testing.T) {
	ctx := context.Background()
	svc, products, _, _ := newService()

	products.On("GetBySlug", ctx, "camiseta-basica").
		Return(&domain.Product{Slug: "camiseta-basica"}, nil)

	_, err := svc.CreateProduct(ctx, CreateProductCommand{
		Name:  "Camiseta Básica",
		Price: decimal.RequireFromString("79.90"),
	})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestCreateProductInvalidatesListCache(t *testing.T) {
	ctx := context.Background()
	svc, products, _, cache := newService()

	products.On("GetBySlug", ctx, "produto-novo").Return(nil, domain.ErrProductNotFound)
	products.On("Save", ctx, mock.Anything).Return(nil)
	cache.On("Delete", ctx, []string{productKeyPrefix + "produto-novo"}).Return(nil)
	cache.On("DeletePattern", ctx, listKeyPrefix+"*").Return(nil)

	product, err := svc.CreateProduct(ctx, CreateProductCommand{
		Name:  "Produto Novo",
		Price: decimal.RequireFromString("10.00"),
		Stock: 5,
	})
	assert.NoError(t, err)
	assert.Equal(t, "produto-novo", product.Slug)
	assert.True(t, product.IsActive)
	assert.NotEmpty(t, product.ProductID)
	cache.AssertExpectations(t)
}

func TestUpdateProductChangesSlugAndInvalidatesBoth(t *testing.T) {
	ctx := context.Background()
	svc, products, _, cache := newService()

	products.On("GetByPublicID", ctx, "pid-1").Return(&domain.Product{
		ProductID: "pid-1",
		Name:      "Nome Antigo",
		Slug:      "nome-antigo",
		Price:     decimal.RequireFromString("10.00"),
	}, nil)
	products.On("Save", ctx, mock.Anything).Return(nil)
	cache.On("Delete", ctx, []string{productKeyPrefix + "nome-antigo"}).Return(nil)
	cache.On("Delete", ctx, []string{productKeyPrefix + "nome-novo"}).Return(nil)
	cache.On("DeletePattern", ctx, listKeyPrefix+"*").Return(nil)

	newName := "Nome Novo"
	product, err := svc.UpdateProduct(ctx, "pid-1", UpdateProductCommand{Name: &newName})
	assert.NoError(t, err)
	assert.Equal(t, "nome-novo", product.Slug)
	cache.AssertExpectations(t)
}

func TestDeleteCategoryInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, categories, cache := newService()

	categories.On("GetByPublicID", ctx, "cid-1").Return(&domain.Category{CategoryID: "cid-1"}, nil)
	categories.On("Delete", ctx, "cid-1").Return(nil)
	cache.On("Delete", ctx, []string{categoriesCacheKey}).Return(nil)

	assert.NoError(t, svc.DeleteCategory(ctx, "cid-1"))
	cache.AssertExpectations(t)
}
