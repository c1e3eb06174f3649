package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

const (
	listCacheTTL   = time.Hour
	detailCacheTTL = time.Hour

	categoriesCacheKey = "catalog:categories"
	productKeyPrefix   = "catalog:product:"
	listKeyPrefix      = "catalog:products:"
)

// Cache 目录读缓存所需的最小接口
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// ProductPage 分页查询结果
type ProductPage struct {
	Products []*domain.Product `json:"products"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
	Total    int64             `json:"total"`
	Pages    int               `json:"pages"`
}

type CatalogService struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	cache      Cache
	metrics    *metrics.Metrics
}

func NewCatalogService(products domain.ProductRepository, categories domain.CategoryRepository, cache Cache, m *metrics.Metrics) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		cache:      cache,
		metrics:    m,
	}
}

// ListProducts 商品列表，read-through 缓存
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) (*ProductPage, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 12
	}

	key := listCacheKey(filter)
	var cached ProductPage
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		s.metrics.CacheHitsTotal.Inc()
		return &cached, nil
	}
	s.metrics.CacheMissesTotal.Inc()

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &ProductPage{
		Products: products,
		Page:     filter.Page,
		Limit:    filter.Limit,
		Total:    total,
		Pages:    int(math.Ceil(float64(total) / float64(filter.Limit))),
	}

	if err := s.cache.SetJSON(ctx, key, page, listCacheTTL); err != nil {
		logger.Warn(ctx, "Failed to cache product list", "key", key, "error", err)
	}
	return page, nil
}

// GetProductBySlug 商品详情，read-through 缓存
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	key := productKeyPrefix + slug
	var cached domain.Product
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		s.metrics.CacheHitsTotal.Inc()
		return &cached, nil
	}
	s.metrics.CacheMissesTotal.Inc()

	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, product, detailCacheTTL); err != nil {
		logger.Warn(ctx, "Failed to cache product", "slug", slug, "error", err)
	}
	return product, nil
}

// ListCategories 分类列表（带商品计数），read-through 缓存
func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	var cached []*domain.Category
	if hit, err := s.cache.GetJSON(ctx, categoriesCacheKey, &cached); err == nil && hit {
		s.metrics.CacheHitsTotal.Inc()
		return cached, nil
	}
	s.metrics.CacheMissesTotal.Inc()

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, categoriesCacheKey, categories, listCacheTTL); err != nil {
		logger.Warn(ctx, "Failed to cache categories", "error", err)
	}
	return categories, nil
}

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	Stock        int
	Images       []string
	CategorySlug string
}

func (s *CatalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	slug := utils.Slugify(cmd.Name)
	if existing, err := s.products.GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSlugTaken, slug)
	} else if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
		return nil, err
	}

	product := &domain.Product{
		ProductID:   uuid.New().String(),
		Name:        cmd.Name,
		Slug:        slug,
		Description: cmd.Description,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Images:      domain.ImageList(cmd.Images),
		IsActive:    true,
	}

	if cmd.CategorySlug != "" {
		category, err := s.categories.GetBySlug(ctx, cmd.CategorySlug)
		if err != nil {
			return nil, err
		}
		product.CategoryID = category.ID
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateProduct(ctx, product.Slug)
	logger.Info(ctx, "Product created", "product_id", product.ProductID, "slug", product.Slug)
	return product, nil
}

// UpdateProductCommand 更新商品命令，nil 字段不变更
type UpdateProductCommand struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Images      []string
	IsActive    *bool
}

func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, cmd UpdateProductCommand) (*domain.Product, error) {
	product, err := s.products.GetByPublicID(ctx, productID)
	if err != nil {
		return nil, err
	}

	oldSlug := product.Slug
	if cmd.Name != nil {
		product.Name = *cmd.Name
		product.Slug = utils.Slugify(*cmd.Name)
	}
	if cmd.Description != nil {
		product.Description = *cmd.Description
	}
	if cmd.Price != nil {
		product.Price = *cmd.Price
	}
	if cmd.Stock != nil {
		product.Stock = *cmd.Stock
	}
	if cmd.Images != nil {
		product.Images = domain.ImageList(cmd.Images)
	}
	if cmd.IsActive != nil {
		product.IsActive = *cmd.IsActive
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateProduct(ctx, oldSlug)
	if product.Slug != oldSlug {
		s.invalidateProduct(ctx, product.Slug)
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	product, err := s.products.GetByPublicID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return err
	}
	s.invalidateProduct(ctx, product.Slug)
	return nil
}

// CreateCategoryCommand 创建分类命令
type CreateCategoryCommand struct {
	Name     string
	ImageURL string
}

func (s *CatalogService) CreateCategory(ctx context.Context, cmd CreateCategoryCommand) (*domain.Category, error) {
	slug := utils.Slugify(cmd.Name)
	if existing, err := s.categories.GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSlugTaken, slug)
	} else if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, err
	}

	category := &domain.Category{
		CategoryID: uuid.New().String(),
		Name:       cmd.Name,
		Slug:       slug,
		ImageURL:   cmd.ImageURL,
	}
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}

	s.invalidateCategories(ctx)
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, categoryID string) error {
	if _, err := s.categories.GetByPublicID(ctx, categoryID); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return err
	}
	s.invalidateCategories(ctx)
	return nil
}

func (s *CatalogService) invalidateProduct(ctx context.Context, slug string) {
	if err := s.cache.Delete(ctx, productKeyPrefix+slug); err != nil {
		logger.Warn(ctx, "Failed to invalidate product cache", "slug", slug, "error", err)
	}
	if err := s.cache.DeletePattern(ctx, listKeyPrefix+"*"); err != nil {
		logger.Warn(ctx, "Failed to invalidate product list cache", "error", err)
	}
}

func (s *CatalogService) invalidateCategories(ctx context.Context) {
	if err := s.cache.Delete(ctx, categoriesCacheKey); err != nil {
		logger.Warn(ctx, "Failed to invalidate categories cache", "error", err)
	}
}

func listCacheKey(f domain.ProductFilter) string {
	minPrice, maxPrice := "", ""
	if f.MinPrice != nil {
		minPrice = f.MinPrice.String()
	}
	if f.MaxPrice != nil {
		maxPrice = f.MaxPrice.String()
	}
	return fmt.Sprintf("%sp%d:l%d:c%s:q%s:s%s:min%s:max%s",
		listKeyPrefix, f.Page, f.Limit, f.CategorySlug, f.Search, f.Sort, minPrice, maxPrice)
}
