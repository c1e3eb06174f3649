package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ecommerce/internal/catalog/application"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// CatalogHandler 商品/分类 HTTP 处理器
type CatalogHandler struct {
	svc *application.CatalogService
}

func NewCatalogHandler(svc *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// RegisterRoutes 注册路由，写操作要求管理员
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc, admin gin.HandlerFunc) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:slug", h.GetProduct)
		products.POST("", auth, admin, h.CreateProduct)
		products.PUT("/:id", auth, admin, h.UpdateProduct)
		products.DELETE("/:id", auth, admin, h.DeleteProduct)
	}
	categories := router.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", auth, admin, h.CreateCategory)
		categories.DELETE("/:id", auth, admin, h.DeleteCategory)
	}
}

type listProductsQuery struct {
	Page     int     `form:"page"`
	Limit    int     `form:"limit"`
	Category string  `form:"category"`
	Search   string  `form:"search"`
	Sort     string  `form:"sort"`
	MinPrice *string `form:"min_price"`
	MaxPrice *string `form:"max_price"`
}

// ListProducts 商品列表
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var q listProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	filter := domain.ProductFilter{
		Page:         q.Page,
		Limit:        q.Limit,
		CategorySlug: q.Category,
		Search:       q.Search,
		Sort:         q.Sort,
	}
	if q.MinPrice != nil {
		p, err := decimal.NewFromString(*q.MinPrice)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid min_price")
			return
		}
		filter.MinPrice = &p
	}
	if q.MaxPrice != nil {
		p, err := decimal.NewFromString(*q.MaxPrice)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid max_price")
			return
		}
		filter.MaxPrice = &p
	}

	page, err := h.svc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list products", "error", err)
		response.Error(c, http.StatusInternalServerError, "failed to list products")
		return
	}
	response.Success(c, page)
}

// GetProduct 商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.svc.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, product)
}

type createProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       string   `json:"price" binding:"required"`
	Stock       int      `json:"stock" binding:"min=0"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
}

// CreateProduct 创建商品
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		response.Error(c, http.StatusBadRequest, "invalid price")
		return
	}

	product, err := h.svc.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Name:         req.Name,
		Description:  req.Description,
		Price:        price,
		Stock:        req.Stock,
		Images:       req.Images,
		CategorySlug: req.Category,
	})
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Created(c, product)
}

type updateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *string  `json:"price"`
	Stock       *int     `json:"stock"`
	Images      []string `json:"images"`
	IsActive    *bool    `json:"is_active"`
}

// UpdateProduct 更新商品
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	cmd := application.UpdateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Stock:       req.Stock,
		Images:      req.Images,
		IsActive:    req.IsActive,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			response.Error(c, http.StatusBadRequest, "invalid price")
			return
		}
		cmd.Price = &price
	}

	product, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.svc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ListCategories 分类列表
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list categories", "error", err)
		response.Error(c, http.StatusInternalServerError, "failed to list categories")
		return
	}
	response.Success(c, categories)
}

type createCategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	ImageURL string `json:"image_url"`
}

// CreateCategory 创建分类
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	category, err := h.svc.CreateCategory(c.Request.Context(), application.CreateCategoryCommand{
		Name:     req.Name,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Created(c, category)
}

// DeleteCategory 删除分类
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSlugTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
