package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/ecommerce/internal/cart/application"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// CartHandler 购物车 HTTP 处理器，所有接口要求登录
type CartHandler struct {
	svc *application.CartService
}

func NewCartHandler(svc *application.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	cart := router.Group("/cart", auth)
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items/:productId", h.UpdateItem)
		cart.DELETE("/items/:productId", h.RemoveItem)
		cart.DELETE("", h.ClearCart)
	}
}

// GetCart 返回校验后的购物车视图
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, view)
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// AddItem 添加商品到购物车
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	state, err := h.svc.Add(c.Request.Context(), c.GetString(middleware.UserIDKey), req.ProductID, req.Quantity)
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, state)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem 覆盖行项目数量
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	state, err := h.svc.UpdateQuantity(c.Request.Context(), c.GetString(middleware.UserIDKey), c.Param("productId"), req.Quantity)
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, state)
}

// RemoveItem 移除行项目
func (h *CartHandler) RemoveItem(c *gin.Context) {
	state, err := h.svc.Remove(c.Request.Context(), c.GetString(middleware.UserIDKey), c.Param("productId"))
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, state)
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context(), c.GetString(middleware.UserIDKey)); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, catalogdomain.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCartBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
