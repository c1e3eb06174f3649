package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/order/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/internal/payment"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	svc *application.OrderService
}

func NewOrderHandler(svc *application.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc, admin gin.HandlerFunc) {
	orders := router.Group("/orders", auth)
	{
		orders.POST("", h.PlaceOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.PUT("/:id/status", admin, h.UpdateStatus)
	}
}

type placeOrderRequest struct {
	AddressID     string `json:"address_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// PlaceOrder 从当前购物车创建订单
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.PlaceOrder(c.Request.Context(), c.GetString(middleware.UserIDKey), req.AddressID, req.PaymentMethod)
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Created(c, result)
}

type listOrdersQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// ListOrders 当前用户的订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var q listOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	orders, total, err := h.svc.ListByUser(c.Request.Context(), c.GetString(middleware.UserIDKey), q.Page, q.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list orders")
		return
	}
	response.Success(c, gin.H{"orders": orders, "total": total})
}

// GetOrder 订单详情,管理员可查看任意订单
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	if c.GetString(middleware.RoleKey) == middleware.RoleAdmin {
		userID = ""
	}
	order, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消当前用户的待支付订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey))
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, order)
}

type updateStatusRequest struct {
	Status       string `json:"status" binding:"required"`
	TrackingCode string `json:"tracking_code"`
}

// UpdateStatus 管理员更新订单状态
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if !domain.ValidStatus(req.Status) {
		response.Error(c, http.StatusBadRequest, "invalid order status")
		return
	}
	order, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.Status(req.Status), req.TrackingCode)
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, order)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, catalogdomain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, catalogdomain.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotCancellable):
		return http.StatusConflict
	case errors.Is(err, payment.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
