package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/ecommerce/internal/user/application"
	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// UserHandler 认证与用户资料 HTTP 处理器
type UserHandler struct {
	svc *application.UserService
}

func NewUserHandler(svc *application.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// RegisterRoutes 注册路由,authLimit 为登录/注册接口的限流中间件
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc, authLimit gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authLimit, h.Register)
		authGroup.POST("/login", authLimit, h.Login)
	}
	users := router.Group("/users", auth)
	{
		users.GET("/me", h.GetProfile)
		users.PUT("/me", h.UpdateProfile)
		users.GET("/addresses", h.ListAddresses)
		users.POST("/addresses", h.AddAddress)
		users.DELETE("/addresses/:id", h.DeleteAddress)
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	CPF      string `json:"cpf"`
	Phone    string `json:"phone"`
}

// Register 用户注册
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.Register(c.Request.Context(), application.RegisterCommand{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		CPF:      req.CPF,
		Phone:    req.Phone,
	})
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Created(c, result)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 用户登录
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, result)
}

// GetProfile 当前用户资料
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.svc.GetProfile(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, user)
}

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// UpdateProfile 更新当前用户资料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), c.GetString(middleware.UserIDKey), application.UpdateProfileCommand{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, user)
}

type addAddressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street" binding:"required"`
	Number     string `json:"number" binding:"required"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required,len=2"`
	ZipCode    string `json:"zip_code" binding:"required"`
	IsMain     bool   `json:"is_main"`
}

// AddAddress 新增收货地址
func (h *UserHandler) AddAddress(c *gin.Context) {
	var req addAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	address, err := h.svc.AddAddress(c.Request.Context(), c.GetString(middleware.UserIDKey), application.AddAddressCommand{
		Label:      req.Label,
		Street:     req.Street,
		Number:     req.Number,
		Complement: req.Complement,
		District:   req.District,
		City:       req.City,
		State:      req.State,
		ZipCode:    req.ZipCode,
		IsMain:     req.IsMain,
	})
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Created(c, address)
}

// ListAddresses 当前用户地址列表
func (h *UserHandler) ListAddresses(c *gin.Context) {
	addresses, err := h.svc.ListAddresses(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, addresses)
}

// DeleteAddress 删除当前用户地址
func (h *UserHandler) DeleteAddress(c *gin.Context) {
	if err := h.svc.DeleteAddress(c.Request.Context(), c.GetString(middleware.UserIDKey), c.Param("id")); err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrAddressNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
