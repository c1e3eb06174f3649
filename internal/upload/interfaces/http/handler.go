package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/ecommerce/internal/upload"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// UploadHandler 图片上传 HTTP 处理器,仅管理员可用
type UploadHandler struct {
	svc *upload.Service
}

func NewUploadHandler(svc *upload.Service) *UploadHandler {
	return &UploadHandler{svc: svc}
}

func (h *UploadHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc, admin gin.HandlerFunc) {
	router.POST("/upload/:kind", auth, admin, h.Upload)
}

// Upload 接收 multipart 表单中的 file 字段
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "missing file field")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to open uploaded file")
		return
	}
	defer file.Close()

	result, err := h.svc.Store(c.Request.Context(), c.Param("kind"), file, fileHeader.Size)
	if err != nil {
		response.Error(c, statusOf(err), err.Error())
		return
	}
	response.Created(c, result)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrUnsupportedType), errors.Is(err, upload.ErrInvalidKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
