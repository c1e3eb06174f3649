package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	orderapp "github.com/wyfcoding/ecommerce/internal/order/application"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

const maxWebhookBodyBytes = 65536

// WebhookHandler 处理 Stripe 回调,签名校验失败直接拒绝
type WebhookHandler struct {
	orders        *orderapp.OrderService
	webhookSecret string
	metrics       *metrics.Metrics
}

func NewWebhookHandler(orders *orderapp.OrderService, webhookSecret string, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{orders: orders, webhookSecret: webhookSecret, metrics: m}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/payments/webhook", h.HandleWebhook)
}

// HandleWebhook 验签后按事件类型分发
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		logger.Warn(c.Request.Context(), "Webhook signature verification failed", "error", err)
		response.Error(c, http.StatusBadRequest, "invalid signature")
		return
	}

	h.metrics.WebhookEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			response.Error(c, http.StatusBadRequest, "malformed event payload")
			return
		}
		orderID := intent.Metadata["order_id"]
		if orderID == "" {
			logger.Warn(c.Request.Context(), "Webhook event without order_id metadata", "intent_id", intent.ID)
			break
		}
		if err := h.dispatch(c, event.Type, orderID, intent.ID); err != nil {
			logger.Error(c.Request.Context(), "Failed to process webhook event",
				"type", event.Type, "order_id", orderID, "error", err)
			response.Error(c, http.StatusInternalServerError, "failed to process event")
			return
		}
	case "charge.refunded":
		// charge 继承支付意向的 metadata
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			response.Error(c, http.StatusBadRequest, "malformed event payload")
			return
		}
		orderID := charge.Metadata["order_id"]
		if orderID == "" {
			logger.Warn(c.Request.Context(), "Refund event without order_id metadata", "charge_id", charge.ID)
			break
		}
		if err := h.orders.MarkRefunded(c.Request.Context(), orderID); err != nil {
			logger.Error(c.Request.Context(), "Failed to process refund event", "order_id", orderID, "error", err)
			response.Error(c, http.StatusInternalServerError, "failed to process event")
			return
		}
	default:
		logger.Debug(c.Request.Context(), "Ignoring webhook event", "type", event.Type)
	}

	response.Success(c, gin.H{"received": true})
}

func (h *WebhookHandler) dispatch(c *gin.Context, eventType stripe.EventType, orderID, intentID string) error {
	ctx := c.Request.Context()
	switch eventType {
	case "payment_intent.succeeded":
		return h.orders.MarkPaid(ctx, orderID, intentID)
	case "payment_intent.payment_failed", "payment_intent.canceled":
		return h.orders.MarkFailed(ctx, orderID)
	}
	return nil
}
