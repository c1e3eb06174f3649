package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// StripeGateway 基于 Stripe PaymentIntent 的支付网关实现
type StripeGateway struct {
	currency string
}

// NewStripeGateway 配置 Stripe 全局密钥并返回网关实例
func NewStripeGateway(secretKey, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{currency: currency}
}

// CreatePaymentIntent 创建支付意向,金额换算为货币最小单位(分)
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, orderID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", orderID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	logger.Info(ctx, "Payment intent created", "order_id", orderID, "intent_id", pi.ID)
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Refund 按支付意向全额退款
func (g *StripeGateway) Refund(ctx context.Context, paymentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	logger.Info(ctx, "Refund issued", "payment_id", paymentID)
	return nil
}
