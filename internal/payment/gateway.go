package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrGateway 支付网关调用失败,订单流程据此触发补偿
var ErrGateway = errors.New("payment gateway error")

// Intent 支付意向创建结果
type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway 支付网关抽象,金额为十进制货币单位
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, orderID string) (*Intent, error)
	Refund(ctx context.Context, paymentID string) error
}
