package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
)

// Status 订单状态机:
// PENDING -> PAID -> PROCESSING -> SHIPPED -> DELIVERED
// PENDING -> CANCELLED(用户取消或支付网关失败补偿)
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPaid       Status = "PAID"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// ValidStatus 校验外部传入的状态值
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order 订单聚合根。Total 含运费，单价与小计为下单时的快照。
type Order struct {
	gorm.Model
	OrderID       string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"order_id"`
	Number        int64           `gorm:"uniqueIndex;not null" json:"number"`
	UserID        string          `gorm:"type:varchar(36);index;not null" json:"user_id"`
	AddressID     string          `gorm:"type:varchar(36);not null" json:"address_id"`
	Status        Status          `gorm:"type:varchar(20);index;not null" json:"status"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	ShippingCost  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"shipping_cost"`
	PaymentMethod string          `gorm:"type:varchar(20)" json:"payment_method"`
	PaymentID     string          `gorm:"type:varchar(64);index" json:"payment_id,omitempty"`
	TrackingCode  string          `gorm:"type:varchar(64)" json:"tracking_code,omitempty"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;references:ID" json:"items"`
}

// OrderItem 订单行项目快照
type OrderItem struct {
	gorm.Model
	OrderID    uint            `gorm:"index;not null" json:"-"`
	ProductID  string          `gorm:"type:varchar(36);not null" json:"product_id"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
}

// StockDecrement 下单时需要扣减的库存
type StockDecrement struct {
	ProductID string
	Quantity  int
}

// OrderRepository 订单持久化接口。CreateWithItems 与 CancelAndRestock
// 在单个数据库事务内完成订单写入与库存变更。
type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *Order, decrements []StockDecrement) error
	GetByPublicID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]*Order, int64, error)
	UpdateStatus(ctx context.Context, orderID string, status Status, trackingCode string) error
	SetPaymentIntent(ctx context.Context, orderID, paymentID string) error
	SetPaid(ctx context.Context, orderID, paymentID string) error
	CancelAndRestock(ctx context.Context, orderID string) (*Order, error)
}

// OrderCreatedEvent 下单成功后发布到消息队列
type OrderCreatedEvent struct {
	OrderID   string          `json:"order_id"`
	Number    int64           `json:"number"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderStatusChangedEvent 订单状态变更事件
type OrderStatusChangedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

// PaymentEvent 支付生命周期事件,发布到支付主题
type PaymentEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	PaymentID  string    `json:"payment_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
)
