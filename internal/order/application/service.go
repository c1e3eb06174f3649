package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/internal/payment"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

// CartStore 结算流程所需的购物车接口
type CartStore interface {
	Raw(ctx context.Context, userID string) (*cartdomain.State, error)
	Clear(ctx context.Context, userID string) error
}

// ProductReader 结算时按当前价格与库存重新校验购物车
type ProductReader interface {
	FindByIDs(ctx context.Context, productIDs []string) ([]*catalogdomain.Product, error)
}

// EventPublisher 订单/支付事件发布接口
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event domain.OrderStatusChangedEvent) error
	PublishPayment(ctx context.Context, event domain.PaymentEvent) error
}

// PlaceOrderResult 下单结果,ClientSecret 用于前端完成支付
type PlaceOrderResult struct {
	Order        *domain.Order `json:"order"`
	ClientSecret string        `json:"client_secret"`
}

// OrderService 订单应用服务。下单流程:
// 加载购物车 -> 按当前价格与库存重新校验 -> 事务内写入订单并扣减库存
// -> 事务提交后创建支付意向 -> 成功则清空购物车并发布事件,
// 网关失败则取消订单并回补库存(购物车保留)。
type OrderService struct {
	orders    domain.OrderRepository
	cart      CartStore
	products  ProductReader
	gateway   payment.Gateway
	publisher EventPublisher
	shipping  *ShippingCalculator
	snowflake *utils.SnowflakeID
	metrics   *metrics.Metrics
}

func NewOrderService(
	orders domain.OrderRepository,
	cart CartStore,
	products ProductReader,
	gateway payment.Gateway,
	publisher EventPublisher,
	shipping *ShippingCalculator,
	snowflake *utils.SnowflakeID,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		orders:    orders,
		cart:      cart,
		products:  products,
		gateway:   gateway,
		publisher: publisher,
		shipping:  shipping,
		snowflake: snowflake,
		metrics:   m,
	}
}

// PlaceOrder 从购物车创建订单
func (s *OrderService) PlaceOrder(ctx context.Context, userID, addressID, paymentMethod string) (*PlaceOrderResult, error) {
	state, err := s.cart.Raw(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.IsEmpty() {
		s.metrics.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, domain.ErrEmptyCart
	}

	ids := make([]string, 0, len(state.Items))
	for _, item := range state.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*catalogdomain.Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}

	// 校验并按当前价格重新计价,购物车里的快照价格仅用于展示
	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(state.Items))
	decrements := make([]domain.StockDecrement, 0, len(state.Items))
	for _, item := range state.Items {
		p, ok := byID[item.ProductID]
		if !ok || !p.IsActive {
			s.metrics.OrdersFailedTotal.WithLabelValues("unavailable").Inc()
			return nil, fmt.Errorf("%w: %s", catalogdomain.ErrProductNotFound, item.Name)
		}
		if p.Stock < item.Quantity {
			s.metrics.OrdersFailedTotal.WithLabelValues("stock").Inc()
			return nil, fmt.Errorf("%w: %s", catalogdomain.ErrInsufficientStock, p.Name)
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, domain.OrderItem{
			ProductID:  p.ProductID,
			Name:       p.Name,
			Quantity:   item.Quantity,
			UnitPrice:  p.Price,
			TotalPrice: lineTotal,
		})
		decrements = append(decrements, domain.StockDecrement{ProductID: p.ProductID, Quantity: item.Quantity})
	}

	shippingCost := s.shipping.Cost(subtotal)
	order := &domain.Order{
		OrderID:       uuid.NewString(),
		Number:        s.snowflake.Generate(),
		UserID:        userID,
		AddressID:     addressID,
		Status:        domain.StatusPending,
		Total:         subtotal.Add(shippingCost),
		ShippingCost:  shippingCost,
		PaymentMethod: paymentMethod,
		Items:         items,
	}

	if err := s.orders.CreateWithItems(ctx, order, decrements); err != nil {
		s.metrics.OrdersFailedTotal.WithLabelValues("persist").Inc()
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, order.Total, order.OrderID)
	if err != nil {
		// 订单已提交但支付意向失败:取消订单并回补库存,购物车保留以便重试
		s.metrics.PaymentIntentsTotal.WithLabelValues("error").Inc()
		s.metrics.OrdersFailedTotal.WithLabelValues("gateway").Inc()
		if _, cancelErr := s.orders.CancelAndRestock(ctx, order.OrderID); cancelErr != nil {
			logger.Error(ctx, "Failed to compensate order after gateway failure",
				"order_id", order.OrderID, "error", cancelErr)
		}
		return nil, fmt.Errorf("%w: %v", payment.ErrGateway, err)
	}
	s.metrics.PaymentIntentsTotal.WithLabelValues("ok").Inc()

	if err := s.orders.SetPaymentIntent(ctx, order.OrderID, intent.ID); err != nil {
		logger.Error(ctx, "Failed to record payment intent", "order_id", order.OrderID, "error", err)
	}
	order.PaymentID = intent.ID

	if err := s.cart.Clear(ctx, userID); err != nil {
		logger.Warn(ctx, "Failed to clear cart after order placement", "user_id", userID, "error", err)
	}
	if err := s.publisher.PublishOrderCreated(ctx, domain.OrderCreatedEvent{
		OrderID:   order.OrderID,
		Number:    order.Number,
		UserID:    userID,
		Total:     order.Total,
		ItemCount: len(order.Items),
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Warn(ctx, "Failed to publish order created event", "order_id", order.OrderID, "error", err)
	}

	s.metrics.OrdersPlacedTotal.Inc()
	logger.Info(ctx, "Order placed", "order_id", order.OrderID, "number", order.Number,
		"user_id", userID, "total", order.Total.String())

	return &PlaceOrderResult{Order: order, ClientSecret: intent.ClientSecret}, nil
}

// GetByID 查询订单,userID 非空时校验归属
func (s *OrderService) GetByID(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.orders.GetByPublicID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != "" && order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// ListByUser 分页查询用户订单
func (s *OrderService) ListByUser(ctx context.Context, userID string, page, limit int) ([]*domain.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.orders.ListByUser(ctx, userID, page, limit)
}

// UpdateStatus 管理员更新订单状态,可同时写入物流单号
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.Status, trackingCode string) (*domain.Order, error) {
	if err := s.orders.UpdateStatus(ctx, orderID, status, trackingCode); err != nil {
		return nil, err
	}
	order, err := s.orders.GetByPublicID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, order)
	return order, nil
}

// Cancel 用户取消订单。仅 PENDING 可取消,取消后回补库存,
// 已有支付意向时尝试退款。
func (s *OrderService) Cancel(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.GetByID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusPending {
		return nil, domain.ErrOrderNotCancellable
	}

	cancelled, err := s.orders.CancelAndRestock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if cancelled.PaymentID != "" {
		if err := s.gateway.Refund(ctx, cancelled.PaymentID); err != nil {
			logger.Error(ctx, "Failed to refund cancelled order",
				"order_id", orderID, "payment_id", cancelled.PaymentID, "error", err)
		}
	}
	s.publishStatusChange(ctx, cancelled)
	return cancelled, nil
}

// MarkPaid 支付成功回调:标记为已支付
func (s *OrderService) MarkPaid(ctx context.Context, orderID, paymentID string) error {
	if err := s.orders.SetPaid(ctx, orderID, paymentID); err != nil {
		return err
	}
	order, err := s.orders.GetByPublicID(ctx, orderID)
	if err != nil {
		return err
	}
	s.publishStatusChange(ctx, order)
	s.publishPayment(ctx, domain.PaymentSucceeded, order, paymentID)
	return nil
}

// MarkFailed 支付失败回调:取消订单并回补库存
func (s *OrderService) MarkFailed(ctx context.Context, orderID string) error {
	order, err := s.orders.GetByPublicID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.StatusPending {
		return nil
	}
	cancelled, err := s.orders.CancelAndRestock(ctx, orderID)
	if err != nil {
		return err
	}
	s.publishStatusChange(ctx, cancelled)
	s.publishPayment(ctx, domain.PaymentFailed, cancelled, cancelled.PaymentID)
	return nil
}

// MarkRefunded 退款回调:取消订单并回补库存,已取消时幂等
func (s *OrderService) MarkRefunded(ctx context.Context, orderID string) error {
	order, err := s.orders.GetByPublicID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == domain.StatusCancelled {
		return nil
	}
	cancelled, err := s.orders.CancelAndRestock(ctx, orderID)
	if err != nil {
		return err
	}
	s.publishStatusChange(ctx, cancelled)
	return nil
}

func (s *OrderService) publishPayment(ctx context.Context, eventType string, order *domain.Order, paymentID string) {
	err := s.publisher.PublishPayment(ctx, domain.PaymentEvent{
		Type:       eventType,
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		PaymentID:  paymentID,
		OccurredAt: time.Now(),
	})
	if err != nil {
		logger.Warn(ctx, "Failed to publish payment event", "order_id", order.OrderID, "error", err)
	}
}

func (s *OrderService) publishStatusChange(ctx context.Context, order *domain.Order) {
	err := s.publisher.PublishOrderStatusChanged(ctx, domain.OrderStatusChangedEvent{
		OrderID:   order.OrderID,
		UserID:    order.UserID,
		Status:    order.Status,
		ChangedAt: time.Now(),
	})
	if err != nil {
		logger.Warn(ctx, "Failed to publish order status event", "order_id", order.OrderID, "error", err)
	}
}
