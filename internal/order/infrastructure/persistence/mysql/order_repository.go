package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/db"
)

type orderRepository struct {
	db *db.DB
}

func NewOrderRepository(database *db.DB) domain.OrderRepository {
	return &orderRepository{db: database}
}

// CreateWithItems 在单个事务内写入订单与行项目并扣减库存。
// 扣减使用条件更新防止超卖,任一商品库存不足则整体回滚。
func (r *orderRepository) CreateWithItems(ctx context.Context, order *domain.Order, decrements []domain.StockDecrement) error {
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for _, dec := range decrements {
			res := tx.Exec(
				"UPDATE `products` SET stock = stock - ? WHERE product_id = ? AND stock >= ?",
				dec.Quantity, dec.ProductID, dec.Quantity,
			)
			if res.Error != nil {
				return fmt.Errorf("failed to decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", catalogdomain.ErrInsufficientStock, dec.ProductID)
			}
		}
		return nil
	})
}

func (r *orderRepository) GetByPublicID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, page, limit int) ([]*domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []*domain.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.Status, trackingCode string) error {
	updates := map[string]interface{}{"status": status}
	if trackingCode != "" {
		updates["tracking_code"] = trackingCode
	}
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("order_id = ?", orderID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) SetPaymentIntent(ctx context.Context, orderID, paymentID string) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ?", orderID).
		Update("payment_id", paymentID)
	if res.Error != nil {
		return fmt.Errorf("failed to set payment intent: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// SetPaid 仅当订单仍处于 PENDING 时标记为已支付,重复回调幂等
func (r *orderRepository) SetPaid(ctx context.Context, orderID, paymentID string) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ? AND status = ?", orderID, domain.StatusPending).
		Updates(map[string]interface{}{"status": domain.StatusPaid, "payment_id": paymentID})
	if res.Error != nil {
		return fmt.Errorf("failed to mark order paid: %w", res.Error)
	}
	return nil
}

// CancelAndRestock 在单个事务内取消订单并回补行项目库存
func (r *orderRepository) CancelAndRestock(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Where("order_id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOrderNotFound
			}
			return fmt.Errorf("failed to load order for cancellation: %w", err)
		}
		if order.Status == domain.StatusCancelled {
			return nil
		}
		if err := tx.Model(&domain.Order{}).
			Where("id = ?", order.ID).
			Update("status", domain.StatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
		for _, item := range order.Items {
			if err := tx.Exec(
				"UPDATE `products` SET stock = stock + ? WHERE product_id = ?",
				item.Quantity, item.ProductID,
			).Error; err != nil {
				return fmt.Errorf("failed to restock product: %w", err)
			}
		}
		order.Status = domain.StatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
