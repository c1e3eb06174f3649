package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

const (
	cartKeyPrefix = "cart:"
	lockKeyPrefix = "cart:lock:"

	lockTTL        = 2 * time.Second
	lockRetries    = 10
	lockRetryDelay = 50 * time.Millisecond
)

// Cache 购物车存储所需的最小缓存接口
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}

// ProductReader 购物车校验所需的目录查询接口
type ProductReader interface {
	GetByPublicID(ctx context.Context, productID string) (*catalogdomain.Product, error)
	FindByIDs(ctx context.Context, productIDs []string) ([]*catalogdomain.Product, error)
}

// CartService 管理缓存驻留的购物车。读操作无锁、尽力而为；
// 写操作通过按用户划分的 Redis 锁串行化，避免读-改-写丢失更新。
type CartService struct {
	cache    Cache
	products ProductReader
	ttl      time.Duration
}

func NewCartService(cache Cache, products ProductReader, ttl time.Duration) *CartService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &CartService{cache: cache, products: products, ttl: ttl}
}

// Raw 返回缓存中的原始购物车，不存在时返回 nil。结算流程使用。
func (s *CartService) Raw(ctx context.Context, userID string) (*domain.State, error) {
	return s.load(ctx, userID)
}

// Get 返回校验后的购物车视图：过滤掉已下架或库存不足的行，
// 总价按商品当前价格重新计算。过滤结果不回写缓存。
func (s *CartService) Get(ctx context.Context, userID string) (*domain.View, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.IsEmpty() {
		return domain.EmptyView(), nil
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

	view := domain.EmptyView()
	for _, item := range state.Items {
		p, ok := byID[item.ProductID]
		if !ok || !p.IsActive || p.Stock < item.Quantity {
			continue
		}
		view.Items = append(view.Items, item)
		view.Total = view.Total.Add(p.Price.Mul(decimalFromInt(item.Quantity)))
	}
	return view, nil
}

// Add 校验商品与库存后合并进购物车，刷新 TTL
func (s *CartService) Add(ctx context.Context, userID, productID string, quantity int) (*domain.State, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.products.GetByPublicID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, catalogdomain.ErrProductNotFound
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("%w: %s", catalogdomain.ErrInsufficientStock, product.Name)
	}

	var state *domain.State
	err = s.withLock(ctx, userID, func() error {
		var err error
		state, err = s.load(ctx, userID)
		if err != nil {
			return err
		}
		if state == nil {
			state = &domain.State{}
		}
		state.Merge(domain.Item{
			ProductID: product.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.FirstImage(),
			Quantity:  quantity,
		})
		return s.cache.SetJSON(ctx, cartKeyPrefix+userID, state, s.ttl)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// UpdateQuantity 覆盖行项目数量，quantity <= 0 时移除
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.State, error) {
	var state *domain.State
	err := s.withLock(ctx, userID, func() error {
		var err error
		state, err = s.load(ctx, userID)
		if err != nil {
			return err
		}
		if state == nil {
			return domain.ErrCartNotFound
		}
		if err := state.SetQuantity(productID, quantity); err != nil {
			return err
		}
		return s.cache.SetJSON(ctx, cartKeyPrefix+userID, state, s.ttl)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Remove 移除行项目
func (s *CartService) Remove(ctx context.Context, userID, productID string) (*domain.State, error) {
	var state *domain.State
	err := s.withLock(ctx, userID, func() error {
		var err error
		state, err = s.load(ctx, userID)
		if err != nil {
			return err
		}
		if state == nil {
			return domain.ErrCartNotFound
		}
		state.Remove(productID)
		return s.cache.SetJSON(ctx, cartKeyPrefix+userID, state, s.ttl)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Clear 直接删除缓存条目
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, cartKeyPrefix+userID)
}

func (s *CartService) load(ctx context.Context, userID string) (*domain.State, error) {
	raw, err := s.cache.Get(ctx, cartKeyPrefix+userID)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var state domain.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("corrupt cart state for user %s: %w", userID, err)
	}
	return &state, nil
}

func (s *CartService) withLock(ctx context.Context, userID string, fn func() error) error {
	key := lockKeyPrefix + userID
	for i := 0; i < lockRetries; i++ {
		ok, err := s.cache.SetNX(ctx, key, "1", lockTTL)
		if err != nil {
			return err
		}
		if ok {
			fnErr := fn()
			if err := s.cache.Delete(ctx, key); err != nil {
				logger.Warn(ctx, "Failed to release cart lock", "user_id", userID, "error", err)
			}
			return fnErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return domain.ErrCartBusy
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
