package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrCartBusy 同一用户的并发修改未能在重试窗口内拿到锁
	ErrCartBusy = errors.New("cart is being modified, try again")
)

// Item 购物车行项目，价格与图片为加入时的快照
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// State 购物车在缓存中的持久化形态
type State struct {
	Items []Item `json:"items"`
}

func (s *State) IsEmpty() bool {
	return s == nil || len(s.Items) == 0
}

func (s *State) find(productID string) int {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Merge 合并行项目：已存在则累加数量，否则追加快照
func (s *State) Merge(item Item) {
	if i := s.find(item.ProductID); i >= 0 {
		s.Items[i].Quantity += item.Quantity
		return
	}
	s.Items = append(s.Items, item)
}

// SetQuantity 覆盖数量，quantity <= 0 时移除该行
func (s *State) SetQuantity(productID string, quantity int) error {
	i := s.find(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity <= 0 {
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
		return nil
	}
	s.Items[i].Quantity = quantity
	return nil
}

// Remove 移除行项目，不存在时为空操作
func (s *State) Remove(productID string) {
	if i := s.find(productID); i >= 0 {
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
	}
}

// View 读取购物车时返回的校验后视图，总价按商品当前价格计算
type View struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// EmptyView 空购物车视图
func EmptyView() *View {
	return &View{Items: []Item{}, Total: decimal.Zero}
}
