package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSlugTaken         = errors.New("slug already in use")
)

// ImageList 以 JSON 数组存储的图片 URL 列表
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *ImageList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for ImageList: %T", value)
	}
}

type Category struct {
	gorm.Model
	CategoryID string `gorm:"column:category_id;type:varchar(36);uniqueIndex;not null" json:"id"`
	Name       string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Slug       string `gorm:"column:slug;type:varchar(100);uniqueIndex;not null" json:"slug"`
	ImageURL   string `gorm:"column:image_url;type:varchar(255)" json:"imageUrl"`
	// 列表查询时由 join 填充
	ProductCount int64 `gorm:"->;-:migration" json:"productCount"`
}

func (Category) TableName() string { return "categories" }

type Product struct {
	gorm.Model
	ProductID   string          `gorm:"column:product_id;type:varchar(36);uniqueIndex;not null" json:"id"`
	Name        string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Slug        string          `gorm:"column:slug;type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string          `gorm:"column:description;type:text" json:"description"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	Stock       int             `gorm:"column:stock;not null;default:0" json:"stock"`
	Images      ImageList       `gorm:"column:images;type:json" json:"images"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CategoryID  uint            `gorm:"column:category_id;index" json:"-"`
	Category    *Category       `json:"category,omitempty"`
}

func (Product) TableName() string { return "products" }

// FirstImage 返回首张图片，购物车快照使用
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductFilter 商品列表过滤条件
type ProductFilter struct {
	Page         int
	Limit        int
	CategorySlug string
	Search       string
	Sort         string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
}

type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	GetByPublicID(ctx context.Context, productID string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	// FindByIDs 按公开 ID 批量查询，一次往返
	FindByIDs(ctx context.Context, productIDs []string) ([]*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	Delete(ctx context.Context, productID string) error
}

type CategoryRepository interface {
	Save(ctx context.Context, category *Category) error
	GetByPublicID(ctx context.Context, categoryID string) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Delete(ctx context.Context, categoryID string) error
}
