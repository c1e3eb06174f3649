package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAddressNotFound    = errors.New("address not found")
)

// Role 用户角色
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User 用户聚合根,Password 为 bcrypt 散列
type User struct {
	gorm.Model
	UserID   string `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password string `gorm:"type:varchar(100);not null" json:"-"`
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Role     Role   `gorm:"type:varchar(20);not null;default:CUSTOMER" json:"role"`
	CPF      string `gorm:"type:varchar(14)" json:"cpf,omitempty"`
	Phone    string `gorm:"type:varchar(20)" json:"phone,omitempty"`
}

// Address 收货地址,每个用户至多一个主地址
type Address struct {
	gorm.Model
	AddressID  string `gorm:"type:varchar(36);uniqueIndex;not null" json:"address_id"`
	UserID     string `gorm:"type:varchar(36);index;not null" json:"-"`
	Label      string `gorm:"type:varchar(50)" json:"label"`
	Street     string `gorm:"type:varchar(255);not null" json:"street"`
	Number     string `gorm:"type:varchar(20);not null" json:"number"`
	Complement string `gorm:"type:varchar(100)" json:"complement,omitempty"`
	District   string `gorm:"type:varchar(100)" json:"district"`
	City       string `gorm:"type:varchar(100);not null" json:"city"`
	State      string `gorm:"type:varchar(2);not null" json:"state"`
	ZipCode    string `gorm:"type:varchar(9);not null" json:"zip_code"`
	IsMain     bool   `gorm:"not null;default:false" json:"is_main"`
}

// UserRepository 用户持久化接口
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPublicID(ctx context.Context, userID string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// AddressRepository 地址持久化接口,SetMain 保证主地址唯一
type AddressRepository interface {
	Save(ctx context.Context, address *Address) error
	GetByPublicID(ctx context.Context, addressID string) (*Address, error)
	ListByUser(ctx context.Context, userID string) ([]*Address, error)
	ClearMain(ctx context.Context, userID string) error
	Delete(ctx context.Context, addressID string) error
}
