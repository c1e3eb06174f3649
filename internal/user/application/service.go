package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

const bcryptCost = 12

// UserService 用户注册/登录/资料/地址管理
type UserService struct {
	users     domain.UserRepository
	addresses domain.AddressRepository
	tokens    *TokenManager
}

func NewUserService(users domain.UserRepository, addresses domain.AddressRepository, tokens *TokenManager) *UserService {
	return &UserService{users: users, addresses: addresses, tokens: tokens}
}

// RegisterCommand 注册参数
type RegisterCommand struct {
	Email    string
	Password string
	Name     string
	CPF      string
	Phone    string
}

// AuthResult 注册/登录返回的令牌与用户信息
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register 注册新用户,邮箱唯一
func (s *UserService) Register(ctx context.Context, cmd RegisterCommand) (*AuthResult, error) {
	if _, err := s.users.GetByEmail(ctx, cmd.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		UserID:   uuid.NewString(),
		Email:    cmd.Email,
		Password: string(hashed),
		Name:     cmd.Name,
		Role:     domain.RoleCustomer,
		CPF:      cmd.CPF,
		Phone:    cmd.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.UserID, user.Role)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "User registered", "user_id", user.UserID)
	return &AuthResult{Token: token, User: user}, nil
}

// Login 校验凭证并签发令牌。用户不存在与密码错误返回同一错误,
// 避免探测已注册邮箱。
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.UserID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// GetProfile 查询用户资料
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByPublicID(ctx, userID)
}

// UpdateProfileCommand 资料更新参数,nil 字段不修改
type UpdateProfileCommand struct {
	Name  *string
	Phone *string
}

// UpdateProfile 更新用户资料
func (s *UserService) UpdateProfile(ctx context.Context, userID string, cmd UpdateProfileCommand) (*domain.User, error) {
	user, err := s.users.GetByPublicID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil {
		user.Name = *cmd.Name
	}
	if cmd.Phone != nil {
		user.Phone = *cmd.Phone
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddAddressCommand 新增地址参数
type AddAddressCommand struct {
	Label      string
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	ZipCode    string
	IsMain     bool
}

// AddAddress 新增收货地址。首个地址自动设为主地址,
// 设置新主地址时清除旧主地址标记。
func (s *UserService) AddAddress(ctx context.Context, userID string, cmd AddAddressCommand) (*domain.Address, error) {
	existing, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	isMain := cmd.IsMain || len(existing) == 0
	if isMain && len(existing) > 0 {
		if err := s.addresses.ClearMain(ctx, userID); err != nil {
			return nil, err
		}
	}

	address := &domain.Address{
		AddressID:  uuid.NewString(),
		UserID:     userID,
		Label:      cmd.Label,
		Street:     cmd.Street,
		Number:     cmd.Number,
		Complement: cmd.Complement,
		District:   cmd.District,
		City:       cmd.City,
		State:      cmd.State,
		ZipCode:    cmd.ZipCode,
		IsMain:     isMain,
	}
	if err := s.addresses.Save(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// ListAddresses 用户地址列表
func (s *UserService) ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error) {
	return s.addresses.ListByUser(ctx, userID)
}

// DeleteAddress 删除当前用户的地址
func (s *UserService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	address, err := s.addresses.GetByPublicID(ctx, addressID)
	if err != nil {
		return err
	}
	if address.UserID != userID {
		return domain.ErrAddressNotFound
	}
	return s.addresses.Delete(ctx, addressID)
}
