package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByPublicID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockAddressRepo struct {
	mock.Mock
}

func (m *mockAddressRepo) Save(ctx context.Context, address *domain.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockAddressRepo) GetByPublicID(ctx context.Context, addressID string) (*domain.Address, error) {
	args := m.Called(ctx, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Address), args.Error(1)
}

func (m *mockAddressRepo) ClearMain(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockAddressRepo) Delete(ctx context.Context, addressID string) error {
	args := m.Called(ctx, addressID)
	return args.Error(0)
}

func newUserService() (*UserService, *mockUserRepo, *mockAddressRepo) {
	users := new(mockUserRepo)
	addresses := new(mockAddressRepo)
	tokens := NewTokenManager("test-secret", time.Hour)
	return NewUserService(users, addresses, tokens), users, addresses
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserService()

	users.On("GetByEmail", ctx, "novo@teste.com").Return(nil, domain.ErrUserNotFound)
	users.On("Create", ctx, mock.Anything).Return(nil)

	result, err := svc.Register(ctx, RegisterCommand{
		Email:    "novo@teste.com",
		Password: "senha-secreta",
		Name:     "Novo Usuário",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, domain.RoleCustomer, result.User.Role)
	assert.NotEqual(t, "senha-secreta", result.User.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.Password), []byte("senha-secreta")))
}

func TestRegisterEmailTaken(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserService()

	users.On("GetByEmail", ctx, "existe@teste.com").Return(&domain.User{Email: "existe@teste.com"}, nil)

	_, err := svc.Register(ctx, RegisterCommand{Email: "existe@teste.com", Password: "senha", Name: "X"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserService()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("senha-correta"), bcrypt.MinCost)
	users.On("GetByEmail", ctx, "user@teste.com").Return(&domain.User{
		UserID:   "u1",
		Email:    "user@teste.com",
		Password: string(hashed),
		Role:     domain.RoleCustomer,
	}, nil)

	result, err := svc.Login(ctx, "user@teste.com", "senha-correta")
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(ctx, "user@teste.com", "senha-errada")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserService()

	users.On("GetByEmail", ctx, "nao-existe@teste.com").Return(nil, domain.ErrUserNotFound)

	// 未注册邮箱与密码错误返回同一错误
	_, err := svc.Login(ctx, "nao-existe@teste.com", "qualquer")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAddAddressFirstBecomesMain(t *testing.T) {
	ctx := context.Background()
	svc, _, addresses := newUserService()

	addresses.On("ListByUser", ctx, "u1").Return([]*domain.Address{}, nil)
	addresses.On("Save", ctx, mock.Anything).Return(nil)

	address, err := svc.AddAddress(ctx, "u1", AddAddressCommand{
		Street: "Rua das Flores", Number: "123", City: "São Paulo", State: "SP", ZipCode: "01234-567",
	})
	assert.NoError(t, err)
	assert.True(t, address.IsMain)
	addresses.AssertNotCalled(t, "ClearMain", mock.Anything, mock.Anything)
}

func TestAddAddressNewMainClearsOld(t *testing.T) {
	ctx := context.Background()
	svc, _, addresses := newUserService()

	addresses.On("ListByUser", ctx, "u1").Return([]*domain.Address{
		{AddressID: "a1", IsMain: true},
	}, nil)
	addresses.On("ClearMain", ctx, "u1").Return(nil)
	addresses.On("Save", ctx, mock.Anything).Return(nil)

	address, err := svc.AddAddress(ctx, "u1", AddAddressCommand{
		Street: "Rua Nova", Number: "45", City: "São Paulo", State: "SP", ZipCode: "04567-000",
		IsMain: true,
	})
	assert.NoError(t, err)
	assert.True(t, address.IsMain)
	addresses.AssertExpectations(t)
}

func TestDeleteAddressOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _, addresses := newUserService()

	addresses.On("GetByPublicID", ctx, "a1").Return(&domain.Address{AddressID: "a1", UserID: "outro"}, nil)

	err := svc.DeleteAddress(ctx, "u1", "a1")
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)
	addresses.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
