package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/db"
)

type addressRepository struct {
	db *db.DB
}

func NewAddressRepository(database *db.DB) domain.AddressRepository {
	return &addressRepository{db: database}
}

func (r *addressRepository) Save(ctx context.Context, address *domain.Address) error {
	if err := r.db.WithContext(ctx).Save(address).Error; err != nil {
		return fmt.Errorf("failed to save address: %w", err)
	}
	return nil
}

func (r *addressRepository) GetByPublicID(ctx context.Context, addressID string) (*domain.Address, error) {
	var address domain.Address
	err := r.db.WithContext(ctx).Where("address_id = ?", addressID).First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return &address, nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	var addresses []*domain.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_main DESC, created_at ASC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (r *addressRepository) ClearMain(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).Model(&domain.Address{}).
		Where("user_id = ? AND is_main = ?", userID, true).
		Update("is_main", false).Error
	if err != nil {
		return fmt.Errorf("failed to clear main address: %w", err)
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, addressID string) error {
	res := r.db.WithContext(ctx).Where("address_id = ?", addressID).Delete(&domain.Address{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}
