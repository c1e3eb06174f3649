package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.Generate("user-1", domain.RoleAdmin)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	sub, role, err := tm.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", sub)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, err := tm.Generate("user-1", domain.RoleCustomer)
	assert.NoError(t, err)

	_, _, err = other.Parse(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Generate("user-1", domain.RoleCustomer)
	assert.NoError(t, err)

	_, _, err = tm.Parse(token)
	assert.Error(t, err)
}
