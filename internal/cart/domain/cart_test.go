package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func item(productID string, quantity int) Item {
	return Item{
		ProductID: productID,
		Name:      "Produto " + productID,
		Price:     decimal.RequireFromString("10.00"),
		Quantity:  quantity,
	}
}

func TestStateMerge(t *testing.T) {
	var state State

	state.Merge(item("p1", 2))
	state.Merge(item("p2", 1))
	assert.Len(t, state.Items, 2)

	state.Merge(item("p1", 3))
	assert.Len(t, state.Items, 2)
	assert.Equal(t, 5, state.Items[0].Quantity)
}

func TestStateSetQuantity(t *testing.T) {
	state := State{Items: []Item{item("p1", 2), item("p2", 1)}}

	err := state.SetQuantity("p1", 7)
	assert.NoError(t, err)
	assert.Equal(t, 7, state.Items[0].Quantity)

	err = state.SetQuantity("p2", 0)
	assert.NoError(t, err)
	assert.Len(t, state.Items, 1)

	err = state.SetQuantity("missing", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestStateRemove(t *testing.T) {
	state := State{Items: []Item{item("p1", 2)}}

	state.Remove("missing")
	assert.Len(t, state.Items, 1)

	state.Remove("p1")
	assert.True(t, state.IsEmpty())
}

func TestStateIsEmpty(t *testing.T) {
	var nilState *State
	assert.True(t, nilState.IsEmpty())
	assert.True(t, (&State{}).IsEmpty())
	assert.False(t, (&State{Items: []Item{item("p1", 1)}}).IsEmpty())
}
