package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestItemKeepsUnknownKeys(t *testing.T) {
	var item Item
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":4,"sku":"X-9","price":"2.50"}`), &item))
	assert.Equal(t, 4, item.Quantity)
	assert.Len(t, item.Attributes, 2)

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"quantity":4,"sku":"X-9","price":"2.50"}`, string(out))
}

func TestItemWithoutQuantity(t *testing.T) {
	var item Item
	require.NoError(t, json.Unmarshal([]byte(`{"sku":"X-9"}`), &item))
	assert.Zero(t, item.Quantity)

	assert.Error(t, json.Unmarshal([]byte(`{"quantity":"four"}`), &item))
}

func TestBeforeSaveDerivesQuantity(t *testing.T) {
	po := &PurchaseOrder{
		Items:    datatypes.NewJSONSlice([]Item{{Quantity: 3}, {Quantity: 5}}),
		Quantity: 100,
	}
	require.NoError(t, po.BeforeSave(nil))
	assert.Equal(t, 8, po.Quantity)
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusComplete.Valid())
	assert.True(t, StatusCanceled.Valid())
	assert.False(t, OrderStatus("lost").Valid())
	assert.False(t, OrderStatus("").Valid())
}
