package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestGetVendorNotFound(t *testing.T) {
	store := testutil.Store(t)

	_, err := store.GetVendor(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.GetPurchaseOrder(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDuplicateVendorCode(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	v := testutil.SeedVendor(t, ctx, store, "Acme")

	err := store.CreateVendor(ctx, &model.Vendor{Name: "Copy", VendorCode: v.VendorCode})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	exists, err := store.VendorCodeExists(ctx, v.VendorCode)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPurchaseOrderQuantityAndItems(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	v := testutil.SeedVendor(t, ctx, store, "Acme")

	var items []model.Item
	require.NoError(t, json.Unmarshal([]byte(`[{"quantity":3,"sku":"A-1"},{"quantity":5}]`), &items))
	po := testutil.SeedPurchaseOrder(t, ctx, store, v.ID, func(po *model.PurchaseOrder) {
		po.Items = datatypes.NewJSONSlice(items)
		po.Quantity = 99
	})
	assert.Equal(t, 8, po.Quantity)

	loaded, err := store.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Quantity)
	require.NotNil(t, loaded.Vendor)
	assert.Equal(t, "Acme", loaded.Vendor.Name)
	require.Len(t, loaded.Items, 2)
	assert.JSONEq(t, `"A-1"`, string(loaded.Items[0].Attributes["sku"]))

	loaded.Items = datatypes.NewJSONSlice([]model.Item{{Quantity: 2}})
	require.NoError(t, store.SavePurchaseOrder(ctx, loaded))
	reloaded, err := store.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Quantity)
}

func TestListPurchaseOrdersFilters(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	a := testutil.SeedVendor(t, ctx, store, "A")
	b := testutil.SeedVendor(t, ctx, store, "B")
	testutil.SeedPurchaseOrder(t, ctx, store, a.ID)
	testutil.SeedPurchaseOrder(t, ctx, store, a.ID, testutil.WithStatus(model.StatusComplete))
	testutil.SeedPurchaseOrder(t, ctx, store, b.ID)

	status := model.StatusPending
	orders, total, err := store.ListPurchaseOrders(ctx, repository.PurchaseOrderFilter{VendorID: &a.ID, Status: &status})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, a.ID, orders[0].VendorID)

	orders, total, err = store.ListPurchaseOrders(ctx, repository.PurchaseOrderFilter{Page: repository.Page{Page: 2, Limit: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, orders, 1)
}

func TestDeleteVendorCascades(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	v := testutil.SeedVendor(t, ctx, store, "Acme")
	other := testutil.SeedVendor(t, ctx, store, "Other")
	testutil.SeedPurchaseOrder(t, ctx, store, v.ID)
	kept := testutil.SeedPurchaseOrder(t, ctx, store, other.ID)
	require.NoError(t, store.CreateHistoricalPerformance(ctx, &model.HistoricalPerformance{VendorID: v.ID, Date: time.Now()}))

	require.NoError(t, store.InTx(ctx, func(tx *repository.Store) error {
		return tx.DeleteVendor(ctx, v.ID)
	}))

	orders, err := store.ListPurchaseOrdersByVendor(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	_, total, err := store.ListHistoricalPerformance(ctx, v.ID, repository.Page{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = store.GetPurchaseOrder(ctx, kept.ID)
	assert.NoError(t, err)

	err = store.DeleteVendor(ctx, v.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	boom := errors.New("boom")

	err := store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.CreateVendor(ctx, &model.Vendor{Name: "Ghost", VendorCode: "123456"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := store.VendorCodeExists(ctx, "123456")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, repository.Page{Page: 1, Limit: 20}, repository.Page{}.Normalize())
	assert.Equal(t, repository.Page{Page: 3, Limit: 20}, repository.Page{Page: 3, Limit: 500}.Normalize())
	assert.Equal(t, 10, repository.Page{Page: 3, Limit: 5}.Offset())
}
