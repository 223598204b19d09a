package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"vendor-service/internal/cache"
	"vendor-service/internal/codegen"
	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/internal/repository"
	"vendor-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateVendorAllocatesCode(t *testing.T) {
	f := newFixture(t)

	v := f.vendor(t, "Acme")
	assert.NotZero(t, v.ID)
	assert.Regexp(t, `^[0-9]{6}$`, v.VendorCode)
	assert.Equal(t, performance.Metrics{}, performance.MetricsOf(v))
}

func TestCreateVendorRequiresName(t *testing.T) {
	f := newFixture(t)

	_, err := f.vendors.Create(context.Background(), CreateVendorInput{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateVendorSkipsTakenCode(t *testing.T) {
	f := newFixtureWithCodes(t, codegen.New(5).WithSource(codes(111111, 111111, 222222)))

	first := f.vendor(t, "Acme")
	second := f.vendor(t, "Globex")

	assert.Equal(t, "111111", first.VendorCode)
	assert.Equal(t, "222222", second.VendorCode)
}

func TestCreateVendorCodeSpaceExhausted(t *testing.T) {
	f := newFixtureWithCodes(t, codegen.New(3).WithSource(codes(5)))
	f.vendor(t, "Acme")

	_, err := f.vendors.Create(context.Background(), CreateVendorInput{Name: "Globex"})
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateVendorIdentityOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vendor(t, "Acme")

	got, err := f.vendors.Update(ctx, v.ID, UpdateVendorInput{Address: ptr("Pier 9")})
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "Pier 9", got.Address)
	assert.Equal(t, v.VendorCode, got.VendorCode)

	_, err = f.vendors.Update(ctx, v.ID, UpdateVendorInput{Name: ptr("")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.vendors.Update(ctx, 9999, UpdateVendorInput{Address: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListVendorsSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.vendor(t, "Acme Tools")
	f.vendor(t, "Globex")
	f.vendor(t, "Acme Paints")

	vendors, total, err := f.vendors.List(ctx, repository.VendorFilter{Search: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, vendors, 2)
	assert.Equal(t, "Acme Tools", vendors[0].Name)

	vendors, total, err = f.vendors.List(ctx, repository.VendorFilter{Page: repository.Page{Page: 2, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Acme Paints", vendors[0].Name)
}

func TestDeleteVendorCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vendor(t, "Acme")
	other := f.vendor(t, "Globex")

	po, err := f.orders.Create(ctx, CreatePurchaseOrderInput{
		VendorID:     v.ID,
		OrderDate:    daysAgo(3),
		DeliveryDate: daysAgo(1),
		Items:        []model.Item{{Quantity: 2}},
		Status:       model.StatusComplete,
	})
	require.NoError(t, err)
	testutil.SeedPurchaseOrder(t, ctx, f.store, other.ID)

	require.NoError(t, f.vendors.Delete(ctx, v.ID))

	_, err = f.vendors.Get(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.orders.Get(ctx, po.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.history(t, v.ID))

	orders, _, err := f.orders.List(ctx, repository.PurchaseOrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	assert.ErrorIs(t, f.vendors.Delete(ctx, v.ID), ErrNotFound)
}

func TestGetVendorMetricsIsReadThrough(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vendor(t, "Acme")

	m, err := f.vendors.GetVendorMetrics(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, performance.Metrics{}, m)

	// a write that bypasses the services is not visible until the entry is evicted
	v.QualityRatingAvg = 4
	require.NoError(t, f.store.SaveVendorMetrics(ctx, v))
	m, err = f.vendors.GetVendorMetrics(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.QualityRatingAvg)

	_, err = f.orders.Create(ctx, CreatePurchaseOrderInput{
		VendorID:      v.ID,
		OrderDate:     daysAgo(2),
		DeliveryDate:  daysAgo(1),
		Items:         []model.Item{{Quantity: 1}},
		Status:        model.StatusPending,
		QualityRating: ptr(3.0),
	})
	require.NoError(t, err)

	m, err = f.vendors.GetVendorMetrics(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, m.QualityRatingAvg)
	assert.Equal(t, 0.0, m.FulfillmentRate)
}

// gatedCache holds its first Set until release is closed
type gatedCache struct {
	cache.MetricsCache
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func (g *gatedCache) Set(ctx context.Context, vendorID uint, m performance.Metrics) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.reached)
		<-g.release
	}
	return g.MetricsCache.Set(ctx, vendorID, m)
}

func TestGetVendorMetricsFillDoesNotOverwriteRecompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vendor(t, "Acme")

	gated := &gatedCache{MetricsCache: f.metrics, reached: make(chan struct{}), release: make(chan struct{})}
	vendors := NewVendorService(f.store, codegen.New(20), f.locks, gated, zap.NewNop())

	read := make(chan error, 1)
	go func() {
		_, err := vendors.GetVendorMetrics(ctx, v.ID)
		read <- err
	}()
	<-gated.reached

	created := make(chan error, 1)
	go func() {
		in := pending(v.ID)
		in.Status = model.StatusComplete
		in.DeliveryDate = clock
		in.QualityRating = ptr(4.0)
		_, err := f.orders.Create(ctx, in)
		created <- err
	}()

	select {
	case err := <-created:
		close(gated.release)
		t.Fatalf("order committed while a cache fill was pending: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(gated.release)
	require.NoError(t, <-read)
	require.NoError(t, <-created)

	m, err := vendors.GetVendorMetrics(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, performance.MetricsOf(f.reload(t, v.ID)), m)
	assert.Equal(t, 4.0, m.QualityRatingAvg)
	assert.Equal(t, 100.0, m.FulfillmentRate)
}

func TestGetVendorMetricsLoadIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	v := f.vendor(t, "Acme")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := f.vendors.GetVendorMetrics(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, performance.Metrics{}, m)
}

func TestGetVendorMetricsUnknownVendor(t *testing.T) {
	f := newFixture(t)

	_, err := f.vendors.GetVendorMetrics(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVendorHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vendor(t, "Acme")

	po, err := f.orders.Create(ctx, CreatePurchaseOrderInput{
		VendorID:     v.ID,
		OrderDate:    daysAgo(2),
		DeliveryDate: daysAgo(1),
		Items:        []model.Item{{Quantity: 1}},
		Status:       model.StatusPending,
	})
	require.NoError(t, err)
	_, err = f.orders.Acknowledge(ctx, po.ID)
	require.NoError(t, err)

	rows, total, err := f.vendors.History(ctx, v.ID, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, 100.0, rows[0].FulfillmentRate)
	assert.Equal(t, 0.0, rows[1].FulfillmentRate)

	_, _, err = f.vendors.History(ctx, 404, repository.Page{})
	assert.ErrorIs(t, err, ErrNotFound)
}
