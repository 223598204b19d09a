package service

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"vendor-service/internal/cache"
	"vendor-service/internal/codegen"
	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/internal/repository"
	"vendor-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var clock = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store   *repository.Store
	locks   *performance.VendorLocks
	metrics *cache.Memory
	vendors *VendorService
	orders  *PurchaseOrderService
	auth    *AuthService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCodes(t, codegen.New(20))
}

func newFixtureWithCodes(t *testing.T, codes *codegen.Allocator) *fixture {
	t.Helper()
	log := zap.NewNop()
	store := testutil.Store(t)
	locks := performance.NewVendorLocks()
	metrics := cache.NewMemory(time.Hour)
	engine := performance.NewEngine(log).WithClock(func() time.Time { return clock })

	return &fixture{
		store:   store,
		locks:   locks,
		metrics: metrics,
		vendors: NewVendorService(store, codes, locks, metrics, log),
		orders:  NewPurchaseOrderService(store, engine, locks, codes, metrics, log).WithClock(func() time.Time { return clock }),
		auth:    NewAuthService(store, log),
	}
}

func (f *fixture) vendor(t *testing.T, name string) *model.Vendor {
	t.Helper()
	v, err := f.vendors.Create(context.Background(), CreateVendorInput{Name: name, ContactDetails: "ops@" + name, Address: "Dock 4"})
	require.NoError(t, err)
	return v
}

func (f *fixture) history(t *testing.T, vendorID uint) []model.HistoricalPerformance {
	t.Helper()
	rows, _, err := f.store.ListHistoricalPerformance(context.Background(), vendorID, repository.Page{Limit: 100})
	require.NoError(t, err)
	return rows
}

func (f *fixture) reload(t *testing.T, vendorID uint) *model.Vendor {
	t.Helper()
	v, err := f.store.GetVendor(context.Background(), vendorID)
	require.NoError(t, err)
	return v
}

// codes returns a uuid source whose draws reduce to the given six digit codes
func codes(values ...uint64) func() uuid.UUID {
	i := 0
	return func() uuid.UUID {
		var u uuid.UUID
		binary.BigEndian.PutUint64(u[8:], values[i])
		if i < len(values)-1 {
			i++
		}
		return u
	}
}

func daysAgo(n int) time.Time {
	return clock.Add(-time.Duration(n) * 24 * time.Hour)
}

func ptr[T any](v T) *T {
	return &v
}
