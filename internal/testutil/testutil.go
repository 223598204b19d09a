package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB opens a private in-memory sqlite database with every table migrated
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	conn, err := database.Open(&config.DBConfig{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel:   gormLogger.Silent,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(conn); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Store returns a repository bound to a fresh database
func Store(tb testing.TB) *repository.Store {
	tb.Helper()
	return repository.New(DB(tb))
}

var codeSeq atomic.Int64

func nextCode() string {
	return fmt.Sprintf("%06d", codeSeq.Add(1)%1000000)
}

// SeedVendor inserts a vendor with a unique code
func SeedVendor(tb testing.TB, ctx context.Context, store *repository.Store, name string) *model.Vendor {
	tb.Helper()
	v := &model.Vendor{
		Name:           name,
		ContactDetails: name + "@example.com",
		Address:        "1 Market Street",
		VendorCode:     nextCode(),
	}
	if err := store.CreateVendor(ctx, v); err != nil {
		tb.Fatalf("seed vendor: %v", err)
	}
	return v
}

// OrderOption customises SeedPurchaseOrder
type OrderOption func(po *model.PurchaseOrder)

// WithStatus sets the order status
func WithStatus(s model.OrderStatus) OrderOption {
	return func(po *model.PurchaseOrder) { po.Status = s }
}

// WithDates sets order and delivery dates
func WithDates(order, delivery time.Time) OrderOption {
	return func(po *model.PurchaseOrder) {
		po.OrderDate = order
		po.DeliveryDate = delivery
	}
}

// WithAcknowledgment sets the acknowledgment date
func WithAcknowledgment(at time.Time) OrderOption {
	return func(po *model.PurchaseOrder) { po.AcknowledgmentDate = &at }
}

// WithRating sets the quality rating
func WithRating(r float64) OrderOption {
	return func(po *model.PurchaseOrder) { po.QualityRating = &r }
}

// WithItems sets the items
func WithItems(quantities ...int) OrderOption {
	return func(po *model.PurchaseOrder) {
		items := make([]model.Item, 0, len(quantities))
		for _, q := range quantities {
			items = append(items, model.Item{Quantity: q})
		}
		po.Items = datatypes.NewJSONSlice(items)
	}
}

// SeedPurchaseOrder inserts a pending order for vendorID, adjusted by opts
func SeedPurchaseOrder(tb testing.TB, ctx context.Context, store *repository.Store, vendorID uint, opts ...OrderOption) *model.PurchaseOrder {
	tb.Helper()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	po := &model.PurchaseOrder{
		PONumber:     nextCode(),
		VendorID:     vendorID,
		OrderDate:    now,
		DeliveryDate: now.Add(7 * 24 * time.Hour),
		Items:        datatypes.NewJSONSlice([]model.Item{{Quantity: 1}}),
		Status:       model.StatusPending,
		IssueDate:    now,
	}
	for _, opt := range opts {
		opt(po)
	}
	if err := store.CreatePurchaseOrder(ctx, po); err != nil {
		tb.Fatalf("seed purchase order: %v", err)
	}
	return po
}
