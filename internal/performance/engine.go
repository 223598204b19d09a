package performance

import (
	"context"
	"fmt"
	"time"

	"vendor-service/internal/model"
	"vendor-service/prometheus"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("vendor-service/performance")

// Store is the data access the engine needs. It must be bound to the caller's
// transaction so the vendor update and the history insert commit together.
type Store interface {
	LockVendor(ctx context.Context, id uint) (*model.Vendor, error)
	ListPurchaseOrdersByVendor(ctx context.Context, vendorID uint) ([]model.PurchaseOrder, error)
	SaveVendorMetrics(ctx context.Context, v *model.Vendor) error
	CreateHistoricalPerformance(ctx context.Context, h *model.HistoricalPerformance) error
}

// Outcome describes what a recomputation did
type Outcome struct {
	Skipped bool
	Result  Result
	Vendor  *model.Vendor
	History *model.HistoricalPerformance
}

// Engine recomputes and persists vendor performance metrics
type Engine struct {
	log *zap.Logger
	now func() time.Time
}

// NewEngine returns an engine that stamps history rows with the wall clock
func NewEngine(log *zap.Logger) *Engine {
	return &Engine{
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for history timestamps
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Recompute reads every purchase order of the vendor, writes the recomputed metrics
// and appends one history row. A vendor without orders is left untouched.
// Callers run it inside a transaction while holding the vendor's lock.
func (e *Engine) Recompute(ctx context.Context, store Store, vendorID uint) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "performance.Recompute")
	defer span.End()
	span.SetAttributes(attribute.Int64("vendor.id", int64(vendorID)))

	done := prometheus.TrackRecompute()

	vendor, err := store.LockVendor(ctx, vendorID)
	if err != nil {
		done("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "load vendor")
		return nil, fmt.Errorf("load vendor %d: %w", vendorID, err)
	}

	orders, err := store.ListPurchaseOrdersByVendor(ctx, vendorID)
	if err != nil {
		done("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "list purchase orders")
		return nil, fmt.Errorf("list purchase orders of vendor %d: %w", vendorID, err)
	}

	result, ok := Compute(orders)
	if !ok {
		done("skipped")
		e.log.Debug("No purchase orders, metrics left unchanged", zap.Uint("vendor_id", vendorID))
		return &Outcome{Skipped: true, Vendor: vendor}, nil
	}

	result.Apply(vendor)
	if err := store.SaveVendorMetrics(ctx, vendor); err != nil {
		done("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "save vendor metrics")
		return nil, fmt.Errorf("save metrics of vendor %d: %w", vendorID, err)
	}

	// skipped metrics carry the vendor's stored value into the snapshot
	history := &model.HistoricalPerformance{
		VendorID:            vendor.ID,
		Date:                e.now(),
		OnTimeDeliveryRate:  vendor.OnTimeDeliveryRate,
		QualityRatingAvg:    vendor.QualityRatingAvg,
		AverageResponseTime: vendor.AverageResponseTime,
		FulfillmentRate:     vendor.FulfillmentRate,
	}
	if err := store.CreateHistoricalPerformance(ctx, history); err != nil {
		done("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "append history")
		return nil, fmt.Errorf("append history of vendor %d: %w", vendorID, err)
	}

	done("updated")
	span.SetAttributes(
		attribute.Int("orders", result.Orders),
		attribute.Int("orders.completed", result.Completed),
	)
	e.log.Info("Vendor performance recomputed",
		zap.Uint("vendor_id", vendor.ID),
		zap.Int("orders", result.Orders),
		zap.Int("completed", result.Completed),
		zap.Float64("on_time_delivery_rate", vendor.OnTimeDeliveryRate),
		zap.Float64("quality_rating_avg", vendor.QualityRatingAvg),
		zap.Float64("average_response_time", vendor.AverageResponseTime),
		zap.Float64("fulfillment_rate", vendor.FulfillmentRate))

	return &Outcome{Result: result, Vendor: vendor, History: history}, nil
}
