package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"vendor-service/internal/cache"
	"vendor-service/internal/codegen"
	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/internal/repository"
	"vendor-service/prometheus"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CreatePurchaseOrderInput holds the client supplied fields of a new order.
// The order quantity is always derived from Items.
type CreatePurchaseOrderInput struct {
	VendorID      uint
	OrderDate     time.Time
	DeliveryDate  time.Time
	Items         []model.Item
	Status        model.OrderStatus
	QualityRating *float64
}

// OptionalFloat tells an omitted JSON field apart from an explicit null
type OptionalFloat struct {
	Set   bool
	Value *float64
}

func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	o.Set = true
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	o.Value = &f
	return nil
}

// UpdatePurchaseOrderInput holds the fields to change; nil fields are left alone.
// A QualityRating that is Set with a nil Value clears the rating.
type UpdatePurchaseOrderInput struct {
	VendorID      *uint
	OrderDate     *time.Time
	DeliveryDate  *time.Time
	Items         []model.Item
	Status        *model.OrderStatus
	QualityRating OptionalFloat
}

// PurchaseOrderService runs the purchase order workflow and keeps vendor metrics current.
// Every mutation and the recomputation it triggers commit in one transaction while the
// affected vendors are locked.
type PurchaseOrderService struct {
	store   *repository.Store
	engine  *performance.Engine
	locks   *performance.VendorLocks
	codes   *codegen.Allocator
	metrics cache.MetricsCache
	log     *zap.Logger
	now     func() time.Time
}

// NewPurchaseOrderService creates a purchase order service
func NewPurchaseOrderService(
	store *repository.Store,
	engine *performance.Engine,
	locks *performance.VendorLocks,
	codes *codegen.Allocator,
	metrics cache.MetricsCache,
	log *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		store:   store,
		engine:  engine,
		locks:   locks,
		codes:   codes,
		metrics: metrics,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for issue and acknowledgment dates
func (s *PurchaseOrderService) WithClock(now func() time.Time) *PurchaseOrderService {
	s.now = now
	return s
}

// Create stores a new order under a fresh PO number and recomputes its vendor.
// An order created as complete is acknowledged at creation time.
func (s *PurchaseOrderService) Create(ctx context.Context, in CreatePurchaseOrderInput) (*model.PurchaseOrder, error) {
	ctx, span := tracer.Start(ctx, "service.CreatePurchaseOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("vendor.id", int64(in.VendorID)))

	if err := validateCreate(in); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(in.VendorID)
	defer unlock()

	now := s.now()
	po := &model.PurchaseOrder{
		VendorID:      in.VendorID,
		OrderDate:     in.OrderDate,
		DeliveryDate:  in.DeliveryDate,
		Items:         datatypes.NewJSONSlice(in.Items),
		Status:        in.Status,
		QualityRating: in.QualityRating,
		IssueDate:     now,
	}
	if po.IsComplete() {
		po.AcknowledgmentDate = &now
	}

	var outcome *performance.Outcome
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := s.requireVendor(ctx, tx, in.VendorID); err != nil {
			return err
		}

		_, err := s.codes.Assign(ctx, tx.PONumberExists, func(code string) error {
			po.ID = 0
			po.PONumber = code
			// savepoint so a lost race on the unique index does not abort the transaction
			err := tx.InTx(ctx, func(sp *repository.Store) error {
				return sp.CreatePurchaseOrder(ctx, po)
			})
			if errors.Is(err, repository.ErrDuplicate) {
				s.log.Warn("PO number taken concurrently, drawing another", zap.String("po_number", code))
				return codegen.ErrCollision
			}
			return err
		})
		if err != nil {
			return err
		}

		outcome, err = s.engine.Recompute(ctx, tx, in.VendorID)
		return err
	})
	if err != nil {
		return nil, translate(err, "purchase order")
	}

	s.published(ctx, outcome)
	po.Vendor = outcome.Vendor
	prometheus.RecordOperation("purchase_order", "create")
	s.log.Info("Purchase order created",
		zap.Uint("po_id", po.ID),
		zap.String("po_number", po.PONumber),
		zap.Uint("vendor_id", po.VendorID),
		zap.String("status", string(po.Status)))
	return po, nil
}

// Update applies a partial update and recomputes the owning vendor, plus the previous
// owner when the order moves to another vendor. When the status is part of the update
// the acknowledgment date is set to now for complete and cleared for anything else.
func (s *PurchaseOrderService) Update(ctx context.Context, id uint, in UpdatePurchaseOrderInput) (*model.PurchaseOrder, error) {
	ctx, span := tracer.Start(ctx, "service.UpdatePurchaseOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("po.id", int64(id)))

	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	current, err := s.store.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, translate(err, "purchase order")
	}
	previousVendor := current.VendorID
	affected := []uint{previousVendor}
	if in.VendorID != nil && *in.VendorID != previousVendor {
		affected = append(affected, *in.VendorID)
	}

	unlock := s.locks.Lock(affected...)
	defer unlock()

	var (
		po       *model.PurchaseOrder
		outcomes []*performance.Outcome
	)
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		po, err = s.lockOrder(ctx, tx, id, previousVendor)
		if err != nil {
			return err
		}
		if in.VendorID != nil && *in.VendorID != previousVendor {
			if err := s.requireVendor(ctx, tx, *in.VendorID); err != nil {
				return err
			}
		}

		s.apply(po, in)
		if err := tx.SavePurchaseOrder(ctx, po); err != nil {
			return err
		}

		for _, vendorID := range sortedIDs(affected) {
			outcome, err := s.engine.Recompute(ctx, tx, vendorID)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, outcome)
			if vendorID == po.VendorID {
				po.Vendor = outcome.Vendor
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "purchase order")
	}

	s.published(ctx, outcomes...)
	prometheus.RecordOperation("purchase_order", "update")
	s.log.Info("Purchase order updated",
		zap.Uint("po_id", po.ID),
		zap.Uint("vendor_id", po.VendorID),
		zap.String("status", string(po.Status)))
	return po, nil
}

// Acknowledge marks an order as acknowledged now and completes it.
// Acknowledging a complete order fails with ErrAlreadyAcknowledged and changes nothing.
func (s *PurchaseOrderService) Acknowledge(ctx context.Context, id uint) (*model.PurchaseOrder, error) {
	ctx, span := tracer.Start(ctx, "service.AcknowledgePurchaseOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("po.id", int64(id)))

	current, err := s.store.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, translate(err, "purchase order")
	}

	unlock := s.locks.Lock(current.VendorID)
	defer unlock()

	var (
		po      *model.PurchaseOrder
		outcome *performance.Outcome
	)
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		po, err = s.lockOrder(ctx, tx, id, current.VendorID)
		if err != nil {
			return err
		}
		if po.IsComplete() {
			return ErrAlreadyAcknowledged
		}

		now := s.now()
		po.AcknowledgmentDate = &now
		po.Status = model.StatusComplete
		if err := tx.SavePurchaseOrder(ctx, po); err != nil {
			return err
		}

		outcome, err = s.engine.Recompute(ctx, tx, po.VendorID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyAcknowledged) {
			s.log.Warn("Purchase order already acknowledged", zap.Uint("po_id", id))
		}
		return nil, translate(err, "purchase order")
	}

	s.published(ctx, outcome)
	po.Vendor = outcome.Vendor
	prometheus.RecordOperation("purchase_order", "acknowledge")
	s.log.Info("Purchase order acknowledged", zap.Uint("po_id", po.ID), zap.Uint("vendor_id", po.VendorID))
	return po, nil
}

// Delete removes an order and recomputes its vendor. A vendor left without orders
// keeps its last metrics.
func (s *PurchaseOrderService) Delete(ctx context.Context, id uint) error {
	ctx, span := tracer.Start(ctx, "service.DeletePurchaseOrder")
	defer span.End()

	current, err := s.store.GetPurchaseOrder(ctx, id)
	if err != nil {
		return translate(err, "purchase order")
	}

	unlock := s.locks.Lock(current.VendorID)
	defer unlock()

	var outcome *performance.Outcome
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := s.lockOrder(ctx, tx, id, current.VendorID); err != nil {
			return err
		}
		if err := tx.DeletePurchaseOrder(ctx, id); err != nil {
			return err
		}
		var err error
		outcome, err = s.engine.Recompute(ctx, tx, current.VendorID)
		return err
	})
	if err != nil {
		return translate(err, "purchase order")
	}

	s.published(ctx, outcome)
	prometheus.RecordOperation("purchase_order", "delete")
	s.log.Info("Purchase order deleted", zap.Uint("po_id", id), zap.Uint("vendor_id", current.VendorID))
	return nil
}

// Get returns one order with its vendor loaded
func (s *PurchaseOrderService) Get(ctx context.Context, id uint) (*model.PurchaseOrder, error) {
	po, err := s.store.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, translate(err, "purchase order")
	}
	return po, nil
}

// List returns one page of orders with their vendors loaded
func (s *PurchaseOrderService) List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, validationError("unknown status %q", *filter.Status)
	}
	orders, total, err := s.store.ListPurchaseOrders(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "purchase order")
	}
	return orders, total, nil
}

// lockOrder row-locks the order and checks it still belongs to the vendor whose
// in-process lock the caller holds.
func (s *PurchaseOrderService) lockOrder(ctx context.Context, tx *repository.Store, id, vendorID uint) (*model.PurchaseOrder, error) {
	po, err := tx.LockPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.VendorID != vendorID {
		return nil, fmt.Errorf("%w: purchase order %d was moved to another vendor, retry", ErrConflict, id)
	}
	return po, nil
}

func (s *PurchaseOrderService) requireVendor(ctx context.Context, tx *repository.Store, vendorID uint) error {
	_, err := tx.LockVendor(ctx, vendorID)
	if errors.Is(err, repository.ErrNotFound) {
		return validationError("vendor %d does not exist", vendorID)
	}
	return err
}

func (s *PurchaseOrderService) apply(po *model.PurchaseOrder, in UpdatePurchaseOrderInput) {
	if in.VendorID != nil {
		po.VendorID = *in.VendorID
	}
	if in.OrderDate != nil {
		po.OrderDate = *in.OrderDate
	}
	if in.DeliveryDate != nil {
		po.DeliveryDate = *in.DeliveryDate
	}
	if in.Items != nil {
		po.Items = datatypes.NewJSONSlice(in.Items)
	}
	if in.QualityRating.Set {
		po.QualityRating = in.QualityRating.Value
	}
	if in.Status != nil {
		po.Status = *in.Status
		if po.IsComplete() {
			now := s.now()
			po.AcknowledgmentDate = &now
		} else {
			po.AcknowledgmentDate = nil
		}
	}
	po.Vendor = nil
}

// published evicts cached metrics and refreshes the fulfillment gauge once recomputations are committed
func (s *PurchaseOrderService) published(ctx context.Context, outcomes ...*performance.Outcome) {
	for _, o := range outcomes {
		if o == nil || o.Skipped {
			continue
		}
		if err := s.metrics.Delete(ctx, o.Vendor.ID); err != nil {
			s.log.Warn("Failed to evict cached metrics", zap.Uint("vendor_id", o.Vendor.ID), zap.Error(err))
		}
		prometheus.UpdateVendorFulfillment(o.Vendor.VendorCode, o.Vendor.FulfillmentRate)
	}
}

func validateCreate(in CreatePurchaseOrderInput) error {
	if in.VendorID == 0 {
		return validationError("vendor is required")
	}
	if in.OrderDate.IsZero() {
		return validationError("order_date is required")
	}
	if in.DeliveryDate.IsZero() {
		return validationError("delivery_date is required")
	}
	if !in.Status.Valid() {
		return validationError("unknown status %q", in.Status)
	}
	if len(in.Items) == 0 {
		return validationError("at least one item is required")
	}
	return validateCommon(in.Items, in.QualityRating)
}

func validateUpdate(in UpdatePurchaseOrderInput) error {
	if in.VendorID != nil && *in.VendorID == 0 {
		return validationError("vendor must not be empty")
	}
	if in.Status != nil && !in.Status.Valid() {
		return validationError("unknown status %q", *in.Status)
	}
	if in.Items != nil && len(in.Items) == 0 {
		return validationError("at least one item is required")
	}
	if in.OrderDate != nil && in.OrderDate.IsZero() {
		return validationError("order_date must not be empty")
	}
	if in.DeliveryDate != nil && in.DeliveryDate.IsZero() {
		return validationError("delivery_date must not be empty")
	}
	return validateCommon(in.Items, in.QualityRating.Value)
}

func validateCommon(items []model.Item, rating *float64) error {
	for i, item := range items {
		if item.Quantity < 0 {
			return validationError("items[%d].quantity must not be negative", i)
		}
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		return validationError("quality_rating must be between 0 and 5")
	}
	return nil
}

func sortedIDs(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
