package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"vendor-service/internal/cache"
	"vendor-service/internal/codegen"
	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/internal/repository"
	"vendor-service/prometheus"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("vendor-service/service")

// CreateVendorInput holds the identity fields of a new vendor
type CreateVendorInput struct {
	Name           string
	ContactDetails string
	Address        string
}

// UpdateVendorInput holds the identity fields to change; nil fields are left alone
type UpdateVendorInput struct {
	Name           *string
	ContactDetails *string
	Address        *string
}

// VendorService manages vendors and serves their performance figures
type VendorService struct {
	store   *repository.Store
	codes   *codegen.Allocator
	locks   *performance.VendorLocks
	metrics cache.MetricsCache
	group   singleflight.Group
	log     *zap.Logger
}

// NewVendorService creates a vendor service
func NewVendorService(store *repository.Store, codes *codegen.Allocator, locks *performance.VendorLocks, metrics cache.MetricsCache, log *zap.Logger) *VendorService {
	return &VendorService{
		store:   store,
		codes:   codes,
		locks:   locks,
		metrics: metrics,
		log:     log,
	}
}

// Create stores a new vendor under a freshly allocated vendor code
func (s *VendorService) Create(ctx context.Context, in CreateVendorInput) (*model.Vendor, error) {
	ctx, span := tracer.Start(ctx, "service.CreateVendor")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("name is required")
	}

	var vendor *model.Vendor
	_, err := s.codes.Assign(ctx, s.store.VendorCodeExists, func(code string) error {
		vendor = &model.Vendor{
			Name:           name,
			ContactDetails: in.ContactDetails,
			Address:        in.Address,
			VendorCode:     code,
		}
		err := s.store.CreateVendor(ctx, vendor)
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Warn("Vendor code taken concurrently, drawing another", zap.String("vendor_code", code))
			return codegen.ErrCollision
		}
		return err
	})
	if err != nil {
		return nil, translate(err, "vendor")
	}

	prometheus.RecordOperation("vendor", "create")
	prometheus.UpdateVendorFulfillment(vendor.VendorCode, vendor.FulfillmentRate)
	span.SetAttributes(attribute.Int64("vendor.id", int64(vendor.ID)))
	s.log.Info("Vendor created", zap.Uint("vendor_id", vendor.ID), zap.String("vendor_code", vendor.VendorCode))
	return vendor, nil
}

// List returns one page of vendors
func (s *VendorService) List(ctx context.Context, filter repository.VendorFilter) ([]model.Vendor, int64, error) {
	vendors, total, err := s.store.ListVendors(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "vendor")
	}
	return vendors, total, nil
}

// Get returns one vendor
func (s *VendorService) Get(ctx context.Context, id uint) (*model.Vendor, error) {
	vendor, err := s.store.GetVendor(ctx, id)
	if err != nil {
		return nil, translate(err, "vendor")
	}
	return vendor, nil
}

// Update changes the identity fields of a vendor. Metrics cannot be set this way.
func (s *VendorService) Update(ctx context.Context, id uint, in UpdateVendorInput) (*model.Vendor, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, validationError("name must not be empty")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var vendor *model.Vendor
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		vendor, err = tx.LockVendor(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			vendor.Name = strings.TrimSpace(*in.Name)
		}
		if in.ContactDetails != nil {
			vendor.ContactDetails = *in.ContactDetails
		}
		if in.Address != nil {
			vendor.Address = *in.Address
		}
		return tx.UpdateVendorDetails(ctx, vendor)
	})
	if err != nil {
		return nil, translate(err, "vendor")
	}

	prometheus.RecordOperation("vendor", "update")
	s.log.Info("Vendor updated", zap.Uint("vendor_id", id))
	return vendor, nil
}

// Delete removes a vendor together with its purchase orders and history
func (s *VendorService) Delete(ctx context.Context, id uint) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	var code string
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		vendor, err := tx.LockVendor(ctx, id)
		if err != nil {
			return err
		}
		code = vendor.VendorCode
		return tx.DeleteVendor(ctx, id)
	})
	if err != nil {
		return translate(err, "vendor")
	}

	if err := s.metrics.Delete(ctx, id); err != nil {
		s.log.Warn("Failed to evict cached metrics", zap.Uint("vendor_id", id), zap.Error(err))
	}
	prometheus.RemoveVendor(code)
	prometheus.RecordOperation("vendor", "delete")
	s.log.Info("Vendor deleted", zap.Uint("vendor_id", id), zap.String("vendor_code", code))
	return nil
}

// GetVendorMetrics returns the four stored performance figures of a vendor.
// It never recomputes; reads go through the metrics cache and misses are
// filled while holding the vendor's lock.
func (s *VendorService) GetVendorMetrics(ctx context.Context, id uint) (performance.Metrics, error) {
	m, ok, err := s.metrics.Get(ctx, id)
	if err != nil {
		s.log.Warn("Metrics cache read failed", zap.Uint("vendor_id", id), zap.Error(err))
	}
	if ok {
		prometheus.RecordCacheLookup(true)
		return m, nil
	}
	prometheus.RecordCacheLookup(false)

	v, err, _ := s.group.Do(strconv.FormatUint(uint64(id), 10), func() (interface{}, error) {
		// the load is shared by every waiter and outlives the first caller
		ctx := context.WithoutCancel(ctx)

		// writers evict the entry while holding this lock
		unlock := s.locks.Lock(id)
		defer unlock()

		vendor, err := s.store.GetVendor(ctx, id)
		if err != nil {
			return nil, err
		}
		m := performance.MetricsOf(vendor)
		if err := s.metrics.Set(ctx, id, m); err != nil {
			s.log.Warn("Metrics cache write failed", zap.Uint("vendor_id", id), zap.Error(err))
		}
		return m, nil
	})
	if err != nil {
		return performance.Metrics{}, translate(err, "vendor")
	}
	return v.(performance.Metrics), nil
}

// History returns one page of a vendor's performance snapshots, newest first
func (s *VendorService) History(ctx context.Context, id uint, page repository.Page) ([]model.HistoricalPerformance, int64, error) {
	if _, err := s.store.GetVendor(ctx, id); err != nil {
		return nil, 0, translate(err, "vendor")
	}
	rows, total, err := s.store.ListHistoricalPerformance(ctx, id, page)
	if err != nil {
		return nil, 0, translate(err, "history")
	}
	return rows, total, nil
}
