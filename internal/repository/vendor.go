package repository

import (
	"context"

	"vendor-service/internal/model"

	"gorm.io/gorm"
)

// VendorFilter narrows ListVendors
type VendorFilter struct {
	Search string
	Page   Page
}

// CreateVendor inserts v
func (s *Store) CreateVendor(ctx context.Context, v *model.Vendor) error {
	defer track("insert")()
	return mapError(s.db.WithContext(ctx).Create(v).Error)
}

// GetVendor loads a vendor by id
func (s *Store) GetVendor(ctx context.Context, id uint) (*model.Vendor, error) {
	defer track("query")()
	var v model.Vendor
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

// LockVendor loads a vendor with a row lock held until the enclosing transaction ends.
// Databases without row locks (sqlite) ignore the locking clause.
func (s *Store) LockVendor(ctx context.Context, id uint) (*model.Vendor, error) {
	defer track("query")()
	var v model.Vendor
	if err := s.db.WithContext(ctx).Clauses(forUpdate()).First(&v, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

// ListVendors returns one page of vendors and the total matching count
func (s *Store) ListVendors(ctx context.Context, f VendorFilter) ([]model.Vendor, int64, error) {
	defer track("query")()
	page := f.Page.Normalize()

	query := s.db.WithContext(ctx).Model(&model.Vendor{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("name LIKE ? OR vendor_code LIKE ?", like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	var vendors []model.Vendor
	err := query.
		Order("id asc").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&vendors).Error
	if err != nil {
		return nil, 0, mapError(err)
	}
	return vendors, total, nil
}

// UpdateVendorDetails writes the identity fields of v; metrics are left alone
func (s *Store) UpdateVendorDetails(ctx context.Context, v *model.Vendor) error {
	defer track("update")()
	return mapError(s.db.WithContext(ctx).
		Model(v).
		Select("name", "contact_details", "address").
		Updates(v).Error)
}

// SaveVendorMetrics writes the four derived metrics of v
func (s *Store) SaveVendorMetrics(ctx context.Context, v *model.Vendor) error {
	defer track("update")()
	return mapError(s.db.WithContext(ctx).
		Model(v).
		Select("on_time_delivery_rate", "quality_rating_avg", "average_response_time", "fulfillment_rate").
		Updates(v).Error)
}

// DeleteVendor removes a vendor with its purchase orders and history.
// The three deletes are issued explicitly so the cascade does not depend on the
// driver enforcing foreign keys; call it inside InTx.
func (s *Store) DeleteVendor(ctx context.Context, id uint) error {
	defer track("delete")()
	db := s.db.WithContext(ctx)
	if err := db.Where("vendor_id = ?", id).Delete(&model.HistoricalPerformance{}).Error; err != nil {
		return mapError(err)
	}
	if err := db.Where("vendor_id = ?", id).Delete(&model.PurchaseOrder{}).Error; err != nil {
		return mapError(err)
	}
	result := db.Delete(&model.Vendor{}, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// VendorCodeExists reports whether code is already assigned
func (s *Store) VendorCodeExists(ctx context.Context, code string) (bool, error) {
	defer track("query")()
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Vendor{}).Where("vendor_code = ?", code).Count(&count).Error
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}
