package repository

import (
	"context"

	"vendor-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseOrderFilter narrows ListPurchaseOrders
type PurchaseOrderFilter struct {
	VendorID *uint
	Status   *model.OrderStatus
	Page     Page
}

// CreatePurchaseOrder inserts po; Quantity is derived by the model hook
func (s *Store) CreatePurchaseOrder(ctx context.Context, po *model.PurchaseOrder) error {
	defer track("insert")()
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Create(po).Error)
}

// SavePurchaseOrder writes every column of po; Quantity is derived by the model hook
func (s *Store) SavePurchaseOrder(ctx context.Context, po *model.PurchaseOrder) error {
	defer track("update")()
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Save(po).Error)
}

// GetPurchaseOrder loads a purchase order by id together with its vendor
func (s *Store) GetPurchaseOrder(ctx context.Context, id uint) (*model.PurchaseOrder, error) {
	defer track("query")()
	var po model.PurchaseOrder
	if err := s.db.WithContext(ctx).Preload("Vendor").First(&po, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &po, nil
}

// LockPurchaseOrder loads a purchase order with a row lock for the enclosing transaction
func (s *Store) LockPurchaseOrder(ctx context.Context, id uint) (*model.PurchaseOrder, error) {
	defer track("query")()
	var po model.PurchaseOrder
	if err := s.db.WithContext(ctx).Clauses(forUpdate()).First(&po, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &po, nil
}

// ListPurchaseOrdersByVendor returns every order owned by the vendor, oldest first
func (s *Store) ListPurchaseOrdersByVendor(ctx context.Context, vendorID uint) ([]model.PurchaseOrder, error) {
	defer track("query")()
	var orders []model.PurchaseOrder
	err := s.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("id asc").
		Find(&orders).Error
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ListPurchaseOrders returns one page of orders matching f, vendors preloaded, and the total count
func (s *Store) ListPurchaseOrders(ctx context.Context, f PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	defer track("query")()
	page := f.Page.Normalize()

	query := s.db.WithContext(ctx).Model(&model.PurchaseOrder{})
	if f.VendorID != nil {
		query = query.Where("vendor_id = ?", *f.VendorID)
	}
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	var orders []model.PurchaseOrder
	err := query.
		Preload("Vendor").
		Order("id asc").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, mapError(err)
	}
	return orders, total, nil
}

// DeletePurchaseOrder removes a purchase order by id
func (s *Store) DeletePurchaseOrder(ctx context.Context, id uint) error {
	defer track("delete")()
	result := s.db.WithContext(ctx).Delete(&model.PurchaseOrder{}, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PONumberExists reports whether number is already assigned
func (s *Store) PONumberExists(ctx context.Context, number string) (bool, error) {
	defer track("query")()
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PurchaseOrder{}).Where("po_number = ?", number).Count(&count).Error
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}
