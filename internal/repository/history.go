package repository

import (
	"context"

	"vendor-service/internal/model"

	"gorm.io/gorm/clause"
)

// CreateHistoricalPerformance appends one snapshot row
func (s *Store) CreateHistoricalPerformance(ctx context.Context, h *model.HistoricalPerformance) error {
	defer track("insert")()
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Create(h).Error)
}

// ListHistoricalPerformance returns one page of a vendor's snapshots, newest first
func (s *Store) ListHistoricalPerformance(ctx context.Context, vendorID uint, p Page) ([]model.HistoricalPerformance, int64, error) {
	defer track("query")()
	page := p.Normalize()

	var total int64
	err := s.db.WithContext(ctx).
		Model(&model.HistoricalPerformance{}).
		Where("vendor_id = ?", vendorID).
		Count(&total).Error
	if err != nil {
		return nil, 0, mapError(err)
	}

	var rows []model.HistoricalPerformance
	err = s.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("date desc, id desc").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, mapError(err)
	}
	return rows, total, nil
}
