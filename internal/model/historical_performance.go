package model

import (
	"time"
)

// HistoricalPerformance is an append-only snapshot of a vendor's metrics,
// written once per recomputation and never updated.
type HistoricalPerformance struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	VendorID            uint      `json:"vendor" gorm:"index;not null"`
	Vendor              *Vendor   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Date                time.Time `json:"date" gorm:"index;not null"`
	OnTimeDeliveryRate  float64   `json:"on_time_delivery_rate" gorm:"not null;default:0"`
	QualityRatingAvg    float64   `json:"quality_rating_avg" gorm:"not null;default:0"`
	AverageResponseTime float64   `json:"average_response_time" gorm:"not null;default:0"`
	FulfillmentRate     float64   `json:"fulfillment_rate" gorm:"not null;default:0"`
}

// TableName pins the table name; gorm would otherwise pluralise to "historical_performances"
func (HistoricalPerformance) TableName() string {
	return "historical_performance"
}
