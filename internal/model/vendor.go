package model

import (
	"time"
)

// Vendor represents a supplier of goods tracked by the procurement workflow.
// The four performance fields are derived and only written by the metrics engine.
type Vendor struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	Name                string    `json:"name" gorm:"type:varchar(200);index;not null"`
	ContactDetails      string    `json:"contact_details" gorm:"type:text"`
	Address             string    `json:"address" gorm:"type:text"`
	VendorCode          string    `json:"vendor_code" gorm:"type:varchar(6);uniqueIndex;not null"`
	OnTimeDeliveryRate  float64   `json:"on_time_delivery_rate" gorm:"not null;default:0"`
	QualityRatingAvg    float64   `json:"quality_rating_avg" gorm:"not null;default:0"`
	AverageResponseTime float64   `json:"average_response_time" gorm:"not null;default:0"`
	FulfillmentRate     float64   `json:"fulfillment_rate" gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// VendorSummary is the short vendor form embedded in purchase order responses
type VendorSummary struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	ContactDetails string `json:"contact_details"`
	Address        string `json:"address"`
}

// Summary returns the embeddable form of the vendor
func (v *Vendor) Summary() VendorSummary {
	return VendorSummary{
		ID:             v.ID,
		Name:           v.Name,
		ContactDetails: v.ContactDetails,
		Address:        v.Address,
	}
}
