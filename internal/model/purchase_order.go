package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of a purchase order
type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusComplete OrderStatus = "complete"
	StatusCanceled OrderStatus = "canceled"
)

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusComplete, StatusCanceled:
		return true
	}
	return false
}

// Item is one line of a purchase order. Only Quantity is interpreted;
// any other keys sent by the client are kept in Attributes and round-tripped.
type Item struct {
	Quantity   int                        `json:"quantity" validate:"gte=0"`
	Attributes map[string]json.RawMessage `json:"-"`
}

// MarshalJSON flattens Attributes next to quantity
func (i Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(i.Attributes)+1)
	for k, v := range i.Attributes {
		out[k] = v
	}
	q, err := json.Marshal(i.Quantity)
	if err != nil {
		return nil, err
	}
	out["quantity"] = q
	return json.Marshal(out)
}

// UnmarshalJSON reads quantity and keeps every other key as an attribute
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.Quantity = 0
	if q, ok := raw["quantity"]; ok {
		if err := json.Unmarshal(q, &i.Quantity); err != nil {
			return err
		}
		delete(raw, "quantity")
	}
	if len(raw) > 0 {
		i.Attributes = raw
	} else {
		i.Attributes = nil
	}
	return nil
}

// PurchaseOrder is an order placed with exactly one vendor
type PurchaseOrder struct {
	ID                 uint                      `json:"id" gorm:"primaryKey"`
	PONumber           string                    `json:"po_number" gorm:"type:varchar(6);uniqueIndex;not null"`
	VendorID           uint                      `json:"vendor" gorm:"index;not null"`
	Vendor             *Vendor                   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	OrderDate          time.Time                 `json:"order_date" gorm:"not null"`
	DeliveryDate       time.Time                 `json:"delivery_date" gorm:"not null"`
	Items              datatypes.JSONSlice[Item] `json:"items" gorm:"not null"`
	Quantity           int                       `json:"quantity" gorm:"not null;default:0"`
	Status             OrderStatus               `json:"status" gorm:"type:varchar(10);index;not null"`
	QualityRating      *float64                  `json:"quality_rating"`
	IssueDate          time.Time                 `json:"issue_date" gorm:"not null"`
	AcknowledgmentDate *time.Time                `json:"acknowledgment_date"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// TotalQuantity sums the quantity of every item
func (po *PurchaseOrder) TotalQuantity() int {
	total := 0
	for _, item := range po.Items {
		total += item.Quantity
	}
	return total
}

// BeforeSave keeps Quantity equal to the item total on every insert and update
func (po *PurchaseOrder) BeforeSave(tx *gorm.DB) error {
	po.Quantity = po.TotalQuantity()
	return nil
}

// IsComplete reports whether the order has been fulfilled
func (po *PurchaseOrder) IsComplete() bool {
	return po.Status == StatusComplete
}
