// Package performance derives vendor performance metrics from purchase order history.
//
// Every recomputation is a full pass over the vendor's current orders. A metric whose
// input set is empty comes back absent and the vendor keeps its stored value.
package performance

import (
	"math"

	"vendor-service/internal/model"

	"github.com/shopspring/decimal"
)

const secondsPerDay = 24 * 60 * 60

// Value is a metric that may be undefined for the current order set
type Value struct {
	Float float64
	Valid bool
}

// Some returns a present value
func Some(f float64) Value {
	return Value{Float: f, Valid: true}
}

// None is the absent value
var None = Value{}

// Result holds the outcome of one computation
type Result struct {
	OnTimeDeliveryRate  Value
	QualityRatingAvg    Value
	AverageResponseTime Value
	FulfillmentRate     Value

	Orders    int
	Completed int
}

// Metrics is the public view of a vendor's four performance figures
type Metrics struct {
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfillment_rate"`
}

// MetricsOf copies the stored metrics of v
func MetricsOf(v *model.Vendor) Metrics {
	return Metrics{
		OnTimeDeliveryRate:  v.OnTimeDeliveryRate,
		QualityRatingAvg:    v.QualityRatingAvg,
		AverageResponseTime: v.AverageResponseTime,
		FulfillmentRate:     v.FulfillmentRate,
	}
}

// Compute derives the metrics of one vendor from all of its orders.
// ok is false when orders is empty, in which case nothing should be written.
func Compute(orders []model.PurchaseOrder) (r Result, ok bool) {
	if len(orders) == 0 {
		return Result{}, false
	}
	r.Orders = len(orders)

	var (
		onTime       int
		ratingSum    float64
		ratingCount  int
		responseSum  float64
		responseSeen int
	)
	for i := range orders {
		po := &orders[i]

		if po.IsComplete() {
			r.Completed++
			// a completed order without an acknowledgment date is never on time
			if po.AcknowledgmentDate != nil && !po.DeliveryDate.Before(*po.AcknowledgmentDate) {
				onTime++
			}
		}

		if po.QualityRating != nil {
			ratingSum += *po.QualityRating
			ratingCount++
		}

		if po.AcknowledgmentDate != nil {
			responseSum += po.AcknowledgmentDate.Sub(po.OrderDate).Seconds()
			responseSeen++
		}
	}

	if r.Completed > 0 {
		r.OnTimeDeliveryRate = Some(float64(onTime) / float64(r.Completed) * 100)
	}
	if ratingCount > 0 {
		r.QualityRatingAvg = Some(round2(ratingSum / float64(ratingCount)))
	}
	if responseSeen > 0 {
		meanSeconds := responseSum / float64(responseSeen)
		r.AverageResponseTime = Some(round2(math.Floor(meanSeconds / secondsPerDay)))
	}
	r.FulfillmentRate = Some(round2(float64(r.Completed) / float64(r.Orders) * 100))

	return r, true
}

// Apply overwrites the metrics of v that are present in r and keeps the rest
func (r Result) Apply(v *model.Vendor) {
	if r.OnTimeDeliveryRate.Valid {
		v.OnTimeDeliveryRate = r.OnTimeDeliveryRate.Float
	}
	if r.QualityRatingAvg.Valid {
		v.QualityRatingAvg = r.QualityRatingAvg.Float
	}
	if r.AverageResponseTime.Valid {
		v.AverageResponseTime = r.AverageResponseTime.Float
	}
	if r.FulfillmentRate.Valid {
		v.FulfillmentRate = r.FulfillmentRate.Float
	}
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
