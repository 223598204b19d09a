package handler

import (
	"net/http"
	"strconv"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/internal/service"
	"vendor-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PurchaseOrderRequest defines the body of a purchase order creation request.
// quantity is not accepted; it is always the sum of the item quantities.
type PurchaseOrderRequest struct {
	Vendor        uint              `json:"vendor" validate:"required"`
	OrderDate     time.Time         `json:"order_date" validate:"required"`
	DeliveryDate  time.Time         `json:"delivery_date" validate:"required"`
	Items         []model.Item      `json:"items" validate:"required,min=1,dive"`
	Status        model.OrderStatus `json:"status" validate:"required,oneof=pending complete canceled"`
	QualityRating *float64          `json:"quality_rating" validate:"omitempty,gte=0,lte=5"`
}

// PurchaseOrderUpdateRequest defines the body of a partial purchase order update
type PurchaseOrderUpdateRequest struct {
	Vendor       *uint              `json:"vendor" validate:"omitempty,gt=0"`
	OrderDate    *time.Time         `json:"order_date"`
	DeliveryDate *time.Time         `json:"delivery_date"`
	Items        []model.Item       `json:"items" validate:"omitempty,dive"`
	Status       *model.OrderStatus `json:"status" validate:"omitempty,oneof=pending complete canceled"`

	// null clears the rating; the 0..5 range is checked by the service
	QualityRating service.OptionalFloat `json:"quality_rating"`
}

// PurchaseOrderResponse is a purchase order with its vendor summary
type PurchaseOrderResponse struct {
	*model.PurchaseOrder
	VendorDetails *model.VendorSummary `json:"vendor_details"`
}

func newPurchaseOrderResponse(po *model.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{PurchaseOrder: po}
	if po.Vendor != nil {
		summary := po.Vendor.Summary()
		resp.VendorDetails = &summary
	}
	return resp
}

// PurchaseOrderHandler serves the purchase order endpoints
type PurchaseOrderHandler struct {
	orders *service.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a purchase order handler
func NewPurchaseOrderHandler(orders *service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// Create places a new purchase order and refreshes the vendor's metrics
func (h *PurchaseOrderHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req PurchaseOrderRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "Invalid request data")
	}

	po, err := h.orders.Create(c.Request().Context(), service.CreatePurchaseOrderInput{
		VendorID:      req.Vendor,
		OrderDate:     req.OrderDate,
		DeliveryDate:  req.DeliveryDate,
		Items:         req.Items,
		Status:        req.Status,
		QualityRating: req.QualityRating,
	})
	if err != nil {
		return respondError(c, err, "Failed to create purchase order")
	}

	log.Info("Purchase order created successfully", zap.Uint("id", po.ID), zap.String("po_number", po.PONumber))
	return c.JSON(http.StatusCreated, newPurchaseOrderResponse(po))
}

// List returns purchase orders, optionally filtered by vendor and status
func (h *PurchaseOrderHandler) List(c echo.Context) error {
	page := parsePage(c)
	filter := repository.PurchaseOrderFilter{Page: page}

	if raw := c.QueryParam("vendor_id"); raw != "" {
		vendorID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid vendor_id"})
		}
		id := uint(vendorID)
		filter.VendorID = &id
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := model.OrderStatus(raw)
		filter.Status = &status
	}

	orders, total, err := h.orders.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err, "Failed to list purchase orders")
	}

	data := make([]PurchaseOrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, newPurchaseOrderResponse(&orders[i]))
	}
	return c.JSON(http.StatusOK, paginated(data, total, page))
}

// Get returns one purchase order
func (h *PurchaseOrderHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid purchase order ID")
	}

	po, err := h.orders.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to get purchase order")
	}
	return c.JSON(http.StatusOK, newPurchaseOrderResponse(po))
}

// Update applies a partial update and refreshes the affected vendors' metrics
func (h *PurchaseOrderHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid purchase order ID")
	}

	var req PurchaseOrderUpdateRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "Invalid request data")
	}

	po, err := h.orders.Update(c.Request().Context(), id, service.UpdatePurchaseOrderInput{
		VendorID:      req.Vendor,
		OrderDate:     req.OrderDate,
		DeliveryDate:  req.DeliveryDate,
		Items:         req.Items,
		Status:        req.Status,
		QualityRating: req.QualityRating,
	})
	if err != nil {
		return respondError(c, err, "Failed to update purchase order")
	}

	log.Info("Purchase order updated successfully", zap.Uint("id", po.ID))
	return c.JSON(http.StatusOK, newPurchaseOrderResponse(po))
}

// Delete removes a purchase order and refreshes its vendor's metrics
func (h *PurchaseOrderHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid purchase order ID")
	}

	if err := h.orders.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Failed to delete purchase order")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Purchase Order Successfully Deleted"})
}

// Acknowledge records the vendor's acknowledgment and completes the order
func (h *PurchaseOrderHandler) Acknowledge(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid purchase order ID")
	}

	po, err := h.orders.Acknowledge(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to acknowledge purchase order")
	}

	log.Info("Purchase order acknowledged", zap.Uint("id", po.ID))
	return c.JSON(http.StatusOK, newPurchaseOrderResponse(po))
}
