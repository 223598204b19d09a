package handler

import (
	"net/http"

	"vendor-service/internal/repository"
	"vendor-service/internal/service"
	"vendor-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// VendorRequest defines the body of a vendor creation request
type VendorRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	ContactDetails string `json:"contact_details"`
	Address        string `json:"address"`
}

// VendorUpdateRequest defines the body of a vendor update; omitted fields are kept
type VendorUpdateRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=200"`
	ContactDetails *string `json:"contact_details"`
	Address        *string `json:"address"`
}

// VendorHandler serves the vendor endpoints
type VendorHandler struct {
	vendors *service.VendorService
}

// NewVendorHandler creates a vendor handler
func NewVendorHandler(vendors *service.VendorService) *VendorHandler {
	return &VendorHandler{vendors: vendors}
}

// Create registers a new vendor
func (h *VendorHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req VendorRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "Invalid request data")
	}

	vendor, err := h.vendors.Create(c.Request().Context(), service.CreateVendorInput{
		Name:           req.Name,
		ContactDetails: req.ContactDetails,
		Address:        req.Address,
	})
	if err != nil {
		return respondError(c, err, "Failed to create vendor")
	}

	log.Info("Vendor created successfully", zap.Uint("id", vendor.ID), zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusCreated, vendor)
}

// List returns vendors, optionally filtered by a search term over name and code
func (h *VendorHandler) List(c echo.Context) error {
	page := parsePage(c)
	vendors, total, err := h.vendors.List(c.Request().Context(), repository.VendorFilter{
		Search: c.QueryParam("search"),
		Page:   page,
	})
	if err != nil {
		return respondError(c, err, "Failed to list vendors")
	}
	return c.JSON(http.StatusOK, paginated(vendors, total, page))
}

// Get returns one vendor
func (h *VendorHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid vendor ID")
	}

	vendor, err := h.vendors.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to get vendor")
	}
	return c.JSON(http.StatusOK, vendor)
}

// Update changes a vendor's identity fields
func (h *VendorHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid vendor ID")
	}

	var req VendorUpdateRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "Invalid request data")
	}

	vendor, err := h.vendors.Update(c.Request().Context(), id, service.UpdateVendorInput{
		Name:           req.Name,
		ContactDetails: req.ContactDetails,
		Address:        req.Address,
	})
	if err != nil {
		return respondError(c, err, "Failed to update vendor")
	}

	log.Info("Vendor updated successfully", zap.Uint("id", vendor.ID))
	return c.JSON(http.StatusOK, vendor)
}

// Delete removes a vendor with its purchase orders and history
func (h *VendorHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid vendor ID")
	}

	if err := h.vendors.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Failed to delete vendor")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Vendor deleted successfully"})
}

// Performance returns the vendor's current performance metrics
func (h *VendorHandler) Performance(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid vendor ID")
	}

	metrics, err := h.vendors.GetVendorMetrics(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to get vendor performance")
	}
	return c.JSON(http.StatusOK, metrics)
}

// History returns the vendor's performance snapshots, newest first
func (h *VendorHandler) History(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err, "Invalid vendor ID")
	}

	page := parsePage(c)
	rows, total, err := h.vendors.History(c.Request().Context(), id, page)
	if err != nil {
		return respondError(c, err, "Failed to get vendor history")
	}
	return c.JSON(http.StatusOK, paginated(rows, total, page))
}
