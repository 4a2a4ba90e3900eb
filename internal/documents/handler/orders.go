package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/internal/documents/service"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// OrderHandler handles sales and purchase order endpoints
type OrderHandler struct {
	service *service.OrderService
	orders  *repository.OrderRepository
	logger  *logger.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(svc *service.OrderService, orders *repository.OrderRepository, log *logger.Logger) *OrderHandler {
	return &OrderHandler{service: svc, orders: orders, logger: log}
}

// SalesOrderRequest is the create/update payload for a sales order
type SalesOrderRequest struct {
	SOID         string   `json:"soid" validate:"required,max=100"`
	CompanyID    *string  `json:"company_id" validate:"omitempty,uuid"`
	CustomerID   *string  `json:"customer_id" validate:"omitempty,uuid"`
	CustomerPO   *string  `json:"customer_po" validate:"omitempty,max=100"`
	DispatchDate *string  `json:"dispatch_date"`
	TotalAmount  *float64 `json:"total_amount"`
}

// PurchaseOrderRequest is the create/update payload for a purchase order
type PurchaseOrderRequest struct {
	POID        string   `json:"poid" validate:"required,max=100"`
	CompanyID   *string  `json:"company_id" validate:"omitempty,uuid"`
	VendorID    *string  `json:"vendor_id" validate:"omitempty,uuid"`
	OrderDate   *string  `json:"order_date"`
	TotalAmount *float64 `json:"total_amount"`
}

// OrderFlagsRequest carries the mutable status bits
type OrderFlagsRequest struct {
	IsPaid   bool `json:"is_paid"`
	IsClosed bool `json:"is_closed"`
}

func optionalDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, errors.BadRequest("date must be formatted YYYY-MM-DD")
	}
	return &t, nil
}

// SearchSales returns sales orders filtered by SO number or customer name
func (h *OrderHandler) SearchSales(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.SearchSales(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, orders)
}

// GetSales returns one sales order with its file count
func (h *OrderHandler) GetSales(w http.ResponseWriter, r *http.Request) {
	so, err := h.orders.GetSalesBySOID(r.Context(), chi.URLParam(r, "soid"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, so)
}

// CreateSales records a new sales order
func (h *OrderHandler) CreateSales(w http.ResponseWriter, r *http.Request) {
	var req SalesOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	dispatch, err := optionalDate(req.DispatchDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	so, err := h.service.CreateSales(r.Context(), &repository.SalesOrder{
		SOID:         req.SOID,
		CompanyID:    req.CompanyID,
		CustomerID:   req.CustomerID,
		CustomerPO:   req.CustomerPO,
		DispatchDate: dispatch,
		TotalAmount:  req.TotalAmount,
	}, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, so)
}

// UpdateSales changes a sales order's details
func (h *OrderHandler) UpdateSales(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SalesOrderRequest
		OrderFlagsRequest
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	req.SOID = chi.URLParam(r, "soid")
	if err := httputil.Validate(&req.SalesOrderRequest); err != nil {
		httputil.Error(w, err)
		return
	}

	dispatch, err := optionalDate(req.DispatchDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	so, err := h.orders.UpdateSales(r.Context(), &repository.SalesOrder{
		SOID:         req.SOID,
		CompanyID:    req.CompanyID,
		CustomerID:   req.CustomerID,
		CustomerPO:   req.CustomerPO,
		DispatchDate: dispatch,
		IsPaid:       req.IsPaid,
		IsClosed:     req.IsClosed,
		TotalAmount:  req.TotalAmount,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, so)
}

// SetSalesFlags updates a sales order's paid/closed status
func (h *OrderHandler) SetSalesFlags(w http.ResponseWriter, r *http.Request) {
	var req OrderFlagsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	so, err := h.service.SetSalesFlags(r.Context(), chi.URLParam(r, "soid"),
		repository.OrderFlags{IsPaid: req.IsPaid, IsClosed: req.IsClosed},
		httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, so)
}

// DeleteSales removes a sales order and its archived files
func (h *OrderHandler) DeleteSales(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSales(r.Context(), chi.URLParam(r, "soid")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// SearchPurchase returns purchase orders filtered by PO number or vendor name
func (h *OrderHandler) SearchPurchase(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.SearchPurchase(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, orders)
}

// GetPurchase returns one purchase order with its file count
func (h *OrderHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	po, err := h.orders.GetPurchaseByPOID(r.Context(), chi.URLParam(r, "poid"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, po)
}

// CreatePurchase records a new purchase order
func (h *OrderHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	orderDate, err := optionalDate(req.OrderDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	po, err := h.service.CreatePurchase(r.Context(), &repository.PurchaseOrder{
		POID:        req.POID,
		CompanyID:   req.CompanyID,
		VendorID:    req.VendorID,
		OrderDate:   orderDate,
		TotalAmount: req.TotalAmount,
	}, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, po)
}

// UpdatePurchase changes a purchase order's details
func (h *OrderHandler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PurchaseOrderRequest
		OrderFlagsRequest
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	req.POID = chi.URLParam(r, "poid")
	if err := httputil.Validate(&req.PurchaseOrderRequest); err != nil {
		httputil.Error(w, err)
		return
	}

	orderDate, err := optionalDate(req.OrderDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	po, err := h.orders.UpdatePurchase(r.Context(), &repository.PurchaseOrder{
		POID:        req.POID,
		CompanyID:   req.CompanyID,
		VendorID:    req.VendorID,
		OrderDate:   orderDate,
		IsPaid:      req.IsPaid,
		IsClosed:    req.IsClosed,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, po)
}

// SetPurchaseFlags updates a purchase order's paid/closed status
func (h *OrderHandler) SetPurchaseFlags(w http.ResponseWriter, r *http.Request) {
	var req OrderFlagsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	po, err := h.service.SetPurchaseFlags(r.Context(), chi.URLParam(r, "poid"),
		repository.OrderFlags{IsPaid: req.IsPaid, IsClosed: req.IsClosed},
		httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, po)
}

// DeletePurchase removes a purchase order and its archived files
func (h *OrderHandler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePurchase(r.Context(), chi.URLParam(r, "poid")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// RenderPDF is a placeholder for server-side order PDF rendering,
// which is not available.
func (h *OrderHandler) RenderPDF(w http.ResponseWriter, r *http.Request) {
	httputil.Error(w, errors.New("NOT_IMPLEMENTED", "PDF rendering is not available", http.StatusNotImplemented))
}
