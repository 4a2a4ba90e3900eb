package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// autocompleteLimit caps customer and vendor autocomplete result sets
const autocompleteLimit = 20

// searchTerm validates the autocomplete query parameter
func searchTerm(r *http.Request) (string, error) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(term) < 2 {
		return "", errors.BadRequest("search term must be at least 2 characters")
	}
	return term, nil
}

// CustomerHandler handles customer record endpoints
type CustomerHandler struct {
	customers *repository.CustomerRepository
	logger    *logger.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers *repository.CustomerRepository, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, logger: log}
}

// CustomerRequest is the create/update payload for a customer
type CustomerRequest struct {
	CustomerID string  `json:"customer_id" validate:"required,max=100"`
	Name       string  `json:"name" validate:"required,max=255"`
	Contact    *string `json:"contact" validate:"omitempty,max=255"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone" validate:"omitempty,max=50"`
	City       *string `json:"city" validate:"omitempty,max=100"`
	State      *string `json:"state" validate:"omitempty,max=100"`
}

// List returns all customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, customers)
}

// Search returns customers matching the autocomplete term
func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	term, err := searchTerm(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	customers, err := h.customers.Search(r.Context(), term, autocompleteLimit)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, customers)
}

// Get returns one customer
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.GetByID(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, customer)
}

// Create adds a customer
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	customer, err := h.customers.Create(r.Context(), &repository.Customer{
		CustomerID: req.CustomerID,
		Name:       req.Name,
		Contact:    req.Contact,
		Email:      req.Email,
		Phone:      req.Phone,
		City:       req.City,
		State:      req.State,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, customer)
}

// Update changes a customer's details
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	customer, err := h.customers.Update(r.Context(), &repository.Customer{
		ID:      chi.URLParam(r, "customerID"),
		Name:    req.Name,
		Contact: req.Contact,
		Email:   req.Email,
		Phone:   req.Phone,
		City:    req.City,
		State:   req.State,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, customer)
}

// Delete removes a customer
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(r.Context(), chi.URLParam(r, "customerID")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// ListEmails returns a customer's extra recipient addresses
func (h *CustomerHandler) ListEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := h.customers.ListEmails(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, emails)
}

// AddEmail attaches a recipient address to a customer
func (h *CustomerHandler) AddEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	email, err := h.customers.AddEmail(r.Context(), chi.URLParam(r, "customerID"), req.Email)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, email)
}

// DeleteEmail removes a recipient address
func (h *CustomerHandler) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.DeleteEmail(r.Context(), chi.URLParam(r, "emailID")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
