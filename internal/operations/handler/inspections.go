package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/operations/repository"
	"github.com/fishtech/fishtech-backend/internal/operations/service"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// InspectionHandler handles daily inspection endpoints
type InspectionHandler struct {
	service     *service.InspectionService
	inspections *repository.InspectionRepository
	logger      *logger.Logger
}

// NewInspectionHandler creates a new inspection handler
func NewInspectionHandler(svc *service.InspectionService, inspections *repository.InspectionRepository, log *logger.Logger) *InspectionHandler {
	return &InspectionHandler{
		service:     svc,
		inspections: inspections,
		logger:      log,
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(service.DateKey, s)
	if err != nil {
		return time.Time{}, errors.BadRequest("date must be formatted YYYY-MM-DD")
	}
	return d, nil
}

// Start opens or resumes a shift's inspection sheet
func (h *InspectionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID string `json:"company_id" validate:"required,uuid"`
		Date      string `json:"date" validate:"required"`
		Shift     string `json:"shift" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	sheet, err := h.service.Start(r.Context(), req.CompanyID, date, req.Shift)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sheet)
}

// Get returns an existing sheet for company+date+shift query params
func (h *InspectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	shift := r.URL.Query().Get("shift")
	if companyID == "" || shift == "" {
		httputil.Error(w, errors.BadRequest("company_id and shift are required"))
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	sheet, err := h.service.Get(r.Context(), companyID, date, shift)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sheet)
}

// SaveResults records item outcomes on a sheet
func (h *InspectionHandler) SaveResults(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Results []service.ResultInput `json:"results" validate:"required,min=1,dive"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	results, err := h.service.SaveResults(r.Context(), chi.URLParam(r, "inspectionID"), req.Results)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, results)
}

// Complete records the inspector sign-off
func (h *InspectionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InspectorName string  `json:"inspector_name" validate:"required"`
		Signature     string  `json:"signature" validate:"required"`
		Time          *string `json:"time"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	insp, err := h.service.Complete(r.Context(), chi.URLParam(r, "inspectionID"),
		httputil.GetUserID(r.Context()), req.InspectorName, req.Signature, req.Time)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, insp)
}

// Verify records the verifier sign-off
func (h *InspectionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VerifierName string `json:"verifier_name" validate:"required"`
		Signature    string `json:"signature" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	insp, err := h.service.Verify(r.Context(), chi.URLParam(r, "inspectionID"), req.VerifierName, req.Signature)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, insp)
}

// Audit reports completeness from the start date up to today
func (h *InspectionHandler) Audit(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		httputil.Error(w, errors.BadRequest("company_id is required"))
		return
	}

	result, err := h.service.ScheduleAudit(r.Context(), companyID, time.Now())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Calendar returns per-day shift completion for a date range
func (h *InspectionHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		httputil.Error(w, errors.BadRequest("company_id is required"))
		return
	}

	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if to.Before(from) {
		httputil.Error(w, errors.BadRequest("to must not be before from"))
		return
	}

	days, err := h.service.Calendar(r.Context(), companyID, from, to)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, days)
}

// Deviations lists failed items for a company over a date range
func (h *InspectionHandler) Deviations(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		httputil.Error(w, errors.BadRequest("company_id is required"))
		return
	}

	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	deviations, err := h.inspections.ListDeviations(r.Context(), companyID, from, to)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, deviations)
}

// SaveCorrectiveAction records the follow-up on a failed item
func (h *InspectionHandler) SaveCorrectiveAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CorrectiveAction string `json:"corrective_action" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.inspections.SaveCorrectiveAction(r.Context(), chi.URLParam(r, "resultID"), req.CorrectiveAction); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"corrective_action": req.CorrectiveAction})
}
