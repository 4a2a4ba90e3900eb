package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/operations/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// SopHandler handles sanitation item and zone endpoints
type SopHandler struct {
	sops   *repository.SopRepository
	zones  *repository.ZoneRepository
	logger *logger.Logger
}

// NewSopHandler creates a new sanitation item handler
func NewSopHandler(sops *repository.SopRepository, zones *repository.ZoneRepository, log *logger.Logger) *SopHandler {
	return &SopHandler{
		sops:   sops,
		zones:  zones,
		logger: log,
	}
}

// SopRequest is the create/update payload for a sanitation item
type SopRequest struct {
	CompanyID     string  `json:"company_id" validate:"required,uuid"`
	ZoneID        *string `json:"zone_id" validate:"omitempty,uuid"`
	Description   string  `json:"description" validate:"required"`
	IsPreOp       bool    `json:"is_pre_op"`
	IsMidDay      bool    `json:"is_mid_day"`
	IsPostOp      bool    `json:"is_post_op"`
	InputRequired bool    `json:"input_required"`
	ImageRequired bool    `json:"image_required"`
}

func didParam(r *http.Request) (int, error) {
	did, err := strconv.Atoi(chi.URLParam(r, "sopDID"))
	if err != nil {
		return 0, errors.BadRequest("sop id must be a number")
	}
	return did, nil
}

// List returns a facility's sanitation items
func (h *SopHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		httputil.Error(w, errors.BadRequest("company_id is required"))
		return
	}

	sops, err := h.sops.List(r.Context(), companyID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sops)
}

// Create adds a sanitation item
func (h *SopHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SopRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	sop, err := h.sops.Create(r.Context(), &repository.Sop{
		CompanyID:     req.CompanyID,
		ZoneID:        req.ZoneID,
		Description:   req.Description,
		IsPreOp:       req.IsPreOp,
		IsMidDay:      req.IsMidDay,
		IsPostOp:      req.IsPostOp,
		InputRequired: req.InputRequired,
		ImageRequired: req.ImageRequired,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, sop)
}

// Update changes a sanitation item
func (h *SopHandler) Update(w http.ResponseWriter, r *http.Request) {
	did, err := didParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req SopRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	sop, err := h.sops.Update(r.Context(), &repository.Sop{
		SopDID:        did,
		ZoneID:        req.ZoneID,
		Description:   req.Description,
		IsPreOp:       req.IsPreOp,
		IsMidDay:      req.IsMidDay,
		IsPostOp:      req.IsPostOp,
		InputRequired: req.InputRequired,
		ImageRequired: req.ImageRequired,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sop)
}

// Delete removes a sanitation item
func (h *SopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	did, err := didParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.sops.Delete(r.Context(), did); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListZones returns a facility's zones
func (h *SopHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		httputil.Error(w, errors.BadRequest("company_id is required"))
		return
	}

	zones, err := h.zones.List(r.Context(), companyID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, zones)
}

// CreateZone adds a zone
func (h *SopHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID string `json:"company_id" validate:"required,uuid"`
		Name      string `json:"name" validate:"required,min=1,max=255"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	zone, err := h.zones.Create(r.Context(), req.CompanyID, req.Name)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, zone)
}

// RenameZone changes a zone's name
func (h *SopHandler) RenameZone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required,min=1,max=255"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	zone, err := h.zones.Rename(r.Context(), chi.URLParam(r, "zoneID"), req.Name)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, zone)
}

// DeleteZone removes a zone not referenced by any item
func (h *SopHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	if err := h.zones.Delete(r.Context(), chi.URLParam(r, "zoneID")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
