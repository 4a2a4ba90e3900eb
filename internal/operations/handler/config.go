package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/operations/repository"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// ConfigHandler handles schedule configuration endpoints
type ConfigHandler struct {
	configs *repository.ConfigRepository
	logger  *logger.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configs *repository.ConfigRepository, log *logger.Logger) *ConfigHandler {
	return &ConfigHandler{
		configs: configs,
		logger:  log,
	}
}

// Get returns (and lazily creates) a facility's schedule config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.GetOrCreate(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, cfg)
}

// SaveSchedule updates the weekday mask and start date
func (h *ConfigHandler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Monday    bool    `json:"monday"`
		Tuesday   bool    `json:"tuesday"`
		Wednesday bool    `json:"wednesday"`
		Thursday  bool    `json:"thursday"`
		Friday    bool    `json:"friday"`
		Saturday  bool    `json:"saturday"`
		Sunday    bool    `json:"sunday"`
		StartDate *string `json:"start_date"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	var startDate *time.Time
	if req.StartDate != nil {
		d, err := parseDate(*req.StartDate)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		startDate = &d
	}

	days := [7]bool{req.Monday, req.Tuesday, req.Wednesday, req.Thursday, req.Friday, req.Saturday, req.Sunday}
	cfg, err := h.configs.SaveSchedule(r.Context(), chi.URLParam(r, "companyID"), days, startDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cfg)
}

// SaveSigners updates monitor/verifier assignment and cached signatures
func (h *ConfigHandler) SaveSigners(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MonitorID         *string `json:"monitor_id" validate:"omitempty,uuid"`
		VerifierID        *string `json:"verifier_id" validate:"omitempty,uuid"`
		MonitorSignature  *string `json:"monitor_signature"`
		VerifierSignature *string `json:"verifier_signature"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	cfg, err := h.configs.SaveSigners(r.Context(), chi.URLParam(r, "companyID"),
		req.MonitorID, req.VerifierID, req.MonitorSignature, req.VerifierSignature)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cfg)
}

// ListHolidays returns holiday dates within a range
func (h *ConfigHandler) ListHolidays(w http.ResponseWriter, r *http.Request) {
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

	holidays, err := h.configs.ListHolidays(r.Context(), chi.URLParam(r, "companyID"), from, to)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	dates := make([]string, 0, len(holidays))
	for _, d := range holidays {
		dates = append(dates, d.Format("2006-01-02"))
	}
	httputil.JSON(w, http.StatusOK, dates)
}

// ToggleHoliday flips a date's holiday flag
func (h *ConfigHandler) ToggleHoliday(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date" validate:"required"`
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

	isHoliday, err := h.configs.ToggleHoliday(r.Context(), chi.URLParam(r, "companyID"), date)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"is_holiday": isHoliday})
}
