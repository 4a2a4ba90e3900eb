package service

import (
	"context"
	"time"

	"github.com/fishtech/fishtech-backend/internal/operations/events"
	"github.com/fishtech/fishtech-backend/internal/operations/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// InspectionService drives the daily inspection lifecycle
type InspectionService struct {
	inspections *repository.InspectionRepository
	sops        *repository.SopRepository
	configs     *repository.ConfigRepository
	logger      *logger.Logger
	publisher   *events.InspectionEventPublisher
}

// NewInspectionService creates a new inspection service
func NewInspectionService(
	inspections *repository.InspectionRepository,
	sops *repository.SopRepository,
	configs *repository.ConfigRepository,
	log *logger.Logger,
	publisher *events.InspectionEventPublisher,
) *InspectionService {
	return &InspectionService{
		inspections: inspections,
		sops:        sops,
		configs:     configs,
		logger:      log,
		publisher:   publisher,
	}
}

// ChecklistItem pairs a checklist item with its recorded result, if any.
type ChecklistItem struct {
	Sop    repository.Sop         `json:"sop"`
	Result *repository.ItemResult `json:"result,omitempty"`
}

// Sheet is one shift's inspection with its checklist.
type Sheet struct {
	Inspection repository.Inspection `json:"inspection"`
	Items      []ChecklistItem       `json:"items"`
}

// Start opens (or resumes) the sheet for a company, date and shift and
// returns its point-in-time checklist.
func (s *InspectionService) Start(ctx context.Context, companyID string, date time.Time, shift string) (*Sheet, error) {
	if !repository.IsShift(shift) {
		return nil, errors.BadRequest("unknown shift")
	}

	insp, err := s.inspections.GetOrCreate(ctx, companyID, date, shift)
	if err != nil {
		return nil, err
	}

	return s.buildSheet(ctx, insp)
}

// Get returns an existing sheet with its checklist, without creating one.
func (s *InspectionService) Get(ctx context.Context, companyID string, date time.Time, shift string) (*Sheet, error) {
	insp, err := s.inspections.Get(ctx, companyID, date, shift)
	if err != nil {
		return nil, err
	}
	return s.buildSheet(ctx, insp)
}

func (s *InspectionService) buildSheet(ctx context.Context, insp *repository.Inspection) (*Sheet, error) {
	items, err := s.sops.ListForShift(ctx, insp.CompanyID, insp.Shift, insp.Date)
	if err != nil {
		return nil, err
	}

	results, err := s.inspections.ListResults(ctx, insp.ID)
	if err != nil {
		return nil, err
	}
	byDID := make(map[int]*repository.ItemResult, len(results))
	for i := range results {
		byDID[results[i].SopDID] = &results[i]
	}

	sheet := &Sheet{Inspection: *insp, Items: make([]ChecklistItem, 0, len(items))}
	for _, item := range items {
		sheet.Items = append(sheet.Items, ChecklistItem{
			Sop:    item,
			Result: byDID[item.SopDID],
		})
	}
	return sheet, nil
}

// ResultInput is one item outcome to record.
type ResultInput struct {
	SopDID           int     `json:"sop_did" validate:"required,min=1"`
	Passed           *bool   `json:"passed"`
	Notes            *string `json:"notes"`
	DeviationReason  *string `json:"deviation_reason"`
	CorrectiveAction *string `json:"corrective_action"`
	ImagePath        *string `json:"image_path"`
}

// SaveResults upserts item outcomes on a sheet. Completed sheets are sealed.
func (s *InspectionService) SaveResults(ctx context.Context, inspectionID string, inputs []ResultInput) ([]repository.ItemResult, error) {
	insp, err := s.inspections.GetByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Completed {
		return nil, errors.Conflict("inspection is already completed")
	}

	stored := make([]repository.ItemResult, 0, len(inputs))
	for _, input := range inputs {
		result, err := s.inspections.UpsertResult(ctx, &repository.ItemResult{
			ParentID:         inspectionID,
			SopDID:           input.SopDID,
			Passed:           input.Passed,
			Notes:            input.Notes,
			DeviationReason:  input.DeviationReason,
			CorrectiveAction: input.CorrectiveAction,
			ImagePath:        input.ImagePath,
		})
		if err != nil {
			return nil, err
		}
		stored = append(stored, *result)
	}
	return stored, nil
}

// Complete records the inspector sign-off and publishes the completion.
func (s *InspectionService) Complete(ctx context.Context, inspectionID, inspectorID, inspectorName, signature string, shiftTime *string) (*repository.Inspection, error) {
	if signature == "" {
		return nil, errors.BadRequest("inspector signature is required")
	}

	insp, err := s.inspections.Complete(ctx, inspectionID, inspectorID, inspectorName, signature, shiftTime)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("inspection_id", insp.ID).
		Str("shift", insp.Shift).
		Msg("inspection completed")
	s.publisher.PublishCompleted(ctx, insp, inspectorName)

	return insp, nil
}

// Verify records the verifier sign-off and publishes the verification.
func (s *InspectionService) Verify(ctx context.Context, inspectionID, verifierName, signature string) (*repository.Inspection, error) {
	if signature == "" {
		return nil, errors.BadRequest("verifier signature is required")
	}

	insp, err := s.inspections.Verify(ctx, inspectionID, verifierName, signature)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishVerified(ctx, insp, verifierName)
	return insp, nil
}

// ScheduleAudit runs the completeness audit for a company from its start
// date up to (but excluding) today, publishing a notification when gaps
// exist.
func (s *InspectionService) ScheduleAudit(ctx context.Context, companyID string, today time.Time) (*AuditResult, error) {
	cfg, err := s.configs.GetOrCreate(ctx, companyID)
	if err != nil {
		return nil, err
	}

	result := AuditResult{IncompleteDates: []string{}}
	if cfg.StartDate == nil {
		return &result, nil
	}

	holidays, err := s.configs.ListHolidays(ctx, companyID, *cfg.StartDate, today)
	if err != nil {
		return nil, err
	}
	sheets, err := s.inspections.ListRange(ctx, companyID, *cfg.StartDate, today)
	if err != nil {
		return nil, err
	}

	result = Audit(cfg, holidays, sheets, today)
	if len(result.IncompleteDates) > 0 {
		s.publisher.PublishScheduleIncomplete(ctx, companyID, result.IncompleteDates, result.UnverifiedCount)
	}
	return &result, nil
}

// Calendar returns per-day shift completion over [from, to] inclusive.
func (s *InspectionService) Calendar(ctx context.Context, companyID string, from, to time.Time) ([]DayState, error) {
	cfg, err := s.configs.GetOrCreate(ctx, companyID)
	if err != nil {
		return nil, err
	}
	holidays, err := s.configs.ListHolidays(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	sheets, err := s.inspections.ListRange(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	return BuildCalendar(cfg, holidays, sheets, from, to), nil
}
