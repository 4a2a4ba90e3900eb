package events

import (
	"context"

	"github.com/fishtech/fishtech-backend/internal/operations/repository"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/messaging"
)

// InspectionEventPublisher publishes daily inspection lifecycle events
type InspectionEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInspectionEventPublisher creates a new inspection event publisher
func NewInspectionEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InspectionEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInspectionEvents, "operations-service", log)
	if err != nil {
		return nil, err
	}

	return &InspectionEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishCompleted publishes an inspector sign-off
func (p *InspectionEventPublisher) PublishCompleted(ctx context.Context, insp *repository.Inspection, completedBy string) {
	if p == nil {
		return
	}
	data := messaging.InspectionCompletedEvent{
		InspectionID: insp.ID,
		CompanyID:    insp.CompanyID,
		Date:         insp.Date,
		Shift:        insp.Shift,
		CompletedBy:  completedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventInspectionCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("inspection_id", insp.ID).Msg("failed to publish inspection completed event")
	}
}

// PublishVerified publishes a verifier sign-off
func (p *InspectionEventPublisher) PublishVerified(ctx context.Context, insp *repository.Inspection, verifiedBy string) {
	if p == nil {
		return
	}
	data := messaging.InspectionVerifiedEvent{
		InspectionID: insp.ID,
		CompanyID:    insp.CompanyID,
		Date:         insp.Date,
		Shift:        insp.Shift,
		VerifiedBy:   verifiedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventInspectionVerified, data); err != nil {
		p.logger.Error().Err(err).Str("inspection_id", insp.ID).Msg("failed to publish inspection verified event")
	}
}

// PublishScheduleIncomplete publishes the result of a completeness scan that
// found gaps
func (p *InspectionEventPublisher) PublishScheduleIncomplete(ctx context.Context, companyID string, incompleteDates []string, unverified int) {
	if p == nil {
		return
	}
	data := messaging.ScheduleIncompleteEvent{
		CompanyID:       companyID,
		IncompleteDates: incompleteDates,
		UnverifiedCount: unverified,
	}

	if err := p.publisher.Publish(ctx, messaging.EventScheduleIncomplete, data); err != nil {
		p.logger.Error().Err(err).Str("company_id", companyID).Msg("failed to publish schedule incomplete event")
	}
}
