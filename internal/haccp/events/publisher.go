package events

import (
	"context"

	"github.com/fishtech/fishtech-backend/internal/haccp/repository"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/messaging"
)

// HaccpEventPublisher publishes plan document lifecycle events
type HaccpEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewHaccpEventPublisher creates a new plan event publisher
func NewHaccpEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*HaccpEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeHaccpEvents, "haccp-service", log)
	if err != nil {
		return nil, err
	}

	return &HaccpEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishDocumentCompleted publishes the completion of a single document
func (p *HaccpEventPublisher) PublishDocumentCompleted(ctx context.Context, doc *repository.Document, completedBy string) {
	if p == nil {
		return
	}
	data := messaging.HaccpDocumentCompletedEvent{
		DocumentID:   doc.ID,
		DocumentType: doc.DocumentType,
		ProductType:  doc.ProductType,
		Year:         doc.Year,
		Version:      doc.Version,
		CompletedBy:  completedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventHaccpDocumentComplete, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", doc.ID).Msg("failed to publish document completed event")
	}
}

// PublishSetCompleted publishes the closing of a full four-document set
func (p *HaccpEventPublisher) PublishSetCompleted(ctx context.Context, key repository.SetKey, version int) {
	if p == nil {
		return
	}
	data := messaging.HaccpSetCompletedEvent{
		ProductType: key.ProductType,
		CompanyID:   key.CompanyID,
		Year:        key.Year,
		Version:     version,
	}

	if err := p.publisher.Publish(ctx, messaging.EventHaccpSetComplete, data); err != nil {
		p.logger.Error().Err(err).Str("product_type", key.ProductType).Msg("failed to publish set completed event")
	}
}

// PublishVersionCreated publishes the opening of a new draft version
func (p *HaccpEventPublisher) PublishVersionCreated(ctx context.Context, key repository.SetKey, fromVersion, newVersion int, createdBy string) {
	if p == nil {
		return
	}
	data := messaging.HaccpVersionCreatedEvent{
		ProductType: key.ProductType,
		CompanyID:   key.CompanyID,
		Year:        key.Year,
		FromVersion: fromVersion,
		NewVersion:  newVersion,
		CreatedBy:   createdBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventHaccpVersionCreated, data); err != nil {
		p.logger.Error().Err(err).Str("product_type", key.ProductType).Msg("failed to publish version created event")
	}
}
