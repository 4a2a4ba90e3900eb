package events

import (
	"context"

	"github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/messaging"
)

// DocumentEventPublisher publishes archive and order lifecycle events
type DocumentEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewDocumentEventPublisher creates a new document event publisher
func NewDocumentEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*DocumentEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeDocumentEvents, "documents-service", log)
	if err != nil {
		return nil, err
	}

	return &DocumentEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishOrderCreated publishes a new order record
func (p *DocumentEventPublisher) PublishOrderCreated(ctx context.Context, orderID, orderType, orderNumber, partyID, createdBy string) {
	if p == nil {
		return
	}
	data := messaging.OrderCreatedEvent{
		OrderID:     orderID,
		OrderType:   orderType,
		OrderNumber: orderNumber,
		PartyID:     partyID,
		CreatedBy:   createdBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventOrderCreated, data); err != nil {
		p.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to publish order created event")
	}
}

// PublishOrderClosed publishes an order close-out
func (p *DocumentEventPublisher) PublishOrderClosed(ctx context.Context, orderID, orderType, closedBy string) {
	if p == nil {
		return
	}
	data := messaging.OrderClosedEvent{
		OrderID:   orderID,
		OrderType: orderType,
		ClosedBy:  closedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventOrderClosed, data); err != nil {
		p.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to publish order closed event")
	}
}

// PublishFileArchived publishes a stored file
func (p *DocumentEventPublisher) PublishFileArchived(ctx context.Context, f *repository.DocumentFile, uploadedBy string) {
	if p == nil {
		return
	}
	data := messaging.FileArchivedEvent{
		FileID:       f.ID,
		DocumentType: f.DocumentType,
		OwnerID:      f.DocumentID,
		Filename:     f.Filename,
		SizeBytes:    f.FileSize,
		UploadedBy:   uploadedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventFileArchived, data); err != nil {
		p.logger.Error().Err(err).Str("file_id", f.ID).Msg("failed to publish file archived event")
	}
}

// PublishDocumentsEmailed publishes an outbound document mail
func (p *DocumentEventPublisher) PublishDocumentsEmailed(ctx context.Context, recipient string, fileIDs []string, sentBy string) {
	if p == nil {
		return
	}
	data := messaging.DocumentsEmailedEvent{
		Recipient: recipient,
		FileIDs:   fileIDs,
		SentBy:    sentBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDocumentsEmailed, data); err != nil {
		p.logger.Error().Err(err).Str("recipient", recipient).Msg("failed to publish documents emailed event")
	}
}
