package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// User events
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"

	// Tenant / billing events
	EventTenantSubscriptionUpdated = "tenant.subscription.updated"
	EventTenantPaymentFailed       = "tenant.payment.failed"
	EventTenantTrialExpiring       = "tenant.trial.expiring"

	// HACCP events
	EventHaccpDocumentSaved    = "haccp.document.saved"
	EventHaccpDocumentComplete = "haccp.document.completed"
	EventHaccpSetComplete      = "haccp.set.completed"
	EventHaccpVersionCreated   = "haccp.version.created"

	// Inspection events
	EventInspectionCompleted = "inspection.completed"
	EventInspectionVerified  = "inspection.verified"
	EventScheduleIncomplete  = "inspection.schedule.incomplete"

	// Document archive events
	EventOrderCreated      = "document.order.created"
	EventOrderClosed       = "document.order.closed"
	EventFileArchived      = "document.file.archived"
	EventDocumentsEmailed  = "document.files.emailed"
)

// Exchange names
const (
	ExchangeUserEvents       = "user.events"
	ExchangeTenantEvents     = "tenant.events"
	ExchangeHaccpEvents      = "haccp.events"
	ExchangeInspectionEvents = "inspection.events"
	ExchangeDocumentEvents   = "document.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	TenantID      string          `json:"tenant_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// NewTenantEvent creates a new event stamped with the tenant it belongs to.
func NewTenantEvent(eventType, source, correlationID, tenantID string, data interface{}) (*Event, error) {
	event, err := NewEvent(eventType, source, correlationID, data)
	if err != nil {
		return nil, err
	}
	event.TenantID = tenantID
	return event, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// User Events

// UserCreatedEvent is published when a user account is created
type UserCreatedEvent struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
	TenantID  string `json:"tenant_id"`
	Subdomain string `json:"subdomain"`
}

// FullName returns the user's full name
func (e *UserCreatedEvent) FullName() string {
	return e.FirstName + " " + e.LastName
}

// UserUpdatedEvent is published when a user account is updated
type UserUpdatedEvent struct {
	UserID   string         `json:"user_id"`
	Fields   map[string]any `json:"fields"`
	TenantID string         `json:"tenant_id"`
}

// UserDeletedEvent is published when a user account is deleted
type UserDeletedEvent struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	TenantID string `json:"tenant_id"`
}

// Tenant / Billing Events

// TenantSubscriptionUpdatedEvent is published when a tenant's subscription state changes
type TenantSubscriptionUpdatedEvent struct {
	TenantID           string `json:"tenant_id"`
	SubscriptionStatus string `json:"subscription_status"`
	IsActive           bool   `json:"is_active"`
	StripeCustomerID   string `json:"stripe_customer_id,omitempty"`
}

// TenantPaymentFailedEvent is published when an invoice payment fails
type TenantPaymentFailedEvent struct {
	TenantID         string `json:"tenant_id"`
	StripeCustomerID string `json:"stripe_customer_id"`
	InvoiceID        string `json:"invoice_id"`
}

// TenantTrialExpiringEvent is published when a trial is nearing its end
type TenantTrialExpiringEvent struct {
	TenantID      string    `json:"tenant_id"`
	TrialEndDate  time.Time `json:"trial_end_date"`
	DaysRemaining int       `json:"days_remaining"`
}

// HACCP Events

// HaccpDocumentSavedEvent is published when a plan document draft is saved
type HaccpDocumentSavedEvent struct {
	DocumentID   string `json:"document_id"`
	DocumentType string `json:"document_type"`
	ProductType  string `json:"product_type"`
	Year         int    `json:"year"`
	Version      int    `json:"version"`
	Status       string `json:"status"`
	SavedBy      string `json:"saved_by"`
}

// HaccpDocumentCompletedEvent is published when a single plan document is finalized
type HaccpDocumentCompletedEvent struct {
	DocumentID   string `json:"document_id"`
	DocumentType string `json:"document_type"`
	ProductType  string `json:"product_type"`
	Year         int    `json:"year"`
	Version      int    `json:"version"`
	CompletedBy  string `json:"completed_by"`
}

// HaccpSetCompletedEvent is published when all four documents of a set are completed
type HaccpSetCompletedEvent struct {
	ProductType string  `json:"product_type"`
	CompanyID   *string `json:"company_id,omitempty"`
	Year        int     `json:"year"`
	Version     int     `json:"version"`
}

// HaccpVersionCreatedEvent is published when a new in-progress version set is generated
type HaccpVersionCreatedEvent struct {
	ProductType string  `json:"product_type"`
	CompanyID   *string `json:"company_id,omitempty"`
	Year        int     `json:"year"`
	FromVersion int     `json:"from_version"`
	NewVersion  int     `json:"new_version"`
	CreatedBy   string  `json:"created_by"`
}

// Inspection Events

// InspectionCompletedEvent is published when an inspector completes a daily inspection
type InspectionCompletedEvent struct {
	InspectionID string    `json:"inspection_id"`
	CompanyID    string    `json:"company_id"`
	Date         time.Time `json:"date"`
	Shift        string    `json:"shift"`
	CompletedBy  string    `json:"completed_by"`
}

// InspectionVerifiedEvent is published when a verifier signs off an inspection
type InspectionVerifiedEvent struct {
	InspectionID string    `json:"inspection_id"`
	CompanyID    string    `json:"company_id"`
	Date         time.Time `json:"date"`
	Shift        string    `json:"shift"`
	VerifiedBy   string    `json:"verified_by"`
}

// ScheduleIncompleteEvent is published when a completeness scan finds missing days
type ScheduleIncompleteEvent struct {
	CompanyID       string   `json:"company_id"`
	IncompleteDates []string `json:"incomplete_dates"`
	UnverifiedCount int      `json:"unverified_count"`
}

// Document Archive Events

// OrderCreatedEvent is published when a sales or purchase order is created
type OrderCreatedEvent struct {
	OrderID     string `json:"order_id"`
	OrderType   string `json:"order_type"` // "sales" or "purchase"
	OrderNumber string `json:"order_number"`
	PartyID     string `json:"party_id"` // Customer or vendor
	CreatedBy   string `json:"created_by"`
}

// OrderClosedEvent is published when an order is marked closed
type OrderClosedEvent struct {
	OrderID   string `json:"order_id"`
	OrderType string `json:"order_type"`
	ClosedBy  string `json:"closed_by"`
}

// FileArchivedEvent is published when a file is stored in the document archive
type FileArchivedEvent struct {
	FileID       string `json:"file_id"`
	DocumentType string `json:"document_type"`
	OwnerID      string `json:"owner_id"`
	Filename     string `json:"filename"`
	SizeBytes    int64  `json:"size_bytes"`
	UploadedBy   string `json:"uploaded_by"`
}

// DocumentsEmailedEvent is published when archived files are emailed out
type DocumentsEmailedEvent struct {
	Recipient string   `json:"recipient"`
	FileIDs   []string `json:"file_ids"`
	SentBy    string   `json:"sent_by"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
