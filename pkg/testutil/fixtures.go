package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserFixture represents test user data
type UserFixture struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// CompanyFixture represents a processing facility under a tenant
type CompanyFixture struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
}

// SopFixture represents a standard operating procedure item
type SopFixture struct {
	ID            string
	SopDID        int
	Description   string
	IsPreOp       bool
	IsMidDay      bool
	IsPostOp      bool
	InputRequired bool
	ImageRequired bool
	CreatedAt     *time.Time
}

// InspectionFixture represents a daily inspection record (one shift)
type InspectionFixture struct {
	ID        string
	CompanyID string
	Date      time.Time
	Shift     string
	Completed bool
	Verified  bool
}

// HaccpDocumentFixture represents one plan document row
type HaccpDocumentFixture struct {
	ID           string
	CompanyID    *string
	ProductType  string
	DocumentType string
	Year         int
	Version      int
	Status       string
}

// CustomerFixture represents an archive customer record
type CustomerFixture struct {
	ID         string
	CustomerID string
	Name       string
	Email      string
	City       string
	State      string
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// User creates a user fixture with defaults
func (f *FixtureFactory) User(opts ...func(*UserFixture)) UserFixture {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	user := UserFixture{
		ID:           uuid.New().String(),
		Username:     fmt.Sprintf("user%d", seq),
		Email:        fmt.Sprintf("user%d@test.fishtech.io", seq),
		FirstName:    fmt.Sprintf("Test%d", seq),
		LastName:     "User",
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&user)
	}

	return user
}

// WithUsername sets the username
func WithUsername(username string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Username = username
	}
}

// WithName sets the user's first and last name
func WithName(first, last string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.FirstName = first
		u.LastName = last
	}
}

// WithPassword sets the user password (hashed)
func WithPassword(password string) func(*UserFixture) {
	return func(u *UserFixture) {
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		u.PasswordHash = string(hash)
	}
}

// AsAdmin marks the user as a tenant admin
func AsAdmin() func(*UserFixture) {
	return func(u *UserFixture) {
		u.IsAdmin = true
	}
}

// Company creates a company fixture with defaults
func (f *FixtureFactory) Company(opts ...func(*CompanyFixture)) CompanyFixture {
	seq := f.nextSeq()

	company := CompanyFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Plant %d", seq),
		Address:   "100 Harbor Way",
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&company)
	}

	return company
}

// WithCompanyName sets the company name
func WithCompanyName(name string) func(*CompanyFixture) {
	return func(c *CompanyFixture) {
		c.Name = name
	}
}

// Sop creates a SOP fixture with defaults (applies to all three shifts)
func (f *FixtureFactory) Sop(opts ...func(*SopFixture)) SopFixture {
	seq := f.nextSeq()

	sop := SopFixture{
		ID:          uuid.New().String(),
		SopDID:      seq,
		Description: fmt.Sprintf("Sanitation check %d", seq),
		IsPreOp:     true,
		IsMidDay:    true,
		IsPostOp:    true,
	}

	for _, opt := range opts {
		opt(&sop)
	}

	return sop
}

// WithShifts sets which shifts the SOP applies to
func WithShifts(preOp, midDay, postOp bool) func(*SopFixture) {
	return func(s *SopFixture) {
		s.IsPreOp = preOp
		s.IsMidDay = midDay
		s.IsPostOp = postOp
	}
}

// WithSopCreatedAt sets the SOP's point-in-time validity start
func WithSopCreatedAt(t time.Time) func(*SopFixture) {
	return func(s *SopFixture) {
		s.CreatedAt = &t
	}
}

// Inspection creates an inspection fixture with defaults
func (f *FixtureFactory) Inspection(companyID string, date time.Time, shift string, opts ...func(*InspectionFixture)) InspectionFixture {
	insp := InspectionFixture{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Date:      date,
		Shift:     shift,
	}

	for _, opt := range opts {
		opt(&insp)
	}

	return insp
}

// AsCompleted marks the inspection as completed by the inspector
func AsCompleted() func(*InspectionFixture) {
	return func(i *InspectionFixture) {
		i.Completed = true
	}
}

// AsVerified marks the inspection as completed and verified
func AsVerified() func(*InspectionFixture) {
	return func(i *InspectionFixture) {
		i.Completed = true
		i.Verified = true
	}
}

// HaccpDocument creates a plan document fixture with defaults
func (f *FixtureFactory) HaccpDocument(opts ...func(*HaccpDocumentFixture)) HaccpDocumentFixture {
	doc := HaccpDocumentFixture{
		ID:           uuid.New().String(),
		ProductType:  "fresh-salmon",
		DocumentType: "product_description",
		Year:         time.Now().Year(),
		Version:      1,
		Status:       "not_started",
	}

	for _, opt := range opts {
		opt(&doc)
	}

	return doc
}

// WithDocumentType sets the document type
func WithDocumentType(docType string) func(*HaccpDocumentFixture) {
	return func(d *HaccpDocumentFixture) {
		d.DocumentType = docType
	}
}

// WithDocumentStatus sets the document status
func WithDocumentStatus(status string) func(*HaccpDocumentFixture) {
	return func(d *HaccpDocumentFixture) {
		d.Status = status
	}
}

// WithVersion sets year and version
func WithVersion(year, version int) func(*HaccpDocumentFixture) {
	return func(d *HaccpDocumentFixture) {
		d.Year = year
		d.Version = version
	}
}

// ForCompany scopes the document to a company (nil = tenant master set)
func ForCompany(companyID string) func(*HaccpDocumentFixture) {
	return func(d *HaccpDocumentFixture) {
		d.CompanyID = &companyID
	}
}

// Customer creates a customer fixture with defaults
func (f *FixtureFactory) Customer(opts ...func(*CustomerFixture)) CustomerFixture {
	seq := f.nextSeq()

	customer := CustomerFixture{
		ID:         uuid.New().String(),
		CustomerID: fmt.Sprintf("CUST-%04d", seq),
		Name:       fmt.Sprintf("Harbor Market %d", seq),
		Email:      fmt.Sprintf("orders%d@harbormarket.test", seq),
		City:       "Seattle",
		State:      "WA",
	}

	for _, opt := range opts {
		opt(&customer)
	}

	return customer
}

// WithCustomerName sets the customer name
func WithCustomerName(name string) func(*CustomerFixture) {
	return func(c *CustomerFixture) {
		c.Name = name
	}
}

// DocumentSet creates the four documents of one HACCP set at a shared
// (company, product type, year, version) key
func (f *FixtureFactory) DocumentSet(productType string, year, version int, status string, opts ...func(*HaccpDocumentFixture)) []HaccpDocumentFixture {
	types := []string{"product_description", "flow_chart", "hazard_analysis", "ccp_summary"}
	docs := make([]HaccpDocumentFixture, 0, len(types))
	for _, dt := range types {
		all := append([]func(*HaccpDocumentFixture){
			WithDocumentType(dt),
			WithVersion(year, version),
			WithDocumentStatus(status),
		}, opts...)
		doc := f.HaccpDocument(all...)
		doc.ProductType = productType
		docs = append(docs, doc)
	}
	return docs
}
