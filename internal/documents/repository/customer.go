package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// Customer is a buyer the tenant ships product to. CustomerID is the
// tenant's own customer code, distinct from the row's UUID.
type Customer struct {
	ID         string    `db:"id" json:"id"`
	TenantID   string    `db:"tenant_id" json:"-"`
	CustomerID string    `db:"customer_id" json:"customer_id"`
	Name       string    `db:"name" json:"name"`
	Contact    *string   `db:"contact" json:"contact"`
	Email      *string   `db:"email" json:"email"`
	Phone      *string   `db:"phone" json:"phone"`
	City       *string   `db:"city" json:"city"`
	State      *string   `db:"state" json:"state"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CustomerEmail is an additional recipient address for a customer's
// outbound document mail.
type CustomerEmail struct {
	ID         string `db:"id" json:"id"`
	TenantID   string `db:"tenant_id" json:"-"`
	CustomerID string `db:"customer_id" json:"customer_id"`
	Email      string `db:"email" json:"email"`
}

const customerColumns = `id, tenant_id, customer_id, name, contact, email, phone, city, state, created_at`

// CustomerRepository handles customer persistence
type CustomerRepository struct {
	db *database.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *database.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// List returns the tenant's customers ordered by name
func (r *CustomerRepository) List(ctx context.Context) ([]Customer, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	customers := []Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &customers, query, tenantID); err != nil {
		return nil, err
	}
	return customers, nil
}

// GetByID fetches a single customer
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var c Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND id = $2`
	if err := r.db.GetContext(ctx, &c, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("customer")
		}
		return nil, err
	}
	return &c, nil
}

// Search matches the query term against customer code and name,
// case-insensitively, for autocomplete.
func (r *CustomerRepository) Search(ctx context.Context, term string, limit int) ([]Customer, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	customers := []Customer{}
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE tenant_id = $1 AND (customer_id ILIKE $2 OR name ILIKE $2)
		ORDER BY name
		LIMIT $3
	`
	if err := r.db.SelectContext(ctx, &customers, query, tenantID, "%"+term+"%", limit); err != nil {
		return nil, err
	}
	return customers, nil
}

// Create inserts a new customer
func (r *CustomerRepository) Create(ctx context.Context, c *Customer) (*Customer, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	c.ID = uuid.New().String()
	c.TenantID = tenantID

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			INSERT INTO customers (id, tenant_id, customer_id, name, contact, email, phone, city, state)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at
		`
		row := r.db.QueryRowxContext(txCtx, query,
			c.ID, tenantID, c.CustomerID, c.Name, c.Contact, c.Email, c.Phone, c.City, c.State)
		return row.Scan(&c.CreatedAt)
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return c, nil
}

// Update changes a customer's details. The customer code is immutable.
func (r *CustomerRepository) Update(ctx context.Context, c *Customer) (*Customer, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var updated Customer
	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			UPDATE customers
			SET name = $1, contact = $2, email = $3, phone = $4, city = $5, state = $6
			WHERE tenant_id = $7 AND id = $8
			RETURNING ` + customerColumns + `
		`
		if err := r.db.GetContext(txCtx, &updated, query,
			c.Name, c.Contact, c.Email, c.Phone, c.City, c.State, tenantID, c.ID); err != nil {
			if err == sql.ErrNoRows {
				return errors.NotFound("customer")
			}
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a customer and its extra email addresses
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx, `DELETE FROM customers WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("customer")
		}
		return nil
	})
}

// ListEmails returns a customer's extra recipient addresses
func (r *CustomerRepository) ListEmails(ctx context.Context, customerID string) ([]CustomerEmail, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	emails := []CustomerEmail{}
	query := `
		SELECT id, tenant_id, customer_id, email
		FROM customer_emails
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY email
	`
	if err := r.db.SelectContext(ctx, &emails, query, tenantID, customerID); err != nil {
		return nil, err
	}
	return emails, nil
}

// AddEmail attaches a recipient address to a customer
func (r *CustomerRepository) AddEmail(ctx context.Context, customerID, email string) (*CustomerEmail, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	ce := &CustomerEmail{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		CustomerID: customerID,
		Email:      email,
	}

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		_, err := r.db.ExecContext(txCtx,
			`INSERT INTO customer_emails (id, tenant_id, customer_id, email) VALUES ($1, $2, $3, $4)`,
			ce.ID, tenantID, customerID, email)
		return err
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return ce, nil
}

// DeleteEmail removes a recipient address
func (r *CustomerRepository) DeleteEmail(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`DELETE FROM customer_emails WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("customer email")
		}
		return nil
	})
}
