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

// MaxSearchResults caps order search result sets
const MaxSearchResults = 500

// SalesOrder is a shipment record keyed by the tenant's own SO number.
// FileCount and CustomerName are joined in on reads.
type SalesOrder struct {
	ID           string     `db:"id" json:"id"`
	TenantID     string     `db:"tenant_id" json:"-"`
	SOID         string     `db:"soid" json:"soid"`
	CompanyID    *string    `db:"company_id" json:"company_id"`
	CustomerID   *string    `db:"customer_id" json:"customer_id"`
	CustomerPO   *string    `db:"customer_po" json:"customer_po"`
	DispatchDate *time.Time `db:"dispatch_date" json:"dispatch_date"`
	IsPaid       bool       `db:"is_paid" json:"is_paid"`
	IsClosed     bool       `db:"is_closed" json:"is_closed"`
	TotalAmount  *float64   `db:"total_amount" json:"total_amount"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`

	CustomerName *string `db:"customer_name" json:"customer_name,omitempty"`
	FileCount    int     `db:"file_count" json:"file_count"`
}

// PurchaseOrder is a receiving record keyed by the tenant's own PO number
type PurchaseOrder struct {
	ID          string     `db:"id" json:"id"`
	TenantID    string     `db:"tenant_id" json:"-"`
	POID        string     `db:"poid" json:"poid"`
	CompanyID   *string    `db:"company_id" json:"company_id"`
	VendorID    *string    `db:"vendor_id" json:"vendor_id"`
	OrderDate   *time.Time `db:"order_date" json:"order_date"`
	IsPaid      bool       `db:"is_paid" json:"is_paid"`
	IsClosed    bool       `db:"is_closed" json:"is_closed"`
	TotalAmount *float64   `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`

	VendorName *string `db:"vendor_name" json:"vendor_name,omitempty"`
	FileCount  int     `db:"file_count" json:"file_count"`
}

// OrderFlags carries the mutable status bits of an order
type OrderFlags struct {
	IsPaid   bool
	IsClosed bool
}

// OrderRepository handles sales and purchase order persistence
type OrderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const salesOrderSelect = `
	SELECT so.id, so.tenant_id, so.soid, so.company_id, so.customer_id, so.customer_po,
	       so.dispatch_date, so.is_paid, so.is_closed, so.total_amount, so.created_at,
	       c.name AS customer_name,
	       (SELECT COUNT(*) FROM document_files df
	        WHERE df.tenant_id = so.tenant_id
	          AND df.document_type = 'sales_order'
	          AND df.document_id = so.soid) AS file_count
	FROM sales_orders so
	LEFT JOIN customers c ON c.id = so.customer_id
`

// SearchSales filters sales orders by SO number or customer name
// substring. An empty term lists the newest orders. Results are capped.
func (r *OrderRepository) SearchSales(ctx context.Context, term string) ([]SalesOrder, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	orders := []SalesOrder{}
	query := salesOrderSelect + `
		WHERE so.tenant_id = $1 AND ($2 = '' OR so.soid ILIKE $3 OR c.name ILIKE $3)
		ORDER BY so.created_at DESC
		LIMIT $4
	`
	if err := r.db.SelectContext(ctx, &orders, query, tenantID, term, "%"+term+"%", MaxSearchResults); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetSalesBySOID fetches a sales order by its business key
func (r *OrderRepository) GetSalesBySOID(ctx context.Context, soid string) (*SalesOrder, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var so SalesOrder
	query := salesOrderSelect + ` WHERE so.tenant_id = $1 AND so.soid = $2`
	if err := r.db.GetContext(ctx, &so, query, tenantID, soid); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("sales order")
		}
		return nil, err
	}
	return &so, nil
}

// CreateSales inserts a new sales order
func (r *OrderRepository) CreateSales(ctx context.Context, so *SalesOrder) (*SalesOrder, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	so.ID = uuid.New().String()
	so.TenantID = tenantID

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			INSERT INTO sales_orders (id, tenant_id, soid, company_id, customer_id, customer_po, dispatch_date, total_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at
		`
		row := r.db.QueryRowxContext(txCtx, query,
			so.ID, tenantID, so.SOID, so.CompanyID, so.CustomerID, so.CustomerPO, so.DispatchDate, so.TotalAmount)
		return row.Scan(&so.CreatedAt)
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return so, nil
}

// UpdateSales changes a sales order's details and status flags
func (r *OrderRepository) UpdateSales(ctx context.Context, so *SalesOrder) (*SalesOrder, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			UPDATE sales_orders
			SET company_id = $1, customer_id = $2, customer_po = $3, dispatch_date = $4,
			    is_paid = $5, is_closed = $6, total_amount = $7
			WHERE tenant_id = $8 AND soid = $9
		`
		result, err := r.db.ExecContext(txCtx, query,
			so.CompanyID, so.CustomerID, so.CustomerPO, so.DispatchDate,
			so.IsPaid, so.IsClosed, so.TotalAmount, tenantID, so.SOID)
		if err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("sales order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetSalesBySOID(ctx, so.SOID)
}

// SetSalesFlags updates the paid/closed bits of a sales order
func (r *OrderRepository) SetSalesFlags(ctx context.Context, soid string, flags OrderFlags) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`UPDATE sales_orders SET is_paid = $1, is_closed = $2 WHERE tenant_id = $3 AND soid = $4`,
			flags.IsPaid, flags.IsClosed, tenantID, soid)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("sales order")
		}
		return nil
	})
}

// DeleteSales removes a sales order record. Archived files are handled
// by the caller.
func (r *OrderRepository) DeleteSales(ctx context.Context, soid string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`DELETE FROM sales_orders WHERE tenant_id = $1 AND soid = $2`, tenantID, soid)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("sales order")
		}
		return nil
	})
}

const purchaseOrderSelect = `
	SELECT po.id, po.tenant_id, po.poid, po.company_id, po.vendor_id,
	       po.order_date, po.is_paid, po.is_closed, po.total_amount, po.created_at,
	       v.name AS vendor_name,
	       (SELECT COUNT(*) FROM document_files df
	        WHERE df.tenant_id = po.tenant_id
	          AND df.document_type = 'purchase_order'
	          AND df.document_id = po.poid) AS file_count
	FROM purchase_orders po
	LEFT JOIN vendors v ON v.id = po.vendor_id
`

// SearchPurchase filters purchase orders by PO number or vendor name
func (r *OrderRepository) SearchPurchase(ctx context.Context, term string) ([]PurchaseOrder, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	orders := []PurchaseOrder{}
	query := purchaseOrderSelect + `
		WHERE po.tenant_id = $1 AND ($2 = '' OR po.poid ILIKE $3 OR v.name ILIKE $3)
		ORDER BY po.created_at DESC
		LIMIT $4
	`
	if err := r.db.SelectContext(ctx, &orders, query, tenantID, term, "%"+term+"%", MaxSearchResults); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetPurchaseByPOID fetches a purchase order by its business key
func (r *OrderRepository) GetPurchaseByPOID(ctx context.Context, poid string) (*PurchaseOrder, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var po PurchaseOrder
	query := purchaseOrderSelect + ` WHERE po.tenant_id = $1 AND po.poid = $2`
	if err := r.db.GetContext(ctx, &po, query, tenantID, poid); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("purchase order")
		}
		return nil, err
	}
	return &po, nil
}

// CreatePurchase inserts a new purchase order
func (r *OrderRepository) CreatePurchase(ctx context.Context, po *PurchaseOrder) (*PurchaseOrder, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	po.ID = uuid.New().String()
	po.TenantID = tenantID

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			INSERT INTO purchase_orders (id, tenant_id, poid, company_id, vendor_id, order_date, total_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at
		`
		row := r.db.QueryRowxContext(txCtx, query,
			po.ID, tenantID, po.POID, po.CompanyID, po.VendorID, po.OrderDate, po.TotalAmount)
		return row.Scan(&po.CreatedAt)
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return po, nil
}

// UpdatePurchase changes a purchase order's details and status flags
func (r *OrderRepository) UpdatePurchase(ctx context.Context, po *PurchaseOrder) (*PurchaseOrder, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			UPDATE purchase_orders
			SET company_id = $1, vendor_id = $2, order_date = $3,
			    is_paid = $4, is_closed = $5, total_amount = $6
			WHERE tenant_id = $7 AND poid = $8
		`
		result, err := r.db.ExecContext(txCtx, query,
			po.CompanyID, po.VendorID, po.OrderDate,
			po.IsPaid, po.IsClosed, po.TotalAmount, tenantID, po.POID)
		if err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("purchase order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetPurchaseByPOID(ctx, po.POID)
}

// SetPurchaseFlags updates the paid/closed bits of a purchase order
func (r *OrderRepository) SetPurchaseFlags(ctx context.Context, poid string, flags OrderFlags) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`UPDATE purchase_orders SET is_paid = $1, is_closed = $2 WHERE tenant_id = $3 AND poid = $4`,
			flags.IsPaid, flags.IsClosed, tenantID, poid)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("purchase order")
		}
		return nil
	})
}

// DeletePurchase removes a purchase order record
func (r *OrderRepository) DeletePurchase(ctx context.Context, poid string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`DELETE FROM purchase_orders WHERE tenant_id = $1 AND poid = $2`, tenantID, poid)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("purchase order")
		}
		return nil
	})
}
