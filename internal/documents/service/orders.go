package service

import (
	"context"
	"strings"

	"github.com/fishtech/fishtech-backend/internal/documents/events"
	"github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// Order type labels used in events and recipient resolution
const (
	OrderTypeSales    = "sales"
	OrderTypePurchase = "purchase"
)

// OrderService wraps order persistence with lifecycle events, archive
// cleanup, and outbound-mail recipient resolution.
type OrderService struct {
	orders       *repository.OrderRepository
	customers    *repository.CustomerRepository
	vendors      *repository.VendorRepository
	tenantEmails *repository.TenantEmailRepository
	archive      *ArchiveService
	logger       *logger.Logger
	publisher    *events.DocumentEventPublisher
}

// NewOrderService creates a new order service
func NewOrderService(
	orders *repository.OrderRepository,
	customers *repository.CustomerRepository,
	vendors *repository.VendorRepository,
	tenantEmails *repository.TenantEmailRepository,
	archive *ArchiveService,
	log *logger.Logger,
	publisher *events.DocumentEventPublisher,
) *OrderService {
	return &OrderService{
		orders:       orders,
		customers:    customers,
		vendors:      vendors,
		tenantEmails: tenantEmails,
		archive:      archive,
		logger:       log,
		publisher:    publisher,
	}
}

// CreateSales records a new sales order
func (s *OrderService) CreateSales(ctx context.Context, so *repository.SalesOrder, createdBy string) (*repository.SalesOrder, error) {
	created, err := s.orders.CreateSales(ctx, so)
	if err != nil {
		return nil, err
	}

	partyID := ""
	if created.CustomerID != nil {
		partyID = *created.CustomerID
	}
	s.publisher.PublishOrderCreated(ctx, created.ID, OrderTypeSales, created.SOID, partyID, createdBy)
	return created, nil
}

// CreatePurchase records a new purchase order
func (s *OrderService) CreatePurchase(ctx context.Context, po *repository.PurchaseOrder, createdBy string) (*repository.PurchaseOrder, error) {
	created, err := s.orders.CreatePurchase(ctx, po)
	if err != nil {
		return nil, err
	}

	partyID := ""
	if created.VendorID != nil {
		partyID = *created.VendorID
	}
	s.publisher.PublishOrderCreated(ctx, created.ID, OrderTypePurchase, created.POID, partyID, createdBy)
	return created, nil
}

// SetSalesFlags updates a sales order's paid/closed bits, publishing a
// close-out event on the open-to-closed transition.
func (s *OrderService) SetSalesFlags(ctx context.Context, soid string, flags repository.OrderFlags, actor string) (*repository.SalesOrder, error) {
	before, err := s.orders.GetSalesBySOID(ctx, soid)
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetSalesFlags(ctx, soid, flags); err != nil {
		return nil, err
	}
	if !before.IsClosed && flags.IsClosed {
		s.publisher.PublishOrderClosed(ctx, before.ID, OrderTypeSales, actor)
	}
	return s.orders.GetSalesBySOID(ctx, soid)
}

// SetPurchaseFlags updates a purchase order's paid/closed bits
func (s *OrderService) SetPurchaseFlags(ctx context.Context, poid string, flags repository.OrderFlags, actor string) (*repository.PurchaseOrder, error) {
	before, err := s.orders.GetPurchaseByPOID(ctx, poid)
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetPurchaseFlags(ctx, poid, flags); err != nil {
		return nil, err
	}
	if !before.IsClosed && flags.IsClosed {
		s.publisher.PublishOrderClosed(ctx, before.ID, OrderTypePurchase, actor)
	}
	return s.orders.GetPurchaseByPOID(ctx, poid)
}

// DeleteSales removes a sales order and its archived files
func (s *OrderService) DeleteSales(ctx context.Context, soid string) error {
	if _, err := s.orders.GetSalesBySOID(ctx, soid); err != nil {
		return err
	}
	if err := s.archive.DeleteRecordFiles(ctx, repository.DocSalesOrder, soid); err != nil {
		return err
	}
	return s.orders.DeleteSales(ctx, soid)
}

// DeletePurchase removes a purchase order and its archived files
func (s *OrderService) DeletePurchase(ctx context.Context, poid string) error {
	if _, err := s.orders.GetPurchaseByPOID(ctx, poid); err != nil {
		return err
	}
	if err := s.archive.DeleteRecordFiles(ctx, repository.DocPurchaseOrder, poid); err != nil {
		return err
	}
	return s.orders.DeletePurchase(ctx, poid)
}

// Recipients resolves the outbound-mail recipient list for an order:
// the counterparty's primary address, its extra addresses, and the
// tenant-wide addresses, deduplicated.
func (s *OrderService) Recipients(ctx context.Context, documentType, documentID string) ([]string, error) {
	var addresses []string

	switch documentType {
	case repository.DocSalesOrder:
		so, err := s.orders.GetSalesBySOID(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if so.CustomerID != nil {
			customer, err := s.customers.GetByID(ctx, *so.CustomerID)
			if err != nil {
				return nil, err
			}
			if customer.Email != nil {
				addresses = append(addresses, *customer.Email)
			}
			extras, err := s.customers.ListEmails(ctx, customer.ID)
			if err != nil {
				return nil, err
			}
			for _, e := range extras {
				addresses = append(addresses, e.Email)
			}
		}
	case repository.DocPurchaseOrder:
		po, err := s.orders.GetPurchaseByPOID(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if po.VendorID != nil {
			vendor, err := s.vendors.GetByID(ctx, *po.VendorID)
			if err != nil {
				return nil, err
			}
			if vendor.Email != nil {
				addresses = append(addresses, *vendor.Email)
			}
			extras, err := s.vendors.ListEmails(ctx, vendor.ID)
			if err != nil {
				return nil, err
			}
			for _, e := range extras {
				addresses = append(addresses, e.Email)
			}
		}
	default:
		return nil, errors.BadRequest("unknown document type")
	}

	tenantWide, err := s.tenantEmails.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range tenantWide {
		addresses = append(addresses, e.Email)
	}

	return dedupeAddresses(addresses), nil
}

func dedupeAddresses(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, addr := range in {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}
