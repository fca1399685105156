package invoiceRepo

import (
	"context"
	"errors"
	"time"

	"github.com/mouhaned372/facture-digitalisation/models"
)

// Sort orders accepted by GetAll.
const (
	SortDateDesc   = "date_desc"
	SortDateAsc    = "date_asc"
	SortAmountDesc = "amount_desc"
	SortAmountAsc  = "amount_asc"
	SortType       = "type"
)

// ErrNotFound is returned when no invoice matches the requested id.
var ErrNotFound = errors.New("invoice not found")

// ErrDuplicateNumber is returned when a write violates the unique
// invoice_number constraint. The write-time constraint is authoritative; the
// deduplicator's pre-check is advisory only.
var ErrDuplicateNumber = errors.New("invoice number already exists")

// ListFilter narrows and orders the invoice listing. Dates are DD/MM/YYYY and
// compared against the invoice date. A nil amount bound is unbounded.
type ListFilter struct {
	CreatedBy string
	Type      string
	StartDate string
	EndDate   string
	MinAmount *float64
	MaxAmount *float64
	SortBy    string
}

// InvoiceRepository is the persistence contract for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	GetAll(ctx context.Context, filter ListFilter) ([]models.Invoice, error)
	Update(ctx context.Context, inv *models.Invoice) error
	Delete(ctx context.Context, id string) error
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// FindOverdue returns pending invoices whose due date is strictly
	// before the given day.
	FindOverdue(ctx context.Context, today time.Time) ([]models.Invoice, error)
}
