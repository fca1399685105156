package invoice

import (
	"context"

	invoiceRepo "github.com/mouhaned372/facture-digitalisation/database/repository/invoice"
	"github.com/mouhaned372/facture-digitalisation/models"
)

// UploadInput carries one scanned document through the extraction pipeline.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
	UserID      string
}

// UpdateInput holds the editable invoice fields; nil means "leave as is".
type UpdateInput struct {
	InvoiceNumber *string               `json:"invoiceNumber,omitempty"`
	InvoiceDate   *string               `json:"invoiceDate,omitempty"`
	DueDate       *string               `json:"dueDate,omitempty"`
	Type          *string               `json:"type,omitempty"`
	Supplier      *models.Supplier      `json:"supplier,omitempty"`
	Items         *[]models.InvoiceItem `json:"items,omitempty"`
	TaxAmount     *float64              `json:"taxAmount,omitempty"`
	PaymentStatus *string               `json:"paymentStatus,omitempty"`
}

// InvoiceService exposes the extraction pipeline and invoice lifecycle.
type InvoiceService interface {
	ProcessUpload(ctx context.Context, input UploadInput) (*models.Invoice, error)
	CreateManual(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)
	List(ctx context.Context, filter invoiceRepo.ListFilter) ([]models.Invoice, error)
	GetByID(ctx context.Context, userID, id string) (*models.Invoice, error)
	Update(ctx context.Context, userID, id string, input UpdateInput) (*models.Invoice, error)
	Delete(ctx context.Context, userID, id string) error
	MarkAsPaid(ctx context.Context, userID, id, paymentDate string) (*models.Invoice, error)
	ListOverdue(ctx context.Context) ([]models.Invoice, error)
	CheckOverdueInvoices(ctx context.Context) error
}
