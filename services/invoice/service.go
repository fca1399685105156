package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	invoiceRepo "github.com/mouhaned372/facture-digitalisation/database/repository/invoice"
	"github.com/mouhaned372/facture-digitalisation/models"
	"github.com/mouhaned372/facture-digitalisation/services/extraction"
	"github.com/mouhaned372/facture-digitalisation/services/notification"
	"github.com/mouhaned372/facture-digitalisation/services/storage"
	"github.com/mouhaned372/facture-digitalisation/services/vision"
	"github.com/mouhaned372/facture-digitalisation/utils"

	"go.uber.org/zap"
)

// DefaultInvoiceService is the production implementation of InvoiceService.
// Storage and Notifier are optional; when nil the corresponding side effects
// are skipped.
type DefaultInvoiceService struct {
	Repo     invoiceRepo.InvoiceRepository
	Vision   vision.Client
	Storage  storage.StorageService
	Notifier notification.NotificationService

	// DeriveItemTotals mirrors the DERIVE_ITEM_TOTALS config flag.
	DeriveItemTotals bool
}

// ProcessUpload runs the full extraction pipeline on one scanned document:
// vision call, JSON sanitization, normalization, number deduplication,
// totals recomputation, then a single store create.
func (s *DefaultInvoiceService) ProcessUpload(ctx context.Context, input UploadInput) (*models.Invoice, error) {
	logger := utils.GetLogger()

	text, err := s.Vision.ExtractInvoice(ctx, input.Data, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("document extraction failed: %w", err)
	}

	raw, err := extraction.ExtractJSON(text)
	if err != nil {
		// ExtractionFormatError: not retried, surfaced as an upload failure.
		return nil, err
	}

	inv := extraction.NormalizeWithOptions(raw, extraction.Options{DeriveItemTotals: s.DeriveItemTotals})
	inv.CreatedBy = input.UserID
	inv.FileName = input.FileName
	inv.FileType = input.ContentType
	inv.FileSize = input.Size

	// Keep the original image around for audit display. Best-effort: a
	// storage outage must not lose the extracted data.
	if s.Storage != nil {
		publicID, err := s.Storage.UploadImage(ctx, fmt.Sprintf("%s-%d", inv.InvoiceNumber, time.Now().Unix()), input.Data)
		if err != nil {
			logger.Warn("failed to store invoice image", zap.String("fileName", input.FileName), zap.Error(err))
		} else {
			inv.FileID = publicID
		}
	}

	return s.createDeduplicated(ctx, inv)
}

// CreateManual persists a manually entered invoice. It bypasses the AI stages
// but still runs deduplication, totals and store validation.
func (s *DefaultInvoiceService) CreateManual(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = fmt.Sprintf("FAC-%d", time.Now().UnixMilli())
	}
	if inv.Type == "" {
		inv.Type = models.DefaultInvoiceType
	}
	if inv.PaymentStatus == "" {
		inv.PaymentStatus = models.PaymentStatusPending
	}
	if s.DeriveItemTotals {
		for i := range inv.Items {
			if inv.Items[i].TotalPrice == 0 {
				inv.Items[i].TotalPrice = float64(inv.Items[i].Quantity) * inv.Items[i].UnitPrice
			}
		}
	}
	return s.createDeduplicated(ctx, inv)
}

// createDeduplicated assigns a unique invoice number, recomputes totals and
// creates the record. A duplicate-key conflict at write time (a race the
// pre-check cannot see) is retried exactly once with a fresh dedup pass.
func (s *DefaultInvoiceService) createDeduplicated(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	base := inv.InvoiceNumber

	number, err := extraction.EnsureUniqueNumber(ctx, base, s.Repo.ExistsByNumber)
	if err != nil {
		return nil, err
	}
	inv.InvoiceNumber = number
	inv.RecomputeTotals()

	if err := s.Repo.Create(ctx, inv); err == nil {
		return inv, nil
	} else if !errors.Is(err, invoiceRepo.ErrDuplicateNumber) {
		return nil, err
	}

	utils.GetLogger().Warn("invoice number collided at write time, retrying once",
		zap.String("invoiceNumber", inv.InvoiceNumber))

	number, err = extraction.EnsureUniqueNumber(ctx, base, s.Repo.ExistsByNumber)
	if err != nil {
		return nil, err
	}
	inv.InvoiceNumber = number
	if err := s.Repo.Create(ctx, inv); err != nil {
		if errors.Is(err, invoiceRepo.ErrDuplicateNumber) {
			return nil, ConflictError{Number: inv.InvoiceNumber}
		}
		return nil, err
	}
	return inv, nil
}

func (s *DefaultInvoiceService) List(ctx context.Context, filter invoiceRepo.ListFilter) ([]models.Invoice, error) {
	return s.Repo.GetAll(ctx, filter)
}

// GetByID fetches an invoice, scoped to its owner when userID is set.
func (s *DefaultInvoiceService) GetByID(ctx context.Context, userID, id string) (*models.Invoice, error) {
	inv, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrNotFound) {
			return nil, NotFoundError{ID: id}
		}
		return nil, err
	}
	if userID != "" && inv.CreatedBy != "" && inv.CreatedBy != userID {
		return nil, NotFoundError{ID: id}
	}
	return inv, nil
}

// Update applies the given partial fields and re-runs the full validator set
// on the merged result via the repository.
func (s *DefaultInvoiceService) Update(ctx context.Context, userID, id string, input UpdateInput) (*models.Invoice, error) {
	inv, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	itemsChanged := false
	if input.InvoiceNumber != nil && *input.InvoiceNumber != inv.InvoiceNumber {
		taken, err := s.Repo.ExistsByNumber(ctx, *input.InvoiceNumber)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ConflictError{Number: *input.InvoiceNumber}
		}
		inv.InvoiceNumber = *input.InvoiceNumber
	}
	if input.InvoiceDate != nil {
		inv.InvoiceDate = *input.InvoiceDate
	}
	if input.DueDate != nil {
		inv.DueDate = *input.DueDate
	}
	if input.Type != nil {
		inv.Type = *input.Type
	}
	if input.Supplier != nil {
		inv.Supplier = *input.Supplier
	}
	if input.Items != nil {
		inv.Items = *input.Items
		itemsChanged = true
	}
	if input.TaxAmount != nil {
		inv.TaxAmount = *input.TaxAmount
		itemsChanged = true
	}
	if input.PaymentStatus != nil {
		inv.PaymentStatus = *input.PaymentStatus
	}

	if itemsChanged {
		inv.RecomputeTotals()
	}

	if err := s.Repo.Update(ctx, inv); err != nil {
		if errors.Is(err, invoiceRepo.ErrNotFound) {
			return nil, NotFoundError{ID: id}
		}
		if errors.Is(err, invoiceRepo.ErrDuplicateNumber) {
			return nil, ConflictError{Number: inv.InvoiceNumber}
		}
		return nil, err
	}
	return inv, nil
}

func (s *DefaultInvoiceService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.GetByID(ctx, userID, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, invoiceRepo.ErrNotFound) {
			return NotFoundError{ID: id}
		}
		return err
	}
	return nil
}

// MarkAsPaid sets the invoice to paid with the given payment date, defaulting
// to today.
func (s *DefaultInvoiceService) MarkAsPaid(ctx context.Context, userID, id, paymentDate string) (*models.Invoice, error) {
	inv, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if paymentDate == "" {
		paymentDate = time.Now().Format(models.DateLayout)
	}
	inv.PaymentStatus = models.PaymentStatusPaid
	inv.PaymentDate = paymentDate

	if err := s.Repo.Update(ctx, inv); err != nil {
		if errors.Is(err, invoiceRepo.ErrNotFound) {
			return nil, NotFoundError{ID: id}
		}
		return nil, err
	}
	return inv, nil
}

func (s *DefaultInvoiceService) ListOverdue(ctx context.Context) ([]models.Invoice, error) {
	return s.Repo.FindOverdue(ctx, time.Now())
}
