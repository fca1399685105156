package invoice

import (
	"context"
	"fmt"
	"sync"
	"time"

	invoiceRepo "github.com/mouhaned372/facture-digitalisation/database/repository/invoice"
	"github.com/mouhaned372/facture-digitalisation/models"
)

// fakeRepo is an in-memory InvoiceRepository honoring the store contract:
// validation on write, unique invoice numbers, overdue predicate.
type fakeRepo struct {
	mu       sync.Mutex
	invoices map[string]models.Invoice
	seq      int

	// failCreates forces that many Create calls to report a duplicate-key
	// conflict, simulating a write-time race the pre-check cannot see.
	failCreates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{invoices: map[string]models.Invoice{}}
}

func (r *fakeRepo) Create(_ context.Context, inv *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreates > 0 {
		r.failCreates--
		return invoiceRepo.ErrDuplicateNumber
	}

	if inv.ID == "" {
		r.seq++
		inv.ID = fmt.Sprintf("inv-%d", r.seq)
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if err := inv.Validate(); err != nil {
		return err
	}
	for _, existing := range r.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return invoiceRepo.ErrDuplicateNumber
		}
	}
	r.invoices[inv.ID] = *inv
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, invoiceRepo.ErrNotFound
	}
	return &inv, nil
}

func (r *fakeRepo) GetAll(_ context.Context, _ invoiceRepo.ListFilter) ([]models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Invoice
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, inv *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.invoices[inv.ID]; !ok {
		return invoiceRepo.ErrNotFound
	}
	inv.UpdatedAt = time.Now().UTC()
	if err := inv.Validate(); err != nil {
		return err
	}
	r.invoices[inv.ID] = *inv
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.invoices[id]; !ok {
		return invoiceRepo.ErrNotFound
	}
	delete(r.invoices, id)
	return nil
}

func (r *fakeRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inv := range r.invoices {
		if inv.InvoiceNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) FindOverdue(_ context.Context, today time.Time) ([]models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Invoice
	for _, inv := range r.invoices {
		if inv.PaymentStatus != models.PaymentStatusPending || inv.DueDate == "" {
			continue
		}
		key, err := models.SortableDate(inv.DueDate)
		if err != nil {
			continue
		}
		if key < models.SortableDay(today) {
			out = append(out, inv)
		}
	}
	return out, nil
}

// fakeVision replays a canned model response.
type fakeVision struct {
	response string
	err      error
	calls    int
}

func (v *fakeVision) ExtractInvoice(context.Context, []byte, string) (string, error) {
	v.calls++
	return v.response, v.err
}

func (v *fakeVision) Close() error { return nil }

// fakeNotifier records push attempts and can simulate delivery failures.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *fakeNotifier) SendUserPushNotification(_ context.Context, userID, _, _ string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, userID)
	return n.err
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
