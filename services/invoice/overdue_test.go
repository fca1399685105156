package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/mouhaned372/facture-digitalisation/models"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CheckOverdueInvoices", func() {
	var (
		ctx      context.Context
		repo     *fakeRepo
		notifier *fakeNotifier
		service  *DefaultInvoiceService
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newFakeRepo()
		notifier = &fakeNotifier{}
		service = &DefaultInvoiceService{Repo: repo, Notifier: notifier}
	})

	seed := func(number, dueDate, status string) *models.Invoice {
		inv := &models.Invoice{
			InvoiceNumber: number,
			InvoiceDate:   "01/01/2024",
			DueDate:       dueDate,
			Type:          models.DefaultInvoiceType,
			Supplier:      models.Supplier{Name: "Acme"},
			Items: []models.InvoiceItem{
				{Description: "Widget", Quantity: 1, UnitPrice: 5, TotalPrice: 5},
			},
			Subtotal:      5,
			TotalAmount:   5,
			PaymentStatus: status,
			CreatedBy:     "user-1",
		}
		Expect(repo.Create(ctx, inv)).To(Succeed())
		return inv
	}

	pastDue := func() string {
		return time.Now().AddDate(0, 0, -10).Format(models.DateLayout)
	}

	futureDue := func() string {
		return time.Now().AddDate(0, 0, 10).Format(models.DateLayout)
	}

	It("flags a pending invoice past its due date and notifies its owner", func() {
		inv := seed("OD-1", pastDue(), models.PaymentStatusPending)

		Expect(service.CheckOverdueInvoices(ctx)).To(Succeed())

		stored, err := repo.GetByID(ctx, inv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Notifications).To(HaveLen(1))
		Expect(stored.Notifications[0].Type).To(Equal(models.NotificationPaymentOverdue))
		Expect(stored.Notifications[0].Message).To(ContainSubstring("OD-1"))
		Expect(notifier.sent).To(Equal([]string{"user-1"}))
	})

	It("is idempotent across repeated sweeps", func() {
		inv := seed("OD-2", pastDue(), models.PaymentStatusPending)

		Expect(service.CheckOverdueInvoices(ctx)).To(Succeed())
		Expect(service.CheckOverdueInvoices(ctx)).To(Succeed())

		stored, err := repo.GetByID(ctx, inv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Notifications).To(HaveLen(1))
		Expect(notifier.sentCount()).To(Equal(1))
	})

	It("leaves paid invoices alone", func() {
		inv := seed("OD-3", pastDue(), models.PaymentStatusPaid)

		Expect(service.CheckOverdueInvoices(ctx)).To(Succeed())

		stored, _ := repo.GetByID(ctx, inv.ID)
		Expect(stored.Notifications).To(BeEmpty())
		Expect(notifier.sentCount()).To(BeZero())
	})

	It("ignores invoices not yet due or without a due date", func() {
		notDue := seed("OD-4", futureDue(), models.PaymentStatusPending)
		noDue := seed("OD-5", "", models.PaymentStatusPending)

		Expect(service.CheckOverdueInvoices(ctx)).To(Succeed())

		stored, _ := repo.GetByID(ctx, notDue.ID)
		Expect(stored.Notifications).To(BeEmpty())
		stored, _ = repo.GetByID(ctx, noDue.ID)
		Expect(stored.Notifications).To(BeEmpty())
	})

	It("persists the flag even when push delivery fails", func() {
		notifier.err = errors.New("fcm unavailable")
		inv := seed("OD-6", pastDue(), models.PaymentStatusPending)

		Expect(service.CheckOverdueInvoices(ctx)).To(Succeed())

		stored, _ := repo.GetByID(ctx, inv.ID)
		Expect(stored.Notifications).To(HaveLen(1))

		// The failed push is not re-attempted on the next sweep either.
		Expect(service.CheckOverdueInvoices(ctx)).To(Succeed())
		Expect(notifier.sentCount()).To(Equal(1))
	})

	It("runs without a notifier configured", func() {
		service.Notifier = nil
		inv := seed("OD-7", pastDue(), models.PaymentStatusPending)

		Expect(service.CheckOverdueInvoices(ctx)).To(Succeed())

		stored, _ := repo.GetByID(ctx, inv.ID)
		Expect(stored.Notifications).To(HaveLen(1))
	})

	Describe("ListOverdue", func() {
		It("returns only pending invoices past their due date", func() {
			seed("OD-8", pastDue(), models.PaymentStatusPending)
			seed("OD-9", futureDue(), models.PaymentStatusPending)
			seed("OD-10", pastDue(), models.PaymentStatusPaid)

			overdue, err := service.ListOverdue(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(overdue).To(HaveLen(1))
			Expect(overdue[0].InvoiceNumber).To(Equal("OD-8"))
		})
	})
})
