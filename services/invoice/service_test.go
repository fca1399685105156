package invoice

import (
	"context"
	"errors"
	"time"

	invoiceRepo "github.com/mouhaned372/facture-digitalisation/database/repository/invoice"
	"github.com/mouhaned372/facture-digitalisation/models"
	"github.com/mouhaned372/facture-digitalisation/services/extraction"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const acmeResponse = `Here is the data: {"supplier":{"name":"Acme"},"items":[{"description":"Widget","quantity":2,"unitPrice":5}]}`

var _ = Describe("DefaultInvoiceService", func() {
	var (
		ctx     context.Context
		repo    *fakeRepo
		visionC *fakeVision
		service *DefaultInvoiceService
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newFakeRepo()
		visionC = &fakeVision{response: acmeResponse}
		service = &DefaultInvoiceService{Repo: repo, Vision: visionC}
	})

	upload := func() (*models.Invoice, error) {
		return service.ProcessUpload(ctx, UploadInput{
			FileName:    "facture.jpg",
			ContentType: "image/jpeg",
			Size:        1024,
			Data:        []byte("not a real image"),
			UserID:      "user-1",
		})
	}

	Describe("ProcessUpload", func() {
		It("runs the whole pipeline on a prose-wrapped response", func() {
			inv, err := upload()
			Expect(err).NotTo(HaveOccurred())

			// Number is auto-generated since the model returned none.
			Expect(inv.InvoiceNumber).To(HavePrefix("FAC-"))
			Expect(inv.Supplier.Name).To(Equal("Acme"))
			Expect(inv.PaymentStatus).To(Equal(models.PaymentStatusPending))
			Expect(inv.CreatedBy).To(Equal("user-1"))
			Expect(inv.FileName).To(Equal("facture.jpg"))

			// Item totals are not derived from quantity x unitPrice, so the
			// absent totalPrice stays zero and so do the computed totals.
			Expect(inv.Items).To(HaveLen(1))
			Expect(inv.Items[0].Quantity).To(Equal(2))
			Expect(inv.Items[0].UnitPrice).To(Equal(5.0))
			Expect(inv.Items[0].TotalPrice).To(BeZero())
			Expect(inv.Subtotal).To(BeZero())
			Expect(inv.TotalAmount).To(BeZero())

			stored, err := repo.GetByID(ctx, inv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.InvoiceNumber).To(Equal(inv.InvoiceNumber))
			Expect(stored.ExtractedData).To(HaveKey("supplier"))
		})

		It("maintains the totals invariant when the model supplies amounts", func() {
			visionC.response = `{"invoiceNumber":"INV-7","invoiceDate":"10/01/2024","supplier":{"name":"Acme"},` +
				`"items":[{"description":"Widget","quantity":2,"unitPrice":5,"totalPrice":10}],` +
				`"subtotal":99,"taxAmount":2,"totalAmount":99}`
			inv, err := upload()
			Expect(err).NotTo(HaveOccurred())

			// The extracted subtotal/total are superseded by recomputation.
			Expect(inv.Subtotal).To(Equal(10.0))
			Expect(inv.TaxAmount).To(Equal(2.0))
			Expect(inv.TotalAmount).To(Equal(12.0))
		})

		It("suffixes colliding invoice numbers across sequential uploads", func() {
			visionC.response = `{"invoiceNumber":"INV-100","supplier":{"name":"Acme"},` +
				`"items":[{"description":"Widget","quantity":1,"unitPrice":5,"totalPrice":5}]}`

			first, err := upload()
			Expect(err).NotTo(HaveOccurred())
			Expect(first.InvoiceNumber).To(Equal("INV-100"))

			second, err := upload()
			Expect(err).NotTo(HaveOccurred())
			Expect(second.InvoiceNumber).To(Equal("INV-100-1"))
		})

		It("fails with an ExtractionFormatError on an unparseable response", func() {
			visionC.response = "I could not read this document."
			_, err := upload()

			var formatErr *extraction.ExtractionFormatError
			Expect(errors.As(err, &formatErr)).To(BeTrue())

			all, _ := repo.GetAll(ctx, invoiceRepo.ListFilter{})
			Expect(all).To(BeEmpty())
		})

		It("persists nothing when the vision call fails", func() {
			visionC.err = errors.New("deadline exceeded")
			_, err := upload()
			Expect(err).To(HaveOccurred())

			all, _ := repo.GetAll(ctx, invoiceRepo.ListFilter{})
			Expect(all).To(BeEmpty())
		})

		It("retries exactly once on a write-time number conflict", func() {
			repo.failCreates = 1
			inv, err := upload()
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.ID).NotTo(BeEmpty())
		})

		It("gives up after the single retry", func() {
			repo.failCreates = 2
			_, err := upload()

			var conflict ConflictError
			Expect(errors.As(err, &conflict)).To(BeTrue())
		})
	})

	Describe("CreateManual", func() {
		manualInvoice := func() *models.Invoice {
			return &models.Invoice{
				InvoiceNumber: "MAN-1",
				InvoiceDate:   "10/01/2024",
				Supplier:      models.Supplier{Name: "Acme"},
				Items: []models.InvoiceItem{
					{Description: "Widget", Quantity: 2, UnitPrice: 5},
				},
				TaxAmount: 1,
			}
		}

		It("defaults status and type, and recomputes totals", func() {
			inv, err := service.CreateManual(ctx, manualInvoice())
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.PaymentStatus).To(Equal(models.PaymentStatusPending))
			Expect(inv.Type).To(Equal(models.DefaultInvoiceType))
			Expect(inv.TotalAmount).To(Equal(inv.Subtotal + inv.TaxAmount))
		})

		It("generates a number when none is supplied", func() {
			in := manualInvoice()
			in.InvoiceNumber = ""
			inv, err := service.CreateManual(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.InvoiceNumber).To(HavePrefix("FAC-"))
		})

		It("derives zero item totals when the option is enabled", func() {
			service.DeriveItemTotals = true
			inv, err := service.CreateManual(ctx, manualInvoice())
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Items[0].TotalPrice).To(Equal(10.0))
			Expect(inv.Subtotal).To(Equal(10.0))
			Expect(inv.TotalAmount).To(Equal(11.0))
		})

		It("deduplicates against stored invoices", func() {
			_, err := service.CreateManual(ctx, manualInvoice())
			Expect(err).NotTo(HaveOccurred())

			again, err := service.CreateManual(ctx, manualInvoice())
			Expect(err).NotTo(HaveOccurred())
			Expect(again.InvoiceNumber).To(Equal("MAN-1-1"))
		})
	})

	Describe("lifecycle operations", func() {
		var created *models.Invoice

		BeforeEach(func() {
			var err error
			created, err = service.CreateManual(ctx, &models.Invoice{
				InvoiceNumber: "LIFE-1",
				InvoiceDate:   "10/01/2024",
				Supplier:      models.Supplier{Name: "Acme"},
				Items:         []models.InvoiceItem{{Description: "Widget", Quantity: 1, UnitPrice: 5, TotalPrice: 5}},
				CreatedBy:     "user-1",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("scopes reads to the owning user", func() {
			_, err := service.GetByID(ctx, "someone-else", created.ID)

			var notFound NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("returns NotFoundError for unknown ids", func() {
			_, err := service.GetByID(ctx, "user-1", "missing")

			var notFound NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("recomputes totals when items are updated", func() {
			items := []models.InvoiceItem{
				{Description: "Widget", Quantity: 3, UnitPrice: 5, TotalPrice: 15},
			}
			updated, err := service.Update(ctx, "user-1", created.ID, UpdateInput{Items: &items})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Subtotal).To(Equal(15.0))
			Expect(updated.TotalAmount).To(Equal(15.0))
		})

		It("rejects updates that violate validation", func() {
			bad := "not-a-date"
			_, err := service.Update(ctx, "user-1", created.ID, UpdateInput{InvoiceDate: &bad})

			var validationErr *models.ValidationError
			Expect(errors.As(err, &validationErr)).To(BeTrue())
		})

		It("marks invoices paid with today's date by default", func() {
			paid, err := service.MarkAsPaid(ctx, "user-1", created.ID, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(paid.PaymentStatus).To(Equal(models.PaymentStatusPaid))
			Expect(paid.PaymentDate).To(Equal(time.Now().Format(models.DateLayout)))
		})

		It("deletes owned invoices", func() {
			Expect(service.Delete(ctx, "user-1", created.ID)).To(Succeed())
			_, err := repo.GetByID(ctx, created.ID)
			Expect(err).To(HaveOccurred())
		})
	})
})
