package models

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// Payment status values for an invoice.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"
)

// Notification types attached to an invoice. At most one payment_overdue
// entry may ever exist per invoice.
const (
	NotificationPaymentReminder = "payment_reminder"
	NotificationPaymentOverdue  = "payment_overdue"
)

// DefaultInvoiceType is used when the extracted document type is missing.
const DefaultInvoiceType = "facture"

// DateLayout is the canonical DD/MM/YYYY layout used for all invoice dates,
// both on the wire and on disk.
const DateLayout = "02/01/2006"

// sortableDateLayout is the BSON-only YYYYMMDD form kept alongside each date
// so range queries stay plain string comparisons.
const sortableDateLayout = "20060102"

var (
	dateRegex  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// InvoiceItem is a single extracted or manually entered line item.
// totalPrice is stored as supplied: the model may return totals inconsistent
// with quantity x unitPrice and we never silently correct them here.
type InvoiceItem struct {
	Description string  `bson:"description" json:"description"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unit_price" json:"unitPrice"`
	TotalPrice  float64 `bson:"total_price" json:"totalPrice"`
}

// Supplier is the issuing party of an invoice.
type Supplier struct {
	Name    string `bson:"name" json:"name"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	TaxID   string `bson:"tax_id,omitempty" json:"taxId,omitempty"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// InvoiceNotification records a notification raised for an invoice.
type InvoiceNotification struct {
	Type    string    `bson:"type" json:"type"`
	Date    time.Time `bson:"date" json:"date"`
	Message string    `bson:"message" json:"message"`
}

// Invoice is the aggregate root persisted after extraction or manual entry.
type Invoice struct {
	ID            string  `bson:"id" json:"id"`
	InvoiceNumber string  `bson:"invoice_number" json:"invoiceNumber"`
	InvoiceDate   string  `bson:"invoice_date" json:"invoiceDate"`
	DueDate       string  `bson:"due_date,omitempty" json:"dueDate,omitempty"`
	PaymentDate   string  `bson:"payment_date,omitempty" json:"paymentDate,omitempty"`
	Type          string  `bson:"type" json:"type"`
	Supplier      Supplier `bson:"supplier" json:"supplier"`
	Items         []InvoiceItem `bson:"items" json:"items"`
	Subtotal      float64 `bson:"subtotal" json:"subtotal"`
	TaxAmount     float64 `bson:"tax_amount" json:"taxAmount"`
	TotalAmount   float64 `bson:"total_amount" json:"totalAmount"`
	PaymentStatus string  `bson:"payment_status" json:"paymentStatus"`

	Notifications []InvoiceNotification `bson:"notifications,omitempty" json:"notifications,omitempty"`

	// ExtractedData retains the raw model output verbatim for audit and
	// fallback display.
	ExtractedData map[string]any `bson:"extracted_data,omitempty" json:"extractedData,omitempty"`

	// Upload metadata. FileID is the Cloudinary public ID of the stored image.
	FileName string `bson:"file_name,omitempty" json:"fileName,omitempty"`
	FileType string `bson:"file_type,omitempty" json:"fileType,omitempty"`
	FileSize int64  `bson:"file_size,omitempty" json:"fileSize,omitempty"`
	FileID   string `bson:"file_id,omitempty" json:"fileId,omitempty"`

	CreatedBy string `bson:"created_by,omitempty" json:"createdBy,omitempty"`

	// Derived sort keys maintained by the repository on every write.
	InvoiceDateSort string `bson:"invoice_date_sort,omitempty" json:"-"`
	DueDateSort     string `bson:"due_date_sort,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ValidDate reports whether s is a real calendar date in DD/MM/YYYY form.
func ValidDate(s string) bool {
	if !dateRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// SortableDate converts a DD/MM/YYYY date to its YYYYMMDD sort key.
func SortableDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.Format(sortableDateLayout), nil
}

// SortableDay returns the YYYYMMDD sort key for a point in time.
func SortableDay(t time.Time) string {
	return t.Format(sortableDateLayout)
}

// ValidationError reports a business-validation failure on an invoice write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid invoice: %s %s", e.Field, e.Reason)
}

// RecomputeTotals rederives subtotal and total from the line items.
// Idempotent: taxAmount is never derived, only added back in.
func (inv *Invoice) RecomputeTotals() {
	var subtotal float64
	for _, item := range inv.Items {
		subtotal += item.TotalPrice
	}
	inv.Subtotal = round2(subtotal)
	inv.TotalAmount = round2(inv.Subtotal + inv.TaxAmount)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// HasOverdueNotification reports whether a payment_overdue entry has already
// been recorded for this invoice.
func (inv *Invoice) HasOverdueNotification() bool {
	for _, n := range inv.Notifications {
		if n.Type == NotificationPaymentOverdue {
			return true
		}
	}
	return false
}

// Validate enforces the store-level invariants before any write.
func (inv *Invoice) Validate() error {
	if inv.InvoiceNumber == "" {
		return &ValidationError{Field: "invoiceNumber", Reason: "is required"}
	}
	if !ValidDate(inv.InvoiceDate) {
		return &ValidationError{Field: "invoiceDate", Reason: "must be a valid DD/MM/YYYY date"}
	}
	if inv.DueDate != "" && !ValidDate(inv.DueDate) {
		return &ValidationError{Field: "dueDate", Reason: "must be a valid DD/MM/YYYY date"}
	}
	if inv.PaymentDate != "" && !ValidDate(inv.PaymentDate) {
		return &ValidationError{Field: "paymentDate", Reason: "must be a valid DD/MM/YYYY date"}
	}
	if inv.Supplier.Name == "" {
		return &ValidationError{Field: "supplier.name", Reason: "is required"}
	}
	if inv.Supplier.Email != "" && !emailRegex.MatchString(inv.Supplier.Email) {
		return &ValidationError{Field: "supplier.email", Reason: "is not a valid email address"}
	}
	if len(inv.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "must contain at least one item"}
	}
	for i, item := range inv.Items {
		if item.Description == "" {
			return &ValidationError{Field: fmt.Sprintf("items[%d].description", i), Reason: "is required"}
		}
		if item.Quantity < 1 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be at least 1"}
		}
		if item.UnitPrice < 0 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].unitPrice", i), Reason: "cannot be negative"}
		}
		if item.TotalPrice < 0 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].totalPrice", i), Reason: "cannot be negative"}
		}
	}
	if inv.Subtotal < 0 {
		return &ValidationError{Field: "subtotal", Reason: "cannot be negative"}
	}
	if inv.TaxAmount < 0 {
		return &ValidationError{Field: "taxAmount", Reason: "cannot be negative"}
	}
	if inv.TotalAmount < 0 {
		return &ValidationError{Field: "totalAmount", Reason: "cannot be negative"}
	}
	switch inv.PaymentStatus {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
	default:
		return &ValidationError{Field: "paymentStatus", Reason: "must be pending, paid or cancelled"}
	}
	return nil
}
