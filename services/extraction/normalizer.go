package extraction

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mouhaned372/facture-digitalisation/models"
)

// UnknownSupplierName is the sentinel used when the model returned no
// supplier name. Display and search depend on non-empty supplier text.
const UnknownSupplierName = "Unknown supplier"

// defaultItemDescription replaces absent line-item descriptions.
const defaultItemDescription = "No description"

// Options tune normalization behavior.
type Options struct {
	// DeriveItemTotals fills a zero totalPrice from quantity x unitPrice.
	// Off by default: the AI flow stores item totals exactly as extracted.
	DeriveItemTotals bool
}

// Normalize turns a raw parsed model response into a canonical invoice using
// the default options.
func Normalize(raw map[string]any) *models.Invoice {
	return NormalizeWithOptions(raw, Options{})
}

// NormalizeWithOptions produces a fully-defaulted invoice from an untyped
// object. Every required field gets an explicit default; nothing past this
// boundary ever sees the raw shape. It never fails: only the sanitizer stage
// can reject input.
//
// The result carries no id, timestamps or deduplicated number; those are
// assigned further down the pipeline.
func NormalizeWithOptions(raw map[string]any, opts Options) *models.Invoice {
	if raw == nil {
		raw = map[string]any{}
	}

	inv := &models.Invoice{
		InvoiceNumber: asString(raw["invoiceNumber"]),
		Type:          asString(raw["type"]),
		Subtotal:      asFloat(raw["subtotal"]),
		TaxAmount:     asFloat(raw["taxAmount"]),
		TotalAmount:   asFloat(raw["totalAmount"]),
		PaymentStatus: models.PaymentStatusPending,
		ExtractedData: raw,
		Items:         []models.InvoiceItem{},
	}

	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = fmt.Sprintf("FAC-%d", time.Now().UnixMilli())
	}
	if inv.Type == "" {
		inv.Type = models.DefaultInvoiceType
	}

	inv.InvoiceDate = asString(raw["invoiceDate"])
	if !models.ValidDate(inv.InvoiceDate) {
		inv.InvoiceDate = time.Now().Format(models.DateLayout)
	}
	// An unusable optional due date is dropped rather than failing the
	// whole extraction.
	if due := asString(raw["dueDate"]); models.ValidDate(due) {
		inv.DueDate = due
	}

	supplier := asMap(raw["supplier"])
	inv.Supplier = models.Supplier{
		Name:    asString(supplier["name"]),
		Address: asString(supplier["address"]),
		TaxID:   asString(supplier["taxId"]),
		Email:   asString(supplier["email"]),
		Phone:   asString(supplier["phone"]),
	}
	if inv.Supplier.Name == "" {
		inv.Supplier.Name = UnknownSupplierName
	}

	for _, entry := range asSlice(raw["items"]) {
		item := asMap(entry)
		normalized := models.InvoiceItem{
			Description: asString(item["description"]),
			Quantity:    asInt(item["quantity"]),
			UnitPrice:   asFloat(item["unitPrice"]),
			TotalPrice:  asFloat(item["totalPrice"]),
		}
		if normalized.Description == "" {
			normalized.Description = defaultItemDescription
		}
		if normalized.Quantity < 1 {
			normalized.Quantity = 1
		}
		if opts.DeriveItemTotals && normalized.TotalPrice == 0 {
			normalized.TotalPrice = float64(normalized.Quantity) * normalized.UnitPrice
		}
		inv.Items = append(inv.Items, normalized)
	}

	return inv
}

// asString returns v as a trimmed string, or "" for anything non-textual.
func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// asFloat coerces numbers and numeric-looking strings, defaulting to 0.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// asInt coerces whole numbers and numeric strings, defaulting to 0.
// Fractional values are truncated.
func asInt(v any) int {
	return int(asFloat(v))
}

func asMap(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

func asSlice(v any) []any {
	s, ok := v.([]any)
	if !ok {
		return nil
	}
	return s
}
