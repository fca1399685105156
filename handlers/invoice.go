package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	invoiceRepo "github.com/mouhaned372/facture-digitalisation/database/repository/invoice"
	"github.com/mouhaned372/facture-digitalisation/models"
	"github.com/mouhaned372/facture-digitalisation/services/extraction"
	invoiceSvc "github.com/mouhaned372/facture-digitalisation/services/invoice"
	"github.com/mouhaned372/facture-digitalisation/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxUploadSize caps scanned document uploads at 10 MiB.
const maxUploadSize = 10 << 20

// InvoiceHandler exposes the invoice endpoints.
type InvoiceHandler struct {
	Service invoiceSvc.InvoiceService
}

func NewInvoiceHandler(service invoiceSvc.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{Service: service}
}

// authUserID returns the user id placed on the context by the auth middleware.
func authUserID(c *gin.Context) string {
	if id, ok := c.Get("userID"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	logger := utils.GetLogger()

	var validationErr *models.ValidationError
	var formatErr *extraction.ExtractionFormatError
	var notFound invoiceSvc.NotFoundError
	var conflict invoiceSvc.ConflictError

	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, "Invalid invoice data", validationErr.Error())
	case errors.As(err, &formatErr):
		utils.JSONError(c, http.StatusUnprocessableEntity, "Could not extract invoice data from document", formatErr.Error())
	case errors.As(err, &notFound):
		utils.JSONError(c, http.StatusNotFound, "Invoice not found", notFound.Error())
	case errors.As(err, &conflict):
		utils.JSONError(c, http.StatusConflict, "Invoice number conflict", conflict.Error())
	default:
		logger.Error("invoice request failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Error processing invoice", "")
	}
}

// UploadInvoiceHandler handles POST /invoices/upload. The multipart image is
// run through the extraction pipeline and the created invoice is returned.
func (h *InvoiceHandler) UploadInvoiceHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "No file uploaded", "")
		return
	}
	if fileHeader.Size > maxUploadSize {
		utils.JSONError(c, http.StatusBadRequest, "File too large", "uploads are limited to 10 MiB")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		respondError(c, err)
		return
	}

	inv, err := h.Service.ProcessUpload(c.Request.Context(), invoiceSvc.UploadInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Data:        data,
		UserID:      authUserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Invoice processed successfully", "invoice": inv})
}

// CreateManualInvoiceHandler handles POST /invoices/manual.
func (h *InvoiceHandler) CreateManualInvoiceHandler(c *gin.Context) {
	var inv models.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	inv.ID = ""
	inv.CreatedBy = authUserID(c)
	inv.Notifications = nil

	created, err := h.Service.CreateManual(c.Request.Context(), &inv)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Invoice created successfully", "invoice": created})
}

// ListInvoicesHandler handles GET /invoices with filter/sort query params.
func (h *InvoiceHandler) ListInvoicesHandler(c *gin.Context) {
	filter := invoiceRepo.ListFilter{
		CreatedBy: authUserID(c),
		Type:      c.Query("type"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		SortBy:    c.Query("sortBy"),
	}

	if raw := c.Query("minAmount"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid minAmount", raw)
			return
		}
		filter.MinAmount = &v
	}
	if raw := c.Query("maxAmount"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid maxAmount", raw)
			return
		}
		filter.MaxAmount = &v
	}

	invoices, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	c.JSON(http.StatusOK, invoices)
}

// GetOverdueInvoicesHandler handles GET /invoices/overdue.
func (h *InvoiceHandler) GetOverdueInvoicesHandler(c *gin.Context) {
	invoices, err := h.Service.ListOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	c.JSON(http.StatusOK, invoices)
}

// GetInvoiceByIDHandler handles GET /invoices/:id.
func (h *InvoiceHandler) GetInvoiceByIDHandler(c *gin.Context) {
	inv, err := h.Service.GetByID(c.Request.Context(), authUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// UpdateInvoiceHandler handles PUT /invoices/:id.
func (h *InvoiceHandler) UpdateInvoiceHandler(c *gin.Context) {
	var input invoiceSvc.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	inv, err := h.Service.Update(c.Request.Context(), authUserID(c), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// DeleteInvoiceHandler handles DELETE /invoices/:id.
func (h *InvoiceHandler) DeleteInvoiceHandler(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), authUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}

// MarkAsPaidHandler handles PUT /invoices/:id/mark-as-paid.
func (h *InvoiceHandler) MarkAsPaidHandler(c *gin.Context) {
	var body struct {
		PaymentDate string `json:"paymentDate"`
	}
	// Empty body is fine: the payment date defaults to today.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}

	inv, err := h.Service.MarkAsPaid(c.Request.Context(), authUserID(c), c.Param("id"), body.PaymentDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}
