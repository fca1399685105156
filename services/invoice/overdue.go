package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/mouhaned372/facture-digitalisation/models"
	"github.com/mouhaned372/facture-digitalisation/utils"

	"go.uber.org/zap"
)

// CheckOverdueInvoices flags pending invoices past their due date. Each
// invoice gets at most one payment_overdue notification ever, so re-running
// the sweep is idempotent. Push delivery is attempted only after the
// notification record is persisted and its failure never re-flags the
// invoice.
func (s *DefaultInvoiceService) CheckOverdueInvoices(ctx context.Context) error {
	logger := utils.GetLogger()

	overdue, err := s.Repo.FindOverdue(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("overdue sweep query failed: %w", err)
	}

	flagged := 0
	for i := range overdue {
		inv := &overdue[i]
		if inv.HasOverdueNotification() {
			continue
		}

		inv.Notifications = append(inv.Notifications, models.InvoiceNotification{
			Type:    models.NotificationPaymentOverdue,
			Date:    time.Now().UTC(),
			Message: fmt.Sprintf("Invoice %s is overdue since %s", inv.InvoiceNumber, inv.DueDate),
		})
		if err := s.Repo.Update(ctx, inv); err != nil {
			logger.Error("failed to persist overdue notification",
				zap.String("invoiceID", inv.ID), zap.Error(err))
			continue
		}
		flagged++

		if s.Notifier == nil || inv.CreatedBy == "" {
			continue
		}
		pushErr := s.Notifier.SendUserPushNotification(ctx, inv.CreatedBy,
			"Facture en retard",
			fmt.Sprintf("La facture %s est en retard depuis le %s", inv.InvoiceNumber, inv.DueDate),
			map[string]string{"type": models.NotificationPaymentOverdue, "invoiceId": inv.ID},
		)
		if pushErr != nil {
			// Best-effort delivery: log and move on.
			logger.Warn("overdue push delivery failed",
				zap.String("invoiceID", inv.ID), zap.Error(pushErr))
		}
	}

	logger.Info("overdue sweep completed",
		zap.Int("due", len(overdue)), zap.Int("newlyFlagged", flagged))
	return nil
}
