package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"propertiku_backend/internals/helpers/dbtime"

	notifmodel "propertiku_backend/internals/features/notifications/model"
	notifsvc "propertiku_backend/internals/features/notifications/service"
	paymentmodel "propertiku_backend/internals/features/payments/model"
)

/* =========================================================
   ReminderScheduler — nags payers about overdue rent. Fires
   on day 7, 14, 21, ... past due so a daily run does not
   spam the customer.
========================================================= */

type ReminderScheduler struct {
	DB       *gorm.DB
	Notifier notifsvc.Notifier
}

func NewReminderScheduler(db *gorm.DB, notifier notifsvc.Notifier) *ReminderScheduler {
	return &ReminderScheduler{DB: db, Notifier: notifier}
}

func (s *ReminderScheduler) RunOverdueReminders(ctx context.Context, now time.Time) error {
	today := dbtime.StartOfDay(now)

	var rows []paymentmodel.PaymentModel
	err := s.DB.WithContext(ctx).
		Where("payment_type = ? AND payment_status = ? AND payment_due_date IS NOT NULL AND payment_due_date < ?",
			paymentmodel.PaymentTypeMonthly, paymentmodel.PaymentStatusPending, today).
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("load overdue rent payments: %w", err)
	}

	sent := 0
	for i := range rows {
		p := &rows[i]
		days := dbtime.DaysOverdue(*p.PaymentDueDate, now)
		if days == 0 || days%7 != 0 {
			continue
		}

		installment := 0
		if p.PaymentInstallmentNumber != nil {
			installment = *p.PaymentInstallmentNumber
		}
		s.Notifier.Notify(ctx, p.PaymentPayerUserID,
			notifmodel.NotificationTypePaymentDue,
			"Pembayaran sewa terlambat",
			fmt.Sprintf("Sewa bulan ke-%d sudah lewat jatuh tempo %d hari.", installment, days),
			"payment", p.PaymentID)
		sent++
	}

	log.Printf("[REMINDER-CRON] overdue=%d reminders=%d", len(rows), sent)
	return nil
}
