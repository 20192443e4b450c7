package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"propertiku_backend/internals/configs"

	notifsvc "propertiku_backend/internals/features/notifications/service"
	paymentsvc "propertiku_backend/internals/features/payments/service"
	propertysvc "propertiku_backend/internals/features/properties/service"
)

// ── ENTRYPOINT: panggil dari main.go
func StartContractCron(db *gorm.DB, gateway paymentsvc.PaymentGateway) *cron.Cron {
	sweepSchedule := configs.GetEnv("CONTRACT_SWEEP_SCHEDULE", "30 1 * * *")
	reminderSchedule := configs.GetEnv("CONTRACT_REMINDER_SCHEDULE", "0 8 * * *")

	notifier := notifsvc.NewDBNotifier(db)
	catalog := propertysvc.NewCatalogService(db)
	ledger := paymentsvc.NewLedgerService(db, gateway)

	rent := NewRentScheduler(db, ledger, notifier)
	completion := NewCompletionScheduler(db, catalog, notifier)
	reminder := NewReminderScheduler(db, notifier)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(sweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		now := time.Now()

		if err := completion.RunCompletionSweep(ctx, now); err != nil {
			log.Printf("[CONTRACT-CRON] completion sweep error: %v", err)
		}
		if err := rent.RunMonthlyGeneration(ctx, now); err != nil {
			log.Printf("[CONTRACT-CRON] monthly generation error: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("[CONTRACT-CRON] add sweep cron gagal: %v", err)
	}

	_, err = c.AddFunc(reminderSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := reminder.RunOverdueReminders(ctx, time.Now()); err != nil {
			log.Printf("[CONTRACT-CRON] reminder error: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("[CONTRACT-CRON] add reminder cron gagal: %v", err)
	}

	log.Printf("[CONTRACT-CRON] started sweep=%q reminder=%q", sweepSchedule, reminderSchedule)
	c.Start()
	return c
}
