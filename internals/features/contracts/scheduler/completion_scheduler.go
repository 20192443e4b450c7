package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"propertiku_backend/internals/helpers/dbtime"
	"propertiku_backend/internals/helpers/dbtx"

	"propertiku_backend/internals/features/contracts/model"

	notifmodel "propertiku_backend/internals/features/notifications/model"
	notifsvc "propertiku_backend/internals/features/notifications/service"
	propertymodel "propertiku_backend/internals/features/properties/model"
	propertysvc "propertiku_backend/internals/features/properties/service"
)

/* =========================================================
   CompletionScheduler — closes rentals whose term has ended.
========================================================= */

type CompletionScheduler struct {
	DB       *gorm.DB
	Catalog  *propertysvc.CatalogService
	Notifier notifsvc.Notifier
}

func NewCompletionScheduler(db *gorm.DB, catalog *propertysvc.CatalogService, notifier notifsvc.Notifier) *CompletionScheduler {
	return &CompletionScheduler{DB: db, Catalog: catalog, Notifier: notifier}
}

// RunCompletionSweep moves active rentals whose end date has passed to
// COMPLETED and frees the property. A held security deposit stays held
// until an admin records the disposition.
func (s *CompletionScheduler) RunCompletionSweep(ctx context.Context, now time.Time) error {
	today := dbtime.StartOfDay(now)

	var due []model.ContractModel
	err := s.DB.WithContext(ctx).
		Where("contract_type = ? AND contract_status = ? AND contract_end_date IS NOT NULL AND contract_end_date <= ?",
			model.ContractTypeRental, model.ContractStatusActive, today).
		Find(&due).Error
	if err != nil {
		return fmt.Errorf("load ended rentals: %w", err)
	}

	log.Printf("[COMPLETION-CRON] sweep start candidates=%d", len(due))
	for i := range due {
		if err := s.complete(ctx, &due[i]); err != nil {
			log.Printf("[COMPLETION-CRON] contract=%s error: %v", due[i].ContractID, err)
		}
	}
	return nil
}

func (s *CompletionScheduler) complete(ctx context.Context, stale *model.ContractModel) error {
	var m model.ContractModel
	completedNow := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", stale.ContractID).Error; err != nil {
			return err
		}
		if !m.MayComplete() {
			return nil // raced with a cancel or an earlier sweep
		}
		m.ContractStatus = model.ContractStatusCompleted
		completedNow = true
		return tx.Save(&m).Error
	})
	if err != nil || !completedNow {
		return err
	}

	if err := s.Catalog.SetStatus(ctx, m.ContractPropertyID, propertymodel.PropertyStatusAvailable); err != nil {
		log.Printf("[COMPLETION-CRON] contract=%s free property failed: %v", m.ContractID, err)
	}

	log.Printf("[COMPLETION-CRON] contract=%s rental completed", m.ContractID)
	s.Notifier.Notify(ctx, m.ContractCustomerUserID,
		notifmodel.NotificationTypeContractCompleted,
		"Masa sewa berakhir",
		"Kontrak sewa Anda telah selesai.",
		"contract", m.ContractID)

	if m.ContractSecurityDepositStatus != nil && *m.ContractSecurityDepositStatus == model.SecurityDepositHeld {
		s.Notifier.Notify(ctx, m.ContractCustomerUserID,
			notifmodel.NotificationTypeSecurityDeposit,
			"Deposit keamanan ditahan",
			"Deposit keamanan Anda menunggu keputusan pengembalian.",
			"contract", m.ContractID)
	}
	return nil
}
