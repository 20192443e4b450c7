package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"propertiku_backend/internals/helpers/dbtime"
	"propertiku_backend/internals/helpers/dbtx"
	"propertiku_backend/internals/helpers/money"

	"propertiku_backend/internals/features/contracts/model"

	notifmodel "propertiku_backend/internals/features/notifications/model"
	notifsvc "propertiku_backend/internals/features/notifications/service"
	paymentmodel "propertiku_backend/internals/features/payments/model"
	paymentsvc "propertiku_backend/internals/features/payments/service"
	propertymodel "propertiku_backend/internals/features/properties/model"
)

// Consecutive unpaid months before the owner gets flagged.
const unpaidMonthsAlertThreshold = 3

/* =========================================================
   RentScheduler — monthly installment generation + late
   penalty accrual for active rentals. Runs once a day; every
   step is idempotent so a rerun after a crash is harmless.
========================================================= */

type RentScheduler struct {
	DB       *gorm.DB
	Ledger   *paymentsvc.LedgerService
	Notifier notifsvc.Notifier
}

func NewRentScheduler(db *gorm.DB, ledger *paymentsvc.LedgerService, notifier notifsvc.Notifier) *RentScheduler {
	return &RentScheduler{DB: db, Ledger: ledger, Notifier: notifier}
}

// RunMonthlyGeneration walks all active rentals. Per contract it opens the
// current month's installment if missing, accruing the previous month's
// penalty in the same step. One contract failing never stops the sweep.
func (s *RentScheduler) RunMonthlyGeneration(ctx context.Context, now time.Time) error {
	var rentals []model.ContractModel
	err := s.DB.WithContext(ctx).
		Where("contract_type = ? AND contract_status = ?", model.ContractTypeRental, model.ContractStatusActive).
		Find(&rentals).Error
	if err != nil {
		return fmt.Errorf("load active rentals: %w", err)
	}

	log.Printf("[RENT-CRON] monthly sweep start contracts=%d", len(rentals))
	for i := range rentals {
		if err := s.processRental(ctx, rentals[i].ContractID, now); err != nil {
			log.Printf("[RENT-CRON] contract=%s sweep error: %v", rentals[i].ContractID, err)
		}
	}
	return nil
}

// processRental opens the installment the calendar says is current. The
// existing-row check is the idempotency gate: penalty accrual and counter
// updates happen only in the run that actually creates the installment, so
// a daily rerun (or a crash-restart) accrues each missed month exactly once.
func (s *RentScheduler) processRental(ctx context.Context, contractID uuid.UUID, now time.Time) error {
	var m model.ContractModel
	installment := 0
	opened := false
	alertOwner := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", contractID).Error; err != nil {
			return err
		}
		if m.ContractStatus != model.ContractStatusActive || m.ContractStartDate == nil || m.ContractMonthCount == nil {
			return nil
		}

		installment = dbtime.MonthsElapsed(*m.ContractStartDate, now) + 1
		if installment <= 1 {
			return nil // first installment opened at paperwork completion
		}
		if installment > *m.ContractMonthCount {
			return nil // term over, the completion sweep closes the contract
		}

		var count int64
		err := tx.Model(&paymentmodel.PaymentModel{}).
			Where("payment_contract_id = ? AND payment_type = ? AND payment_installment_number = ?",
				m.ContractID, paymentmodel.PaymentTypeMonthly, installment).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil // this month is already processed
		}

		if err := s.accruePenalty(tx, &m, installment-1); err != nil {
			return err
		}
		alertOwner = m.ContractUnpaidMonthsCount >= unpaidMonthsAlertThreshold

		n := installment
		_, err = s.Ledger.CreatePaymentIntent(ctx, tx, paymentsvc.CreateIntentInput{
			ContractID:        &m.ContractID,
			PropertyID:        m.ContractPropertyID,
			PayerUserID:       m.ContractCustomerUserID,
			Type:              paymentmodel.PaymentTypeMonthly,
			Amount:            m.PriceBase(),
			DueInDays:         7,
			InstallmentNumber: &n,
			Description:       fmt.Sprintf("Sewa bulan ke-%d", installment),
			Now:               now,
		})
		if err != nil {
			return fmt.Errorf("open installment %d: %w", installment, err)
		}
		opened = true
		return nil
	})
	if err != nil || !opened {
		return err
	}

	log.Printf("[RENT-CRON] contract=%s installment=%d intent opened", m.ContractID, installment)
	s.Notifier.Notify(ctx, m.ContractCustomerUserID,
		notifmodel.NotificationTypePaymentDue,
		"Tagihan sewa bulanan",
		fmt.Sprintf("Tagihan sewa bulan ke-%d sudah terbit, jatuh tempo 7 hari.", installment),
		"contract", m.ContractID)

	if alertOwner {
		s.warnOwner(ctx, &m)
	}
	return nil
}

// accruePenalty inspects the previous month's installment. Unsettled means
// one more unpaid month and penalty on top; settled resets the streak.
// Runs inside the caller's contract-row lock, once per opened installment.
func (s *RentScheduler) accruePenalty(tx *gorm.DB, m *model.ContractModel, prev int) error {
	if prev < 1 {
		return nil
	}

	var row paymentmodel.PaymentModel
	err := tx.Where("payment_contract_id = ? AND payment_type = ? AND payment_installment_number = ?",
		m.ContractID, paymentmodel.PaymentTypeMonthly, prev).
		First(&row).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	settled := err == nil && row.IsSettled()
	if settled {
		if m.ContractUnpaidMonthsCount != 0 {
			m.ContractUnpaidMonthsCount = 0
			return tx.Save(m).Error
		}
		return nil
	}

	penalty := money.Round2(m.PriceBase().Mul(m.PenaltyRate()))
	m.ContractAccumulatedUnpaidPenalty = m.ContractAccumulatedUnpaidPenalty.Add(penalty)
	m.ContractUnpaidMonthsCount++

	log.Printf("[RENT-CRON] contract=%s installment=%d unpaid, penalty=%s accumulated=%s streak=%d",
		m.ContractID, prev, penalty, m.ContractAccumulatedUnpaidPenalty, m.ContractUnpaidMonthsCount)
	return tx.Save(m).Error
}

func (s *RentScheduler) warnOwner(ctx context.Context, m *model.ContractModel) {
	var p propertymodel.PropertyModel
	if err := s.DB.WithContext(ctx).First(&p, "property_id = ?", m.ContractPropertyID).Error; err != nil {
		log.Printf("[RENT-CRON] contract=%s owner lookup failed: %v", m.ContractID, err)
		return
	}

	s.Notifier.Notify(ctx, p.PropertyOwnerUserID,
		notifmodel.NotificationTypeUnpaidRentWarning,
		"Penyewa menunggak",
		fmt.Sprintf("Sewa sudah %d bulan berturut-turut belum dibayar, total denda %s.",
			m.ContractUnpaidMonthsCount, m.ContractAccumulatedUnpaidPenalty),
		"contract", m.ContractID)
}
