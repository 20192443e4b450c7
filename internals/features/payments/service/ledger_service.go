package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"propertiku_backend/internals/helpers/dbtime"
	"propertiku_backend/internals/helpers/dbtx"

	model "propertiku_backend/internals/features/payments/model"
)

/* =========================================================
   LedgerService — append-only payment intents and payouts.

   Invariants:
   - every PENDING row carries a gateway external id; if the
     gateway refuses a session the row is rolled back.
   - status moves pending → terminal exactly once; repeated
     terminal writes are logged no-ops (webhook redelivery).
========================================================= */

type LedgerService struct {
	DB      *gorm.DB
	Gateway PaymentGateway
}

func NewLedgerService(db *gorm.DB, gw PaymentGateway) *LedgerService {
	return &LedgerService{DB: db, Gateway: gw}
}

type CreateIntentInput struct {
	ContractID        *uuid.UUID // nil for service-fee (property-level) payments
	PropertyID        uuid.UUID
	PayerUserID       uuid.UUID
	Type              model.PaymentType
	Amount            decimal.Decimal
	DueInDays         int
	InstallmentNumber *int
	Description       string
	Now               time.Time
}

// CreatePaymentIntent inserts a PENDING row and opens a gateway checkout
// session in the same transaction. A gateway failure rolls the row back —
// no PENDING-without-session rows survive. Safe to call inside an outer
// transaction (gorm nests via savepoint).
func (s *LedgerService) CreatePaymentIntent(ctx context.Context, db *gorm.DB, in CreateIntentInput) (*model.PaymentModel, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive, got %s", in.Amount)
	}

	due := dbtime.DueIn(in.Now, in.DueInDays)
	p := &model.PaymentModel{
		PaymentContractID:        in.ContractID,
		PaymentPropertyID:        in.PropertyID,
		PaymentPayerUserID:       in.PayerUserID,
		PaymentType:              in.Type,
		PaymentStatus:            model.PaymentStatusPending,
		PaymentAmount:            in.Amount.Round(2),
		PaymentCurrency:          "IDR",
		PaymentDueDate:           &due,
		PaymentInstallmentNumber: in.InstallmentNumber,
	}
	if in.Description != "" {
		p.PaymentDescription = &in.Description
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("create payment row: %w", err)
		}

		sess, err := s.Gateway.CreateSession(ctx, SessionInput{
			OrderID:     p.PaymentID.String(),
			Amount:      p.PaymentAmount,
			Currency:    p.PaymentCurrency,
			Description: in.Description,
			PayerUserID: in.PayerUserID,
		})
		if err != nil {
			return err // GatewaySessionError → whole tx rolls back
		}

		p.PaymentExternalGatewayID = &sess.ExternalID
		if sess.CheckoutURL != "" {
			p.PaymentCheckoutURL = &sess.CheckoutURL
		}
		return tx.Save(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

type CreatePayoutInput struct {
	ContractID        *uuid.UUID
	PropertyID        uuid.UUID
	BeneficiaryUserID uuid.UUID
	Type              model.PaymentType
	Amount            decimal.Decimal
	Description       string
	Now               time.Time
}

// CreatePayout records a SYSTEM_PENDING outbound row and commits it before
// talking to the gateway. Payout session creation is at-least-once: if the
// gateway call fails the row stays system_pending (keyed by payment id) and
// reconciliation retries it. Never call this inside the webhook's inbound
// status transaction.
func (s *LedgerService) CreatePayout(ctx context.Context, in CreatePayoutInput) (*model.PaymentModel, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("payout amount must be positive, got %s", in.Amount)
	}

	due := dbtime.DueIn(in.Now, 0)
	p := &model.PaymentModel{
		PaymentContractID:  in.ContractID,
		PaymentPropertyID:  in.PropertyID,
		PaymentPayerUserID: in.BeneficiaryUserID,
		PaymentType:        in.Type,
		PaymentStatus:      model.PaymentStatusSystemPending,
		PaymentAmount:      in.Amount.Round(2),
		PaymentCurrency:    "IDR",
		PaymentDueDate:     &due,
	}
	if in.Description != "" {
		p.PaymentDescription = &in.Description
	}

	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("create payout row: %w", err)
	}

	payout, err := s.Gateway.CreatePayout(ctx, PayoutInput{
		ReferenceNo:       p.PaymentID.String(),
		Amount:            p.PaymentAmount,
		Notes:             in.Description,
		BeneficiaryUserID: in.BeneficiaryUserID,
	})
	if err != nil {
		// Row stays system_pending; reconciliation picks it up later.
		log.Printf("[LEDGER] payout session failed payment=%s: %v", p.PaymentID, err)
		return p, nil
	}

	p.PaymentExternalGatewayID = &payout.ExternalID
	if err := s.DB.WithContext(ctx).Save(p).Error; err != nil {
		return nil, fmt.Errorf("persist payout external id: %w", err)
	}
	return p, nil
}

// UpdateStatus applies a terminal status to a payment under a row lock.
// Applying a terminal status on top of another terminal status is a logged
// no-op — webhook redelivery is expected, never an error. Returns the fresh
// row and whether this call actually performed the transition.
func (s *LedgerService) UpdateStatus(ctx context.Context, paymentID uuid.UUID, newStatus model.PaymentStatus, at time.Time) (*model.PaymentModel, bool, error) {
	var p model.PaymentModel
	transitioned := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := dbtx.ForUpdate(tx).
			First(&p, "payment_id = ?", paymentID).Error; err != nil {
			return err
		}

		if p.IsTerminal() {
			log.Printf("[LEDGER] payment=%s already %s, ignoring %s", p.PaymentID, p.PaymentStatus, newStatus)
			return nil
		}

		p.PaymentStatus = newStatus
		if p.IsSettled() {
			t := at
			p.PaymentPaidTime = &t
		}
		transitioned = true
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &p, transitioned, nil
}

// SumSettled totals the settled amounts of the given payment types for a
// contract. Used by the purchase remaining-amount invariant.
func (s *LedgerService) SumSettled(ctx context.Context, contractID uuid.UUID, types ...model.PaymentType) (decimal.Decimal, error) {
	var rows []model.PaymentModel
	q := s.DB.WithContext(ctx).
		Where("payment_contract_id = ? AND payment_status = ?", contractID, model.PaymentStatusSuccess)
	if len(types) > 0 {
		q = q.Where("payment_type IN ?", types)
	}
	if err := q.Find(&rows).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range rows {
		total = total.Add(rows[i].PaymentAmount)
	}
	return total, nil
}
