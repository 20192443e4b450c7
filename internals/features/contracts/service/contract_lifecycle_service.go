package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"propertiku_backend/internals/constants"
	"propertiku_backend/internals/helpers/dbtx"

	model "propertiku_backend/internals/features/contracts/model"
	notifmodel "propertiku_backend/internals/features/notifications/model"
	paymentmodel "propertiku_backend/internals/features/payments/model"
	paymentsvc "propertiku_backend/internals/features/payments/service"
	propertymodel "propertiku_backend/internals/features/properties/model"
)

/* =======================================================================
   Approve — DRAFT → WAITING_OFFICIAL. Creates the upfront payment intents
   (deposit / advance / security deposit) in the same transaction; a gateway
   failure rolls the whole approval back.
======================================================================= */

func (s *ContractService) Approve(ctx context.Context, contractID uuid.UUID, now time.Time) (*model.ContractModel, error) {
	var m model.ContractModel

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", contractID).Error; err != nil {
			return err
		}
		if !m.MayApprove() {
			return invalidTransition(&m, "approve")
		}
		// The uniqueness invariant is re-checked here: it is this transition,
		// not creation, that takes the contract out of DRAFT.
		if err := s.checkPropertyFree(tx, m.ContractPropertyID); err != nil {
			return err
		}

		m.ContractStatus = model.ContractStatusWaitingOfficial
		if err := tx.Save(&m).Error; err != nil {
			return err
		}
		return s.createUpfrontIntents(ctx, tx, &m, now)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *ContractService) createUpfrontIntents(ctx context.Context, tx *gorm.DB, m *model.ContractModel, now time.Time) error {
	switch m.ContractType {
	case model.ContractTypeDeposit:
		_, err := s.Ledger.CreatePaymentIntent(ctx, tx, paymentsvc.CreateIntentInput{
			ContractID:  &m.ContractID,
			PropertyID:  m.ContractPropertyID,
			PayerUserID: m.ContractCustomerUserID,
			Type:        paymentmodel.PaymentTypeDeposit,
			Amount:      *m.ContractDepositAmount,
			DueInDays:   7,
			Description: "Booking deposit",
			Now:         now,
		})
		return err

	case model.ContractTypePurchase:
		if m.ContractAdvancePaymentAmount != nil && m.ContractAdvancePaymentAmount.IsPositive() {
			_, err := s.Ledger.CreatePaymentIntent(ctx, tx, paymentsvc.CreateIntentInput{
				ContractID:  &m.ContractID,
				PropertyID:  m.ContractPropertyID,
				PayerUserID: m.ContractCustomerUserID,
				Type:        paymentmodel.PaymentTypeAdvance,
				Amount:      *m.ContractAdvancePaymentAmount,
				DueInDays:   7,
				Description: "Purchase advance payment",
				Now:         now,
			})
			return err
		}
		return nil

	case model.ContractTypeRental:
		if m.ContractAdvancePaymentAmount != nil && m.ContractAdvancePaymentAmount.IsPositive() {
			if _, err := s.Ledger.CreatePaymentIntent(ctx, tx, paymentsvc.CreateIntentInput{
				ContractID:  &m.ContractID,
				PropertyID:  m.ContractPropertyID,
				PayerUserID: m.ContractCustomerUserID,
				Type:        paymentmodel.PaymentTypeAdvance,
				Amount:      *m.ContractAdvancePaymentAmount,
				DueInDays:   7,
				Description: "Rental advance payment",
				Now:         now,
			}); err != nil {
				return err
			}
		}
		if m.ContractSecurityDepositAmount != nil && m.ContractSecurityDepositAmount.IsPositive() {
			_, err := s.Ledger.CreatePaymentIntent(ctx, tx, paymentsvc.CreateIntentInput{
				ContractID:  &m.ContractID,
				PropertyID:  m.ContractPropertyID,
				PayerUserID: m.ContractCustomerUserID,
				Type:        paymentmodel.PaymentTypeSecurityDeposit,
				Amount:      *m.ContractSecurityDepositAmount,
				DueInDays:   7,
				Description: "Rental security deposit",
				Now:         now,
			})
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown contract type %q", m.ContractType)
}

/* =======================================================================
   MarkPaperworkComplete — WAITING_OFFICIAL → {ACTIVE | PENDING_PAYMENT}.
   Creates the next required payment (final balance / first rent installment)
   when an amount remains.
======================================================================= */

func (s *ContractService) MarkPaperworkComplete(ctx context.Context, contractID uuid.UUID, now time.Time) (*model.ContractModel, error) {
	var m model.ContractModel

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", contractID).Error; err != nil {
			return err
		}
		if !m.MayCompletePaperwork() {
			return invalidTransition(&m, "mark_paperwork_complete")
		}

		signedAt := now
		m.ContractSignedAt = &signedAt

		switch m.ContractType {
		case model.ContractTypeDeposit:
			settled, err := s.hasSettledPayment(tx, m.ContractID, paymentmodel.PaymentTypeDeposit)
			if err != nil {
				return err
			}
			if settled {
				m.ContractStatus = model.ContractStatusActive
			} else {
				m.ContractStatus = model.ContractStatusPendingPayment
			}

		case model.ContractTypePurchase:
			balance := m.ContractPropertyValue.Sub(advanceOrZero(&m))
			if balance.IsPositive() {
				if _, err := s.Ledger.CreatePaymentIntent(ctx, tx, paymentsvc.CreateIntentInput{
					ContractID:  &m.ContractID,
					PropertyID:  m.ContractPropertyID,
					PayerUserID: m.ContractCustomerUserID,
					Type:        paymentmodel.PaymentTypeFullPay,
					Amount:      balance,
					DueInDays:   30,
					Description: "Purchase final balance",
					Now:         now,
				}); err != nil {
					return err
				}
				m.ContractStatus = model.ContractStatusPendingPayment
			} else {
				m.ContractStatus = model.ContractStatusActive
			}

		case model.ContractTypeRental:
			first := 1
			if _, err := s.Ledger.CreatePaymentIntent(ctx, tx, paymentsvc.CreateIntentInput{
				ContractID:        &m.ContractID,
				PropertyID:        m.ContractPropertyID,
				PayerUserID:       m.ContractCustomerUserID,
				Type:              paymentmodel.PaymentTypeMonthly,
				Amount:            *m.ContractMonthlyRentAmount,
				DueInDays:         7,
				InstallmentNumber: &first,
				Description:       "Rent installment 1",
				Now:               now,
			}); err != nil {
				return err
			}
			m.ContractStatus = model.ContractStatusPendingPayment
		}

		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

/* =======================================================================
   Settlement-driven transitions (invoked by the side-effect dispatcher,
   inside the handler's own transaction)
======================================================================= */

// ActivateFromPayment: {PENDING_PAYMENT, WAITING_OFFICIAL} → ACTIVE. Completes
// the linked deposit contract when this contract originated from one.
func (s *ContractService) ActivateFromPayment(ctx context.Context, tx *gorm.DB, m *model.ContractModel, now time.Time) error {
	if !m.MayActivate() {
		return invalidTransition(m, "activate")
	}
	m.ContractStatus = model.ContractStatusActive
	if err := tx.Save(m).Error; err != nil {
		return err
	}

	if m.ContractDepositContractID != nil {
		if err := s.CompleteDepositContract(ctx, tx, *m.ContractDepositContractID); err != nil {
			return err
		}
	}

	s.notify(ctx, m.ContractCustomerUserID, notifmodel.NotificationTypeContractActivated,
		"Contract active", fmt.Sprintf("Your %s contract is now active.", m.ContractType), m.ContractID)
	return nil
}

// CompleteDepositContract: linked deposit ACTIVE → COMPLETED.
func (s *ContractService) CompleteDepositContract(ctx context.Context, tx *gorm.DB, depositID uuid.UUID) error {
	var dep model.ContractModel
	if err := dbtx.ForUpdate(tx).First(&dep, "contract_id = ?", depositID).Error; err != nil {
		return err
	}
	if dep.ContractType != model.ContractTypeDeposit {
		return validationf("contract %s is not a deposit contract", depositID)
	}
	if !dep.MayComplete() {
		return invalidTransition(&dep, "complete_deposit")
	}
	dep.ContractStatus = model.ContractStatusCompleted
	return tx.Save(&dep).Error
}

// CompleteContract: ACTIVE → COMPLETED (purchase full-pay, rental end date).
func (s *ContractService) CompleteContract(ctx context.Context, tx *gorm.DB, m *model.ContractModel) error {
	if !m.MayComplete() {
		return invalidTransition(m, "complete")
	}
	m.ContractStatus = model.ContractStatusCompleted
	return tx.Save(m).Error
}

/* =======================================================================
   Cancel / Void
======================================================================= */

// Cancel applies the standard cancellation policy:
//   - customer cancels → settled deposit is forfeited to the owner;
//   - owner cancels    → settled deposit is refunded to the customer and the
//     owner owes the cancellation penalty (defaults to the deposit amount).
//
// Money moves after the status commit; payout rows carry their own
// idempotency keys, so a crash in between is repaired by reconciliation.
func (s *ContractService) Cancel(ctx context.Context, contractID uuid.UUID, reason, actorRole string, penalty *decimal.Decimal, now time.Time) (*model.ContractModel, error) {
	if !constants.IsKnownRole(actorRole) {
		return nil, validationf("unknown actor role %q", actorRole)
	}

	var m model.ContractModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", contractID).Error; err != nil {
			return err
		}
		if !m.MayCancel() {
			return invalidTransition(&m, "cancel")
		}

		m.ContractStatus = model.ContractStatusCancelled
		m.ContractCancellationReason = &reason
		m.ContractCancelledBy = &actorRole
		switch {
		case penalty != nil:
			m.ContractCancellationPenalty = penalty
		case m.ContractDepositAmount != nil:
			// Policy default: penalty equals the deposit amount.
			m.ContractCancellationPenalty = m.ContractDepositAmount
		}
		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, err
	}

	s.settleCancellation(ctx, &m, actorRole, now)
	return &m, nil
}

// settleCancellation moves the held deposit according to who cancelled.
// Failures are logged: the ledger rows are the source of truth for retries.
func (s *ContractService) settleCancellation(ctx context.Context, m *model.ContractModel, actorRole string, now time.Time) {
	if m.ContractDepositAmount == nil {
		return
	}
	settled, err := s.hasSettledPayment(s.DB.WithContext(ctx), m.ContractID, paymentmodel.PaymentTypeDeposit)
	if err != nil {
		log.Printf("[CONTRACT] cancel settlement lookup failed contract=%s: %v", m.ContractID, err)
		return
	}
	if !settled {
		return // nothing was ever collected, nothing to move
	}

	prop, err := s.loadProperty(ctx, m.ContractPropertyID)
	if err != nil {
		log.Printf("[CONTRACT] cancel settlement property lookup failed contract=%s: %v", m.ContractID, err)
		return
	}

	switch actorRole {
	case constants.RoleOwner, constants.RoleAgent, constants.RoleAdmin:
		// Owner-side cancellation: return the deposit, charge the penalty.
		if _, err := s.Ledger.CreatePayout(ctx, paymentsvc.CreatePayoutInput{
			ContractID:        &m.ContractID,
			PropertyID:        m.ContractPropertyID,
			BeneficiaryUserID: m.ContractCustomerUserID,
			Type:              paymentmodel.PaymentTypeRefund,
			Amount:            *m.ContractDepositAmount,
			Description:       "Deposit refund on owner cancellation",
			Now:               now,
		}); err != nil {
			log.Printf("[CONTRACT] deposit refund payout failed contract=%s: %v", m.ContractID, err)
		}
		if m.ContractCancellationPenalty != nil && m.ContractCancellationPenalty.IsPositive() {
			if _, err := s.Ledger.CreatePaymentIntent(ctx, s.DB, paymentsvc.CreateIntentInput{
				ContractID:  &m.ContractID,
				PropertyID:  m.ContractPropertyID,
				PayerUserID: prop.PropertyOwnerUserID,
				Type:        paymentmodel.PaymentTypePenalty,
				Amount:      *m.ContractCancellationPenalty,
				DueInDays:   14,
				Description: "Owner cancellation penalty",
				Now:         now,
			}); err != nil {
				log.Printf("[CONTRACT] cancellation penalty intent failed contract=%s: %v", m.ContractID, err)
			}
		}
		s.notify(ctx, m.ContractCustomerUserID, notifmodel.NotificationTypeContractCancelled,
			"Contract cancelled", "The owner cancelled the contract. Your deposit will be refunded.", m.ContractID)

	default: // customer
		if _, err := s.Ledger.CreatePayout(ctx, paymentsvc.CreatePayoutInput{
			ContractID:        &m.ContractID,
			PropertyID:        m.ContractPropertyID,
			BeneficiaryUserID: prop.PropertyOwnerUserID,
			Type:              paymentmodel.PaymentTypeDeposit,
			Amount:            *m.ContractDepositAmount,
			Description:       "Deposit forfeited on customer cancellation",
			Now:               now,
		}); err != nil {
			log.Printf("[CONTRACT] deposit forfeit payout failed contract=%s: %v", m.ContractID, err)
		}
		s.notify(ctx, prop.PropertyOwnerUserID, notifmodel.NotificationTypeContractCancelled,
			"Contract cancelled", "The customer cancelled the contract. The deposit is forfeited to you.", m.ContractID)
	}
}

// Void is the admin escape hatch: any non-terminal state → CANCELLED with no
// financial side effects at all.
func (s *ContractService) Void(ctx context.Context, contractID uuid.UUID, reason string) (*model.ContractModel, error) {
	var m model.ContractModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", contractID).Error; err != nil {
			return err
		}
		if !m.MayVoid() {
			return invalidTransition(&m, "void")
		}
		admin := constants.RoleAdmin
		m.ContractStatus = model.ContractStatusCancelled
		m.ContractCancellationReason = &reason
		m.ContractCancelledBy = &admin
		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

/* =======================================================================
   Security deposit disposition (admin, rental only)
======================================================================= */

func (s *ContractService) DecideSecurityDeposit(ctx context.Context, contractID uuid.UUID, decision string, now time.Time) (*model.ContractModel, error) {
	if decision != model.SecurityDepositDecisionReturn && decision != model.SecurityDepositDecisionTransfer {
		return nil, validationf("unknown security deposit decision %q", decision)
	}

	var m model.ContractModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", contractID).Error; err != nil {
			return err
		}
		if !m.MayDecideSecurityDeposit() {
			return invalidTransition(&m, "decide_security_deposit")
		}

		st := model.SecurityDepositReturned
		if decision == model.SecurityDepositDecisionTransfer {
			st = model.SecurityDepositTransferred
		}
		m.ContractSecurityDepositStatus = &st
		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, err
	}

	// Payout after commit, same at-least-once discipline as cancellation.
	if m.ContractSecurityDepositAmount != nil && m.ContractSecurityDepositAmount.IsPositive() {
		if decision == model.SecurityDepositDecisionReturn {
			if _, err := s.Ledger.CreatePayout(ctx, paymentsvc.CreatePayoutInput{
				ContractID:        &m.ContractID,
				PropertyID:        m.ContractPropertyID,
				BeneficiaryUserID: m.ContractCustomerUserID,
				Type:              paymentmodel.PaymentTypeRefund,
				Amount:            *m.ContractSecurityDepositAmount,
				Description:       "Security deposit returned",
				Now:               now,
			}); err != nil {
				log.Printf("[CONTRACT] security deposit return payout failed contract=%s: %v", m.ContractID, err)
			}
			s.notify(ctx, m.ContractCustomerUserID, notifmodel.NotificationTypeSecurityDeposit,
				"Security deposit returned", "Your security deposit is on its way back.", m.ContractID)
		} else {
			prop, err := s.loadProperty(ctx, m.ContractPropertyID)
			if err != nil {
				log.Printf("[CONTRACT] security deposit transfer property lookup failed contract=%s: %v", m.ContractID, err)
				return &m, nil
			}
			if _, err := s.Ledger.CreatePayout(ctx, paymentsvc.CreatePayoutInput{
				ContractID:        &m.ContractID,
				PropertyID:        m.ContractPropertyID,
				BeneficiaryUserID: prop.PropertyOwnerUserID,
				Type:              paymentmodel.PaymentTypeSecurityDeposit,
				Amount:            *m.ContractSecurityDepositAmount,
				Description:       "Security deposit transferred to owner",
				Now:               now,
			}); err != nil {
				log.Printf("[CONTRACT] security deposit transfer payout failed contract=%s: %v", m.ContractID, err)
			}
			s.notify(ctx, prop.PropertyOwnerUserID, notifmodel.NotificationTypeSecurityDeposit,
				"Security deposit transferred", "The tenant's security deposit was transferred to you.", m.ContractID)
		}
	}
	return &m, nil
}

/* =======================================================================
   Reads & shared helpers
======================================================================= */

func (s *ContractService) GetByID(ctx context.Context, contractID uuid.UUID) (*model.ContractModel, error) {
	var m model.ContractModel
	if err := s.DB.WithContext(ctx).First(&m, "contract_id = ?", contractID).Error; err != nil {
		return nil, err
	}
	if err := s.fillRemainingAmount(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// fillRemainingAmount derives the purchase balance still owed:
// property value minus the advance commitment minus everything already
// settled against the final balance. Floored at zero.
func (s *ContractService) fillRemainingAmount(ctx context.Context, m *model.ContractModel) error {
	if m.ContractType != model.ContractTypePurchase || m.ContractPropertyValue == nil {
		return nil
	}

	paid, err := s.Ledger.SumSettled(ctx, m.ContractID,
		paymentmodel.PaymentTypeFullPay, paymentmodel.PaymentTypeMonthly)
	if err != nil {
		return err
	}

	remaining := *m.ContractPropertyValue
	if m.ContractAdvancePaymentAmount != nil {
		remaining = remaining.Sub(*m.ContractAdvancePaymentAmount)
	}
	remaining = remaining.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	m.ContractRemainingAmount = &remaining
	return nil
}

func (s *ContractService) hasSettledPayment(db *gorm.DB, contractID uuid.UUID, typ paymentmodel.PaymentType) (bool, error) {
	var n int64
	err := db.Model(&paymentmodel.PaymentModel{}).
		Where("payment_contract_id = ? AND payment_type = ? AND payment_status = ?",
			contractID, typ, paymentmodel.PaymentStatusSuccess).
		Count(&n).Error
	return n > 0, err
}

func (s *ContractService) loadProperty(ctx context.Context, propertyID uuid.UUID) (*propertymodel.PropertyModel, error) {
	var prop propertymodel.PropertyModel
	if err := s.DB.WithContext(ctx).First(&prop, "property_id = ?", propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("property %s not found", propertyID)
		}
		return nil, err
	}
	return &prop, nil
}

func (s *ContractService) notify(ctx context.Context, userID uuid.UUID, typ, title, body string, contractID uuid.UUID) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, userID, typ, title, body, "contract", contractID)
}

func advanceOrZero(m *model.ContractModel) decimal.Decimal {
	if m.ContractAdvancePaymentAmount == nil {
		return decimal.Zero
	}
	return *m.ContractAdvancePaymentAmount
}
