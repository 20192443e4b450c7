package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* =========================================================
   Model — one table for all three contract variants,
   discriminated by contract_type. Variant-only columns are
   nullable and stay NULL outside their variant.
========================================================= */

type ContractModel struct {
	ContractID   uuid.UUID    `gorm:"column:contract_id;type:uuid;primaryKey" json:"contract_id"`
	ContractType ContractType `gorm:"column:contract_type;type:contract_type;not null" json:"contract_type"`

	// Parties
	ContractPropertyID     uuid.UUID  `gorm:"column:contract_property_id;type:uuid;not null;index" json:"contract_property_id"`
	ContractCustomerUserID uuid.UUID  `gorm:"column:contract_customer_user_id;type:uuid;not null" json:"contract_customer_user_id"`
	ContractAgentUserID    *uuid.UUID `gorm:"column:contract_agent_user_id;type:uuid" json:"contract_agent_user_id,omitempty"`

	ContractStatus ContractStatus `gorm:"column:contract_status;type:contract_status;not null;default:'draft'" json:"contract_status"`

	ContractStartDate *time.Time `gorm:"column:contract_start_date" json:"contract_start_date,omitempty"`
	ContractEndDate   *time.Time `gorm:"column:contract_end_date" json:"contract_end_date,omitempty"`
	// Physical signature timestamp, independent of contract_status=active.
	ContractSignedAt *time.Time `gorm:"column:contract_signed_at" json:"contract_signed_at,omitempty"`

	// Cancellation
	ContractCancellationReason  *string          `gorm:"column:contract_cancellation_reason;type:text" json:"contract_cancellation_reason,omitempty"`
	ContractCancellationPenalty *decimal.Decimal `gorm:"column:contract_cancellation_penalty;type:decimal(18,2)" json:"contract_cancellation_penalty,omitempty"`
	ContractCancelledBy         *string          `gorm:"column:contract_cancelled_by;type:varchar(20)" json:"contract_cancelled_by,omitempty"`

	// Shared financials
	ContractCommissionAmount decimal.Decimal `gorm:"column:contract_commission_amount;type:decimal(18,2);not null;default:0" json:"contract_commission_amount"`

	// Deposit variant
	ContractDepositAmount *decimal.Decimal `gorm:"column:contract_deposit_amount;type:decimal(18,2)" json:"contract_deposit_amount,omitempty"`
	// Agreed price of the future main contract (monthly rent or purchase price).
	ContractAgreedPrice *decimal.Decimal `gorm:"column:contract_agreed_price;type:decimal(18,2)" json:"contract_agreed_price,omitempty"`

	// Purchase variant
	ContractPropertyValue *decimal.Decimal `gorm:"column:contract_property_value;type:decimal(18,2)" json:"contract_property_value,omitempty"`
	// Derived on read: property value - advance - settled balance payments.
	ContractRemainingAmount *decimal.Decimal `gorm:"-" json:"contract_remaining_amount,omitempty"`

	// Purchase + rental
	ContractAdvancePaymentAmount   *decimal.Decimal `gorm:"column:contract_advance_payment_amount;type:decimal(18,2)" json:"contract_advance_payment_amount,omitempty"`
	ContractLatePaymentPenaltyRate *decimal.Decimal `gorm:"column:contract_late_payment_penalty_rate;type:decimal(8,4)" json:"contract_late_payment_penalty_rate,omitempty"`
	// Back-reference to the originating deposit contract.
	ContractDepositContractID *uuid.UUID `gorm:"column:contract_deposit_contract_id;type:uuid" json:"contract_deposit_contract_id,omitempty"`

	// Rental variant
	ContractMonthCount               *int                   `gorm:"column:contract_month_count" json:"contract_month_count,omitempty"`
	ContractMonthlyRentAmount        *decimal.Decimal       `gorm:"column:contract_monthly_rent_amount;type:decimal(18,2)" json:"contract_monthly_rent_amount,omitempty"`
	ContractSecurityDepositAmount    *decimal.Decimal       `gorm:"column:contract_security_deposit_amount;type:decimal(18,2)" json:"contract_security_deposit_amount,omitempty"`
	ContractSecurityDepositStatus    *SecurityDepositStatus `gorm:"column:contract_security_deposit_status;type:security_deposit_status" json:"contract_security_deposit_status,omitempty"`
	ContractAccumulatedUnpaidPenalty decimal.Decimal        `gorm:"column:contract_accumulated_unpaid_penalty;type:decimal(18,2);not null;default:0" json:"contract_accumulated_unpaid_penalty"`
	ContractUnpaidMonthsCount        int                    `gorm:"column:contract_unpaid_months_count;not null;default:0" json:"contract_unpaid_months_count"`

	CreatedAt time.Time      `gorm:"column:contract_created_at;autoCreateTime" json:"contract_created_at"`
	UpdatedAt time.Time      `gorm:"column:contract_updated_at;autoUpdateTime" json:"contract_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:contract_deleted_at;index" json:"contract_deleted_at,omitempty"`
}

func (ContractModel) TableName() string { return "contracts" }

func (m *ContractModel) BeforeCreate(tx *gorm.DB) error {
	if m.ContractID == uuid.Nil {
		m.ContractID = uuid.New()
	}
	return nil
}

/* =========================================================
   State machine guards — one May* per action. Services must
   consult these before mutating; a false answer is an
   InvalidStateTransition, never a silent no-op.
========================================================= */

func (m *ContractModel) IsTerminal() bool {
	return m.ContractStatus == ContractStatusCompleted || m.ContractStatus == ContractStatusCancelled
}

// MayApprove: draft → waiting_official
func (m *ContractModel) MayApprove() bool {
	return m.ContractStatus == ContractStatusDraft
}

// MayCompletePaperwork: waiting_official → {active | pending_payment}
func (m *ContractModel) MayCompletePaperwork() bool {
	return m.ContractStatus == ContractStatusWaitingOfficial
}

// MayActivate: payment-succeeded callback
func (m *ContractModel) MayActivate() bool {
	return m.ContractStatus == ContractStatusPendingPayment ||
		m.ContractStatus == ContractStatusWaitingOfficial
}

// MayCancel: regular cancellation with money policy
func (m *ContractModel) MayCancel() bool {
	switch m.ContractStatus {
	case ContractStatusDraft, ContractStatusWaitingOfficial, ContractStatusPendingPayment:
		return true
	default:
		return false
	}
}

// MayVoid: admin void from any non-terminal state, no financial side effects
func (m *ContractModel) MayVoid() bool {
	return !m.IsTerminal()
}

// MayComplete: active → completed
func (m *ContractModel) MayComplete() bool {
	return m.ContractStatus == ContractStatusActive
}

// MayDecideSecurityDeposit: rental only, active or completed, deposit still held
func (m *ContractModel) MayDecideSecurityDeposit() bool {
	if m.ContractType != ContractTypeRental {
		return false
	}
	if m.ContractStatus != ContractStatusActive && m.ContractStatus != ContractStatusCompleted {
		return false
	}
	return m.ContractSecurityDepositStatus != nil && *m.ContractSecurityDepositStatus == SecurityDepositHeld
}

/* ===================== Helpers ===================== */

func (m *ContractModel) IsExpired(now time.Time) bool {
	return m.ContractEndDate != nil && m.ContractEndDate.Before(now)
}

// PriceBase returns the amount the commission is computed against.
func (m *ContractModel) PriceBase() decimal.Decimal {
	switch m.ContractType {
	case ContractTypeDeposit:
		if m.ContractAgreedPrice != nil {
			return *m.ContractAgreedPrice
		}
	case ContractTypePurchase:
		if m.ContractPropertyValue != nil {
			return *m.ContractPropertyValue
		}
	case ContractTypeRental:
		if m.ContractMonthlyRentAmount != nil {
			return *m.ContractMonthlyRentAmount
		}
	}
	return decimal.Zero
}

// PenaltyRate returns the late-payment penalty rate, zero when unset.
func (m *ContractModel) PenaltyRate() decimal.Decimal {
	if m.ContractLatePaymentPenaltyRate == nil {
		return decimal.Zero
	}
	return *m.ContractLatePaymentPenaltyRate
}
