package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* =========================================================
   Model — append-only ledger of payment intents. One row per
   expected inbound or outbound transfer. Rows are mutated
   exactly once, from pending/system_pending to a terminal
   status, and never deleted after the owning contract leaves
   draft.
========================================================= */

type PaymentModel struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`

	// Service-fee payments reference only the property; contract stays NULL.
	PaymentContractID  *uuid.UUID `gorm:"column:payment_contract_id;type:uuid;index" json:"payment_contract_id,omitempty"`
	PaymentPropertyID  uuid.UUID  `gorm:"column:payment_property_id;type:uuid;not null;index" json:"payment_property_id"`
	PaymentPayerUserID uuid.UUID  `gorm:"column:payment_payer_user_id;type:uuid;not null" json:"payment_payer_user_id"`

	PaymentType   PaymentType   `gorm:"column:payment_type;type:payment_type;not null" json:"payment_type"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'" json:"payment_status"`

	PaymentAmount   decimal.Decimal `gorm:"column:payment_amount;type:decimal(18,2);not null;check:payment_amount > 0" json:"payment_amount"`
	PaymentCurrency string          `gorm:"column:payment_currency;type:varchar(8);not null;default:IDR" json:"payment_currency"`

	PaymentDueDate  *time.Time `gorm:"column:payment_due_date" json:"payment_due_date,omitempty"`
	PaymentPaidTime *time.Time `gorm:"column:payment_paid_time" json:"payment_paid_time,omitempty"`

	// 1-based sequence for monthly / installment types.
	PaymentInstallmentNumber *int `gorm:"column:payment_installment_number" json:"payment_installment_number,omitempty"`

	// Idempotency key correlating webhook events to this row. Unique; NULL only
	// while no gateway session exists yet (terminal manual rows).
	PaymentExternalGatewayID *string `gorm:"column:payment_external_gateway_id;uniqueIndex" json:"payment_external_gateway_id,omitempty"`
	PaymentCheckoutURL       *string `gorm:"column:payment_checkout_url" json:"payment_checkout_url,omitempty"`

	PaymentDescription *string `gorm:"column:payment_description" json:"payment_description,omitempty"`

	CreatedAt time.Time      `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	UpdatedAt time.Time      `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:payment_deleted_at;index" json:"payment_deleted_at,omitempty"`
}

func (PaymentModel) TableName() string { return "payments" }

func (p *PaymentModel) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	return nil
}

/* ===================== Helpers ===================== */

func (p *PaymentModel) IsTerminal() bool { return p.PaymentStatus.IsTerminal() }

func (p *PaymentModel) IsSettled() bool {
	return p.PaymentStatus == PaymentStatusSuccess || p.PaymentStatus == PaymentStatusSystemSuccess
}

// IsPayout reports whether this row is system-initiated money going out.
func (p *PaymentModel) IsPayout() bool {
	switch p.PaymentStatus {
	case PaymentStatusSystemPending, PaymentStatusSystemSuccess, PaymentStatusSystemFailed:
		return true
	default:
		return false
	}
}

func (p *PaymentModel) IsOverdue(now time.Time) bool {
	return p.PaymentStatus == PaymentStatusPending && p.PaymentDueDate != nil && p.PaymentDueDate.Before(now)
}
