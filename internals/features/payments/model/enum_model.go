package model

/* =========================================================
   Enums (string) — aligned with the PostgreSQL ENUM types
   payment_type, payment_status, gateway_event_status
========================================================= */

type PaymentType string

const (
	PaymentTypeDeposit         PaymentType = "deposit"
	PaymentTypeAdvance         PaymentType = "advance"
	PaymentTypeInstallment     PaymentType = "installment"
	PaymentTypeFullPay         PaymentType = "full_pay"
	PaymentTypeMonthly         PaymentType = "monthly"
	PaymentTypeSecurityDeposit PaymentType = "security_deposit"
	PaymentTypePenalty         PaymentType = "penalty"
	PaymentTypeRefund          PaymentType = "refund"
	PaymentTypeServiceFee      PaymentType = "service_fee"
	PaymentTypeSalary          PaymentType = "salary"
	PaymentTypeBonus           PaymentType = "bonus"
)

type PaymentStatus string

// pending → success|failed is the customer-initiated (money-in) track;
// system_pending → system_success|system_failed is the payout (money-out) track.
const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusSuccess       PaymentStatus = "success"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusSystemPending PaymentStatus = "system_pending"
	PaymentStatusSystemSuccess PaymentStatus = "system_success"
	PaymentStatusSystemFailed  PaymentStatus = "system_failed"
)

func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusSystemSuccess, PaymentStatusSystemFailed:
		return true
	default:
		return false
	}
}

// Gateway-event audit statuses.
type GatewayEventStatus string

const (
	GatewayEventStatusReceived  GatewayEventStatus = "received"
	GatewayEventStatusProcessed GatewayEventStatus = "processed"
	GatewayEventStatusIgnored   GatewayEventStatus = "ignored"
	GatewayEventStatusFailed    GatewayEventStatus = "failed"
)

// Webhook envelope event types distilled from the provider payload.
const (
	GatewayEventPaymentSucceeded = "payment.succeeded"
	GatewayEventPaymentCanceled  = "payment.canceled"
	GatewayEventPayoutPaid       = "payout.paid"
	GatewayEventPayoutFailed     = "payout.failed"
)
