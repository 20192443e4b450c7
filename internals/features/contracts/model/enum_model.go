package model

/* =========================================================
   Enums (string) — aligned with the PostgreSQL ENUM types
   contract_type, contract_status, security_deposit_status
========================================================= */

type ContractType string

const (
	ContractTypeDeposit  ContractType = "deposit"
	ContractTypePurchase ContractType = "purchase"
	ContractTypeRental   ContractType = "rental"
)

type ContractStatus string

const (
	ContractStatusDraft           ContractStatus = "draft"
	ContractStatusWaitingOfficial ContractStatus = "waiting_official"
	ContractStatusPendingPayment  ContractStatus = "pending_payment"
	ContractStatusActive          ContractStatus = "active"
	ContractStatusCompleted       ContractStatus = "completed"
	ContractStatusCancelled       ContractStatus = "cancelled"
)

type SecurityDepositStatus string

const (
	SecurityDepositHeld        SecurityDepositStatus = "held"
	SecurityDepositReturned    SecurityDepositStatus = "returned"
	SecurityDepositTransferred SecurityDepositStatus = "transferred"
)

// Security-deposit disposition decisions (admin input).
const (
	SecurityDepositDecisionReturn   = "return"   // refund to customer
	SecurityDepositDecisionTransfer = "transfer" // transfer to owner
)
