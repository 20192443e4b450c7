package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"propertiku_backend/internals/features/contracts/service"
)

/* =========================================================
   REQUEST DTOs — validated at the boundary, converted into
   service inputs. Responses reuse the model JSON tags.
========================================================= */

type CreateDepositRequest struct {
	PropertyID       uuid.UUID       `json:"property_id" validate:"required"`
	CustomerUserID   uuid.UUID       `json:"customer_user_id" validate:"required"`
	AgentUserID      *uuid.UUID      `json:"agent_user_id"`
	DepositAmount    decimal.Decimal `json:"deposit_amount" validate:"required"`
	AgreedPrice      decimal.Decimal `json:"agreed_price" validate:"required"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	StartDate        time.Time       `json:"start_date" validate:"required"`
	EndDate          *time.Time      `json:"end_date"`
}

func (r *CreateDepositRequest) ToInput() service.CreateDepositInput {
	return service.CreateDepositInput{
		PropertyID:       r.PropertyID,
		CustomerUserID:   r.CustomerUserID,
		AgentUserID:      r.AgentUserID,
		DepositAmount:    r.DepositAmount,
		AgreedPrice:      r.AgreedPrice,
		CommissionAmount: r.CommissionAmount,
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
	}
}

type CreatePurchaseRequest struct {
	PropertyID             uuid.UUID       `json:"property_id" validate:"required"`
	CustomerUserID         uuid.UUID       `json:"customer_user_id" validate:"required"`
	AgentUserID            *uuid.UUID      `json:"agent_user_id"`
	PropertyValue          decimal.Decimal `json:"property_value" validate:"required"`
	AdvancePaymentAmount   decimal.Decimal `json:"advance_payment_amount"`
	CommissionAmount       decimal.Decimal `json:"commission_amount"`
	LatePaymentPenaltyRate decimal.Decimal `json:"late_payment_penalty_rate"`
	DepositContractID      *uuid.UUID      `json:"deposit_contract_id"`
}

func (r *CreatePurchaseRequest) ToInput() service.CreatePurchaseInput {
	return service.CreatePurchaseInput{
		PropertyID:             r.PropertyID,
		CustomerUserID:         r.CustomerUserID,
		AgentUserID:            r.AgentUserID,
		PropertyValue:          r.PropertyValue,
		AdvancePaymentAmount:   r.AdvancePaymentAmount,
		CommissionAmount:       r.CommissionAmount,
		LatePaymentPenaltyRate: r.LatePaymentPenaltyRate,
		DepositContractID:      r.DepositContractID,
	}
}

type CreateRentalRequest struct {
	PropertyID             uuid.UUID       `json:"property_id" validate:"required"`
	CustomerUserID         uuid.UUID       `json:"customer_user_id" validate:"required"`
	AgentUserID            *uuid.UUID      `json:"agent_user_id"`
	MonthCount             int             `json:"month_count" validate:"required,min=1"`
	MonthlyRentAmount      decimal.Decimal `json:"monthly_rent_amount" validate:"required"`
	CommissionAmount       decimal.Decimal `json:"commission_amount"`
	AdvancePaymentAmount   decimal.Decimal `json:"advance_payment_amount"`
	SecurityDepositAmount  decimal.Decimal `json:"security_deposit_amount"`
	LatePaymentPenaltyRate decimal.Decimal `json:"late_payment_penalty_rate"`
	DepositContractID      *uuid.UUID      `json:"deposit_contract_id"`
	StartDate              time.Time       `json:"start_date" validate:"required"`
}

func (r *CreateRentalRequest) ToInput() service.CreateRentalInput {
	return service.CreateRentalInput{
		PropertyID:             r.PropertyID,
		CustomerUserID:         r.CustomerUserID,
		AgentUserID:            r.AgentUserID,
		MonthCount:             r.MonthCount,
		MonthlyRentAmount:      r.MonthlyRentAmount,
		CommissionAmount:       r.CommissionAmount,
		AdvancePaymentAmount:   r.AdvancePaymentAmount,
		SecurityDepositAmount:  r.SecurityDepositAmount,
		LatePaymentPenaltyRate: r.LatePaymentPenaltyRate,
		DepositContractID:      r.DepositContractID,
		StartDate:              r.StartDate,
	}
}

type CancelContractRequest struct {
	Reason    string           `json:"reason" validate:"required"`
	ActorRole string           `json:"actor_role" validate:"required,oneof=customer owner agent admin"`
	Penalty   *decimal.Decimal `json:"penalty"`
}

type VoidContractRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type SecurityDepositDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=return transfer"`
}
