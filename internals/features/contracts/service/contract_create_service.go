package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	model "propertiku_backend/internals/features/contracts/model"
	notifsvc "propertiku_backend/internals/features/notifications/service"
	paymentsvc "propertiku_backend/internals/features/payments/service"
	propertymodel "propertiku_backend/internals/features/properties/model"
)

/* =========================================================
   ContractService — lifecycle state machine for the three
   contract variants. All money movement goes through the
   payment ledger; this service only decides when.
========================================================= */

type ContractService struct {
	DB       *gorm.DB
	Ledger   *paymentsvc.LedgerService
	Notifier notifsvc.Notifier
}

func NewContractService(db *gorm.DB, ledger *paymentsvc.LedgerService, notifier notifsvc.Notifier) *ContractService {
	return &ContractService{DB: db, Ledger: ledger, Notifier: notifier}
}

/* =======================================================================
   Creation — all variants land in DRAFT. Financial invariants are checked
   here, before anything can move money.
======================================================================= */

type CreateDepositInput struct {
	PropertyID       uuid.UUID
	CustomerUserID   uuid.UUID
	AgentUserID      *uuid.UUID
	DepositAmount    decimal.Decimal
	AgreedPrice      decimal.Decimal
	CommissionAmount decimal.Decimal
	StartDate        time.Time
	EndDate          *time.Time // deposit expiry, nil for open-ended
}

func (s *ContractService) CreateDeposit(ctx context.Context, in CreateDepositInput, now time.Time) (*model.ContractModel, error) {
	if !in.DepositAmount.IsPositive() {
		return nil, validationf("deposit amount must be positive")
	}
	if !in.AgreedPrice.IsPositive() {
		return nil, validationf("agreed price must be positive")
	}
	if in.CommissionAmount.GreaterThanOrEqual(in.AgreedPrice) {
		return nil, validationf("commission (%s) must be strictly less than agreed price (%s)", in.CommissionAmount, in.AgreedPrice)
	}

	m := &model.ContractModel{
		ContractType:             model.ContractTypeDeposit,
		ContractPropertyID:       in.PropertyID,
		ContractCustomerUserID:   in.CustomerUserID,
		ContractAgentUserID:      in.AgentUserID,
		ContractStatus:           model.ContractStatusDraft,
		ContractStartDate:        &in.StartDate,
		ContractEndDate:          in.EndDate,
		ContractDepositAmount:    &in.DepositAmount,
		ContractAgreedPrice:      &in.AgreedPrice,
		ContractCommissionAmount: in.CommissionAmount,
	}
	return m, s.createDraft(ctx, m, now)
}

type CreatePurchaseInput struct {
	PropertyID             uuid.UUID
	CustomerUserID         uuid.UUID
	AgentUserID            *uuid.UUID
	PropertyValue          decimal.Decimal
	AdvancePaymentAmount   decimal.Decimal
	CommissionAmount       decimal.Decimal
	LatePaymentPenaltyRate decimal.Decimal
	DepositContractID      *uuid.UUID
}

func (s *ContractService) CreatePurchase(ctx context.Context, in CreatePurchaseInput, now time.Time) (*model.ContractModel, error) {
	if !in.PropertyValue.IsPositive() {
		return nil, validationf("property value must be positive")
	}
	if in.AdvancePaymentAmount.IsNegative() {
		return nil, validationf("advance payment cannot be negative")
	}
	if in.AdvancePaymentAmount.GreaterThan(in.PropertyValue) {
		return nil, validationf("advance payment (%s) exceeds property value (%s)", in.AdvancePaymentAmount, in.PropertyValue)
	}
	if in.CommissionAmount.GreaterThanOrEqual(in.PropertyValue) {
		return nil, validationf("commission (%s) must be strictly less than property value (%s)", in.CommissionAmount, in.PropertyValue)
	}
	if in.LatePaymentPenaltyRate.IsNegative() {
		return nil, validationf("late payment penalty rate cannot be negative")
	}

	m := &model.ContractModel{
		ContractType:                   model.ContractTypePurchase,
		ContractPropertyID:             in.PropertyID,
		ContractCustomerUserID:         in.CustomerUserID,
		ContractAgentUserID:            in.AgentUserID,
		ContractStatus:                 model.ContractStatusDraft,
		ContractPropertyValue:          &in.PropertyValue,
		ContractAdvancePaymentAmount:   &in.AdvancePaymentAmount,
		ContractCommissionAmount:       in.CommissionAmount,
		ContractLatePaymentPenaltyRate: &in.LatePaymentPenaltyRate,
		ContractDepositContractID:      in.DepositContractID,
	}
	if in.DepositContractID != nil {
		if err := s.validateDepositLink(ctx, *in.DepositContractID, in.PropertyValue, now); err != nil {
			return nil, err
		}
	}
	return m, s.createDraft(ctx, m, now)
}

type CreateRentalInput struct {
	PropertyID             uuid.UUID
	CustomerUserID         uuid.UUID
	AgentUserID            *uuid.UUID
	MonthCount             int
	MonthlyRentAmount      decimal.Decimal
	CommissionAmount       decimal.Decimal
	AdvancePaymentAmount   decimal.Decimal
	SecurityDepositAmount  decimal.Decimal
	LatePaymentPenaltyRate decimal.Decimal
	DepositContractID      *uuid.UUID
	StartDate              time.Time
}

func (s *ContractService) CreateRental(ctx context.Context, in CreateRentalInput, now time.Time) (*model.ContractModel, error) {
	if in.MonthCount <= 0 {
		return nil, validationf("month count must be positive")
	}
	if !in.MonthlyRentAmount.IsPositive() {
		return nil, validationf("monthly rent must be positive")
	}
	if in.CommissionAmount.GreaterThanOrEqual(in.MonthlyRentAmount) {
		return nil, validationf("commission (%s) must be strictly less than monthly rent (%s)", in.CommissionAmount, in.MonthlyRentAmount)
	}
	if in.AdvancePaymentAmount.IsNegative() || in.SecurityDepositAmount.IsNegative() {
		return nil, validationf("advance payment and security deposit cannot be negative")
	}
	if in.LatePaymentPenaltyRate.IsNegative() {
		return nil, validationf("late payment penalty rate cannot be negative")
	}

	end := in.StartDate.AddDate(0, in.MonthCount, 0)
	m := &model.ContractModel{
		ContractType:                   model.ContractTypeRental,
		ContractPropertyID:             in.PropertyID,
		ContractCustomerUserID:         in.CustomerUserID,
		ContractAgentUserID:            in.AgentUserID,
		ContractStatus:                 model.ContractStatusDraft,
		ContractStartDate:              &in.StartDate,
		ContractEndDate:                &end,
		ContractMonthCount:             &in.MonthCount,
		ContractMonthlyRentAmount:      &in.MonthlyRentAmount,
		ContractCommissionAmount:       in.CommissionAmount,
		ContractAdvancePaymentAmount:   &in.AdvancePaymentAmount,
		ContractSecurityDepositAmount:  &in.SecurityDepositAmount,
		ContractLatePaymentPenaltyRate: &in.LatePaymentPenaltyRate,
		ContractDepositContractID:      in.DepositContractID,
	}
	if in.DepositContractID != nil {
		if err := s.validateDepositLink(ctx, *in.DepositContractID, in.MonthlyRentAmount, now); err != nil {
			return nil, err
		}
	}
	return m, s.createDraft(ctx, m, now)
}

/* =======================================================================
   Shared creation plumbing
======================================================================= */

func (s *ContractService) createDraft(ctx context.Context, m *model.ContractModel, now time.Time) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prop propertymodel.PropertyModel
		if err := tx.First(&prop, "property_id = ?", m.ContractPropertyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationf("property %s not found", m.ContractPropertyID)
			}
			return err
		}

		if err := s.checkPropertyFree(tx, m.ContractPropertyID); err != nil {
			return err
		}
		return tx.Create(m).Error
	})
}

// checkPropertyFree enforces "one active-lifecycle contract per property".
// Drafts are exempt; completed/cancelled contracts do not count.
func (s *ContractService) checkPropertyFree(tx *gorm.DB, propertyID uuid.UUID) error {
	var n int64
	err := tx.Model(&model.ContractModel{}).
		Where("contract_property_id = ? AND contract_status IN ?", propertyID, []model.ContractStatus{
			model.ContractStatusWaitingOfficial,
			model.ContractStatusPendingPayment,
			model.ContractStatusActive,
		}).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return validationf("property %s already has an active contract", propertyID)
	}
	return nil
}

// validateDepositLink checks, at creation time only, that the referenced
// deposit contract is ACTIVE, not expired, and its agreed price matches the
// referencing contract's price field.
func (s *ContractService) validateDepositLink(ctx context.Context, depositID uuid.UUID, price decimal.Decimal, now time.Time) error {
	var dep model.ContractModel
	if err := s.DB.WithContext(ctx).
		First(&dep, "contract_id = ?", depositID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationf("deposit contract %s not found", depositID)
		}
		return err
	}

	if dep.ContractType != model.ContractTypeDeposit {
		return validationf("contract %s is not a deposit contract", depositID)
	}
	if dep.ContractStatus != model.ContractStatusActive {
		return validationf("deposit contract %s is %s, must be active", depositID, dep.ContractStatus)
	}
	if dep.IsExpired(now) {
		return validationf("deposit contract %s expired on %s", depositID, dep.ContractEndDate.Format("2006-01-02"))
	}
	if dep.ContractAgreedPrice == nil || !dep.ContractAgreedPrice.Equal(price) {
		return validationf("deposit agreed price does not match contract price (%s)", price)
	}
	return nil
}
