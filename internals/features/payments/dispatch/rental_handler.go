package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"propertiku_backend/internals/helpers/dbtx"

	contractmodel "propertiku_backend/internals/features/contracts/model"
	contractsvc "propertiku_backend/internals/features/contracts/service"
	notifmodel "propertiku_backend/internals/features/notifications/model"
	notifsvc "propertiku_backend/internals/features/notifications/service"
	paymentmodel "propertiku_backend/internals/features/payments/model"
	paymentsvc "propertiku_backend/internals/features/payments/service"
	propertymodel "propertiku_backend/internals/features/properties/model"
	propertysvc "propertiku_backend/internals/features/properties/service"
)

/* =========================================================
   Rental / SECURITY_DEPOSIT — mark the deposit as held.
========================================================= */

type RentalSecurityDepositHandler struct {
	DB *gorm.DB
}

func (h *RentalSecurityDepositHandler) Name() string { return "rental_security_deposit" }

func (h *RentalSecurityDepositHandler) Supports(p *paymentmodel.PaymentModel, c *contractmodel.ContractModel) bool {
	return c != nil &&
		c.ContractType == contractmodel.ContractTypeRental &&
		p.PaymentType == paymentmodel.PaymentTypeSecurityDeposit
}

func (h *RentalSecurityDepositHandler) Handle(ctx context.Context, p *paymentmodel.PaymentModel, c *contractmodel.ContractModel, now time.Time) error {
	return h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m contractmodel.ContractModel
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", c.ContractID).Error; err != nil {
			return err
		}
		held := contractmodel.SecurityDepositHeld
		m.ContractSecurityDepositStatus = &held
		return tx.Save(&m).Error
	})
}

/* =========================================================
   Rental / MONTHLY — first installment activates the
   contract (and completes the linked deposit); subsequent
   installments cut the owner payout and clear the
   consecutive-miss counter.
========================================================= */

type RentalMonthlyHandler struct {
	DB        *gorm.DB
	Contracts *contractsvc.ContractService
	Ledger    *paymentsvc.LedgerService
	Catalog   *propertysvc.CatalogService
	Notifier  notifsvc.Notifier
}

func (h *RentalMonthlyHandler) Name() string { return "rental_monthly" }

func (h *RentalMonthlyHandler) Supports(p *paymentmodel.PaymentModel, c *contractmodel.ContractModel) bool {
	return c != nil &&
		c.ContractType == contractmodel.ContractTypeRental &&
		p.PaymentType == paymentmodel.PaymentTypeMonthly
}

func (h *RentalMonthlyHandler) Handle(ctx context.Context, p *paymentmodel.PaymentModel, c *contractmodel.ContractModel, now time.Time) error {
	first := p.PaymentInstallmentNumber != nil && *p.PaymentInstallmentNumber == 1

	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m contractmodel.ContractModel
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", c.ContractID).Error; err != nil {
			return err
		}

		if first && m.MayActivate() {
			return h.Contracts.ActivateFromPayment(ctx, tx, &m, now)
		}

		// A settled installment clears the consecutive-miss counter; the
		// accumulated penalty is only settled explicitly, never auto-reduced.
		m.ContractUnpaidMonthsCount = 0
		return tx.Save(&m).Error
	})
	if err != nil {
		return err
	}

	if first {
		if err := h.Catalog.SetStatus(ctx, c.ContractPropertyID, propertymodel.PropertyStatusRented); err != nil {
			log.Printf("[DISPATCH] property rented status failed property=%s: %v", c.ContractPropertyID, err)
		}
		return nil
	}

	return h.payoutOwner(ctx, c, p, now)
}

func (h *RentalMonthlyHandler) payoutOwner(ctx context.Context, c *contractmodel.ContractModel, p *paymentmodel.PaymentModel, now time.Time) error {
	prop, err := h.Catalog.GetByID(ctx, c.ContractPropertyID)
	if err != nil {
		return fmt.Errorf("payout property lookup: %w", err)
	}

	amount := c.ContractMonthlyRentAmount.Sub(c.ContractCommissionAmount)
	if !amount.IsPositive() {
		return nil
	}

	installment := 0
	if p.PaymentInstallmentNumber != nil {
		installment = *p.PaymentInstallmentNumber
	}
	if _, err := h.Ledger.CreatePayout(ctx, paymentsvc.CreatePayoutInput{
		ContractID:        &c.ContractID,
		PropertyID:        c.ContractPropertyID,
		BeneficiaryUserID: prop.PropertyOwnerUserID,
		Type:              paymentmodel.PaymentTypeMonthly,
		Amount:            amount,
		Description:       fmt.Sprintf("Rent payout, installment %d", installment),
		Now:               now,
	}); err != nil {
		return err
	}

	h.Notifier.Notify(ctx, prop.PropertyOwnerUserID, notifmodel.NotificationTypePayoutSent,
		"Rent payout on the way",
		fmt.Sprintf("Rent installment %d settled; %s is being transferred to you.", installment, amount),
		"contract", c.ContractID)
	return nil
}
