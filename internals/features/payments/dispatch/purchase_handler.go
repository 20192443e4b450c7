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
   Purchase / ADVANCE — money arrived but nothing moves yet;
   the agent is told to get the paperwork going.
========================================================= */

type PurchaseAdvanceHandler struct {
	Notifier notifsvc.Notifier
}

func (h *PurchaseAdvanceHandler) Name() string { return "purchase_advance" }

func (h *PurchaseAdvanceHandler) Supports(p *paymentmodel.PaymentModel, c *contractmodel.ContractModel) bool {
	return c != nil &&
		c.ContractType == contractmodel.ContractTypePurchase &&
		p.PaymentType == paymentmodel.PaymentTypeAdvance
}

func (h *PurchaseAdvanceHandler) Handle(ctx context.Context, p *paymentmodel.PaymentModel, c *contractmodel.ContractModel, now time.Time) error {
	if c.ContractAgentUserID == nil {
		return nil
	}
	h.Notifier.Notify(ctx, *c.ContractAgentUserID, notifmodel.NotificationTypeAdvanceReceived,
		"Advance payment received",
		fmt.Sprintf("Advance of %s received for purchase contract.", p.PaymentAmount),
		"contract", c.ContractID)
	return nil
}

/* =========================================================
   Purchase / FULL_PAY — the final balance settled. Contract
   completes, the linked deposit completes, the property is
   sold, and the owner / agent payouts are cut.
========================================================= */

type PurchaseFullPayHandler struct {
	DB        *gorm.DB
	Contracts *contractsvc.ContractService
	Ledger    *paymentsvc.LedgerService
	Catalog   *propertysvc.CatalogService
	Notifier  notifsvc.Notifier
}

func (h *PurchaseFullPayHandler) Name() string { return "purchase_full_pay" }

func (h *PurchaseFullPayHandler) Supports(p *paymentmodel.PaymentModel, c *contractmodel.ContractModel) bool {
	return c != nil &&
		c.ContractType == contractmodel.ContractTypePurchase &&
		p.PaymentType == paymentmodel.PaymentTypeFullPay
}

func (h *PurchaseFullPayHandler) Handle(ctx context.Context, p *paymentmodel.PaymentModel, c *contractmodel.ContractModel, now time.Time) error {
	var m contractmodel.ContractModel
	completedNow := false
	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", c.ContractID).Error; err != nil {
			return err
		}
		if m.IsTerminal() {
			log.Printf("[DISPATCH] full pay on terminal contract=%s (%s), skipping", m.ContractID, m.ContractStatus)
			return nil
		}
		m.ContractStatus = contractmodel.ContractStatusCompleted
		if err := tx.Save(&m).Error; err != nil {
			return err
		}
		if m.ContractDepositContractID != nil {
			if err := h.Contracts.CompleteDepositContract(ctx, tx, *m.ContractDepositContractID); err != nil {
				return err
			}
		}
		completedNow = true
		return nil
	})
	if err != nil || !completedNow {
		return err
	}

	if err := h.Catalog.SetStatus(ctx, m.ContractPropertyID, propertymodel.PropertyStatusSold); err != nil {
		log.Printf("[DISPATCH] property sold status failed property=%s: %v", m.ContractPropertyID, err)
	}

	h.createPayouts(ctx, &m, now)

	h.Notifier.Notify(ctx, m.ContractCustomerUserID, notifmodel.NotificationTypeContractCompleted,
		"Purchase complete", "Full payment received — the purchase contract is complete.", "contract", m.ContractID)
	return nil
}

// createPayouts cuts the owner proceeds (property value − commission −
// outstanding service fee) and the agent commission.
func (h *PurchaseFullPayHandler) createPayouts(ctx context.Context, m *contractmodel.ContractModel, now time.Time) {
	prop, err := h.Catalog.GetByID(ctx, m.ContractPropertyID)
	if err != nil {
		log.Printf("[DISPATCH] payout property lookup failed contract=%s: %v", m.ContractID, err)
		return
	}
	feeOutstanding, err := h.Catalog.ServiceFeeOutstanding(ctx, m.ContractPropertyID)
	if err != nil {
		log.Printf("[DISPATCH] service fee lookup failed contract=%s: %v", m.ContractID, err)
		return
	}

	ownerAmount := m.ContractPropertyValue.
		Sub(m.ContractCommissionAmount).
		Sub(feeOutstanding)
	if ownerAmount.IsPositive() {
		if _, err := h.Ledger.CreatePayout(ctx, paymentsvc.CreatePayoutInput{
			ContractID:        &m.ContractID,
			PropertyID:        m.ContractPropertyID,
			BeneficiaryUserID: prop.PropertyOwnerUserID,
			Type:              paymentmodel.PaymentTypeFullPay,
			Amount:            ownerAmount,
			Description:       "Sale proceeds payout",
			Now:               now,
		}); err != nil {
			log.Printf("[DISPATCH] owner payout failed contract=%s: %v", m.ContractID, err)
		}
	}

	if m.ContractAgentUserID != nil && m.ContractCommissionAmount.IsPositive() {
		if _, err := h.Ledger.CreatePayout(ctx, paymentsvc.CreatePayoutInput{
			ContractID:        &m.ContractID,
			PropertyID:        m.ContractPropertyID,
			BeneficiaryUserID: *m.ContractAgentUserID,
			Type:              paymentmodel.PaymentTypeBonus,
			Amount:            m.ContractCommissionAmount,
			Description:       "Agent commission",
			Now:               now,
		}); err != nil {
			log.Printf("[DISPATCH] agent commission payout failed contract=%s: %v", m.ContractID, err)
		}
	}
}
