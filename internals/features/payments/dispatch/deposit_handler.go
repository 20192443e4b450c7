package dispatch

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"propertiku_backend/internals/helpers/dbtx"

	contractmodel "propertiku_backend/internals/features/contracts/model"
	contractsvc "propertiku_backend/internals/features/contracts/service"
	paymentmodel "propertiku_backend/internals/features/payments/model"
	propertymodel "propertiku_backend/internals/features/properties/model"
	propertysvc "propertiku_backend/internals/features/properties/service"
)

/* =========================================================
   Deposit / DEPOSIT — the booking deposit has been paid.
   Re-checks the contract and moves WAITING_OFFICIAL or
   PENDING_PAYMENT → ACTIVE; marks the property reserved.
========================================================= */

type DepositActivationHandler struct {
	DB        *gorm.DB
	Contracts *contractsvc.ContractService
	Catalog   *propertysvc.CatalogService
}

func (h *DepositActivationHandler) Name() string { return "deposit_activation" }

func (h *DepositActivationHandler) Supports(p *paymentmodel.PaymentModel, c *contractmodel.ContractModel) bool {
	return c != nil &&
		c.ContractType == contractmodel.ContractTypeDeposit &&
		p.PaymentType == paymentmodel.PaymentTypeDeposit
}

func (h *DepositActivationHandler) Handle(ctx context.Context, p *paymentmodel.PaymentModel, c *contractmodel.ContractModel, now time.Time) error {
	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m contractmodel.ContractModel
		if err := dbtx.ForUpdate(tx).First(&m, "contract_id = ?", c.ContractID).Error; err != nil {
			return err
		}
		if !m.MayActivate() {
			// Paperwork not done yet (still DRAFT won't happen — the deposit
			// intent only exists after approval) or already active: nothing to do.
			log.Printf("[DISPATCH] deposit paid but contract=%s is %s, leaving as is", m.ContractID, m.ContractStatus)
			return nil
		}
		return h.Contracts.ActivateFromPayment(ctx, tx, &m, now)
	})
	if err != nil {
		return err
	}

	if err := h.Catalog.SetStatus(ctx, c.ContractPropertyID, propertymodel.PropertyStatusReserved); err != nil {
		log.Printf("[DISPATCH] property reserve failed property=%s: %v", c.ContractPropertyID, err)
	}
	return nil
}
