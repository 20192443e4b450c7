package dispatch

import (
	"context"
	"time"

	notifmodel "propertiku_backend/internals/features/notifications/model"
	notifsvc "propertiku_backend/internals/features/notifications/service"
	paymentmodel "propertiku_backend/internals/features/payments/model"
	propertysvc "propertiku_backend/internals/features/properties/service"

	contractmodel "propertiku_backend/internals/features/contracts/model"
)

/* =========================================================
   SERVICE_FEE — property-level, no contract. Adds to the
   collected total; once the fee is covered the listing
   goes live.
========================================================= */

type ServiceFeeHandler struct {
	Catalog  *propertysvc.CatalogService
	Notifier notifsvc.Notifier
}

func (h *ServiceFeeHandler) Name() string { return "service_fee" }

func (h *ServiceFeeHandler) Supports(p *paymentmodel.PaymentModel, c *contractmodel.ContractModel) bool {
	return p.PaymentType == paymentmodel.PaymentTypeServiceFee
}

func (h *ServiceFeeHandler) Handle(ctx context.Context, p *paymentmodel.PaymentModel, c *contractmodel.ContractModel, now time.Time) error {
	wentLive, err := h.Catalog.ApplyServiceFee(ctx, p.PaymentPropertyID, p.PaymentAmount)
	if err != nil {
		return err
	}
	if wentLive {
		prop, err := h.Catalog.GetByID(ctx, p.PaymentPropertyID)
		if err != nil {
			return err
		}
		h.Notifier.Notify(ctx, prop.PropertyOwnerUserID, notifmodel.NotificationTypeListingActivated,
			"Listing is live", "Your service fee is settled and the listing is now public.", "property", prop.PropertyID)
	}
	return nil
}
