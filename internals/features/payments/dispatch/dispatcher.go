package dispatch

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	contractmodel "propertiku_backend/internals/features/contracts/model"
	paymentmodel "propertiku_backend/internals/features/payments/model"
)

/* =========================================================
   Side-effect dispatcher — a registry of handlers keyed by
   (contract type, payment type). Fan-out, not first-match:
   every handler whose Supports() says yes runs. Each handler
   is its own error boundary; one failing handler never
   blocks the others and never fails the webhook response.
========================================================= */

type Handler interface {
	Name() string
	// Supports receives the settled payment and its contract (nil for
	// property-level payments such as service fees).
	Supports(p *paymentmodel.PaymentModel, c *contractmodel.ContractModel) bool
	Handle(ctx context.Context, p *paymentmodel.PaymentModel, c *contractmodel.ContractModel, now time.Time) error
}

type Dispatcher struct {
	DB       *gorm.DB
	handlers []Handler
}

func NewDispatcher(db *gorm.DB, handlers ...Handler) *Dispatcher {
	return &Dispatcher{DB: db, handlers: handlers}
}

func (d *Dispatcher) Register(h Handler) {
	d.handlers = append(d.handlers, h)
}

// DispatchPaymentSucceeded runs after the inbound status write has committed.
// Handlers open their own short transactions; anything they do against the
// gateway happens on their side of the commit (at-least-once).
func (d *Dispatcher) DispatchPaymentSucceeded(ctx context.Context, p *paymentmodel.PaymentModel, now time.Time) {
	var contract *contractmodel.ContractModel
	if p.PaymentContractID != nil {
		var c contractmodel.ContractModel
		err := d.DB.WithContext(ctx).First(&c, "contract_id = ?", *p.PaymentContractID).Error
		switch {
		case err == nil:
			contract = &c
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Printf("[DISPATCH] payment=%s references missing contract=%s", p.PaymentID, *p.PaymentContractID)
		default:
			log.Printf("[DISPATCH] contract load failed payment=%s: %v", p.PaymentID, err)
			return
		}
	}

	for _, h := range d.handlers {
		if !h.Supports(p, contract) {
			continue
		}
		d.runIsolated(ctx, h, p, contract, now)
	}
}

func (d *Dispatcher) runIsolated(ctx context.Context, h Handler, p *paymentmodel.PaymentModel, c *contractmodel.ContractModel, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[DISPATCH] handler=%s panicked payment=%s: %v", h.Name(), p.PaymentID, r)
		}
	}()
	if err := h.Handle(ctx, p, c, now); err != nil {
		log.Printf("[DISPATCH] handler=%s failed payment=%s: %v", h.Name(), p.PaymentID, err)
	}
}
