// file: internals/features/payments/controller/webhook_controller.go
package controller

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"propertiku_backend/internals/features/payments/dispatch"
	model "propertiku_backend/internals/features/payments/model"
	svc "propertiku_backend/internals/features/payments/service"
)

/* =======================================================================
   Webhook — single entry point for gateway events. The caller is always
   acknowledged once the status write committed; only a bad signature or an
   unparseable body yields an error response. Everything downstream of the
   status write is log-and-continue.
======================================================================= */

const SignatureHeader = "X-Gateway-Signature"

// gatewayEnvelope is the provider-agnostic event we receive. The signature
// is verified over the raw body BEFORE any of these fields are trusted.
type gatewayEnvelope struct {
	EventType        string          `json:"event_type"`
	ExternalObjectID string          `json:"external_object_id"`
	Provider         string          `json:"provider"`
	Data             json.RawMessage `json:"data"`
}

type WebhookController struct {
	DB            *gorm.DB
	Ledger        *svc.LedgerService
	Dispatcher    *dispatch.Dispatcher
	WebhookSecret string
}

func NewWebhookController(db *gorm.DB, ledger *svc.LedgerService, d *dispatch.Dispatcher, secret string) *WebhookController {
	return &WebhookController{DB: db, Ledger: ledger, Dispatcher: d, WebhookSecret: secret}
}

// POST /payments/gateway/webhook
func (h *WebhookController) HandleGatewayWebhook(c *fiber.Ctx) error {
	raw := c.Body()

	// 1) Signature first — nothing in the body is parsed for business logic
	// until the HMAC checks out.
	if !h.verifySignature(raw, c.Get(SignatureHeader)) {
		log.Printf("[WEBHOOK] SECURITY invalid signature from %s", c.IP())
		return fiber.NewError(fiber.StatusUnauthorized, "invalid signature")
	}

	var env gatewayEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload: "+err.Error())
	}

	now := time.Now().UTC()

	// 2) Resolve event type. Unknown types are acknowledged and ignored.
	newStatus, known := mapEventType(env.EventType)
	if !known {
		log.Printf("[WEBHOOK] unknown event type %q, ignoring", env.EventType)
		h.logGatewayEvent(c, nil, &env, raw, model.GatewayEventStatusIgnored, "unknown event type")
		return c.JSON(fiber.Map{"status": "ignored", "reason": "unknown event type"})
	}

	// 3) Resolve the payment. Unknown object → ack success so the gateway
	// stops redelivering something we will never resolve.
	var p model.PaymentModel
	if err := h.DB.WithContext(c.Context()).
		First(&p, "payment_external_gateway_id = ?", env.ExternalObjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[WEBHOOK] no payment for external id %q, acking anyway", env.ExternalObjectID)
			h.logGatewayEvent(c, nil, &env, raw, model.GatewayEventStatusIgnored, "payment not found")
			return c.JSON(fiber.Map{"status": "ignored", "reason": "payment not found"})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	ev := h.logGatewayEvent(c, &p, &env, raw, model.GatewayEventStatusReceived, "")

	// 4+5) Idempotency guard and status write happen under the same row lock
	// inside UpdateStatus — two concurrent redeliveries cannot both transition.
	fresh, transitioned, err := h.Ledger.UpdateStatus(c.Context(), p.PaymentID, newStatus, now)
	if err != nil {
		h.updateEventStatus(ev, model.GatewayEventStatusFailed, err.Error())
		return fiber.NewError(fiber.StatusInternalServerError, "update payment failed: "+err.Error())
	}

	if !transitioned {
		h.updateEventStatus(ev, model.GatewayEventStatusIgnored, "already terminal")
		return c.JSON(fiber.Map{"status": "ok", "payment_id": fresh.PaymentID, "payment_status": fresh.PaymentStatus, "duplicate": true})
	}

	h.updateEventStatus(ev, model.GatewayEventStatusProcessed, "")

	// 6) Side effects only after the commit, and only for settled inbound
	// payments. Handler failures are isolated and never reach this response.
	if env.EventType == model.GatewayEventPaymentSucceeded {
		h.Dispatcher.DispatchPaymentSucceeded(c.Context(), fresh, now)
	}

	return c.JSON(fiber.Map{
		"status":         "ok",
		"payment_id":     fresh.PaymentID,
		"payment_status": fresh.PaymentStatus,
	})
}

/* =======================================================================
   Helpers
======================================================================= */

func (h *WebhookController) verifySignature(raw []byte, header string) bool {
	if h.WebhookSecret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.WebhookSecret))
	mac.Write(raw)
	want := mac.Sum(nil)

	got, err := hex.DecodeString(strings.TrimSpace(strings.ToLower(header)))
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}

func mapEventType(t string) (model.PaymentStatus, bool) {
	switch t {
	case model.GatewayEventPaymentSucceeded:
		return model.PaymentStatusSuccess, true
	case model.GatewayEventPaymentCanceled:
		return model.PaymentStatusFailed, true
	case model.GatewayEventPayoutPaid:
		return model.PaymentStatusSystemSuccess, true
	case model.GatewayEventPayoutFailed:
		return model.PaymentStatusSystemFailed, true
	default:
		return "", false
	}
}

// logGatewayEvent inserts the audit row for this delivery and returns it so
// the caller can finalize that exact row. Returns nil when the insert fails;
// the webhook itself is never failed over audit bookkeeping.
func (h *WebhookController) logGatewayEvent(c *fiber.Ctx, p *model.PaymentModel, env *gatewayEnvelope, raw []byte, status model.GatewayEventStatus, errMsg string) *model.PaymentGatewayEventModel {
	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() {
		headers[k] = strings.Join(v, ",")
	}
	headersJSON, _ := json.Marshal(headers)

	provider := env.Provider
	if provider == "" {
		provider = "midtrans"
	}
	sig := c.Get(SignatureHeader)

	ev := model.PaymentGatewayEventModel{
		GatewayEventProvider:   provider,
		GatewayEventType:       strPtr(env.EventType),
		GatewayEventExternalID: strPtr(env.ExternalObjectID),
		GatewayEventHeaders:    datatypes.JSON(headersJSON),
		GatewayEventPayload:    datatypes.JSON(raw),
		GatewayEventSignature:  strPtr(sig),
		GatewayEventStatus:     status,
		GatewayEventError:      strPtr(errMsg),
	}
	if p != nil {
		ev.GatewayEventPaymentID = &p.PaymentID
	}

	if err := h.DB.WithContext(c.Context()).Create(&ev).Error; err != nil {
		log.Printf("[WEBHOOK] event log insert failed external_id=%s: %v", env.ExternalObjectID, err)
		return nil
	}
	return &ev
}

// updateEventStatus finalizes the audit row created for this delivery. The
// row is addressed by primary key, never by external id, so interleaved
// redeliveries of the same object each close out their own row.
func (h *WebhookController) updateEventStatus(ev *model.PaymentGatewayEventModel, status model.GatewayEventStatus, errMsg string) {
	if ev == nil {
		return
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"gateway_event_status":       status,
		"gateway_event_processed_at": &now,
		"gateway_event_error":        strPtr(errMsg),
	}
	if err := h.DB.Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", ev.GatewayEventID).
		Updates(updates).Error; err != nil {
		log.Printf("[WEBHOOK] event status update failed event_id=%s: %v", ev.GatewayEventID, err)
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
