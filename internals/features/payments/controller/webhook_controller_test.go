package controller

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"propertiku_backend/internals/testutil"

	contractmodel "propertiku_backend/internals/features/contracts/model"
	contractsvc "propertiku_backend/internals/features/contracts/service"
	"propertiku_backend/internals/features/payments/dispatch"
	model "propertiku_backend/internals/features/payments/model"
	svc "propertiku_backend/internals/features/payments/service"
	propertymodel "propertiku_backend/internals/features/properties/model"
	propertysvc "propertiku_backend/internals/features/properties/service"
)

const testSecret = "webhook-test-secret"

var testNow = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type webhookWorld struct {
	app      *fiber.App
	db       *gorm.DB
	gateway  *testutil.FakeGateway
	notifier *testutil.FakeNotifier
	ledger   *svc.LedgerService
	prop     *propertymodel.PropertyModel
}

func newWebhookWorld(t *testing.T) *webhookWorld {
	t.Helper()
	db := testutil.OpenDB(t)
	gw := &testutil.FakeGateway{}
	nf := &testutil.FakeNotifier{}
	ledger := svc.NewLedgerService(db, gw)
	catalog := propertysvc.NewCatalogService(db)
	contracts := contractsvc.NewContractService(db, ledger, nf)

	prop := &propertymodel.PropertyModel{
		PropertyOwnerUserID: uuid.New(),
		PropertyStatus:      propertymodel.PropertyStatusAvailable,
		PropertyTitle:       "Ruko Uji Webhook",
	}
	require.NoError(t, db.Create(prop).Error)

	d := dispatch.NewDispatcher(db,
		&dispatch.DepositActivationHandler{DB: db, Contracts: contracts, Catalog: catalog},
		&dispatch.PurchaseAdvanceHandler{Notifier: nf},
		&dispatch.PurchaseFullPayHandler{DB: db, Contracts: contracts, Ledger: ledger, Catalog: catalog, Notifier: nf},
		&dispatch.RentalSecurityDepositHandler{DB: db},
		&dispatch.RentalMonthlyHandler{DB: db, Contracts: contracts, Ledger: ledger, Catalog: catalog, Notifier: nf},
		&dispatch.ServiceFeeHandler{Catalog: catalog, Notifier: nf},
	)

	ctl := NewWebhookController(db, ledger, d, testSecret)
	app := fiber.New()
	app.Post("/api/payments/webhook", ctl.HandleGatewayWebhook)

	return &webhookWorld{app: app, db: db, gateway: gw, notifier: nf, ledger: ledger, prop: prop}
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (w *webhookWorld) post(t *testing.T, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	resp, err := w.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (w *webhookWorld) postEvent(t *testing.T, eventType, externalID string) *http.Response {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"event_type":%q,"external_object_id":%q,"provider":"midtrans","data":{}}`,
		eventType, externalID))
	return w.post(t, body, sign(testSecret, body))
}

func (w *webhookWorld) pendingPayment(t *testing.T, contractID *uuid.UUID, typ model.PaymentType, amount int64, installment *int) *model.PaymentModel {
	t.Helper()
	p, err := w.ledger.CreatePaymentIntent(context.Background(), w.db, svc.CreateIntentInput{
		ContractID:        contractID,
		PropertyID:        w.prop.PropertyID,
		PayerUserID:       uuid.New(),
		Type:              typ,
		Amount:            decimal.NewFromInt(amount),
		DueInDays:         7,
		InstallmentNumber: installment,
		Now:               testNow,
	})
	require.NoError(t, err)
	return p
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

/* ===================== signature ===================== */

func TestWebhookRejectsBadSignature(t *testing.T) {
	w := newWebhookWorld(t)
	body := []byte(`{"event_type":"payment.succeeded","external_object_id":"gw-x"}`)

	resp := w.post(t, body, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "missing signature")

	resp = w.post(t, body, sign("wrong-secret", body))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "wrong secret")

	resp = w.post(t, body, "not-hex!!")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "garbage header")

	var n int64
	require.NoError(t, w.db.Model(&model.PaymentGatewayEventModel{}).Count(&n).Error)
	assert.Zero(t, n, "unverified requests are never logged as events")
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	w := newWebhookWorld(t)
	body := []byte(`{"event_type":"payment.succeeded","external_object_id":"gw-x"}`)
	sig := sign(testSecret, body)

	tampered := bytes.Replace(body, []byte("gw-x"), []byte("gw-y"), 1)
	resp := w.post(t, tampered, sig)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

/* ===================== unknown input ===================== */

func TestWebhookAcksUnknownEventType(t *testing.T) {
	w := newWebhookWorld(t)

	resp := w.postEvent(t, "payment.refunded", "gw-whatever")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "ignored", body["status"])

	var ev model.PaymentGatewayEventModel
	require.NoError(t, w.db.First(&ev).Error)
	assert.Equal(t, model.GatewayEventStatusIgnored, ev.GatewayEventStatus)
}

func TestWebhookAcksUnknownPayment(t *testing.T) {
	w := newWebhookWorld(t)

	resp := w.postEvent(t, model.GatewayEventPaymentSucceeded, "gw-no-such-payment")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "gateway must stop redelivering")
	body := decodeBody(t, resp)
	assert.Equal(t, "ignored", body["status"])
}

/* ===================== settlement ===================== */

func TestWebhookSettlesPayment(t *testing.T) {
	w := newWebhookWorld(t)
	p := w.pendingPayment(t, nil, model.PaymentTypeServiceFee, 1_000_000, nil)

	resp := w.postEvent(t, model.GatewayEventPaymentSucceeded, *p.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fresh model.PaymentModel
	require.NoError(t, w.db.First(&fresh, "payment_id = ?", p.PaymentID).Error)
	assert.Equal(t, model.PaymentStatusSuccess, fresh.PaymentStatus)
	require.NotNil(t, fresh.PaymentPaidTime)

	var ev model.PaymentGatewayEventModel
	require.NoError(t, w.db.Order("gateway_event_received_at DESC").First(&ev).Error)
	assert.Equal(t, model.GatewayEventStatusProcessed, ev.GatewayEventStatus)
	require.NotNil(t, ev.GatewayEventPaymentID)
	assert.Equal(t, p.PaymentID, *ev.GatewayEventPaymentID)
}

func TestWebhookPaymentCanceled(t *testing.T) {
	w := newWebhookWorld(t)
	p := w.pendingPayment(t, nil, model.PaymentTypeServiceFee, 1_000_000, nil)

	resp := w.postEvent(t, model.GatewayEventPaymentCanceled, *p.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fresh model.PaymentModel
	require.NoError(t, w.db.First(&fresh, "payment_id = ?", p.PaymentID).Error)
	assert.Equal(t, model.PaymentStatusFailed, fresh.PaymentStatus)
	assert.Nil(t, fresh.PaymentPaidTime)
}

func TestWebhookPayoutPaid(t *testing.T) {
	w := newWebhookWorld(t)

	payout, err := w.ledger.CreatePayout(context.Background(), svc.CreatePayoutInput{
		PropertyID:        w.prop.PropertyID,
		BeneficiaryUserID: uuid.New(),
		Type:              model.PaymentTypeRefund,
		Amount:            decimal.NewFromInt(5_000_000),
		Description:       "Deposit refund",
		Now:               testNow,
	})
	require.NoError(t, err)
	require.NotNil(t, payout.PaymentExternalGatewayID)

	resp := w.postEvent(t, model.GatewayEventPayoutPaid, *payout.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fresh model.PaymentModel
	require.NoError(t, w.db.First(&fresh, "payment_id = ?", payout.PaymentID).Error)
	assert.Equal(t, model.PaymentStatusSystemSuccess, fresh.PaymentStatus)
}

/* ===================== idempotency ===================== */

func TestWebhookDoubleDeliveryIsIdempotent(t *testing.T) {
	w := newWebhookWorld(t)

	m := &contractmodel.ContractModel{
		ContractType:           contractmodel.ContractTypeDeposit,
		ContractPropertyID:     w.prop.PropertyID,
		ContractCustomerUserID: uuid.New(),
		ContractStatus:         contractmodel.ContractStatusPendingPayment,
		ContractDepositAmount:  decimalPtr(5_000_000),
		ContractAgreedPrice:    decimalPtr(850_000_000),
	}
	require.NoError(t, w.db.Create(m).Error)
	p := w.pendingPayment(t, &m.ContractID, model.PaymentTypeDeposit, 5_000_000, nil)

	resp := w.postEvent(t, model.GatewayEventPaymentSucceeded, *p.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var contract contractmodel.ContractModel
	require.NoError(t, w.db.First(&contract, "contract_id = ?", m.ContractID).Error)
	assert.Equal(t, contractmodel.ContractStatusActive, contract.ContractStatus, "deposit settlement activates the contract")

	notified := len(w.notifier.Notices)

	// exact redelivery
	resp = w.postEvent(t, model.GatewayEventPaymentSucceeded, *p.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["duplicate"])

	assert.Len(t, w.notifier.Notices, notified, "side effects fire exactly once")

	// a late cancel after success is ignored too
	resp = w.postEvent(t, model.GatewayEventPaymentCanceled, *p.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var fresh model.PaymentModel
	require.NoError(t, w.db.First(&fresh, "payment_id = ?", p.PaymentID).Error)
	assert.Equal(t, model.PaymentStatusSuccess, fresh.PaymentStatus, "the first terminal status wins")
}

func TestWebhookRedeliveryFinalizesOwnAuditRow(t *testing.T) {
	w := newWebhookWorld(t)
	p := w.pendingPayment(t, nil, model.PaymentTypeServiceFee, 1_000_000, nil)

	resp := w.postEvent(t, model.GatewayEventPaymentSucceeded, *p.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var first model.PaymentGatewayEventModel
	require.NoError(t, w.db.First(&first, "gateway_event_external_id = ?", *p.PaymentExternalGatewayID).Error)
	require.Equal(t, model.GatewayEventStatusProcessed, first.GatewayEventStatus)

	// Push the first row's receipt time past the redelivery's, so any lookup
	// by "latest event for this external id" would land on the wrong row.
	require.NoError(t, w.db.Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", first.GatewayEventID).
		Update("gateway_event_received_at", testNow.Add(time.Hour)).Error)

	resp = w.postEvent(t, model.GatewayEventPaymentSucceeded, *p.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, w.db.First(&first, "gateway_event_id = ?", first.GatewayEventID).Error)
	assert.Equal(t, model.GatewayEventStatusProcessed, first.GatewayEventStatus, "the original delivery keeps its status")

	var second model.PaymentGatewayEventModel
	require.NoError(t, w.db.
		Where("gateway_event_external_id = ? AND gateway_event_id <> ?", *p.PaymentExternalGatewayID, first.GatewayEventID).
		First(&second).Error)
	assert.Equal(t, model.GatewayEventStatusIgnored, second.GatewayEventStatus)
	require.NotNil(t, second.GatewayEventError)
	assert.Equal(t, "already terminal", *second.GatewayEventError)
}

/* ===================== end-to-end scenarios ===================== */

func TestWebhookPurchaseFinalBalanceScenario(t *testing.T) {
	w := newWebhookWorld(t)
	agent := uuid.New()

	m := &contractmodel.ContractModel{
		ContractType:             contractmodel.ContractTypePurchase,
		ContractPropertyID:       w.prop.PropertyID,
		ContractCustomerUserID:   uuid.New(),
		ContractAgentUserID:      &agent,
		ContractStatus:           contractmodel.ContractStatusPendingPayment,
		ContractPropertyValue:    decimalPtr(900_000_000),
		ContractCommissionAmount: decimal.NewFromInt(20_000_000),
	}
	require.NoError(t, w.db.Create(m).Error)
	p := w.pendingPayment(t, &m.ContractID, model.PaymentTypeFullPay, 800_000_000, nil)

	resp := w.postEvent(t, model.GatewayEventPaymentSucceeded, *p.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var contract contractmodel.ContractModel
	require.NoError(t, w.db.First(&contract, "contract_id = ?", m.ContractID).Error)
	assert.Equal(t, contractmodel.ContractStatusCompleted, contract.ContractStatus)

	var prop propertymodel.PropertyModel
	require.NoError(t, w.db.First(&prop, "property_id = ?", w.prop.PropertyID).Error)
	assert.Equal(t, propertymodel.PropertyStatusSold, prop.PropertyStatus)

	require.Equal(t, 2, w.gateway.PayoutCount(), "owner proceeds + agent commission")
}

func TestWebhookRentalInstallmentScenario(t *testing.T) {
	w := newWebhookWorld(t)

	start := testNow.AddDate(0, -2, 0)
	m := &contractmodel.ContractModel{
		ContractType:              contractmodel.ContractTypeRental,
		ContractPropertyID:        w.prop.PropertyID,
		ContractCustomerUserID:    uuid.New(),
		ContractStatus:            contractmodel.ContractStatusActive,
		ContractStartDate:         &start,
		ContractMonthCount:        intPtr(12),
		ContractMonthlyRentAmount: decimalPtr(7_000_000),
		ContractCommissionAmount:  decimal.NewFromInt(500_000),
		ContractUnpaidMonthsCount: 1,
	}
	require.NoError(t, w.db.Create(m).Error)
	p := w.pendingPayment(t, &m.ContractID, model.PaymentTypeMonthly, 7_000_000, intPtr(2))

	resp := w.postEvent(t, model.GatewayEventPaymentSucceeded, *p.PaymentExternalGatewayID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var contract contractmodel.ContractModel
	require.NoError(t, w.db.First(&contract, "contract_id = ?", m.ContractID).Error)
	assert.Equal(t, 0, contract.ContractUnpaidMonthsCount)

	require.Equal(t, 1, w.gateway.PayoutCount())
	assert.True(t, w.gateway.Payouts[0].Amount.Equal(decimal.NewFromInt(6_500_000)))
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func intPtr(v int) *int { return &v }
