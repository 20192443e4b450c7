package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"propertiku_backend/internals/features/payments/model"
)

/* =========================================================
   RESPONSE DTOs — JSON tags mirror the DB column names.
========================================================= */

type PaymentResponse struct {
	PaymentID                uuid.UUID           `json:"payment_id"`
	PaymentContractID        *uuid.UUID          `json:"payment_contract_id,omitempty"`
	PaymentPropertyID        uuid.UUID           `json:"payment_property_id"`
	PaymentPayerUserID       uuid.UUID           `json:"payment_payer_user_id"`
	PaymentType              model.PaymentType   `json:"payment_type"`
	PaymentStatus            model.PaymentStatus `json:"payment_status"`
	PaymentAmount            decimal.Decimal     `json:"payment_amount"`
	PaymentCurrency          string              `json:"payment_currency"`
	PaymentDueDate           *time.Time          `json:"payment_due_date,omitempty"`
	PaymentPaidTime          *time.Time          `json:"payment_paid_time,omitempty"`
	PaymentInstallmentNumber *int                `json:"payment_installment_number,omitempty"`
	PaymentExternalGatewayID *string             `json:"payment_external_gateway_id,omitempty"`
	PaymentCheckoutURL       *string             `json:"payment_checkout_url,omitempty"`
	PaymentDescription       *string             `json:"payment_description,omitempty"`
	PaymentCreatedAt         time.Time           `json:"payment_created_at"`
}

func FromPaymentModel(m *model.PaymentModel) *PaymentResponse {
	return &PaymentResponse{
		PaymentID:                m.PaymentID,
		PaymentContractID:        m.PaymentContractID,
		PaymentPropertyID:        m.PaymentPropertyID,
		PaymentPayerUserID:       m.PaymentPayerUserID,
		PaymentType:              m.PaymentType,
		PaymentStatus:            m.PaymentStatus,
		PaymentAmount:            m.PaymentAmount,
		PaymentCurrency:          m.PaymentCurrency,
		PaymentDueDate:           m.PaymentDueDate,
		PaymentPaidTime:          m.PaymentPaidTime,
		PaymentInstallmentNumber: m.PaymentInstallmentNumber,
		PaymentExternalGatewayID: m.PaymentExternalGatewayID,
		PaymentCheckoutURL:       m.PaymentCheckoutURL,
		PaymentDescription:       m.PaymentDescription,
		PaymentCreatedAt:         m.CreatedAt,
	}
}

type GatewayEventResponse struct {
	GatewayEventID          uuid.UUID                `json:"gateway_event_id"`
	GatewayEventPaymentID   *uuid.UUID               `json:"gateway_event_payment_id,omitempty"`
	GatewayEventProvider    string                   `json:"gateway_event_provider"`
	GatewayEventType        *string                  `json:"gateway_event_type,omitempty"`
	GatewayEventExternalID  *string                  `json:"gateway_event_external_id,omitempty"`
	GatewayEventStatus      model.GatewayEventStatus `json:"gateway_event_status"`
	GatewayEventError       *string                  `json:"gateway_event_error,omitempty"`
	GatewayEventReceivedAt  time.Time                `json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time               `json:"gateway_event_processed_at,omitempty"`
}

func FromGatewayEventModel(m *model.PaymentGatewayEventModel) *GatewayEventResponse {
	return &GatewayEventResponse{
		GatewayEventID:          m.GatewayEventID,
		GatewayEventPaymentID:   m.GatewayEventPaymentID,
		GatewayEventProvider:    m.GatewayEventProvider,
		GatewayEventType:        m.GatewayEventType,
		GatewayEventExternalID:  m.GatewayEventExternalID,
		GatewayEventStatus:      m.GatewayEventStatus,
		GatewayEventError:       m.GatewayEventError,
		GatewayEventReceivedAt:  m.GatewayEventReceivedAt,
		GatewayEventProcessedAt: m.GatewayEventProcessedAt,
	}
}
