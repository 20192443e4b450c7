package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/iris"
	"github.com/midtrans/midtrans-go/snap"
)

/* =========================================================
   PaymentGateway — the narrow surface the settlement core
   consumes. Sessions collect money in (checkout link),
   payouts push money out. Session creation is idempotent on
   the caller-supplied order id (the ledger payment id).
========================================================= */

type SessionInput struct {
	OrderID     string // ledger payment id, doubles as the idempotency key
	Amount      decimal.Decimal
	Currency    string
	Description string
	PayerUserID uuid.UUID
}

type Session struct {
	ExternalID  string
	CheckoutURL string
}

type SessionStatus struct {
	Status string // provider-native status string
}

type PayoutInput struct {
	ReferenceNo       string // ledger payment id
	Amount            decimal.Decimal
	Notes             string
	BeneficiaryUserID uuid.UUID
}

type Payout struct {
	ExternalID string
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, in SessionInput) (*Session, error)
	FetchSession(ctx context.Context, externalID string) (*SessionStatus, error)
	CreatePayout(ctx context.Context, in PayoutInput) (*Payout, error)
}

/* =========================================================
   Midtrans implementation — snap for checkout sessions,
   iris for payouts. Beneficiary bank data lives outside the
   core; a resolver is injected at bootstrap.
========================================================= */

type Beneficiary struct {
	Name    string
	Bank    string
	Account string
	Email   string
}

type BeneficiaryResolver func(ctx context.Context, userID uuid.UUID) (Beneficiary, error)

type MidtransGateway struct {
	Snap          snap.Client
	Core          coreapi.Client
	Iris          iris.Client
	Beneficiaries BeneficiaryResolver
}

// NewMidtransGateway initializes the snap/core/iris clients. Call once at
// bootstrap. useProduction=true for Production, false for Sandbox.
func NewMidtransGateway(serverKey, irisKey string, useProduction bool, resolver BeneficiaryResolver) *MidtransGateway {
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	g := &MidtransGateway{Beneficiaries: resolver}
	g.Snap.New(serverKey, env)
	g.Core.New(serverKey, env)
	g.Iris.New(irisKey, env)
	if g.Beneficiaries == nil {
		g.Beneficiaries = func(ctx context.Context, userID uuid.UUID) (Beneficiary, error) {
			return Beneficiary{}, errors.New("no beneficiary directory configured")
		}
	}
	return g
}

func (g *MidtransGateway) CreateSession(ctx context.Context, in SessionInput) (*Session, error) {
	if !in.Amount.IsPositive() {
		return nil, &GatewaySessionError{Op: "create_session", Err: errors.New("non-positive amount")}
	}
	if in.OrderID == "" {
		return nil, &GatewaySessionError{Op: "create_session", Err: errors.New("order id is required")}
	}

	gross := in.Amount.Round(0).IntPart() // midtrans takes whole rupiah
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  in.OrderID,
			GrossAmt: gross,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       in.OrderID,
				Price:    gross,
				Qty:      1,
				Name:     truncate(in.Description, 50),
				Category: "property",
			},
		},
	}

	resp, err := g.Snap.CreateTransaction(req)
	if err != nil {
		return nil, &GatewaySessionError{Op: "create_session", Err: err}
	}
	return &Session{ExternalID: in.OrderID, CheckoutURL: resp.RedirectURL}, nil
}

func (g *MidtransGateway) FetchSession(ctx context.Context, externalID string) (*SessionStatus, error) {
	resp, err := g.Core.CheckTransaction(externalID)
	if err != nil {
		return nil, &GatewaySessionError{Op: "fetch_session", Err: err}
	}
	return &SessionStatus{Status: resp.TransactionStatus}, nil
}

func (g *MidtransGateway) CreatePayout(ctx context.Context, in PayoutInput) (*Payout, error) {
	ben, err := g.Beneficiaries(ctx, in.BeneficiaryUserID)
	if err != nil {
		return nil, &GatewaySessionError{Op: "create_payout", Err: err}
	}

	req := iris.CreatePayoutReq{
		Payouts: []iris.CreatePayoutDetailReq{
			{
				BeneficiaryName:    ben.Name,
				BeneficiaryAccount: ben.Account,
				BeneficiaryBank:    ben.Bank,
				BeneficiaryEmail:   ben.Email,
				Amount:             in.Amount.StringFixed(2),
				Notes:              truncate(fmt.Sprintf("%s %s", in.ReferenceNo, in.Notes), 100),
			},
		},
	}

	resp, err := g.Iris.CreatePayout(req)
	if err != nil {
		return nil, &GatewaySessionError{Op: "create_payout", Err: err}
	}
	if len(resp.Payouts) == 0 {
		return nil, &GatewaySessionError{Op: "create_payout", Err: errors.New("empty payout response")}
	}
	return &Payout{ExternalID: resp.Payouts[0].ReferenceNo}, nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
