package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	contractmodel "propertiku_backend/internals/features/contracts/model"
	notifmodel "propertiku_backend/internals/features/notifications/model"
	paymentmodel "propertiku_backend/internals/features/payments/model"
	paymentsvc "propertiku_backend/internals/features/payments/service"
	propertymodel "propertiku_backend/internals/features/properties/model"
)

// OpenDB spins up an isolated in-memory database with the full schema.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&propertymodel.PropertyModel{},
		&contractmodel.ContractModel{},
		&paymentmodel.PaymentModel{},
		&paymentmodel.PaymentGatewayEventModel{},
		&notifmodel.NotificationModel{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

/* =========================================================
   FakeGateway — records every call, optionally fails.
========================================================= */

type FakeGateway struct {
	mu           sync.Mutex
	FailSessions bool
	FailPayouts  bool
	Sessions     []paymentsvc.SessionInput
	Payouts      []paymentsvc.PayoutInput
}

func (g *FakeGateway) CreateSession(ctx context.Context, in paymentsvc.SessionInput) (*paymentsvc.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailSessions {
		return nil, &paymentsvc.GatewaySessionError{Op: "create_session", Err: fmt.Errorf("gateway down")}
	}
	g.Sessions = append(g.Sessions, in)
	return &paymentsvc.Session{
		ExternalID:  "gw-" + in.OrderID,
		CheckoutURL: "https://pay.example.test/" + in.OrderID,
	}, nil
}

func (g *FakeGateway) FetchSession(ctx context.Context, externalID string) (*paymentsvc.SessionStatus, error) {
	return &paymentsvc.SessionStatus{Status: "settlement"}, nil
}

func (g *FakeGateway) CreatePayout(ctx context.Context, in paymentsvc.PayoutInput) (*paymentsvc.Payout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailPayouts {
		return nil, &paymentsvc.GatewaySessionError{Op: "create_payout", Err: fmt.Errorf("iris down")}
	}
	g.Payouts = append(g.Payouts, in)
	return &paymentsvc.Payout{ExternalID: "po-" + in.ReferenceNo}, nil
}

func (g *FakeGateway) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Sessions)
}

func (g *FakeGateway) PayoutCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Payouts)
}

/* =========================================================
   FakeNotifier — collects notifications in memory.
========================================================= */

type Notice struct {
	UserID   uuid.UUID
	Type     string
	Title    string
	Body     string
	EntityID uuid.UUID
}

type FakeNotifier struct {
	mu      sync.Mutex
	Notices []Notice
}

func (n *FakeNotifier) Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, entityType string, entityID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notices = append(n.Notices, Notice{UserID: userID, Type: typ, Title: title, Body: body, EntityID: entityID})
}

func (n *FakeNotifier) CountType(typ string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, x := range n.Notices {
		if x.Type == typ {
			c++
		}
	}
	return c
}
