package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertiku_backend/internals/configs"
	routeDetails "propertiku_backend/internals/route/details"

	contractsvc "propertiku_backend/internals/features/contracts/service"
	"propertiku_backend/internals/features/payments/dispatch"
	paymentsvc "propertiku_backend/internals/features/payments/service"
	propertysvc "propertiku_backend/internals/features/properties/service"

	notifsvc "propertiku_backend/internals/features/notifications/service"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, gateway paymentsvc.PaymentGateway) {
	startTime = time.Now()

	// ===================== SERVICE WIRING =====================
	notifier := notifsvc.NewDBNotifier(db)
	catalog := propertysvc.NewCatalogService(db)
	ledger := paymentsvc.NewLedgerService(db, gateway)
	contracts := contractsvc.NewContractService(db, ledger, notifier)

	dispatcher := dispatch.NewDispatcher(db,
		&dispatch.DepositActivationHandler{DB: db, Contracts: contracts, Catalog: catalog},
		&dispatch.PurchaseAdvanceHandler{Notifier: notifier},
		&dispatch.PurchaseFullPayHandler{DB: db, Contracts: contracts, Ledger: ledger, Catalog: catalog, Notifier: notifier},
		&dispatch.RentalSecurityDepositHandler{DB: db},
		&dispatch.RentalMonthlyHandler{DB: db, Contracts: contracts, Ledger: ledger, Catalog: catalog, Notifier: notifier},
		&dispatch.ServiceFeeHandler{Catalog: catalog, Notifier: notifier},
	)

	// ===================== MOUNT ROUTES =====================
	api := app.Group("/api")

	log.Println("[INFO] Mounting Contract routes...")
	routeDetails.ContractRoutes(api, db, contracts)

	log.Println("[INFO] Mounting Property routes...")
	routeDetails.PropertyRoutes(api, db, catalog, ledger)

	log.Println("[INFO] Mounting Payment routes...")
	routeDetails.PaymentRoutes(api, db, ledger, dispatcher, configs.GatewayWebhookSecret)
}
