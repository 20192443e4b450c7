package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertiku_backend/internals/features/payments/controller"
	"propertiku_backend/internals/features/payments/dispatch"
	"propertiku_backend/internals/features/payments/service"
)

func PaymentRoutes(router fiber.Router, db *gorm.DB, ledger *service.LedgerService, dispatcher *dispatch.Dispatcher, webhookSecret string) {
	webhook := controller.NewWebhookController(db, ledger, dispatcher, webhookSecret)
	admin := controller.NewPaymentAdminController(db)

	group := router.Group("/payments")

	// gateway callback, signature-verified inside the handler
	group.Post("/webhook", webhook.HandleGatewayWebhook)

	// admin reads
	group.Get("/", admin.GetPayments)
	group.Get("/:id", admin.GetPaymentByID)

	router.Get("/payment-gateway-events", admin.GetGatewayEvents)
}
