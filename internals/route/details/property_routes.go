package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertiku_backend/internals/features/properties/controller"
	"propertiku_backend/internals/features/properties/service"

	paymentsvc "propertiku_backend/internals/features/payments/service"
)

func PropertyRoutes(router fiber.Router, db *gorm.DB, catalog *service.CatalogService, ledger *paymentsvc.LedgerService) {
	ctl := controller.NewPropertyController(db, catalog, ledger)

	group := router.Group("/properties")
	group.Get("/:id", ctl.GetByID)
	group.Post("/:id/service-fee-payments", ctl.CreateServiceFeePayment)
}
