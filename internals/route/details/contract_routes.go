package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertiku_backend/internals/features/contracts/controller"
	"propertiku_backend/internals/features/contracts/service"
	"propertiku_backend/internals/middlewares"
)

func ContractRoutes(router fiber.Router, db *gorm.DB, contracts *service.ContractService) {
	ctl := controller.NewContractController(db, contracts)

	group := router.Group("/contracts")

	// reads
	group.Get("/", ctl.GetContracts)
	group.Get("/:id", ctl.GetByID)

	// writes share a tighter limiter
	write := group.Group("/", middlewares.ContractWriteRateLimiter())
	write.Post("/deposit", ctl.CreateDeposit)
	write.Post("/purchase", ctl.CreatePurchase)
	write.Post("/rental", ctl.CreateRental)
	write.Post("/:id/approve", ctl.Approve)
	write.Post("/:id/paperwork-complete", ctl.MarkPaperworkComplete)
	write.Post("/:id/cancel", ctl.Cancel)
	write.Post("/:id/void", ctl.Void)
	write.Post("/:id/security-deposit-decision", ctl.DecideSecurityDeposit)
}
