package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"propertiku_backend/internals/features/properties/service"
	helper "propertiku_backend/internals/helpers"

	paymentmodel "propertiku_backend/internals/features/payments/model"
	paymentsvc "propertiku_backend/internals/features/payments/service"
)

type PropertyController struct {
	DB      *gorm.DB
	Catalog *service.CatalogService
	Ledger  *paymentsvc.LedgerService
}

func NewPropertyController(db *gorm.DB, catalog *service.CatalogService, ledger *paymentsvc.LedgerService) *PropertyController {
	return &PropertyController{DB: db, Catalog: catalog, Ledger: ledger}
}

func (ctl *PropertyController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "ID properti tidak valid")
	}

	p, err := ctl.Catalog.GetByID(c.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return helper.Error(c, fiber.StatusNotFound, "Properti tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil data properti")
	}
	return helper.Success(c, "Data properti berhasil diambil", p)
}

type createServiceFeePaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CreateServiceFeePayment opens a checkout for (part of) the listing
// service fee. Zero amount means the full outstanding balance.
func (ctl *PropertyController) CreateServiceFeePayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "ID properti tidak valid")
	}

	var req createServiceFeePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Format request tidak valid")
	}

	p, err := ctl.Catalog.GetByID(c.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return helper.Error(c, fiber.StatusNotFound, "Properti tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil data properti")
	}

	outstanding, err := ctl.Catalog.ServiceFeeOutstanding(c.Context(), id)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal menghitung sisa biaya layanan")
	}
	if !outstanding.IsPositive() {
		return helper.Error(c, fiber.StatusConflict, "Biaya layanan properti sudah lunas")
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = outstanding
	}
	if amount.IsNegative() || amount.GreaterThan(outstanding) {
		return helper.Error(c, fiber.StatusBadRequest, "Nominal melebihi sisa biaya layanan")
	}

	pay, err := ctl.Ledger.CreatePaymentIntent(c.Context(), ctl.DB, paymentsvc.CreateIntentInput{
		PropertyID:  p.PropertyID,
		PayerUserID: p.PropertyOwnerUserID,
		Type:        paymentmodel.PaymentTypeServiceFee,
		Amount:      amount,
		DueInDays:   7,
		Description: "Biaya layanan listing properti",
		Now:         time.Now(),
	})
	if err != nil {
		log.Printf("[PROPERTY] service fee intent failed property=%s: %v", id, err)
		return helper.Error(c, fiber.StatusBadGateway, "Gagal membuat sesi pembayaran")
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Sesi pembayaran biaya layanan dibuat", pay)
}
