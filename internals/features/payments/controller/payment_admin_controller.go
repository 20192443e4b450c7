package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"propertiku_backend/internals/features/payments/dto"
	"propertiku_backend/internals/features/payments/model"
	helper "propertiku_backend/internals/helpers"
)

/* =========================================================
   ADMIN READ — payments & gateway event audit log
========================================================= */

type PaymentAdminController struct {
	DB *gorm.DB
}

func NewPaymentAdminController(db *gorm.DB) *PaymentAdminController {
	return &PaymentAdminController{DB: db}
}

// GetPayments returns the ledger, newest first. Filters: contract_id,
// property_id, status, type.
func (ctl *PaymentAdminController) GetPayments(c *fiber.Ctx) error {
	limit, offset := pagination(c)

	q := ctl.DB.Model(&model.PaymentModel{})

	if raw := c.Query("contract_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "contract_id tidak valid")
		}
		q = q.Where("payment_contract_id = ?", id)
	}
	if raw := c.Query("property_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "property_id tidak valid")
		}
		q = q.Where("payment_property_id = ?", id)
	}
	if s := c.Query("status"); s != "" {
		q = q.Where("payment_status = ?", s)
	}
	if t := c.Query("type"); t != "" {
		q = q.Where("payment_type = ?", t)
	}

	var rows []model.PaymentModel
	if err := q.Order("payment_created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil data pembayaran")
	}

	out := make([]*dto.PaymentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromPaymentModel(&rows[i]))
	}
	return helper.Success(c, "Data pembayaran berhasil diambil", out)
}

// GetPaymentByID returns a single ledger row.
func (ctl *PaymentAdminController) GetPaymentByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "ID pembayaran tidak valid")
	}

	var m model.PaymentModel
	if err := ctl.DB.First(&m, "payment_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return helper.Error(c, fiber.StatusNotFound, "Pembayaran tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil data pembayaran")
	}
	return helper.Success(c, "Data pembayaran berhasil diambil", dto.FromPaymentModel(&m))
}

// GetGatewayEvents returns the raw webhook audit trail, newest first.
// Filters: status, external_id, payment_id.
func (ctl *PaymentAdminController) GetGatewayEvents(c *fiber.Ctx) error {
	limit, offset := pagination(c)

	q := ctl.DB.Model(&model.PaymentGatewayEventModel{})

	if s := c.Query("status"); s != "" {
		q = q.Where("gateway_event_status = ?", s)
	}
	if ext := c.Query("external_id"); ext != "" {
		q = q.Where("gateway_event_external_id = ?", ext)
	}
	if raw := c.Query("payment_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "payment_id tidak valid")
		}
		q = q.Where("gateway_event_payment_id = ?", id)
	}

	var rows []model.PaymentGatewayEventModel
	if err := q.Order("gateway_event_received_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil event gateway")
	}

	out := make([]*dto.GatewayEventResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromGatewayEventModel(&rows[i]))
	}
	return helper.Success(c, "Event gateway berhasil diambil", out)
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return
}
