package controller

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"propertiku_backend/internals/features/contracts/dto"
	"propertiku_backend/internals/features/contracts/model"
	"propertiku_backend/internals/features/contracts/service"
	helper "propertiku_backend/internals/helpers"
)

var validate = validator.New()

type ContractController struct {
	DB       *gorm.DB
	Contract *service.ContractService
}

func NewContractController(db *gorm.DB, contract *service.ContractService) *ContractController {
	return &ContractController{DB: db, Contract: contract}
}

/* =========================================================
   CREATE — one endpoint per contract variant
========================================================= */

func (ctl *ContractController) CreateDeposit(c *fiber.Ctx) error {
	var req dto.CreateDepositRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Format request tidak valid")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Contract.CreateDeposit(c.Context(), req.ToInput(), time.Now())
	if err != nil {
		return mapDomainError(c, err)
	}
	log.Printf("[CONTRACT] deposit draft created id=%s property=%s", m.ContractID, m.ContractPropertyID)
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Kontrak booking berhasil dibuat", m)
}

func (ctl *ContractController) CreatePurchase(c *fiber.Ctx) error {
	var req dto.CreatePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Format request tidak valid")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Contract.CreatePurchase(c.Context(), req.ToInput(), time.Now())
	if err != nil {
		return mapDomainError(c, err)
	}
	log.Printf("[CONTRACT] purchase draft created id=%s property=%s", m.ContractID, m.ContractPropertyID)
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Kontrak jual beli berhasil dibuat", m)
}

func (ctl *ContractController) CreateRental(c *fiber.Ctx) error {
	var req dto.CreateRentalRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Format request tidak valid")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Contract.CreateRental(c.Context(), req.ToInput(), time.Now())
	if err != nil {
		return mapDomainError(c, err)
	}
	log.Printf("[CONTRACT] rental draft created id=%s property=%s", m.ContractID, m.ContractPropertyID)
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Kontrak sewa berhasil dibuat", m)
}

/* =========================================================
   LIFECYCLE
========================================================= */

func (ctl *ContractController) Approve(c *fiber.Ctx) error {
	id, err := parseContractID(c)
	if err != nil {
		return err
	}

	m, err := ctl.Contract.Approve(c.Context(), id, time.Now())
	if err != nil {
		return mapDomainError(c, err)
	}
	return helper.Success(c, "Kontrak disetujui, menunggu dokumen resmi", m)
}

func (ctl *ContractController) MarkPaperworkComplete(c *fiber.Ctx) error {
	id, err := parseContractID(c)
	if err != nil {
		return err
	}

	m, err := ctl.Contract.MarkPaperworkComplete(c.Context(), id, time.Now())
	if err != nil {
		return mapDomainError(c, err)
	}
	return helper.Success(c, "Dokumen kontrak selesai diproses", m)
}

func (ctl *ContractController) Cancel(c *fiber.Ctx) error {
	id, err := parseContractID(c)
	if err != nil {
		return err
	}

	var req dto.CancelContractRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Format request tidak valid")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Contract.Cancel(c.Context(), id, req.Reason, req.ActorRole, req.Penalty, time.Now())
	if err != nil {
		return mapDomainError(c, err)
	}
	return helper.Success(c, "Kontrak dibatalkan", m)
}

func (ctl *ContractController) Void(c *fiber.Ctx) error {
	id, err := parseContractID(c)
	if err != nil {
		return err
	}

	var req dto.VoidContractRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Format request tidak valid")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Contract.Void(c.Context(), id, req.Reason)
	if err != nil {
		return mapDomainError(c, err)
	}
	return helper.Success(c, "Kontrak dibatalkan oleh admin", m)
}

func (ctl *ContractController) DecideSecurityDeposit(c *fiber.Ctx) error {
	id, err := parseContractID(c)
	if err != nil {
		return err
	}

	var req dto.SecurityDepositDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Format request tidak valid")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Contract.DecideSecurityDeposit(c.Context(), id, req.Decision, time.Now())
	if err != nil {
		return mapDomainError(c, err)
	}
	return helper.Success(c, "Keputusan deposit keamanan tersimpan", m)
}

/* =========================================================
   READ
========================================================= */

func (ctl *ContractController) GetByID(c *fiber.Ctx) error {
	id, err := parseContractID(c)
	if err != nil {
		return err
	}

	m, err := ctl.Contract.GetByID(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return helper.Success(c, "Data kontrak berhasil diambil", m)
}

// GetContracts lists contracts, newest first. Filters: property_id,
// customer_user_id, status, type.
func (ctl *ContractController) GetContracts(c *fiber.Ctx) error {
	limit := 20
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}

	q := ctl.DB.Model(&model.ContractModel{})
	if raw := c.Query("property_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "property_id tidak valid")
		}
		q = q.Where("contract_property_id = ?", pid)
	}
	if raw := c.Query("customer_user_id"); raw != "" {
		cid, err := uuid.Parse(raw)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "customer_user_id tidak valid")
		}
		q = q.Where("contract_customer_user_id = ?", cid)
	}
	if s := c.Query("status"); s != "" {
		q = q.Where("contract_status = ?", s)
	}
	if t := c.Query("type"); t != "" {
		q = q.Where("contract_type = ?", t)
	}

	var rows []model.ContractModel
	if err := q.Order("contract_created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil data kontrak")
	}
	return helper.Success(c, "Data kontrak berhasil diambil", rows)
}

/* =========================================================
   ERROR MAPPING
========================================================= */

func parseContractID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, helper.Error(c, fiber.StatusBadRequest, "ID kontrak tidak valid")
	}
	return id, nil
}

func mapDomainError(c *fiber.Ctx, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return helper.Error(c, fiber.StatusBadRequest, ve.Msg)
	}
	var te *service.InvalidStateTransitionError
	if errors.As(err, &te) {
		return helper.Error(c, fiber.StatusConflict, te.Error())
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.Error(c, fiber.StatusNotFound, "Kontrak tidak ditemukan")
	}
	log.Printf("[CONTRACT] unexpected error: %v", err)
	return helper.Error(c, fiber.StatusInternalServerError, "Terjadi kesalahan pada server")
}
