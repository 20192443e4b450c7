package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"propertiku_backend/internals/helpers/dbtx"

	model "propertiku_backend/internals/features/properties/model"
)

/* =========================================================
   CatalogService — the thin property surface the settlement
   core talks to. Listing CRUD proper lives elsewhere.
========================================================= */

type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

func (s *CatalogService) GetByID(ctx context.Context, propertyID uuid.UUID) (*model.PropertyModel, error) {
	var p model.PropertyModel
	if err := s.DB.WithContext(ctx).First(&p, "property_id = ?", propertyID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogService) SetStatus(ctx context.Context, propertyID uuid.UUID, status string) error {
	return s.DB.WithContext(ctx).Model(&model.PropertyModel{}).
		Where("property_id = ?", propertyID).
		Update("property_status", status).Error
}

// ApplyServiceFee adds a settled service-fee amount to the property's
// collected total and flips the listing live once the fee is covered.
// Returns whether the listing went live on this call.
func (s *CatalogService) ApplyServiceFee(ctx context.Context, propertyID uuid.UUID, amount decimal.Decimal) (bool, error) {
	wentLive := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.PropertyModel
		if err := dbtx.ForUpdate(tx).First(&p, "property_id = ?", propertyID).Error; err != nil {
			return err
		}

		p.PropertyServiceFeeCollectedAmount = p.PropertyServiceFeeCollectedAmount.Add(amount)
		if p.ServiceFeeSettled() && p.AwaitingServiceFee() {
			p.PropertyStatus = model.PropertyStatusAvailable
			wentLive = true
		}
		return tx.Save(&p).Error
	})
	if err != nil {
		return false, err
	}
	if wentLive {
		log.Printf("[CATALOG] property=%s service fee covered, listing is live", propertyID)
	}
	return wentLive, nil
}

// ServiceFeeOutstanding returns how much of the listing fee is still owed.
func (s *CatalogService) ServiceFeeOutstanding(ctx context.Context, propertyID uuid.UUID) (decimal.Decimal, error) {
	p, err := s.GetByID(ctx, propertyID)
	if err != nil {
		return decimal.Zero, err
	}
	out := p.PropertyServiceFeeAmount.Sub(p.PropertyServiceFeeCollectedAmount)
	if out.IsNegative() {
		return decimal.Zero, nil
	}
	return out, nil
}
