package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */
/* Matches the property_status ENUM in PostgreSQL. */

const (
	PropertyStatusPending   = "pending"   // submitted, service fee unpaid
	PropertyStatusApproved  = "approved"  // passed review, service fee unpaid
	PropertyStatusAvailable = "available" // live on the listing
	PropertyStatusReserved  = "reserved"  // active deposit contract
	PropertyStatusSold      = "sold"
	PropertyStatusRented    = "rented"
	PropertyStatusInactive  = "inactive"
)

/* ===================== Model ===================== */

type PropertyModel struct {
	PropertyID uuid.UUID `gorm:"column:property_id;type:uuid;primaryKey" json:"property_id"`

	PropertyOwnerUserID uuid.UUID  `gorm:"column:property_owner_user_id;type:uuid;not null" json:"property_owner_user_id"`
	PropertyAgentUserID *uuid.UUID `gorm:"column:property_agent_user_id;type:uuid" json:"property_agent_user_id,omitempty"`

	PropertyTitle string `gorm:"column:property_title;type:varchar(255);not null" json:"property_title"`
	PropertyCity  string `gorm:"column:property_city;type:varchar(120)" json:"property_city"`

	PropertyStatus string `gorm:"column:property_status;type:property_status;not null;default:'pending'" json:"property_status"`

	// Listing-activation fee. The listing goes live once collected >= owed.
	PropertyServiceFeeAmount          decimal.Decimal `gorm:"column:property_service_fee_amount;type:decimal(18,2);not null;default:0" json:"property_service_fee_amount"`
	PropertyServiceFeeCollectedAmount decimal.Decimal `gorm:"column:property_service_fee_collected_amount;type:decimal(18,2);not null;default:0" json:"property_service_fee_collected_amount"`

	CreatedAt time.Time      `gorm:"column:property_created_at;autoCreateTime" json:"property_created_at"`
	UpdatedAt time.Time      `gorm:"column:property_updated_at;autoUpdateTime" json:"property_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:property_deleted_at;index" json:"property_deleted_at,omitempty"`
}

func (PropertyModel) TableName() string { return "properties" }

func (p *PropertyModel) BeforeCreate(tx *gorm.DB) error {
	if p.PropertyID == uuid.Nil {
		p.PropertyID = uuid.New()
	}
	return nil
}

/* ===================== Helpers ===================== */

func (p *PropertyModel) ServiceFeeSettled() bool {
	return p.PropertyServiceFeeCollectedAmount.GreaterThanOrEqual(p.PropertyServiceFeeAmount)
}

func (p *PropertyModel) AwaitingServiceFee() bool {
	return p.PropertyStatus == PropertyStatusPending || p.PropertyStatus == PropertyStatusApproved
}
