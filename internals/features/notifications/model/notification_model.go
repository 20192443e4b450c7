package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Notification types ===================== */

const (
	NotificationTypePaymentDue         = "payment_due"
	NotificationTypePaymentSettled     = "payment_settled"
	NotificationTypePayoutSent         = "payout_sent"
	NotificationTypeContractActivated  = "contract_activated"
	NotificationTypeContractCompleted  = "contract_completed"
	NotificationTypeContractCancelled  = "contract_cancelled"
	NotificationTypeUnpaidRentWarning  = "unpaid_rent_warning"
	NotificationTypeSecurityDeposit    = "security_deposit"
	NotificationTypeListingActivated   = "listing_activated"
	NotificationTypeAdvanceReceived    = "advance_received"
)

/* ===================== Model ===================== */

type NotificationModel struct {
	NotificationID         uuid.UUID         `gorm:"column:notification_id;primaryKey;type:uuid" json:"notification_id"`
	NotificationUserID     uuid.UUID         `gorm:"column:notification_user_id;type:uuid;not null;index" json:"notification_user_id"`
	NotificationType       string            `gorm:"column:notification_type;type:varchar(40);not null" json:"notification_type"`
	NotificationTitle      string            `gorm:"column:notification_title;type:varchar(255);not null" json:"notification_title"`
	NotificationBody       string            `gorm:"column:notification_body;type:text" json:"notification_body"`
	NotificationEntityType *string           `gorm:"column:notification_entity_type;type:varchar(40)" json:"notification_entity_type,omitempty"`
	NotificationEntityID   *uuid.UUID        `gorm:"column:notification_entity_id;type:uuid" json:"notification_entity_id,omitempty"`
	NotificationTags       pq.StringArray    `gorm:"column:notification_tags;type:text[]" json:"notification_tags"`
	NotificationData       datatypes.JSONMap `gorm:"column:notification_data;type:jsonb" json:"notification_data,omitempty"`
	NotificationReadAt     *time.Time        `gorm:"column:notification_read_at" json:"notification_read_at,omitempty"`
	NotificationCreatedAt  time.Time         `gorm:"column:notification_created_at;autoCreateTime" json:"notification_created_at"`
}

func (NotificationModel) TableName() string { return "notifications" }

func (m *NotificationModel) BeforeCreate(tx *gorm.DB) error {
	if m.NotificationID == uuid.Nil {
		m.NotificationID = uuid.New()
	}
	return nil
}
