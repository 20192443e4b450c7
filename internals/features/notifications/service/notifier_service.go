package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	model "propertiku_backend/internals/features/notifications/model"
)

/* =========================================================
   Notifier — fire-and-forget. Delivery (push/email) happens
   out of band; the core only records the notification row.
   Failures are logged, never propagated.
========================================================= */

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, entityType string, entityID uuid.UUID)
}

type DBNotifier struct {
	DB *gorm.DB
}

func NewDBNotifier(db *gorm.DB) *DBNotifier {
	return &DBNotifier{DB: db}
}

func (n *DBNotifier) Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, entityType string, entityID uuid.UUID) {
	row := model.NotificationModel{
		NotificationUserID: userID,
		NotificationType:   typ,
		NotificationTitle:  title,
		NotificationBody:   body,
		NotificationTags:   []string{typ},
		NotificationData:   datatypes.JSONMap{},
	}
	if entityType != "" {
		row.NotificationEntityType = &entityType
	}
	if entityID != uuid.Nil {
		id := entityID
		row.NotificationEntityID = &id
	}

	if err := n.DB.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("[NOTIFY] insert failed user=%s type=%s: %v", userID, typ, err)
	}
}
