package property

import (
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"propertiku_backend/internals/features/properties/model"
)

type PropertySeed struct {
	PropertyID               uuid.UUID       `json:"property_id"`
	PropertyOwnerUserID      uuid.UUID       `json:"property_owner_user_id"`
	PropertyAgentUserID      *uuid.UUID      `json:"property_agent_user_id"`
	PropertyTitle            string          `json:"property_title"`
	PropertyCity             string          `json:"property_city"`
	PropertyStatus           string          `json:"property_status"`
	PropertyServiceFeeAmount decimal.Decimal `json:"property_service_fee_amount"`
}

func SeedPropertiesFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ Gagal membaca file JSON: %v", err)
	}

	var seeds []PropertySeed
	if err := json.Unmarshal(file, &seeds); err != nil {
		log.Fatalf("❌ Gagal decode JSON: %v", err)
	}

	for _, s := range seeds {
		var existing model.PropertyModel
		if err := db.Where("property_id = ?", s.PropertyID).First(&existing).Error; err == nil {
			log.Printf("ℹ️ Properti %s sudah ada, lewati...", s.PropertyID)
			continue
		}

		status := s.PropertyStatus
		if status == "" {
			status = model.PropertyStatusPending
		}

		p := model.PropertyModel{
			PropertyID:               s.PropertyID,
			PropertyOwnerUserID:      s.PropertyOwnerUserID,
			PropertyAgentUserID:      s.PropertyAgentUserID,
			PropertyTitle:            s.PropertyTitle,
			PropertyCity:             s.PropertyCity,
			PropertyStatus:           status,
			PropertyServiceFeeAmount: s.PropertyServiceFeeAmount,
		}

		if err := db.Create(&p).Error; err != nil {
			log.Printf("❌ Gagal insert properti %s: %v", s.PropertyTitle, err)
		} else {
			log.Printf("✅ Berhasil insert properti %s (%s)", p.PropertyTitle, p.PropertyID)
		}
	}
}
