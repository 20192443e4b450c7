package seeds

import (
	property "propertiku_backend/internals/seeds/properties"

	"gorm.io/gorm"
)

func RunAllSeeds(db *gorm.DB) {
	property.SeedPropertiesFromJSON(db, "internals/seeds/properties/data_properties.json")
}
