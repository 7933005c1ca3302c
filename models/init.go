package models

import "gorm.io/gorm"

// SeedInstitutes inserts the institutes registered for the event if they are
// not already present. Idempotent; safe to run on every startup.
func SeedInstitutes(db *gorm.DB, institutes []Institute) error {
	for _, inst := range institutes {
		if err := db.FirstOrCreate(&inst, "code = ?", inst.Code).Error; err != nil {
			return err
		}
	}
	return nil
}
