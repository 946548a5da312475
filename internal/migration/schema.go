package migration

import (
	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"gorm.io/gorm"
)

// Migrate builds the schema through gorm's AutoMigrate. Used for sqlite, where
// the SQL migrations do not apply, and by the test suites.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&insurerdomain.Insurer{},
		&batchdomain.Batch{},
		&claimdomain.Claim{},
		&claimdomain.ClaimItem{},
	)
	if err != nil {
		return err
	}

	// Partial unique indexes are outside AutoMigrate's vocabulary. One live
	// batch per insurer per date; failed batches release the key.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_batches_insurer_date_live
		ON batches (insurer_code, batch_date)
		WHERE status <> 'failed'`).Error
}
