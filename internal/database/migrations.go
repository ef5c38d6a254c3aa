package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationNormalizeAccountEmails = "2026-07-28_normalize_account_emails"
	migrationBackfillVoteDefaults   = "2026-08-10_backfill_vote_defaults"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizeAccountEmails, apply: normalizeAccountEmails},
		{name: migrationBackfillVoteDefaults, apply: backfillVoteDefaults},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Accounts created before email normalization may carry mixed-case addresses,
// which breaks the unique lookup on sign-in.
func normalizeAccountEmails(db *gorm.DB) error {
	return db.Exec("UPDATE accounts SET email = lower(trim(email));").Error
}

// Posts imported from earlier dumps can carry NULL vote counts.
func backfillVoteDefaults(db *gorm.DB) error {
	return db.Exec("UPDATE posts SET votes = 0 WHERE votes IS NULL;").Error
}
