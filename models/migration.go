package models

import (
	"gorm.io/gorm"
)

// MigrateTable creates or updates every table. Order matters for the FK cascades:
// users <- accounts <- transactions.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Account{},
		&Transaction{},
		&TransactionEvent{},
		&IdempotencyKey{},
	)
}
