// Package testutils opens throwaway databases for package tests.
package testutils

import (
	"context"
	"testing"

	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenTestDB returns a migrated in-memory SQLite database with foreign keys
// enforced and the owner guard installed, closed when the test ends.
//
// The pool is pinned to one connection: every connection to :memory: would
// otherwise see its own empty database.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=1"), config.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Use(config.NewOwnerGuardPlugin()); err != nil {
		t.Fatalf("owner guard plugin: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// MustRegister creates a user (and its Main account) and returns the user with a
// context that carries its id, the way the auth middleware would.
func MustRegister(t *testing.T, db *gorm.DB, email string) (*models.User, context.Context) {
	t.Helper()
	user, err := models.RegisterUser(context.Background(), db, &models.NewUser{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Password:  "password123",
	})
	if err != nil {
		t.Fatalf("RegisterUser(%s): %v", email, err)
	}
	ctx := utils.SetUserIdInContext(context.Background(), user.ID)
	return user, ctx
}

// MustCreateAccount adds a USD checking account for ownerId.
func MustCreateAccount(t *testing.T, ctx context.Context, db *gorm.DB, ownerId string, name string) *models.Account {
	t.Helper()
	account, err := models.CreateAccount(ctx, db, ownerId, &models.NewAccount{
		Name:        name,
		AccountType: models.AccountTypeChecking,
		Currency:    models.CurrencyUSD,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s): %v", name, err)
	}
	return account
}

// Dec parses a decimal literal or fails the test.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

// AssertBalance reloads the account and compares its balance.
func AssertBalance(t *testing.T, ctx context.Context, db *gorm.DB, ownerId string, accountId int, want string) {
	t.Helper()
	account, err := models.GetAccount(ctx, db, ownerId, accountId)
	if err != nil {
		t.Fatalf("GetAccount(%d): %v", accountId, err)
	}
	if !account.Balance.Equal(Dec(t, want)) {
		t.Fatalf("account %d balance = %s, want %s", accountId, account.Balance.StringFixed(2), want)
	}
}
