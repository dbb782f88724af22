package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Account struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OwnerId     string          `gorm:"size:36;not null;index" json:"owner_id"`
	Owner       *User           `gorm:"foreignKey:OwnerId;constraint:OnDelete:CASCADE" json:"-"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	AccountType AccountType     `gorm:"size:20;not null" json:"account_type"`
	Currency    Currency        `gorm:"size:3;not null" json:"currency"`
	Balance     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance"`
	// Version increments on every write; writers that loaded an older value lose.
	Version   int       `gorm:"not null" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// There is deliberately no balance field: balances only move through transaction posting.
type NewAccount struct {
	Name        string      `json:"name" binding:"required,max=100"`
	AccountType AccountType `json:"account_type" binding:"required"`
	Currency    Currency    `json:"currency" binding:"required"`
}

func (input *NewAccount) validate() error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || len(input.Name) > 100 {
		return fmt.Errorf("%w: account name must be 1-100 characters", utils.ErrorInvalidOperation)
	}
	if !input.AccountType.IsValid() {
		return fmt.Errorf("%w: unknown account type %q", utils.ErrorInvalidOperation, input.AccountType)
	}
	if !input.Currency.IsValid() {
		return fmt.Errorf("%w: unknown currency %q", utils.ErrorInvalidOperation, input.Currency)
	}
	return nil
}

func CreateAccount(ctx context.Context, db *gorm.DB, ownerId string, input *NewAccount) (*Account, error) {
	if ownerId == "" {
		return nil, utils.ErrorUnauthorized
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	account := Account{
		OwnerId:     ownerId,
		Name:        input.Name,
		AccountType: input.AccountType,
		Currency:    input.Currency,
		Balance:     decimal.Zero,
	}
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func GetAccount(ctx context.Context, db *gorm.DB, ownerId string, id int) (*Account, error) {
	return utils.FetchOwnedModel[Account](ctx, db, ownerId, id)
}

func ListAccounts(ctx context.Context, db *gorm.DB, ownerId string) ([]*Account, error) {
	return utils.FetchAllOwnedModels[Account](ctx, db, ownerId, "id ASC")
}

// UpdateAccount edits descriptive fields only. It bumps the version so an
// in-flight posting that read the old row retries against the new one.
func UpdateAccount(ctx context.Context, db *gorm.DB, ownerId string, id int, input *NewAccount) (*Account, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	result := db.WithContext(ctx).Model(&Account{}).
		Where("id = ? AND owner_id = ?", id, ownerId).
		Updates(map[string]interface{}{
			"name":         input.Name,
			"account_type": input.AccountType,
			"currency":     input.Currency,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return GetAccount(ctx, db, ownerId, id)
}

// DeleteAccount removes the account and, through the FK cascade, its transactions.
func DeleteAccount(ctx context.Context, db *gorm.DB, ownerId string, id int) error {
	result := db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerId).Delete(&Account{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// SaveAccountBalance writes balance only if the row still carries expectedVersion.
// false means another writer got there first (or the account is gone).
func SaveAccountBalance(tx *gorm.DB, account *Account, balance decimal.Decimal, expectedVersion int, now time.Time) (bool, error) {
	result := tx.Model(&Account{}).
		Where("id = ? AND owner_id = ? AND version = ?", account.ID, account.OwnerId, expectedVersion).
		Updates(map[string]interface{}{
			"balance":    balance,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	account.Balance = balance
	account.Version = expectedVersion + 1
	account.UpdatedAt = now
	return true, nil
}
