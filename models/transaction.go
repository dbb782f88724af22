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

type Transaction struct {
	ID        int      `gorm:"primary_key" json:"id"`
	AccountId int      `gorm:"not null;index:idx_transactions_account_date,priority:1" json:"account_id"`
	Account   *Account `gorm:"foreignKey:AccountId;constraint:OnDelete:CASCADE" json:"-"`
	// OwnerId is a plain indexed column; user deletion reaches transactions through accounts.
	OwnerId         string          `gorm:"size:36;not null;index:idx_transactions_owner_date,priority:1" json:"owner_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Type            TransactionType `gorm:"size:10;not null;index" json:"type"`
	Category        string          `gorm:"size:100;not null;index" json:"category"`
	Description     string          `gorm:"size:500" json:"description"`
	Currency        Currency        `gorm:"size:3;not null" json:"currency"`
	TransactionDate time.Time       `gorm:"not null;index:idx_transactions_account_date,priority:2;index:idx_transactions_owner_date,priority:2" json:"transaction_date"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransaction struct {
	AccountId       int             `json:"account_id" binding:"required,gt=0"`
	Amount          decimal.Decimal `json:"amount" binding:"money"`
	Type            TransactionType `json:"type" binding:"required"`
	Category        string          `json:"category" binding:"required,max=100"`
	Description     string          `json:"description" binding:"max=500"`
	Currency        Currency        `json:"currency"`
	TransactionDate *time.Time      `json:"transaction_date"`
}

// Validate trims text fields and checks everything that does not need the database.
func (input *NewTransaction) Validate() error {
	if err := utils.ValidateAmount(input.Amount); err != nil {
		return err
	}
	if !input.Type.IsValid() {
		return fmt.Errorf("%w: unknown transaction type %q", utils.ErrorInvalidOperation, input.Type)
	}
	input.Category = strings.TrimSpace(input.Category)
	if input.Category == "" || len(input.Category) > 100 {
		return fmt.Errorf("%w: category must be 1-100 characters", utils.ErrorInvalidOperation)
	}
	if len(input.Description) > 500 {
		return fmt.Errorf("%w: description must be at most 500 characters", utils.ErrorInvalidOperation)
	}
	if input.Currency != "" && !input.Currency.IsValid() {
		return fmt.Errorf("%w: unknown currency %q", utils.ErrorInvalidOperation, input.Currency)
	}
	return nil
}

// ordering shared by every transaction listing
const transactionOrder = "transaction_date DESC, id ASC"

func GetTransaction(ctx context.Context, db *gorm.DB, ownerId string, id int) (*Transaction, error) {
	return utils.FetchOwnedModel[Transaction](ctx, db, ownerId, id)
}

// ListAccountTransactions fails with ErrorRecordNotFound when the account is not the caller's.
func ListAccountTransactions(ctx context.Context, db *gorm.DB, ownerId string, accountId int) ([]*Transaction, error) {
	if err := utils.ValidateOwnedResourceId[Account](ctx, db, ownerId, accountId); err != nil {
		return nil, err
	}
	return ListTransactions(ctx, db, ownerId, TransactionFilter{AccountId: accountId})
}
