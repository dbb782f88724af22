package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionFilter narrows an owner's transactions. Zero fields do not filter.
// From/To are inclusive bounds on transaction_date.
type TransactionFilter struct {
	AccountId int
	Type      TransactionType
	Category  string
	From      *time.Time
	To        *time.Time
	// MinAmount keeps rows with amount strictly greater than it.
	MinAmount *decimal.Decimal
}

type TransactionSummary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Net          decimal.Decimal `json:"net"`
	Count        int             `json:"count"`
}

// ListTransactions is scoped to ownerId and ordered newest first, then by id.
func ListTransactions(ctx context.Context, db *gorm.DB, ownerId string, filter TransactionFilter) ([]*Transaction, error) {
	dbCtx := db.WithContext(ctx).Model(&Transaction{}).Where("owner_id = ?", ownerId)
	if filter.AccountId > 0 {
		dbCtx = dbCtx.Where("account_id = ?", filter.AccountId)
	}
	if filter.Type != "" {
		dbCtx = dbCtx.Where("type = ?", filter.Type)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		dbCtx = dbCtx.Where("category = ?", category)
	}
	if filter.From != nil {
		dbCtx = dbCtx.Where("transaction_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		dbCtx = dbCtx.Where("transaction_date <= ?", filter.To.UTC())
	}
	if filter.MinAmount != nil {
		dbCtx = dbCtx.Where("amount > ?", *filter.MinAmount)
	}

	results := make([]*Transaction, 0)
	if err := dbCtx.Order(transactionOrder).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetTransactionsByCategory(ctx context.Context, db *gorm.DB, ownerId string, category string) ([]*Transaction, error) {
	return ListTransactions(ctx, db, ownerId, TransactionFilter{Category: category})
}

func GetTransactionsByDateRange(ctx context.Context, db *gorm.DB, ownerId string, from time.Time, to time.Time) ([]*Transaction, error) {
	return ListTransactions(ctx, db, ownerId, TransactionFilter{From: &from, To: &to})
}

// SumAmounts adds stored amounts as they are, ignoring type. Filter by type
// first when a directional total is wanted; NetAmount gives the signed figure.
func SumAmounts(transactions []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}
	return total
}

// NetAmount is income minus expense. A row with an unknown type is an error.
func NetAmount(transactions []*Transaction) (decimal.Decimal, error) {
	net := decimal.Zero
	for _, t := range transactions {
		signed, err := t.Type.SignedAmount(t.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		net = net.Add(signed)
	}
	return net, nil
}

func Summarize(transactions []*Transaction) (TransactionSummary, error) {
	summary := TransactionSummary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		Net:          decimal.Zero,
		Count:        len(transactions),
	}
	for _, t := range transactions {
		signed, err := t.Type.SignedAmount(t.Amount)
		if err != nil {
			return TransactionSummary{}, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		if signed.IsNegative() {
			summary.TotalExpense = summary.TotalExpense.Sub(signed)
		} else {
			summary.TotalIncome = summary.TotalIncome.Add(signed)
		}
		summary.Net = summary.Net.Add(signed)
	}
	return summary, nil
}

// GetTotalAmount is SumAmounts over the filtered rows.
func GetTotalAmount(ctx context.Context, db *gorm.DB, ownerId string, filter TransactionFilter) (decimal.Decimal, error) {
	transactions, err := ListTransactions(ctx, db, ownerId, filter)
	if err != nil {
		return decimal.Zero, err
	}
	return SumAmounts(transactions), nil
}

// DetectAnomalies lists the owner's transactions with amount above threshold.
func DetectAnomalies(ctx context.Context, db *gorm.DB, ownerId string, threshold decimal.Decimal) ([]*Transaction, error) {
	return ListTransactions(ctx, db, ownerId, TransactionFilter{MinAmount: &threshold})
}
