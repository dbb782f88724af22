package models_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/testutils"
	"github.com/mmdatafocus/fintech_backend/utils"
	"gorm.io/gorm"
)

func seedTransaction(t *testing.T, db *gorm.DB, account *models.Account, typ models.TransactionType, amount string, category string, date time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		AccountId:       account.ID,
		OwnerId:         account.OwnerId,
		Amount:          testutils.Dec(t, amount),
		Type:            typ,
		Category:        category,
		Currency:        account.Currency,
		TransactionDate: date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return tx
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 12, 0, 0, 0, time.UTC)
}

func ids(transactions []*models.Transaction) []int {
	out := make([]int, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, t.ID)
	}
	return out
}

func sameIds(a []int, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListTransactions_OrderAndFilters(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "report@example.com")
	other, _ := testutils.MustRegister(t, db, "other@example.com")
	checking := testutils.MustCreateAccount(t, ctx, db, user.ID, "Checking")
	savings := testutils.MustCreateAccount(t, ctx, db, user.ID, "Savings")
	foreign := testutils.MustCreateAccount(t, context.Background(), db, other.ID, "Foreign")

	salary := seedTransaction(t, db, checking, models.TransactionTypeIncome, "1000.00", "Salary", day(1))
	food1 := seedTransaction(t, db, checking, models.TransactionTypeExpense, "20.00", "Food", day(5))
	food2 := seedTransaction(t, db, savings, models.TransactionTypeExpense, "30.00", "Food", day(5))
	rent := seedTransaction(t, db, checking, models.TransactionTypeExpense, "500.00", "Rent", day(10))
	seedTransaction(t, db, foreign, models.TransactionTypeExpense, "99.00", "Food", day(5))

	all, err := models.ListTransactions(ctx, db, user.ID, models.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	// newest first, equal dates by id
	if want := []int{rent.ID, food1.ID, food2.ID, salary.ID}; !sameIds(ids(all), want) {
		t.Fatalf("order = %v, want %v", ids(all), want)
	}

	byCategory, err := models.GetTransactionsByCategory(ctx, db, user.ID, "Food")
	if err != nil {
		t.Fatalf("GetTransactionsByCategory: %v", err)
	}
	if want := []int{food1.ID, food2.ID}; !sameIds(ids(byCategory), want) {
		t.Fatalf("category = %v, want %v", ids(byCategory), want)
	}

	byRange, err := models.GetTransactionsByDateRange(ctx, db, user.ID, day(5), day(10))
	if err != nil {
		t.Fatalf("GetTransactionsByDateRange: %v", err)
	}
	// both bounds inclusive
	if want := []int{rent.ID, food1.ID, food2.ID}; !sameIds(ids(byRange), want) {
		t.Fatalf("range = %v, want %v", ids(byRange), want)
	}

	expenses, err := models.ListTransactions(ctx, db, user.ID, models.TransactionFilter{
		AccountId: checking.ID,
		Type:      models.TransactionTypeExpense,
	})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if want := []int{rent.ID, food1.ID}; !sameIds(ids(expenses), want) {
		t.Fatalf("checking expenses = %v, want %v", ids(expenses), want)
	}
}

func TestAggregates(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "sum@example.com")
	account := testutils.MustCreateAccount(t, ctx, db, user.ID, "Sum")
	seedTransaction(t, db, account, models.TransactionTypeIncome, "1000.00", "Salary", day(1))
	seedTransaction(t, db, account, models.TransactionTypeExpense, "250.50", "Rent", day(2))
	big := seedTransaction(t, db, account, models.TransactionTypeExpense, "12000.00", "Car", day(3))

	all, err := models.ListTransactions(ctx, db, user.ID, models.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if got := models.SumAmounts(all); !got.Equal(testutils.Dec(t, "13250.50")) {
		t.Fatalf("SumAmounts = %s, want 13250.50 (unsigned)", got)
	}
	if got, err := models.NetAmount(all); err != nil || !got.Equal(testutils.Dec(t, "-11250.50")) {
		t.Fatalf("NetAmount = %s, %v, want -11250.50", got, err)
	}
	summary, err := models.Summarize(all)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !summary.TotalIncome.Equal(testutils.Dec(t, "1000.00")) || !summary.TotalExpense.Equal(testutils.Dec(t, "12250.50")) || summary.Count != 3 {
		t.Fatalf("summary = %+v", summary)
	}

	expenseTotal, err := models.GetTotalAmount(ctx, db, user.ID, models.TransactionFilter{Type: models.TransactionTypeExpense})
	if err != nil {
		t.Fatalf("GetTotalAmount: %v", err)
	}
	if !expenseTotal.Equal(testutils.Dec(t, "12250.50")) {
		t.Fatalf("expense total = %s, want 12250.50", expenseTotal)
	}

	anomalies, err := models.DetectAnomalies(ctx, db, user.ID, testutils.Dec(t, "10000"))
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if len(anomalies) != 1 || anomalies[0].ID != big.ID {
		t.Fatalf("anomalies = %v, want [%d]", ids(anomalies), big.ID)
	}

	if got := models.SumAmounts(nil); !got.IsZero() {
		t.Fatalf("SumAmounts(nil) = %s, want 0", got)
	}
}

func TestAggregates_UnknownTypeIsInvalidOperation(t *testing.T) {
	rows := []*models.Transaction{
		{ID: 1, Type: models.TransactionTypeIncome, Amount: testutils.Dec(t, "5.00")},
		{ID: 2, Type: models.TransactionType("Transfer"), Amount: testutils.Dec(t, "3.00")},
	}
	if _, err := models.NetAmount(rows); !errors.Is(err, utils.ErrorInvalidOperation) {
		t.Fatalf("NetAmount err = %v, want invalid operation", err)
	}
	if _, err := models.Summarize(rows); !errors.Is(err, utils.ErrorInvalidOperation) {
		t.Fatalf("Summarize err = %v, want invalid operation", err)
	}
}
