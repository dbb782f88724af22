package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestExportTransactionsExcel(t *testing.T) {
	transactions := []*models.Transaction{
		{ID: 2, AccountId: 7, Type: models.TransactionTypeExpense, Category: "Food", Currency: models.CurrencyUSD,
			Amount: decimal.RequireFromString("12.5"), TransactionDate: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		{ID: 1, AccountId: 7, Type: models.TransactionTypeIncome, Category: "Salary", Currency: models.CurrencyUSD,
			Amount: decimal.RequireFromString("100"), TransactionDate: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := ExportTransactionsExcel(&buf, transactions); err != nil {
		t.Fatalf("ExportTransactionsExcel: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(transactionSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) < 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0][0] != "Id" || rows[0][7] != "Amount" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][4] != "Food" || rows[1][7] != "12.50" {
		t.Fatalf("first row = %v", rows[1])
	}

	net, err := f.GetCellValue(transactionSheet, "H7")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if net != "87.50" {
		t.Fatalf("net = %q, want 87.50", net)
	}
}
