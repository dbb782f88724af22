package reports

import (
	"fmt"
	"io"

	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/xuri/excelize/v2"
)

const transactionSheet = "Transactions"

var transactionHeadings = []string{
	"Id", "Date", "Account", "Type", "Category", "Description", "Currency", "Amount",
}

// ExportTransactionsExcel writes one row per transaction plus a summary block.
func ExportTransactionsExcel(w io.Writer, transactions []*models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionSheet); err != nil {
		return err
	}

	for i, h := range transactionHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(transactionSheet, cell, h); err != nil {
			return err
		}
	}

	rowNo := 2
	for _, t := range transactions {
		values := []interface{}{
			t.ID,
			t.TransactionDate.UTC().Format("2006-01-02 15:04:05"),
			t.AccountId,
			string(t.Type),
			t.Category,
			t.Description,
			string(t.Currency),
			t.Amount.StringFixed(2),
		}
		if err := f.SetSheetRow(transactionSheet, fmt.Sprintf("A%d", rowNo), &values); err != nil {
			return err
		}
		rowNo++
	}

	summary, err := models.Summarize(transactions)
	if err != nil {
		return err
	}
	rowNo++
	for _, line := range [][]interface{}{
		{"Total income", summary.TotalIncome.StringFixed(2)},
		{"Total expense", summary.TotalExpense.StringFixed(2)},
		{"Net", summary.Net.StringFixed(2)},
	} {
		if err := f.SetSheetRow(transactionSheet, fmt.Sprintf("G%d", rowNo), &line); err != nil {
			return err
		}
		rowNo++
	}

	return f.Write(w)
}
