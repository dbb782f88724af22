package workflow

import (
	"context"
	"testing"

	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/testutils"
	"gorm.io/gorm"
)

func TestCreateTransactionOnce_ConcurrentSameKeyReturnsWinner(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "idem.race@example.com")
	account := testutils.MustCreateAccount(t, ctx, db, user.ID, "Race")

	// The other request passes the lookup too and commits first.
	var winner *models.Transaction
	setBeforeWrite(t, func(ctx context.Context, db *gorm.DB, attempt int) {
		if attempt != 1 {
			return
		}
		beforeWrite = nil
		var err error
		winner, err = createTransaction(ctx, db, user.ID, &models.NewTransaction{
			AccountId: account.ID, Amount: dec(t, "25.00"), Type: models.TransactionTypeIncome, Category: "Refund",
		}, "race-key")
		if err != nil {
			t.Fatalf("competing create: %v", err)
		}
	})

	got, replayed, err := CreateTransactionOnce(ctx, db, user.ID, "race-key", &models.NewTransaction{
		AccountId: account.ID, Amount: dec(t, "25.00"), Type: models.TransactionTypeIncome, Category: "Refund",
	})
	if err != nil {
		t.Fatalf("CreateTransactionOnce: %v", err)
	}
	if !replayed {
		t.Fatalf("losing request was not reported as replayed")
	}
	if winner == nil || got.ID != winner.ID {
		t.Fatalf("got transaction %d, want the winner's", got.ID)
	}
	if n := countTransactions(t, db, account.ID); n != 1 {
		t.Fatalf("%d transactions, want 1", n)
	}
	testutils.AssertBalance(t, ctx, db, user.ID, account.ID, "25.00")
}
