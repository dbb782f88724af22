package workflow_test

import (
	"context"
	"testing"

	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/testutils"
	"github.com/mmdatafocus/fintech_backend/workflow"
)

func TestReconcile_ReportsAndFixesDrift(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "drift@example.com")
	account := testutils.MustCreateAccount(t, ctx, db, user.ID, "Drift")
	mustCreate(t, ctx, db, user.ID, newTx(t, account.ID, models.TransactionTypeIncome, "80.00", "Salary"))
	mustCreate(t, ctx, db, user.ID, newTx(t, account.ID, models.TransactionTypeExpense, "30.00", "Food"))

	// corrupt the cached balance behind the mutator's back
	if err := db.Exec("UPDATE accounts SET balance = ? WHERE id = ?", "999.99", account.ID).Error; err != nil {
		t.Fatalf("corrupt balance: %v", err)
	}

	drifts, err := workflow.ReconcileAllAccounts(context.Background(), db, false)
	if err != nil {
		t.Fatalf("ReconcileAllAccounts: %v", err)
	}
	// the registration's Main account plus Drift
	if len(drifts) != 2 {
		t.Fatalf("checked %d accounts, want 2", len(drifts))
	}
	var found bool
	for _, d := range drifts {
		if d.AccountId != account.ID {
			if !d.InSync() {
				t.Fatalf("account %d unexpectedly drifted", d.AccountId)
			}
			continue
		}
		found = true
		if d.InSync() || d.Fixed {
			t.Fatalf("drift = %+v, want unfixed drift", d)
		}
		if !d.Computed.Equal(testutils.Dec(t, "50.00")) || !d.Difference().Equal(testutils.Dec(t, "949.99")) {
			t.Fatalf("computed = %s diff = %s", d.Computed, d.Difference())
		}
	}
	if !found {
		t.Fatalf("drifted account not reported")
	}
	testutils.AssertBalance(t, ctx, db, user.ID, account.ID, "999.99")

	drift, err := workflow.ReconcileAccount(ctx, db, user.ID, account.ID, true)
	if err != nil {
		t.Fatalf("ReconcileAccount: %v", err)
	}
	if !drift.Fixed {
		t.Fatalf("drift not fixed: %+v", drift)
	}
	testutils.AssertBalance(t, ctx, db, user.ID, account.ID, "50.00")

	// a fixed account posts normally afterwards
	mustCreate(t, ctx, db, user.ID, newTx(t, account.ID, models.TransactionTypeIncome, "1.00", "Misc"))
	testutils.AssertBalance(t, ctx, db, user.ID, account.ID, "51.00")
}
