package models_test

import (
	"errors"
	"testing"

	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/testutils"
	"github.com/mmdatafocus/fintech_backend/utils"
)

func TestAccount_CrossUserReadIsNotFound(t *testing.T) {
	db := testutils.OpenTestDB(t)
	u1, ctx1 := testutils.MustRegister(t, db, "u1@example.com")
	u2, ctx2 := testutils.MustRegister(t, db, "u2@example.com")
	account := testutils.MustCreateAccount(t, ctx1, db, u1.ID, "Mine")

	if _, err := models.GetAccount(ctx2, db, u2.ID, account.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("GetAccount as u2: err = %v, want ErrorRecordNotFound", err)
	}
	if _, err := models.UpdateAccount(ctx2, db, u2.ID, account.ID, &models.NewAccount{
		Name: "Stolen", AccountType: models.AccountTypeSavings, Currency: models.CurrencyEUR,
	}); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("UpdateAccount as u2: err = %v, want ErrorRecordNotFound", err)
	}
	if err := models.DeleteAccount(ctx2, db, u2.ID, account.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("DeleteAccount as u2: err = %v, want ErrorRecordNotFound", err)
	}
	if _, err := models.ListAccountTransactions(ctx2, db, u2.ID, account.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("ListAccountTransactions as u2: err = %v, want ErrorRecordNotFound", err)
	}

	list, err := models.ListAccounts(ctx2, db, u2.ID)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	for _, a := range list {
		if a.ID == account.ID {
			t.Fatalf("u2 can list u1's account")
		}
	}

	got, err := models.GetAccount(ctx1, db, u1.ID, account.ID)
	if err != nil {
		t.Fatalf("GetAccount as owner: %v", err)
	}
	if got.Name != "Mine" {
		t.Fatalf("name = %q, want Mine", got.Name)
	}
}

func TestUpdateAccount_EditsDescriptiveFieldsOnly(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "edit@example.com")
	account := testutils.MustCreateAccount(t, ctx, db, user.ID, "Before")
	if err := db.Exec("UPDATE accounts SET balance = ? WHERE id = ?", "10.00", account.ID).Error; err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	updated, err := models.UpdateAccount(ctx, db, user.ID, account.ID, &models.NewAccount{
		Name: "  After ", AccountType: models.AccountTypeSavings, Currency: models.CurrencyGBP,
	})
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if updated.Name != "After" || updated.AccountType != models.AccountTypeSavings || updated.Currency != models.CurrencyGBP {
		t.Fatalf("updated = %+v", updated)
	}
	if !updated.Balance.Equal(testutils.Dec(t, "10.00")) {
		t.Fatalf("balance = %s, want untouched 10.00", updated.Balance)
	}
	if updated.Version != account.Version+1 {
		t.Fatalf("version = %d, want %d", updated.Version, account.Version+1)
	}
}

func TestCreateAccount_RejectsUnknownEnums(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "enum@example.com")

	cases := []models.NewAccount{
		{Name: "X", AccountType: "Crypto", Currency: models.CurrencyUSD},
		{Name: "X", AccountType: models.AccountTypeCash, Currency: "XYZ"},
		{Name: "   ", AccountType: models.AccountTypeCash, Currency: models.CurrencyUSD},
	}
	for _, input := range cases {
		input := input
		if _, err := models.CreateAccount(ctx, db, user.ID, &input); !errors.Is(err, utils.ErrorInvalidOperation) {
			t.Fatalf("CreateAccount(%+v): err = %v, want ErrorInvalidOperation", input, err)
		}
	}
}

func TestOwnerGuardPlugin_ScopesUnfilteredQueries(t *testing.T) {
	db := testutils.OpenTestDB(t)
	u1, ctx1 := testutils.MustRegister(t, db, "guard1@example.com")
	testutils.MustRegister(t, db, "guard2@example.com")

	// no explicit owner filter: the plugin adds it from the context
	var scoped []models.Account
	if err := db.WithContext(ctx1).Find(&scoped).Error; err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(scoped) != 1 || scoped[0].OwnerId != u1.ID {
		t.Fatalf("scoped query returned %+v", scoped)
	}

	ctxSkip := utils.SetSkipOwnerScopeInContext(ctx1, true)
	var all []models.Account
	if err := db.WithContext(ctxSkip).Find(&all).Error; err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unscoped query returned %d accounts, want 2", len(all))
	}
}
