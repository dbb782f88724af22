package models_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/testutils"
	"github.com/mmdatafocus/fintech_backend/utils"
)

func testAuthSettings(t *testing.T) config.AuthSettings {
	t.Helper()
	t.Setenv("GO_ENV", "test")
	t.Setenv("API_SECRET", "models-test-secret")
	settings, err := config.LoadAuthSettings()
	if err != nil {
		t.Fatalf("LoadAuthSettings: %v", err)
	}
	return settings
}

func TestRegisterUser_CreatesDefaultMainAccount(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "New.User@Example.com")

	if user.Email != "new.user@example.com" {
		t.Fatalf("email = %q, want normalized", user.Email)
	}
	if user.Role != models.UserRoleUser {
		t.Fatalf("role = %s, want User", user.Role)
	}
	if user.Password == "password123" {
		t.Fatalf("password stored in clear text")
	}

	accounts, err := models.ListAccounts(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("got %d accounts, want 1", len(accounts))
	}
	primary := accounts[0]
	if primary.Name != models.DefaultAccountName || primary.AccountType != models.AccountTypeChecking || primary.Currency != models.CurrencyUSD {
		t.Fatalf("default account = %+v", primary)
	}
	if !primary.Balance.IsZero() {
		t.Fatalf("default balance = %s, want 0", primary.Balance)
	}
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	db := testutils.OpenTestDB(t)
	testutils.MustRegister(t, db, "dup@example.com")

	_, err := models.RegisterUser(context.Background(), db, &models.NewUser{
		Email:     "DUP@example.com",
		FirstName: "Again",
		LastName:  "User",
		Password:  "password123",
	})
	if !errors.Is(err, utils.ErrorDuplicateEmail) {
		t.Fatalf("err = %v, want ErrorDuplicateEmail", err)
	}
	var accounts int64
	if err := db.Model(&models.Account{}).Count(&accounts).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if accounts != 1 {
		t.Fatalf("%d accounts after duplicate registration, want 1", accounts)
	}
}

func TestRegisterUser_ValidatesInput(t *testing.T) {
	db := testutils.OpenTestDB(t)
	cases := []models.NewUser{
		{Email: "not-an-email", FirstName: "A", LastName: "B", Password: "password123"},
		{Email: "short@example.com", FirstName: "A", LastName: "B", Password: "short"},
		{Email: "nofirst@example.com", LastName: "B", Password: "password123"},
		{Email: "phone@example.com", FirstName: "A", LastName: "B", Password: "password123", Phone: "12"},
	}
	for _, input := range cases {
		input := input
		if _, err := models.RegisterUser(context.Background(), db, &input); err == nil {
			t.Fatalf("RegisterUser(%+v) succeeded, want validation error", input)
		}
	}
}

func TestLogin(t *testing.T) {
	db := testutils.OpenTestDB(t)
	settings := testAuthSettings(t)
	user, _ := testutils.MustRegister(t, db, "login@example.com")

	info, err := models.Login(context.Background(), db, settings, "LOGIN@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := utils.JwtValidate(settings, info.Token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	if claims.UserId != user.ID || claims.Role != string(models.UserRoleUser) {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := models.Login(context.Background(), db, settings, "login@example.com", "wrong-password"); !errors.Is(err, utils.ErrorInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrorInvalidCredentials", err)
	}
	if _, err := models.Login(context.Background(), db, settings, "nobody@example.com", "password123"); !errors.Is(err, utils.ErrorInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrorInvalidCredentials", err)
	}
}

func TestLogin_DisabledUser(t *testing.T) {
	db := testutils.OpenTestDB(t)
	settings := testAuthSettings(t)
	user, _ := testutils.MustRegister(t, db, "disabled@example.com")
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable user: %v", err)
	}

	if _, err := models.Login(context.Background(), db, settings, "disabled@example.com", "password123"); !errors.Is(err, utils.ErrorUserDisabled) {
		t.Fatalf("err = %v, want ErrorUserDisabled", err)
	}
}

func TestDeleteUser_CascadesToAccountsAndTransactions(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "gone@example.com")
	other, _ := testutils.MustRegister(t, db, "stays@example.com")
	account := testutils.MustCreateAccount(t, ctx, db, user.ID, "Savings")
	if err := db.Create(&models.Transaction{
		AccountId: account.ID,
		OwnerId:   user.ID,
		Amount:    testutils.Dec(t, "5.00"),
		Type:      models.TransactionTypeIncome,
		Category:  "Seed",
		Currency:  models.CurrencyUSD,
	}).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	if err := models.DeleteUser(ctx, db, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	var accounts, transactions int64
	db.Model(&models.Account{}).Where("owner_id = ?", user.ID).Count(&accounts)
	db.Model(&models.Transaction{}).Where("owner_id = ?", user.ID).Count(&transactions)
	if accounts != 0 || transactions != 0 {
		t.Fatalf("left %d accounts and %d transactions", accounts, transactions)
	}
	if _, err := models.GetUser(context.Background(), db, other.ID); err != nil {
		t.Fatalf("other user affected: %v", err)
	}
	if err := models.DeleteUser(ctx, db, user.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("second delete err = %v, want ErrorRecordNotFound", err)
	}
}

func TestLogout_WithoutRedisIsNoop(t *testing.T) {
	ctx := utils.SetTokenIdInContext(context.Background(), "jti-1")
	if err := models.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	revoked, err := models.IsTokenRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("IsTokenRevoked = %t, %v", revoked, err)
	}
	if err := models.Logout(context.Background()); err == nil {
		t.Fatalf("Logout without a token id succeeded")
	}
}
