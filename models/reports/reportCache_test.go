package reports

import (
	"testing"
	"time"

	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/testutils"
	"github.com/shopspring/decimal"
)

func TestReportCacheTTL(t *testing.T) {
	tests := []struct {
		env  string
		want time.Duration
	}{
		{"", 120 * time.Second},
		{"30", 30 * time.Second},
		{"-5", 120 * time.Second},
		{"soon", 120 * time.Second},
	}
	for _, tt := range tests {
		t.Setenv("REPORT_CACHE_TTL_SECONDS", tt.env)
		if got := reportCacheTTL(); got != tt.want {
			t.Fatalf("REPORT_CACHE_TTL_SECONDS=%q: got %s, want %s", tt.env, got, tt.want)
		}
	}
}

func TestSummaryCacheKey_DistinguishesFilters(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	minAmount := decimal.RequireFromString("10")
	filters := []models.TransactionFilter{
		{},
		{AccountId: 3},
		{Type: models.TransactionTypeIncome},
		{Category: "Food"},
		{Category: "Food:1"},
		{From: &from},
		{To: &from},
		{MinAmount: &minAmount},
	}
	seen := map[string]int{}
	for i, f := range filters {
		key := summaryCacheKey("owner", "4", f)
		if j, ok := seen[key]; ok {
			t.Fatalf("filters %d and %d share cache key %q", j, i, key)
		}
		seen[key] = i
	}
	if summaryCacheKey("owner", "4", filters[1]) == summaryCacheKey("owner", "5", filters[1]) {
		t.Fatalf("generation is not part of the key")
	}
	if summaryCacheKey("a", "4", filters[0]) == summaryCacheKey("b", "4", filters[0]) {
		t.Fatalf("owner is not part of the key")
	}
}

func TestCachedSummary_WithoutRedisComputesFresh(t *testing.T) {
	t.Setenv("ENABLE_REPORT_CACHE", "true")
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "cache@example.com")
	account := testutils.MustCreateAccount(t, ctx, db, user.ID, "Cache")

	for _, row := range []*models.Transaction{
		{AccountId: account.ID, OwnerId: user.ID, Type: models.TransactionTypeIncome, Amount: testutils.Dec(t, "40.00"), Category: "Gift", Currency: models.CurrencyUSD, TransactionDate: time.Now().UTC()},
		{AccountId: account.ID, OwnerId: user.ID, Type: models.TransactionTypeExpense, Amount: testutils.Dec(t, "15.00"), Category: "Food", Currency: models.CurrencyUSD, TransactionDate: time.Now().UTC()},
	} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	summary, err := CachedSummary(ctx, db, user.ID, models.TransactionFilter{AccountId: account.ID})
	if err != nil {
		t.Fatalf("CachedSummary: %v", err)
	}
	if summary.Count != 2 || summary.Net.StringFixed(2) != "25.00" {
		t.Fatalf("summary = %+v", summary)
	}
	InvalidateOwnerReports(ctx, user.ID)
}
