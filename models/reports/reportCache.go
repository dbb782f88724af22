package reports

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time, fields logrus.Fields) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	ownerId, _ := utils.GetUserIdFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(fields).WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"owner_id":       ownerId,
		"correlation_id": cid,
	}).Warn("slow report")
}

func generationKey(ownerId string) string {
	return "ReportGeneration:" + ownerId
}

// Every posting bumps the owner's generation, so cached entries keyed on an
// older one are never read again and age out through their TTL.
func InvalidateOwnerReports(ctx context.Context, ownerId string) {
	if !reportCacheEnabled() {
		return
	}
	if _, err := config.IncrRedisKey(ctx, generationKey(ownerId)); err != nil {
		config.GetLogger().WithFields(logrus.Fields{
			"field":    "InvalidateOwnerReports",
			"owner_id": ownerId,
		}).Warn("report cache invalidation failed: " + err.Error())
	}
}

func summaryCacheKey(ownerId string, generation string, filter models.TransactionFilter) string {
	bound := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	minAmount := "-"
	if filter.MinAmount != nil {
		minAmount = filter.MinAmount.String()
	}
	return fmt.Sprintf("ReportSummary:%s:%s:%d:%s:%q:%s:%s:%s",
		ownerId, generation, filter.AccountId, filter.Type, filter.Category,
		bound(filter.From), bound(filter.To), minAmount)
}

// CachedSummary is models.Summarize over the filtered rows, served from Redis
// when ENABLE_REPORT_CACHE is on and the owner has not posted since.
func CachedSummary(ctx context.Context, db *gorm.DB, ownerId string, filter models.TransactionFilter) (models.TransactionSummary, error) {
	started := time.Now()
	defer logSlowReport(ctx, "summary", started, logrus.Fields{"account_id": filter.AccountId})

	var key string
	if reportCacheEnabled() {
		generation, _, err := config.GetRedisValue(ctx, generationKey(ownerId))
		if err == nil {
			key = summaryCacheKey(ownerId, generation, filter)
			var cached models.TransactionSummary
			if ok, err := config.GetRedisObject(ctx, key, &cached); err == nil && ok {
				return cached, nil
			}
		}
	}

	transactions, err := models.ListTransactions(ctx, db, ownerId, filter)
	if err != nil {
		return models.TransactionSummary{}, err
	}
	summary, err := models.Summarize(transactions)
	if err != nil {
		return models.TransactionSummary{}, err
	}
	if key != "" {
		if err := config.SetRedisObject(ctx, key, summary, reportCacheTTL()); err != nil {
			config.GetLogger().WithField("field", "CachedSummary").Warn("report cache write failed: " + err.Error())
		}
	}
	return summary, nil
}
