package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BalanceDrift compares an account's cached balance with the sum of its transactions.
type BalanceDrift struct {
	AccountId int             `json:"account_id"`
	OwnerId   string          `json:"owner_id"`
	Cached    decimal.Decimal `json:"cached"`
	Computed  decimal.Decimal `json:"computed"`
	Fixed     bool            `json:"fixed"`
}

func (d BalanceDrift) Difference() decimal.Decimal {
	return d.Cached.Sub(d.Computed)
}

func (d BalanceDrift) InSync() bool {
	return d.Cached.Equal(d.Computed)
}

// ComputeAccountBalance folds SignedDelta over every transaction of the account.
func ComputeAccountBalance(ctx context.Context, db *gorm.DB, account *models.Account) (decimal.Decimal, error) {
	var transactions []*models.Transaction
	if err := db.WithContext(ctx).
		Where("account_id = ? AND owner_id = ?", account.ID, account.OwnerId).
		Find(&transactions).Error; err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, t := range transactions {
		delta, err := SignedDelta(t.Type, t.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		balance = balance.Add(delta)
	}
	return balance, nil
}

// ReconcileAccount checks one account and, with fix, rewrites a drifted balance
// through the same version-checked write the posting path uses.
func ReconcileAccount(ctx context.Context, db *gorm.DB, ownerId string, accountId int, fix bool) (*BalanceDrift, error) {
	var drift *BalanceDrift
	err := withOptimisticRetry(ctx, "reconcile account", accountExists(ctx, db, ownerId, accountId), func(attempt int) error {
		account, err := models.GetAccount(ctx, db, ownerId, accountId)
		if err != nil {
			return err
		}
		computed, err := ComputeAccountBalance(ctx, db, account)
		if err != nil {
			return err
		}
		drift = &BalanceDrift{
			AccountId: account.ID,
			OwnerId:   account.OwnerId,
			Cached:    account.Balance,
			Computed:  computed,
		}
		if drift.InSync() || !fix {
			return nil
		}
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := saveBalance(tx, account, computed, time.Now().UTC()); err != nil {
				return err
			}
			drift.Fixed = true
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !drift.InSync() {
		config.GetLogger().WithFields(logrus.Fields{
			"field":      "ReconcileAccount",
			"account_id": drift.AccountId,
			"cached":     drift.Cached.String(),
			"computed":   drift.Computed.String(),
			"fixed":      drift.Fixed,
		}).Warn("account balance drift")
	}
	return drift, nil
}

// ReconcileAllAccounts walks every account. Internal use only: ctx must skip owner scope.
func ReconcileAllAccounts(ctx context.Context, db *gorm.DB, fix bool) ([]BalanceDrift, error) {
	ctx = utils.SetSkipOwnerScopeInContext(ctx, true)
	var accounts []models.Account
	if err := db.WithContext(ctx).Select("id", "owner_id").Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	results := make([]BalanceDrift, 0, len(accounts))
	for _, a := range accounts {
		drift, err := ReconcileAccount(ctx, db, a.OwnerId, a.ID, fix)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				// deleted while we were walking
				continue
			}
			return results, err
		}
		results = append(results, *drift)
	}
	return results, nil
}
