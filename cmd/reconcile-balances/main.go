// reconcile-balances recomputes every account balance from its transactions and
// reports accounts whose cached balance drifted. With -fix the drifted balances
// are rewritten through the same version-checked update the posting path uses.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/reconcile-balances [-account 42] [-fix]
//
// Exit codes: 0 all in sync (or fixed), 1 error, 4 drift found without -fix.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/mmdatafocus/fintech_backend/workflow"
	"gorm.io/gorm"
)

func main() {
	accountId := flag.Int("account", 0, "only reconcile this account id")
	fix := flag.Bool("fix", false, "rewrite drifted balances")
	flag.Parse()

	ctx := utils.SetSkipOwnerScopeInContext(context.Background(), true)
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var drifts []workflow.BalanceDrift
	if *accountId > 0 {
		var account models.Account
		if err := db.WithContext(ctx).Select("id", "owner_id").Where("id = ?", *accountId).Take(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fmt.Fprintf(os.Stderr, "account %d not found\n", *accountId)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "failed to load account: %v\n", err)
			os.Exit(1)
		}
		drift, err := workflow.ReconcileAccount(ctx, db, account.OwnerId, account.ID, *fix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reconcile failed: %v\n", err)
			os.Exit(1)
		}
		drifts = append(drifts, *drift)
	} else {
		var err error
		drifts, err = workflow.ReconcileAllAccounts(ctx, db, *fix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reconcile failed after %d accounts: %v\n", len(drifts), err)
			os.Exit(1)
		}
	}

	unfixed := 0
	for _, d := range drifts {
		if d.InSync() {
			continue
		}
		fmt.Printf("account=%d owner=%s cached=%s computed=%s diff=%s fixed=%t\n",
			d.AccountId, d.OwnerId, d.Cached.StringFixed(2), d.Computed.StringFixed(2), d.Difference().StringFixed(2), d.Fixed)
		if !d.Fixed {
			unfixed++
		}
	}
	fmt.Printf("checked %d accounts, %d drifted and unfixed\n", len(drifts), unfixed)
	if unfixed > 0 {
		os.Exit(4)
	}
}
