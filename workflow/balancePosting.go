package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/models/reports"
	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("fintech_backend/workflow")

// A posting is tried at most this many times: the first attempt plus one
// replay from a fresh read after losing the version race.
const maxPostingAttempts = 2

var errVersionConflict = errors.New("account version changed")

// beforeWrite runs between the read and write phase of every attempt. Tests use
// it to simulate a concurrent writer.
var beforeWrite func(ctx context.Context, db *gorm.DB, attempt int)

// afterAccountRead runs between the account and transaction reads of an
// update or delete attempt.
var afterAccountRead func(ctx context.Context, db *gorm.DB, attempt int)

// SignedDelta is the balance contribution of one transaction.
func SignedDelta(transactionType models.TransactionType, amount decimal.Decimal) (decimal.Decimal, error) {
	return transactionType.SignedAmount(amount)
}

// PostCreate returns the account balance after applying t.
func PostCreate(account *models.Account, t *models.Transaction, now time.Time) (decimal.Decimal, error) {
	delta, err := SignedDelta(t.Type, t.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return account.Balance.Add(delta), nil
}

// PostUpdate returns the balance after replacing old with updated. Reversal and
// re-application are folded into one delta so the balance is written once.
func PostUpdate(account *models.Account, old *models.Transaction, updated *models.Transaction, now time.Time) (decimal.Decimal, error) {
	if updated.AccountId != old.AccountId {
		return decimal.Zero, fmt.Errorf("%w: a transaction cannot be moved to another account", utils.ErrorInvalidOperation)
	}
	oldDelta, err := SignedDelta(old.Type, old.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	newDelta, err := SignedDelta(updated.Type, updated.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	updated.UpdatedAt = now
	return account.Balance.Add(newDelta.Sub(oldDelta)), nil
}

// PostDelete returns the balance after reversing t.
func PostDelete(account *models.Account, t *models.Transaction) (decimal.Decimal, error) {
	delta, err := SignedDelta(t.Type, t.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance.Sub(delta), nil
}

// withOptimisticRetry replays fn once when it loses a version race (or MySQL
// reports a deadlock). fn must re-read everything it depends on. After the last
// conflict, exists decides between NotFound (the account is gone) and
// ErrorConcurrencyConflict.
func withOptimisticRetry(ctx context.Context, operation string, exists func() error, fn func(attempt int) error) error {
	var err error
	for attempt := 1; attempt <= maxPostingAttempts; attempt++ {
		err = fn(attempt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errVersionConflict) && !utils.IsRetryableDBErr(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		config.GetLogger().WithFields(logrus.Fields{
			"field":     "withOptimisticRetry",
			"operation": operation,
			"attempt":   attempt,
		}).Warn("posting conflict: " + err.Error())
	}
	if existsErr := exists(); existsErr != nil {
		return existsErr
	}
	return fmt.Errorf("%w: %s: %v", utils.ErrorConcurrencyConflict, operation, err)
}

func startSpan(ctx context.Context, name string, ownerId string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("owner.id", ownerId)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func accountExists(ctx context.Context, db *gorm.DB, ownerId string, accountId int) func() error {
	return func() error {
		return utils.ValidateOwnedResourceId[models.Account](ctx, db, ownerId, accountId)
	}
}

func saveBalance(tx *gorm.DB, account *models.Account, balance decimal.Decimal, now time.Time) error {
	ok, err := models.SaveAccountBalance(tx, account, balance, account.Version, now)
	if err != nil {
		return err
	}
	if !ok {
		return errVersionConflict
	}
	return nil
}

// CreateTransaction records a new income/expense on one of the owner's accounts
// and moves the account balance by its signed amount, atomically.
func CreateTransaction(ctx context.Context, db *gorm.DB, ownerId string, input *models.NewTransaction) (*models.Transaction, error) {
	return createTransaction(ctx, db, ownerId, input, "")
}

func createTransaction(ctx context.Context, db *gorm.DB, ownerId string, input *models.NewTransaction, idempotencyKey string) (result *models.Transaction, err error) {
	ctx, span := startSpan(ctx, "workflow.CreateTransaction", ownerId)
	defer func() { endSpan(span, err) }()

	if ownerId == "" {
		return nil, utils.ErrorUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("account.id", input.AccountId))

	release := AcquireAccountPostingLock(ctx, input.AccountId)
	defer release()

	err = withOptimisticRetry(ctx, "create transaction", accountExists(ctx, db, ownerId, input.AccountId), func(attempt int) error {
		account, err := models.GetAccount(ctx, db, ownerId, input.AccountId)
		if err != nil {
			return err
		}
		if beforeWrite != nil {
			beforeWrite(ctx, db, attempt)
		}

		now := time.Now().UTC()
		t := &models.Transaction{
			AccountId:       account.ID,
			OwnerId:         account.OwnerId,
			Amount:          input.Amount,
			Type:            input.Type,
			Category:        input.Category,
			Description:     input.Description,
			Currency:        input.Currency,
			TransactionDate: utils.DereferencePtr(input.TransactionDate, now).UTC(),
		}
		if t.Currency == "" {
			t.Currency = account.Currency
		}
		balance, err := PostCreate(account, t, now)
		if err != nil {
			return err
		}

		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := saveBalance(tx, account, balance, now); err != nil {
				return err
			}
			if err := tx.Create(t).Error; err != nil {
				return err
			}
			if idempotencyKey != "" {
				if err := models.SaveIdempotencyKey(tx, ownerId, models.IdempotencyOperationCreateTransaction, idempotencyKey, t.ID); err != nil {
					return err
				}
			}
			if err := models.RecordTransactionEvent(ctx, tx, models.EventActionCreated, t, account, now); err != nil {
				return err
			}
			result = t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	reports.InvalidateOwnerReports(ctx, ownerId)
	return result, nil
}

// UpdateTransaction replaces the editable fields of a transaction and moves the
// account balance by the difference. Moving a transaction between accounts is
// rejected before anything is written.
func UpdateTransaction(ctx context.Context, db *gorm.DB, ownerId string, id int, input *models.NewTransaction) (result *models.Transaction, err error) {
	ctx, span := startSpan(ctx, "workflow.UpdateTransaction", ownerId)
	defer func() { endSpan(span, err) }()

	if ownerId == "" {
		return nil, utils.ErrorUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("transaction.id", id))

	old, err := models.GetTransaction(ctx, db, ownerId, id)
	if err != nil {
		return nil, err
	}
	if input.AccountId != old.AccountId {
		return nil, fmt.Errorf("%w: a transaction cannot be moved to another account", utils.ErrorInvalidOperation)
	}

	release := AcquireAccountPostingLock(ctx, old.AccountId)
	defer release()

	accountId := old.AccountId
	err = withOptimisticRetry(ctx, "update transaction", accountExists(ctx, db, ownerId, accountId), func(attempt int) error {
		// Account before transaction: any write to the row committed after this
		// read also bumped the version, so the write phase will conflict.
		account, err := models.GetAccount(ctx, db, ownerId, accountId)
		if err != nil {
			return err
		}
		if afterAccountRead != nil {
			afterAccountRead(ctx, db, attempt)
		}
		old, err := models.GetTransaction(ctx, db, ownerId, id)
		if err != nil {
			return err
		}
		if beforeWrite != nil {
			beforeWrite(ctx, db, attempt)
		}

		now := time.Now().UTC()
		updated := *old
		updated.AccountId = input.AccountId
		updated.Amount = input.Amount
		updated.Type = input.Type
		updated.Category = input.Category
		updated.Description = input.Description
		if input.Currency != "" {
			updated.Currency = input.Currency
		}
		if input.TransactionDate != nil {
			updated.TransactionDate = input.TransactionDate.UTC()
		}
		balance, err := PostUpdate(account, old, &updated, now)
		if err != nil {
			return err
		}

		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := saveBalance(tx, account, balance, now); err != nil {
				return err
			}
			// Every write to this row bumps the account version, and the
			// account was read before the row, so old is current here.
			// RowsAffected is not checked: MySQL reports 0 for unchanged rows.
			if err := tx.Model(&models.Transaction{}).
				Where("id = ? AND owner_id = ?", updated.ID, ownerId).
				Updates(map[string]interface{}{
					"amount":           updated.Amount,
					"type":             updated.Type,
					"category":         updated.Category,
					"description":      updated.Description,
					"currency":         updated.Currency,
					"transaction_date": updated.TransactionDate,
					"updated_at":       now,
				}).Error; err != nil {
				return err
			}
			if err := models.RecordTransactionEvent(ctx, tx, models.EventActionUpdated, &updated, account, now); err != nil {
				return err
			}
			result = &updated
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	reports.InvalidateOwnerReports(ctx, ownerId)
	return result, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the balance.
func DeleteTransaction(ctx context.Context, db *gorm.DB, ownerId string, id int) (err error) {
	ctx, span := startSpan(ctx, "workflow.DeleteTransaction", ownerId)
	defer func() { endSpan(span, err) }()

	if ownerId == "" {
		return utils.ErrorUnauthorized
	}
	span.SetAttributes(attribute.Int("transaction.id", id))

	existing, err := models.GetTransaction(ctx, db, ownerId, id)
	if err != nil {
		return err
	}
	release := AcquireAccountPostingLock(ctx, existing.AccountId)
	defer release()

	err = withOptimisticRetry(ctx, "delete transaction", accountExists(ctx, db, ownerId, existing.AccountId), func(attempt int) error {
		account, err := models.GetAccount(ctx, db, ownerId, existing.AccountId)
		if err != nil {
			return err
		}
		if afterAccountRead != nil {
			afterAccountRead(ctx, db, attempt)
		}
		t, err := models.GetTransaction(ctx, db, ownerId, id)
		if err != nil {
			return err
		}
		if beforeWrite != nil {
			beforeWrite(ctx, db, attempt)
		}

		now := time.Now().UTC()
		balance, err := PostDelete(account, t)
		if err != nil {
			return err
		}

		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := saveBalance(tx, account, balance, now); err != nil {
				return err
			}
			res := tx.Where("id = ? AND owner_id = ?", t.ID, ownerId).Delete(&models.Transaction{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errVersionConflict
			}
			return models.RecordTransactionEvent(ctx, tx, models.EventActionDeleted, t, account, now)
		})
	})
	if err != nil {
		return err
	}
	reports.InvalidateOwnerReports(ctx, ownerId)
	return nil
}
