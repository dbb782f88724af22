package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateTransactionOnce is CreateTransaction keyed by a client-supplied
// idempotency key. A repeated key returns the transaction the first request
// created, with replayed set, and leaves the balance alone. An empty key
// behaves like CreateTransaction.
func CreateTransactionOnce(ctx context.Context, db *gorm.DB, ownerId string, key string, input *models.NewTransaction) (result *models.Transaction, replayed bool, err error) {
	key, err = models.NormalizeIdempotencyKey(key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", utils.ErrorInvalidOperation, err)
	}
	if key == "" {
		result, err = CreateTransaction(ctx, db, ownerId, input)
		return result, false, err
	}
	if ownerId == "" {
		return nil, false, utils.ErrorUnauthorized
	}

	if existing, ok, err := models.FindIdempotentTransaction(ctx, db, ownerId, models.IdempotencyOperationCreateTransaction, key); ok || err != nil {
		return existing, ok, err
	}

	result, err = createTransaction(ctx, db, ownerId, input, key)
	if err == nil {
		return result, false, nil
	}
	if !utils.IsDuplicateKeyErr(err) {
		return nil, false, err
	}

	// a concurrent request with the same key committed first
	config.GetLogger().WithFields(logrus.Fields{
		"field":    "CreateTransactionOnce",
		"owner_id": ownerId,
	}).Info("idempotency key raced, returning the committed transaction")
	existing, ok, findErr := models.FindIdempotentTransaction(ctx, db, ownerId, models.IdempotencyOperationCreateTransaction, key)
	if findErr != nil {
		return nil, false, findErr
	}
	if !ok {
		return nil, false, err
	}
	return existing, true, nil
}
