package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

const IdempotencyOperationCreateTransaction = "create_transaction"

const maxIdempotencyKeyLength = 255

// IdempotencyKey remembers which transaction a client-supplied key produced.
// The row is written in the same DB transaction as the posting, so a key exists
// only for postings that committed.
// Unique constraint: (owner_id, operation, idempotency_key).
type IdempotencyKey struct {
	ID            int       `gorm:"primary_key" json:"id"`
	OwnerId       string    `gorm:"size:36;not null;index:uniq_idem,unique" json:"owner_id"`
	Owner         *User     `gorm:"foreignKey:OwnerId;constraint:OnDelete:CASCADE" json:"-"`
	Operation     string    `gorm:"size:100;not null;index:uniq_idem,unique" json:"operation"`
	Key           string    `gorm:"column:idempotency_key;size:255;not null;index:uniq_idem,unique" json:"key"`
	TransactionId int       `gorm:"not null;index" json:"transaction_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func NormalizeIdempotencyKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if len(key) > maxIdempotencyKeyLength {
		return "", errors.New("idempotency key is too long")
	}
	return key, nil
}

// SaveIdempotencyKey must run inside the posting transaction.
func SaveIdempotencyKey(tx *gorm.DB, ownerId string, operation string, key string, transactionId int) error {
	return tx.Create(&IdempotencyKey{
		OwnerId:       ownerId,
		Operation:     operation,
		Key:           key,
		TransactionId: transactionId,
	}).Error
}

// FindIdempotentTransaction returns the transaction an earlier request with the
// same key created. ok is false when the key is unused. A key whose transaction
// was deleted since reports ErrorRecordNotFound.
func FindIdempotentTransaction(ctx context.Context, db *gorm.DB, ownerId string, operation string, key string) (result *Transaction, ok bool, err error) {
	var record IdempotencyKey
	err = db.WithContext(ctx).
		Where("owner_id = ? AND operation = ? AND idempotency_key = ?", ownerId, operation, key).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	t, err := GetTransaction(ctx, db, ownerId, record.TransactionId)
	if err != nil {
		return nil, true, err
	}
	return t, true, nil
}
