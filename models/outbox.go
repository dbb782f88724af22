package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Outbox publish statuses for TransactionEvent.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

type EventAction string

const (
	EventActionCreated EventAction = "created"
	EventActionUpdated EventAction = "updated"
	EventActionDeleted EventAction = "deleted"
)

// TransactionEvent is written in the same database transaction as the posting
// it describes, then published after commit by the outbox dispatcher.
type TransactionEvent struct {
	ID               int         `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	OwnerId          string      `gorm:"size:36;not null;index" json:"owner_id"`
	AccountId        int         `gorm:"not null;index" json:"account_id"`
	TransactionId    int         `gorm:"not null;index" json:"transaction_id"`
	Action           EventAction `gorm:"size:10;not null" json:"action"`
	Payload          []byte      `gorm:"type:blob" json:"payload"`
	CorrelationId    string      `gorm:"size:64;index" json:"correlation_id"`
	PublishStatus    string      `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishAttempts  int         `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time  `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time  `gorm:"index" json:"locked_at"`
	LockedBy         *string     `gorm:"size:100" json:"locked_by"`
	LastPublishError *string     `gorm:"type:text" json:"last_publish_error"`
	BrokerMessageId  *string     `gorm:"size:255" json:"broker_message_id"`
	PublishedAt      *time.Time  `gorm:"index" json:"published_at"`
	CreatedAt        time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TransactionEventPayload is the published body.
type TransactionEventPayload struct {
	Action         EventAction     `json:"action"`
	OwnerId        string          `json:"owner_id"`
	AccountId      int             `json:"account_id"`
	TransactionId  int             `json:"transaction_id"`
	Type           TransactionType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Category       string          `json:"category"`
	AccountBalance decimal.Decimal `json:"account_balance"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// RecordTransactionEvent enqueues an event on tx. t is the row after the change
// (before it, for deletes); account carries the resulting balance.
func RecordTransactionEvent(ctx context.Context, tx *gorm.DB, action EventAction, t *Transaction, account *Account, now time.Time) error {
	payload, err := json.Marshal(TransactionEventPayload{
		Action:         action,
		OwnerId:        t.OwnerId,
		AccountId:      t.AccountId,
		TransactionId:  t.ID,
		Type:           t.Type,
		Amount:         t.Amount,
		Category:       t.Category,
		AccountBalance: account.Balance,
		OccurredAt:     now,
	})
	if err != nil {
		return err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	event := TransactionEvent{
		OwnerId:       t.OwnerId,
		AccountId:     t.AccountId,
		TransactionId: t.ID,
		Action:        action,
		Payload:       payload,
		CorrelationId: correlationId,
		PublishStatus: OutboxPublishStatusPending,
	}
	return tx.Create(&event).Error
}

// ReplayTransactionEvent puts a FAILED/DEAD event back in the queue as PENDING
// with a fresh attempt budget.
func ReplayTransactionEvent(ctx context.Context, db *gorm.DB, id int) error {
	result := db.WithContext(ctx).
		Model(&TransactionEvent{}).
		Where("id = ? AND publish_status IN ?", id, []string{OutboxPublishStatusFailed, OutboxPublishStatusDead}).
		Updates(map[string]interface{}{
			"publish_status":     OutboxPublishStatusPending,
			"publish_attempts":   0,
			"next_attempt_at":    nil,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
