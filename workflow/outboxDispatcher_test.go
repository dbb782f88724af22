package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/fintech_backend/events"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/testutils"
	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/mmdatafocus/fintech_backend/workflow"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestOutboxDispatcher_PublishesAndMarksSent(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "dispatch@example.com")
	account := testutils.MustCreateAccount(t, ctx, db, user.ID, "Dispatch")
	tx := mustCreate(t, ctx, db, user.ID, newTx(t, account.ID, models.TransactionTypeIncome, "12.50", "Salary"))

	publisher := &events.MemoryPublisher{}
	d := workflow.NewOutboxDispatcher(db, nil, publisher)
	sent, err := d.DispatchOnce(context.Background())
	if err != nil {
		t.Fatalf("DispatchOnce: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}

	msgs := publisher.Messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	var payload models.TransactionEventPayload
	if err := json.Unmarshal(msgs[0].Data, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Action != models.EventActionCreated || payload.TransactionId != tx.ID || !payload.AccountBalance.Equal(testutils.Dec(t, "12.50")) {
		t.Fatalf("payload = %+v", payload)
	}
	if msgs[0].Attributes["action"] != string(models.EventActionCreated) {
		t.Fatalf("attributes = %v", msgs[0].Attributes)
	}

	var event models.TransactionEvent
	if err := db.First(&event).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if event.PublishStatus != models.OutboxPublishStatusSent || event.PublishedAt == nil {
		t.Fatalf("event status = %s published_at = %v", event.PublishStatus, event.PublishedAt)
	}

	// nothing left to do
	if sent, err := d.DispatchOnce(context.Background()); err != nil || sent != 0 {
		t.Fatalf("second DispatchOnce = %d, %v", sent, err)
	}
}

func TestOutboxDispatcher_FailureBacksOffThenGoesDead(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "dead@example.com")
	account := testutils.MustCreateAccount(t, ctx, db, user.ID, "Dead")
	mustCreate(t, ctx, db, user.ID, newTx(t, account.ID, models.TransactionTypeExpense, "3.00", "Fee"))

	publisher := &events.MemoryPublisher{Err: errors.New("broker down")}
	d := workflow.NewOutboxDispatcher(db, nil, publisher)
	d.MaxAttempts = 2
	d.InitialBackoff = time.Hour

	if sent, err := d.DispatchOnce(context.Background()); err != nil || sent != 0 {
		t.Fatalf("DispatchOnce = %d, %v", sent, err)
	}
	var event models.TransactionEvent
	if err := db.First(&event).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if event.PublishStatus != models.OutboxPublishStatusFailed || event.PublishAttempts != 1 {
		t.Fatalf("after first failure: status=%s attempts=%d", event.PublishStatus, event.PublishAttempts)
	}
	if event.NextAttemptAt == nil || event.NextAttemptAt.Before(time.Now().Add(30*time.Minute)) {
		t.Fatalf("next_attempt_at = %v, want about an hour out", event.NextAttemptAt)
	}

	// backoff not elapsed: not claimed
	if sent, err := d.DispatchOnce(context.Background()); err != nil || sent != 0 {
		t.Fatalf("DispatchOnce during backoff = %d, %v", sent, err)
	}

	// make it due and fail again: attempt 2 reaches MaxAttempts
	if err := db.Model(&models.TransactionEvent{}).Where("id = ?", event.ID).Update("next_attempt_at", time.Now().UTC().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("make due: %v", err)
	}
	if _, err := d.DispatchOnce(context.Background()); err != nil {
		t.Fatalf("DispatchOnce: %v", err)
	}
	if err := db.First(&event, event.ID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if event.PublishStatus != models.OutboxPublishStatusDead {
		t.Fatalf("status = %s, want DEAD", event.PublishStatus)
	}

	// replay puts it back in the queue; a healthy broker then delivers it
	if err := models.ReplayTransactionEvent(context.Background(), db, event.ID); err != nil {
		t.Fatalf("ReplayTransactionEvent: %v", err)
	}
	var replayed models.TransactionEvent
	if err := db.First(&replayed, event.ID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if replayed.PublishStatus != models.OutboxPublishStatusPending || replayed.PublishAttempts != 0 || replayed.NextAttemptAt != nil {
		t.Fatalf("after replay: status=%s attempts=%d next=%v, want PENDING/0/nil", replayed.PublishStatus, replayed.PublishAttempts, replayed.NextAttemptAt)
	}
	if err := models.ReplayTransactionEvent(context.Background(), db, event.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("replaying a PENDING event: err = %v, want not found", err)
	}
	publisher.Err = nil
	if sent, err := d.DispatchOnce(context.Background()); err != nil || sent != 1 {
		t.Fatalf("DispatchOnce after replay = %d, %v", sent, err)
	}
}

// hookPublisher runs fn before each successful publish.
type hookPublisher struct {
	fn func()
}

func (p hookPublisher) Publish(context.Context, events.Message) (string, error) {
	p.fn()
	return "msg-1", nil
}

func (p hookPublisher) Close() error { return nil }

func TestOutboxDispatcher_LogsFailedStatusUpdate(t *testing.T) {
	db := testutils.OpenTestDB(t)
	user, ctx := testutils.MustRegister(t, db, "lost@example.com")
	account := testutils.MustCreateAccount(t, ctx, db, user.ID, "Lost")
	mustCreate(t, ctx, db, user.ID, newTx(t, account.ID, models.TransactionTypeIncome, "1.00", "Tip"))

	logger, hook := logtest.NewNullLogger()
	publisher := hookPublisher{fn: func() {
		if err := db.Migrator().DropTable(&models.TransactionEvent{}); err != nil {
			t.Errorf("drop outbox table: %v", err)
		}
	}}
	d := workflow.NewOutboxDispatcher(db, logger, publisher)
	if _, err := d.DispatchOnce(context.Background()); err != nil {
		t.Fatalf("DispatchOnce: %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error log, got %v", entry)
	}
	if entry.Data["status"] != models.OutboxPublishStatusSent {
		t.Fatalf("logged status = %v, want SENT", entry.Data["status"])
	}
}
