package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/sirupsen/logrus"
)

const postingLockTTL = 10 * time.Second

func postingLockKey(accountId int) string {
	return fmt.Sprintf("posting:account:%d", accountId)
}

// AcquireAccountPostingLock serializes postings per account across instances to
// cut down on version conflicts. It is best-effort: without Redis, or when the
// lock stays busy, posting proceeds and the version check keeps it correct.
// The returned release func is always safe to call.
func AcquireAccountPostingLock(ctx context.Context, accountId int) func() {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}
	}
	logger := config.GetLogger()

	lock, err := locker.Obtain(ctx, postingLockKey(accountId), postingLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(25*time.Millisecond), 40),
	})
	if err != nil {
		msg := "error obtaining posting lock; proceeding without it: "
		if errors.Is(err, redislock.ErrNotObtained) {
			msg = "posting lock busy; proceeding without it: "
		}
		logger.WithFields(logrus.Fields{
			"field":      "AcquireAccountPostingLock",
			"account_id": accountId,
		}).Warn(msg + err.Error())
		return func() {}
	}

	return func() {
		// ctx may already be cancelled; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if releaseErr := lock.Release(releaseCtx); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			logger.WithFields(logrus.Fields{
				"field":      "AcquireAccountPostingLock",
				"account_id": accountId,
			}).Warn("failed to release posting lock: " + releaseErr.Error())
		}
	}
}
