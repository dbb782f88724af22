package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/mmdatafocus/fintech_backend/workflow"
	"github.com/sirupsen/logrus"
)

func (a *api) deleteUserByEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		respondError(c, fmt.Errorf("%w: email is required", utils.ErrorInvalidOperation))
		return
	}
	if err := models.DeleteUserByEmail(c.Request.Context(), a.db(), email); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// replayOutboxEvent re-queues a FAILED or DEAD event for any owner.
func (a *api) replayOutboxEvent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := utils.SetSkipOwnerScopeInContext(c.Request.Context(), true)
	if err := models.ReplayTransactionEvent(ctx, a.db(), id); err != nil {
		respondError(c, err)
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"field":          "OutboxReplay",
		"event_id":       id,
		"correlation_id": cid,
	}).Info("outbox event re-queued")
	c.JSON(http.StatusOK, gin.H{"id": id, "publish_status": models.OutboxPublishStatusPending})
}

// reconcileBalances reports drift for every account; ?fix=true rewrites drifted balances.
func (a *api) reconcileBalances(c *gin.Context) {
	fix := strings.EqualFold(c.Query("fix"), "true")
	drifts, err := workflow.ReconcileAllAccounts(c.Request.Context(), a.db(), fix)
	if err != nil {
		respondError(c, err)
		return
	}
	drifted := make([]workflow.BalanceDrift, 0)
	for _, d := range drifts {
		if !d.InSync() {
			drifted = append(drifted, d)
		}
	}
	c.JSON(http.StatusOK, gin.H{"checked": len(drifts), "drifted": drifted})
}
