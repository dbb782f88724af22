package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/mmdatafocus/fintech_backend/workflow"
)

// transactionFilterFromQuery reads account_id, type, category, startDate,
// endDate and min_amount. Malformed values are invalid operations.
func transactionFilterFromQuery(c *gin.Context) (models.TransactionFilter, error) {
	var filter models.TransactionFilter
	if v := strings.TrimSpace(c.Query("account_id")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("%w: account_id must be a positive integer", utils.ErrorInvalidOperation)
		}
		filter.AccountId = id
	}
	if v := strings.TrimSpace(c.Query("type")); v != "" {
		t, err := models.ParseTransactionType(v)
		if err != nil {
			return filter, err
		}
		filter.Type = t
	}
	filter.Category = c.Query("category")
	if v := strings.TrimSpace(c.Query("startDate")); v != "" {
		from, err := utils.ParseDateBound(v, false)
		if err != nil {
			return filter, fmt.Errorf("%w: startDate: %v", utils.ErrorInvalidOperation, err)
		}
		filter.From = &from
	}
	if v := strings.TrimSpace(c.Query("endDate")); v != "" {
		to, err := utils.ParseDateBound(v, true)
		if err != nil {
			return filter, fmt.Errorf("%w: endDate: %v", utils.ErrorInvalidOperation, err)
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, fmt.Errorf("%w: startDate is after endDate", utils.ErrorInvalidOperation)
	}
	if v := strings.TrimSpace(c.Query("min_amount")); v != "" {
		d, err := utils.ParseDecimal(v)
		if err != nil {
			return filter, fmt.Errorf("%w: min_amount: %v", utils.ErrorInvalidOperation, err)
		}
		filter.MinAmount = &d
	}
	return filter, nil
}

func (a *api) listTransactions(c *gin.Context) {
	filter, err := transactionFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	transactions, err := models.ListTransactions(c.Request.Context(), a.db(), ownerId(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (a *api) createTransaction(c *gin.Context) {
	var input models.NewTransaction
	if !bindJSON(c, &input) {
		return
	}
	t, replayed, err := workflow.CreateTransactionOnce(c.Request.Context(), a.db(), ownerId(c), c.GetHeader("Idempotency-Key"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	if replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, t)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (a *api) getTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	t, err := models.GetTransaction(c.Request.Context(), a.db(), ownerId(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *api) updateTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.NewTransaction
	if !bindJSON(c, &input) {
		return
	}
	t, err := workflow.UpdateTransaction(c.Request.Context(), a.db(), ownerId(c), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *api) deleteTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := workflow.DeleteTransaction(c.Request.Context(), a.db(), ownerId(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
