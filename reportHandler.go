package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/models/reports"
	"github.com/mmdatafocus/fintech_backend/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (a *api) reportByCategory(c *gin.Context) {
	transactions, err := models.GetTransactionsByCategory(c.Request.Context(), a.db(), ownerId(c), c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (a *api) reportByDateRange(c *gin.Context) {
	if strings.TrimSpace(c.Query("startDate")) == "" || strings.TrimSpace(c.Query("endDate")) == "" {
		respondError(c, fmt.Errorf("%w: startDate and endDate are required", utils.ErrorInvalidOperation))
		return
	}
	filter, err := transactionFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	transactions, err := models.GetTransactionsByDateRange(c.Request.Context(), a.db(), ownerId(c), *filter.From, *filter.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (a *api) reportTotalAmount(c *gin.Context) {
	filter, err := transactionFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := models.GetTotalAmount(c.Request.Context(), a.db(), ownerId(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (a *api) reportSummary(c *gin.Context) {
	filter, err := transactionFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := reports.CachedSummary(c.Request.Context(), a.db(), ownerId(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *api) reportAnomalies(c *gin.Context) {
	threshold := a.anomalyThreshold
	if v := strings.TrimSpace(c.Query("threshold")); v != "" {
		d, err := utils.ParseDecimal(v)
		if err != nil || !d.IsPositive() {
			respondError(c, fmt.Errorf("%w: threshold must be a positive number", utils.ErrorInvalidOperation))
			return
		}
		threshold = d
	}
	transactions, err := models.DetectAnomalies(c.Request.Context(), a.db(), ownerId(c), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threshold": threshold, "transactions": transactions})
}

func (a *api) exportTransactions(c *gin.Context) {
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
	filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := reports.ExportTransactionsExcel(c.Writer, transactions); err != nil {
		_ = c.Error(err)
	}
}
