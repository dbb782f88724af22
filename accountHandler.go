package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/models/reports"
)

func (a *api) listAccounts(c *gin.Context) {
	accounts, err := models.ListAccounts(c.Request.Context(), a.db(), ownerId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (a *api) createAccount(c *gin.Context) {
	var input models.NewAccount
	if !bindJSON(c, &input) {
		return
	}
	account, err := models.CreateAccount(c.Request.Context(), a.db(), ownerId(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (a *api) getAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	account, err := models.GetAccount(c.Request.Context(), a.db(), ownerId(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (a *api) updateAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.NewAccount
	if !bindJSON(c, &input) {
		return
	}
	account, err := models.UpdateAccount(c.Request.Context(), a.db(), ownerId(c), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (a *api) deleteAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := models.DeleteAccount(c.Request.Context(), a.db(), ownerId(c), id); err != nil {
		respondError(c, err)
		return
	}
	reports.InvalidateOwnerReports(c.Request.Context(), ownerId(c))
	c.Status(http.StatusNoContent)
}

func (a *api) listAccountTransactions(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	transactions, err := models.ListAccountTransactions(c.Request.Context(), a.db(), ownerId(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}
