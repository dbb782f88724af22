package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
)

const authCookieName = "Authorization"

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *api) register(c *gin.Context) {
	var input models.NewUser
	if !bindJSON(c, &input) {
		return
	}
	user, err := models.RegisterUser(c.Request.Context(), a.db(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (a *api) login(c *gin.Context) {
	var input loginRequest
	if !bindJSON(c, &input) {
		return
	}
	info, err := models.Login(c.Request.Context(), a.db(), a.auth, input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	maxAge := int(time.Until(info.Expiration).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(authCookieName, info.Token, maxAge, "/", "", config.IsProduction(), true)
	c.JSON(http.StatusOK, info)
}

func (a *api) logout(c *gin.Context) {
	if err := models.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.SetCookie(authCookieName, "", -1, "/", "", config.IsProduction(), true)
	c.Status(http.StatusNoContent)
}

func (a *api) getMe(c *gin.Context) {
	user, err := models.GetUser(c.Request.Context(), a.db(), ownerId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// deleteMe removes the caller together with every account and transaction they own.
func (a *api) deleteMe(c *gin.Context) {
	ctx := c.Request.Context()
	if err := models.DeleteUser(ctx, a.db(), ownerId(c)); err != nil {
		respondError(c, err)
		return
	}
	_ = models.Logout(ctx)
	c.Status(http.StatusNoContent)
}
