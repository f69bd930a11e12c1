package main

import (
	"context"
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/scrub_backend/models"
	"bitbucket.org/mmdatafocus/scrub_backend/utils"
	"github.com/gin-gonic/gin"
)

type signinRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func signinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "username and password are required",
				"fields": utils.ProcessValidationErrors(err),
			})
			return
		}

		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": info})
	}
}

func signoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ok, err := models.Logout(c.Request.Context())
		if err != nil || !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signout failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": true})
	}
}

// getSessionUser resolves the authenticated user, preferring the
// Redis cache over a DB round trip.
func getSessionUser(ctx context.Context) (*models.User, error) {
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return nil, errors.New("unauthorized")
	}

	user, err := models.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.New("unauthorized")
	}
	if user.BusinessId == "" && user.Role != models.UserRoleAdmin {
		return nil, errors.New("unauthorized")
	}
	return user, nil
}
