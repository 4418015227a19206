package handler

import (
	"errors"
	"net/http"
	"strings"

	"session-guard/internal/auth/credentials"
	"session-guard/internal/logger"

	"github.com/gin-gonic/gin"
)

type passwordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) bindPassword(c *gin.Context) (passwordRequest, bool) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return req, false
	}
	req.Email = strings.TrimSpace(req.Email)
	return req, true
}

func (h *Handler) passwordLogin(c *gin.Context) {
	if h.accounts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "password login disabled"})
		return
	}

	req, ok := h.bindPassword(c)
	if !ok {
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, credentials.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		logger.Error("password login failed", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_in"})
}

func (h *Handler) register(c *gin.Context) {
	if h.accounts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "password login disabled"})
		return
	}

	req, ok := h.bindPassword(c)
	if !ok {
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, credentials.ErrAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
		return
	case errors.Is(err, credentials.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.Error("registration failed", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	if err := h.profiles.Ensure(c.Request.Context(), user.ID); err != nil {
		logger.Error("profile creation failed", map[string]any{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}
