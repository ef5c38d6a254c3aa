package server

import (
	"errors"
	"net/http"

	"github.com/advicelib/backend/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type sessionResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleSignUp(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.accounts.SignUp(c.Request.Context(), request.Email, request.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_email"})
		return
	case errors.Is(err, auth.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_password"})
		return
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
		return
	case err != nil:
		h.logger.Error("sign-up failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup_failed"})
		return
	}

	c.JSON(http.StatusCreated, accountPayload{UserID: account.UserID, Email: account.Email})
}

func (h *httpHandler) handleSignIn(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.accounts.SignIn(c.Request.Context(), request.Email, request.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}
	if err != nil {
		h.logger.Error("sign-in failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signin_failed"})
		return
	}

	token, expiresIn, err := h.sessions.IssueSessionToken(c.Request.Context(), account.UserID)
	if err != nil {
		h.logger.Error("session issue failed", zap.String("user_id", account.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session_issue_failed"})
		return
	}

	c.SetCookie(h.sessions.CookieName(), token, int(h.sessions.SessionTTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, sessionResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) handleSignOut(c *gin.Context) {
	c.SetCookie(h.sessions.CookieName(), "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleMe(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), userID)
	if errors.Is(err, auth.ErrAccountNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err != nil {
		h.logger.Error("account fetch failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account_fetch_failed"})
		return
	}

	c.JSON(http.StatusOK, accountPayload{UserID: account.UserID, Email: account.Email})
}
