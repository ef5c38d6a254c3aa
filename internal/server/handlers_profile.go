package server

import (
	"errors"
	"net/http"

	"github.com/advicelib/backend/internal/posts"
	"github.com/advicelib/backend/internal/profiles"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type profilePayload struct {
	UserID      string        `json:"user_id"`
	DisplayName string        `json:"display_name"`
	AvatarURL   string        `json:"avatar_url"`
	Bio         string        `json:"bio"`
	Posts       []postPayload `json:"posts,omitempty"`
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	response := profilePayload{UserID: userID}

	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, profiles.ErrProfileNotFound) {
		h.logger.Error("profile fetch failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_fetch_failed"})
		return
	}
	if err == nil {
		response.DisplayName = profile.DisplayName
		response.AvatarURL = profile.AvatarURL
		response.Bio = profile.Bio
	}

	owner, err := posts.NewUserID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	owned, err := h.posts.ListByUser(c.Request.Context(), owner)
	if err != nil {
		h.logger.Error("own post listing failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_fetch_failed"})
		return
	}
	for _, post := range owned {
		response.Posts = append(response.Posts, makePostPayload(post, nil))
	}

	c.JSON(http.StatusOK, response)
}

type updateProfilePayload struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request updateProfilePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	stored, err := h.profiles.Upsert(c.Request.Context(), profiles.Profile{
		UserID:      userID,
		DisplayName: request.DisplayName,
		AvatarURL:   request.AvatarURL,
		Bio:         request.Bio,
	})
	if err != nil {
		h.logger.Error("profile upsert failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_update_failed"})
		return
	}

	c.JSON(http.StatusOK, profilePayload{
		UserID:      stored.UserID,
		DisplayName: stored.DisplayName,
		AvatarURL:   stored.AvatarURL,
		Bio:         stored.Bio,
	})
}

// handleAvatarUpload stores the uploaded image, then links its public URL into
// the profile. The stored object is deliberately not rolled back when the
// profile update fails.
func (h *httpHandler) handleAvatarUpload(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
		return
	}
	defer file.Close()

	key, err := h.avatars.Save(userID, fileHeader.Filename, file)
	if err != nil {
		h.logger.Error("avatar upload failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
		return
	}
	avatarURL := h.avatars.PublicURL(key)

	current, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, profiles.ErrProfileNotFound) {
		h.logger.Error("profile fetch failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_update_failed"})
		return
	}

	if _, err := h.profiles.Upsert(c.Request.Context(), profiles.Profile{
		UserID:      userID,
		DisplayName: current.DisplayName,
		AvatarURL:   avatarURL,
		Bio:         current.Bio,
	}); err != nil {
		h.logger.Error("avatar link failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_update_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": avatarURL})
}
