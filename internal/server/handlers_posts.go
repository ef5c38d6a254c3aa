package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/advicelib/backend/internal/comments"
	"github.com/advicelib/backend/internal/feed"
	"github.com/advicelib/backend/internal/posts"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// anonymousDisplayName is the render-time fallback for comment authors
// without a profile display name.
const anonymousDisplayName = "Anonymous"

type voteRequestPayload struct {
	PostID    *int64      `json:"postId"`
	Increment json.Number `json:"increment"`
}

type voteResponsePayload struct {
	Votes int64 `json:"votes"`
}

func (h *httpHandler) handleVote(c *gin.Context) {
	var request voteRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if request.PostID == nil || *request.PostID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_post_id"})
		return
	}
	increment, err := strconv.ParseInt(request.Increment.String(), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_increment"})
		return
	}

	postID, err := posts.NewPostID(*request.PostID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_post_id"})
		return
	}

	votes, err := h.posts.AdjustVotes(c.Request.Context(), postID, increment)
	if errors.Is(err, posts.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("vote adjustment failed", zap.Int64("post_id", *request.PostID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "vote_failed"})
		return
	}

	c.JSON(http.StatusOK, voteResponsePayload{Votes: votes})
}

type commentPayload struct {
	ID        uint64 `json:"id"`
	PostID    uint64 `json:"post_id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	Username  string `json:"username"`
}

type postPayload struct {
	ID           uint64           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Steps        string           `json:"steps"`
	ForWho       string           `json:"for_who"`
	WhyItWorks   string           `json:"why_it_works"`
	WhereItWorks string           `json:"where_it_works"`
	Votes        int64            `json:"votes"`
	CreatedAt    string           `json:"created_at"`
	UserID       string           `json:"user_id"`
	Comments     []commentPayload `json:"comments,omitempty"`
}

func (h *httpHandler) handleListPosts(c *gin.Context) {
	fetched, err := h.posts.List(c.Request.Context())
	if err != nil {
		h.logger.Error("post listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	visible := feed.FilterByTitle(fetched, c.Query("search"))

	var grouped map[uint64][]comments.Resolved
	if includeComments(c.Query("include_comments")) {
		ids := make([]uint64, 0, len(visible))
		for _, post := range visible {
			ids = append(ids, post.ID)
		}
		grouped, err = h.comments.ListForPosts(c.Request.Context(), ids)
		if err != nil {
			h.logger.Error("comment listing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
			return
		}
	}

	response := make([]postPayload, 0, len(visible))
	for _, post := range visible {
		response = append(response, makePostPayload(post, grouped[post.ID]))
	}
	c.JSON(http.StatusOK, response)
}

type createPostPayload struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Steps        string `json:"steps"`
	ForWho       string `json:"for_who"`
	WhyItWorks   string `json:"why_it_works"`
	WhereItWorks string `json:"where_it_works"`
}

func (h *httpHandler) handleCreatePost(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request createPostPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	owner, err := posts.NewUserID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	created, err := h.posts.Create(c.Request.Context(), posts.Draft{
		UserID:       owner,
		Title:        request.Title,
		Description:  request.Description,
		Steps:        request.Steps,
		ForWho:       request.ForWho,
		WhyItWorks:   request.WhyItWorks,
		WhereItWorks: request.WhereItWorks,
	})
	if errors.Is(err, posts.ErrMissingField) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_field"})
		return
	}
	if err != nil {
		h.logger.Error("post submission failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "submit_failed"})
		return
	}

	c.JSON(http.StatusCreated, makePostPayload(created, nil))
}

type createCommentPayload struct {
	Content string `json:"content"`
}

func (h *httpHandler) handleCreateComment(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || postID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_post_id"})
		return
	}

	var request createCommentPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	created, err := h.comments.Create(c.Request.Context(), postID, userID, request.Content)
	if errors.Is(err, comments.ErrMissingContent) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_content"})
		return
	}
	if err != nil {
		h.logger.Error("comment submission failed",
			zap.Uint64("post_id", postID),
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment_failed"})
		return
	}

	username := anonymousDisplayName
	if profile, err := h.profiles.Get(c.Request.Context(), userID); err == nil && profile.DisplayName != "" {
		username = profile.DisplayName
	}

	c.JSON(http.StatusCreated, commentPayload{
		ID:        created.ID,
		PostID:    created.PostID,
		UserID:    created.UserID,
		Content:   created.Content,
		CreatedAt: created.CreatedAt.Format(time.RFC3339),
		Username:  username,
	})
}

func makePostPayload(post posts.Post, resolved []comments.Resolved) postPayload {
	payload := postPayload{
		ID:           post.ID,
		Title:        post.Title,
		Description:  post.Description,
		Steps:        post.Steps,
		ForWho:       post.ForWho,
		WhyItWorks:   post.WhyItWorks,
		WhereItWorks: post.WhereItWorks,
		Votes:        post.Votes,
		CreatedAt:    post.CreatedAt.Format(time.RFC3339),
		UserID:       post.UserID,
	}
	for _, comment := range resolved {
		username := comment.DisplayName
		if username == "" {
			username = anonymousDisplayName
		}
		payload.Comments = append(payload.Comments, commentPayload{
			ID:        comment.ID,
			PostID:    comment.PostID,
			UserID:    comment.UserID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt.Format(time.RFC3339),
			Username:  username,
		})
	}
	return payload
}

func includeComments(value string) bool {
	switch value {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
