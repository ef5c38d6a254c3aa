package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/advicelib/backend/internal/auth"
	"github.com/advicelib/backend/internal/avatars"
	"github.com/advicelib/backend/internal/comments"
	"github.com/advicelib/backend/internal/posts"
	"github.com/advicelib/backend/internal/profiles"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDContextKey = "advicelib_user_id"

var (
	errMissingAccountService  = errors.New("account service dependency required")
	errMissingSessionManager  = errors.New("session manager dependency required")
	errMissingPostsService    = errors.New("posts service dependency required")
	errMissingCommentsService = errors.New("comments service dependency required")
	errMissingProfilesService = errors.New("profiles service dependency required")
	errMissingAvatarStore     = errors.New("avatar store dependency required")
)

// AccountManager covers the account operations the HTTP layer depends on.
type AccountManager interface {
	SignUp(ctx context.Context, email, password string) (auth.Account, error)
	SignIn(ctx context.Context, email, password string) (auth.Account, error)
	GetByID(ctx context.Context, userID string) (auth.Account, error)
}

// SessionManager issues and validates session tokens for signed-in users.
type SessionManager interface {
	IssueSessionToken(ctx context.Context, userID string) (string, int64, error)
	ValidateRequest(r *http.Request) (string, error)
	CookieName() string
	SessionTTL() time.Duration
}

// Dependencies wires the HTTP layer to the domain services.
type Dependencies struct {
	Accounts        AccountManager
	Sessions        SessionManager
	PostsService    *posts.Service
	CommentsService *comments.Service
	ProfilesService *profiles.Service
	AvatarStore     *avatars.Store
	Logger          *zap.Logger
}

// NewHTTPHandler builds the gin router serving the Advice Library API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Accounts == nil {
		return nil, errMissingAccountService
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionManager
	}
	if deps.PostsService == nil {
		return nil, errMissingPostsService
	}
	if deps.CommentsService == nil {
		return nil, errMissingCommentsService
	}
	if deps.ProfilesService == nil {
		return nil, errMissingProfilesService
	}
	if deps.AvatarStore == nil {
		return nil, errMissingAvatarStore
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		accounts: deps.Accounts,
		sessions: deps.Sessions,
		posts:    deps.PostsService,
		comments: deps.CommentsService,
		profiles: deps.ProfilesService,
		avatars:  deps.AvatarStore,
		logger:   logger,
	}

	api := router.Group("/api")
	api.POST("/vote", handler.handleVote)
	api.GET("/posts", handler.handleListPosts)
	api.POST("/auth/signup", handler.handleSignUp)
	api.POST("/auth/signin", handler.handleSignIn)
	api.POST("/auth/signout", handler.handleSignOut)

	protected := api.Group("")
	protected.Use(handler.authorizeRequest)
	protected.GET("/auth/me", handler.handleMe)
	protected.POST("/posts", handler.handleCreatePost)
	protected.POST("/posts/:id/comments", handler.handleCreateComment)
	protected.GET("/profile", handler.handleGetProfile)
	protected.PUT("/profile", handler.handleUpdateProfile)
	protected.POST("/profile/avatar", handler.handleAvatarUpload)

	router.StaticFS("/avatars", deps.AvatarStore.HTTPFileSystem())

	return router, nil
}

type httpHandler struct {
	accounts AccountManager
	sessions SessionManager
	posts    *posts.Service
	comments *comments.Service
	profiles *profiles.Service
	avatars  *avatars.Store
	logger   *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	userID, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}
