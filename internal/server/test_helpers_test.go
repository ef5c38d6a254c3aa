package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/advicelib/backend/internal/auth"
	"github.com/advicelib/backend/internal/avatars"
	"github.com/advicelib/backend/internal/comments"
	"github.com/advicelib/backend/internal/posts"
	"github.com/advicelib/backend/internal/profiles"
	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	handler  http.Handler
	db       *gorm.DB
	accounts *auth.AccountService
	sessions *auth.SessionIssuer
	avatarFs afero.Fs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&auth.Account{}, &posts.Post{}, &comments.Comment{}, &profiles.Profile{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	sessions := auth.NewSessionIssuer(auth.SessionIssuerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "advicelib-auth",
		Audience:      "advicelib-api",
		CookieName:    "advicelib_session",
		SessionTTL:    30 * time.Minute,
	})

	accounts, err := auth.NewAccountService(auth.AccountServiceConfig{
		Database:   db,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("failed to create account service: %v", err)
	}

	postsService, err := posts.NewService(posts.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create posts service: %v", err)
	}
	commentsService, err := comments.NewService(comments.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create comments service: %v", err)
	}
	profilesService, err := profiles.NewService(profiles.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create profiles service: %v", err)
	}

	avatarFs := afero.NewMemMapFs()
	avatarStore, err := avatars.NewStore(avatars.StoreConfig{
		Filesystem: avatarFs,
		BaseURL:    "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("failed to create avatar store: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Accounts:        accounts,
		Sessions:        sessions,
		PostsService:    postsService,
		CommentsService: commentsService,
		ProfilesService: profilesService,
		AvatarStore:     avatarStore,
	})
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	return &testEnv{
		handler:  handler,
		db:       db,
		accounts: accounts,
		sessions: sessions,
		avatarFs: avatarFs,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, target, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	e.handler.ServeHTTP(recorder, request)
	return recorder
}

func (e *testEnv) signedInUser(t *testing.T, email string) (string, string) {
	t.Helper()

	account, err := e.accounts.SignUp(context.Background(), email, "correct horse")
	if err != nil {
		t.Fatalf("failed to sign up test user: %v", err)
	}
	token, _, err := e.sessions.IssueSessionToken(context.Background(), account.UserID)
	if err != nil {
		t.Fatalf("failed to issue session token: %v", err)
	}
	return token, account.UserID
}

func (e *testEnv) seedPost(t *testing.T, title string, votes int64) posts.Post {
	t.Helper()

	post := posts.Post{
		Title:        title,
		Description:  "description",
		Steps:        "steps",
		ForWho:       "everyone",
		WhyItWorks:   "because",
		WhereItWorks: "anywhere",
		Votes:        votes,
		UserID:       "seed-user",
	}
	if err := e.db.Create(&post).Error; err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	return post
}
