package integration_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/advicelib/backend/client"
	"github.com/advicelib/backend/internal/auth"
	"github.com/advicelib/backend/internal/avatars"
	"github.com/advicelib/backend/internal/comments"
	"github.com/advicelib/backend/internal/posts"
	"github.com/advicelib/backend/internal/profiles"
	"github.com/advicelib/backend/internal/server"
	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sessionSigningSecret = "integration-secret"
	sessionCookieName    = "advicelib_session"
	accountEmail         = "person@example.com"
	accountPassword      = "correct horse battery"
)

func startTestServer(testContext *testing.T) *httptest.Server {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:integration_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&auth.Account{}, &posts.Post{}, &comments.Comment{}, &profiles.Profile{}); err != nil {
		testContext.Fatalf("failed to migrate: %v", err)
	}

	accounts, err := auth.NewAccountService(auth.AccountServiceConfig{
		Database:   db,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		testContext.Fatalf("failed to build account service: %v", err)
	}
	sessions := auth.NewSessionIssuer(auth.SessionIssuerConfig{
		SigningSecret: []byte(sessionSigningSecret),
		Issuer:        "advicelib-auth",
		Audience:      "advicelib-api",
		CookieName:    sessionCookieName,
		SessionTTL:    30 * time.Minute,
	})

	postsService, err := posts.NewService(posts.ServiceConfig{Database: db, Logger: zap.NewNop()})
	if err != nil {
		testContext.Fatalf("failed to build posts service: %v", err)
	}
	commentsService, err := comments.NewService(comments.ServiceConfig{Database: db})
	if err != nil {
		testContext.Fatalf("failed to build comments service: %v", err)
	}
	profilesService, err := profiles.NewService(profiles.ServiceConfig{Database: db})
	if err != nil {
		testContext.Fatalf("failed to build profiles service: %v", err)
	}
	avatarStore, err := avatars.NewStore(avatars.StoreConfig{
		Filesystem: afero.NewMemMapFs(),
		BaseURL:    "http://localhost:8080",
	})
	if err != nil {
		testContext.Fatalf("failed to build avatar store: %v", err)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Accounts:        accounts,
		Sessions:        sessions,
		PostsService:    postsService,
		CommentsService: commentsService,
		ProfilesService: profilesService,
		AvatarStore:     avatarStore,
		Logger:          zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build handler: %v", err)
	}

	testServer := httptest.NewServer(handler)
	testContext.Cleanup(testServer.Close)

	if _, err := accounts.SignUp(context.Background(), accountEmail, accountPassword); err != nil {
		testContext.Fatalf("failed to sign up: %v", err)
	}
	return testServer
}

func TestSubmitVoteAndBrowseFlow(testContext *testing.T) {
	testServer := startTestServer(testContext)
	ctx := context.Background()

	api := &client.Client{Addr: testServer.URL}
	if err := api.SignIn(ctx, accountEmail, accountPassword); err != nil {
		testContext.Fatalf("failed to sign in: %v", err)
	}

	titles := []string{"Morning Routine", "Evening Wind-down", "Desk Stretches"}
	submitted := make([]client.Post, 0, len(titles))
	for _, title := range titles {
		created, err := api.SubmitPost(ctx, client.Post{
			Title:        title,
			Description:  "what it is",
			Steps:        "how to do it",
			ForWho:       "anyone",
			WhyItWorks:   "it compounds",
			WhereItWorks: "at home",
		})
		if err != nil {
			testContext.Fatalf("failed to submit %q: %v", title, err)
		}
		if created.Votes != 0 {
			testContext.Fatalf("expected zero initial votes, got %d", created.Votes)
		}
		submitted = append(submitted, created)
	}

	total, err := api.Vote(ctx, submitted[2].ID, 1)
	if err != nil {
		testContext.Fatalf("failed to vote: %v", err)
	}
	if total != 1 {
		testContext.Fatalf("expected vote total 1, got %d", total)
	}
	if total, err = api.Vote(ctx, submitted[2].ID, 1); err != nil || total != 2 {
		testContext.Fatalf("expected vote total 2, got %d (err %v)", total, err)
	}

	browser := client.NewFeedBrowser(api, zap.NewNop())
	if !browser.Refresh(ctx) {
		testContext.Fatalf("expected refresh to update the snapshot")
	}
	if !browser.Loaded() {
		testContext.Fatalf("expected a loaded feed")
	}

	visible := browser.Visible("")
	if len(visible) != 3 {
		testContext.Fatalf("expected 3 posts, got %d", len(visible))
	}
	if visible[0].ID != submitted[2].ID || visible[0].Votes != 2 {
		testContext.Fatalf("expected the upvoted post first, got %#v", visible[0])
	}

	matched := browser.Visible("morning")
	if len(matched) != 1 || matched[0].Title != "Morning Routine" {
		testContext.Fatalf("expected the search to match one post, got %#v", matched)
	}
	if len(browser.Visible("no such advice")) != 0 {
		testContext.Fatalf("expected no matches for an unknown query")
	}
}

func TestFailedRefreshStaysDistinctFromEmptyFeed(testContext *testing.T) {
	testServer := startTestServer(testContext)
	ctx := context.Background()

	api := &client.Client{Addr: testServer.URL}
	browser := client.NewFeedBrowser(api, zap.NewNop())

	if !browser.Refresh(ctx) {
		testContext.Fatalf("expected refresh to apply")
	}
	if !browser.Loaded() || browser.Failed() {
		testContext.Fatalf("expected a loaded empty feed")
	}
	if len(browser.Visible("")) != 0 {
		testContext.Fatalf("expected an empty snapshot")
	}

	testServer.Close()
	if !browser.Refresh(ctx) {
		testContext.Fatalf("expected the failure to apply")
	}
	if !browser.Failed() {
		testContext.Fatalf("expected a failed feed after the server went away")
	}
}
