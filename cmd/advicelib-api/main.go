package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/advicelib/backend/internal/auth"
	"github.com/advicelib/backend/internal/avatars"
	"github.com/advicelib/backend/internal/comments"
	"github.com/advicelib/backend/internal/config"
	"github.com/advicelib/backend/internal/database"
	"github.com/advicelib/backend/internal/logging"
	"github.com/advicelib/backend/internal/posts"
	"github.com/advicelib/backend/internal/profiles"
	"github.com/advicelib/backend/internal/server"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "advicelib-api",
		Short: "Advice Library backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("public-base-url", defaults.GetString("http.public_base_url"), "Public base URL for stored objects")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("avatar-dir", defaults.GetString("avatars.dir"), "Directory backing the avatar object store")
	cmd.PersistentFlags().Int("session-ttl-minutes", defaults.GetInt("session.ttl_minutes"), "Session TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "http.public_base_url", "public-base-url")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "avatars.dir", "avatar-dir")
	bindFlag(cmd, "session.ttl_minutes", "session-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "session.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	sessionIssuer := auth.NewSessionIssuer(auth.SessionIssuerConfig{
		SigningSecret: []byte(appConfig.SessionSecret),
		Issuer:        "advicelib-auth",
		Audience:      "advicelib-api",
		CookieName:    appConfig.SessionCookieName,
		SessionTTL:    appConfig.SessionTTL,
	})

	accountService, err := auth.NewAccountService(auth.AccountServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: auth.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	postsService, err := posts.NewService(posts.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	commentsService, err := comments.NewService(comments.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	profilesService, err := profiles.NewService(profiles.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	avatarStore, err := avatars.NewStore(avatars.StoreConfig{
		Filesystem: afero.NewBasePathFs(afero.NewOsFs(), appConfig.AvatarDir),
		BaseURL:    appConfig.PublicBaseURL,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Accounts:        accountService,
		Sessions:        sessionIssuer,
		PostsService:    postsService,
		CommentsService: commentsService,
		ProfilesService: profilesService,
		AvatarStore:     avatarStore,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
