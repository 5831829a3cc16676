package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gaeilgeapp/gaeilge-api/internal/auth"
	"github.com/gaeilgeapp/gaeilge-api/internal/config"
	"github.com/gaeilgeapp/gaeilge-api/internal/database"
	"github.com/gaeilgeapp/gaeilge-api/internal/logging"
	"github.com/gaeilgeapp/gaeilge-api/internal/notecards"
	"github.com/gaeilgeapp/gaeilge-api/internal/server"
	"github.com/gaeilgeapp/gaeilge-api/internal/users"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "gaeilge-api",
		Short: "Gaeilge notecard backend service",
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
	cmd.PersistentFlags().String("database-driver", defaults.GetString("database.driver"), "Database driver (sqlite or postgres)")
	cmd.PersistentFlags().String("database-dsn", defaults.GetString("database.dsn"), "Database DSN or file path")
	cmd.PersistentFlags().String("firebase-project-id", defaults.GetString("firebase.project_id"), "Firebase project ID")
	cmd.PersistentFlags().String("firebase-jwks-url", defaults.GetString("firebase.jwks_url"), "Firebase securetoken JWKS URL")
	cmd.PersistentFlags().String("firebase-api-key", "", "Firebase web API key (overrides env)")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.driver", "database-driver")
	bindFlag(cmd, "database.dsn", "database-dsn")
	bindFlag(cmd, "firebase.project_id", "firebase-project-id")
	bindFlag(cmd, "firebase.jwks_url", "firebase-jwks-url")
	bindFlag(cmd, "firebase.api_key", "firebase-api-key")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	// .env is optional; deployed environments set real variables.
	_ = godotenv.Load()

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

	db, err := database.Open(appConfig.DatabaseDriver, appConfig.DatabaseDSN, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	verifier, err := auth.NewFirebaseVerifier(auth.FirebaseVerifierConfig{
		ProjectID: appConfig.FirebaseProjectID,
		JWKSURL:   appConfig.FirebaseJWKSURL,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var provisioner server.AccountProvisioner
	if appConfig.FirebaseAPIKey != "" {
		toolkit, err := auth.NewProvisioner(auth.ProvisionerConfig{
			APIKey: appConfig.FirebaseAPIKey,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		provisioner = toolkit
	} else {
		logger.Warn("firebase api key not configured, registration and password reset disabled")
	}

	usersService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		return err
	}

	notecardsService, err := notecards.NewService(notecards.ServiceConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	categoriesService, err := notecards.NewCategoryService(notecards.ServiceConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Verifier:          verifier,
		Provisioner:       provisioner,
		Users:             usersService,
		Notecards:         notecardsService,
		Categories:        categoriesService,
		Logger:            logger,
		SessionCookieName: appConfig.SessionCookieName,
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
