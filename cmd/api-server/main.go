package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"microteca/internal/auth"
	"microteca/internal/catalog"
	"microteca/internal/csvcodec"
	"microteca/internal/metrics"
	"microteca/internal/server"
	synchub "microteca/internal/sync"
	"microteca/pkg/utils"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "api-server",
	Short: "Serve the MICROTECA catalog and admin console API",
	Long: `Serves the public microorganism catalog, the admin console endpoints
(CRUD, CSV import/export, statistics), a websocket change feed and
Prometheus metrics. Catalog data lives in memory and is reseeded on start.`,
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	v, err := utils.NewViper(configFile)
	if err != nil {
		return err
	}
	if verbose {
		v.Set("log.level", "debug")
	}
	cfg, err := utils.Load(v)
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	seed, err := catalog.LoadSeed(cfg.SeedPath)
	if err != nil {
		return err
	}
	store := catalog.NewSeededStore(seed)
	logger.Info("catalog seeded", zap.Int("records", store.Len()))

	verifier, err := auth.NewBcryptVerifier(cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash, cfg.Auth.AdminPassword)
	if err != nil {
		return err
	}
	provider := auth.NewLocalProvider(verifier, auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}, auth.User{Email: cfg.Auth.AdminEmail, Name: cfg.Auth.AdminName})

	format, err := csvcodec.ParseFormat(cfg.CSV.Format)
	if err != nil {
		return err
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.Deps{
		Store:     store,
		Hub:       synchub.NewHub(logger.Named("ws")),
		Auth:      provider,
		Metrics:   metrics.New(store.Len),
		CSVFormat: format,
		CSVLimits: csvcodec.Options{MaxBytes: cfg.CSV.MaxUploadBytes, MaxRows: cfg.CSV.MaxRows},
		Log:       logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
