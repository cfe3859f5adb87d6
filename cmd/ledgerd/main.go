package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/reachpay/ledger/internal/httpserver"
	"github.com/reachpay/ledger/internal/metrics"
	"github.com/reachpay/ledger/internal/oplog"
	"github.com/reachpay/ledger/internal/store/gormstore"
	"github.com/reachpay/ledger/pkg/ledger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	flagDatabaseURL     = "database-url"
	flagListenAddr      = "listen-addr"
	flagJWTSecret       = "admin-jwt-secret"
	flagDailyLimitCents = "daily-limit-cents"
	flagAllowedOrigins  = "allowed-origins"

	configKeyDatabaseURL     = "database_url"
	configKeyListenAddr      = "listen_addr"
	configKeyJWTSecret       = "admin_jwt_secret"
	configKeyDailyLimitCents = "daily_limit_cents"
	configKeyAllowedOrigins  = "allowed_origins"

	defaultDatabaseURL     = "sqlite:///tmp/reachpay-ledger.db"
	defaultHTTPListenAddr  = ":8080"
	defaultDailyLimitCents = int64(100000)

	cashflowGaugeInterval = 30 * time.Second
)

type runtimeConfig struct {
	DatabaseURL     string
	ListenAddr      string
	JWTSecret       string
	DailyLimitCents int64
	AllowedOrigins  []string
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "ledgerd",
		Short:         "Creator payout ledger API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "PostgreSQL or sqlite connection string")
	cmd.Flags().String(flagListenAddr, defaultHTTPListenAddr, "HTTP listen address")
	cmd.Flags().String(flagJWTSecret, "", "HMAC secret for admin bearer tokens")
	cmd.Flags().Int64(flagDailyLimitCents, defaultDailyLimitCents, "Initial daily payout cap in cents")
	cmd.Flags().StringSlice(flagAllowedOrigins, nil, "CORS allowed origins")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv(configKeyDatabaseURL, "DATABASE_URL"); err != nil {
		return err
	}
	if err := viper.BindEnv(configKeyListenAddr, "LISTEN_ADDR"); err != nil {
		return err
	}
	if err := viper.BindEnv(configKeyJWTSecret, "ADMIN_JWT_SECRET"); err != nil {
		return err
	}
	if err := viper.BindEnv(configKeyDailyLimitCents, "DAILY_PAYOUT_LIMIT_CENTS"); err != nil {
		return err
	}
	if err := viper.BindEnv(configKeyAllowedOrigins, "ALLOWED_ORIGINS"); err != nil {
		return err
	}

	for configKey, flagName := range map[string]string{
		configKeyDatabaseURL:     flagDatabaseURL,
		configKeyListenAddr:      flagListenAddr,
		configKeyJWTSecret:       flagJWTSecret,
		configKeyDailyLimitCents: flagDailyLimitCents,
		configKeyAllowedOrigins:  flagAllowedOrigins,
	} {
		if err := viper.BindPFlag(configKey, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg.DatabaseURL = viper.GetString(configKeyDatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	cfg.ListenAddr = viper.GetString(configKeyListenAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultHTTPListenAddr
	}
	cfg.JWTSecret = viper.GetString(configKeyJWTSecret)
	cfg.DailyLimitCents = viper.GetInt64(configKeyDailyLimitCents)
	cfg.AllowedOrigins = viper.GetStringSlice(configKeyAllowedOrigins)

	if cfg.JWTSecret == "" {
		return fmt.Errorf("admin jwt secret is required")
	}
	if cfg.DailyLimitCents < 0 {
		return fmt.Errorf("daily limit must not be negative")
	}
	return nil
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer cleanup()

	store := gormstore.New(gormDB)
	if err := prepareSchema(store, driver); err != nil {
		return err
	}

	initialLimit, err := ledger.NewAmountCents(cfg.DailyLimitCents)
	if err != nil {
		return fmt.Errorf("daily limit: %w", err)
	}

	collector := metrics.NewCollector()
	operationLogger := oplog.NewMulti(oplog.NewZapLogger(logger), collector)

	clock := func() int64 { return time.Now().UTC().Unix() }
	ledgerService, err := ledger.NewService(store, clock,
		ledger.WithInitialDailyLimit(initialLimit),
		ledger.WithOperationLogger(operationLogger),
	)
	if err != nil {
		return fmt.Errorf("ledger service init: %w", err)
	}

	go refreshCashflowGauges(ctx, ledgerService, collector, logger)

	return httpserver.Run(ctx, httpserver.Config{
		ListenAddr:     cfg.ListenAddr,
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
	}, ledgerService, logger, collector.Handler())
}

func refreshCashflowGauges(ctx context.Context, service *ledger.Service, collector *metrics.Collector, logger *zap.Logger) {
	ticker := time.NewTicker(cashflowGaugeInterval)
	defer ticker.Stop()
	for {
		status, err := service.Cashflow(ctx)
		if err != nil {
			logger.Warn("cashflow gauge refresh failed", zap.Error(err))
		} else {
			collector.ObserveCashflow(status)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, string, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, "", err
	}

	var db *gorm.DB
	gormConfig := &gorm.Config{}
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormConfig)
	default:
		return nil, nil, "", fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, "", err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, driver, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "ledger.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

func prepareSchema(store *gormstore.Store, driver string) error {
	if driver != "sqlite" {
		return nil
	}
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
