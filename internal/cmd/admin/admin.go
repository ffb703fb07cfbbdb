// Package admin parses admin process configuration and runs the server.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	platformcmd "github.com/louisbranch/featureadmin/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/featureadmin/internal/platform/grpc"
	"github.com/louisbranch/featureadmin/internal/platform/logging"
	"github.com/louisbranch/featureadmin/internal/services/admin"
)

const healthCheckTimeout = 5 * time.Second

// Config holds the admin command configuration.
type Config struct {
	HTTPAddr     string        `env:"FEATUREADMIN_HTTP_ADDR" envDefault:":8082"`
	GRPCAddr     string        `env:"FEATUREADMIN_GRPC_ADDR"`
	DBDriver     string        `env:"FEATUREADMIN_DB_DRIVER" envDefault:"sqlite"`
	DBPath       string        `env:"FEATUREADMIN_DB_PATH" envDefault:"data/featureadmin.db"`
	PostgresDSN  string        `env:"FEATUREADMIN_POSTGRES_DSN"`
	FeaturesFile string        `env:"FEATUREADMIN_FEATURES_FILE"`
	RedisAddr    string        `env:"FEATUREADMIN_REDIS_ADDR"`
	RedisPass    string        `env:"FEATUREADMIN_REDIS_PASSWORD"`
	RedisDB      int           `env:"FEATUREADMIN_REDIS_DB" envDefault:"0"`
	SnapshotTTL  time.Duration `env:"FEATUREADMIN_SNAPSHOT_TTL" envDefault:"30s"`

	JWTSecret        string `env:"FEATUREADMIN_JWT_SECRET"`
	JWTIssuer        string `env:"FEATUREADMIN_JWT_ISSUER"`
	IntrospectURL    string `env:"FEATUREADMIN_INTROSPECT_URL"`
	IntrospectSecret string `env:"FEATUREADMIN_INTROSPECT_SECRET"`
	LoginURL         string `env:"FEATUREADMIN_LOGIN_URL"`

	Log logging.Config

	// HealthCheck probes GRPCAddr and exits instead of serving.
	HealthCheck bool
}

// ParseConfig loads env defaults and then applies flag overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfigFromArgs(&cfg, fs, args, bindFlags); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address (empty disables)")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "storage driver (sqlite, postgres)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.FeaturesFile, "features", cfg.FeaturesFile, "feature registry YAML (default: embedded)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the evaluation snapshot")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level")
	fs.BoolVar(&cfg.HealthCheck, "healthcheck", false, "probe the gRPC health endpoint and exit")
}

// Run starts the admin server, or probes it when HealthCheck is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.HealthCheck {
		return probeHealth(ctx, cfg.GRPCAddr)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	authConfig, err := admin.NewAuthConfig(admin.AuthSettings{
		JWTSecret:        cfg.JWTSecret,
		JWTIssuer:        cfg.JWTIssuer,
		IntrospectURL:    cfg.IntrospectURL,
		IntrospectSecret: cfg.IntrospectSecret,
		LoginURL:         cfg.LoginURL,
	})
	if err != nil {
		return fmt.Errorf("configure auth: %w", err)
	}
	if authConfig == nil {
		logger.Warn("admin auth disabled: no JWT secret or introspect URL configured")
	}

	return platformcmd.RunWithTelemetryAndOptions(ctx, platformcmd.ServiceAdmin, platformcmd.RunOptions{Logger: logger}, func(ctx context.Context) error {
		server, err := admin.NewServer(ctx, admin.Config{
			HTTPAddr: cfg.HTTPAddr,
			GRPCAddr: cfg.GRPCAddr,
			Store: admin.StoreConfig{
				Driver:      cfg.DBDriver,
				SQLitePath:  cfg.DBPath,
				PostgresDSN: cfg.PostgresDSN,
			},
			FeaturesFile:  cfg.FeaturesFile,
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPass,
			RedisDB:       cfg.RedisDB,
			SnapshotTTL:   cfg.SnapshotTTL,
			AuthConfig:    authConfig,
			Logger:        logger,
		})
		if err != nil {
			return fmt.Errorf("init admin server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve admin: %w", err)
		}
		return nil
	})
}

func probeHealth(ctx context.Context, addr string) error {
	if addr == "" {
		return errors.New("grpc-addr is required for -healthcheck")
	}
	conn, err := platformgrpc.DialHealth(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return platformgrpc.WaitForHealth(ctx, conn, admin.HealthServiceName, nil)
}
