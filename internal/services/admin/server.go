package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/featureadmin/internal/features"
	platformgrpc "github.com/louisbranch/featureadmin/internal/platform/grpc"
	"github.com/louisbranch/featureadmin/internal/platform/logging"
	"github.com/louisbranch/featureadmin/internal/platform/timeouts"
	"github.com/louisbranch/featureadmin/internal/services/admin/cache"
	"github.com/louisbranch/featureadmin/internal/services/admin/storage"
	adminpostgres "github.com/louisbranch/featureadmin/internal/services/admin/storage/postgres"
	adminsqlite "github.com/louisbranch/featureadmin/internal/services/admin/storage/sqlite"
	"github.com/louisbranch/featureadmin/internal/services/shared/authctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Storage drivers accepted by StoreConfig.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// HealthServiceName is reported SERVING on the gRPC health endpoint.
const HealthServiceName = "featureadmin.Admin"

// StoreConfig selects and locates the admin database.
type StoreConfig struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// OpenStore opens the configured store and applies its migrations.
func OpenStore(ctx context.Context, cfg StoreConfig) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = filepath.Join("data", "featureadmin.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := adminsqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open admin sqlite store: %w", err)
		}
		return store, nil
	case DriverPostgres:
		store, err := adminpostgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open admin postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// Config defines the inputs for the admin process.
type Config struct {
	HTTPAddr string
	// GRPCAddr serves the gRPC health service when set.
	GRPCAddr string
	Store    StoreConfig
	// FeaturesFile overrides the embedded feature registry when set.
	FeaturesFile string

	// RedisAddr moves the evaluation snapshot to Redis when set; otherwise
	// it is cached in process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SnapshotTTL   time.Duration

	// AuthConfig enables token-based authentication when set.
	AuthConfig *AuthConfig
	Logger     *zap.Logger
}

// AuthSettings describes how admin tokens are verified.
type AuthSettings struct {
	JWTSecret        string
	JWTIssuer        string
	IntrospectURL    string
	IntrospectSecret string
	LoginURL         string
}

// NewAuthConfig picks JWT verification when a secret is set, then HTTP
// introspection. It returns nil when neither is configured.
func NewAuthConfig(settings AuthSettings) (*AuthConfig, error) {
	var introspector TokenIntrospector
	switch {
	case strings.TrimSpace(settings.JWTSecret) != "":
		jwtIntrospector, err := authctx.NewJWTIntrospector(settings.JWTSecret, settings.JWTIssuer)
		if err != nil {
			return nil, err
		}
		introspector = jwtIntrospector
	case strings.TrimSpace(settings.IntrospectURL) != "":
		introspector = NewHTTPIntrospector(strings.TrimSpace(settings.IntrospectURL), settings.IntrospectSecret)
	default:
		return nil, nil
	}
	loginURL := strings.TrimSpace(settings.LoginURL)
	if loginURL == "" {
		return nil, errors.New("login URL is required when auth is enabled")
	}
	return &AuthConfig{Introspector: introspector, LoginURL: loginURL}, nil
}

// Server hosts the admin HTTP surface and the optional gRPC health endpoint.
type Server struct {
	logger       *zap.Logger
	httpListener net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	store        storage.Store
	redis        *redis.Client
}

// NewServer opens storage, prunes features missing from the registry, and
// binds the listeners.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.OrNop(config.Logger)

	registry, err := loadRegistry(config.FeaturesFile)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, config.Store)
	if err != nil {
		return nil, err
	}
	server := &Server{logger: logger, store: store}

	pruned, err := store.PruneFeatures(ctx, registry.Names())
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("prune features: %w", err)
	}
	if pruned > 0 {
		logger.Info("pruned features missing from registry", zap.Int("count", pruned))
	}

	var snapshots cache.SnapshotCache = cache.NewMemory(config.SnapshotTTL)
	if addr := strings.TrimSpace(config.RedisAddr); addr != "" {
		client, err := cache.DialRedis(ctx, addr, config.RedisPassword, config.RedisDB)
		if err != nil {
			server.Close()
			return nil, err
		}
		server.redis = client
		snapshots = cache.NewRedis(client, cache.DefaultKey, config.SnapshotTTL)
	}

	handler, err := NewHandler(HandlerConfig{
		Store:    store,
		Registry: registry,
		Cache:    snapshots,
		Logger:   logger,
		Auth:     config.AuthConfig,
	})
	if err != nil {
		server.Close()
		return nil, err
	}

	server.httpListener, err = net.Listen("tcp", httpAddr)
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("listen on %s: %w", httpAddr, err)
	}
	server.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	if grpcAddr := strings.TrimSpace(config.GRPCAddr); grpcAddr != "" {
		server.grpcListener, err = net.Listen("tcp", grpcAddr)
		if err != nil {
			server.Close()
			return nil, fmt.Errorf("listen on %s: %w", grpcAddr, err)
		}
		server.grpcServer, server.health = platformgrpc.NewHealthServer(HealthServiceName)
	}
	return server, nil
}

func loadRegistry(path string) (*features.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return features.DefaultRegistry()
	}
	return features.LoadRegistryFile(path)
}

// HTTPAddr returns the bound HTTP listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the bound gRPC health address, or "" when disabled.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// ListenAndServe runs the servers until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return errors.New("admin server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 2)
	s.logger.Info("admin listening", zap.String("addr", s.HTTPAddr()))
	go func() {
		err := s.httpServer.Serve(s.httpListener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("serve http: %w", err)
		}
		serveErr <- err
	}()
	if s.grpcServer != nil {
		s.logger.Info("admin health listening", zap.String("addr", s.GRPCAddr()))
		go func() {
			err := s.grpcServer.Serve(s.grpcListener)
			if errors.Is(err, grpc.ErrServerStopped) {
				err = nil
			}
			if err != nil {
				err = fmt.Errorf("serve gRPC: %w", err)
			}
			serveErr <- err
		}()
	}

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-serveErr:
		shutdownErr := s.shutdown()
		if err != nil {
			return err
		}
		return shutdownErr
	}
}

func (s *Server) shutdown() error {
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("admin stopped")
	return nil
}

// Close releases listeners, the store, and the Redis client.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("close redis client", zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close admin store", zap.Error(err))
		}
	}
}
