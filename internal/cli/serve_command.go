package cli

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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dataharvester/dataharvester/backend/go-services/handlers"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/config"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/oidc"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/projects"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/schema"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/tokens"
	"github.com/dataharvester/dataharvester/backend/go-services/pkg/logger"
	"github.com/dataharvester/dataharvester/backend/go-services/pkg/metrics"
	"github.com/dataharvester/dataharvester/backend/go-services/pkg/middleware"
)

// NewServeCommand runs the project administration API.
func NewServeCommand(globalOptions *GlobalOptions) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the project administration API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), globalOptions)
		},
	}
	serveCmd.Flags().String("port", "5020", "Port for the HTTP server. (Env: SERVER_PORT)")
	return serveCmd
}

// routerDeps is everything newRouter wires together.
type routerDeps struct {
	cfg      *config.Config
	catalog  schema.Catalog
	service  handlers.ProjectService
	verifier middleware.Verifier
	redis    *redis.Client
	started  time.Time
}

func runServe(ctx context.Context, g *GlobalOptions) error {
	cfg := g.Conf

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer be.close()

	ini := schema.NewInitializer(be.catalog, g.SchemaOptions())
	if _, err := ini.InitializeBaseSchema(ctx); err != nil {
		return err
	}

	rdb := connectRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	r := newRouter(routerDeps{
		cfg:      cfg,
		catalog:  be.catalog,
		service:  projects.NewService(be.projects, ini),
		verifier: verifier,
		redis:    rdb,
		started:  time.Now(),
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("admin API listening on %s (database %s)", addr, cfg.MongoDB.Database)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("shutting down admin API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// newVerifier prefers Keycloak, then the shared JWT secret. Without either
// the API only starts when ADMIN_ALLOW_ANONYMOUS is set.
func newVerifier(ctx context.Context, cfg *config.Config) (middleware.Verifier, error) {
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		v, err := oidc.NewVerifier(ctx, oidc.IssuerURL(cfg.Keycloak.URL, cfg.Keycloak.Realm), cfg.Keycloak.ClientID)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	if cfg.JWT.Secret != "" {
		return tokens.NewHMACVerifier(cfg.JWT.Secret), nil
	}
	if cfg.Admin.AllowAnonymous {
		logger.Warnf("admin API runs without authentication (ADMIN_ALLOW_ANONYMOUS=true)")
		return nil, nil
	}
	return nil, errors.New("no admin authentication configured: set KEYCLOAK_URL and KEYCLOAK_CLIENT_ID, JWT_SECRET, or ADMIN_ALLOW_ANONYMOUS=true")
}

// connectRedis returns a client for the rate limiter, or nil when Redis is
// not configured or unreachable.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr() == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		logger.Warnf("redis %s unreachable, using in-process rate limiting: %v", cfg.Redis.Addr(), err)
		_ = rdb.Close()
		return nil
	}
	logger.Infof("connected to redis at %s", cfg.Redis.Addr())
	return rdb
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	handlers.RegisterHealthRoutes(r, d.catalog, d.started)
	handlers.RegisterSwagger(r)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	if d.verifier != nil {
		api.Use(middleware.AuthMiddleware(d.verifier))
	}
	if d.cfg.RateLimit.Enabled {
		if d.cfg.RateLimit.UseRedis && d.redis != nil {
			win := time.Duration(d.cfg.RateLimit.WindowSeconds) * time.Second
			api.Use(middleware.RedisRateLimitMiddleware(d.redis, d.cfg.RateLimit.RPS, d.cfg.RateLimit.Burst, win))
		} else {
			api.Use(middleware.RateLimitMiddleware(d.cfg.RateLimit.RPS, d.cfg.RateLimit.Burst))
		}
	}
	handlers.RegisterProjectRoutes(api, d.service, schema.Options{RawTranscriptsTTL: d.cfg.Schema.EffectiveTTL()})
	return r
}
