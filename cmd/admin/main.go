package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/internal/audit"
	"github.com/richxcame/ride-reputation/internal/notifications"
	"github.com/richxcame/ride-reputation/internal/ratings"
	"github.com/richxcame/ride-reputation/internal/reputation"
	"github.com/richxcame/ride-reputation/internal/verification"
	"github.com/richxcame/ride-reputation/pkg/common"
	"github.com/richxcame/ride-reputation/pkg/config"
	"github.com/richxcame/ride-reputation/pkg/database"
	"github.com/richxcame/ride-reputation/pkg/eventbus"
	"github.com/richxcame/ride-reputation/pkg/health"
	"github.com/richxcame/ride-reputation/pkg/jwtkeys"
	"github.com/richxcame/ride-reputation/pkg/logger"
	"github.com/richxcame/ride-reputation/pkg/middleware"
	"github.com/richxcame/ride-reputation/pkg/models"
	"github.com/richxcame/ride-reputation/pkg/ratelimit"
	"github.com/richxcame/ride-reputation/pkg/redis"
	"github.com/richxcame/ride-reputation/pkg/resilience"
	"github.com/richxcame/ride-reputation/pkg/secrets"
	"github.com/richxcame/ride-reputation/pkg/storage"
	"github.com/richxcame/ride-reputation/pkg/tracing"
)

const serviceName = "admin"

func main() {
	// Load configuration
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	resolveSecretRefs(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Server.Environment,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, serviceName, cfg.Tracing)
		if err != nil {
			logger.Warn("Failed to initialize tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(shutdownCtx)
			}()
		}
	}

	// Connect to PostgreSQL
	db, err := database.NewDBPool(ctx, &cfg.Database, serviceName)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// database/sql handle for migrations and readiness probes
	sqlDB, err := database.OpenSQL(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(sqlDB, &cfg.Database); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}

	// Connect to Redis
	redisClient, err := redis.NewRedisClientWithTimeouts(&cfg.Redis, cfg.Timeouts)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Event bus: no-op when NATS is disabled so publishes stay best-effort
	bus := eventbus.NewNoop()
	if cfg.NATS.Enabled {
		bus, err = eventbus.New(&cfg.NATS)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
	}
	defer bus.Close()

	// Object storage for verification documents
	documents, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		logger.Warn("Object storage unavailable, document links disabled", zap.Error(err))
		documents = nil
	}

	// Audit trail
	auditRepo := audit.NewRepository(db)
	auditService := audit.NewService(auditRepo)

	// Ratings read model and moderation repository
	ratingsRepo := ratings.NewRepository(db)
	ratingsService := ratings.NewService(ratingsRepo)

	// Reputation orchestrator
	statsRepo := reputation.NewStatsRepository(db, cfg.Reputation.LateCancelWindow())
	scoreStore := reputation.NewScoreStore(db)
	scoreCache := reputation.NewScoreCache(redisClient, reputation.DefaultScoreCacheTTL)
	reputationService := reputation.NewService(statsRepo, scoreStore, ratingsRepo, auditService, bus, scoreCache)

	// Verification review
	verificationRepo := verification.NewRepository(db)
	verificationService := verification.NewService(verificationRepo, documents, auditService, bus)

	// Notification dispatch
	var firebaseClient notifications.FirebaseClientInterface
	if cfg.Firebase.Enabled {
		fc, err := notifications.NewFirebaseClient(ctx, cfg.Firebase)
		if err != nil {
			logger.Warn("Failed to initialize Firebase, push disabled", zap.Error(err))
		} else {
			firebaseClient = fc
		}
	}
	var twilioClient notifications.TwilioClientInterface
	if cfg.Twilio.Enabled {
		twilioClient = notifications.NewTwilioClient(cfg.Twilio)
	}

	notificationsRepo := notifications.NewRepository(db)
	notificationService := notifications.NewService(notificationsRepo, firebaseClient, twilioClient)
	notificationService.SetCircuitBreakers(
		resilience.NewCircuitBreaker(resilience.BuildSettings("notifications_push", 0, 0, 0, 0), nil),
		resilience.NewCircuitBreaker(resilience.BuildSettings("notifications_sms", 0, 0, 0, 0), nil),
	)
	go notificationService.RunPendingSweep(ctx, time.Minute)

	alerts := notifications.NewAlertSender(cfg.Alerts)
	eventHandler := notifications.NewEventHandler(notificationService, alerts)
	if cfg.NATS.Enabled {
		if err := eventHandler.RegisterSubscriptions(ctx, bus); err != nil {
			logger.Warn("Failed to subscribe to reputation events", zap.Error(err))
		}
	}

	// JWT verification with rotating keys; static secret as fallback
	authMiddleware := middleware.AuthMiddleware(cfg.JWT.Secret)
	keyManager, err := jwtkeys.NewManagerFromConfig(ctx, cfg.JWT, true)
	if err != nil {
		logger.Warn("Failed to initialize JWT key manager, using static secret", zap.Error(err))
	} else if keyManager != nil {
		authMiddleware = middleware.AuthMiddlewareWithProvider(keyManager)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.SecurityHeaders())
	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(cfg.Server.CORSOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	router.GET("/healthz", common.HealthCheck(serviceName, "1.0.0"))
	router.GET("/readyz", common.HealthCheckWithDeps(serviceName, "1.0.0", map[string]func() error{
		"database": health.AsyncChecker(health.DatabaseChecker(sqlDB), 2*time.Second),
		"redis":    health.AsyncChecker(health.RedisChecker(redisClient.Client), 2*time.Second),
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Admin API
	api := router.Group("/api/v1/admin")
	api.Use(requestTimeout(cfg.Server.WriteTimeout))
	api.Use(middleware.MaxBodySize(1 << 20))
	api.Use(authMiddleware)
	api.Use(middleware.RequireRole(models.RoleAdmin))
	if cfg.RateLimit.Enabled {
		api.Use(ratelimit.Middleware(ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)))
	}

	reputation.NewAdminHandler(reputationService).RegisterRoutes(api)
	ratings.NewAdminHandler(ratingsService).RegisterRoutes(api)
	audit.NewAdminHandler(auditService).RegisterRoutes(api)
	verification.NewAdminHandler(verificationService).RegisterRoutes(api)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		// WriteTimeout stays above the per-request timeout middleware so the
		// middleware response wins.
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout+5) * time.Second,
	}

	go func() {
		logger.Info("Admin service starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down admin service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}

// requestTimeout bounds one admin request; scoring and moderation calls are
// short, so a stuck call is a dependency fault, not normal load.
func requestTimeout(seconds int) gin.HandlerFunc {
	if seconds <= 0 {
		seconds = 10
	}
	return timeout.New(
		timeout.WithTimeout(time.Duration(seconds)*time.Second),
		timeout.WithHandler(func(c *gin.Context) { c.Next() }),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusGatewayTimeout, "Request timed out")
		}),
	)
}

// resolveSecretRefs overrides selected config values from an external secret
// store when SECRETS_PROVIDER is set. References use the
// [provider://]path[@version][#key] syntax; unset references leave the
// env-provided value in place.
func resolveSecretRefs(cfg *config.Config) {
	providerType := secrets.ProviderType(os.Getenv("SECRETS_PROVIDER"))
	if providerType == secrets.ProviderNone {
		return
	}

	manager, err := secrets.NewManager(secrets.Config{
		Provider: providerType,
		Vault: secrets.VaultConfig{
			Address:   cfg.JWT.VaultAddress,
			Token:     cfg.JWT.VaultToken,
			Namespace: cfg.JWT.VaultNamespace,
			MountPath: os.Getenv("SECRETS_VAULT_MOUNT"),
		},
		AWS:        secrets.AWSConfig{Region: os.Getenv("AWS_REGION")},
		GCP:        secrets.GCPConfig{ProjectID: os.Getenv("GCP_PROJECT_ID")},
		Kubernetes: secrets.KubernetesConfig{BasePath: os.Getenv("SECRETS_K8S_BASE_PATH")},
	})
	if err != nil {
		logger.Warn("Failed to initialize secrets manager, using env values", zap.Error(err))
		return
	}
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	refs := []struct {
		env        string
		name       string
		secretType secrets.SecretType
		target     *string
	}{
		{"DB_PASSWORD_SECRET_REF", "database_password", secrets.SecretDatabase, &cfg.Database.Password},
		{"JWT_SECRET_REF", "jwt_secret", secrets.SecretJWTKeys, &cfg.JWT.Secret},
		{"TWILIO_AUTH_TOKEN_SECRET_REF", "twilio_auth_token", secrets.SecretTwilio, &cfg.Twilio.AuthToken},
	}
	for _, r := range refs {
		raw := os.Getenv(r.env)
		if raw == "" {
			continue
		}
		ref, err := secrets.ParseReference(r.name, r.secretType, raw)
		if err != nil {
			logger.Warn("Invalid secret reference", zap.String("ref", r.env), zap.Error(err))
			continue
		}
		value, err := manager.GetString(ctx, ref)
		if err != nil {
			logger.Warn("Failed to resolve secret, using env value",
				zap.String("ref", r.env), zap.Error(err))
			continue
		}
		*r.target = value
	}
}

func splitOrigins(raw string) []string {
	if raw == "" || raw == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
