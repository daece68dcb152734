package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/studentdesk/internal/app/controllers"
	appMigrations "github.com/yigit/studentdesk/internal/app/migrations"
	appRepos "github.com/yigit/studentdesk/internal/app/repositories"
	"github.com/yigit/studentdesk/internal/app/repositories/memory"
	"github.com/yigit/studentdesk/internal/app/repositories/mongodb"
	"github.com/yigit/studentdesk/internal/app/repositories/postgres"
	appRoutes "github.com/yigit/studentdesk/internal/app/routes"
	appServices "github.com/yigit/studentdesk/internal/app/services"
	"github.com/yigit/studentdesk/internal/config"
	"github.com/yigit/studentdesk/internal/db"
	appMiddleware "github.com/yigit/studentdesk/internal/middleware"
	pkgAuth "github.com/yigit/studentdesk/internal/pkg/auth"
	"github.com/yigit/studentdesk/internal/pkg/cache"
	"github.com/yigit/studentdesk/internal/pkg/events"
	"github.com/yigit/studentdesk/internal/pkg/helpers"
	"github.com/yigit/studentdesk/internal/pkg/logger"
	"github.com/yigit/studentdesk/internal/pkg/metrics"
	"github.com/yigit/studentdesk/internal/pkg/validation"
	"github.com/yigit/studentdesk/internal/seed"
)

// Infrastructure holds the connections to external systems
type Infrastructure struct {
	Repos       *appRepos.Repositories
	Redis       *redis.Client // nil when Redis is disabled
	Revocations pkgAuth.RevocationStore
	Publisher   events.Publisher
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	*Infrastructure

	AuthService    appServices.AuthService
	AdminService   appServices.AdminService
	StudentService appServices.StudentService

	AuthController    *appControllers.AuthController
	AdminController   *appControllers.AdminController
	StudentController *appControllers.StudentController
	HealthController  *appControllers.HealthController

	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	Hasher         *pkgAuth.PasswordHasher
	Validator      *validation.Validator
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.FromSettings(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().
		Str("logLevel", cfg.Logging.Level).
		Str("logFormat", cfg.Logging.Format).
		Str("driver", cfg.Database.Driver).
		Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStore opens the configured document store and prepares its schema.
func SetupStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*appRepos.Repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")

		migrationsDir := cfg.Database.MigrationsDir
		if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
			database.Close()
			return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
		}

		lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
		migrator := appMigrations.NewMigrator(database.Pool, lgr)
		if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
			database.Close()
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")

		return postgres.NewRepositories(database), nil

	case config.DriverMongo:
		lgr.Info().Msg("Connecting to MongoDB...")
		database, err := db.NewMongoDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to MongoDB")
			return nil, err
		}

		if err := mongodb.EnsureIndexes(ctx, database.DB); err != nil {
			_ = database.Close(context.Background())
			return nil, fmt.Errorf("mongo index setup failed: %w", err)
		}
		lgr.Info().Str("database", cfg.Mongo.Database).Msg("MongoDB ready")

		return mongodb.NewRepositories(database), nil

	case config.DriverMemory:
		lgr.Warn().Msg("Using in-memory store, data is lost on restart")
		return memory.NewRepositories(memory.NewStore()), nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// SetupInfrastructure opens the store and the optional Redis and Kafka
// connections. On failure everything opened so far is closed again.
func SetupInfrastructure(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Infrastructure, error) {
	repos, err := SetupStore(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}
	infra := &Infrastructure{
		Repos:       repos,
		Revocations: pkgAuth.NoopRevocationStore{},
		Publisher:   events.NoopPublisher{},
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			_ = infra.Close(context.Background())
			return nil, err
		}
		infra.Redis = client
		infra.Revocations = cache.NewRedisRevocationStore(client)
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis token revocation enabled")
	} else {
		infra.Revocations = cache.NewMemoryRevocationStore()
	}

	if cfg.Kafka.Enabled {
		publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers(), cfg.Kafka.ClientID, cfg.Kafka.TopicPrefix, lgr)
		if err != nil {
			_ = infra.Close(context.Background())
			return nil, err
		}
		infra.Publisher = publisher
		lgr.Info().Strs("brokers", cfg.KafkaBrokers()).Msg("Kafka event publishing enabled")
	}

	return infra, nil
}

// Close releases every connection held by the infrastructure.
func (i *Infrastructure) Close(ctx context.Context) error {
	var errs []error
	if i.Publisher != nil {
		if err := i.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if i.Repos != nil && i.Repos.Close != nil {
		if err := i.Repos.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// BuildDependencies initializes application services and controllers.
func BuildDependencies(cfg *config.Config, infra *Infrastructure, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Infrastructure: infra, Logger: lgr}

	deps.Validator = validation.New(validation.AgePolicy{
		Min: cfg.Validation.StudentAgeMin,
		Max: cfg.Validation.StudentAgeMax,
	})
	deps.Hasher = pkgAuth.NewPasswordHasher(cfg.Security.BcryptCost)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenExp:    helpers.ParseDuration(cfg.JWT.TokenExpiration, 30*24*time.Hour),
		TokenIssuer: cfg.JWT.Issuer,
	})
	deps.Metrics = metrics.New("studentdesk")

	deps.AuthService = appServices.NewAuthService(
		infra.Repos,
		deps.Validator,
		deps.JWTService,
		deps.Hasher,
		infra.Publisher,
		logger.Component("auth_service"),
	)
	deps.AdminService = appServices.NewAdminService(
		infra.Repos,
		deps.Validator,
		deps.Hasher,
		deps.JWTService,
		infra.Revocations,
		infra.Publisher,
		logger.Component("admin_service"),
	)
	deps.StudentService = appServices.NewStudentService(
		infra.Repos,
		deps.Validator,
		deps.JWTService,
		infra.Revocations,
		infra.Publisher,
		logger.Component("student_service"),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, infra.Revocations)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.AdminController = appControllers.NewAdminController(deps.AdminService, lgr)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService, lgr)

	checks := map[string]appControllers.HealthCheck{
		"store": infra.Repos.Ping,
	}
	if infra.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return infra.Redis.Ping(ctx).Err()
		}
	}
	deps.HealthController = appControllers.NewHealthController(checks)

	return deps
}

// SeedDefaultData creates the configured admin account.
func SeedDefaultData(ctx context.Context, cfg *config.Config, deps *Dependencies) error {
	return seed.CreateDefaultAdmin(ctx, cfg, deps.Repos.Users, deps.Hasher, deps.Logger)
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.EqualFold(cfg.Server.Mode, "production") {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestLogger(lgr),
		appMiddleware.ErrorHandler(cfg.IsDevelopment()),
		appMiddleware.Recovery(lgr),
		cors.New(corsConfig(cfg.CORSOrigins())),
		deps.Metrics.Middleware(),
	)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.AdminController,
		deps.StudentController,
		deps.HealthController,
		deps.AuthMiddleware,
	)
	appRoutes.SetupSwagger(router)
	appRoutes.SetupMetrics(router, deps.Metrics.Handler())

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AddAllowHeaders("Authorization")
	return c
}
