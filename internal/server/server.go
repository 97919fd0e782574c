// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "audiovault/docs" // swagger docs
	"audiovault/internal/ai"
	"audiovault/internal/cache"
	"audiovault/internal/config"
	"audiovault/internal/database"
	"audiovault/internal/keepalive"
	"audiovault/internal/middleware"
	"audiovault/internal/models"
	"audiovault/internal/repository"
	"audiovault/internal/service"
	"audiovault/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "audiovault-api"
	tokenAudience = "audiovault-client"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	closers        []func() error

	userRepo repository.UserRepository

	userService     *service.UserService
	followService   *service.FollowService
	feedService     *service.FeedService
	itemService     *service.ItemService
	findService     *service.WildFindService
	analysisService *service.AnalysisService
}

// Deps are the already-initialized collaborators a Server is built from.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Store    storage.ObjectStore
	Analyzer service.Analyzer
}

// NewServer connects every backing service described by cfg and wires the
// handlers. Object storage and AI degrade to disabled stand-ins when they are
// not configured.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var store storage.ObjectStore
	minioStore, err := storage.NewMinioStore(ctx, cfg)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		middleware.Logger.Warn("object storage not configured, photo uploads disabled")
		store = storage.Disabled{}
	case err != nil:
		return nil, fmt.Errorf("object storage init failed: %w", err)
	default:
		store = minioStore
	}

	aiClient, err := ai.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("AI client init failed: %w", err)
	}

	s := NewServerWithDeps(cfg, Deps{
		DB:       db,
		Redis:    cache.GetClient(),
		Store:    store,
		Analyzer: aiClient,
	})
	s.closers = append(s.closers, aiClient.Close)
	return s, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with sqlite, miniredis and in-memory stores.
func NewServerWithDeps(cfg *config.Config, deps Deps) *Server {
	userRepo := repository.NewUserRepository(deps.DB)
	followRepo := repository.NewFollowRepository(deps.DB)
	itemRepo := repository.NewAudioItemRepository(deps.DB)
	findRepo := repository.NewWildFindRepository(deps.DB)

	images := service.NewImageService(deps.Store, cfg)
	itemService := service.NewItemService(itemRepo, images)

	return &Server{
		config:          cfg,
		db:              deps.DB,
		redis:           deps.Redis,
		promMiddleware:  middleware.InitMetrics("audiovault-api"),
		userRepo:        userRepo,
		userService:     service.NewUserService(userRepo, followRepo, itemRepo),
		followService:   service.NewFollowService(followRepo, userRepo),
		feedService:     service.NewFeedService(followRepo, itemRepo, findRepo),
		itemService:     itemService,
		findService:     service.NewWildFindService(findRepo, images),
		analysisService: service.NewAnalysisService(deps.Analyzer, images, itemService, itemRepo, findRepo),
	}
}

// NewApp builds a Fiber app with the error handler, middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Vintage Audio Vault API",
		BodyLimit: (s.config.UploadMaxSizeMB*service.MaxPhotosPerItem + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	api.Get("/health-check", s.HealthCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public reads
	api.Get("/items/discover", s.DiscoverItems)
	api.Get("/users/profile/:id", s.GetUserProfile)
	api.Get("/users/:id/followers", s.GetFollowers)
	api.Get("/users/:id/following", s.GetFollowing)

	protected := api.Group("", s.AuthRequired())

	items := protected.Group("/items")
	items.Get("/", s.ListMyItems)
	items.Post("/", s.CreateItem)
	items.Post("/:id/photos", s.AddItemPhotos)
	items.Get("/:id", s.GetItem)
	items.Put("/:id", s.UpdateItem)
	items.Delete("/:id", s.DeleteItem)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/feed", s.GetFeed)
	users.Post("/:id/follow", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.FollowUser)
	users.Post("/:id/unfollow", s.UnfollowUser)

	finds := protected.Group("/wild-finds")
	finds.Get("/", s.ListWildFinds)
	finds.Post("/", s.CreateWildFind)
	finds.Get("/:id", s.GetWildFind)
	finds.Delete("/:id", s.DeleteWildFind)

	aiRoutes := protected.Group("/ai", middleware.RateLimit(s.redis, 20, time.Minute, "ai"))
	aiRoutes.Post("/identify", s.IdentifyEquipment)
	aiRoutes.Post("/items/:id/analyze", s.AnalyzeItem)
	aiRoutes.Post("/wild-find", s.ScanWildFind)
	aiRoutes.Post("/ad", s.AnalyzeAd)
}

// HealthCheck handles GET /api/health-check, the keep-alive target.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string}
// @Router /health-check [get]
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "UP"})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and cache health. Redis is optional, so a
// missing cache does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "disabled"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// accessClaims are the validated claims of a bearer token.
type accessClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// parseAccessToken validates signature, issuer, audience and expiry.
func (s *Server) parseAccessToken(tokenString string) (*accessClaims, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	out := &accessClaims{UserID: uint(userID), JTI: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func bearerToken(c *fiber.Ctx) string {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.parseAccessToken(tokenString)
		if err != nil {
			return models.Respond(c, err)
		}

		revoked, err := cache.IsTokenRevoked(c.UserContext(), claims.JTI)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "token revocation check failed", "error", err)
		}
		if revoked {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, claims.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID returns the caller's ID when a valid, unrevoked token is
// present. Anonymous access yields (0, false).
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, false
	}
	claims, err := s.parseAccessToken(tokenString)
	if err != nil {
		return 0, false
	}
	if revoked, _ := cache.IsTokenRevoked(c.UserContext(), claims.JTI); revoked {
		return 0, false
	}
	return claims.UserID, true
}

// Start serves HTTP and, when configured, runs the keep-alive pinger until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.config.SelfPingURL != "" {
		go keepalive.New(s.config.SelfPingURL, s.config.SelfPingInterval).Run(s.shutdownCtx)
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			middleware.Logger.Error("error closing client", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
