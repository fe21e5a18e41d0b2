// Package server contains the HTTP handlers and wiring for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "murmur/docs" // swagger docs
	"murmur/internal/auth"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/repository/mongostore"
	"murmur/internal/service"
	"murmur/internal/storage"
	"murmur/models"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "murmur-api"

// Deps are the already-initialized collaborators a Server is built from.
type Deps struct {
	Users         repository.UserRepository
	Posts         repository.PostRepository
	Notifications repository.NotificationRepository
	Images        storage.ImageStore
	// Redis is optional. Without it notifications reach only the websocket
	// connections held by this instance.
	Redis *redis.Client
	// PingStore reports whether the primary store is reachable.
	PingStore func(ctx context.Context) error
	// Close releases the primary store.
	Close func(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	log            *zap.Logger
	app            *fiber.App
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	pingStore      func(ctx context.Context) error
	closeStore     func(ctx context.Context) error
	hub            *notifications.Hub
	stopHub        context.CancelFunc

	tokens   *auth.TokenIssuer
	userRepo repository.UserRepository

	authService         *service.AuthService
	userService         *service.UserService
	postService         *service.PostService
	notificationService *service.NotificationService
}

// NewServer connects the configured store, Redis and image host and builds
// a Server on top of them.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	var deps Deps

	switch cfg.DBDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		deps = mongoDeps(client, db)
	default:
		db, err := database.Connect(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		deps = gormDeps(db)
	}

	if cfg.RedisURL != "" {
		rdb, err := notifications.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, notification fan-out disabled", zap.Error(err))
		} else {
			deps.Redis = rdb
		}
	}

	deps.Images = storage.Disabled{}
	if cfg.ImageHostEnabled() {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:        cfg.ImageBucket,
			Region:        cfg.ImageRegion,
			Endpoint:      cfg.ImageEndpoint,
			AccessKey:     cfg.ImageAccessKey,
			SecretKey:     cfg.ImageSecretKey,
			PublicBaseURL: cfg.ImagePublicBaseURL,
			MaxWidth:      cfg.ImageMaxWidth,
		})
		if err != nil {
			return nil, fmt.Errorf("image host: %w", err)
		}
		deps.Images = store
	} else {
		log.Warn("IMAGE_BUCKET not set, image uploads are disabled")
	}

	return NewServerWithDeps(cfg, log, deps), nil
}

func mongoDeps(client *mongo.Client, db *mongo.Database) Deps {
	return Deps{
		Users:         mongostore.NewUserStore(db),
		Posts:         mongostore.NewPostStore(db),
		Notifications: mongostore.NewNotificationStore(db),
		PingStore: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: client.Disconnect,
	}
}

func gormDeps(db *gorm.DB) Deps {
	return Deps{
		Users:         repository.NewUserRepository(db),
		Posts:         repository.NewPostRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		PingStore: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the stores itself.
func NewServerWithDeps(cfg *config.Config, log *zap.Logger, deps Deps) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Images == nil {
		deps.Images = storage.Disabled{}
	}

	hasher := auth.NewPasswordHasher(auth.DefaultCost)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)

	hub := notifications.NewHub(log)
	var publisher service.Publisher = hub
	if deps.Redis != nil {
		publisher = notifications.NewNotifier(deps.Redis)
	}
	notificationService := service.NewNotificationService(deps.Notifications, deps.Users, publisher)

	return &Server{
		config:              cfg,
		log:                 log,
		redis:               deps.Redis,
		promMiddleware:      middleware.InitMetrics(serviceName),
		pingStore:           deps.PingStore,
		closeStore:          deps.Close,
		hub:                 hub,
		tokens:              tokens,
		userRepo:            deps.Users,
		authService:         service.NewAuthService(deps.Users, hasher, tokens),
		userService:         service.NewUserService(deps.Users, deps.Images, hasher, notificationService),
		postService:         service.NewPostService(deps.Posts, deps.Users, deps.Images, notificationService),
		notificationService: notificationService,
	}
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "murmur",
		BodyLimit: 10 * 1024 * 1024, // base64 images travel in JSON bodies
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			return s.respondError(c, err)
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

	// Tracing runs first so the trace ID is in Locals for the context middleware.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	gate := middleware.RequireSession(s.tokens, s.userRepo)

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", s.Signup)
	authRoutes.Post("/login", s.Login)
	authRoutes.Post("/logout", s.Logout)
	authRoutes.Get("/me", gate, s.Me)

	posts := api.Group("/posts", gate)
	posts.Get("/all", s.GetAllPosts)
	posts.Get("/following", s.GetFollowingPosts)
	posts.Get("/likes/:id", s.GetLikedPosts)
	posts.Get("/user/:username", s.GetUserPosts)
	posts.Post("/create", s.CreatePost)
	posts.Post("/like/:id", s.LikeUnlikePost)
	posts.Post("/comment/:id", s.CommentOnPost)
	posts.Delete("/:id", s.DeletePost)

	users := api.Group("/user", gate)
	users.Get("/profile/:username", s.GetUserProfile)
	users.Get("/suggested", s.GetSuggestedUsers)
	users.Post("/follow/:id", s.FollowUnfollowUser)
	users.Post("/update", s.UpdateUser)

	notes := api.Group("/notifications", gate)
	notes.Get("/", s.GetNotifications)
	notes.Delete("/", s.DeleteNotifications)

	ws := api.Group("/ws", gate, middleware.RequireUpgrade())
	ws.Get("/notifications", s.NotificationStream())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the store and, when configured, Redis are
// reachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.pingStore != nil {
		if err := s.pingStore(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
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

// StartRealtime subscribes the websocket hub to Redis so notifications
// published by any instance reach this instance's connections. Without Redis
// it does nothing.
func (s *Server) StartRealtime() error {
	if s.redis == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.hub.StartWiring(ctx, notifications.NewNotifier(s.redis)); err != nil {
		cancel()
		return err
	}
	s.stopHub = cancel
	return nil
}

// Start builds the app and blocks serving it.
func (s *Server) Start() error {
	if err := s.StartRealtime(); err != nil {
		s.log.Warn("realtime notifications limited to this instance", zap.Error(err))
	}
	s.app = s.NewApp()
	s.log.Info("server starting", zap.String("port", s.config.Port), zap.String("driver", s.config.DBDriver))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopHub != nil {
		s.stopHub()
	}
	s.hub.Shutdown()

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			s.log.Error("error shutting down HTTP server", zap.Error(err))
		}
	}

	if s.closeStore != nil {
		if err := s.closeStore(ctx); err != nil {
			s.log.Error("error closing store", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Error("error closing redis", zap.Error(err))
		}
	}

	s.log.Info("server shutdown complete")
	return nil
}
