// Package server wires HTTP transport: routing, middleware, auth and the
// translation of service errors into responses.
package server

import (
	"context"
	"strconv"
	"sync"
	"time"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
	"quill/internal/policy"
	"quill/internal/repository"
	"quill/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	jwtIssuer   = "quill-api"
	jwtAudience = "quill-client"
	tokenTTL    = 7 * 24 * time.Hour
)

// Server holds the application state and dependencies.
type Server struct {
	app    *fiber.App
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client

	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository

	posts    *service.PostService
	comments *service.CommentService
	users    *service.UserService
}

// NewServer connects the database and Redis and assembles a ready-to-run server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		middleware.Logger.Warn("Redis unavailable, rate limiting degraded", "error", err.Error())
	}

	return NewServerWithDeps(cfg, db, rdb), nil
}

// NewServerWithDeps assembles a server from externally provided dependencies.
// Tests use it to inject in-memory databases and mock repositories.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:      "quill",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}),
		config:       cfg,
		db:           db,
		redis:        rdb,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		posts:        service.NewPostService(postRepo, categoryRepo, userRepo),
		comments:     service.NewCommentService(commentRepo, postRepo),
		users:        service.NewUserService(userRepo),
	}

	s.SetupMiddleware()
	s.SetupRoutes()
	return s
}

// promMetrics registers the HTTP metric collectors exactly once; tests build
// many servers against one default registry.
var (
	promOnce    sync.Once
	promMetrics *fiberprometheus.FiberPrometheus
)

func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMetrics = fiberprometheus.New("quill")
	})
	return promMetrics
}

// SetupMiddleware configures the global middleware chain.
func (s *Server) SetupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))
	s.app.Use(middleware.ContextMiddleware())

	prometheus := httpMetrics()
	prometheus.RegisterAt(s.app, "/metrics")
	s.app.Use(prometheus.Middleware)

	s.app.Use(helmet.New())
	s.app.Use(middleware.StructuredLogger())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.config.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
}

// SetupRoutes registers all HTTP routes.
func (s *Server) SetupRoutes() {
	s.app.Get("/health/live", s.LivenessCheck)
	s.app.Get("/health/ready", s.ReadinessCheck)

	api := s.app.Group("/api")

	auth := api.Group("/auth", middleware.RateLimit(s.redis, s.config.Env, 10, time.Minute, "auth"))
	auth.Post("/signup", s.Signup)
	auth.Post("/login", s.Login)

	writeLimit := middleware.RateLimit(s.redis, s.config.Env, 30, time.Minute, "write")

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", s.AuthRequired, writeLimit, s.CreatePost)
	posts.Get("/:id", s.OptionalAuth, s.GetPost)
	posts.Put("/:id", s.AuthRequired, s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired, s.DeletePost)

	posts.Get("/:id/comments", s.OptionalAuth, s.ListComments)
	posts.Post("/:id/comments", s.AuthRequired, writeLimit, s.AddComment)
	posts.Put("/:id/comments/:commentID", s.AuthRequired, s.UpdateComment)
	posts.Delete("/:id/comments/:commentID", s.AuthRequired, s.DeleteComment)

	categories := api.Group("/categories")
	categories.Get("/", s.ListCategories)
	categories.Get("/:slug", s.GetCategory)
	categories.Get("/:slug/posts", s.CategoryPosts)

	users := api.Group("/users")
	users.Get("/me", s.AuthRequired, s.CurrentUser)
	users.Get("/:username", s.GetProfile)
	users.Get("/:username/posts", s.OptionalAuth, s.UserPosts)
	users.Put("/:id", s.AuthRequired, s.UpdateProfile)
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ReadinessCheck reports whether the database accepts queries.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// AuthRequired validates the Bearer token and stores the authenticated user ID
// in locals and the request context.
func (s *Server) AuthRequired(c *fiber.Ctx) error {
	userID, err := s.parseBearerToken(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or missing token",
		})
	}
	s.storeUserID(c, userID)
	return c.Next()
}

// OptionalAuth resolves the actor from a Bearer token when one is present and
// falls through as anonymous otherwise. A malformed token is still rejected:
// a client that sends credentials must send valid ones.
func (s *Server) OptionalAuth(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		return c.Next()
	}
	userID, err := s.parseBearerToken(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token",
		})
	}
	s.storeUserID(c, userID)
	return c.Next()
}

func (s *Server) storeUserID(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
	c.SetUserContext(ctx)
}

func (s *Server) parseBearerToken(c *fiber.Ctx) (uint, error) {
	header := c.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return 0, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(header[len(prefix):], &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.config.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, jwt.ErrTokenInvalidClaims
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == uint64(policy.AnonymousID) {
		return 0, jwt.ErrTokenInvalidSubject
	}
	return uint(userID), nil
}

func (s *Server) generateToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    jwtIssuer,
		Audience:  jwt.ClaimStrings{jwtAudience},
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	middleware.Logger.Info("Starting server", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
