// Package httpapi exposes the JSON HTTP surface consumed by the web and
// mobile clients: authentication and the sync endpoint.
package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ddanilenko/famledger/internal/logging"
	"github.com/ddanilenko/famledger/internal/server/models"
	"github.com/ddanilenko/famledger/internal/server/sync"
)

// userService is the slice of services.UserService the handlers use.
type userService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// syncService is the slice of sync.Service the handlers use.
type syncService interface {
	Sync(ctx context.Context, familyID, actorID string, req *sync.Request) (*sync.Response, error)
}

type Server struct {
	address   string
	app       *fiber.App
	logger    logging.Logger
	users     userService
	sync      syncService
	jwtSecret []byte
}

// NewServer builds the fiber app and registers all routes.
func NewServer(address string, logger logging.Logger, us userService, ss syncService, secretKey string) *Server {
	s := &Server{
		address:   address,
		logger:    logger.With("module", "http_server"),
		users:     us,
		sync:      ss,
		jwtSecret: []byte(secretKey),
	}

	app := fiber.New(fiber.Config{
		AppName:               "famledger",
		DisableStartupMessage: true,
	})

	api := app.Group("/api/v1")
	api.Get("/ping", s.handlePing)
	api.Post("/auth/signup", s.handleSignup)
	api.Post("/auth/login", s.handleLogin)
	api.Post("/sync", s.bearerAuth, s.handleSync)

	s.app = app
	return s
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		_ = s.app.Shutdown()
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
	return s.app.Listen(s.address)
}
