package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
)

// Server bundles the full auth stack behind a fiber backed router. It is the
// quickest way to stand the module up as a standalone service; applications
// embedding the package wire RegisterAuthRoutes into their own router instead.
type Server struct {
	cfg      Config
	repo     RepositoryManager
	auther   *Auther
	route    *RouteAuthenticator
	notifier EmailSender
	logger   Logger
	srv      router.Server[*fiber.App]
}

type ServerOption func(*Server)

func WithServerLogger(logger Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithServerNotifier(notifier EmailSender) ServerOption {
	return func(s *Server) {
		s.notifier = notifier
	}
}

// NewServer assembles repositories, authenticator, middleware, and routes on
// top of the given database handle.
func NewServer(db *bun.DB, cfg Config, opts ...ServerOption) (*Server, error) {
	repo := NewRepositoryManager(db)

	s := &Server{
		cfg:    cfg,
		repo:   repo,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.notifier == nil {
		s.notifier = NewLogEmailSender(s.logger)
	}

	provider := NewUserProvider(NewUserTrackerAdapter(repo.Users())).WithLogger(s.logger)

	s.auther = NewAuthenticator(provider, repo.Users(), cfg).WithLogger(s.logger)

	route, err := NewHTTPAuthenticator(s.auther, cfg)
	if err != nil {
		return nil, err
	}
	s.route = route.WithUsers(repo.Users()).WithLogger(s.logger)

	s.srv = router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	s.srv.Router().Use(s.route.Authenticate())

	RegisterAuthRoutes(s.srv.Router(),
		WithControllerRepo(repo),
		WithControllerAuther(s.auther),
		WithControllerConfig(cfg),
		WithControllerNotifier(s.notifier),
		WithControllerRouteAuthenticator(s.route),
		WithControllerLogger(s.logger),
	)

	return s, nil
}

// Router exposes the underlying router for additional routes and middleware.
func (s *Server) Router() router.Router[*fiber.App] {
	return s.srv.Router()
}

// Authenticator exposes the configured Auther.
func (s *Server) Authenticator() *Auther {
	return s.auther
}

// RouteAuthenticator exposes the middleware wiring.
func (s *Server) RouteAuthenticator() *RouteAuthenticator {
	return s.route
}

// Repo exposes the repository manager.
func (s *Server) Repo() RepositoryManager {
	return s.repo
}

// Serve blocks listening on addr.
func (s *Server) Serve(addr string) error {
	return s.srv.Serve(addr)
}
