package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/memberhub/apiserver/config"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/db"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/internal/handlers"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/mq"
	"github.com/memberhub/apiserver/internal/services"
	"github.com/memberhub/apiserver/internal/storage"
	"github.com/memberhub/apiserver/internal/store"
	"github.com/memberhub/apiserver/internal/store/memstore"
)

// Server wraps the HTTP server, the router and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     mq.Backend
	log        logging.Logger
}

// Repositories is the set of stores the services run on.
type Repositories struct {
	Users    services.UserRepository
	Ledger   services.LedgerRepository
	Vouchers services.VoucherRepository
	Chat     services.ChatRepository
}

// OpenRepositories connects to the store selected by DB_DRIVER. The
// returned *sql.DB is nil for the memory driver.
func OpenRepositories(ctx context.Context, cfg config.Config) (Repositories, *sql.DB, error) {
	if cfg.Database.Driver == config.DriverMemory {
		mem := memstore.New()
		return Repositories{
			Users:    mem.Users(),
			Ledger:   mem.Ledger(),
			Vouchers: mem.Vouchers(),
			Chat:     mem.Chat(),
		}, nil, nil
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return Repositories{}, nil, err
	}
	timeout := cfg.Database.QueryTimeout
	return Repositories{
		Users:    store.NewUserRepository(dbConn, timeout),
		Ledger:   store.NewLedgerRepository(dbConn, timeout),
		Vouchers: store.NewVoucherRepository(dbConn, timeout),
		Chat:     store.NewChatRepository(dbConn, timeout),
	}, dbConn, nil
}

// New constructs a Server with its middleware, backing store, event
// broker and object storage.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repos, dbConn, err := OpenRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg)
	if err != nil {
		closeDB(dbConn)
		return nil, fmt.Errorf("open mq: %w", err)
	}

	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		closeDB(dbConn)
		closeBroker(broker)
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var publisher events.Publisher
	if broker != nil {
		publisher = broker
	}
	emitter := events.NewEmitter(publisher, cfg.MQ.EventsChannel, log)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AdminPasscode)

	svc := handlers.Services{
		Users:    services.NewUserService(repos.Users, repos.Ledger, issuer, emitter),
		Ledger:   services.NewLedgerService(repos.Ledger, emitter),
		Vouchers: services.NewVoucherService(repos.Vouchers, emitter),
		Chat:     services.NewChatService(repos.Chat, emitter),
		Exports:  services.NewExportService(repos.Ledger, objects, log),
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors(cfg.CORSOrigins),
	)
	handlers.Mount(router, svc, issuer, log)
	router.Route("/api", func(r chi.Router) {
		handlers.Mount(r, svc, issuer, log)
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info(ctx, "server configured",
		"addr", httpServer.Addr,
		"db_driver", cfg.Database.Driver,
		"mq_backend", cfg.MQ.Backend,
		"storage_backend", cfg.Storage.Backend,
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the store and broker.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	closeBroker(s.broker)
	closeDB(s.db)
	return err
}

func closeDB(dbConn *sql.DB) {
	if dbConn != nil {
		_ = dbConn.Close()
	}
}

func closeBroker(broker mq.Backend) {
	if broker != nil {
		_ = broker.Close()
	}
}
