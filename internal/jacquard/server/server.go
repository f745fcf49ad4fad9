package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
	"github.com/msto63/mCW/internal/jacquard/handler"
	"github.com/msto63/mCW/internal/jacquard/service"
	"github.com/msto63/mCW/internal/jacquard/store"
	"github.com/msto63/mCW/pkg/core/config"
	"github.com/msto63/mCW/pkg/core/discovery"
	"github.com/msto63/mCW/pkg/core/health"
	"github.com/msto63/mCW/pkg/core/logging"
	"github.com/msto63/mCW/pkg/core/version"
)

// ServiceName is the registry name of the annotation server.
const ServiceName = "jacquard"

// heartbeatInterval is how often the runtime file is refreshed.
const heartbeatInterval = 10 * time.Second

// Server is the jacquard annotation server
type Server struct {
	httpServer   *http.Server
	handler      *handler.Handler
	service      *service.Service
	registry     *discovery.FileRegistry
	registration *discovery.Registration
	info         *discovery.ServiceInfo
	health       *health.Registry
	logger       *logging.Logger
	config       *config.Config
}

// New creates a new jacquard server from the application configuration
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := logging.New("jacquard-server")

	// Open the profile store
	st, err := store.Open(cfg.Store.Type, cfg.Store.Path, cfg.Store.Backups)
	if err != nil {
		return nil, mcwerror.Wrap(err, "failed to open profile store").
			WithCode(mcwerror.CodeDatabaseError).
			WithDetail("type", cfg.Store.Type).
			WithDetail("path", cfg.Store.Path)
	}

	// Create the annotation service
	svcCfg := service.Config{
		DefaultProfile:   cfg.Engine.DefaultProfile,
		MaxDocumentBytes: int(cfg.Engine.MaxDocumentBytes),
		SessionTTL:       cfg.Jacquard.SessionTTL.Duration,
		EnableCache:      true,
		ResultCacheSize:  cfg.Jacquard.ResultCacheSize,
	}
	svc, err := service.New(svcCfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	// Create health registry
	healthRegistry := health.NewRegistry(ServiceName, version.Jacquard)
	healthRegistry.RegisterFunc("http", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "HTTP server is running",
		}
	})
	healthRegistry.RegisterFunc("store", func(ctx context.Context) health.CheckResult {
		if _, err := st.Statistics(ctx); err != nil {
			return health.CheckResult{
				Status:  health.StatusUnhealthy,
				Message: err.Error(),
			}
		}
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "Profile store is reachable",
		}
	})
	healthRegistry.Register(health.DirWritableCheck("data_dir", cfg.General.DataDir))

	// Create handlers
	h := handler.NewHandler(svc, healthRegistry, version.Jacquard)
	h.SetCORS(handler.CORSPolicy{
		Enabled:        cfg.Jacquard.CORS.Enabled,
		AllowedOrigins: cfg.Jacquard.CORS.AllowedOrigins,
		AllowedMethods: cfg.Jacquard.CORS.AllowedMethods,
	})
	wsHandler := handler.NewWebSocketHandler(svc)

	// Create HTTP server
	mux := http.NewServeMux()

	// WebSocket route
	mux.Handle("/ws/annotate", wsHandler)

	// API routes
	mux.Handle("/", h)
	mux.Handle("/api/", h)
	mux.Handle("/api/v1/", h)

	httpServer := &http.Server{
		Addr:         cfg.Jacquard.Address(),
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.Jacquard.ReadTimeout.Duration,
		WriteTimeout: cfg.Jacquard.WriteTimeout.Duration,
	}

	// Runtime-file registry for local service discovery
	registry := discovery.NewFileRegistry(filepath.Join(cfg.General.DataDir, "run"), 0)
	info := &discovery.ServiceInfo{
		Name:    ServiceName,
		Version: version.Jacquard,
		Address: cfg.Jacquard.Host,
		Port:    cfg.Jacquard.Port,
		PID:     os.Getpid(),
		Status:  discovery.ServiceStatusHealthy,
		Metadata: map[string]string{
			"base_url": cfg.Jacquard.BaseURL(),
		},
	}

	return &Server{
		httpServer: httpServer,
		handler:    h,
		service:    svc,
		registry:   registry,
		info:       info,
		health:     healthRegistry,
		logger:     logger,
		config:     cfg,
	}, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// register writes the runtime file and starts the heartbeat loop. It
// refuses to start while another live instance is registered.
func (s *Server) register() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	locator := discovery.NewServiceLocator(s.registry, 0)
	if running, err := locator.LocateVerified(ctx, ServiceName, 2*time.Second); err == nil {
		return mcwerror.Newf("jacquard already running at %s (pid %d)",
			running.FullAddress(), running.PID).
			WithCode(mcwerror.CodeDuplicateEntry).
			WithDetail("address", running.FullAddress())
	}

	registration := discovery.NewRegistration(s.registry, s.info, heartbeatInterval)
	if err := registration.Start(ctx); err != nil {
		return err
	}
	s.registration = registration
	return nil
}

// Start registers the server and serves until Stop is called
func (s *Server) Start() error {
	if err := s.register(); err != nil {
		return err
	}

	s.logger.Info("Starting jacquard annotation server",
		"address", s.httpServer.Addr,
		"store", s.config.Store.Type,
	)
	return s.httpServer.ListenAndServe()
}

// StartAsync registers the server and serves in the background
func (s *Server) StartAsync() error {
	if err := s.register(); err != nil {
		return err
	}

	s.logger.Info("Starting jacquard annotation server (async)",
		"address", s.httpServer.Addr,
		"store", s.config.Store.Type,
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server and removes its runtime file
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping jacquard annotation server")

	if s.registration != nil {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.registration.Stop(dctx); err != nil {
			s.logger.Warn("Failed to deregister service", "error", err)
		}
		cancel()
		s.registration = nil
	}

	err := s.httpServer.Shutdown(ctx)

	if cerr := s.service.Close(); cerr != nil {
		s.logger.Warn("Error closing annotation service", "error", cerr)
	}

	return err
}

// Address returns the server address
func (s *Server) Address() string {
	return s.config.Jacquard.Address()
}

// Service returns the annotation service
func (s *Server) Service() *service.Service {
	return s.service
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
