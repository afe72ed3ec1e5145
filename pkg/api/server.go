package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/veil/pkg/audit"
	"github.com/platinummonkey/veil/pkg/engine"
	"github.com/platinummonkey/veil/pkg/jobs"
	"github.com/platinummonkey/veil/pkg/media"
	"github.com/platinummonkey/veil/pkg/observability"
)

// Config carries the dependencies the API server routes over. Engine is
// required; everything else degrades gracefully when nil: media routes
// return 503 without their redactor, job routes 503 without a manager, and
// the audit query route is only mounted when a store is present.
type Config struct {
	Engine        *engine.Engine
	Jobs          *jobs.Manager
	ImageRedactor *media.ImageRedactor
	AudioRedactor *media.AudioRedactor
	VideoPlanner  *media.VideoPlanner

	// AuditLogger receives one event per API operation. Defaults to
	// audit.NopLogger.
	AuditLogger audit.Logger
	// AuditStore, when set, backs the GET /api/v1/audit/events route.
	AuditStore audit.Store

	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// Server is the veil HTTP API.
type Server struct {
	router *mux.Router

	engine *engine.Engine
	jobs   *jobs.Manager
	image  *media.ImageRedactor
	audio  *media.AudioRedactor
	video  *media.VideoPlanner

	auditLog   audit.Logger
	auditStore audit.Store

	logger  *observability.Logger
	metrics *observability.Metrics

	started time.Time
}

// NewServer creates the API server and mounts its routes.
func NewServer(cfg Config) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		engine:     cfg.Engine,
		jobs:       cfg.Jobs,
		image:      cfg.ImageRedactor,
		audio:      cfg.AudioRedactor,
		video:      cfg.VideoPlanner,
		auditLog:   cfg.AuditLogger,
		auditStore: cfg.AuditStore,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		started:    time.Now(),
	}
	if s.auditLog == nil {
		s.auditLog = audit.NopLogger{}
	}
	if s.logger == nil {
		s.logger = observability.NewLogger(observability.InfoLevel, os.Stderr)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Text routes
	s.router.HandleFunc("/api/v1/detect", s.detectText).Methods("POST")
	s.router.HandleFunc("/api/v1/redact/text", s.redactText).Methods("POST")
	s.router.HandleFunc("/api/v1/redact/batch", s.redactBatch).Methods("POST")
	s.router.HandleFunc("/api/v1/verify", s.verifyText).Methods("POST")

	// Media routes
	s.router.HandleFunc("/api/v1/redact/image", s.redactImage).Methods("POST")
	s.router.HandleFunc("/api/v1/redact/audio", s.redactAudio).Methods("POST")
	s.router.HandleFunc("/api/v1/redact/video", s.redactVideo).Methods("POST")

	// Job routes
	s.router.HandleFunc("/api/v1/jobs/{id}", s.getJob).Methods("GET")
	s.router.HandleFunc("/api/v1/download/{id}", s.downloadArtifact).Methods("GET")

	// Introspection routes
	s.router.HandleFunc("/api/v1/strategies", s.listStrategies).Methods("GET")
	s.router.HandleFunc("/api/v1/stats", s.getStats).Methods("GET")

	if s.auditStore != nil {
		s.router.HandleFunc("/api/v1/audit/events", audit.QueryHandler(s.auditStore)).Methods("GET")
	}
}

// Use wraps every route in the given middleware. Middleware applies in
// registration order, outermost first.
func (s *Server) Use(mw ...mux.MiddlewareFunc) {
	s.router.Use(mw...)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying mux for callers that mount extra routes.
func (s *Server) Router() *mux.Router {
	return s.router
}
