package services

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/voxhire/voxhire/backend/agents"
	"github.com/voxhire/voxhire/backend/llm"
	"github.com/voxhire/voxhire/backend/orchestrator"
	"github.com/voxhire/voxhire/backend/repository"
	ws "github.com/voxhire/voxhire/backend/websocket"
)

// Server holds all server dependencies
type Server struct {
	config *Config
	gormDB *repository.GORMRepository
	rawDB  *gorm.DB

	llmClient         *llm.Client
	elevenLabsService *ElevenLabsService

	registry   *orchestrator.Registry
	dispatcher *orchestrator.Dispatcher

	candidateEndpoints  *CandidateEndpoints
	assessmentEndpoints *AssessmentEndpoints
	hrEndpoints         *HREndpoints
	chatHandler         *ChatHandler
	voiceHandler        *VoiceHandler

	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r, config.WebSocket.AllowedOrigins)
			},
		},
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(db *repository.GORMRepository, rawDB *gorm.DB) {
	s.gormDB = db
	s.rawDB = rawDB
}

// InitializeServices initializes all server services
func (s *Server) InitializeServices() error {
	if s.config.AI.GeminiAPIKey != "" {
		client, err := llm.NewClient(s.config.AI.GeminiAPIKey)
		if err != nil {
			slog.Error("Failed to initialize Gemini client", "error", err)
			return err
		}
		s.llmClient = client
		slog.Info("Gemini client initialized")
	} else {
		slog.Warn("Gemini API key not configured, agents unavailable")
	}

	if s.config.AI.ElevenLabsKey != "" {
		s.elevenLabsService = NewElevenLabsService(s.config.AI.ElevenLabsKey)
		slog.Info("ElevenLabs service initialized")
	}

	// The orchestrator engine: registry, stage policy, dispatcher.
	var store orchestrator.Store
	if s.gormDB != nil {
		store = s.gormDB
	}
	s.registry = orchestrator.NewRegistry(s.config.Orchestrator.IdleTimeout, store)
	if err := s.registry.StartSweeper(s.config.Orchestrator.SweepSchedule); err != nil {
		return err
	}

	if s.llmClient != nil {
		policy := agents.BuildPolicy(s.llmClient, s.config.Orchestrator.MinStageTurns)
		s.dispatcher = orchestrator.NewDispatcher(s.registry, policy, store, orchestrator.Config{
			AgentTimeout: s.config.Orchestrator.AgentTimeout,
			AgentRetries: s.config.Orchestrator.AgentRetries,
			QueuePolicy:  orchestrator.QueuePolicy(s.config.Orchestrator.QueuePolicy),
		})
		slog.Info("Assessment dispatcher initialized",
			"agent_timeout", s.config.Orchestrator.AgentTimeout.String(),
			"queue_policy", s.config.Orchestrator.QueuePolicy)
	}

	s.wsHub = ws.NewHub()
	go s.wsHub.Run()

	// HTTP endpoints
	if s.gormDB != nil {
		s.candidateEndpoints = NewCandidateEndpoints(s.gormDB)
		s.hrEndpoints = NewHREndpoints(s.gormDB)
	}
	if s.gormDB != nil && s.dispatcher != nil {
		s.assessmentEndpoints = NewAssessmentEndpoints(s.gormDB, s.registry, s.dispatcher, s.wsHub)
	}

	// WebSocket transports
	if s.dispatcher != nil {
		s.chatHandler = NewChatHandler(s.dispatcher, s.registry)
		if s.llmClient != nil {
			s.voiceHandler = NewVoiceHandler(s.dispatcher, s.registry, s.llmClient, s.elevenLabsService)
		}
	}

	return nil
}

// Shutdown stops background workers.
func (s *Server) Shutdown() {
	if s.registry != nil {
		s.registry.StopSweeper()
	}
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health endpoint
	r.Get("/health", s.healthHandler)

	// API v1 route group
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)

		if s.chatHandler != nil {
			r.Get("/ws/chat/{session_id}", s.chatWebsocketHandler)
		}
		if s.voiceHandler != nil {
			r.Get("/ws/voice/{session_id}", s.voiceWebsocketHandler)
		}

		if s.candidateEndpoints != nil {
			s.candidateEndpoints.RegisterRoutes(r)
		}
		if s.assessmentEndpoints != nil {
			s.assessmentEndpoints.RegisterRoutes(r)
		}
		if s.hrEndpoints != nil {
			s.hrEndpoints.RegisterRoutes(r)
		}
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	s.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// checkOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func checkOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	allowedOrigins := strings.Split(allowedOriginsStr, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	for _, allowed := range allowedOrigins {
		if allowed == origin {
			slog.Info("WebSocket connection accepted", "origin", origin)
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.rawDB != nil {
		if sqlDB, err := s.rawDB.DB(); err == nil {
			if err := sqlDB.Ping(); err != nil {
				dbStatus = "down"
				status = "degraded"
			} else {
				dbStatus = "up"
			}
		} else {
			dbStatus = "down"
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"API v1","version":"1.0.0"}`))
}

func (s *Server) chatWebsocketHandler(w http.ResponseWriter, r *http.Request) {
	s.serveWebsocket(w, r, func(client *ws.Client) {
		client.MessageHandler = s.chatHandler.HandleMessage
		client.CloseHandler = s.chatHandler.HandleClose
		s.chatHandler.HandleConnect(client)
	})
}

func (s *Server) voiceWebsocketHandler(w http.ResponseWriter, r *http.Request) {
	s.serveWebsocket(w, r, func(client *ws.Client) {
		client.MessageHandler = s.voiceHandler.HandleMessage
		client.CloseHandler = s.voiceHandler.HandleClose
		s.voiceHandler.HandleConnect(client)
	})
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request, attach func(*ws.Client)) {
	sessionID := chi.URLParam(r, "session_id")
	if _, err := s.registry.Get(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	client := s.wsHub.RegisterClient(conn, sessionID)
	attach(client)

	go client.WritePump()
	client.ReadPump()
}
