package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/playrps/rpsroom/internal/api/handler"
	apimiddleware "github.com/playrps/rpsroom/internal/api/middleware"
	"github.com/playrps/rpsroom/internal/metrics"
	"github.com/playrps/rpsroom/internal/middleware"
	"github.com/playrps/rpsroom/internal/presence"
	"github.com/playrps/rpsroom/internal/services/match"
	"github.com/playrps/rpsroom/internal/services/round"
	"github.com/playrps/rpsroom/internal/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	Sessions     *session.Manager
	Coordinator  *match.Coordinator
	Synchronizer *round.Synchronizer
	Tracker      *presence.Tracker
	Metrics      *metrics.Metrics
	BaseURL      string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.Sessions)
	roomHandler := handler.NewRoomHandler(cfg.Coordinator, cfg.Metrics, cfg.BaseURL)
	roundHandler := handler.NewRoundHandler(cfg.Synchronizer)
	eventsHandler := handler.NewEventsHandler(cfg.Synchronizer, cfg.Metrics)
	presenceHandler := handler.NewPresenceHandler(cfg.Tracker)

	authMiddleware := apimiddleware.Auth(cfg.Sessions)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)
	metricsMiddleware := middleware.Metrics(cfg.Metrics)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(metricsMiddleware)

	// Session creation needs no existing session
	api.HandleFunc("/session", sessionHandler.Start).Methods(http.MethodPost)

	sessions := api.PathPrefix("/session").Subrouter()
	sessions.Use(authMiddleware)
	sessions.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("", sessionHandler.End).Methods(http.MethodDelete)
	sessions.HandleFunc("/name", sessionHandler.SetDisplayName).Methods(http.MethodPatch)
	sessions.HandleFunc("/accent", sessionHandler.SetAccent).Methods(http.MethodPatch)
	sessions.HandleFunc("/score", sessionHandler.GetScore).Methods(http.MethodGet)
	sessions.HandleFunc("/score", sessionHandler.ResetScore).Methods(http.MethodDelete)

	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("/resume", roomHandler.Resume).Methods(http.MethodPost)
	rooms.HandleFunc("/{code:[0-9]{4}}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{code:[0-9]{4}}/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/{code:[0-9]{4}}/ready", roomHandler.Ready).Methods(http.MethodPost)
	rooms.HandleFunc("/{code:[0-9]{4}}/leave", roomHandler.Leave).Methods(http.MethodPost)
	rooms.HandleFunc("/{code:[0-9]{4}}/move", roundHandler.Move).Methods(http.MethodPost)
	rooms.HandleFunc("/{code:[0-9]{4}}/reset", roundHandler.Reset).Methods(http.MethodPost)
	rooms.HandleFunc("/{code:[0-9]{4}}/events", eventsHandler.Stream).Methods(http.MethodGet)

	presenceRoutes := api.PathPrefix("/presence").Subrouter()
	presenceRoutes.Use(authMiddleware)
	presenceRoutes.HandleFunc("", presenceHandler.Connect).Methods(http.MethodGet)
	presenceRoutes.HandleFunc("/count", presenceHandler.Count).Methods(http.MethodGet)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
