package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vasu-devs/Vaani/internal/config"
	"github.com/vasu-devs/Vaani/pkg/logger"
)

// HandlerManager owns the HTTP handlers and wires them onto the router.
type HandlerManager struct {
	config      *config.Config
	callHandler *CallHandler
}

// NewHandlerManager creates the handler manager.
func NewHandlerManager(cfg *config.Config, callHandler *CallHandler) *HandlerManager {
	return &HandlerManager{
		config:      cfg,
		callHandler: callHandler,
	}
}

// SetupAllRoutes registers every route on the router.
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	if hm.config.EnableCORS {
		api.Use(CORSMiddleware)
	}
	api.Use(LoggingMiddleware)
	api.Use(ValidationMiddleware)

	// Dispatching provisions rooms and telephony; keep it rate limited.
	dispatch := api.PathPrefix("/call").Subrouter()
	dispatch.Use(RateLimitMiddleware(hm.config.DispatchRPS, hm.config.DispatchBurst))
	dispatch.HandleFunc("", hm.callHandler.HandleTriggerCall).Methods("POST", "OPTIONS")

	api.HandleFunc("/history", hm.callHandler.HandleHistory).Methods("GET", "OPTIONS")
	api.HandleFunc("/logs/{logId}", hm.callHandler.HandleGetLog).Methods("GET", "OPTIONS")

	router.HandleFunc("/health", handleHealth).Methods("GET")

	logger.Base().Info("routes registered")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
