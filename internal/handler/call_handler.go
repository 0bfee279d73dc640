package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vasu-devs/Vaani/internal/services/call"
	"github.com/vasu-devs/Vaani/internal/storage"
	"github.com/vasu-devs/Vaani/pkg/logger"
	"go.uber.org/zap"
)

// SessionStarter runs the live side of a dispatched call session.
type SessionStarter interface {
	Run(ctx context.Context, session *call.CallSession) error
}

// CallHandler handles the outbound-call trigger and the history/reporting
// endpoints.
type CallHandler struct {
	dispatcher *call.Dispatcher
	runner     SessionStarter
	store      *storage.RecordStore
}

// NewCallHandler creates a call handler.
func NewCallHandler(dispatcher *call.Dispatcher, runner SessionStarter, store *storage.RecordStore) *CallHandler {
	return &CallHandler{
		dispatcher: dispatcher,
		runner:     runner,
		store:      store,
	}
}

// CallRequest is the trigger payload. debt_amount accepts a number or string;
// it is carried as its string representation on the metadata wire.
type CallRequest struct {
	PhoneNumber string      `json:"phone_number"`
	DebtAmount  json.Number `json:"debt_amount"`
	DebtorName  string      `json:"debtor_name"`
	AgentName   string      `json:"agent_name"`
	AgentVoice  string      `json:"agent_voice"`
	UserDetails string      `json:"user_details"`
}

// CallResponse acknowledges a dispatched call.
type CallResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	Room          string `json:"room,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// HandleTriggerCall dispatches an outbound call.
// POST /api/call
func (h *CallHandler) HandleTriggerCall(w http.ResponseWriter, r *http.Request) {
	var request CallRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
		return
	}
	if request.PhoneNumber == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "phone_number is required"})
		return
	}

	overrides := map[string]string{
		"debtor_name":  request.DebtorName,
		"debt_amount":  request.DebtAmount.String(),
		"agent_name":   request.AgentName,
		"agent_voice":  request.AgentVoice,
		"user_details": request.UserDetails,
	}
	for k, v := range overrides {
		if v == "" {
			delete(overrides, k)
		}
	}
	overridesJSON, _ := json.Marshal(overrides)

	session, err := h.dispatcher.Dispatch(r.Context(), request.PhoneNumber, string(overridesJSON))
	if err != nil {
		logger.Base().Error("call dispatch failed",
			zap.String("phone_number", request.PhoneNumber),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}

	// The session outlives this request; run it detached.
	go func() {
		if err := h.runner.Run(context.Background(), session); err != nil {
			logger.Base().Error("session runner failed",
				zap.String("room_name", session.RoomName),
				zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusOK, CallResponse{
		Status:        "initiated",
		Message:       fmt.Sprintf("Calling %s...", request.PhoneNumber),
		Room:          session.RoomName,
		ParticipantID: session.ParticipantID,
	})
}

// HandleHistory lists persisted call record summaries, newest first.
// GET /api/history
func (h *CallHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List(r.Context())
	if err != nil {
		logger.Base().Error("failed to list call records", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "failed to list call records"})
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// HandleGetLog returns one full call record.
// GET /api/logs/{logId}
func (h *CallHandler) HandleGetLog(w http.ResponseWriter, r *http.Request) {
	logID := mux.Vars(r)["logId"]

	record, err := h.store.Get(r.Context(), logID)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Log not found"})
			return
		}
		logger.Base().Error("failed to load call record", zap.String("log_id", logID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "failed to load call record"})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Base().Error("failed to encode response", zap.Error(err))
	}
}
