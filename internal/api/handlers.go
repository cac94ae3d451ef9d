package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BTreeMap/PulseBot/internal/models"
)

// Client-facing error messages.
const (
	MsgInvalidSession  = "Invalid session. Please refresh to start a new survey."
	MsgSessionNotFound = "Session not found."
	MsgInvalidJSON     = "Invalid JSON format"
)

// maxBodyBytes caps inbound message bodies.
const maxBodyBytes = 64 << 10

// startHandler handles GET /api/start.
func (s *Server) startHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.startHandler: processing start request", "remote", r.RemoteAddr)
	reply, err := s.engine.Start(r.Context())
	if err != nil {
		slog.Error("Server.startHandler: failed to start session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to start survey")
		return
	}
	writeJSONResponse(w, http.StatusOK, reply)
}

// messageHandler handles POST /api/message.
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.messageHandler: processing message", "method", r.Method, "path", r.URL.Path)

	var req models.MessageRequest
	// An empty body decodes to a request without a session id.
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Warn("Server.messageHandler: failed to decode JSON", "error", err)
		writeError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.messageHandler: request rejected", "error", err)
		writeError(w, http.StatusBadRequest, MsgInvalidSession)
		return
	}

	reply, err := s.engine.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if models.IsSessionError(err) {
			slog.Warn("Server.messageHandler: invalid session", "sessionID", req.SessionID)
			writeError(w, http.StatusBadRequest, MsgInvalidSession)
			return
		}
		slog.Error("Server.messageHandler: engine failed", "error", err, "sessionID", req.SessionID)
		writeError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}
	writeJSONResponse(w, http.StatusOK, reply)
}

// historyHandler handles GET /api/history/{sessionId}.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	slog.Debug("Server.historyHandler: processing history request", "sessionID", sessionID)

	history, err := s.engine.History(r.Context(), sessionID)
	if err != nil {
		if models.IsSessionError(err) {
			writeError(w, http.StatusNotFound, MsgSessionNotFound)
			return
		}
		slog.Error("Server.historyHandler: lookup failed", "error", err, "sessionID", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	writeJSONResponse(w, http.StatusOK, history)
}

// healthHandler handles GET /healthz.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.engine.ActiveSessions(),
	})
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	slog.Warn("Server: method not allowed", "method", r.Method, "path", r.URL.Path)
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server: route not found", "method", r.Method, "path", r.URL.Path)
	writeError(w, http.StatusNotFound, "Not found")
}
