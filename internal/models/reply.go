package models

import (
	"errors"
	"time"
)

// Progress reports how far a session has moved through the questionnaire.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

// Reply is the engine's answer to one inbound message.
// QuickReplies and Progress are absent on branches that do not present a question.
type Reply struct {
	Message      string    `json:"message"`
	QuickReplies []string  `json:"quickReplies,omitempty"`
	Progress     *Progress `json:"progress,omitempty"`
	Done         bool      `json:"done"`
	RAGContext   []string  `json:"ragContext"`
}

// StartReply is returned when a new session is created.
type StartReply struct {
	SessionID    string   `json:"sessionId"`
	Intro        string   `json:"intro"`
	Message      string   `json:"message"`
	QuickReplies []string `json:"quickReplies"`
	Progress     Progress `json:"progress"`
}

// History is the recorded answer log of a session.
type History struct {
	Responses []Response `json:"responses"`
	CreatedAt time.Time  `json:"createdAt"`
}

// MessageRequest is the payload of an inbound chat message.
type MessageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Validate rejects requests that carry no session id.
func (r *MessageRequest) Validate() error {
	if r.SessionID == "" {
		return ErrInvalidSession
	}
	return nil
}

// APIError is the JSON body of a failed HTTP request.
type APIError struct {
	Error string `json:"error"`
}

// Error creates an error body with the given message.
func Error(message string) APIError {
	return APIError{Error: message}
}

// IsSessionError reports whether err means the caller referenced a session that does not exist.
func IsSessionError(err error) bool {
	return errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrSessionNotFound)
}
