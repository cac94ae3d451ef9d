package models

import (
	"errors"
	"fmt"
)

// Error variables for session lookups.
var (
	ErrInvalidSession  = errors.New("invalid session")
	ErrSessionNotFound = errors.New("session not found")
)

// ConfigError reports a malformed questionnaire or knowledge corpus.
// It is raised at load time and never in response to user input.
type ConfigError struct {
	Source string // file path or "embedded"
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("config %s: %s: %s", e.Source, e.Field, e.Reason)
}
