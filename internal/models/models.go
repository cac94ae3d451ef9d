// Package models defines the core data structures for PulseBot.
//
// It includes the questionnaire definition, per-session interview state, the
// knowledge snippets used for retrieval, and the reply shapes shared by the
// dialogue engine and the HTTP layer.
package models

import (
	"fmt"
	"strings"
)

// QuestionType defines how an answer to a question is validated.
type QuestionType string

const (
	// QuestionTypeRating expects a number within [Min, Max] and triggers a follow-up prompt.
	QuestionTypeRating QuestionType = "rating"
	// QuestionTypeText accepts any non-empty answer verbatim.
	QuestionTypeText QuestionType = "text"
	// QuestionTypeChoice expects one of Options, matched case-insensitively.
	QuestionTypeChoice QuestionType = "choice"
)

// IsValidQuestionType checks if the given question type is supported.
func IsValidQuestionType(qt QuestionType) bool {
	switch qt {
	case QuestionTypeRating, QuestionTypeText, QuestionTypeChoice:
		return true
	default:
		return false
	}
}

// Question is a single step of the questionnaire.
type Question struct {
	ID      string       `json:"id" yaml:"id"`
	Text    string       `json:"text" yaml:"text"`
	Type    QuestionType `json:"type" yaml:"type"`
	Min     int          `json:"min,omitempty" yaml:"min,omitempty"`         // rating only
	Max     int          `json:"max,omitempty" yaml:"max,omitempty"`         // rating only
	Options []string     `json:"options,omitempty" yaml:"options,omitempty"` // choice only
}

// QuickReplies returns the suggested literal answers shown alongside the question.
func (q Question) QuickReplies() []string {
	switch q.Type {
	case QuestionTypeRating:
		return []string{fmt.Sprint(q.Min), fmt.Sprint(q.Max)}
	case QuestionTypeChoice:
		replies := make([]string, len(q.Options))
		copy(replies, q.Options)
		return replies
	default:
		return []string{}
	}
}

// MatchOption returns the canonical option equal to answer ignoring case.
func (q Question) MatchOption(answer string) (string, bool) {
	normalized := strings.ToLower(answer)
	for _, option := range q.Options {
		if strings.ToLower(option) == normalized {
			return option, true
		}
	}
	return "", false
}

// Validate checks the question definition and returns a *ConfigError describing the first problem.
func (q Question) Validate(source string) error {
	if strings.TrimSpace(q.ID) == "" {
		return &ConfigError{Source: source, Field: "questions.id", Reason: "question id cannot be empty"}
	}
	field := "questions[" + q.ID + "]"
	if strings.TrimSpace(q.Text) == "" {
		return &ConfigError{Source: source, Field: field + ".text", Reason: "question text cannot be empty"}
	}
	if !IsValidQuestionType(q.Type) {
		return &ConfigError{Source: source, Field: field + ".type", Reason: fmt.Sprintf("unknown question type %q", q.Type)}
	}
	switch q.Type {
	case QuestionTypeRating:
		if q.Min >= q.Max {
			return &ConfigError{Source: source, Field: field, Reason: fmt.Sprintf("rating min (%d) must be less than max (%d)", q.Min, q.Max)}
		}
	case QuestionTypeChoice:
		if len(q.Options) == 0 {
			return &ConfigError{Source: source, Field: field + ".options", Reason: "choice question needs at least one option"}
		}
		for _, option := range q.Options {
			if strings.TrimSpace(option) == "" {
				return &ConfigError{Source: source, Field: field + ".options", Reason: "choice option cannot be empty"}
			}
		}
	}
	return nil
}

// Questionnaire is the ordered, immutable interview definition.
type Questionnaire struct {
	Title     string     `json:"title" yaml:"title"`
	Intro     string     `json:"intro" yaml:"intro"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Validate checks every question and the questionnaire as a whole.
func (q *Questionnaire) Validate(source string) error {
	if len(q.Questions) == 0 {
		return &ConfigError{Source: source, Field: "questions", Reason: "questionnaire has no questions"}
	}
	seen := make(map[string]bool, len(q.Questions))
	for _, question := range q.Questions {
		if err := question.Validate(source); err != nil {
			return err
		}
		if seen[question.ID] {
			return &ConfigError{Source: source, Field: "questions[" + question.ID + "]", Reason: "duplicate question id"}
		}
		seen[question.ID] = true
	}
	return nil
}

// Len returns the number of questions.
func (q *Questionnaire) Len() int {
	return len(q.Questions)
}

// At returns the question at index i, or false once i is past the end.
func (q *Questionnaire) At(i int) (Question, bool) {
	if i < 0 || i >= len(q.Questions) {
		return Question{}, false
	}
	return q.Questions[i], true
}

// KnowledgeDoc is a tagged snippet eligible for retrieval.
type KnowledgeDoc struct {
	ID   string   `json:"id" yaml:"id"`
	Tags []string `json:"tags" yaml:"tags"`
	Text string   `json:"text" yaml:"text"`
}
