// Package flow implements the interview dialogue engine.
//
// The engine walks a session through the questionnaire: it validates each
// answer by question type, gates every rating behind one open-ended follow-up,
// attaches retrieved knowledge snippets, and closes with a summary. Session
// state is read and written only inside session.Registry.With, so each
// session sees at most one message at a time.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/PulseBot/internal/knowledge"
	"github.com/BTreeMap/PulseBot/internal/metrics"
	"github.com/BTreeMap/PulseBot/internal/models"
	"github.com/BTreeMap/PulseBot/internal/session"
)

// RandSource picks encouragement phrases. *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// ResultSaver archives completed sessions.
type ResultSaver interface {
	SaveResult(ctx context.Context, result models.SurveyResult) error
}

// Engine is the dialogue state machine. It holds no per-session state of its own.
type Engine struct {
	questionnaire *models.Questionnaire
	corpus        *knowledge.Corpus
	sessions      *session.Registry
	results       ResultSaver
	rnd           RandSource
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandSource fixes the randomness used to choose encouragement phrases.
func WithRandSource(r RandSource) Option {
	return func(e *Engine) {
		e.rnd = r
	}
}

// WithResultSaver archives every session that reaches the end of the questionnaire.
func WithResultSaver(s ResultSaver) Option {
	return func(e *Engine) {
		e.results = s
	}
}

// WithClock overrides the time source used for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine over a validated questionnaire, a corpus, and the session registry it owns.
func NewEngine(q *models.Questionnaire, corpus *knowledge.Corpus, sessions *session.Registry, opts ...Option) *Engine {
	e := &Engine{
		questionnaire: q,
		corpus:        corpus,
		sessions:      sessions,
		rnd:           globalRand{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	slog.Debug("Engine created", "questions", q.Len(), "docs", corpus.Len(), "archive", e.results != nil)
	return e
}

// Questionnaire returns the definition the engine runs.
func (e *Engine) Questionnaire() *models.Questionnaire {
	return e.questionnaire
}

// ActiveSessions reports how many sessions the registry holds.
func (e *Engine) ActiveSessions() int {
	return e.sessions.Len()
}

// Start creates a session and returns the first question.
func (e *Engine) Start(ctx context.Context) (models.StartReply, error) {
	s, err := e.sessions.Create()
	if err != nil {
		slog.Error("Engine.Start: failed to create session", "error", err)
		return models.StartReply{}, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SessionsStarted.Inc()

	first, _ := e.questionnaire.At(0)
	slog.Info("Engine.Start: session started", "sessionID", s.ID)
	return models.StartReply{
		SessionID:    s.ID,
		Intro:        e.questionnaire.Intro,
		Message:      first.Text,
		QuickReplies: first.QuickReplies(),
		Progress:     Progress(&s, e.questionnaire),
	}, nil
}

// HandleMessage applies one inbound message to a session. It returns
// models.ErrInvalidSession when sessionID is empty or unknown; answer
// validation problems are reported in the reply, never as errors.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, text string) (models.Reply, error) {
	if sessionID == "" {
		return models.Reply{}, models.ErrInvalidSession
	}

	var (
		reply   models.Reply
		outcome string
		result  *models.SurveyResult
	)
	err := e.sessions.With(ctx, sessionID, func(s *models.Session) error {
		wasDone := s.QuestionIndex >= e.questionnaire.Len()
		reply, outcome = e.Respond(s, text)
		if reply.Done && !wasDone {
			r := e.resultFor(s)
			result = &r
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			slog.Warn("Engine.HandleMessage: unknown session", "sessionID", sessionID)
			return models.Reply{}, fmt.Errorf("%w: %s", models.ErrInvalidSession, sessionID)
		}
		return models.Reply{}, err
	}

	metrics.MessagesHandled.WithLabelValues(outcome).Inc()
	metrics.RetrievalSnippets.Observe(float64(len(reply.RAGContext)))
	slog.Debug("Engine.HandleMessage: handled", "sessionID", sessionID, "outcome", outcome, "done", reply.Done)

	if result != nil {
		metrics.SurveysCompleted.Inc()
		slog.Info("Engine.HandleMessage: survey completed", "sessionID", sessionID, "responses", len(result.Responses))
		e.archive(ctx, *result)
	}
	return reply, nil
}

// History returns the recorded responses of a session.
func (e *Engine) History(ctx context.Context, sessionID string) (models.History, error) {
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return models.History{}, fmt.Errorf("%w: %s", models.ErrSessionNotFound, sessionID)
	}
	return models.History{Responses: s.Responses, CreatedAt: s.CreatedAt}, nil
}

// Respond runs one state machine step against s and reports the outcome label.
// The caller must hold the session's lock.
func (e *Engine) Respond(s *models.Session, raw string) (models.Reply, string) {
	question, ok := e.questionnaire.At(s.QuestionIndex)
	if !ok {
		return models.Reply{Message: MsgAlreadyDone, Done: true, RAGContext: []string{}}, metrics.OutcomeClosed
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if s.FollowUpPending {
			return models.Reply{Message: MsgEmptyFollowUp, QuickReplies: []string{}, RAGContext: []string{}}, metrics.OutcomeEmpty
		}
		return models.Reply{Message: MsgEmptyAnswer, QuickReplies: question.QuickReplies(), RAGContext: []string{}}, metrics.OutcomeEmpty
	}

	if s.FollowUpPending {
		return e.recordFollowUp(s, question, trimmed), metrics.OutcomeAccepted
	}

	switch question.Type {
	case models.QuestionTypeRating:
		value, ok := parseRating(trimmed, question)
		if !ok {
			slog.Debug("Engine.Respond: rating out of range", "sessionID", s.ID, "questionID", question.ID)
			return models.Reply{
				Message:      fmt.Sprintf(MsgRatingRange, question.Min, question.Max),
				QuickReplies: question.QuickReplies(),
				RAGContext:   []string{},
			}, metrics.OutcomeRejected
		}
		s.Responses = append(s.Responses, models.Response{ID: question.ID, Type: models.ResponseTypeRating, Value: value})
		s.FollowUpPending = true
		s.FollowUpFor = question.ID
		return models.Reply{
			Message:      e.encouragement() + " " + followUpPrompt(value),
			QuickReplies: []string{},
			RAGContext:   e.corpus.Retrieve(question.Text + " " + formatNumber(value)),
		}, metrics.OutcomeFollowUp

	case models.QuestionTypeChoice:
		option, ok := question.MatchOption(trimmed)
		if !ok {
			slog.Debug("Engine.Respond: no matching option", "sessionID", s.ID, "questionID", question.ID)
			return models.Reply{
				Message:      fmt.Sprintf(MsgChoiceOptions, strings.Join(question.Options, ", ")),
				QuickReplies: question.QuickReplies(),
				RAGContext:   []string{},
			}, metrics.OutcomeRejected
		}
		s.Responses = append(s.Responses, models.Response{ID: question.ID, Type: models.ResponseTypeChoice, Value: option})

	default:
		s.Responses = append(s.Responses, models.Response{ID: question.ID, Type: models.ResponseTypeText, Value: trimmed})
	}

	s.QuestionIndex++
	return e.advance(s, question.Text+" "+trimmed), metrics.OutcomeAccepted
}

// recordFollowUp closes the follow-up gate for the current question and moves on.
func (e *Engine) recordFollowUp(s *models.Session, question models.Question, answer string) models.Reply {
	parent := s.FollowUpFor
	if parent == "" {
		parent = question.ID
	}
	s.Responses = append(s.Responses, models.Response{
		ID:       parent + models.FollowUpSuffix,
		Type:     models.ResponseTypeFollowUp,
		Value:    answer,
		ParentID: parent,
	})
	s.FollowUpPending = false
	s.FollowUpFor = ""
	s.QuestionIndex++
	return e.advance(s, answer)
}

// advance composes the reply after the cursor moved: the next question, or the summary.
func (e *Engine) advance(s *models.Session, query string) models.Reply {
	rag := e.corpus.Retrieve(query)
	next, ok := e.questionnaire.At(s.QuestionIndex)
	if !ok {
		return models.Reply{Message: Summary(s.Responses), Done: true, RAGContext: rag}
	}
	progress := Progress(s, e.questionnaire)
	return models.Reply{
		Message:      e.encouragement() + " " + next.Text,
		QuickReplies: next.QuickReplies(),
		Progress:     &progress,
		RAGContext:   rag,
	}
}

func (e *Engine) encouragement() string {
	return Encouragements[e.rnd.IntN(len(Encouragements))]
}

func (e *Engine) resultFor(s *models.Session) models.SurveyResult {
	snap := s.Snapshot()
	r := models.SurveyResult{
		SessionID:   snap.ID,
		Title:       e.questionnaire.Title,
		CreatedAt:   snap.CreatedAt,
		CompletedAt: e.now(),
		Responses:   snap.Responses,
	}
	if avg, ok := AverageRating(snap.Responses); ok {
		r.AverageRating = &avg
	}
	return r
}

// archive stores a completed result. Failures are logged and do not affect the reply.
func (e *Engine) archive(ctx context.Context, result models.SurveyResult) {
	if e.results == nil {
		return
	}
	if err := e.results.SaveResult(ctx, result); err != nil {
		slog.Error("Engine.archive: failed to save survey result", "error", err, "sessionID", result.SessionID)
	}
}

// parseRating accepts any finite number within the question's inclusive bounds.
func parseRating(input string, q models.Question) (float64, bool) {
	value, ok := parseNumber(input)
	if !ok {
		return 0, false
	}
	if value < float64(q.Min) || value > float64(q.Max) {
		return 0, false
	}
	return value, true
}

// parseNumber reads a decimal number, or an unsigned integer with a 0x, 0b or
// 0o prefix. Digit separators and hexadecimal floats are rejected.
func parseNumber(input string) (float64, bool) {
	if strings.Contains(input, "_") {
		return 0, false
	}
	if len(input) > 2 && input[0] == '0' && strings.ContainsRune("xXbBoO", rune(input[1])) {
		n, err := strconv.ParseUint(input, 0, 64)
		if err != nil {
			return 0, false
		}
		return float64(n), true
	}
	if strings.ContainsAny(input, "xX") {
		return 0, false
	}
	value, err := strconv.ParseFloat(input, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
