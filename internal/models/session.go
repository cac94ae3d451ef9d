package models

import "time"

// ResponseType records which kind of answer a Response holds.
type ResponseType string

const (
	ResponseTypeRating   ResponseType = "rating"
	ResponseTypeText     ResponseType = "text"
	ResponseTypeChoice   ResponseType = "choice"
	ResponseTypeFollowUp ResponseType = "followup"
)

// FollowUpSuffix is appended to a question id to form the id of its follow-up answer.
const FollowUpSuffix = "-followup"

// Response is one accepted answer. Responses are append-only.
type Response struct {
	ID       string       `json:"id"`
	Type     ResponseType `json:"type"`
	Value    any          `json:"value"`              // float64 for ratings, string otherwise
	ParentID string       `json:"parentId,omitempty"` // originating question id for follow-ups
}

// Rating returns the numeric value of a rating response.
func (r Response) Rating() (float64, bool) {
	if r.Type != ResponseTypeRating {
		return 0, false
	}
	v, ok := r.Value.(float64)
	return v, ok
}

// Text returns the string value of a non-rating response.
func (r Response) Text() (string, bool) {
	s, ok := r.Value.(string)
	return s, ok
}

// Session is the per-user interview state. Only the dialogue engine mutates it,
// and only while holding the registry's per-session lock.
type Session struct {
	ID              string     `json:"id"`
	CreatedAt       time.Time  `json:"createdAt"`
	QuestionIndex   int        `json:"questionIndex"`
	Responses       []Response `json:"responses"`
	FollowUpPending bool       `json:"followUpPending"`
	FollowUpFor     string     `json:"followUpFor,omitempty"`
}

// NewSession returns a session positioned at the first question.
func NewSession(id string, createdAt time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: createdAt,
		Responses: []Response{},
	}
}

// Snapshot returns a copy that shares no mutable state with s.
func (s *Session) Snapshot() Session {
	c := *s
	c.Responses = make([]Response, len(s.Responses))
	copy(c.Responses, s.Responses)
	return c
}

// SurveyResult is the archived record of a completed session.
type SurveyResult struct {
	SessionID     string     `json:"sessionId"`
	Title         string     `json:"title"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   time.Time  `json:"completedAt"`
	AverageRating *float64   `json:"averageRating,omitempty"`
	Responses     []Response `json:"responses"`
}
