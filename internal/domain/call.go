package domain

import "time"

// DefaultOperatorExtension is the extension assigned to calls when none is configured.
const DefaultOperatorExtension = "1001"

// Call represents one active telephone call.
type Call struct {
	ID                string        `json:"id"`
	CallerNumber      string        `json:"caller_number"`
	CalledNumber      string        `json:"called_number"`
	Direction         CallDirection `json:"direction"`
	Status            CallStatus    `json:"status"`
	StartedAt         time.Time     `json:"started_at"`
	AnsweredAt        *time.Time    `json:"answered_at,omitempty"`
	EndedAt           *time.Time    `json:"ended_at,omitempty"`
	OperatorExtension string        `json:"operator_extension"`
}

// Clone returns a deep copy so snapshots never share timestamp pointers with live state.
func (c Call) Clone() Call {
	out := c
	if c.AnsweredAt != nil {
		t := *c.AnsweredAt
		out.AnsweredAt = &t
	}
	if c.EndedAt != nil {
		t := *c.EndedAt
		out.EndedAt = &t
	}
	return out
}

// TranscriptSegment is one transcribed utterance.
type TranscriptSegment struct {
	CallID     string  `json:"call_id"`
	Timestamp  float64 `json:"timestamp"`
	Speaker    Speaker `json:"speaker"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// NewTranscriptSegment builds a segment stamped with at and full confidence.
func NewTranscriptSegment(callID string, speaker Speaker, text string, at time.Time) TranscriptSegment {
	return TranscriptSegment{
		CallID:     callID,
		Timestamp:  float64(at.UnixNano()) / float64(time.Second),
		Speaker:    speaker,
		Text:       text,
		Confidence: 1.0,
	}
}

// Suggestion is a short piece of guidance for the operator.
type Suggestion struct {
	CallID    string         `json:"call_id"`
	Type      SuggestionKind `json:"type"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Priority  Priority       `json:"priority"`
	CreatedAt time.Time      `json:"created_at"`
}
