// Package domain defines the core domain models for the call-assist orchestrator.
package domain

import "fmt"

// CallStatus represents the lifecycle status of a call.
type CallStatus string

const (
	CallStatusRinging  CallStatus = "ringing"
	CallStatusAnswered CallStatus = "answered"
	CallStatusEnded    CallStatus = "ended"
)

// CallDirection represents who placed the call.
type CallDirection string

const (
	CallDirectionIncoming CallDirection = "incoming"
	CallDirectionOutgoing CallDirection = "outgoing"
)

// ParseDirection maps a raw direction to a CallDirection. Empty input means incoming.
func ParseDirection(raw string) (CallDirection, error) {
	switch CallDirection(raw) {
	case "", CallDirectionIncoming:
		return CallDirectionIncoming, nil
	case CallDirectionOutgoing:
		return CallDirectionOutgoing, nil
	}
	return "", fmt.Errorf("unknown call direction %q", raw)
}

// Speaker tags one side of the conversation.
type Speaker string

const (
	SpeakerOperator Speaker = "operator"
	SpeakerClient   Speaker = "client"
)

// Speakers lists every speaker tag in the order the cadence task drains them.
var Speakers = []Speaker{SpeakerOperator, SpeakerClient}

// ParseSpeaker maps a raw speaker tag to a Speaker.
func ParseSpeaker(raw string) (Speaker, error) {
	switch Speaker(raw) {
	case SpeakerOperator, SpeakerClient:
		return Speaker(raw), nil
	}
	return "", fmt.Errorf("unknown speaker %q", raw)
}

// SuggestionKind classifies a piece of operator guidance.
type SuggestionKind string

const (
	SuggestionObjection SuggestionKind = "objection"
	SuggestionUpsell    SuggestionKind = "upsell"
	SuggestionInfo      SuggestionKind = "info"
	SuggestionWarning   SuggestionKind = "warning"
	SuggestionScript    SuggestionKind = "script"
)

// Valid reports whether k is one of the known kinds.
func (k SuggestionKind) Valid() bool {
	switch k {
	case SuggestionObjection, SuggestionUpsell, SuggestionInfo, SuggestionWarning, SuggestionScript:
		return true
	}
	return false
}

// Priority is the urgency of a suggestion.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities: low=1, medium=2, high=3, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

// EventType represents the type of a call event.
type EventType string

const (
	EventTypeCallStart  EventType = "call_start"
	EventTypeCallAnswer EventType = "call_answer"
	EventTypeCallEnd    EventType = "call_end"
	EventTypeTranscript EventType = "transcript"
	EventTypeSuggestion EventType = "suggestion"
)
