package domain

import (
	"encoding/json"
	"fmt"
)

// EventData is the payload carried by a CallEvent. It is implemented only by
// Call, TranscriptSegment and Suggestion.
type EventData interface {
	isEventData()
}

func (Call) isEventData()              {}
func (TranscriptSegment) isEventData() {}
func (Suggestion) isEventData()        {}

// CallEvent is the only unit placed on the event bus.
type CallEvent struct {
	Type   EventType
	CallID string
	Data   EventData
}

// NewCallStartEvent builds a call_start event.
func NewCallStartEvent(call Call) CallEvent {
	return CallEvent{Type: EventTypeCallStart, CallID: call.ID, Data: call.Clone()}
}

// NewCallAnswerEvent builds a call_answer event.
func NewCallAnswerEvent(call Call) CallEvent {
	return CallEvent{Type: EventTypeCallAnswer, CallID: call.ID, Data: call.Clone()}
}

// NewCallEndEvent builds a call_end event carrying the final snapshot.
func NewCallEndEvent(call Call) CallEvent {
	return CallEvent{Type: EventTypeCallEnd, CallID: call.ID, Data: call.Clone()}
}

// NewTranscriptEvent builds a transcript event.
func NewTranscriptEvent(segment TranscriptSegment) CallEvent {
	return CallEvent{Type: EventTypeTranscript, CallID: segment.CallID, Data: segment}
}

// NewSuggestionEvent builds a suggestion event.
func NewSuggestionEvent(suggestion Suggestion) CallEvent {
	return CallEvent{Type: EventTypeSuggestion, CallID: suggestion.CallID, Data: suggestion}
}

// envelope is the wire shape forwarded to live listeners.
type envelope struct {
	EventType EventType       `json:"event_type"`
	CallID    string          `json:"call_id"`
	Data      json.RawMessage `json:"data"`
}

// MarshalJSON encodes the event as {"event_type","call_id","data"}.
func (e CallEvent) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	return json.Marshal(envelope{EventType: e.Type, CallID: e.CallID, Data: data})
}

// UnmarshalJSON decodes an envelope back into the typed payload for its event type.
func (e *CallEvent) UnmarshalJSON(b []byte) error {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}

	var data EventData
	switch env.EventType {
	case EventTypeCallStart, EventTypeCallAnswer, EventTypeCallEnd:
		var call Call
		if err := json.Unmarshal(env.Data, &call); err != nil {
			return fmt.Errorf("invalid %s payload: %w", env.EventType, err)
		}
		data = call
	case EventTypeTranscript:
		var segment TranscriptSegment
		if err := json.Unmarshal(env.Data, &segment); err != nil {
			return fmt.Errorf("invalid transcript payload: %w", err)
		}
		data = segment
	case EventTypeSuggestion:
		var suggestion Suggestion
		if err := json.Unmarshal(env.Data, &suggestion); err != nil {
			return fmt.Errorf("invalid suggestion payload: %w", err)
		}
		data = suggestion
	default:
		return fmt.Errorf("unknown event type %q", env.EventType)
	}

	*e = CallEvent{Type: env.EventType, CallID: env.CallID, Data: data}
	return nil
}
