package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/callassist/orchestrator/internal/domain"
)

// formatMessage renders one server message as a single line. It reports false
// for messages that should not be printed.
func formatMessage(data []byte, callID string) (string, bool) {
	var ev domain.CallEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", false
	}
	if callID != "" && ev.CallID != callID {
		return "", false
	}
	return formatEvent(ev), true
}

func formatEvent(ev domain.CallEvent) string {
	switch d := ev.Data.(type) {
	case domain.Call:
		return fmt.Sprintf("[%s] %s %-11s %s -> %s (%s, %s)",
			clock(ev), ev.CallID, ev.Type, d.CallerNumber, d.CalledNumber, d.Direction, d.Status)
	case domain.TranscriptSegment:
		label := "CLIENT"
		if d.Speaker == domain.SpeakerOperator {
			label = "OPERATOR"
		}
		return fmt.Sprintf("[%s] %s %-11s %s: %s", clock(ev), ev.CallID, ev.Type, label, d.Text)
	case domain.Suggestion:
		return fmt.Sprintf("[%s] %s %-11s [%s/%s] %s: %s",
			clock(ev), ev.CallID, ev.Type, d.Priority, d.Type, d.Title, d.Content)
	default:
		return fmt.Sprintf("[%s] %s %s", clock(ev), ev.CallID, ev.Type)
	}
}

// clock picks the most specific timestamp the event carries.
func clock(ev domain.CallEvent) string {
	var t time.Time
	switch d := ev.Data.(type) {
	case domain.Call:
		t = d.StartedAt
		if d.AnsweredAt != nil {
			t = *d.AnsweredAt
		}
		if d.EndedAt != nil {
			t = *d.EndedAt
		}
	case domain.TranscriptSegment:
		sec := int64(d.Timestamp)
		t = time.Unix(sec, int64((d.Timestamp-float64(sec))*1e9))
	case domain.Suggestion:
		t = d.CreatedAt
	}
	if t.IsZero() {
		t = time.Now()
	}
	return t.Local().Format("15:04:05")
}
