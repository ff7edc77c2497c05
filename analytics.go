package authkit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AnalyticsEvent is a product analytics record emitted by the flows
// ("login", "quick_login", "register", "verify_email", "oauth", "logout").
// Events never carry passwords, tokens, or OTP codes.
type AnalyticsEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Provider  string            `json:"provider,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AnalyticsSink receives events from the client's async dispatcher.
type AnalyticsSink interface {
	Emit(ctx context.Context, event AnalyticsEvent)
}

// NoOpSink drops analytics events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AnalyticsEvent) {}

// ChannelSink writes analytics events into a buffered channel.
type ChannelSink struct {
	events chan AnalyticsEvent
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AnalyticsEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AnalyticsEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the receiving side of the sink.
func (s *ChannelSink) Events() <-chan AnalyticsEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AnalyticsEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
