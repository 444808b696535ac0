// Package events defines the structured progress events emitted while a
// lesson is built and an optional NATS sink that publishes them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"cadence/internal/logging"
)

// Scope distinguishes per-segment events from whole-lesson events.
type Scope string

const (
	ScopeSegment Scope = "segment"
	ScopeLesson  Scope = "lesson"
)

// Type names what happened.
type Type string

const (
	Generating Type = "generating"
	Completed  Type = "completed"
	Skipped    Type = "skipped"
	Failed     Type = "failed"
	Compiled   Type = "compiled"
	Cached     Type = "cached"
)

// Event is one progress notification.
type Event struct {
	RunID     string    `json:"runId"`
	LessonID  string    `json:"lessonId"`
	SegmentID string    `json:"segmentId,omitempty"`
	Scope     Scope     `json:"scope"`
	Type      Type      `json:"type"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Duration  float64   `json:"duration,omitempty"`
	AudioPath string    `json:"audioPath,omitempty"`
	Path      string    `json:"path,omitempty"`
	ErrorKind string    `json:"errorKind,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Subject returns the NATS subject for the event under prefix, e.g.
// "cadence.lessons.spanish_101.segment.completed".
func (e Event) Subject(prefix string) string {
	parts := []string{}
	if p := strings.Trim(prefix, "."); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, subjectToken(e.LessonID), string(e.Scope), string(e.Type))
	return strings.Join(parts, ".")
}

func subjectToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, value)
}

// Sink receives events.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes events as JSON on core NATS subjects.
type NATSSink struct {
	conn   publisher
	drain  func() error
	prefix string
	logger *slog.Logger
}

// ConnectNATS dials url and returns a sink publishing under prefix.
func ConnectNATS(url, prefix string, logger *slog.Logger) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("cadence"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	sink := &NATSSink{
		conn:   conn,
		drain:  conn.Drain,
		prefix: prefix,
		logger: logging.NewComponentLogger(logger, "events"),
	}
	sink.logger.Info("connected to NATS", logging.String("url", conn.ConnectedUrlRedacted()))
	return sink, nil
}

// Publish encodes and sends the event.
func (s *NATSSink) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	subject := event.Subject(s.prefix)
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (s *NATSSink) Close() error {
	if s == nil || s.drain == nil {
		return nil
	}
	return s.drain()
}
