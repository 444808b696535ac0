package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (r *recordingPublisher) Publish(subject string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

func TestSubject(t *testing.T) {
	e := Event{LessonID: "spanish 1.0", Scope: ScopeSegment, Type: Completed}
	if got := e.Subject("cadence.lessons."); got != "cadence.lessons.spanish_1_0.segment.completed" {
		t.Fatalf("unexpected subject %q", got)
	}
	if got := (Event{Scope: ScopeLesson, Type: Cached}).Subject(""); got != "_.lesson.cached" {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestNATSSinkPublishesJSON(t *testing.T) {
	pub := &recordingPublisher{}
	sink := &NATSSink{conn: pub, prefix: "cadence.lessons"}
	event := Event{RunID: "r1", LessonID: "l1", SegmentID: "intro", Scope: ScopeSegment, Type: Generating, Index: 0, Total: 3}

	if err := sink.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(pub.subjects) != 1 || pub.subjects[0] != "cadence.lessons.l1.segment.generating" {
		t.Fatalf("unexpected subjects %v", pub.subjects)
	}
	var decoded map[string]any
	if err := json.Unmarshal(pub.payloads[0], &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["segmentId"] != "intro" || decoded["type"] != "generating" || decoded["runId"] != "r1" {
		t.Fatalf("unexpected payload %v", decoded)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close without drain: %v", err)
	}
}

func TestNATSSinkWrapsPublishErrors(t *testing.T) {
	sink := &NATSSink{conn: &recordingPublisher{err: errors.New("disconnected")}}
	if err := sink.Publish(context.Background(), Event{LessonID: "l", Scope: ScopeLesson, Type: Failed}); err == nil {
		t.Fatal("expected publish error")
	}
}
