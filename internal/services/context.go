package services

import "context"

type contextKey string

const (
	lessonIDKey  contextKey = "lesson_id"
	segmentIDKey contextKey = "segment_id"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// WithLessonID annotates context with the lesson identifier.
func WithLessonID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, lessonIDKey, id)
}

// LessonIDFromContext extracts the lesson identifier if present.
func LessonIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, lessonIDKey)
}

// WithSegmentID annotates context with the segment currently being processed.
func WithSegmentID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, segmentIDKey, id)
}

// SegmentIDFromContext returns the segment identifier if present.
func SegmentIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, segmentIDKey)
}

// WithStage annotates context with the engine stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey)
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
