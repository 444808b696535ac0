package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"cadence/internal/assembly"
	"cadence/internal/config"
	"cadence/internal/events"
	"cadence/internal/fileutil"
	"cadence/internal/lesson"
	"cadence/internal/logging"
	"cadence/internal/services"
	"cadence/internal/store"
	"cadence/internal/telemetry"
	"cadence/internal/timeline"
)

const (
	stageName    = "pipeline"
	lockFileName = ".cadence.lock"
	eventBuffer  = 16
)

// Runner builds lessons.
type Runner struct {
	cfg       *config.Config
	assembler *assembly.Assembler
	compiler  *timeline.Compiler
	concat    assembly.Concatenator
	store     *store.Store
	sink      events.Sink
	metrics   *telemetry.Instruments
	logger    *slog.Logger
	newRunID  func() string
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore enables segment resume and run history.
func WithStore(s *store.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithSink publishes every event to sink in addition to the stream.
func WithSink(sink events.Sink) Option {
	return func(r *Runner) { r.sink = sink }
}

// WithMetrics records into ins.
func WithMetrics(ins *telemetry.Instruments) Option {
	return func(r *Runner) {
		if ins != nil {
			r.metrics = ins
		}
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newRunID = fn
		}
	}
}

// New creates a runner. concat joins segment files into the lesson track
// when lesson audio merging is enabled.
func New(cfg *config.Config, assembler *assembly.Assembler, compiler *timeline.Compiler, concat assembly.Concatenator, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		assembler: assembler,
		compiler:  compiler,
		concat:    concat,
		metrics:   telemetry.Nop(),
		logger:    logging.NewComponentLogger(logger, stageName),
		newRunID:  uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SegmentSummary describes one segment of a finished build.
type SegmentSummary struct {
	ID        string
	AudioPath string
	Duration  float64
	Fragments int
	Reused    bool
}

// Report summarizes a build.
type Report struct {
	RunID        string
	LessonID     string
	Status       store.RunStatus
	Segments     []SegmentSummary
	Reused       int
	Assembled    int
	TimelinePath string
	AudioURL     string
	Timeline     timeline.Timeline
	Events       []events.Event
}

// Build is an in-flight lesson build.
type Build struct {
	events chan events.Event
	done   chan struct{}
	report Report
	err    error
}

// Events streams progress. The channel closes when the build ends.
func (b *Build) Events() <-chan events.Event {
	return b.events
}

// Wait discards any undelivered events and returns the build outcome.
func (b *Build) Wait() (Report, error) {
	for range b.events {
	}
	<-b.done
	return b.report, b.err
}

// Stream starts building the lesson in a goroutine.
func (r *Runner) Stream(ctx context.Context, lessonID string, script lesson.Script) *Build {
	b := &Build{
		events: make(chan events.Event, eventBuffer),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(b.done)
		defer close(b.events)
		b.report, b.err = r.build(ctx, b, lessonID, script)
	}()
	return b
}

// Run builds the lesson and collects every event into the report.
func (r *Runner) Run(ctx context.Context, lessonID string, script lesson.Script) (Report, error) {
	b := r.Stream(ctx, lessonID, script)
	var collected []events.Event
	for event := range b.Events() {
		collected = append(collected, event)
	}
	report, err := b.Wait()
	report.Events = collected
	return report, err
}

func (r *Runner) build(ctx context.Context, b *Build, lessonID string, script lesson.Script) (Report, error) {
	runID := r.newRunID()
	ctx = services.WithRequestID(services.WithLessonID(ctx, lessonID), runID)
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, r.logger)
	report := Report{RunID: runID, LessonID: lessonID, Status: store.RunRunning}
	total := len(script.Segments)

	emit := func(event events.Event) {
		event.RunID = runID
		event.LessonID = lessonID
		event.Total = total
		event.At = r.now().UTC()
		b.events <- event
		if r.sink != nil {
			if err := r.sink.Publish(ctx, event); err != nil {
				logger.Debug("event publish failed", logging.String("type", string(event.Type)), logging.Error(err))
			}
		}
	}
	fail := func(segmentID string, err error) (Report, error) {
		segErr := newSegmentError(lessonID, segmentID, err)
		report.Status = store.RunFailed
		if segmentID != "" {
			emit(events.Event{Scope: events.ScopeSegment, Type: events.Failed, SegmentID: segmentID, ErrorKind: segErr.Kind, Error: err.Error()})
		}
		emit(events.Event{Scope: events.ScopeLesson, Type: events.Failed, SegmentID: segmentID, ErrorKind: segErr.Kind, Error: err.Error()})
		logger.Error("lesson build failed",
			logging.String(logging.FieldEventType, "lesson_failed"),
			logging.String(logging.FieldSegmentID, segmentID),
			logging.String(logging.FieldErrorKind, segErr.Kind),
			logging.Error(err),
		)
		r.finishRun(ctx, logger, store.Run{
			ID:             runID,
			Status:         store.RunFailed,
			SegmentsTotal:  total,
			SegmentsReused: report.Reused,
			FailedSegment:  segmentID,
			ErrorKind:      segErr.Kind,
			ErrorMessage:   err.Error(),
		})
		return report, segErr
	}

	if total == 0 {
		return report, newSegmentError(lessonID, "", services.Wrap(services.ErrMissingInput, stageName, "load script", "Script has no segments", nil))
	}
	if err := script.Normalize(); err != nil {
		return report, newSegmentError(lessonID, "", services.Wrap(services.ErrValidation, stageName, "validate script", "Invalid lesson script", err))
	}

	if r.cfg.Pipeline.LockLessons {
		unlock, err := r.lockLesson(lessonID)
		if err != nil {
			return report, newSegmentError(lessonID, "", err)
		}
		defer unlock()
	}

	if r.compiler.Exists(lessonID) {
		outcome, err := r.compiler.CompileLesson(ctx, lessonID, nil, "")
		if err != nil {
			return report, newSegmentError(lessonID, "", err)
		}
		report.Status = store.RunCached
		report.TimelinePath = outcome.Path
		report.AudioURL = outcome.Document.AudioURL
		report.Timeline = outcome.Document.Lesson
		emit(events.Event{Scope: events.ScopeLesson, Type: events.Cached, Path: outcome.Path, Duration: outcome.Document.Lesson.TotalDuration})
		r.recordRun(ctx, logger, store.Run{ID: runID, LessonID: lessonID, Status: store.RunCached, SegmentsTotal: total, TimelinePath: outcome.Path})
		return report, nil
	}

	r.beginRun(ctx, logger, store.Run{ID: runID, LessonID: lessonID, StartedAt: r.now(), SegmentsTotal: total})
	logger.Info("lesson build started",
		logging.String(logging.FieldEventType, "lesson_start"),
		logging.Int("segments", total),
	)

	pairs := make([]timeline.Pair, 0, total)
	for i, segment := range script.Segments {
		emit(events.Event{Scope: events.ScopeSegment, Type: events.Generating, SegmentID: segment.ID, Index: i})

		if result, ok := r.reusable(ctx, logger, lessonID, segment.ID); ok {
			pairs = append(pairs, timeline.Pair{Segment: segment, Result: &result})
			report.Reused++
			report.Segments = append(report.Segments, summarize(segment.ID, result, true))
			r.metrics.SegmentsReused.Add(ctx, 1)
			emit(events.Event{Scope: events.ScopeSegment, Type: events.Skipped, SegmentID: segment.ID, Index: i, Duration: result.Duration, AudioPath: result.AudioPath})
			continue
		}

		result, err := r.assembler.Assemble(ctx, lessonID, segment)
		if err != nil {
			return fail(segment.ID, err)
		}
		r.saveSegment(ctx, logger, lessonID, i, segment.ID, result)
		pairs = append(pairs, timeline.Pair{Segment: segment, Result: &result})
		report.Assembled++
		report.Segments = append(report.Segments, summarize(segment.ID, result, false))
		emit(events.Event{Scope: events.ScopeSegment, Type: events.Completed, SegmentID: segment.ID, Index: i, Duration: result.Duration, AudioPath: result.AudioPath})
	}

	audioURL := ""
	if r.cfg.Timeline.MergeLessonAudio {
		url, err := r.mergeLessonAudio(ctx, lessonID, pairs)
		if err != nil {
			return fail("", err)
		}
		audioURL = url
	}

	outcome, err := r.compiler.CompileLesson(ctx, lessonID, pairs, audioURL)
	if err != nil {
		return fail("", err)
	}
	report.Status = store.RunCompleted
	report.TimelinePath = outcome.Path
	report.AudioURL = audioURL
	report.Timeline = outcome.Document.Lesson
	emit(events.Event{Scope: events.ScopeLesson, Type: events.Compiled, Path: outcome.Path, Duration: outcome.Document.Lesson.TotalDuration})

	r.finishRun(ctx, logger, store.Run{
		ID:             runID,
		Status:         store.RunCompleted,
		SegmentsTotal:  total,
		SegmentsReused: report.Reused,
		TimelinePath:   outcome.Path,
	})
	logger.Info("lesson build completed",
		logging.String(logging.FieldEventType, "lesson_complete"),
		logging.Int("assembled", report.Assembled),
		logging.Int("reused", report.Reused),
		logging.Seconds("total_duration", report.Timeline.TotalDuration),
	)
	return report, nil
}

// CompileStored compiles the timeline from previously stored segment results
// without synthesizing anything. A segment with no stored result, or whose
// audio file is gone, is a missing input.
func (r *Runner) CompileStored(ctx context.Context, lessonID string, script lesson.Script) (timeline.Outcome, error) {
	if r.store == nil {
		return timeline.Outcome{}, services.Wrap(services.ErrConfiguration, stageName, "compile stored", "Result store unavailable", nil)
	}
	pairs := make([]timeline.Pair, 0, len(script.Segments))
	for _, segment := range script.Segments {
		pair := timeline.Pair{Segment: segment}
		rec, err := r.store.Segment(ctx, lessonID, segment.ID)
		if err != nil {
			return timeline.Outcome{}, services.Wrap(services.ErrIO, stageName, "load result", segment.ID, err)
		}
		if rec != nil && fileutil.NonEmpty(rec.Result.AudioPath) {
			result := rec.Result
			pair.Result = &result
		}
		pairs = append(pairs, pair)
	}
	audioURL := ""
	if r.cfg.Timeline.MergeLessonAudio && !r.compiler.Exists(lessonID) {
		for _, pair := range pairs {
			if pair.Result == nil {
				return r.compiler.CompileLesson(ctx, lessonID, pairs, "")
			}
		}
		url, err := r.mergeLessonAudio(ctx, lessonID, pairs)
		if err != nil {
			return timeline.Outcome{}, err
		}
		audioURL = url
	}
	return r.compiler.CompileLesson(ctx, lessonID, pairs, audioURL)
}

func (r *Runner) reusable(ctx context.Context, logger *slog.Logger, lessonID, segmentID string) (lesson.SegmentAudioResult, bool) {
	if r.store == nil {
		return lesson.SegmentAudioResult{}, false
	}
	rec, err := r.store.Segment(ctx, lessonID, segmentID)
	if err != nil {
		logging.WarnWithContext(logger, "stored result unreadable; regenerating", "resume_lookup_failed",
			logging.String(logging.FieldSegmentID, segmentID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "segment is synthesized again"),
		)
		return lesson.SegmentAudioResult{}, false
	}
	if rec == nil || !fileutil.NonEmpty(rec.Result.AudioPath) {
		return lesson.SegmentAudioResult{}, false
	}
	return rec.Result, true
}

func (r *Runner) saveSegment(ctx context.Context, logger *slog.Logger, lessonID string, position int, segmentID string, result lesson.SegmentAudioResult) {
	if r.store == nil {
		return
	}
	provider := ""
	if r.assembler != nil {
		provider = r.assembler.ProviderName()
	}
	if err := r.store.SaveSegment(ctx, store.SegmentRecord{
		LessonID:  lessonID,
		SegmentID: segmentID,
		Position:  position,
		Provider:  provider,
		CreatedAt: r.now(),
		Result:    result,
	}); err != nil {
		logging.WarnWithContext(logger, "failed to persist segment result", "result_persist_failed",
			logging.String(logging.FieldSegmentID, segmentID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "segment will be synthesized again on the next run"),
		)
	}
}

func (r *Runner) mergeLessonAudio(ctx context.Context, lessonID string, pairs []timeline.Pair) (string, error) {
	dest := filepath.Join(r.assembler.AudioDir(lessonID), lesson.LessonAudioStem+"."+r.cfg.Audio.Extension)
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Result.AudioPath == dest {
			return "", services.Wrap(services.ErrValidation, stageName, "merge lesson audio",
				fmt.Sprintf("Segment %q collides with the lesson audio file", pair.Segment.ID), nil)
		}
		parts = append(parts, pair.Result.AudioPath)
	}
	if err := r.concat.Concatenate(ctx, parts, dest); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(filepath.Base(r.assembler.AudioDir(lessonID)), filepath.Base(dest))), nil
}

func (r *Runner) lockLesson(lessonID string) (func(), error) {
	dir := r.cfg.LessonDir(lessonID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, stageName, "lock lesson", dir, err)
	}
	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, stageName, "lock lesson", dir, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrIO, stageName, "lock lesson", "Lesson is being built by another process", errors.New("lock held"))
	}
	return func() { _ = lock.Unlock() }, nil
}

func (r *Runner) beginRun(ctx context.Context, logger *slog.Logger, run store.Run) {
	if r.store == nil {
		return
	}
	if err := r.store.BeginRun(ctx, run); err != nil {
		logger.Warn("failed to record run start", logging.Error(err))
	}
}

func (r *Runner) finishRun(ctx context.Context, logger *slog.Logger, run store.Run) {
	r.metrics.LessonBuilds.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(run.Status))))
	if r.store == nil {
		return
	}
	if err := r.store.FinishRun(ctx, run); err != nil {
		logger.Warn("failed to record run outcome", logging.Error(err))
	}
}

func (r *Runner) recordRun(ctx context.Context, logger *slog.Logger, run store.Run) {
	r.beginRun(ctx, logger, run)
	r.finishRun(ctx, logger, run)
}

func summarize(id string, result lesson.SegmentAudioResult, reused bool) SegmentSummary {
	return SegmentSummary{
		ID:        id,
		AudioPath: result.AudioPath,
		Duration:  result.Duration,
		Fragments: len(result.FragmentTimings),
		Reused:    reused,
	}
}
