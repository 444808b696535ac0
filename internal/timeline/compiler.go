package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"cadence/internal/config"
	"cadence/internal/fileutil"
	"cadence/internal/lesson"
	"cadence/internal/logging"
	"cadence/internal/services"
	"cadence/internal/telemetry"
)

const (
	stageName        = "timeline"
	timelineFileName = "timeline.json"
	manifestFileName = "timing.json"
	audioDirName     = "audio"
)

// Pair joins a segment script with its audio result. A nil Result means the
// segment was never assembled.
type Pair struct {
	Segment lesson.SegmentScript
	Result  *lesson.SegmentAudioResult
}

// Manifest is the per-lesson timing manifest stored beside the segment audio.
type Manifest struct {
	Segments      []ManifestSegment `json:"segments"`
	TotalDuration float64           `json:"totalDuration"`
	GeneratedAt   time.Time         `json:"generatedAt"`
}

// ManifestSegment summarizes one segment's audio file.
type ManifestSegment struct {
	SegmentID       string                  `json:"segmentId"`
	FileName        string                  `json:"fileName"`
	Duration        float64                 `json:"duration"`
	StartTime       float64                 `json:"startTime"`
	EndTime         float64                 `json:"endTime"`
	Text            string                  `json:"text"`
	FragmentTimings []lesson.FragmentTiming `json:"fragmentTimings,omitempty"`
}

// Outcome reports what CompileLesson did.
type Outcome struct {
	Document     Document
	Path         string
	ManifestPath string
	Skipped      bool
}

// Compiler builds timelines for lessons under the configured lessons dir.
type Compiler struct {
	cfg     *config.Config
	metrics *telemetry.Instruments
	logger  *slog.Logger
	now     func() time.Time
}

// NewCompiler creates a compiler.
func NewCompiler(cfg *config.Config, logger *slog.Logger) *Compiler {
	return &Compiler{
		cfg:     cfg,
		metrics: telemetry.Nop(),
		logger:  logging.NewComponentLogger(logger, stageName),
		now:     time.Now,
	}
}

// WithMetrics records into ins instead of the no-op instruments.
func (c *Compiler) WithMetrics(ins *telemetry.Instruments) {
	if c != nil && ins != nil {
		c.metrics = ins
	}
}

// WithClock overrides the manifest timestamp source.
func (c *Compiler) WithClock(now func() time.Time) {
	if c != nil && now != nil {
		c.now = now
	}
}

// TimelinePath returns the deterministic timeline artifact path.
func (c *Compiler) TimelinePath(lessonID string) string {
	return filepath.Join(c.cfg.LessonDir(lessonID), timelineFileName)
}

// ManifestPath returns the timing manifest path.
func (c *Compiler) ManifestPath(lessonID string) string {
	return filepath.Join(c.cfg.LessonDir(lessonID), audioDirName, manifestFileName)
}

// Exists reports whether the lesson already has a compiled timeline.
func (c *Compiler) Exists(lessonID string) bool {
	return fileutil.Exists(c.TimelinePath(lessonID))
}

// Compile lays the pairs end to end starting at zero. It writes nothing.
func (c *Compiler) Compile(lessonID string, pairs []Pair) (Timeline, error) {
	lessonDir := c.cfg.LessonDir(lessonID)
	entries := make([]Entry, 0, len(pairs))
	cursor := 0.0
	for _, pair := range pairs {
		if pair.Result == nil {
			return Timeline{}, services.Wrap(
				services.ErrMissingInput,
				stageName,
				"compile",
				fmt.Sprintf("No audio result for segment %q", pair.Segment.ID),
				nil,
			)
		}
		start := cursor
		end := cursor + pair.Result.Duration
		cursor = end
		entries = append(entries, Entry{
			SegmentID:       pair.Segment.ID,
			StartTime:       start,
			EndTime:         end,
			Duration:        pair.Result.Duration,
			ScreenRole:      ResolveRole(pair.Segment),
			AudioRef:        relativeRef(lessonDir, pair.Result.AudioPath),
			VocabAnchor:     pair.Segment.VocabAnchor,
			VisualRef:       c.visualRef(lessonDir, pair.Segment.VisualResourceKey),
			Fragments:       pair.Segment.Fragments,
			FragmentTimings: pair.Result.FragmentTimings,
		})
	}
	tl := Timeline{Entries: entries, TotalDuration: cursor}
	if err := Validate(tl); err != nil {
		return Timeline{}, err
	}
	return tl, nil
}

// CompileLesson compiles and persists the lesson's manifest and timeline. When
// the timeline already exists it is loaded and returned with Skipped set, and
// nothing is written. Either every artifact is written or the timeline is not.
func (c *Compiler) CompileLesson(ctx context.Context, lessonID string, pairs []Pair, audioURL string) (Outcome, error) {
	ctx = services.WithLessonID(ctx, lessonID)
	logger := logging.WithContext(ctx, c.logger)
	path := c.TimelinePath(lessonID)

	if fileutil.Exists(path) {
		doc, err := Load(path)
		if err != nil {
			return Outcome{}, err
		}
		c.metrics.TimelinesCompiled.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "cached")))
		logger.Info("timeline already compiled",
			logging.String(logging.FieldEventType, "timeline_cached"),
			logging.String("path", path),
		)
		return Outcome{Document: doc, Path: path, ManifestPath: c.ManifestPath(lessonID), Skipped: true}, nil
	}

	tl, err := c.Compile(lessonID, pairs)
	if err != nil {
		return Outcome{}, err
	}

	manifestPath := c.ManifestPath(lessonID)
	if err := fileutil.WriteJSONAtomic(manifestPath, c.manifest(tl, pairs)); err != nil {
		return Outcome{}, services.Wrap(services.ErrIO, stageName, "write manifest", manifestPath, err)
	}
	doc := Document{Lesson: tl, AudioURL: audioURL}
	if err := fileutil.WriteJSONAtomic(path, doc); err != nil {
		return Outcome{}, services.Wrap(services.ErrIO, stageName, "write timeline", path, err)
	}

	c.metrics.TimelinesCompiled.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "compiled")))
	logger.Info("timeline compiled",
		logging.String(logging.FieldEventType, "timeline_compiled"),
		logging.String("path", path),
		logging.Int("segments", len(tl.Entries)),
		logging.Seconds("total_duration", tl.TotalDuration),
	)
	return Outcome{Document: doc, Path: path, ManifestPath: manifestPath}, nil
}

func (c *Compiler) manifest(tl Timeline, pairs []Pair) Manifest {
	segments := make([]ManifestSegment, 0, len(tl.Entries))
	for i, entry := range tl.Entries {
		segments = append(segments, ManifestSegment{
			SegmentID:       entry.SegmentID,
			FileName:        filepath.Base(pairs[i].Result.AudioPath),
			Duration:        entry.Duration,
			StartTime:       entry.StartTime,
			EndTime:         entry.EndTime,
			Text:            pairs[i].Segment.Text(),
			FragmentTimings: entry.FragmentTimings,
		})
	}
	return Manifest{
		Segments:      segments,
		TotalDuration: tl.TotalDuration,
		GeneratedAt:   c.now().UTC(),
	}
}

// relativeRef expresses target relative to the lesson dir with forward
// slashes. Targets outside the lesson dir are kept absolute.
func relativeRef(lessonDir, target string) string {
	rel, err := filepath.Rel(lessonDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return target
	}
	return filepath.ToSlash(rel)
}
