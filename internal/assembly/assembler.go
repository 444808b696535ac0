package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"cadence/internal/config"
	"cadence/internal/fileutil"
	"cadence/internal/fragments"
	"cadence/internal/lesson"
	"cadence/internal/logging"
	"cadence/internal/services"
	"cadence/internal/synth"
	"cadence/internal/telemetry"
)

const (
	stageName       = "assembly"
	audioDirName    = "audio"
	partFileFormat  = "%s_part_%d.%s"
	partsDirPattern = ".parts-*"
)

// DurationProber measures an audio file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Concatenator joins ordered audio files into dest.
type Concatenator interface {
	Concatenate(ctx context.Context, parts []string, dest string) error
}

// Assembler produces segment audio.
type Assembler struct {
	cfg     *config.Config
	synth   synth.Synthesizer
	prober  DurationProber
	concat  Concatenator
	merger  fragments.Merger
	metrics *telemetry.Instruments
	logger  *slog.Logger
}

// New wires an assembler from its collaborators.
func New(cfg *config.Config, synthesizer synth.Synthesizer, prober DurationProber, concat Concatenator, logger *slog.Logger) *Assembler {
	minLength := fragments.DefaultMinLength
	if cfg != nil && cfg.Fragments.MinLength > 0 {
		minLength = cfg.Fragments.MinLength
	}
	return &Assembler{
		cfg:     cfg,
		synth:   synthesizer,
		prober:  prober,
		concat:  concat,
		merger:  fragments.Merger{MinLength: minLength},
		metrics: telemetry.Nop(),
		logger:  logging.NewComponentLogger(logger, stageName),
	}
}

// WithMetrics records into ins instead of the no-op instruments.
func (a *Assembler) WithMetrics(ins *telemetry.Instruments) {
	if a != nil && ins != nil {
		a.metrics = ins
	}
}

// ProviderName names the speech provider in use.
func (a *Assembler) ProviderName() string {
	if a == nil || a.synth == nil {
		return ""
	}
	return a.synth.Name()
}

// AudioDir returns the directory holding a lesson's segment audio.
func (a *Assembler) AudioDir(lessonID string) string {
	return filepath.Join(a.cfg.LessonDir(lessonID), audioDirName)
}

// SegmentPath returns the deterministic final audio path of a segment.
func (a *Assembler) SegmentPath(lessonID, segmentID string) string {
	return filepath.Join(a.AudioDir(lessonID), lesson.FileStem(segmentID)+"."+a.cfg.Audio.Extension)
}

// Assemble synthesizes the segment and measures its fragments. On error no
// part files remain and any partially written final file is removed.
func (a *Assembler) Assemble(ctx context.Context, lessonID string, segment lesson.SegmentScript) (result lesson.SegmentAudioResult, err error) {
	ctx = services.WithSegmentID(services.WithLessonID(ctx, lessonID), segment.ID)
	logger := logging.WithContext(ctx, a.logger)

	if len(segment.Fragments) == 0 {
		return result, services.Wrap(services.ErrMissingInput, stageName, "merge fragments", "Segment has no fragments", nil)
	}
	merged := a.merger.Merge(segment.Fragments)
	if len(merged) != len(segment.Fragments) {
		logger.Debug("fragments merged",
			logging.Int("input", len(segment.Fragments)),
			logging.Int("output", len(merged)),
			logging.Any("contents", fragments.Contents(merged)),
		)
	}

	if err := os.MkdirAll(a.AudioDir(lessonID), 0o755); err != nil {
		return result, services.Wrap(services.ErrIO, stageName, "create audio dir", a.AudioDir(lessonID), err)
	}
	finalPath := a.SegmentPath(lessonID, segment.ID)
	defer func() {
		if err != nil {
			_ = fileutil.RemoveFiles(finalPath)
		}
	}()

	if len(merged) == 1 {
		result, err = a.assembleSingle(ctx, logger, merged[0], finalPath)
	} else {
		result, err = a.assembleParts(ctx, logger, merged, finalPath)
	}
	if err != nil {
		return result, err
	}

	a.metrics.SegmentsAssembled.Add(ctx, 1)
	a.metrics.AudioSeconds.Add(ctx, result.Duration)
	logger.Info("segment audio assembled",
		logging.String(logging.FieldEventType, "segment_assembled"),
		logging.String("path", result.AudioPath),
		logging.Int("fragments", len(result.FragmentTimings)),
		logging.Seconds("duration", result.Duration),
	)
	return result, nil
}

func (a *Assembler) assembleSingle(ctx context.Context, logger *slog.Logger, fragment lesson.TextFragment, finalPath string) (lesson.SegmentAudioResult, error) {
	if err := a.synthesizeTo(ctx, logger, fragment, finalPath); err != nil {
		return lesson.SegmentAudioResult{}, err
	}
	duration, err := a.prober.Duration(ctx, finalPath)
	if err != nil {
		return lesson.SegmentAudioResult{}, err
	}
	return lesson.SegmentAudioResult{
		AudioPath:       finalPath,
		Duration:        duration,
		FragmentTimings: []lesson.FragmentTiming{timingFor(fragment, 0, duration)},
	}, nil
}

func (a *Assembler) assembleParts(ctx context.Context, logger *slog.Logger, merged []lesson.TextFragment, finalPath string) (lesson.SegmentAudioResult, error) {
	// Parts live in a private directory so they never share a name with
	// another segment's final file.
	partsDir, err := os.MkdirTemp(filepath.Dir(finalPath), partsDirPattern)
	if err != nil {
		return lesson.SegmentAudioResult{}, services.Wrap(services.ErrIO, stageName, "create parts dir", filepath.Dir(finalPath), err)
	}
	defer func() {
		if err := os.RemoveAll(partsDir); err != nil {
			logger.Warn("part file cleanup failed",
				logging.String(logging.FieldEventType, "cleanup_failed"),
				logging.String(logging.FieldErrorHint, "remove leftover .parts- directories from the audio directory"),
				logging.String("path", partsDir),
				logging.Error(err),
			)
		}
	}()

	stem := strings.TrimSuffix(filepath.Base(finalPath), filepath.Ext(finalPath))
	base := filepath.Join(partsDir, stem)
	parts := make([]string, 0, len(merged))
	timings := make([]lesson.FragmentTiming, 0, len(merged))
	cursor := 0.0
	for i, fragment := range merged {
		partPath := fmt.Sprintf(partFileFormat, base, i, a.cfg.Audio.Extension)
		parts = append(parts, partPath)
		if err := a.synthesizeTo(ctx, logger, fragment, partPath); err != nil {
			return lesson.SegmentAudioResult{}, err
		}
		duration, err := a.prober.Duration(ctx, partPath)
		if err != nil {
			return lesson.SegmentAudioResult{}, err
		}
		timings = append(timings, timingFor(fragment, cursor, duration))
		cursor += duration
	}

	if err := a.concat.Concatenate(ctx, parts, finalPath); err != nil {
		return lesson.SegmentAudioResult{}, err
	}
	a.metrics.Concatenations.Add(ctx, 1)

	duration, err := a.prober.Duration(ctx, finalPath)
	if err != nil {
		return lesson.SegmentAudioResult{}, err
	}
	return lesson.SegmentAudioResult{
		AudioPath:       finalPath,
		Duration:        duration,
		FragmentTimings: timings,
	}, nil
}

func (a *Assembler) synthesizeTo(ctx context.Context, logger *slog.Logger, fragment lesson.TextFragment, path string) error {
	req := synth.Request{
		Text:     strings.TrimSpace(fragment.Content),
		Language: fragment.LanguageTag,
		Rate:     fragment.Rate(a.cfg.RateFor(string(fragment.LanguageTag))),
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", a.synth.Name()),
		attribute.String("language", string(fragment.LanguageTag)),
	)

	started := time.Now()
	data, err := a.synth.Synthesize(ctx, req)
	a.metrics.SynthesisLatency.Record(ctx, time.Since(started).Seconds(), attrs)
	if err != nil {
		a.metrics.SynthesisFailures.Add(ctx, 1, attrs)
		return services.Wrap(services.ErrSynthesis, stageName, "synthesize", fmt.Sprintf("%s fragment %q", a.synth.Name(), req.Text), err)
	}
	a.metrics.FragmentsSynthesized.Add(ctx, 1, attrs)
	if len(data) == 0 {
		return services.Wrap(services.ErrSynthesis, stageName, "synthesize", fmt.Sprintf("%s returned no audio for %q", a.synth.Name(), req.Text), nil)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrIO, stageName, "write audio", path, err)
	}
	if !fileutil.NonEmpty(path) {
		return services.Wrap(services.ErrSynthesis, stageName, "verify audio", "Synthesized file missing or empty: "+path, nil)
	}
	logger.Debug("fragment synthesized",
		logging.String("language", string(fragment.LanguageTag)),
		logging.Float64("rate", req.Rate),
		logging.Int("bytes", len(data)),
	)
	return nil
}

func timingFor(fragment lesson.TextFragment, start, duration float64) lesson.FragmentTiming {
	return lesson.FragmentTiming{
		Content:              fragment.Content,
		LanguageTag:          fragment.LanguageTag,
		Duration:             duration,
		StartOffset:          start,
		EndOffset:            start + duration,
		AuxiliaryTranslation: fragment.AuxiliaryTranslation,
	}
}
