package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cadence/internal/assembly"
	"cadence/internal/config"
	"cadence/internal/events"
	"cadence/internal/lesson"
	"cadence/internal/logging"
	"cadence/internal/media/audio"
	"cadence/internal/pipeline"
	"cadence/internal/store"
	"cadence/internal/synth/providers"
	"cadence/internal/telemetry"
	"cadence/internal/timeline"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.PruneLogs(logger, cfg.Paths.LogDir, "*.log", logging.LogFileName, cfg.Logging.RetentionDays)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// loadScript reads the lesson script from scriptPath, or from the lesson
// workspace when no path was given.
func (c *commandContext) loadScript(lessonID, scriptPath string) (lesson.Script, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return lesson.Script{}, err
	}
	path := strings.TrimSpace(scriptPath)
	if path == "" {
		path = filepath.Join(cfg.LessonDir(lessonID), lesson.ScriptFileName)
	} else if expanded, err := config.ExpandPath(path); err == nil {
		path = expanded
	}
	return lesson.LoadScript(path, lessonID)
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	return st, nil
}

// session holds everything a build needs. close releases it in reverse
// order of acquisition.
type session struct {
	runner    *pipeline.Runner
	telemetry *telemetry.Provider
	store     *store.Store
	sink      events.Sink
	logger    *slog.Logger
}

func (s *session) close(ctx context.Context) {
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			s.logger.Warn("event sink close failed", logging.Error(err))
		}
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.telemetry != nil {
		_ = s.telemetry.Shutdown(ctx)
	}
}

func (c *commandContext) newSession() (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	synthesizer, err := providers.New(cfg, logging.ForComponent(logger, cfg, "synthesis"))
	if err != nil {
		return nil, err
	}
	prober := audio.NewProber(cfg.Audio.FFprobeBinary, logging.ForComponent(logger, cfg, "probe"))
	concat := audio.NewConcatenator(cfg.Audio.FFmpegBinary, cfg.Audio.SampleRate, cfg.Audio.Channels, logging.ForComponent(logger, cfg, "concat"))

	provider, err := telemetry.New()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	s := &session{telemetry: provider, logger: logger}

	st, err := store.Open(cfg)
	if err != nil {
		s.close(context.Background())
		return nil, fmt.Errorf("open state database: %w", err)
	}
	s.store = st

	opts := []pipeline.Option{
		pipeline.WithStore(st),
		pipeline.WithMetrics(provider.Instruments),
	}
	if url := strings.TrimSpace(cfg.Events.NATSURL); url != "" {
		sink, err := events.ConnectNATS(url, cfg.Events.SubjectPrefix, logging.ForComponent(logger, cfg, "events"))
		if err != nil {
			logging.WarnWithContext(logger, "event publishing disabled", "events_unavailable",
				logging.String("nats_url", url),
				logging.Error(err),
				logging.String(logging.FieldImpact, "build progress is only shown locally"),
			)
		} else {
			s.sink = sink
			opts = append(opts, pipeline.WithSink(sink))
		}
	}

	assembler := assembly.New(cfg, synthesizer, prober, concat, logging.ForComponent(logger, cfg, "assembler"))
	assembler.WithMetrics(provider.Instruments)
	compiler := timeline.NewCompiler(cfg, logging.ForComponent(logger, cfg, "timeline"))
	compiler.WithMetrics(provider.Instruments)

	s.runner = pipeline.New(cfg, assembler, compiler, concat, logging.ForComponent(logger, cfg, "pipeline"), opts...)
	return s, nil
}

func (c *commandContext) timelineFor(lessonID string) (timeline.Document, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return timeline.Document{}, err
	}
	compiler := timeline.NewCompiler(cfg, logging.NewNop())
	return timeline.Load(compiler.TimelinePath(lessonID))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
