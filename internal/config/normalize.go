package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSynthesis()
	c.normalizeAudio()
	c.normalizeTimeline()
	c.normalizeEvents()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LessonsDir) == "" {
		c.Paths.LessonsDir = defaultLessonsDir
	}
	if c.Paths.LessonsDir, err = expandPath(c.Paths.LessonsDir); err != nil {
		return fmt.Errorf("paths.lessons_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSynthesis() {
	c.Synthesis.Provider = strings.ToLower(strings.TrimSpace(c.Synthesis.Provider))
	if c.Synthesis.Provider == "" {
		c.Synthesis.Provider = defaultProvider
	}
	c.Synthesis.L1Language = strings.ToLower(strings.TrimSpace(c.Synthesis.L1Language))
	c.Synthesis.L2Language = strings.ToLower(strings.TrimSpace(c.Synthesis.L2Language))
	c.Synthesis.L1Voice = strings.TrimSpace(c.Synthesis.L1Voice)
	c.Synthesis.L2Voice = strings.TrimSpace(c.Synthesis.L2Voice)
	if c.Synthesis.L1Rate == 0 {
		c.Synthesis.L1Rate = defaultL1Rate
	}
	if c.Synthesis.L2Rate == 0 {
		c.Synthesis.L2Rate = defaultL2Rate
	}

	if c.Synthesis.Azure.APIKey == "" {
		if value, ok := os.LookupEnv("AZURE_SPEECH_KEY"); ok {
			c.Synthesis.Azure.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Synthesis.Azure.Region == "" {
		if value, ok := os.LookupEnv("AZURE_SPEECH_REGION"); ok {
			c.Synthesis.Azure.Region = strings.TrimSpace(value)
		}
	}
	c.Synthesis.Azure.Endpoint = strings.TrimRight(strings.TrimSpace(c.Synthesis.Azure.Endpoint), "/")
	if strings.TrimSpace(c.Synthesis.Azure.OutputFormat) == "" {
		c.Synthesis.Azure.OutputFormat = defaultAzureOutputFormat
	}
	if strings.TrimSpace(c.Synthesis.Azure.UserAgent) == "" {
		c.Synthesis.Azure.UserAgent = defaultAzureUserAgent
	}
	c.Synthesis.Command.Command = strings.TrimSpace(c.Synthesis.Command.Command)

	if c.Synthesis.Tone.CharsPerSecond <= 0 {
		c.Synthesis.Tone.CharsPerSecond = defaultToneCharsPerSecond
	}
	if c.Synthesis.Tone.SampleRate <= 0 {
		c.Synthesis.Tone.SampleRate = defaultToneSampleRate
	}
}

func (c *Config) normalizeAudio() {
	if strings.TrimSpace(c.Audio.FFmpegBinary) == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Audio.FFprobeBinary) == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	c.Audio.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Audio.Extension), "."))
	if c.Audio.Extension == "" {
		c.Audio.Extension = defaultAudioExtension
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultAudioSampleRate
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = defaultAudioChannels
	}
}

func (c *Config) normalizeTimeline() {
	if strings.TrimSpace(c.Timeline.ImagesDir) == "" {
		c.Timeline.ImagesDir = defaultImagesDir
	}
	c.Timeline.CompressedImageExt = strings.TrimPrefix(strings.TrimSpace(c.Timeline.CompressedImageExt), ".")
	if c.Timeline.CompressedImageExt == "" {
		c.Timeline.CompressedImageExt = defaultCompressedImageExt
	}
	c.Timeline.UncompressedImageExt = strings.TrimPrefix(strings.TrimSpace(c.Timeline.UncompressedImageExt), ".")
	if c.Timeline.UncompressedImageExt == "" {
		c.Timeline.UncompressedImageExt = defaultUncompressedImageExt
	}
}

func (c *Config) normalizeEvents() {
	c.Events.NATSURL = strings.TrimSpace(c.Events.NATSURL)
	if c.Events.NATSURL == "" {
		if value, ok := os.LookupEnv("CADENCE_NATS_URL"); ok {
			c.Events.NATSURL = strings.TrimSpace(value)
		}
	}
	c.Events.SubjectPrefix = strings.Trim(strings.TrimSpace(c.Events.SubjectPrefix), ".")
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = defaultSubjectPrefix
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.ComponentOverrides) > 0 {
		normalized := make(map[string]string, len(c.Logging.ComponentOverrides))
		for component, level := range c.Logging.ComponentOverrides {
			key := strings.ToLower(strings.TrimSpace(component))
			if key == "" {
				continue
			}
			normalized[key] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.ComponentOverrides = normalized
	}
}
