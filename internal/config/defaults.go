package config

const (
	defaultLessonsDir           = "~/.local/share/cadence/lessons"
	defaultLogDir               = "~/.local/share/cadence/logs"
	defaultStateDir             = "~/.local/share/cadence"
	defaultProvider             = "azure"
	defaultL1Language           = "en"
	defaultL2Language           = "es"
	defaultL1Voice              = "en-US-JennyNeural"
	defaultL2Voice              = "es-ES-ElviraNeural"
	defaultL1Rate               = 1.0
	defaultL2Rate               = 0.85
	defaultAzureRegion          = "eastus"
	defaultAzureOutputFormat    = "audio-24khz-48kbitrate-mono-mp3"
	defaultAzureUserAgent       = "cadence/dev"
	defaultToneCharsPerSecond   = 14
	defaultToneSampleRate       = 24000
	defaultToneL1FrequencyHz    = 220
	defaultToneL2FrequencyHz    = 330
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultAudioExtension       = "mp3"
	defaultAudioSampleRate      = 24000
	defaultAudioChannels        = 1
	defaultFragmentMinLength    = 3
	defaultTimelineFPS          = 30
	defaultImagesDir            = "images"
	defaultCompressedImageExt   = "webp"
	defaultUncompressedImageExt = "png"
	defaultPollIntervalMS       = 100
	defaultBoundaryEpsilon      = 0.1
	defaultCooldownMS           = 1500
	defaultSubjectPrefix        = "cadence.lessons"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LessonsDir: defaultLessonsDir,
			LogDir:     defaultLogDir,
			StateDir:   defaultStateDir,
		},
		Synthesis: Synthesis{
			Provider:   defaultProvider,
			L1Language: defaultL1Language,
			L2Language: defaultL2Language,
			L1Voice:    defaultL1Voice,
			L2Voice:    defaultL2Voice,
			L1Rate:     defaultL1Rate,
			L2Rate:     defaultL2Rate,
			Azure: AzureSynthesis{
				Region:       defaultAzureRegion,
				OutputFormat: defaultAzureOutputFormat,
				UserAgent:    defaultAzureUserAgent,
			},
			Tone: ToneSynthesis{
				CharsPerSecond: defaultToneCharsPerSecond,
				SampleRate:     defaultToneSampleRate,
				L1FrequencyHz:  defaultToneL1FrequencyHz,
				L2FrequencyHz:  defaultToneL2FrequencyHz,
			},
		},
		Audio: Audio{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Extension:     defaultAudioExtension,
			SampleRate:    defaultAudioSampleRate,
			Channels:      defaultAudioChannels,
		},
		Fragments: Fragments{
			MinLength: defaultFragmentMinLength,
		},
		Timeline: Timeline{
			FPS:                  defaultTimelineFPS,
			MergeLessonAudio:     true,
			ImagesDir:            defaultImagesDir,
			CompressedImageExt:   defaultCompressedImageExt,
			UncompressedImageExt: defaultUncompressedImageExt,
		},
		Playback: Playback{
			PollIntervalMS:  defaultPollIntervalMS,
			BoundaryEpsilon: defaultBoundaryEpsilon,
			CooldownMS:      defaultCooldownMS,
		},
		Events: Events{
			SubjectPrefix: defaultSubjectPrefix,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
