package tone

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"cadence/internal/lesson"
	"cadence/internal/synth"
)

const (
	bitDepth        = 16
	amplitude       = 0.2 * math.MaxInt16
	minimumSeconds  = 0.25
	fadeSeconds     = 0.01
	wavPCMAudioFmt  = 1
	monoChannel     = 1
	defaultFreqL1Hz = 220
	defaultFreqL2Hz = 330
)

// Options configures the offline synthesizer.
type Options struct {
	CharsPerSecond float64
	SampleRate     int
	L1FrequencyHz  float64
	L2FrequencyHz  float64
}

// Synth renders a sine tone whose length is proportional to the text length
// divided by the rate. It needs no network or external binaries, which makes
// it the provider for dry runs, fixtures, and CI.
type Synth struct {
	opts Options
}

// New creates an offline tone synthesizer.
func New(opts Options) *Synth {
	if opts.CharsPerSecond <= 0 {
		opts.CharsPerSecond = 14
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 24000
	}
	if opts.L1FrequencyHz <= 0 {
		opts.L1FrequencyHz = defaultFreqL1Hz
	}
	if opts.L2FrequencyHz <= 0 {
		opts.L2FrequencyHz = defaultFreqL2Hz
	}
	return &Synth{opts: opts}
}

// Name identifies the provider.
func (s *Synth) Name() string { return "tone" }

// Seconds returns the duration the synthesizer renders for text at rate.
func (s *Synth) Seconds(text string, rate float64) float64 {
	if rate <= 0 {
		rate = 1
	}
	seconds := float64(utf8.RuneCountInString(text)) / s.opts.CharsPerSecond / rate
	return math.Max(seconds, minimumSeconds)
}

// Synthesize renders a 16-bit mono WAV for the request.
func (s *Synth) Synthesize(ctx context.Context, req synth.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Text == "" {
		return nil, errors.New("tone: empty text")
	}
	freq := s.opts.L1FrequencyHz
	if req.Language == lesson.L2 {
		freq = s.opts.L2FrequencyHz
	}

	rate := s.opts.SampleRate
	frames := int(math.Round(s.Seconds(req.Text, req.Rate) * float64(rate)))
	fade := int(fadeSeconds * float64(rate))
	samples := make([]int, frames)
	for i := range samples {
		gain := 1.0
		if i < fade {
			gain = float64(i) / float64(fade)
		} else if tail := frames - 1 - i; tail < fade {
			gain = float64(tail) / float64(fade)
		}
		samples[i] = int(amplitude * gain * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: monoChannel, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	out := &memWriteSeeker{}
	enc := wav.NewEncoder(out, rate, bitDepth, monoChannel, wavPCMAudioFmt)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}
	return out.buf, nil
}

// memWriteSeeker is the in-memory io.WriteSeeker the WAV encoder needs to
// patch its header sizes on Close.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		m.buf = append(m.buf, make([]byte, need-len(m.buf))...)
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(m.pos) + offset
	case io.SeekEnd:
		next = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("tone: invalid whence")
	}
	if next < 0 {
		return 0, errors.New("tone: negative position")
	}
	m.pos = int(next)
	return next, nil
}
