package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"cadence/internal/media/audio"
	"cadence/internal/media/ffprobe"
	"cadence/internal/synth"
)

// Synth is a synthesizer that returns BytesPerRune bytes of audio per rune of
// text. Combined with SizeProber, a fragment of n runes measures
// max(n*BytesPerRune/48000, 1) seconds.
type Synth struct {
	BytesPerRune int
	// Fail makes any request whose text contains the key fail.
	Fail map[string]error
	// Empty makes any request whose text contains the key return no bytes.
	Empty map[string]bool

	mu       sync.Mutex
	requests []synth.Request
}

// Name identifies the fake provider.
func (s *Synth) Name() string { return "fake" }

// Synthesize records the request and returns patterned bytes.
func (s *Synth) Synthesize(ctx context.Context, req synth.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	for key, err := range s.Fail {
		if strings.Contains(req.Text, key) {
			return nil, err
		}
	}
	for key := range s.Empty {
		if strings.Contains(req.Text, key) {
			return nil, nil
		}
	}
	per := s.BytesPerRune
	if per <= 0 {
		per = 48000
	}
	return bytes.Repeat([]byte{0x42}, per*len([]rune(req.Text))), nil
}

// Requests returns a copy of every request seen.
func (s *Synth) Requests() []synth.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]synth.Request(nil), s.requests...)
}

// Calls reports how many requests were made.
func (s *Synth) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// SizeProber returns a real prober whose ffprobe always fails, so every
// duration comes from the file size fallback.
func SizeProber() *audio.Prober {
	p := audio.NewProber("ffprobe", nil)
	p.WithInspector(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("ffprobe unavailable")
	})
	return p
}

// Concatenator joins parts byte-wise and counts calls.
type Concatenator struct {
	Err error

	mu    sync.Mutex
	calls [][]string
}

// Concatenate writes the concatenated part bytes to dest unless Err is set.
func (c *Concatenator) Concatenate(_ context.Context, parts []string, dest string) error {
	c.mu.Lock()
	c.calls = append(c.calls, append([]string(nil), parts...))
	c.mu.Unlock()
	if c.Err != nil {
		// Leave a partial file behind like a failed ffmpeg would.
		_ = os.WriteFile(dest, []byte("partial"), 0o644)
		return c.Err
	}
	var buf bytes.Buffer
	for _, part := range parts {
		data, err := os.ReadFile(part)
		if err != nil {
			return fmt.Errorf("read part: %w", err)
		}
		buf.Write(data)
	}
	return os.WriteFile(dest, buf.Bytes(), 0o644)
}

// Calls reports how many joins were requested.
func (c *Concatenator) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Parts returns the part paths of call i.
func (c *Concatenator) Parts(i int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.calls) {
		return nil
	}
	return append([]string(nil), c.calls[i]...)
}
