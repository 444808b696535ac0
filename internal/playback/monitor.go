package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cadence/internal/lesson"
	"cadence/internal/logging"
	"cadence/internal/timeline"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultEpsilon      = 0.1
	DefaultCooldown     = 1500 * time.Millisecond
)

// PositionSource reports the current playback position in seconds.
type PositionSource interface {
	Position(ctx context.Context) (float64, error)
}

// PositionFunc adapts a function to PositionSource.
type PositionFunc func(ctx context.Context) (float64, error)

// Position calls f.
func (f PositionFunc) Position(ctx context.Context) (float64, error) { return f(ctx) }

// Boundary is the absolute end of one L2 phrase inside a practice segment.
type Boundary struct {
	SegmentID            string
	FragmentIndex        int
	Content              string
	AuxiliaryTranslation string
	End                  float64
}

// Key identifies the boundary for cooldown tracking.
func (b Boundary) Key() string {
	return fmt.Sprintf("%s#%d", b.SegmentID, b.FragmentIndex)
}

// PauseEvent asks the player to pause at a boundary.
type PauseEvent struct {
	Boundary
	Position float64
	At       time.Time
}

// Options tunes polling and trigger behaviour.
type Options struct {
	PollInterval time.Duration
	Epsilon      float64
	Cooldown     time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	if o.Cooldown <= 0 {
		o.Cooldown = DefaultCooldown
	}
	return o
}

// Boundaries lists the pause points of a timeline in time order: the end of
// every L2 fragment timing in practice-role entries.
func Boundaries(tl timeline.Timeline) []Boundary {
	var out []Boundary
	for _, entry := range tl.Entries {
		if entry.ScreenRole != timeline.RolePractice {
			continue
		}
		for i, timing := range entry.FragmentTimings {
			if timing.LanguageTag != lesson.L2 {
				continue
			}
			out = append(out, Boundary{
				SegmentID:            entry.SegmentID,
				FragmentIndex:        i,
				Content:              timing.Content,
				AuxiliaryTranslation: timing.AuxiliaryTranslation,
				End:                  entry.StartTime + timing.EndOffset,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].End < out[j].End })
	return out
}

// Monitor tracks which boundaries have fired.
type Monitor struct {
	source     PositionSource
	opts       Options
	boundaries []Boundary
	triggered  []bool
	lastKey    string
	lastAt     time.Time
	logger     *slog.Logger
}

// NewMonitor builds a monitor for tl reading positions from source.
func NewMonitor(tl timeline.Timeline, source PositionSource, opts Options, logger *slog.Logger) *Monitor {
	boundaries := Boundaries(tl)
	return &Monitor{
		source:     source,
		opts:       opts.withDefaults(),
		boundaries: boundaries,
		triggered:  make([]bool, len(boundaries)),
		logger:     logging.NewComponentLogger(logger, "playback"),
	}
}

// Boundaries returns the monitored pause points.
func (m *Monitor) Boundaries() []Boundary {
	return append([]Boundary(nil), m.boundaries...)
}

// Step evaluates one position sample. A boundary fires once when position
// reaches End-Epsilon and re-arms when position falls back below that mark.
// Every untriggered boundary a sample crosses fires, in time order, so a
// forward seek over several phrases reports each of them. A re-armed boundary
// that fires again within Cooldown of its last firing is suppressed.
func (m *Monitor) Step(position float64, now time.Time) []PauseEvent {
	var out []PauseEvent
	for i, b := range m.boundaries {
		mark := b.End - m.opts.Epsilon
		if position < mark {
			m.triggered[i] = false
			continue
		}
		if m.triggered[i] {
			continue
		}
		m.triggered[i] = true
		if b.Key() == m.lastKey && now.Sub(m.lastAt) < m.opts.Cooldown {
			m.logger.Debug("pause suppressed by cooldown",
				logging.String(logging.FieldSegmentID, b.SegmentID),
				logging.Int("fragment", b.FragmentIndex),
			)
			continue
		}
		m.lastKey = b.Key()
		m.lastAt = now
		out = append(out, PauseEvent{Boundary: b, Position: position, At: now})
	}
	return out
}

// Run polls the position source until ctx is done and streams pause events.
// The returned channel is closed when polling stops.
func (m *Monitor) Run(ctx context.Context) <-chan PauseEvent {
	events := make(chan PauseEvent)
	go func() {
		defer close(events)
		ticker := time.NewTicker(m.opts.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				position, err := m.source.Position(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logging.WarnWithContext(m.logger, "playback position unavailable", "position_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "pause points may fire late"),
					)
					continue
				}
				for _, event := range m.Step(position, now) {
					select {
					case events <- event:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return events
}
