// Package render places timeline entries on an integer frame grid for video
// composition.
package render

import (
	"fmt"
	"math"

	"cadence/internal/services"
	"cadence/internal/timeline"
)

// Scene is one fixed-role visual spanning [StartFrame, StartFrame+DurationFrames).
type Scene struct {
	SegmentID      string
	Role           string
	VisualRef      string
	AudioRef       string
	StartFrame     int
	DurationFrames int
}

// EndFrame returns the first frame after the scene.
func (s Scene) EndFrame() int {
	return s.StartFrame + s.DurationFrames
}

// PlaceScenes converts each entry to frames at fps. The timeline must be
// contiguous so consecutive scenes leave no visual gap beyond rounding.
func PlaceScenes(tl timeline.Timeline, fps int) ([]Scene, error) {
	if fps <= 0 {
		return nil, services.Wrap(services.ErrValidation, "render", "place scenes", fmt.Sprintf("fps must be positive, got %d", fps), nil)
	}
	if err := timeline.Validate(tl); err != nil {
		return nil, err
	}
	scenes := make([]Scene, 0, len(tl.Entries))
	for _, entry := range tl.Entries {
		scenes = append(scenes, Scene{
			SegmentID:      entry.SegmentID,
			Role:           entry.ScreenRole,
			VisualRef:      entry.VisualRef,
			AudioRef:       entry.AudioRef,
			StartFrame:     Frame(entry.StartTime, fps),
			DurationFrames: Frame(entry.Duration, fps),
		})
	}
	return scenes, nil
}

// Frame converts seconds to the nearest frame index.
func Frame(seconds float64, fps int) int {
	return int(math.Round(seconds * float64(fps)))
}
