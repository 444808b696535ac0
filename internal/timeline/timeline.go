package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"cadence/internal/lesson"
	"cadence/internal/services"
)

// Screen roles.
const (
	RoleObjective  = "objective"
	RoleVocabulary = "vocabulary"
	RoleGrammar    = "grammar"
	RolePractice   = "practice"
	RoleContent    = "content"
)

// tolerance absorbs float drift when comparing accumulated times.
const tolerance = 1e-6

// Entry places one segment on the lesson clock.
type Entry struct {
	SegmentID       string                  `json:"segmentId"`
	StartTime       float64                 `json:"startTime"`
	EndTime         float64                 `json:"endTime"`
	Duration        float64                 `json:"duration"`
	ScreenRole      string                  `json:"screenRole"`
	AudioRef        string                  `json:"audioRef"`
	VocabAnchor     string                  `json:"vocabAnchor,omitempty"`
	VisualRef       string                  `json:"visualRef,omitempty"`
	Fragments       []lesson.TextFragment   `json:"fragments,omitempty"`
	FragmentTimings []lesson.FragmentTiming `json:"fragmentTimings,omitempty"`
}

// Timeline is the ordered, gap-free sequence of entries for a lesson.
type Timeline struct {
	Entries       []Entry `json:"segmentBasedTiming"`
	TotalDuration float64 `json:"totalDuration"`
}

// Document is the on-disk timeline artifact.
type Document struct {
	Lesson   Timeline `json:"lesson"`
	AudioURL string   `json:"audioUrl"`
}

// Validate checks that entries start at zero, abut exactly, and sum to the
// total duration.
func Validate(tl Timeline) error {
	cursor := 0.0
	for i, entry := range tl.Entries {
		if entry.Duration < 0 || math.IsNaN(entry.Duration) {
			return services.Wrap(services.ErrValidation, "timeline", "validate", fmt.Sprintf("entry %d (%s) has invalid duration %v", i, entry.SegmentID, entry.Duration), nil)
		}
		if !near(entry.StartTime, cursor) {
			return services.Wrap(services.ErrValidation, "timeline", "validate", fmt.Sprintf("entry %d (%s) starts at %.3f, expected %.3f", i, entry.SegmentID, entry.StartTime, cursor), nil)
		}
		if !near(entry.EndTime, entry.StartTime+entry.Duration) {
			return services.Wrap(services.ErrValidation, "timeline", "validate", fmt.Sprintf("entry %d (%s) ends at %.3f, expected %.3f", i, entry.SegmentID, entry.EndTime, entry.StartTime+entry.Duration), nil)
		}
		cursor = entry.EndTime
	}
	if !near(tl.TotalDuration, cursor) {
		return services.Wrap(services.ErrValidation, "timeline", "validate", fmt.Sprintf("total duration %.3f does not match last entry end %.3f", tl.TotalDuration, cursor), nil)
	}
	return nil
}

// Load reads a timeline artifact.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, services.Wrap(services.ErrMissingInput, "timeline", "load", path, err)
		}
		return Document{}, services.Wrap(services.ErrIO, "timeline", "load", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, services.Wrap(services.ErrValidation, "timeline", "decode", path, err)
	}
	return doc, nil
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}
