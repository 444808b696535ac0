package lesson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cadence/internal/services"
	"cadence/internal/textutil"
)

// ScriptFileName is the default script location inside a lesson directory.
const ScriptFileName = "script.json"

// LessonAudioStem names the merged lesson audio file. No segment may map to it.
const LessonAudioStem = "lesson"

// FileStem returns the audio file stem used for a segment id.
func FileStem(segmentID string) string {
	return textutil.SanitizeFileName(segmentID)
}

// LoadScript reads a lesson script from JSON or YAML (by extension). The
// document may be a bare array of segments or an object with a "segments"
// array. A missing file is reported as ErrMissingInput; malformed content as
// ErrValidation. When the document carries no lessonId, fallbackLessonID is used.
func LoadScript(path, fallbackLessonID string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Script{}, services.Wrap(services.ErrMissingInput, "script", "load", "lesson script not found: "+path, err)
		}
		return Script{}, services.Wrap(services.ErrIO, "script", "load", path, err)
	}

	var script Script
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		script, err = decodeYAML(data)
	default:
		script, err = decodeJSON(data)
	}
	if err != nil {
		return Script{}, services.Wrap(services.ErrValidation, "script", "parse", path, err)
	}
	if strings.TrimSpace(script.LessonID) == "" {
		script.LessonID = fallbackLessonID
	}
	if err := script.Normalize(); err != nil {
		return Script{}, services.Wrap(services.ErrValidation, "script", "validate", path, err)
	}
	return script, nil
}

func decodeJSON(data []byte) (Script, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Script{}, errors.New("empty document")
	}
	if trimmed[0] == '[' {
		var segments []SegmentScript
		if err := json.Unmarshal(trimmed, &segments); err != nil {
			return Script{}, err
		}
		return Script{Segments: segments}, nil
	}
	var script Script
	if err := json.Unmarshal(trimmed, &script); err != nil {
		return Script{}, err
	}
	return script, nil
}

func decodeYAML(data []byte) (Script, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Script{}, err
	}
	if len(root.Content) == 0 {
		return Script{}, errors.New("empty document")
	}
	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var segments []SegmentScript
		if err := doc.Decode(&segments); err != nil {
			return Script{}, err
		}
		return Script{Segments: segments}, nil
	}
	var script Script
	if err := doc.Decode(&script); err != nil {
		return Script{}, err
	}
	return script, nil
}

// Normalize canonicalises language tags and checks structural invariants:
// unique non-empty segment ids and non-empty fragment content. Ids must also
// map to distinct audio file stems, compared case-insensitively, and must not
// take the lesson audio stem. Segments with no fragments are left for the
// assembler to reject.
func (s *Script) Normalize() error {
	seen := make(map[string]struct{}, len(s.Segments))
	stems := make(map[string]string, len(s.Segments))
	for i := range s.Segments {
		segment := &s.Segments[i]
		segment.ID = strings.TrimSpace(segment.ID)
		if segment.ID == "" {
			return fmt.Errorf("segment %d: id is required", i)
		}
		if _, dup := seen[segment.ID]; dup {
			return fmt.Errorf("segment %q: duplicate id", segment.ID)
		}
		seen[segment.ID] = struct{}{}
		stem := strings.ToLower(FileStem(segment.ID))
		if stem == LessonAudioStem {
			return fmt.Errorf("segment %q: id is reserved for the lesson audio file", segment.ID)
		}
		if other, clash := stems[stem]; clash {
			return fmt.Errorf("segment %q: audio file name collides with segment %q", segment.ID, other)
		}
		stems[stem] = segment.ID
		for j := range segment.Fragments {
			fragment := &segment.Fragments[j]
			if strings.TrimSpace(fragment.Content) == "" {
				return fmt.Errorf("segment %q fragment %d: content is empty", segment.ID, j)
			}
			tag, err := ParseLanguageTag(string(fragment.LanguageTag))
			if err != nil {
				return fmt.Errorf("segment %q fragment %d: %w", segment.ID, j, err)
			}
			fragment.LanguageTag = tag
			if fragment.SynthesisRate != nil && *fragment.SynthesisRate <= 0 {
				return fmt.Errorf("segment %q fragment %d: synthesisRate must be positive", segment.ID, j)
			}
		}
	}
	return nil
}
