package timeline

import (
	"path"
	"path/filepath"
	"strings"

	"cadence/internal/fileutil"
	"cadence/internal/lesson"
)

var rolePrefixes = []struct {
	prefix string
	role   string
}{
	{"objective", RoleObjective},
	{"vocab", RoleVocabulary},
	{"grammar", RoleGrammar},
	{"practice", RolePractice},
}

// ResolveRole picks the screen role for a segment. A vocabulary anchor always
// wins, then an explicit role, then the id prefix table.
func ResolveRole(segment lesson.SegmentScript) string {
	if strings.TrimSpace(segment.VocabAnchor) != "" {
		return RoleVocabulary
	}
	if role := strings.ToLower(strings.TrimSpace(segment.ScreenRole)); role != "" {
		return role
	}
	id := strings.ToLower(segment.ID)
	for _, entry := range rolePrefixes {
		if strings.HasPrefix(id, entry.prefix) {
			return entry.role
		}
	}
	return RoleContent
}

// visualRef returns the lesson-relative image path for key. The compressed
// variant wins when present, then the uncompressed one. When neither exists
// locally the compressed path is returned anyway since the asset may live in
// remote storage.
func (c *Compiler) visualRef(lessonDir, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	t := c.cfg.Timeline
	compressed := path.Join(t.ImagesDir, key+"."+t.CompressedImageExt)
	uncompressed := path.Join(t.ImagesDir, key+"."+t.UncompressedImageExt)
	if fileutil.Exists(filepath.Join(lessonDir, filepath.FromSlash(compressed))) {
		return compressed
	}
	if fileutil.Exists(filepath.Join(lessonDir, filepath.FromSlash(uncompressed))) {
		return uncompressed
	}
	return compressed
}
