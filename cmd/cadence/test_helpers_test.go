package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	lessonsDir string
	stateDir   string
}

// setupCLITestEnv writes an offline configuration: tone synthesis, WAV
// output, no lesson-wide merge, and an ffprobe that cannot be found so
// durations come from the size estimate.
func setupCLITestEnv(t *testing.T, extra ...string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		lessonsDir: filepath.Join(base, "lessons"),
		stateDir:   filepath.Join(base, "state"),
	}
	t.Setenv("CADENCE_NATS_URL", "")
	t.Setenv("AZURE_SPEECH_KEY", "")

	content := fmt.Sprintf(`[paths]
lessons_dir = %q
log_dir = %q
state_dir = %q

[synthesis]
provider = "tone"

[audio]
extension = "wav"
ffprobe_binary = "cadence-test-missing-ffprobe"

[timeline]
merge_lesson_audio = false

[logging]
level = "error"
%s`, env.lessonsDir, filepath.Join(base, "logs"), env.stateDir, strings.Join(extra, "\n"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) writeScript(t *testing.T, lessonID, body string) string {
	t.Helper()
	dir := filepath.Join(e.lessonsDir, lessonID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir lesson dir: %v", err)
	}
	path := filepath.Join(dir, "script.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

const introScript = `{
  "lessonId": "intro",
  "segments": [
    {"id": "objective_1", "fragments": [{"content": "Today we learn greetings.", "languageTag": "L1"}]},
    {"id": "practice_1", "fragments": [{"content": "Buenos dias", "languageTag": "L2", "auxiliaryTranslation": "Good morning"}]}
  ]
}`
