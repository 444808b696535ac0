package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"cadence/internal/config"
)

// Requirement defines an external dependency cadence relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the configuration needs. ffprobe is
// optional because durations fall back to a size estimate without it.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Joins fragment audio into segment files",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Audio.FFprobeBinary,
			Description: "Measures audio durations",
			Optional:    true,
		},
	}
	if strings.EqualFold(cfg.Synthesis.Provider, "command") {
		reqs = append(reqs, Requirement{
			Name:        "TTS command",
			Command:     commandBinary(cfg.Synthesis.Command.Command),
			Description: "External speech synthesizer",
		})
	}
	return reqs
}

func commandBinary(command string) string {
	argv, err := shellwords.Parse(command)
	if err != nil || len(argv) == 0 {
		return ""
	}
	return argv[0]
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the unavailable, non-optional dependencies.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
