// Package deps verifies the external tools the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"dubber/internal/config"
)

// Requirement defines an external dependency the pipeline relies on.
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

// Requirements lists the external binaries for the configured toolchain.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Audio extraction, mixing, and remuxing"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "Stream and duration probing"},
		{Name: "Demucs", Command: cfg.Tools.Demucs, Description: "Vocal / instrumental separation"},
		{Name: "uvx", Command: cfg.Tools.UVX, Description: "Launcher for WhisperX transcription and pyannote diarization"},
		{Name: "Coqui TTS", Command: cfg.Tools.TTS, Description: "XTTS v2 speech synthesis"},
		{Name: "Translator", Command: cfg.Tools.Translate, Description: "Offline machine translation"},
	}
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
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckBinary reports whether a single command resolves on PATH. The detail
// string is empty when the binary is available.
func CheckBinary(command string) (bool, string) {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return false, "command not configured"
	}
	if _, err := exec.LookPath(cmd); err != nil {
		return false, fmt.Sprintf("binary %q not found", cmd)
	}
	return true, ""
}

// MissingRequired returns the names of required dependencies that are not
// available.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
