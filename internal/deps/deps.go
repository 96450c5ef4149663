// Package deps verifies that the external tools the pipeline shells
// out to are actually present before any job runs.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/boilthesea/cleanvid/internal/config"
)

// Status reports the availability of one external tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// Check resolves every configured external binary through PATH and
// reports what was found. Both tools are required; there are no
// optional dependencies.
func Check(cfg *config.Config) []Status {
	requirements := []struct {
		name        string
		command     string
		description string
	}{
		{"FFmpeg", cfg.FFmpegBinary(), "Audio filtering, subtitle handling, and muxing"},
		{"FFprobe", cfg.FFprobeBinary(), "Container and stream inspection"},
	}

	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		command := strings.TrimSpace(req.command)
		status := Status{
			Name:        req.name,
			Command:     command,
			Description: req.description,
		}
		if command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", command)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the names of unavailable tools.
func Missing(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
