package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement names an external executable and how badly it is needed.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the resolved availability of one Requirement.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// CheckBinaries resolves each requirement. Bare names are looked up on PATH;
// commands containing a separator must point at an executable file.
func CheckBinaries(requirements []Requirement) []Status {
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		s := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		s.Path, s.Detail = resolve(s.Command)
		s.Available = s.Path != ""
		out[i] = s
	}
	return out
}

func resolve(command string) (string, string) {
	if command == "" {
		return "", "command not configured"
	}
	if strings.ContainsRune(command, filepath.Separator) {
		info, err := os.Stat(command)
		switch {
		case err != nil:
			return "", fmt.Sprintf("%s does not exist", command)
		case info.IsDir() || info.Mode().Perm()&0o111 == 0:
			return "", fmt.Sprintf("%s is not executable", command)
		}
		return command, ""
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Sprintf("binary %q not found on PATH", command)
	}
	return path, ""
}

// MissingRequired lists the names of unavailable, non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
