package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Validate returns non-fatal problems found in the manifest. An empty slice
// means the manifest is clean; callers decide whether to surface warnings.
func (m *Manifest) Validate() []string {
	var warnings []string

	if strings.TrimSpace(m.Project.Name) == "" {
		warnings = append(warnings, "PROJECT.NAME is empty")
	}
	if v := strings.TrimSpace(m.Project.Version); v == "" {
		warnings = append(warnings, "PROJECT.VERSION is empty")
	} else if _, err := semver.NewVersion(v); err != nil {
		warnings = append(warnings, fmt.Sprintf("PROJECT.VERSION %q is not a semantic version", v))
	}

	seen := make(map[string]bool)
	for i, t := range m.Dependencies.Tools {
		if strings.TrimSpace(t.Name) == "" {
			warnings = append(warnings, fmt.Sprintf("tool #%d has no NAME", i+1))
			continue
		}
		if seen[t.Name] {
			warnings = append(warnings, fmt.Sprintf("tool %q is declared more than once", t.Name))
		}
		seen[t.Name] = true
		if err := CheckName(t.Name); err != nil {
			warnings = append(warnings, err.Error())
		}
		if strings.TrimSpace(t.Link) == "" {
			warnings = append(warnings, fmt.Sprintf("tool %q has no LINK", t.Name))
		}
		if !t.Method.Valid() {
			warnings = append(warnings, fmt.Sprintf("tool %q has unknown METHOD %q", t.Name, t.Method))
		}
	}

	return warnings
}
