// SPDX-License-Identifier: MPL-2.0

package depres

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"
)

// PrereqCheck is the outcome of checking one requires.{manager} constraint
// against the consuming project.
type PrereqCheck struct {
	// Manager is the package-manager name (npm, pip, cargo, go, acp).
	Manager string
	// Constraint is the declared requirement, e.g. ">=8.0.0".
	Constraint string
	// Version is the version discovered in the project, empty if none.
	Version string
	// Satisfied is true when the discovered version meets the constraint.
	Satisfied bool
	// Verified is false when no version could be discovered; such checks
	// warn and block installation pending confirmation.
	Verified bool
}

// Message renders the check for user display.
func (c PrereqCheck) Message() string {
	switch {
	case !c.Verified:
		return fmt.Sprintf("%s %s: could not verify (no project manifest found)", c.Manager, c.Constraint)
	case c.Satisfied:
		return fmt.Sprintf("%s %s: satisfied by %s", c.Manager, c.Constraint, c.Version)
	default:
		return fmt.Sprintf("%s %s: project has %s", c.Manager, c.Constraint, c.Version)
	}
}

// AllSatisfied reports whether every check verified and passed.
func AllSatisfied(checks []PrereqCheck) bool {
	for _, c := range checks {
		if !c.Verified || !c.Satisfied {
			return false
		}
	}
	return true
}

// CheckHostPrereqs evaluates requires constraints against the project's own
// dependency manifests in projectDir. Discovery is best-effort: package.json
// engines for npm, pyproject.toml requires-python for pip, Cargo.toml
// rust-version for cargo, and the go.mod go directive for go. Unknown
// managers and missing manifests yield unverified checks.
func CheckHostPrereqs(requires map[string]string, projectDir string) []PrereqCheck {
	var checks []PrereqCheck
	for _, manager := range sortedManagers(requires) {
		constraint := requires[manager]
		check := PrereqCheck{Manager: manager, Constraint: constraint}

		version := discoverVersion(manager, projectDir)
		if version != "" {
			check.Version = version
			check.Verified = true
			check.Satisfied = constraintSatisfied(constraint, version)
		}
		checks = append(checks, check)
	}
	return checks
}

// sortedManagers returns the manager names in a stable order.
func sortedManagers(requires map[string]string) []string {
	known := []string{"acp", "npm", "pip", "cargo", "go"}
	var out []string
	for _, m := range known {
		if _, ok := requires[m]; ok {
			out = append(out, m)
		}
	}
	for m := range requires {
		found := false
		for _, k := range known {
			if m == k {
				found = true
				break
			}
		}
		if !found {
			out = append(out, m)
		}
	}
	return out
}

// constraintSatisfied compares a discovered version against ">=X.Y.Z" or
// ">X.Y.Z" using semver ordering.
func constraintSatisfied(constraint, version string) bool {
	strict := !strings.HasPrefix(constraint, ">=")
	want := strings.TrimLeft(constraint, ">=")

	cmp := semver.Compare(canonical(version), canonical(want))
	if strict {
		return cmp > 0
	}
	return cmp >= 0
}

// canonical normalizes a version for x/mod/semver, which wants a leading v
// and tolerates missing minor/patch.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "v")
	return "v" + v
}

// versionDigits pulls the first dotted version number out of a constraint
// string like "^18.0.0" or ">= 3.9".
var versionDigits = regexp.MustCompile(`\d+(?:\.\d+){0,2}`)

// discoverVersion finds the project's declared version for a manager.
func discoverVersion(manager, projectDir string) string {
	switch manager {
	case "npm":
		return npmEngineVersion(filepath.Join(projectDir, "package.json"))
	case "pip":
		return pythonVersion(filepath.Join(projectDir, "pyproject.toml"))
	case "cargo":
		return rustVersion(filepath.Join(projectDir, "Cargo.toml"))
	case "go":
		return goDirectiveVersion(filepath.Join(projectDir, "go.mod"))
	default:
		return ""
	}
}

// npmEngineVersion reads engines.npm from package.json.
func npmEngineVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var pkg struct {
		Engines map[string]string `json:"engines"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return versionDigits.FindString(pkg.Engines["npm"])
}

// pythonVersion reads requires-python from pyproject.toml's [project] table.
func pythonVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var doc struct {
		Project struct {
			RequiresPython string `toml:"requires-python"`
		} `toml:"project"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return ""
	}
	return versionDigits.FindString(doc.Project.RequiresPython)
}

// rustVersion reads rust-version from Cargo.toml's [package] table.
func rustVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var doc struct {
		Package struct {
			RustVersion string `toml:"rust-version"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return ""
	}
	return versionDigits.FindString(doc.Package.RustVersion)
}

// goDirectiveVersion reads the go directive from go.mod.
func goDirectiveVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "go ") {
			return versionDigits.FindString(line)
		}
	}
	return ""
}
