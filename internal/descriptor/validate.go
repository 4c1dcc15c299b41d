// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"fmt"
	"regexp"
)

// ReservedNames are namespace identifiers claimed by the base distribution
// and the resolver itself. A third-party package may not use any of them.
var ReservedNames = []string{"acp", "local", "core", "system", "global"}

const (
	descriptionMinLen = 10
	descriptionMaxLen = 200
)

var (
	namePattern       = regexp.MustCompile(`^[a-z0-9-]+$`)
	versionPattern    = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	repositoryPattern = regexp.MustCompile(`^https?://.*\.git$`)
	homepagePattern   = regexp.MustCompile(`^https?://`)
	constraintPattern = regexp.MustCompile(`^>=?\d+\.\d+\.\d+$`)
)

// Severity distinguishes blocking violations from advisory ones.
type Severity int

const (
	// SeverityError blocks installation and publication.
	SeverityError Severity = iota
	// SeverityWarning is advisory: the descriptor works but is incomplete.
	SeverityWarning
)

// String returns the severity label used in reports.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// ValidationIssue represents a single validation problem in a descriptor.
type ValidationIssue struct {
	// Severity marks the issue as blocking or advisory.
	Severity Severity
	// Field is the descriptor field the issue concerns.
	Field string
	// Message describes the specific problem.
	Message string
}

// Error implements the error interface for ValidationIssue.
func (v ValidationIssue) Error() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Field, v.Message)
}

// ValidationResult contains the result of descriptor validation. Validation
// is not fail-fast: every field is checked and all violations collected.
type ValidationResult struct {
	// Valid is true if the descriptor has no error-severity issues.
	// Warnings alone leave a descriptor valid.
	Valid bool
	// Issues contains all violations found, errors and warnings.
	Issues []ValidationIssue
}

// AddError records a blocking violation and marks the result invalid.
func (r *ValidationResult) AddError(field, message string) {
	r.Issues = append(r.Issues, ValidationIssue{Severity: SeverityError, Field: field, Message: message})
	r.Valid = false
}

// AddWarning records an advisory issue without invalidating the result.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Issues = append(r.Issues, ValidationIssue{Severity: SeverityWarning, Field: field, Message: message})
}

// Errors returns only the error-severity issues.
func (r *ValidationResult) Errors() []ValidationIssue {
	var out []ValidationIssue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

// Warnings returns only the warning-severity issues.
func (r *ValidationResult) Warnings() []ValidationIssue {
	var out []ValidationIssue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			out = append(out, i)
		}
	}
	return out
}

// IsReservedName reports whether name belongs to the reserved set.
func IsReservedName(name string) bool {
	for _, r := range ReservedNames {
		if name == r {
			return true
		}
	}
	return false
}

// Validate checks the descriptor against the schema and returns every
// violation found.
//
// Identity essentials (name, version, contents) and any malformed present
// field are errors. Missing recommended metadata (description, author,
// license, repository) is a warning: a minimal descriptor with just a name,
// a version, and contents validates with zero errors.
func (d *Descriptor) Validate() *ValidationResult {
	r := &ValidationResult{Valid: true}

	switch {
	case d.Name == "":
		r.AddError("name", "required field is missing")
	case !namePattern.MatchString(d.Name):
		r.AddError("name", fmt.Sprintf("%q must match ^[a-z0-9-]+$", d.Name))
	case IsReservedName(d.Name):
		r.AddError("name", fmt.Sprintf("%q is reserved", d.Name))
	}

	if d.Version == "" {
		r.AddError("version", "required field is missing")
	} else if !versionPattern.MatchString(d.Version) {
		r.AddError("version", fmt.Sprintf("%q must be semver X.Y.Z", d.Version))
	}

	if d.Description == "" {
		r.AddWarning("description", "recommended field is missing")
	} else if n := len(d.Description); n < descriptionMinLen || n > descriptionMaxLen {
		r.AddError("description", fmt.Sprintf("length %d outside [%d,%d]", n, descriptionMinLen, descriptionMaxLen))
	}

	if d.Author == "" {
		r.AddWarning("author", "recommended field is missing")
	}
	if d.License == "" {
		r.AddWarning("license", "recommended field is missing")
	}

	if d.Repository == "" {
		r.AddWarning("repository", "recommended field is missing")
	} else if !repositoryPattern.MatchString(d.Repository) {
		r.AddError("repository", fmt.Sprintf("%q must be an http(s) URL ending in .git", d.Repository))
	}

	if d.Homepage != "" && !homepagePattern.MatchString(d.Homepage) {
		r.AddError("homepage", fmt.Sprintf("%q must be an http(s) URL", d.Homepage))
	}

	for pm, constraint := range d.Requires {
		if !constraintPattern.MatchString(constraint) {
			r.AddError("requires."+pm, fmt.Sprintf("%q must match >=X.Y.Z or >X.Y.Z", constraint))
		}
	}

	if !d.doc.Has("contents") {
		r.AddError("contents", "required field is missing")
	} else {
		d.validateContents(r)
	}

	return r
}

// validateContents checks every declared content entry. An entry without its
// own version inherits the package version, so a missing entry version is
// only an error when the package version is missing too.
func (d *Descriptor) validateContents(r *ValidationResult) {
	for _, cat := range Categories {
		for i, e := range d.Contents[cat] {
			field := fmt.Sprintf("contents.%s[%d]", cat, i)
			if e.Name == "" {
				r.AddError(field+".name", "required field is missing")
			}
			if e.Version != "" && !versionPattern.MatchString(e.Version) {
				r.AddError(field+".version", fmt.Sprintf("%q must be semver X.Y.Z", e.Version))
			}
			if cat == "files" && e.Target == "" {
				r.AddError(field+".target", "files entries need a target directory")
			}
		}
	}
}
