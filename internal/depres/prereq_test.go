// SPDX-License-Identifier: MPL-2.0

package depres

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProjectFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckHostPrereqs_NpmEngines(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "package.json", `{
  "name": "consumer",
  "engines": { "npm": "^9.2.0" }
}`)

	checks := CheckHostPrereqs(map[string]string{"npm": ">=8.0.0"}, dir)
	if len(checks) != 1 {
		t.Fatalf("len(checks) = %d, want 1", len(checks))
	}
	c := checks[0]
	if !c.Verified {
		t.Fatalf("npm check unverified: %+v", c)
	}
	if c.Version != "9.2.0" {
		t.Errorf("Version = %q, want 9.2.0", c.Version)
	}
	if !c.Satisfied {
		t.Errorf("9.2.0 should satisfy >=8.0.0")
	}
}

func TestCheckHostPrereqs_PipRequiresPython(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "pyproject.toml", `[project]
name = "consumer"
requires-python = ">=3.9"
`)

	checks := CheckHostPrereqs(map[string]string{"pip": ">=3.10.0"}, dir)
	c := checks[0]
	if !c.Verified {
		t.Fatalf("pip check unverified: %+v", c)
	}
	if c.Satisfied {
		t.Errorf("3.9 should not satisfy >=3.10.0")
	}
}

func TestCheckHostPrereqs_CargoRustVersion(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "Cargo.toml", `[package]
name = "consumer"
rust-version = "1.75"
`)

	checks := CheckHostPrereqs(map[string]string{"cargo": ">=1.70.0"}, dir)
	c := checks[0]
	if !c.Verified || !c.Satisfied {
		t.Errorf("cargo check = %+v, want verified and satisfied", c)
	}
}

func TestCheckHostPrereqs_GoDirective(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "go.mod", "module consumer\n\ngo 1.22\n")

	checks := CheckHostPrereqs(map[string]string{"go": ">=1.21.0"}, dir)
	c := checks[0]
	if !c.Verified || !c.Satisfied {
		t.Errorf("go check = %+v, want verified and satisfied", c)
	}
}

func TestCheckHostPrereqs_Unverifiable(t *testing.T) {
	checks := CheckHostPrereqs(map[string]string{"npm": ">=8.0.0"}, t.TempDir())
	c := checks[0]
	if c.Verified {
		t.Errorf("check should be unverified without package.json: %+v", c)
	}
	if AllSatisfied(checks) {
		t.Error("unverified checks must not count as satisfied")
	}
}

func TestCheckHostPrereqs_StableOrder(t *testing.T) {
	dir := t.TempDir()
	requires := map[string]string{"go": ">=1.0.0", "npm": ">=1.0.0", "pip": ">=1.0.0"}

	first := CheckHostPrereqs(requires, dir)
	second := CheckHostPrereqs(requires, dir)
	for i := range first {
		if first[i].Manager != second[i].Manager {
			t.Fatalf("unstable order: %v vs %v", first, second)
		}
	}
}

func TestConstraintSatisfied_StrictGreater(t *testing.T) {
	tests := []struct {
		constraint, version string
		want                bool
	}{
		{">=1.2.3", "1.2.3", true},
		{">=1.2.3", "1.2.2", false},
		{">1.2.3", "1.2.3", false},
		{">1.2.3", "1.2.4", true},
	}
	for _, tt := range tests {
		if got := constraintSatisfied(tt.constraint, tt.version); got != tt.want {
			t.Errorf("constraintSatisfied(%q, %q) = %v, want %v", tt.constraint, tt.version, got, tt.want)
		}
	}
}
