// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"os"
	"path/filepath"
	"testing"
)

const fullDescriptor = `name: demo
version: 1.2.0
description: A demonstration content package for tests
author: Test Author
license: MIT
repository: https://example.com/acp-demo.git
homepage: https://example.com/demo
requires:
  npm: >=8.0.0
contents:
  patterns:
    - name: demo.pattern.md
      version: 1.0.0
  commands:
    - name: demo.hello.md
      version: 1.2.0
      scripts:
        - helper.sh
    - name: demo.exp.md
      version: 0.1.0
      experimental: true
  scripts:
    - name: helper.sh
      version: 1.0.0
  files:
    - name: config.yaml.template
      version: 1.0.0
      target: ./config
      variables:
        - PROJECT_NAME
`

func TestParse_Fields(t *testing.T) {
	d := Parse(fullDescriptor)

	if d.Name != "demo" {
		t.Errorf("Name = %q, want demo", d.Name)
	}
	if d.Version != "1.2.0" {
		t.Errorf("Version = %q, want 1.2.0", d.Version)
	}
	if d.Repository != "https://example.com/acp-demo.git" {
		t.Errorf("Repository = %q", d.Repository)
	}
	if got := d.Requires["npm"]; got != ">=8.0.0" {
		t.Errorf("Requires[npm] = %q, want >=8.0.0", got)
	}
}

func TestParse_Contents(t *testing.T) {
	d := Parse(fullDescriptor)

	if len(d.Contents["commands"]) != 2 {
		t.Fatalf("commands = %d entries, want 2", len(d.Contents["commands"]))
	}

	hello, ok := d.Entry("commands", "demo.hello.md")
	if !ok {
		t.Fatal("demo.hello.md not found")
	}
	if len(hello.Scripts) != 1 || hello.Scripts[0] != "helper.sh" {
		t.Errorf("hello.Scripts = %v, want [helper.sh]", hello.Scripts)
	}
	if hello.Experimental {
		t.Error("demo.hello.md should not be experimental")
	}

	exp, ok := d.Entry("commands", "demo.exp.md")
	if !ok {
		t.Fatal("demo.exp.md not found")
	}
	if !exp.Experimental {
		t.Error("demo.exp.md should be experimental")
	}

	file, ok := d.Entry("files", "config.yaml.template")
	if !ok {
		t.Fatal("config.yaml.template not found")
	}
	if file.Target != "./config" {
		t.Errorf("file.Target = %q, want ./config", file.Target)
	}
	if len(file.Variables) != 1 || file.Variables[0] != "PROJECT_NAME" {
		t.Errorf("file.Variables = %v, want [PROJECT_NAME]", file.Variables)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(fullDescriptor), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if d.Name != "demo" {
		t.Errorf("Name = %q, want demo", d.Name)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load of empty dir should fail")
	}
}

func TestEntryVersion_Fallback(t *testing.T) {
	d := Parse("name: demo\nversion: 1.2.0\ncontents:\n  commands:\n    - name: demo.hello.md\n")
	e, ok := d.Entry("commands", "demo.hello.md")
	if !ok {
		t.Fatal("entry not found")
	}
	if got := d.EntryVersion(e); got != "1.2.0" {
		t.Errorf("EntryVersion = %q, want package version 1.2.0", got)
	}
}
