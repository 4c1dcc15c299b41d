// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"acp-cli/internal/fetch"
	"acp-cli/internal/issue"
	"acp-cli/internal/manifest"
)

// scriptPrompter replays canned answers.
type scriptPrompter struct {
	confirms []bool
	answers  []string
}

func (p *scriptPrompter) Confirm(string) (bool, error) {
	if len(p.confirms) == 0 {
		return false, nil
	}
	v := p.confirms[0]
	p.confirms = p.confirms[1:]
	return v, nil
}

func (p *scriptPrompter) Ask(string) (string, error) {
	if len(p.answers) == 0 {
		return "", nil
	}
	v := p.answers[0]
	p.answers = p.answers[1:]
	return v, nil
}

// writeBundle lays out a bundle directory from a path -> content map.
func writeBundle(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// newTestInstaller returns an installer rooted at <project>/agent.
func newTestInstaller(t *testing.T, p Prompter) (*Installer, string) {
	t.Helper()
	if p == nil {
		p = &scriptPrompter{}
	}
	root := filepath.Join(t.TempDir(), "agent")
	return New(root, fetch.NewFetcher(), p), root
}

const demoDescriptor = `name: demo
version: 1.2.0
contents:
  commands:
    - name: demo.hello.md
`

func demoBundle(t *testing.T) string {
	t.Helper()
	return writeBundle(t, map[string]string{
		"package.yaml":                 demoDescriptor,
		"agent/commands/demo.hello.md": "# Hello\n",
	})
}

func TestInstall_LocalBundle(t *testing.T) {
	inst, root := newTestInstaller(t, nil)
	bundle := demoBundle(t)

	plan, err := inst.Stage(context.Background(), InstallOptions{Source: bundle})
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	defer plan.Close()

	if plan.Package != "demo" {
		t.Errorf("Package = %q, want demo", plan.Package)
	}
	if len(plan.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(plan.Items))
	}

	report, err := inst.Apply(plan, InstallOptions{Source: bundle})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if len(report.Installed) != 1 || report.Installed[0] != "commands/demo.hello.md" {
		t.Errorf("Installed = %v", report.Installed)
	}

	installed := filepath.Join(root, "commands", "demo.hello.md")
	data, err := os.ReadFile(installed)
	if err != nil {
		t.Fatalf("installed file: %v", err)
	}
	if string(data) != "# Hello\n" {
		t.Errorf("installed content = %q", data)
	}

	store, err := manifest.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := store.FindFile("demo", "commands", "demo.hello.md")
	if !ok {
		t.Fatal("manifest record missing")
	}
	if rec.Version != "1.2.0" {
		t.Errorf("record version = %q, want 1.2.0 (package fallback)", rec.Version)
	}
	if rec.Checksum != manifest.ChecksumBytes(data) {
		t.Errorf("record checksum = %q does not match file", rec.Checksum)
	}
	if !strings.HasPrefix(rec.Checksum, manifest.ChecksumPrefix) {
		t.Errorf("checksum %q missing sha256: prefix", rec.Checksum)
	}
}

func TestStage_ValidationErrorsAbort(t *testing.T) {
	inst, _ := newTestInstaller(t, nil)
	bundle := writeBundle(t, map[string]string{
		"package.yaml": "name: Bad Name\nversion: 1.2\n",
	})

	_, err := inst.Stage(context.Background(), InstallOptions{Source: bundle})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if issue.KindOf(err) != issue.KindValidation {
		t.Errorf("kind = %v, want validation", issue.KindOf(err))
	}
}

func TestStage_NoInstallableContent(t *testing.T) {
	inst, _ := newTestInstaller(t, nil)
	// Everything is experimental and there is no opt-in, so nothing remains.
	bundle := writeBundle(t, map[string]string{
		"package.yaml": `name: demo
version: 1.0.0
contents:
  commands:
    - name: edge.md
      experimental: true
`,
		"agent/commands/edge.md": "edge\n",
	})

	_, err := inst.Stage(context.Background(), InstallOptions{Source: bundle})
	if err == nil {
		t.Fatal("expected error when nothing is installable")
	}
	if issue.KindOf(err) != issue.KindValidation {
		t.Errorf("kind = %v, want validation", issue.KindOf(err))
	}
}

func TestStage_ExperimentalGate(t *testing.T) {
	files := map[string]string{
		"package.yaml": `name: demo
version: 1.0.0
contents:
  commands:
    - name: stable.md
    - name: edge.md
      experimental: true
`,
		"agent/commands/stable.md": "stable\n",
		"agent/commands/edge.md":   "edge\n",
	}

	t.Run("excluded by default", func(t *testing.T) {
		inst, _ := newTestInstaller(t, nil)
		bundle := writeBundle(t, files)
		plan, err := inst.Stage(context.Background(), InstallOptions{Source: bundle})
		if err != nil {
			t.Fatalf("Stage error: %v", err)
		}
		defer plan.Close()
		if len(plan.Items) != 1 || plan.Items[0].Entry.Name != "stable.md" {
			t.Errorf("Items = %+v", plan.Items)
		}
		if len(plan.ExperimentalSkipped) != 1 || plan.ExperimentalSkipped[0] != "commands/edge.md" {
			t.Errorf("ExperimentalSkipped = %v", plan.ExperimentalSkipped)
		}
	})

	t.Run("included with opt-in", func(t *testing.T) {
		inst, _ := newTestInstaller(t, nil)
		bundle := writeBundle(t, files)
		plan, err := inst.Stage(context.Background(), InstallOptions{Source: bundle, Experimental: true})
		if err != nil {
			t.Fatalf("Stage error: %v", err)
		}
		defer plan.Close()
		if len(plan.Items) != 2 {
			t.Errorf("len(Items) = %d, want 2", len(plan.Items))
		}
	})
}

func TestStage_ScriptClosure(t *testing.T) {
	inst, _ := newTestInstaller(t, nil)
	bundle := writeBundle(t, map[string]string{
		"package.yaml": `name: demo
version: 1.0.0
contents:
  commands:
    - name: build.md
      scripts:
        - helper.sh
  scripts:
    - name: helper.sh
    - name: orphan.sh
`,
		"agent/commands/build.md": "build\n",
		"agent/scripts/helper.sh": "#!/bin/sh\n",
		"agent/scripts/orphan.sh": "#!/bin/sh\n",
	})

	plan, err := inst.Stage(context.Background(), InstallOptions{Source: bundle})
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	defer plan.Close()

	var scripts []string
	for _, item := range plan.Items {
		if item.Category == "scripts" {
			scripts = append(scripts, item.Entry.Name)
		}
	}
	if len(scripts) != 1 || scripts[0] != "helper.sh" {
		t.Errorf("planned scripts = %v, want [helper.sh]", scripts)
	}
}

func TestStage_RejectsUnsafeTarget(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"dotdot", "../outside"},
		{"absolute", "/etc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, _ := newTestInstaller(t, nil)
			bundle := writeBundle(t, map[string]string{
				"package.yaml": `name: demo
version: 1.0.0
contents:
  files:
    - name: a.txt
      target: ` + tt.target + "\n",
				"agent/files/a.txt": "x\n",
			})

			_, err := inst.Stage(context.Background(), InstallOptions{Source: bundle})
			if err == nil {
				t.Fatal("expected error for unsafe target")
			}
			if issue.KindOf(err) != issue.KindConflict {
				t.Errorf("kind = %v, want conflict", issue.KindOf(err))
			}
		})
	}
}

func TestInstall_TemplateSubstitution(t *testing.T) {
	prompter := &scriptPrompter{answers: []string{"acme"}}
	inst, root := newTestInstaller(t, prompter)
	bundle := writeBundle(t, map[string]string{
		"package.yaml": `name: demo
version: 1.0.0
contents:
  files:
    - name: env.sh.template
      target: config
      variables:
        - PROJECT
`,
		"agent/files/env.sh.template": "export PROJECT={{PROJECT}}\n",
	})

	plan, err := inst.Stage(context.Background(), InstallOptions{Source: bundle})
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	defer plan.Close()

	if len(plan.Variables) != 1 || plan.Variables[0] != "PROJECT" {
		t.Fatalf("Variables = %v", plan.Variables)
	}

	if _, err := inst.Apply(plan, InstallOptions{Source: bundle}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	// Destination drops the .template suffix and lives under the project
	// directory, not the install root.
	dest := filepath.Join(filepath.Dir(root), "config", "env.sh")
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("installed template: %v", err)
	}
	if string(data) != "export PROJECT=acme\n" {
		t.Errorf("substituted content = %q", data)
	}

	store, err := manifest.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := store.FindFile("demo", "files", "env.sh.template")
	if !ok {
		t.Fatal("files record missing")
	}
	if rec.Target != "config" {
		t.Errorf("record target = %q", rec.Target)
	}
	if len(rec.Variables) != 1 || rec.Variables[0].Value != "acme" {
		t.Errorf("record variables = %+v", rec.Variables)
	}
}

func TestInstall_SeededVariablesSkipPrompt(t *testing.T) {
	inst, root := newTestInstaller(t, &scriptPrompter{})
	bundle := writeBundle(t, map[string]string{
		"package.yaml": `name: demo
version: 1.0.0
contents:
  files:
    - name: a.txt.template
      target: out
      variables:
        - NAME
`,
		"agent/files/a.txt.template": "hi {{NAME}}\n",
	})

	opts := InstallOptions{Source: bundle, Variables: map[string]string{"NAME": "bob"}}
	plan, err := inst.Stage(context.Background(), opts)
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	defer plan.Close()
	if _, err := inst.Apply(plan, opts); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(root), "out", "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hi bob\n" {
		t.Errorf("content = %q", data)
	}
}

func TestStage_OnlyFilter(t *testing.T) {
	inst, _ := newTestInstaller(t, nil)
	bundle := writeBundle(t, map[string]string{
		"package.yaml": `name: demo
version: 1.0.0
contents:
  commands:
    - name: keep.md
    - name: drop.md
`,
		"agent/commands/keep.md": "keep\n",
		"agent/commands/drop.md": "drop\n",
	})

	plan, err := inst.Stage(context.Background(), InstallOptions{
		Source: bundle,
		Only:   map[string][]string{"commands": {"keep.md"}},
	})
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	defer plan.Close()

	if len(plan.Items) != 1 || plan.Items[0].Entry.Name != "keep.md" {
		t.Errorf("Items = %+v", plan.Items)
	}
}
