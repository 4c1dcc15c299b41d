// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"os"
	"path/filepath"
	"testing"

	"acp-cli/internal/issue"
	"acp-cli/internal/manifest"
)

func TestRemove_DeletesFilesAndRecord(t *testing.T) {
	inst, root := newTestInstaller(t, nil)
	_, installed := installDemo(t, inst, root)

	report, err := inst.Remove(RemoveOptions{Package: "demo"})
	if err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if len(report.Removed) != 1 || report.Removed[0] != "commands/demo.hello.md" {
		t.Errorf("Removed = %v", report.Removed)
	}

	if _, err := os.Stat(installed); !os.IsNotExist(err) {
		t.Errorf("installed file still present: %v", err)
	}
	// Empty category dir is pruned.
	if _, err := os.Stat(filepath.Join(root, "commands")); !os.IsNotExist(err) {
		t.Errorf("empty category dir not pruned: %v", err)
	}

	store, err := manifest.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	if store.HasPackage("demo") {
		t.Error("package still recorded after removal")
	}
}

func TestRemove_KeepModified(t *testing.T) {
	inst, root := newTestInstaller(t, nil)
	_, installed := installDemo(t, inst, root)

	if err := os.WriteFile(installed, []byte("# local edit\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := inst.Remove(RemoveOptions{Package: "demo", KeepModified: true})
	if err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if len(report.Kept) != 1 || report.Kept[0] != "commands/demo.hello.md" {
		t.Errorf("Kept = %v", report.Kept)
	}

	data, err := os.ReadFile(installed)
	if err != nil {
		t.Fatalf("kept file missing: %v", err)
	}
	if string(data) != "# local edit\n" {
		t.Errorf("kept content = %q", data)
	}

	// Untracked regardless.
	store, err := manifest.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	if store.HasPackage("demo") {
		t.Error("package still recorded after keep-modified removal")
	}
}

func TestRemove_UnknownPackage(t *testing.T) {
	inst, _ := newTestInstaller(t, nil)
	_, err := inst.Remove(RemoveOptions{Package: "ghost"})
	if err == nil {
		t.Fatal("expected error for unknown package")
	}
	if issue.KindOf(err) != issue.KindNotFound {
		t.Errorf("kind = %v, want not found", issue.KindOf(err))
	}
}
