// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	root := filepath.Join(t.TempDir(), "agent")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	return s
}

func TestOpen_MissingManifestStartsEmpty(t *testing.T) {
	s := newStore(t)
	if got := s.Packages(); len(got) != 0 {
		t.Errorf("Packages() = %v, want empty", got)
	}
}

func TestUpsertPackage_InstallThenUpdate(t *testing.T) {
	s := newStore(t)

	if err := s.UpsertPackage("demo", "https://example.com/acp-demo.git", "1.0.0", "abc123"); err != nil {
		t.Fatalf("UpsertPackage error: %v", err)
	}
	info, ok := s.PackageInfo("demo")
	if !ok {
		t.Fatal("demo not recorded")
	}
	if info.PackageVersion != "1.0.0" || info.Commit != "abc123" {
		t.Errorf("info = %+v", info)
	}
	if info.InstalledAt == "" || info.UpdatedAt == "" {
		t.Error("timestamps not set on install")
	}

	firstInstall := info.InstalledAt
	if err := s.UpsertPackage("demo", "https://example.com/acp-demo.git", "1.1.0", "def456"); err != nil {
		t.Fatalf("UpsertPackage update error: %v", err)
	}
	info, _ = s.PackageInfo("demo")
	if info.PackageVersion != "1.1.0" || info.Commit != "def456" {
		t.Errorf("update not applied: %+v", info)
	}
	if info.InstalledAt != firstInstall {
		t.Errorf("installed_at changed on update: %q -> %q", firstInstall, info.InstalledAt)
	}
}

func TestUpsertFile_MatchedByName(t *testing.T) {
	s := newStore(t)
	if err := s.UpsertPackage("demo", "src", "1.0.0", "c1"); err != nil {
		t.Fatal(err)
	}

	if err := s.UpsertFile("demo", "commands", FileRecord{
		Name: "demo.hello.md", Version: "1.0.0", Checksum: "sha256:aaa",
	}); err != nil {
		t.Fatalf("UpsertFile error: %v", err)
	}
	if err := s.UpsertFile("demo", "commands", FileRecord{
		Name: "demo.bye.md", Version: "1.0.0", Checksum: "sha256:bbb",
	}); err != nil {
		t.Fatal(err)
	}

	// Upsert of the first record must update it in place, not append.
	if err := s.UpsertFile("demo", "commands", FileRecord{
		Name: "demo.hello.md", Version: "2.0.0", Checksum: "sha256:ccc",
	}); err != nil {
		t.Fatal(err)
	}

	files := s.Files("demo", "commands")
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	if files[0].Name != "demo.hello.md" || files[0].Version != "2.0.0" || files[0].Checksum != "sha256:ccc" {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[0].InstalledAt == "" {
		t.Error("installed_at missing after upsert")
	}
}

func TestUpsertFile_TemplateRecord(t *testing.T) {
	s := newStore(t)
	if err := s.UpsertPackage("demo", "src", "1.0.0", "c1"); err != nil {
		t.Fatal(err)
	}
	rec := FileRecord{
		Name:     "config.yaml.template",
		Version:  "1.0.0",
		Checksum: "sha256:abc",
		Target:   "./config",
		Variables: []Variable{
			{Name: "PROJECT_NAME", Value: "myproj"},
			{Name: "AUTHOR", Value: "me"},
		},
	}
	if err := s.UpsertFile("demo", "files", rec); err != nil {
		t.Fatal(err)
	}

	got, ok := s.FindFile("demo", "files", "config.yaml.template")
	if !ok {
		t.Fatal("record not found")
	}
	if got.Target != "./config" {
		t.Errorf("Target = %q", got.Target)
	}
	if len(got.Variables) != 2 || got.Variables[0].Name != "PROJECT_NAME" || got.Variables[0].Value != "myproj" {
		t.Errorf("Variables = %v", got.Variables)
	}
}

func TestSaveAndReload(t *testing.T) {
	s := newStore(t)
	if err := s.UpsertPackage("demo", "https://example.com/acp-demo.git", "1.0.0", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertFile("demo", "commands", FileRecord{
		Name: "demo.hello.md", Version: "1.0.0", Checksum: "sha256:aaa",
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	reloaded, err := Open(s.Root())
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if !reloaded.HasPackage("demo") {
		t.Fatal("demo lost on reload")
	}
	rec, ok := reloaded.FindFile("demo", "commands", "demo.hello.md")
	if !ok {
		t.Fatal("file record lost on reload")
	}
	if rec.Checksum != "sha256:aaa" {
		t.Errorf("Checksum = %q", rec.Checksum)
	}
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	if err := s.UpsertPackage("demo", "src", "1.0.0", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertFile("demo", "commands", FileRecord{Name: "a.md", Version: "1.0.0", Checksum: "sha256:a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertFile("demo", "commands", FileRecord{Name: "b.md", Version: "1.0.0", Checksum: "sha256:b"}); err != nil {
		t.Fatal(err)
	}

	if err := s.RemoveFile("demo", "commands", "a.md"); err != nil {
		t.Fatalf("RemoveFile error: %v", err)
	}
	if _, ok := s.FindFile("demo", "commands", "a.md"); ok {
		t.Error("a.md still present")
	}
	if _, ok := s.FindFile("demo", "commands", "b.md"); !ok {
		t.Error("b.md lost")
	}

	if err := s.RemovePackage("demo"); err != nil {
		t.Fatalf("RemovePackage error: %v", err)
	}
	if s.HasPackage("demo") {
		t.Error("demo still present")
	}
}

func TestIsModified(t *testing.T) {
	s := newStore(t)
	dir := filepath.Join(s.Root(), "commands")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "demo.hello.md")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sum, err := ChecksumFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPackage("demo", "src", "1.0.0", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertFile("demo", "commands", FileRecord{Name: "demo.hello.md", Version: "1.0.0", Checksum: sum}); err != nil {
		t.Fatal(err)
	}

	modified, err := s.IsModified("demo", "commands", "demo.hello.md")
	if err != nil {
		t.Fatalf("IsModified error: %v", err)
	}
	if modified {
		t.Error("unmodified file reported as modified")
	}

	if err := os.WriteFile(path, []byte("edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	modified, err = s.IsModified("demo", "commands", "demo.hello.md")
	if err != nil {
		t.Fatal(err)
	}
	if !modified {
		t.Error("edited file not reported as modified")
	}

	// A deleted installed file counts as modified.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	modified, err = s.IsModified("demo", "commands", "demo.hello.md")
	if err != nil {
		t.Fatal(err)
	}
	if !modified {
		t.Error("missing file not reported as modified")
	}
}

func TestInstalledPath(t *testing.T) {
	s := newStore(t)

	got := s.InstalledPath("commands", FileRecord{Name: "demo.hello.md"})
	want := filepath.Join(s.Root(), "commands", "demo.hello.md")
	if got != want {
		t.Errorf("InstalledPath(commands) = %q, want %q", got, want)
	}

	got = s.InstalledPath("files", FileRecord{Name: "config.yaml.template", Target: "config"})
	want = filepath.Join(filepath.Dir(s.Root()), "config", "config.yaml")
	if got != want {
		t.Errorf("InstalledPath(files) = %q, want %q", got, want)
	}
}

func TestChecksum_Stability(t *testing.T) {
	a := ChecksumBytes([]byte("identical content"))
	b := ChecksumBytes([]byte("identical content"))
	if a != b {
		t.Errorf("identical content produced different digests: %s vs %s", a, b)
	}

	c := ChecksumBytes([]byte("identical content!"))
	if a == c {
		t.Error("single-byte change produced identical digest")
	}

	if len(a) != len(ChecksumPrefix)+64 {
		t.Errorf("unexpected digest shape: %s", a)
	}
}
