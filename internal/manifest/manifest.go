// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"acp-cli/internal/docmodel"
	"acp-cli/internal/issue"
)

// FileName is the manifest file name inside an install root.
const FileName = "manifest.yaml"

// TemplateSuffix is stripped from files-category names on installation.
const TemplateSuffix = ".template"

// PackageInfo is the top-level record of one installed package.
type PackageInfo struct {
	Source         string
	PackageVersion string
	Commit         string
	InstalledAt    string
	UpdatedAt      string
}

// Variable is one resolved template variable of a files-category record.
// Kept as an ordered pair list so serialization is deterministic.
type Variable struct {
	Name  string
	Value string
}

// FileRecord is the per-file installed state within one category.
type FileRecord struct {
	Name         string
	Version      string
	InstalledAt  string
	Checksum     string
	Experimental bool

	// Target is the destination directory (files category only).
	Target string

	// Variables holds the resolved substitution values (files category only).
	Variables []Variable
}

// Store is a loaded manifest bound to its install root. All mutations happen
// in memory; Save rewrites the file in one pass.
type Store struct {
	root string
	path string
	doc  *docmodel.Document
}

// Open loads the manifest of an install root, or starts an empty one when
// the file does not exist yet.
func Open(root string) (*Store, error) {
	s := &Store{
		root: root,
		path: filepath.Join(root, FileName),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = docmodel.New()
			return s, nil
		}
		return nil, issue.NewErrorContext().
			WithKind(issue.KindParse).
			WithOperation("load manifest").
			WithResource(s.path).
			Wrap(err).
			BuildError()
	}
	s.doc = docmodel.Parse(string(data))
	return s, nil
}

// Root returns the install root this manifest belongs to.
func (s *Store) Root() string {
	return s.root
}

// Path returns the manifest file path.
func (s *Store) Path() string {
	return s.path
}

// Save serializes the manifest and rewrites the file atomically
// (temp file + rename).
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(s.doc.Serialize()), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup of temp file
		return fmt.Errorf("failed to rename manifest: %w", err)
	}
	return nil
}

// Packages returns the installed package names in manifest order.
func (s *Store) Packages() []string {
	keys, err := s.doc.Keys("packages")
	if err != nil {
		return nil
	}
	return keys
}

// HasPackage reports whether a package is recorded.
func (s *Store) HasPackage(name string) bool {
	return s.doc.Has("packages." + name)
}

// PackageInfo returns the top-level record of an installed package.
func (s *Store) PackageInfo(name string) (PackageInfo, bool) {
	base := "packages." + name
	if !s.doc.Has(base) {
		return PackageInfo{}, false
	}
	var info PackageInfo
	info.Source, _ = s.doc.Value(base + ".source")
	info.PackageVersion, _ = s.doc.Value(base + ".package_version")
	info.Commit, _ = s.doc.Value(base + ".commit")
	info.InstalledAt, _ = s.doc.Value(base + ".installed_at")
	info.UpdatedAt, _ = s.doc.Value(base + ".updated_at")
	return info, true
}

// UpsertPackage records or refreshes a package's top-level fields. On first
// install both timestamps are set; afterwards installed_at is preserved and
// only updated_at moves.
func (s *Store) UpsertPackage(name string, source, version, commit string) error {
	base := "packages." + name
	now := timestamp()

	existing := s.doc.Has(base)
	if err := s.doc.Set(base+".source", source); err != nil {
		return err
	}
	if err := s.doc.Set(base+".package_version", version); err != nil {
		return err
	}
	if err := s.doc.Set(base+".commit", commit); err != nil {
		return err
	}
	if !existing {
		if err := s.doc.Set(base+".installed_at", now); err != nil {
			return err
		}
	}
	return s.doc.Set(base+".updated_at", now)
}

// RemovePackage drops a package and all its file records.
func (s *Store) RemovePackage(name string) error {
	return s.doc.Delete("packages." + name)
}

// Files returns the file records of one category, in manifest order.
func (s *Store) Files(pkg, category string) []FileRecord {
	base := fmt.Sprintf("packages.%s.files.%s", pkg, category)
	n, err := s.doc.Count(base)
	if err != nil {
		return nil
	}

	records := make([]FileRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, s.fileAt(fmt.Sprintf("%s[%d]", base, i)))
	}
	return records
}

// FindFile looks up one file record by name within a category.
func (s *Store) FindFile(pkg, category, name string) (FileRecord, bool) {
	idx := s.fileIndex(pkg, category, name)
	if idx < 0 {
		return FileRecord{}, false
	}
	return s.fileAt(fmt.Sprintf("packages.%s.files.%s[%d]", pkg, category, idx)), true
}

// UpsertFile inserts or updates a file record, matched by name within its
// category. Updates preserve the original installed_at.
func (s *Store) UpsertFile(pkg, category string, rec FileRecord) error {
	base := fmt.Sprintf("packages.%s.files.%s", pkg, category)
	if !s.doc.Has(base) {
		if err := s.doc.Set(base, "[]"); err != nil {
			return err
		}
	}

	var id int
	if idx := s.fileIndex(pkg, category, rec.Name); idx >= 0 {
		nodeID, err := s.doc.NodeAt(fmt.Sprintf("%s[%d]", base, idx))
		if err != nil {
			return err
		}
		id = nodeID
	} else {
		nodeID, err := s.doc.AppendObject(base)
		if err != nil {
			return err
		}
		id = nodeID
		if err := s.doc.SetField(id, "name", rec.Name); err != nil {
			return err
		}
		installedAt := rec.InstalledAt
		if installedAt == "" {
			installedAt = timestamp()
		}
		if err := s.doc.SetField(id, "installed_at", installedAt); err != nil {
			return err
		}
	}

	if err := s.doc.SetField(id, "version", rec.Version); err != nil {
		return err
	}
	if err := s.doc.SetField(id, "checksum", rec.Checksum); err != nil {
		return err
	}
	if rec.Experimental {
		if err := s.doc.SetField(id, "experimental", "true"); err != nil {
			return err
		}
	} else if _, err := s.fieldNodeID(id, "experimental"); err == nil {
		// Graduated entries keep the field, flipped off, so the history
		// stays visible in the manifest.
		if err := s.doc.SetField(id, "experimental", "false"); err != nil {
			return err
		}
	}
	if rec.Target != "" {
		if err := s.doc.SetField(id, "target", rec.Target); err != nil {
			return err
		}
	}
	if len(rec.Variables) > 0 {
		if err := s.doc.SetField(id, "variables", "{}"); err != nil {
			return err
		}
		varsID, err := s.fieldNodeID(id, "variables")
		if err != nil {
			return err
		}
		for _, v := range rec.Variables {
			if err := s.doc.SetField(varsID, v.Name, v.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveFile drops one file record.
func (s *Store) RemoveFile(pkg, category, name string) error {
	idx := s.fileIndex(pkg, category, name)
	if idx < 0 {
		return fmt.Errorf("%w: %s/%s/%s", docmodel.ErrNotFound, pkg, category, name)
	}
	return s.doc.Delete(fmt.Sprintf("packages.%s.files.%s[%d]", pkg, category, idx))
}

// InstalledPath resolves where a recorded file lives on disk. Regular
// categories install under <root>/<category>/<name>; files-category entries
// install under their target directory with the .template suffix stripped,
// resolved against the install root's parent (the project directory).
func (s *Store) InstalledPath(category string, rec FileRecord) string {
	if category == "files" {
		name := strings.TrimSuffix(rec.Name, TemplateSuffix)
		return filepath.Join(filepath.Dir(s.root), rec.Target, name)
	}
	return filepath.Join(s.root, category, rec.Name)
}

// IsModified recomputes the installed file's checksum and compares it to the
// recorded one. Checksums are the sole drift signal; mtimes are not trusted.
// A missing installed file counts as modified.
func (s *Store) IsModified(pkg, category, name string) (bool, error) {
	rec, ok := s.FindFile(pkg, category, name)
	if !ok {
		return false, issue.NewErrorContext().
			WithKind(issue.KindNotFound).
			WithOperation("look up manifest record").
			WithResource(fmt.Sprintf("%s/%s/%s", pkg, category, name)).
			BuildError()
	}

	path := s.InstalledPath(category, rec)
	current, err := ChecksumFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return current != rec.Checksum, nil
}

// fileIndex finds a record's position by name, or -1.
func (s *Store) fileIndex(pkg, category, name string) int {
	base := fmt.Sprintf("packages.%s.files.%s", pkg, category)
	n, err := s.doc.Count(base)
	if err != nil {
		return -1
	}
	for i := 0; i < n; i++ {
		if got, err := s.doc.Value(fmt.Sprintf("%s[%d].name", base, i)); err == nil && got == name {
			return i
		}
	}
	return -1
}

// fileAt reads the record at a resolved sequence path.
func (s *Store) fileAt(prefix string) FileRecord {
	rec := FileRecord{}
	rec.Name, _ = s.doc.Value(prefix + ".name")
	rec.Version, _ = s.doc.Value(prefix + ".version")
	rec.InstalledAt, _ = s.doc.Value(prefix + ".installed_at")
	rec.Checksum, _ = s.doc.Value(prefix + ".checksum")
	if v, err := s.doc.Value(prefix + ".experimental"); err == nil {
		rec.Experimental = v == "true"
	}
	rec.Target, _ = s.doc.Value(prefix + ".target")
	if names, err := s.doc.Keys(prefix + ".variables"); err == nil {
		for _, n := range names {
			if v, err := s.doc.Value(prefix + ".variables." + n); err == nil {
				rec.Variables = append(rec.Variables, Variable{Name: n, Value: v})
			}
		}
	}
	return rec
}

// fieldNodeID returns the node id of a keyed child under the map with id.
func (s *Store) fieldNodeID(id int, key string) (int, error) {
	n := s.doc.Node(id)
	if n == nil {
		return 0, fmt.Errorf("%w: node %d", docmodel.ErrNotFound, id)
	}
	for _, childID := range n.Children {
		if c := s.doc.Node(childID); c != nil && c.Key == key {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: field %q", docmodel.ErrNotFound, key)
}

// timestamp returns the current UTC time in RFC 3339.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
