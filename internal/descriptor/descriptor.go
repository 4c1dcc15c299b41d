// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"fmt"
	"os"
	"path/filepath"

	"acp-cli/internal/docmodel"
	"acp-cli/internal/issue"
)

// FileName is the descriptor file name at the root of a content bundle.
const FileName = "package.yaml"

// Categories lists the content categories in their canonical order.
var Categories = []string{"patterns", "commands", "designs", "scripts", "files"}

// ContentEntry is one named, versioned item declared under a contents
// category.
type ContentEntry struct {
	Name         string
	Version      string
	Experimental bool

	// Scripts lists script names this entry depends on (commands only).
	Scripts []string

	// Target is the destination directory (files category only).
	Target string

	// Variables lists placeholder names to substitute (files category only).
	Variables []string
}

// Descriptor is a parsed package descriptor: identity fields plus the
// declared contents, backed by the document it was read from.
type Descriptor struct {
	Name        string
	Version     string
	Description string
	Author      string
	License     string
	Repository  string
	Homepage    string

	// Requires maps host package-manager names to version constraints,
	// e.g. {"npm": ">=8.0.0"}.
	Requires map[string]string

	// Contents maps category name to its declared entries.
	Contents map[string][]ContentEntry

	doc *docmodel.Document
}

// Load reads and parses the descriptor file inside bundleDir.
func Load(bundleDir string) (*Descriptor, error) {
	path := filepath.Join(bundleDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindNotFound).
			WithOperation("read package descriptor").
			WithResource(path).
			WithSuggestion("Every bundle needs a package.yaml at its root").
			Wrap(err).
			BuildError()
	}
	return Parse(string(data)), nil
}

// Parse builds a Descriptor from descriptor text. Extraction is best-effort:
// missing or malformed fields surface later through Validate, not here.
func Parse(text string) *Descriptor {
	doc := docmodel.Parse(text)

	d := &Descriptor{
		Requires: map[string]string{},
		Contents: map[string][]ContentEntry{},
		doc:      doc,
	}
	d.Name, _ = doc.Value("name")
	d.Version, _ = doc.Value("version")
	d.Description, _ = doc.Value("description")
	d.Author, _ = doc.Value("author")
	d.License, _ = doc.Value("license")
	d.Repository, _ = doc.Value("repository")
	d.Homepage, _ = doc.Value("homepage")

	if keys, err := doc.Keys("requires"); err == nil {
		for _, pm := range keys {
			if v, err := doc.Value("requires." + pm); err == nil {
				d.Requires[pm] = v
			}
		}
	}

	for _, cat := range Categories {
		d.Contents[cat] = parseEntries(doc, cat)
	}
	return d
}

// parseEntries reads one contents category from the document tree.
func parseEntries(doc *docmodel.Document, category string) []ContentEntry {
	base := "contents." + category
	n, err := doc.Count(base)
	if err != nil {
		return nil
	}

	entries := make([]ContentEntry, 0, n)
	for i := 0; i < n; i++ {
		prefix := fmt.Sprintf("%s[%d]", base, i)
		e := ContentEntry{}
		e.Name, _ = doc.Value(prefix + ".name")
		e.Version, _ = doc.Value(prefix + ".version")
		if v, err := doc.Value(prefix + ".experimental"); err == nil {
			e.Experimental = v == "true"
		}
		e.Target, _ = doc.Value(prefix + ".target")
		e.Scripts = scalarList(doc, prefix+".scripts")
		e.Variables = scalarList(doc, prefix+".variables")
		entries = append(entries, e)
	}
	return entries
}

// scalarList reads a sequence of scalars at path.
func scalarList(doc *docmodel.Document, path string) []string {
	n, err := doc.Count(path)
	if err != nil || n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if v, err := doc.Value(fmt.Sprintf("%s[%d]", path, i)); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// Entry looks up a content entry by category and name.
func (d *Descriptor) Entry(category, name string) (ContentEntry, bool) {
	for _, e := range d.Contents[category] {
		if e.Name == name {
			return e, true
		}
	}
	return ContentEntry{}, false
}

// EntryVersion returns the entry's own version, falling back to the package
// version when the entry does not declare one.
func (d *Descriptor) EntryVersion(e ContentEntry) string {
	if e.Version != "" {
		return e.Version
	}
	return d.Version
}

// HasContents reports whether any category declares at least one entry.
func (d *Descriptor) HasContents() bool {
	for _, cat := range Categories {
		if len(d.Contents[cat]) > 0 {
			return true
		}
	}
	return false
}

// Document exposes the backing document, e.g. for callers that need raw
// field access beyond the typed view.
func (d *Descriptor) Document() *docmodel.Document {
	return d.doc
}
