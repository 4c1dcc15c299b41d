// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"errors"
	"os"
	"path/filepath"

	"acp-cli/internal/descriptor"
	"acp-cli/internal/issue"
	"acp-cli/internal/manifest"

	"github.com/charmbracelet/log"
)

// RemoveOptions control package removal.
type RemoveOptions struct {
	// Package is the package to remove.
	Package string
	// KeepModified leaves locally modified files on disk; they are still
	// dropped from the manifest's tracked set.
	KeepModified bool
}

// RemoveReport summarizes a removal.
type RemoveReport struct {
	Package string
	// Removed files were deleted from disk.
	Removed []string
	// Kept files were locally modified and left in place untracked.
	Kept []string
}

// Remove deletes a package's installed files and drops it from the manifest.
func (i *Installer) Remove(opts RemoveOptions) (*RemoveReport, error) {
	store, err := manifest.Open(i.root)
	if err != nil {
		return nil, err
	}
	if !store.HasPackage(opts.Package) {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindNotFound).
			WithOperation("remove package").
			WithResource(opts.Package).
			WithSuggestion("Installed packages are listed in the manifest").
			BuildError()
	}

	report := &RemoveReport{Package: opts.Package}
	for _, cat := range descriptor.Categories {
		for _, rec := range store.Files(opts.Package, cat) {
			label := cat + "/" + rec.Name
			path := store.InstalledPath(cat, rec)

			if opts.KeepModified {
				modified, err := store.IsModified(opts.Package, cat, rec.Name)
				if err != nil {
					return nil, err
				}
				if modified {
					report.Kept = append(report.Kept, label)
					continue
				}
			}

			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			report.Removed = append(report.Removed, label)
		}
	}

	if err := store.RemovePackage(opts.Package); err != nil {
		return nil, err
	}
	if err := store.Save(); err != nil {
		return nil, err
	}

	pruneCategoryDirs(i.root)
	log.Debug("removed package", "package", opts.Package, "removed", len(report.Removed), "kept", len(report.Kept))
	return report, nil
}

// pruneCategoryDirs removes now-empty category directories under the root.
// Non-empty directories are left alone.
func pruneCategoryDirs(root string) {
	for _, cat := range descriptor.Categories {
		_ = os.Remove(filepath.Join(root, cat))
	}
}
