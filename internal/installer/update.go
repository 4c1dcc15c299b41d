// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"context"
	"fmt"

	"acp-cli/internal/descriptor"
	"acp-cli/internal/issue"
	"acp-cli/internal/manifest"

	"github.com/charmbracelet/log"
)

// UpdateOptions control how installed packages are refreshed.
type UpdateOptions struct {
	// Package limits the update to one package; empty updates all.
	Package string
	// Check reports what would change without touching anything.
	Check bool
	// SkipModified leaves locally modified files untouched.
	SkipModified bool
	// Force overwrites locally modified files without prompting.
	Force bool
	// Yes answers every per-file overwrite prompt with yes.
	Yes bool
	// Experimental opts in to entries newly marked experimental upstream.
	Experimental bool
}

// UpdateReport summarizes the update of one package.
type UpdateReport struct {
	Package string
	// Updated files were overwritten with the new version (or would be,
	// in check mode).
	Updated []string
	// Added files are new upstream entries installed for the first time.
	Added []string
	// Skipped files drifted locally and were left untouched.
	Skipped []string
	// Graduated files lost their experimental flag upstream.
	Graduated []string
	// ExperimentalSkipped files are newly experimental and not opted in.
	ExperimentalSkipped []string
	// MissingUpstream files are tracked locally but gone from the source.
	MissingUpstream []string
	// Checked is true for dry runs; nothing was written.
	Checked bool
}

// Changed reports whether the update did (or would do) anything.
func (r *UpdateReport) Changed() bool {
	return len(r.Updated)+len(r.Added) > 0
}

// Update refreshes installed packages from their recorded sources. The
// manifest is saved once at the end; check mode never writes.
func (i *Installer) Update(ctx context.Context, opts UpdateOptions) ([]*UpdateReport, error) {
	store, err := manifest.Open(i.root)
	if err != nil {
		return nil, err
	}

	pkgs := store.Packages()
	if opts.Package != "" {
		if !store.HasPackage(opts.Package) {
			return nil, issue.NewErrorContext().
				WithKind(issue.KindNotFound).
				WithOperation("update package").
				WithResource(opts.Package).
				WithSuggestion("Installed packages are listed in the manifest").
				BuildError()
		}
		pkgs = []string{opts.Package}
	}

	var reports []*UpdateReport
	for _, pkg := range pkgs {
		report, err := i.updateOne(ctx, store, pkg, opts)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}

	if !opts.Check {
		if err := store.Save(); err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// updateOne re-fetches one package's source and reconciles the installed
// files against the new descriptor.
func (i *Installer) updateOne(ctx context.Context, store *manifest.Store, pkg string, opts UpdateOptions) (*UpdateReport, error) {
	info, ok := store.PackageInfo(pkg)
	if !ok {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindNotFound).
			WithOperation("update package").
			WithResource(pkg).
			BuildError()
	}

	bundle, err := i.fetcher.Fetch(ctx, info.Source)
	if err != nil {
		return nil, err
	}
	defer bundle.Close()

	desc, err := descriptor.Load(bundle.Dir)
	if err != nil {
		return nil, err
	}
	if errs := desc.Validate().Errors(); len(errs) > 0 {
		return nil, validationError(errs)
	}

	report := &UpdateReport{Package: pkg, Checked: opts.Check}
	values := storedVariables(store, pkg)

	for _, cat := range descriptor.Categories {
		tracked := map[string]bool{}
		for _, rec := range store.Files(pkg, cat) {
			tracked[rec.Name] = true
			if err := i.updateFile(bundle.Dir, store, pkg, cat, rec, desc, opts, values, report); err != nil {
				return nil, err
			}
		}
		for _, e := range desc.Contents[cat] {
			if tracked[e.Name] {
				continue
			}
			if err := i.addFile(bundle.Dir, store, pkg, cat, e, desc, opts, values, report); err != nil {
				return nil, err
			}
		}
	}

	if !opts.Check {
		if err := store.UpsertPackage(pkg, info.Source, desc.Version, bundle.Commit); err != nil {
			return nil, err
		}
	}

	log.Debug("updated package", "package", pkg, "updated", len(report.Updated), "skipped", len(report.Skipped))
	return report, nil
}

// updateFile reconciles one tracked file against the new descriptor.
func (i *Installer) updateFile(bundleDir string, store *manifest.Store, pkg, cat string, rec manifest.FileRecord, desc *descriptor.Descriptor, opts UpdateOptions, values map[string]string, report *UpdateReport) error {
	label := cat + "/" + rec.Name

	entry, ok := desc.Entry(cat, rec.Name)
	if !ok {
		report.MissingUpstream = append(report.MissingUpstream, label)
		return nil
	}

	if rec.Experimental && !entry.Experimental {
		report.Graduated = append(report.Graduated, label)
	}

	modified, err := store.IsModified(pkg, cat, rec.Name)
	if err != nil {
		return err
	}

	overwrite := true
	if modified {
		switch {
		case opts.Force:
			// Overwrite.
		case opts.SkipModified:
			overwrite = false
		case opts.Yes:
			// Non-interactive runs assume yes.
		case opts.Check:
			// Dry runs report drift without prompting.
			overwrite = false
		default:
			ok, err := i.prompter.Confirm(fmt.Sprintf("%s was modified locally, overwrite", label))
			if err != nil {
				return err
			}
			overwrite = ok
		}
	}

	if !overwrite {
		report.Skipped = append(report.Skipped, label)
		return nil
	}

	report.Updated = append(report.Updated, label)
	if opts.Check {
		return nil
	}
	return i.writeUpdated(bundleDir, store, pkg, cat, entry, desc, values)
}

// addFile installs an upstream entry not yet tracked by the manifest.
func (i *Installer) addFile(bundleDir string, store *manifest.Store, pkg, cat string, e descriptor.ContentEntry, desc *descriptor.Descriptor, opts UpdateOptions, values map[string]string, report *UpdateReport) error {
	label := cat + "/" + e.Name

	if e.Experimental && !opts.Experimental {
		report.ExperimentalSkipped = append(report.ExperimentalSkipped, label)
		return nil
	}

	report.Added = append(report.Added, label)
	if opts.Check {
		return nil
	}

	item, err := i.planItem(bundleDir, desc, cat, e)
	if err != nil {
		return err
	}
	if err := i.askMissingVariables(e.Variables, values); err != nil {
		return err
	}

	checksum, err := i.installItem(item, values)
	if err != nil {
		return err
	}
	return store.UpsertFile(pkg, cat, fileRecord(item, checksum, values))
}

// writeUpdated overwrites one installed file with the new upstream version
// and refreshes its manifest record.
func (i *Installer) writeUpdated(bundleDir string, store *manifest.Store, pkg, cat string, e descriptor.ContentEntry, desc *descriptor.Descriptor, values map[string]string) error {
	item, err := i.planItem(bundleDir, desc, cat, e)
	if err != nil {
		return err
	}
	if err := i.askMissingVariables(e.Variables, values); err != nil {
		return err
	}

	checksum, err := i.installItem(item, values)
	if err != nil {
		return err
	}
	return store.UpsertFile(pkg, cat, fileRecord(item, checksum, values))
}

// askMissingVariables prompts for variable names without a known value.
func (i *Installer) askMissingVariables(names []string, values map[string]string) error {
	for _, name := range names {
		if _, ok := values[name]; ok {
			continue
		}
		v, err := i.prompter.Ask(fmt.Sprintf("Value for {{%s}}", name))
		if err != nil {
			return fmt.Errorf("failed to read variable %s: %w", name, err)
		}
		values[name] = v
	}
	return nil
}

// storedVariables collects the variable values recorded at install time,
// across every files-category record of the package.
func storedVariables(store *manifest.Store, pkg string) map[string]string {
	values := map[string]string{}
	for _, rec := range store.Files(pkg, "files") {
		for _, v := range rec.Variables {
			values[v.Name] = v.Value
		}
	}
	return values
}

// fileRecord builds the manifest record for an installed plan item.
func fileRecord(item PlanItem, checksum string, values map[string]string) manifest.FileRecord {
	rec := manifest.FileRecord{
		Name:         item.Entry.Name,
		Version:      item.Version,
		Checksum:     checksum,
		Experimental: item.Entry.Experimental,
		Target:       item.Entry.Target,
	}
	for _, v := range item.Entry.Variables {
		rec.Variables = append(rec.Variables, manifest.Variable{Name: v, Value: values[v]})
	}
	return rec
}
