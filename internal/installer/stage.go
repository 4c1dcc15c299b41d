// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"acp-cli/internal/depres"
	"acp-cli/internal/descriptor"
	"acp-cli/internal/fetch"
	"acp-cli/internal/issue"
	"acp-cli/internal/manifest"
	"acp-cli/internal/namespace"

	"github.com/charmbracelet/log"
)

// InstallOptions control staging and installation of one bundle.
type InstallOptions struct {
	// Source is the bundle location: git URL or local directory.
	Source string
	// Experimental opts in to entries marked experimental.
	Experimental bool
	// Yes skips interactive confirmation.
	Yes bool
	// List stages and reports without installing anything.
	List bool
	// Only filters installation to the named entries per category. A nil
	// map installs everything; scripts are always derived from the
	// selected commands, never named directly.
	Only map[string][]string
	// Variables pre-seeds template variable values, keyed by name.
	Variables map[string]string
}

// PlanItem is one file the plan would install.
type PlanItem struct {
	Category string
	Entry    descriptor.ContentEntry
	// Version is the effective version (entry's own, or the package's).
	Version string
	// Source is the absolute path inside the fetched bundle.
	Source string
	// Dest is the absolute installation destination.
	Dest string
	// Conflict is true when Dest already exists on disk.
	Conflict bool
}

// Plan is a staged installation: everything resolved and validated, nothing
// written yet.
type Plan struct {
	Package    string
	Source     string
	Commit     string
	Descriptor *descriptor.Descriptor
	Items      []PlanItem

	// ExperimentalSkipped names entries excluded by the experimental gate.
	ExperimentalSkipped []string
	// Warnings holds non-fatal descriptor validation findings.
	Warnings []descriptor.ValidationIssue
	// Prereqs holds the host package-manager constraint checks.
	Prereqs []depres.PrereqCheck
	// Variables lists unique template variable names across all file
	// entries, in first-reference order.
	Variables []string

	bundle *fetch.Bundle
}

// Close releases the plan's scratch workspace.
func (p *Plan) Close() {
	if p.bundle != nil {
		p.bundle.Close()
	}
}

// Stage fetches and resolves a bundle into an installation plan. The caller
// owns the returned plan and must Close it.
func (i *Installer) Stage(ctx context.Context, opts InstallOptions) (*Plan, error) {
	bundle, err := i.fetcher.Fetch(ctx, opts.Source)
	if err != nil {
		return nil, err
	}

	plan, err := i.stageBundle(bundle, opts)
	if err != nil {
		bundle.Close()
		return nil, err
	}
	return plan, nil
}

// stageBundle resolves a fetched bundle against the install root.
func (i *Installer) stageBundle(bundle *fetch.Bundle, opts InstallOptions) (*Plan, error) {
	desc, err := descriptor.Load(bundle.Dir)
	if err != nil {
		return nil, err
	}

	result := desc.Validate()
	if errs := result.Errors(); len(errs) > 0 {
		return nil, validationError(errs)
	}

	pkg, err := inferPackageName(desc, bundle.Dir, opts.Source)
	if err != nil {
		return nil, err
	}

	store, err := manifest.Open(i.root)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Package:    pkg,
		Source:     opts.Source,
		Commit:     bundle.Commit,
		Descriptor: desc,
		Warnings:   result.Warnings(),
		bundle:     bundle,
	}

	selected := map[string][]descriptor.ContentEntry{}
	for _, cat := range descriptor.Categories {
		if cat == "scripts" {
			continue
		}
		selected[cat] = i.selectEntries(plan, store, desc, cat, opts)
	}

	// Scripts install only when a selected command references them.
	closure := depres.ScriptClosure(selected["commands"])
	selected["scripts"] = depres.SelectScripts(desc.Contents["scripts"], closure)

	for _, cat := range descriptor.Categories {
		for _, e := range selected[cat] {
			item, err := i.planItem(bundle.Dir, desc, cat, e)
			if err != nil {
				return nil, err
			}
			plan.Items = append(plan.Items, item)
			for _, v := range e.Variables {
				if !contains(plan.Variables, v) {
					plan.Variables = append(plan.Variables, v)
				}
			}
		}
	}

	if len(plan.Items) == 0 {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindValidation).
			WithOperation("stage bundle").
			WithResource(opts.Source).
			WithSuggestion("Check the contents section of package.yaml").
			WithSuggestion("Experimental entries need the --experimental flag").
			Wrap(fmt.Errorf("no installable content")).
			BuildError()
	}

	plan.Prereqs = depres.CheckHostPrereqs(desc.Requires, filepath.Dir(i.root))

	log.Debug("staged bundle", "package", pkg, "items", len(plan.Items))
	return plan, nil
}

// selectEntries applies the name filter and experimental gate to one category.
func (i *Installer) selectEntries(plan *Plan, store *manifest.Store, desc *descriptor.Descriptor, cat string, opts InstallOptions) []descriptor.ContentEntry {
	var out []descriptor.ContentEntry
	for _, e := range desc.Contents[cat] {
		if !nameSelected(opts.Only, cat, e.Name) {
			continue
		}
		if e.Experimental && !opts.Experimental {
			// Entries the manifest already tracks stay eligible; the
			// opt-in happened at first install.
			if _, tracked := store.FindFile(plan.Package, cat, e.Name); !tracked {
				plan.ExperimentalSkipped = append(plan.ExperimentalSkipped, cat+"/"+e.Name)
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// planItem resolves one entry's source and destination paths.
func (i *Installer) planItem(bundleDir string, desc *descriptor.Descriptor, cat string, e descriptor.ContentEntry) (PlanItem, error) {
	item := PlanItem{
		Category: cat,
		Entry:    e,
		Version:  desc.EntryVersion(e),
		Source:   filepath.Join(bundleDir, payloadDir, cat, e.Name),
	}

	if cat == "files" {
		if err := checkTarget(e.Target); err != nil {
			return PlanItem{}, err
		}
		name := strings.TrimSuffix(e.Name, manifest.TemplateSuffix)
		item.Dest = filepath.Join(filepath.Dir(i.root), e.Target, name)
	} else {
		item.Dest = filepath.Join(i.root, cat, e.Name)
	}

	if _, err := os.Stat(item.Source); err != nil {
		return PlanItem{}, issue.NewErrorContext().
			WithKind(issue.KindNotFound).
			WithOperation("stage bundle").
			WithResource(item.Source).
			WithSuggestion("The descriptor declares a file the bundle does not ship").
			Wrap(err).
			BuildError()
	}
	if _, err := os.Stat(item.Dest); err == nil {
		item.Conflict = true
	}
	return item, nil
}

// checkTarget rejects target directories that escape the project tree.
func checkTarget(target string) error {
	if target == "" {
		return nil
	}
	if filepath.IsAbs(target) || hasDotDot(target) {
		return issue.NewErrorContext().
			WithKind(issue.KindConflict).
			WithOperation("validate target path").
			WithResource(target).
			WithSuggestion("Targets must be relative paths inside the project").
			Wrap(fmt.Errorf("unsafe target path")).
			BuildError()
	}
	return nil
}

// hasDotDot reports whether any path segment is "..".
func hasDotDot(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// inferPackageName derives the package name from the descriptor, falling back
// to the bundle directory and the remote URL.
func inferPackageName(desc *descriptor.Descriptor, bundleDir, source string) (string, error) {
	return namespace.Infer(desc.Name, filepath.Base(bundleDir), source)
}

// validationError folds aggregated schema violations into one error.
func validationError(errs []descriptor.ValidationIssue) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return issue.NewErrorContext().
		WithKind(issue.KindValidation).
		WithOperation("validate package descriptor").
		WithSuggestion("Fix the reported fields in package.yaml").
		Wrap(fmt.Errorf("%d issue(s):\n  %s", len(errs), strings.Join(msgs, "\n  "))).
		BuildError()
}

// nameSelected applies the per-category name filter.
func nameSelected(only map[string][]string, cat, name string) bool {
	if len(only) == 0 {
		return true
	}
	names, ok := only[cat]
	if !ok {
		return false
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
