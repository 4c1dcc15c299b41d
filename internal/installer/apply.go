// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"acp-cli/internal/manifest"

	"github.com/charmbracelet/log"
)

// Report summarizes an applied installation.
type Report struct {
	Package   string
	Installed []string // category/name, in plan order
}

// Apply executes a staged plan: copies files, substitutes templates, and
// records everything in the manifest in a single save. Files are written
// before the manifest; a crash in between leaves files untracked.
func (i *Installer) Apply(plan *Plan, opts InstallOptions) (*Report, error) {
	values, err := i.collectVariables(plan, opts.Variables)
	if err != nil {
		return nil, err
	}

	store, err := manifest.Open(i.root)
	if err != nil {
		return nil, err
	}

	report := &Report{Package: plan.Package}
	for _, item := range plan.Items {
		checksum, err := i.installItem(item, values)
		if err != nil {
			return nil, err
		}

		if err := store.UpsertFile(plan.Package, item.Category, fileRecord(item, checksum, values)); err != nil {
			return nil, err
		}
		report.Installed = append(report.Installed, item.Category+"/"+item.Entry.Name)
	}

	if err := store.UpsertPackage(plan.Package, plan.Source, plan.Descriptor.Version, plan.Commit); err != nil {
		return nil, err
	}
	if err := store.Save(); err != nil {
		return nil, err
	}

	log.Debug("installed package", "package", plan.Package, "files", len(report.Installed))
	return report, nil
}

// installItem writes one planned file to its destination and returns the
// checksum of the installed content.
func (i *Installer) installItem(item PlanItem, values map[string]string) (string, error) {
	data, err := os.ReadFile(item.Source)
	if err != nil {
		return "", fmt.Errorf("failed to read bundle file: %w", err)
	}

	if item.Category == "files" {
		data = substitute(data, item.Entry.Variables, values)
	}

	if err := os.MkdirAll(filepath.Dir(item.Dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(item.Dest, data, fileMode(item.Category)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", item.Dest, err)
	}
	return manifest.ChecksumBytes(data), nil
}

// collectVariables gathers one value per unique variable name across the
// batch, preferring pre-seeded values over prompting.
func (i *Installer) collectVariables(plan *Plan, seeded map[string]string) (map[string]string, error) {
	values := map[string]string{}
	for _, name := range plan.Variables {
		if v, ok := seeded[name]; ok {
			values[name] = v
			continue
		}
		v, err := i.prompter.Ask(fmt.Sprintf("Value for {{%s}}", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read variable %s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

// substitute replaces {{NAME}} placeholders by literal string replacement.
func substitute(data []byte, names []string, values map[string]string) []byte {
	text := string(data)
	for _, name := range names {
		text = strings.ReplaceAll(text, "{{"+name+"}}", values[name])
	}
	return []byte(text)
}

// fileMode returns the permission bits for an installed file; scripts keep
// the executable bit.
func fileMode(category string) os.FileMode {
	if category == "scripts" {
		return 0o755
	}
	return 0o644
}
