// SPDX-License-Identifier: MPL-2.0

// Package depres resolves the dependencies of a selected content set: the
// minimal closure of scripts referenced by selected commands, and the host
// project's package-manager prerequisites declared under requires.
package depres

import (
	"acp-cli/internal/descriptor"
)

// ScriptClosure computes the deduplicated union of script names declared by
// the selected command entries, in first-reference order. Only scripts in
// the closure are installed; bundle scripts no command references are
// skipped.
func ScriptClosure(commands []descriptor.ContentEntry) []string {
	seen := make(map[string]bool)
	var closure []string
	for _, cmd := range commands {
		for _, script := range cmd.Scripts {
			if !seen[script] {
				seen[script] = true
				closure = append(closure, script)
			}
		}
	}
	return closure
}

// SelectScripts filters the bundle's script entries down to the closure.
func SelectScripts(scripts []descriptor.ContentEntry, closure []string) []descriptor.ContentEntry {
	want := make(map[string]bool, len(closure))
	for _, name := range closure {
		want[name] = true
	}
	var out []descriptor.ContentEntry
	for _, s := range scripts {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out
}
