// SPDX-License-Identifier: MPL-2.0

// Package manifest persists the installed-package state of one install root.
//
// The manifest (manifest.yaml) records, per installed package, its origin,
// version, commit, timestamps, and per-file records with SHA-256 checksums.
// It is the only entity with cross-invocation persistence: a command loads
// it once, mutates the in-memory document, and rewrites it wholesale. There
// is no file locking; concurrent invocations race and the last writer wins.
//
// Drift detection trusts checksums exclusively: a file is modified exactly
// when its current digest differs from the recorded one. Timestamps and
// mtimes are never consulted.
package manifest
