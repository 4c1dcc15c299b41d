// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for acp.
//
// This package implements the Cobra command hierarchy: the root command and
// the install, update, remove, validate, and search subcommands.
package cmd
