// SPDX-License-Identifier: MPL-2.0

// Package descriptor parses and validates package descriptors (package.yaml).
//
// A descriptor declares a bundle's identity (name, version, metadata), its
// host package-manager requirements, and its contents: named, versioned
// entries grouped into the patterns, commands, designs, scripts, and files
// categories. Validation is aggregate, never fail-fast: every field is
// checked and all violations are collected into one ValidationResult.
package descriptor
