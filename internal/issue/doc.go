// SPDX-License-Identifier: MPL-2.0

// Package issue provides structured, user-actionable errors for the acp CLI.
//
// Errors carry a Kind (parse, validation, not found, conflict, network,
// integrity), the operation that failed, the resource involved, and optional
// fix suggestions. The CLI layer maps kinds to exit codes and renders
// suggestions beneath the message.
package issue
