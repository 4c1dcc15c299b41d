// SPDX-License-Identifier: MPL-2.0

// Package config resolves acp configuration: the project-local and
// user-global install roots, search settings, and UI defaults. Values come
// from built-in defaults layered under an optional config.yaml in the
// platform config directory.
package config
