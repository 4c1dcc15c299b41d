// SPDX-License-Identifier: MPL-2.0

// Package namespace resolves {namespace}.{item} content references against
// the local and global install roots, enforces the reserved-name rules, and
// infers a package's namespace when a descriptor does not state one.
package namespace

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"acp-cli/internal/descriptor"
	"acp-cli/internal/issue"
	"acp-cli/internal/manifest"
)

// Scope identifies which install root satisfied a resolution.
type Scope int

const (
	// ScopeLocal is the project-local install root.
	ScopeLocal Scope = iota
	// ScopeGlobal is the user-global install root.
	ScopeGlobal
)

// String returns a human-readable scope name.
func (s Scope) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "local"
}

// Resolution describes where a reference was found.
type Resolution struct {
	// Namespace is the owning package name.
	Namespace string
	// Item is the content item name within the namespace.
	Item string
	// Category is the manifest category the item was found under.
	Category string
	// Scope is the install root that won: local shadows global.
	Scope Scope
	// Path is the installed file path.
	Path string
}

// Resolver looks up references against the two install roots in precedence
// order: local first, then global; the first match wins.
type Resolver struct {
	localRoot  string
	globalRoot string
}

// NewResolver creates a resolver over the given install roots. Either root
// may be empty to skip that scope.
func NewResolver(localRoot, globalRoot string) *Resolver {
	return &Resolver{localRoot: localRoot, globalRoot: globalRoot}
}

// Resolve locates a {namespace}.{item} reference. A local definition
// silently shadows an identically named global one.
func (r *Resolver) Resolve(ref string) (Resolution, error) {
	ns, item, ok := splitRef(ref)
	if !ok {
		return Resolution{}, issue.NewErrorContext().
			WithKind(issue.KindValidation).
			WithOperation("parse content reference").
			WithResource(ref).
			WithSuggestion("References have the form <namespace>.<item>, e.g. demo.hello.md").
			BuildError()
	}

	for _, probe := range []struct {
		root  string
		scope Scope
	}{
		{r.localRoot, ScopeLocal},
		{r.globalRoot, ScopeGlobal},
	} {
		if probe.root == "" {
			continue
		}
		res, found := lookupInRoot(probe.root, ns, item)
		if found {
			res.Scope = probe.scope
			return res, nil
		}
	}

	return Resolution{}, issue.NewErrorContext().
		WithKind(issue.KindNotFound).
		WithOperation("resolve content reference").
		WithResource(ref).
		WithSuggestion(fmt.Sprintf("Install the %q package locally or globally", ns)).
		BuildError()
}

// lookupInRoot scans one install root's manifest for the item.
func lookupInRoot(root, ns, item string) (Resolution, bool) {
	store, err := manifest.Open(root)
	if err != nil || !store.HasPackage(ns) {
		return Resolution{}, false
	}
	for _, cat := range descriptor.Categories {
		if rec, ok := store.FindFile(ns, cat, item); ok {
			return Resolution{
				Namespace: ns,
				Item:      item,
				Category:  cat,
				Path:      store.InstalledPath(cat, rec),
			}, true
		}
	}
	return Resolution{}, false
}

// splitRef splits "namespace.item" at the first dot. Item names routinely
// contain further dots (demo.hello.md), so only the first dot separates.
func splitRef(ref string) (ns, item string, ok bool) {
	i := strings.IndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}

// remoteNamePattern extracts a namespace from the final path segment of a
// remote URL like https://example.com/user/acp-demo.git.
var remoteNamePattern = regexp.MustCompile(`acp-([a-z0-9-]+?)(?:\.git)?$`)

// Infer determines the namespace for new content: an explicit descriptor
// name wins, then the enclosing directory name stripped of an "acp-" prefix,
// then the trailing acp-<name> segment of the remote URL.
func Infer(descriptorName, dir, remoteURL string) (string, error) {
	if descriptorName != "" {
		return checkName(descriptorName)
	}

	if dir != "" {
		base := filepath.Base(dir)
		base = strings.TrimPrefix(base, "acp-")
		if base != "" && base != "." && base != string(filepath.Separator) {
			return checkName(base)
		}
	}

	if remoteURL != "" {
		segment := remoteURL[strings.LastIndexByte(remoteURL, '/')+1:]
		if m := remoteNamePattern.FindStringSubmatch(segment); m != nil {
			return checkName(m[1])
		}
	}

	return "", issue.NewErrorContext().
		WithKind(issue.KindValidation).
		WithOperation("infer namespace").
		WithSuggestion("Set the 'name' field in package.yaml").
		BuildError()
}

// checkName rejects reserved namespaces. The token "acp" belongs to the base
// distribution and is never a valid third-party namespace.
func checkName(name string) (string, error) {
	if descriptor.IsReservedName(name) {
		return "", issue.NewErrorContext().
			WithKind(issue.KindConflict).
			WithOperation("use namespace").
			WithResource(name).
			WithSuggestion("Pick a name outside the reserved set: " + strings.Join(descriptor.ReservedNames, ", ")).
			BuildError()
	}
	return name, nil
}
