// SPDX-License-Identifier: MPL-2.0

// Package fetch retrieves content bundles into a scratch workspace.
//
// Remote bundles are cloned with go-git into a temporary directory that the
// caller removes when done. Local directory sources (plain paths or file://
// URLs) are used in place without copying.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"acp-cli/internal/issue"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// LocalCommit is the commit marker recorded for bundles installed from a
// local directory instead of a git remote.
const LocalCommit = "local"

// Bundle is a fetched content bundle in a readable directory.
type Bundle struct {
	// Dir is the directory holding the bundle contents.
	Dir string
	// Commit is the resolved HEAD commit hash, or LocalCommit.
	Commit string
	// cleanup removes the scratch directory; nil for local sources.
	cleanup func()
}

// Close removes the scratch workspace, if any.
func (b *Bundle) Close() {
	if b.cleanup != nil {
		b.cleanup()
	}
}

// Fetcher fetches bundles from git remotes or local directories.
type Fetcher struct {
	// auth is the authentication method to use for git operations.
	auth transport.AuthMethod
}

// NewFetcher creates a fetcher with authentication probed from the
// environment: SSH keys first, then token-based HTTP auth.
func NewFetcher() *Fetcher {
	f := &Fetcher{}
	f.setupAuth()
	return f
}

// setupAuth configures authentication based on available credentials.
func (f *Fetcher) setupAuth() {
	if sshAuth := f.trySSHAuth(); sshAuth != nil {
		f.auth = sshAuth
		return
	}
	if httpAuth := f.tryHTTPAuth(); httpAuth != nil {
		f.auth = httpAuth
		return
	}
	// No authentication configured - public repos still work
}

// trySSHAuth attempts to configure SSH authentication from common key paths.
func (f *Fetcher) trySSHAuth() transport.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	keyPaths := []string{
		filepath.Join(homeDir, ".ssh", "id_ed25519"),
		filepath.Join(homeDir, ".ssh", "id_rsa"),
		filepath.Join(homeDir, ".ssh", "id_ecdsa"),
	}

	for _, keyPath := range keyPaths {
		if _, err := os.Stat(keyPath); err == nil {
			auth, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
			if err == nil {
				return auth
			}
		}
	}
	return nil
}

// tryHTTPAuth attempts to configure token-based HTTP authentication.
func (f *Fetcher) tryHTTPAuth() transport.AuthMethod {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return &http.BasicAuth{
			Username: "x-access-token",
			Password: token,
		}
	}
	if token := os.Getenv("GIT_TOKEN"); token != "" {
		return &http.BasicAuth{
			Username: "git",
			Password: token,
		}
	}
	return nil
}

// Fetch retrieves the bundle at source. Local directories are returned in
// place; remotes are cloned depth-1 into a scratch directory. The fetch
// blocks until the transport finishes; ctx is honored for cancellation.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Bundle, error) {
	if dir, ok := localDir(source); ok {
		log.Debug("using local bundle", "dir", dir)
		return &Bundle{Dir: dir, Commit: LocalCommit}, nil
	}

	scratch, err := os.MkdirTemp("", "acp-bundle-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch workspace: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(scratch) }

	log.Debug("cloning bundle", "url", source)
	repo, err := git.PlainCloneContext(ctx, scratch, false, &git.CloneOptions{
		URL:   source,
		Auth:  f.auth,
		Depth: 1,
	})
	if err != nil {
		cleanup()
		return nil, issue.NewErrorContext().
			WithKind(issue.KindNetwork).
			WithOperation("fetch bundle").
			WithResource(source).
			WithSuggestion("Check the repository URL and your network connection").
			WithSuggestion("Private repositories need an SSH key or GITHUB_TOKEN").
			Wrap(err).
			BuildError()
	}

	head, err := repo.Head()
	if err != nil {
		cleanup()
		return nil, issue.NewErrorContext().
			WithKind(issue.KindNetwork).
			WithOperation("resolve bundle commit").
			WithResource(source).
			Wrap(err).
			BuildError()
	}

	return &Bundle{
		Dir:     scratch,
		Commit:  head.Hash().String(),
		cleanup: cleanup,
	}, nil
}

// localDir reports whether source names a readable local directory, handling
// plain paths and file:// URLs.
func localDir(source string) (string, bool) {
	path := source
	if strings.HasPrefix(source, "file://") {
		path = strings.TrimPrefix(source, "file://")
	} else if strings.Contains(source, "://") || strings.HasPrefix(source, "git@") {
		return "", false
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return path, true
}
