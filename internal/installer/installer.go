// SPDX-License-Identifier: MPL-2.0

// Package installer drives the package lifecycle: staging a fetched bundle,
// installing its content, updating installed packages against their source,
// and removing them. The manifest is read once per command and rewritten
// wholesale at the end; file copies are not transactional.
package installer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"acp-cli/internal/fetch"
)

// payloadDir is the directory inside a bundle that holds the content tree,
// mirrored under the install root.
const payloadDir = "agent"

// Prompter supplies interactive answers during installation.
type Prompter interface {
	// Confirm asks a yes/no question; default is no.
	Confirm(question string) (bool, error)
	// Ask requests a free-form value, e.g. a template variable.
	Ask(question string) (string, error)
}

// IOPrompter reads answers line-by-line from In and writes questions to Out.
type IOPrompter struct {
	In  io.Reader
	Out io.Writer

	scanner *bufio.Scanner
}

// Confirm prints the question with a [y/N] suffix and reads one line.
func (p *IOPrompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/N]: ", question)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Ask prints the question and reads one line.
func (p *IOPrompter) Ask(question string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", question)
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *IOPrompter) readLine() (string, error) {
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.In)
	}
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

// Installer operates on one install root.
type Installer struct {
	root     string
	fetcher  *fetch.Fetcher
	prompter Prompter
}

// New creates an installer bound to an install root.
func New(root string, fetcher *fetch.Fetcher, prompter Prompter) *Installer {
	return &Installer{
		root:     root,
		fetcher:  fetcher,
		prompter: prompter,
	}
}

// Root returns the install root.
func (i *Installer) Root() string {
	return i.root
}
