// SPDX-License-Identifier: MPL-2.0

package docmodel

import (
	"strings"
)

// parseFrame tracks an open interior node and the indentation of the line
// that introduced it.
type parseFrame struct {
	id     int
	indent int
}

// Parse builds a Document from YAML-like text.
//
// Lines are scanned top to bottom. Blank lines and full-line comments are
// skipped; a " #" sequence starts an inline comment. Indentation drives a
// stack of open nodes: a line indented at or below the top frame closes it.
//
// Recognized line forms:
//
//	key:          opens a map (promoted to a sequence on its first "- " child)
//	key: value    adds a scalar ("[]" and "{}" create empty collections)
//	- value       appends a scalar to the enclosing sequence
//	- key: value  appends a map to the sequence with an inline first field
//
// Parsing is lenient: lines that do not fit the structure (bare tokens,
// stray dashes under populated maps) are dropped rather than rejected.
func Parse(text string) *Document {
	d := New()
	stack := []parseFrame{{id: RootID, indent: -1}}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if i := strings.Index(trimmed, " #"); i >= 0 {
			trimmed = strings.TrimRight(trimmed[:i], " ")
			if trimmed == "" {
				continue
			}
		}
		indent := len(line) - len(trimmed)

		for len(stack) > 1 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}
		parent := d.nodes[stack[len(stack)-1].id]

		if trimmed == "-" || strings.HasPrefix(trimmed, "- ") {
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))

			// A pending "key:" map becomes a sequence on its first dash child.
			if parent.Kind == KindMap && len(parent.Children) == 0 {
				parent.Kind = KindSequence
			}
			if parent.Kind != KindSequence {
				continue
			}

			if key, value, ok := splitKeyValue(rest); ok {
				item := d.addChild(parent, KindMap, "", "")
				stack = append(stack, parseFrame{id: item.ID, indent: indent})
				// The inline field sits two columns past the dash, where the
				// item's remaining fields will be.
				d.parseField(&stack, item, key, value, indent+2)
			} else if rest != "" {
				d.addChild(parent, KindScalar, "", rest)
			}
			continue
		}

		key, value, ok := splitKeyValue(trimmed)
		if !ok || parent.Kind == KindScalar {
			continue
		}
		d.parseField(&stack, parent, key, value, indent)
	}

	return d
}

// parseField adds one "key[: value]" field under parent, pushing a frame for
// fields that open a nested scope.
func (d *Document) parseField(stack *[]parseFrame, parent *Node, key, value string, indent int) {
	switch value {
	case "":
		child := d.addChild(parent, KindMap, key, "")
		*stack = append(*stack, parseFrame{id: child.ID, indent: indent})
	case "[]":
		d.addChild(parent, KindSequence, key, "")
	case "{}":
		d.addChild(parent, KindMap, key, "")
	default:
		d.addChild(parent, KindScalar, key, value)
	}
}

// splitKeyValue splits "key: value" or "key:" lines. The separator is the
// first colon-space pair, so scalar values like "sha256:<hex>" survive.
func splitKeyValue(s string) (key, value string, ok bool) {
	if i := strings.Index(s, ": "); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+2:]), true
	}
	if strings.HasSuffix(s, ":") {
		return strings.TrimSuffix(s, ":"), "", true
	}
	return "", "", false
}
