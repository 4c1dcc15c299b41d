// SPDX-License-Identifier: MPL-2.0

package docmodel

import (
	"strings"
)

// Serialize renders the document back to text. Child order is insertion
// order. Maps that are direct sequence elements render their first field
// inline after the dash, with remaining fields indented two extra spaces —
// the same shape Parse accepts, so serialization round-trips.
func (d *Document) Serialize() string {
	var sb strings.Builder
	for _, c := range d.liveChildren(d.Root()) {
		d.writeNode(&sb, c, 0, false)
	}
	return sb.String()
}

func (d *Document) writeNode(sb *strings.Builder, n *Node, depth int, inSeq bool) {
	indent := strings.Repeat("  ", depth)

	switch n.Kind {
	case KindScalar:
		if inSeq {
			sb.WriteString(indent + "- " + n.Value + "\n")
		} else {
			sb.WriteString(indent + n.Key + ": " + n.Value + "\n")
		}

	case KindMap:
		children := d.liveChildren(n)
		if inSeq {
			d.writeSeqMap(sb, children, indent, depth)
			return
		}
		if len(children) == 0 {
			sb.WriteString(indent + n.Key + ": {}\n")
			return
		}
		sb.WriteString(indent + n.Key + ":\n")
		for _, c := range children {
			d.writeNode(sb, c, depth+1, false)
		}

	case KindSequence:
		children := d.liveChildren(n)
		if len(children) == 0 {
			sb.WriteString(indent + n.Key + ": []\n")
			return
		}
		sb.WriteString(indent + n.Key + ":\n")
		for _, c := range children {
			d.writeNode(sb, c, depth+1, true)
		}
	}
}

// writeSeqMap renders a map that is a direct sequence element: the dash line
// carries the first field inline, the rest follow one level deeper.
func (d *Document) writeSeqMap(sb *strings.Builder, children []*Node, indent string, depth int) {
	if len(children) == 0 {
		sb.WriteString(indent + "- {}\n")
		return
	}

	first := children[0]
	switch {
	case first.Kind == KindScalar:
		sb.WriteString(indent + "- " + first.Key + ": " + first.Value + "\n")
	case len(d.liveChildren(first)) == 0:
		if first.Kind == KindSequence {
			sb.WriteString(indent + "- " + first.Key + ": []\n")
		} else {
			sb.WriteString(indent + "- " + first.Key + ": {}\n")
		}
	default:
		sb.WriteString(indent + "- " + first.Key + ":\n")
		for _, c := range d.liveChildren(first) {
			d.writeNode(sb, c, depth+2, first.Kind == KindSequence)
		}
	}

	for _, c := range children[1:] {
		d.writeNode(sb, c, depth+1, false)
	}
}
