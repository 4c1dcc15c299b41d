// SPDX-License-Identifier: MPL-2.0

package docmodel

import (
	"fmt"
	"strconv"
	"strings"
)

// segment is one dot-separated element of a document path. A segment has a
// key, an optional "[i]" index suffix, or both ("files[2]").
type segment struct {
	key      string
	index    int
	hasIndex bool
}

// String reassembles the segment for error messages.
func (s segment) String() string {
	if s.hasIndex {
		return fmt.Sprintf("%s[%d]", s.key, s.index)
	}
	return s.key
}

// parsePath splits a dot-separated path into segments.
func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	parts := strings.Split(path, ".")
	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		seg := segment{key: part}
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("%w: malformed index in %q", ErrInvalidPath, part)
			}
			idx, err := strconv.Atoi(part[i+1 : len(part)-1])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: malformed index in %q", ErrInvalidPath, part)
			}
			seg.key = part[:i]
			seg.index = idx
			seg.hasIndex = true
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// descend walks one segment from cur. When vivify is true, missing keyed
// children are created as maps; index segments are never vivified.
func (d *Document) descend(cur *Node, seg segment, vivify bool) (*Node, error) {
	if seg.key != "" {
		if cur.Kind == KindScalar {
			return nil, fmt.Errorf("%w: %q is a scalar", ErrInvalidPath, cur.Key)
		}
		child := d.childByKey(cur, seg.key)
		if child == nil {
			if !vivify || cur.Kind == KindSequence {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, seg)
			}
			child = d.addChild(cur, KindMap, seg.key, "")
		}
		cur = child
	}

	if seg.hasIndex {
		if cur.Kind == KindScalar {
			return nil, fmt.Errorf("%w: cannot index scalar %q", ErrInvalidPath, cur.Key)
		}
		live := d.liveChildren(cur)
		if seg.index >= len(live) {
			return nil, fmt.Errorf("%w: index %d out of range (len %d)", ErrNotFound, seg.index, len(live))
		}
		cur = live[seg.index]
	}

	return cur, nil
}

// resolve walks a full path from the root without mutation.
func (d *Document) resolve(path string) (*Node, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	cur := d.Root()
	for _, seg := range segs {
		cur, err = d.descend(cur, seg, false)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return cur, nil
}

// liveChildren returns the non-deleted children of n in insertion order.
func (d *Document) liveChildren(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, id := range n.Children {
		if c := d.nodes[id]; c != nil {
			out = append(out, c)
		}
	}
	return out
}
