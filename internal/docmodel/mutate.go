// SPDX-License-Identifier: MPL-2.0

package docmodel

import (
	"fmt"
)

// Set writes a scalar value at path, auto-creating missing intermediate map
// nodes. The literals "[]" and "{}" create (or convert to) empty collections;
// converting discards any existing children. Overwriting an existing node
// preserves its id. Index segments are never auto-created.
func (d *Document) Set(path, value string) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}

	cur := d.Root()
	for _, seg := range segs[:len(segs)-1] {
		cur, err = d.descend(cur, seg, true)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	last := segs[len(segs)-1]
	if last.hasIndex {
		target, err := d.descend(cur, last, false)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		d.overwrite(target, value)
		return nil
	}

	if cur.Kind == KindScalar {
		return fmt.Errorf("%s: %w: parent is a scalar", path, ErrInvalidPath)
	}
	if target := d.childByKey(cur, last.key); target != nil {
		d.overwrite(target, value)
		return nil
	}

	switch value {
	case "[]":
		d.addChild(cur, KindSequence, last.key, "")
	case "{}":
		d.addChild(cur, KindMap, last.key, "")
	default:
		d.addChild(cur, KindScalar, last.key, value)
	}
	return nil
}

// overwrite replaces a node's content in place, keeping its id. Assigning
// "[]" or "{}" converts the node to an empty collection and discards its
// children; assigning any other value makes it a scalar (the child id list
// is left untouched).
func (d *Document) overwrite(n *Node, value string) {
	switch value {
	case "[]", "{}":
		for _, id := range n.Children {
			if c := d.nodes[id]; c != nil {
				d.removeSubtree(c)
			}
		}
		n.Children = nil
		n.Value = ""
		if value == "[]" {
			n.Kind = KindSequence
		} else {
			n.Kind = KindMap
		}
	default:
		n.Kind = KindScalar
		n.Value = value
	}
}

// Delete removes the node at path (and its subtree) from its parent. The
// freed ids are never reused: the arena keeps its holes.
func (d *Document) Delete(path string) error {
	target, err := d.resolve(path)
	if err != nil {
		return err
	}
	if target.ID == RootID {
		return fmt.Errorf("%s: %w: cannot delete root", path, ErrInvalidPath)
	}

	parent := d.nodes[target.Parent]
	for i, id := range parent.Children {
		if id == target.ID {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	d.removeSubtree(target)
	return nil
}

// AppendScalar appends an unkeyed scalar element to the sequence at path.
// An empty map at path is promoted to a sequence first.
func (d *Document) AppendScalar(path, value string) error {
	seq, err := d.resolveSequence(path)
	if err != nil {
		return err
	}
	d.addChild(seq, KindScalar, "", value)
	return nil
}

// AppendObject appends an empty map element to the sequence at path and
// returns its node id, so the caller can populate fields via SetField.
func (d *Document) AppendObject(path string) (int, error) {
	seq, err := d.resolveSequence(path)
	if err != nil {
		return 0, err
	}
	return d.addChild(seq, KindMap, "", "").ID, nil
}

// resolveSequence resolves path to a sequence node, promoting an empty map.
func (d *Document) resolveSequence(path string) (*Node, error) {
	n, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	if n.Kind == KindMap && len(n.Children) == 0 {
		n.Kind = KindSequence
	}
	if n.Kind != KindSequence {
		return nil, fmt.Errorf("%s: %w: append target is %s", path, ErrInvalidPath, n.Kind)
	}
	return n, nil
}

// SetField creates or overwrites a scalar field under the map with the given
// node id. Used with AppendObject to build sequence entries.
func (d *Document) SetField(id int, key, value string) error {
	n := d.nodes[id]
	if n == nil {
		return fmt.Errorf("%w: node %d", ErrNotFound, id)
	}
	if n.Kind != KindMap {
		return fmt.Errorf("%w: node %d is %s, not a map", ErrInvalidPath, id, n.Kind)
	}
	if existing := d.childByKey(n, key); existing != nil {
		d.overwrite(existing, value)
		return nil
	}
	switch value {
	case "[]":
		d.addChild(n, KindSequence, key, "")
	case "{}":
		d.addChild(n, KindMap, key, "")
	default:
		d.addChild(n, KindScalar, key, value)
	}
	return nil
}
