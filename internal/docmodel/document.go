// SPDX-License-Identifier: MPL-2.0

package docmodel

import (
	"errors"
)

// RootID is the id of the document root node, always a map.
const RootID = 0

var (
	// ErrNotFound is returned when a path segment does not resolve to a node.
	ErrNotFound = errors.New("path not found")

	// ErrInvalidPath is returned when an operation is structurally invalid for
	// the addressed node, e.g. appending to a scalar or indexing a map.
	ErrInvalidPath = errors.New("invalid path")
)

// Document owns an arena of nodes forming one parsed tree. Each Parse call
// returns an independent Document; there is no shared state between
// documents. A Document is ephemeral: it is built from text, mutated in
// memory, and serialized back to text.
type Document struct {
	nodes  map[int]*Node
	nextID int
}

// New creates an empty Document containing only the root map node.
func New() *Document {
	d := &Document{
		nodes:  make(map[int]*Node),
		nextID: RootID,
	}
	root := d.newNode(KindMap, "", "")
	root.Parent = -1
	return d
}

// newNode allocates a node with the next free id and registers it in the
// arena. The caller is responsible for linking it to a parent.
func (d *Document) newNode(kind NodeKind, key, value string) *Node {
	n := &Node{
		ID:    d.nextID,
		Kind:  kind,
		Key:   key,
		Value: value,
	}
	d.nodes[n.ID] = n
	d.nextID++
	return n
}

// addChild allocates a node and appends it to parent's child list.
func (d *Document) addChild(parent *Node, kind NodeKind, key, value string) *Node {
	n := d.newNode(kind, key, value)
	n.Parent = parent.ID
	parent.Children = append(parent.Children, n.ID)
	return n
}

// Root returns the root node.
func (d *Document) Root() *Node {
	return d.nodes[RootID]
}

// Node returns the node with the given id, or nil if it does not exist
// (never allocated, or deleted).
func (d *Document) Node(id int) *Node {
	return d.nodes[id]
}

// Len reports the number of live nodes in the document.
func (d *Document) Len() int {
	return len(d.nodes)
}

// childByKey returns the first child of n whose key matches, honoring
// insertion order, or nil.
func (d *Document) childByKey(n *Node, key string) *Node {
	for _, id := range n.Children {
		if c := d.nodes[id]; c != nil && c.Key == key {
			return c
		}
	}
	return nil
}

// childKeys returns the keys of n's children in insertion order. Unkeyed
// sequence elements contribute empty strings.
func (d *Document) childKeys(n *Node) []string {
	keys := make([]string, 0, len(n.Children))
	for _, id := range n.Children {
		if c := d.nodes[id]; c != nil {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// removeSubtree unregisters n and all its descendants from the arena.
// Ids are never reassigned afterwards: nextID only moves forward.
func (d *Document) removeSubtree(n *Node) {
	for _, id := range n.Children {
		if c := d.nodes[id]; c != nil {
			d.removeSubtree(c)
		}
	}
	delete(d.nodes, n.ID)
}
