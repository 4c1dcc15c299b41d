// SPDX-License-Identifier: MPL-2.0

package docmodel

// NodeKind discriminates the three node shapes of a document tree.
type NodeKind int

const (
	// KindScalar is a leaf node holding a string value.
	KindScalar NodeKind = iota
	// KindMap is an interior node whose children are addressed by key.
	KindMap
	// KindSequence is an interior node whose children are addressed by index.
	KindSequence
)

// String returns a human-readable kind name.
func (k NodeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMap:
		return "map"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Node is a single element of a document tree.
//
// A node keyed under a map carries its Key; elements of a sequence have an
// empty Key. Value is only meaningful for scalars. Parent is -1 for the root.
type Node struct {
	ID       int
	Kind     NodeKind
	Key      string
	Value    string
	Parent   int
	Children []int
}
