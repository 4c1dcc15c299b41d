// SPDX-License-Identifier: MPL-2.0

package docmodel

import (
	"fmt"
)

// Result is the outcome of a Query: a scalar's value, or the ordered keys of
// a collection's immediate children (empty keys included for sequence
// elements).
type Result struct {
	Kind  NodeKind
	Value string
	Keys  []string
}

// Query resolves a path and returns what it addresses. Scalars yield their
// value; maps and sequences yield their immediate child keys in insertion
// order. Missing segments fail with ErrNotFound.
func (d *Document) Query(path string) (Result, error) {
	n, err := d.resolve(path)
	if err != nil {
		return Result{}, err
	}
	if n.Kind == KindScalar {
		return Result{Kind: KindScalar, Value: n.Value}, nil
	}
	return Result{Kind: n.Kind, Keys: d.childKeys(n)}, nil
}

// Value resolves a path to a scalar and returns its value. Addressing a
// collection is an ErrInvalidPath.
func (d *Document) Value(path string) (string, error) {
	n, err := d.resolve(path)
	if err != nil {
		return "", err
	}
	if n.Kind != KindScalar {
		return "", fmt.Errorf("%s: %w: %s is not a scalar", path, ErrInvalidPath, n.Kind)
	}
	return n.Value, nil
}

// Keys resolves a path to a collection and returns its child keys in
// insertion order.
func (d *Document) Keys(path string) ([]string, error) {
	n, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	if n.Kind == KindScalar {
		return nil, fmt.Errorf("%s: %w: scalar has no keys", path, ErrInvalidPath)
	}
	return d.childKeys(n), nil
}

// Count returns the number of live children of the node at path.
func (d *Document) Count(path string) (int, error) {
	n, err := d.resolve(path)
	if err != nil {
		return 0, err
	}
	return len(d.liveChildren(n)), nil
}

// Has reports whether a path resolves.
func (d *Document) Has(path string) bool {
	_, err := d.resolve(path)
	return err == nil
}

// NodeAt resolves a path to its node id. Primarily for callers that iterate
// a collection and then populate fields via SetField.
func (d *Document) NodeAt(path string) (int, error) {
	n, err := d.resolve(path)
	if err != nil {
		return 0, err
	}
	return n.ID, nil
}
