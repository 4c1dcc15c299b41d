// SPDX-License-Identifier: MPL-2.0

// Package docmodel implements the hierarchical document model that package
// descriptors and manifests are expressed in.
//
// A Document is a mutable tree of nodes parsed from a YAML-like text subset:
// maps, sequences, and scalar leaves, driven purely by indentation and the
// "key:", "key: value", "- value", and "- key: value" line forms. Anchors,
// multi-document streams, block scalars, and flow collections are not
// supported.
//
// Nodes live in an arena addressed by stable integer ids. Ids are assigned
// once and never reused or renumbered, so deletion leaves holes. Child order
// is insertion order and is preserved by serialization.
//
// The model supports path-addressable reads and writes ("a.b[0].c"), with
// auto-vivification of intermediate maps on Set, sequence append, and
// round-trip serialization: for any document D built from well-formed input,
// Serialize(Parse(Serialize(D))) == Serialize(D).
package docmodel
