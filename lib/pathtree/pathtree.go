// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathtree builds a directory tree from the flat path list of
// a storage enumeration. Storage listings mix pseudo entries (the
// virtual-root marker, colon-terminated directory markers) with real
// files, use both separator styles, and arrive unordered; the builder
// normalizes all of that into a stable, sorted tree for rendering.
package pathtree

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hydra1983/casckit/lib/casc"
)

// RootName is the virtual root's name. Listings may contain it as a
// pseudo entry; the builder drops those and synthesizes the root node
// itself.
const RootName = "root"

// Node is one tree node. File nodes carry the entry metadata;
// directory nodes only structure. A node acquires directory status
// from having children, so a name that appears both as a file and as
// a directory prefix renders as a directory holding the file's
// metadata.
//
// FullPath is the path below (and excluding) the virtual root, with
// "/" separators; the root's own FullPath is empty.
type Node struct {
	Name      string  `json:"name"`
	FullPath  string  `json:"path,omitempty"`
	IsDir     bool    `json:"dir,omitempty"`
	Size      uint64  `json:"size,omitempty"`
	CKey      string  `json:"ckey,omitempty"`
	EKey      string  `json:"ekey,omitempty"`
	Available bool    `json:"available,omitempty"`
	Children  []*Node `json:"children,omitempty"`

	// Entry is the listing entry behind a file node, zero for
	// synthesized directories. Consumers that need to reopen the file
	// (the FUSE view) read it from here; JSON output omits it.
	Entry casc.FileEntry `json:"-"`
}

// Arena node: children are tracked by name for O(1) reuse during
// insertion and materialized into ordered slices afterwards.
type buildNode struct {
	name     string
	isDir    bool
	hasFile  bool
	entry    casc.FileEntry
	children map[string]int
	order    []int
}

type builder struct {
	nodes []buildNode
}

func (b *builder) newNode(name string, isDir bool) int {
	b.nodes = append(b.nodes, buildNode{name: name, isDir: isDir})
	return len(b.nodes) - 1
}

// child returns the index of parent's child with the name, creating
// it when missing. An existing node is reused; isDir only upgrades.
func (b *builder) child(parent int, name string, isDir bool) int {
	if idx, ok := b.nodes[parent].children[name]; ok {
		if isDir {
			b.nodes[idx].isDir = true
		}
		return idx
	}
	idx := b.newNode(name, isDir)
	// newNode may move the arena; resolve the parent afterwards.
	p := &b.nodes[parent]
	if p.children == nil {
		p.children = make(map[string]int)
	}
	p.children[name] = idx
	p.order = append(p.order, idx)
	return idx
}

// Build constructs the tree for the entries. Pseudo entries are
// dropped: empty names, the virtual-root marker itself, and names
// ending in the engine's pseudo-directory colon. A colon in the
// middle of a path separates sub-paths and becomes a separator. The
// returned node is the virtual root; an all-pseudo (or empty) listing
// yields a childless root rather than a failure.
func Build(entries []casc.FileEntry) *Node {
	b := &builder{}
	root := b.newNode(RootName, true)

	for i := range entries {
		segs, ok := splitEntry(entries[i].Name)
		if !ok {
			continue
		}
		b.insert(root, segs, entries[i])
	}

	cl := collate.New(language.Und, collate.IgnoreCase)
	return b.materialize(root, "", true, cl)
}

// splitEntry normalizes an entry name into path segments, reporting
// false for pseudo entries.
func splitEntry(name string) ([]string, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, RootName) {
		return nil, false
	}
	if strings.HasSuffix(trimmed, ":") {
		return nil, false
	}

	// Unify separators; a mid-path colon is a separator too.
	unified := strings.NewReplacer(`\`, "/", ":", "/").Replace(trimmed)

	parts := strings.Split(unified, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	if len(segs) == 0 {
		return nil, false
	}
	return segs, true
}

// insert walks the trie, reusing directory nodes and creating missing
// ones. The leaf takes the entry's metadata; on a leaf-name collision
// the first entry wins.
func (b *builder) insert(root int, segs []string, entry casc.FileEntry) {
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		cur = b.child(cur, seg, true)
	}

	leafName := segs[len(segs)-1]
	if _, ok := b.nodes[cur].children[leafName]; ok {
		// Name already present, as a file or a directory: the first
		// occupant wins.
		return
	}
	leaf := b.child(cur, leafName, false)
	n := &b.nodes[leaf]
	n.hasFile = true
	n.entry = entry
}

// materialize converts the arena into the exported node shape,
// computing full paths and sorting children: directories before
// files, then locale-aware name order.
func (b *builder) materialize(idx int, parentPath string, isRoot bool, cl *collate.Collator) *Node {
	bn := &b.nodes[idx]

	out := &Node{
		Name:  bn.name,
		IsDir: bn.isDir || len(bn.order) > 0,
	}
	switch {
	case isRoot:
		// The virtual root is excluded from paths.
	case parentPath == "":
		out.FullPath = bn.name
	default:
		out.FullPath = parentPath + "/" + bn.name
	}
	if bn.hasFile {
		out.Size = bn.entry.Size
		out.CKey = bn.entry.CKey.String()
		out.EKey = bn.entry.EKey.String()
		out.Available = bn.entry.Available
		out.Entry = bn.entry
	}

	for _, ci := range bn.order {
		out.Children = append(out.Children, b.materialize(ci, out.FullPath, false, cl))
	}
	sortChildren(out.Children, cl)
	return out
}

func sortChildren(children []*Node, cl *collate.Collator) {
	// Insertion sort: child lists are small and already near-sorted
	// for listfile-ordered storages.
	for i := 1; i < len(children); i++ {
		for j := i; j > 0 && lessNode(children[j], children[j-1], cl); j-- {
			children[j], children[j-1] = children[j-1], children[j]
		}
	}
}

func lessNode(a, b *Node, cl *collate.Collator) bool {
	if a.IsDir != b.IsDir {
		return a.IsDir
	}
	return cl.CompareString(a.Name, b.Name) < 0
}

// Walk visits the tree depth-first in child order, calling fn with
// each node and its depth below the root (the root itself is depth
// 0).
func Walk(root *Node, fn func(n *Node, depth int)) {
	walk(root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int)) {
	fn(n, depth)
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// CountNodes returns the number of directories and files in the
// tree, excluding the root.
func CountNodes(root *Node) (dirs, files int) {
	Walk(root, func(n *Node, depth int) {
		if depth == 0 {
			return
		}
		if n.IsDir {
			dirs++
		} else {
			files++
		}
	})
	return dirs, files
}
