package memdir

import (
	"fmt"
	"path"
	"strings"

	"github.com/brettbedarf/treenav"
)

// Parse builds a tree mounted at root from an indented outline, two spaces
// per level. A trailing "/" marks a directory and a leading "@" marks an
// entry that is neither file nor directory. Listing order is outline order.
//
//	a.mp3
//	album/
//	  b.mp3
//	  @cover.lnk
func Parse(root, outline string) (*Tree, error) {
	t := New(root)
	stack := []*node{t.top}

	for i, line := range strings.Split(outline, "\n") {
		line = strings.TrimRight(line, " \t\r")
		name := strings.TrimLeft(line, " ")
		if name == "" {
			continue
		}
		indent := len(line) - len(name)
		if indent%2 != 0 {
			return nil, fmt.Errorf("line %d: indent must be a multiple of two spaces", i+1)
		}
		depth := indent / 2
		if depth > len(stack)-1 {
			return nil, fmt.Errorf("line %d: unexpected indent", i+1)
		}
		stack = stack[:depth+1]
		parent := stack[depth]

		n := &node{name: name, typ: treenav.RegularEntry}
		switch {
		case strings.HasSuffix(name, "/"):
			n.name = strings.TrimSuffix(name, "/")
			n.typ = treenav.DirEntry
		case strings.HasPrefix(name, "@"):
			n.name = strings.TrimPrefix(name, "@")
			n.typ = treenav.OtherEntry
		}
		if n.name == "" || strings.Contains(n.name, "/") {
			return nil, fmt.Errorf("line %d: invalid entry name %q", i+1, name)
		}
		parent.children = append(parent.children, n)
		if n.typ == treenav.DirEntry {
			stack = append(stack, n)
		}
	}
	return t, nil
}

// MustParse is like Parse but panics on a malformed outline.
func MustParse(root, outline string) *Tree {
	t, err := Parse(root, outline)
	if err != nil {
		panic(err)
	}
	return t
}

// RankedPaths lists the absolute path of every regular file accepted by
// match, in rank order: files of a directory in listing order, then each
// subdirectory in listing order. A nil match accepts every file.
func (t *Tree) RankedPaths(match func(name string) bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	var walk func(dir string, n *node)
	walk = func(dir string, n *node) {
		for _, ch := range n.children {
			if ch.typ == treenav.RegularEntry && (match == nil || match(ch.name)) {
				out = append(out, path.Join(dir, ch.name))
			}
		}
		for _, ch := range n.children {
			if ch.typ == treenav.DirEntry {
				walk(path.Join(dir, ch.name), ch)
			}
		}
	}
	walk(t.root, t.top)
	return out
}
