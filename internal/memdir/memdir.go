// Package memdir is an ordered in-memory directory tree implementing
// [treenav.DirOpener] with fault injection and handle accounting, for tests.
package memdir

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/brettbedarf/treenav"
)

type node struct {
	name     string
	typ      treenav.EntryType
	children []*node // listing order
}

func (n *node) child(name string) *node {
	for _, ch := range n.children {
		if ch.name == name {
			return ch
		}
	}
	return nil
}

type fault struct {
	after int // successful reads before failing, reads only
	err   error
}

// Tree is an in-memory directory tree mounted at Root.
type Tree struct {
	mu   sync.Mutex
	root string
	top  *node

	openFaults   map[string]error
	readFaults   map[string]fault
	rewindFaults map[string]error
	seekFaults   map[string]error

	open    int
	maxOpen int
	opens   int
}

// New returns an empty tree mounted at root.
func New(root string) *Tree {
	return &Tree{
		root:         path.Clean(root),
		top:          &node{typ: treenav.DirEntry},
		openFaults:   map[string]error{},
		readFaults:   map[string]fault{},
		rewindFaults: map[string]error{},
		seekFaults:   map[string]error{},
	}
}

// Root returns the absolute path the tree is mounted at.
func (t *Tree) Root() string {
	return t.root
}

// AddFile appends a regular file, creating missing parent directories.
func (t *Tree) AddFile(p string) *Tree {
	return t.add(p, treenav.RegularEntry)
}

// AddDir appends a directory, creating missing parent directories.
func (t *Tree) AddDir(p string) *Tree {
	return t.add(p, treenav.DirEntry)
}

// AddOther appends a non-regular, non-directory entry such as a symlink.
func (t *Tree) AddOther(p string) *Tree {
	return t.add(p, treenav.OtherEntry)
}

func (t *Tree) add(p string, typ treenav.EntryType) *Tree {
	t.mu.Lock()
	defer t.mu.Unlock()

	parts := splitRel(p)
	cur := t.top
	for i, name := range parts {
		last := i == len(parts)-1
		next := cur.child(name)
		switch {
		case next == nil && last:
			cur.children = append(cur.children, &node{name: name, typ: typ})
		case next == nil:
			next = &node{name: name, typ: treenav.DirEntry}
			cur.children = append(cur.children, next)
		case last:
			next.typ = typ
		}
		cur = next
	}
	return t
}

// Remove deletes the entry at p (relative to Root) and everything below it.
func (t *Tree) Remove(p string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parts := splitRel(p)
	if len(parts) == 0 {
		return
	}
	parent, err := t.lookup(parts[:len(parts)-1])
	if err != nil {
		return
	}
	name := parts[len(parts)-1]
	for i, ch := range parent.children {
		if ch.name == name {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}

// FailOpen makes every OpenDir of the absolute dir path fail with err.
func (t *Tree) FailOpen(dir string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openFaults[path.Clean(dir)] = err
}

// FailRead makes ReadEntry on the absolute dir path fail with err once
// after successful reads have been served by the same handle.
func (t *Tree) FailRead(dir string, after int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readFaults[path.Clean(dir)] = fault{after: after, err: err}
}

// FailRewind makes Rewind (and so Seek) on the absolute dir path fail with err.
func (t *Tree) FailRewind(dir string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rewindFaults[path.Clean(dir)] = err
}

// FailSeek makes Seek on the absolute dir path fail with err while Rewind
// keeps working.
func (t *Tree) FailSeek(dir string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seekFaults[path.Clean(dir)] = err
}

// ClearFaults removes every injected fault.
func (t *Tree) ClearFaults() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.openFaults)
	clear(t.readFaults)
	clear(t.rewindFaults)
	clear(t.seekFaults)
}

// OpenHandles returns the number of handles currently open.
func (t *Tree) OpenHandles() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

// MaxOpenHandles returns the high-water mark of simultaneously open handles.
func (t *Tree) MaxOpenHandles() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxOpen
}

// Opens returns the total number of successful OpenDir calls.
func (t *Tree) Opens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opens
}

// OpenDir implements [treenav.DirOpener].
func (t *Tree) OpenDir(p string) (treenav.DirHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	clean := path.Clean(p)
	if err, ok := t.openFaults[clean]; ok {
		return nil, kinded("open", clean, err)
	}
	rel, ok := t.rel(clean)
	if !ok {
		return nil, treenav.NewDirError("open", clean, treenav.ErrNotFound, fs.ErrNotExist)
	}
	n, err := t.lookup(splitRel(rel))
	if err != nil {
		return nil, treenav.NewDirError("open", clean, err, nil)
	}
	if n.typ != treenav.DirEntry {
		return nil, treenav.NewDirError("open", clean, treenav.ErrNotADirectory, nil)
	}

	t.open++
	t.opens++
	t.maxOpen = max(t.maxOpen, t.open)
	return &handle{tree: t, path: clean, dir: n}, nil
}

func (t *Tree) rel(clean string) (string, bool) {
	if clean == t.root {
		return "", true
	}
	prefix := strings.TrimSuffix(t.root, "/") + "/"
	if !strings.HasPrefix(clean, prefix) {
		return "", false
	}
	return strings.TrimPrefix(clean, prefix), true
}

func (t *Tree) lookup(parts []string) (*node, error) {
	cur := t.top
	for _, name := range parts {
		if cur.typ != treenav.DirEntry {
			return nil, treenav.ErrNotADirectory
		}
		next := cur.child(name)
		if next == nil {
			return nil, treenav.ErrNotFound
		}
		cur = next
	}
	return cur, nil
}

type handle struct {
	tree   *Tree
	path   string
	dir    *node
	pos    int
	reads  int
	closed bool
}

func (h *handle) ReadEntry() (treenav.Entry, error) {
	h.tree.mu.Lock()
	defer h.tree.mu.Unlock()

	if h.closed {
		return treenav.Entry{}, treenav.NewDirError("read", h.path, treenav.ErrIO, fs.ErrClosed)
	}
	if f, ok := h.tree.readFaults[h.path]; ok && h.reads >= f.after {
		return treenav.Entry{}, kinded("read", h.path, f.err)
	}
	if h.pos >= len(h.dir.children) {
		return treenav.Entry{}, io.EOF
	}
	ch := h.dir.children[h.pos]
	h.pos++
	h.reads++
	return treenav.Entry{Name: ch.name, Type: ch.typ}, nil
}

func (h *handle) Rewind() error {
	h.tree.mu.Lock()
	defer h.tree.mu.Unlock()

	if h.closed {
		return treenav.NewDirError("rewind", h.path, treenav.ErrIO, fs.ErrClosed)
	}
	if err, ok := h.tree.rewindFaults[h.path]; ok {
		return kinded("rewind", h.path, err)
	}
	h.pos = 0
	return nil
}

func (h *handle) Tell() treenav.Mark {
	h.tree.mu.Lock()
	defer h.tree.mu.Unlock()
	return treenav.Mark(h.pos)
}

func (h *handle) Seek(m treenav.Mark) error {
	if err := h.Rewind(); err != nil {
		return err
	}
	h.tree.mu.Lock()
	defer h.tree.mu.Unlock()
	if err, ok := h.tree.seekFaults[h.path]; ok {
		return kinded("seek", h.path, err)
	}
	if int(m) < 0 || int(m) > len(h.dir.children) {
		return treenav.NewDirError("seek", h.path, treenav.ErrIO, fmt.Errorf("mark %d beyond %d entries", m, len(h.dir.children)))
	}
	h.pos = int(m)
	return nil
}

func (h *handle) Close() error {
	h.tree.mu.Lock()
	defer h.tree.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.tree.open--
	return nil
}

// kinded wraps err in a DirError unless it already carries a kind.
func kinded(op, p string, err error) error {
	for _, kind := range []error{treenav.ErrNotFound, treenav.ErrNotADirectory, treenav.ErrIO} {
		if err == kind {
			return treenav.NewDirError(op, p, kind, nil)
		}
	}
	if _, ok := err.(*treenav.DirError); ok {
		return err
	}
	return treenav.NewDirError(op, p, treenav.ErrIO, err)
}

func splitRel(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			parts = append(parts, s)
		}
	}
	return parts
}

var _ treenav.DirOpener = (*Tree)(nil)
var _ treenav.DirHandle = (*handle)(nil)
