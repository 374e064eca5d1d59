// Package cursor holds the single open directory cursor of a navigation
// session together with the stack of directory names below the root.
package cursor

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/brettbedarf/treenav"
	"github.com/brettbedarf/treenav/internal/util"
	"github.com/rs/zerolog"
)

// ErrNotOpen is returned by cursor operations that need an open directory.
var ErrNotOpen = errors.New("no open directory")

// Cursor is a directory cursor rooted at a fixed path. At most one
// directory handle is open at any time: opening another closes the current
// one first.
//
// NOTE: Cursor is **not** thread-safe.
type Cursor struct {
	opener     treenav.DirOpener
	root       string
	stack      []string // directory names below root, outermost first
	h          treenav.DirHandle
	maxPathLen int
	logger     zerolog.Logger
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithMaxPathLen bounds the rendered directory path accepted by Descend.
// Zero or negative disables the bound.
func WithMaxPathLen(n int) Option {
	return func(c *Cursor) {
		c.maxPathLen = n
	}
}

// WithLogger replaces the default component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cursor) {
		c.logger = l
	}
}

// New returns a closed Cursor rooted at root.
func New(opener treenav.DirOpener, root string, opts ...Option) *Cursor {
	c := &Cursor{
		opener: opener,
		root:   path.Clean(root),
		logger: util.GetLogger("Cursor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the fixed root path.
func (c *Cursor) Root() string {
	return c.root
}

// Path renders the directory the cursor is positioned in.
func (c *Cursor) Path() string {
	return c.pathWith("")
}

func (c *Cursor) pathWith(name string) string {
	if len(c.stack) == 0 && name == "" {
		return c.root
	}
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(c.root, "/"))
	for _, s := range c.stack {
		b.WriteByte('/')
		b.WriteString(s)
	}
	if name != "" {
		b.WriteByte('/')
		b.WriteString(name)
	}
	return b.String()
}

// Depth returns how many directories below root the cursor is.
func (c *Cursor) Depth() int {
	return len(c.stack)
}

// IsOpen reports whether a directory handle is currently held.
func (c *Cursor) IsOpen() bool {
	return c.h != nil
}

// Open closes any open handle and opens p as the sole cursor. The path
// stack is left untouched.
func (c *Cursor) Open(p string) error {
	if err := c.Close(); err != nil {
		return err
	}
	h, err := c.opener.OpenDir(p)
	if err != nil {
		return err
	}
	c.h = h
	return nil
}

// Close releases the open handle. Closing a closed cursor is a no-op.
func (c *Cursor) Close() error {
	if c.h == nil {
		return nil
	}
	h := c.h
	c.h = nil
	return h.Close()
}

// Next returns the next entry of the open directory or io.EOF at the end.
func (c *Cursor) Next() (treenav.Entry, error) {
	if c.h == nil {
		return treenav.Entry{}, treenav.NewDirError("read", c.Path(), treenav.ErrIO, ErrNotOpen)
	}
	return c.h.ReadEntry()
}

// Rewind moves back to before the first entry of the open directory.
func (c *Cursor) Rewind() error {
	if c.h == nil {
		return treenav.NewDirError("rewind", c.Path(), treenav.ErrIO, ErrNotOpen)
	}
	return c.h.Rewind()
}

// Mark returns the position of the open directory, -1 when closed.
func (c *Cursor) Mark() treenav.Mark {
	if c.h == nil {
		return -1
	}
	return c.h.Tell()
}

// SeekTo restores a mark taken on the same directory.
func (c *Cursor) SeekTo(m treenav.Mark) error {
	if c.h == nil {
		return treenav.NewDirError("seek", c.Path(), treenav.ErrIO, ErrNotOpen)
	}
	return c.h.Seek(m)
}

// Reset clears the path stack and opens the root.
func (c *Cursor) Reset() error {
	c.stack = c.stack[:0]
	return c.Open(c.root)
}

// Descend opens the subdirectory name of the current directory as the
// sole cursor. On failure the stack is left as it was; the parent handle
// stays open only when the failure happened before it was closed
// (ErrPathTooLong), otherwise use Restore to reopen it.
func (c *Cursor) Descend(name string) error {
	child := c.pathWith(name)
	if c.maxPathLen > 0 && len(child) > c.maxPathLen {
		return treenav.NewDirError("descend", child, treenav.ErrPathTooLong,
			fmt.Errorf("%d bytes exceeds limit of %d", len(child), c.maxPathLen))
	}
	c.stack = append(c.stack, name)
	if err := c.Open(child); err != nil {
		c.stack = c.stack[:len(c.stack)-1]
		return err
	}
	c.logger.Trace().Str("path", child).Int("depth", len(c.stack)).Msg("Descended")
	return nil
}

// Ascend pops the current directory and reopens its parent at m.
func (c *Cursor) Ascend(m treenav.Mark) error {
	if len(c.stack) == 0 {
		return treenav.NewDirError("ascend", c.root, treenav.ErrIO, errors.New("already at root"))
	}
	c.stack = c.stack[:len(c.stack)-1]
	if err := c.Open(c.Path()); err != nil {
		return err
	}
	if err := c.h.Seek(m); err != nil {
		return err
	}
	c.logger.Trace().Str("path", c.Path()).Int("depth", len(c.stack)).Msg("Ascended")
	return nil
}

// Restore reopens the current directory and seeks it to m. It is a no-op
// when the directory is still open.
func (c *Cursor) Restore(m treenav.Mark) error {
	if c.h != nil {
		return nil
	}
	if err := c.Open(c.Path()); err != nil {
		return err
	}
	return c.h.Seek(m)
}
