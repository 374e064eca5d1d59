// Package dirfs provides [treenav.DirOpener] implementations backed by the
// host filesystem and by any [fs.FS].
package dirfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/brettbedarf/treenav"
)

// Opener opens directories either on the host or inside an fs.FS.
type Opener struct {
	fsys fs.FS // nil opens host paths
}

// OS returns an Opener for absolute host paths.
func OS() *Opener {
	return &Opener{}
}

// FS returns an Opener for paths inside fsys. Absolute paths are taken
// relative to the root of fsys, so "/" and "" both name fsys itself.
func FS(fsys fs.FS) *Opener {
	return &Opener{fsys: fsys}
}

// OpenDir implements [treenav.DirOpener].
func (o *Opener) OpenDir(p string) (treenav.DirHandle, error) {
	f, err := o.open(p)
	if err != nil {
		return nil, err
	}
	return &handle{opener: o, path: p, f: f}, nil
}

func (o *Opener) open(p string) (fs.ReadDirFile, error) {
	var (
		f   fs.File
		err error
	)
	if o.fsys == nil {
		f, err = os.Open(filepath.FromSlash(p))
	} else {
		name := fsName(p)
		if !fs.ValidPath(name) {
			return nil, treenav.NewDirError("open", p, treenav.ErrNotFound, fs.ErrInvalid)
		}
		f, err = o.fsys.Open(name)
	}
	if err != nil {
		return nil, treenav.NewDirError("open", p, openKind(err), err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, treenav.NewDirError("open", p, treenav.ErrIO, err)
	}
	rd, ok := f.(fs.ReadDirFile)
	if !info.IsDir() || !ok {
		f.Close()
		return nil, treenav.NewDirError("open", p, treenav.ErrNotADirectory, nil)
	}
	return rd, nil
}

func fsName(p string) string {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" {
		return "."
	}
	return name
}

func openKind(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return treenav.ErrNotFound
	case errors.Is(err, syscall.ENOTDIR):
		return treenav.ErrNotADirectory
	default:
		return treenav.ErrIO
	}
}

// handle streams entries one at a time so an open directory costs O(1)
// memory regardless of its size.
type handle struct {
	opener *Opener
	path   string
	f      fs.ReadDirFile
	pos    treenav.Mark
}

func (h *handle) ReadEntry() (treenav.Entry, error) {
	if h.f == nil {
		return treenav.Entry{}, treenav.NewDirError("read", h.path, treenav.ErrIO, fs.ErrClosed)
	}
	ents, err := h.f.ReadDir(1)
	if len(ents) == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return treenav.Entry{}, io.EOF
		}
		return treenav.Entry{}, treenav.NewDirError("read", h.path, treenav.ErrIO, err)
	}
	h.pos++
	return toEntry(ents[0]), nil
}

func toEntry(d fs.DirEntry) treenav.Entry {
	e := treenav.Entry{Name: d.Name(), Type: treenav.OtherEntry}
	switch {
	case d.Type().IsRegular():
		e.Type = treenav.RegularEntry
	case d.IsDir():
		e.Type = treenav.DirEntry
	}
	return e
}

// Rewind seeks host directories back to the start and reopens anything
// that cannot seek.
func (h *handle) Rewind() error {
	if h.f == nil {
		return treenav.NewDirError("rewind", h.path, treenav.ErrIO, fs.ErrClosed)
	}
	if s, ok := h.f.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err == nil {
			h.pos = 0
			return nil
		}
	}
	f, err := h.opener.open(h.path)
	if err != nil {
		return treenav.NewDirError("rewind", h.path, treenav.ErrIO, err)
	}
	old := h.f
	h.f, h.pos = f, 0
	if err := old.Close(); err != nil {
		return treenav.NewDirError("rewind", h.path, treenav.ErrIO, err)
	}
	return nil
}

func (h *handle) Tell() treenav.Mark {
	return h.pos
}

// Seek rewinds then skips m entries. Listing order of an unchanged
// directory is stable, so this lands on the same position.
func (h *handle) Seek(m treenav.Mark) error {
	if err := h.Rewind(); err != nil {
		return err
	}
	for h.pos < m {
		ents, err := h.f.ReadDir(int(min(m-h.pos, 64)))
		h.pos += treenav.Mark(len(ents))
		if len(ents) == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				err = fmt.Errorf("mark %d beyond %d entries", m, h.pos)
			}
			return treenav.NewDirError("seek", h.path, treenav.ErrIO, err)
		}
	}
	return nil
}

func (h *handle) Close() error {
	if h.f == nil {
		return nil
	}
	f := h.f
	h.f = nil
	if err := f.Close(); err != nil {
		return treenav.NewDirError("close", h.path, treenav.ErrIO, err)
	}
	return nil
}

var _ treenav.DirOpener = (*Opener)(nil)
var _ treenav.DirHandle = (*handle)(nil)
