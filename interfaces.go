package treenav

import "github.com/brettbedarf/treenav/config"

// DirOpener opens directories by absolute path.
type DirOpener interface {
	// OpenDir returns a cursor positioned before the first entry of path.
	// Fails with ErrNotFound when path does not exist and ErrNotADirectory
	// when it names something other than a directory.
	OpenDir(path string) (DirHandle, error)
}

// DirHandle is a single open directory cursor.
type DirHandle interface {
	// ReadEntry returns the next entry in listing order or io.EOF once
	// exhausted. Read faults are reported as ErrIO.
	ReadEntry() (Entry, error)

	// Rewind resets the cursor to before the first entry.
	Rewind() error

	// Tell returns an opaque mark of the current position.
	Tell() Mark

	// Seek restores a mark previously returned by Tell on a handle for the
	// same directory.
	Seek(m Mark) error

	Close() error
}

// Mark is an opaque directory position returned by [DirHandle.Tell].
type Mark int64

// Mounter attaches the backing medium at a root before navigation starts
// and detaches it when the session ends.
type Mounter interface {
	Mount(root string, opts config.MountOptions) error
	Unmount(root string) error
}
