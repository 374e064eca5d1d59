package mount

import (
	"errors"
	"io/fs"
	"os"

	"github.com/brettbedarf/treenav"
	"github.com/brettbedarf/treenav/config"
)

// ErrFormatUnsupported is joined onto mount failures when formatting was
// requested from a mounter that cannot format.
var ErrFormatUnsupported = errors.New("formatting the medium is not supported")

// None is the mounter for media that are already mounted. Mount only checks
// that the root is a directory.
type None struct{}

func (None) Mount(root string, opts config.MountOptions) error {
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = treenav.NewDirError("mount", root, treenav.ErrNotFound, err)
	case err != nil:
		err = treenav.NewDirError("mount", root, treenav.ErrIO, err)
	case !info.IsDir():
		err = treenav.NewDirError("mount", root, treenav.ErrNotADirectory, nil)
	}
	if err != nil && opts.FormatIfMountFailed {
		return errors.Join(err, ErrFormatUnsupported)
	}
	return err
}

func (None) Unmount(string) error {
	return nil
}

var _ treenav.Mounter = None{}
