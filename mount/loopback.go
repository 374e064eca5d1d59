package mount

import (
	"errors"
	"fmt"

	"github.com/brettbedarf/treenav"
	"github.com/brettbedarf/treenav/config"
	"github.com/brettbedarf/treenav/internal/util"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"
)

// Loopback mounts a host directory (the card image or a copy of it) at the
// session root through FUSE.
type Loopback struct {
	servers *xsync.Map[string, *fuse.Server] // mount point -> server
	logLvl  util.LogLevel
	logger  zerolog.Logger
}

// NewLoopback returns a Loopback whose FUSE diagnostics are logged at lvl.
func NewLoopback(lvl util.LogLevel) *Loopback {
	return &Loopback{
		servers: xsync.NewMap[string, *fuse.Server](),
		logLvl:  lvl,
		logger:  util.GetLogger("Loopback"),
	}
}

// Mount serves opts.Source at root and waits until the kernel sees it.
func (l *Loopback) Mount(root string, opts config.MountOptions) error {
	if opts.Source == "" {
		return errors.New("loopback mount needs a source directory")
	}
	if _, ok := l.servers.Load(root); ok {
		return fmt.Errorf("%s is already mounted", root)
	}

	node, err := fs.NewLoopbackRoot(opts.Source)
	if err != nil {
		return treenav.NewDirError("mount", opts.Source, treenav.ErrNotFound, err)
	}
	mopts := fuse.MountOptions{
		Name:       opts.Name,
		FsName:     opts.FsName,
		AllowOther: opts.AllowOther,
		Debug:      opts.Debug || l.logLvl == util.TraceLevel,
		Logger:     util.NewLogLogger("FuseServer", util.DebugLevel),
	}
	if opts.ReadOnly {
		mopts.Options = append(mopts.Options, "ro")
	}

	l.logger.Debug().
		Str("source", opts.Source).
		Str("root", root).
		Bool("readOnly", opts.ReadOnly).
		Int("maxFiles", opts.MaxFiles).
		Int("allocationUnitSize", opts.AllocationUnitSize).
		Msg("Mounting loopback")

	srv, err := fs.Mount(root, node, &fs.Options{MountOptions: mopts})
	if err != nil {
		err = treenav.NewDirError("mount", root, treenav.ErrIO, err)
		if opts.FormatIfMountFailed {
			return errors.Join(err, ErrFormatUnsupported)
		}
		return err
	}
	l.servers.Store(root, srv)
	l.logger.Info().Str("root", root).Msg("Loopback mounted")
	return nil
}

// Unmount detaches root. Unmounting a root this Loopback never mounted is
// a no-op.
func (l *Loopback) Unmount(root string) error {
	srv, ok := l.servers.LoadAndDelete(root)
	if !ok {
		return nil
	}
	if err := srv.Unmount(); err != nil {
		return err
	}
	l.logger.Info().Str("root", root).Msg("Loopback unmounted")
	return nil
}

// Mounted returns how many roots this Loopback currently serves.
func (l *Loopback) Mounted() int {
	return l.servers.Size()
}

var _ treenav.Mounter = (*Loopback)(nil)
