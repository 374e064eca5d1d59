package navigator

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/brettbedarf/treenav"
	"github.com/brettbedarf/treenav/config"
	"github.com/brettbedarf/treenav/cursor"
	"github.com/brettbedarf/treenav/dirfs"
	"github.com/brettbedarf/treenav/internal/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configures a Session.
type Options struct {
	Root       string            // absolute path of the tree, fixed for the session
	Opener     treenav.DirOpener // defaults to host directories
	Mounter    treenav.Mounter   // optional, mounted at Start and unmounted at End
	Mount      config.MountOptions
	Include    []string // glob patterns for ranked file names, empty ranks all
	MaxPathLen int      // 0 for unbounded
}

// OptionsFromConfig copies the session relevant settings of cfg. Opener and
// Mounter are left for the caller to choose.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Root:       cfg.Root,
		Mount:      cfg.MountOptions,
		Include:    cfg.Include,
		MaxPathLen: cfg.MaxPathLen,
	}
}

// Session owns the navigation state over one root: the target rank and the
// entry last resolved at it. Every movement re-resolves from the root.
//
// NOTE: Session is **not** thread-safe. Use a [Registry] to share sessions
// between goroutines.
type Session struct {
	id      uuid.UUID
	root    string
	cur     *cursor.Cursor
	nav     *Navigator
	mounter treenav.Mounter
	pos     Position
	closed  bool
	logger  zerolog.Logger
}

// Start mounts the medium when a Mounter is given and returns a session in
// the Unresolved(0) state. Nothing is read until the first movement.
func Start(opts Options) (*Session, error) {
	if opts.Root == "" {
		return nil, errors.New("session root must be set")
	}
	id := uuid.New()
	logger := util.GetLogger("Session").With().Str("session", id.String()).Str("root", opts.Root).Logger()

	opener := opts.Opener
	if opener == nil {
		opener = dirfs.OS()
	}
	cur := cursor.New(opener, opts.Root, cursor.WithMaxPathLen(opts.MaxPathLen), cursor.WithLogger(logger))
	nav, err := NewNavigator(cur, opts.Include, logger)
	if err != nil {
		return nil, err
	}

	if opts.Mounter != nil {
		if err := opts.Mounter.Mount(opts.Root, opts.Mount); err != nil {
			return nil, fmt.Errorf("failed to mount %s: %w", opts.Root, err)
		}
	}
	logger.Debug().Strs("include", opts.Include).Msg("Session started")

	return &Session{
		id:      id,
		root:    opts.Root,
		cur:     cur,
		nav:     nav,
		mounter: opts.Mounter,
		pos:     Position{},
		logger:  logger,
	}, nil
}

// ID returns the unique session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Root returns the root path the session navigates.
func (s *Session) Root() string {
	return s.root
}

// Current returns the state left by the last movement without touching
// the tree.
func (s *Session) Current() (Position, error) {
	if s.closed {
		return s.pos, treenav.ErrSessionClosed
	}
	return s.pos, nil
}

// Goto sets the target to n, clamped to zero, and resolves it. On a fault
// the previous position is returned with the error and nothing changes.
// Resolving past the last file is not a fault: the returned position is
// unresolved and its Err reports treenav.ErrOutOfRange.
func (s *Session) Goto(n int) (Position, error) {
	if s.closed {
		return s.pos, treenav.ErrSessionClosed
	}
	n = max(n, 0)

	hit, err := s.nav.Resolve(n)
	if err != nil {
		s.logger.Error().Err(err).Int("target", n).Msg("Failed to resolve rank")
		return s.pos, err
	}

	if hit == nil {
		s.pos = Position{Rank: n}
		s.logger.Debug().Int("target", n).Msg("No file at rank")
	} else {
		s.pos = Position{Rank: n, Resolved: true, Dir: hit.Dir, Entry: hit.Entry}
		s.logger.Debug().Int("target", n).Str("path", s.pos.Path()).Msg("Resolved rank")
	}
	return s.pos, nil
}

// Next resolves the rank after the current target.
func (s *Session) Next() (Position, error) {
	if s.pos.Rank == math.MaxInt {
		return s.Goto(s.pos.Rank)
	}
	return s.Goto(s.pos.Rank + 1)
}

// Previous resolves the rank before the current target. At rank zero it
// does nothing and returns the current position.
func (s *Session) Previous() (Position, error) {
	if s.closed {
		return s.pos, treenav.ErrSessionClosed
	}
	if s.pos.Rank == 0 {
		return s.pos, nil
	}
	return s.Goto(s.pos.Rank - 1)
}

// Count returns the number of ranked files under the root.
func (s *Session) Count() (int, error) {
	if s.closed {
		return 0, treenav.ErrSessionClosed
	}
	return s.nav.Count()
}

// Last resolves the highest rank, or stays unresolved at zero for a tree
// without files.
func (s *Session) Last() (Position, error) {
	n, err := s.Count()
	if err != nil {
		return s.pos, err
	}
	return s.Goto(max(n-1, 0))
}

// List returns the entries of the root directory in listing order.
func (s *Session) List() ([]treenav.Entry, error) {
	if s.closed {
		return nil, treenav.ErrSessionClosed
	}
	if err := s.cur.Reset(); err != nil {
		return nil, err
	}
	var entries []treenav.Entry
	for {
		e, err := s.cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, s.cur.Rewind()
}

// End closes the cursor and unmounts. Later calls report
// treenav.ErrSessionClosed; ending twice is a no-op.
func (s *Session) End() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.cur.Close()
	if s.mounter != nil {
		if uerr := s.mounter.Unmount(s.root); uerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to unmount %s: %w", s.root, uerr))
		}
	}
	s.logger.Debug().Err(err).Msg("Session ended")
	return err
}
