package navigator

import (
	"fmt"
	"path"

	"github.com/brettbedarf/treenav"
)

// Position is the navigation state after a request: the target rank and,
// when Resolved, the file found at it.
type Position struct {
	Rank     int
	Resolved bool
	Dir      string        // directory holding Entry, empty when unresolved
	Entry    treenav.Entry // zero when unresolved
}

// Path returns the absolute path of the resolved file or "" when unresolved.
func (p Position) Path() string {
	if !p.Resolved {
		return ""
	}
	return path.Join(p.Dir, p.Entry.Name)
}

// Err reports treenav.ErrOutOfRange for an unresolved position.
func (p Position) Err() error {
	if p.Resolved {
		return nil
	}
	return treenav.ErrOutOfRange
}

func (p Position) String() string {
	if !p.Resolved {
		return fmt.Sprintf("%d: File not found", p.Rank)
	}
	return fmt.Sprintf("%d: %s", p.Rank, p.Path())
}
