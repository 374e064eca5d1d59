// Package navigator resolves integer ranks to regular files under a root
// directory by depth-first enumeration, re-walking from the root on every
// request instead of keeping an index.
package navigator

import (
	"errors"
	"fmt"
	"io"

	"github.com/brettbedarf/treenav"
	"github.com/brettbedarf/treenav/cursor"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
)

// countOnly as a target never matches, so the search visits every file.
const countOnly = -1

// Hit is a resolved file: the directory it was found in and its entry.
type Hit struct {
	Dir   string
	Entry treenav.Entry
}

// Navigator runs rank searches over a cursor. Every search starts at the
// root and leaves the cursor back at the root, including on faults.
type Navigator struct {
	cur    *cursor.Cursor
	match  func(name string) bool
	logger zerolog.Logger
}

// NewNavigator returns a Navigator ranking regular files whose name matches
// at least one of include. No patterns ranks every regular file.
func NewNavigator(cur *cursor.Cursor, include []string, logger zerolog.Logger) (*Navigator, error) {
	match, err := compileInclude(include)
	if err != nil {
		return nil, err
	}
	return &Navigator{cur: cur, match: match, logger: logger}, nil
}

func compileInclude(patterns []string) (func(string) bool, error) {
	if len(patterns) == 0 {
		return func(string) bool { return true }, nil
	}
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return func(name string) bool {
		for _, g := range globs {
			if g.Match(name) {
				return true
			}
		}
		return false
	}, nil
}

// Resolve finds the regular file at rank target. A nil Hit with a nil error
// means the tree holds fewer than target+1 files.
func (n *Navigator) Resolve(target int) (*Hit, error) {
	if target < 0 {
		return nil, nil
	}
	count := 0
	return n.run(target, &count)
}

// Count returns the number of ranked files under the root.
func (n *Navigator) Count() (int, error) {
	count := 0
	if _, err := n.run(countOnly, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (n *Navigator) run(target int, count *int) (*Hit, error) {
	if err := n.cur.Reset(); err != nil {
		return nil, err
	}
	hit, err := n.search(target, count)
	if err != nil {
		n.logger.Debug().Err(err).Int("target", target).Int("seen", *count).Msg("Search aborted")
		return nil, err
	}
	if n.cur.Depth() != 0 {
		return nil, fmt.Errorf("search ended at depth %d instead of root", n.cur.Depth())
	}
	return hit, nil
}

// search scans the open directory in two passes: regular files in listing
// order, then each subdirectory in listing order. count carries the number
// of files ranked so far across the whole walk.
func (n *Navigator) search(target int, count *int) (*Hit, error) {
	for {
		e, err := n.cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !e.IsRegular() || !n.match(e.Name) {
			continue
		}
		if *count == target {
			hit := &Hit{Dir: n.cur.Path(), Entry: e}
			n.logger.Trace().Str("dir", hit.Dir).Str("name", e.Name).Int("rank", target).Msg("Matched")
			return hit, nil
		}
		*count++
	}

	if err := n.cur.Rewind(); err != nil {
		return nil, err
	}
	for {
		e, err := n.cur.Next()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}

		mark := n.cur.Mark()
		if err := n.cur.Descend(e.Name); err != nil {
			if rerr := n.cur.Restore(mark); rerr != nil {
				err = errors.Join(err, rerr)
			}
			return nil, err
		}
		hit, err := n.search(target, count)
		if aerr := n.cur.Ascend(mark); aerr != nil {
			err = errors.Join(err, aerr)
		}
		if err != nil {
			return nil, err
		}
		if hit != nil {
			return hit, nil
		}
	}
}
