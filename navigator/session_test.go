package navigator

import (
	"errors"
	"testing"

	"github.com/brettbedarf/treenav"
	"github.com/brettbedarf/treenav/config"
	"github.com/brettbedarf/treenav/internal/memdir"
	"github.com/brettbedarf/treenav/internal/mocks"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const root = "/sdcard"

func startTree(t *testing.T, tree *memdir.Tree, include ...string) *Session {
	t.Helper()
	s, err := Start(Options{Root: tree.Root(), Opener: tree, Include: include})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.End() })
	return s
}

// assertAtRoot checks that no descended state leaked out of a resolution.
func assertAtRoot(t *testing.T, s *Session, tree *memdir.Tree) {
	t.Helper()
	assert.Equal(t, 0, s.cur.Depth(), "path stack must be back at root")
	assert.Equal(t, root, s.cur.Path())
	assert.LessOrEqual(t, tree.OpenHandles(), 1, "at most the root handle may stay open")
	assert.LessOrEqual(t, tree.MaxOpenHandles(), 1, "only one directory may ever be open")
}

func TestSession_SimpleScenario(t *testing.T) {
	t.Parallel()

	tree := memdir.MustParse(root, `
a.txt
b.txt
sub/
  c.txt
`)
	s := startTree(t, tree)

	tests := []struct {
		rank     int
		resolved bool
		path     string
	}{
		{0, true, "/sdcard/a.txt"},
		{1, true, "/sdcard/b.txt"},
		{2, true, "/sdcard/sub/c.txt"},
		{3, false, ""},
	}
	for _, tt := range tests {
		pos, err := s.Goto(tt.rank)
		require.NoError(t, err)
		assert.Equal(t, tt.rank, pos.Rank)
		assert.Equal(t, tt.resolved, pos.Resolved, "rank %d", tt.rank)
		assert.Equal(t, tt.path, pos.Path(), "rank %d", tt.rank)
		assertAtRoot(t, s, tree)
	}

	pos, err := s.Goto(3)
	require.NoError(t, err)
	assert.ErrorIs(t, pos.Err(), treenav.ErrOutOfRange)

	_, err = s.Goto(2)
	require.NoError(t, err)
	pos, err = s.Previous()
	require.NoError(t, err)
	assert.Equal(t, "/sdcard/b.txt", pos.Path())
	pos, err = s.Previous()
	require.NoError(t, err)
	assert.Equal(t, "/sdcard/a.txt", pos.Path())

	opens := tree.Opens()
	pos, err = s.Previous()
	require.NoError(t, err)
	assert.Equal(t, "/sdcard/a.txt", pos.Path(), "previous at rank 0 must keep the current entry")
	assert.Equal(t, 0, pos.Rank)
	assert.Equal(t, opens, tree.Opens(), "previous at rank 0 must not touch the tree")
}

func TestSession_EmptyRoot(t *testing.T) {
	t.Parallel()

	tree := memdir.New(root)
	s := startTree(t, tree)

	pos, err := s.Current()
	require.NoError(t, err)
	assert.False(t, pos.Resolved, "initial state is unresolved")
	assert.Equal(t, 0, pos.Rank)

	for _, n := range []int{0, 1, 7} {
		pos, err := s.Goto(n)
		require.NoError(t, err)
		assert.False(t, pos.Resolved)
		assert.ErrorIs(t, pos.Err(), treenav.ErrOutOfRange)
	}

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	pos, err = s.Last()
	require.NoError(t, err)
	assert.False(t, pos.Resolved)
}

func TestSession_GotoNegativeClampsToZero(t *testing.T) {
	t.Parallel()

	s := startTree(t, memdir.MustParse(root, "a.txt\nb.txt"))

	pos, err := s.Goto(-5)

	require.NoError(t, err)
	assert.Equal(t, 0, pos.Rank)
	assert.Equal(t, "/sdcard/a.txt", pos.Path())
}

func TestSession_FilesBeforeSubdirectories(t *testing.T) {
	t.Parallel()

	tree := memdir.MustParse(root, `
early/
  x.mp3
@link.mp3
a.mp3
late/
  deep/
    z.mp3
  y.mp3
b.mp3
`)
	s := startTree(t, tree)

	var got []string
	for pos, err := s.Goto(0); pos.Resolved; pos, err = s.Next() {
		require.NoError(t, err)
		got = append(got, pos.Path())
	}

	assert.Equal(t, []string{
		"/sdcard/a.mp3",
		"/sdcard/b.mp3",
		"/sdcard/early/x.mp3",
		"/sdcard/late/y.mp3",
		"/sdcard/late/deep/z.mp3",
	}, got, "files first, then subdirectories in listing order, symlinks never counted")
}

func TestSession_Include(t *testing.T) {
	t.Parallel()

	tree := memdir.MustParse(root, `
notes.txt
a.mp3
album/
  cover.jpg
  b.MP3
  c.flac
`)
	s := startTree(t, tree, "*.mp3", "*.{flac,MP3}")

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	pos, err := s.Goto(2)
	require.NoError(t, err)
	assert.Equal(t, "/sdcard/album/c.flac", pos.Path())
}

func TestSession_InvalidInclude(t *testing.T) {
	t.Parallel()

	_, err := Start(Options{Root: root, Opener: memdir.New(root), Include: []string{"[unclosed"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid include pattern")
}

func TestSession_MatchesReferenceEnumeration(t *testing.T) {
	t.Parallel()

	for seed := uint64(1); seed <= 25; seed++ {
		tree := memdir.Random(root, gofakeit.New(seed), memdir.RandomOptions{MaxDepth: 4, MaxEntries: 6})
		want := tree.RankedPaths(nil)
		s := startTree(t, tree)

		count, err := s.Count()
		require.NoError(t, err)
		require.Equal(t, len(want), count, "seed %d", seed)

		for r, p := range want {
			pos, err := s.Goto(r)
			require.NoError(t, err)
			require.True(t, pos.Resolved, "seed %d rank %d", seed, r)
			assert.Equal(t, p, pos.Path(), "seed %d rank %d", seed, r)

			cur, err := s.Current()
			require.NoError(t, err)
			assert.Equal(t, pos, cur, "current must not re-resolve")
			assertAtRoot(t, s, tree)
		}
		pos, err := s.Goto(len(want))
		require.NoError(t, err)
		assert.False(t, pos.Resolved, "seed %d: rank past the last file", seed)
	}
}

func TestSession_NextThenPreviousIsInverse(t *testing.T) {
	t.Parallel()

	var (
		tree *memdir.Tree
		want []string
	)
	// first seed with enough files to step through
	for seed := uint64(7); len(want) < 5; seed++ {
		tree = memdir.Random(root, gofakeit.New(seed), memdir.RandomOptions{MaxDepth: 3, MaxEntries: 8})
		want = tree.RankedPaths(nil)
	}
	s := startTree(t, tree)

	_, err := s.Goto(0)
	require.NoError(t, err)
	for k := 1; k < len(want); k++ {
		_, err := s.Next()
		require.NoError(t, err)
	}
	for k := len(want) - 1; k >= 1; k-- {
		pos, err := s.Previous()
		require.NoError(t, err)
		assert.Equal(t, want[k-1], pos.Path())
	}
}

func TestSession_NextVisitsEveryFileOnce(t *testing.T) {
	t.Parallel()

	tree := memdir.Random(root, gofakeit.New(99), memdir.RandomOptions{MaxDepth: 5, MaxEntries: 5})
	s := startTree(t, tree)

	seen := map[string]bool{}
	var order []string
	pos, err := s.Goto(0)
	for ; pos.Resolved; pos, err = s.Next() {
		require.NoError(t, err)
		require.False(t, seen[pos.Path()], "visited %s twice", pos.Path())
		seen[pos.Path()] = true
		order = append(order, pos.Path())
	}
	require.NoError(t, err)
	assert.Equal(t, tree.RankedPaths(nil), order)
	assert.ErrorIs(t, pos.Err(), treenav.ErrOutOfRange)
}

func TestSession_FaultLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	boom := errors.New("card removed")
	tests := []struct {
		name   string
		inject func(tree *memdir.Tree)
		kind   error
	}{
		{"read_fault_in_subdir", func(tree *memdir.Tree) { tree.FailRead("/sdcard/sub/deeper", 0, boom) }, treenav.ErrIO},
		{"open_fault_in_subdir", func(tree *memdir.Tree) { tree.FailOpen("/sdcard/sub", treenav.ErrNotFound) }, treenav.ErrNotFound},
		{"rewind_fault_at_root", func(tree *memdir.Tree) { tree.FailRewind("/sdcard", boom) }, treenav.ErrIO},
		{"root_missing", func(tree *memdir.Tree) { tree.FailOpen("/sdcard", treenav.ErrNotFound) }, treenav.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree := memdir.MustParse(root, `
a.txt
sub/
  b.txt
  deeper/
    c.txt
`)
			s := startTree(t, tree)
			before, err := s.Goto(0)
			require.NoError(t, err)

			tt.inject(tree)
			pos, err := s.Goto(2)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, before, pos, "a fault must return the previous state")
			cur, _ := s.Current()
			assert.Equal(t, before, cur, "a fault must not change the state")
			assert.Equal(t, 0, s.cur.Depth(), "a fault must unwind to root")

			tree.ClearFaults()
			pos, err = s.Goto(2)
			require.NoError(t, err)
			assert.Equal(t, "/sdcard/sub/deeper/c.txt", pos.Path(), "navigation recovers once the fault clears")
		})
	}
}

func TestSession_RestoreFailureIsJoined(t *testing.T) {
	t.Parallel()

	tree := memdir.MustParse(root, `
sub/
  deeper/
    c.txt
`)
	s := startTree(t, tree)
	tree.FailRead("/sdcard/sub/deeper", 0, treenav.ErrIO)
	tree.FailSeek("/sdcard/sub", treenav.ErrNotADirectory)

	_, err := s.Goto(0)

	require.Error(t, err)
	assert.ErrorIs(t, err, treenav.ErrIO, "the first fault is kept")
	assert.ErrorIs(t, err, treenav.ErrNotADirectory, "the restore fault is joined")
}

func TestSession_PathTooLong(t *testing.T) {
	t.Parallel()

	tree := memdir.MustParse(root, `
a.txt
a-rather-long-directory-name/
  b.txt
`)
	s, err := Start(Options{Root: root, Opener: tree, MaxPathLen: 20})
	require.NoError(t, err)
	defer s.End()

	pos, err := s.Goto(0)
	require.NoError(t, err)
	assert.Equal(t, "/sdcard/a.txt", pos.Path(), "ranks found before the long path still resolve")

	_, err = s.Goto(1)
	assert.ErrorIs(t, err, treenav.ErrPathTooLong)
	assert.Equal(t, 0, s.cur.Depth())
}

func TestSession_List(t *testing.T) {
	t.Parallel()

	tree := memdir.MustParse(root, "b.txt\nsub/\n@dev\na.txt")
	s := startTree(t, tree)

	entries, err := s.List()

	require.NoError(t, err)
	assert.Equal(t, []treenav.Entry{
		{Name: "b.txt", Type: treenav.RegularEntry},
		{Name: "sub", Type: treenav.DirEntry},
		{Name: "dev", Type: treenav.OtherEntry},
		{Name: "a.txt", Type: treenav.RegularEntry},
	}, entries)
}

func TestSession_Last(t *testing.T) {
	t.Parallel()

	s := startTree(t, memdir.MustParse(root, "a\nd/\n  b\nc"))

	pos, err := s.Last()

	require.NoError(t, err)
	assert.Equal(t, 2, pos.Rank)
	assert.Equal(t, "/sdcard/d/b", pos.Path())
}

func TestSession_EndAndMount(t *testing.T) {
	t.Parallel()

	tree := memdir.MustParse(root, "a.txt")
	opts := config.NewDefaultConfig().MountOptions
	m := &mocks.MockMounter{}
	m.On("Mount", root, opts).Return(nil).Once()
	m.On("Unmount", root).Return(nil).Once()

	s, err := Start(Options{Root: root, Opener: tree, Mounter: m, Mount: opts})
	require.NoError(t, err)
	_, err = s.Goto(0)
	require.NoError(t, err)

	require.NoError(t, s.End())
	require.NoError(t, s.End(), "end must be idempotent")
	assert.Equal(t, 0, tree.OpenHandles(), "end must close the cursor")

	for name, call := range map[string]func() error{
		"goto":     func() error { _, err := s.Goto(0); return err },
		"next":     func() error { _, err := s.Next(); return err },
		"previous": func() error { _, err := s.Previous(); return err },
		"current":  func() error { _, err := s.Current(); return err },
		"count":    func() error { _, err := s.Count(); return err },
		"list":     func() error { _, err := s.List(); return err },
	} {
		assert.ErrorIs(t, call(), treenav.ErrSessionClosed, name)
	}
	m.AssertExpectations(t)
}

func TestSession_MountFailure(t *testing.T) {
	t.Parallel()

	m := &mocks.MockMounter{}
	m.On("Mount", root, mock.Anything).Return(errors.New("no card")).Once()

	_, err := Start(Options{Root: root, Opener: memdir.New(root), Mounter: m})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to mount /sdcard")
	m.AssertNotCalled(t, "Unmount", mock.Anything)
}

func TestSession_UnmountFailureReported(t *testing.T) {
	t.Parallel()

	m := &mocks.MockMounter{}
	m.On("Mount", root, mock.Anything).Return(nil)
	m.On("Unmount", root).Return(errors.New("busy"))

	s, err := Start(Options{Root: root, Opener: memdir.New(root), Mounter: m})
	require.NoError(t, err)

	err = s.End()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busy")
}

func TestStart_RequiresRoot(t *testing.T) {
	t.Parallel()

	_, err := Start(Options{})
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewDefaultConfig()
	cfg.Root = "/mnt/card"
	cfg.Include = []string{"*.wav"}

	opts := OptionsFromConfig(cfg)

	assert.Equal(t, "/mnt/card", opts.Root)
	assert.Equal(t, []string{"*.wav"}, opts.Include)
	assert.Equal(t, config.DefaultMaxPathLen, opts.MaxPathLen)
	assert.Equal(t, cfg.MountOptions, opts.Mount)
	assert.Nil(t, opts.Opener)
	assert.Nil(t, opts.Mounter)
}

func TestPosition(t *testing.T) {
	t.Parallel()

	unresolved := Position{Rank: 4}
	assert.Equal(t, "", unresolved.Path())
	assert.Equal(t, "4: File not found", unresolved.String())
	assert.ErrorIs(t, unresolved.Err(), treenav.ErrOutOfRange)

	resolved := Position{Rank: 1, Resolved: true, Dir: "/sdcard/sub", Entry: treenav.Entry{Name: "c.txt", Type: treenav.RegularEntry}}
	assert.Equal(t, "/sdcard/sub/c.txt", resolved.Path())
	assert.Equal(t, "1: /sdcard/sub/c.txt", resolved.String())
	assert.NoError(t, resolved.Err())
}
