package treenav

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirError_Is(t *testing.T) {
	t.Parallel()

	err := NewDirError("open", "/sdcard/missing", ErrNotFound, fs.ErrNotExist)
	wrapped := fmt.Errorf("navigate: %w", err)

	assert.ErrorIs(t, wrapped, ErrNotFound, "must match its kind through wrapping")
	assert.ErrorIs(t, wrapped, fs.ErrNotExist, "must match its cause through wrapping")
	assert.NotErrorIs(t, wrapped, ErrIO)

	var de *DirError
	assert.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "/sdcard/missing", de.Path)
}

func TestDirError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *DirError
		want string
	}{
		{"with_cause", NewDirError("read", "/a", ErrIO, errors.New("bad sector")), "read /a: i/o error: bad sector"},
		{"without_cause", NewDirError("open", "/a/f", ErrNotADirectory, nil), "open /a/f: not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsFault(t *testing.T) {
	t.Parallel()

	assert.False(t, IsFault(nil))
	assert.False(t, IsFault(ErrOutOfRange))
	assert.True(t, IsFault(NewDirError("read", "/", ErrIO, nil)))
	assert.True(t, IsFault(ErrSessionClosed))
}

func TestEntry_IsDir(t *testing.T) {
	t.Parallel()

	assert.True(t, Entry{Name: "music", Type: DirEntry}.IsDir())
	assert.False(t, Entry{Name: ".", Type: DirEntry}.IsDir(), "dot entries are never descended")
	assert.False(t, Entry{Name: "..", Type: DirEntry}.IsDir(), "dot entries are never descended")
	assert.False(t, Entry{Name: "a.mp3", Type: RegularEntry}.IsDir())
	assert.True(t, Entry{Name: "a.mp3", Type: RegularEntry}.IsRegular())
	assert.False(t, Entry{Name: "link", Type: OtherEntry}.IsRegular())
}
