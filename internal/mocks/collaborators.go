package mocks

import (
	"github.com/brettbedarf/treenav"
	"github.com/brettbedarf/treenav/config"
	"github.com/stretchr/testify/mock"
)

// MockDirOpener implements treenav.DirOpener for testing across packages
type MockDirOpener struct {
	mock.Mock
}

func (m *MockDirOpener) OpenDir(path string) (treenav.DirHandle, error) {
	args := m.Called(path)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(string) treenav.DirHandle); ok {
		return fn(path), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(treenav.DirHandle), args.Error(1)
}

var _ treenav.DirOpener = (*MockDirOpener)(nil)

// MockDirHandle implements treenav.DirHandle for testing across packages
type MockDirHandle struct {
	mock.Mock
}

func (m *MockDirHandle) ReadEntry() (treenav.Entry, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return treenav.Entry{}, args.Error(1)
	}
	return args.Get(0).(treenav.Entry), args.Error(1)
}

func (m *MockDirHandle) Rewind() error {
	return m.Called().Error(0)
}

func (m *MockDirHandle) Tell() treenav.Mark {
	args := m.Called()
	return args.Get(0).(treenav.Mark)
}

func (m *MockDirHandle) Seek(mark treenav.Mark) error {
	return m.Called(mark).Error(0)
}

func (m *MockDirHandle) Close() error {
	return m.Called().Error(0)
}

var _ treenav.DirHandle = (*MockDirHandle)(nil)

// MockMounter implements treenav.Mounter for testing across packages
type MockMounter struct {
	mock.Mock
}

func (m *MockMounter) Mount(root string, opts config.MountOptions) error {
	return m.Called(root, opts).Error(0)
}

func (m *MockMounter) Unmount(root string) error {
	return m.Called(root).Error(0)
}

var _ treenav.Mounter = (*MockMounter)(nil)
