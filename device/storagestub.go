package device

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dtfs/dtfs/backend"
)

// storageStub is a backend.Storage double built from injected
// read/write funcs, used by this package's own tests to exercise
// FileDevice's bounds-checking and error-propagation paths without a
// real file on disk. Adapted from go-diskfs's testhelper.FileImpl,
// which serves the identical stubbing role for its backend.Storage.
type storageStub struct {
	readAt  func(b []byte, offset int64) (int, error)
	writeAt func(b []byte, offset int64) (int, error)
	size    int64
}

func (s *storageStub) Stat() (fs.FileInfo, error) { return stubFileInfo{size: s.size}, nil }

// Sys has no real *os.File to hand back; FileDevice only calls it via
// realSectorCount's block-device ioctl path, which the stub devices
// under test never exercise.
func (s *storageStub) Sys() (*os.File, error) {
	return nil, fmt.Errorf("storageStub: no underlying *os.File")
}

func (s *storageStub) Writable() (backend.WritableFile, error) {
	if s.writeAt == nil {
		return nil, fmt.Errorf("storageStub: not writable")
	}
	return s, nil
}

type stubFileInfo struct{ size int64 }

func (i stubFileInfo) Name() string      { return "stub" }
func (i stubFileInfo) Size() int64       { return i.size }
func (i stubFileInfo) Mode() fs.FileMode { return 0 }
func (i stubFileInfo) ModTime() time.Time { return time.Time{} }
func (i stubFileInfo) IsDir() bool       { return false }
func (i stubFileInfo) Sys() any          { return nil }

func (s *storageStub) Read(b []byte) (int, error) { return s.readAt(b, 0) }

func (s *storageStub) Close() error { return nil }

func (s *storageStub) ReadAt(b []byte, offset int64) (int, error) { return s.readAt(b, offset) }

func (s *storageStub) WriteAt(b []byte, offset int64) (int, error) {
	if s.writeAt == nil {
		return 0, fmt.Errorf("storageStub: read-only")
	}
	return s.writeAt(b, offset)
}

//nolint:unused // satisfies backend.File's Seek requirement; unused by FileDevice, which always calls ReadAt/WriteAt.
func (s *storageStub) Seek(offset int64, whence int) (int64, error) {
	return 0, fmt.Errorf("storageStub: Seek not implemented")
}
