// Package file adapts a real OS file or block device — opened by path
// or handed in already-open — into a backend.Storage, the shape
// device.NewFileDevice expects to sit on top of.
package file

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dtfs/dtfs/backend"
)

// imageFile is a backend.Storage backed by a plain fs.File: an *os.File
// opened against an image path or a real block device, or any other
// fs.File a caller hands in directly via New.
type imageFile struct {
	storage  fs.File
	readOnly bool
}

var _ backend.Storage = imageFile{}

// New wraps an already-open fs.File as a backend.Storage. readOnly
// governs whether Writable succeeds.
func New(f fs.File, readOnly bool) backend.Storage {
	return imageFile{storage: f, readOnly: readOnly}
}

// OpenFromPath opens an existing image file or block device at
// pathName — e.g. an on-disk DTFS image, or a raw device such as
// /dev/sda — failing if it does not already exist.
func OpenFromPath(pathName string, readOnly bool) (backend.Storage, error) {
	if pathName == "" {
		return nil, errors.New("must pass device or file name")
	}
	if _, err := os.Stat(pathName); os.IsNotExist(err) {
		return nil, fmt.Errorf("provided device/file %s does not exist", pathName)
	}

	openMode := os.O_RDONLY
	if !readOnly {
		openMode |= os.O_RDWR | os.O_EXCL
	}
	f, err := os.OpenFile(pathName, openMode, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open device %s with mode %v: %w", pathName, openMode, err)
	}
	return imageFile{storage: f, readOnly: readOnly}, nil
}

// CreateFromPath creates a new image file at pathName and truncates it
// to size bytes, the shape FSFormat (filesystem/dtfs.Format) expects to
// write a header, root, and sector map into. pathName must not already
// exist; size must be a whole number of sectors times the sector size
// the caller intends to format with.
func CreateFromPath(pathName string, size int64) (backend.Storage, error) {
	if pathName == "" {
		return nil, errors.New("must pass device name")
	}
	if size <= 0 {
		return nil, errors.New("must pass valid device size to create")
	}
	f, err := os.OpenFile(pathName, os.O_RDWR|os.O_EXCL|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("could not create device %s: %w", pathName, err)
	}
	if err := os.Truncate(pathName, size); err != nil {
		return nil, fmt.Errorf("could not expand device %s to size %d: %w", pathName, size, err)
	}
	return imageFile{storage: f, readOnly: false}, nil
}

// Sys returns the underlying *os.File, for device's ioctl-based
// real-block-device sizing. It fails with backend.ErrNotSuitable for a
// Storage built over something other than a genuine *os.File (e.g. an
// in-memory fs.File used in tests).
func (f imageFile) Sys() (*os.File, error) {
	if osFile, ok := f.storage.(*os.File); ok {
		return osFile, nil
	}
	return nil, backend.ErrNotSuitable
}

// Writable returns f as a backend.WritableFile, or
// backend.ErrIncorrectOpenMode if f was opened read-only.
func (f imageFile) Writable() (backend.WritableFile, error) {
	rwFile, ok := f.storage.(backend.WritableFile)
	if !ok {
		return nil, backend.ErrNotSuitable
	}
	if f.readOnly {
		return nil, backend.ErrIncorrectOpenMode
	}
	return rwFile, nil
}

func (f imageFile) Stat() (fs.FileInfo, error) { return f.storage.Stat() }

func (f imageFile) Read(b []byte) (int, error) { return f.storage.Read(b) }

func (f imageFile) Close() error { return f.storage.Close() }

func (f imageFile) ReadAt(p []byte, off int64) (int, error) {
	readerAt, ok := f.storage.(io.ReaderAt)
	if !ok {
		return -1, backend.ErrNotSuitable
	}
	return readerAt.ReadAt(p, off)
}

func (f imageFile) Seek(offset int64, whence int) (int64, error) {
	seeker, ok := f.storage.(io.Seeker)
	if !ok {
		return -1, backend.ErrNotSuitable
	}
	return seeker.Seek(offset, whence)
}
