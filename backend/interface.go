// Package backend is the "(a) block-device driver" collaborator
// spec.md §1 describes: something device.FileDevice can lean on for
// stat, offset-addressed read/write, and, when the backing object is a
// real block device rather than a plain image file, an *os.File to
// hand to device's ioctl-based sizing helpers.
package backend

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// ErrIncorrectOpenMode is returned by Storage.Writable when the
// underlying file was opened read-only.
var ErrIncorrectOpenMode = errors.New("disk file or device not open for write")

// ErrNotSuitable is returned when the underlying fs.File doesn't
// implement the capability being requested (ReadAt, Seek, or the
// read-write/ioctl escape hatches Storage adds on top of fs.File).
var ErrNotSuitable = errors.New("backing file is not suitable")

// File is the minimal surface device.FileDevice needs from an open
// backing object: stat, positioned reads, seeking, and closing.
type File interface {
	fs.File
	io.ReaderAt
	io.Seeker
	io.Closer
}

// WritableFile is a File opened for writing.
type WritableFile interface {
	File
	io.WriterAt
}

// Storage is a File plus the two escape hatches device needs: Sys, for
// ioctl-based real-block-device sizing (see device/sectorcount_unix.go),
// and Writable, which fails fast with ErrIncorrectOpenMode rather than
// letting a read-only mount silently accept writes.
type Storage interface {
	File
	Sys() (*os.File, error)
	Writable() (WritableFile, error)
}
