// Package dtfs is the top-level convenience entry point: given a path
// to an image file (or a block device), format or mount it as a DTFS
// filesystem without the caller having to wire backend/file,
// device.FileDevice, and filesystem/dtfs together by hand — the same
// role go-diskfs's root diskfs.Create/diskfs.Open played relative to
// disk.Disk, just without a partition table in between.
package dtfs

import (
	"fmt"

	"github.com/dtfs/dtfs/backend/file"
	"github.com/dtfs/dtfs/device"
	core "github.com/dtfs/dtfs/filesystem/dtfs"
)

// Re-exported so callers of this package never need to import
// filesystem/dtfs directly for the common case.
type (
	FileSystem = core.FileSystem
	FileEntry  = core.FileEntry
	Handle     = core.Handle
	Option     = core.Option
)

var WithLogger = core.WithLogger

// FormatFile creates a new image file at path with totalSectors
// sectors of sectorSize bytes each, formats it, and returns it mounted.
// path must not already exist.
func FormatFile(path string, totalSectors, sectorSize uint32, opts ...Option) (*FileSystem, error) {
	if sectorSize == 0 {
		sectorSize = device.DefaultSectorSize
	}
	storage, err := file.CreateFromPath(path, int64(totalSectors)*int64(sectorSize))
	if err != nil {
		return nil, fmt.Errorf("dtfs: create %s: %w", path, err)
	}
	dev, err := device.NewFileDevice(storage, sectorSize)
	if err != nil {
		return nil, err
	}
	return core.Format(dev, opts...)
}

// MountFile opens an existing, already-formatted image file at path.
func MountFile(path string, sectorSize uint32, readOnly bool, opts ...Option) (*FileSystem, error) {
	if sectorSize == 0 {
		sectorSize = device.DefaultSectorSize
	}
	storage, err := file.OpenFromPath(path, readOnly)
	if err != nil {
		return nil, fmt.Errorf("dtfs: open %s: %w", path, err)
	}
	dev, err := device.NewFileDevice(storage, sectorSize)
	if err != nil {
		return nil, err
	}
	return core.Mount(dev, opts...)
}

// FormatMem formats a fresh in-memory image, for tests and tooling that
// want a disposable DTFS filesystem with no file on disk.
func FormatMem(totalSectors, sectorSize uint32, opts ...Option) (*FileSystem, device.Device, error) {
	if sectorSize == 0 {
		sectorSize = device.DefaultSectorSize
	}
	dev := device.NewMemDevice(totalSectors, sectorSize)
	fs, err := core.Format(dev, opts...)
	return fs, dev, err
}
