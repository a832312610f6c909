package device

import (
	"fmt"

	"github.com/dtfs/dtfs/backend"
)

// FileDevice adapts a backend.Storage (an open OS file or block device)
// into a fixed-sector-size Device by dividing the underlying byte range
// into SectorSize()-sized chunks, exactly the way backend/file.New turns
// an *os.File into something go-diskfs's filesystem packages can address
// one cluster/sector at a time.
type FileDevice struct {
	storage    backend.Storage
	sectorSize uint32
	sectors    uint32
}

// NewFileDevice wraps storage as a Device with the given sector size.
// The usable sector count is derived from storage's current size,
// rounded down; a short final partial sector is inaccessible, the same
// way a partial final cluster is ignored by a real FAT driver.
func NewFileDevice(storage backend.Storage, sectorSize uint32) (*FileDevice, error) {
	if sectorSize == 0 {
		sectorSize = DefaultSectorSize
	}
	info, err := storage.Stat()
	if err != nil {
		return nil, fmt.Errorf("dtfs: stat backing storage: %w", err)
	}
	sectors, err := realSectorCount(storage, uint32(info.Size()), sectorSize)
	if err != nil {
		return nil, err
	}
	return &FileDevice{
		storage:    storage,
		sectorSize: sectorSize,
		sectors:    sectors,
	}, nil
}

func (f *FileDevice) Sectors() uint32    { return f.sectors }
func (f *FileDevice) SectorSize() uint32 { return f.sectorSize }

func (f *FileDevice) ReadSector(si uint32, buf []byte) error {
	if err := checkBounds(f, si, buf); err != nil {
		return err
	}
	n, err := f.storage.ReadAt(buf, int64(si)*int64(f.sectorSize))
	if err != nil || n != len(buf) {
		return fmt.Errorf("%w: sector %d: %v", ErrDeviceIO, si, err)
	}
	return nil
}

func (f *FileDevice) WriteSector(si uint32, buf []byte) error {
	if err := checkBounds(f, si, buf); err != nil {
		return err
	}
	w, err := f.storage.Writable()
	if err != nil {
		return fmt.Errorf("%w: sector %d: %v", ErrDeviceIO, si, err)
	}
	n, err := w.WriteAt(buf, int64(si)*int64(f.sectorSize))
	if err != nil || n != len(buf) {
		return fmt.Errorf("%w: sector %d: %v", ErrDeviceIO, si, err)
	}
	return nil
}

// Close releases the underlying storage.
func (f *FileDevice) Close() error {
	return f.storage.Close()
}
