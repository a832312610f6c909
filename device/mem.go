package device

import "fmt"

// MemDevice is an in-memory Device, grounded on the teacher's
// testhelper.FileImpl stub (a reader/writer pair standing in for a real
// backend.Storage). It is used by tests and by tooling that wants to
// build or inspect a DTFS image without touching disk.
type MemDevice struct {
	sectorSize uint32
	data       []byte
}

// NewMemDevice allocates a zero-filled in-memory device of the given
// sector count and sector size.
func NewMemDevice(sectors, sectorSize uint32) *MemDevice {
	if sectorSize == 0 {
		sectorSize = DefaultSectorSize
	}
	return &MemDevice{
		sectorSize: sectorSize,
		data:       make([]byte, uint64(sectors)*uint64(sectorSize)),
	}
}

func (m *MemDevice) Sectors() uint32    { return uint32(len(m.data)) / m.sectorSize }
func (m *MemDevice) SectorSize() uint32 { return m.sectorSize }

func (m *MemDevice) ReadSector(si uint32, buf []byte) error {
	if err := checkBounds(m, si, buf); err != nil {
		return err
	}
	off := uint64(si) * uint64(m.sectorSize)
	copy(buf, m.data[off:off+uint64(m.sectorSize)])
	return nil
}

func (m *MemDevice) WriteSector(si uint32, buf []byte) error {
	if err := checkBounds(m, si, buf); err != nil {
		return err
	}
	off := uint64(si) * uint64(m.sectorSize)
	copy(m.data[off:off+uint64(m.sectorSize)], buf)
	return nil
}

// Bytes returns the raw backing buffer, letting callers snapshot or
// diff an in-memory image directly (e.g. in fuzz targets).
func (m *MemDevice) Bytes() []byte { return m.data }

// String implements fmt.Stringer for debug output in tests.
func (m *MemDevice) String() string {
	return fmt.Sprintf("MemDevice(sectors=%d, sectorSize=%d)", m.Sectors(), m.sectorSize)
}
