package dtfs

import (
	"encoding/binary"
	"fmt"

	"github.com/dtfs/dtfs/device"
)

// Format is FSFormat: lay down a fresh header, an empty root, and an
// ascending free list across every data sector, discarding whatever was
// on dev before. Returns a *FileSystem already mounted on the freshly
// formatted image.
func Format(dev device.Device, opts ...Option) (*FileSystem, error) {
	fs := newFileSystem(dev, opts)
	sectorSize := fs.sectorSize()
	total := dev.Sectors()
	if total <= fixedSectorCount {
		return nil, fmt.Errorf("%w: device has only %d sectors, need more than %d", ErrBadArgument, total, fixedSectorCount)
	}

	mapSize := mapSizeFor(total, sectorSize)
	dataSectors := total - fixedSectorCount - mapSize
	if dataSectors == 0 {
		return nil, fmt.Errorf("%w: device too small to hold any data sectors once the map is carved out", ErrBadArgument)
	}

	h := &header{
		sctNum:    total,
		mapSize:   mapSize,
		freeNum:   dataSectors,
		freeBegin: fixedSectorCount + mapSize, // first data sector, absolute
	}
	copy(h.magic[:], FSMagic)
	if err := fs.writeHeader(h); err != nil {
		return nil, err
	}

	r := &root{sctBegin: SCTEnd, sctNum: 0, lastBytes: sectorSize}
	copy(r.magic[:], RootMagic)
	if err := fs.writeRoot(r); err != nil {
		return nil, err
	}

	if err := fs.formatMap(h, dataSectors); err != nil {
		return nil, err
	}

	fs.log.WithField("sectors", total).WithField("mapSize", mapSize).Info("formatted dtfs image")
	return fs, nil
}

// formatMap writes every map entry so that data sector k (0-based, k in
// [0, dataSectors)) points at k+1, and the last entry is SCTEnd — a
// single ascending free-list chain, matching FSFormat's initial layout.
func (fs *FileSystem) formatMap(h *header, dataSectors uint32) error {
	sectorSize := fs.sectorSize()
	itemsPerSector := mapItemsPerSector(sectorSize)
	buf := make([]byte, sectorSize)

	var k uint32
	for mapSect := uint32(0); mapSect < h.mapSize; mapSect++ {
		clear(buf)
		for i := uint32(0); i < itemsPerSector && k < dataSectors; i, k = i+1, k+1 {
			next := k + 1
			if next >= dataSectors {
				next = SCTEnd
			}
			binary.LittleEndian.PutUint32(buf[i*4:], next)
		}
		if err := fs.writeSector(fixedSectorCount+mapSect, buf); err != nil {
			return err
		}
	}
	return nil
}
