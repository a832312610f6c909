package dtfs

import "encoding/binary"

// The sector map (spec.md §4.1) is a logical array of 32-bit entries,
// one per data sector, packed across sectors [2, 2+mapSize). Each entry
// is either SCTEnd or a relative index into that same array, meaning
// "the next sector in this chain is absolute(entry)". The free list and
// every file's chain (and the root directory's own chain) share this
// one encoding — the only difference is which head (freeBegin vs some
// FileEntry.SctBegin vs FSRoot.sctBegin) a given chain is reachable
// from. This file is the DTFS analogue of fat32/table.go.

func absoluteSector(h *header, k uint32) uint32 {
	if k == SCTEnd {
		return SCTEnd
	}
	return fixedSectorCount + h.mapSize + k
}

func relativeSector(h *header, si uint32) uint32 {
	return si - fixedSectorCount - h.mapSize
}

// mapPos locates a single map entry: which map sector holds it, and at
// what word offset within that sector.
type mapPos struct {
	mapSectorIndex uint32
	sector         []byte
	idxOff         uint32
}

func (fs *FileSystem) findInMap(h *header, si uint32) (*mapPos, error) {
	if si == SCTEnd {
		return nil, ErrBadArgument
	}
	k := relativeSector(h, si)
	itemsPerSector := mapItemsPerSector(fs.sectorSize())
	sctOff := k / itemsPerSector
	idxOff := k % itemsPerSector
	mapSectorIndex := fixedSectorCount + sctOff
	sector, err := fs.readSector(mapSectorIndex)
	if err != nil {
		return nil, err
	}
	return &mapPos{mapSectorIndex: mapSectorIndex, sector: sector, idxOff: idxOff}, nil
}

func (mp *mapPos) get() uint32 {
	return binary.LittleEndian.Uint32(mp.sector[mp.idxOff*4:])
}

func (mp *mapPos) set(v uint32) {
	binary.LittleEndian.PutUint32(mp.sector[mp.idxOff*4:], v)
}

func (fs *FileSystem) writeMapSector(mp *mapPos) error {
	return fs.writeSector(mp.mapSectorIndex, mp.sector)
}

// next is NextSector: the absolute sector following si in whatever
// chain si belongs to, or SCTEnd.
func (fs *FileSystem) next(h *header, si uint32) (uint32, error) {
	mp, err := fs.findInMap(h, si)
	if err != nil {
		return SCTEnd, err
	}
	rel := mp.get()
	if rel == SCTEnd {
		return SCTEnd, nil
	}
	return absoluteSector(h, rel), nil
}

// alloc is AllocSector: pop the head of the free list, mark it
// terminal, and persist header + map sector. Returns ErrOutOfSectors
// when the free list is empty, and ErrDeviceIO (wrapped) if either
// write fails — in both cases matching spec.md §4.1's "caller aborts
// the higher-level operation, no rollback" failure policy.
func (fs *FileSystem) alloc() (uint32, error) {
	h, err := fs.readHeader()
	if err != nil {
		return SCTEnd, err
	}
	if h.freeBegin == SCTEnd {
		return SCTEnd, ErrOutOfSectors
	}
	mp, err := fs.findInMap(h, h.freeBegin)
	if err != nil {
		return SCTEnd, err
	}
	ret := h.freeBegin
	nextRel := mp.get()
	mp.set(SCTEnd)
	h.freeBegin = absoluteSector(h, nextRel)
	h.freeNum--

	if err := fs.writeHeader(h); err != nil {
		return SCTEnd, err
	}
	if err := fs.writeMapSector(mp); err != nil {
		return SCTEnd, err
	}
	return ret, nil
}

// free is FreeSector: reinsert si at the head of the free list.
func (fs *FileSystem) free(si uint32) error {
	h, err := fs.readHeader()
	if err != nil {
		return err
	}
	mp, err := fs.findInMap(h, si)
	if err != nil {
		return err
	}
	mp.set(relativeSector(h, h.freeBegin))
	h.freeBegin = si
	h.freeNum++

	if err := fs.writeHeader(h); err != nil {
		return err
	}
	return fs.writeMapSector(mp)
}

// markTerminal is MarkSector: force si's map entry to SCTEnd without
// touching the free list, used by AdjustStorage (root.go) to cut a
// chain short.
func (fs *FileSystem) markTerminal(si uint32) error {
	h, err := fs.readHeader()
	if err != nil {
		return err
	}
	mp, err := fs.findInMap(h, si)
	if err != nil {
		return err
	}
	mp.set(SCTEnd)
	return fs.writeMapSector(mp)
}

// findLast is FindLast: walk a chain from sctBegin to its terminal
// sector.
func (fs *FileSystem) findLast(sctBegin uint32) (uint32, error) {
	h, err := fs.readHeader()
	if err != nil {
		return SCTEnd, err
	}
	ret := SCTEnd
	next := sctBegin
	for next != SCTEnd {
		ret = next
		next, err = fs.next(h, next)
		if err != nil {
			return SCTEnd, err
		}
	}
	return ret, nil
}

// findPrev is FindPrev: the sector immediately before si in the chain
// headed by sctBegin, or SCTEnd if si is not found in the chain.
func (fs *FileSystem) findPrev(sctBegin, si uint32) (uint32, error) {
	h, err := fs.readHeader()
	if err != nil {
		return SCTEnd, err
	}
	ret := SCTEnd
	next := sctBegin
	for next != SCTEnd && next != si {
		ret = next
		next, err = fs.next(h, next)
		if err != nil {
			return SCTEnd, err
		}
	}
	if next == SCTEnd {
		return SCTEnd, nil
	}
	return ret, nil
}

// findIndex is FindIndex: the idx-th sector (0-based) in the chain
// headed by sctBegin, or SCTEnd if the chain has idx or fewer sectors.
func (fs *FileSystem) findIndex(sctBegin, idx uint32) (uint32, error) {
	h, err := fs.readHeader()
	if err != nil {
		return SCTEnd, err
	}
	ret := sctBegin
	var i uint32
	for i < idx && ret != SCTEnd {
		ret, err = fs.next(h, ret)
		if err != nil {
			return SCTEnd, err
		}
		i++
	}
	return ret, nil
}

// addToLast is AddToLast: append si to the end of the chain headed by
// sctBegin (sctBegin must already have at least one sector). When the
// chain's current last sector and si fall in the same map sector, only
// one map sector needs writing; otherwise both do.
func (fs *FileSystem) addToLast(sctBegin, si uint32) error {
	last, err := fs.findLast(sctBegin)
	if err != nil {
		return err
	}
	if last == SCTEnd {
		return ErrBadArgument
	}
	h, err := fs.readHeader()
	if err != nil {
		return err
	}
	lmp, err := fs.findInMap(h, last)
	if err != nil {
		return err
	}
	if lmp.mapSectorIndex == fixedSectorCount+relativeSector(h, si)/mapItemsPerSector(fs.sectorSize()) {
		smp, err := fs.findInMap(h, si)
		if err != nil {
			return err
		}
		lmp.set(relativeSector(h, si))
		lmp.set32At(smp.idxOff, SCTEnd)
		return fs.writeMapSector(lmp)
	}
	smp, err := fs.findInMap(h, si)
	if err != nil {
		return err
	}
	lmp.set(relativeSector(h, si))
	smp.set(SCTEnd)
	if err := fs.writeMapSector(lmp); err != nil {
		return err
	}
	return fs.writeMapSector(smp)
}

// set32At writes v at word offset idxOff within the same backing
// sector as mp (used only when last and si share a map sector, so a
// single sector buffer holds both entries).
func (mp *mapPos) set32At(idxOff uint32, v uint32) {
	binary.LittleEndian.PutUint32(mp.sector[idxOff*4:], v)
}
