package dtfs

import (
	"bytes"
	"encoding/binary"
)

// header is the in-memory form of FSHeader (sector 0). bootStub is the
// 4-byte boot-jump stub from the original C layout (SPEC_FULL.md §4):
// DTFS never interprets it, but keeps it at the front of the sector so
// the remaining field offsets match the documented constants.
type header struct {
	bootStub  [4]byte
	magic     [magicFieldSize]byte
	sctNum    uint32
	mapSize   uint32
	freeNum   uint32
	freeBegin uint32
}

func (h *header) hasMagic() bool {
	return bytes.Equal(trimNUL(h.magic[:]), []byte(FSMagic))
}

func decodeHeader(b []byte) *header {
	h := &header{}
	copy(h.bootStub[:], b[0:4])
	copy(h.magic[:], b[4:4+magicFieldSize])
	off := 4 + magicFieldSize
	h.sctNum = binary.LittleEndian.Uint32(b[off:])
	h.mapSize = binary.LittleEndian.Uint32(b[off+4:])
	h.freeNum = binary.LittleEndian.Uint32(b[off+8:])
	h.freeBegin = binary.LittleEndian.Uint32(b[off+12:])
	return h
}

func (h *header) encode(buf []byte) {
	clear(buf)
	copy(buf[0:4], h.bootStub[:])
	copy(buf[4:4+magicFieldSize], h.magic[:])
	off := 4 + magicFieldSize
	binary.LittleEndian.PutUint32(buf[off:], h.sctNum)
	binary.LittleEndian.PutUint32(buf[off+4:], h.mapSize)
	binary.LittleEndian.PutUint32(buf[off+8:], h.freeNum)
	binary.LittleEndian.PutUint32(buf[off+12:], h.freeBegin)
}

// root is the in-memory form of FSRoot (sector 1): the root directory's
// own sector chain descriptor. It has the identical shape as a
// FileEntry's chain fields (sctBegin/sctNum/lastBytes), which is why
// the sector-append logic in root.go (checkStorage) is shared between
// growing the root directory and growing a file's data chain.
type root struct {
	magic     [magicFieldSize]byte
	sctBegin  uint32
	sctNum    uint32
	lastBytes uint32
}

func (r *root) hasMagic() bool {
	return bytes.Equal(trimNUL(r.magic[:]), []byte(RootMagic))
}

func decodeRoot(b []byte) *root {
	r := &root{}
	copy(r.magic[:], b[0:magicFieldSize])
	off := magicFieldSize
	r.sctBegin = binary.LittleEndian.Uint32(b[off:])
	r.sctNum = binary.LittleEndian.Uint32(b[off+4:])
	r.lastBytes = binary.LittleEndian.Uint32(b[off+8:])
	return r
}

func (r *root) encode(buf []byte) {
	clear(buf)
	copy(buf[0:magicFieldSize], r.magic[:])
	off := magicFieldSize
	binary.LittleEndian.PutUint32(buf[off:], r.sctBegin)
	binary.LittleEndian.PutUint32(buf[off+4:], r.sctNum)
	binary.LittleEndian.PutUint32(buf[off+8:], r.lastBytes)
}

// FileEntry is the on-disk, fixed-size (FEBytes) directory record
// spec.md §3 describes. It is also the value FileSystem.Stat returns
// and the value an openFile carries a working copy of while open.
type FileEntry struct {
	Name      string
	SctBegin  uint32
	SctNum    uint32
	LastBytes uint32
	Type      uint32
	InSctIdx  uint32
	InSctOff  uint32
}

func decodeFileEntry(b []byte) FileEntry {
	name := string(trimNUL(b[0:nameFieldSize]))
	off := nameFieldSize
	return FileEntry{
		Name:      name,
		SctBegin:  binary.LittleEndian.Uint32(b[off:]),
		SctNum:    binary.LittleEndian.Uint32(b[off+4:]),
		LastBytes: binary.LittleEndian.Uint32(b[off+8:]),
		Type:      binary.LittleEndian.Uint32(b[off+12:]),
		InSctIdx:  binary.LittleEndian.Uint32(b[off+16:]),
		InSctOff:  binary.LittleEndian.Uint32(b[off+20:]),
	}
}

func (fe *FileEntry) encode(buf []byte) {
	clear(buf[:FEBytes])
	copy(buf[0:nameFieldSize], fe.Name)
	off := nameFieldSize
	binary.LittleEndian.PutUint32(buf[off:], fe.SctBegin)
	binary.LittleEndian.PutUint32(buf[off+4:], fe.SctNum)
	binary.LittleEndian.PutUint32(buf[off+8:], fe.LastBytes)
	binary.LittleEndian.PutUint32(buf[off+12:], fe.Type)
	binary.LittleEndian.PutUint32(buf[off+16:], fe.InSctIdx)
	binary.LittleEndian.PutUint32(buf[off+20:], fe.InSctOff)
	// reserved[2] stays zero
}

// Length returns the file's length in bytes given the device's sector
// size, invariant 3 of spec.md §3.
func (fe *FileEntry) Length(sectorSize uint32) uint32 {
	if fe.SctBegin == SCTEnd {
		return 0
	}
	return (fe.SctNum-1)*sectorSize + fe.LastBytes
}

func trimNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
