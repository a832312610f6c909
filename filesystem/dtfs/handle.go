package dtfs

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Handle is an opaque reference to an open file, a random uuid key
// into FileSystem.open rather than a raw pointer — spec.md §9's
// recommended fix for the original FileDesc* handle.
type Handle = uuid.UUID

// openFile is FileDesc: an open file's cursor plus its single-sector
// write-back cache. fe is the handle's working copy of the directory
// entry; it is only written back to disk (flushEntry) by Flush (and so
// by Close) and by Erase.
type openFile struct {
	fs   *FileSystem
	name string
	fe   FileEntry

	offset uint32 // byte offset into the file, spec.md §5
	objIdx uint32 // absolute sector currently cached, or SCTEnd if none

	cache   []byte
	changed bool
}

// Open is FOpen: open name for random-access read/write, returning a
// Handle. A name may only be open once at a time (ErrAlreadyOpen),
// mirroring spec.md §5's single-writer assumption for a given file.
func (fs *FileSystem) Open(name string) (Handle, error) {
	for _, f := range fs.open {
		if f.name == name {
			return Handle{}, ErrAlreadyOpen
		}
	}
	fe, err := fs.findByName(name)
	if err != nil {
		return Handle{}, err
	}
	of := &openFile{
		fs:     fs,
		name:   name,
		fe:     fe,
		objIdx: SCTEnd,
		cache:  make([]byte, fs.sectorSize()),
	}
	h := uuid.New()
	fs.open[h] = of
	fs.log.WithField("file", name).Debug("opened")
	return h, nil
}

func (fs *FileSystem) handle(h Handle) (*openFile, error) {
	of, ok := fs.open[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return of, nil
}

// flushCache is FlushCache: write the cache sector back to the device
// if it is dirty.
func (of *openFile) flushCache() error {
	if !of.changed || of.objIdx == SCTEnd {
		return nil
	}
	if err := of.fs.writeSector(of.objIdx, of.cache); err != nil {
		return err
	}
	of.changed = false
	return nil
}

// loadCache is ReadToCache: point the cache at sector si (the idx-th
// sector, 0-based, of the file's chain), reading it from the device.
func (of *openFile) loadCache(idx uint32) error {
	si, err := of.fs.findIndex(of.fe.SctBegin, idx)
	if err != nil {
		return err
	}
	if si == SCTEnd {
		return ErrDeviceIO
	}
	buf, err := of.fs.readSector(si)
	if err != nil {
		return err
	}
	copy(of.cache, buf)
	of.objIdx = si
	return nil
}

// prepareCache is PrepareCache: make sure the cache holds the sector
// containing the file's current offset, growing the file's chain by
// exactly one sector if offset addresses the sector immediately past
// the current end of the chain (replicating the original's
// single-sector-per-call extension limit, spec.md §9 — callers writing
// across more than one never-yet-allocated sector must call this once
// per sector, which Write below does).
func (of *openFile) prepareCache() error {
	sectorSize := of.fs.sectorSize()
	idx := of.offset / sectorSize

	if idx < of.fe.SctNum {
		if of.objIdx != SCTEnd {
			si, err := of.fs.findIndex(of.fe.SctBegin, idx)
			if err != nil {
				return err
			}
			if si == of.objIdx {
				return nil
			}
		}
		if err := of.flushCache(); err != nil {
			return err
		}
		return of.loadCache(idx)
	}

	if idx != of.fe.SctNum {
		return ErrBadArgument
	}
	if err := of.flushCache(); err != nil {
		return err
	}
	if err := of.fs.checkStorage(&of.fe.SctBegin, &of.fe.SctNum, &of.fe.LastBytes); err != nil {
		return err
	}
	return of.loadCache(idx)
}

// Read implements io.Reader against the file's current offset, never
// reading past the file's current length.
func (of *openFile) Read(p []byte) (int, error) {
	length := of.fe.Length(of.fs.sectorSize())
	if of.offset >= length {
		return 0, io.EOF
	}
	sectorSize := of.fs.sectorSize()
	var n int
	// ok tracks whether the loop's last prepareCache succeeded,
	// deliberately separate from n (bytes actually copied) — spec.md §9's
	// flagged FRead discrepancy, kept rather than collapsed into one
	// variable.
	ok := true
	for n < len(p) && of.offset < length && ok {
		if err := of.prepareCache(); err != nil {
			ok = false
			return n, err
		}
		within := of.offset % sectorSize
		avail := sectorSize - within
		remaining := uint32(len(p) - n)
		if remaining < avail {
			avail = remaining
		}
		if uint32(length-of.offset) < avail {
			avail = length - of.offset
		}
		copy(p[n:], of.cache[within:within+avail])
		n += int(avail)
		of.offset += avail
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer against the file's current offset,
// extending the file (and its chain, one sector at a time via
// prepareCache) as needed.
func (of *openFile) Write(p []byte) (int, error) {
	sectorSize := of.fs.sectorSize()
	var n int
	for n < len(p) {
		if err := of.prepareCache(); err != nil {
			return n, err
		}
		curIdx := of.offset / sectorSize
		within := of.offset % sectorSize
		avail := sectorSize - within
		remaining := uint32(len(p) - n)
		if remaining < avail {
			avail = remaining
		}
		copy(of.cache[within:within+avail], p[n:n+int(avail)])
		of.changed = true
		n += int(avail)
		of.offset += avail

		if curIdx == of.fe.SctNum-1 && within+avail > of.fe.LastBytes {
			of.fe.LastBytes = within + avail
		}
	}
	return n, nil
}

// Seek implements io.Seeker. Only io.SeekStart, io.SeekCurrent, and
// io.SeekEnd are supported, matching FSeek's whence argument.
func (of *openFile) Seek(offset int64, whence int) (int64, error) {
	length := int64(of.fe.Length(of.fs.sectorSize()))
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(of.offset) + offset
	case io.SeekEnd:
		target = length + offset
	default:
		return 0, ErrBadArgument
	}
	if target < 0 || target > length {
		return 0, ErrBadArgument
	}
	if err := of.flushCache(); err != nil {
		return 0, err
	}
	of.objIdx = SCTEnd
	of.offset = uint32(target)
	return target, nil
}

// Tell is FTell.
func (of *openFile) Tell() uint32 { return of.offset }

// Length is FLength: the file's current length in bytes.
func (of *openFile) Length() uint32 { return of.fe.Length(of.fs.sectorSize()) }

// Flush is FFlush: write back the dirty cache sector and the directory
// entry, without closing the handle.
func (of *openFile) Flush() error {
	if err := of.flushCache(); err != nil {
		return err
	}
	return of.fs.flushEntry(&of.fe)
}

// Erase is FErase: remove up to bytes bytes from the end of the file,
// independent of the current cursor, freeing any now-unreachable
// trailing sectors. If the cursor now lies past the new length, it is
// clamped to the new end of file. Returns the number of bytes actually
// erased, which can be less than requested if the file becomes empty
// first.
func (of *openFile) Erase(bytes uint32) (uint32, error) {
	if err := of.flushCache(); err != nil {
		return 0, err
	}
	of.objIdx = SCTEnd
	erased, err := of.fs.eraseLast(&of.fe.SctBegin, &of.fe.SctNum, &of.fe.LastBytes, bytes)
	if err != nil {
		return erased, err
	}
	if err := of.fs.flushEntry(&of.fe); err != nil {
		return erased, err
	}
	if newLength := of.fe.Length(of.fs.sectorSize()); of.offset > newLength {
		of.offset = newLength
	}
	return erased, nil
}

// Close is FClose: flush the cache and directory entry, then drop the
// handle. The handle is invalid for any further operation afterward.
func (fs *FileSystem) Close(h Handle) error {
	of, err := fs.handle(h)
	if err != nil {
		return err
	}
	ferr := of.Flush()
	delete(fs.open, h)
	fs.log.WithField("file", of.name).Debug("closed")
	return ferr
}

// Read reads up to len(p) bytes from h's current offset, advancing it.
func (fs *FileSystem) Read(h Handle, p []byte) (int, error) {
	of, err := fs.handle(h)
	if err != nil {
		return 0, err
	}
	return of.Read(p)
}

// Write writes p at h's current offset, advancing it and growing the
// file as needed.
func (fs *FileSystem) Write(h Handle, p []byte) (int, error) {
	of, err := fs.handle(h)
	if err != nil {
		return 0, err
	}
	return of.Write(p)
}

// Seek repositions h's offset.
func (fs *FileSystem) Seek(h Handle, offset int64, whence int) (int64, error) {
	of, err := fs.handle(h)
	if err != nil {
		return 0, err
	}
	return of.Seek(offset, whence)
}

// Tell returns h's current offset.
func (fs *FileSystem) Tell(h Handle) (uint32, error) {
	of, err := fs.handle(h)
	if err != nil {
		return 0, err
	}
	return of.Tell(), nil
}

// Length returns h's current file length.
func (fs *FileSystem) Length(h Handle) (uint32, error) {
	of, err := fs.handle(h)
	if err != nil {
		return 0, err
	}
	return of.Length(), nil
}

// Flush persists h's dirty cache sector and directory entry.
func (fs *FileSystem) Flush(h Handle) error {
	of, err := fs.handle(h)
	if err != nil {
		return err
	}
	return of.Flush()
}

// Erase removes up to bytes bytes from the end of h's file, independent
// of its current cursor, clamping the cursor if it now lies past the
// new end of file. Returns the number of bytes actually erased.
func (fs *FileSystem) Erase(h Handle, bytes uint32) (uint32, error) {
	of, err := fs.handle(h)
	if err != nil {
		return 0, err
	}
	return of.Erase(bytes)
}

// Create is FCreate: add a new, empty file named name to the root
// directory. Fails with ErrAlreadyExists if name is already present.
func (fs *FileSystem) Create(name string) error {
	if _, err := fs.findByName(name); err == nil {
		return ErrAlreadyExists
	}
	return fs.createEntry(name)
}

// Exists is FExisted.
func (fs *FileSystem) Exists(name string) bool {
	_, err := fs.findByName(name)
	return err == nil
}

// Delete is FDelete: remove name and free its data chain. Fails with
// ErrAlreadyOpen if name is currently open.
func (fs *FileSystem) Delete(name string) error {
	for _, f := range fs.open {
		if f.name == name {
			return ErrAlreadyOpen
		}
	}
	return fs.deleteEntry(name)
}

// Rename is FRename: rename oldName to newName in place. Fails with
// ErrAlreadyOpen if oldName is currently open, ErrNotFound if oldName
// is absent and ErrAlreadyExists if newName is already taken.
func (fs *FileSystem) Rename(oldName, newName string) error {
	for _, f := range fs.open {
		if f.name == oldName {
			return ErrAlreadyOpen
		}
	}
	return fs.renameEntry(oldName, newName)
}

// Stat returns a copy of name's directory entry without opening it.
func (fs *FileSystem) Stat(name string) (FileEntry, error) {
	return fs.findByName(name)
}

// String returns the name of the file h refers to, for debug logging,
// or an "<invalid handle ...>" placeholder if h is not open.
func (fs *FileSystem) String(h Handle) string {
	of, err := fs.handle(h)
	if err != nil {
		return fmt.Sprintf("<invalid handle %s>", h)
	}
	return of.name
}
