package dtfs

import "errors"

// root.go is the DTFS analogue of fat32/directory.go: it owns the root
// directory chain (a chain of sectors holding a packed array of
// FileEntry records) and the create/find/delete/rename operations spec
// .md §4.2 describes.

// checkStorage is CheckStorage: grow a chain by one sector when its
// last sector is full. It is shared between growing the root directory
// (root append, see createEntry) and growing a file's data chain (see
// PrepareCache in handle.go) because FSRoot and FileEntry carry the
// identical sctBegin/sctNum/lastBytes triple.
func (fs *FileSystem) checkStorage(sctBegin, sctNum, lastBytes *uint32) error {
	if *lastBytes != fs.sectorSize() {
		return nil
	}
	si, err := fs.alloc()
	if err != nil {
		return err
	}
	if *sctBegin == SCTEnd {
		*sctBegin = si
	} else if err := fs.addToLast(*sctBegin, si); err != nil {
		return err
	}
	*sctNum++
	*lastBytes = 0
	return nil
}

// walkRootSectors visits every sector of the root chain in order,
// handing visit the sector's absolute index, its raw bytes, and how
// many FileEntry slots within it are live (FE_ITEM_CNT for every sector
// but the last, lastBytes/FEBytes for the last one). visit returns
// stop=true to end the walk early.
func (fs *FileSystem) walkRootSectors(r *root, visit func(sectorIdx uint32, buf []byte, count uint32) (stop bool, err error)) error {
	if r.sctNum == 0 {
		return nil
	}
	h, err := fs.readHeader()
	if err != nil {
		return err
	}
	itemsPerSector := entriesPerSector(fs.sectorSize())
	next := r.sctBegin
	for i := uint32(0); i < r.sctNum; i++ {
		buf, err := fs.readSector(next)
		if err != nil {
			return err
		}
		count := itemsPerSector
		if i == r.sctNum-1 {
			count = r.lastBytes / FEBytes
		}
		stop, err := visit(next, buf, count)
		if err != nil || stop {
			return err
		}
		if i != r.sctNum-1 {
			next, err = fs.next(h, next)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// findByName is FindInRoot: scan the root chain for a FileEntry whose
// name matches exactly (byte-wise, case-sensitive).
func (fs *FileSystem) findByName(name string) (FileEntry, error) {
	r, err := fs.readRoot()
	if err != nil {
		return FileEntry{}, err
	}
	var found *FileEntry
	err = fs.walkRootSectors(r, func(_ uint32, buf []byte, count uint32) (bool, error) {
		for i := uint32(0); i < count; i++ {
			fe := decodeFileEntry(buf[i*FEBytes:])
			if fe.Name == name {
				found = &fe
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return FileEntry{}, err
	}
	if found == nil {
		return FileEntry{}, ErrNotFound
	}
	return *found, nil
}

// ListNames returns every file name currently in the root directory, in
// on-disk order. Supplemental surface (not in spec.md's operation
// table) used by fsck and the CLI's `ls` verb.
func (fs *FileSystem) ListNames() ([]string, error) {
	r, err := fs.readRoot()
	if err != nil {
		return nil, err
	}
	var names []string
	err = fs.walkRootSectors(r, func(_ uint32, buf []byte, count uint32) (bool, error) {
		for i := uint32(0); i < count; i++ {
			names = append(names, decodeFileEntry(buf[i*FEBytes:]).Name)
		}
		return false, nil
	})
	return names, err
}

// createEntry is CreateInRoot + CreateFileEntry combined: append a new,
// empty FileEntry named name to the root directory.
func (fs *FileSystem) createEntry(name string) error {
	if name == "" || len(name) > nameFieldSize-1 {
		return ErrBadArgument
	}
	r, err := fs.readRoot()
	if err != nil {
		return err
	}
	if err := fs.checkStorage(&r.sctBegin, &r.sctNum, &r.lastBytes); err != nil {
		return err
	}
	last, err := fs.findLast(r.sctBegin)
	if err != nil {
		return err
	}
	if last == SCTEnd {
		return ErrDeviceIO
	}
	buf, err := fs.readSector(last)
	if err != nil {
		return err
	}
	offset := r.lastBytes / FEBytes
	fe := FileEntry{
		Name:      name,
		SctBegin:  SCTEnd,
		SctNum:    0,
		LastBytes: fs.sectorSize(),
		Type:      0,
		InSctIdx:  last,
		InSctOff:  offset,
	}
	fe.encode(buf[offset*FEBytes:])
	if err := fs.writeSector(last, buf); err != nil {
		return err
	}
	r.lastBytes += FEBytes
	return fs.writeRoot(r)
}

// freeChain is FreeFile: release every sector in the chain headed by
// sctBegin back to the free list. A no-op for an already-empty chain.
func (fs *FileSystem) freeChain(sctBegin uint32) error {
	if sctBegin == SCTEnd {
		return nil
	}
	h, err := fs.readHeader()
	if err != nil {
		return err
	}
	next := sctBegin
	for next != SCTEnd {
		n, err := fs.next(h, next)
		if err != nil {
			return err
		}
		if err := fs.free(next); err != nil {
			return err
		}
		next = n
	}
	return nil
}

// adjustStorage is AdjustStorage: triggered once a chain's last sector
// has been fully consumed (lastBytes == 0) — frees that sector, marks
// the sector before it terminal, and shrinks sctNum. If the chain
// becomes empty, sctBegin resets to SCTEnd (invariant 1, spec.md §3).
func (fs *FileSystem) adjustStorage(sctBegin, sctNum, lastBytes *uint32) error {
	if *lastBytes != 0 {
		return nil
	}
	last, err := fs.findLast(*sctBegin)
	if err != nil {
		return err
	}
	prev, err := fs.findPrev(*sctBegin, last)
	if err != nil {
		return err
	}
	if err := fs.free(last); err != nil {
		return err
	}
	if prev != SCTEnd {
		if err := fs.markTerminal(prev); err != nil {
			return err
		}
	}
	*sctNum--
	*lastBytes = fs.sectorSize()
	if *sctNum == 0 {
		*sctBegin = SCTEnd
	}
	return nil
}

// eraseLast is EraseLast: shrink a chain by up to `bytes` bytes from
// its end, freeing sectors via adjustStorage as needed. Returns the
// number of bytes actually erased, which can be less than requested if
// the chain becomes empty first.
func (fs *FileSystem) eraseLast(sctBegin, sctNum, lastBytes *uint32, bytes uint32) (uint32, error) {
	var erased uint32
	for *sctNum > 0 && bytes > 0 {
		if bytes < *lastBytes {
			*lastBytes -= bytes
			erased += bytes
			bytes = 0
		} else {
			bytes -= *lastBytes
			erased += *lastBytes
			*lastBytes = 0
			if err := fs.adjustStorage(sctBegin, sctNum, lastBytes); err != nil {
				return erased, err
			}
		}
	}
	return erased, nil
}

// deleteEntry is DeleteInRoot: free the named file's data chain, fold
// the physically-last directory entry into the freed slot (preserving
// the freed slot's own InSctIdx/InSctOff so the moved entry still
// self-locates — MoveFileEntry), then shrink the directory by one
// FEBytes-sized slot.
func (fs *FileSystem) deleteEntry(name string) error {
	r, err := fs.readRoot()
	if err != nil {
		return err
	}
	target, err := fs.findByName(name)
	if err != nil {
		return err
	}
	last, err := fs.findLast(r.sctBegin)
	if err != nil {
		return err
	}
	if last == SCTEnd {
		return ErrDeviceIO
	}
	lastBuf, err := fs.readSector(last)
	if err != nil {
		return err
	}
	targetBuf := lastBuf
	if last != target.InSctIdx {
		targetBuf, err = fs.readSector(target.InSctIdx)
		if err != nil {
			return err
		}
	}

	lastOff := r.lastBytes/FEBytes - 1
	movedSrc := decodeFileEntry(lastBuf[lastOff*FEBytes:])

	if err := fs.freeChain(target.SctBegin); err != nil {
		return err
	}

	moved := movedSrc
	moved.InSctIdx = target.InSctIdx
	moved.InSctOff = target.InSctOff
	moved.encode(targetBuf[target.InSctOff*FEBytes:])
	if err := fs.writeSector(target.InSctIdx, targetBuf); err != nil {
		return err
	}

	if _, err := fs.eraseLast(&r.sctBegin, &r.sctNum, &r.lastBytes, FEBytes); err != nil {
		return err
	}
	return fs.writeRoot(r)
}

// renameEntry is FRename's directory-level half: point an existing
// entry's name field at newName in place.
func (fs *FileSystem) renameEntry(oldName, newName string) error {
	if newName == "" || len(newName) > nameFieldSize-1 {
		return ErrBadArgument
	}
	old, err := fs.findByName(oldName)
	if err != nil {
		return err
	}
	if _, err := fs.findByName(newName); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	buf, err := fs.readSector(old.InSctIdx)
	if err != nil {
		return err
	}
	old.Name = newName
	old.encode(buf[old.InSctOff*FEBytes:])
	return fs.writeSector(old.InSctIdx, buf)
}

// flushEntry is FlushFileEntry: persist fe's in-memory fields back to
// its on-disk slot (used by openFile.Flush and openFile.Erase).
func (fs *FileSystem) flushEntry(fe *FileEntry) error {
	buf, err := fs.readSector(fe.InSctIdx)
	if err != nil {
		return err
	}
	fe.encode(buf[fe.InSctOff*FEBytes:])
	return fs.writeSector(fe.InSctIdx, buf)
}
