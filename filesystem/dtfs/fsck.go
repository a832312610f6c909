package dtfs

import (
	"fmt"

	"github.com/dtfs/dtfs/internal/bitmap"
)

// Report is the result of Check: every inconsistency found while
// walking the free list, the root chain, and every file's data chain.
// A clean image returns a Report with no Problems.
type Report struct {
	TotalDataSectors uint32
	ClaimedSectors   uint32
	FreeListLen      uint32
	HeaderFreeNum    uint32
	Problems         []string
}

// OK reports whether the image is internally consistent.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

func (r *Report) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Check is the consistency checker spec.md §8's testable property 2
// ("no sector is ever referenced from two chains simultaneously") asks
// for: every data sector must be claimed by exactly one of the free
// list, the root chain, or exactly one file's chain. It is read-only —
// it never modifies the image.
func (fs *FileSystem) Check() (*Report, error) {
	h, err := fs.readHeader()
	if err != nil {
		return nil, err
	}
	r, err := fs.readRoot()
	if err != nil {
		return nil, err
	}

	report := &Report{
		TotalDataSectors: fs.Sectors() - fixedSectorCount - h.mapSize,
		HeaderFreeNum:    h.freeNum,
	}
	if !h.hasMagic() {
		report.problem("header sector missing DTFS magic")
	}
	if !r.hasMagic() {
		report.problem("root sector missing ROOT magic")
	}
	if h.sctNum != fs.Sectors() {
		report.problem("header sctNum %d does not match device sector count %d", h.sctNum, fs.Sectors())
	}

	claimed := bitmap.NewBits(int(fs.Sectors()))
	claim := func(owner string, si uint32) {
		already, err := claimed.IsSet(int(si))
		if err != nil {
			report.problem("%s: sector %d: %v", owner, si, err)
			return
		}
		if already {
			report.problem("sector %d is claimed by more than one chain (last: %s)", si, owner)
			return
		}
		_ = claimed.Set(int(si))
	}

	var freeLen uint32
	for si := h.freeBegin; si != SCTEnd; {
		claim("free list", si)
		freeLen++
		si, err = fs.next(h, si)
		if err != nil {
			report.problem("free list: %v", err)
			break
		}
	}
	report.FreeListLen = freeLen
	if freeLen != h.freeNum {
		report.problem("header freeNum %d does not match actual free list length %d", h.freeNum, freeLen)
	}

	walkChain := func(owner string, sctBegin uint32) {
		for si := sctBegin; si != SCTEnd; {
			claim(owner, si)
			next, err := fs.next(h, si)
			if err != nil {
				report.problem("%s: %v", owner, err)
				return
			}
			si = next
		}
	}

	walkChain("root directory", r.sctBegin)

	names, err := fs.ListNames()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		fe, err := fs.findByName(name)
		if err != nil {
			report.problem("directory entry %q: %v", name, err)
			continue
		}
		walkChain(fmt.Sprintf("file %q", name), fe.SctBegin)
	}

	report.ClaimedSectors = uint32(claimed.Count())
	if report.ClaimedSectors != report.TotalDataSectors {
		report.problem("claimed sectors %d does not account for all %d data sectors (orphans or double-claims present)",
			report.ClaimedSectors, report.TotalDataSectors)
	}

	return report, nil
}
