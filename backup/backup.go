package backup

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/dtfs/dtfs/device"
	"github.com/dtfs/dtfs/util"
)

// copyResult carries a reader-goroutine's outcome back across the pipe,
// mirroring go-diskfs sync.copyData.
type copyResult struct {
	sectors uint32
	err     error
}

// Dump streams every sector of dev to w, compressed with codec, and
// returns the sha256 checksum of the raw (pre-compression) sector
// stream so the caller can record it alongside the backup file for a
// later Verify. Sectors are read and compressed concurrently via a
// pipe, the same shape as go-diskfs's CopyPartitionRaw.
func Dump(dev device.Device, w io.Writer, codec Codec) ([]byte, error) {
	pr, pw := io.Pipe()
	result := make(chan copyResult, 1)

	go func() {
		defer func() { _ = pw.Close() }()
		n, err := readAllSectors(dev, pw)
		result <- copyResult{sectors: n, err: err}
	}()

	hasher := sha256.New()
	tee := io.TeeReader(pr, hasher)

	cw, err := codec.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("backup: open %s writer: %w", codec.Name(), err)
	}
	if _, err := io.Copy(cw, tee); err != nil {
		return nil, fmt.Errorf("backup: compress sector stream: %w", err)
	}
	if err := cw.Close(); err != nil {
		return nil, fmt.Errorf("backup: finalize %s stream: %w", codec.Name(), err)
	}

	read := <-result
	if read.err != nil {
		return nil, fmt.Errorf("backup: read sectors: %w", read.err)
	}
	if read.sectors != dev.Sectors() {
		return nil, fmt.Errorf("backup: read %d sectors, device reports %d", read.sectors, dev.Sectors())
	}
	return hasher.Sum(nil), nil
}

// Restore reads a Dump stream produced with the same codec and writes
// it back sector-by-sector onto dev, which must already have the same
// geometry (Sectors/SectorSize) as the image that was dumped.
func Restore(dev device.Device, r io.Reader, codec Codec) error {
	cr, err := codec.NewReader(r)
	if err != nil {
		return fmt.Errorf("backup: open %s reader: %w", codec.Name(), err)
	}
	buf := make([]byte, dev.SectorSize())
	for si := uint32(0); si < dev.Sectors(); si++ {
		if _, err := io.ReadFull(cr, buf); err != nil {
			return fmt.Errorf("backup: read sector %d: %w", si, err)
		}
		if err := dev.WriteSector(si, buf); err != nil {
			return fmt.Errorf("backup: write sector %d: %w", si, err)
		}
	}
	return nil
}

// Verify is verifyBlockCopy adapted to compare two live devices
// directly (rather than two partitions of one disk): same geometry,
// same sha256 over every sector.
func Verify(a, b device.Device) error {
	if a.Sectors() != b.Sectors() {
		return fmt.Errorf("backup: sector count mismatch: %d vs %d", a.Sectors(), b.Sectors())
	}
	if a.SectorSize() != b.SectorSize() {
		return fmt.Errorf("backup: sector size mismatch: %d vs %d", a.SectorSize(), b.SectorSize())
	}
	ha, err := hashDevice(a)
	if err != nil {
		return fmt.Errorf("backup: hash source: %w", err)
	}
	hb, err := hashDevice(b)
	if err != nil {
		return fmt.Errorf("backup: hash target: %w", err)
	}
	if !bytes.Equal(ha, hb) {
		if dump, err := firstMismatchDump(a, b); err == nil {
			return fmt.Errorf("backup: data mismatch between source and target devices:\n%s", dump)
		}
		return fmt.Errorf("backup: data mismatch between source and target devices")
	}
	return nil
}

// firstMismatchDump re-reads sectors from a and b until it finds the
// first one that differs and renders both sides as a hex/ASCII diff,
// so a failed Verify points straight at the offending sector instead
// of just reporting "mismatch".
func firstMismatchDump(a, b device.Device) (string, error) {
	bufA := make([]byte, a.SectorSize())
	bufB := make([]byte, b.SectorSize())
	for si := uint32(0); si < a.Sectors(); si++ {
		if err := a.ReadSector(si, bufA); err != nil {
			return "", err
		}
		if err := b.ReadSector(si, bufB); err != nil {
			return "", err
		}
		if !bytes.Equal(bufA, bufB) {
			_, out := util.DumpByteSlicesWithDiffs(bufA, bufB, 16, true, true, false)
			return fmt.Sprintf("sector %d:\n%s", si, out), nil
		}
	}
	return "", fmt.Errorf("no differing sector found")
}

func readAllSectors(dev device.Device, w io.Writer) (uint32, error) {
	buf := make([]byte, dev.SectorSize())
	var n uint32
	for si := uint32(0); si < dev.Sectors(); si++ {
		if err := dev.ReadSector(si, buf); err != nil {
			return n, err
		}
		if _, err := w.Write(buf); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func hashDevice(dev device.Device) ([]byte, error) {
	h := sha256.New()
	if _, err := readAllSectors(dev, h); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
