//go:build linux

package device

import (
	"unsafe"

	"github.com/dtfs/dtfs/backend"
	"golang.org/x/sys/unix"
)

// realSectorCount prefers the BLKGETSIZE64 ioctl when storage is backed
// by a real block device (e.g. /dev/sdX), since a block device's
// directory-entry size is usually 0 even though it has a real capacity.
// It falls back to the already-known file size otherwise. The raw
// SYS_IOCTL call (BLKGETSIZE64 reports a uint64 byte count, too wide
// for IoctlGetInt) is the same shape used elsewhere in the ecosystem
// for sizing a LUKS-backed block device before formatting it.
func realSectorCount(storage backend.Storage, fileSize, sectorSize uint32) (uint32, error) {
	osFile, err := storage.Sys()
	if err != nil || osFile == nil {
		return fileSize / sectorSize, nil
	}
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, osFile.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		// not a block device (e.g. a regular image file); use its stat size
		return fileSize / sectorSize, nil
	}
	return uint32(size) / sectorSize, nil
}
