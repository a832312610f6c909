package dtfs

import "errors"

// Sentinel errors, one per error kind spec.md §7 names. The legacy
// CompatAPI (compat.go) collapses these back into the
// SUCCEED/FAILED/-1-style return values the original C core used.
var (
	// ErrOutOfSectors is returned when the sector allocator's free list
	// is exhausted.
	ErrOutOfSectors = errors.New("dtfs: out of sectors")
	// ErrDeviceIO is returned when a read or write against the backing
	// Device failed.
	ErrDeviceIO = errors.New("dtfs: device I/O failure")
	// ErrNotFound is returned when a named file does not exist.
	ErrNotFound = errors.New("dtfs: file not found")
	// ErrAlreadyExists is returned by Create/Rename when the target name
	// is already in use.
	ErrAlreadyExists = errors.New("dtfs: file already exists")
	// ErrAlreadyOpen is returned when an operation that requires
	// exclusive access (delete, rename) finds the name open, or when
	// Open is called twice for the same name without an intervening
	// Close.
	ErrAlreadyOpen = errors.New("dtfs: file already open")
	// ErrInvalidHandle is returned when a Handle does not refer to a
	// currently-open file (stale or never issued).
	ErrInvalidHandle = errors.New("dtfs: invalid file handle")
	// ErrBadArgument is returned for a nil/empty name or a name longer
	// than nameFieldSize-1 bytes.
	ErrBadArgument = errors.New("dtfs: bad argument")
	// ErrNotFormatted is returned by Mount when the device does not
	// carry a valid DTFS header and root.
	ErrNotFormatted = errors.New("dtfs: device is not formatted")
)
