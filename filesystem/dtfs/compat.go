package dtfs

import (
	"errors"
	"io"
)

// Return-value conventions for CompatAPI, spec.md §6.
const (
	Succeed = 1
	Failed  = 0

	Existed    = 1
	Nonexisted = 0
)

// CompatAPI exposes DTFS through the original C core's call shape
// (FCreate/FOpen/FRead/... returning SUCCEED/FAILED or a raw byte
// count or offset) for callers porting straight off spec.md §6 rather than the
// idiomatic *FileSystem surface in handle.go. It is a thin adapter: all
// real logic lives on *FileSystem.
type CompatAPI struct {
	fs *FileSystem
}

// NewCompatAPI wraps an already-mounted FileSystem.
func NewCompatAPI(fs *FileSystem) *CompatAPI { return &CompatAPI{fs: fs} }

// FCreate returns Succeed/Failed instead of an error.
func (c *CompatAPI) FCreate(name string) int {
	if c.fs.Create(name) != nil {
		return Failed
	}
	return Succeed
}

// FExisted returns Existed/Nonexisted.
func (c *CompatAPI) FExisted(name string) int {
	if c.fs.Exists(name) {
		return Existed
	}
	return Nonexisted
}

// FDelete returns Succeed/Failed.
func (c *CompatAPI) FDelete(name string) int {
	if c.fs.Delete(name) != nil {
		return Failed
	}
	return Succeed
}

// FRename returns Succeed/Failed.
func (c *CompatAPI) FRename(oldName, newName string) int {
	if c.fs.Rename(oldName, newName) != nil {
		return Failed
	}
	return Succeed
}

// FOpen returns a Handle and a Succeed/Failed status rather than a raw
// pointer and NULL.
func (c *CompatAPI) FOpen(name string) (Handle, int) {
	h, err := c.fs.Open(name)
	if err != nil {
		return Handle{}, Failed
	}
	return h, Succeed
}

// FClose returns Succeed/Failed.
func (c *CompatAPI) FClose(h Handle) int {
	if c.fs.Close(h) != nil {
		return Failed
	}
	return Succeed
}

// FRead returns the number of bytes actually read, or -1 on an error
// other than end-of-file (EOF is reported as a short or zero count,
// matching the original's "read however many bytes are available, even
// zero" behavior rather than Go's io.Reader convention of always
// pairing n=0 with a non-nil error).
func (c *CompatAPI) FRead(h Handle, p []byte) int {
	n, err := c.fs.Read(h, p)
	if err != nil && !errors.Is(err, io.EOF) {
		return -1
	}
	return n
}

// FWrite returns the number of bytes written, or -1 on error.
func (c *CompatAPI) FWrite(h Handle, p []byte) int {
	n, err := c.fs.Write(h, p)
	if err != nil {
		return -1
	}
	return n
}

// Seek whence values, matching the stdlib io.Seek* constants spec.md §6
// maps FSeek's origin argument onto.
const (
	SeekSet = io.SeekStart
	SeekCur = io.SeekCurrent
	SeekEnd = io.SeekEnd
)

// FSeek returns the new offset, or -1 on error.
func (c *CompatAPI) FSeek(h Handle, offset int64, whence int) int64 {
	n, err := c.fs.Seek(h, offset, whence)
	if err != nil {
		return -1
	}
	return n
}

// FTell returns the current offset, or -1 on an invalid handle.
func (c *CompatAPI) FTell(h Handle) int64 {
	n, err := c.fs.Tell(h)
	if err != nil {
		return -1
	}
	return int64(n)
}

// FLength returns the file's length, or -1 on an invalid handle.
func (c *CompatAPI) FLength(h Handle) int64 {
	n, err := c.fs.Length(h)
	if err != nil {
		return -1
	}
	return int64(n)
}

// FErase removes up to bytes bytes from the end of h's file and returns
// the number of bytes actually erased, or -1 on an invalid handle.
func (c *CompatAPI) FErase(h Handle, bytes int64) int64 {
	n, err := c.fs.Erase(h, uint32(bytes))
	if err != nil {
		return -1
	}
	return int64(n)
}

// FFlush returns Succeed/Failed.
func (c *CompatAPI) FFlush(h Handle) int {
	if c.fs.Flush(h) != nil {
		return Failed
	}
	return Succeed
}

// FIsFormatted returns Succeed/Failed.
func FIsFormatted(fs *FileSystem) int {
	if IsFormatted(fs.dev) {
		return Succeed
	}
	return Failed
}
