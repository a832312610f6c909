// Package imageio moves single files between the host filesystem and a
// mounted DTFS image — the "image-format routine" neighbor spec.md §6
// leaves implicit (something has to get bytes in and out of an image
// for it to be useful outside a test harness). Host metadata is
// handled best-effort: DTFS's FileEntry has no timestamp fields at all
// and only a single Type word, so none of what's read from the host
// side is load-bearing for a round trip.
package imageio

import (
	"fmt"
	"io"
	"os"

	"github.com/dtfs/dtfs/filesystem/dtfs"
	"github.com/pkg/xattr"
	"github.com/sirupsen/logrus"
	times "gopkg.in/djherbis/times.v1"
)

// xattrTypeName is the host extended attribute Export writes
// FileEntry.Type's low byte to, when the host filesystem supports
// xattrs at all. Import only checks for it; it does not apply it.
const xattrTypeName = "user.dtfs.type"

// Import copies hostPath's contents into a new DTFS file named name.
// Host access/modification times are logged for diagnostics only — DTFS
// has nowhere to store them. A prior Export's Type xattr is only noted
// in a debug log: it is not restored, and the new file's Type stays 0.
func Import(fs *dtfs.FileSystem, hostPath, name string) error {
	in, err := os.Open(hostPath)
	if err != nil {
		return fmt.Errorf("imageio: open %s: %w", hostPath, err)
	}
	defer func() { _ = in.Close() }()

	if ts, err := times.Stat(hostPath); err == nil {
		logrus.WithFields(logrus.Fields{
			"path":      hostPath,
			"mtime":     ts.ModTime(),
			"atime":     ts.AccessTime(),
			"name":      name,
			"component": "imageio",
		}).Debug("importing host file")
	}

	if err := fs.Create(name); err != nil {
		return fmt.Errorf("imageio: create %s: %w", name, err)
	}
	h, err := fs.Open(name)
	if err != nil {
		return fmt.Errorf("imageio: open %s after create: %w", name, err)
	}
	if _, err := io.Copy(writerOf(fs, h), in); err != nil {
		_ = fs.Close(h)
		return fmt.Errorf("imageio: copy %s into %s: %w", hostPath, name, err)
	}
	if err := fs.Close(h); err != nil {
		return fmt.Errorf("imageio: close %s: %w", name, err)
	}

	if raw, err := xattr.Get(hostPath, xattrTypeName); err == nil && len(raw) > 0 {
		logrus.WithField("name", name).Debug("host file carries a dtfs type xattr, but FileEntry.Type can only be set at stat time by higher-level tooling")
	}
	return nil
}

// Export copies a DTFS file's contents out to hostPath, creating or
// truncating it, and best-effort tags it with the file's Type via a
// host xattr (ignored entirely on filesystems that don't support
// xattrs — e.g. a typical non-Linux tmp directory).
func Export(fs *dtfs.FileSystem, name, hostPath string) error {
	fe, err := fs.Stat(name)
	if err != nil {
		return fmt.Errorf("imageio: stat %s: %w", name, err)
	}
	h, err := fs.Open(name)
	if err != nil {
		return fmt.Errorf("imageio: open %s: %w", name, err)
	}
	out, err := os.OpenFile(hostPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		_ = fs.Close(h)
		return fmt.Errorf("imageio: create %s: %w", hostPath, err)
	}
	_, copyErr := io.Copy(out, readerOf(fs, h))
	closeErr := out.Close()
	if err := fs.Close(h); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		return fmt.Errorf("imageio: copy %s to %s: %w", name, hostPath, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("imageio: close %s: %w", hostPath, closeErr)
	}

	if err := xattr.Set(hostPath, xattrTypeName, []byte{byte(fe.Type)}); err != nil {
		logrus.WithError(err).WithField("path", hostPath).Debug("host filesystem does not support xattrs, Type not preserved")
	}
	return nil
}

func readerOf(fs *dtfs.FileSystem, h dtfs.Handle) io.Reader {
	return ioFunc(func(p []byte) (int, error) { return fs.Read(h, p) })
}

func writerOf(fs *dtfs.FileSystem, h dtfs.Handle) io.Writer {
	return ioFunc(func(p []byte) (int, error) { return fs.Write(h, p) })
}

type ioFunc func([]byte) (int, error)

func (f ioFunc) Read(p []byte) (int, error)  { return f(p) }
func (f ioFunc) Write(p []byte) (int, error) { return f(p) }
