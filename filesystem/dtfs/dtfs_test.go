package dtfs

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/dtfs/dtfs/device"
)

func formatMem(t *testing.T, sectors uint32) (*FileSystem, device.Device) {
	t.Helper()
	dev := device.NewMemDevice(sectors, 512)
	fs, err := Format(dev)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return fs, dev
}

func TestFormatThenMount(t *testing.T) {
	_, dev := formatMem(t, 32)
	if !IsFormatted(dev) {
		t.Fatalf("expected device to report formatted after Format")
	}
	fs, err := Mount(dev)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	names, err := fs.ListNames()
	if err != nil {
		t.Fatalf("ListNames: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty root directory, got %v", names)
	}
}

func TestMountRejectsUnformattedDevice(t *testing.T) {
	dev := device.NewMemDevice(16, 512)
	if _, err := Mount(dev); !errors.Is(err, ErrNotFormatted) {
		t.Fatalf("expected ErrNotFormatted, got %v", err)
	}
}

func TestCreateExistsDelete(t *testing.T) {
	fs, _ := formatMem(t, 32)

	if err := fs.Create("hello.txt"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !fs.Exists("hello.txt") {
		t.Fatalf("expected file to exist after Create")
	}
	if err := fs.Create("hello.txt"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on duplicate Create, got %v", err)
	}
	if err := fs.Delete("hello.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if fs.Exists("hello.txt") {
		t.Fatalf("expected file to be gone after Delete")
	}
	if err := fs.Delete("hello.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting a missing file, got %v", err)
	}
}

func TestWriteReadRoundTripSingleSector(t *testing.T) {
	fs, _ := formatMem(t, 32)
	if err := fs.Create("a.bin"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	h, err := fs.Open("a.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	payload := []byte("hello, dtfs")
	if n, err := fs.Write(h, payload); err != nil || n != len(payload) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h2, err := fs.Open("a.bin")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	length, err := fs.Length(h2)
	if err != nil || length != uint32(len(payload)) {
		t.Fatalf("Length = %d, err = %v, want %d", length, err, len(payload))
	}
	got := make([]byte, len(payload))
	if n, err := fs.Read(h2, got); err != nil || n != len(payload) {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round-trip mismatch: got %q want %q", got, payload)
	}
	if err := fs.Close(h2); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestWriteSpansMultipleSectors(t *testing.T) {
	fs, _ := formatMem(t, 64)
	if err := fs.Create("big.bin"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	h, err := fs.Open("big.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	payload := make([]byte, 512*3+17)
	for i := range payload {
		payload[i] = byte(i)
	}
	if n, err := fs.Write(h, payload); err != nil || n != len(payload) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if _, err := fs.Seek(h, 0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, len(payload))
	n, err := io.ReadFull(readerOf(fs, h), got)
	if err != nil || n != len(payload) {
		t.Fatalf("ReadFull: n=%d err=%v", n, err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("multi-sector round trip mismatch")
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close: %v", err)
	}

	report, err := fs.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected clean image, problems: %v", report.Problems)
	}
}

// readerOf adapts FileSystem.Read(h, ...) to io.Reader for io.ReadFull.
func readerOf(fs *FileSystem, h Handle) io.Reader {
	return readerFunc(func(p []byte) (int, error) { return fs.Read(h, p) })
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

// TestEraseRemovesFromEndIndependentOfCursor exercises scenario S4:
// write 600 bytes, read them all back so the cursor sits at end-of-file
// (600), then FErase(fd,100) must
// drop the file to 500 bytes regardless of where the cursor sits, and
// clamp the cursor down to the new length since it now lies past it.
func TestEraseRemovesFromEndIndependentOfCursor(t *testing.T) {
	fs, _ := formatMem(t, 32)
	if err := fs.Create("t.bin"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	h, _ := fs.Open("t.bin")
	payload := bytes.Repeat([]byte{0x7A}, 600)
	if _, err := fs.Write(h, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := fs.Seek(h, 0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	read := make([]byte, 600)
	if _, err := io.ReadFull(readerOf(fs, h), read); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	tell, _ := fs.Tell(h)
	if tell != 600 {
		t.Fatalf("expected cursor at EOF (600) after reading the whole file, got %d", tell)
	}

	erased, err := fs.Erase(h, 100)
	if err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if erased != 100 {
		t.Fatalf("expected 100 bytes erased, got %d", erased)
	}
	length, _ := fs.Length(h)
	if length != 500 {
		t.Fatalf("expected length 500 after erasing 100 bytes from the end, got %d", length)
	}
	tell, _ = fs.Tell(h)
	if tell != 500 {
		t.Fatalf("expected cursor clamped to the new length 500, got %d", tell)
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close: %v", err)
	}

	report, err := fs.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected clean image after erase, problems: %v", report.Problems)
	}
}

// TestEraseLeavesCursorUnclampedWhenStillInBounds checks that Erase
// only moves the cursor when it would otherwise point past the new end
// of file; a cursor already within the shrunk length is untouched.
func TestEraseLeavesCursorUnclampedWhenStillInBounds(t *testing.T) {
	fs, _ := formatMem(t, 32)
	if err := fs.Create("t.bin"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	h, _ := fs.Open("t.bin")
	payload := bytes.Repeat([]byte{0x5C}, 600)
	if _, err := fs.Write(h, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := fs.Seek(h, 100, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	erased, err := fs.Erase(h, 100)
	if err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if erased != 100 {
		t.Fatalf("expected 100 bytes erased, got %d", erased)
	}
	length, _ := fs.Length(h)
	if length != 500 {
		t.Fatalf("expected length 500, got %d", length)
	}
	tell, _ := fs.Tell(h)
	if tell != 100 {
		t.Fatalf("expected cursor to remain at 100 (still within the new length), got %d", tell)
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRenameFailureCases(t *testing.T) {
	fs, _ := formatMem(t, 32)
	if err := fs.Create("one.bin"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := fs.Create("two.bin"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := fs.Rename("missing.bin", "x.bin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := fs.Rename("one.bin", "two.bin"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := fs.Rename("one.bin", "renamed.bin"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if !fs.Exists("renamed.bin") || fs.Exists("one.bin") {
		t.Fatalf("rename did not take effect")
	}
}

func TestOpenTwiceFails(t *testing.T) {
	fs, _ := formatMem(t, 32)
	if err := fs.Create("x.bin"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	h, err := fs.Open("x.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := fs.Open("x.bin"); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
	if err := fs.Delete("x.bin"); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("expected Delete to refuse an open file, got %v", err)
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDeleteFirstFileReclaimsDirectorySlot(t *testing.T) {
	fs, _ := formatMem(t, 96)
	names := []string{"a", "b", "c"}
	for _, n := range names {
		if err := fs.Create(n); err != nil {
			t.Fatalf("Create(%s): %v", n, err)
		}
	}
	if err := fs.Delete("a"); err != nil {
		t.Fatalf("Delete(a): %v", err)
	}
	remaining, err := fs.ListNames()
	if err != nil {
		t.Fatalf("ListNames: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 entries after delete, got %v", remaining)
	}
	for _, want := range []string{"b", "c"} {
		found := false
		for _, got := range remaining {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %q to survive deletion of a, got %v", want, remaining)
		}
	}

	report, err := fs.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected clean image after deleting the first entry, problems: %v", report.Problems)
	}
}
