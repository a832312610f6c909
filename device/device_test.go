package device

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemDeviceReadWriteSector(t *testing.T) {
	m := NewMemDevice(4, 512)
	if m.Sectors() != 4 || m.SectorSize() != 512 {
		t.Fatalf("unexpected geometry: sectors=%d size=%d", m.Sectors(), m.SectorSize())
	}

	want := bytes.Repeat([]byte{0xAB}, 512)
	if err := m.WriteSector(2, want); err != nil {
		t.Fatalf("WriteSector: %v", err)
	}
	got := make([]byte, 512)
	if err := m.ReadSector(2, got); err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("sector round-trip mismatch")
	}

	other := make([]byte, 512)
	if err := m.ReadSector(0, other); err != nil {
		t.Fatalf("ReadSector(0): %v", err)
	}
	if !bytes.Equal(other, make([]byte, 512)) {
		t.Fatalf("unrelated sector 0 should remain zero-filled")
	}
}

func TestMemDeviceBoundsChecking(t *testing.T) {
	m := NewMemDevice(2, 512)
	buf := make([]byte, 512)
	if err := m.ReadSector(2, buf); !errors.Is(err, ErrBadSector) {
		t.Fatalf("expected ErrBadSector for out-of-range sector, got %v", err)
	}
	if err := m.WriteSector(0, buf[:10]); !errors.Is(err, ErrBadBuffer) {
		t.Fatalf("expected ErrBadBuffer for short buffer, got %v", err)
	}
}

func TestFileDeviceReadWriteViaStorage(t *testing.T) {
	backing := make([]byte, 4*512)
	stub := &storageStub{
		size: int64(len(backing)),
		readAt: func(b []byte, offset int64) (int, error) {
			return copy(b, backing[offset:]), nil
		},
		writeAt: func(b []byte, offset int64) (int, error) {
			return copy(backing[offset:], b), nil
		},
	}
	fd, err := NewFileDevice(stub, 512)
	if err != nil {
		t.Fatalf("NewFileDevice: %v", err)
	}
	if fd.Sectors() != 4 {
		t.Fatalf("expected 4 sectors, got %d", fd.Sectors())
	}

	want := bytes.Repeat([]byte{0x42}, 512)
	if err := fd.WriteSector(1, want); err != nil {
		t.Fatalf("WriteSector: %v", err)
	}
	got := make([]byte, 512)
	if err := fd.ReadSector(1, got); err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("sector round-trip mismatch through backend.Storage")
	}
}

func TestFileDeviceReadOnlyStorageRejectsWrite(t *testing.T) {
	backing := make([]byte, 2*512)
	stub := &storageStub{
		size: int64(len(backing)),
		readAt: func(b []byte, offset int64) (int, error) {
			return copy(b, backing[offset:]), nil
		},
	}
	fd, err := NewFileDevice(stub, 512)
	if err != nil {
		t.Fatalf("NewFileDevice: %v", err)
	}
	if err := fd.WriteSector(0, make([]byte, 512)); err == nil {
		t.Fatalf("expected write to a read-only storage to fail")
	}
}
