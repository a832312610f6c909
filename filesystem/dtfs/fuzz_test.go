package dtfs

import (
	"bytes"
	"testing"

	"github.com/dtfs/dtfs/device"
)

// FuzzRoundTrip writes an arbitrary payload to a freshly formatted
// image and checks it reads back identically and the image stays
// internally consistent, per SPEC_FULL.md's test-tooling section.
func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("short"))
	f.Add(bytes.Repeat([]byte{0x5A}, 513))
	f.Add(bytes.Repeat([]byte{0xFF}, 4096))

	f.Fuzz(func(t *testing.T, payload []byte) {
		// Cap payload size so the fixed-size test device always has room;
		// a real image would reject an over-large write with
		// ErrOutOfSectors instead.
		const maxPayload = 16 * 1024
		if len(payload) > maxPayload {
			payload = payload[:maxPayload]
		}

		dev := device.NewMemDevice(256, 512)
		fs, err := Format(dev)
		if err != nil {
			t.Fatalf("Format: %v", err)
		}
		if err := fs.Create("f"); err != nil {
			t.Fatalf("Create: %v", err)
		}
		h, err := fs.Open("f")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if n, err := fs.Write(h, payload); err != nil || n != len(payload) {
			t.Fatalf("Write: n=%d err=%v", n, err)
		}
		if _, err := fs.Seek(h, 0, 0); err != nil {
			t.Fatalf("Seek: %v", err)
		}
		got := make([]byte, len(payload))
		var n int
		for n < len(got) {
			m, err := fs.Read(h, got[n:])
			if m == 0 && err != nil {
				t.Fatalf("Read at %d/%d: %v", n, len(got), err)
			}
			n += m
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(payload))
		}
		if err := fs.Close(h); err != nil {
			t.Fatalf("Close: %v", err)
		}

		report, err := fs.Check()
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if !report.OK() {
			t.Fatalf("image inconsistent after round trip: %v", report.Problems)
		}
	})
}
