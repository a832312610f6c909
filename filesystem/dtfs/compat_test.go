package dtfs

import (
	"testing"

	"github.com/dtfs/dtfs/device"
)

func TestCompatAPIBasicFlow(t *testing.T) {
	dev := device.NewMemDevice(32, 512)
	fs, err := Format(dev)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	c := NewCompatAPI(fs)

	if got := c.FExisted("f"); got != Nonexisted {
		t.Fatalf("FExisted = %d, want Nonexisted", got)
	}
	if got := c.FCreate("f"); got != Succeed {
		t.Fatalf("FCreate = %d, want Succeed", got)
	}
	if got := c.FExisted("f"); got != Existed {
		t.Fatalf("FExisted = %d, want Existed", got)
	}

	h, status := c.FOpen("f")
	if status != Succeed {
		t.Fatalf("FOpen status = %d, want Succeed", status)
	}

	payload := []byte("compat api")
	if n := c.FWrite(h, payload); n != len(payload) {
		t.Fatalf("FWrite = %d, want %d", n, len(payload))
	}
	if off := c.FSeek(h, 0, SeekSet); off != 0 {
		t.Fatalf("FSeek = %d, want 0", off)
	}
	got := make([]byte, len(payload))
	if n := c.FRead(h, got); n != len(payload) {
		t.Fatalf("FRead = %d, want %d", n, len(payload))
	}
	if string(got) != string(payload) {
		t.Fatalf("FRead content = %q, want %q", got, payload)
	}
	if n := c.FErase(h, 4); n != 4 {
		t.Fatalf("FErase = %d, want 4", n)
	}
	if n := c.FLength(h); n != int64(len(payload))-4 {
		t.Fatalf("FLength after FErase = %d, want %d", n, len(payload)-4)
	}
	if status := c.FClose(h); status != Succeed {
		t.Fatalf("FClose = %d, want Succeed", status)
	}

	if status := c.FDelete("f"); status != Succeed {
		t.Fatalf("FDelete = %d, want Succeed", status)
	}
	if got := c.FExisted("f"); got != Nonexisted {
		t.Fatalf("FExisted after delete = %d, want Nonexisted", got)
	}
}

func TestCompatAPIInvalidHandle(t *testing.T) {
	dev := device.NewMemDevice(16, 512)
	fs, err := Format(dev)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	c := NewCompatAPI(fs)
	var bogus Handle
	if n := c.FRead(bogus, make([]byte, 4)); n != -1 {
		t.Fatalf("FRead on invalid handle = %d, want -1", n)
	}
	if n := c.FTell(bogus); n != -1 {
		t.Fatalf("FTell on invalid handle = %d, want -1", n)
	}
}
