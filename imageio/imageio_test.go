package imageio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dtfs/dtfs/device"
	"github.com/dtfs/dtfs/filesystem/dtfs"
)

func TestImportExportRoundTrip(t *testing.T) {
	dev := device.NewMemDevice(64, 512)
	fs, err := dtfs.Format(dev)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.txt")
	content := []byte("round trip through a host file and back")
	if err := os.WriteFile(srcPath, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Import(fs, srcPath, "imported.txt"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !fs.Exists("imported.txt") {
		t.Fatalf("expected imported.txt to exist in the image")
	}

	outPath := filepath.Join(dir, "exported.txt")
	if err := Export(fs, "imported.txt", outPath); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("round trip mismatch: got %q want %q", got, content)
	}
}
