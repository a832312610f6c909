package dtfs

import "testing"

func TestMapSizeForTraditionalGeometry(t *testing.T) {
	// 512-byte sectors: 128 map entries per map sector, +1 for the map
	// sector itself, so each map sector accounts for 129 sectors of the
	// device once the fixed header/root pair is excluded.
	const sectorSize = 512
	total := uint32(2 + 129*10)
	if got := mapSizeFor(total, sectorSize); got != 10 {
		t.Fatalf("mapSizeFor(%d, %d) = %d, want 10", total, sectorSize, got)
	}
}

func TestMapSizeForRoundsUp(t *testing.T) {
	const sectorSize = 512
	total := uint32(2 + 129*10 + 1)
	if got := mapSizeFor(total, sectorSize); got != 11 {
		t.Fatalf("mapSizeFor(%d, %d) = %d, want 11", total, sectorSize, got)
	}
}

func TestEntriesPerSectorAndMapItemsPerSector(t *testing.T) {
	if got := entriesPerSector(512); got != 8 {
		t.Fatalf("entriesPerSector(512) = %d, want 8", got)
	}
	if got := mapItemsPerSector(512); got != 128 {
		t.Fatalf("mapItemsPerSector(512) = %d, want 128", got)
	}
}
