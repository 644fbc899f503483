package legacycache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestImportLegacyCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "490154203237518")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	speedJSON := `[{"speed":80.5,"timestamp":1696161600},{"speed":90.0,"timestamp":1696161660}]`
	if err := os.WriteFile(filepath.Join(dir, "truck_speed.json"), []byte(speedJSON), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := ImportLegacyCache(dir)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	var speedRows int
	for _, r := range rows {
		if r.HandlerName == "speed" {
			speedRows++
			if r.IMEI != "490154203237518" {
				t.Fatalf("want imei from dir name, got %q", r.IMEI)
			}
		}
	}
	if speedRows != 2 {
		t.Fatalf("want 2 speed rows, got %d (total rows %d)", speedRows, len(rows))
	}
}

func TestImportLegacyCacheMissingFilesSkipped(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "490154203237518")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	rows, err := ImportLegacyCache(dir)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("want no rows for empty dir, got %d", len(rows))
	}
}
