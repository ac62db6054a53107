package disc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListDrivesReadsSysfs(t *testing.T) {
	root := t.TempDir()
	writeSysAttr(t, filepath.Join(root, "sr0", "device", "vendor"), "ASUS    \n")
	writeSysAttr(t, filepath.Join(root, "sr0", "device", "model"), "BW-16D1HT\n")
	writeSysAttr(t, filepath.Join(root, "sr1", "device", "model"), "DVDRAM\n")
	if err := os.MkdirAll(filepath.Join(root, "sda"), 0o755); err != nil {
		t.Fatalf("mkdir sda: %v", err)
	}

	scanner := NewScannerWithRoot(root)
	drives, err := scanner.ListDrives()
	if err != nil {
		t.Fatalf("ListDrives failed: %v", err)
	}
	if len(drives) != 2 {
		t.Fatalf("expected 2 drives, got %d: %#v", len(drives), drives)
	}
	if drives[0].Device != "/dev/sr0" || drives[1].Device != "/dev/sr1" {
		t.Fatalf("unexpected device order: %#v", drives)
	}
	if drives[0].Model != "ASUS BW-16D1HT" {
		t.Fatalf("unexpected model: %q", drives[0].Model)
	}
}

func writeSysAttr(t *testing.T, path, value string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
