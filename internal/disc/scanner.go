package disc

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bookrip/internal/metadata"
)

// Scanner enumerates optical drives attached to the system via sysfs.
type Scanner struct {
	sysBlock string
}

// NewScanner constructs a Scanner rooted at /sys/block.
func NewScanner() *Scanner {
	return &Scanner{sysBlock: "/sys/block"}
}

// NewScannerWithRoot allows overriding the sysfs root for testing.
func NewScannerWithRoot(root string) *Scanner {
	if strings.TrimSpace(root) == "" {
		root = "/sys/block"
	}
	return &Scanner{sysBlock: root}
}

// ListDrives returns the optical drives found under the sysfs root, sorted by
// device path. Drive readiness is probed best-effort; probe failures leave
// Ready false rather than failing the listing.
func (s *Scanner) ListDrives() ([]metadata.Drive, error) {
	entries, err := os.ReadDir(s.sysBlock)
	if err != nil {
		return nil, err
	}

	var drives []metadata.Drive
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "sr") {
			continue
		}
		drive := metadata.Drive{
			Device: "/dev/" + name,
			Model:  s.readModel(name),
		}
		if status, err := CheckDriveStatus(drive.Device); err == nil {
			drive.Ready = status == DriveStatusDiscOK
		}
		drives = append(drives, drive)
	}

	sort.Slice(drives, func(i, j int) bool { return drives[i].Device < drives[j].Device })
	return drives, nil
}

func (s *Scanner) readModel(name string) string {
	vendor := readSysAttr(filepath.Join(s.sysBlock, name, "device", "vendor"))
	model := readSysAttr(filepath.Join(s.sysBlock, name, "device", "model"))
	combined := strings.TrimSpace(strings.Join([]string{vendor, model}, " "))
	return combined
}

func readSysAttr(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
