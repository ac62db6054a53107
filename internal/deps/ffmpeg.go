package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// CheckFFmpegCapabilities verifies the ffmpeg build carries the pieces audio
// CD work needs: the libcdio demuxer for reading discs and the libmp3lame
// encoder for MP3 output. Distribution builds sometimes omit either one, and
// a missing capability only surfaces mid-rip without this check.
func CheckFFmpegCapabilities(ffmpegCommand string) []Status {
	binary := strings.TrimSpace(ffmpegCommand)
	if binary == "" {
		binary = "ffmpeg"
	}

	checks := []struct {
		name   string
		flag   string
		needle string
		detail string
	}{
		{
			name:   "FFmpeg libcdio demuxer",
			flag:   "-demuxers",
			needle: "libcdio",
			detail: "ffmpeg built without libcdio; cannot read audio CDs",
		},
		{
			name:   "FFmpeg libmp3lame encoder",
			flag:   "-encoders",
			needle: "libmp3lame",
			detail: "ffmpeg built without libmp3lame; cannot encode MP3s",
		},
	}

	results := make([]Status, 0, len(checks))
	for _, check := range checks {
		status := Status{
			Name:    check.name,
			Command: binary,
		}
		output, err := exec.Command(binary, "-hide_banner", check.flag).Output() //nolint:gosec
		if err != nil {
			status.Detail = fmt.Sprintf("run %s %s: %v", binary, check.flag, err)
			results = append(results, status)
			continue
		}
		if !strings.Contains(string(output), check.needle) {
			status.Detail = check.detail
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
