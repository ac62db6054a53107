package ffmpeg

import (
	"strconv"
	"strings"
	"time"
)

// parseStatusClock extracts the elapsed time from an ffmpeg stderr status
// line such as "size=   45056KiB time=00:04:13.02 bitrate=1411.2kbits/s".
func parseStatusClock(line string) (time.Duration, bool) {
	idx := strings.Index(line, "time=")
	if idx < 0 {
		return 0, false
	}
	value := line[idx+len("time="):]
	if end := strings.IndexByte(value, ' '); end >= 0 {
		value = value[:end]
	}
	return parseClock(value)
}

// parseOutTime extracts the elapsed time from -progress key=value output,
// preferring out_time_ms and falling back to out_time.
func parseOutTime(line string) (time.Duration, bool) {
	line = strings.TrimSpace(line)
	if value, ok := strings.CutPrefix(line, "out_time_ms="); ok {
		// Despite the name, out_time_ms carries microseconds.
		micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || micros < 0 {
			return 0, false
		}
		return time.Duration(micros) * time.Microsecond, true
	}
	if value, ok := strings.CutPrefix(line, "out_time="); ok {
		return parseClock(strings.TrimSpace(value))
	}
	return 0, false
}

// parseClock parses an ffmpeg HH:MM:SS.cc clock value.
func parseClock(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return 0, false
	}
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	if total < 0 {
		return 0, false
	}
	return total, true
}
