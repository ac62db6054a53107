package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used to classify pipeline failures. Stage handlers wrap
// their errors with one of these markers so the workflow manager can decide
// between fatal and degraded outcomes without inspecting message text.
var (
	ErrDriveNotReady     = errors.New("drive not ready")
	ErrDiscIDUnavailable = errors.New("disc id unavailable")
	ErrRipProcess        = errors.New("rip process error")
	ErrEncode            = errors.New("encode error")
	ErrMetadataLookup    = errors.New("metadata lookup error")
	ErrExternalTool      = errors.New("external tool error")
	ErrConfiguration     = errors.New("configuration error")
	ErrTransient         = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Degraded reports whether an error marks a feature degradation rather than a
// job failure. A missing disc ID tool or an unreachable metadata service
// leaves the pipeline usable with manual metadata.
func Degraded(err error) bool {
	return errors.Is(err, ErrDiscIDUnavailable) || errors.Is(err, ErrMetadataLookup)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
