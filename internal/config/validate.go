package config

import (
	"errors"
	"fmt"
)

// Bitrate bounds for the MP3 encoder.
const (
	MinBitrate = 128
	MaxBitrate = 320
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRip(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateRip() error {
	if c.Rip.Device == "" {
		return errors.New("rip.device must be set")
	}
	if c.Rip.Bitrate < MinBitrate || c.Rip.Bitrate > MaxBitrate {
		return fmt.Errorf("rip.bitrate must be between %d and %d kbps", MinBitrate, MaxBitrate)
	}
	if c.Rip.Mode != ModeCombined && c.Rip.Mode != ModeSplit {
		return fmt.Errorf("rip.mode must be %q or %q", ModeCombined, ModeSplit)
	}
	if c.Rip.EncodeWorkers < 1 {
		return errors.New("rip.encode_workers must be at least 1")
	}
	if c.Rip.RipTimeout <= 0 {
		return errors.New("rip.rip_timeout must be positive (seconds)")
	}
	if c.Rip.ProbeTimeout <= 0 {
		return errors.New("rip.probe_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	if c.Workflow.DriveReadyTimeout <= 0 {
		return errors.New("workflow.drive_ready_timeout must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
