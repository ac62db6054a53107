package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRip()
	c.normalizeMusicBrainz()
	c.normalizeTags()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRip() {
	c.Rip.Device = strings.TrimSpace(c.Rip.Device)
	if c.Rip.Device == "" {
		c.Rip.Device = defaultDevice
	}
	c.Rip.Mode = strings.ToLower(strings.TrimSpace(c.Rip.Mode))
	if c.Rip.Mode == "" {
		c.Rip.Mode = ModeSplit
	}
}

func (c *Config) normalizeMusicBrainz() {
	c.MusicBrainz.BaseURL = strings.TrimRight(strings.TrimSpace(c.MusicBrainz.BaseURL), "/")
	if c.MusicBrainz.BaseURL == "" {
		c.MusicBrainz.BaseURL = defaultMusicBrainzBaseURL
	}
	c.MusicBrainz.UserAgent = strings.TrimSpace(c.MusicBrainz.UserAgent)
	if c.MusicBrainz.UserAgent == "" {
		c.MusicBrainz.UserAgent = defaultMusicBrainzAgent
	}
	if c.MusicBrainz.TimeoutSeconds <= 0 {
		c.MusicBrainz.TimeoutSeconds = 10
	}
}

func (c *Config) normalizeTags() {
	c.Tags.Genre = strings.TrimSpace(c.Tags.Genre)
	if c.Tags.Genre == "" {
		c.Tags.Genre = defaultGenre
	}
	c.Tags.Author = strings.TrimSpace(c.Tags.Author)
	c.Tags.Narrator = strings.TrimSpace(c.Tags.Narrator)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return abs, nil
}
