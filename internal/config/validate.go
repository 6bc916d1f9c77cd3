package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	if err := c.validateScanner(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.ManifestFile == "" {
		return errors.New("paths.manifest_file must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.VideoDir == "" {
		return errors.New("paths.video_dir must be set")
	}
	return nil
}

func (c *Config) validateCamera() error {
	if c.Camera.Device == "" {
		return errors.New("camera.device must be set")
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > 240 {
		return fmt.Errorf("camera.fps must be between 1 and 240, got %v", c.Camera.FPS)
	}
	return nil
}

func (c *Config) validateScanner() error {
	if c.Scanner.StabilitySeconds <= 0 {
		return errors.New("scanner.stability_seconds must be positive")
	}
	if c.Scanner.PostScanBufferSeconds <= 0 {
		return errors.New("scanner.post_scan_buffer_seconds must be positive")
	}
	if c.Scanner.MinFreeSpaceGiB < 0 {
		return errors.New("scanner.min_free_space_gib must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
