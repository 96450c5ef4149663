package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDefaults(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeDefaults() error {
	var err error
	if strings.TrimSpace(c.Defaults.SwearsFile) != "" {
		if c.Defaults.SwearsFile, err = expandPath(c.Defaults.SwearsFile); err != nil {
			return fmt.Errorf("defaults.swears_file: %w", err)
		}
	}
	c.Defaults.Language = strings.TrimSpace(c.Defaults.Language)
	if c.Defaults.Language == "" {
		c.Defaults.Language = defaultLanguage
	}
	if strings.TrimSpace(c.Defaults.VideoParams) == "" {
		c.Defaults.VideoParams = defaultVideoParams
	}
	if strings.TrimSpace(c.Defaults.AudioParams) == "" {
		c.Defaults.AudioParams = defaultAudioParams
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
