// Package config loads terrarium's INI configuration file, auto-creating
// it with defaults when absent. The format is a single [Elevation] section
// with the remote tile server, the cache directory, the tile file
// extension, and the prefetch parallelism.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ashgrove-labs/terrarium/internal/errs"
)

const sectionElevation = "Elevation"

// Config mirrors the [Elevation] section of cfg_meridian.ini.
type Config struct {
	RemoteURL          string
	CacheDir           string
	Extension          string
	MaxParallelThreads int
}

// Default returns the configuration defaults written on first run.
func Default() *Config {
	return &Config{
		RemoteURL:          "https://elevation-tiles.example.com/elevations",
		CacheDir:           "cache/elevations",
		Extension:          "tif",
		MaxParallelThreads: 8,
	}
}

// Load reads path, auto-creating it with defaults if it does not exist.
// Keys present in the file override the corresponding default; keys absent
// fall back to it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, errs.NewFilesystemError("writing default config", err)
		}
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewFilesystemError("opening config", err)
	}
	defer f.Close()

	section := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		if section != sectionElevation {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "remote_url":
			cfg.RemoteURL = value
		case "cache_dir":
			cfg.CacheDir = value
		case "extension":
			cfg.Extension = value
		case "max_parallel_threads":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, errs.NewConfigMissingKey("max_parallel_threads")
			}
			cfg.MaxParallelThreads = n
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.NewFilesystemError("reading config", err)
	}

	return cfg, nil
}

// Save writes cfg to path in the cfg_meridian.ini layout.
func Save(path string, cfg *Config) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", sectionElevation)
	fmt.Fprintf(&b, "remote_url = %s\n", cfg.RemoteURL)
	fmt.Fprintf(&b, "cache_dir  = %s\n", cfg.CacheDir)
	fmt.Fprintf(&b, "extension  = %s\n", cfg.Extension)
	fmt.Fprintf(&b, "max_parallel_threads = %d\n", cfg.MaxParallelThreads)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Get looks a key up by section and name, returning ConfigMissingKey for
// an unrecognized key rather than panicking.
func (c *Config) Get(section, key string) (string, error) {
	if section != sectionElevation {
		return "", errs.NewConfigMissingKey(key)
	}
	switch key {
	case "remote_url":
		return c.RemoteURL, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "extension":
		return c.Extension, nil
	case "max_parallel_threads":
		return strconv.Itoa(c.MaxParallelThreads), nil
	default:
		return "", errs.NewConfigMissingKey(key)
	}
}
