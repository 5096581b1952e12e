// Package config reads and writes the user configuration file
// ~/.config/go-enhance/config (XDG_CONFIG_HOME aware).
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Config keys.
const (
	KeyOutputDir = "output-dir"
	KeyProvider  = "provider"
	KeyModel     = "model"
	KeyChunkSize = "chunk-size"
	KeyOverlap   = "overlap"
)

// Environment variable fallbacks.
const (
	EnvOutputDir = "ENHANCE_OUTPUT_DIR"
	EnvProvider  = "ENHANCE_PROVIDER"
	EnvModel     = "ENHANCE_MODEL"
)

// ErrUnknownKey indicates a key that is not a configuration setting.
var ErrUnknownKey = errors.New("unknown config key")

// ErrInvalidValue indicates a value rejected by Validate.
var ErrInvalidValue = errors.New("invalid config value")

// Keys returns the supported keys in display order.
func Keys() []string {
	return []string{KeyOutputDir, KeyProvider, KeyModel, KeyChunkSize, KeyOverlap}
}

// Config holds user configuration.
type Config struct {
	OutputDir string
	Provider  string
	Model     string
	// ChunkSize and Overlap are in bytes; zero means "use the model default".
	ChunkSize int
	Overlap   int
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-enhance.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-enhance"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-enhance"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Config file values win; environment variables fill the gaps.
// A missing file is not an error.
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	cfg.OutputDir = data[KeyOutputDir]
	cfg.Provider = data[KeyProvider]
	cfg.Model = data[KeyModel]
	if cfg.ChunkSize, err = intValue(data, KeyChunkSize); err != nil {
		return cfg, err
	}
	if cfg.Overlap, err = intValue(data, KeyOverlap); err != nil {
		return cfg, err
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = os.Getenv(EnvOutputDir)
	}
	if cfg.Provider == "" {
		cfg.Provider = os.Getenv(EnvProvider)
	}
	if cfg.Model == "" {
		cfg.Model = os.Getenv(EnvModel)
	}
	return cfg, nil
}

func intValue(data map[string]string, key string) (int, error) {
	v, ok := data[key]
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s=%q in config: %w", key, v, ErrInvalidValue)
	}
	return n, nil
}

// Validate checks a key and value before Save.
// Provider and model names are checked by the caller against the catalog.
func Validate(key, value string) error {
	if !slices.Contains(Keys(), key) {
		return fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(Keys(), ", "), ErrUnknownKey)
	}
	switch key {
	case KeyChunkSize, KeyOverlap:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || (key == KeyChunkSize && n == 0) {
			return fmt.Errorf("%s must be a positive number of bytes, got %q: %w", key, value, ErrInvalidValue)
		}
	case KeyOutputDir, KeyProvider, KeyModel:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be empty: %w", key, ErrInvalidValue)
		}
	}
	return nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value
	return writeFile(p, existing)
}

// writeFile writes the config map to a file, keys sorted.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, data[key]); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return data, nil
}

// ResolveOutputPath resolves the final output path:
//  1. An absolute output is used as-is
//  2. A relative output is joined to outputDir when set
//  3. An empty output uses defaultName, joined to outputDir when set
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}
	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}
	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// EnsureOutputDir checks that d is a writable directory, creating it if needed.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty: %w", ErrInvalidValue)
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0o750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s: %w", d, ErrInvalidValue)
	}

	testFile := filepath.Join(d, ".go-enhance-write-test")
	f, err := os.Create(testFile) // #nosec G304 -- path is constructed from validated dir
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(testFile)
		return fmt.Errorf("directory is not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}
