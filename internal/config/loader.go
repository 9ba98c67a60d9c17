package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// whitelistSet is a precomputed lookup table for fast whitelist membership checks.
var whitelistSet map[string]bool

func init() {
	whitelistSet = make(map[string]bool, len(WhitelistedVars))
	for _, v := range WhitelistedVars {
		whitelistSet[v] = true
	}
}

// LoadFile parses a KEY=VALUE config file at the given path.
//
// Lines are processed according to these rules:
//   - Empty lines and lines starting with # are skipped.
//   - Lines without an = sign are skipped.
//   - Leading and trailing whitespace is trimmed from both key and value.
//   - Keys not present in WhitelistedVars are silently ignored.
//
// Returns a map of whitelisted key-value pairs, or an error if the file
// cannot be opened.
func LoadFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on first '=' only.
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])

		// Enforce whitelist.
		if !whitelistSet[key] {
			continue
		}

		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return result, nil
}

// LoadEnv collects whitelisted variables from the process environment,
// using the SAFERUN_ prefix. This is the side channel the setup scripts
// use to pass defaults (repository URL, target directory) into saferun.
func LoadEnv() map[string]string {
	result := make(map[string]string)
	for _, key := range WhitelistedVars {
		if value, ok := os.LookupEnv(EnvPrefix + key); ok {
			result[key] = value
		}
	}
	return result
}

// LoadWithPrecedence assembles a Config by merging sources in order of
// increasing priority:
//
//  1. Built-in defaults
//  2. Global config file (globalPath)
//  3. Project config file (projectPath)
//  4. Explicit config file (explicitPath)
//  5. SAFERUN_* environment variables
//  6. CLI overrides (cliOverrides map)
//
// Any path that is empty is silently skipped, as is a missing global or
// project file. An explicit config file must exist.
func LoadWithPrecedence(globalPath, projectPath, explicitPath string, cliOverrides map[string]string) (*Config, error) {
	cfg := NewDefaultConfig()

	// Layer 2: global config file.
	if globalPath != "" {
		m, err := LoadFile(globalPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("global config: %w", err)
			}
			// Missing global config is not an error.
		} else {
			ApplyMapToConfig(cfg, m)
		}
	}

	// Layer 3: project config file.
	if projectPath != "" {
		m, err := LoadFile(projectPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("project config: %w", err)
			}
		} else {
			ApplyMapToConfig(cfg, m)
		}
	}

	// Layer 4: explicit config file (must exist if specified).
	if explicitPath != "" {
		m, err := LoadFile(explicitPath)
		if err != nil {
			return nil, fmt.Errorf("explicit config: %w", err)
		}
		ApplyMapToConfig(cfg, m)
	}

	// Layer 5: environment variables.
	ApplyMapToConfig(cfg, LoadEnv())

	// Layer 6: CLI overrides (highest priority).
	if len(cliOverrides) > 0 {
		ApplyMapToConfig(cfg, cliOverrides)
	}

	return cfg, nil
}

// ApplyMapToConfig sets fields on cfg from the key-value pairs in m.
// Keys must use the WhitelistedVars naming convention (e.g., "MAX_ATTEMPTS").
// Unknown keys are silently ignored. Numeric fields that fail to parse
// are silently ignored (the previous value is preserved).
func ApplyMapToConfig(cfg *Config, m map[string]string) {
	for key, value := range m {
		switch key {
		case "MAX_ATTEMPTS":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.MaxAttempts = v
			}
		case "BACKOFF_FACTOR":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				cfg.BackoffFactor = v
			}
		case "TIMEOUT_SECONDS":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.TimeoutSeconds = v
			}
		case "INSTALL_TIMEOUT":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.InstallTimeout = v
			}
		case "PROBE_ATTEMPTS":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.ProbeAttempts = v
			}
		case "PROBE_BASE_DELAY":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.ProbeBaseDelay = v
			}
		case "REPO_URL":
			cfg.RepoURL = value
		case "TARGET_DIR":
			cfg.TargetDir = value
		case "BRANCH":
			cfg.Branch = value
		case "LOG_FILE":
			cfg.LogFile = value
		case "VERBOSE":
			cfg.Verbose = parseBool(value)
		}
	}
}

// parseBool interprets common boolean representations.
// "true", "1", "yes" (case-insensitive) return true; everything else returns false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
