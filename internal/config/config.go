// Package config defines the saferun configuration model and default values.
//
// Configuration is assembled from multiple sources with a strict precedence
// chain: built-in defaults < global config file < project config file <
// explicit config file < SAFERUN_* environment variables < CLI flag
// overrides.
package config

import (
	"time"

	"github.com/CodexForgeBR/setup-tools/internal/runner"
)

// WhitelistedVars lists every configuration variable name that may appear
// in config files or as a SAFERUN_-prefixed environment variable.
// Variables not in this list are silently ignored during loading.
var WhitelistedVars = [11]string{
	"MAX_ATTEMPTS",
	"BACKOFF_FACTOR",
	"TIMEOUT_SECONDS",
	"INSTALL_TIMEOUT",
	"PROBE_ATTEMPTS",
	"PROBE_BASE_DELAY",
	"REPO_URL",
	"TARGET_DIR",
	"BRANCH",
	"LOG_FILE",
	"VERBOSE",
}

// EnvPrefix is prepended to whitelisted variable names when they are read
// from the environment (e.g. SAFERUN_REPO_URL).
const EnvPrefix = "SAFERUN_"

// Config holds every configuration field for the saferun CLI.
type Config struct {
	// Retry policy.
	MaxAttempts    int
	BackoffFactor  float64
	TimeoutSeconds int // per-attempt deadline for `run`; 0 disables it
	InstallTimeout int // per-attempt deadline for dependency installs

	// Remote-probe schedule (check-remote keeps its own schedule,
	// independent of the general retry policy).
	ProbeAttempts  int
	ProbeBaseDelay int // seconds

	// Defaults for the repository subcommands.
	RepoURL   string
	TargetDir string
	Branch    string

	// Logging.
	LogFile string
	Verbose bool

	// CLI-only flags (not loaded from config files).
	ConfigFile string
}

// NewDefaultConfig returns a Config populated with all built-in default values.
func NewDefaultConfig() *Config {
	return &Config{
		MaxAttempts:    3,
		BackoffFactor:  2,
		TimeoutSeconds: 0,
		InstallTimeout: 300,
		ProbeAttempts:  3,
		ProbeBaseDelay: 2,
		LogFile:        ".saferun/saferun.log",
	}
}

// Policy converts the configured retry settings into a runner policy.
func (c *Config) Policy() runner.Policy {
	return runner.Policy{
		MaxAttempts:   c.MaxAttempts,
		BackoffFactor: c.BackoffFactor,
		Timeout:       time.Duration(c.TimeoutSeconds) * time.Second,
	}.Normalize()
}

// InstallPolicy is Policy with the install-specific per-attempt timeout.
func (c *Config) InstallPolicy() runner.Policy {
	p := c.Policy()
	p.Timeout = time.Duration(c.InstallTimeout) * time.Second
	return p
}
