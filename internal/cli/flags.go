package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/setup-tools/internal/config"
)

// BindFlags registers the shared saferun flags as persistent flags on the
// root command. The flags directly modify fields in the provided config
// pointer. Call ValidateFlags after parsing to check values.
func BindFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.PersistentFlags()

	// Retry policy.
	flags.IntVarP(&cfg.MaxAttempts, "max-attempts", "a", 3, "Maximum attempts per operation")
	flags.Float64VarP(&cfg.BackoffFactor, "backoff-factor", "b", 2, "Geometric backoff factor in seconds")
	flags.IntVarP(&cfg.TimeoutSeconds, "timeout", "t", 0, "Per-attempt timeout in seconds (0 = none)")
	flags.IntVar(&cfg.InstallTimeout, "install-timeout", 300, "Per-attempt timeout for dependency installs")

	// Configuration.
	flags.StringVar(&cfg.ConfigFile, "config", "", "Path to additional config file")
	flags.StringVar(&cfg.LogFile, "log-file", ".saferun/saferun.log", "Log file path")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable debug output")
}

// ValidateFlags checks flag values after parsing.
// Must be called after cmd.Execute() or cmd.ParseFlags().
func ValidateFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("--max-attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.BackoffFactor < 0 {
		return fmt.Errorf("--backoff-factor must not be negative, got %g", cfg.BackoffFactor)
	}
	if cfg.TimeoutSeconds < 0 {
		return fmt.Errorf("--timeout must not be negative, got %d", cfg.TimeoutSeconds)
	}
	if cfg.InstallTimeout < 0 {
		return fmt.Errorf("--install-timeout must not be negative, got %d", cfg.InstallTimeout)
	}

	// --config must exist if provided.
	if cfg.ConfigFile != "" {
		if _, err := os.Stat(cfg.ConfigFile); err != nil {
			return fmt.Errorf("--config: %w", err)
		}
	}

	return nil
}

// BuildOverrides creates a map of CLI flag overrides from the config.
// Uses cmd.Flags().Changed() to only include flags explicitly set by the
// user, ensuring config file and environment values are not accidentally
// clobbered by flag defaults.
func BuildOverrides(cmd *cobra.Command, cfg *config.Config) map[string]string {
	overrides := make(map[string]string)

	if cmd.Flags().Changed("max-attempts") {
		overrides["MAX_ATTEMPTS"] = fmt.Sprintf("%d", cfg.MaxAttempts)
	}
	if cmd.Flags().Changed("backoff-factor") {
		overrides["BACKOFF_FACTOR"] = fmt.Sprintf("%g", cfg.BackoffFactor)
	}
	if cmd.Flags().Changed("timeout") {
		overrides["TIMEOUT_SECONDS"] = fmt.Sprintf("%d", cfg.TimeoutSeconds)
	}
	if cmd.Flags().Changed("install-timeout") {
		overrides["INSTALL_TIMEOUT"] = fmt.Sprintf("%d", cfg.InstallTimeout)
	}
	if cmd.Flags().Changed("log-file") {
		overrides["LOG_FILE"] = cfg.LogFile
	}
	if cmd.Flags().Changed("verbose") {
		if cfg.Verbose {
			overrides["VERBOSE"] = "true"
		} else {
			overrides["VERBOSE"] = "false"
		}
	}

	return overrides
}
