// Package cli provides flag binding, validation, and help text for the saferun CLI.
package cli

import (
	"github.com/spf13/cobra"
)

const helpTemplate = `saferun - Retriable process runner for agent environment bootstrap

USAGE
  saferun [command] [flags] [-- <command> [args...]]

COMMANDS
  run           Run a command with retries (and an optional per-attempt timeout)
  clone         Clone a repository, fetching instead when it already exists
  pull          Pull a branch in an existing repository
  install       Install project dependencies under a time-bounded retry
  check-remote  Probe whether a git remote is reachable

FLAGS
  Retry Policy:
    -a, --max-attempts <int>       Maximum attempts per operation (default: 3)
    -b, --backoff-factor <float>   Geometric backoff factor in seconds (default: 2)
    -t, --timeout <int>            Per-attempt timeout in seconds, 0 = none (default: 0)
    --install-timeout <int>        Per-attempt timeout for installs (default: 300)

  Configuration:
    --config <path>                Path to additional config file
    --log-file <path>              Log file path (default: .saferun/saferun.log)
    -v, --verbose                  Enable debug output

  Help & Version:
    -h, --help                     Show this help text
    --version                      Show version, commit, build date

EXIT CODES
  0   Success        The command eventually succeeded
  1   Error          Invalid arguments, missing manifest, misconfiguration
  124 Timeout        Retries exhausted and the final attempt hit its deadline
  130 Interrupted    SIGINT or SIGTERM received
  N   Failure        The wrapped command's own last nonzero exit status

ENVIRONMENT
  Every config key can be supplied as SAFERUN_<KEY>, e.g. SAFERUN_REPO_URL,
  SAFERUN_MAX_ATTEMPTS. Environment values override config files and are
  themselves overridden by flags.

EXAMPLES
  # Retry a flaky command up to 5 times with doubling delays
  saferun run --max-attempts 5 -- npm test

  # Bound each attempt to 2 minutes
  saferun run --timeout 120 -- make integration

  # Clone (or refresh) the workspace repository
  saferun clone https://github.com/acme/widgets.git /srv/widgets

  # Install dependencies, 3 attempts, 300s each
  saferun install /srv/widgets

For more information, see: https://github.com/CodexForgeBR/setup-tools
`

// SetCustomHelp configures the cobra command to use our custom help template.
func SetCustomHelp(cmd *cobra.Command) {
	cmd.SetHelpTemplate(helpTemplate)
}
