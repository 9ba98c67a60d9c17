package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/setup-tools/internal/banner"
	"github.com/CodexForgeBR/setup-tools/internal/cli"
	"github.com/CodexForgeBR/setup-tools/internal/config"
	"github.com/CodexForgeBR/setup-tools/internal/deps"
	"github.com/CodexForgeBR/setup-tools/internal/exitcode"
	"github.com/CodexForgeBR/setup-tools/internal/gitops"
	"github.com/CodexForgeBR/setup-tools/internal/logging"
	"github.com/CodexForgeBR/setup-tools/internal/runner"
	sighandler "github.com/CodexForgeBR/setup-tools/internal/signal"
)

// version vars injected via ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cfg := config.NewDefaultConfig()

	rootCmd := &cobra.Command{
		Use:     "saferun",
		Short:   "Retriable process runner for agent environment bootstrap",
		Long:    "saferun wraps flaky setup commands (clones, pulls, dependency installs) in retries with geometric backoff and per-attempt timeouts.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Bind shared flags to the config.
	cli.BindFlags(rootCmd, cfg)

	// Set custom help template.
	cli.SetCustomHelp(rootCmd)

	rootCmd.AddCommand(
		newRunCmd(cfg),
		newCloneCmd(cfg),
		newPullCmd(cfg),
		newInstallCmd(cfg),
		newCheckRemoteCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcode.Error)
	}
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Run a command with retries and an optional per-attempt timeout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, cfg, "run", retryPolicy, func(ctx context.Context, cfg *config.Config) (runner.Result, error) {
				command := runner.Command{Program: args[0], Args: args[1:]}
				p := cfg.Policy()
				p.OnAttempt = runner.AttemptLogger(command.String())
				return runner.Run(ctx, p, command)
			})
		},
	}
}

func newCloneCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clone [url] [dir]",
		Short: "Clone a repository, fetching instead when it already exists",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, cfg, "clone", retryPolicy, func(ctx context.Context, cfg *config.Config) (runner.Result, error) {
				url := cfg.RepoURL
				if len(args) > 0 {
					url = args[0]
				}
				dir := cfg.TargetDir
				if len(args) > 1 {
					dir = args[1]
				}
				return gitops.SafeClone(ctx, url, dir, cfg.Policy())
			})
		},
	}
}

func newPullCmd(cfg *config.Config) *cobra.Command {
	var branch string
	cmd := &cobra.Command{
		Use:   "pull [dir]",
		Short: "Pull a branch in an existing repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, cfg, "pull", retryPolicy, func(ctx context.Context, cfg *config.Config) (runner.Result, error) {
				dir := cfg.TargetDir
				if len(args) > 0 {
					dir = args[0]
				}
				if branch == "" {
					branch = cfg.Branch
				}
				return gitops.SafePull(ctx, dir, branch, cfg.Policy())
			})
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "", "Branch to pull (default: current branch)")
	return cmd
}

func newInstallCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "install [dir]",
		Short: "Install project dependencies under a time-bounded retry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, cfg, "install", installPolicy, func(ctx context.Context, cfg *config.Config) (runner.Result, error) {
				dir := cfg.TargetDir
				if len(args) > 0 {
					dir = args[0]
				}
				return deps.SafeInstall(ctx, dir, cfg.InstallPolicy())
			})
		},
	}
}

func newCheckRemoteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check-remote [url]",
		Short: "Probe whether a git remote is reachable",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, cfg, "check-remote", probePolicy, func(ctx context.Context, cfg *config.Config) (runner.Result, error) {
				url := cfg.RepoURL
				if len(args) > 0 {
					url = args[0]
				}
				return gitops.CheckRemoteAccess(ctx, url, probePolicy(cfg))
			})
		},
	}
}

// operation is a retried unit of work selected by a subcommand.
type operation func(ctx context.Context, cfg *config.Config) (runner.Result, error)

// policyFor reports the policy an operation will run under, for the
// startup banner.
type policyFor func(cfg *config.Config) runner.Policy

func retryPolicy(cfg *config.Config) runner.Policy   { return cfg.Policy() }
func installPolicy(cfg *config.Config) runner.Policy { return cfg.InstallPolicy() }

func probePolicy(cfg *config.Config) runner.Policy {
	return gitops.ProbePolicy(cfg.ProbeAttempts, time.Duration(cfg.ProbeBaseDelay)*time.Second)
}

// execute is the shared subcommand body: it assembles the final config,
// installs the log sink and signal handler, runs the operation, and turns
// its result into the process exit code. It only returns for usage or
// configuration errors; otherwise it exits.
func execute(cmd *cobra.Command, cfg *config.Config, name string, policy policyFor, op operation) error {
	if err := cli.ValidateFlags(cmd, cfg); err != nil {
		return err
	}

	// Build CLI overrides using Changed() so flag defaults never clobber
	// config file or environment values.
	overrides := cli.BuildOverrides(cmd, cfg)

	finalCfg, err := config.LoadWithPrecedence(globalConfigPath(), projectConfigPath, cfg.ConfigFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	finalCfg.ConfigFile = cfg.ConfigFile

	logging.SetVerbose(finalCfg.Verbose)

	// The log destination is injected here, once per invocation.
	sink := logging.NewSink(finalCfg.LogFile)
	logging.SetSink(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sighandler.SetupSignalHandler(ctx, cancel, func() {
		logging.Warn("Interrupted — stopping the current attempt...")
	})

	p := policy(finalCfg)
	banner.PrintStartupBanner(name, p)
	logging.Debug(fmt.Sprintf("policy: attempts=%d backoff=%g timeout=%s",
		p.MaxAttempts, p.BackoffFactor, p.Timeout))

	start := time.Now()
	result, err := op(ctx, finalCfg)
	durationSecs := int(time.Since(start).Seconds())

	code := exitcode.FromResult(result)
	switch {
	case errors.Is(err, context.Canceled):
		// Only the signal handler cancels this context.
		code = exitcode.Interrupted
		logging.Warn(fmt.Sprintf("%s interrupted after %d attempt(s)", name, result.AttemptsMade))
	case err != nil:
		// Fail-fast errors: bad arguments, missing repo or manifest.
		logging.Error(err.Error())
		code = exitcode.Error
	default:
		banner.PrintResultBanner(name, result, durationSecs)
		if result.Success {
			logging.Success(fmt.Sprintf("%s completed in %s", name, logging.FormatDuration(durationSecs)))
		} else if result.TimedOut {
			logging.Error(fmt.Sprintf("%s timed out on the final attempt (after %d attempts)", name, result.AttemptsMade))
		} else {
			logging.Error(fmt.Sprintf("Command failed after %d attempts with exit status %d", result.AttemptsMade, result.ExitStatus))
		}
	}

	sink.Close()
	os.Exit(code)
	return nil // unreachable
}

// projectConfigPath is resolved relative to the invocation directory; the
// setup scripts run saferun from the workspace root.
const projectConfigPath = ".saferun/config"

func globalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".saferun", "config")
}
