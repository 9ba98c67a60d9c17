// Package banner provides colored banner display functions for the saferun CLI.
//
// All banner functions write formatted output to stdout with color-coded
// headers and separators. These frame the start and outcome of a retried
// operation in the setup logs, where several tools write interleaved output.
package banner

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/CodexForgeBR/setup-tools/internal/logging"
	"github.com/CodexForgeBR/setup-tools/internal/runner"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
	successColor = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

const sepLine = "═══════════════════════════════════════════════════"

// PrintStartupBanner displays the operation about to run and its policy.
//
// Example output:
//
//	═══════════════════════════════════════════════════
//	  saferun - retriable process runner
//	═══════════════════════════════════════════════════
//	  Operation:  clone
//	  Attempts:   3
//	  Backoff:    2s (geometric, x2)
//	  Timeout:    5m 0s per attempt
//	═══════════════════════════════════════════════════
func PrintStartupBanner(operation string, p runner.Policy) {
	sep := headerColor(sepLine)
	fmt.Println(sep)
	fmt.Println(headerColor("  saferun - retriable process runner"))
	fmt.Println(sep)
	base := p.BaseDelay
	if base == 0 {
		base = time.Duration(p.BackoffFactor * float64(time.Second))
	}

	fmt.Printf("  Operation:  %s\n", operation)
	fmt.Printf("  Attempts:   %d\n", p.MaxAttempts)
	fmt.Printf("  Backoff:    %s (geometric, x%g)\n", base, p.BackoffFactor)
	if p.Timeout > 0 {
		fmt.Printf("  Timeout:    %s per attempt\n", logging.FormatDuration(int(p.Timeout.Seconds())))
	} else {
		fmt.Printf("  Timeout:    none\n")
	}
	fmt.Println(sep)
}

// PrintResultBanner displays the terminal outcome of a retried operation.
func PrintResultBanner(operation string, result runner.Result, durationSecs int) {
	if result.Success {
		sep := successColor(sepLine)
		fmt.Println(sep)
		fmt.Printf(successColor("  ✓ %s succeeded\n"), operation)
		fmt.Printf("  Attempts:   %d\n", result.AttemptsMade)
		fmt.Printf("  Duration:   %s (%ds)\n", logging.FormatDuration(durationSecs), durationSecs)
		fmt.Println(sep)
		return
	}

	sep := errorColor(sepLine)
	fmt.Println(sep)
	if result.TimedOut {
		fmt.Printf(errorColor("  ✗ %s timed out after %d attempts\n"), operation, result.AttemptsMade)
	} else {
		fmt.Printf(errorColor("  ✗ %s failed after %d attempts (exit status %d)\n"),
			operation, result.AttemptsMade, result.ExitStatus)
	}
	fmt.Printf("  Duration:   %s (%ds)\n", logging.FormatDuration(durationSecs), durationSecs)
	fmt.Println(sep)
}
