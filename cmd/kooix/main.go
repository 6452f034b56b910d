// Package main implements the kooix CLI - the driver binary exposing the
// compiler pipeline's subcommands (spec.md §6).
//
// This file is the entry point and command registration hub; the
// individual subcommands are split across cmd_*.go the way the pack's
// cmd/nerd/main.go splits its own command tree:
//
//   - main.go        - entry point, rootCmd, global flags
//   - pipeline.go     - shared parse -> sema -> hir plumbing and diagnostic printing
//   - cmd_check.go    - check, check-modules
//   - cmd_print.go    - ast, hir, mir, llvm
//   - cmd_run.go      - run
//   - cmd_native.go   - native, native-llvm
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Exit codes (spec.md §6): 0 success, 1 diagnostic/driver failure, a
// distinct reserved code for watchdog timeout (native.TimeoutExitCode).
const (
	exitOK      = 0
	exitFailure = 1
)

var rootCmd = &cobra.Command{
	Use:   "kooix",
	Short: "kooix - the Kooix compiler driver",
	Long: bold("kooix") + ` drives the Kooix pipeline: lexer, parser, semantic
analyzer, HIR/MIR lowering, bootstrap interpreter, LLVM emitter and native
link driver.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(exitFailure)
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(checkModulesCmd)
	rootCmd.AddCommand(astCmd)
	rootCmd.AddCommand(hirCmd)
	rootCmd.AddCommand(mirCmd)
	rootCmd.AddCommand(llvmCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(nativeCmd)
	rootCmd.AddCommand(nativeLLVMCmd)
}
