package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/telagod/kooix/internal/codegen"
	"github.com/telagod/kooix/internal/config"
	"github.com/telagod/kooix/internal/mir"
	"github.com/telagod/kooix/internal/native"
)

var (
	nativeRun         bool
	nativeStdin       string
	nativeTimeoutMs   int
	nativeLLCPath     string
	nativeCCPath      string
	nativeRuntimeShim string
)

func addNativeFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&nativeRun, "run", false, "execute the built binary after linking")
	cmd.Flags().StringVar(&nativeStdin, "stdin", "", "inject stdin from FILE, or - for this process's stdin")
	cmd.Flags().IntVar(&nativeTimeoutMs, "timeout", 0, "kill the run after MS milliseconds (0 = no limit)")
	cmd.Flags().StringVar(&nativeLLCPath, "llc", "", "path to the llc binary (default: llc, or kooix.yaml's llc_path)")
	cmd.Flags().StringVar(&nativeCCPath, "cc", "", "path to the C compiler (default: cc, or kooix.yaml's cc_path)")
	cmd.Flags().StringVar(&nativeRuntimeShim, "runtime-shim", "", "path to the C runtime shim source (default: runtime/kooix_runtime.c)")
}

var nativeCmd = &cobra.Command{
	Use:   "native <entry> <out-path>",
	Short: "Compile a program to a native executable, optionally running it",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, outPath, runArgs := args[0], args[1], extraArgs(cmd, args)

		hirProg, sm, bag := checkIncludeMode(entry)
		if bag.HasErrors() {
			printBag(bag, sm)
			os.Exit(exitFailure)
		}
		mirProg := mir.Lower(hirProg)
		ir, err := codegen.Emit(mirProg)
		if err != nil {
			return err
		}

		irPath := outPath + ".ll"
		if err := os.WriteFile(irPath, []byte(ir), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", irPath, err)
		}
		defer os.Remove(irPath)

		return compileAndMaybeRun(irPath, outPath, runArgs)
	},
}

var nativeLLVMCmd = &cobra.Command{
	Use:   "native-llvm <ir-path> <out-path>",
	Short: "Compile LLVM IR text directly to a native executable",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		irPath, outPath, runArgs := args[0], args[1], extraArgs(cmd, args)
		return compileAndMaybeRun(irPath, outPath, runArgs)
	},
}

func init() {
	addNativeFlags(nativeCmd)
	addNativeFlags(nativeLLVMCmd)
}

// extraArgs returns everything the caller wrote after `--` as pass-through
// program arguments (spec.md §6: "[-- args…]"); cobra records the dash's
// position in the original argv via ArgsLenAtDash.
func extraArgs(cmd *cobra.Command, args []string) []string {
	idx := cmd.ArgsLenAtDash()
	if idx < 0 || idx >= len(args) {
		return nil
	}
	return args[idx:]
}

func resolveRuntimeShim() string {
	if nativeRuntimeShim != "" {
		return nativeRuntimeShim
	}
	if dir, ok := config.Find("."); ok {
		return filepath.Join(dir, "runtime", "kooix_runtime.c")
	}
	return filepath.Join("runtime", "kooix_runtime.c")
}

func compileAndMaybeRun(irPath, outPath string, runArgs []string) error {
	opts := nativeCompileOptions()
	fmt.Printf("%s Compiling %s -> %s\n", cyan("->"), irPath, outPath)
	if err := native.Compile(irPath, outPath, resolveRuntimeShim(), opts); err != nil {
		return err
	}
	fmt.Println(green("OK"))

	if !nativeRun {
		return nil
	}

	runOpts := native.RunOptions{Args: runArgs}
	if nativeTimeoutMs > 0 {
		runOpts.Timeout = time.Duration(nativeTimeoutMs) * time.Millisecond
	}
	switch nativeStdin {
	case "":
	case "-":
		runOpts.Stdin = os.Stdin
	default:
		f, err := os.Open(nativeStdin)
		if err != nil {
			return fmt.Errorf("opening stdin file %s: %w", nativeStdin, err)
		}
		defer f.Close()
		runOpts.Stdin = f
	}

	result, err := native.Run(outPath, runOpts)
	if err != nil {
		return err
	}
	fmt.Print(result.Stdout)
	fmt.Fprint(os.Stderr, result.Stderr)
	if result.TimedOut {
		fmt.Fprintln(os.Stderr, red("timed out"))
		os.Exit(native.TimeoutExitCode)
	}
	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
	return nil
}

// nativeCompileOptions resolves llc/cc paths: explicit flags win, then
// kooix.yaml's llc_path/cc_path, then native.Compile's own "llc"/"cc"
// PATH-lookup defaults.
func nativeCompileOptions() native.CompileOptions {
	opts := native.CompileOptions{LLCPath: nativeLLCPath, CCPath: nativeCCPath}
	if opts.LLCPath != "" && opts.CCPath != "" {
		return opts
	}
	dir, ok := config.Find(".")
	if !ok {
		return opts
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return opts
	}
	if opts.LLCPath == "" {
		opts.LLCPath = cfg.LLCPath
	}
	if opts.CCPath == "" {
		opts.CCPath = cfg.CCPath
	}
	return opts
}
