package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/codegen"
	"github.com/telagod/kooix/internal/hir"
	"github.com/telagod/kooix/internal/mir"
)

var astCmd = &cobra.Command{
	Use:   "ast <entry>",
	Short: "Print the parsed abstract syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mod, sm, bag := parseIncludeMode(args[0])
		if bag.HasErrors() {
			printBag(bag, sm)
			os.Exit(exitFailure)
		}
		fmt.Print(ast.Print(&ast.Program{Modules: []*ast.Module{mod}}))
		return nil
	},
}

var hirCmd = &cobra.Command{
	Use:   "hir <entry>",
	Short: "Print the lowered high-level IR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, sm, bag := checkIncludeMode(args[0])
		if bag.HasErrors() {
			printBag(bag, sm)
			os.Exit(exitFailure)
		}
		fmt.Print(hir.Print(prog))
		return nil
	},
}

var mirCmd = &cobra.Command{
	Use:   "mir <entry>",
	Short: "Print the lowered mid-level IR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hirProg, sm, bag := checkIncludeMode(args[0])
		if bag.HasErrors() {
			printBag(bag, sm)
			os.Exit(exitFailure)
		}
		mirProg := mir.Lower(hirProg)
		fmt.Print(mir.Dump(mirProg))
		return nil
	},
}

var llvmCmd = &cobra.Command{
	Use:   "llvm <entry>",
	Short: "Print the emitted LLVM IR text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hirProg, sm, bag := checkIncludeMode(args[0])
		if bag.HasErrors() {
			printBag(bag, sm)
			os.Exit(exitFailure)
		}
		mirProg := mir.Lower(hirProg)
		out, err := codegen.Emit(mirProg)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}
