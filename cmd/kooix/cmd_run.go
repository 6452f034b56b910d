package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telagod/kooix/internal/interp"
)

var runCmd = &cobra.Command{
	Use:   "run <entry>",
	Short: "Interpret the program's main function",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, sm, bag := checkIncludeMode(args[0])
		if bag.HasErrors() {
			printBag(bag, sm)
			os.Exit(exitFailure)
		}

		it := interp.New(prog, 0)
		result, err := it.Run("main", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Runtime error"), err)
			os.Exit(exitFailure)
		}
		if _, isUnit := result.(interp.UnitValue); !isUnit {
			fmt.Println(result.String())
		}
		return nil
	},
}
