package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/module"
	"github.com/telagod/kooix/internal/sema"
)

var checkCmd = &cobra.Command{
	Use:   "check <entry>",
	Short: "Parse and semantically check a program; exit 0 iff no errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, sm, bag := checkIncludeMode(args[0])
		printBag(bag, sm)
		if bag.HasErrors() {
			os.Exit(exitFailure)
		}
		fmt.Println(green("OK"))
		return nil
	},
}

var (
	checkModulesJSON           bool
	checkModulesPretty         bool
	checkModulesStrictWarnings bool
)

var checkModulesCmd = &cobra.Command{
	Use:   "check-modules <entry>",
	Short: "Module-aware semantic check across the import graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheckModules(args[0])
	},
}

func init() {
	checkModulesCmd.Flags().BoolVar(&checkModulesJSON, "json", false, "print a machine-readable JSON summary")
	checkModulesCmd.Flags().BoolVar(&checkModulesPretty, "pretty", false, "indent the JSON summary (implies --json)")
	checkModulesCmd.Flags().BoolVar(&checkModulesStrictWarnings, "strict-warnings", false, "treat warnings as failures")
}

func runCheckModules(entryPath string) error {
	bag := diag.NewBag()
	graph := module.Load(entryPath, bag)
	if bag.HasErrors() {
		printBag(bag, nil)
		os.Exit(exitFailure)
	}

	results := sema.AnalyzeGraph(graph)

	var moduleResults []diag.ModuleResult
	allOK := true
	for _, id := range graph.TopoOrder() {
		result := results[id]
		moduleResults = append(moduleResults, diag.ModuleResult{Path: id, Diagnostics: result.Bag.Reports()})
		if !result.Bag.StrictOK(checkModulesStrictWarnings) {
			allOK = false
		}
	}

	out := diag.EncodeCheckModules(moduleResults, checkModulesStrictWarnings)

	if checkModulesJSON || checkModulesPretty {
		data, err := out.ToJSON(checkModulesPretty)
		if err != nil {
			return err
		}
		fmt.Println(data)
	} else {
		for _, m := range moduleResults {
			if len(m.Diagnostics) == 0 {
				fmt.Printf("%s %s\n", green("OK"), m.Path)
				continue
			}
			for _, r := range m.Diagnostics {
				line := r.String()
				if r.Severity == diag.SevError {
					fmt.Println(red(line))
				} else {
					fmt.Println(yellow(line))
				}
			}
		}
	}

	if !allOK {
		os.Exit(exitFailure)
	}
	return nil
}
