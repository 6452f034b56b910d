package main

import (
	"fmt"

	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/hir"
	"github.com/telagod/kooix/internal/loader"
	"github.com/telagod/kooix/internal/parser"
	"github.com/telagod/kooix/internal/sema"
	"github.com/telagod/kooix/internal/source"
)

// parseIncludeMode expands entryPath's import graph via internal/loader and
// parses the concatenated result as a single module. The returned source.Map
// holds the concatenated blob under entryPath, so later diagnostics' spans
// (which the lexer/parser stamp with entryPath as the file id — see
// parser.ParseFile) can still be rendered with a source line and caret.
func parseIncludeMode(entryPath string) (*ast.Module, *source.Map, *diag.Bag) {
	bag := diag.NewBag()
	ld := loader.New(bag)
	result := ld.Load(entryPath)
	sm := source.NewMap()
	sm.Add(entryPath, result.Text)
	if bag.HasErrors() {
		return nil, sm, bag
	}
	mod := parser.ParseFile(result.Text, entryPath, entryPath, bag)
	return mod, sm, bag
}

// checkIncludeMode runs the full parse+sema pipeline in include mode,
// returning the resulting HIR program on success.
func checkIncludeMode(entryPath string) (*hir.Program, *source.Map, *diag.Bag) {
	mod, sm, bag := parseIncludeMode(entryPath)
	if bag.HasErrors() {
		return nil, sm, bag
	}
	result := sema.Analyze(mod)
	bag.Merge(result.Bag)
	if bag.HasErrors() {
		return nil, sm, bag
	}
	return hir.Lower(mod, result.Symbols), sm, bag
}

// printBag sorts bag's reports by position (file, line, column) and prints
// each to stdout in the textual form (spec.md §7: "<path>:<line>:<col>:
// <severity>: <message>"), including the offending source line and a caret
// when sm is non-nil (diag.RenderText).
func printBag(bag *diag.Bag, sm *source.Map) {
	bag.SortStable()
	for _, r := range bag.Reports() {
		var line string
		if sm != nil {
			line = diag.RenderText(r, sm)
		} else {
			line = r.String()
		}
		if r.Severity == diag.SevError {
			fmt.Println(red(line))
		} else {
			fmt.Println(yellow(line))
		}
	}
}
