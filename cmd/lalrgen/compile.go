package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lalrgen/grammar"
	"lalrgen/spec"
)

var compileFlags = struct {
	output   *string
	report   *string
	describe *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a grammar into a parsing table",
		Example: `  lalrgen compile grammar.toml -o grammar.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.report = cmd.Flags().StringP("report", "r", "", "report file path (default <grammar-name>-report.json)")
	compileFlags.describe = cmd.Flags().Bool("describe", false, "dump the generated table to stderr in a human-readable form")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	gram, err := readGrammar(args)
	if err != nil {
		return err
	}

	var opts []grammar.CompileOption
	if *compileFlags.describe {
		opts = append(opts, grammar.EnableDescription(os.Stderr))
	}

	cgram, report, err := grammar.Compile(gram, opts...)
	if err != nil {
		return err
	}

	err = writeCompiledGrammarAndReport(cgram, report, *compileFlags.output, *compileFlags.report)
	if err != nil {
		return fmt.Errorf("Cannot write an output files: %w", err)
	}

	var conflictCount int
	for _, s := range report.States {
		conflictCount += len(s.SRConflict) + len(s.RRConflict)
	}
	if conflictCount > 0 {
		fmt.Fprintf(os.Stderr, "the grammar is not LALR(1): %v conflicts\n", conflictCount)
	}

	return nil
}

func readGrammar(args []string) (*grammar.Grammar, error) {
	var src io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("Cannot open the grammar file %s: %w", args[0], err)
		}
		defer f.Close()
		src = f
	}

	desc, err := spec.ParseGrammarDesc(src)
	if err != nil {
		return nil, err
	}

	b := grammar.GrammarBuilder{
		Desc: desc,
	}
	return b.Build()
}

// writeCompiledGrammarAndReport writes a compiled grammar to path (stdout
// when path is empty) and a report to reportPath (a file named
// <grammar-name>-report.json in the current directory when reportPath is
// empty).
func writeCompiledGrammarAndReport(cgram *spec.CompiledGrammar, report *spec.Report, path string, reportPath string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	cgramJSON, err := json.Marshal(cgram)
	if err != nil {
		return err
	}
	_, err = w.Write(cgramJSON)
	if err != nil {
		return err
	}

	if reportPath == "" {
		reportPath = filepath.Join(".", fmt.Sprintf("%v-report.json", cgram.Name))
	}
	reportFile, err := os.OpenFile(reportPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer reportFile.Close()

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = reportFile.Write(reportJSON)
	return err
}
