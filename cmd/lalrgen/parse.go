package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"lalrgen/driver"
	"lalrgen/spec"
)

var parseFlags = struct {
	source      *string
	onlyParse   *bool
	interactive *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <compiled grammar file path>",
		Short:   "Parse a text stream",
		Example: `  cat src | lalrgen parse grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.onlyParse = cmd.Flags().Bool("only-parse", false, "when this option is enabled, the parser doesn't build a parse tree")
	parseFlags.interactive = cmd.Flags().BoolP("interactive", "i", false, "read and parse lines interactively")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled grammar: %w", err)
	}

	if *parseFlags.interactive {
		return parseInteractively(cgram)
	}

	var src io.Reader = os.Stdin
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}

	return parseSource(cgram, src, os.Stdout)
}

func readCompiledGrammar(path string) (*spec.CompiledGrammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cgram := &spec.CompiledGrammar{}
	err = json.NewDecoder(f).Decode(cgram)
	if err != nil {
		return nil, err
	}
	return cgram, nil
}

func parseSource(cgram *spec.CompiledGrammar, src io.Reader, w io.Writer) error {
	var opts []driver.ParserOption
	if !*parseFlags.onlyParse {
		opts = append(opts, driver.MakeCST())
	}

	p, err := driver.NewParser(cgram, src, opts...)
	if err != nil {
		return err
	}

	err = p.Parse()
	if err != nil {
		return err
	}

	synErrs := p.SyntaxErrors()
	for _, synErr := range synErrs {
		writeSyntaxError(os.Stderr, synErr)
	}
	if len(synErrs) > 0 {
		return fmt.Errorf("syntax error")
	}

	if cst := p.CST(); cst != nil {
		driver.PrintTree(w, cst)
	}

	return nil
}

func parseInteractively(cgram *spec.CompiledGrammar) error {
	rl, err := readline.New("parse> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	pterm.Info.Println("Enter a line to parse it. Quit with <ctrl>D.")
	for {
		line, err := rl.Readline()
		if err != nil {
			// Both io.EOF and readline.ErrInterrupt end the session.
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		err = parseSource(cgram, strings.NewReader(line), os.Stdout)
		if err != nil {
			pterm.Error.Println(err.Error())
		}
	}
}

func writeSyntaxError(w io.Writer, synErr *driver.SyntaxError) {
	var tokText string
	switch {
	case synErr.Token.EOF:
		tokText = "<eof>"
	case synErr.Token.Invalid:
		tokText = fmt.Sprintf("'%v' (<invalid>)", string(synErr.Token.Lexeme))
	default:
		tokText = fmt.Sprintf("'%v'", string(synErr.Token.Lexeme))
	}

	fmt.Fprintf(w, "%v:%v: %v: %v", synErr.Row+1, synErr.Col+1, synErr.Message, tokText)
	if len(synErr.ExpectedTerminals) > 0 {
		fmt.Fprintf(w, "; expected: %v", strings.Join(synErr.ExpectedTerminals, ", "))
	}
	fmt.Fprintf(w, "\n")
}
