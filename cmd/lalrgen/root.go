package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lalrgen",
	Short: "Generate a portable LALR(1) parsing table from a grammar",
	Long: `lalrgen generates the ACTION and GOTO tables of a context-free grammar
using spontaneous look-ahead generation and propagation. When the grammar is
not LALR(1), the conflicting table cells keep all of their entries so the
conflicts can be inspected with the show command.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}
