package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"lalrgen/spec"
)

func init() {
	cmd := &cobra.Command{
		Use:     "show <report file path>",
		Short:   "Print a compilation report in a readable format",
		Example: `  lalrgen show expr-report.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0])
	if err != nil {
		return err
	}

	writeReport(report)
	return nil
}

func readReport(path string) (*spec.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the report file %s: %w", path, err)
	}
	defer f.Close()

	report := &spec.Report{}
	err = json.NewDecoder(f).Decode(report)
	if err != nil {
		return nil, fmt.Errorf("Cannot parse the report: %w", err)
	}
	return report, nil
}

func writeReport(report *spec.Report) {
	pterm.Info.Printf("%v productions, %v states\n", len(report.Productions), len(report.States))

	conflictCount := 0
	for _, s := range report.States {
		conflictCount += len(s.SRConflict) + len(s.RRConflict)
	}
	if conflictCount > 0 {
		pterm.Error.Printf("the grammar is not LALR(1): %v conflicts\n", conflictCount)
	}

	pterm.Println()
	pterm.Println("Productions:")
	for _, prod := range report.Productions {
		if prod == nil {
			continue
		}
		pterm.Printf("  %4v: %v\n", prod.Number, productionText(report, prod))
	}

	for _, state := range report.States {
		pterm.Println()
		pterm.Printf("State #%v\n", state.Number)

		ll := pterm.LeveledList{}
		for _, item := range state.Kernel {
			ll = append(ll, pterm.LeveledListItem{
				Level: 0,
				Text:  itemText(report, item),
			})
		}
		pterm.DefaultTree.WithRoot(pterm.NewTreeFromLeveledList(ll)).Render()

		for _, tr := range state.Shift {
			pterm.Printf("  shift on %v to state %v\n", symbolName(report, tr.Symbol, true), tr.State)
		}
		for _, r := range state.Reduce {
			las := make([]string, len(r.LookAhead))
			for i, la := range r.LookAhead {
				las[i] = symbolName(report, la, true)
			}
			pterm.Printf("  reduce %v on %v\n", productionText(report, report.Productions[r.Production]), strings.Join(las, ", "))
		}
		if state.Accept {
			pterm.Printf("  accept on %v\n", "<eof>")
		}
		for _, tr := range state.GoTo {
			pterm.Printf("  go to state %v on %v\n", tr.State, symbolName(report, tr.Symbol, false))
		}

		for _, c := range state.SRConflict {
			pterm.Error.Printf("  shift/reduce conflict on %v: shift %v / reduce %v\n",
				symbolName(report, c.Symbol, true), c.State, productionText(report, report.Productions[c.Production]))
		}
		for _, c := range state.RRConflict {
			pterm.Error.Printf("  reduce/reduce conflict on %v: reduce %v / reduce %v\n",
				symbolName(report, c.Symbol, true),
				productionText(report, report.Productions[c.Production1]),
				productionText(report, report.Productions[c.Production2]))
		}
	}
}

func symbolName(report *spec.Report, num int, terminal bool) string {
	if terminal {
		if num < len(report.Terminals) && report.Terminals[num] != nil {
			return report.Terminals[num].Name
		}
	} else {
		if num < len(report.NonTerminals) && report.NonTerminals[num] != nil {
			return report.NonTerminals[num].Name
		}
	}
	return fmt.Sprintf("#%v", num)
}

// productionText renders a production as "lhs → a b c". RHS entries
// are encoded with negative numbers for non-terminals.
func productionText(report *spec.Report, prod *spec.Production) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v →", symbolName(report, prod.LHS, false))
	if len(prod.RHS) == 0 {
		fmt.Fprintf(&b, " ε")
		return b.String()
	}
	for _, rhs := range prod.RHS {
		if rhs < 0 {
			fmt.Fprintf(&b, " %v", symbolName(report, rhs*-1, false))
		} else {
			fmt.Fprintf(&b, " %v", symbolName(report, rhs, true))
		}
	}
	return b.String()
}

func itemText(report *spec.Report, item *spec.Item) string {
	prod := report.Productions[item.Production]
	var b strings.Builder
	fmt.Fprintf(&b, "%v →", symbolName(report, prod.LHS, false))
	for i, rhs := range prod.RHS {
		if i == item.Dot {
			fmt.Fprintf(&b, " ・")
		}
		if rhs < 0 {
			fmt.Fprintf(&b, " %v", symbolName(report, rhs*-1, false))
		} else {
			fmt.Fprintf(&b, " %v", symbolName(report, rhs, true))
		}
	}
	if item.Dot == len(prod.RHS) {
		fmt.Fprintf(&b, " ・")
	}
	return b.String()
}
