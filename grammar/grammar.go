package grammar

import (
	"fmt"
	"io"
	"strings"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/npillmayer/schuko/tracing"

	"lalrgen/grammar/symbol"
	"lalrgen/spec"
)

func tracer() tracing.Trace {
	return tracing.Select("lalrgen.grammar")
}

type Grammar struct {
	name                 string
	lexSpec              *mlspec.LexSpec
	skipLexKinds         []mlspec.LexKindName
	symbolTable          *symbol.Table
	productionSet        *productionSet
	augmentedStartSymbol symbol.Symbol
}

type GrammarBuilder struct {
	Desc *spec.GrammarDesc
}

func (b *GrammarBuilder) Build() (*Grammar, error) {
	if b.Desc.Name == "" {
		return nil, fmt.Errorf("name is missing")
	}
	if b.Desc.Start == "" {
		return nil, fmt.Errorf("start symbol is missing")
	}
	if len(b.Desc.Productions) == 0 {
		return nil, fmt.Errorf("grammar must have at least one production")
	}

	symTab := symbol.NewTable()

	// The augmented start symbol takes the start symbol's name with a
	// prime so it cannot clash with a user-defined symbol only by
	// accident, not by construction; an explicit clash is an error.
	augStartText := b.Desc.Start + "'"
	augStartSym, err := symTab.RegisterStartSymbol(augStartText)
	if err != nil {
		return nil, err
	}

	lexEntries := []*mlspec.LexEntry{}
	skipKinds := []mlspec.LexKindName{}
	for _, term := range b.Desc.Terminals {
		if term.Name == "" {
			return nil, fmt.Errorf("terminal name is missing")
		}
		if term.Pattern == "" {
			return nil, fmt.Errorf("pattern of terminal %v is missing", term.Name)
		}
		sym, err := symTab.RegisterTerminalSymbol(term.Name)
		if err != nil {
			return nil, err
		}
		if !sym.IsTerminal() || sym.IsEOF() {
			return nil, fmt.Errorf("invalid terminal name: %v", term.Name)
		}
		lexEntries = append(lexEntries, &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(term.Name),
			Pattern: mlspec.LexPattern(term.Pattern),
		})
		if term.Skip {
			skipKinds = append(skipKinds, mlspec.LexKindName(term.Name))
		}
	}

	for _, prod := range b.Desc.Productions {
		if prod.LHS == "" {
			return nil, fmt.Errorf("LHS of a production is missing")
		}
		sym, err := symTab.RegisterNonTerminalSymbol(prod.LHS)
		if err != nil {
			return nil, err
		}
		if sym.IsTerminal() {
			return nil, fmt.Errorf("symbol %v is used as both a terminal and a non-terminal", prod.LHS)
		}
	}

	startSym, ok := symTab.ToSymbol(b.Desc.Start)
	if !ok || !startSym.IsNonTerminal() {
		return nil, fmt.Errorf("start symbol %v must appear on the LHS of a production", b.Desc.Start)
	}

	prods := newProductionSet()
	{
		augProd, err := newProduction(augStartSym, []symbol.Symbol{startSym})
		if err != nil {
			return nil, err
		}
		prods.append(augProd)
	}
	for _, prodDesc := range b.Desc.Productions {
		lhs, _ := symTab.ToSymbol(prodDesc.LHS)
		rhs := make([]symbol.Symbol, len(prodDesc.RHS))
		for i, text := range prodDesc.RHS {
			sym, ok := symTab.ToSymbol(text)
			if !ok {
				return nil, fmt.Errorf("undefined symbol in production %v: %v", prodDesc.LHS, text)
			}
			rhs[i] = sym
		}
		prod, err := newProduction(lhs, rhs)
		if err != nil {
			return nil, err
		}
		if !prods.append(prod) {
			return nil, fmt.Errorf("duplicate production: %v → %v", prodDesc.LHS, strings.Join(prodDesc.RHS, " "))
		}
	}

	return &Grammar{
		name: b.Desc.Name,
		lexSpec: &mlspec.LexSpec{
			Name:    b.Desc.Name,
			Entries: lexEntries,
		},
		skipLexKinds:         skipKinds,
		symbolTable:          symTab,
		productionSet:        prods,
		augmentedStartSymbol: augStartSym,
	}, nil
}

type compileConfig struct {
	descriptionWriter io.Writer
}

type CompileOption func(config *compileConfig)

// EnableDescription directs Compile to write a human-readable dump of
// the generated table to w.
func EnableDescription(w io.Writer) CompileOption {
	return func(config *compileConfig) {
		config.descriptionWriter = w
	}
}

// Compile generates the ACTION/GOTO tables of a grammar along with a
// compiled lexical specification. When the grammar is not LALR(1) the
// tables still come back complete; the conflicting cells keep all
// their entries and the report records every conflict.
func Compile(gram *Grammar, opts ...CompileOption) (*spec.CompiledGrammar, *spec.Report, error) {
	config := &compileConfig{}
	for _, opt := range opts {
		opt(config)
	}

	lexSpec, err, cErrs := mlcompiler.Compile(gram.lexSpec, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) > 0 {
			var b strings.Builder
			writeCompileError(&b, cErrs[0])
			for _, cerr := range cErrs[1:] {
				fmt.Fprintf(&b, "\n")
				writeCompileError(&b, cerr)
			}
			return nil, nil, fmt.Errorf(b.String())
		}
		return nil, nil, err
	}

	kind2Term := make([]int, len(lexSpec.KindNames))
	term2Kind := make([]int, gram.symbolTable.TerminalCount())
	skip := make([]int, len(lexSpec.KindNames))
	for i, k := range lexSpec.KindNames {
		if k == mlspec.LexKindNameNil {
			kind2Term[mlspec.LexKindIDNil] = symbol.SymbolNil.Num().Int()
			continue
		}

		sym, ok := gram.symbolTable.ToSymbol(k.String())
		if !ok {
			return nil, nil, fmt.Errorf("terminal symbol '%v' was not found in a symbol table", k)
		}
		kind2Term[i] = sym.Num().Int()
		term2Kind[sym.Num()] = i

		for _, sk := range gram.skipLexKinds {
			if k != sk {
				continue
			}
			skip[i] = 1
			break
		}
	}

	terms, err := gram.symbolTable.TerminalTexts()
	if err != nil {
		return nil, nil, err
	}

	nonTerms, err := gram.symbolTable.NonTerminalTexts()
	if err != nil {
		return nil, nil, err
	}

	firstSet, err := genFirstSet(gram.productionSet)
	if err != nil {
		return nil, nil, err
	}

	arena := newItemArena(gram.productionSet)

	automaton, err := genLR0Automaton(gram.productionSet, arena, gram.augmentedStartSymbol)
	if err != nil {
		return nil, nil, err
	}

	collection, err := genLALR1Collection(automaton, gram.productionSet, firstSet)
	if err != nil {
		return nil, nil, err
	}

	builder := &lrTableBuilder{
		automaton:    automaton,
		collection:   collection,
		prods:        gram.productionSet,
		first:        firstSet,
		termCount:    len(terms),
		nonTermCount: len(nonTerms),
		symTab:       gram.symbolTable,
	}
	tab, err := builder.build()
	if err != nil {
		return nil, nil, err
	}

	if config.descriptionWriter != nil {
		err := tab.WriteDescription(config.descriptionWriter, gram.symbolTable)
		if err != nil {
			return nil, nil, err
		}
	}

	report, err := builder.genReport(tab)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range gram.lexSpec.Entries {
		sym, ok := gram.symbolTable.ToSymbol(string(e.Kind))
		if !ok {
			continue
		}
		report.Terminals[sym.Num()].Pattern = string(e.Pattern)
	}

	action := make([][]*spec.ActionEntry, len(tab.actionTable))
	for i, cell := range tab.actionTable {
		if len(cell) == 0 {
			continue
		}
		entries := make([]*spec.ActionEntry, len(cell))
		for j, e := range cell {
			switch e.ty {
			case ActionTypeShift:
				entries[j] = &spec.ActionEntry{
					Type:  spec.ActionTypeShift,
					State: e.state.Int(),
				}
			case ActionTypeReduce:
				entries[j] = &spec.ActionEntry{
					Type:       spec.ActionTypeReduce,
					Production: e.prod.Int(),
				}
			case ActionTypeAccept:
				entries[j] = &spec.ActionEntry{
					Type: spec.ActionTypeAccept,
				}
			}
		}
		action[i] = entries
	}

	goTo := make([]int, len(tab.goToTable))
	for i, e := range tab.goToTable {
		goTo[i] = int(e)
	}

	lhsSymbols := make([]int, gram.productionSet.len())
	altSymCounts := make([]int, gram.productionSet.len())
	for _, p := range gram.productionSet.all() {
		lhsSymbols[p.num] = p.lhs.Num().Int()
		altSymCounts[p.num] = p.rhsLen
	}

	return &spec.CompiledGrammar{
		Name: gram.name,
		LexicalSpecification: &spec.LexicalSpecification{
			Lexer: "maleeni",
			Maleeni: &spec.Maleeni{
				Spec:           lexSpec,
				KindToTerminal: kind2Term,
				TerminalToKind: term2Kind,
				Skip:           skip,
			},
		},
		ParsingTable: &spec.ParsingTable{
			Action:                  action,
			GoTo:                    goTo,
			StateCount:              tab.stateCount,
			InitialState:            tab.InitialState.Int(),
			StartProduction:         productionNumStart.Int(),
			LHSSymbols:              lhsSymbols,
			AlternativeSymbolCounts: altSymCounts,
			Terminals:               terms,
			TerminalCount:           tab.terminalCount,
			NonTerminals:            nonTerms,
			NonTerminalCount:        tab.nonTerminalCount,
			EOFSymbol:               symbol.SymbolEOF.Num().Int(),
		},
	}, report, nil
}

func writeCompileError(w io.Writer, cErr *mlcompiler.CompileError) {
	if cErr.Fragment {
		fmt.Fprintf(w, "fragment ")
	}
	fmt.Fprintf(w, "%v: %v", cErr.Kind, cErr.Cause)
	if cErr.Detail != "" {
		fmt.Fprintf(w, ": %v", cErr.Detail)
	}
}
