package grammar

import (
	"strings"
	"testing"

	"lalrgen/grammar/symbol"
	"lalrgen/spec"
)

func genGrammar(t *testing.T, src string) *Grammar {
	t.Helper()

	desc, err := spec.ParseGrammarDesc(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	b := GrammarBuilder{
		Desc: desc,
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return gram
}

type testSymbolGenerator func(text string) symbol.Symbol

func newTestSymbolGenerator(t *testing.T, symTab *symbol.Table) testSymbolGenerator {
	return func(text string) symbol.Symbol {
		t.Helper()

		sym, ok := symTab.ToSymbol(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

type testProductionGenerator func(lhs string, rhs ...string) *production

func newTestProductionGenerator(t *testing.T, genSym testSymbolGenerator, prods *productionSet) testProductionGenerator {
	return func(lhs string, rhs ...string) *production {
		t.Helper()

		candidates, ok := prods.findByLHS(genSym(lhs))
		if !ok {
			t.Fatalf("no productions with LHS %v", lhs)
		}
	CANDIDATES_LOOP:
		for _, prod := range candidates {
			if len(prod.rhs) != len(rhs) {
				continue
			}
			for i, text := range rhs {
				if prod.rhs[i] != genSym(text) {
					continue CANDIDATES_LOOP
				}
			}
			return prod
		}
		t.Fatalf("production was not found: %v → %v", lhs, strings.Join(rhs, " "))
		return nil
	}
}

type testItemGenerator func(lhs string, dot int, rhs ...string) *lrItem

func newTestItemGenerator(t *testing.T, genProd testProductionGenerator, arena *itemArena) testItemGenerator {
	return func(lhs string, dot int, rhs ...string) *lrItem {
		t.Helper()

		prod := genProd(lhs, rhs...)
		if dot < 0 || dot > prod.rhsLen {
			t.Fatalf("dot %v is out of range for %v → %v", dot, lhs, strings.Join(rhs, " "))
		}
		return arena.item(arena.id(prod.num, dot))
	}
}
