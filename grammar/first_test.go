package grammar

import (
	"testing"

	"lalrgen/grammar/symbol"
)

type first struct {
	lhs     string
	num     int
	dot     int
	symbols []string
	empty   bool
}

func TestGenFirstSet(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		first   []first
	}{
		{
			caption: "productions contain only non-empty productions",
			src: `
name = "test"
start = "expr"

[[terminals]]
name = "add"
pattern = "\\+"

[[terminals]]
name = "mul"
pattern = "\\*"

[[terminals]]
name = "l_paren"
pattern = "\\("

[[terminals]]
name = "r_paren"
pattern = "\\)"

[[terminals]]
name = "id"
pattern = "[A-Za-z_][0-9A-Za-z_]*"

[[productions]]
lhs = "expr"
rhs = ["expr", "add", "term"]

[[productions]]
lhs = "expr"
rhs = ["term"]

[[productions]]
lhs = "term"
rhs = ["term", "mul", "factor"]

[[productions]]
lhs = "term"
rhs = ["factor"]

[[productions]]
lhs = "factor"
rhs = ["l_paren", "expr", "r_paren"]

[[productions]]
lhs = "factor"
rhs = ["id"]
`,
			first: []first{
				{lhs: "expr'", num: 0, dot: 0, symbols: []string{"l_paren", "id"}},
				{lhs: "expr", num: 0, dot: 0, symbols: []string{"l_paren", "id"}},
				{lhs: "expr", num: 0, dot: 1, symbols: []string{"add"}},
				{lhs: "expr", num: 0, dot: 2, symbols: []string{"l_paren", "id"}},
				{lhs: "expr", num: 1, dot: 0, symbols: []string{"l_paren", "id"}},
				{lhs: "term", num: 0, dot: 0, symbols: []string{"l_paren", "id"}},
				{lhs: "term", num: 0, dot: 1, symbols: []string{"mul"}},
				{lhs: "term", num: 0, dot: 2, symbols: []string{"l_paren", "id"}},
				{lhs: "term", num: 1, dot: 0, symbols: []string{"l_paren", "id"}},
				{lhs: "factor", num: 0, dot: 0, symbols: []string{"l_paren"}},
				{lhs: "factor", num: 0, dot: 1, symbols: []string{"l_paren", "id"}},
				{lhs: "factor", num: 0, dot: 2, symbols: []string{"r_paren"}},
				{lhs: "factor", num: 1, dot: 0, symbols: []string{"id"}},
			},
		},
		{
			caption: "productions contain an empty production",
			src: `
name = "test"
start = "s"

[[terminals]]
name = "bar"
pattern = "bar"

[[productions]]
lhs = "s"
rhs = ["foo", "bar"]

[[productions]]
lhs = "foo"
rhs = []
`,
			first: []first{
				{lhs: "s'", num: 0, dot: 0, symbols: []string{"bar"}, empty: false},
				{lhs: "s", num: 0, dot: 0, symbols: []string{"bar"}, empty: false},
				{lhs: "foo", num: 0, dot: 0, symbols: []string{}, empty: true},
			},
		},
		{
			caption: "a start production contains a non-empty alternative and empty alternative",
			src: `
name = "test"
start = "s"

[[terminals]]
name = "foo"
pattern = "foo"

[[productions]]
lhs = "s"
rhs = ["foo"]

[[productions]]
lhs = "s"
rhs = []
`,
			first: []first{
				{lhs: "s'", num: 0, dot: 0, symbols: []string{"foo"}, empty: true},
				{lhs: "s", num: 0, dot: 0, symbols: []string{"foo"}},
				{lhs: "s", num: 1, dot: 0, symbols: []string{}, empty: true},
			},
		},
		{
			caption: "a production contains a non-empty alternative and empty alternative",
			src: `
name = "test"
start = "s"

[[terminals]]
name = "bar"
pattern = "bar"

[[productions]]
lhs = "s"
rhs = ["foo"]

[[productions]]
lhs = "foo"
rhs = ["bar"]

[[productions]]
lhs = "foo"
rhs = []
`,
			first: []first{
				{lhs: "s'", num: 0, dot: 0, symbols: []string{"bar"}, empty: true},
				{lhs: "s", num: 0, dot: 0, symbols: []string{"bar"}, empty: true},
				{lhs: "foo", num: 0, dot: 0, symbols: []string{"bar"}},
				{lhs: "foo", num: 1, dot: 0, symbols: []string{}, empty: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			gram := genGrammar(t, tt.src)
			fst, err := genFirstSet(gram.productionSet)
			if err != nil {
				t.Fatal(err)
			}
			if fst == nil {
				t.Fatal("genFirstSet returned nil without any error")
			}

			for _, ttFirst := range tt.first {
				lhsSym, ok := gram.symbolTable.ToSymbol(ttFirst.lhs)
				if !ok {
					t.Fatalf("a symbol was not found; symbol: %v", ttFirst.lhs)
				}

				prods, ok := gram.productionSet.findByLHS(lhsSym)
				if !ok {
					t.Fatalf("a production was not found; LHS: %v (%v)", ttFirst.lhs, lhsSym)
				}

				actualFirst, err := fst.find(prods[ttFirst.num], ttFirst.dot)
				if err != nil {
					t.Fatalf("failed to get a FIRST set; LHS: %v (%v), num: %v, dot: %v, error: %v", ttFirst.lhs, lhsSym, ttFirst.num, ttFirst.dot, err)
				}

				expectedFirst := genExpectedFirstEntry(t, ttFirst.symbols, ttFirst.empty, gram.symbolTable)

				testFirst(t, actualFirst, expectedFirst)
			}
		})
	}
}

func genExpectedFirstEntry(t *testing.T, symbols []string, empty bool, symTab *symbol.Table) *firstEntry {
	t.Helper()

	entry := newFirstEntry()
	if empty {
		entry.addEmpty()
	}
	for _, text := range symbols {
		sym, ok := symTab.ToSymbol(text)
		if !ok {
			t.Fatalf("a symbol was not found; symbol: %v", text)
		}
		entry.add(sym)
	}

	return entry
}

func testFirst(t *testing.T, actual, expected *firstEntry) {
	t.Helper()

	if actual.empty != expected.empty {
		t.Errorf("empty is mismatched\nwant: %v\ngot: %v", expected.empty, actual.empty)
	}

	if len(actual.symbols) != len(expected.symbols) {
		t.Fatalf("invalid FIRST set\nwant: %+v\ngot: %+v", expected.symbols, actual.symbols)
	}

	for eSym := range expected.symbols {
		if _, ok := actual.symbols[eSym]; !ok {
			t.Fatalf("invalid FIRST set\nwant: %+v\ngot: %+v", expected.symbols, actual.symbols)
		}
	}
}
