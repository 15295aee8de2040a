package grammar

import (
	"fmt"
	"testing"

	"lalrgen/grammar/symbol"
)

type expectedLRState struct {
	kernelItems    []*lrItem
	nextStates     map[symbol.Symbol][]*lrItem
	reducibleProds []*production
}

func TestGenLR0Automaton(t *testing.T) {
	src := `
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
`

	gram := genGrammar(t, src)
	arena := newItemArena(gram.productionSet)
	automaton, err := genLR0Automaton(gram.productionSet, arena, gram.augmentedStartSymbol)
	if err != nil {
		t.Fatalf("failed to create a LR0 automaton: %v", err)
	}
	if automaton == nil {
		t.Fatalf("genLR0Automaton returns nil without any error")
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable)
	genProd := newTestProductionGenerator(t, genSym, gram.productionSet)
	genItem := newTestItemGenerator(t, genProd, arena)

	expectedKernels := map[int][]*lrItem{
		0: {
			genItem("expr'", 0, "expr"),
		},
		1: {
			genItem("expr'", 1, "expr"),
			genItem("expr", 1, "expr", "add", "term"),
		},
		2: {
			genItem("expr", 1, "term"),
			genItem("term", 1, "term", "mul", "factor"),
		},
		3: {
			genItem("term", 1, "factor"),
		},
		4: {
			genItem("factor", 1, "l_paren", "expr", "r_paren"),
		},
		5: {
			genItem("factor", 1, "id"),
		},
		6: {
			genItem("expr", 2, "expr", "add", "term"),
		},
		7: {
			genItem("term", 2, "term", "mul", "factor"),
		},
		8: {
			genItem("expr", 1, "expr", "add", "term"),
			genItem("factor", 2, "l_paren", "expr", "r_paren"),
		},
		9: {
			genItem("expr", 3, "expr", "add", "term"),
			genItem("term", 1, "term", "mul", "factor"),
		},
		10: {
			genItem("term", 3, "term", "mul", "factor"),
		},
		11: {
			genItem("factor", 3, "l_paren", "expr", "r_paren"),
		},
	}

	expectedStates := []*expectedLRState{
		{
			kernelItems: expectedKernels[0],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("expr"):    expectedKernels[1],
				genSym("term"):    expectedKernels[2],
				genSym("factor"):  expectedKernels[3],
				genSym("l_paren"): expectedKernels[4],
				genSym("id"):      expectedKernels[5],
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: expectedKernels[1],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("add"): expectedKernels[6],
			},
			reducibleProds: []*production{
				genProd("expr'", "expr"),
			},
		},
		{
			kernelItems: expectedKernels[2],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("mul"): expectedKernels[7],
			},
			reducibleProds: []*production{
				genProd("expr", "term"),
			},
		},
		{
			kernelItems: expectedKernels[3],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("term", "factor"),
			},
		},
		{
			kernelItems: expectedKernels[4],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("expr"):    expectedKernels[8],
				genSym("term"):    expectedKernels[2],
				genSym("factor"):  expectedKernels[3],
				genSym("l_paren"): expectedKernels[4],
				genSym("id"):      expectedKernels[5],
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: expectedKernels[5],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("factor", "id"),
			},
		},
		{
			kernelItems: expectedKernels[6],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("term"):    expectedKernels[9],
				genSym("factor"):  expectedKernels[3],
				genSym("l_paren"): expectedKernels[4],
				genSym("id"):      expectedKernels[5],
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: expectedKernels[7],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("factor"):  expectedKernels[10],
				genSym("l_paren"): expectedKernels[4],
				genSym("id"):      expectedKernels[5],
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: expectedKernels[8],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("add"):     expectedKernels[6],
				genSym("r_paren"): expectedKernels[11],
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: expectedKernels[9],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("mul"): expectedKernels[7],
			},
			reducibleProds: []*production{
				genProd("expr", "expr", "add", "term"),
			},
		},
		{
			kernelItems: expectedKernels[10],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("term", "term", "mul", "factor"),
			},
		},
		{
			kernelItems: expectedKernels[11],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("factor", "l_paren", "expr", "r_paren"),
			},
		},
	}

	testLRAutomaton(t, expectedStates, automaton, gram.productionSet)
}

func TestLR0AutomatonContainingEmptyProduction(t *testing.T) {
	src := `
name = "test"
start = "s"

[[terminals]]
name = "b"
pattern = "bar"

[[productions]]
lhs = "s"
rhs = ["foo", "bar"]

[[productions]]
lhs = "foo"
rhs = []

[[productions]]
lhs = "bar"
rhs = ["b"]

[[productions]]
lhs = "bar"
rhs = []
`

	gram := genGrammar(t, src)
	arena := newItemArena(gram.productionSet)
	automaton, err := genLR0Automaton(gram.productionSet, arena, gram.augmentedStartSymbol)
	if err != nil {
		t.Fatalf("failed to create a LR0 automaton: %v", err)
	}
	if automaton == nil {
		t.Fatalf("genLR0Automaton returns nil without any error")
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable)
	genProd := newTestProductionGenerator(t, genSym, gram.productionSet)
	genItem := newTestItemGenerator(t, genProd, arena)

	expectedKernels := map[int][]*lrItem{
		0: {
			genItem("s'", 0, "s"),
		},
		1: {
			genItem("s'", 1, "s"),
		},
		2: {
			genItem("s", 1, "foo", "bar"),
		},
		3: {
			genItem("s", 2, "foo", "bar"),
		},
		4: {
			genItem("bar", 1, "b"),
		},
	}

	expectedStates := []*expectedLRState{
		{
			kernelItems: expectedKernels[0],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("s"):   expectedKernels[1],
				genSym("foo"): expectedKernels[2],
			},
			reducibleProds: []*production{
				genProd("foo"),
			},
		},
		{
			kernelItems: expectedKernels[1],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("s'", "s"),
			},
		},
		{
			kernelItems: expectedKernels[2],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("bar"): expectedKernels[3],
				genSym("b"):   expectedKernels[4],
			},
			reducibleProds: []*production{
				genProd("bar"),
			},
		},
		{
			kernelItems: expectedKernels[3],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("s", "foo", "bar"),
			},
		},
		{
			kernelItems: expectedKernels[4],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("bar", "b"),
			},
		},
	}

	testLRAutomaton(t, expectedStates, automaton, gram.productionSet)
}

func testLRAutomaton(t *testing.T, expected []*expectedLRState, automaton *lr0Automaton, prods *productionSet) {
	if len(automaton.states) != len(expected) {
		t.Errorf("state count is mismatched; want: %v, got: %v", len(expected), len(automaton.states))
	}

	for i, eState := range expected {
		t.Run(fmt.Sprintf("state #%v", i), func(t *testing.T) {
			k, err := newKernel(eState.kernelItems)
			if err != nil {
				t.Fatalf("failed to create a kernel: %v", err)
			}

			state, ok := automaton.stateByCore(k.core)
			if !ok {
				t.Fatalf("a state with the kernel was not found: %v", eState.kernelItems)
			}

			// test kernel items
			{
				if len(state.items) != len(eState.kernelItems) {
					t.Errorf("kernel item count is mismatched; want: %v, got: %v", len(eState.kernelItems), len(state.items))
				}
				for _, eKItem := range eState.kernelItems {
					found := false
					for _, it := range state.items {
						if it.id == eKItem.id {
							found = true
							break
						}
					}
					if !found {
						t.Errorf("kernel item was not found: %v", eKItem.id)
					}
				}
			}

			// test next states
			{
				if len(state.next) != len(eState.nextStates) {
					t.Errorf("next state count is mismatched; want: %v, got: %v", len(eState.nextStates), len(state.next))
				}
				for eSym, eKItems := range eState.nextStates {
					nextKernel, err := newKernel(eKItems)
					if err != nil {
						t.Fatalf("failed to create a kernel: %v", err)
					}
					nextState, ok := state.next[eSym]
					if !ok {
						t.Fatalf("next state was not found; state: %v, symbol: %v", state.num, eSym)
					}
					eNext, ok := automaton.byCore[nextKernel.core]
					if !ok {
						t.Fatalf("a state with the kernel was not found: %v", eKItems)
					}
					if nextState != eNext {
						t.Errorf("next state is mismatched; want: %v, got: %v", eNext, nextState)
					}
				}
			}

			// test reducible productions
			{
				reducible := map[productionNum]struct{}{}
				for _, item := range lr0Closure(state.kernel, prods, automaton.arena) {
					if item.reducible {
						reducible[item.prod] = struct{}{}
					}
				}
				if len(reducible) != len(eState.reducibleProds) {
					t.Errorf("reducible production count is mismatched; want: %v, got: %v", len(eState.reducibleProds), len(reducible))
				}
				for _, eProd := range eState.reducibleProds {
					if _, ok := reducible[eProd.num]; !ok {
						t.Errorf("reducible production was not found: %v", eProd.num)
					}
				}
			}
		})
	}
}
