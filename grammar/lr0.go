package grammar

import (
	"fmt"
	"sort"

	"lalrgen/grammar/symbol"
)

type stateNum int

const stateNumInitial = stateNum(0)

func (n stateNum) Int() int {
	return int(n)
}

func (n stateNum) String() string {
	return fmt.Sprintf("%v", int(n))
}

type lr0State struct {
	*kernel
	num  stateNum
	next map[symbol.Symbol]stateNum
}

// lr0Automaton numbers states in discovery order, so the state of the
// initial kernel is always state 0. byCore resolves a kernel core to
// its state number; that lookup is what realizes the LALR merge.
type lr0Automaton struct {
	arena  *itemArena
	states []*lr0State
	byCore map[coreID]stateNum
}

func (a *lr0Automaton) stateByCore(core coreID) (*lr0State, bool) {
	num, ok := a.byCore[core]
	if !ok {
		return nil, false
	}
	return a.states[num], true
}

func genLR0Automaton(prods *productionSet, arena *itemArena, startSym symbol.Symbol) (*lr0Automaton, error) {
	if !startSym.IsStart() {
		return nil, fmt.Errorf("passed symbol is not a start symbol")
	}

	automaton := &lr0Automaton{
		arena:  arena,
		byCore: map[coreID]stateNum{},
	}

	uncheckedKernels := []*kernel{}

	{
		startProds, _ := prods.findByLHS(startSym)
		if len(startProds) == 0 {
			return nil, fmt.Errorf("production of the start symbol was not found")
		}
		initialItem := arena.item(arena.id(startProds[0].num, 0))

		k, err := newKernel([]*lrItem{initialItem})
		if err != nil {
			return nil, err
		}

		automaton.byCore[k.core] = stateNumInitial
		uncheckedKernels = append(uncheckedKernels, k)
	}

	for len(uncheckedKernels) > 0 {
		nextUncheckedKernels := []*kernel{}
		for _, k := range uncheckedKernels {
			state, neighbours, err := genStateAndNeighbourKernels(k, prods, arena)
			if err != nil {
				return nil, err
			}
			state.num = automaton.byCore[k.core]
			automaton.states = append(automaton.states, state)

			for _, n := range neighbours {
				if num, known := automaton.byCore[n.kernel.core]; known {
					state.next[n.symbol] = num
					continue
				}
				num := stateNum(len(automaton.byCore))
				automaton.byCore[n.kernel.core] = num
				state.next[n.symbol] = num
				nextUncheckedKernels = append(nextUncheckedKernels, n.kernel)
			}
		}
		uncheckedKernels = nextUncheckedKernels
	}

	// States are appended level by level, but within a level the append
	// order follows the kernels' discovery order, so the slice index and
	// the state number always agree.
	sort.Slice(automaton.states, func(i, j int) bool {
		return automaton.states[i].num < automaton.states[j].num
	})

	tracer().Debugf("LR(0) automaton has %d states", len(automaton.states))

	return automaton, nil
}

func genStateAndNeighbourKernels(k *kernel, prods *productionSet, arena *itemArena) (*lr0State, []*neighbourKernel, error) {
	items := lr0Closure(k, prods, arena)
	neighbours, err := genNeighbourKernels(items, arena)
	if err != nil {
		return nil, nil, err
	}

	return &lr0State{
		kernel: k,
		next:   map[symbol.Symbol]stateNum{},
	}, neighbours, nil
}

// lr0Closure expands a kernel with the dot-0 items of every
// non-terminal that appears immediately after a dot.
func lr0Closure(k *kernel, prods *productionSet, arena *itemArena) []*lrItem {
	items := []*lrItem{}
	knownItems := map[itemID]struct{}{}
	uncheckedItems := []*lrItem{}
	for _, item := range k.items {
		items = append(items, item)
		knownItems[item.id] = struct{}{}
		uncheckedItems = append(uncheckedItems, item)
	}
	for len(uncheckedItems) > 0 {
		nextUncheckedItems := []*lrItem{}
		for _, item := range uncheckedItems {
			if !item.dottedSymbol.IsNonTerminal() {
				continue
			}

			ps, _ := prods.findByLHS(item.dottedSymbol)
			for _, prod := range ps {
				clItem := arena.item(arena.id(prod.num, 0))
				if _, exist := knownItems[clItem.id]; exist {
					continue
				}
				items = append(items, clItem)
				knownItems[clItem.id] = struct{}{}
				nextUncheckedItems = append(nextUncheckedItems, clItem)
			}
		}
		uncheckedItems = nextUncheckedItems
	}

	return items
}

type neighbourKernel struct {
	symbol symbol.Symbol
	kernel *kernel
}

func genNeighbourKernels(items []*lrItem, arena *itemArena) ([]*neighbourKernel, error) {
	kItemMap := map[symbol.Symbol][]*lrItem{}
	for _, item := range items {
		if item.dottedSymbol.IsNil() {
			continue
		}
		kItem := arena.item(item.id + 1)
		kItemMap[item.dottedSymbol] = append(kItemMap[item.dottedSymbol], kItem)
	}

	nextSyms := make([]symbol.Symbol, 0, len(kItemMap))
	for sym := range kItemMap {
		nextSyms = append(nextSyms, sym)
	}
	sort.Slice(nextSyms, func(i, j int) bool {
		return nextSyms[i] < nextSyms[j]
	})

	kernels := make([]*neighbourKernel, 0, len(nextSyms))
	for _, sym := range nextSyms {
		k, err := newKernel(kItemMap[sym])
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, &neighbourKernel{
			symbol: sym,
			kernel: k,
		})
	}

	return kernels, nil
}
