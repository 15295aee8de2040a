package grammar

import (
	"fmt"
	"sort"

	"lalrgen/grammar/symbol"
)

// lookahead is a single lookahead slot of an item: either a concrete
// terminal, or the unresolved marker standing in for a kernel item's
// still-unknown lookaheads. The marker drives edge generation during
// propagation and never appears in a finished collection.
type lookahead struct {
	terminal   symbol.Symbol
	unresolved bool
}

func laTerminal(sym symbol.Symbol) lookahead {
	return lookahead{terminal: sym}
}

func laUnresolved() lookahead {
	return lookahead{unresolved: true}
}

func (la lookahead) String() string {
	if la.unresolved {
		return "#"
	}
	return la.terminal.String()
}

// laItem is a lookahead-annotated LR(0) item.
type laItem struct {
	item *lrItem
	la   lookahead
}

// lalr1Closure closes a set of lookahead-annotated items. For an item
// [A → α・B β, a] it adds [B → ・γ, b] for every terminal b in
// FIRST(β), and [B → ・γ, a] as well when β is nullable. The inherited
// lookahead a may itself be the unresolved marker.
func lalr1Closure(seed []*laItem, prods *productionSet, arena *itemArena, first *firstSet) ([]*laItem, error) {
	items := []*laItem{}
	known := map[itemID]map[lookahead]struct{}{}

	add := func(item *lrItem, la lookahead) *laItem {
		las, ok := known[item.id]
		if !ok {
			las = map[lookahead]struct{}{}
			known[item.id] = las
		}
		if _, exist := las[la]; exist {
			return nil
		}
		las[la] = struct{}{}
		it := &laItem{
			item: item,
			la:   la,
		}
		items = append(items, it)
		return it
	}

	unchecked := []*laItem{}
	for _, it := range seed {
		if added := add(it.item, it.la); added != nil {
			unchecked = append(unchecked, added)
		}
	}

	for len(unchecked) > 0 {
		nextUnchecked := []*laItem{}
		for _, it := range unchecked {
			if !it.item.dottedSymbol.IsNonTerminal() {
				continue
			}

			prod, ok := prods.findByNum(it.item.prod)
			if !ok {
				return nil, fmt.Errorf("production not found: %v", it.item.prod)
			}

			fst, err := first.find(prod, it.item.dot+1)
			if err != nil {
				return nil, err
			}

			ps, _ := prods.findByLHS(it.item.dottedSymbol)
			for _, p := range ps {
				newItem := arena.item(arena.id(p.num, 0))

				for sym := range fst.symbols {
					if added := add(newItem, laTerminal(sym)); added != nil {
						nextUnchecked = append(nextUnchecked, added)
					}
				}
				if fst.empty {
					if added := add(newItem, it.la); added != nil {
						nextUnchecked = append(nextUnchecked, added)
					}
				}
			}
		}
		unchecked = nextUnchecked
	}

	return items, nil
}

// lalr1Goto advances every item of the set that expects sym next, then
// closes the result. An empty result means the set has no transition
// on sym.
func lalr1Goto(items []*laItem, sym symbol.Symbol, prods *productionSet, arena *itemArena, first *firstSet) ([]*laItem, error) {
	advanced := []*laItem{}
	for _, it := range items {
		if it.item.dottedSymbol != sym {
			continue
		}
		advanced = append(advanced, &laItem{
			item: arena.item(it.item.id + 1),
			la:   it.la,
		})
	}
	if len(advanced) == 0 {
		return nil, nil
	}
	return lalr1Closure(advanced, prods, arena, first)
}

// stateItemRef addresses one kernel item of one state in the
// propagation table.
type stateItemRef struct {
	state stateNum
	item  itemID
}

// propEntry is the propagation-table cell of a kernel item: the
// lookaheads accumulated so far and the items they flow to.
type propEntry struct {
	lookaheads   map[symbol.Symbol]struct{}
	propagatesTo []stateItemRef
}

func (e *propEntry) addLookahead(sym symbol.Symbol) bool {
	if _, ok := e.lookaheads[sym]; ok {
		return false
	}
	e.lookaheads[sym] = struct{}{}
	return true
}

// itemSet is a state of the canonical collection: for each item id the
// set of lookaheads it is annotated with.
type itemSet map[itemID]map[symbol.Symbol]struct{}

func (s itemSet) add(id itemID, la symbol.Symbol) {
	las, ok := s[id]
	if !ok {
		las = map[symbol.Symbol]struct{}{}
		s[id] = las
	}
	las[la] = struct{}{}
}

// lalr1Collection is the canonical collection of LALR(1) item sets,
// indexed identically to the LR(0) automaton's state numbers.
type lalr1Collection struct {
	automaton *lr0Automaton
	states    []itemSet
}

// items lists a state's annotated items in a deterministic order.
func (c *lalr1Collection) items(state stateNum) []*laItem {
	set := c.states[state]
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id.Int())
	}
	sort.Ints(ids)

	arena := c.automaton.arena
	items := []*laItem{}
	for _, id := range ids {
		las := make([]symbol.Symbol, 0, len(set[itemID(id)]))
		for la := range set[itemID(id)] {
			las = append(las, la)
		}
		sort.Slice(las, func(i, j int) bool { return las[i] < las[j] })
		for _, la := range las {
			items = append(items, &laItem{
				item: arena.item(itemID(id)),
				la:   laTerminal(la),
			})
		}
	}
	return items
}

// genLALR1Collection computes the canonical collection by spontaneous
// lookahead generation plus propagation over kernel items.
//
// For every kernel item we close {[item, unresolved]} once. Where the
// closure walks through a transition (state, sym) → next, an advanced
// item annotated with a concrete terminal receives that terminal
// spontaneously; an advanced item annotated with the unresolved marker
// instead records a propagation edge from the kernel item. The edges
// are then resolved to a fixed point by monotone set union.
func genLALR1Collection(lr0 *lr0Automaton, prods *productionSet, first *firstSet) (*lalr1Collection, error) {
	arena := lr0.arena

	table := make([][]*propEntry, len(lr0.states))
	for _, state := range lr0.states {
		row := make([]*propEntry, arena.len())
		for _, kItem := range state.items {
			row[kItem.id] = &propEntry{
				lookaheads: map[symbol.Symbol]struct{}{},
			}
		}
		table[state.num] = row
	}

	// The start item of state 0 is the only seed: [S' → ・S, <eof>].
	{
		startProd, ok := prods.findByNum(productionNumStart)
		if !ok {
			return nil, fmt.Errorf("the start production was not found")
		}
		startItemID := arena.id(startProd.num, 0)
		entry := table[stateNumInitial][startItemID]
		if entry == nil {
			return nil, fmt.Errorf("the initial state doesn't contain the start item")
		}
		entry.addLookahead(symbol.SymbolEOF)
	}

	for _, state := range lr0.states {
		for _, kItem := range state.items {
			closure, err := lalr1Closure([]*laItem{{item: kItem, la: laUnresolved()}}, prods, arena, first)
			if err != nil {
				return nil, err
			}

			srcEntry := table[state.num][kItem.id]
			for _, clItem := range closure {
				sym := clItem.item.dottedSymbol
				if sym.IsNil() {
					continue
				}
				next, ok := state.next[sym]
				if !ok {
					return nil, fmt.Errorf("state %v has no transition on %v", state.num, sym)
				}

				advancedID := clItem.item.id + 1
				if clItem.la.unresolved {
					srcEntry.propagatesTo = append(srcEntry.propagatesTo, stateItemRef{
						state: next,
						item:  advancedID,
					})
				} else {
					destEntry := table[next][advancedID]
					if destEntry == nil {
						return nil, fmt.Errorf("item %v is not a kernel item of state %v", advancedID, next)
					}
					destEntry.addLookahead(clItem.la.terminal)
				}
			}
		}
	}

	propagateLookaheads(lr0, table)

	collection := &lalr1Collection{
		automaton: lr0,
		states:    make([]itemSet, len(lr0.states)),
	}
	for _, state := range lr0.states {
		seed := []*laItem{}
		for _, kItem := range state.items {
			for la := range table[state.num][kItem.id].lookaheads {
				seed = append(seed, &laItem{
					item: kItem,
					la:   laTerminal(la),
				})
			}
		}

		closure, err := lalr1Closure(seed, prods, arena, first)
		if err != nil {
			return nil, err
		}

		set := itemSet{}
		for _, it := range closure {
			if it.la.unresolved {
				return nil, fmt.Errorf("an unresolved lookahead leaked into state %v", state.num)
			}
			set.add(it.item.id, it.la.terminal)
		}
		collection.states[state.num] = set
	}

	return collection, nil
}

// propagateLookaheads drives the propagation edges to a fixed point.
// Lookahead sets only grow, and the terminal alphabet is finite, so
// the dirty worklist always drains.
func propagateLookaheads(lr0 *lr0Automaton, table [][]*propEntry) {
	dirty := []stateItemRef{}
	queued := map[stateItemRef]struct{}{}

	enqueue := func(ref stateItemRef) {
		if _, ok := queued[ref]; ok {
			return
		}
		queued[ref] = struct{}{}
		dirty = append(dirty, ref)
	}

	for _, state := range lr0.states {
		for _, kItem := range state.items {
			if len(table[state.num][kItem.id].lookaheads) > 0 {
				enqueue(stateItemRef{state: state.num, item: kItem.id})
			}
		}
	}

	passes := 0
	for len(dirty) > 0 {
		ref := dirty[0]
		dirty = dirty[1:]
		delete(queued, ref)
		passes++

		src := table[ref.state][ref.item]
		for _, destRef := range src.propagatesTo {
			dest := table[destRef.state][destRef.item]
			changed := false
			for la := range src.lookaheads {
				if dest.addLookahead(la) {
					changed = true
				}
			}
			if changed {
				enqueue(destRef)
			}
		}
	}

	tracer().Debugf("lookahead propagation converged after %d worklist steps", passes)
}
