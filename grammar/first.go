package grammar

import (
	"fmt"

	"lalrgen/grammar/symbol"
)

// firstEntry is FIRST of a single non-terminal: the terminals that can
// begin one of its derivations, plus a flag telling whether it derives
// the empty string.
type firstEntry struct {
	symbols map[symbol.Symbol]struct{}
	empty   bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: map[symbol.Symbol]struct{}{},
	}
}

func (e *firstEntry) add(sym symbol.Symbol) bool {
	if _, ok := e.symbols[sym]; ok {
		return false
	}
	e.symbols[sym] = struct{}{}
	return true
}

func (e *firstEntry) addEmpty() bool {
	if e.empty {
		return false
	}
	e.empty = true
	return true
}

func (e *firstEntry) mergeTerminals(src *firstEntry) bool {
	if src == nil {
		return false
	}
	changed := false
	for sym := range src.symbols {
		if e.add(sym) {
			changed = true
		}
	}
	return changed
}

type firstSet struct {
	set map[symbol.Symbol]*firstEntry
}

// find computes FIRST of the RHS suffix of prod starting at position
// head. When the whole suffix is nullable, the entry's empty flag is
// set.
func (fst *firstSet) find(prod *production, head int) (*firstEntry, error) {
	entry := newFirstEntry()
	if prod.rhsLen <= head {
		entry.addEmpty()
		return entry, nil
	}
	for _, sym := range prod.rhs[head:] {
		if sym.IsTerminal() {
			entry.add(sym)
			return entry, nil
		}

		e := fst.set[sym]
		if e == nil {
			return nil, fmt.Errorf("an entry of FIRST was not found; symbol: %s", sym)
		}
		entry.mergeTerminals(e)
		if !e.empty {
			return entry, nil
		}
	}
	entry.addEmpty()
	return entry, nil
}

// genFirstSet iterates over all productions until FIRST of every
// non-terminal stops growing.
func genFirstSet(prods *productionSet) (*firstSet, error) {
	fst := &firstSet{
		set: map[symbol.Symbol]*firstEntry{},
	}
	for _, prod := range prods.all() {
		if _, ok := fst.set[prod.lhs]; ok {
			continue
		}
		fst.set[prod.lhs] = newFirstEntry()
	}

	for {
		more := false
		for _, prod := range prods.all() {
			acc := fst.set[prod.lhs]
			changed, err := applyProduction(fst, acc, prod)
			if err != nil {
				return nil, err
			}
			if changed {
				more = true
			}
		}
		if !more {
			break
		}
	}
	return fst, nil
}

func applyProduction(fst *firstSet, acc *firstEntry, prod *production) (bool, error) {
	if prod.isEmpty() {
		return acc.addEmpty(), nil
	}

	changed := false
	for _, sym := range prod.rhs {
		if sym.IsTerminal() {
			return acc.add(sym) || changed, nil
		}

		e := fst.set[sym]
		if e == nil {
			return false, fmt.Errorf("an entry of FIRST was not found; symbol: %s", sym)
		}
		if acc.mergeTerminals(e) {
			changed = true
		}
		if !e.empty {
			return changed, nil
		}
	}
	return acc.addEmpty() || changed, nil
}
