package grammar

import (
	"fmt"
	"sort"

	"github.com/cnf/structhash"

	"lalrgen/grammar/symbol"
)

// itemID is the interned id of an LR(0) item. Every (production, dot)
// pair of a grammar gets a dense id once, so per-state tables can be
// plain slices instead of hash maps.
type itemID int

func (id itemID) Int() int {
	return int(id)
}

type lrItem struct {
	id   itemID
	prod productionNum

	// E → E + T
	//
	// Dot | Dotted Symbol | Item
	// ----+---------------+------------
	// 0   | E             | E →・E + T
	// 1   | +             | E → E・+ T
	// 2   | T             | E → E +・T
	// 3   | Nil           | E → E + T・
	dot          int
	dottedSymbol symbol.Symbol

	// When initial is true, the LHS of the production is the augmented start symbol and dot is 0.
	// It looks like S' →・S.
	initial bool

	// When reducible is true, the item looks like E → E + T・.
	reducible bool

	// When kernel is true, the item is a kernel item.
	kernel bool
}

// itemArena interns all items of a grammar up front. The id of an item
// is the cumulative RHS offset of its production plus the dot, so the
// mapping needs no hashing at all.
type itemArena struct {
	offsets []int
	items   []*lrItem
}

func newItemArena(prods *productionSet) *itemArena {
	offsets := make([]int, prods.len())
	total := 0
	for _, prod := range prods.all() {
		offsets[prod.num] = total
		total += prod.rhsLen + 1
	}

	items := make([]*lrItem, total)
	for _, prod := range prods.all() {
		for dot := 0; dot <= prod.rhsLen; dot++ {
			id := itemID(offsets[prod.num] + dot)

			dottedSymbol := symbol.SymbolNil
			if dot < prod.rhsLen {
				dottedSymbol = prod.rhs[dot]
			}

			initial := prod.lhs.IsStart() && dot == 0

			items[id] = &lrItem{
				id:           id,
				prod:         prod.num,
				dot:          dot,
				dottedSymbol: dottedSymbol,
				initial:      initial,
				reducible:    dot == prod.rhsLen,
				kernel:       initial || dot > 0,
			}
		}
	}

	return &itemArena{
		offsets: offsets,
		items:   items,
	}
}

func (a *itemArena) id(prod productionNum, dot int) itemID {
	return itemID(a.offsets[prod] + dot)
}

func (a *itemArena) item(id itemID) *lrItem {
	return a.items[id]
}

func (a *itemArena) len() int {
	return len(a.items)
}

// coreID identifies an item set with lookaheads stripped. Two states
// are the same LALR state exactly when their kernel cores are equal.
type coreID string

type stateCore struct {
	Items []int
}

func newCore(items []*lrItem) stateCore {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.id.Int()
	}
	sort.Ints(ids)
	return stateCore{Items: ids}
}

func (c stateCore) hash() (coreID, error) {
	h, err := structhash.Hash(c, 1)
	if err != nil {
		return "", fmt.Errorf("failed to hash a state core: %w", err)
	}
	return coreID(h), nil
}

// kernel is the seed of a state: its items are sorted by id and
// deduplicated, and the core hash identifies the state.
type kernel struct {
	core  coreID
	items []*lrItem
}

func newKernel(items []*lrItem) (*kernel, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a kernel needs at least one item")
	}

	var sortedItems []*lrItem
	{
		m := map[itemID]*lrItem{}
		for _, item := range items {
			if !item.kernel {
				return nil, fmt.Errorf("not a kernel item: %v", item.id)
			}
			m[item.id] = item
		}
		sortedItems = make([]*lrItem, 0, len(m))
		for _, item := range m {
			sortedItems = append(sortedItems, item)
		}
		sort.Slice(sortedItems, func(i, j int) bool {
			return sortedItems[i].id < sortedItems[j].id
		})
	}

	core, err := newCore(sortedItems).hash()
	if err != nil {
		return nil, err
	}

	return &kernel{
		core:  core,
		items: sortedItems,
	}, nil
}
