package grammar

import (
	"fmt"
	"io"
	"sort"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/utils"

	"lalrgen/grammar/symbol"
	"lalrgen/spec"
)

type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
	ActionTypeAccept = ActionType("accept")
)

// actionEntry is one tagged entry of an ACTION cell. A cell holds a
// set of entries; more than one entry means the grammar is not
// LALR(1), and the whole set is kept so a consumer can report the
// conflict.
type actionEntry struct {
	ty    ActionType
	state stateNum      // shift target
	prod  productionNum // reduced production; accept reduces production 0
}

func newShiftActionEntry(state stateNum) actionEntry {
	return actionEntry{
		ty:    ActionTypeShift,
		state: state,
	}
}

func newReduceActionEntry(prod productionNum) actionEntry {
	return actionEntry{
		ty:   ActionTypeReduce,
		prod: prod,
	}
}

func newAcceptActionEntry() actionEntry {
	return actionEntry{
		ty:   ActionTypeAccept,
		prod: productionNumStart,
	}
}

type GoToType string

const (
	GoToTypeRegistered = GoToType("registered")
	GoToTypeError      = GoToType("error")
)

// goToEntry is an optional state number; -1 means the transition is
// undefined.
type goToEntry int

const goToEntryEmpty = goToEntry(-1)

func (e goToEntry) describe() (GoToType, stateNum) {
	if e == goToEntryEmpty {
		return GoToTypeError, stateNumInitial
	}
	return GoToTypeRegistered, stateNum(e)
}

type conflict interface {
	conflict()
}

type shiftReduceConflict struct {
	state     stateNum
	sym       symbol.Symbol
	nextState stateNum
	prodNum   productionNum
}

func (c *shiftReduceConflict) conflict() {
}

type reduceReduceConflict struct {
	state    stateNum
	sym      symbol.Symbol
	prodNum1 productionNum
	prodNum2 productionNum
}

func (c *reduceReduceConflict) conflict() {
}

var (
	_ conflict = &shiftReduceConflict{}
	_ conflict = &reduceReduceConflict{}
)

// ParsingTable is the ACTION/GOTO pair of a grammar. Both tables are
// flat, indexed by state*count+symbol number. An empty ACTION cell is
// a syntax error on that terminal in that state.
type ParsingTable struct {
	actionTable      [][]actionEntry
	goToTable        []goToEntry
	stateCount       int
	terminalCount    int
	nonTerminalCount int

	InitialState stateNum
}

func (t *ParsingTable) Actions(state stateNum, sym symbol.SymbolNum) []actionEntry {
	return t.actionTable[state.Int()*t.terminalCount+sym.Int()]
}

func (t *ParsingTable) GoTo(state stateNum, sym symbol.SymbolNum) (GoToType, stateNum) {
	return t.goToTable[state.Int()*t.nonTerminalCount+sym.Int()].describe()
}

func (t *ParsingTable) writeGoTo(state stateNum, sym symbol.Symbol, nextState stateNum) {
	t.goToTable[state.Int()*t.nonTerminalCount+sym.Num().Int()] = goToEntry(nextState)
}

// Conflicted reports whether any ACTION cell holds more than one
// entry.
func (t *ParsingTable) Conflicted() bool {
	for _, cell := range t.actionTable {
		if len(cell) > 1 {
			return true
		}
	}
	return false
}

// WriteDescription dumps all non-empty cells state by state. This is a
// diagnostic convenience; the table itself is the artifact.
func (t *ParsingTable) WriteDescription(w io.Writer, symTab *symbol.Table) error {
	fmt.Fprintf(w, "PARSING TABLE\n")
	termSyms := symTab.TerminalSymbols()
	nonTermSyms := symTab.NonTerminalSymbols()
	for state := stateNum(0); state.Int() < t.stateCount; state++ {
		if state > 0 {
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "State #%v\n", state)

		for _, term := range termSyms {
			entries := t.Actions(state, term.Num())
			if len(entries) == 0 {
				continue
			}
			text, ok := symTab.ToText(term)
			if !ok {
				return fmt.Errorf("terminal symbol not found: %v", term)
			}
			fmt.Fprintf(w, "\tfor terminal %v:", text)
			for _, e := range entries {
				switch e.ty {
				case ActionTypeShift:
					fmt.Fprintf(w, " shift %v", e.state)
				case ActionTypeReduce:
					fmt.Fprintf(w, " reduce %v", e.prod)
				case ActionTypeAccept:
					fmt.Fprintf(w, " accept")
				}
			}
			fmt.Fprintf(w, "\n")
		}

		for _, nonTerm := range nonTermSyms {
			if nonTerm.IsStart() {
				continue
			}
			ty, next := t.GoTo(state, nonTerm.Num())
			if ty != GoToTypeRegistered {
				continue
			}
			text, ok := symTab.ToText(nonTerm)
			if !ok {
				return fmt.Errorf("non-terminal symbol not found: %v", nonTerm)
			}
			fmt.Fprintf(w, "\tfor non-terminal %v: go to state %v\n", text, next)
		}
	}
	return nil
}

type gotoCacheKey struct {
	state stateNum
	sym   symbol.Symbol
}

type lrTableBuilder struct {
	automaton    *lr0Automaton
	collection   *lalr1Collection
	prods        *productionSet
	first        *firstSet
	termCount    int
	nonTermCount int
	symTab       *symbol.Table

	stateItems [][]*laItem
	gotoCache  map[gotoCacheKey]stateNum
	conflicts  []conflict
}

func (b *lrTableBuilder) build() (*ParsingTable, error) {
	ptab := &ParsingTable{
		actionTable:      make([][]actionEntry, len(b.automaton.states)*b.termCount),
		goToTable:        make([]goToEntry, len(b.automaton.states)*b.nonTermCount),
		stateCount:       len(b.automaton.states),
		terminalCount:    b.termCount,
		nonTerminalCount: b.nonTermCount,
		InitialState:     stateNumInitial,
	}
	for i := range ptab.goToTable {
		ptab.goToTable[i] = goToEntryEmpty
	}

	b.stateItems = make([][]*laItem, len(b.automaton.states))
	for _, state := range b.automaton.states {
		b.stateItems[state.num] = b.collection.items(state.num)
	}
	b.gotoCache = map[gotoCacheKey]stateNum{}

	nonTermSyms := b.symTab.NonTerminalSymbols()

	for _, state := range b.automaton.states {
		for _, it := range b.stateItems[state.num] {
			if !it.item.reducible {
				sym := it.item.dottedSymbol
				if !sym.IsTerminal() {
					continue
				}

				next, ok, err := b.resolveGoTo(state.num, sym)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				b.writeAction(ptab, state.num, sym, newShiftActionEntry(next))
				continue
			}

			if it.item.prod == productionNumStart {
				// The completed start item must carry exactly the EOF
				// lookahead; anything else means the propagation went
				// wrong.
				if !it.la.terminal.IsEOF() {
					return nil, fmt.Errorf("the completed start item has an unexpected lookahead: %v", it.la)
				}
				b.writeAction(ptab, state.num, symbol.SymbolEOF, newAcceptActionEntry())
				continue
			}

			b.writeAction(ptab, state.num, it.la.terminal, newReduceActionEntry(it.item.prod))
		}

		for _, nonTerm := range nonTermSyms {
			if nonTerm.IsStart() {
				continue
			}
			next, ok, err := b.resolveGoTo(state.num, nonTerm)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			ptab.writeGoTo(state.num, nonTerm, next)
		}
	}

	for _, cell := range ptab.actionTable {
		sortActionEntries(cell)
	}

	if len(b.conflicts) > 0 {
		tracer().Debugf("table has %d conflicts", len(b.conflicts))
	}

	return ptab, nil
}

// resolveGoTo computes the goto set of (state, sym) and resolves it to
// a state number by core equality. The result is memoized; the goto
// set is a pure function of the state's item set and the symbol.
func (b *lrTableBuilder) resolveGoTo(state stateNum, sym symbol.Symbol) (stateNum, bool, error) {
	key := gotoCacheKey{state: state, sym: sym}
	if next, ok := b.gotoCache[key]; ok {
		return next, true, nil
	}

	gotoSet, err := lalr1Goto(b.stateItems[state], sym, b.prods, b.automaton.arena, b.first)
	if err != nil {
		return stateNumInitial, false, err
	}
	if len(gotoSet) == 0 {
		return stateNumInitial, false, nil
	}

	// The kernel items of the goto set are exactly the advanced items,
	// and their core must match a state of the automaton.
	kernelIDs := map[itemID]struct{}{}
	kernelItems := []*lrItem{}
	for _, it := range gotoSet {
		if !it.item.kernel {
			continue
		}
		if _, ok := kernelIDs[it.item.id]; ok {
			continue
		}
		kernelIDs[it.item.id] = struct{}{}
		kernelItems = append(kernelItems, it.item)
	}

	core, err := newCore(kernelItems).hash()
	if err != nil {
		return stateNumInitial, false, err
	}
	target, ok := b.automaton.stateByCore(core)
	if !ok {
		return stateNumInitial, false, fmt.Errorf("goto(%v, %v) doesn't correspond to any state core", state, sym)
	}

	b.gotoCache[key] = target.num
	return target.num, true, nil
}

// writeAction adds an entry to an ACTION cell. Identical entries
// collapse; differing entries stay side by side and the collision is
// recorded, never resolved.
func (b *lrTableBuilder) writeAction(tab *ParsingTable, state stateNum, sym symbol.Symbol, entry actionEntry) {
	pos := state.Int()*tab.terminalCount + sym.Num().Int()
	cell := tab.actionTable[pos]
	for _, e := range cell {
		if e == entry {
			return
		}
	}

	for _, e := range cell {
		b.recordConflict(state, sym, e, entry)
	}
	tab.actionTable[pos] = append(cell, entry)
}

func (b *lrTableBuilder) recordConflict(state stateNum, sym symbol.Symbol, existing, added actionEntry) {
	// An accept entry behaves like a reduction of the start production
	// for conflict classification.
	switch {
	case existing.ty == ActionTypeShift && added.ty != ActionTypeShift:
		b.conflicts = append(b.conflicts, &shiftReduceConflict{
			state:     state,
			sym:       sym,
			nextState: existing.state,
			prodNum:   added.prod,
		})
	case existing.ty != ActionTypeShift && added.ty == ActionTypeShift:
		b.conflicts = append(b.conflicts, &shiftReduceConflict{
			state:     state,
			sym:       sym,
			nextState: added.state,
			prodNum:   existing.prod,
		})
	default:
		b.conflicts = append(b.conflicts, &reduceReduceConflict{
			state:    state,
			sym:      sym,
			prodNum1: existing.prod,
			prodNum2: added.prod,
		})
	}
}

func sortActionEntries(cell []actionEntry) {
	sort.Slice(cell, func(i, j int) bool {
		if cell[i].ty != cell[j].ty {
			return actionTypeRank(cell[i].ty) < actionTypeRank(cell[j].ty)
		}
		if cell[i].state != cell[j].state {
			return cell[i].state < cell[j].state
		}
		return cell[i].prod < cell[j].prod
	})
}

func actionTypeRank(ty ActionType) int {
	switch ty {
	case ActionTypeShift:
		return 0
	case ActionTypeReduce:
		return 1
	default:
		return 2
	}
}

func (b *lrTableBuilder) genReport(tab *ParsingTable) (*spec.Report, error) {
	var terms []*spec.Terminal
	{
		termSyms := b.symTab.TerminalSymbols()
		terms = make([]*spec.Terminal, b.termCount)

		for _, sym := range termSyms {
			name, ok := b.symTab.ToText(sym)
			if !ok {
				return nil, fmt.Errorf("failed to generate terminals: symbol not found: %v", sym)
			}

			terms[sym.Num()] = &spec.Terminal{
				Number: sym.Num().Int(),
				Name:   name,
			}
		}
	}

	var nonTerms []*spec.NonTerminal
	{
		nonTermSyms := b.symTab.NonTerminalSymbols()
		nonTerms = make([]*spec.NonTerminal, b.nonTermCount)
		for _, sym := range nonTermSyms {
			name, ok := b.symTab.ToText(sym)
			if !ok {
				return nil, fmt.Errorf("failed to generate non-terminals: symbol not found: %v", sym)
			}

			nonTerms[sym.Num()] = &spec.NonTerminal{
				Number: sym.Num().Int(),
				Name:   name,
			}
		}
	}

	var prods []*spec.Production
	{
		prods = make([]*spec.Production, b.prods.len())
		for _, p := range b.prods.all() {
			rhs := make([]int, len(p.rhs))
			for i, e := range p.rhs {
				if e.IsTerminal() {
					rhs[i] = e.Num().Int()
				} else {
					rhs[i] = e.Num().Int() * -1
				}
			}

			prods[p.num.Int()] = &spec.Production{
				Number: p.num.Int(),
				LHS:    p.lhs.Num().Int(),
				RHS:    rhs,
			}
		}
	}

	srConflicts := map[stateNum]*arraylist.List{}
	rrConflicts := map[stateNum]*arraylist.List{}
	for _, con := range b.conflicts {
		switch c := con.(type) {
		case *shiftReduceConflict:
			l, ok := srConflicts[c.state]
			if !ok {
				l = arraylist.New()
				srConflicts[c.state] = l
			}
			l.Add(c)
		case *reduceReduceConflict:
			l, ok := rrConflicts[c.state]
			if !ok {
				l = arraylist.New()
				rrConflicts[c.state] = l
			}
			l.Add(c)
		}
	}
	for _, l := range srConflicts {
		l.Sort(func(a, b interface{}) int {
			return utils.IntComparator(int(a.(*shiftReduceConflict).sym), int(b.(*shiftReduceConflict).sym))
		})
	}
	for _, l := range rrConflicts {
		l.Sort(func(a, b interface{}) int {
			return utils.IntComparator(int(a.(*reduceReduceConflict).sym), int(b.(*reduceReduceConflict).sym))
		})
	}

	states := make([]*spec.State, len(b.automaton.states))
	for _, s := range b.automaton.states {
		kernel := make([]*spec.Item, len(s.items))
		for i, item := range s.items {
			kernel[i] = &spec.Item{
				Production: item.prod.Int(),
				Dot:        item.dot,
			}
		}

		sort.Slice(kernel, func(i, j int) bool {
			if kernel[i].Production != kernel[j].Production {
				return kernel[i].Production < kernel[j].Production
			}
			return kernel[i].Dot < kernel[j].Dot
		})

		var shift []*spec.Transition
		var reduce []*spec.Reduce
		var goTo []*spec.Transition
		accept := false
		for _, t := range b.symTab.TerminalSymbols() {
			for _, e := range tab.Actions(s.num, t.Num()) {
				switch e.ty {
				case ActionTypeShift:
					shift = append(shift, &spec.Transition{
						Symbol: t.Num().Int(),
						State:  e.state.Int(),
					})
				case ActionTypeAccept:
					accept = true
				case ActionTypeReduce:
					merged := false
					for _, r := range reduce {
						if r.Production == e.prod.Int() {
							r.LookAhead = append(r.LookAhead, t.Num().Int())
							merged = true
							break
						}
					}
					if !merged {
						reduce = append(reduce, &spec.Reduce{
							LookAhead:  []int{t.Num().Int()},
							Production: e.prod.Int(),
						})
					}
				}
			}
		}

		for _, n := range b.symTab.NonTerminalSymbols() {
			if n.IsStart() {
				continue
			}
			ty, next := tab.GoTo(s.num, n.Num())
			if ty == GoToTypeRegistered {
				goTo = append(goTo, &spec.Transition{
					Symbol: n.Num().Int(),
					State:  next.Int(),
				})
			}
		}

		sort.Slice(shift, func(i, j int) bool {
			return shift[i].State < shift[j].State
		})
		sort.Slice(reduce, func(i, j int) bool {
			return reduce[i].Production < reduce[j].Production
		})
		sort.Slice(goTo, func(i, j int) bool {
			return goTo[i].State < goTo[j].State
		})

		sr := []*spec.SRConflict{}
		rr := []*spec.RRConflict{}
		if l, ok := srConflicts[s.num]; ok {
			it := l.Iterator()
			for it.Next() {
				c := it.Value().(*shiftReduceConflict)
				sr = append(sr, &spec.SRConflict{
					Symbol:     c.sym.Num().Int(),
					State:      c.nextState.Int(),
					Production: c.prodNum.Int(),
				})
			}
		}
		if l, ok := rrConflicts[s.num]; ok {
			it := l.Iterator()
			for it.Next() {
				c := it.Value().(*reduceReduceConflict)
				rr = append(rr, &spec.RRConflict{
					Symbol:      c.sym.Num().Int(),
					Production1: c.prodNum1.Int(),
					Production2: c.prodNum2.Int(),
				})
			}
		}

		states[s.num.Int()] = &spec.State{
			Number:     s.num.Int(),
			Kernel:     kernel,
			Shift:      shift,
			Reduce:     reduce,
			Accept:     accept,
			GoTo:       goTo,
			SRConflict: sr,
			RRConflict: rr,
		}
	}

	return &spec.Report{
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prods,
		States:       states,
	}, nil
}
