package grammar

import (
	"encoding/binary"
	"fmt"

	"lalrgen/grammar/symbol"
)

type productionNum int

// The augmented start production S' → S always occupies number 0.
const productionNumStart = productionNum(0)

func (n productionNum) Int() int {
	return int(n)
}

type production struct {
	num    productionNum
	lhs    symbol.Symbol
	rhs    []symbol.Symbol
	rhsLen int
}

func newProduction(lhs symbol.Symbol, rhs []symbol.Symbol) (*production, error) {
	if lhs.IsNil() {
		return nil, fmt.Errorf("LHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
	}
	for _, sym := range rhs {
		if sym.IsNil() {
			return nil, fmt.Errorf("a symbol of RHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
		}
	}

	return &production{
		lhs:    lhs,
		rhs:    rhs,
		rhsLen: len(rhs),
	}, nil
}

func (p *production) isEmpty() bool {
	return p.rhsLen == 0
}

func prodKey(lhs symbol.Symbol, rhs []symbol.Symbol) string {
	seq := make([]byte, 0, (len(rhs)+1)*2)
	seq = binary.BigEndian.AppendUint16(seq, uint16(lhs))
	for _, sym := range rhs {
		seq = binary.BigEndian.AppendUint16(seq, uint16(sym))
	}
	return string(seq)
}

// productionSet numbers productions in append order. The production of
// the augmented start symbol must be appended first so that it takes
// number 0.
type productionSet struct {
	prods     []*production
	lhs2Prods map[symbol.Symbol][]*production
	keys      map[string]struct{}
}

func newProductionSet() *productionSet {
	return &productionSet{
		prods:     []*production{},
		lhs2Prods: map[symbol.Symbol][]*production{},
		keys:      map[string]struct{}{},
	}
}

func (ps *productionSet) append(prod *production) bool {
	key := prodKey(prod.lhs, prod.rhs)
	if _, ok := ps.keys[key]; ok {
		return false
	}

	prod.num = productionNum(len(ps.prods))
	ps.prods = append(ps.prods, prod)
	ps.lhs2Prods[prod.lhs] = append(ps.lhs2Prods[prod.lhs], prod)
	ps.keys[key] = struct{}{}

	return true
}

func (ps *productionSet) findByNum(num productionNum) (*production, bool) {
	if num < 0 || num.Int() >= len(ps.prods) {
		return nil, false
	}
	return ps.prods[num], true
}

func (ps *productionSet) findByLHS(lhs symbol.Symbol) ([]*production, bool) {
	if lhs.IsNil() {
		return nil, false
	}

	prods, ok := ps.lhs2Prods[lhs]
	return prods, ok
}

func (ps *productionSet) all() []*production {
	return ps.prods
}

func (ps *productionSet) len() int {
	return len(ps.prods)
}
