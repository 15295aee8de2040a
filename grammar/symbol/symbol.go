package symbol

import (
	"fmt"
	"sort"
)

type symbolKind string

const (
	symbolKindNonTerminal = symbolKind("non-terminal")
	symbolKindTerminal    = symbolKind("terminal")
)

func (k symbolKind) String() string {
	return string(k)
}

type SymbolNum uint16

func (n SymbolNum) Int() int {
	return int(n)
}

// Symbol is a tagged grammar symbol packed into 16 bits:
//
//	kknn nnnn nnnn nnnn
//
// The high bit selects the kind (terminal or non-terminal), the next
// bit marks the two distinguished symbols (the augmented start symbol
// for non-terminals, the end-of-input marker for terminals), and the
// remaining 14 bits carry the symbol number.
type Symbol uint16

const (
	maskKindPart    = uint16(0x8000)
	maskNonTerminal = uint16(0x0000)
	maskTerminal    = uint16(0x8000)

	maskSubKindPart = uint16(0x4000)

	maskNumberPart = uint16(0x3fff)

	symbolNumStart = uint16(0x0001)
	symbolNumEOF   = uint16(0x0001)

	SymbolNil   = Symbol(0)
	SymbolStart = Symbol(maskNonTerminal | maskSubKindPart | symbolNumStart)
	SymbolEOF   = Symbol(maskTerminal | maskSubKindPart | symbolNumEOF)

	// The name contains `<` and `>` to avoid conflicting with user-defined symbols.
	symbolNameEOF = "<eof>"

	nonTerminalNumMin = SymbolNum(2) // The number 1 is used by the start symbol.
	terminalNumMin    = SymbolNum(2) // The number 1 is used by the EOF symbol.
	symbolNumMax      = SymbolNum(0x3fff)
)

func newSymbol(kind symbolKind, distinguished bool, num SymbolNum) (Symbol, error) {
	if num > symbolNumMax {
		return SymbolNil, fmt.Errorf("a symbol number exceeds the limit; limit: %v, passed: %v", symbolNumMax, num)
	}

	kindMask := maskNonTerminal
	if kind == symbolKindTerminal {
		kindMask = maskTerminal
	}
	subKindMask := uint16(0)
	if distinguished {
		subKindMask = maskSubKindPart
	}
	return Symbol(kindMask | subKindMask | uint16(num)), nil
}

func (s Symbol) String() string {
	kind, isStart, isEOF, num := s.describe()
	var prefix string
	switch {
	case isStart:
		prefix = "s"
	case isEOF:
		prefix = "e"
	case kind == symbolKindNonTerminal:
		prefix = "n"
	default:
		prefix = "t"
	}
	return fmt.Sprintf("%v%v", prefix, num)
}

func (s Symbol) Num() SymbolNum {
	_, _, _, num := s.describe()
	return num
}

func (s Symbol) IsNil() bool {
	return s == SymbolNil
}

func (s Symbol) IsStart() bool {
	if s.IsNil() {
		return false
	}
	_, isStart, _, _ := s.describe()
	return isStart
}

func (s Symbol) IsEOF() bool {
	if s.IsNil() {
		return false
	}
	_, _, isEOF, _ := s.describe()
	return isEOF
}

func (s Symbol) IsNonTerminal() bool {
	if s.IsNil() {
		return false
	}
	kind, _, _, _ := s.describe()
	return kind == symbolKindNonTerminal
}

func (s Symbol) IsTerminal() bool {
	if s.IsNil() {
		return false
	}
	return !s.IsNonTerminal()
}

func (s Symbol) describe() (symbolKind, bool, bool, SymbolNum) {
	kind := symbolKindNonTerminal
	if uint16(s)&maskKindPart > 0 {
		kind = symbolKindTerminal
	}
	isStart := false
	isEOF := false
	if uint16(s)&maskSubKindPart > 0 {
		if kind == symbolKindNonTerminal {
			isStart = true
		} else {
			isEOF = true
		}
	}
	num := SymbolNum(uint16(s) & maskNumberPart)
	return kind, isStart, isEOF, num
}

// Table assigns numbers to symbol names and maps between the two.
// The EOF symbol is pre-registered; the start symbol is registered
// explicitly because its name comes from the grammar.
type Table struct {
	text2Sym     map[string]Symbol
	sym2Text     map[Symbol]string
	nonTermTexts []string
	termTexts    []string
	nonTermNum   SymbolNum
	termNum      SymbolNum
}

func NewTable() *Table {
	return &Table{
		text2Sym: map[string]Symbol{
			symbolNameEOF: SymbolEOF,
		},
		sym2Text: map[Symbol]string{
			SymbolEOF: symbolNameEOF,
		},
		termTexts: []string{
			"",            // Nil
			symbolNameEOF, // EOF
		},
		nonTermTexts: []string{
			"", // Nil
			"", // Start symbol
		},
		nonTermNum: nonTerminalNumMin,
		termNum:    terminalNumMin,
	}
}

func (t *Table) RegisterStartSymbol(text string) (Symbol, error) {
	if _, ok := t.text2Sym[text]; ok {
		return SymbolNil, fmt.Errorf("symbol is already registered: %v", text)
	}
	t.text2Sym[text] = SymbolStart
	t.sym2Text[SymbolStart] = text
	t.nonTermTexts[SymbolStart.Num().Int()] = text
	return SymbolStart, nil
}

func (t *Table) RegisterNonTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := t.text2Sym[text]; ok {
		return sym, nil
	}
	sym, err := newSymbol(symbolKindNonTerminal, false, t.nonTermNum)
	if err != nil {
		return SymbolNil, err
	}
	t.nonTermNum++
	t.text2Sym[text] = sym
	t.sym2Text[sym] = text
	t.nonTermTexts = append(t.nonTermTexts, text)
	return sym, nil
}

func (t *Table) RegisterTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := t.text2Sym[text]; ok {
		return sym, nil
	}
	sym, err := newSymbol(symbolKindTerminal, false, t.termNum)
	if err != nil {
		return SymbolNil, err
	}
	t.termNum++
	t.text2Sym[text] = sym
	t.sym2Text[sym] = text
	t.termTexts = append(t.termTexts, text)
	return sym, nil
}

func (t *Table) ToSymbol(text string) (Symbol, bool) {
	sym, ok := t.text2Sym[text]
	return sym, ok
}

func (t *Table) ToText(sym Symbol) (string, bool) {
	text, ok := t.sym2Text[sym]
	return text, ok
}

// TerminalSymbols lists all registered terminal symbols in number
// order. The EOF symbol is included.
func (t *Table) TerminalSymbols() []Symbol {
	syms := make([]Symbol, 0, t.termNum.Int()-1)
	for sym := range t.sym2Text {
		if !sym.IsTerminal() {
			continue
		}
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].Num() < syms[j].Num()
	})
	return syms
}

// NonTerminalSymbols lists all registered non-terminal symbols in
// number order. The start symbol comes first.
func (t *Table) NonTerminalSymbols() []Symbol {
	syms := make([]Symbol, 0, t.nonTermNum.Int()-1)
	for sym := range t.sym2Text {
		if !sym.IsNonTerminal() {
			continue
		}
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].Num() < syms[j].Num()
	})
	return syms
}

func (t *Table) TerminalTexts() ([]string, error) {
	if t.termNum == terminalNumMin {
		return nil, fmt.Errorf("symbol table has no terminals")
	}
	return t.termTexts, nil
}

func (t *Table) NonTerminalTexts() ([]string, error) {
	if t.nonTermNum == nonTerminalNumMin || t.nonTermTexts[SymbolStart.Num().Int()] == "" {
		return nil, fmt.Errorf("symbol table has no non-terminals or no start symbol")
	}
	return t.nonTermTexts, nil
}

func (t *Table) TerminalCount() int {
	return t.termNum.Int()
}

func (t *Table) NonTerminalCount() int {
	return t.nonTermNum.Int()
}
