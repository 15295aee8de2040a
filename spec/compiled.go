package spec

import mlspec "github.com/nihei9/maleeni/spec"

type CompiledGrammar struct {
	Name                 string                `json:"name"`
	LexicalSpecification *LexicalSpecification `json:"lexical_specification"`
	ParsingTable         *ParsingTable         `json:"parsing_table"`
}

type LexicalSpecification struct {
	Lexer   string   `json:"lexer"`
	Maleeni *Maleeni `json:"maleeni"`
}

type Maleeni struct {
	Spec           *mlspec.CompiledLexSpec `json:"spec"`
	KindToTerminal []int                   `json:"kind_to_terminal"`
	TerminalToKind []int                   `json:"terminal_to_kind"`
	Skip           []int                   `json:"skip"`
}

type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
	ActionTypeAccept = ActionType("accept")
)

// ActionEntry is one entry of an ACTION cell. A cell with two or more
// entries is a conflict the table generator recorded but did not
// resolve.
type ActionEntry struct {
	Type       ActionType `json:"type"`
	State      int        `json:"state,omitempty"`
	Production int        `json:"production,omitempty"`
}

// ParsingTable holds the ACTION and GOTO tables flattened row-major.
// An ACTION cell is action[state*terminal_count+terminal]; a nil cell
// is a syntax error on that terminal. A GOTO cell is
// goto[state*non_terminal_count+non_terminal]; -1 marks an undefined
// transition.
type ParsingTable struct {
	Action                  [][]*ActionEntry `json:"action"`
	GoTo                    []int            `json:"goto"`
	StateCount              int              `json:"state_count"`
	InitialState            int              `json:"initial_state"`
	StartProduction         int              `json:"start_production"`
	LHSSymbols              []int            `json:"lhs_symbols"`
	AlternativeSymbolCounts []int            `json:"alternative_symbol_counts"`
	Terminals               []string         `json:"terminals"`
	TerminalCount           int              `json:"terminal_count"`
	NonTerminals            []string         `json:"non_terminals"`
	NonTerminalCount        int              `json:"non_terminal_count"`
	EOFSymbol               int              `json:"eof_symbol"`
}

// Conflicted reports whether any ACTION cell holds more than one
// entry.
func (t *ParsingTable) Conflicted() bool {
	for _, cell := range t.Action {
		if len(cell) > 1 {
			return true
		}
	}
	return false
}
