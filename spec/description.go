package spec

type Terminal struct {
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Pattern string `json:"pattern,omitempty"`
}

type NonTerminal struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

type Production struct {
	Number int   `json:"number"`
	LHS    int   `json:"lhs"`
	RHS    []int `json:"rhs"`
}

type Item struct {
	Production int `json:"production"`
	Dot        int `json:"dot"`
}

type Transition struct {
	Symbol int `json:"symbol"`
	State  int `json:"state"`
}

type Reduce struct {
	LookAhead  []int `json:"look_ahead"`
	Production int   `json:"production"`
}

// SRConflict records a shift/reduce collision. Neither side wins;
// both entries stay in the table.
type SRConflict struct {
	Symbol     int `json:"symbol"`
	State      int `json:"state"`
	Production int `json:"production"`
}

// RRConflict records a reduce/reduce collision. Neither side wins;
// both entries stay in the table.
type RRConflict struct {
	Symbol      int `json:"symbol"`
	Production1 int `json:"production_1"`
	Production2 int `json:"production_2"`
}

type State struct {
	Number     int           `json:"number"`
	Kernel     []*Item       `json:"kernel"`
	Shift      []*Transition `json:"shift"`
	Reduce     []*Reduce     `json:"reduce"`
	Accept     bool          `json:"accept"`
	GoTo       []*Transition `json:"goto"`
	SRConflict []*SRConflict `json:"sr_conflict"`
	RRConflict []*RRConflict `json:"rr_conflict"`
}

type Report struct {
	Terminals    []*Terminal    `json:"terminals"`
	NonTerminals []*NonTerminal `json:"non_terminals"`
	Productions  []*Production  `json:"productions"`
	States       []*State       `json:"states"`
}
