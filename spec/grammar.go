package spec

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// GrammarDesc is the on-disk form of a grammar. It is deliberately
// flat: a list of terminals with lexical patterns and a list of
// productions over symbol names. Alternatives are separate
// productions sharing a LHS.
type GrammarDesc struct {
	Name        string            `toml:"name"`
	Start       string            `toml:"start"`
	Terminals   []*TerminalDesc   `toml:"terminals"`
	Productions []*ProductionDesc `toml:"productions"`
}

type TerminalDesc struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
	Skip    bool   `toml:"skip"`
}

type ProductionDesc struct {
	LHS string   `toml:"lhs"`
	RHS []string `toml:"rhs"`
}

func ParseGrammarDesc(src io.Reader) (*GrammarDesc, error) {
	var desc GrammarDesc
	md, err := toml.NewDecoder(src).Decode(&desc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse a grammar description: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key in a grammar description: %v", undecoded[0])
	}
	return &desc, nil
}
