package driver

import (
	"fmt"
	"io"

	mldriver "github.com/nihei9/maleeni/driver"

	"lalrgen/spec"
)

type Node struct {
	KindName string
	Text     string
	Row      int
	Col      int
	Children []*Node
}

func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	if node.Text != "" {
		fmt.Fprintf(w, "%v%v %#v\n", ruledLine, node.KindName, node.Text)
	} else {
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.KindName)
	}

	num := len(node.Children)
	for i, child := range node.Children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}

type SyntaxError struct {
	Row               int
	Col               int
	Message           string
	Token             *mldriver.Token
	ExpectedTerminals []string
}

type ParserOption func(p *Parser) error

func MakeCST() ParserOption {
	return func(p *Parser) error {
		p.makeCST = true
		return nil
	}
}

// Parser drives a compiled grammar over a token stream. It accepts
// only deterministic tables; a table whose ACTION cells record a
// conflict must be fixed at the grammar level first.
type Parser struct {
	gram       *spec.CompiledGrammar
	lex        *mldriver.Lexer
	stateStack []int
	semStack   []*Node
	cst        *Node
	makeCST    bool
	synErrs    []*SyntaxError
}

func NewParser(gram *spec.CompiledGrammar, src io.Reader, opts ...ParserOption) (*Parser, error) {
	if gram.ParsingTable.Conflicted() {
		return nil, fmt.Errorf("the grammar is not LALR(1): the parsing table contains conflicted ACTION cells")
	}

	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(gram.LexicalSpecification.Maleeni.Spec), src)
	if err != nil {
		return nil, err
	}

	p := &Parser{
		gram:       gram,
		lex:        lex,
		stateStack: []int{},
	}

	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Parser) Parse() error {
	p.push(p.gram.ParsingTable.InitialState)
	tok, err := p.nextToken()
	if err != nil {
		return err
	}

	for {
		entry := p.lookupAction(tok)
		if entry == nil {
			p.synErrs = append(p.synErrs, &SyntaxError{
				Row:               tok.Row,
				Col:               tok.Col,
				Message:           "unexpected token",
				Token:             tok,
				ExpectedTerminals: p.searchLookahead(p.top()),
			})
			return nil
		}

		switch entry.Type {
		case spec.ActionTypeShift:
			p.shift(entry.State)

			p.actOnShift(tok)

			tok, err = p.nextToken()
			if err != nil {
				return err
			}
		case spec.ActionTypeReduce:
			err := p.reduce(entry.Production)
			if err != nil {
				return err
			}

			p.actOnReduction(entry.Production)
		case spec.ActionTypeAccept:
			p.actOnAccepting()

			return nil
		default:
			return fmt.Errorf("invalid action type: %v", entry.Type)
		}
	}
}

func (p *Parser) nextToken() (*mldriver.Token, error) {
	skip := p.gram.LexicalSpecification.Maleeni.Skip
	for {
		// We don't have to check whether the token is invalid because the kind ID of the invalid token is 0,
		// and the parsing table doesn't have an entry corresponding to the kind ID 0. Thus we can detect
		// a syntax error because the parser cannot find an entry corresponding to the invalid token.
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}

		if skip[tok.KindID] > 0 {
			continue
		}

		return tok, nil
	}
}

func (p *Parser) tokenToTerminal(tok *mldriver.Token) int {
	if tok.EOF {
		return p.gram.ParsingTable.EOFSymbol
	}

	return p.gram.LexicalSpecification.Maleeni.KindToTerminal[tok.KindID]
}

func (p *Parser) lookupAction(tok *mldriver.Token) *spec.ActionEntry {
	termCount := p.gram.ParsingTable.TerminalCount
	term := p.tokenToTerminal(tok)
	cell := p.gram.ParsingTable.Action[p.top()*termCount+term]
	if len(cell) == 0 {
		return nil
	}
	return cell[0]
}

func (p *Parser) shift(nextState int) {
	p.push(nextState)
}

func (p *Parser) reduce(prodNum int) error {
	tab := p.gram.ParsingTable
	lhs := tab.LHSSymbols[prodNum]
	n := tab.AlternativeSymbolCounts[prodNum]
	p.pop(n)
	nextState := tab.GoTo[p.top()*tab.NonTerminalCount+lhs]
	if nextState < 0 {
		return fmt.Errorf("GOTO is undefined; state: %v, non-terminal: %v", p.top(), tab.NonTerminals[lhs])
	}
	p.push(nextState)
	return nil
}

func (p *Parser) actOnShift(tok *mldriver.Token) {
	if !p.makeCST {
		return
	}

	term := p.tokenToTerminal(tok)
	p.semStack = append(p.semStack, &Node{
		KindName: p.gram.ParsingTable.Terminals[term],
		Text:     string(tok.Lexeme),
		Row:      tok.Row,
		Col:      tok.Col,
	})
}

func (p *Parser) actOnReduction(prodNum int) {
	if !p.makeCST {
		return
	}

	lhs := p.gram.ParsingTable.LHSSymbols[prodNum]

	// When an alternative is empty, `n` will be 0, and `handle` will be empty slice.
	n := p.gram.ParsingTable.AlternativeSymbolCounts[prodNum]
	handle := p.semStack[len(p.semStack)-n:]

	children := make([]*Node, len(handle))
	copy(children, handle)

	p.semStack = p.semStack[:len(p.semStack)-n]
	p.semStack = append(p.semStack, &Node{
		KindName: p.gram.ParsingTable.NonTerminals[lhs],
		Children: children,
	})
}

func (p *Parser) actOnAccepting() {
	if !p.makeCST {
		return
	}

	p.cst = p.semStack[len(p.semStack)-1]
}

func (p *Parser) top() int {
	return p.stateStack[len(p.stateStack)-1]
}

func (p *Parser) push(state int) {
	p.stateStack = append(p.stateStack, state)
}

func (p *Parser) pop(n int) {
	p.stateStack = p.stateStack[:len(p.stateStack)-n]
}

func (p *Parser) CST() *Node {
	return p.cst
}

func (p *Parser) SyntaxErrors() []*SyntaxError {
	return p.synErrs
}

func (p *Parser) searchLookahead(state int) []string {
	kinds := []string{}
	term2Kind := p.gram.LexicalSpecification.Maleeni.TerminalToKind
	kindNames := p.gram.LexicalSpecification.Maleeni.Spec.KindNames
	termCount := p.gram.ParsingTable.TerminalCount
	base := state * termCount
	for term := 0; term < termCount; term++ {
		if len(p.gram.ParsingTable.Action[base+term]) == 0 {
			continue
		}

		if term == p.gram.ParsingTable.EOFSymbol {
			kinds = append(kinds, "<eof>")
			continue
		}

		kinds = append(kinds, kindNames[term2Kind[term]].String())
	}

	return kinds
}
