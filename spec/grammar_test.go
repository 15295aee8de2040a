package spec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrammarDesc(t *testing.T) {
	src := `
name = "expr"
start = "expr"

[[terminals]]
name = "ws"
pattern = "[	 ]+"
skip = true

[[terminals]]
name = "number"
pattern = "[0-9]+"

[[terminals]]
name = "add"
pattern = "\\+"

[[productions]]
lhs = "expr"
rhs = ["expr", "add", "number"]

[[productions]]
lhs = "expr"
rhs = ["number"]
`

	desc, err := ParseGrammarDesc(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "expr", desc.Name)
	assert.Equal(t, "expr", desc.Start)

	require.Len(t, desc.Terminals, 3)
	assert.Equal(t, "ws", desc.Terminals[0].Name)
	assert.True(t, desc.Terminals[0].Skip)
	assert.Equal(t, "number", desc.Terminals[1].Name)
	assert.Equal(t, "[0-9]+", desc.Terminals[1].Pattern)
	assert.False(t, desc.Terminals[1].Skip)

	require.Len(t, desc.Productions, 2)
	assert.Equal(t, "expr", desc.Productions[0].LHS)
	assert.Equal(t, []string{"expr", "add", "number"}, desc.Productions[0].RHS)
	assert.Equal(t, []string{"number"}, desc.Productions[1].RHS)
}

func TestParseGrammarDesc_UnknownKey(t *testing.T) {
	src := `
name = "expr"
start = "expr"
precedence = "left"
`

	_, err := ParseGrammarDesc(strings.NewReader(src))
	assert.ErrorContains(t, err, "unknown key")
}

func TestParseGrammarDesc_Malformed(t *testing.T) {
	_, err := ParseGrammarDesc(strings.NewReader(`name = `))
	assert.Error(t, err)
}
