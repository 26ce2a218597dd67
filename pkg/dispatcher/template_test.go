package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveString_UnknownVariable_EmptyStringAndWarns(t *testing.T) {
	ctx := NewExecutionContext()
	got := resolveString("{{missing}}", ctx, "tr_1")
	assert.Equal(t, "", got)
}

func TestResolveString_MalformedSyntax_LeavesLiteralUntouched(t *testing.T) {
	ctx := NewExecutionContext()
	got := resolveString("path: {{unterminated", ctx, "tr_1")
	assert.Equal(t, "path: {{unterminated", got)
}

func TestResolveString_EmbeddedToken_Stringifies(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("name", "nginx")
	got := resolveString("service {{name}} restarted", ctx, "tr_1")
	assert.Equal(t, "service nginx restarted", got)
}

func TestResolveString_BareToken_ReturnsTypedValue(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("hostnames", []interface{}{"a", "b"})
	got := resolveString("{{hostnames}}", ctx, "tr_1")
	assert.Equal(t, []interface{}{"a", "b"}, got)
}

func TestResolvePath_IndexedAndDottedAccess(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("assets", []interface{}{
		map[string]interface{}{"hostname": "win-1"},
	})

	v, ok := resolvePath("assets[0].hostname", ctx)
	assert.True(t, ok)
	assert.Equal(t, "win-1", v)
}

func TestResolvePath_OutOfRangeIndex_NotOK(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("assets", []interface{}{"only-one"})
	_, ok := resolvePath("assets[5]", ctx)
	assert.False(t, ok)
}

func TestResolveInputs_RecursesThroughMapsAndSlices(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("host", "db-1")
	inputs := map[string]interface{}{
		"nested": map[string]interface{}{"target": "{{host}}"},
		"list":   []interface{}{"{{host}}", "literal"},
	}
	out := resolveInputs(inputs, ctx, "tr_1")
	assert.Equal(t, "db-1", out["nested"].(map[string]interface{})["target"])
	assert.Equal(t, []interface{}{"db-1", "literal"}, out["list"])
}
