package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLoop_PluralNamePlusCollection_Triggers(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("hostnames", []interface{}{"a", "b", "c"})

	trigger, ok := detectLoop(map[string]interface{}{"target_hosts": "{{hostnames}}"}, ctx)
	require.True(t, ok)
	assert.Equal(t, "target_hosts", trigger.pluralKey)
	assert.Equal(t, "target_host", trigger.singularKey)
	assert.Len(t, trigger.collection, 3)
}

func TestDetectLoop_EmptyCollection_DoesNotTrigger(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("hostnames", []interface{}{})
	_, ok := detectLoop(map[string]interface{}{"target_hosts": "{{hostnames}}"}, ctx)
	assert.False(t, ok)
}

func TestDetectLoop_SingularName_DoesNotTrigger(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("hostnames", []interface{}{"a"})
	_, ok := detectLoop(map[string]interface{}{"target_host": "{{hostnames}}"}, ctx)
	assert.False(t, ok)
}

func TestDetectLoop_LiteralArray_DoesNotTrigger(t *testing.T) {
	ctx := NewExecutionContext()
	_, ok := detectLoop(map[string]interface{}{"target_hosts": []interface{}{"a", "b"}}, ctx)
	assert.False(t, ok)
}

func TestDetectLoop_UnknownVariable_DoesNotTrigger(t *testing.T) {
	ctx := NewExecutionContext()
	_, ok := detectLoop(map[string]interface{}{"target_hosts": "{{hostnames}}"}, ctx)
	assert.False(t, ok)
}

func TestIsPluralName_ExcludesDoubleS(t *testing.T) {
	assert.True(t, isPluralName("hosts"))
	assert.True(t, isPluralName("target_hosts"))
	assert.False(t, isPluralName("address"))
}
