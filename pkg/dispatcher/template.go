package dispatcher

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// templateExprRegex matches a single {{ expr }} token. expr itself never
// contains braces, so nested/malformed tokens (spec §4.9 step 2:
// "template syntax errors leave the literal untouched") simply fail to
// match and pass through resolveString unchanged.
var templateExprRegex = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// resolveInputs recursively resolves every {{...}} template expression in
// inputs against ctx (spec §4.9 step 2). Maps and slices are walked
// in-place into a fresh copy; scalars are resolved directly.
func resolveInputs(inputs map[string]interface{}, ctx *ExecutionContext, traceID string) map[string]interface{} {
	out := make(map[string]interface{}, len(inputs))
	for k, v := range inputs {
		out[k] = resolveValue(v, ctx, traceID)
	}
	return out
}

func resolveValue(v interface{}, ctx *ExecutionContext, traceID string) interface{} {
	switch val := v.(type) {
	case string:
		return resolveString(val, ctx, traceID)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[k] = resolveValue(e, ctx, traceID)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = resolveValue(e, ctx, traceID)
		}
		return out
	default:
		return v
	}
}

// resolveString resolves every {{expr}} token in s. A string that is
// *exactly* one token (nothing else around it) resolves to the raw typed
// value from the context — preserving a collection's type for loop
// detection — rather than its stringified form; a token embedded in
// surrounding text stringifies in place.
func resolveString(s string, ctx *ExecutionContext, traceID string) interface{} {
	matches := templateExprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		expr := s[matches[0][2]:matches[0][3]]
		value, ok := resolvePath(expr, ctx)
		if !ok {
			slog.Warn("unresolved template variable", "event", "dispatcher_template_unresolved", "trace_id", traceID, "expr", expr)
			return ""
		}
		return value
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		expr := s[m[2]:m[3]]
		value, ok := resolvePath(expr, ctx)
		if !ok {
			slog.Warn("unresolved template variable", "event", "dispatcher_template_unresolved", "trace_id", traceID, "expr", expr)
		} else {
			fmt.Fprintf(&b, "%v", value)
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

var pathSegmentRegex = regexp.MustCompile(`^(\w+)(?:\[(\d+)\])?$`)

// resolvePath evaluates a dotted/indexed path (name, name[i], name.field,
// name[i].field, ...) against ctx. ok is false for both an unknown root
// name and a malformed segment — the caller treats both as "unresolved".
func resolvePath(expr string, ctx *ExecutionContext) (interface{}, bool) {
	segments := strings.Split(expr, ".")
	var current interface{}
	for i, seg := range segments {
		m := pathSegmentRegex.FindStringSubmatch(seg)
		if m == nil {
			return nil, false
		}
		name, idxStr := m[1], m[2]

		if i == 0 {
			v, ok := ctx.Get(name)
			if !ok {
				return nil, false
			}
			current = v
		} else {
			next, ok := fieldOf(current, name)
			if !ok {
				return nil, false
			}
			current = next
		}

		if idxStr != "" {
			idx, _ := strconv.Atoi(idxStr)
			v, ok := indexInto(current, idx)
			if !ok {
				return nil, false
			}
			current = v
		}
	}
	return current, true
}

func fieldOf(v interface{}, name string) (interface{}, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	field, ok := m[name]
	return field, ok
}

func indexInto(v interface{}, idx int) (interface{}, bool) {
	slice, ok := v.([]interface{})
	if !ok || idx < 0 || idx >= len(slice) {
		return nil, false
	}
	return slice[idx], true
}
