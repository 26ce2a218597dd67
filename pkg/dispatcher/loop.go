package dispatcher

import "strings"

// loopTrigger describes a detected loop: the plural input key whose
// template expression resolved to a collection, its singular replacement,
// and the collection itself (spec §4.9 step 3).
type loopTrigger struct {
	pluralKey   string
	singularKey string
	collection  []interface{}
}

// detectLoop inspects a step's raw (pre-resolution) inputs for the three
// conditions spec §4.9 step 3 requires together: a template expression
// referencing a bare collection variable, a plural parameter name, and a
// non-empty collection actually present in ctx. The first matching key
// wins — a plan is expected to express at most one loop dimension per
// step.
func detectLoop(rawInputs map[string]interface{}, ctx *ExecutionContext) (loopTrigger, bool) {
	for key, v := range rawInputs {
		if !isPluralName(key) {
			continue
		}
		name, ok := bareTemplateName(v)
		if !ok {
			continue
		}
		value, ok := ctx.Get(name)
		if !ok {
			continue
		}
		collection, ok := value.([]interface{})
		if !ok || len(collection) == 0 {
			continue
		}
		return loopTrigger{
			pluralKey:   key,
			singularKey: singularize(key),
			collection:  collection,
		}, true
	}
	return loopTrigger{}, false
}

// bareTemplateName reports the variable name if v is a string that is
// *exactly* one {{name}} token with no path/index suffix — a "plain
// collection variable reference" in spec §4.9 step 3's terms, not the more
// general per-field template expression template.go resolves elsewhere.
func bareTemplateName(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	m := templateExprRegex.FindStringSubmatch(s)
	if m == nil || m[0] != s {
		return "", false
	}
	expr := strings.TrimSpace(m[1])
	if !pathSegmentRegex.MatchString(expr) || strings.Contains(expr, "[") {
		return "", false
	}
	return expr, true
}

// isPluralName is the naming heuristic spec §4.9 step 3 names by example
// (target_hosts, hosts). Words ending in "ss" (e.g. "address") are not
// plural forms of themselves and are excluded.
func isPluralName(name string) bool {
	return strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss")
}

// singularize rewrites a plural parameter name to its singular form
// (target_hosts -> target_host) per spec §4.9 step 3.
func singularize(name string) string {
	return strings.TrimSuffix(name, "s")
}
