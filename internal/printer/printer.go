package printer

import (
	"sort"
	"strings"

	"wisp/internal/object"
)

// PrStr renders a value as text. In readable mode the output re-parses to
// an equal value for every literal-representable input; in display mode
// strings print raw, for human consumption.
func PrStr(o object.Object, readable bool) string {
	if readable {
		return o.Inspect()
	}
	switch v := o.(type) {
	case *object.String:
		return v.Value
	case *object.Pair:
		items, ok := object.ListToSlice(v)
		if !ok {
			return v.Inspect()
		}
		return "(" + PrSeq(items, false, " ") + ")"
	case *object.Vector:
		return "[" + PrSeq(v.Elements, false, " ") + "]"
	case *object.Map:
		parts := make([]string, 0, len(v.Pairs))
		for _, pair := range v.Pairs {
			parts = append(parts, PrStr(pair.Key, false)+" "+PrStr(pair.Value, false))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, " ") + "}"
	case *object.Atom:
		return "(atom " + PrStr(v.Deref(), false) + ")"
	}
	return o.Inspect()
}

// PrSeq renders each item and joins with sep.
func PrSeq(items []object.Object, readable bool, sep string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = PrStr(item, readable)
	}
	return strings.Join(parts, sep)
}
