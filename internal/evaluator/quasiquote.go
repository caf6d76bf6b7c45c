package evaluator

import "wisp/internal/object"

// quasiquote rewrites a template into ordinary code that reconstructs
// it: (unquote x) escapes to x, ((splice-unquote x) . rest) becomes
// (concat x rest'), and any other pair becomes (cons first' rest').
// Symbols, vectors and maps are protected with quote so they do not
// evaluate; self-evaluating atoms pass through unchanged.
func quasiquote(form object.Object) object.Object {
	switch node := form.(type) {
	case *object.Pair:
		if sym, ok := node.First.(*object.Symbol); ok && sym.Name == "unquote" {
			if rest, ok := node.Rest.(*object.Pair); ok {
				return rest.First
			}
		}
		if headPair, ok := node.First.(*object.Pair); ok {
			if sym, ok := headPair.First.(*object.Symbol); ok && sym.Name == "splice-unquote" {
				if rest, ok := headPair.Rest.(*object.Pair); ok {
					return object.NewList(
						&object.Symbol{Name: "concat"},
						rest.First,
						quasiquote(node.Rest),
					)
				}
			}
		}
		return object.NewList(
			&object.Symbol{Name: "cons"},
			quasiquote(node.First),
			quasiquote(node.Rest),
		)

	case *object.Symbol, *object.Vector, *object.Map:
		return object.NewList(&object.Symbol{Name: "quote"}, form)
	}
	return form
}
