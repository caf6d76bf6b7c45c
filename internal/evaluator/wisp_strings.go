package evaluator

import (
	"strings"

	"wisp/internal/object"
)

func registerStrings(env *object.Environment) {
	unary := func(name string, fn func(s string) string) {
		def(env, name, func(ctx object.CallContext, args ...object.Object) object.Object {
			s, err := wantString(ctx, name, args, 0, 1)
			if err != nil {
				return err
			}
			return &object.String{Value: fn(s)}
		})
	}
	unary("str-upper", strings.ToUpper)
	unary("str-lower", strings.ToLower)
	unary("str-trim", strings.TrimSpace)

	def(env, "str-split", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "str-split", args, 2); err != nil {
			return err
		}
		s, sep, err := twoStrings(ctx, "str-split", args)
		if err != nil {
			return err
		}
		parts := strings.Split(s, sep)
		items := make([]object.Object, len(parts))
		for i, p := range parts {
			items[i] = &object.String{Value: p}
		}
		return object.NewList(items...)
	})

	def(env, "str-join", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "str-join", args, 2); err != nil {
			return err
		}
		elems, ok := object.SeqElements(args[0])
		if !ok {
			return ctx.NewError(object.TypeError,
				"str-join requires a sequence, got %s", args[0].Type())
		}
		sep, ok := args[1].(*object.String)
		if !ok {
			return ctx.NewError(object.TypeError,
				"str-join requires a string separator, got %s", args[1].Type())
		}
		parts := make([]string, len(elems))
		for i, el := range elems {
			s, ok := el.(*object.String)
			if !ok {
				return ctx.NewError(object.TypeError,
					"str-join requires a sequence of strings, got %s", el.Type())
			}
			parts[i] = s.Value
		}
		return &object.String{Value: strings.Join(parts, sep.Value)}
	})

	def(env, "str-replace", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "str-replace", args, 3); err != nil {
			return err
		}
		s, old, err := twoStrings(ctx, "str-replace", args)
		if err != nil {
			return err
		}
		with, ok := args[2].(*object.String)
		if !ok {
			return ctx.NewError(object.TypeError,
				"str-replace requires a string replacement, got %s", args[2].Type())
		}
		return &object.String{Value: strings.ReplaceAll(s, old, with.Value)}
	})

	def(env, "str-contains?", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "str-contains?", args, 2); err != nil {
			return err
		}
		s, sub, err := twoStrings(ctx, "str-contains?", args)
		if err != nil {
			return err
		}
		return boolean(strings.Contains(s, sub))
	})
}

func twoStrings(ctx object.CallContext, name string, args []object.Object) (string, string, *object.Error) {
	a, ok := args[0].(*object.String)
	if !ok {
		return "", "", ctx.NewError(object.TypeError,
			"%s requires a string, got %s", name, args[0].Type())
	}
	b, ok := args[1].(*object.String)
	if !ok {
		return "", "", ctx.NewError(object.TypeError,
			"%s requires a string, got %s", name, args[1].Type())
	}
	return a.Value, b.Value, nil
}
