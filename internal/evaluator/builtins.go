package evaluator

import (
	"fmt"
	"math"

	"wisp/internal/object"
	"wisp/internal/printer"
	"wisp/internal/reader"
)

func def(env *object.Environment, name string, fn object.BuiltinFunction) {
	env.Define(name, &object.Builtin{Name: name, Fn: fn})
}

func registerCore(env *object.Environment) {
	registerNumeric(env)
	registerSequence(env)
	registerPrinting(env)
	registerPredicates(env)
	registerMaps(env)
	registerAtoms(env)

	def(env, "eval", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "eval", args, 1); err != nil {
			return err
		}
		return ctx.EvalInRoot(args[0])
	})

	def(env, "read-string", func(ctx object.CallContext, args ...object.Object) object.Object {
		src, err := wantString(ctx, "read-string", args, 0, 1)
		if err != nil {
			return err
		}
		form, rerr := reader.ReadStr(src)
		if rerr != nil {
			return rerr
		}
		return form
	})

	def(env, "throw", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "throw", args, 1); err != nil {
			return err
		}
		return &object.Error{
			Kind:    object.Throw,
			Message: printer.PrStr(args[0], true),
			Payload: args[0],
		}
	})

	def(env, "symbol", func(ctx object.CallContext, args ...object.Object) object.Object {
		name, err := wantString(ctx, "symbol", args, 0, 1)
		if err != nil {
			return err
		}
		return &object.Symbol{Name: name}
	})

	def(env, "keyword", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "keyword", args, 1); err != nil {
			return err
		}
		switch v := args[0].(type) {
		case *object.Keyword:
			return v
		case *object.String:
			return &object.Keyword{Name: v.Value}
		}
		return ctx.NewError(object.TypeError,
			"keyword requires a string, got %s", args[0].Type())
	})

	def(env, "with-meta", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "with-meta", args, 2); err != nil {
			return err
		}
		carrier, ok := args[0].(object.Metaed)
		if !ok {
			return ctx.NewError(object.TypeError,
				"with-meta: %s cannot carry metadata", args[0].Type())
		}
		return carrier.WithMeta(args[1])
	})

	def(env, "meta", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "meta", args, 1); err != nil {
			return err
		}
		carrier, ok := args[0].(object.Metaed)
		if !ok {
			return object.NIL
		}
		return carrier.GetMeta()
	})
}

// Numeric builtins. Arithmetic requires uniform operand types; mixing
// integers and floats in one call is a type error rather than a silent
// widening.

func registerNumeric(env *object.Environment) {
	def(env, "+", func(ctx object.CallContext, args ...object.Object) object.Object {
		ints, floats, isFloat, err := numericArgs(ctx, "+", args)
		if err != nil {
			return err
		}
		if isFloat {
			var sum float64
			for _, f := range floats {
				sum += f
			}
			return &object.Float{Value: sum}
		}
		var sum int64
		for _, n := range ints {
			sum += n
		}
		return &object.Integer{Value: sum}
	})

	def(env, "*", func(ctx object.CallContext, args ...object.Object) object.Object {
		ints, floats, isFloat, err := numericArgs(ctx, "*", args)
		if err != nil {
			return err
		}
		if isFloat {
			product := 1.0
			for _, f := range floats {
				product *= f
			}
			return &object.Float{Value: product}
		}
		var product int64 = 1
		for _, n := range ints {
			product *= n
		}
		return &object.Integer{Value: product}
	})

	def(env, "-", func(ctx object.CallContext, args ...object.Object) object.Object {
		ints, floats, isFloat, err := numericArgs(ctx, "-", args)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return ctx.NewError(object.ArityError,
				"wrong number of arguments. got=0, want at least 1")
		}
		if isFloat {
			if len(floats) == 1 {
				return &object.Float{Value: -floats[0]}
			}
			acc := floats[0]
			for _, f := range floats[1:] {
				acc -= f
			}
			return &object.Float{Value: acc}
		}
		if len(ints) == 1 {
			return &object.Integer{Value: -ints[0]}
		}
		acc := ints[0]
		for _, n := range ints[1:] {
			acc -= n
		}
		return &object.Integer{Value: acc}
	})

	// Division works in float64 and narrows a whole result back to an
	// integer, so (/ 10 4) is 2.5 but (/ 10 2) is 5.
	def(env, "/", func(ctx object.CallContext, args ...object.Object) object.Object {
		ints, floats, isFloat, err := numericArgs(ctx, "/", args)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return ctx.NewError(object.ArityError,
				"wrong number of arguments. got=0, want at least 1")
		}
		values := floats
		if !isFloat {
			values = make([]float64, len(ints))
			for i, n := range ints {
				values[i] = float64(n)
			}
		}
		if len(values) == 1 {
			values = []float64{1, values[0]}
		}
		acc := values[0]
		for _, d := range values[1:] {
			if d == 0 {
				return ctx.NewError(object.DivisionByZero, "division by zero")
			}
			acc /= d
		}
		return narrowQuotient(acc)
	})

	compare := func(name string, cmp func(a, b float64) bool) {
		def(env, name, func(ctx object.CallContext, args ...object.Object) object.Object {
			if err := exactly(ctx, name, args, 2); err != nil {
				return err
			}
			a, aok := asFloat(args[0])
			b, bok := asFloat(args[1])
			if !aok || !bok {
				return ctx.NewError(object.TypeError,
					"%s requires numbers, got %s and %s", name, args[0].Type(), args[1].Type())
			}
			return boolean(cmp(a, b))
		})
	}
	compare("<", func(a, b float64) bool { return a < b })
	compare("<=", func(a, b float64) bool { return a <= b })
	compare(">", func(a, b float64) bool { return a > b })
	compare(">=", func(a, b float64) bool { return a >= b })

	def(env, "=", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "=", args, 2); err != nil {
			return err
		}
		return boolean(object.Equals(args[0], args[1]))
	})
}

func registerSequence(env *object.Environment) {
	def(env, "list", func(ctx object.CallContext, args ...object.Object) object.Object {
		return object.NewList(args...)
	})

	def(env, "cons", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "cons", args, 2); err != nil {
			return err
		}
		switch rest := args[1].(type) {
		case *object.Nil, *object.Pair:
			return &object.Pair{First: args[0], Rest: rest}
		case *object.Vector:
			return &object.Pair{First: args[0], Rest: object.NewList(rest.Elements...)}
		}
		return ctx.NewError(object.TypeError,
			"cons requires a sequence, got %s", args[1].Type())
	})

	def(env, "concat", func(ctx object.CallContext, args ...object.Object) object.Object {
		all := []object.Object{}
		for _, arg := range args {
			elems, ok := object.SeqElements(arg)
			if !ok {
				return ctx.NewError(object.TypeError,
					"concat requires sequences, got %s", arg.Type())
			}
			all = append(all, elems...)
		}
		return object.NewList(all...)
	})

	def(env, "first", func(ctx object.CallContext, args ...object.Object) object.Object {
		elems, err := wantSeq(ctx, "first", args)
		if err != nil {
			return err
		}
		if len(elems) == 0 {
			return object.NIL
		}
		return elems[0]
	})

	def(env, "rest", func(ctx object.CallContext, args ...object.Object) object.Object {
		elems, err := wantSeq(ctx, "rest", args)
		if err != nil {
			return err
		}
		if len(elems) == 0 {
			return object.NIL
		}
		return object.NewList(elems[1:]...)
	})

	def(env, "nth", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "nth", args, 2); err != nil {
			return err
		}
		elems, ok := object.SeqElements(args[0])
		if !ok {
			return ctx.NewError(object.TypeError,
				"nth requires a sequence, got %s", args[0].Type())
		}
		idx, ok := args[1].(*object.Integer)
		if !ok {
			return ctx.NewError(object.TypeError,
				"nth requires an integer index, got %s", args[1].Type())
		}
		if idx.Value < 0 || idx.Value >= int64(len(elems)) {
			return ctx.NewError(object.TypeError,
				"nth: index %d out of range for length %d", idx.Value, len(elems))
		}
		return elems[idx.Value]
	})

	def(env, "count", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "count", args, 1); err != nil {
			return err
		}
		if s, ok := args[0].(*object.String); ok {
			return &object.Integer{Value: int64(len(s.Value))}
		}
		elems, ok := object.SeqElements(args[0])
		if !ok {
			return ctx.NewError(object.TypeError,
				"count requires a sequence, got %s", args[0].Type())
		}
		return &object.Integer{Value: int64(len(elems))}
	})

	def(env, "empty?", func(ctx object.CallContext, args ...object.Object) object.Object {
		elems, err := wantSeq(ctx, "empty?", args)
		if err != nil {
			return err
		}
		return boolean(len(elems) == 0)
	})

	def(env, "apply", func(ctx object.CallContext, args ...object.Object) object.Object {
		if len(args) < 2 {
			return ctx.NewError(object.ArityError,
				"wrong number of arguments. got=%d, want at least 2", len(args))
		}
		last, ok := object.SeqElements(args[len(args)-1])
		if !ok {
			return ctx.NewError(object.TypeError,
				"apply: last argument must be a sequence, got %s", args[len(args)-1].Type())
		}
		callArgs := append(append([]object.Object{}, args[1:len(args)-1]...), last...)
		return ctx.Apply(args[0], callArgs)
	})

	def(env, "map", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "map", args, 2); err != nil {
			return err
		}
		elems, ok := object.SeqElements(args[1])
		if !ok {
			return ctx.NewError(object.TypeError,
				"map requires a sequence, got %s", args[1].Type())
		}
		results := make([]object.Object, len(elems))
		for i, el := range elems {
			v := ctx.Apply(args[0], []object.Object{el})
			if isError(v) {
				return v
			}
			results[i] = v
		}
		return object.NewList(results...)
	})

	def(env, "vector", func(ctx object.CallContext, args ...object.Object) object.Object {
		return &object.Vector{Elements: args}
	})

	def(env, "vec", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "vec", args, 1); err != nil {
			return err
		}
		if v, ok := args[0].(*object.Vector); ok {
			return v
		}
		elems, ok := object.SeqElements(args[0])
		if !ok {
			return ctx.NewError(object.TypeError,
				"vec requires a sequence, got %s", args[0].Type())
		}
		return &object.Vector{Elements: elems}
	})
}

func registerPrinting(env *object.Environment) {
	def(env, "pr-str", func(ctx object.CallContext, args ...object.Object) object.Object {
		return &object.String{Value: printer.PrSeq(args, true, " ")}
	})

	def(env, "str", func(ctx object.CallContext, args ...object.Object) object.Object {
		return &object.String{Value: printer.PrSeq(args, false, "")}
	})

	def(env, "prn", func(ctx object.CallContext, args ...object.Object) object.Object {
		fmt.Fprintln(ctx.Output(), printer.PrSeq(args, true, " "))
		return object.NIL
	})

	def(env, "println", func(ctx object.CallContext, args ...object.Object) object.Object {
		fmt.Fprintln(ctx.Output(), printer.PrSeq(args, false, " "))
		return object.NIL
	})
}

func registerPredicates(env *object.Environment) {
	typeCheck := func(name string, pred func(o object.Object) bool) {
		def(env, name, func(ctx object.CallContext, args ...object.Object) object.Object {
			if err := exactly(ctx, name, args, 1); err != nil {
				return err
			}
			return boolean(pred(args[0]))
		})
	}

	typeCheck("nil?", func(o object.Object) bool { return o.Type() == object.NIL_OBJ })
	typeCheck("true?", func(o object.Object) bool { return o == object.TRUE })
	typeCheck("false?", func(o object.Object) bool { return o == object.FALSE })
	typeCheck("string?", func(o object.Object) bool { return o.Type() == object.STRING_OBJ })
	typeCheck("symbol?", func(o object.Object) bool { return o.Type() == object.SYMBOL_OBJ })
	typeCheck("keyword?", func(o object.Object) bool { return o.Type() == object.KEYWORD_OBJ })
	typeCheck("vector?", func(o object.Object) bool { return o.Type() == object.VECTOR_OBJ })
	typeCheck("map?", func(o object.Object) bool { return o.Type() == object.MAP_OBJ })
	typeCheck("atom?", func(o object.Object) bool { return o.Type() == object.ATOM_OBJ })
	typeCheck("number?", func(o object.Object) bool {
		return o.Type() == object.INTEGER_OBJ || o.Type() == object.FLOAT_OBJ
	})
	typeCheck("list?", func(o object.Object) bool {
		if o.Type() == object.NIL_OBJ {
			return true
		}
		_, ok := object.ListToSlice(o)
		return ok && o.Type() == object.PAIR_OBJ
	})
	typeCheck("sequential?", func(o object.Object) bool {
		_, ok := object.SeqElements(o)
		return ok
	})
	typeCheck("fn?", func(o object.Object) bool {
		if fn, ok := o.(*object.Function); ok {
			return !fn.IsMacro
		}
		return o.Type() == object.BUILTIN_OBJ
	})
	typeCheck("macro?", func(o object.Object) bool {
		fn, ok := o.(*object.Function)
		return ok && fn.IsMacro
	})
}

func registerMaps(env *object.Environment) {
	def(env, "hash-map", func(ctx object.CallContext, args ...object.Object) object.Object {
		if len(args)%2 != 0 {
			return ctx.NewError(object.ArityError,
				"hash-map requires an even number of arguments, got %d", len(args))
		}
		m := &object.Map{}
		for i := 0; i < len(args); i += 2 {
			key, ok := args[i].(object.Hashable)
			if !ok {
				return ctx.NewError(object.TypeError,
					"unusable as map key: %s", args[i].Type())
			}
			m.Put(key, args[i+1])
		}
		return m
	})

	def(env, "assoc", func(ctx object.CallContext, args ...object.Object) object.Object {
		if len(args) < 1 || len(args)%2 != 1 {
			return ctx.NewError(object.ArityError,
				"assoc requires a map and key/value pairs, got %d arguments", len(args))
		}
		m, err := wantMap(ctx, "assoc", args[0])
		if err != nil {
			return err
		}
		out := m.Copy()
		for i := 1; i < len(args); i += 2 {
			key, ok := args[i].(object.Hashable)
			if !ok {
				return ctx.NewError(object.TypeError,
					"unusable as map key: %s", args[i].Type())
			}
			out.Put(key, args[i+1])
		}
		return out
	})

	def(env, "dissoc", func(ctx object.CallContext, args ...object.Object) object.Object {
		if len(args) < 1 {
			return ctx.NewError(object.ArityError,
				"wrong number of arguments. got=0, want at least 1")
		}
		m, err := wantMap(ctx, "dissoc", args[0])
		if err != nil {
			return err
		}
		out := m.Copy()
		for _, arg := range args[1:] {
			key, ok := arg.(object.Hashable)
			if !ok {
				return ctx.NewError(object.TypeError,
					"unusable as map key: %s", arg.Type())
			}
			delete(out.Pairs, key.MapKey())
		}
		return out
	})

	def(env, "get", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "get", args, 2); err != nil {
			return err
		}
		if args[0].Type() == object.NIL_OBJ {
			return object.NIL
		}
		m, err := wantMap(ctx, "get", args[0])
		if err != nil {
			return err
		}
		key, ok := args[1].(object.Hashable)
		if !ok {
			return object.NIL
		}
		if v, found := m.Get(key); found {
			return v
		}
		return object.NIL
	})

	def(env, "contains?", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "contains?", args, 2); err != nil {
			return err
		}
		m, err := wantMap(ctx, "contains?", args[0])
		if err != nil {
			return err
		}
		key, ok := args[1].(object.Hashable)
		if !ok {
			return object.FALSE
		}
		_, found := m.Get(key)
		return boolean(found)
	})

	def(env, "keys", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "keys", args, 1); err != nil {
			return err
		}
		m, err := wantMap(ctx, "keys", args[0])
		if err != nil {
			return err
		}
		keys := make([]object.Object, 0, len(m.Pairs))
		for _, pair := range m.Pairs {
			keys = append(keys, pair.Key)
		}
		return object.NewList(keys...)
	})

	def(env, "vals", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "vals", args, 1); err != nil {
			return err
		}
		m, err := wantMap(ctx, "vals", args[0])
		if err != nil {
			return err
		}
		vals := make([]object.Object, 0, len(m.Pairs))
		for _, pair := range m.Pairs {
			vals = append(vals, pair.Value)
		}
		return object.NewList(vals...)
	})
}

func registerAtoms(env *object.Environment) {
	def(env, "atom", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "atom", args, 1); err != nil {
			return err
		}
		return object.NewAtom(args[0])
	})

	def(env, "deref", func(ctx object.CallContext, args ...object.Object) object.Object {
		atom, err := wantAtom(ctx, "deref", args)
		if err != nil {
			return err
		}
		return atom.Deref()
	})

	def(env, "reset!", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "reset!", args, 2); err != nil {
			return err
		}
		atom, ok := args[0].(*object.Atom)
		if !ok {
			return ctx.NewError(object.TypeError,
				"reset! requires an atom, got %s", args[0].Type())
		}
		return atom.Reset(args[1])
	})

	def(env, "swap!", func(ctx object.CallContext, args ...object.Object) object.Object {
		if len(args) < 2 {
			return ctx.NewError(object.ArityError,
				"wrong number of arguments. got=%d, want at least 2", len(args))
		}
		atom, ok := args[0].(*object.Atom)
		if !ok {
			return ctx.NewError(object.TypeError,
				"swap! requires an atom, got %s", args[0].Type())
		}
		callArgs := append([]object.Object{atom.Deref()}, args[2:]...)
		result := ctx.Apply(args[1], callArgs)
		if isError(result) {
			return result
		}
		return atom.Reset(result)
	})
}

// Shared argument plumbing.

func exactly(ctx object.CallContext, name string, args []object.Object, want int) *object.Error {
	if len(args) != want {
		return ctx.NewError(object.ArityError,
			"wrong number of arguments. got=%d, want=%d", len(args), want)
	}
	return nil
}

func wantString(ctx object.CallContext, name string, args []object.Object, idx, arity int) (string, *object.Error) {
	if err := exactly(ctx, name, args, arity); err != nil {
		return "", err
	}
	s, ok := args[idx].(*object.String)
	if !ok {
		return "", ctx.NewError(object.TypeError,
			"%s requires a string, got %s", name, args[idx].Type())
	}
	return s.Value, nil
}

func wantSeq(ctx object.CallContext, name string, args []object.Object) ([]object.Object, *object.Error) {
	if err := exactly(ctx, name, args, 1); err != nil {
		return nil, err
	}
	elems, ok := object.SeqElements(args[0])
	if !ok {
		return nil, ctx.NewError(object.TypeError,
			"%s requires a sequence, got %s", name, args[0].Type())
	}
	return elems, nil
}

func wantMap(ctx object.CallContext, name string, o object.Object) (*object.Map, *object.Error) {
	m, ok := o.(*object.Map)
	if !ok {
		return nil, ctx.NewError(object.TypeError,
			"%s requires a map, got %s", name, o.Type())
	}
	return m, nil
}

func wantAtom(ctx object.CallContext, name string, args []object.Object) (*object.Atom, *object.Error) {
	if err := exactly(ctx, name, args, 1); err != nil {
		return nil, err
	}
	atom, ok := args[0].(*object.Atom)
	if !ok {
		return nil, ctx.NewError(object.TypeError,
			"%s requires an atom, got %s", name, args[0].Type())
	}
	return atom, nil
}

// numericArgs validates that every argument is a number and that all are
// the same numeric type; the isFloat flag selects which slice is filled.
func numericArgs(ctx object.CallContext, name string, args []object.Object) ([]int64, []float64, bool, *object.Error) {
	sawInt, sawFloat := false, false
	ints := make([]int64, 0, len(args))
	floats := make([]float64, 0, len(args))
	for _, arg := range args {
		switch n := arg.(type) {
		case *object.Integer:
			sawInt = true
			ints = append(ints, n.Value)
		case *object.Float:
			sawFloat = true
			floats = append(floats, n.Value)
		default:
			return nil, nil, false, ctx.NewError(object.TypeError,
				"%s requires numbers, got %s", name, arg.Type())
		}
	}
	if sawInt && sawFloat {
		return nil, nil, false, ctx.NewError(object.TypeError,
			"%s requires operands of one numeric type", name)
	}
	return ints, floats, sawFloat, nil
}

func asFloat(o object.Object) (float64, bool) {
	switch n := o.(type) {
	case *object.Integer:
		return float64(n.Value), true
	case *object.Float:
		return n.Value, true
	}
	return 0, false
}

// narrowQuotient converts a whole float quotient back to an integer when
// it fits in int64.
func narrowQuotient(f float64) object.Object {
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return &object.Integer{Value: int64(f)}
	}
	return &object.Float{Value: f}
}

func boolean(b bool) object.Object {
	if b {
		return object.TRUE
	}
	return object.FALSE
}
