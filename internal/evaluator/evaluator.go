package evaluator

import (
	"io"
	"log/slog"
	"sync/atomic"

	"wisp/internal/object"
	"wisp/internal/reader"
)

// Evaluator owns the root environment (pre-populated with the builtin
// table) and the output sink used by the printing builtins.
type Evaluator struct {
	root     *object.Environment
	out      io.Writer
	handleID atomic.Int64
}

func New(out io.Writer) *Evaluator {
	e := &Evaluator{out: out}
	e.root = object.NewEnvironment()
	registerCore(e.root)
	registerFs(e.root)
	registerDb(e.root, newDbRegistry())
	registerStrings(e.root)
	registerTime(e.root)
	e.bootstrap()
	return e
}

// bootstrap defines the parts of the standard library written in the
// language itself.
var prelude = []string{
	"(def! not (fn* (a) (if a false true)))",
	`(def! load-file (fn* (f) (eval (read-string (str "(do " (slurp f) "\nnil)")))))`,
	`(defmacro! cond (fn* (& xs)
	   (if (empty? xs)
	     nil
	     (list 'if (first xs)
	       (if (empty? (rest xs))
	         (throw "cond: odd number of forms")
	         (first (rest xs)))
	       (cons 'cond (rest (rest xs)))))))`,
}

func (e *Evaluator) bootstrap() {
	for _, src := range prelude {
		if result := e.EvalString(src); isError(result) {
			slog.Warn("prelude form failed",
				slog.String("src", src),
				slog.String("error", result.Inspect()))
		}
	}
}

// EvalString reads one form from src and evaluates it in the root
// environment. Reader failures come back as in-band error values.
func (e *Evaluator) EvalString(src string) object.Object {
	form, err := reader.ReadStr(src)
	if err != nil {
		return err
	}
	return e.Eval(form, e.root)
}

// RunFile loads and evaluates a source file via the load-file prelude.
func (e *Evaluator) RunFile(path string) object.Object {
	form := object.NewList(
		&object.Symbol{Name: "load-file"},
		&object.String{Value: path},
	)
	return e.Eval(form, e.root)
}

// Eval is a trampoline: each iteration either returns a final value or
// rebinds (expr, env) and continues, so anything in tail position of if,
// do, let*, try* or an applied closure is evaluated iteratively. Builtins
// are leaves and return directly.
func (e *Evaluator) Eval(expr object.Object, env *object.Environment) object.Object {
	for {
		expanded := e.Macroexpand(expr, env)
		if isError(expanded) {
			return expanded
		}
		expr = expanded

		pair, ok := expr.(*object.Pair)
		if !ok {
			return e.evalAtom(expr, env)
		}
		items, ok := object.ListToSlice(pair)
		if !ok {
			return e.NewError(object.TypeError, "cannot evaluate improper list")
		}

		if sym, ok := pair.First.(*object.Symbol); ok {
			handled := true
			var result object.Object
			switch sym.Name {
			case "def!":
				result = e.evalDef(items, env)
			case "defmacro!":
				result = e.evalDefmacro(items, env)
			case "let*":
				result, expr, env = e.evalLet(items, env)
			case "if":
				result, expr = e.evalIf(items, env)
			case "fn*":
				result = e.evalFn(items, env)
			case "do":
				result, expr = e.evalDo(items, env)
			case "quote":
				if len(items) != 2 {
					result = e.arityError(len(items)-1, 1)
				} else {
					result = items[1]
				}
			case "quasiquote":
				if len(items) != 2 {
					result = e.arityError(len(items)-1, 1)
				} else {
					expr = quasiquote(items[1])
				}
			case "macroexpand":
				if len(items) != 2 {
					result = e.arityError(len(items)-1, 1)
				} else {
					result = e.Macroexpand(items[1], env)
				}
			case "try*":
				result, expr, env = e.evalTry(items, env)
			default:
				handled = false
			}
			if handled {
				if result != nil {
					return result
				}
				continue
			}
		}

		// Application: evaluate every element left to right; the first
		// result is the callee.
		callee := e.Eval(items[0], env)
		if isError(callee) {
			return callee
		}
		args := make([]object.Object, 0, len(items)-1)
		for _, a := range items[1:] {
			v := e.Eval(a, env)
			if isError(v) {
				return v
			}
			args = append(args, v)
		}

		switch fn := callee.(type) {
		case *object.Function:
			fnEnv := object.NewEnclosedEnvironment(fn.Env)
			if err := fnEnv.Bind(fn.Params, fn.Variadic, args); err != nil {
				return err
			}
			expr, env = fn.Body, fnEnv
		case *object.Builtin:
			return fn.Fn(e, args...)
		default:
			return e.NewError(object.TypeError, "not a function: %s", callee.Type())
		}
	}
}

func (e *Evaluator) evalAtom(expr object.Object, env *object.Environment) object.Object {
	switch node := expr.(type) {
	case *object.Symbol:
		if val, ok := env.Get(node.Name); ok {
			return val
		}
		return e.NewError(object.UnboundSymbol, "'%s' not found", node.Name)

	case *object.Vector:
		elements := make([]object.Object, len(node.Elements))
		for i, el := range node.Elements {
			v := e.Eval(el, env)
			if isError(v) {
				return v
			}
			elements[i] = v
		}
		return &object.Vector{Elements: elements}

	case *object.Map:
		m := &object.Map{Pairs: make(map[object.MapKey]object.MapPair, len(node.Pairs))}
		for _, pair := range node.Pairs {
			key := e.Eval(pair.Key, env)
			if isError(key) {
				return key
			}
			hashable, ok := key.(object.Hashable)
			if !ok {
				return e.NewError(object.TypeError, "unusable as map key: %s", key.Type())
			}
			value := e.Eval(pair.Value, env)
			if isError(value) {
				return value
			}
			m.Put(hashable, value)
		}
		return m
	}

	// Nil, booleans, numbers, strings, keywords and opaque values
	// evaluate to themselves.
	return expr
}

// evalDef handles (def! name form): evaluate, bind in the current frame,
// return the value.
func (e *Evaluator) evalDef(items []object.Object, env *object.Environment) object.Object {
	if len(items) != 3 {
		return e.arityError(len(items)-1, 2)
	}
	sym, ok := items[1].(*object.Symbol)
	if !ok {
		return e.NewError(object.TypeError, "def! requires a symbol, got %s", items[1].Type())
	}
	val := e.Eval(items[2], env)
	if isError(val) {
		return val
	}
	return env.Define(sym.Name, val)
}

// evalDefmacro is def! with the value re-tagged as a macro before binding.
func (e *Evaluator) evalDefmacro(items []object.Object, env *object.Environment) object.Object {
	if len(items) != 3 {
		return e.arityError(len(items)-1, 2)
	}
	sym, ok := items[1].(*object.Symbol)
	if !ok {
		return e.NewError(object.TypeError, "defmacro! requires a symbol, got %s", items[1].Type())
	}
	val := e.Eval(items[2], env)
	if isError(val) {
		return val
	}
	fn, ok := val.(*object.Function)
	if !ok {
		return e.NewError(object.TypeError, "defmacro! requires a function, got %s", val.Type())
	}
	return env.Define(sym.Name, fn.MacroCopy())
}

// evalLet processes bindings pairwise in the growing child environment,
// then hands the body back to the trampoline.
func (e *Evaluator) evalLet(items []object.Object, env *object.Environment) (object.Object, object.Object, *object.Environment) {
	if len(items) != 3 {
		return e.arityError(len(items)-1, 2), nil, nil
	}
	binds, ok := object.SeqElements(items[1])
	if !ok {
		return e.NewError(object.TypeError, "let* requires a binding sequence, got %s", items[1].Type()), nil, nil
	}
	if len(binds)%2 != 0 {
		return e.NewError(object.ArityError, "let* requires an even number of binding forms"), nil, nil
	}
	child := object.NewEnclosedEnvironment(env)
	for i := 0; i < len(binds); i += 2 {
		sym, ok := binds[i].(*object.Symbol)
		if !ok {
			return e.NewError(object.TypeError, "let* binding name must be a symbol, got %s", binds[i].Type()), nil, nil
		}
		val := e.Eval(binds[i+1], child)
		if isError(val) {
			return val, nil, nil
		}
		child.Define(sym.Name, val)
	}
	return nil, items[2], child
}

// evalIf selects a branch; only nil and false are falsy. A missing else
// branch with a false condition yields nil.
func (e *Evaluator) evalIf(items []object.Object, env *object.Environment) (object.Object, object.Object) {
	if len(items) < 3 || len(items) > 4 {
		return e.arityError(len(items)-1, 2), nil
	}
	cond := e.Eval(items[1], env)
	if isError(cond) {
		return cond, nil
	}
	if object.IsTruthy(cond) {
		return nil, items[2]
	}
	if len(items) == 4 {
		return nil, items[3]
	}
	return object.NIL, nil
}

// evalFn builds a closure without evaluating the body.
func (e *Evaluator) evalFn(items []object.Object, env *object.Environment) object.Object {
	if len(items) != 3 {
		return e.arityError(len(items)-1, 2)
	}
	params, variadic, err := parseParams(items[1])
	if err != nil {
		return err
	}
	return &object.Function{
		Params:   params,
		Variadic: variadic,
		Body:     items[2],
		Env:      env,
	}
}

// parseParams reads a parameter sequence of symbols, with an optional
// trailing "& rest" pair collecting surplus arguments.
func parseParams(form object.Object) ([]string, string, *object.Error) {
	elems, ok := object.SeqElements(form)
	if !ok {
		return nil, "", object.NewError(object.TypeError,
			"fn* requires a parameter sequence, got %s", form.Type())
	}
	params := []string{}
	variadic := ""
	for i := 0; i < len(elems); i++ {
		sym, ok := elems[i].(*object.Symbol)
		if !ok {
			return nil, "", object.NewError(object.TypeError,
				"fn* parameter must be a symbol, got %s", elems[i].Type())
		}
		if sym.Name == "&" {
			if i != len(elems)-2 {
				return nil, "", object.NewError(object.SyntaxError,
					"& must be followed by exactly one parameter")
			}
			rest, ok := elems[i+1].(*object.Symbol)
			if !ok {
				return nil, "", object.NewError(object.TypeError,
					"fn* parameter must be a symbol, got %s", elems[i+1].Type())
			}
			variadic = rest.Name
			break
		}
		params = append(params, sym.Name)
	}
	return params, variadic, nil
}

// evalDo evaluates all but the last element for effect and hands the
// last back to the trampoline.
func (e *Evaluator) evalDo(items []object.Object, env *object.Environment) (object.Object, object.Object) {
	if len(items) == 1 {
		return object.NIL, nil
	}
	for _, f := range items[1 : len(items)-1] {
		v := e.Eval(f, env)
		if isError(v) {
			return v, nil
		}
	}
	return nil, items[len(items)-1]
}

// evalTry evaluates the protected expression; when it fails and a catch*
// clause is present, the carried value is bound to the catch symbol in a
// child environment and the handler body goes back to the trampoline.
func (e *Evaluator) evalTry(items []object.Object, env *object.Environment) (object.Object, object.Object, *object.Environment) {
	if len(items) < 2 || len(items) > 3 {
		return e.arityError(len(items)-1, 2), nil, nil
	}
	result := e.Eval(items[1], env)
	err, failed := result.(*object.Error)
	if !failed || len(items) < 3 {
		return result, nil, nil
	}

	catchItems, ok := object.ListToSlice(items[2])
	if !ok || len(catchItems) != 3 {
		return e.NewError(object.SyntaxError, "malformed catch* clause"), nil, nil
	}
	head, ok := catchItems[0].(*object.Symbol)
	if !ok || head.Name != "catch*" {
		return e.NewError(object.SyntaxError, "try* clause must start with catch*"), nil, nil
	}
	bindSym, ok := catchItems[1].(*object.Symbol)
	if !ok {
		return e.NewError(object.TypeError, "catch* binding must be a symbol, got %s", catchItems[1].Type()), nil, nil
	}

	slog.Debug("exception caught",
		slog.String("kind", string(err.Kind)),
		slog.String("message", err.Message))

	child := object.NewEnclosedEnvironment(env)
	child.Define(bindSym.Name, err.CatchValue())
	return nil, catchItems[2], child
}

// Macroexpand repeatedly applies the macro at head position, if any,
// until the form is no longer a macro call.
func (e *Evaluator) Macroexpand(expr object.Object, env *object.Environment) object.Object {
	for {
		fn, args, ok := e.macroCall(expr, env)
		if !ok {
			return expr
		}
		result := e.applyFunction(fn, args)
		if isError(result) {
			return result
		}
		expr = result
	}
}

func (e *Evaluator) macroCall(expr object.Object, env *object.Environment) (*object.Function, []object.Object, bool) {
	pair, ok := expr.(*object.Pair)
	if !ok {
		return nil, nil, false
	}
	sym, ok := pair.First.(*object.Symbol)
	if !ok {
		return nil, nil, false
	}
	val, ok := env.Get(sym.Name)
	if !ok {
		return nil, nil, false
	}
	fn, ok := val.(*object.Function)
	if !ok || !fn.IsMacro {
		return nil, nil, false
	}
	args, ok := object.ListToSlice(pair.Rest)
	if !ok {
		return nil, nil, false
	}
	return fn, args, true
}

// applyFunction is the recursive (non-trampolined) application used by
// macro expansion and by builtins like apply, map and swap!.
func (e *Evaluator) applyFunction(fnObj object.Object, args []object.Object) object.Object {
	switch fn := fnObj.(type) {
	case *object.Function:
		fnEnv := object.NewEnclosedEnvironment(fn.Env)
		if err := fnEnv.Bind(fn.Params, fn.Variadic, args); err != nil {
			return err
		}
		return e.Eval(fn.Body, fnEnv)
	case *object.Builtin:
		return fn.Fn(e, args...)
	default:
		return e.NewError(object.TypeError, "not a function: %s", fnObj.Type())
	}
}

func (e *Evaluator) arityError(got, want int) *object.Error {
	return e.NewError(object.ArityError, "wrong number of arguments. got=%d, want=%d", got, want)
}

func isError(obj object.Object) bool {
	if obj != nil {
		return obj.Type() == object.ERROR_OBJ
	}
	return false
}

// CallContext implementation, the bridge handed to builtins.

func (e *Evaluator) Apply(fn object.Object, args []object.Object) object.Object {
	return e.applyFunction(fn, args)
}

func (e *Evaluator) EvalInRoot(expr object.Object) object.Object {
	return e.Eval(expr, e.root)
}

func (e *Evaluator) RootEnv() *object.Environment { return e.root }

func (e *Evaluator) Output() io.Writer { return e.out }

func (e *Evaluator) NewError(kind object.ErrorKind, format string, a ...interface{}) *object.Error {
	return object.NewError(kind, format, a...)
}

func (e *Evaluator) NextHandleID() int64 { return e.handleID.Add(1) }
