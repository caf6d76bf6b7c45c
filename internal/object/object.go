package object

import (
	"fmt"
	"hash/fnv"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	NIL_OBJ     ObjectType = "NIL"
	BOOLEAN_OBJ ObjectType = "BOOLEAN"
	INTEGER_OBJ ObjectType = "INTEGER"
	FLOAT_OBJ   ObjectType = "FLOAT"
	STRING_OBJ  ObjectType = "STRING"
	SYMBOL_OBJ  ObjectType = "SYMBOL"
	KEYWORD_OBJ ObjectType = "KEYWORD"

	PAIR_OBJ   ObjectType = "PAIR"
	VECTOR_OBJ ObjectType = "VECTOR"
	MAP_OBJ    ObjectType = "MAP"
	ATOM_OBJ   ObjectType = "ATOM"

	FUNCTION_OBJ ObjectType = "FUNCTION"
	BUILTIN_OBJ  ObjectType = "BUILTIN"
	ERROR_OBJ    ObjectType = "ERROR"
)

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
}

// ErrorKind classifies recoverable evaluation failures. Handlers dispatch
// on the kind; message text is informational only.
type ErrorKind string

const (
	SyntaxError    ErrorKind = "SyntaxError"
	UnboundSymbol  ErrorKind = "UnboundSymbol"
	ArityError     ErrorKind = "ArityError"
	TypeError      ErrorKind = "TypeError"
	DivisionByZero ErrorKind = "DivisionByZero"
	Throw          ErrorKind = "Throw"
)

// CallContext is the bridge between native Go builtins and the running
// evaluator, giving builtin implementations access to application, the
// root environment and the output sink.
type CallContext interface {
	Apply(fn Object, args []Object) Object
	EvalInRoot(expr Object) Object
	RootEnv() *Environment
	Output() io.Writer
	NewError(kind ErrorKind, format string, a ...interface{}) *Error
	NextHandleID() int64
}

type BuiltinFunction func(ctx CallContext, args ...Object) Object

type Hashable interface {
	Object
	MapKey() MapKey
}

// Metaed is implemented by values that carry an optional metadata slot.
// WithMeta returns a shallow copy with the slot replaced.
type Metaed interface {
	Object
	WithMeta(meta Object) Object
	GetMeta() Object
}

type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Boolean) MapKey() MapKey {
	var value uint64
	if b.Value {
		value = 1
	}
	return MapKey{Type: b.Type(), Value: value}
}

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) MapKey() MapKey {
	return MapKey{Type: i.Type(), Value: uint64(i.Value)}
}

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string {
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return quoteString(s.Value) }
func (s *String) MapKey() MapKey {
	h := fnv.New64a()
	h.Write([]byte(s.Value))
	return MapKey{Type: s.Type(), Value: h.Sum64()}
}

// Symbol identity is structural: two symbols with the same name are
// interchangeable everywhere.
type Symbol struct {
	Name string
}

func (s *Symbol) Type() ObjectType { return SYMBOL_OBJ }
func (s *Symbol) Inspect() string  { return s.Name }

type Keyword struct {
	Name string
}

func (k *Keyword) Type() ObjectType { return KEYWORD_OBJ }
func (k *Keyword) Inspect() string  { return ":" + k.Name }
func (k *Keyword) MapKey() MapKey {
	h := fnv.New64a()
	h.Write([]byte(k.Name))
	return MapKey{Type: k.Type(), Value: h.Sum64()}
}

// Pair is a two-slot cons cell. Chains of Pairs terminated by NIL form
// proper lists; the reader and evaluator only ever construct those.
type Pair struct {
	First Object
	Rest  Object
	Meta  Object
}

func (p *Pair) Type() ObjectType { return PAIR_OBJ }
func (p *Pair) Inspect() string {
	var out strings.Builder
	out.WriteString("(")
	cur := Object(p)
	first := true
	for {
		pair, ok := cur.(*Pair)
		if !ok {
			if cur.Type() != NIL_OBJ {
				out.WriteString(" . ")
				out.WriteString(cur.Inspect())
			}
			break
		}
		if !first {
			out.WriteString(" ")
		}
		out.WriteString(pair.First.Inspect())
		first = false
		cur = pair.Rest
	}
	out.WriteString(")")
	return out.String()
}
func (p *Pair) WithMeta(meta Object) Object {
	return &Pair{First: p.First, Rest: p.Rest, Meta: meta}
}
func (p *Pair) GetMeta() Object { return orNil(p.Meta) }

// Vector is an ordered sequence with its own identity; unlike a list it
// does not denote a call when evaluated.
type Vector struct {
	Elements []Object
	Meta     Object
}

func (v *Vector) Type() ObjectType { return VECTOR_OBJ }
func (v *Vector) Inspect() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
func (v *Vector) WithMeta(meta Object) Object {
	return &Vector{Elements: v.Elements, Meta: meta}
}
func (v *Vector) GetMeta() Object { return orNil(v.Meta) }

type MapKey struct {
	Type  ObjectType
	Value uint64
}

type MapPair struct {
	Key   Object
	Value Object
}

type Map struct {
	Pairs map[MapKey]MapPair
	Meta  Object
}

func (m *Map) Type() ObjectType { return MAP_OBJ }
func (m *Map) Inspect() string {
	parts := make([]string, 0, len(m.Pairs))
	for _, pair := range m.Pairs {
		parts = append(parts, pair.Key.Inspect()+" "+pair.Value.Inspect())
	}
	// no ordering guarantee on the map itself; print sorted for stable output
	sort.Strings(parts)
	return "{" + strings.Join(parts, " ") + "}"
}

// Put adds a key/value pair, overwriting any existing entry for the key.
func (m *Map) Put(k Hashable, v Object) *Map {
	if m.Pairs == nil {
		m.Pairs = map[MapKey]MapPair{}
	}
	m.Pairs[k.MapKey()] = MapPair{Key: k, Value: v}
	return m
}

func (m *Map) Get(k Hashable) (Object, bool) {
	pair, ok := m.Pairs[k.MapKey()]
	return pair.Value, ok
}

func (m *Map) Copy() *Map {
	pairs := make(map[MapKey]MapPair, len(m.Pairs))
	for k, v := range m.Pairs {
		pairs[k] = v
	}
	return &Map{Pairs: pairs, Meta: m.Meta}
}

func (m *Map) WithMeta(meta Object) Object {
	return &Map{Pairs: m.Pairs, Meta: meta}
}
func (m *Map) GetMeta() Object { return orNil(m.Meta) }

// Atom is the single mutable reference cell in the value model.
type Atom struct {
	mu    sync.Mutex
	value Object
	Meta  Object
}

func NewAtom(v Object) *Atom {
	return &Atom{value: v}
}

func (a *Atom) Type() ObjectType { return ATOM_OBJ }
func (a *Atom) Inspect() string  { return "(atom " + a.Deref().Inspect() + ")" }

func (a *Atom) Deref() Object {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

func (a *Atom) Reset(v Object) Object {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.value = v
	return v
}

func (a *Atom) WithMeta(meta Object) Object {
	na := NewAtom(a.Deref())
	na.Meta = meta
	return na
}
func (a *Atom) GetMeta() Object { return orNil(a.Meta) }

// Function is a closure: parameter names, an unevaluated body and the
// environment captured at fn* time. The captured env is aliased, never
// copied; scoping is fixed at creation, not at call time.
type Function struct {
	Params   []string
	Variadic string // name bound to the remaining args as a list; "" when fixed arity
	Body     Object
	Env      *Environment
	IsMacro  bool
	Meta     Object
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	if f.IsMacro {
		return "#<macro>"
	}
	return "#<function>"
}
func (f *Function) WithMeta(meta Object) Object {
	nf := *f
	nf.Meta = meta
	return &nf
}
func (f *Function) GetMeta() Object { return orNil(f.Meta) }

// MacroCopy returns a copy of f tagged as a macro.
func (f *Function) MacroCopy() *Function {
	nf := *f
	nf.IsMacro = true
	return &nf
}

type Builtin struct {
	Name string
	Fn   BuiltinFunction
	Meta Object
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "#<builtin:" + b.Name + ">" }
func (b *Builtin) WithMeta(meta Object) Object {
	return &Builtin{Name: b.Name, Fn: b.Fn, Meta: meta}
}
func (b *Builtin) GetMeta() Object { return orNil(b.Meta) }

// Error is an in-band evaluation failure. Throw errors carry the thrown
// value in Payload; host-level errors carry only a message.
type Error struct {
	Kind    ErrorKind
	Message string
	Payload Object
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return string(e.Kind) + ": " + e.Message }

// CatchValue is what a catch* handler binds: the thrown payload when
// present, otherwise the message coerced to a displayable string.
func (e *Error) CatchValue() Object {
	if e.Payload != nil {
		return e.Payload
	}
	return &String{Value: e.Message}
}

func NewError(kind ErrorKind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// NewList builds a proper list from items; no items yields NIL.
func NewList(items ...Object) Object {
	var list Object = NIL
	for i := len(items) - 1; i >= 0; i-- {
		list = &Pair{First: items[i], Rest: list}
	}
	return list
}

// ListToSlice flattens a proper list. The second result is false when o
// is neither NIL nor a NIL-terminated Pair chain.
func ListToSlice(o Object) ([]Object, bool) {
	if o.Type() == NIL_OBJ {
		return nil, true
	}
	items := []Object{}
	cur := o
	for {
		pair, ok := cur.(*Pair)
		if !ok {
			if cur.Type() == NIL_OBJ {
				return items, true
			}
			return nil, false
		}
		items = append(items, pair.First)
		cur = pair.Rest
	}
}

// SeqElements returns the elements of any sequential value: NIL, a
// proper list, or a vector.
func SeqElements(o Object) ([]Object, bool) {
	switch seq := o.(type) {
	case *Nil:
		return nil, true
	case *Pair:
		return ListToSlice(seq)
	case *Vector:
		return seq.Elements, true
	}
	return nil, false
}

// IsTruthy: only nil and false are falsy.
func IsTruthy(o Object) bool {
	switch v := o.(type) {
	case *Nil:
		return false
	case *Boolean:
		return v.Value
	}
	return true
}

// Equals is deep structural equality. Lists and vectors compare as
// sequences, so (= (list 1 2) [1 2]) holds.
func Equals(a, b Object) bool {
	if a.Type() == NIL_OBJ || b.Type() == NIL_OBJ {
		return a.Type() == b.Type()
	}
	as, aok := SeqElements(a)
	bs, bok := SeqElements(b)
	if aok && bok {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !Equals(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case *Boolean:
		return av.Value == b.(*Boolean).Value
	case *Integer:
		return av.Value == b.(*Integer).Value
	case *Float:
		return av.Value == b.(*Float).Value
	case *String:
		return av.Value == b.(*String).Value
	case *Symbol:
		return av.Name == b.(*Symbol).Name
	case *Keyword:
		return av.Name == b.(*Keyword).Name
	case *Map:
		bm := b.(*Map)
		if len(av.Pairs) != len(bm.Pairs) {
			return false
		}
		for k, pair := range av.Pairs {
			bPair, ok := bm.Pairs[k]
			if !ok || !Equals(pair.Value, bPair.Value) {
				return false
			}
		}
		return true
	}
	return a == b
}

func orNil(meta Object) Object {
	if meta == nil {
		return NIL
	}
	return meta
}

func quoteString(s string) string {
	var out strings.Builder
	out.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			out.WriteString(`\n`)
		case '\t':
			out.WriteString(`\t`)
		case '\r':
			out.WriteString(`\r`)
		case '\\':
			out.WriteString(`\\`)
		case '"':
			out.WriteString(`\"`)
		default:
			out.WriteRune(r)
		}
	}
	out.WriteByte('"')
	return out.String()
}
