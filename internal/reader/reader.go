package reader

import (
	"strconv"

	"wisp/internal/lexer"
	"wisp/internal/object"
	"wisp/internal/token"
)

// Reader is a recursive-descent parser with one token of lookahead. It
// produces the same value tree the evaluator consumes: code is data.
type Reader struct {
	l   *lexer.Lexer
	cur token.Token
}

// ReadStr consumes one top-level form from input.
func ReadStr(input string) (object.Object, *object.Error) {
	r := New(input)
	if r.cur.Type == token.EOF {
		return nil, syntaxError("unexpected end of input")
	}
	return r.ReadForm()
}

func New(input string) *Reader {
	r := &Reader{l: lexer.New(input)}
	r.next()
	return r
}

// AtEOF reports whether the token stream is exhausted.
func (r *Reader) AtEOF() bool {
	return r.cur.Type == token.EOF
}

func (r *Reader) next() {
	r.cur = r.l.NextToken()
}

func (r *Reader) ReadForm() (object.Object, *object.Error) {
	switch r.cur.Type {
	case token.EOF:
		return nil, syntaxError("unexpected end of input")
	case token.ILLEGAL:
		return nil, syntaxError(r.cur.Literal)

	case token.LPAREN:
		r.next()
		items, err := r.readSeq(token.RPAREN)
		if err != nil {
			return nil, err
		}
		return object.NewList(items...), nil
	case token.LBRACKET:
		r.next()
		items, err := r.readSeq(token.RBRACKET)
		if err != nil {
			return nil, err
		}
		return &object.Vector{Elements: items}, nil
	case token.LBRACE:
		r.next()
		return r.readMap()
	case token.RPAREN, token.RBRACKET, token.RBRACE:
		return nil, syntaxError("unexpected '%s'", r.cur.Literal)

	case token.QUOTE:
		return r.readWrapped("quote")
	case token.QUASIQUOTE:
		return r.readWrapped("quasiquote")
	case token.UNQUOTE:
		return r.readWrapped("unquote")
	case token.SPLICE_UNQUOTE:
		return r.readWrapped("splice-unquote")
	case token.DEREF:
		return r.readWrapped("deref")
	case token.META:
		// ^meta form desugars to (with-meta form meta)
		r.next()
		meta, err := r.ReadForm()
		if err != nil {
			return nil, err
		}
		form, err := r.ReadForm()
		if err != nil {
			return nil, err
		}
		return object.NewList(&object.Symbol{Name: "with-meta"}, form, meta), nil

	case token.STRING:
		tok := r.cur
		r.next()
		return &object.String{Value: tok.Literal}, nil
	default:
		tok := r.cur
		r.next()
		return classifyAtom(tok.Literal)
	}
}

func (r *Reader) readWrapped(wrapper string) (object.Object, *object.Error) {
	r.next()
	form, err := r.ReadForm()
	if err != nil {
		return nil, err
	}
	return object.NewList(&object.Symbol{Name: wrapper}, form), nil
}

func (r *Reader) readSeq(closer token.TokenType) ([]object.Object, *object.Error) {
	items := []object.Object{}
	for {
		switch r.cur.Type {
		case token.EOF:
			return nil, syntaxError("unexpected end of input")
		case closer:
			r.next()
			return items, nil
		}
		form, err := r.ReadForm()
		if err != nil {
			return nil, err
		}
		items = append(items, form)
	}
}

func (r *Reader) readMap() (object.Object, *object.Error) {
	items, err := r.readSeq(token.RBRACE)
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, syntaxError("hash-map literal requires an even number of forms")
	}
	m := &object.Map{}
	for i := 0; i < len(items); i += 2 {
		key, ok := items[i].(object.Hashable)
		if !ok {
			return nil, syntaxError("unusable as map key: %s", items[i].Type())
		}
		m.Put(key, items[i+1])
	}
	return m, nil
}

func classifyAtom(lit string) (object.Object, *object.Error) {
	switch lit {
	case "nil":
		return object.NIL, nil
	case "true":
		return object.TRUE, nil
	case "false":
		return object.FALSE, nil
	}
	if lit[0] == ':' {
		return &object.Keyword{Name: lit[1:]}, nil
	}
	if isInteger(lit) {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, syntaxError("integer literal out of range: %s", lit)
		}
		return &object.Integer{Value: n}, nil
	}
	if isFloat(lit) {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, syntaxError("malformed number: %s", lit)
		}
		return &object.Float{Value: f}, nil
	}
	return &object.Symbol{Name: lit}, nil
}

// isInteger matches an optional sign followed by a digit run.
func isInteger(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isFloat matches an optional sign, a digit run, a dot, and a digit run.
func isFloat(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	dot := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			if dot >= 0 {
				return false
			}
			dot = i
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return dot > 0 && dot < len(s)-1
}

func syntaxError(format string, a ...interface{}) *object.Error {
	return object.NewError(object.SyntaxError, format, a...)
}
