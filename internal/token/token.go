package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Literals
	ATOM   = "ATOM"   // 42, -7, 3.5, foo, :key, nil, true, false
	STRING = "STRING" // "foo bar"

	// Delimiters
	LPAREN   = "("
	RPAREN   = ")"
	LBRACKET = "["
	RBRACKET = "]"
	LBRACE   = "{"
	RBRACE   = "}"

	// Reader macros
	QUOTE          = "'"
	QUASIQUOTE     = "`"
	UNQUOTE        = "~"
	SPLICE_UNQUOTE = "~@"
	META           = "^"
	DEREF          = "@"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
}
