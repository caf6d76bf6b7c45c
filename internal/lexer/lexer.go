package lexer

import (
	"strings"
	"unicode/utf8"

	"wisp/internal/token"
)

// Lexer scans s-expression source text left to right, producing a flat
// token stream. Whitespace and commas separate tokens without producing
// any; comments run from ';' to end of line.
type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Literal: "", Position: l.position}
	case '(':
		return l.single(token.LPAREN)
	case ')':
		return l.single(token.RPAREN)
	case '[':
		return l.single(token.LBRACKET)
	case ']':
		return l.single(token.RBRACKET)
	case '{':
		return l.single(token.LBRACE)
	case '}':
		return l.single(token.RBRACE)
	case '\'':
		return l.single(token.QUOTE)
	case '`':
		return l.single(token.QUASIQUOTE)
	case '^':
		return l.single(token.META)
	case '@':
		return l.single(token.DEREF)
	case '~':
		// ~@ is a greedy two-character match
		return l.handleCompoundToken(token.UNQUOTE, '@', token.SPLICE_UNQUOTE)
	case '"':
		return l.readString()
	default:
		return l.readAtom()
	}
}

func (l *Lexer) single(t token.TokenType) token.Token {
	tok := newToken(t, l.ch, l.position)
	l.readChar()
	return tok
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	startPosition := l.position
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		l.readChar()
		return token.Token{Type: t1, Literal: literal, Position: startPosition}
	}
	tok := newToken(t, l.ch, startPosition)
	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n', ',':
			l.readChar()
		case ';':
			l.skipToLineEnd()
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readString consumes a quote-delimited string literal, decoding the
// \n \t \r \\ \" escapes. The closing quote is mandatory.
func (l *Lexer) readString() token.Token {
	startPosition := l.position
	l.readChar() // consume opening quote

	var out strings.Builder
	for {
		switch l.ch {
		case 0:
			return token.Token{Type: token.ILLEGAL, Literal: "unterminated string", Position: startPosition}
		case '"':
			l.readChar()
			return token.Token{Type: token.STRING, Literal: out.String(), Position: startPosition}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			case 'r':
				out.WriteByte('\r')
			case '\\':
				out.WriteByte('\\')
			case '"':
				out.WriteByte('"')
			case 0:
				return token.Token{Type: token.ILLEGAL, Literal: "unterminated string", Position: startPosition}
			default:
				out.WriteRune(l.ch)
			}
			l.readChar()
		default:
			out.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// readAtom consumes a maximal run of non-delimiter runes. Classification
// into number/symbol/keyword happens in the reader.
func (l *Lexer) readAtom() token.Token {
	start := l.position
	for l.ch != 0 && !isDelimiter(l.ch) {
		l.readChar()
	}
	return token.Token{Type: token.ATOM, Literal: l.input[start:l.position], Position: start}
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func isDelimiter(ch rune) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', ',',
		'(', ')', '[', ']', '{', '}',
		'\'', '`', '~', '^', '@', '"', ';':
		return true
	}
	return false
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
