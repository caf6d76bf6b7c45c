package lexer

import (
	"testing"

	"wisp/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `(def! answer 42)
[1 2.5 -3]
{:key "value"}
'sym ` + "`tmpl" + ` ~x ~@xs @a ^m f
; a comment
nil ; trailing
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.LPAREN, "("},
		{token.ATOM, "def!"},
		{token.ATOM, "answer"},
		{token.ATOM, "42"},
		{token.RPAREN, ")"},

		{token.LBRACKET, "["},
		{token.ATOM, "1"},
		{token.ATOM, "2.5"},
		{token.ATOM, "-3"},
		{token.RBRACKET, "]"},

		{token.LBRACE, "{"},
		{token.ATOM, ":key"},
		{token.STRING, "value"},
		{token.RBRACE, "}"},

		{token.QUOTE, "'"},
		{token.ATOM, "sym"},
		{token.QUASIQUOTE, "`"},
		{token.ATOM, "tmpl"},
		{token.UNQUOTE, "~"},
		{token.ATOM, "x"},
		{token.SPLICE_UNQUOTE, "~@"},
		{token.ATOM, "xs"},
		{token.DEREF, "@"},
		{token.ATOM, "a"},
		{token.META, "^"},
		{token.ATOM, "m"},
		{token.ATOM, "f"},

		{token.ATOM, "nil"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q '%q', got=%q: '%q'",
				i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextStringToken(t *testing.T) {
	input := `"" "plain" "a b" "esc \" quote" "\n\t\\"`

	tests := []string{
		"",
		"plain",
		"a b",
		`esc " quote`,
		"\n\t\\",
	}

	l := New(input)

	for i, expected := range tests {
		tok := l.NextToken()

		if tok.Type != token.STRING {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q: '%q'",
				i, token.STRING, tok.Type, tok.Literal)
		}

		if tok.Literal != expected {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, expected, tok.Literal)
		}
	}
}

func TestCommasAreWhitespace(t *testing.T) {
	l := New("1, 2,3")

	for i, expected := range []string{"1", "2", "3"} {
		tok := l.NextToken()
		if tok.Type != token.ATOM || tok.Literal != expected {
			t.Fatalf("tests[%d] - expected ATOM %q, got=%q: '%q'",
				i, expected, tok.Type, tok.Literal)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"no closing quote`)
	tok := l.NextToken()

	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL token, got %q: %q", tok.Type, tok.Literal)
	}
}

func TestCommentToEndOfLine(t *testing.T) {
	l := New("; everything here is skipped ~@()[]\nok")

	tok := l.NextToken()
	if tok.Type != token.ATOM || tok.Literal != "ok" {
		t.Fatalf("expected ATOM \"ok\", got %q: %q", tok.Type, tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != token.EOF {
		t.Fatalf("expected EOF, got %q: %q", tok.Type, tok.Literal)
	}
}
