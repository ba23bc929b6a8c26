package lexer

import (
	"testing"

	"github.com/lumenscript/lumen/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `class Greeter {
  init(name) {
    this.name = name;
  }
}
var g = Greeter("world");
print g.name == "world";
`

	tests := []token.Token{
		{Type: token.Class, Lexeme: "class"},
		{Type: token.Identifier, Lexeme: "Greeter"},
		{Type: token.LeftBrace, Lexeme: "{"},
		{Type: token.Identifier, Lexeme: "init"},
		{Type: token.LeftParen, Lexeme: "("},
		{Type: token.Identifier, Lexeme: "name"},
		{Type: token.RightParen, Lexeme: ")"},
		{Type: token.LeftBrace, Lexeme: "{"},
		{Type: token.This, Lexeme: "this"},
		{Type: token.Dot, Lexeme: "."},
		{Type: token.Identifier, Lexeme: "name"},
		{Type: token.Equal, Lexeme: "="},
		{Type: token.Identifier, Lexeme: "name"},
		{Type: token.Semicolon, Lexeme: ";"},
		{Type: token.RightBrace, Lexeme: "}"},
		{Type: token.RightBrace, Lexeme: "}"},
		{Type: token.Var, Lexeme: "var"},
		{Type: token.Identifier, Lexeme: "g"},
		{Type: token.Equal, Lexeme: "="},
		{Type: token.Identifier, Lexeme: "Greeter"},
		{Type: token.LeftParen, Lexeme: "("},
		{Type: token.String, Lexeme: `"world"`},
		{Type: token.RightParen, Lexeme: ")"},
		{Type: token.Semicolon, Lexeme: ";"},
		{Type: token.Print, Lexeme: "print"},
		{Type: token.Identifier, Lexeme: "g"},
		{Type: token.Dot, Lexeme: "."},
		{Type: token.Identifier, Lexeme: "name"},
		{Type: token.EqualEqual, Lexeme: "=="},
		{Type: token.String, Lexeme: `"world"`},
		{Type: token.Semicolon, Lexeme: ";"},
		{Type: token.EOF},
	}

	l := New(input)
	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected.Type || (expected.Lexeme != "" && tok.Lexeme != expected.Lexeme) {
			t.Fatalf("token %d: expected %v %q, got %v %q", i, expected.Type, expected.Lexeme, tok.Type, tok.Lexeme)
		}
	}
}

func TestLexerStringRetainsQuotesInLexeme(t *testing.T) {
	l := New(`"hi"`)
	tok := l.NextToken()
	if tok.Type != token.String {
		t.Fatalf("expected string token, got %v", tok.Type)
	}
	if tok.Lexeme != `"hi"` {
		t.Fatalf("expected lexeme to retain quotes, got %q", tok.Lexeme)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New(`"unterminated`)
	tok := l.NextToken()
	if tok.Type != token.Error {
		t.Fatalf("expected error token, got %v", tok.Type)
	}
}

func TestLexerLineCounting(t *testing.T) {
	l := New("var a = 1;\nvar b = 2;\n")
	var last token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		last = tok
	}
	if last.Line != 2 {
		t.Fatalf("expected last real token on line 2, got line %d", last.Line)
	}
}
