package lexer

import (
	"testing"

	"github.com/pryzma-lang/pryzma/token"
)

func TestNextToken(t *testing.T) {
	input := `x = 5
y = x + 2.5
if x == 5 { print("yes") } else { print("no") }
xs = [1, 0b101, 0o17, 0xff]
while not (x >= 10) { x = x + 1 }
struct Point { x, y = 0 }
asm incr(x -> rax) -> (rax) mem 16 { inc rax }
geo.dist # a comment
s = "a\tb"
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.NEWLINE, ";"},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.FLOAT, "2.5"},
		{token.NEWLINE, ";"},
		{token.IF, "if"},
		{token.IDENT, "x"},
		{token.EQ, "=="},
		{token.INT, "5"},
		{token.LBRACE, "{"},
		{token.IDENT, "print"},
		{token.LPAREN, "("},
		{token.STRING, "yes"},
		{token.RPAREN, ")"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.IDENT, "print"},
		{token.LPAREN, "("},
		{token.STRING, "no"},
		{token.RPAREN, ")"},
		{token.RBRACE, "}"},
		{token.NEWLINE, ";"},
		{token.IDENT, "xs"},
		{token.ASSIGN, "="},
		{token.LBRACK, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "5"},
		{token.COMMA, ","},
		{token.INT, "15"},
		{token.COMMA, ","},
		{token.INT, "255"},
		{token.RBRACK, "]"},
		{token.NEWLINE, ";"},
		{token.WHILE, "while"},
		{token.NOT, "not"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.GT_EQ, ">="},
		{token.INT, "10"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.INT, "1"},
		{token.RBRACE, "}"},
		{token.NEWLINE, ";"},
		{token.STRUCT, "struct"},
		{token.IDENT, "Point"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.INT, "0"},
		{token.RBRACE, "}"},
		{token.NEWLINE, ";"},
		{token.ASM, "asm"},
		{token.IDENT, "incr"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.RIGHTARROW, "->"},
		{token.IDENT, "rax"},
		{token.RPAREN, ")"},
		{token.RIGHTARROW, "->"},
		{token.LPAREN, "("},
		{token.IDENT, "rax"},
		{token.RPAREN, ")"},
		{token.MEM, "mem"},
		{token.INT, "16"},
		{token.LBRACE, "{"},
		{token.IDENT, "inc"},
		{token.IDENT, "rax"},
		{token.RBRACE, "}"},
		{token.NEWLINE, ";"},
		{token.IDENT, "geo"},
		{token.DOT, "."},
		{token.IDENT, "dist"},
		{token.NEWLINE, ";"},
		{token.IDENT, "s"},
		{token.ASSIGN, "="},
		{token.STRING, "a\tb"},
		{token.NEWLINE, ";"},
		{token.EOF, "EOF"},
	}

	l := New("test", input)

	for i, tt := range tests {
		tok := l.NextNonCommentToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}

	if len(l.Ers) != 0 {
		t.Fatalf("lexer produced errors: %v", l.Ers[0].Message)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		input      string
		expectedId string
	}{
		{`s = "no closing quote`, "lex/quote"},
		{`s = "bad \q escape"`, "lex/escape"},
		{`x = 0b2`, "lex/number"},
		{`x = 1.2.3`, "lex/number"},
		{`x = ?`, "lex/char"},
	}

	for i, tt := range tests {
		_, ers := LexAll("test", tt.input)
		if len(ers) == 0 {
			t.Fatalf("tests[%d] - expected a lex error, got none", i)
		}
		if ers[0].ErrorId != tt.expectedId {
			t.Fatalf("tests[%d] - error id wrong. expected=%q, got=%q",
				i, tt.expectedId, ers[0].ErrorId)
		}
	}
}
