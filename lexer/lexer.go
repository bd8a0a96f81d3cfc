package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/token"
)

type Lexer struct {
	reader strings.Reader
	input  string
	ch     rune // current rune under examination
	line   int  // the line number
	char   int  // the character number
	tstart int  // the value of char at the start of a token
	Ers    object.Errors
	source string
}

func New(source, input string) *Lexer {
	r := *strings.NewReader(input)
	l := &Lexer{reader: r,
		input:  input,
		line:   1,
		char:   -1,
		Ers:    []*object.Error{},
		source: source,
	}
	l.readChar()
	return l
}

func LexDump(input string) {
	fmt.Print("\nLexer output: \n\n")
	l := New("", input)
	for tok := l.NextToken(); tok.Type != token.EOF; tok = l.NextToken() {
		fmt.Println(tok)
	}
	fmt.Println()
}

func (l *Lexer) NextNonCommentToken() token.Token {
	for tok := l.NextToken(); ; tok = l.NextToken() {
		if tok.Type != token.COMMENT {
			return tok
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipWhitespace()

	l.tstart = l.char

	switch l.ch {
	case '\n':
		tok = l.NewToken(token.NEWLINE, ";")
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.NewToken(token.EQ, "==")
		} else {
			tok = l.NewToken(token.ASSIGN, "=")
		}
	case ';':
		tok = l.NewToken(token.SEMICOLON, ";")
	case ':':
		tok = l.NewToken(token.COLON, ":")
	case ',':
		tok = l.NewToken(token.COMMA, ",")
	case '.':
		tok = l.NewToken(token.DOT, ".")
	case '{':
		tok = l.NewToken(token.LBRACE, "{")
	case '}':
		tok = l.NewToken(token.RBRACE, "}")
	case '[':
		tok = l.NewToken(token.LBRACK, "[")
	case ']':
		tok = l.NewToken(token.RBRACK, "]")
	case '(':
		tok = l.NewToken(token.LPAREN, "(")
	case ')':
		tok = l.NewToken(token.RPAREN, ")")
	case '+':
		tok = l.NewToken(token.PLUS, "+")
	case '*':
		tok = l.NewToken(token.ASTERISK, "*")
	case '/':
		tok = l.NewToken(token.SLASH, "/")
	case '%':
		tok = l.NewToken(token.PERCENT, "%")
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.NewToken(token.LT_EQ, "<=")
		} else {
			tok = l.NewToken(token.LT, "<")
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.NewToken(token.GT_EQ, ">=")
		} else {
			tok = l.NewToken(token.GT, ">")
		}
	case '#':
		tok = l.NewToken(token.COMMENT, l.readComment())
		l.readChar()
		return tok
	case '"':
		tok = l.NewToken(token.STRING, "")
		s, ok := l.readFormattedString()
		tok.Literal = s
		if !ok {
			l.Throw("lex/quote", tok)
		}
	case 0:
		tok = l.NewToken(token.EOF, "EOF")
	default:
		if l.ch == '-' && l.peekChar() == '>' {
			l.readChar()
			tok = l.NewToken(token.RIGHTARROW, "->")
			l.readChar()
			return tok
		}
		if l.ch == '-' {
			tok = l.NewToken(token.MINUS, "-")
			break
		}
		if l.ch == '!' && l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			tok = l.NewToken(token.NOT_EQ, "!=")
			return tok
		}
		if l.ch == '0' {
			switch l.peekChar() {
			case 'b':
				numString := l.readPrefixedNumber(isBinaryDigit)
				if num, err := strconv.ParseInt(numString, 2, 64); err == nil {
					return l.NewToken(token.INT, strconv.FormatInt(num, 10))
				}
				l.Throw("lex/number", tok, "0b"+numString)
				return l.NewToken(token.ILLEGAL, "lex/number")
			case 'o':
				numString := l.readPrefixedNumber(isOctalDigit)
				if num, err := strconv.ParseInt(numString, 8, 64); err == nil {
					return l.NewToken(token.INT, strconv.FormatInt(num, 10))
				}
				l.Throw("lex/number", tok, "0o"+numString)
				return l.NewToken(token.ILLEGAL, "lex/number")
			case 'x':
				numString := l.readPrefixedNumber(isHexDigit)
				if num, err := strconv.ParseInt(numString, 16, 64); err == nil {
					return l.NewToken(token.INT, strconv.FormatInt(num, 10))
				}
				l.Throw("lex/number", tok, "0x"+numString)
				return l.NewToken(token.ILLEGAL, "lex/number")
			}
		}
		if isLegalStart(l.ch) {
			tok.Literal = l.readIdentifier()
			tok = l.NewToken(token.LookupIdent(tok.Literal), tok.Literal)
			return tok
		} else if isDigit(l.ch) {
			numString := l.readNumber()
			if _, err := strconv.ParseInt(numString, 0, 64); err == nil {
				return l.NewToken(token.INT, numString)
			}
			if _, err := strconv.ParseFloat(numString, 64); err == nil {
				return l.NewToken(token.FLOAT, numString)
			}
			l.Throw("lex/number", tok, numString)
			return l.NewToken(token.ILLEGAL, "lex/number")
		} else {
			l.Throw("lex/char", tok, string(l.ch))
			tok = l.NewToken(token.ILLEGAL, "lex/char")
		}
	}
	tok.Line = l.line
	tok.ChStart = l.tstart
	tok.ChEnd = l.char
	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readChar() {
	l.char++
	if l.ch == '\n' {
		l.line++
		l.char = 0
		l.tstart = 0
	}
	if l.reader.Len() == 0 {
		l.ch = 0
	} else {
		l.ch, _, _ = l.reader.ReadRune()
	}
}

func (l *Lexer) peekChar() rune {
	if l.reader.Len() == 0 {
		return 0
	}
	ru, _, _ := l.reader.ReadRune()
	l.reader.UnreadRune()
	return ru
}

func (l *Lexer) readNumber() string {
	result := ""
	for isDigit(l.ch) || l.ch == '.' {
		result = result + string(l.ch)
		l.readChar()
	}
	return result
}

func (l *Lexer) readPrefixedNumber(isLegalDigit func(rune) bool) string {
	result := ""
	l.readChar()
	l.readChar()
	for isLegalDigit(l.ch) {
		result = result + string(l.ch)
		l.readChar()
	}
	return result
}

func (l *Lexer) readComment() string {
	result := ""
	for !(l.peekChar() == '\n' || l.peekChar() == 0) {
		result = result + string(l.peekChar())
		l.readChar()
	}
	return result
}

func (l *Lexer) readFormattedString() (string, bool) {
	result := ""
	for {
		l.readChar()
		if l.ch == 0 || l.ch == 13 || l.ch == 10 {
			return result, false
		}
		if l.ch == '"' {
			return result, true
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result = result + "\n"
			case 'r':
				result = result + "\r"
			case 't':
				result = result + "\t"
			case '"':
				result = result + "\""
			case '\'':
				result = result + "'"
			case '\\':
				result = result + "\\"
			default:
				l.Throw("lex/escape", l.NewToken(token.ILLEGAL, "lex/escape"), string(l.ch))
				return result, false
			}
			continue
		}
		result = result + string(l.ch)
	}
}

func (l *Lexer) readIdentifier() string {
	result := ""
	for isLegalNonStart(l.ch) {
		result = result + string(l.ch)
		l.readChar()
	}
	return result
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isLegalStart(ch rune) bool {
	return isLetter(ch) || ch == '_' || ch == '$'
}

func isLegalNonStart(ch rune) bool {
	return isLegalStart(ch) || isDigit(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isBinaryDigit(ch rune) bool {
	return ch == '0' || ch == '1'
}

func isOctalDigit(ch rune) bool {
	return '0' <= ch && ch <= '7'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

func (l *Lexer) NewToken(tokenType token.TokenType, st string) token.Token {
	return token.Token{Type: tokenType, Literal: st, Line: l.line, ChStart: l.tstart, ChEnd: l.char, Source: l.source}
}

func (l *Lexer) Throw(errorID string, tok token.Token, args ...any) {
	l.Ers = object.Throw(errorID, l.Ers, tok, args...)
}

// LexAll runs the lexer to exhaustion, dropping comments, which is what the
// macro engine and the parser both want.
func LexAll(source, input string) ([]token.Token, object.Errors) {
	l := New(source, input)
	toks := []token.Token{}
	for tok := l.NextNonCommentToken(); tok.Type != token.EOF; tok = l.NextNonCommentToken() {
		toks = append(toks, tok)
	}
	return toks, l.Ers
}
