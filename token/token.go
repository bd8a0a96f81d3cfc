package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT" // x, dist, rax, ...
	INT    = "int"   // 1343456
	FLOAT  = "float" // 1.23
	STRING = "string"

	COMMENT = "COMMENT" // # foo bar zort troz

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"

	EQ     = "=="
	NOT_EQ = "!="
	LT     = "<"
	GT     = ">"
	LT_EQ  = "<="
	GT_EQ  = ">="

	AND = "and"
	OR  = "or"
	NOT = "not"

	COMMA      = ","
	COLON      = ":"
	DOT        = "."
	NEWLINE    = "\n"
	SEMICOLON  = ";"
	RIGHTARROW = "->"

	LPAREN = "("
	RPAREN = ")"
	LBRACE = "{"
	RBRACE = "}"
	LBRACK = "["
	RBRACK = "]"

	// Keywords
	TRUE   = "true"
	FALSE  = "false"
	NONE   = "none"
	IF     = "if"
	ELSE   = "else"
	WHILE  = "while"
	FOR    = "for"
	RETURN = "return"
	FUNC   = "func"
	STRUCT = "struct"
	IMPORT = "import"
	USE    = "use"
	AS     = "as"
	DEL    = "del"

	// Directive markers. The lexer emits these as distinct kinds so that
	// the preprocessor and parser can delimit their regions without
	// understanding their interior grammar.
	KEYWORD    = "keyword"
	DELKEYWORD = "delkeyword"
	ASM        = "asm"
	MEM        = "mem"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	ChStart int
	ChEnd   int
	Source  string
}

var keywords = map[string]TokenType{
	"true":   TRUE,
	"false":  FALSE,
	"none":   NONE,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"for":    FOR,
	"return": RETURN,
	"func":   FUNC,
	"struct": STRUCT,

	"import": IMPORT,
	"use":    USE,
	"as":     AS,
	"del":    DEL,

	"and": AND,
	"or":  OR,
	"not": NOT,

	"keyword":    KEYWORD,
	"delkeyword": DELKEYWORD,
	"asm":        ASM,
	"mem":        MEM,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// TokenTypeIsDirective picks out the markers that introduce a region the
// preprocessor owns: macro definitions, macro deletions, and assembly blocks.
func TokenTypeIsDirective(t TokenType) bool {
	return t == KEYWORD || t == DELKEYWORD || t == ASM
}
