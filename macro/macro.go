// Package macro is the preprocessor: it owns the 'keyword' and 'delkeyword'
// directives and rewrites the token stream before the parser ever sees it.
// The parser therefore has no cases for user-defined keywords at all.
package macro

import (
	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/token"
	"github.com/pryzma-lang/pryzma/tokenized_code_chunk"
)

const DefaultDepthLimit = 100

// The body is kept as a chunk so each expansion can take a free snapshot of
// it and restamp the copy without disturbing the registered definition.
type Def struct {
	Name   string
	Params []string
	Body   *tokenized_code_chunk.TokenizedCodeChunk
}

// A Table holds the keywords registered so far. One Table belongs to one
// service: two services never see each other's keywords.
type Table struct {
	defs       map[string]*Def
	DepthLimit int
}

func NewTable(depthLimit int) *Table {
	if depthLimit <= 0 {
		depthLimit = DefaultDepthLimit
	}
	return &Table{defs: make(map[string]*Def), DepthLimit: depthLimit}
}

func (t *Table) Register(def *Def) {
	t.defs[def.Name] = def
}

func (t *Table) Unregister(name string) bool {
	if _, ok := t.defs[name]; !ok {
		return false
	}
	delete(t.defs, name)
	return true
}

func (t *Table) Exists(name string) bool {
	_, ok := t.defs[name]
	return ok
}

type expander struct {
	table *Table
	ers   object.Errors
}

// Expand rewrites a token stream against the table. Definitions are consumed
// as they are met, so a keyword governs only the tokens after it; uses are
// replaced left to right, and each replacement is re-scanned in full before
// the scan moves on, which makes nested keywords expand outside-in. Asm
// bodies pass through untouched.
func Expand(toks []token.Token, table *Table) ([]token.Token, object.Errors) {
	e := &expander{table: table, ers: []*object.Error{}}
	out := e.scan(toks, 0, true)
	return out, e.ers
}

func (e *expander) scan(toks []token.Token, depth int, directives bool) []token.Token {
	out := []token.Token{}
	i := 0
	for i < len(toks) {
		tok := toks[i]
		switch {
		case directives && tok.Type == token.KEYWORD:
			i = e.readDefinition(toks, i)
		case directives && tok.Type == token.DELKEYWORD:
			i = e.readDeletion(toks, i)
		case tok.Type == token.ASM:
			i = e.copyAsmBlock(toks, i, &out)
		case tok.Type == token.IDENT && e.table.Exists(tok.Literal):
			def := e.table.defs[tok.Literal]
			args, next, ok := e.captureArgs(toks, i, def)
			if !ok {
				return out
			}
			if depth+1 > e.table.DepthLimit {
				e.throw("macro/depth", tok, e.table.DepthLimit)
				return out
			}
			replacement := substitute(def, args, tok)
			// Re-scan the replacement before carrying on, without
			// letting it smuggle in new definitions.
			out = append(out, e.scan(replacement, depth+1, false)...)
			if len(e.ers) > 0 {
				return out
			}
			i = next
		default:
			out = append(out, tok)
			i++
		}
	}
	return out
}

// readDefinition consumes 'keyword name(params) { body }' and registers it,
// emitting nothing.
func (e *expander) readDefinition(toks []token.Token, i int) int {
	kwTok := toks[i]
	i++
	if i >= len(toks) || toks[i].Type != token.IDENT {
		e.throw("parse/expect", at(toks, i, kwTok), "a keyword name", litAt(toks, i))
		return len(toks)
	}
	def := &Def{Name: toks[i].Literal, Body: tokenized_code_chunk.New(kwTok.Source)}
	i++
	if i >= len(toks) || toks[i].Type != token.LPAREN {
		e.throw("parse/expect", at(toks, i, kwTok), "(", litAt(toks, i))
		return len(toks)
	}
	i++
	for i < len(toks) && toks[i].Type != token.RPAREN {
		if toks[i].Type == token.IDENT {
			def.Params = append(def.Params, toks[i].Literal)
			i++
			if i < len(toks) && toks[i].Type == token.COMMA {
				i++
			}
			continue
		}
		e.throw("parse/expect", toks[i], "a parameter name", toks[i].Literal)
		return len(toks)
	}
	if i >= len(toks) {
		e.throw("macro/paren", kwTok)
		return len(toks)
	}
	i++ // past the )
	if i >= len(toks) || toks[i].Type != token.LBRACE {
		e.throw("parse/expect", at(toks, i, kwTok), "{", litAt(toks, i))
		return len(toks)
	}
	i++
	depth := 1
	for i < len(toks) {
		switch toks[i].Type {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
			if depth == 0 {
				e.table.Register(def)
				return i + 1
			}
		}
		def.Body.Append(toks[i])
		i++
	}
	e.throw("parse/expect", kwTok, "}", "EOF")
	return len(toks)
}

func (e *expander) readDeletion(toks []token.Token, i int) int {
	delTok := toks[i]
	i++
	if i >= len(toks) || toks[i].Type != token.IDENT {
		e.throw("parse/expect", at(toks, i, delTok), "a keyword name", litAt(toks, i))
		return len(toks)
	}
	if !e.table.Unregister(toks[i].Literal) {
		e.throw("macro/delkeyword/found", toks[i], toks[i].Literal)
	}
	return i + 1
}

// copyAsmBlock passes an asm declaration through verbatim: register names
// and mnemonics must not be mistaken for keyword uses.
func (e *expander) copyAsmBlock(toks []token.Token, i int, out *[]token.Token) int {
	for i < len(toks) && toks[i].Type != token.LBRACE {
		*out = append(*out, toks[i])
		i++
	}
	depth := 0
	for i < len(toks) {
		switch toks[i].Type {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		}
		*out = append(*out, toks[i])
		i++
		if depth == 0 {
			break
		}
	}
	return i
}

// captureArgs reads '(arg, arg, ...)' after a keyword use, splitting on
// top-level commas only. A bare use of a nullary keyword needs no parens.
func (e *expander) captureArgs(toks []token.Token, i int, def *Def) ([][]token.Token, int, bool) {
	useTok := toks[i]
	i++
	if i >= len(toks) || toks[i].Type != token.LPAREN {
		if len(def.Params) == 0 {
			return nil, i, true
		}
		e.throw("macro/args", useTok, def.Name, len(def.Params), 0)
		return nil, i, false
	}
	i++
	args := [][]token.Token{}
	current := []token.Token{}
	depth := 1
	for {
		if i >= len(toks) {
			e.throw("macro/paren", useTok)
			return nil, i, false
		}
		tok := toks[i]
		switch tok.Type {
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RBRACK, token.RBRACE:
			depth--
		case token.RPAREN:
			depth--
			if depth == 0 {
				if len(current) > 0 || len(args) > 0 {
					args = append(args, current)
				}
				i++
				if len(args) != len(def.Params) {
					e.throw("macro/args", useTok, def.Name, len(def.Params), len(args))
					return nil, i, false
				}
				return args, i, true
			}
		case token.COMMA:
			if depth == 1 {
				args = append(args, current)
				current = []token.Token{}
				i++
				continue
			}
		}
		current = append(current, tok)
		i++
	}
}

// substitute splats a keyword body at its use site. The body tokens are
// restamped on a snapshot with the position of the use, so an error arising
// inside an expansion points at the place the keyword was used rather than
// at its definition. Argument tokens keep their own positions.
func substitute(def *Def, args [][]token.Token, useTok token.Token) []token.Token {
	body := def.Body.Snapshot()
	for tok := body.NextToken(); tok.Type != token.EOF; tok = body.NextToken() {
		tok.Line = useTok.Line
		tok.ChStart = useTok.ChStart
		tok.ChEnd = useTok.ChEnd
		tok.Source = useTok.Source
		body.Change(tok)
	}
	out := []token.Token{}
	for j := 0; j < body.Length(); j++ {
		tok := body.At(j)
		if tok.Type == token.IDENT {
			if pos := paramIndex(def.Params, tok.Literal); pos >= 0 {
				out = append(out, args[pos]...)
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

func paramIndex(params []string, name string) int {
	for i, p := range params {
		if p == name {
			return i
		}
	}
	return -1
}

func (e *expander) throw(errorID string, tok token.Token, args ...any) {
	e.ers = object.Throw(errorID, e.ers, tok, args...)
}

func at(toks []token.Token, i int, fallback token.Token) token.Token {
	if i < len(toks) {
		return toks[i]
	}
	return fallback
}

func litAt(toks []token.Token, i int) string {
	if i < len(toks) {
		return toks[i].Literal
	}
	return "EOF"
}
