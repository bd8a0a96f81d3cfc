// Package tokenized_code_chunk holds a replayable sequence of tokens: the
// unit the macro engine rewrites and the parser then consumes. The code is a
// persistent vector, so taking a snapshot before a rewrite is free and a
// chunk can be replayed from the start any number of times.
package tokenized_code_chunk

import (
	"fmt"

	"src.elv.sh/pkg/persistent/vector"

	"github.com/pryzma-lang/pryzma/token"
)

type TokenizedCodeChunk struct {
	position int
	code     vector.Vector
	source   string
}

func New(source string) *TokenizedCodeChunk {
	tcc := &TokenizedCodeChunk{
		position: -1,
		code:     vector.Empty,
		source:   source,
	}
	return tcc
}

func FromTokens(source string, toks []token.Token) *TokenizedCodeChunk {
	tcc := New(source)
	for _, tok := range toks {
		tcc.Append(tok)
	}
	return tcc
}

func (tcc *TokenizedCodeChunk) Append(tokenToAppend token.Token) {
	tcc.code = tcc.code.Conj(tokenToAppend)
}

func (tcc *TokenizedCodeChunk) Change(newToken token.Token) {
	tcc.code = tcc.code.Assoc(tcc.position, newToken)
}

func (tcc *TokenizedCodeChunk) Length() int {
	return tcc.code.Len()
}

func (tcc *TokenizedCodeChunk) Source() string {
	return tcc.source
}

func (tcc *TokenizedCodeChunk) At(i int) token.Token {
	tok, _ := tcc.code.Index(i)
	return tok.(token.Token)
}

func (tcc *TokenizedCodeChunk) NextToken() token.Token {
	if tcc.position+1 < tcc.code.Len() {
		tcc.position++
		return tcc.At(tcc.position)
	}
	if tcc.code.Len() == 0 {
		return token.Token{Type: token.EOF, Literal: "EOF", Source: tcc.source}
	}
	last := tcc.At(tcc.code.Len() - 1)
	return token.Token{Type: token.EOF, Literal: "EOF",
		Line: last.Line, ChStart: last.ChStart,
		ChEnd: last.ChEnd, Source: last.Source}
}

func (tcc *TokenizedCodeChunk) ToStart() {
	tcc.position = -1
}

// Snapshot is a copy of the chunk rewound to the start. The persistent
// vector is shared, so this costs nothing however long the chunk is.
func (tcc *TokenizedCodeChunk) Snapshot() *TokenizedCodeChunk {
	return &TokenizedCodeChunk{position: -1, code: tcc.code, source: tcc.source}
}

func (tcc *TokenizedCodeChunk) String() string {
	output := ""
	tcc.ToStart()
	for j := 0; j < tcc.Length(); j++ {
		output = output + fmt.Sprintf("%v\n", tcc.NextToken())
	}
	return output + "\n"
}
