package parser

import (
	"strconv"

	"github.com/pryzma-lang/pryzma/ast"
	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/signature"
	"github.com/pryzma-lang/pryzma/token"
	"github.com/pryzma-lang/pryzma/tokenized_code_chunk"
)

const (
	LOWEST = iota
	OR_P
	AND_P
	EQUALS
	LESSGREATER
	SUM
	PRODUCT
	PREFIX
	CALL
)

var precedences = map[token.TokenType]int{
	token.OR:       OR_P,
	token.AND:      AND_P,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.LT_EQ:    LESSGREATER,
	token.GT_EQ:    LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.SLASH:    PRODUCT,
	token.ASTERISK: PRODUCT,
	token.PERCENT:  PRODUCT,
	token.LPAREN:   CALL,
	token.LBRACK:   CALL,
	token.DOT:      CALL,
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

type Parser struct {
	chunk *tokenized_code_chunk.TokenizedCodeChunk

	curToken  token.Token
	peekToken token.Token

	Errors object.Errors

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(chunk *tokenized_code_chunk.TokenizedCodeChunk) *Parser {
	p := &Parser{
		chunk:  chunk,
		Errors: []*object.Error{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NONE, p.parseNoneLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACK, p.parseListLiteral)
	p.registerPrefix(token.FUNC, p.parseFuncLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, ty := range []token.TokenType{token.PLUS, token.MINUS, token.SLASH,
		token.ASTERISK, token.PERCENT, token.EQ, token.NOT_EQ, token.LT,
		token.GT, token.LT_EQ, token.GT_EQ, token.AND, token.OR} {
		p.registerInfix(ty, p.parseInfixExpression)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACK, p.parseIndexExpression)
	p.registerInfix(token.DOT, p.parseFieldAccess)

	chunk.ToStart()
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.chunk.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.Throw("parse/expect", p.peekToken, string(t), p.peekToken.Literal)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func isStatementEnd(t token.TokenType) bool {
	return t == token.NEWLINE || t == token.SEMICOLON || t == token.EOF || t == token.RBRACE
}

func (p *Parser) skipSeparators() {
	for p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

// Newlines inside a bracketed context carry no meaning, so the element lists
// and blocks skip over them freely.
func (p *Parser) skipPeekSeparators() {
	for p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Node{}}
	p.skipSeparators()
	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
		p.skipSeparators()
	}
	return program
}

func (p *Parser) parseStatement() ast.Node {
	switch p.curToken.Type {
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.STRUCT:
		return p.parseStructDeclaration()
	case token.IMPORT:
		return p.parseImportStatement()
	case token.USE:
		return p.parseUseStatement()
	case token.DEL:
		return p.parseDelStatement()
	case token.ASM:
		return p.parseAsmDeclaration()
	case token.FUNC:
		if p.peekTokenIs(token.IDENT) {
			return p.parseFuncDeclaration()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() ast.Node {
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		assignTok := p.curToken
		p.nextToken()
		right := p.parseExpression(LOWEST)
		return &ast.AssignmentExpression{Token: assignTok, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) parseExpression(precedence int) ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.Throw("parse/prefix", p.curToken)
		return nil
	}
	leftExp := prefix()

	for !isStatementEnd(p.peekToken.Type) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}
	return leftExp
}

func (p *Parser) parseIdentifier() ast.Node {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Node {
	lit := &ast.IntegerLiteral{Token: p.curToken}
	value, err := strconv.ParseInt(p.curToken.Literal, 0, 64)
	if err != nil {
		p.Throw("parse/expect", p.curToken, "an integer", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Node {
	lit := &ast.FloatLiteral{Token: p.curToken}
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.Throw("parse/expect", p.curToken, "a float", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Node {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Node {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNoneLiteral() ast.Node {
	return &ast.NoneLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Node {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Literal}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	expr := &ast.InfixExpression{Token: p.curToken, Left: left, Operator: p.curToken.Literal}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

func (p *Parser) parseGroupedExpression() ast.Node {
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseListLiteral() ast.Node {
	lit := &ast.ListLiteral{Token: p.curToken}
	lit.Elements = p.parseExpressionList(token.RBRACK)
	return lit
}

func (p *Parser) parseFuncLiteral() ast.Node {
	lit := &ast.FuncLiteral{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	lit.Params = p.parseParamNames()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	lit.Body = p.parseBlockStatement()
	return lit
}

func (p *Parser) parseCallExpression(left ast.Node) ast.Node {
	expr := &ast.CallExpression{Token: p.curToken, Left: left}
	expr.Args = p.parseCallArgs()
	return expr
}

// Call arguments may be named, 'Point(3, y: 4)', which only means anything
// when the callee is a struct; the evaluator sorts that out.
func (p *Parser) parseCallArgs() []ast.Node {
	args := []ast.Node{}
	p.skipPeekSeparators()
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	args = append(args, p.parseCallArg())
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.skipPeekSeparators()
		p.nextToken()
		args = append(args, p.parseCallArg())
	}
	p.skipPeekSeparators()
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return args
}

func (p *Parser) parseCallArg() ast.Node {
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON) {
		arg := &ast.NamedArg{Token: p.curToken, Name: p.curToken.Literal}
		p.nextToken()
		p.nextToken()
		arg.Value = p.parseExpression(LOWEST)
		return arg
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseIndexExpression(left ast.Node) ast.Node {
	expr := &ast.IndexExpression{Token: p.curToken, Left: left}
	p.nextToken()
	expr.Index = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RBRACK) {
		return nil
	}
	return expr
}

func (p *Parser) parseFieldAccess(left ast.Node) ast.Node {
	expr := &ast.FieldAccessExpression{Token: p.curToken, Left: left}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expr.Field = p.curToken.Literal
	return expr
}

func (p *Parser) parseExpressionList(end token.TokenType) []ast.Node {
	list := []ast.Node{}
	p.skipPeekSeparators()
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.skipPeekSeparators()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}
	p.skipPeekSeparators()
	if !p.expectPeek(end) {
		return nil
	}
	return list
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken, Statements: []ast.Node{}}
	p.nextToken()
	p.skipSeparators()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
		p.skipSeparators()
	}
	if !p.curTokenIs(token.RBRACE) {
		p.Throw("parse/expect", p.curToken, "}", p.curToken.Literal)
	}
	return block
}

func (p *Parser) parseIfStatement() ast.Node {
	stmt := &ast.IfStatement{Token: p.curToken}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Consequence = p.parseBlockStatement()
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			stmt.Alternative = p.parseIfStatement()
			return stmt
		}
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.Alternative = p.parseBlockStatement()
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Node {
	stmt := &ast.WhileStatement{Token: p.curToken}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	return stmt
}

func (p *Parser) parseForStatement() ast.Node {
	stmt := &ast.ForStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Var = p.curToken.Literal
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.From = p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	stmt.To = p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Node {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if isStatementEnd(p.peekToken.Type) {
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	return stmt
}

func (p *Parser) parseFuncDeclaration() ast.Node {
	stmt := &ast.FuncDeclaration{Token: p.curToken}
	p.nextToken()
	stmt.Name = p.curToken.Literal
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	stmt.Params = p.parseParamNames()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	return stmt
}

func (p *Parser) parseParamNames() []string {
	params := []string{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	params = append(params, p.curToken.Literal)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		params = append(params, p.curToken.Literal)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

func (p *Parser) parseStructDeclaration() ast.Node {
	stmt := &ast.StructDeclaration{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	sig := signature.Signature{}
	defaults := []ast.Node{}
	p.skipPeekSeparators()
	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		fieldName := p.curToken.Literal
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			defaultExpr := p.parseExpression(LOWEST)
			sig = append(sig, signature.Field{VarName: fieldName, Optional: true})
			defaults = append(defaults, defaultExpr)
		} else {
			sig = append(sig, signature.Field{VarName: fieldName, Optional: false})
			defaults = append(defaults, nil)
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
		p.skipPeekSeparators()
	}
	p.nextToken()
	stmt.Sig = sig
	stmt.Defaults = defaults
	return stmt
}

func (p *Parser) parseImportStatement() ast.Node {
	stmt := &ast.ImportStatement{Token: p.curToken}
	if !p.expectPeek(token.STRING) {
		return nil
	}
	stmt.Path = p.curToken.Literal
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Alias = p.curToken.Literal
	}
	return stmt
}

func (p *Parser) parseUseStatement() ast.Node {
	stmt := &ast.UseStatement{Token: p.curToken}
	if !p.expectPeek(token.STRING) {
		return nil
	}
	stmt.Path = p.curToken.Literal
	return stmt
}

func (p *Parser) parseDelStatement() ast.Node {
	stmt := &ast.DelStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal
	return stmt
}

// The asm header is parsed like any other declaration; the body is carried
// off as raw tokens, brace-balanced, for the emulator to decode.
func (p *Parser) parseAsmDeclaration() ast.Node {
	stmt := &ast.AsmDeclaration{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	if !p.peekTokenIs(token.RPAREN) {
		for {
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			stmt.Params = append(stmt.Params, p.curToken.Literal)
			if !p.peekTokenIs(token.RIGHTARROW) {
				p.Throw("parse/asm/arrow", p.peekToken, p.peekToken.Literal)
				return nil
			}
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			stmt.EntryRegs = append(stmt.EntryRegs, p.curToken.Literal)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if p.peekTokenIs(token.RIGHTARROW) {
		p.nextToken()
		if !p.expectPeek(token.LPAREN) {
			return nil
		}
		if !p.peekTokenIs(token.RPAREN) {
			for {
				if !p.expectPeek(token.IDENT) {
					return nil
				}
				stmt.ExitRegs = append(stmt.ExitRegs, p.curToken.Literal)
				if !p.peekTokenIs(token.COMMA) {
					break
				}
				p.nextToken()
			}
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
	}
	if p.peekTokenIs(token.MEM) {
		p.nextToken()
		if !p.peekTokenIs(token.INT) {
			p.Throw("parse/asm/mem", p.peekToken, p.peekToken.Literal)
			return nil
		}
		p.nextToken()
		size, err := strconv.ParseInt(p.curToken.Literal, 0, 64)
		if err != nil {
			p.Throw("parse/asm/mem", p.curToken, p.curToken.Literal)
			return nil
		}
		stmt.MemSize = size
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.readRawBody()
	return stmt
}

func (p *Parser) readRawBody() []token.Token {
	body := []token.Token{}
	depth := 1
	for {
		p.nextToken()
		switch p.curToken.Type {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
			if depth == 0 {
				return body
			}
		case token.EOF:
			p.Throw("parse/expect", p.curToken, "}", "EOF")
			return body
		}
		body = append(body, p.curToken)
	}
}

func (p *Parser) Throw(errorID string, tok token.Token, args ...any) {
	p.Errors = object.Throw(errorID, p.Errors, tok, args...)
}

func (p *Parser) ErrorsExist() bool {
	return len(p.Errors) > 0
}
