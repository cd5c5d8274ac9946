package formula

import (
	"strconv"
	"strings"
)

// maxDepth bounds expression nesting so hostile input cannot exhaust the stack.
const maxDepth = 256

// Parser is a recursive-descent parser over the formula grammar.
type Parser struct {
	tokens []Token
	pos    int
	depth  int
}

// Parse parses a formula into an expression tree.
// Empty or whitespace-only input is a syntax error.
func Parse(input string) (Node, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	if p.peek().Type == TokenEOF {
		return nil, newError(KindSyntax, 0, "empty formula")
	}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, newError(KindSyntax, tok.Pos, "unexpected %s after expression", describe(tok))
	}
	return node, nil
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) match(types ...TokenType) (Token, bool) {
	tok := p.peek()
	for _, t := range types {
		if tok.Type == t {
			p.advance()
			return tok, true
		}
	}
	return tok, false
}

func (p *Parser) expect(t TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, newError(KindSyntax, tok.Pos, "expected %s, found %s", t, describe(tok))
	}
	return p.advance(), nil
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return newError(KindSyntax, p.peek().Pos, "expression nested too deeply")
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }

func (p *Parser) parseExpr() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseConditional()
}

func (p *Parser) parseConditional() (Node, error) {
	cond, err := p.parseNullish()
	if err != nil {
		return nil, err
	}
	q, ok := p.match(TokenQuestion)
	if !ok {
		return cond, nil
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	els, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &Conditional{Cond: cond, Then: then, Else: els, At: q.Pos}, nil
}

// binaryLevel parses a left-associative chain of operators at one precedence level.
func (p *Parser) binaryLevel(next func() (Node, error), ops ...TokenType) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.match(ops...)
		if !ok {
			return left, nil
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op.Type, Left: left, Right: right, At: op.Pos}
	}
}

func (p *Parser) parseNullish() (Node, error) {
	return p.binaryLevel(p.parseOr, TokenNullish)
}

func (p *Parser) parseOr() (Node, error) {
	return p.binaryLevel(p.parseAnd, TokenOr)
}

func (p *Parser) parseAnd() (Node, error) {
	return p.binaryLevel(p.parseEquality, TokenAnd)
}

func (p *Parser) parseEquality() (Node, error) {
	return p.binaryLevel(p.parseRelational, TokenEq, TokenNe, TokenStrictEq, TokenStrictNe)
}

func (p *Parser) parseRelational() (Node, error) {
	return p.binaryLevel(p.parseAdditive, TokenLt, TokenLe, TokenGt, TokenGe)
}

func (p *Parser) parseAdditive() (Node, error) {
	return p.binaryLevel(p.parseMultiplicative, TokenPlus, TokenMinus)
}

func (p *Parser) parseMultiplicative() (Node, error) {
	return p.binaryLevel(p.parseUnary, TokenStar, TokenSlash, TokenPercent)
}

func (p *Parser) parseUnary() (Node, error) {
	op, ok := p.match(TokenNot, TokenMinus, TokenPlus)
	if !ok {
		return p.parsePostfix()
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: op.Type, Operand: operand, At: op.Pos}, nil
}

func (p *Parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenDot:
			p.advance()
			name, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			node = &Member{Object: node, Name: name.Literal, At: tok.Pos}

		case TokenLBracket:
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRBracket); err != nil {
				return nil, err
			}
			node = &Member{Object: node, Index: index, Computed: true, At: tok.Pos}

		case TokenLParen:
			p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			node = &Call{Callee: node, Args: args, At: tok.Pos}

		default:
			return node, nil
		}
	}
}

func (p *Parser) parseArgs() ([]Node, error) {
	var args []Node
	if _, ok := p.match(TokenRParen); ok {
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if _, ok := p.match(TokenComma); ok {
			continue
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.advance()
	switch tok.Type {
	case TokenNumber:
		n, err := parseNumberLiteral(tok.Literal)
		if err != nil {
			return nil, newError(KindSyntax, tok.Pos, "invalid number %q", tok.Literal)
		}
		return &Literal{Value: n, At: tok.Pos}, nil

	case TokenString:
		return &Literal{Value: tok.Literal, At: tok.Pos}, nil

	case TokenIdent:
		switch tok.Literal {
		case "true":
			return &Literal{Value: true, At: tok.Pos}, nil
		case "false":
			return &Literal{Value: false, At: tok.Pos}, nil
		case "null":
			return &Literal{Value: nil, At: tok.Pos}, nil
		case "undefined":
			return &Literal{Value: Undefined, At: tok.Pos}, nil
		}
		return &Ident{Name: tok.Literal, At: tok.Pos}, nil

	case TokenLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, newError(KindSyntax, tok.Pos, "unexpected %s", describe(tok))
}

func parseNumberLiteral(lit string) (float64, error) {
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		n, err := strconv.ParseUint(lit[2:], 16, 64)
		return float64(n), err
	}
	return strconv.ParseFloat(lit, 64)
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenIdent, TokenNumber:
		return strconv.Quote(tok.Literal)
	case TokenString:
		return "string literal"
	}
	return "'" + tok.Type.String() + "'"
}
