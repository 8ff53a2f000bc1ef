package syntax

import (
	"fmt"

	"github.com/viant/parsly"

	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/diag"
)

// typeParser parses type expressions. at is the position of the first input
// byte; node spans are offset from it on the same line.
type typeParser struct {
	cursor *parsly.Cursor
	text   string
	at     diag.Span
}

func newTypeParser(text string, at diag.Span) *typeParser {
	return &typeParser{cursor: parsly.NewCursor("", []byte(text), 0), text: text, at: at}
}

func (p *typeParser) span(offset int) diag.Span {
	if p.at.IsZero() {
		return diag.Span{}
	}
	return diag.Span{Line: p.at.Line, Column: p.at.Column + offset}
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("syntax: type %q: %s", p.text, fmt.Sprintf(format, args...))
}

// ParseType parses a type expression such as "List<Int>", "Geometry.Point",
// "(Int, Bool)" or "(Int) -> Bool".
func ParseType(text string, at diag.Span) (ast.Type, error) {
	p := newTypeParser(text, at)
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !atEnd(p.cursor) {
		return nil, p.errorf("%v", p.cursor.NewError(commaMatcher))
	}
	return t, nil
}

func (p *typeParser) parseType() (ast.Type, error) {
	c := p.cursor
	c.MatchOne(whitespaceMatcher)
	start := c.Pos
	if c.MatchOne(openParenMatcher).Code == openParenToken {
		types, err := p.parseList(closeParenMatcher, closeParenToken)
		if err != nil {
			return nil, err
		}
		if c.MatchAfterOptional(whitespaceMatcher, arrowMatcher).Code == arrowToken {
			ret, err := p.parseType()
			if err != nil {
				return nil, err
			}
			return &ast.FunctionType{Parameters: types, Return: ret, Span: p.span(start)}, nil
		}
		return &ast.TupleType{Types: types, Span: p.span(start)}, nil
	}

	t := &ast.UserType{Span: p.span(start)}
	for {
		name, err := expectWord(c)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		if !IsIdentifier(name) {
			return nil, p.errorf("%q is not an identifier", name)
		}
		t.Path = append(t.Path, name)
		if c.MatchOne(dotMatcher).Code != dotToken {
			break
		}
	}
	if c.MatchAfterOptional(whitespaceMatcher, openAngleMatcher).Code == openAngleToken {
		args, err := p.parseList(closeAngleMatcher, closeAngleToken)
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, p.errorf("empty type argument list")
		}
		t.Arguments = args
	}
	return t, nil
}

// parseList parses comma-separated types up to and including the closing
// token.
func (p *typeParser) parseList(closing *parsly.Token, code int) ([]ast.Type, error) {
	c := p.cursor
	var types []ast.Type
	if c.MatchAfterOptional(whitespaceMatcher, closing).Code == code {
		return types, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		types = append(types, t)
		matched := c.MatchAfterOptional(whitespaceMatcher, commaMatcher, closing)
		switch matched.Code {
		case commaToken:
			continue
		case code:
			return types, nil
		default:
			return nil, p.errorf("%v", c.NewError(commaMatcher, closing))
		}
	}
}

// ParseTypeParameter parses "T" or "T: Bound".
func ParseTypeParameter(text string, at diag.Span) (ast.TypeParameter, error) {
	p := newTypeParser(text, at)
	c := p.cursor
	c.MatchOne(whitespaceMatcher)
	start := c.Pos
	name, err := expectWord(c)
	if err != nil || !IsIdentifier(name) {
		return ast.TypeParameter{}, fmt.Errorf("syntax: type parameter %q: expected a name", text)
	}
	param := ast.TypeParameter{Name: name, Span: p.span(start)}
	if c.MatchAfterOptional(whitespaceMatcher, colonMatcher).Code == colonToken {
		if param.UpperBound, err = p.parseType(); err != nil {
			return ast.TypeParameter{}, err
		}
	}
	if !atEnd(c) {
		return ast.TypeParameter{}, fmt.Errorf("syntax: type parameter %q: %w", text, c.NewError(colonMatcher))
	}
	return param, nil
}

// ParseValueParameter parses "name: Type".
func ParseValueParameter(text string, at diag.Span) (ast.ValueParameter, error) {
	p := newTypeParser(text, at)
	c := p.cursor
	c.MatchOne(whitespaceMatcher)
	start := c.Pos
	name, err := expectWord(c)
	if err != nil || !IsIdentifier(name) {
		return ast.ValueParameter{}, fmt.Errorf("syntax: parameter %q: expected a name", text)
	}
	if c.MatchAfterOptional(whitespaceMatcher, colonMatcher).Code != colonToken {
		return ast.ValueParameter{}, fmt.Errorf("syntax: parameter %q: %w", text, c.NewError(colonMatcher))
	}
	t, err := p.parseType()
	if err != nil {
		return ast.ValueParameter{}, err
	}
	if !atEnd(c) {
		return ast.ValueParameter{}, fmt.Errorf("syntax: parameter %q: trailing input", text)
	}
	return ast.ValueParameter{Name: name, Type: t, Span: p.span(start)}, nil
}
