package syntax

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/ids"
)

// Reader reads raw resource contents.
type Reader interface {
	ReadResource(ctx context.Context, id ids.ResourceId) ([]byte, error)
}

// YAMLProvider is an ast.Provider for resources holding the YAML syntax
// tree interchange form written by the external parser.
type YAMLProvider struct {
	Resources Reader
}

// NewYAMLProvider returns a provider reading through r.
func NewYAMLProvider(r Reader) *YAMLProvider {
	return &YAMLProvider{Resources: r}
}

func (p *YAMLProvider) GetAst(ctx context.Context, id ids.ResourceId) (*ast.File, error) {
	data, err := p.Resources.ReadResource(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := DecodeFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	f.Resource = id
	return f, nil
}

// declarationKeys are the keys that may open a declaration mapping.
var declarationKeys = []string{"module", "trait", "impl", "class", "constructor", "function", "property", "get", "set"}

// DecodeFile decodes one syntax tree document:
//
//	use: [".Geometry", "acme/shapes.Points"]
//	declarations:
//	  - class: Point
//	    data: true
//	    members:
//	      - property: x
//	        type: Int
func DecodeFile(data []byte) (*ast.File, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("syntax: decode: %w", err)
	}
	f := &ast.File{}
	if root.Kind == 0 {
		return f, nil
	}
	fields := nodeMapping(&root)
	if fields == nil {
		return nil, nodeError(documentNode(&root), "expected a mapping")
	}
	if use := fields["use"]; use != nil {
		items, err := sequence(use)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			f.UseLines = append(f.UseLines, ast.UseLine{Target: strings.TrimSpace(item.Value), Span: spanOf(item)})
		}
	}
	decls, err := decodeDeclarations(fields["declarations"])
	if err != nil {
		return nil, err
	}
	f.Declarations = decls
	return f, nil
}

func decodeDeclarations(n *yaml.Node) ([]ast.Declaration, error) {
	items, err := sequence(n)
	if err != nil {
		return nil, err
	}
	out := make([]ast.Declaration, 0, len(items))
	for _, item := range items {
		d, err := decodeDeclaration(item)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeDeclaration(n *yaml.Node) (ast.Declaration, error) {
	fields := nodeMapping(n)
	if len(fields) == 0 {
		return nil, nodeError(n, "expected a declaration mapping")
	}
	// The first key names the kind; impls carry a trait key of their own.
	kind := documentNode(n).Content[0].Value
	span := spanOf(n)
	head := fields[kind]
	switch kind {
	case "module":
		members, err := decodeDeclarations(fields["members"])
		if err != nil {
			return nil, err
		}
		return &ast.Module{Name: nodeString(head), Members: members, Span: span}, nil

	case "trait":
		d := &ast.Trait{Name: nodeString(head), Span: span}
		var err error
		if d.TypeParameters, err = decodeTypeParameters(fields["typeParameters"]); err != nil {
			return nil, err
		}
		if d.UpperBound, err = decodeOptionalType(fields["bound"]); err != nil {
			return nil, err
		}
		if d.Members, err = decodeDeclarations(fields["members"]); err != nil {
			return nil, err
		}
		return d, nil

	case "impl":
		d := &ast.Impl{Span: span}
		var err error
		if d.Type, err = decodeOptionalType(head); err != nil {
			return nil, err
		}
		if d.Trait, err = decodeOptionalType(fields["trait"]); err != nil {
			return nil, err
		}
		if d.TypeParameters, err = decodeTypeParameters(fields["typeParameters"]); err != nil {
			return nil, err
		}
		if d.Members, err = decodeDeclarations(fields["members"]); err != nil {
			return nil, err
		}
		return d, nil

	case "class":
		d := &ast.Class{Name: nodeString(head), Span: span}
		var err error
		if d.IsData, err = nodeBool(fields["data"]); err != nil {
			return nil, err
		}
		if d.TypeParameters, err = decodeTypeParameters(fields["typeParameters"]); err != nil {
			return nil, err
		}
		if d.Members, err = decodeDeclarations(fields["members"]); err != nil {
			return nil, err
		}
		return d, nil

	case "constructor":
		params, err := decodeValueParameters(head)
		if err != nil {
			return nil, err
		}
		return &ast.Constructor{Parameters: params, Span: span}, nil

	case "function":
		d := &ast.Function{Name: nodeString(head), Span: span}
		var err error
		if d.IsStatic, err = nodeBool(fields["static"]); err != nil {
			return nil, err
		}
		if d.IsBuiltin, err = nodeBool(fields["builtin"]); err != nil {
			return nil, err
		}
		if d.TypeParameters, err = decodeTypeParameters(fields["typeParameters"]); err != nil {
			return nil, err
		}
		if d.Parameters, err = decodeValueParameters(fields["parameters"]); err != nil {
			return nil, err
		}
		if d.ReturnType, err = decodeOptionalType(fields["returns"]); err != nil {
			return nil, err
		}
		if body, ok := fields["body"]; ok {
			if d.Body, err = decodeBody(body); err != nil {
				return nil, err
			}
			if d.Body == nil {
				d.Body = []ast.Expression{}
			}
		}
		return d, nil

	case "property":
		d := &ast.Property{Name: nodeString(head), Span: span}
		var err error
		if d.IsStatic, err = nodeBool(fields["static"]); err != nil {
			return nil, err
		}
		if d.IsMutable, err = nodeBool(fields["mutable"]); err != nil {
			return nil, err
		}
		if d.Type, err = decodeOptionalType(fields["type"]); err != nil {
			return nil, err
		}
		if v := fields["value"]; v != nil && !isNull(v) {
			if d.Initializer, err = decodeExpression(v); err != nil {
				return nil, err
			}
		}
		if d.Accessors, err = decodeDeclarations(fields["accessors"]); err != nil {
			return nil, err
		}
		return d, nil

	case "get":
		body := fields["body"]
		if body == nil {
			body = head
		}
		exprs, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		if exprs == nil {
			exprs = []ast.Expression{}
		}
		return &ast.Getter{Body: exprs, Span: span}, nil

	case "set":
		d := &ast.Setter{Span: span}
		if !isNull(head) {
			p, err := ParseValueParameter(head.Value, spanOf(head))
			if err != nil {
				return nil, nodeError(head, "%v", err)
			}
			d.Parameter = &p
		}
		if body, ok := fields["body"]; ok {
			var err error
			if d.Body, err = decodeBody(body); err != nil {
				return nil, err
			}
			if d.Body == nil {
				d.Body = []ast.Expression{}
			}
		}
		return d, nil
	}
	return nil, nodeError(n, "unknown declaration, expected one of %s", strings.Join(declarationKeys, ", "))
}

func decodeTypeParameters(n *yaml.Node) ([]ast.TypeParameter, error) {
	items, err := sequence(n)
	if err != nil {
		return nil, err
	}
	var out []ast.TypeParameter
	for _, item := range items {
		p, err := ParseTypeParameter(item.Value, spanOf(item))
		if err != nil {
			return nil, nodeError(item, "%v", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeValueParameters(n *yaml.Node) ([]ast.ValueParameter, error) {
	items, err := sequence(n)
	if err != nil {
		return nil, err
	}
	var out []ast.ValueParameter
	for _, item := range items {
		p, err := ParseValueParameter(item.Value, spanOf(item))
		if err != nil {
			return nil, nodeError(item, "%v", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeOptionalType(n *yaml.Node) (ast.Type, error) {
	if n == nil || isNull(n) {
		return nil, nil
	}
	t, err := ParseType(n.Value, spanOf(n))
	if err != nil {
		return nil, nodeError(n, "%v", err)
	}
	return t, nil
}

func decodeBody(n *yaml.Node) ([]ast.Expression, error) {
	items, err := sequence(n)
	if err != nil {
		return nil, err
	}
	var out []ast.Expression
	for _, item := range items {
		e, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeExpression decodes scalars as literals, "this" or identifiers and
// mappings keyed by call, nav, binary, let, return or string.
func decodeExpression(n *yaml.Node) (ast.Expression, error) {
	span := spanOf(n)
	if n.Kind == yaml.ScalarNode {
		if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
			return &ast.StringLiteral{Value: n.Value, Span: span}, nil
		}
		switch n.Tag {
		case "!!int":
			v, err := strconv.ParseInt(n.Value, 0, 64)
			if err != nil {
				return nil, nodeError(n, "invalid integer %q", n.Value)
			}
			return &ast.IntLiteral{Value: v, Span: span}, nil
		case "!!bool":
			v, err := nodeBool(n)
			if err != nil {
				return nil, err
			}
			return &ast.BoolLiteral{Value: v, Span: span}, nil
		}
		name := strings.TrimSpace(n.Value)
		if name == "this" {
			return &ast.This{Span: span}, nil
		}
		if !IsIdentifier(name) {
			return nil, nodeError(n, "%q is not an identifier", name)
		}
		return &ast.Identifier{Name: name, Span: span}, nil
	}

	fields := nodeMapping(n)
	if fields == nil {
		return nil, nodeError(n, "expected an expression")
	}
	if v, ok := fields["string"]; ok {
		return &ast.StringLiteral{Value: v.Value, Span: span}, nil
	}
	if v, ok := fields["call"]; ok {
		target, err := decodeExpression(v)
		if err != nil {
			return nil, err
		}
		args, err := decodeBody(fields["args"])
		if err != nil {
			return nil, err
		}
		return &ast.Call{Target: target, Arguments: args, Span: span}, nil
	}
	if v, ok := fields["nav"]; ok {
		target, err := decodeExpression(v)
		if err != nil {
			return nil, err
		}
		name := nodeString(fields["name"])
		if !IsIdentifier(name) {
			return nil, nodeError(n, "navigation needs a name")
		}
		return &ast.Navigation{Target: target, Name: name, Span: span}, nil
	}
	if v, ok := fields["binary"]; ok {
		if fields["left"] == nil || fields["right"] == nil {
			return nil, nodeError(n, "binary %q needs left and right", v.Value)
		}
		left, err := decodeExpression(fields["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(fields["right"])
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Operator: strings.TrimSpace(v.Value), Left: left, Right: right, Span: span}, nil
	}
	if v, ok := fields["let"]; ok {
		d := &ast.Let{Name: nodeString(v), Span: span}
		var err error
		if d.IsMutable, err = nodeBool(fields["mutable"]); err != nil {
			return nil, err
		}
		if d.Type, err = decodeOptionalType(fields["type"]); err != nil {
			return nil, err
		}
		if fields["value"] == nil {
			return nil, nodeError(n, "let %s needs a value", d.Name)
		}
		if d.Value, err = decodeExpression(fields["value"]); err != nil {
			return nil, err
		}
		return d, nil
	}
	if v, ok := fields["return"]; ok {
		r := &ast.Return{Span: span}
		if !isNull(v) {
			value, err := decodeExpression(v)
			if err != nil {
				return nil, err
			}
			r.Value = value
		}
		return r, nil
	}
	return nil, nodeError(n, "unknown expression")
}

func documentNode(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}
	return n
}

func nodeMapping(n *yaml.Node) map[string]*yaml.Node {
	if n == nil {
		return nil
	}
	n = documentNode(n)
	if n.Kind != yaml.MappingNode {
		return nil
	}
	ret := map[string]*yaml.Node{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		ret[n.Content[i].Value] = n.Content[i+1]
	}
	return ret
}

func sequence(n *yaml.Node) ([]*yaml.Node, error) {
	if n == nil || isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeError(n, "expected a sequence")
	}
	return n.Content, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func nodeString(n *yaml.Node) string {
	if n == nil || isNull(n) {
		return ""
	}
	return strings.TrimSpace(n.Value)
}

func nodeBool(n *yaml.Node) (bool, error) {
	if n == nil || isNull(n) {
		return false, nil
	}
	var v bool
	if err := n.Decode(&v); err != nil {
		return false, nodeError(n, "expected a boolean")
	}
	return v, nil
}

func spanOf(n *yaml.Node) diag.Span {
	return diag.Span{Line: n.Line, Column: n.Column}
}

func nodeError(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("syntax: line %d: %s", n.Line, fmt.Sprintf(format, args...))
}
