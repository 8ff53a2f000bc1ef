package lowering

import (
	"slices"

	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/query"
)

// bodyScope lowers the expressions of one function, accessor or property
// initializer. Identifiers resolve to locals, then value parameters, then
// members of the enclosing class, trait or impl, then declarations visible
// from the enclosing module.
type bodyScope struct {
	c      *query.Context
	owner  ids.DeclarationId
	params []hir.ValueParameter
	locals []hir.ValueParameter
	// static is set when the body has no receiver.
	static    bool
	container *ids.DeclarationId
	thisType  hir.Type
}

func newBodyScope(c *query.Context, owner ids.DeclarationId, params []hir.ValueParameter, static bool) *bodyScope {
	s := &bodyScope{c: c, owner: owner, params: params, static: static}
	if decl, ok := container(owner); ok {
		s.container = &decl
	}
	return s
}

func (s *bodyScope) loc(span diag.Span) diag.Location { return locOf(s.owner, span) }

// receiverType returns the type of this, computed on first use so that
// lowering a member never lowers its container eagerly.
func (s *bodyScope) receiverType() (hir.Type, error) {
	if s.thisType != nil || s.container == nil {
		return s.thisType, nil
	}
	var err error
	switch s.container.Kind() {
	case ids.KindClass:
		s.thisType, err = classThisType(s.c, *s.container)
	case ids.KindTrait:
		s.thisType = &hir.ThisType{Declaration: *s.container}
	case ids.KindImpl:
		var impl *hir.Impl
		if impl, err = implHir(s.c, *s.container); err == nil {
			s.thisType = impl.Type
		}
	}
	return s.thisType, err
}

func (s *bodyScope) lowerBody(exprs []ast.Expression) (*hir.Body, error) {
	body := &hir.Body{Expressions: make([]hir.Expression, 0, len(exprs))}
	for _, e := range exprs {
		lowered, err := s.lowerStatement(e)
		if err != nil {
			return nil, err
		}
		body.Expressions = append(body.Expressions, lowered)
	}
	return body, nil
}

func (s *bodyScope) lowerStatement(e ast.Expression) (hir.Expression, error) {
	switch e := e.(type) {
	case *ast.Let:
		value, err := s.lowerValue(e.Value)
		if err != nil {
			return nil, err
		}
		let := &hir.Let{Name: e.Name, IsMutable: e.IsMutable, Value: value}
		if e.Type != nil {
			if let.Declared, err = lowerType(s.c, s.owner, e.Type); err != nil {
				return nil, err
			}
		}
		t := let.Declared
		if t == nil {
			t = value.Type()
		}
		s.locals = append(s.locals, hir.ValueParameter{Name: e.Name, Type: t})
		return let, nil

	case *ast.Return:
		ret := &hir.Return{}
		if e.Value != nil {
			value, err := s.lowerValue(e.Value)
			if err != nil {
				return nil, err
			}
			ret.Value = value
		}
		return ret, nil
	}
	return s.lowerValue(e)
}

// lowerValue lowers an expression that must produce a value.
func (s *bodyScope) lowerValue(e ast.Expression) (hir.Expression, error) {
	switch e.(type) {
	case *ast.Let, *ast.Return:
		return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(e.Pos()), "a statement cannot be used as a value")
	}
	lowered, err := s.lowerExpression(e)
	if err != nil {
		return nil, err
	}
	switch r := lowered.(type) {
	case *hir.FunctionReference:
		return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(e.Pos()),
			"function %s is not called; function values are not supported", r.Function.Name())
	case *hir.ModuleReference:
		return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(e.Pos()), "a module cannot be used as a value")
	case *hir.TypeReference:
		return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(e.Pos()),
			"type %s cannot be used as a value", r.Declaration.Name())
	}
	return lowered, nil
}

func (s *bodyScope) lowerExpression(e ast.Expression) (hir.Expression, error) {
	switch e := e.(type) {
	case *ast.IntLiteral:
		t, err := requireCoreType(s.c, s.loc(e.Span), "Int")
		if err != nil {
			return nil, err
		}
		return &hir.IntLiteral{Value: e.Value, ValueType: t}, nil

	case *ast.BoolLiteral:
		t, err := requireCoreType(s.c, s.loc(e.Span), "Bool")
		if err != nil {
			return nil, err
		}
		return &hir.BoolLiteral{Value: e.Value, ValueType: t}, nil

	case *ast.StringLiteral:
		t, err := requireCoreType(s.c, s.loc(e.Span), "String")
		if err != nil {
			return nil, err
		}
		return &hir.StringLiteral{Value: e.Value, ValueType: t}, nil

	case *ast.This:
		if s.static || s.container == nil {
			return nil, diag.Errorf(diag.UnknownIdentifier, s.loc(e.Span), "this is not available here")
		}
		t, err := s.receiverType()
		if err != nil {
			return nil, err
		}
		return &hir.ThisReference{ValueType: t}, nil

	case *ast.Identifier:
		return s.lowerIdentifier(e)

	case *ast.Navigation:
		return s.lowerNavigation(e)

	case *ast.Call:
		return s.lowerCall(e)

	case *ast.Binary:
		return s.lowerBinary(e)

	case *ast.Let, *ast.Return:
		return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(e.Pos()), "a statement cannot be used as a value")
	}
	return nil, diag.Internalf("unexpected expression node %T", e)
}

func (s *bodyScope) lowerIdentifier(e *ast.Identifier) (hir.Expression, error) {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i].Name == e.Name {
			return &hir.LocalReference{Name: e.Name, ValueType: s.locals[i].Type}, nil
		}
	}
	if i := slices.IndexFunc(s.params, func(p hir.ValueParameter) bool { return p.Name == e.Name }); i >= 0 {
		return &hir.ParameterReference{Name: e.Name, ValueType: s.params[i].Type}, nil
	}

	if s.container != nil {
		member, ok, err := memberNamed(s.c, *s.container, e.Name, isMemberDeclaration)
		if err != nil {
			return nil, err
		}
		if ok {
			var receiver hir.Expression
			if !s.static {
				t, err := s.receiverType()
				if err != nil {
					return nil, err
				}
				receiver = &hir.ThisReference{ValueType: t}
			}
			return s.reference(member, receiver, e.Span)
		}
	}

	found, ok, err := lookupInScope(s.c, s.owner, e.Name, isValueDeclaration)
	if err != nil {
		return nil, err
	}
	if ok {
		return s.reference(found, nil, e.Span)
	}
	imported, err := importedModules(s.c, s.owner.Resource)
	if err != nil {
		return nil, err
	}
	for _, im := range imported {
		if p := im.module.Path; len(p) > 0 && p[len(p)-1] == e.Name {
			return &hir.ModuleReference{Module: im.declaration}, nil
		}
	}
	return nil, diag.Errorf(diag.UnknownIdentifier, s.loc(e.Span), "unknown identifier %s", e.Name)
}

func isMemberDeclaration(id ids.DeclarationId) bool { return id.IsProperty() || id.IsFunction() }

// reference turns a resolved declaration into the expression naming it.
// Receivers of static members are dropped.
func (s *bodyScope) reference(id ids.DeclarationId, receiver hir.Expression, span diag.Span) (hir.Expression, error) {
	switch id.Kind() {
	case ids.KindProperty:
		p, err := propertyHir(s.c, id)
		if err != nil {
			return nil, err
		}
		if p.IsStatic || !isMemberOfType(id) {
			receiver = nil
		}
		return &hir.PropertyReference{Property: id, Receiver: receiver, ValueType: p.Type}, nil
	case ids.KindFunction:
		fn, err := functionHir(s.c, id)
		if err != nil {
			return nil, err
		}
		if fn.IsStatic || !isMemberOfType(id) {
			receiver = nil
		}
		return &hir.FunctionReference{Function: id, Receiver: receiver}, nil
	case ids.KindClass, ids.KindTrait:
		return &hir.TypeReference{Declaration: id}, nil
	case ids.KindModule:
		return &hir.ModuleReference{Module: id}, nil
	}
	return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(span), "%s %s cannot be referenced", id.Kind(), id.Name())
}

func isMemberOfType(id ids.DeclarationId) bool {
	_, ok := container(id)
	return ok
}

func (s *bodyScope) lowerNavigation(e *ast.Navigation) (hir.Expression, error) {
	target, err := s.lowerExpression(e.Target)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case *hir.ModuleReference:
		member, ok, err := memberNamed(s.c, t.Module, e.Name, isValueDeclaration)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, diag.Errorf(diag.UnknownIdentifier, s.loc(e.Span), "module has no member %s", e.Name)
		}
		return s.reference(member, nil, e.Span)

	case *hir.TypeReference:
		member, ok, err := memberNamed(s.c, t.Declaration, e.Name, isMemberDeclaration)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, diag.Errorf(diag.UnknownIdentifier, s.loc(e.Span), "%s has no member %s", t.Declaration.Name(), e.Name)
		}
		return s.reference(member, nil, e.Span)

	case *hir.FunctionReference:
		return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(e.Span), "function values are not supported")
	}

	decl, ok := hir.DeclarationOf(target.Type())
	if !ok {
		return nil, diag.Errorf(diag.UnknownIdentifier, s.loc(e.Span), "cannot look up %s on a value of type %v", e.Name, target.Type())
	}
	member, ok, err := memberNamed(s.c, decl, e.Name, isMemberDeclaration)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, diag.Errorf(diag.UnknownIdentifier, s.loc(e.Span), "%s has no member %s", decl.Name(), e.Name)
	}
	return s.reference(member, target, e.Span)
}

func (s *bodyScope) lowerCall(e *ast.Call) (hir.Expression, error) {
	callee, err := s.lowerExpression(e.Target)
	if err != nil {
		return nil, err
	}
	args := make([]hir.Expression, 0, len(e.Arguments))
	for _, a := range e.Arguments {
		lowered, err := s.lowerValue(a)
		if err != nil {
			return nil, err
		}
		args = append(args, lowered)
	}

	switch t := callee.(type) {
	case *hir.FunctionReference:
		fn, err := functionHir(s.c, t.Function)
		if err != nil {
			return nil, err
		}
		return &hir.FunctionCall{Function: t.Function, Receiver: t.Receiver, Arguments: args, ValueType: fn.ReturnType}, nil
	case *hir.TypeReference:
		if !t.Declaration.IsClass() {
			return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(e.Span), "trait %s cannot be constructed", t.Declaration.Name())
		}
		self, err := classThisType(s.c, t.Declaration)
		if err != nil {
			return nil, err
		}
		return &hir.ConstructorCall{Class: t.Declaration, Arguments: args, ValueType: self}, nil
	}
	return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(e.Span), "only functions and classes can be called")
}

var (
	booleanOperators    = []string{"==", "!=", "<", "<=", ">", ">=", "&&", "||"}
	arithmeticOperators = []string{"+", "-", "*", "/", "%"}
)

func (s *bodyScope) lowerBinary(e *ast.Binary) (hir.Expression, error) {
	left, err := s.lowerValue(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := s.lowerValue(e.Right)
	if err != nil {
		return nil, err
	}
	b := &hir.Binary{Operator: e.Operator, Left: left, Right: right}
	switch {
	case slices.Contains(booleanOperators, e.Operator):
		if b.ValueType, err = requireCoreType(s.c, s.loc(e.Span), "Bool"); err != nil {
			return nil, err
		}
	case slices.Contains(arithmeticOperators, e.Operator):
		b.ValueType = left.Type()
	default:
		return nil, diag.Errorf(diag.UnsupportedFeature, s.loc(e.Span), "unknown operator %s", e.Operator)
	}
	return b, nil
}

func getFunctionBody(c *query.Context, id ids.DeclarationId) (*hir.Body, error) {
	if id.IsSynthetic() {
		_, method, err := syntheticOf(c, id)
		if err != nil {
			return nil, err
		}
		if method == nil {
			return nil, diag.Internalf("declaration %s has no body", id)
		}
		return method.Body, nil
	}

	var (
		exprs  []ast.Expression
		params []hir.ValueParameter
		static bool
	)
	switch id.Kind() {
	case ids.KindFunction:
		node, err := typedAst[*ast.Function](c, id)
		if err != nil {
			return nil, err
		}
		fn, err := functionHir(c, id)
		if err != nil {
			return nil, err
		}
		exprs, params, static = node.Body, fn.Parameters, fn.IsStatic
	case ids.KindGetter:
		node, err := typedAst[*ast.Getter](c, id)
		if err != nil {
			return nil, err
		}
		prop, err := accessorProperty(c, id)
		if err != nil {
			return nil, err
		}
		exprs, static = node.Body, prop.IsStatic
	case ids.KindSetter:
		node, err := typedAst[*ast.Setter](c, id)
		if err != nil {
			return nil, err
		}
		setter, err := setterHir(c, id)
		if err != nil {
			return nil, err
		}
		prop, err := accessorProperty(c, id)
		if err != nil {
			return nil, err
		}
		exprs, params, static = node.Body, []hir.ValueParameter{setter.Parameter}, prop.IsStatic
	default:
		return nil, diag.Internalf("declaration %s has no body", id)
	}
	if exprs == nil {
		return nil, nil
	}
	return newBodyScope(c, id, params, static).lowerBody(exprs)
}
