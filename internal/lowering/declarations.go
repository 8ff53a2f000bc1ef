package lowering

import (
	"path"
	"strings"

	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/module"
	"github.com/jward/candyc/internal/query"
	"github.com/jward/candyc/internal/resource"
)

func getDeclarationHir(c *query.Context, id ids.DeclarationId) (hir.Declaration, error) {
	var d hir.Declaration
	var err error
	switch id.Kind() {
	case ids.KindModule:
		d, err = moduleHir(c, id)
	case ids.KindTrait:
		d, err = traitHir(c, id)
	case ids.KindImpl:
		d, err = implHir(c, id)
	case ids.KindClass:
		d, err = classHir(c, id)
	case ids.KindConstructor:
		d, err = constructorHir(c, id)
	case ids.KindFunction:
		d, err = functionHir(c, id)
	case ids.KindProperty:
		d, err = propertyHir(c, id)
	case ids.KindGetter:
		d, err = getterHir(c, id)
	case ids.KindSetter:
		d, err = setterHir(c, id)
	default:
		return nil, diag.Internalf("declaration %s has unknown kind %s", id, id.Kind())
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// typedAst returns id's syntax node as the concrete node type N.
func typedAst[N ast.Declaration](c *query.Context, id ids.DeclarationId) (N, error) {
	var zero N
	node, err := DeclarationAst(c, id)
	if err != nil {
		return zero, err
	}
	n, ok := node.(N)
	if !ok {
		return zero, diag.Internalf("declaration %s: syntax node is %T, want %T", id, node, zero)
	}
	return n, nil
}

func getModuleHir(c *query.Context, id ids.DeclarationId) (*hir.Module, error) {
	node, err := typedAst[*ast.Module](c, id)
	if err != nil {
		return nil, err
	}
	if last, ok := id.Last(); ok && last.Disambiguator > 0 {
		return nil, diag.Errorf(diag.DuplicateModuleName, locOf(id, node.Span),
			"module %s is declared more than once", node.Name)
	}
	if id.IsRoot() {
		if err := checkFileModule(c, id.Resource); err != nil {
			return nil, err
		}
	}
	m, err := module.ModuleIdOf(c, id)
	if err != nil {
		return nil, err
	}
	inner, err := InnerDeclarationIds(c, id)
	if err != nil {
		return nil, err
	}
	return &hir.Module{Id: id, ModuleId: m, InnerDeclarations: inner}, nil
}

// checkFileModule reports use-lines that resolve to nothing and a file
// module that a directory's module file also declares.
func checkFileModule(c *query.Context, r ids.ResourceId) error {
	lines, err := module.UseLines(c, r)
	if err != nil {
		return err
	}
	for _, u := range lines {
		_, ok, err := module.ResolveUseLine(c, r, u.Target)
		if err != nil {
			return err
		}
		if !ok {
			return diag.Errorf(diag.UnresolvedUseLine, diag.Location{Resource: r.String(), Span: u.Span},
				"use %s names no module", u.Target)
		}
	}

	dir, file := path.Split(r.Path)
	if file == ids.ModuleFileName || !strings.HasPrefix(r.Path, ids.SourceDirectory+"/") {
		return nil
	}
	marker := ids.NewResourceId(r.Package, path.Join(dir, strings.TrimSuffix(file, ids.FileExtension), ids.ModuleFileName))
	ok, err := resource.Exists(c, marker)
	if err != nil {
		return err
	}
	if ok {
		return diag.Errorf(diag.DuplicateModuleName, diag.Location{Resource: r.String()},
			"module %s is also declared by %s", strings.TrimSuffix(file, ids.FileExtension), marker)
	}
	return nil
}

func getTraitHir(c *query.Context, id ids.DeclarationId) (*hir.Trait, error) {
	node, err := typedAst[*ast.Trait](c, id)
	if err != nil {
		return nil, err
	}
	params, err := TypeParameters(c, id)
	if err != nil {
		return nil, err
	}
	t := &hir.Trait{Id: id, Name: node.Name, TypeParameters: params}
	if node.UpperBound != nil {
		if t.UpperBound, err = lowerType(c, id, node.UpperBound); err != nil {
			return nil, err
		}
	}
	if t.InnerDeclarations, err = InnerDeclarationIds(c, id); err != nil {
		return nil, err
	}
	return t, nil
}

func getImplHir(c *query.Context, id ids.DeclarationId) (*hir.Impl, error) {
	if id.IsSynthetic() {
		s, _, err := syntheticOf(c, id)
		if err != nil {
			return nil, err
		}
		return s.Impl, nil
	}
	node, err := typedAst[*ast.Impl](c, id)
	if err != nil {
		return nil, err
	}
	params, err := TypeParameters(c, id)
	if err != nil {
		return nil, err
	}
	impl := &hir.Impl{Id: id, TypeParameters: params, Origin: ids.Source}

	parent, _ := id.Parent()
	switch {
	case node.Type != nil:
		if impl.Type, err = lowerType(c, id, node.Type); err != nil {
			return nil, err
		}
	case parent.IsClass():
		if impl.Type, err = classThisType(c, parent); err != nil {
			return nil, err
		}
	default:
		return nil, diag.Errorf(diag.UnsupportedFeature, locOf(id, node.Span),
			"an impl outside a class must name its implementing type")
	}

	if node.Trait != nil {
		trait, err := lowerType(c, id, node.Trait)
		if err != nil {
			return nil, err
		}
		u, ok := trait.(*hir.UserType)
		if !ok || !u.Declaration.IsTrait() {
			return nil, diag.Errorf(diag.InvalidImplTraitBound, locOf(id, node.Trait.Pos()),
				"%s is not a trait", trait)
		}
		impl.Trait = trait
	}
	if impl.InnerDeclarations, err = InnerDeclarationIds(c, id); err != nil {
		return nil, err
	}
	return impl, nil
}

func getClassHir(c *query.Context, id ids.DeclarationId) (*hir.Class, error) {
	node, err := typedAst[*ast.Class](c, id)
	if err != nil {
		return nil, err
	}
	params, err := TypeParameters(c, id)
	if err != nil {
		return nil, err
	}
	self, err := classThisType(c, id)
	if err != nil {
		return nil, err
	}
	inner, err := InnerDeclarationIds(c, id)
	if err != nil {
		return nil, err
	}
	derived, err := DerivedDeclarations(c, id)
	if err != nil {
		return nil, err
	}
	class := &hir.Class{
		Id:                id,
		Name:              node.Name,
		IsData:            node.IsData,
		TypeParameters:    params,
		ThisType:          self,
		InnerDeclarations: inner,
	}
	for _, s := range derived {
		class.DerivedImpls = append(class.DerivedImpls, s.Impl.Id)
	}
	return class, nil
}

func getConstructorHir(c *query.Context, id ids.DeclarationId) (*hir.Constructor, error) {
	node, err := typedAst[*ast.Constructor](c, id)
	if err != nil {
		return nil, err
	}
	class, err := id.Parent()
	if err != nil {
		return nil, err
	}
	self, err := classThisType(c, class)
	if err != nil {
		return nil, err
	}
	params, err := lowerValueParameters(c, id, node.Parameters)
	if err != nil {
		return nil, err
	}
	return &hir.Constructor{Id: id, Class: self, Parameters: params}, nil
}

func getFunctionHir(c *query.Context, id ids.DeclarationId) (*hir.Function, error) {
	if id.IsSynthetic() {
		_, method, err := syntheticOf(c, id)
		if err != nil {
			return nil, err
		}
		if method == nil {
			return nil, diag.Internalf("declaration %s is not a function", id)
		}
		return method.Function, nil
	}
	node, err := typedAst[*ast.Function](c, id)
	if err != nil {
		return nil, err
	}
	typeParams, err := TypeParameters(c, id)
	if err != nil {
		return nil, err
	}
	params, err := lowerValueParameters(c, id, node.Parameters)
	if err != nil {
		return nil, err
	}
	fn := &hir.Function{
		Id:             id,
		Name:           node.Name,
		IsStatic:       node.IsStatic,
		IsBuiltin:      node.IsBuiltin,
		TypeParameters: typeParams,
		Parameters:     params,
		HasBody:        node.Body != nil,
	}
	if node.ReturnType != nil {
		if fn.ReturnType, err = lowerType(c, id, node.ReturnType); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

func lowerValueParameters(c *query.Context, scope ids.DeclarationId, params []ast.ValueParameter) ([]hir.ValueParameter, error) {
	out := make([]hir.ValueParameter, 0, len(params))
	for _, p := range params {
		t, err := lowerType(c, scope, p.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, hir.ValueParameter{Name: p.Name, Type: t})
	}
	return out, nil
}

func getPropertyHir(c *query.Context, id ids.DeclarationId) (*hir.Property, error) {
	node, err := typedAst[*ast.Property](c, id)
	if err != nil {
		return nil, err
	}
	parent, err := id.Parent()
	if err != nil {
		return nil, err
	}
	loc := locOf(id, node.Span)
	if node.Type == nil && node.Initializer == nil {
		return nil, diag.Errorf(diag.PropertyTypeOrValueRequired, loc,
			"property %s needs a type or an initial value", node.Name)
	}
	moduleLevel := parent.IsModule()
	if (moduleLevel || node.IsStatic) && node.Initializer == nil {
		return nil, diag.Errorf(diag.PropertyInitializerMissing, loc,
			"property %s must be initialized", node.Name)
	}
	if len(node.Accessors) > 0 && !parent.IsClass() {
		return nil, diag.Errorf(diag.UnsupportedFeature, loc,
			"getters and setters are only supported on class properties")
	}

	p := &hir.Property{Id: id, Name: node.Name, IsStatic: node.IsStatic, IsMutable: node.IsMutable}
	if node.Type != nil {
		if p.Type, err = lowerType(c, id, node.Type); err != nil {
			return nil, err
		}
	}
	if node.Initializer != nil {
		s := newBodyScope(c, id, nil, node.IsStatic || moduleLevel)
		if p.Initializer, err = s.lowerValue(node.Initializer); err != nil {
			return nil, err
		}
		if p.Type == nil {
			p.Type = p.Initializer.Type()
		}
	}
	if p.Type == nil {
		return nil, diag.Errorf(diag.PropertyTypeOrValueRequired, loc,
			"the type of property %s cannot be inferred from its initial value", node.Name)
	}
	if p.InnerDeclarations, err = InnerDeclarationIds(c, id); err != nil {
		return nil, err
	}
	return p, nil
}

func getGetterHir(c *query.Context, id ids.DeclarationId) (*hir.Getter, error) {
	node, err := typedAst[*ast.Getter](c, id)
	if err != nil {
		return nil, err
	}
	prop, err := accessorProperty(c, id)
	if err != nil {
		return nil, err
	}
	return &hir.Getter{Id: id, PropertyType: prop.Type, HasBody: node.Body != nil}, nil
}

func getSetterHir(c *query.Context, id ids.DeclarationId) (*hir.Setter, error) {
	node, err := typedAst[*ast.Setter](c, id)
	if err != nil {
		return nil, err
	}
	prop, err := accessorProperty(c, id)
	if err != nil {
		return nil, err
	}
	s := &hir.Setter{Id: id, Parameter: hir.ValueParameter{Name: "value", Type: prop.Type}, HasBody: node.Body != nil}
	if node.Parameter != nil {
		s.Parameter.Name = node.Parameter.Name
		if node.Parameter.Type != nil {
			if s.Parameter.Type, err = lowerType(c, id, node.Parameter.Type); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func accessorProperty(c *query.Context, id ids.DeclarationId) (*hir.Property, error) {
	parent, err := id.Parent()
	if err != nil {
		return nil, err
	}
	return propertyHir(c, parent)
}
