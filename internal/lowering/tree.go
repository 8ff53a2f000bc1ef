package lowering

import (
	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/query"
	"github.com/jward/candyc/internal/resource"
)

// rootModule wraps a file's declarations as its implicit root module.
func rootModule(f *ast.File) *ast.Module {
	return &ast.Module{Members: f.Declarations}
}

// nthChild returns the child of node that seg addresses: the
// seg.Disambiguator-th child, counting from zero, with the segment's kind
// and name.
func nthChild(node ast.Declaration, seg ids.DisambiguatedPathData) ast.Declaration {
	n := 0
	for _, child := range node.Children() {
		if child.Kind() != seg.Data.Kind() || child.DeclName() != seg.Data.Name() {
			continue
		}
		if n == seg.Disambiguator {
			return child
		}
		n++
	}
	return nil
}

// findDeclaration walks the syntax tree of id's resource along its path.
// ok is false when a segment matches no node; synthetic segments never
// match.
func findDeclaration(c *query.Context, id ids.DeclarationId) (ast.Declaration, bool, error) {
	f, err := ast.Get(c, id.Resource)
	if err != nil {
		return nil, false, err
	}
	var node ast.Declaration = rootModule(f)
	for _, seg := range id.Path {
		if seg.Origin == ids.Synthetic {
			return nil, false, nil
		}
		if node = nthChild(node, seg); node == nil {
			return nil, false, nil
		}
	}
	return node, true, nil
}

func getDeclarationAst(c *query.Context, id ids.DeclarationId) (ast.Declaration, error) {
	if err := id.Validate(); err != nil {
		return nil, diag.Internalf("invalid declaration id: %v", err)
	}
	node, ok, err := findDeclaration(c, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, diag.InternalAt(locOf(id, diag.Span{}), "declaration not found: %s", id)
	}
	return node, nil
}

func getInnerDeclarationIds(c *query.Context, id ids.DeclarationId) ([]ids.DeclarationId, error) {
	if id.IsSynthetic() {
		s, method, err := syntheticOf(c, id)
		if err != nil || method != nil {
			return nil, err
		}
		out := make([]ids.DeclarationId, len(s.Methods))
		for i, m := range s.Methods {
			out[i] = m.Function.Id
		}
		return out, nil
	}

	node, err := DeclarationAst(c, id)
	if err != nil {
		return nil, err
	}
	children := node.Children()
	out := make([]ids.DeclarationId, 0, len(children))
	counters := make(map[ids.DeclarationPathData]int)
	for _, child := range children {
		if !ids.CanContain(node.Kind(), child.Kind()) {
			return nil, diag.Errorf(diag.UnsupportedFeature, locOf(id, child.Pos()),
				"a %s cannot contain a %s", node.Kind(), child.Kind())
		}
		data, err := ids.NewPathData(child.Kind(), child.DeclName())
		if err != nil {
			return nil, diag.Internalf("%v", err)
		}
		out = append(out, id.InnerWith(data, counters[data], ids.Source))
		counters[data]++
	}
	return out, nil
}

func doesDeclarationExist(c *query.Context, id ids.DeclarationId) (bool, error) {
	if id.Validate() != nil {
		return false, nil
	}
	ok, err := resource.Exists(c, id.Resource)
	if err != nil || !ok {
		return false, err
	}
	if !id.IsSynthetic() {
		_, ok, err := findDeclaration(c, id)
		return ok, err
	}

	class, rest := splitSynthetic(id)
	if !class.IsClass() {
		return false, nil
	}
	if ok, err := DeclarationExists(c, class); err != nil || !ok {
		return false, err
	}
	derived, err := DerivedDeclarations(c, class)
	if err != nil {
		return false, err
	}
	for _, s := range derived {
		if !s.Impl.Id.Equal(rest) {
			continue
		}
		if id.Equal(rest) {
			return true, nil
		}
		for _, m := range s.Methods {
			if m.Function.Id.Equal(id) {
				return true, nil
			}
		}
	}
	return false, nil
}

// splitSynthetic returns the declaration that owns id's first synthetic
// segment, and id cut just after that segment.
func splitSynthetic(id ids.DeclarationId) (owner, synthetic ids.DeclarationId) {
	for i, seg := range id.Path {
		if seg.Origin == ids.Synthetic {
			return ids.DeclarationId{Resource: id.Resource, Path: id.Path[:i:i]},
				ids.DeclarationId{Resource: id.Resource, Path: id.Path[: i+1 : i+1]}
		}
	}
	return id, id
}

// syntheticOf finds the synthetic impl that id is or belongs to. method is
// set when id addresses one of the impl's methods.
func syntheticOf(c *query.Context, id ids.DeclarationId) (*hir.SyntheticImpl, *hir.SyntheticMethod, error) {
	class, implId := splitSynthetic(id)
	if !class.IsClass() {
		return nil, nil, diag.Internalf("synthetic declaration %s is not inside a class", id)
	}
	derived, err := DerivedDeclarations(c, class)
	if err != nil {
		return nil, nil, err
	}
	for i := range derived {
		s := &derived[i]
		if !s.Impl.Id.Equal(implId) {
			continue
		}
		if id.Equal(implId) {
			return s, nil, nil
		}
		for j := range s.Methods {
			if s.Methods[j].Function.Id.Equal(id) {
				return s, &s.Methods[j], nil
			}
		}
	}
	return nil, nil, diag.Internalf("declaration not found: %s", id)
}

// ancestors returns id followed by each of its parents up to the root.
func ancestors(id ids.DeclarationId) []ids.DeclarationId {
	out := []ids.DeclarationId{id}
	for !id.IsRoot() {
		id, _ = id.Parent()
		out = append(out, id)
	}
	return out
}

// enclosingModule returns the nearest module at or above id.
func enclosingModule(id ids.DeclarationId) ids.DeclarationId {
	for _, a := range ancestors(id) {
		if a.IsModule() {
			return a
		}
	}
	return ids.RootOf(id.Resource)
}

// container returns the class, trait or impl whose member id is, if any.
// The search stops at the first enclosing module.
func container(id ids.DeclarationId) (ids.DeclarationId, bool) {
	for _, a := range ancestors(id)[1:] {
		switch a.Kind() {
		case ids.KindClass, ids.KindTrait, ids.KindImpl:
			return a, true
		case ids.KindModule:
			return ids.DeclarationId{}, false
		}
	}
	return ids.DeclarationId{}, false
}
