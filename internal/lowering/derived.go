package lowering

import (
	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/query"
)

const (
	equalsTrait  = "Equals"
	equalsMethod = "equals"
	otherParam   = "other"
)

// getClassDerivedDeclarations synthesizes the impls a class gets without
// writing them. A data class implements the core Equals trait by comparing
// its non-static properties pairwise.
func getClassDerivedDeclarations(c *query.Context, id ids.DeclarationId) ([]hir.SyntheticImpl, error) {
	node, err := typedAst[*ast.Class](c, id)
	if err != nil {
		return nil, err
	}
	if !node.IsData {
		return nil, nil
	}

	// Synthetic impls are numbered per trait name like source impls, in a
	// sequence of their own.
	counters := make(map[string]int)
	nextId := func(trait string) ids.DeclarationId {
		n := counters[trait]
		counters[trait]++
		return id.InnerWith(ids.ImplData{Trait: trait}, n, ids.Synthetic)
	}

	equals, err := deriveEquals(c, id, node, nextId(equalsTrait))
	if err != nil {
		return nil, err
	}
	return []hir.SyntheticImpl{equals}, nil
}

func deriveEquals(c *query.Context, class ids.DeclarationId, node *ast.Class, implId ids.DeclarationId) (hir.SyntheticImpl, error) {
	loc := locOf(class, node.Span)
	trait, err := requireCoreType(c, loc, equalsTrait)
	if err != nil {
		return hir.SyntheticImpl{}, err
	}
	boolType, err := requireCoreType(c, loc, "Bool")
	if err != nil {
		return hir.SyntheticImpl{}, err
	}
	params, err := TypeParameters(c, class)
	if err != nil {
		return hir.SyntheticImpl{}, err
	}
	self, err := classThisType(c, class)
	if err != nil {
		return hir.SyntheticImpl{}, err
	}

	inner, err := InnerDeclarationIds(c, class)
	if err != nil {
		return hir.SyntheticImpl{}, err
	}
	var result hir.Expression
	for _, member := range inner {
		if !member.IsProperty() {
			continue
		}
		p, err := propertyHir(c, member)
		if err != nil {
			return hir.SyntheticImpl{}, err
		}
		if p.IsStatic {
			continue
		}
		eq := &hir.Binary{
			Operator:  "==",
			Left:      &hir.PropertyReference{Property: member, Receiver: &hir.ThisReference{ValueType: self}, ValueType: p.Type},
			Right:     &hir.PropertyReference{Property: member, Receiver: &hir.ParameterReference{Name: otherParam, ValueType: self}, ValueType: p.Type},
			ValueType: boolType,
		}
		if result == nil {
			result = eq
		} else {
			result = &hir.Binary{Operator: "&&", Left: result, Right: eq, ValueType: boolType}
		}
	}
	if result == nil {
		result = &hir.BoolLiteral{Value: true, ValueType: boolType}
	}

	method := &hir.Function{
		Id:         implId.Inner(ids.FunctionData{FunctionName: equalsMethod}),
		Name:       equalsMethod,
		Parameters: []hir.ValueParameter{{Name: otherParam, Type: self}},
		ReturnType: boolType,
		HasBody:    true,
	}
	impl := &hir.Impl{
		Id:                implId,
		TypeParameters:    params,
		Type:              self,
		Trait:             trait,
		InnerDeclarations: []ids.DeclarationId{method.Id},
		Origin:            ids.Synthetic,
	}
	return hir.SyntheticImpl{
		Impl: impl,
		Methods: []hir.SyntheticMethod{{
			Function: method,
			Body:     &hir.Body{Expressions: []hir.Expression{&hir.Return{Value: result}}},
		}},
	}, nil
}
