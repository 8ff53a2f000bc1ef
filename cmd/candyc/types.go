package main

import "github.com/jward/candyc/internal/store"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIDeclaration is a JSON-friendly declaration row.
type CLIDeclaration struct {
	Key           string   `json:"key"`
	Package       string   `json:"package"`
	Kind          string   `json:"kind"`
	Name          string   `json:"name,omitempty"`
	Parent        string   `json:"parent,omitempty"`
	Origin        string   `json:"origin"`
	Modifiers     []string `json:"modifiers,omitempty"`
	SignatureHash string   `json:"signature_hash"`
	StartLine     int      `json:"start_line"`
	StartCol      int      `json:"start_col"`
}

// CLIImpl is a JSON-friendly impl row.
type CLIImpl struct {
	Declaration string `json:"declaration"`
	Package     string `json:"package"`
	Type        string `json:"type"`
	Trait       string `json:"trait,omitempty"`
}

// CLIHir is a lowered declaration with its optional body.
type CLIHir struct {
	Declaration string `json:"declaration"`
	Kind        string `json:"kind"`
	Hir         any    `json:"hir"`
	Body        any    `json:"body,omitempty"`
}

// CLIModule is the result of resolving a module path or use-line.
type CLIModule struct {
	Module      string `json:"module"`
	Declaration string `json:"declaration,omitempty"`
	Found       bool   `json:"found"`
}

func declarationToCLI(d *store.Declaration) CLIDeclaration {
	c := CLIDeclaration{
		Key:           d.Key,
		Package:       d.Package,
		Kind:          d.Kind,
		Name:          d.Name,
		Origin:        d.Origin,
		Modifiers:     d.Modifiers,
		SignatureHash: d.SignatureHash,
		StartLine:     d.StartLine,
		StartCol:      d.StartCol,
	}
	if d.ParentKey != nil {
		c.Parent = *d.ParentKey
	}
	return c
}

func declarationsToCLI(decls []*store.Declaration) []CLIDeclaration {
	out := make([]CLIDeclaration, 0, len(decls))
	for _, d := range decls {
		out = append(out, declarationToCLI(d))
	}
	return out
}

func implsToCLI(impls []*store.Impl) []CLIImpl {
	out := make([]CLIImpl, 0, len(impls))
	for _, i := range impls {
		c := CLIImpl{Declaration: i.DeclarationKey, Package: i.Package, Type: i.TypeKey}
		if i.TraitKey != nil {
			c.Trait = *i.TraitKey
		}
		out = append(out, c)
	}
	return out
}
