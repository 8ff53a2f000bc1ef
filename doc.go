// Package candyc is the semantic core of the Candy compiler front end. It
// turns the syntax trees of a package and its dependencies into a
// high-level intermediate representation (HIR) through demand-driven,
// memoized queries.
//
// # Pipeline
//
// Every fact is a query result computed on first use and cached for the
// lifetime of a [Session]:
//
//  1. Resources: package files and candyspec.yml manifests are read
//     through a resource provider (afs backed, file:// or mem://).
//
//  2. Modules: module paths map to declaration addresses, and use-lines
//     resolve relative to the importing module, then across packages.
//
//  3. Lowering: each declaration is addressed by a stable id, lowered to
//     HIR on demand, and data classes gain a synthetic Equals impl.
//
// # Usage
//
//	p := resource.NewAFS("file:///path/to/packages")
//	s, err := candyc.New(p, nil, "acme/shapes", candyc.WithStore("candyc.db"))
//	if err != nil { ... }
//	defer s.Close()
//
//	report, err := s.Index(ctx)
//	decl, err := s.DeclarationHir(id)
//
// # Index
//
// [Session.Index] lowers every declaration and writes a SQLite index of
// declarations and impls. User-facing errors are collected as diagnostics.
// The report lists declarations whose signature hash changed since the
// previous run. Inserting a declaration before a same-named sibling
// renumbers the sibling, which shows up as one removed and one added key.
package candyc
