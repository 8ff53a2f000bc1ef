package candyc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/lowering"
	"github.com/jward/candyc/internal/module"
	"github.com/jward/candyc/internal/query"
	"github.com/jward/candyc/internal/resource"
	"github.com/jward/candyc/internal/store"
	"github.com/jward/candyc/internal/syntax"
)

// Session owns one query context over a package and its dependencies. It
// is not safe for concurrent use.
type Session struct {
	ctx       *query.Context
	root      ids.PackageId
	resources resource.Provider
	logger    *slog.Logger

	dbPath string
	store  *store.Store
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for query tracing and indexing. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore backs Index with a SQLite database at path.
func WithStore(path string) Option {
	return func(s *Session) {
		s.dbPath = path
	}
}

// New creates a Session compiling root with resources read through
// resources and syntax trees produced by asts. When asts is nil the YAML
// syntax tree reader over resources is used.
func New(resources resource.Provider, asts ast.Provider, root ids.PackageId, opts ...Option) (*Session, error) {
	s := &Session{root: root, resources: resources, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if asts == nil {
		asts = syntax.NewYAMLProvider(resources)
	}

	s.ctx = query.NewContext(query.WithLogger(s.logger))
	if err := resource.Register(s.ctx, resources); err != nil {
		return nil, fmt.Errorf("candyc: register resources: %w", err)
	}
	if err := ast.Register(s.ctx, asts); err != nil {
		return nil, fmt.Errorf("candyc: register syntax: %w", err)
	}
	if err := module.Register(s.ctx); err != nil {
		return nil, fmt.Errorf("candyc: register modules: %w", err)
	}
	if err := lowering.Register(s.ctx, root); err != nil {
		return nil, fmt.Errorf("candyc: register lowering: %w", err)
	}

	if s.dbPath != "" {
		st, err := store.NewStore(s.dbPath)
		if err != nil {
			return nil, fmt.Errorf("candyc: create store: %w", err)
		}
		if err := st.Migrate(); err != nil {
			st.Close()
			return nil, fmt.Errorf("candyc: migrate: %w", err)
		}
		s.store = st
	}
	return s, nil
}

// Close releases the Session's database resources, if any.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Root returns the package the Session compiles.
func (s *Session) Root() ids.PackageId { return s.root }

// Query returns the underlying query context.
func (s *Session) Query() *QueryContext { return s.ctx }

// Store returns the declaration index, or nil without WithStore.
func (s *Session) Store() *Store { return s.store }

// DeclarationHir lowers the declaration id.
func (s *Session) DeclarationHir(id DeclarationId) (Declaration, error) {
	return lowering.DeclarationHir(s.ctx, id)
}

// InnerDeclarationIds lists the direct children of id in source order.
func (s *Session) InnerDeclarationIds(id DeclarationId) ([]DeclarationId, error) {
	return lowering.InnerDeclarationIds(s.ctx, id)
}

// DeclarationExists reports whether id names a declaration.
func (s *Session) DeclarationExists(id DeclarationId) (bool, error) {
	return lowering.DeclarationExists(s.ctx, id)
}

// FunctionBody lowers the body of a function, getter or setter. It returns
// nil for declarations without a body.
func (s *Session) FunctionBody(id DeclarationId) (*hir.Body, error) {
	return lowering.FunctionBody(s.ctx, id)
}

// ResolveUseLine resolves the use-line target text as written in the
// resource r.
func (s *Session) ResolveUseLine(r ids.ResourceId, target string) (ModuleId, bool, error) {
	t, err := syntax.ParseUseTarget(target)
	if err != nil {
		return ModuleId{}, false, err
	}
	return module.ResolveUseLine(s.ctx, r, t)
}

// ModuleDeclarationId returns the declaration of the module m.
func (s *Session) ModuleDeclarationId(m ModuleId) (DeclarationId, bool, error) {
	return module.DeclarationOf(s.ctx, m)
}

// ImplsForTraitOrClass returns the impls whose trait or implementing type
// is the declaration id.
func (s *Session) ImplsForTraitOrClass(id DeclarationId) ([]DeclarationId, error) {
	return lowering.ImplsForTraitOrClass(s.ctx, id)
}

// ImplsForType returns the impls whose implementing type is exactly t.
func (s *Session) ImplsForType(t Type) ([]DeclarationId, error) {
	return lowering.ImplsForType(s.ctx, t)
}

// Packages returns the root package followed by its dependency closure.
func (s *Session) Packages() ([]ids.PackageId, error) {
	deps, err := resource.AllDependencies(s.ctx, s.root)
	if err != nil {
		return nil, err
	}
	return append([]ids.PackageId{s.root}, deps...), nil
}

// readResource reads r through the session's provider.
func (s *Session) readResource(ctx context.Context, r ids.ResourceId) ([]byte, error) {
	return s.resources.ReadResource(ctx, r)
}
