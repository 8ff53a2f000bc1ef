package candyc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/queries"
	"github.com/jward/candyc/internal/resource"
)

const shapes ids.PackageId = "acme/shapes"

const coreSource = `
declarations:
  - class: Bool
  - class: Int
  - trait: Equals
    members:
      - function: equals
        parameters: ["other: Self"]
        returns: Bool
`

const shapesSource = `
declarations:
  - class: Point
    data: true
    members:
      - property: x
        type: Int
      - property: y
        type: Int
  - function: area
    returns: Int
    body: [1]
  - module: Inner
    members:
      - function: two
        returns: Int
        body: [2]
`

const geometrySource = `
use: [.Inner]
declarations:
  - function: viaImport
    returns: Int
    body: [{call: {nav: Inner, name: two}, args: []}]
`

const brokenSource = `
declarations:
  - property: missing
`

func res(path string) ids.ResourceId { return ids.NewResourceId(shapes, path) }

var (
	root  = ids.RootOf(res("src/module.candy"))
	point = root.Inner(ids.ClassData{ClassName: "Point"})
	area  = root.Inner(ids.FunctionData{FunctionName: "area"})
)

func newProvider(t *testing.T, files map[ids.ResourceId]string) *resource.AFS {
	t.Helper()
	p := resource.NewAFS("mem://localhost/" + uuid.NewString())
	write(t, p, files)
	return p
}

func write(t *testing.T, p *resource.AFS, files map[ids.ResourceId]string) {
	t.Helper()
	for id, content := range files {
		require.NoError(t, p.WriteResource(context.Background(), id, []byte(content)))
	}
}

func baseFiles() map[ids.ResourceId]string {
	return map[ids.ResourceId]string{
		ids.NewResourceId(ids.CorePackage, "src/module.candy"): coreSource,
		res("src/module.candy"):                                shapesSource,
		res("src/Geometry.candy"):                              geometrySource,
	}
}

func newTestSession(t *testing.T, p resource.Provider, opts ...Option) *Session {
	t.Helper()
	s, err := New(p, nil, shapes, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_RegistersQueries(t *testing.T) {
	s := newTestSession(t, newProvider(t, baseFiles()))
	for _, name := range []string{
		queries.GetAst, queries.GetAllDependencies, queries.ResolveUseLine,
		queries.GetDeclarationHir, queries.GetAllImplsForType,
	} {
		assert.True(t, s.Query().Registered(name), name)
	}
	assert.Nil(t, s.Store())
	assert.Equal(t, shapes, s.Root())
}

func TestNew_WithStore(t *testing.T) {
	s := newTestSession(t, newProvider(t, baseFiles()), WithStore(filepath.Join(t.TempDir(), "candyc.db")))
	require.NotNil(t, s.Store())
}

func TestNew_InvalidStorePath(t *testing.T) {
	_, err := New(newProvider(t, baseFiles()), nil, shapes, WithStore("/nonexistent/dir/db.sqlite"))
	require.Error(t, err)
}

func TestClose_WithoutStore(t *testing.T) {
	s, err := New(newProvider(t, baseFiles()), nil, shapes)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

// =============================================================================
// Backend API
// =============================================================================

func TestSession_DeclarationHir(t *testing.T) {
	s := newTestSession(t, newProvider(t, baseFiles()))

	d, err := s.DeclarationHir(point)
	require.NoError(t, err)
	class, ok := d.(*hir.Class)
	require.True(t, ok)
	assert.True(t, class.IsData)
	assert.Len(t, class.DerivedImpls, 1)

	inner, err := s.InnerDeclarationIds(point)
	require.NoError(t, err)
	assert.Len(t, inner, 2)

	ok, err = s.DeclarationExists(class.DerivedImpls[0])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSession_FunctionBody(t *testing.T) {
	s := newTestSession(t, newProvider(t, baseFiles()))

	body, err := s.FunctionBody(area)
	require.NoError(t, err)
	require.NotNil(t, body)
	require.Len(t, body.Expressions, 1)
	lit, ok := body.Expressions[0].(*hir.IntLiteral)
	require.True(t, ok)
	assert.EqualValues(t, 1, lit.Value)
}

func TestSession_ModuleDeclarationId(t *testing.T) {
	s := newTestSession(t, newProvider(t, baseFiles()))

	id, ok, err := s.ModuleDeclarationId(ids.NewModuleId(shapes, "Inner"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, id.Equal(root.Inner(ids.ModuleData{ModuleName: "Inner"})))

	_, ok, err = s.ModuleDeclarationId(ids.NewModuleId(shapes, "Nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_ModuleDeclarationId_ObservesNewResources(t *testing.T) {
	p := newProvider(t, baseFiles())
	s := newTestSession(t, p)
	late := ids.RootOf(res("src/Late.candy"))

	exists, err := s.DeclarationExists(late)
	require.NoError(t, err)
	assert.False(t, exists)
	_, ok, err := s.ModuleDeclarationId(ids.NewModuleId(shapes, "Late"))
	require.NoError(t, err)
	assert.False(t, ok)

	write(t, p, map[ids.ResourceId]string{res("src/Late.candy"): "declarations: []\n"})

	exists, err = s.DeclarationExists(late)
	require.NoError(t, err)
	assert.True(t, exists)
	id, ok, err := s.ModuleDeclarationId(ids.NewModuleId(shapes, "Late"))
	require.NoError(t, err)
	require.True(t, ok, "module created after a failed lookup resolves")
	assert.True(t, id.Equal(late))

	m, ok, err := s.ResolveUseLine(res("src/Geometry.candy"), ".Late")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, m.Equal(ids.NewModuleId(shapes, "Late")))
}

func TestSession_ResolveUseLine(t *testing.T) {
	s := newTestSession(t, newProvider(t, baseFiles()))
	geometry := res("src/Geometry.candy")

	m, ok, err := s.ResolveUseLine(geometry, ".Inner")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, m.Equal(ids.NewModuleId(shapes, "Inner")))

	_, ok, err = s.ResolveUseLine(geometry, ".Nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.ResolveUseLine(geometry, "")
	require.Error(t, err)
}

func TestSession_Impls(t *testing.T) {
	s := newTestSession(t, newProvider(t, baseFiles()))

	byClass, err := s.ImplsForTraitOrClass(point)
	require.NoError(t, err)
	require.Len(t, byClass, 1)
	assert.True(t, byClass[0].IsSynthetic())

	byType, err := s.ImplsForType(&hir.UserType{Declaration: point})
	require.NoError(t, err)
	assert.Len(t, byType, 1)
}

func TestSession_Packages(t *testing.T) {
	s := newTestSession(t, newProvider(t, baseFiles()))
	pkgs, err := s.Packages()
	require.NoError(t, err)
	assert.Equal(t, []ids.PackageId{shapes, ids.CorePackage}, pkgs)
}
