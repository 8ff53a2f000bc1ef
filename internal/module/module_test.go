package module

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/candyc/internal/ast"
	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/queries"
	"github.com/jward/candyc/internal/query"
	"github.com/jward/candyc/internal/resource"
	"github.com/jward/candyc/internal/syntax"
)

type fixture struct {
	files *resource.AFS
	c     *query.Context
}

// newFixture wires the module queries over an in-memory package tree. The
// declaration existence query is a minimal stand-in that only follows
// explicit module declarations.
func newFixture(t *testing.T, files map[ids.ResourceId]string) *fixture {
	t.Helper()
	p := resource.NewAFS("mem://localhost/" + uuid.NewString())
	for id, content := range files {
		require.NoError(t, p.WriteResource(context.Background(), id, []byte(content)))
	}
	c := query.NewContext()
	require.NoError(t, resource.Register(c, p))
	require.NoError(t, ast.Register(c, syntax.NewYAMLProvider(p)))
	require.NoError(t, Register(c))
	query.MustRegister(c, queries.DoesDeclarationExist, func(qc *query.Context, id ids.DeclarationId) (bool, error) {
		ok, err := resource.Exists(qc, id.Resource)
		if err != nil || !ok {
			return false, err
		}
		f, err := ast.Get(qc, id.Resource)
		if err != nil {
			return false, err
		}
		decls := f.Declarations
	next:
		for _, seg := range id.Path {
			for _, d := range decls {
				if d.Kind() == ids.KindModule && d.DeclName() == seg.Data.Name() {
					decls = d.Children()
					continue next
				}
			}
			return false, nil
		}
		return true, nil
	}, query.EvaluateAlways())
	return &fixture{files: p, c: c}
}

func res(path string) ids.ResourceId { return ids.NewResourceId("acme/shapes", path) }

func mod(path ...string) ids.ModuleId { return ids.NewModuleId("acme/shapes", path...) }

const empty = "declarations: []\n"

// =============================================================================
// moduleIdToDeclarationId
// =============================================================================

func TestModuleIdToDeclarationId(t *testing.T) {
	f := newFixture(t, map[ids.ResourceId]string{
		res("src/module.candy"):          empty,
		res("src/Shapes.candy"):          "declarations:\n  - module: Inner\n    members:\n      - module: Deep\n",
		res("src/Geometry/module.candy"): empty,
		res("src/Geometry/Point.candy"):  empty,
		res("src/Text/Format.candy"):     empty,
		res("src/Loose.candy"):           empty,
		res("src/Loose/Part.candy"):      empty,
	})

	tests := []struct {
		name   string
		module ids.ModuleId
		want   ids.DeclarationId
	}{
		{"package root", mod(), ids.RootOf(res("src/module.candy"))},
		{"file module", mod("Shapes"), ids.RootOf(res("src/Shapes.candy"))},
		{"inner module", mod("Shapes", "Inner"), ids.RootOf(res("src/Shapes.candy")).Inner(ids.ModuleData{ModuleName: "Inner"})},
		{"nested inner module", mod("Shapes", "Inner", "Deep"),
			ids.RootOf(res("src/Shapes.candy")).Inner(ids.ModuleData{ModuleName: "Inner"}).Inner(ids.ModuleData{ModuleName: "Deep"})},
		{"directory marker", mod("Geometry"), ids.RootOf(res("src/Geometry/module.candy"))},
		{"file in directory", mod("Geometry", "Point"), ids.RootOf(res("src/Geometry/Point.candy"))},
		{"file in markerless directory", mod("Text", "Format"), ids.RootOf(res("src/Text/Format.candy"))},
		{"file beside directory", mod("Loose"), ids.RootOf(res("src/Loose.candy"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := DeclarationOf(f.c, tt.module)
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestModuleIdToDeclarationId_NotFoundIsNotAnError(t *testing.T) {
	f := newFixture(t, map[ids.ResourceId]string{
		res("src/Shapes.candy"):         empty,
		res("src/Geometry/Point.candy"): empty,
	})
	for _, m := range []ids.ModuleId{
		mod(),
		mod("Missing"),
		mod("Shapes", "Missing"),
		mod("Geometry"),
		mod("Geometry", "Point", "Deeper"),
		ids.NewModuleId("nobody/nothing", "X"),
	} {
		_, ok, err := DeclarationOf(f.c, m)
		require.NoError(t, err, m.String())
		assert.False(t, ok, m.String())
	}
}

func TestModuleIdToDeclarationId_ObservesNewResources(t *testing.T) {
	f := newFixture(t, nil)
	_, ok, err := DeclarationOf(f.c, mod("Late"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.files.WriteResource(context.Background(), res("src/Late.candy"), []byte(empty)))
	_, ok, err = DeclarationOf(f.c, mod("Late"))
	require.NoError(t, err)
	assert.True(t, ok, "not-found is not cached")
}

// =============================================================================
// declarationIdToModuleId
// =============================================================================

func TestDeclarationIdToModuleId(t *testing.T) {
	f := newFixture(t, nil)
	tests := []struct {
		id   ids.DeclarationId
		want ids.ModuleId
	}{
		{ids.RootOf(res("src/module.candy")), mod()},
		{ids.RootOf(res("src/Shapes.candy")), mod("Shapes")},
		{ids.RootOf(res("src/Geometry/module.candy")), mod("Geometry")},
		{ids.RootOf(res("src/Geometry/Point.candy")).Inner(ids.ModuleData{ModuleName: "Polar"}), mod("Geometry", "Point", "Polar")},
	}
	for _, tt := range tests {
		got, err := ModuleIdOf(f.c, tt.id)
		require.NoError(t, err)
		assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
	}
}

func TestDeclarationIdToModuleId_RejectsNonModules(t *testing.T) {
	f := newFixture(t, nil)
	_, err := ModuleIdOf(f.c, ids.RootOf(res("src/Shapes.candy")).Inner(ids.ClassData{ClassName: "Point"}))
	require.Error(t, err)
	assert.True(t, diag.IsInternal(err))

	_, err = ModuleIdOf(f.c, ids.RootOf(res(ids.ManifestName)))
	assert.True(t, diag.IsInternal(err))
}

func TestRoundTrip_ModuleAndDeclaration(t *testing.T) {
	f := newFixture(t, map[ids.ResourceId]string{
		res("src/Geometry/Point.candy"): "declarations:\n  - module: Polar\n",
	})
	m := mod("Geometry", "Point", "Polar")
	id, ok, err := DeclarationOf(f.c, m)
	require.NoError(t, err)
	require.True(t, ok)
	back, err := ModuleIdOf(f.c, id)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))
}

// =============================================================================
// Use-lines
// =============================================================================

func TestResolveUseLine(t *testing.T) {
	importer := res("src/Geometry/Point.candy")
	f := newFixture(t, map[ids.ResourceId]string{
		res(ids.ManifestName):           "name: acme/shapes\ndependencies:\n  acme/text: v1.0.0\n",
		importer:                        empty,
		res("src/Geometry/Line.candy"):  empty,
		res("src/Colors.candy"):         empty,
		ids.NewResourceId("acme/text", "src/module.candy"): "declarations:\n  - module: Format\n",
		ids.NewResourceId("acme/text", "src/Style.candy"):  empty,
	})

	tests := []struct {
		target string
		want   ids.ModuleId
	}{
		{".Line", mod("Geometry", "Line")},
		{"..Colors", mod("Colors")},
		{"Colors", mod("Colors")},
		{"Geometry.Line", mod("Geometry", "Line")},
		{"text.Style", ids.NewModuleId("acme/text", "Style")},
		{"acme/text.Format", ids.NewModuleId("acme/text", "Format")},
		{"acme/text", ids.NewModuleId("acme/text")},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			target, err := syntax.ParseUseTarget(tt.target)
			require.NoError(t, err)
			got, ok, err := ResolveUseLine(f.c, importer, target)
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}

	for _, unresolved := range []string{".Colors", "....TooFar", "Nope", "acme/text.Nope", "text.Nope"} {
		target, err := syntax.ParseUseTarget(unresolved)
		require.NoError(t, err)
		_, ok, err := ResolveUseLine(f.c, importer, target)
		require.NoError(t, err)
		assert.False(t, ok, unresolved)
	}

	_, ok, err := ResolveUseLine(f.c, importer, syntax.LocalAbsolute{})
	require.NoError(t, err)
	assert.False(t, ok, "empty absolute path")
}

func TestGetUseLines(t *testing.T) {
	f := newFixture(t, map[ids.ResourceId]string{
		res("src/A.candy"):   "use: [.B, acme/text.Format]\n",
		res("src/Bad.candy"): "use: [\"not a target\"]\n",
	})
	lines, err := UseLines(f.c, res("src/A.candy"))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, syntax.LocalRelative{Path: []string{"B"}}, lines[0].Target)
	assert.Equal(t, syntax.Global{Package: "acme/text", Path: []string{"Format"}}, lines[1].Target)

	_, err = UseLines(f.c, res("src/Bad.candy"))
	require.Error(t, err)
	ce, ok := diag.AsCompilerError(err)
	require.True(t, ok)
	assert.Equal(t, diag.InvalidUseLine, ce.Kind)
	assert.Equal(t, 1, ce.Location.Span.Line)
}
