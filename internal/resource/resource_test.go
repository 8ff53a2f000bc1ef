package resource

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/query"
)

func newTestProvider(t *testing.T, files map[ids.ResourceId]string) *AFS {
	t.Helper()
	p := NewAFS("mem://localhost/" + uuid.NewString())
	ctx := context.Background()
	for id, content := range files {
		require.NoError(t, p.WriteResource(ctx, id, []byte(content)))
	}
	return p
}

func rid(pkg ids.PackageId, path string) ids.ResourceId { return ids.NewResourceId(pkg, path) }

// =============================================================================
// AFS provider
// =============================================================================

func TestAFS_Exists(t *testing.T) {
	p := newTestProvider(t, map[ids.ResourceId]string{
		rid("acme/shapes", "src/Shapes.candy"):         "declarations: []",
		rid("acme/shapes", "src/Geometry/Point.candy"): "declarations: []",
	})
	ctx := context.Background()

	ok, err := p.DoesResourceExist(ctx, rid("acme/shapes", "src/Shapes.candy"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.DoesResourceExist(ctx, rid("acme/shapes", "src/Geometry"))
	require.NoError(t, err)
	assert.False(t, ok, "directories are not file resources")

	ok, err = p.DoesResourceDirectoryExist(ctx, rid("acme/shapes", "src/Geometry"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.DoesResourceDirectoryExist(ctx, rid("acme/shapes", "src/Shapes.candy"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.DoesResourceExist(ctx, rid("acme/shapes", "src/Missing.candy"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAFS_GetAllFileResourceIds(t *testing.T) {
	p := newTestProvider(t, map[ids.ResourceId]string{
		rid("acme/shapes", "src/b.candy"):       "",
		rid("acme/shapes", "src/a.candy"):       "",
		rid("acme/shapes", "src/nested/c.candy"): "",
		rid("acme/other", "src/d.candy"):        "",
	})
	got, err := p.GetAllFileResourceIds(context.Background(), "acme/shapes")
	require.NoError(t, err)
	assert.Equal(t, []ids.ResourceId{
		rid("acme/shapes", "src/a.candy"),
		rid("acme/shapes", "src/b.candy"),
		rid("acme/shapes", "src/nested/c.candy"),
	}, got)

	got, err = p.GetAllFileResourceIds(context.Background(), "nobody/nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAFS_PackageRoot(t *testing.T) {
	root := "mem://localhost/" + uuid.NewString() + "/workspace"
	p := NewAFS("mem://localhost/"+uuid.NewString(), WithPackageRoot("local", root))
	ctx := context.Background()
	require.NoError(t, p.WriteResource(ctx, rid("local", "src/module.candy"), []byte("x")))

	assert.Equal(t, root+"/src/module.candy", p.URL(rid("local", "src/module.candy")))
	data, err := p.ReadResource(ctx, rid("local", "src/module.candy"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	_, err = p.ReadResource(ctx, rid("local", "src/none.candy"))
	assert.Error(t, err)
}

// =============================================================================
// Manifest
// =============================================================================

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(`
name: acme/shapes
version: 1.2.0
dependencies:
  acme/geometry: v0.3.1
  acme/text: ""
`))
	require.NoError(t, err)
	assert.Equal(t, "acme/shapes", m.Name)
	assert.Equal(t, "v1.2.0", m.Version)
	assert.Equal(t, []ids.PackageId{"acme/geometry", "acme/text"}, m.DependencyIds())
}

func TestParseManifest_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "name: a\nauthor: me\n",
		"missing name":   "version: v1.0.0\n",
		"bad version":    "name: a\nversion: one\n",
		"bad dependency": "name: a\ndependencies:\n  b: latest\n",
		"self":           "name: a\ndependencies:\n  a: v1.0.0\n",
		"empty":          "",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestManifest_EncodeRoundTrip(t *testing.T) {
	m := &Manifest{Name: "acme/shapes", Version: "v1.0.0", Dependencies: map[string]string{"acme/geometry": "v0.1.0"}}
	data, err := m.Encode()
	require.NoError(t, err)
	got, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

// =============================================================================
// Queries
// =============================================================================

func newTestContext(t *testing.T, p Provider) *query.Context {
	t.Helper()
	c := query.NewContext()
	require.NoError(t, Register(c, p))
	return c
}

func TestQueries_ExistenceIsEvaluateAlways(t *testing.T) {
	p := newTestProvider(t, nil)
	c := newTestContext(t, p)
	id := rid("acme/shapes", "src/Late.candy")

	ok, err := Exists(c, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.WriteResource(context.Background(), id, []byte("")))
	ok, err = Exists(c, id)
	require.NoError(t, err)
	assert.True(t, ok, "a resource added mid-session is observed")

	ok, err = DirectoryExists(c, rid("acme/shapes", "src"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQueries_AllDependencies(t *testing.T) {
	p := newTestProvider(t, map[ids.ResourceId]string{
		rid("app", ids.ManifestName):         "name: app\ndependencies:\n  acme/a: v1.0.0\n  acme/b: v1.0.0\n",
		rid("acme/a", ids.ManifestName):      "name: acme/a\ndependencies:\n  acme/c: v1.0.0\n",
		rid("acme/b", ids.ManifestName):      "name: acme/b\ndependencies:\n  acme/c: v1.0.0\n  app: v0.0.1\n",
		rid("acme/c", ids.ManifestName):      "name: acme/c\n",
		rid(ids.CorePackage, ids.ManifestName): "name: candy/core\n",
	})
	c := newTestContext(t, p)

	direct, err := Dependencies(c, "app")
	require.NoError(t, err)
	assert.Equal(t, []ids.PackageId{"acme/a", "acme/b", ids.CorePackage}, direct)

	all, err := AllDependencies(c, "app")
	require.NoError(t, err)
	assert.Equal(t, []ids.PackageId{"acme/a", "acme/b", ids.CorePackage, "acme/c"}, all)

	core, err := Dependencies(c, ids.CorePackage)
	require.NoError(t, err)
	assert.Empty(t, core)

	m, err := GetManifest(c, "no/manifest")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestQueries_InvalidManifestFails(t *testing.T) {
	p := newTestProvider(t, map[ids.ResourceId]string{
		rid("app", ids.ManifestName): "name: app\nbogus: true\n",
	})
	c := newTestContext(t, p)
	_, err := AllDependencies(c, "app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "candyspec.yml")
}
