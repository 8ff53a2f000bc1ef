package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

const pkg = "acme/shapes"

// shapesSnapshot is a small package: a module with a class, a synthetic
// impl of Equals on it and a function.
func shapesSnapshot(hash string) *PackageSnapshot {
	root := pkg + ":src/shapes.candy#"
	class := root + "Class:Point@0"
	impl := class + "/Impl:Equals@0!synthetic"
	return &PackageSnapshot{
		Package: pkg,
		Resources: []ResourceSnapshot{{
			Resource: Resource{Path: "src/shapes.candy", Hash: hash, LastIndexed: time.Now().Truncate(time.Second)},
			Declarations: []Declaration{
				{Key: root, Kind: "Module", Origin: "source", SignatureHash: "m"},
				{Key: class, Kind: "Class", Name: "Point", ParentKey: ptr(root), Origin: "source",
					Modifiers: []string{"data"}, SignatureHash: hash, StartLine: 3, StartCol: 1},
				{Key: impl, Kind: "Impl", Name: "Equals", ParentKey: ptr(class), Origin: "synthetic", SignatureHash: "i"},
				{Key: root + "Function:area@0", Kind: "Function", Name: "area", ParentKey: ptr(root), Origin: "source", SignatureHash: "f"},
			},
			Impls: []Impl{{
				DeclarationKey:      impl,
				TypeKey:             class,
				TypeDeclarationKey:  ptr(class),
				TraitKey:            ptr("acme/core:src/module.candy#Trait:Equals@0"),
				TraitDeclarationKey: ptr("acme/core:src/module.candy#Trait:Equals@0"),
			}},
		}},
	}
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"resources", "declarations", "impls", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// Package replacement
// =============================================================================

func TestReplacePackage_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ReplacePackage(shapesSnapshot("h1")))

	got, err := s.DeclarationByKey(pkg + ":src/shapes.candy#Class:Point@0")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Class", got.Kind)
	assert.Equal(t, "Point", got.Name)
	assert.Equal(t, pkg, got.Package)
	assert.Equal(t, []string{"data"}, got.Modifiers)
	assert.Equal(t, "h1", got.SignatureHash)
	assert.Equal(t, 3, got.StartLine)
	require.NotNil(t, got.ParentKey)
	assert.Equal(t, pkg+":src/shapes.candy#", *got.ParentKey)

	r, err := s.ResourceByPath(pkg, "src/shapes.candy")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, r.ID, got.ResourceID)
	assert.Equal(t, "h1", r.Hash)
}

func TestReplacePackage_ReplacesPreviousRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ReplacePackage(shapesSnapshot("h1")))

	next := shapesSnapshot("h2")
	next.Resources[0].Declarations = next.Resources[0].Declarations[:3]
	require.NoError(t, s.ReplacePackage(next))

	decls, err := s.DeclarationsByPackage(pkg)
	require.NoError(t, err)
	assert.Len(t, decls, 3)

	fn, err := s.DeclarationByKey(pkg + ":src/shapes.candy#Function:area@0")
	require.NoError(t, err)
	assert.Nil(t, fn)
}

func TestReplacePackage_LeavesOtherPackages(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ReplacePackage(shapesSnapshot("h1")))
	require.NoError(t, s.ReplacePackage(&PackageSnapshot{
		Package: "acme/other",
		Resources: []ResourceSnapshot{{
			Resource:     Resource{Path: "src/other.candy"},
			Declarations: []Declaration{{Key: "acme/other:src/other.candy#", Kind: "Module", Origin: "source"}},
		}},
	}))

	decls, err := s.DeclarationsByPackage(pkg)
	require.NoError(t, err)
	assert.Len(t, decls, 4)
}

func TestReplacePackage_DanglingImplRollsBack(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ReplacePackage(shapesSnapshot("h1")))

	bad := shapesSnapshot("h2")
	bad.Resources[0].Impls[0].DeclarationKey = "acme/shapes:src/shapes.candy#Impl:Missing@0"
	err := s.ReplacePackage(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no declaration row")

	hashes, err := s.SignatureHashes(pkg)
	require.NoError(t, err)
	assert.Equal(t, "h1", hashes[pkg+":src/shapes.candy#Class:Point@0"])
}

func TestDeletePackage(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ReplacePackage(shapesSnapshot("h1")))
	require.NoError(t, s.DeletePackage(pkg))

	decls, err := s.DeclarationsByPackage(pkg)
	require.NoError(t, err)
	assert.Empty(t, decls)
	impls, err := s.ImplsForTarget(pkg + ":src/shapes.candy#Class:Point@0")
	require.NoError(t, err)
	assert.Empty(t, impls)
}

// =============================================================================
// Lookups
// =============================================================================

func TestDeclarationByKey_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	got, err := s.DeclarationByKey("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeclarationsByKind(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ReplacePackage(shapesSnapshot("h1")))

	impls, err := s.DeclarationsByKind("Impl")
	require.NoError(t, err)
	require.Len(t, impls, 1)
	assert.Equal(t, "synthetic", impls[0].Origin)
	assert.Nil(t, impls[0].Modifiers)
}

func TestDeclarationChildren(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ReplacePackage(shapesSnapshot("h1")))

	children, err := s.DeclarationChildren(pkg + ":src/shapes.candy#")
	require.NoError(t, err)
	var names []string
	for _, d := range children {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Point", "area"}, names)
}

func TestImplsForTarget(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ReplacePackage(shapesSnapshot("h1")))

	byClass, err := s.ImplsForTarget(pkg + ":src/shapes.candy#Class:Point@0")
	require.NoError(t, err)
	require.Len(t, byClass, 1)
	assert.Equal(t, pkg+":src/shapes.candy#Class:Point@0/Impl:Equals@0!synthetic", byClass[0].DeclarationKey)
	assert.Equal(t, pkg, byClass[0].Package)

	byTrait, err := s.ImplsForTarget("acme/core:src/module.candy#Trait:Equals@0")
	require.NoError(t, err)
	assert.Len(t, byTrait, 1)

	byType, err := s.ImplsForTypeKey(pkg + ":src/shapes.candy#Class:Point@0")
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	none, err := s.ImplsForTarget(pkg + ":src/shapes.candy#Function:area@0")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSignatureHashes(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ReplacePackage(shapesSnapshot("h1")))

	hashes, err := s.SignatureHashes(pkg)
	require.NoError(t, err)
	assert.Len(t, hashes, 4)
	assert.Equal(t, "f", hashes[pkg+":src/shapes.candy#Function:area@0"])
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, ok, err := s.Metadata("session")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetMetadata("session", "a"))
	require.NoError(t, s.SetMetadata("session", "b"))
	v, ok, err := s.Metadata("session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestSnapshotCount(t *testing.T) {
	t.Parallel()
	decls, impls := shapesSnapshot("h").Count()
	assert.Equal(t, 4, decls)
	assert.Equal(t, 1, impls)
}

// =============================================================================
// Signature hashing
// =============================================================================

func baseSignature() Signature {
	return Signature{
		Kind:           "Function",
		Name:           "area",
		Modifiers:      []string{"static", "builtin"},
		TypeParameters: []string{"T: Equals"},
		Parameters:     []string{"a: Int", "b: Int"},
		Result:         "Int",
		Members:        []string{"x", "y"},
	}
}

func TestSignatureHash_Deterministic(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ComputeSignatureHash(baseSignature()), ComputeSignatureHash(baseSignature()))
}

func TestSignatureHash_ModifierAndMemberOrderIgnored(t *testing.T) {
	t.Parallel()
	sig := baseSignature()
	sig.Modifiers = []string{"builtin", "static"}
	sig.Members = []string{"y", "x"}
	assert.Equal(t, ComputeSignatureHash(baseSignature()), ComputeSignatureHash(sig))
}

func TestSignatureHash_ParameterOrderMatters(t *testing.T) {
	t.Parallel()
	sig := baseSignature()
	sig.Parameters = []string{"b: Int", "a: Int"}
	assert.NotEqual(t, ComputeSignatureHash(baseSignature()), ComputeSignatureHash(sig))
}

func TestSignatureHash_ChangeResult(t *testing.T) {
	t.Parallel()
	sig := baseSignature()
	sig.Result = "Bool"
	assert.NotEqual(t, ComputeSignatureHash(baseSignature()), ComputeSignatureHash(sig))
}

func TestSignatureHash_ChangeName(t *testing.T) {
	t.Parallel()
	sig := baseSignature()
	sig.Name = "perimeter"
	assert.NotEqual(t, ComputeSignatureHash(baseSignature()), ComputeSignatureHash(sig))
}
