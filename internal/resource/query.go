package resource

import (
	"fmt"
	"slices"

	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/queries"
	"github.com/jward/candyc/internal/query"
)

// Register installs the resource queries backed by p. Queries that read
// storage are evaluate-always; the dependency graph derived from manifests
// is memoized for the session.
func Register(c *query.Context, p Provider) error {
	return registerAll(
		func() error {
			return query.Register(c, queries.DoesResourceExist, func(qc *query.Context, id ids.ResourceId) (bool, error) {
				return p.DoesResourceExist(qc.Context(), id)
			}, query.EvaluateAlways())
		},
		func() error {
			return query.Register(c, queries.DoesResourceDirectoryExist, func(qc *query.Context, id ids.ResourceId) (bool, error) {
				return p.DoesResourceDirectoryExist(qc.Context(), id)
			}, query.EvaluateAlways())
		},
		func() error {
			return query.Register(c, queries.GetAllFileResourceIds, func(qc *query.Context, pkg ids.PackageId) ([]ids.ResourceId, error) {
				return p.GetAllFileResourceIds(qc.Context(), pkg)
			}, query.EvaluateAlways())
		},
		func() error {
			return query.Register(c, queries.GetManifest, func(qc *query.Context, pkg ids.PackageId) (*Manifest, error) {
				return readManifest(qc, p, pkg)
			}, query.EvaluateAlways())
		},
		func() error {
			return query.Register(c, queries.GetDependencies, getDependencies)
		},
		func() error {
			return query.Register(c, queries.GetAllDependencies, getAllDependencies)
		},
	)
}

func registerAll(regs ...func() error) error {
	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}

// readManifest returns nil for packages without a manifest.
func readManifest(qc *query.Context, p Provider, pkg ids.PackageId) (*Manifest, error) {
	id := ids.NewResourceId(pkg, ids.ManifestName)
	ok, err := p.DoesResourceExist(qc.Context(), id)
	if err != nil || !ok {
		return nil, err
	}
	data, err := p.ReadResource(qc.Context(), id)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	if ids.PackageId(m.Name) != pkg {
		qc.Logger().Warn("manifest name differs from package id", "package", string(pkg), "name", m.Name)
	}
	return m, nil
}

// getDependencies returns the declared dependencies of pkg. Every package
// except the core package implicitly depends on it.
func getDependencies(qc *query.Context, pkg ids.PackageId) ([]ids.PackageId, error) {
	m, err := GetManifest(qc, pkg)
	if err != nil {
		return nil, err
	}
	var deps []ids.PackageId
	if m != nil {
		deps = m.DependencyIds()
	}
	if pkg != ids.CorePackage && !slices.Contains(deps, ids.CorePackage) {
		deps = append(deps, ids.CorePackage)
	}
	return deps, nil
}

// getAllDependencies walks dependencies breadth-first and returns every
// package reachable from pkg, excluding pkg itself. Dependency cycles
// between packages are tolerated.
func getAllDependencies(qc *query.Context, pkg ids.PackageId) ([]ids.PackageId, error) {
	seen := map[ids.PackageId]bool{pkg: true}
	var out []ids.PackageId
	queue := []ids.PackageId{pkg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		deps, err := Dependencies(qc, next)
		if err != nil {
			return nil, fmt.Errorf("dependencies of %s: %w", next, err)
		}
		for _, d := range deps {
			if seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
			queue = append(queue, d)
		}
	}
	return out, nil
}

// Exists reports whether the file resource id exists.
func Exists(c *query.Context, id ids.ResourceId) (bool, error) {
	return query.Call[bool](c, queries.DoesResourceExist, id)
}

// DirectoryExists reports whether the directory resource id exists.
func DirectoryExists(c *query.Context, id ids.ResourceId) (bool, error) {
	return query.Call[bool](c, queries.DoesResourceDirectoryExist, id)
}

// FileIds lists the files of pkg.
func FileIds(c *query.Context, pkg ids.PackageId) ([]ids.ResourceId, error) {
	return query.Call[[]ids.ResourceId](c, queries.GetAllFileResourceIds, pkg)
}

// GetManifest returns pkg's manifest, or nil when it has none.
func GetManifest(c *query.Context, pkg ids.PackageId) (*Manifest, error) {
	return query.Call[*Manifest](c, queries.GetManifest, pkg)
}

// Dependencies returns the direct dependencies of pkg.
func Dependencies(c *query.Context, pkg ids.PackageId) ([]ids.PackageId, error) {
	return query.Call[[]ids.PackageId](c, queries.GetDependencies, pkg)
}

// AllDependencies returns the dependency closure of pkg without pkg.
func AllDependencies(c *query.Context, pkg ids.PackageId) ([]ids.PackageId, error) {
	return query.Call[[]ids.PackageId](c, queries.GetAllDependencies, pkg)
}
