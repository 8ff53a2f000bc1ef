// Package ids holds the value types that address resources, declarations
// and modules. All types are immutable values compared by structure; each
// implements query.Input so it can key memoized queries.
package ids

import (
	"fmt"
	"path"
	"strings"
)

// Layout conventions of a package on disk.
const (
	SourceDirectory = "src"
	FileExtension   = ".candy"
	ModuleFileName  = "module" + FileExtension
	ManifestName    = "candyspec.yml"
)

// PackageId identifies a package, either "publisher/name" for published
// packages or a bare name for local ones.
type PackageId string

// CorePackage hosts the builtin traits and types.
const CorePackage PackageId = "candy/core"

func (p PackageId) Key() string { return string(p) }

func (p PackageId) String() string { return string(p) }

// Publisher returns the part before the slash, or "" for local packages.
func (p PackageId) Publisher() string {
	if i := strings.IndexByte(string(p), '/'); i >= 0 {
		return string(p[:i])
	}
	return ""
}

// Name returns the part after the slash.
func (p PackageId) Name() string {
	if i := strings.IndexByte(string(p), '/'); i >= 0 {
		return string(p[i+1:])
	}
	return string(p)
}

// ResourceId identifies one source file or virtual resource inside a
// package. Path is slash-separated and relative to the package root.
type ResourceId struct {
	Package PackageId
	Path    string
}

// NewResourceId cleans p before building the id.
func NewResourceId(pkg PackageId, p string) ResourceId {
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if p == "." {
		p = ""
	}
	return ResourceId{Package: pkg, Path: p}
}

func (r ResourceId) Key() string { return string(r.Package) + ":" + r.Path }

func (r ResourceId) String() string { return r.Key() }

// Dir returns the resource's directory.
func (r ResourceId) Dir() ResourceId {
	d := path.Dir(r.Path)
	if d == "." {
		d = ""
	}
	return ResourceId{Package: r.Package, Path: d}
}

// Join returns the resource at elem below r.
func (r ResourceId) Join(elem ...string) ResourceId {
	return NewResourceId(r.Package, path.Join(append([]string{r.Path}, elem...)...))
}

// IsSourceFile reports whether r names a source file.
func (r ResourceId) IsSourceFile() bool {
	return strings.HasSuffix(r.Path, FileExtension)
}

// ParseResourceId parses the "package:path" form produced by Key.
func ParseResourceId(s string) (ResourceId, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return ResourceId{}, fmt.Errorf("ids: invalid resource id %q: missing package", s)
	}
	return NewResourceId(PackageId(s[:i]), s[i+1:]), nil
}
