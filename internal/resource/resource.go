// Package resource gives the semantic core its view of package contents:
// which files and directories exist, what files a package holds and what a
// package's manifest declares.
package resource

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"

	"github.com/jward/candyc/internal/ids"
)

// Provider answers questions about the resource tree. Implementations
// reflect the current state of storage on every call.
type Provider interface {
	DoesResourceExist(ctx context.Context, id ids.ResourceId) (bool, error)
	DoesResourceDirectoryExist(ctx context.Context, id ids.ResourceId) (bool, error)
	// GetAllFileResourceIds lists every file of a package in path order. An
	// unknown package has no files.
	GetAllFileResourceIds(ctx context.Context, pkg ids.PackageId) ([]ids.ResourceId, error)
	ReadResource(ctx context.Context, id ids.ResourceId) ([]byte, error)
}

// AFS is a Provider over an afs storage service. Each package lives under
// its own root URL, by default <baseURL>/<package id>.
type AFS struct {
	fs      afs.Service
	baseURL string
	roots   map[ids.PackageId]string
}

// Option configures an AFS provider.
type Option func(*AFS)

// WithPackageRoot places pkg at URL instead of below the base URL.
func WithPackageRoot(pkg ids.PackageId, URL string) Option {
	return func(a *AFS) {
		a.roots[pkg] = strings.TrimSuffix(URL, "/")
	}
}

// WithService sets the storage service. Defaults to afs.New().
func WithService(fs afs.Service) Option {
	return func(a *AFS) {
		a.fs = fs
	}
}

// NewAFS returns a provider rooted at baseURL, e.g. "file:///work/packages"
// or "mem://localhost/packages".
func NewAFS(baseURL string, opts ...Option) *AFS {
	a := &AFS{
		fs:      afs.New(),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		roots:   make(map[ids.PackageId]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Root returns the root URL of pkg.
func (a *AFS) Root(pkg ids.PackageId) string {
	if root, ok := a.roots[pkg]; ok {
		return root
	}
	return url.Join(a.baseURL, string(pkg))
}

// URL returns the storage URL of id.
func (a *AFS) URL(id ids.ResourceId) string {
	if id.Path == "" {
		return a.Root(id.Package)
	}
	return url.Join(a.Root(id.Package), id.Path)
}

func (a *AFS) DoesResourceExist(ctx context.Context, id ids.ResourceId) (bool, error) {
	return a.exists(ctx, id, false)
}

func (a *AFS) DoesResourceDirectoryExist(ctx context.Context, id ids.ResourceId) (bool, error) {
	return a.exists(ctx, id, true)
}

func (a *AFS) exists(ctx context.Context, id ids.ResourceId, dir bool) (bool, error) {
	URL := a.URL(id)
	ok, err := a.fs.Exists(ctx, URL)
	if err != nil {
		return false, fmt.Errorf("resource: stat %s: %w", URL, err)
	}
	if !ok {
		return false, nil
	}
	object, err := a.fs.Object(ctx, URL)
	if err != nil {
		return false, fmt.Errorf("resource: stat %s: %w", URL, err)
	}
	return object.IsDir() == dir, nil
}

func (a *AFS) GetAllFileResourceIds(ctx context.Context, pkg ids.PackageId) ([]ids.ResourceId, error) {
	root := a.Root(pkg)
	ok, err := a.fs.Exists(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("resource: stat %s: %w", root, err)
	}
	if !ok {
		return nil, nil
	}
	objects, err := a.fs.List(ctx, root, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("resource: list %s: %w", root, err)
	}
	rootPath := strings.TrimSuffix(url.Path(root), "/")
	var out []ids.ResourceId
	seen := make(map[string]bool)
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		rel := strings.TrimPrefix(url.Path(object.URL()), rootPath)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true
		out = append(out, ids.NewResourceId(pkg, rel))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (a *AFS) ReadResource(ctx context.Context, id ids.ResourceId) ([]byte, error) {
	URL := a.URL(id)
	data, err := a.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", URL, err)
	}
	return data, nil
}

// WriteResource stores data at id, creating parent directories.
func (a *AFS) WriteResource(ctx context.Context, id ids.ResourceId, data []byte) error {
	URL := a.URL(id)
	if err := a.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("resource: write %s: %w", URL, err)
	}
	return nil
}
