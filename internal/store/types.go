package store

import "time"

// Resource is one indexed source file.
type Resource struct {
	ID          int64
	Package     string
	Path        string
	Hash        string
	LastIndexed time.Time
}

// Declaration is one declaration row. Key is the textual declaration id and
// is unique across the index.
type Declaration struct {
	ID            int64
	ResourceID    int64
	Key           string
	Package       string
	Kind          string
	Name          string
	ParentKey     *string
	Origin        string
	Modifiers     []string
	SignatureHash string
	StartLine     int
	StartCol      int
}

// Impl records what an impl declaration implements. The *DeclarationKey
// fields are set when the type or trait names a declaration.
type Impl struct {
	ID                  int64
	DeclarationKey      string
	Package             string
	TypeKey             string
	TypeDeclarationKey  *string
	TraitKey            *string
	TraitDeclarationKey *string
}

// PackageSnapshot is the complete index content of one package.
type PackageSnapshot struct {
	Package   string
	Resources []ResourceSnapshot
}

// ResourceSnapshot groups the rows that belong to one resource. Every
// Impl's DeclarationKey must name a declaration of the same resource.
type ResourceSnapshot struct {
	Resource     Resource
	Declarations []Declaration
	Impls        []Impl
}

// Count returns the number of declarations and impls in the snapshot.
func (p *PackageSnapshot) Count() (declarations, impls int) {
	for _, r := range p.Resources {
		declarations += len(r.Declarations)
		impls += len(r.Impls)
	}
	return declarations, impls
}
