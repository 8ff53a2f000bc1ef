package ids

import (
	"fmt"
	"strings"
)

// ModuleId names a logical module namespace: a package plus nested module
// names. It is coarser than DeclarationId and may name modules that no
// declaration backs.
type ModuleId struct {
	Package PackageId
	Path    []string
}

// NewModuleId builds a normalized module id.
func NewModuleId(pkg PackageId, path ...string) ModuleId {
	return ModuleId{Package: pkg, Path: path}.Normalize()
}

// Normalize trims names and drops empty ones.
func (m ModuleId) Normalize() ModuleId {
	out := make([]string, 0, len(m.Path))
	for _, name := range m.Path {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return ModuleId{Package: PackageId(strings.TrimSpace(string(m.Package))), Path: out}
}

// Child returns the nested module name below m.
func (m ModuleId) Child(name ...string) ModuleId {
	p := make([]string, 0, len(m.Path)+len(name))
	p = append(p, m.Path...)
	p = append(p, name...)
	return ModuleId{Package: m.Package, Path: p}
}

// Parent drops the last name; ok is false for a package root.
func (m ModuleId) Parent() (ModuleId, bool) {
	if len(m.Path) == 0 {
		return m, false
	}
	return ModuleId{Package: m.Package, Path: m.Path[:len(m.Path)-1 : len(m.Path)-1]}, true
}

// IsRoot reports whether m is the package's root module.
func (m ModuleId) IsRoot() bool { return len(m.Path) == 0 }

// Equal reports structural equality.
func (m ModuleId) Equal(other ModuleId) bool {
	if m.Package != other.Package || len(m.Path) != len(other.Path) {
		return false
	}
	for i := range m.Path {
		if m.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}

func (m ModuleId) Key() string {
	return string(m.Package) + ":" + strings.Join(m.Path, ".")
}

func (m ModuleId) String() string { return m.Key() }

// ParseModuleId parses "package:A.B.C".
func ParseModuleId(s string) (ModuleId, error) {
	pkg, rest, ok := strings.Cut(s, ":")
	if !ok || pkg == "" {
		return ModuleId{}, fmt.Errorf("ids: invalid module id %q: missing package", s)
	}
	var path []string
	if rest != "" {
		path = strings.Split(rest, ".")
	}
	return NewModuleId(PackageId(pkg), path...), nil
}
