package ids

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jward/candyc/internal/diag"
)

// Kind is the variant tag of a declaration path segment.
type Kind int

const (
	KindModule Kind = iota
	KindTrait
	KindImpl
	KindClass
	KindConstructor
	KindFunction
	KindProperty
	KindGetter
	KindSetter
)

var kindNames = [...]string{
	KindModule:      "Module",
	KindTrait:       "Trait",
	KindImpl:        "Impl",
	KindClass:       "Class",
	KindConstructor: "Constructor",
	KindFunction:    "Function",
	KindProperty:    "Property",
	KindGetter:      "Getter",
	KindSetter:      "Setter",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// legalChildren lists which kinds may appear directly below each kind.
var legalChildren = map[Kind][]Kind{
	KindModule:   {KindModule, KindTrait, KindImpl, KindClass, KindFunction, KindProperty},
	KindTrait:    {KindFunction, KindProperty},
	KindImpl:     {KindFunction, KindProperty},
	KindClass:    {KindConstructor, KindImpl, KindFunction, KindProperty},
	KindProperty: {KindGetter, KindSetter},
}

// CanContain reports whether a child of kind child may appear directly
// below a declaration of kind parent.
func CanContain(parent, child Kind) bool {
	for _, k := range legalChildren[parent] {
		if k == child {
			return true
		}
	}
	return false
}

// DeclarationPathData is one step of a declaration path. It carries just
// enough data to re-find the matching syntax node among its parent's
// children. The set of implementations is closed.
type DeclarationPathData interface {
	Kind() Kind
	// Name is the disambiguation name: the declared name, the trait name of
	// an impl, or "" for unnamed variants.
	Name() string
	isPathData()
}

type ModuleData struct{ ModuleName string }
type TraitData struct{ TraitName string }

// ImplData addresses an impl; Trait is empty when the impl names no trait.
type ImplData struct{ Trait string }
type ClassData struct{ ClassName string }
type ConstructorData struct{}
type FunctionData struct{ FunctionName string }
type PropertyData struct{ PropertyName string }
type GetterData struct{}
type SetterData struct{}

func (ModuleData) Kind() Kind      { return KindModule }
func (TraitData) Kind() Kind       { return KindTrait }
func (ImplData) Kind() Kind        { return KindImpl }
func (ClassData) Kind() Kind       { return KindClass }
func (ConstructorData) Kind() Kind { return KindConstructor }
func (FunctionData) Kind() Kind    { return KindFunction }
func (PropertyData) Kind() Kind    { return KindProperty }
func (GetterData) Kind() Kind      { return KindGetter }
func (SetterData) Kind() Kind      { return KindSetter }

func (d ModuleData) Name() string   { return d.ModuleName }
func (d TraitData) Name() string    { return d.TraitName }
func (d ImplData) Name() string     { return d.Trait }
func (d ClassData) Name() string    { return d.ClassName }
func (ConstructorData) Name() string { return "" }
func (d FunctionData) Name() string { return d.FunctionName }
func (d PropertyData) Name() string { return d.PropertyName }
func (GetterData) Name() string     { return "" }
func (SetterData) Name() string     { return "" }

func (ModuleData) isPathData()      {}
func (TraitData) isPathData()       {}
func (ImplData) isPathData()        {}
func (ClassData) isPathData()       {}
func (ConstructorData) isPathData() {}
func (FunctionData) isPathData()    {}
func (PropertyData) isPathData()    {}
func (GetterData) isPathData()      {}
func (SetterData) isPathData()      {}

// NewPathData builds the variant for kind with the given name. Names of
// unnamed variants are ignored.
func NewPathData(kind Kind, name string) (DeclarationPathData, error) {
	switch kind {
	case KindModule:
		return ModuleData{name}, nil
	case KindTrait:
		return TraitData{name}, nil
	case KindImpl:
		return ImplData{name}, nil
	case KindClass:
		return ClassData{name}, nil
	case KindConstructor:
		return ConstructorData{}, nil
	case KindFunction:
		return FunctionData{name}, nil
	case KindProperty:
		return PropertyData{name}, nil
	case KindGetter:
		return GetterData{}, nil
	case KindSetter:
		return SetterData{}, nil
	}
	return nil, fmt.Errorf("ids: unknown kind %d", kind)
}

// Origin tells whether a declaration comes from source text or was
// synthesized by the compiler.
type Origin int

const (
	Source Origin = iota
	Synthetic
)

func (o Origin) String() string {
	if o == Synthetic {
		return "synthetic"
	}
	return "source"
}

// DisambiguatedPathData is a path segment plus the zero-based count of
// preceding siblings with the same origin, kind and name.
type DisambiguatedPathData struct {
	Data          DeclarationPathData
	Disambiguator int
	Origin        Origin
}

func (d DisambiguatedPathData) String() string {
	var b strings.Builder
	b.WriteString(d.Data.Kind().String())
	if name := d.Data.Name(); name != "" {
		b.WriteByte(':')
		b.WriteString(name)
	}
	b.WriteByte('@')
	b.WriteString(strconv.Itoa(d.Disambiguator))
	if d.Origin == Synthetic {
		b.WriteString("!synthetic")
	}
	return b.String()
}

func parseSegment(s string) (DisambiguatedPathData, error) {
	var seg DisambiguatedPathData
	if strings.HasSuffix(s, "!synthetic") {
		seg.Origin = Synthetic
		s = strings.TrimSuffix(s, "!synthetic")
	}
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return seg, fmt.Errorf("ids: segment %q: missing disambiguator", s)
	}
	n, err := strconv.Atoi(s[at+1:])
	if err != nil || n < 0 {
		return seg, fmt.Errorf("ids: segment %q: invalid disambiguator", s)
	}
	seg.Disambiguator = n
	head, name, _ := strings.Cut(s[:at], ":")
	kind, ok := ParseKind(head)
	if !ok {
		return seg, fmt.Errorf("ids: segment %q: unknown kind %q", s, head)
	}
	seg.Data, _ = NewPathData(kind, name)
	return seg, nil
}

// DeclarationId addresses a declaration as a path below a resource. An
// empty path denotes the resource's implicit root module.
type DeclarationId struct {
	Resource ResourceId
	Path     []DisambiguatedPathData
}

// RootOf returns the implicit root module id of r.
func RootOf(r ResourceId) DeclarationId {
	return DeclarationId{Resource: r}
}

// Inner appends a source segment with disambiguator 0.
func (id DeclarationId) Inner(data DeclarationPathData) DeclarationId {
	return id.InnerWith(data, 0, Source)
}

// InnerWith appends a segment with an explicit disambiguator and origin.
func (id DeclarationId) InnerWith(data DeclarationPathData, disambiguator int, origin Origin) DeclarationId {
	p := make([]DisambiguatedPathData, len(id.Path), len(id.Path)+1)
	copy(p, id.Path)
	p = append(p, DisambiguatedPathData{Data: data, Disambiguator: disambiguator, Origin: origin})
	return DeclarationId{Resource: id.Resource, Path: p}
}

// Parent drops the last segment. The implicit root module has no
// declaration-level parent; asking for it is an internal error.
func (id DeclarationId) Parent() (DeclarationId, error) {
	if len(id.Path) == 0 {
		return DeclarationId{}, diag.Internalf("declaration %s has no parent", id)
	}
	return DeclarationId{Resource: id.Resource, Path: id.Path[:len(id.Path)-1:len(id.Path)-1]}, nil
}

// Last returns the final segment; ok is false for root ids.
func (id DeclarationId) Last() (DisambiguatedPathData, bool) {
	if len(id.Path) == 0 {
		return DisambiguatedPathData{}, false
	}
	return id.Path[len(id.Path)-1], true
}

// Kind returns the kind of the addressed declaration. Root ids are modules.
func (id DeclarationId) Kind() Kind {
	if last, ok := id.Last(); ok {
		return last.Data.Kind()
	}
	return KindModule
}

// Name returns the disambiguation name of the last segment.
func (id DeclarationId) Name() string {
	if last, ok := id.Last(); ok {
		return last.Data.Name()
	}
	return ""
}

func (id DeclarationId) IsModule() bool      { return id.Kind() == KindModule }
func (id DeclarationId) IsTrait() bool       { return id.Kind() == KindTrait }
func (id DeclarationId) IsImpl() bool        { return id.Kind() == KindImpl }
func (id DeclarationId) IsClass() bool       { return id.Kind() == KindClass }
func (id DeclarationId) IsConstructor() bool { return id.Kind() == KindConstructor }
func (id DeclarationId) IsFunction() bool    { return id.Kind() == KindFunction }
func (id DeclarationId) IsProperty() bool    { return id.Kind() == KindProperty }
func (id DeclarationId) IsGetter() bool      { return id.Kind() == KindGetter }
func (id DeclarationId) IsSetter() bool      { return id.Kind() == KindSetter }

// IsRoot reports whether id is a resource's implicit root module.
func (id DeclarationId) IsRoot() bool { return len(id.Path) == 0 }

// IsSynthetic reports whether any segment of id was synthesized.
func (id DeclarationId) IsSynthetic() bool {
	for _, seg := range id.Path {
		if seg.Origin == Synthetic {
			return true
		}
	}
	return false
}

// Validate checks that every segment is a legal child of its parent.
func (id DeclarationId) Validate() error {
	parent := KindModule
	for i, seg := range id.Path {
		if seg.Data == nil {
			return fmt.Errorf("ids: %s: segment %d has no data", id.Resource, i)
		}
		if seg.Disambiguator < 0 {
			return fmt.Errorf("ids: %s: segment %d has negative disambiguator", id.Resource, i)
		}
		if !CanContain(parent, seg.Data.Kind()) {
			return fmt.Errorf("ids: %s: %s cannot contain %s", id, parent, seg.Data.Kind())
		}
		parent = seg.Data.Kind()
	}
	return nil
}

// Equal reports structural equality.
func (id DeclarationId) Equal(other DeclarationId) bool {
	if id.Resource != other.Resource || len(id.Path) != len(other.Path) {
		return false
	}
	for i := range id.Path {
		if id.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is id or one of its ancestors.
func (id DeclarationId) HasPrefix(prefix DeclarationId) bool {
	if id.Resource != prefix.Resource || len(prefix.Path) > len(id.Path) {
		return false
	}
	for i := range prefix.Path {
		if id.Path[i] != prefix.Path[i] {
			return false
		}
	}
	return true
}

func (id DeclarationId) Key() string {
	if len(id.Path) == 0 {
		return id.Resource.Key()
	}
	parts := make([]string, len(id.Path))
	for i, seg := range id.Path {
		parts[i] = seg.String()
	}
	return id.Resource.Key() + "#" + strings.Join(parts, "/")
}

func (id DeclarationId) String() string { return id.Key() }

// ParseDeclarationId parses the form produced by Key.
func ParseDeclarationId(s string) (DeclarationId, error) {
	res, segs, _ := strings.Cut(s, "#")
	r, err := ParseResourceId(res)
	if err != nil {
		return DeclarationId{}, err
	}
	id := DeclarationId{Resource: r}
	if segs == "" {
		return id, nil
	}
	for _, part := range strings.Split(segs, "/") {
		seg, err := parseSegment(part)
		if err != nil {
			return DeclarationId{}, err
		}
		id.Path = append(id.Path, seg)
	}
	return id, id.Validate()
}
