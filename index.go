package candyc

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jward/candyc/internal/diag"
	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/lowering"
	"github.com/jward/candyc/internal/query"
	"github.com/jward/candyc/internal/resource"
	"github.com/jward/candyc/internal/store"
)

// CyclicDependency is the diagnostic kind reported for query cycles caused
// by the program, such as two properties inferring their types from each
// other.
const CyclicDependency diag.ErrorKind = "cyclic-dependency"

// Diagnostic is a user-facing error found while indexing.
type Diagnostic struct {
	Declaration string         `json:"declaration"`
	Kind        diag.ErrorKind `json:"kind"`
	Location    string         `json:"location,omitempty"`
	Message     string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Location == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Kind, d.Message)
}

// PackageReport counts what Index wrote for one package.
type PackageReport struct {
	Package      string `json:"package"`
	Resources    int    `json:"resources"`
	Unchanged    int    `json:"unchanged"`
	Declarations int    `json:"declarations"`
	Impls        int    `json:"impls"`
}

// IndexReport summarizes one Index run. Changed lists the declaration keys
// whose signature hash differs from the previous run; Added and Removed
// list keys present in only one of the two runs. All three are empty
// without a store.
type IndexReport struct {
	Packages    []PackageReport `json:"packages"`
	Diagnostics []Diagnostic    `json:"diagnostics"`
	Changed     []string        `json:"changed,omitempty"`
	Added       []string        `json:"added,omitempty"`
	Removed     []string        `json:"removed,omitempty"`
	Duration    time.Duration   `json:"duration"`
}

// Declarations returns the number of declarations indexed across packages.
func (r *IndexReport) Declarations() int {
	n := 0
	for _, p := range r.Packages {
		n += p.Declarations
	}
	return n
}

// Index lowers every declaration of the root package and its dependency
// closure. User-facing errors become diagnostics; any other error aborts
// the run. With a store, each package's rows are replaced atomically.
func (s *Session) Index(ctx context.Context) (*IndexReport, error) {
	start := time.Now()
	pkgs, err := s.Packages()
	if err != nil {
		return nil, fmt.Errorf("candyc: index: %w", err)
	}

	report := &IndexReport{Diagnostics: []Diagnostic{}}
	seen := make(map[string]bool)
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, pr, err := s.snapshotPackage(ctx, pkg, report, seen)
		if err != nil {
			return nil, fmt.Errorf("candyc: index %s: %w", pkg, err)
		}
		if s.store != nil {
			old, err := s.store.SignatureHashes(string(pkg))
			if err != nil {
				return nil, fmt.Errorf("candyc: index %s: read previous hashes: %w", pkg, err)
			}
			diffHashes(old, snap, report)
			if err := s.store.ReplacePackage(snap); err != nil {
				return nil, fmt.Errorf("candyc: index %s: %w", pkg, err)
			}
		}
		report.Packages = append(report.Packages, pr)
		s.logger.Debug("indexed package", "package", string(pkg),
			"declarations", pr.Declarations, "impls", pr.Impls)
	}

	if s.store != nil {
		for key, value := range map[string]string{
			"root":         string(s.root),
			"session":      s.ctx.ID(),
			"last_indexed": time.Now().UTC().Format(time.RFC3339),
		} {
			if err := s.store.SetMetadata(key, value); err != nil {
				return nil, fmt.Errorf("candyc: index: metadata %s: %w", key, err)
			}
		}
	}

	sort.Strings(report.Changed)
	sort.Strings(report.Added)
	sort.Strings(report.Removed)
	report.Duration = time.Since(start)
	s.logger.Info("index complete",
		"packages", len(report.Packages),
		"declarations", report.Declarations(),
		"diagnostics", len(report.Diagnostics),
		"changed", len(report.Changed),
		"duration", report.Duration)
	return report, nil
}

func (s *Session) snapshotPackage(ctx context.Context, pkg ids.PackageId, report *IndexReport, seen map[string]bool) (*store.PackageSnapshot, PackageReport, error) {
	pr := PackageReport{Package: string(pkg)}
	files, err := resource.FileIds(s.ctx, pkg)
	if err != nil {
		return nil, pr, err
	}
	snap := &store.PackageSnapshot{Package: string(pkg)}
	now := time.Now()
	for _, r := range files {
		if !r.IsSourceFile() || !strings.HasPrefix(r.Path, ids.SourceDirectory+"/") {
			continue
		}
		content, err := s.readResource(ctx, r)
		if err != nil {
			return nil, pr, fmt.Errorf("read %s: %w", r, err)
		}
		hash := fmt.Sprintf("%x", sha256.Sum256(content))
		if s.store != nil {
			existing, err := s.store.ResourceByPath(string(pkg), r.Path)
			if err != nil {
				return nil, pr, fmt.Errorf("lookup %s: %w", r, err)
			}
			if existing != nil && existing.Hash == hash {
				pr.Unchanged++
			}
		}

		w := &indexWalker{
			s:      s,
			report: report,
			seen:   seen,
			rs:     store.ResourceSnapshot{Resource: store.Resource{Path: r.Path, Hash: hash, LastIndexed: now}},
		}
		if err := w.walk(ids.RootOf(r)); err != nil {
			return nil, pr, err
		}
		snap.Resources = append(snap.Resources, w.rs)
		pr.Resources++
	}
	pr.Declarations, pr.Impls = snap.Count()
	return snap, pr, nil
}

// diffHashes records how snap's signature hashes differ from old.
func diffHashes(old map[string]string, snap *store.PackageSnapshot, report *IndexReport) {
	current := make(map[string]bool)
	for _, r := range snap.Resources {
		for _, d := range r.Declarations {
			current[d.Key] = true
			previous, ok := old[d.Key]
			switch {
			case !ok:
				report.Added = append(report.Added, d.Key)
			case previous != d.SignatureHash:
				report.Changed = append(report.Changed, d.Key)
			}
		}
	}
	for key := range old {
		if !current[key] {
			report.Removed = append(report.Removed, key)
		}
	}
}

// indexWalker collects the rows of one resource.
type indexWalker struct {
	s      *Session
	report *IndexReport
	seen   map[string]bool
	rs     store.ResourceSnapshot
}

func (w *indexWalker) walk(id ids.DeclarationId) error {
	row := store.Declaration{Key: id.Key(), Kind: id.Kind().String(), Name: id.Name(), Origin: ids.Source.String()}
	if id.IsSynthetic() {
		row.Origin = ids.Synthetic.String()
	}
	if !id.IsRoot() {
		parent, err := id.Parent()
		if err != nil {
			return err
		}
		key := parent.Key()
		row.ParentKey = &key
	}
	if !id.IsSynthetic() {
		node, err := lowering.DeclarationAst(w.s.ctx, id)
		if err != nil {
			return err
		}
		pos := node.Pos()
		row.StartLine, row.StartCol = pos.Line, pos.Column
	}

	d, err := lowering.DeclarationHir(w.s.ctx, id)
	if err := w.check(id, err); err != nil {
		return err
	}
	if d != nil {
		sig := signatureOf(d)
		row.Modifiers = sig.Modifiers
		row.SignatureHash = store.ComputeSignatureHash(sig)
		if impl, ok := d.(*hir.Impl); ok {
			w.rs.Impls = append(w.rs.Impls, implRow(impl))
		}
	}
	w.rs.Declarations = append(w.rs.Declarations, row)

	inner, err := lowering.InnerDeclarationIds(w.s.ctx, id)
	if err := w.check(id, err); err != nil {
		return err
	}
	for _, child := range inner {
		if err := w.walk(child); err != nil {
			return err
		}
	}
	if !id.IsClass() {
		return nil
	}
	derived, err := lowering.DerivedDeclarations(w.s.ctx, id)
	if err := w.check(id, err); err != nil {
		return err
	}
	for _, s := range derived {
		if err := w.walk(s.Impl.Id); err != nil {
			return err
		}
	}
	return nil
}

// check turns a user-facing error into a diagnostic and returns every
// other error. A failure shared by several queries is reported once.
func (w *indexWalker) check(id ids.DeclarationId, err error) error {
	if err == nil {
		return nil
	}
	d := Diagnostic{Declaration: id.Key(), Message: err.Error()}
	var cycle *query.CyclicDependencyError
	if ce, ok := diag.AsCompilerError(err); ok {
		d.Kind = ce.Kind
		d.Message = ce.Message
		d.Location = ce.Location.String()
	} else if errors.As(err, &cycle) {
		d.Kind = CyclicDependency
	} else {
		return err
	}
	if key := d.String(); !w.seen[key] {
		w.seen[key] = true
		w.report.Diagnostics = append(w.report.Diagnostics, d)
	}
	return nil
}

func implRow(impl *hir.Impl) store.Impl {
	row := store.Impl{DeclarationKey: impl.Id.Key(), TypeKey: typeKey(impl.Type)}
	if d, ok := hir.DeclarationOf(impl.Type); ok {
		key := d.Key()
		row.TypeDeclarationKey = &key
	}
	if impl.Trait != nil {
		trait := impl.Trait.Key()
		row.TraitKey = &trait
		if d, ok := hir.DeclarationOf(impl.Trait); ok {
			key := d.Key()
			row.TraitDeclarationKey = &key
		}
	}
	return row
}

// signatureOf extracts the semantic identity of d. Member lists hold path
// segments, so renumbered siblings change their parent's hash.
func signatureOf(d hir.Declaration) store.Signature {
	sig := store.Signature{Kind: d.ID().Kind().String(), Name: d.ID().Name()}
	switch d := d.(type) {
	case *hir.Module:
		sig.Name = d.ModuleId.String()
		sig.Members = segments(d.InnerDeclarations)
	case *hir.Trait:
		sig.TypeParameters = typeParameters(d.TypeParameters)
		sig.Result = typeKey(d.UpperBound)
		sig.Members = segments(d.InnerDeclarations)
	case *hir.Impl:
		if d.Origin == ids.Synthetic {
			sig.Modifiers = append(sig.Modifiers, "synthetic")
		}
		sig.Name = typeKey(d.Trait)
		sig.TypeParameters = typeParameters(d.TypeParameters)
		sig.Result = typeKey(d.Type)
		sig.Members = segments(d.InnerDeclarations)
	case *hir.Class:
		if d.IsData {
			sig.Modifiers = append(sig.Modifiers, "data")
		}
		sig.TypeParameters = typeParameters(d.TypeParameters)
		sig.Members = append(segments(d.InnerDeclarations), segments(d.DerivedImpls)...)
	case *hir.Constructor:
		sig.Parameters = valueParameters(d.Parameters)
		sig.Result = typeKey(d.Class)
	case *hir.Function:
		if d.IsStatic {
			sig.Modifiers = append(sig.Modifiers, "static")
		}
		if d.IsBuiltin {
			sig.Modifiers = append(sig.Modifiers, "builtin")
		}
		sig.TypeParameters = typeParameters(d.TypeParameters)
		sig.Parameters = valueParameters(d.Parameters)
		sig.Result = typeKey(d.ReturnType)
	case *hir.Property:
		if d.IsStatic {
			sig.Modifiers = append(sig.Modifiers, "static")
		}
		if d.IsMutable {
			sig.Modifiers = append(sig.Modifiers, "mutable")
		}
		sig.Result = typeKey(d.Type)
		sig.Members = segments(d.InnerDeclarations)
	case *hir.Getter:
		sig.Result = typeKey(d.PropertyType)
	case *hir.Setter:
		sig.Parameters = valueParameters([]hir.ValueParameter{d.Parameter})
	}
	return sig
}

func typeKey(t hir.Type) string {
	if t == nil {
		return ""
	}
	return t.Key()
}

func segments(list []ids.DeclarationId) []string {
	out := make([]string, 0, len(list))
	for _, id := range list {
		if last, ok := id.Last(); ok {
			out = append(out, last.String())
		}
	}
	return out
}

func typeParameters(params []hir.TypeParameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
		if p.UpperBound != nil {
			out[i] += ": " + p.UpperBound.Key()
		}
	}
	return out
}

func valueParameters(params []hir.ValueParameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name + ": " + typeKey(p.Type)
	}
	return out
}
