package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kr/pretty"

	"github.com/jward/candyc"
)

// formatDeclarationsText formats CLIDeclaration results as aligned columns.
func formatDeclarationsText(w io.Writer, decls []CLIDeclaration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tORIGIN\tLINE\tKEY")
	for _, d := range decls {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", d.Kind, d.Name, d.Origin, d.StartLine, d.Key)
	}
	tw.Flush()
}

// formatImplsText formats CLIImpl results as aligned columns.
func formatImplsText(w io.Writer, impls []CLIImpl) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tTRAIT\tDECLARATION")
	for _, i := range impls {
		trait := i.Trait
		if trait == "" {
			trait = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", i.Type, trait, i.Declaration)
	}
	tw.Flush()
}

// formatReportText formats an IndexReport as readable text.
func formatReportText(w io.Writer, r *candyc.IndexReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tRESOURCES\tUNCHANGED\tDECLARATIONS\tIMPLS")
	for _, p := range r.Packages {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", p.Package, p.Resources, p.Unchanged, p.Declarations, p.Impls)
	}
	tw.Flush()

	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Diagnostics:")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	for _, section := range []struct {
		title string
		keys  []string
	}{{"Changed", r.Changed}, {"Added", r.Added}, {"Removed", r.Removed}} {
		if len(section.keys) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", section.title)
		for _, k := range section.keys {
			fmt.Fprintf(w, "  %s\n", k)
		}
	}
}

// formatHirText dumps a lowered declaration with kr/pretty.
func formatHirText(w io.Writer, h CLIHir) {
	fmt.Fprintf(w, "%s %s\n", h.Kind, h.Declaration)
	fmt.Fprintf(w, "%# v\n", pretty.Formatter(h.Hir))
	if h.Body != nil {
		fmt.Fprintln(w, "Body:")
		fmt.Fprintf(w, "%# v\n", pretty.Formatter(h.Body))
	}
}

// formatModuleText formats a CLIModule as one line.
func formatModuleText(w io.Writer, m CLIModule) {
	switch {
	case !m.Found:
		fmt.Fprintf(w, "%s: not found\n", m.Module)
	case m.Declaration == "":
		fmt.Fprintf(w, "%s\n", m.Module)
	default:
		fmt.Fprintf(w, "%s -> %s\n", m.Module, m.Declaration)
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIDeclaration:
		formatDeclarationsText(w, v)
	case CLIDeclaration:
		formatDeclarationsText(w, []CLIDeclaration{v})
	case []CLIImpl:
		formatImplsText(w, v)
	case *candyc.IndexReport:
		formatReportText(w, v)
	case CLIHir:
		formatHirText(w, v)
	case CLIModule:
		formatModuleText(w, v)
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
