package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/candyc/internal/ids"
)

var flagBody bool

var hirCmd = &cobra.Command{
	Use:   "hir <declaration-id>",
	Short: "Lower one declaration and print its HIR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ids.ParseDeclarationId(args[0])
		if err != nil {
			return outputError(cmd, "hir", err)
		}
		s, err := openSession("")
		if err != nil {
			return outputError(cmd, "hir", err)
		}
		defer s.Close()

		d, err := s.DeclarationHir(id)
		if err != nil {
			return outputError(cmd, "hir", err)
		}
		result := CLIHir{Declaration: id.Key(), Kind: id.Kind().String(), Hir: d}
		if flagBody {
			body, err := s.FunctionBody(id)
			if err != nil {
				return outputError(cmd, "hir", err)
			}
			if body != nil {
				result.Body = body
			}
		}
		return outputResult(cmd, CLIResult{Command: "hir", Results: result})
	},
}

func init() {
	hirCmd.Flags().BoolVar(&flagBody, "body", false, "also lower the body of a function, getter or setter")
}

var innerCmd = &cobra.Command{
	Use:   "inner <declaration-id>",
	Short: "List the inner declaration ids of a declaration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ids.ParseDeclarationId(args[0])
		if err != nil {
			return outputError(cmd, "inner", err)
		}
		s, err := openSession("")
		if err != nil {
			return outputError(cmd, "inner", err)
		}
		defer s.Close()

		inner, err := s.InnerDeclarationIds(id)
		if err != nil {
			return outputError(cmd, "inner", err)
		}
		return outputResult(cmd, CLIResult{Command: "inner", Results: keys(inner)})
	},
}

var useCmd = &cobra.Command{
	Use:   "use <resource-id> <target>",
	Short: "Resolve a use-line as written in a resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := ids.ParseResourceId(args[0])
		if err != nil {
			return outputError(cmd, "use", err)
		}
		s, err := openSession("")
		if err != nil {
			return outputError(cmd, "use", err)
		}
		defer s.Close()

		m, ok, err := s.ResolveUseLine(r, args[1])
		if err != nil {
			return outputError(cmd, "use", err)
		}
		result := CLIModule{Found: ok}
		if ok {
			result.Module = m.String()
			if d, found, err := s.ModuleDeclarationId(m); err != nil {
				return outputError(cmd, "use", err)
			} else if found {
				result.Declaration = d.Key()
			}
		} else {
			result.Module = args[1]
		}
		return outputResult(cmd, CLIResult{Command: "use", Results: result})
	},
}

var moduleCmd = &cobra.Command{
	Use:   "module <module-id>",
	Short: "Find the declaration of a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := ids.ParseModuleId(args[0])
		if err != nil {
			return outputError(cmd, "module", err)
		}
		s, err := openSession("")
		if err != nil {
			return outputError(cmd, "module", err)
		}
		defer s.Close()

		d, ok, err := s.ModuleDeclarationId(m)
		if err != nil {
			return outputError(cmd, "module", err)
		}
		result := CLIModule{Module: m.String(), Found: ok}
		if ok {
			result.Declaration = d.Key()
		}
		return outputResult(cmd, CLIResult{Command: "module", Results: result})
	},
}

var implsCmd = &cobra.Command{
	Use:   "impls <declaration-id>",
	Short: "Find the impls of a trait or class by lowering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ids.ParseDeclarationId(args[0])
		if err != nil {
			return outputError(cmd, "impls", err)
		}
		if !id.IsTrait() && !id.IsClass() {
			return outputError(cmd, "impls", fmt.Errorf("%s is neither a trait nor a class", id))
		}
		s, err := openSession("")
		if err != nil {
			return outputError(cmd, "impls", err)
		}
		defer s.Close()

		impls, err := s.ImplsForTraitOrClass(id)
		if err != nil {
			return outputError(cmd, "impls", err)
		}
		return outputResult(cmd, CLIResult{Command: "impls", Results: keys(impls)})
	},
}

func keys(list []ids.DeclarationId) []string {
	out := make([]string, 0, len(list))
	for _, id := range list {
		out = append(out, id.Key())
	}
	return out
}
