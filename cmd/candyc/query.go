package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/store"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the declaration index",
	Long:  "Run queries against the index written by 'candyc index'. Lines and columns are 1-based.",
}

func init() {
	queryCmd.AddCommand(declCmd)
	queryCmd.AddCommand(childrenCmd)
	queryCmd.AddCommand(kindCmd)
	queryCmd.AddCommand(indexedImplsCmd)
}

var declCmd = &cobra.Command{
	Use:   "decl <declaration-id>",
	Short: "Show one indexed declaration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError(cmd, "decl", err)
		}
		defer s.Close()
		d, err := s.DeclarationByKey(args[0])
		if err != nil {
			return outputError(cmd, "decl", err)
		}
		if d == nil {
			return outputError(cmd, "decl", fmt.Errorf("declaration not indexed: %s", args[0]))
		}
		return outputResult(cmd, CLIResult{Command: "decl", Results: declarationToCLI(d)})
	},
}

var childrenCmd = &cobra.Command{
	Use:   "children <declaration-id>",
	Short: "List indexed children of a declaration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError(cmd, "children", err)
		}
		defer s.Close()
		decls, err := s.DeclarationChildren(args[0])
		if err != nil {
			return outputError(cmd, "children", err)
		}
		return outputResult(cmd, CLIResult{Command: "children", Results: declarationsToCLI(decls)})
	},
}

var kindCmd = &cobra.Command{
	Use:   "kind <Kind>",
	Short: "List indexed declarations of one kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := ids.ParseKind(args[0]); !ok {
			return outputError(cmd, "kind", fmt.Errorf("unknown declaration kind %q", args[0]))
		}
		s, err := openStore()
		if err != nil {
			return outputError(cmd, "kind", err)
		}
		defer s.Close()
		decls, err := s.DeclarationsByKind(args[0])
		if err != nil {
			return outputError(cmd, "kind", err)
		}
		return outputResult(cmd, CLIResult{Command: "kind", Results: declarationsToCLI(decls)})
	},
}

var indexedImplsCmd = &cobra.Command{
	Use:   "impls <declaration-id>",
	Short: "List indexed impls of a trait or class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError(cmd, "impls", err)
		}
		defer s.Close()
		impls, err := s.ImplsForTarget(args[0])
		if err != nil {
			return outputError(cmd, "impls", err)
		}
		return outputResult(cmd, CLIResult{Command: "impls", Results: implsToCLI(impls)})
	},
}

// --- Helpers ---

// openStore opens the Store from the --db flag path (or default).
func openStore() (*store.Store, error) {
	dir, err := packagesDir()
	if err != nil {
		return nil, err
	}
	dbPath := resolveDBPath(dir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'candyc index' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

// outputResult writes a CLIResult to the command's output in the selected
// format.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(cmd.OutOrStdout(), result)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}
