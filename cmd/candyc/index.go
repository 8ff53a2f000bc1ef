package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Lower every declaration and write the declaration index",
	Long: "Lowers every declaration of the root package and its dependencies, reports diagnostics, " +
		"and replaces each package's rows in the SQLite index.",
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir, err := packagesDir()
	if err != nil {
		return outputError(cmd, "index", err)
	}
	dbPath := resolveDBPath(dir)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError(cmd, "index", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return outputError(cmd, "index", fmt.Errorf("removing database for --force: %w", err))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Cleared database: %s\n", dbPath)
	}

	s, err := openSession(dbPath)
	if err != nil {
		return outputError(cmd, "index", err)
	}
	defer s.Close()

	report, err := s.Index(context.Background())
	if err != nil {
		return outputError(cmd, "index", fmt.Errorf("indexing: %w", err))
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Indexed %s in %s (%d declarations, %d diagnostics)\n",
		s.Root(), report.Duration.Round(time.Millisecond), report.Declarations(), len(report.Diagnostics))
	fmt.Fprintf(cmd.ErrOrStderr(), "Database: %s\n", dbPath)
	return outputResult(cmd, CLIResult{Command: "index", Results: report})
}
