package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/candyc"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/resource"
)

var (
	flagPackages     string
	flagPackage      string
	flagPackageRoots map[string]string
	flagDB           string
	flagFormat       string
	flagLogLevel     string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "candyc",
	Short:         "Semantic core of the Candy compiler",
	Long:          "candyc lowers Candy packages to HIR on demand and maintains a SQLite index of their declarations.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		errorHandled = false
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		level, err := parseLogLevel(flagLogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPackages, "packages", ".", "directory holding one subdirectory per package id")
	rootCmd.PersistentFlags().StringVarP(&flagPackage, "package", "p", "", "root package id (default: name in ./candyspec.yml)")
	rootCmd.PersistentFlags().StringToStringVar(&flagPackageRoots, "package-root", nil, "package id to directory overrides (id=dir)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: <packages>/.candyc/index.db)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(hirCmd)
	rootCmd.AddCommand(innerCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(implsCmd)
}

// parseLogLevel maps --log-level to a slog level.
func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
	}
	return level, nil
}

// packagesDir returns the absolute --packages directory.
func packagesDir() (string, error) {
	abs, err := filepath.Abs(flagPackages)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", flagPackages, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// rootPackage returns --package, falling back to the manifest in the
// working directory.
func rootPackage() (ids.PackageId, error) {
	if flagPackage != "" {
		return ids.PackageId(flagPackage), nil
	}
	data, err := os.ReadFile(ids.ManifestName)
	if err != nil {
		return "", fmt.Errorf("no --package given and no %s in the working directory", ids.ManifestName)
	}
	m, err := resource.ParseManifest(data)
	if err != nil {
		return "", err
	}
	return ids.PackageId(m.Name), nil
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(dir string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(dir, flagDB)
	}
	return filepath.Join(dir, ".candyc", "index.db")
}

// newProvider builds the file:// resource provider for the packages
// directory and any --package-root overrides.
func newProvider(dir string) (*resource.AFS, error) {
	var opts []resource.Option
	for pkg, root := range flagPackageRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving package root %q: %w", root, err)
		}
		opts = append(opts, resource.WithPackageRoot(ids.PackageId(strings.TrimSpace(pkg)), "file://"+filepath.ToSlash(abs)))
	}
	return resource.NewAFS("file://"+filepath.ToSlash(dir), opts...), nil
}

// openSession creates a Session over the packages directory. dbPath may be
// empty for commands that only lower.
func openSession(dbPath string) (*candyc.Session, error) {
	dir, err := packagesDir()
	if err != nil {
		return nil, err
	}
	pkg, err := rootPackage()
	if err != nil {
		return nil, err
	}
	p, err := newProvider(dir)
	if err != nil {
		return nil, err
	}
	opts := []candyc.Option{candyc.WithLogger(slog.Default())}
	if dbPath != "" {
		opts = append(opts, candyc.WithStore(dbPath))
	}
	s, err := candyc.New(p, nil, pkg, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return s, nil
}
