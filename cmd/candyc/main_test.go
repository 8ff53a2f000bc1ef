package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coreSource = `
declarations:
  - class: Bool
  - class: Int
  - trait: Equals
    members:
      - function: equals
        parameters: ["other: Self"]
        returns: Bool
`

const shapesSource = `
declarations:
  - class: Point
    data: true
    members:
      - property: x
        type: Int
  - module: Inner
    members:
      - function: two
        returns: Int
        body: [2]
`

const pointKey = "acme/shapes:src/module.candy#Class:Point@0"

// createFixture writes the core and acme/shapes packages below a temporary
// packages directory.
func createFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for path, content := range map[string]string{
		"candy/core/src/module.candy":  coreSource,
		"acme/shapes/src/module.candy": shapesSource,
		"acme/shapes/candyspec.yml":    "name: acme/shapes\nversion: 1.0.0\n",
	} {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

// run executes the CLI with args against dir and returns stdout. Every
// persistent flag is passed explicitly because cobra keeps flag values
// between executions.
func run(t *testing.T, dir, format string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args,
		"--packages", dir, "--package", "acme/shapes", "--db", "index.db",
		"--format", format, "--log-level", "error"))
	err := rootCmd.Execute()
	flagBody, flagForce = false, false
	return out.String(), err
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), "invalid format")
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	level, err := parseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = parseLogLevel("loud")
	assert.Error(t, err)
}

func TestIndexCommand_JSON(t *testing.T) {
	dir := createFixture(t)

	out, err := run(t, dir, "json", "index")
	require.NoError(t, err)

	var result struct {
		Command string `json:"command"`
		Results struct {
			Packages []struct {
				Package      string `json:"package"`
				Declarations int    `json:"declarations"`
				Impls        int    `json:"impls"`
			} `json:"packages"`
			Diagnostics []any `json:"diagnostics"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "index", result.Command)
	require.Len(t, result.Results.Packages, 2)
	assert.Equal(t, "acme/shapes", result.Results.Packages[0].Package)
	assert.Equal(t, 1, result.Results.Packages[0].Impls)
	assert.Empty(t, result.Results.Diagnostics)
	assert.FileExists(t, filepath.Join(dir, "index.db"))
}

func TestQueryCommands_AfterIndex(t *testing.T) {
	dir := createFixture(t)
	_, err := run(t, dir, "json", "index")
	require.NoError(t, err)

	out, err := run(t, dir, "text", "query", "kind", "Class")
	require.NoError(t, err)
	assert.Contains(t, out, "Point")
	assert.Contains(t, out, "Bool")

	out, err = run(t, dir, "json", "query", "decl", pointKey)
	require.NoError(t, err)
	var decl struct {
		Results CLIDeclaration `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decl))
	assert.Equal(t, "Point", decl.Results.Name)
	assert.Equal(t, []string{"data"}, decl.Results.Modifiers)

	out, err = run(t, dir, "json", "query", "impls", pointKey)
	require.NoError(t, err)
	var impls struct {
		Results []CLIImpl `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &impls))
	require.Len(t, impls.Results, 1)
	assert.Contains(t, impls.Results[0].Trait, "Trait:Equals@0")
}

func TestQueryCommand_NoDatabase(t *testing.T) {
	dir := createFixture(t)
	out, err := run(t, dir, "json", "query", "kind", "Class")
	require.Error(t, err)
	assert.Contains(t, out, "run 'candyc index' first")
}

func TestQueryCommand_UnknownKind(t *testing.T) {
	dir := createFixture(t)
	_, err := run(t, dir, "json", "query", "kind", "Struct")
	assert.ErrorContains(t, err, "unknown declaration kind")
}

func TestHirCommand(t *testing.T) {
	dir := createFixture(t)

	out, err := run(t, dir, "text", "hir", pointKey)
	require.NoError(t, err)
	assert.Contains(t, out, "Class "+pointKey)
	assert.Contains(t, out, "IsData:")

	out, err = run(t, dir, "json", "hir", "acme/shapes:src/module.candy#Module:Inner@0/Function:two@0", "--body")
	require.NoError(t, err)
	var result struct {
		Results struct {
			Kind string `json:"kind"`
			Body any    `json:"body"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "Function", result.Results.Kind)
	assert.NotNil(t, result.Results.Body)
}

func TestInnerCommand(t *testing.T) {
	dir := createFixture(t)
	out, err := run(t, dir, "text", "inner", "acme/shapes:src/module.candy")
	require.NoError(t, err)
	assert.Equal(t, pointKey+"\nacme/shapes:src/module.candy#Module:Inner@0\n", out)
}

func TestModuleAndUseCommands(t *testing.T) {
	dir := createFixture(t)

	out, err := run(t, dir, "text", "module", "acme/shapes:Inner")
	require.NoError(t, err)
	assert.Equal(t, "acme/shapes:Inner -> acme/shapes:src/module.candy#Module:Inner@0\n", out)

	out, err = run(t, dir, "text", "use", "acme/shapes:src/module.candy", ".Missing")
	require.NoError(t, err)
	assert.Equal(t, ".Missing: not found\n", out)
}

func TestImplsCommand(t *testing.T) {
	dir := createFixture(t)
	out, err := run(t, dir, "text", "impls", pointKey)
	require.NoError(t, err)
	assert.Equal(t, pointKey+"/Impl:Equals@0!synthetic\n", out)

	_, err = run(t, dir, "text", "impls", "acme/shapes:src/module.candy#Module:Inner@0")
	assert.ErrorContains(t, err, "neither a trait nor a class")
}

func TestResolveDBPath(t *testing.T) {
	saved := flagDB
	t.Cleanup(func() { flagDB = saved })

	flagDB = ""
	assert.Equal(t, filepath.Join("/pkgs", ".candyc", "index.db"), resolveDBPath("/pkgs"))
	flagDB = "x.db"
	assert.Equal(t, filepath.Join("/pkgs", "x.db"), resolveDBPath("/pkgs"))
	flagDB = "/abs/x.db"
	assert.Equal(t, "/abs/x.db", resolveDBPath("/pkgs"))
}
