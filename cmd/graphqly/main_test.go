package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := runCLI(t, "help", "compile")
	require.NoError(t, err)
	require.Contains(t, out, "compile FLAGS")

	out, _, err = runCLI(t, "help")
	require.NoError(t, err)
	require.Contains(t, out, "COMMANDS")

	_, _, err = runCLI(t, "help", "serve")
	require.EqualError(t, err, `unknown help topic "serve"`)
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := runCLI(t, "serve")
	require.EqualError(t, err, `unknown command "serve"`)
	require.Contains(t, stderr, "USAGE")

	_, _, err = runCLI(t)
	require.EqualError(t, err, "missing command")
}

func TestCompile(t *testing.T) {
	out, _, err := runCLI(t, "compile", "-manifest", "testdata/shop.yaml", "-validate")
	require.NoError(t, err)
	require.Contains(t, out, "type Product implements Priced {\nprice: Float!\ncurrency: Currency!\nsku: ID!\nname: String!\n}")
	require.Contains(t, out, "type Query {\n  product(sku: ID!): Product\n}")
	require.Contains(t, out, "type Subscription {\n  productAdded: Product\n}")
}

func TestCompile_OutFileAndMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.graphql")
	out, stderr, err := runCLI(t, "compile", "-manifest", "testdata/shop.yaml", "-out", path, "-metrics")
	require.NoError(t, err)
	require.Empty(t, out)
	require.Contains(t, stderr, `graphqly_builds_total{result="ok"} 1`)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "enum Currency {\nUSD\nEUR\n}")
}

func TestCompile_RequiresManifest(t *testing.T) {
	_, stderr, err := runCLI(t, "compile")
	require.EqualError(t, err, "-manifest is required")
	require.Contains(t, stderr, "compile FLAGS")
}

func TestCheck(t *testing.T) {
	out, _, err := runCLI(t, "check", "-manifest", "testdata/shop.yaml", "-log.level", "error")
	require.NoError(t, err)
	require.Equal(t, "ok: 4 definitions, 3 root fields\n", out)
}

func TestCheck_UnresolvedDependency(t *testing.T) {
	_, _, err := runCLI(t, "check", "-manifest", "testdata/broken.yaml")
	require.ErrorContains(t, err, `unresolved dependency "LineItem" in type "Order"`)
}
