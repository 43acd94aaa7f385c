package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dnsgraph/dnsgraph"
	"github.com/dnsgraph/dnsgraph/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAnalysis = `
example.org.:
  zone: example.org.
  dnskey:
    records: []
  queries:
    - name: example.org.
      type: A
      records:
        - "example.org. 300 IN A 192.0.2.1"
`

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"-j", "-T", "svg", "example.com"})
	require.NoError(t, err)
	assert.True(t, opts.jsonInput)
	assert.Equal(t, "svg", opts.format)
	assert.Equal(t, []string{"example.com"}, opts.names)
}

func TestParseArgs_UsageErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"names from both sources": {"-f", "names.txt", "example.com"},
		"no names at all":         {"-T", "dot"},
		"output mode conflict":    {"-o", "out.svg", "-O", "example.com"},
		"unknown flag":            {"-x", "example.com"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseArgs(args)
			var usageErr *dnsgraph.UsageError
			assert.ErrorAs(t, err, &usageErr)
		})
	}
}

func TestResolveFormat(t *testing.T) {

	// -T wins over the output filename extension.
	format, err := resolveFormat(&options{format: "png", outputFile: "out.svg"})
	require.NoError(t, err)
	assert.Equal(t, render.FormatPNG, format)

	// Without -T, the extension decides.
	format, err = resolveFormat(&options{outputFile: "out.svg"})
	require.NoError(t, err)
	assert.Equal(t, render.FormatSVG, format)

	// Neither given: DOT to standard output.
	format, err = resolveFormat(&options{outputFile: "-"})
	require.NoError(t, err)
	assert.Equal(t, render.FormatDOT, format)

	// A dot in the directory part is not an extension.
	format, err = resolveFormat(&options{outputFile: "./out"})
	require.NoError(t, err)
	assert.Equal(t, render.FormatDOT, format)

	_, err = resolveFormat(&options{format: "pdf"})
	var formatErr *render.UnsupportedFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestResolveNames_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\n\nexample.com\n  example.org  \n"), 0o644))

	names, err := resolveNames(&options{namesFile: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "example.org"}, names)
}

func TestResolveNames_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing here\n"), 0o644))

	_, err := resolveNames(&options{namesFile: path})
	var usageErr *dnsgraph.UsageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestPerNamePath(t *testing.T) {
	assert.Equal(t, "example.com.dot", perNamePath("example.com.", render.FormatDOT))
	assert.Equal(t, "example.com.svg", perNamePath("Example.Com", render.FormatSVG))
	assert.Equal(t, "root.png", perNamePath(".", render.FormatPNG))
}

func TestRun_DOTToStdout(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"example.org."}, strings.NewReader(testAnalysis), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "digraph")
	assert.Contains(t, out.String(), "example.org/A")
}

func TestRun_AnalysisFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testAnalysis), 0o644))

	var out bytes.Buffer
	err := run([]string{"-i", path, "example.org."}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "digraph")
}

func TestRun_JSONInput(t *testing.T) {
	doc := `{"example.org.": {"zone": "example.org.", "dnskey": {"records": []},
		"queries": [{"name": "example.org.", "type": "A",
		"records": ["example.org. 300 IN A 192.0.2.1"]}]}}`

	var out bytes.Buffer
	err := run([]string{"-j", "example.org."}, strings.NewReader(doc), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "digraph")
}

func TestRun_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dot")

	var out bytes.Buffer
	err := run([]string{"-o", path, "example.org."}, strings.NewReader(testAnalysis), &out)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "digraph")
	assert.Empty(t, out.String())
}

func TestRun_UnknownName(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"absent.example."}, strings.NewReader(testAnalysis), &out)
	assert.Error(t, err)
}
