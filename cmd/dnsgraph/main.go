// Command dnsgraph renders a visual proof of DNSSEC trust for one or more
// domain names from previously collected analysis data.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dnsgraph/dnsgraph"
	"github.com/dnsgraph/dnsgraph/analysis"
	"github.com/dnsgraph/dnsgraph/dnssec"
	"github.com/dnsgraph/dnsgraph/graph"
	"github.com/dnsgraph/dnsgraph/render"
	"github.com/miekg/dns"
)

const usage = `usage: dnsgraph [options] [name ...]

Renders the DNSSEC authentication chain for one or more domain names from
previously collected analysis data.

options:
  -f file   read names from file, one per line (conflicts with positional names)
  -i file   read the analysis document from file (default: standard input)
  -j        analysis document is JSON rather than YAML
  -t file   read trust anchors from file (default: built-in root anchors)
  -o file   write output to file, "-" for standard output (default "-")
  -O        write one output file per name, named <name>.<ext>
  -T fmt    output format: dot, png, jpg, svg, html (default: dot, or
            inferred from the -o filename extension)
`

type options struct {
	namesFile   string
	inputFile   string
	jsonInput   bool
	anchorsFile string
	outputFile  string
	perName     bool
	format      string
	names       []string
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		var usageErr *dnsgraph.UsageError
		var formatErr *render.UnsupportedFormatError

		switch {
		case errors.As(err, &usageErr):
			fmt.Fprintf(os.Stderr, "dnsgraph: %s\n\n%s", usageErr.Msg, usage)
			os.Exit(1)
		case errors.As(err, &formatErr):
			fmt.Fprintf(os.Stderr, "dnsgraph: %s\n\n%s", err, usage)
			os.Exit(1)
		default:
			fmt.Fprintf(os.Stderr, "dnsgraph: %s\n", err)
			os.Exit(2)
		}
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	// The format is fixed before any input is read or any graph is built.
	format, err := resolveFormat(opts)
	if err != nil {
		return err
	}

	names, err := resolveNames(opts)
	if err != nil {
		return err
	}

	anchors, err := loadAnchors(opts)
	if err != nil {
		return err
	}

	doc, err := loadDocument(opts, stdin)
	if err != nil {
		return err
	}

	session := dnsgraph.NewSession(doc, anchors)

	if opts.perName {
		return session.GraphEach(names, func(name string, g *graph.Graph) error {
			return writeFile(perNamePath(name, format), g, format)
		})
	}

	g, err := session.GraphAll(names)
	if err != nil {
		return err
	}

	if opts.outputFile == "" || opts.outputFile == "-" {
		return render.RenderTo(g, format, stdout)
	}
	return writeFile(opts.outputFile, g, format)
}

func parseArgs(args []string) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("dnsgraph", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.namesFile, "f", "", "")
	fs.StringVar(&opts.inputFile, "i", "", "")
	fs.BoolVar(&opts.jsonInput, "j", false, "")
	fs.StringVar(&opts.anchorsFile, "t", "", "")
	fs.StringVar(&opts.outputFile, "o", "", "")
	fs.BoolVar(&opts.perName, "O", false, "")
	fs.StringVar(&opts.format, "T", "", "")

	if err := fs.Parse(args); err != nil {
		return nil, &dnsgraph.UsageError{Msg: err.Error()}
	}
	opts.names = fs.Args()

	if opts.namesFile != "" && len(opts.names) > 0 {
		return nil, dnsgraph.Usagef("names must come from -f or the argument list, not both")
	}
	if opts.namesFile == "" && len(opts.names) == 0 {
		return nil, dnsgraph.Usagef("no names given: use -f or list names as arguments")
	}
	if opts.outputFile != "" && opts.perName {
		return nil, dnsgraph.Usagef("-o and -O are mutually exclusive")
	}

	return opts, nil
}

func resolveFormat(opts *options) (render.Format, error) {
	if opts.format != "" {
		return render.ParseFormat(opts.format)
	}
	if opts.outputFile != "" && opts.outputFile != "-" && filepath.Ext(opts.outputFile) != "" {
		return render.FormatFromPath(opts.outputFile)
	}
	return render.FormatDOT, nil
}

func resolveNames(opts *options) ([]string, error) {
	if opts.namesFile == "" {
		return opts.names, nil
	}

	f, err := os.Open(opts.namesFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dnsgraph.ErrNamesFileUnreadable, err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", dnsgraph.ErrNamesFileUnreadable, err)
	}
	if len(names) == 0 {
		return nil, dnsgraph.Usagef("names file %s contains no names", opts.namesFile)
	}

	return names, nil
}

func loadAnchors(opts *options) (*dnssec.AnchorSet, error) {
	if opts.anchorsFile == "" {
		return dnssec.RootAnchors(), nil
	}

	f, err := os.Open(opts.anchorsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return dnssec.ParseAnchors(f)
}

func loadDocument(opts *options, stdin io.Reader) (*analysis.Document, error) {
	in := stdin
	if opts.inputFile != "" {
		f, err := os.Open(opts.inputFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}

	if opts.jsonInput {
		return analysis.DecodeJSON(in)
	}
	return analysis.Decode(in)
}

func perNamePath(name string, format render.Format) string {
	base := strings.TrimSuffix(dns.CanonicalName(name), ".")
	if base == "" {
		base = "root"
	}
	return base + "." + format.Ext()
}

func writeFile(path string, g *graph.Graph, format render.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := render.RenderTo(g, format, f); err != nil {
		return err
	}
	return f.Close()
}
