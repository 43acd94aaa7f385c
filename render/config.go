package render

const (
	// DefaultGraphvizCommand is the layout binary used for raster and
	// vector output. It must be on PATH, or GraphvizCommand set to an
	// absolute path.
	DefaultGraphvizCommand = "dot"

	// DefaultAssetBase is where the interactive document loads its
	// client-side renderer from.
	DefaultAssetBase = "https://cdn.jsdelivr.net/npm"
)

var (
	GraphvizCommand = DefaultGraphvizCommand

	AssetBase = DefaultAssetBase
)

type Logger func(string)

// Default logging functions just black-hole the input.

var Debug Logger = func(s string) {}
var Warn Logger = func(s string) {}
