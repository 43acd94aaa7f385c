package render

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the closed set of output formats.
type Format uint8

const (
	FormatDOT Format = iota
	FormatPNG
	FormatJPG
	FormatSVG
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatDOT:
		return "dot"
	case FormatPNG:
		return "png"
	case FormatJPG:
		return "jpg"
	case FormatSVG:
		return "svg"
	case FormatHTML:
		return "html"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Ext returns the filename extension for the format, without the dot.
func (f Format) Ext() string {
	return f.String()
}

// ParseFormat maps a format tag to its Format, rejecting unknown values with
// an UnsupportedFormatError.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dot":
		return FormatDOT, nil
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "svg":
		return FormatSVG, nil
	case "html":
		return FormatHTML, nil
	}
	return FormatDOT, &UnsupportedFormatError{Format: s}
}

// FormatFromPath infers the format from an output filename's extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return FormatDOT, &UnsupportedFormatError{Format: path}
	}
	return ParseFormat(ext)
}
