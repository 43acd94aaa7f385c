package render

import (
	"bytes"
	"fmt"
	"os/exec"
)

// graphviz pipes DOT source through the layout binary and returns the
// rendered bytes. Layout itself is the backend's concern; nothing here knows
// about node positions.
func graphviz(dotSource []byte, format Format) ([]byte, error) {
	var tag string
	switch format {
	case FormatPNG:
		tag = "png"
	case FormatJPG:
		tag = "jpg"
	case FormatSVG:
		tag = "svg"
	default:
		return nil, &UnsupportedFormatError{Format: format.String()}
	}

	cmd := exec.Command(GraphvizCommand, "-T"+tag)
	cmd.Stdin = bytes.NewReader(dotSource)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	Debug(fmt.Sprintf("running %s -T%s", GraphvizCommand, tag))

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %w: %s", ErrGraphvizFailed, err, stderr.String())
		}
		return nil, fmt.Errorf("%w: %w", ErrGraphvizFailed, err)
	}

	// Layout can succeed while still grumbling about the input.
	if stderr.Len() > 0 {
		Warn(stderr.String())
	}

	return out.Bytes(), nil
}
