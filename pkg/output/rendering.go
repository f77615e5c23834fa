package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/dirmerge/pkg/diff"
)

// WriteRendering displays a diff or preview. Added lines are green, removed
// lines red and hunk headers cyan when colorize is set.
func WriteRendering(w io.Writer, r *diff.Rendering, colorize bool) {
	colors := newPalette(colorize)

	if r.Title != "" {
		fmt.Fprintf(w, "\n%s\n", colors.heading.Sprint(r.Title))
	}

	switch r.Kind {
	case diff.KindBinary:
		fmt.Fprintf(w, "    %s\n", colors.skip.Sprint(r.Message))
		return
	case diff.KindError:
		fmt.Fprintf(w, "    %s\n", colors.fail.Sprint(r.Message))
		return
	}

	for _, line := range r.Lines {
		text := line.String()
		switch line.Op {
		case diff.OpAdd:
			text = colors.add.Sprint(text)
		case diff.OpDelete:
			text = colors.del.Sprint(text)
		case diff.OpHunk:
			text = colors.hunk.Sprint(text)
		case diff.OpMarker:
			text = colors.dim.Sprint(text)
		}
		fmt.Fprintf(w, "    %s\n", text)
	}

	if r.More > 0 {
		fmt.Fprintf(w, "    %s\n", colors.dim.Sprintf("... and %d more lines", r.More))
	}
	if r.Message != "" {
		fmt.Fprintf(w, "    %s\n", colors.dim.Sprint(r.Message))
	}
}
