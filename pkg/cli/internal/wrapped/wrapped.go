package wrapped

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"
)

// MaxLineLength is the upper bound for how long a line can be.
var MaxLineLength = 120

// This is only used if we can't detect the terminal width.
const fallbackLineLength = 80

// LineLength returns the width to wrap output written to w at: the terminal
// width when w is a terminal, capped at MaxLineLength.
func LineLength(w io.Writer) int {
	width := fallbackLineLength
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = tw
		}
	}
	return min(width, MaxLineLength)
}

// Fprintln wraps msg to the line length of w and writes it with a trailing
// newline.
func Fprintln(w io.Writer, msg string) {
	fmt.Fprintln(w, wordwrap.String(msg, LineLength(w)))
}

// Rule repeats s across the line length of w. The rendered width of s is
// used, so styled strings repeat correctly.
func Rule(w io.Writer, s string) string {
	length := LineLength(w)
	width := lipgloss.Width(s)
	if width == 0 {
		return ""
	}
	line := strings.Repeat(s, length/width+1)
	return lipgloss.NewStyle().MaxWidth(length).Render(line)
}
