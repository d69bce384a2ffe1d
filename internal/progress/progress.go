// Package progress renders terminal progress bars for long-running
// prefetch and render operations. Output is suppressed when stdout is not
// a terminal, so batch runs and tests stay silent.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Bar is a single terminal progress bar. Safe for concurrent Add calls.
type Bar struct {
	mu      sync.Mutex
	label   string
	total   int
	current int
	width   int
	out     io.Writer
	quiet   bool
}

// New constructs a Bar with the given label and total count.
func New(label string, total int) *Bar {
	quiet := !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
	return &Bar{
		label: label,
		total: total,
		width: 20,
		out:   colorable.NewColorableStdout(),
		quiet: quiet,
	}
}

// Add advances the bar by delta and repaints the current line.
func (b *Bar) Add(delta int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current += delta
	if b.current > b.total {
		b.current = b.total
	}
	b.render()
}

// Finish fills the bar to completion and prints a trailing newline.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.total
	b.render()
	if !b.quiet && b.total > 0 {
		fmt.Fprintln(b.out)
	}
}

// labelColumns is the fixed column budget the label is padded or
// truncated to, keeping the bar column aligned across bars.
const labelColumns = 24

// render draws "{label} [####------] pos/total (pct%)" in place.
func (b *Bar) render() {
	if b.quiet || b.total <= 0 {
		return
	}
	pct := 100 * b.current / b.total
	filled := b.width * b.current / b.total
	bar := strings.Repeat("#", filled) + strings.Repeat("-", b.width-filled)

	fmt.Fprintf(b.out, "\r%s [%s] %d/%d (%d%%)", fitLabel(b.label, labelColumns), bar, b.current, b.total, pct)
}

// fitLabel pads label to exactly width terminal columns, truncating an
// overlong label with a trailing ellipsis. Truncation walks grapheme
// clusters rather than bytes or runes so a multi-codepoint glyph is never
// split, and printed width is measured per cluster so double-width glyphs
// stay within the column budget.
func fitLabel(label string, width int) string {
	printed := runewidth.StringWidth(label)
	if printed <= width {
		return label + strings.Repeat(" ", width-printed)
	}

	var sb strings.Builder
	used := 0
	graphemes := uniseg.NewGraphemes(label)
	for graphemes.Next() {
		g := graphemes.Str()
		w := runewidth.StringWidth(g)
		if used+w > width-1 {
			break
		}
		sb.WriteString(g)
		used += w
	}
	sb.WriteString("…")
	used++
	if used < width {
		sb.WriteString(strings.Repeat(" ", width-used))
	}
	return sb.String()
}
