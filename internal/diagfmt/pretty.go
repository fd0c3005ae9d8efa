package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"lend/internal/diag"
	"lend/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	codeColor = color.New(color.Bold)
	noteColor = color.New(color.FgBlue)
	gutter    = color.New(color.Faint)
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с
// аналогичным форматом. Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := prettyPrinter{w: w, fs: fs, opts: opts}
	for _, d := range bag.Items() {
		p.diagnostic(&d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p *prettyPrinter) paint(c *color.Color, s string) string {
	if !p.opts.Color {
		return s
	}
	return c.Sprint(s)
}

func (p *prettyPrinter) severity(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return p.paint(errColor, sev.String())
	case diag.SevWarning:
		return p.paint(warnColor, sev.String())
	default:
		return p.paint(infoColor, sev.String())
	}
}

func (p *prettyPrinter) location(span source.Span) string {
	f := p.fs.Get(span.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := p.fs.Resolve(span)
	path := f.FormatPath(p.opts.PathMode.format(), p.fs.BaseDir())
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

func (p *prettyPrinter) diagnostic(d *diag.Diagnostic) {
	fmt.Fprintf(p.w, "%s: %s %s: %s\n",
		p.location(d.Primary),
		p.severity(d.Severity),
		p.paint(codeColor, d.Code.ID()),
		d.Message)
	p.snippet(d.Primary, d.Severity)
	if p.opts.ShowNotes {
		for _, note := range d.Notes {
			fmt.Fprintf(p.w, "  %s %s (%s)\n",
				p.paint(noteColor, "note:"), note.Msg, p.location(note.Span))
			p.snippet(note.Span, diag.SevInfo)
		}
	}
}

// snippet prints the primary line with its underline plus up to Context
// surrounding lines.
func (p *prettyPrinter) snippet(span source.Span, sev diag.Severity) {
	f := p.fs.Get(span.File)
	if f == nil || span.Empty() {
		return
	}
	start, end := p.fs.Resolve(span)
	ctx := uint32(0)
	if p.opts.Context > 0 {
		ctx = uint32(p.opts.Context)
	}
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	for line := first; line <= start.Line+ctx; line++ {
		text := f.GetLine(line)
		if text == "" && line != start.Line {
			continue
		}
		fmt.Fprintf(p.w, "  %s %s\n", p.paint(gutter, fmt.Sprintf("%4d |", line)), text)
		if line == start.Line {
			p.underline(text, start, end, sev)
		}
	}
}

func (p *prettyPrinter) underline(text string, start, end source.LineCol, sev diag.Severity) {
	if start.Col == 0 {
		return
	}
	width := uint32(1)
	if end.Line == start.Line && end.Col > start.Col {
		width = end.Col - start.Col
	}
	// не выезжаем за конец строки
	lineLen := uint32(len(text))
	if start.Col-1+width > lineLen+1 {
		if lineLen+1 > start.Col {
			width = lineLen + 1 - start.Col
		} else {
			width = 1
		}
	}
	marker := "^" + strings.Repeat("~", int(width)-1)
	switch sev {
	case diag.SevError:
		marker = p.paint(errColor, marker)
	case diag.SevWarning:
		marker = p.paint(warnColor, marker)
	default:
		marker = p.paint(infoColor, marker)
	}
	fmt.Fprintf(p.w, "  %s %s%s\n", p.paint(gutter, "     |"), strings.Repeat(" ", int(start.Col)-1), marker)
}
