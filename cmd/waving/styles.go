package main

import (
	"fmt"
	"io"

	"github.com/RyanBlaney/wave-analyzer/editor"
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#2E86DE")
	accentColor  = lipgloss.Color("#FFA500")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
	errorColor   = lipgloss.Color("#A40000")
)

// printer renders styled output for one writer; the renderer drops colors
// when the writer isn't a terminal.
type printer struct {
	w io.Writer

	title   lipgloss.Style
	section lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
	err     lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:       w,
		title:   r.NewStyle().Bold(true).Foreground(primaryColor),
		section: r.NewStyle().Bold(true).Foreground(accentColor).MarginTop(1),
		key:     r.NewStyle().Foreground(mutedColor).Width(22),
		value:   r.NewStyle().Bold(true).Foreground(textColor),
		err:     r.NewStyle().Bold(true).Foreground(errorColor),
	}
}

func (p *printer) Version(version string) {
	fmt.Fprintln(p.w, p.title.Render("waving"))
	fmt.Fprintf(p.w, "%s %s\n", p.key.Render("Version:"), p.value.Render(version))
}

func (p *printer) Error(message string) {
	fmt.Fprintf(p.w, "%s %s\n", p.err.Render("Error:"), message)
}

// Report prints the labeled stats and a short spectrum summary for one file
func (p *printer) Report(path string, session *editor.Session) {
	stats := session.Stats()

	fmt.Fprintln(p.w, p.title.Render(path))
	for _, line := range editor.ReportLines(stats) {
		fmt.Fprintf(p.w, "  %s %s\n", p.key.Render(line.Label), p.value.Render(line.Value))
	}

	curve := editor.SpectrumCurve(stats)
	if peak, ok := loudestBin(curve); ok {
		fmt.Fprintln(p.w, p.section.Render("Spectrum"))
		fmt.Fprintf(p.w, "  %s %s\n", p.key.Render("Bins"), p.value.Render(fmt.Sprint(len(curve))))
		fmt.Fprintf(p.w, "  %s %s\n", p.key.Render("Loudest bin"), p.value.Render(peak.String()))
	}

	summary := editor.Summarize(session.Waveform())
	fmt.Fprintln(p.w, p.section.Render("Waveform"))
	fmt.Fprintf(p.w, "  %s %s\n", p.key.Render("Points"), p.value.Render(fmt.Sprint(summary.Points)))
	fmt.Fprintf(p.w, "  %s %s\n", p.key.Render("Range"),
		p.value.Render(fmt.Sprintf("%.4f .. %.4f", summary.Min, summary.Max)))
	fmt.Fprintln(p.w)
}

// loudestBin picks the strongest non-DC bin
func loudestBin(curve []editor.CurvePoint) (editor.CurvePoint, bool) {
	if len(curve) < 2 {
		return editor.CurvePoint{}, false
	}
	best := curve[1]
	for _, pt := range curve[2:] {
		if pt.DB > best.DB {
			best = pt
		}
	}
	return best, true
}
