package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/algo-qchannel/internal/cli"
)

const (
	silenceFloor = -90.0
	barWidth     = 40
)

var (
	queuedIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
	activeIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("⚙")
	doneIcon   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
	failIcon   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D70000")).Render("✗")

	detailBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B2EE5")).
			Padding(0, 1)
)

func renderProgress(m Model) string {
	var b strings.Builder

	b.WriteString(cli.TitleStyle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(cli.SubtitleStyle.Render(fmt.Sprintf("Rendering %d file(s)", len(m.Files))))
	b.WriteString("\n\n")

	for _, f := range m.Files {
		b.WriteString(renderEntry(f))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(cli.KeyStyle.Render(fmt.Sprintf("%d/%d done, %d failed  (q to abort)",
		m.Completed+m.Failed, len(m.Files), m.Failed)))

	return b.String()
}

func renderEntry(f FileProgress) string {
	name := filepath.Base(f.InputPath)

	switch f.Status {
	case StatusRendering:
		var d strings.Builder

		d.WriteString(renderProgressBar(f.Progress, barWidth))
		d.WriteString("\n")
		fmt.Fprintf(&d, "Elapsed %.1fs", f.Elapsed.Seconds())

		if f.Level > silenceFloor {
			fmt.Fprintf(&d, " | Level %.1f dB | Peak %.1f dB", f.Level, f.PeakLevel)
		}

		return fmt.Sprintf(" %s %s\n%s", activeIcon, name, detailBox.Render(d.String()))

	case StatusComplete:
		return fmt.Sprintf(" %s %s → %s%s", doneIcon, name, filepath.Base(f.OutputPath), summaryLine(f))

	case StatusError:
		return fmt.Sprintf(" %s %s\n   Error: %v", failIcon, name, f.Err)

	default:
		return fmt.Sprintf(" %s %s", queuedIcon, name)
	}
}

func summaryLine(f FileProgress) string {
	if f.Report == nil || len(f.Report.Input) == 0 {
		return ""
	}

	in, out := f.Report.Input[0], f.Report.Output[0]
	line := fmt.Sprintf("\n   RMS %s → %s dBFS", cli.FormatMetric(in.RMS_dB, 1), cli.FormatMetric(out.RMS_dB, 1))

	if c := f.Report.Coherence; c != nil {
		line += fmt.Sprintf(" | coherence %.3f", c.Coherence)
	}

	return line
}

func renderSummary(m Model) string {
	var b strings.Builder

	b.WriteString(cli.TitleStyle.Render(m.Title))
	b.WriteString("\n\n")

	for _, f := range m.Files {
		b.WriteString(renderEntry(f))
		b.WriteString("\n")
	}

	b.WriteString("\n")

	status := cli.SuccessStyle.Render(fmt.Sprintf("%d rendered", m.Completed))
	if m.Failed > 0 {
		status += ", " + cli.ErrorStyle.Render(fmt.Sprintf("%d failed", m.Failed))
	}

	b.WriteString(status)
	b.WriteString("\n")

	return b.String()
}

func renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))

	return fmt.Sprintf("%s%s %3d%%",
		strings.Repeat("█", filled), strings.Repeat("░", width-filled), int(progress*100))
}
