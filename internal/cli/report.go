package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cwbudde/algo-qchannel/dsp/param"
	"github.com/cwbudde/algo-qchannel/internal/render"
	"github.com/cwbudde/algo-qchannel/measure/coherence"
)

// MissingValue stands in for non-finite metrics.
const MissingValue = "-"

// Row is one line of a Table. Values are pre-formatted.
type Row struct {
	Label  string
	Values []string
	Unit   string
}

// Table renders aligned metric columns.
type Table struct {
	Headers []string
	Rows    []Row
}

func (t *Table) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth := 0
	widths := make([]int, len(t.Headers))

	for i, h := range t.Headers {
		widths[i] = len(h)
	}

	for _, r := range t.Rows {
		labelWidth = max(labelWidth, len(r.Label))
		for i, v := range r.Values {
			if i < len(widths) {
				widths[i] = max(widths[i], len(v))
			}
		}
	}

	var sb strings.Builder

	sb.WriteString(strings.Repeat(" ", labelWidth))
	for i, h := range t.Headers {
		fmt.Fprintf(&sb, "  %*s", widths[i], h)
	}

	sb.WriteString("\n")

	for _, r := range t.Rows {
		fmt.Fprintf(&sb, "%-*s", labelWidth, r.Label)

		for i := range t.Headers {
			v := MissingValue
			if i < len(r.Values) {
				v = r.Values[i]
			}

			fmt.Fprintf(&sb, "  %*s", widths[i], v)
		}

		if r.Unit != "" {
			sb.WriteString(" " + r.Unit)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatMetric formats v with the given decimals, or MissingValue when it
// is not finite.
func FormatMetric(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return MissingValue
	}

	return fmt.Sprintf("%.*f", decimals, v)
}

// LevelTable compares input and output levels per channel.
func LevelTable(rep *render.Report) *Table {
	t := &Table{Headers: []string{"Input", "Output"}}

	for ch := range rep.Input {
		in, out := rep.Input[ch], rep.Output[ch]
		prefix := ""

		if len(rep.Input) > 1 {
			prefix = fmt.Sprintf("ch%d ", ch+1)
		}

		t.Rows = append(t.Rows,
			Row{Label: prefix + "RMS", Values: []string{FormatMetric(in.RMS_dB, 1), FormatMetric(out.RMS_dB, 1)}, Unit: "dBFS"},
			Row{Label: prefix + "Peak", Values: []string{FormatMetric(in.Peak_dB, 1), FormatMetric(out.Peak_dB, 1)}, Unit: "dBFS"},
			Row{Label: prefix + "Crest", Values: []string{FormatMetric(in.CrestFactor_dB, 1), FormatMetric(out.CrestFactor_dB, 1)}, Unit: "dB"},
		)
	}

	return t
}

// CoherenceTable summarizes a dry/wet comparison.
func CoherenceTable(res coherence.Result) *Table {
	return &Table{
		Headers: []string{"Dry", "Wet"},
		Rows: []Row{
			{Label: "Centroid", Values: []string{FormatMetric(res.Dry.Centroid, 0), FormatMetric(res.Wet.Centroid, 0)}, Unit: "Hz"},
			{Label: "Spread", Values: []string{FormatMetric(res.Dry.Spread, 0), FormatMetric(res.Wet.Spread, 0)}, Unit: "Hz"},
			{Label: "Rolloff", Values: []string{FormatMetric(res.Dry.Rolloff, 0), FormatMetric(res.Wet.Rolloff, 0)}, Unit: "Hz"},
			{Label: "Flatness", Values: []string{FormatMetric(res.Dry.Flatness, 3), FormatMetric(res.Wet.Flatness, 3)}},
		},
	}
}

// WriteCoherence prints the headline coherence figures followed by the
// spectral shape table.
func WriteCoherence(w io.Writer, res coherence.Result) {
	PrintKeyValue(w, "Coherence", FormatMetric(res.Coherence, 3))
	PrintKeyValue(w, "Mag. dev.", FormatMetric(res.MagnitudeDeviation_dB, 2)+" dB")
	PrintKeyValue(w, "Level change", fmt.Sprintf("%s dB", signed(res.LevelChange_dB, 2)))
	PrintKeyValue(w, "Frames", fmt.Sprint(res.Frames))
	fmt.Fprintln(w)
	fmt.Fprint(w, CoherenceTable(res).String())
}

// WriteReport prints a render summary.
func WriteReport(w io.Writer, rep *render.Report) {
	fmt.Fprint(w, LevelTable(rep).String())

	if rep.Coherence != nil {
		fmt.Fprintln(w)
		WriteCoherence(w, *rep.Coherence)
	}
}

// WriteParams prints the parameter layout with current values.
func WriteParams(w io.Writer, store *param.Store) {
	t := &Table{Headers: []string{"Kind", "Range", "Default", "Value"}}

	for _, spec := range store.Specs() {
		value, err := store.Format(spec.ID)
		if err != nil {
			value = MissingValue
		}

		rng := fmt.Sprintf("%s..%s", spec.Format(spec.Min), spec.Format(spec.Max))
		if spec.Kind == param.Choice {
			rng = strings.Join(spec.Choices, "|")
		}

		t.Rows = append(t.Rows, Row{
			Label:  fmt.Sprintf("%s (%s)", spec.ID, spec.Name),
			Values: []string{spec.Kind.String(), rng, spec.Format(spec.Default), value},
		})
	}

	fmt.Fprint(w, t.String())
}

func signed(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return MissingValue
	}

	return fmt.Sprintf("%+.*f", decimals, v)
}
