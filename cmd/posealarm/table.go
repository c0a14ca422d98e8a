package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/danielpatrickdp/pose-alarm/internal/counter"
)

// #region columns

// column is one table column. Rows carry raw values (ints, floats, times,
// IDs) and the column's transformer turns them into text.
type column struct {
	header    string
	align     text.Align
	maxWidth  int
	transform text.Transformer
}

func textCol(header string) column {
	return column{header: header, align: text.AlignLeft, transform: dashEmpty}
}

func countCol(header string) column {
	return column{header: header, align: text.AlignRight}
}

// idCol shortens uuids to their first eight characters.
func idCol(header string) column {
	return column{header: header, align: text.AlignLeft, transform: func(v any) string {
		s, _ := v.(string)
		return dash(shortID(s))
	}}
}

func timeCol(header string) column {
	return column{header: header, align: text.AlignLeft, transform: func(v any) string {
		t, ok := v.(time.Time)
		if !ok {
			return dashEmpty(v)
		}
		return dash(formatOptionalTime(t))
	}}
}

// percentCol renders a confidence in [0,1] as "97.00%".
func percentCol(header string) column {
	return column{header: header, align: text.AlignRight, transform: func(v any) string {
		f, ok := v.(float64)
		if !ok {
			return dashEmpty(v)
		}
		return formatPercent(f)
	}}
}

// reasonCol wraps long reasons instead of widening the table.
func reasonCol(header string) column {
	c := textCol(header)
	c.maxWidth = 60
	return c
}

func dashEmpty(v any) string {
	return dash(fmt.Sprint(v))
}

// #endregion columns

// #region builder

type tableBuilder struct {
	cols []column
	rows []table.Row
}

func newTable(cols ...column) *tableBuilder {
	return &tableBuilder{cols: cols}
}

// add appends a row. Missing trailing cells render empty.
func (b *tableBuilder) add(cells ...any) {
	row := make(table.Row, len(b.cols))
	for i := range row {
		if i < len(cells) && cells[i] != nil {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	b.rows = append(b.rows, row)
}

func (b *tableBuilder) render() string {
	if len(b.cols) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(b.cols))
	configs := make([]table.ColumnConfig, len(b.cols))
	for i, c := range b.cols {
		header[i] = c.header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.align,
			AlignHeader: text.AlignLeft,
			Transformer: c.transform,
			WidthMax:    c.maxWidth,
		}
		if c.maxWidth > 0 {
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.AppendHeader(header)
	tw.AppendRows(b.rows)
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// #endregion builder

// #region domain-tables

// countersTable lists each exercise with its state label and count. The
// completions column is filled for the target only.
func countersTable(snaps []counter.Snapshot, target string, completions int) string {
	b := newTable(textCol("Exercise"), textCol("State"), countCol("Count"), countCol("Completions"))
	for _, snap := range snaps {
		var done any
		if snap.Exercise.Name == target {
			done = completions
		}
		b.add(snap.Exercise.Name, stateLabel(snap), snap.Count, done)
	}
	return b.render()
}

// orderedLabels returns the labels of confidences in the order given by known,
// followed by any other labels sorted by name.
func orderedLabels(confidences map[string]float64, known []string) []string {
	out := make([]string, 0, len(confidences))
	seen := make(map[string]bool, len(known))
	for _, l := range known {
		seen[l] = true
		if _, ok := confidences[l]; ok {
			out = append(out, l)
		}
	}
	var extra []string
	for l := range confidences {
		if !seen[l] {
			extra = append(extra, l)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// formatConfidences renders every label's confidence, e.g.
// "squatting 97.00% standing 3.00%".
func formatConfidences(confidences map[string]float64, known []string) string {
	labels := orderedLabels(confidences, known)
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l + " " + formatPercent(confidences[l])
	}
	return strings.Join(parts, " ")
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

// #endregion domain-tables
