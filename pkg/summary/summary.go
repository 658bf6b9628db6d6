// Package summary renders the closing readiness table for an engine from
// the relations staged during a run.
package summary

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Summary is a titled table of strings.
type Summary struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// String renders the summary as a bordered table.
func (s *Summary) String() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(s.Headers...).
		Rows(s.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	var b strings.Builder
	if s.Title != "" {
		b.WriteString(titleStyle.Render(s.Title))
		b.WriteString("\n")
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// Render writes the rendered summary to w.
func (s *Summary) Render(w io.Writer) error {
	if _, err := io.WriteString(w, s.String()); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// Print fetches the summary with r and writes it to w. before, if not nil,
// is called once the summary has been fetched and just ahead of rendering.
// Nothing is written and before is not called if fetching fails.
func Print(ctx context.Context, r Renderer, src Source, w io.Writer, before func(*Summary)) error {
	s, err := r.Summarize(ctx, src)
	if err != nil {
		return err
	}
	if before != nil {
		before(s)
	}
	return s.Render(w)
}
