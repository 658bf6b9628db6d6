// Package console prints run progress for the command line: one section per
// query category and one line per completed script.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/txn2/dma-readiness/pkg/catalog"
	"github.com/txn2/dma-readiness/pkg/collector"
	"github.com/txn2/dma-readiness/pkg/query"
	"github.com/txn2/dma-readiness/pkg/summary"
)

const sectionWidth = 80

// SummaryTitle heads the summary table.
const SummaryTitle = "COLLECTION SUMMARY"

var sectionTitles = map[catalog.Category]string{
	catalog.Collection:         "COLLECTION QUERIES",
	catalog.ExtendedCollection: "EXTENDED COLLECTION QUERIES",
	catalog.Transformation:     "THE TRANSFORMATION QUERIES",
	catalog.Assessment:         "THE ASSESSMENT QUERIES",
}

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Padding(1, 0).Width(sectionWidth)
	checkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	nameStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Printer writes progress lines to w.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Hooks returns collector hooks that print progress.
func (p *Printer) Hooks() collector.Hooks {
	return collector.Hooks{
		BeforeCategory: p.category,
		BeforeQuery:    p.executing,
		AfterQuery:     p.gathered,
	}
}

// SummaryHeading prints the summary heading. It is meant to run once the
// summary has been fetched, so a failed fetch leaves no heading behind.
func (p *Printer) SummaryHeading(*summary.Summary) {
	p.Section(SummaryTitle)
}

// Section prints a padded bold heading.
func (p *Printer) Section(title string) {
	p.print(sectionStyle.Render(title))
}

func (p *Printer) category(c catalog.Category, names []string) {
	title, ok := sectionTitles[c]
	if !ok {
		title = strings.ToUpper(string(c)) + " QUERIES"
	}
	p.Section(title)
	if len(names) == 0 {
		label := strings.ReplaceAll(string(c), "_", " ")
		p.print(dimStyle.Render(fmt.Sprintf(" ✔ No %s queries for this database type", label)))
	}
}

func (p *Printer) executing(_ catalog.Category, name string) {
	p.print(dimStyle.Render(fmt.Sprintf("   Executing `%s`", name)))
}

func (p *Printer) gathered(_ catalog.Category, name string, _ *query.ResultSet) {
	p.print(fmt.Sprintf(" %s Gathered %s", checkStyle.Render("✔"), nameStyle.Render("`"+name+"`")))
}

func (p *Printer) print(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, line)
}
