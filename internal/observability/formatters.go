// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/privacy-lens/internal/classify"
	"github.com/jonathan/privacy-lens/internal/crawling"
	"github.com/jonathan/privacy-lens/internal/scoring"
	"github.com/jonathan/privacy-lens/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out     io.Writer
	maxList int
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, maxList: maxItemsToShow}
}

// ShowAll disables list truncation.
func (p *Printer) ShowAll() *Printer {
	p.maxList = 0
	return p
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// writeList writes a bulleted list, truncated to the printer's limit.
func (p *Printer) writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := len(items)
	if p.maxList > 0 {
		count = min(count, p.maxList)
	}
	for _, item := range items[:count] {
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > count {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-count))
	}
	sb.WriteString("\n")
}

// PrintSite outputs the score card of an analysed site.
func (p *Printer) PrintSite(site *types.Site, cached bool, warning string) {
	if site == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:       %s\n", site.URL))
	sb.WriteString(fmt.Sprintf("Score:     %d/100\n", site.Score))
	sb.WriteString(fmt.Sprintf("Grade:     %s (%s)\n", site.Grade, site.Category))
	sb.WriteString(fmt.Sprintf("Trackers:  %d\n", len(site.Trackers)))
	if !site.LastAnalyzed.IsZero() {
		sb.WriteString(fmt.Sprintf("Analyzed:  %s", site.LastAnalyzed.UTC().Format(time.RFC3339)))
		if cached {
			sb.WriteString(" (cached)")
		}
		sb.WriteString("\n")
	}
	if warning != "" {
		sb.WriteString(fmt.Sprintf("\n⚠ %s\n", warning))
	}

	p.printBox("PRIVACY SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the full projection of a privacy summary.
func (p *Printer) PrintSummary(s *types.AISummary) {
	if s == nil {
		return
	}

	view := s.Summary.FullSummary
	if view == nil {
		view = &types.SummaryProjection{
			WhatTheyCollect:  s.Summary.WhatTheyCollect,
			WhoTheyShareWith: s.Summary.WhoTheyShareWith,
			HowLongTheyKeep:  s.Summary.HowLongTheyKeep,
			KeyRisks:         s.Summary.KeyRisks,
			TrackerBreakdown: s.Summary.TrackerBreakdown,
		}
	}

	var sb strings.Builder
	source := "AI summary"
	if !s.Success {
		source = "Rule-based summary"
	}
	sb.WriteString(source + "\n")
	if s.Note != "" {
		sb.WriteString(fmt.Sprintf("Note: %s\n", s.Note))
	}
	sb.WriteString("\n")

	p.writeList(&sb, "Collects", view.WhatTheyCollect)
	p.writeList(&sb, "Shares with", view.WhoTheyShareWith)
	if view.HowLongTheyKeep != "" {
		sb.WriteString(fmt.Sprintf("Retention: %s\n\n", view.HowLongTheyKeep))
	}
	p.writeList(&sb, "Key risks", view.KeyRisks)
	p.writeList(&sb, "Breakdown", view.TrackerBreakdown)

	p.printBox("DATA PRACTICES", strings.TrimRight(sb.String(), "\n"))
}

// PrintTrackers outputs each tracker with its classification.
func (p *Printer) PrintTrackers(trackers []string) {
	if len(trackers) == 0 {
		p.printBox("TRACKERS", "✅ No trackers detected")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Detected %d trackers:\n\n", len(trackers)))

	count := len(trackers)
	if p.maxList > 0 {
		count = min(count, p.maxList*2)
	}
	for _, c := range classify.ClassifyAll(trackers[:count]) {
		sb.WriteString(fmt.Sprintf("• %s\n", c.Domain))
		sb.WriteString(fmt.Sprintf("  %s · %s · %s\n", c.Name, c.Category, c.Company))
	}
	if len(trackers) > count {
		sb.WriteString(fmt.Sprintf("\n... and %d more trackers", len(trackers)-count))
	}

	p.printBox("TRACKERS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDetection outputs a single detection result.
func (p *Printer) PrintDetection(res *crawling.Result) {
	if res == nil {
		return
	}
	if res.TimedOut {
		//nolint:errcheck // writing to stdout; errors are not recoverable
		fmt.Fprintf(p.out, "⚠ navigation of %s timed out; tracker list may be partial\n", res.URL)
	}
	p.PrintTrackers(res.Trackers)
}

// PrintBatch outputs one line per batch record.
func (p *Printer) PrintBatch(records []types.BatchRecord) {
	var sb strings.Builder
	ok := 0
	for _, r := range records {
		if r.Success {
			ok++
			sb.WriteString(fmt.Sprintf("✓ %s  %d trackers\n", r.URL, r.TrackerCount))
		} else {
			sb.WriteString(fmt.Sprintf("✗ %s  %s\n", r.URL, r.Error))
		}
	}
	sb.WriteString(fmt.Sprintf("\n%d/%d succeeded", ok, len(records)))

	p.printBox("BATCH DETECTION", sb.String())
}

// PrintClassification outputs a single classification.
func (p *Printer) PrintClassification(c types.TrackerClassification) {
	content := fmt.Sprintf("Domain:    %s\nName:      %s\nCategory:  %s\nCompany:   %s",
		c.Domain, c.Name, c.Category, c.Company)
	p.printBox("CLASSIFICATION", content)
}

// PrintScore outputs a score result with its breakdown.
func (p *Printer) PrintScore(r scoring.Result) {
	b := r.Breakdown
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:     %d/100 (%s profile)\n", r.Score, r.Profile))
	sb.WriteString(fmt.Sprintf("Grade:     %s (%s)\n\n", r.Grade, r.Category))
	sb.WriteString(fmt.Sprintf("Trackers   %+d\n", b.TrackerPoints))
	sb.WriteString(fmt.Sprintf("HTTPS      %+d\n", b.SchemePoints))
	sb.WriteString(fmt.Sprintf("Policy     %+d\n", b.PolicyPoints))
	sb.WriteString(fmt.Sprintf("Risks      %+d\n", b.SummaryPoints))
	sb.WriteString(fmt.Sprintf("Companies  %+d", -b.CompanyPenalty))

	p.printBox("SCORE BREAKDOWN", sb.String())
}
