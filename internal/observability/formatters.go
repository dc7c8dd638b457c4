// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/job-elevator/internal/batch"
	"github.com/jonathan/job-elevator/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

// PrintStructuredJob outputs the headline fields of an extraction.
func (p *Printer) PrintStructuredJob(doc *types.StructuredJobDescription) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", doc.RoleSummary.Title))
	sb.WriteString(fmt.Sprintf("Company:  %s\n", deref(doc.CompanyOverview.CompanyName)))
	if doc.CompanyOverview.Industry != nil {
		sb.WriteString(fmt.Sprintf("Industry: %s\n", *doc.CompanyOverview.Industry))
	}
	if doc.RoleSummary.RoleType != nil {
		sb.WriteString(fmt.Sprintf("Type:     %s\n", *doc.RoleSummary.RoleType))
	}
	if doc.RoleSummary.RemoteOptions != nil {
		sb.WriteString(fmt.Sprintf("Remote:   %s\n", *doc.RoleSummary.RemoteOptions))
	}
	if doc.CompensationAndBenefits.SalaryRange != nil {
		sb.WriteString(fmt.Sprintf("Salary:   %s\n", *doc.CompensationAndBenefits.SalaryRange))
	}

	writeList(&sb, "Required Qualifications", doc.ResponsibilitiesAndQualifications.RequiredQualifications, maxItemsToShow)
	writeList(&sb, "Tools", doc.ResponsibilitiesAndQualifications.ToolsAndTechnologies, 3)

	p.printBox("STRUCTURED JOB", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, title string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n" + title + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintAssessment outputs the overall and per-section grades.
func (p *Printer) PrintAssessment(q *types.QualityAssessment) {
	if q == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score: %.2f  Grade: %s\n", q.AggregateScore(), types.GradeForScore(q.AggregateScore())))

	if len(q.Sections) > 0 {
		sb.WriteString("\n")
		for _, s := range q.Sections {
			marker := " "
			if s.NeedsImprovement {
				marker = "↻"
			}
			sb.WriteString(fmt.Sprintf("%s %-36s %.2f\n", marker, s.SectionName, s.Score))
		}
	}

	if q.OverallFeedback != "" {
		sb.WriteString("\nFeedback:\n")
		for _, line := range strings.Split(q.OverallFeedback, "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}

	p.printBox("QUALITY ASSESSMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWorkflowState outputs a posting's final workflow state.
func (p *Printer) PrintWorkflowState(state types.WorkflowState) {
	icon := "✅"
	if state.Status == types.StatusFailed {
		icon = "❌"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n", state.JobID))
	sb.WriteString(fmt.Sprintf("Status:   %s %s\n", icon, state.Status))
	sb.WriteString(fmt.Sprintf("Attempts: %d/%d\n", state.Attempts, state.MaxAttempts))
	if state.QualityAssessment != nil {
		sb.WriteString(fmt.Sprintf("Score:    %.2f\n", state.QualityAssessment.AggregateScore()))
	}
	if state.ErrorMessage != nil {
		sb.WriteString(fmt.Sprintf("Error:    %s\n", *state.ErrorMessage))
	}
	if !state.CreatedAt.IsZero() && !state.UpdatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Elapsed:  %s\n", state.UpdatedAt.Sub(state.CreatedAt).Round(time.Millisecond)))
	}

	p.printBox("WORKFLOW STATE", strings.TrimSuffix(sb.String(), "\n"))
	p.PrintStructuredJob(state.StructuredJob)
	p.PrintAssessment(state.QualityAssessment)
}

// PrintSummary outputs batch totals and, when given, the failed postings.
func (p *Printer) PrintSummary(summary batch.Summary, failures []batch.Outcome) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total:      %d\n", summary.Total))
	sb.WriteString(fmt.Sprintf("Successful: %d\n", summary.Successful))
	sb.WriteString(fmt.Sprintf("Failed:     %d", summary.Failed))

	if len(failures) > 0 {
		sb.WriteString("\n\nFailures:\n")
		count := min(len(failures), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("⚠ %s\n", failures[i].PostingID))
			sb.WriteString(fmt.Sprintf("  %s\n", failures[i].Error))
		}
		if len(failures) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more", len(failures)-maxItemsToShow))
		}
	}

	p.printBox("BATCH SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
