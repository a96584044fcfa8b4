package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/planeta/qualitycheck/internal/model"
)

// TextWriter outputs human-readable text reports for the terminal.
type TextWriter struct {
	baseWriter

	// verbose lists every open task instead of only the new ones.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables listing of every open task.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *TextWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeSheets(&sb, summary)
	w.writeTotals(&sb, summary)
	w.writeCounts(&sb, "BY ADMIN", summary.ByAdmin)
	w.writeCounts(&sb, "BY ERROR TYPE", summary.ByErrorType)
	w.writeTasks(&sb, summary)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *TextWriter) writeHeader(sb *strings.Builder, s *Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      DATA QUALITY REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Source:     %s\n", s.Source)
	fmt.Fprintf(sb, "Run:        %s\n", s.RunID)
	fmt.Fprintf(sb, "Started:    %s\n", s.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:   %s\n", s.Duration())
	fmt.Fprintf(sb, "Status:     %s\n", strings.ToUpper(s.Status()))
	if s.Error != "" {
		fmt.Fprintf(sb, "Error:      %s\n", s.Error)
	}
	sb.WriteString("\n")
}

func (w *TextWriter) writeSheets(sb *strings.Builder, s *Summary) {
	section(sb, "SHEETS")
	for _, sh := range s.Sheets {
		if sh.Error != "" {
			fmt.Fprintf(sb, "  [!] %-14s  not read: %s\n", sh.Name, sh.Error)
			continue
		}
		fmt.Fprintf(sb, "  [+] %-14s  %6d rows  %6d findings\n", sh.Name, sh.Rows, sh.Findings)
	}
	sb.WriteString("\n")
}

func (w *TextWriter) writeTotals(sb *strings.Builder, s *Summary) {
	section(sb, "TASKS")
	fmt.Fprintf(sb, "  Findings:   %d\n", s.Findings)
	fmt.Fprintf(sb, "  Tasks:      %d (%d manual)\n", len(s.Tasks), s.ManualTasks)
	fmt.Fprintf(sb, "  New:        %d\n", len(s.NewTasks))
	fmt.Fprintf(sb, "  Resolved:   %d\n", len(s.ResolvedTasks))
	fmt.Fprintf(sb, "  Unchanged:  %d\n", s.UnchangedTasks)
	switch {
	case s.DryRun:
		fmt.Fprintf(sb, "\n  Dry run: %q was not updated.\n", s.TaskSheet)
	case s.Written:
		fmt.Fprintf(sb, "\n  Task list written to %q.\n", s.TaskSheet)
	}
	sb.WriteString("\n")
}

func (w *TextWriter) writeCounts(sb *strings.Builder, title string, counts []Count) {
	if len(counts) == 0 {
		return
	}
	section(sb, title)
	for _, c := range counts {
		fmt.Fprintf(sb, "  %-24s %d\n", c.Label, c.Count)
	}
	sb.WriteString("\n")
}

func (w *TextWriter) writeTasks(sb *strings.Builder, s *Summary) {
	tasks, title := s.NewTasks, "NEW TASKS"
	if w.verbose {
		tasks, title = s.Tasks, "OPEN TASKS"
	}
	if len(tasks) == 0 {
		return
	}

	section(sb, title)
	for _, t := range tasks {
		writeTask(sb, "*", t)
	}
	if w.verbose && len(s.ResolvedTasks) > 0 {
		sb.WriteString("\n")
		section(sb, "RESOLVED TASKS")
		for _, t := range s.ResolvedTasks {
			writeTask(sb, "-", t)
		}
	}
	sb.WriteString("\n")
}

func writeTask(sb *strings.Builder, marker string, t model.ReportItem) {
	fmt.Fprintf(sb, "  %s [%s] %s / %s: %s\n", marker, t.CreatedDate, t.Sheet, t.ErrorColumn, t.Description)
	if t.Admin != "" {
		fmt.Fprintf(sb, "      Admin: %s\n", t.Admin)
	}
	if t.Link != "" {
		fmt.Fprintf(sb, "      Link:  %s\n", t.Link)
	}
}
