package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/planeta/qualitycheck/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, for posting to chats
// and wikis.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	w.writeSheets(md, summary)
	w.writeBreakdown(md, summary)
	w.writeTasks(md, "New tasks", summary.NewTasks)
	w.writeResolved(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Data Quality Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + s.Source + "`"},
			{"Run", "`" + s.RunID + "`"},
			{"Started", s.StartedAt.Format(timeLayout)},
			{"Duration", s.Duration().String()},
			{"Status", statusText(s)},
			{"Findings", strconv.Itoa(s.Findings)},
			{"Tasks", strconv.Itoa(len(s.Tasks)) + " (" + strconv.Itoa(s.ManualTasks) + " manual)"},
			{"New / resolved", strconv.Itoa(len(s.NewTasks)) + " / " + strconv.Itoa(len(s.ResolvedTasks))},
		},
	})
	md.PlainText("")
}

func statusText(s *Summary) string {
	switch s.Status() {
	case "timed out":
		return "⚠️ Timed out"
	case "failed":
		return "❌ Failed - " + s.Error
	case "partial":
		return "⚠️ Partial (" + strconv.Itoa(s.FailedSheets()) + " sheet(s) not read)"
	case "dry run":
		return "🔍 Dry run"
	default:
		return "✅ Complete"
	}
}

// writeAlert writes an alert matching the state of the task list.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *Summary) {
	switch {
	case s.Error != "" || s.TimedOut:
		md.Cautionf("The run did not finish; %q was not updated.", s.TaskSheet)
	case s.FailedSheets() > 0:
		md.Warningf("%d sheet(s) could not be read. Their tasks are missing from this run.", s.FailedSheets())
	case len(s.NewTasks) > 0:
		md.Importantf("%d new task(s) since the previous run.", len(s.NewTasks))
	case s.HasTasks():
		md.Note("No new tasks. Open tasks remain in the task list.")
	default:
		md.Tip("No data quality issues found.")
	}
	md.PlainText("")
}

// writeSheets writes one table row per audited tab.
func (w *MarkdownWriter) writeSheets(md *markdown.Markdown, s *Summary) {
	md.H2("Sheets")
	md.PlainText("")

	rows := make([][]string, 0, len(s.Sheets))
	for _, sh := range s.Sheets {
		if sh.Error != "" {
			rows = append(rows, []string{sh.Name, "-", "-", escapeCell(sh.Error)})
			continue
		}
		rows = append(rows, []string{sh.Name, strconv.Itoa(sh.Rows), strconv.Itoa(sh.Findings), "ok"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Sheet", "Rows", "Findings", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeBreakdown writes the per-admin table and the error type chart.
func (w *MarkdownWriter) writeBreakdown(md *markdown.Markdown, s *Summary) {
	if len(s.ByAdmin) > 0 {
		md.H2("Tasks by admin")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Admin", "Tasks"},
			Rows:   countRows(s.ByAdmin),
		})
		md.PlainText("")
	}

	if len(s.ByErrorType) == 0 {
		return
	}
	md.H2("Findings by type")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Findings by type"),
		piechart.WithShowData(true),
	)
	for _, c := range s.ByErrorType {
		chart.LabelAndIntValue(c.Label, uint64(c.Count)) //nolint:gosec // counts are never negative
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func countRows(counts []Count) [][]string {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Label, strconv.Itoa(c.Count)}
	}
	return rows
}

// writeTasks writes a task table with links to the offending cells.
func (w *MarkdownWriter) writeTasks(md *markdown.Markdown, title string, tasks []model.ReportItem) {
	if len(tasks) == 0 {
		return
	}
	md.H2(title + " (" + strconv.Itoa(len(tasks)) + ")")
	md.PlainText("")

	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		link := "-"
		if strings.HasPrefix(t.Link, "http") {
			link = markdown.Link("open", t.Link)
		} else if t.Link != "" {
			link = escapeCell(t.Link)
		}
		rows[i] = []string{t.CreatedDate, t.Sheet, t.ErrorColumn, t.Admin, escapeCell(t.Description), link}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Date", "Sheet", "Column", "Admin", "Description", "Link"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeResolved lists tasks that disappeared since the previous run.
func (w *MarkdownWriter) writeResolved(md *markdown.Markdown, s *Summary) {
	if len(s.ResolvedTasks) == 0 {
		return
	}
	md.H2("Resolved tasks (" + strconv.Itoa(len(s.ResolvedTasks)) + ")")
	md.PlainText("")

	items := make([]string, len(s.ResolvedTasks))
	for i, t := range s.ResolvedTasks {
		items[i] = "~~" + t.Sheet + " / " + t.ErrorColumn + ": " + t.Description + "~~"
	}
	md.BulletList(items...)
	md.PlainText("")
}

// escapeCell keeps pipes from breaking a table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
