package components

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/tis24dev/savesync/internal/tui"
)

// ReportLine is one target outcome of the consolidated report.
type ReportLine struct {
	Status string
	Text   string
}

// reportStatus is the worst status among lines.
func reportStatus(lines []ReportLine) string {
	status := "ok"
	for _, line := range lines {
		switch line.Status {
		case "error", "failed":
			return "error"
		case "warning", "skipped":
			status = "warning"
		}
	}
	return status
}

// FormatReport renders lines with colored status symbols. Line texts are
// escaped so paths containing brackets are shown verbatim.
func FormatReport(lines []ReportLine) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(tui.StatusTag(line.Status))
		b.WriteString(tui.StatusSymbol(line.Status))
		b.WriteString("[white] ")
		b.WriteString(tview.Escape(line.Text))
	}
	return b.String()
}

// ShowReport displays the consolidated report of a run.
func ShowReport(app *tui.App, labels Labels, title string, lines []ReportLine) {
	labels = labels.withDefaults()
	message := FormatReport(lines) + "\n\n[yellow]" + labels.Continue + "[white]"
	showModal(app, title, message, tui.StatusColor(reportStatus(lines)), []string{labels.OK}, func(string) {
		app.Stop()
	})
}

// RunReport shows the report and waits until it is dismissed.
func RunReport(labels Labels, title string, lines []ReportLine) error {
	app := tui.NewApp()
	ShowReport(app, labels, title, lines)
	return app.Run()
}
