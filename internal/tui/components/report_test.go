package components

import (
	"strings"
	"testing"

	"github.com/tis24dev/savesync/internal/tui"
)

func TestFormatReport(t *testing.T) {
	got := FormatReport([]ReportLine{
		{Status: "ok", Text: "Backup saved to /sync/PPSSPP_SAVES_2024-06-01_10-00-00.zip"},
		{Status: "error", Text: "Folder [memcards] not found"},
	})
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], tui.StatusTag("ok")+tui.SymbolSuccess) {
		t.Fatalf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], tui.SymbolError) {
		t.Fatalf("second line = %q", lines[1])
	}
	if !strings.Contains(lines[1], "[memcards[]") {
		t.Fatalf("brackets not escaped: %q", lines[1])
	}
}

func TestReportStatus(t *testing.T) {
	tests := []struct {
		lines []ReportLine
		want  string
	}{
		{[]ReportLine{{Status: "ok"}, {Status: "ok"}}, "ok"},
		{[]ReportLine{{Status: "ok"}, {Status: "warning"}}, "warning"},
		{[]ReportLine{{Status: "warning"}, {Status: "error"}, {Status: "ok"}}, "error"},
		{nil, "ok"},
	}
	for _, tt := range tests {
		if got := reportStatus(tt.lines); got != tt.want {
			t.Fatalf("reportStatus(%v) = %q; want %q", tt.lines, got, tt.want)
		}
	}
}

func TestShowReportStopsOnDismiss(t *testing.T) {
	modal := captureModal(t, func(app *tui.App) {
		ShowReport(app, Labels{}, "Backup", []ReportLine{{Status: "ok", Text: "done"}})
	})
	text := modalText(modal)
	if !strings.Contains(text, "done") || !strings.Contains(text, "Press ENTER to continue") {
		t.Fatalf("report text = %q", text)
	}
	modalDone(modal)(0, "OK")
}
