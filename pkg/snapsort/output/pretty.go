package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/snapsort/pkg/snapsort/organizer"
	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// PrettyFormatter renders the report for a terminal with lipgloss styling.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *organizer.Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")
	if len(r.ScanErrors) > 0 {
		w.WriteString(f.formatScanErrors(r.ScanErrors))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *organizer.Report) string {
	mode := r.Mode
	if r.DryRun {
		mode += " (dry run)"
	}
	lines := []string{
		LabelStyle.Render("Source:") + " " + ValueStyle.Render(r.Source),
		LabelStyle.Render("Destination:") + " " + ValueStyle.Render(r.Destination),
		LabelStyle.Render("Mode:") + " " + ValueStyle.Render(mode) + "  " +
			LabelStyle.Render("Elapsed:") + " " + ValueStyle.Render(formatDuration(r.Elapsed)),
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(r *organizer.Report) string {
	if len(r.Files) == 0 {
		return MutedStyle.Render("  No media files found") + "\n"
	}

	width := len("STATUS")
	for _, file := range r.Files {
		width = max(width, len(file.Status))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s\n", TableHeaderStyle.Render(padRight("STATUS", width)), TableHeaderStyle.Render("FILE"))
	for _, file := range r.Files {
		status := StatusStyle(file.Status).Render(padRight(string(file.Status), width))
		detail := file.Source
		switch {
		case file.Destination != "":
			detail += MutedStyle.Render(" -> ") + file.Destination
		case file.Error != "":
			detail += MutedStyle.Render(": " + file.Error)
		}
		fmt.Fprintf(&sb, "  %s  %s\n", status, detail)
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *organizer.Report) string {
	parts := []string{
		LabelStyle.Render("Candidates:") + " " + ValueStyle.Render(fmt.Sprint(r.Candidates)),
		LabelStyle.Render("Duplicates:") + " " + ValueStyle.Render(fmt.Sprint(r.Duplicates)),
		LabelStyle.Render("Placed:") + " " + SuccessStyle.Render(fmt.Sprint(r.Placed)) + " " +
			SizeStyle.Render(types.FormatSize(r.PlacedBytes)),
		LabelStyle.Render("Present:") + " " + ValueStyle.Render(fmt.Sprint(r.Present)),
		LabelStyle.Render("Skipped:") + " " + WarningStyle.Render(fmt.Sprint(r.Skipped)),
		LabelStyle.Render("Failed:") + " " + ErrorStyle.Render(fmt.Sprint(r.Failed)),
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatScanErrors(errs []types.ScanError) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Scan errors:"))
	sb.WriteString("\n")
	for _, e := range errs {
		sb.WriteString(WarningStyle.Render("  " + e.Path + ": " + e.Error))
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter { return &PrettyFormatter{} })
}

var _ Formatter = (*PrettyFormatter)(nil)
