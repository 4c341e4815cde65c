package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kbukum/taskflow/dag"
)

// TableOptions controls WriteTable.
type TableOptions struct {
	// Title is printed above the table. Empty selects "Build Dashboard".
	Title string
	// NoColor disables status colors regardless of the terminal.
	NoColor bool
	// ShowErrors adds an Error column.
	ShowErrors bool
}

var tableHeader = []string{"Task", "Status", "Duration", "Attempts"}

// WriteTable renders s as an aligned table, one row per task in name order,
// followed by a totals line.
func WriteTable(w io.Writer, s *dag.Summary, opts TableOptions) error {
	title := opts.Title
	if title == "" {
		title = "Build Dashboard"
	}

	header := tableHeader
	if opts.ShowErrors {
		header = append(append([]string(nil), tableHeader...), "Error")
	}

	rows := make([][]string, 0, len(s.Results))
	for _, name := range s.Tasks() {
		r := s.Results[name]
		row := []string{name, string(r.Status), formatDuration(r), strconv.Itoa(r.Attempts)}
		if opts.ShowErrors {
			row = append(row, firstLine(r.Error))
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	bold := newColor(opts.NoColor, color.Bold)
	var b strings.Builder
	b.WriteString(bold.Sprint(title))
	b.WriteByte('\n')
	writeRow(&b, header, widths, func(i int, cell string) string { return bold.Sprint(cell) })
	writeRule(&b, widths)
	for _, row := range rows {
		status := dag.Status(row[1])
		writeRow(&b, row, widths, func(i int, cell string) string {
			switch i {
			case 0:
				return newColor(opts.NoColor, color.FgCyan).Sprint(cell)
			case 1:
				return statusColor(opts.NoColor, status).Sprint(cell)
			}
			return cell
		})
	}
	writeRule(&b, widths)
	fmt.Fprintf(&b, "%d scheduled, %d succeeded, %d failed, %d not found, %d unsupported, %d errored, %d skipped in %s\n",
		s.Scheduled, s.Succeeded, s.Failed, s.NotFound, s.Unsupported, s.Errored, s.Skipped,
		s.Duration.Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}

// writeRow pads every cell before paint is applied so escape codes do not
// disturb the alignment.
func writeRow(b *strings.Builder, cells []string, widths []int, paint func(int, string) string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		padded := cell
		if i < len(cells)-1 {
			padded = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		b.WriteString(paint(i, padded))
	}
	b.WriteByte('\n')
}

func writeRule(b *strings.Builder, widths []int) {
	total := 0
	for _, w := range widths {
		total += w
	}
	b.WriteString(strings.Repeat("-", total+2*(len(widths)-1)))
	b.WriteByte('\n')
}

func newColor(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

func statusColor(noColor bool, s dag.Status) *color.Color {
	switch s {
	case dag.StatusSuccess:
		return newColor(noColor, color.FgGreen)
	case dag.StatusSkipped:
		return newColor(noColor, color.FgYellow)
	case dag.StatusNotFound, dag.StatusUnsupported:
		return newColor(noColor, color.FgMagenta)
	default:
		return newColor(noColor, color.FgRed)
	}
}

func formatDuration(r dag.TaskResult) string {
	if r.Attempts == 0 && r.Duration == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2fs", r.Duration.Seconds())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
