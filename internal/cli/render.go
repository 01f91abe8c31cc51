package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/roach88/rollbook/internal/ledger"
)

// Palette.
var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorWarn   = lipgloss.Color("#F4D03F")
)

// styles holds the text styles for one output stream. The zero value
// renders plain text.
type styles struct {
	header  lipgloss.Style
	cell    lipgloss.Style
	ref     lipgloss.Style
	border  lipgloss.Style
	banner  lipgloss.Style
	heading lipgloss.Style
}

// stylesFor returns coloured styles when w is a terminal and NO_COLOR is
// unset, plain styles otherwise.
func stylesFor(w io.Writer) styles {
	plain := styles{
		header:  lipgloss.NewStyle().Padding(0, 1),
		cell:    lipgloss.NewStyle().Padding(0, 1),
		ref:     lipgloss.NewStyle().Padding(0, 1),
		border:  lipgloss.NewStyle(),
		banner:  lipgloss.NewStyle(),
		heading: lipgloss.NewStyle(),
	}
	if !colorEnabled(w) {
		return plain
	}
	return styles{
		header:  plain.header.Bold(true).Foreground(colorAccent),
		cell:    plain.cell,
		ref:     plain.ref.Foreground(colorWarn),
		border:  plain.border.Foreground(colorMuted),
		banner:  plain.banner.Foreground(colorAccent),
		heading: plain.heading.Bold(true),
	}
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// tableHeaders are the columns of the record table.
var tableHeaders = []string{"KEY", "ID", "NAME", "TOPIC", "OWNER", "REF"}

// renderTable renders records as a bordered table. Referenced rows are
// highlighted.
func renderTable(records []ledger.Record, st styles) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.CreatedAt, 10),
			r.ID,
			r.Name,
			r.Topic,
			r.OwnerID,
			refMark(r.Referenced),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return st.header
			case row >= 0 && row < len(records) && records[row].Referenced:
				return st.ref
			default:
				return st.cell
			}
		})
	return t.String()
}

func refMark(referenced bool) string {
	if referenced {
		return "yes"
	}
	return "no"
}

// identityBanner is the line shown after every mutation.
func identityBanner(identity string) string {
	if identity == "" {
		return "Logged in: (none)"
	}
	return "Logged in: " + identity
}

// printRecords writes the table, or a placeholder when there are none.
func printRecords(w io.Writer, records []ledger.Record, st styles) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}
	fmt.Fprintln(w, renderTable(records, st))
}

// printRecord writes one record as labelled lines.
func printRecord(w io.Writer, r ledger.Record, st styles) {
	fmt.Fprintln(w, st.heading.Render(r.ID))
	fmt.Fprintf(w, "  key:        %d\n", r.CreatedAt)
	fmt.Fprintf(w, "  serial:     %d\n", r.Serial)
	fmt.Fprintf(w, "  name:       %s\n", r.Name)
	fmt.Fprintf(w, "  topic:      %s\n", r.Topic)
	fmt.Fprintf(w, "  owner:      %s\n", r.OwnerID)
	fmt.Fprintf(w, "  referenced: %s\n", refMark(r.Referenced))
}
