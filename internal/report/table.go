// Package report renders run reports for terminals and persists them as JSON
// lines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

var headerfmt = color.New(color.FgGreen, color.Underline).SprintFunc()

// statusfmt colors a status for the terminal.
func statusfmt(status string) string {
	switch status {
	case types.StatusProcessed:
		return color.GreenString(status)
	case types.StatusFailed:
		return color.RedString(status)
	case types.StatusMissing, types.StatusCancelled:
		return color.YellowString(status)
	default:
		return status
	}
}

// Render writes run as a table followed by a one-line summary and the errors
// of failed record types.
func Render(w io.Writer, run types.RunReport) error {
	tbl := uitable.New()
	tbl.MaxColWidth = 50
	tbl.Wrap = true
	tbl.AddRow(headerfmt("RECORD TYPE"), headerfmt("TABLE"), headerfmt("STATUS"), headerfmt("FIELDS"),
		headerfmt("RECORDS"), headerfmt("BATCHES"), headerfmt("DURATION"))
	for _, rep := range run.Reports {
		fields := strings.Join(rep.Fields, ", ")
		if fields == "" {
			fields = "-"
		}
		tbl.AddRow(rep.RecordType, rep.Table, statusfmt(rep.Status), fields,
			humanize.Comma(int64(rep.Records)), rep.Batches, rep.Duration.Round(time.Millisecond))
	}
	if _, err := fmt.Fprintln(w, tbl); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\n%s across %s in %s\n",
		plural(run.Records(), "record"), plural(len(run.Reports), "record type"),
		run.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	for _, rep := range run.Failed() {
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", color.RedString("error"), rep.RecordType, rep.Error); err != nil {
			return err
		}
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

// WriteJSON writes run as indented JSON.
func WriteJSON(w io.Writer, run types.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
