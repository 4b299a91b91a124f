package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

const msgNoChanges = "No file pairs compared"

func writeSummary(w io.Writer, r *Report) error {
	_, err := io.WriteString(w, Summary(r))
	if err != nil {
		return fmt.Errorf("summary write: %w", err)
	}

	return nil
}

// Summary renders one row per file pair with its mapping and action counts.
func Summary(r *Report) string {
	if r == nil || len(r.Files)+len(r.MoveDiffs) == 0 {
		return msgNoChanges + "\n"
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"Before", "After", "Nodes", "Mappings", "Actions", "Changes"})

	appendRows := func(files []File, moved bool) {
		for _, f := range files {
			after := f.Dst
			if moved {
				after += " (moved)"
			}

			tbl.AppendRow(table.Row{
				f.Src,
				after,
				humanize.Comma(int64(f.SrcNodes)) + " → " + humanize.Comma(int64(f.DstNodes)),
				humanize.Comma(int64(f.Mappings)),
				humanize.Comma(int64(len(f.Actions))),
				changes(f.Counts),
			})
		}
	}

	appendRows(r.Files, false)
	appendRows(r.MoveDiffs, true)

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %s", humanize.Comma(int64(r.Totals.Files))),
		"",
		"",
		humanize.Comma(int64(r.Totals.Mappings)),
		humanize.Comma(int64(r.Totals.Actions)),
		changes(r.Totals.Counts),
	})

	return tbl.Render() + "\n"
}

func changes(counts map[string]int) string {
	kinds := kindOrder(counts)
	if len(kinds) == 0 {
		return "-"
	}

	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s %d", k, counts[k]))
	}

	return strings.Join(parts, ", ")
}
