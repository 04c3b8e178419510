package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// maxIssuesShown caps the issue listing; full detail lives in JSON
// output.
const maxIssuesShown = 10

// TableFormatter outputs data in human-readable table format.
type TableFormatter struct{}

// WriteParseSummary writes the parse outcome with a per-collection
// table.
func (f *TableFormatter) WriteParseSummary(w io.Writer, summary ParseSummary) error {
	fmt.Fprintln(w, "Backup Parse Summary")
	fmt.Fprintln(w, "====================")
	fmt.Fprintf(w, "File:        %s\n", summary.Path)
	fmt.Fprintf(w, "Format:      %s\n", summary.Format)
	fmt.Fprintf(w, "Size:        %s (%s bytes)\n", summary.FileSizeHuman, humanize.Comma(int64(summary.FileSize)))
	fmt.Fprintf(w, "Documents:   %s\n", humanize.Comma(summary.Documents))
	fmt.Fprintf(w, "Blocks:      %s\n", humanize.Comma(summary.BlocksProcessed))
	fmt.Fprintf(w, "Records:     %s\n", humanize.Comma(summary.RecordsProcessed))
	fmt.Fprintf(w, "Took:        %dms\n", summary.TookMillis)

	if len(summary.Collections) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COLLECTION\tDOCUMENTS")
		for _, c := range summary.Collections {
			fmt.Fprintf(tw, "%s\t%s\n", c.Name, humanize.Comma(c.Documents))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(summary.Issues) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Issues (%s total):\n", humanize.Comma(int64(len(summary.Issues))))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  BLOCK\tOFFSET\tRECORD\tERROR")

		limit := min(len(summary.Issues), maxIssuesShown)
		for i := 0; i < limit; i++ {
			issue := summary.Issues[i]
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n",
				issue.Block,
				formatOrdinal(issue.Offset),
				formatOrdinal(issue.Record),
				issue.Message,
			)
		}
		if len(summary.Issues) > maxIssuesShown {
			fmt.Fprintf(tw, "  ...\t\t\t\n")
		}
		return tw.Flush()
	}

	return nil
}

func formatOrdinal(n int) string {
	if n < 0 {
		return "-"
	}
	return humanize.Comma(int64(n))
}

// WriteValidation writes a structure-check report.
func (f *TableFormatter) WriteValidation(w io.Writer, summary ValidationSummary) error {
	fmt.Fprintln(w, "Backup Validation")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "File:            %s\n", summary.Path)
	fmt.Fprintf(w, "Format:          %s\n", summary.Format)
	fmt.Fprintf(w, "Size:            %s\n", summary.FileSizeHuman)
	fmt.Fprintf(w, "Blocks Scanned:  %s\n", humanize.Comma(int64(summary.BlocksScanned)))
	fmt.Fprintf(w, "Records Scanned: %s\n", humanize.Comma(int64(summary.RecordsScanned)))
	fmt.Fprintf(w, "Corrupt Records: %s\n", humanize.Comma(int64(summary.CorruptRecords)))
	fmt.Fprintf(w, "Integrity Score: %.3f\n", summary.IntegrityScore)

	if len(summary.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		for _, warning := range summary.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
	return nil
}

// WriteResolve writes the resolved backup file path.
func (f *TableFormatter) WriteResolve(w io.Writer, summary ResolveSummary) error {
	fmt.Fprintf(w, "Input:    %s\n", summary.Input)
	fmt.Fprintf(w, "Resolved: %s\n", summary.Resolved)
	fmt.Fprintf(w, "Format:   %s\n", summary.Format)
	return nil
}
