package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			recordings, err := st.ListRecordings(cmd.Context())
			if err != nil {
				return err
			}
			if len(recordings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recordings.")
				return nil
			}

			rows := make([][]string, 0, len(recordings))
			for _, rec := range recordings {
				version := "-"
				title := ""
				if final, finalErr := st.FinalTranscript(cmd.Context(), rec.ID); finalErr == nil {
					version = strconv.Itoa(final.Version)
					title = final.Title
				}
				rows = append(rows, []string{
					strconv.FormatInt(rec.ID, 10),
					rec.Filename,
					title,
					formatDuration(rec.Duration),
					formatSize(rec.FileSize),
					version,
					yesNo(rec.Processed),
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}

			writeRows(cmd.OutOrStdout(), listColumns, rows)
			return nil
		},
	}
}

var listColumns = []column{
	{title: "ID", right: true},
	{title: "File"},
	{title: "Title"},
	{title: "Length", right: true},
	{title: "Size", right: true},
	{title: "Ver", right: true},
	{title: "Done"},
	{title: "Added"},
}

// writeRows renders a table on a terminal and tab-separated plain text when
// the output is piped.
func writeRows(out io.Writer, columns []column, rows [][]string) {
	if file, ok := out.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		fmt.Fprintln(out, renderTable(columns, rows))
		return
	}
	titles := make([]string, 0, len(columns))
	for _, col := range columns {
		titles = append(titles, col.title)
	}
	fmt.Fprintln(out, strings.Join(titles, "\t"))
	for _, row := range rows {
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}
