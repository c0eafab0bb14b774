package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns set right so values
// line up by magnitude.
type column struct {
	title string
	right bool
}

func (c column) config(number int) table.ColumnConfig {
	cfg := table.ColumnConfig{Number: number, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
	if c.right {
		cfg.Align = text.AlignRight
	}
	return cfg
}

// renderTable lays out rows under the given columns. Rows shorter than the
// column set are padded with blanks.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header = append(header, col.title)
		configs = append(configs, col.config(i+1))
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}

	return tw.Render()
}
