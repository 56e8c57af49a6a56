package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// render prints rows as a table, or v as indented JSON with --output json
func (c *cli) render(w io.Writer, v any, header []string, rows [][]string) error {
	switch c.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "table", "":
		table := tablewriter.NewWriter(w)
		headers := make([]any, len(header))
		for i, h := range header {
			headers[i] = h
		}
		table.Header(headers...)
		for _, row := range rows {
			if err := table.Append(row); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unknown output format %q", c.output)
	}
}
