package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/samber/lo"
)

func writeTable(w io.Writer, rows []map[string]string) error {
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := lo.Map(model.GridColumns, func(column string, _ int) string { return strings.ToUpper(column) })
	if _, err := fmt.Fprintln(table, strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		values := lo.Map(model.GridColumns, func(column string, _ int) string { return row[column] })
		if _, err := fmt.Fprintln(table, strings.Join(values, "\t")); err != nil {
			return err
		}
	}
	return table.Flush()
}

func writeJson(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
