package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit prints v as JSON in json mode and calls plain otherwise.
func (a *app) emit(v any, plain func() error) error {
	if a.output == "json" {
		return a.printJSON(v)
	}
	return plain()
}

func (a *app) newTable(header ...any) table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row(header))
	return w
}

func (a *app) renderTable(w table.Writer) error {
	var out string
	if a.output == "markdown" {
		out = w.RenderMarkdown()
	} else {
		out = w.Render()
	}
	_, err := fmt.Fprintln(a.stdout, out)
	return err
}

// rightAlign right-aligns the numeric columns given by 1-based index.
func rightAlign(w table.Writer, columns ...int) {
	cfgs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	w.SetColumnConfigs(cfgs)
}
