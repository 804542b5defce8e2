package iostreams

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// TablePrinter renders tabular data to IOStreams.Out. Headers are bold when
// colour is enabled; columns are aligned with tabwriter either way.
type TablePrinter struct {
	ios     *IOStreams
	headers []string
	rows    [][]string
}

// NewTablePrinter creates a new table printer with the given column headers.
// The table writes to ios.Out when Render() is called.
func (s *IOStreams) NewTablePrinter(headers ...string) *TablePrinter {
	return &TablePrinter{
		ios:     s,
		headers: headers,
	}
}

// AddRow adds a data row to the table. If fewer columns are provided than
// headers, missing columns are treated as empty strings.
func (tp *TablePrinter) AddRow(cols ...string) {
	tp.rows = append(tp.rows, cols)
}

// Len returns the number of data rows (not including headers).
func (tp *TablePrinter) Len() int {
	return len(tp.rows)
}

// Render writes the table to the IOStreams output.
func (tp *TablePrinter) Render() error {
	if len(tp.headers) == 0 {
		return nil
	}

	cs := tp.ios.ColorScheme()
	w := tabwriter.NewWriter(tp.ios.Out, 0, 0, 2, ' ', 0)

	headers := make([]string, len(tp.headers))
	for i, h := range tp.headers {
		headers[i] = cs.Bold(h)
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	for _, row := range tp.rows {
		fmt.Fprintln(w, strings.Join(tp.normalizeRow(row), "\t"))
	}

	return w.Flush()
}

func (tp *TablePrinter) normalizeRow(row []string) []string {
	cols := make([]string, len(tp.headers))
	copy(cols, row)
	return cols
}
