package jsonschema

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Table is the backend raw table: column-major JSON data with an explicit,
// stable column order. The zero value is not usable; build tables with
// NewTable, TableFromRows, or DecodeTable.
type Table struct {
	order []string
	cols  map[string][]any
	nrows int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{cols: map[string][]any{}}
}

// AddColumn appends a column. Every column must have the same length.
func (t *Table) AddColumn(name string, values []any) error {
	if _, ok := t.cols[name]; ok {
		return fmt.Errorf("jsonschema: duplicate column %q", name)
	}
	if len(t.order) > 0 && len(values) != t.nrows {
		return fmt.Errorf("jsonschema: column %q has %d rows, table has %d", name, len(values), t.nrows)
	}
	t.order = append(t.order, name)
	t.cols[name] = values
	t.nrows = len(values)
	return nil
}

// MustAddColumn is AddColumn panicking on error, for test fixtures and
// literal table construction.
func (t *Table) MustAddColumn(name string, values []any) *Table {
	if err := t.AddColumn(name, values); err != nil {
		panic(err)
	}
	return t
}

// TableFromRows builds a table from row maps. order fixes the column order
// (row maps cannot carry one); rows missing a column get a null there, and
// keys outside order are rejected.
func TableFromRows(order []string, rows []map[string]any) (*Table, error) {
	known := make(map[string]struct{}, len(order))
	for _, c := range order {
		known[c] = struct{}{}
	}
	cols := make(map[string][]any, len(order))
	for _, c := range order {
		cols[c] = make([]any, 0, len(rows))
	}
	for i, row := range rows {
		for k := range row {
			if _, ok := known[k]; !ok {
				return nil, fmt.Errorf("jsonschema: row %d has column %q outside the given order", i, k)
			}
		}
		for _, c := range order {
			cols[c] = append(cols[c], row[c])
		}
	}
	return &Table{order: append([]string(nil), order...), cols: cols, nrows: len(rows)}, nil
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

// Column returns a column's values by name.
func (t *Table) Column(name string) ([]any, bool) {
	v, ok := t.cols[name]
	return v, ok
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.order) }

// withColumn returns a copy of the table with one column's values replaced.
// The receiver is never mutated.
func (t *Table) withColumn(name string, values []any) *Table {
	cols := make(map[string][]any, len(t.cols))
	for k, v := range t.cols {
		cols[k] = v
	}
	cols[name] = values
	return &Table{order: append([]string(nil), t.order...), cols: cols, nrows: t.nrows}
}

// project returns a copy holding only the named columns, in the given order.
func (t *Table) project(order []string) (*Table, error) {
	cols := make(map[string][]any, len(order))
	for _, c := range order {
		v, ok := t.cols[c]
		if !ok {
			return nil, fmt.Errorf("jsonschema: table has no column %q", c)
		}
		cols[c] = v
	}
	return &Table{order: append([]string(nil), order...), cols: cols, nrows: t.nrows}, nil
}

// MarshalJSON renders the table as an array of row objects with keys in table
// column order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < t.nrows; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, c := range t.order {
			if j > 0 {
				buf.WriteByte(',')
			}
			nb, err := json.Marshal(c)
			if err != nil {
				return nil, err
			}
			vb, err := json.Marshal(t.cols[c][i])
			if err != nil {
				return nil, err
			}
			buf.Write(nb)
			buf.WriteByte(':')
			buf.Write(vb)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// DecodeTable parses a JSON array of row objects. The column order is taken
// from key order of the first row; later rows may list keys in any order but
// must not introduce new columns. Numbers decode as json.Number so integer
// and float data stay distinguishable.
func DecodeTable(data []byte) (*Table, error) {
	order, err := rowKeyOrder(data)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}

	return TableFromRows(order, rows)
}

// rowKeyOrder returns the key order of the first row object, then appends any
// key first seen in a later row (in row order) so sparse data still decodes.
func rowKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("jsonschema: table data must be a JSON array of objects")
	}
	var order []string
	seen := map[string]struct{}{}
	for dec.More() {
		open, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := open.(json.Delim); !ok || delim != '{' {
			return nil, fmt.Errorf("jsonschema: table rows must be JSON objects")
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				order = append(order, key)
			}
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
	}
	return order, nil
}
