// Package table provides the in-memory columnar representation of a
// catalog file. A Table is an ordered set of equally long columns; the
// order of columns is the order of columns in the destination table.
//
// Missing values are tracked by a mask next to the typed buffer, never
// by sentinel values, so casts and serialization can tell a masked
// element from a real NaN.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLengthMismatch is returned when a column length differs from the
	// table row count.
	ErrLengthMismatch = errors.New("column length mismatch")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrNoColumn is returned when a named column does not exist.
	ErrNoColumn = errors.New("no such column")
)

// Table is an ordered collection of columns of the same length.
type Table struct {
	cols []*Column
	rows int
}

// New creates a table from columns. All columns must have the same
// length and distinct names.
func New(cols ...*Column) (*Table, error) {
	res := &Table{}
	for _, c := range cols {
		if err := res.Add(c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// Columns returns the columns in positional order.
func (t *Table) Columns() []*Column {
	return t.cols
}

// Names returns column names in positional order.
func (t *Table) Names() []string {
	res := make([]string, len(t.cols))
	for i, c := range t.cols {
		res[i] = c.Name
	}
	return res
}

// Index returns the position of a column or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return t.cols[i], true
}

// Add appends a column. The first column of an empty table sets the
// row count.
func (t *Table) Add(c *Column) error {
	if len(t.cols) == 0 {
		t.rows = c.Len()
	}
	if c.Len() != t.rows {
		return fmt.Errorf("%w: column %q has %d rows, table has %d",
			ErrLengthMismatch, c.Name, c.Len(), t.rows)
	}
	if t.Index(c.Name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
	}
	t.cols = append(t.cols, c)
	return nil
}

// Replace swaps the column with the same name for c, keeping its position.
func (t *Table) Replace(c *Column) error {
	i := t.Index(c.Name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNoColumn, c.Name)
	}
	if c.Len() != t.rows {
		return fmt.Errorf("%w: column %q has %d rows, table has %d",
			ErrLengthMismatch, c.Name, c.Len(), t.rows)
	}
	t.cols[i] = c
	return nil
}

// Drop removes the named columns, ignoring names that do not exist.
// It returns the number of removed columns.
func (t *Table) Drop(names ...string) int {
	if len(names) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	res := t.cols[:0]
	var count int
	for _, c := range t.cols {
		if _, ok := drop[c.Name]; ok {
			count++
			continue
		}
		res = append(res, c)
	}
	t.cols = res
	return count
}

// Rename changes a column name. Renaming to an existing name fails.
func (t *Table) Rename(from, to string) error {
	i := t.Index(from)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNoColumn, from)
	}
	if from == to {
		return nil
	}
	if t.Index(to) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, to)
	}
	t.cols[i].Name = to
	return nil
}

// LowerNames converts all column names to lower case.
func (t *Table) LowerNames() error {
	seen := make(map[string]struct{}, len(t.cols))
	for _, c := range t.cols {
		name := strings.ToLower(c.Name)
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		seen[name] = struct{}{}
		c.Name = name
	}
	return nil
}

// Release drops all column buffers so the memory can be reclaimed while
// the table value itself is still referenced.
func (t *Table) Release() {
	for _, c := range t.cols {
		c.Release()
	}
	t.cols = nil
	t.rows = 0
}
