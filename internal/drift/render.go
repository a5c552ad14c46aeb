package drift

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/dialect"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatSQL  = "sql"
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode drift report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Lookup resolves a collection of the report by name, for rendering the
// full CREATE TABLE of a missing table. It may return nil.
type Lookup func(name string) *collection.Collection

// WriteSQL writes a skeleton of the statements that would resolve the
// report. Every line is commented out: the output is for review, never for
// direct execution.
func WriteSQL(w io.Writer, r *Report, d *dialect.Dialect, lookup Lookup) error {
	bw := bufio.NewWriter(w)
	for _, diff := range r.Changed() {
		fmt.Fprintf(bw, "-- collection %s (table %s)\n", diff.Collection, diff.Table)
		for _, ch := range diff.Changes {
			if ch.Kind == RemoveColumn && diff.RowCount > 0 {
				fmt.Fprintf(bw, "-- data loss: %d row(s) hold values in %s\n", diff.RowCount, ch.Column)
			}
			for _, stmt := range statements(ch, d, lookup, diff.Collection) {
				for _, line := range strings.Split(stmt, "\n") {
					bw.WriteString("-- ")
					bw.WriteString(line)
					bw.WriteString("\n")
				}
			}
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func statements(ch Change, d *dialect.Dialect, lookup Lookup, name string) []string {
	switch ch.Kind {
	case CreateTable:
		if lookup != nil {
			if c := lookup(name); c != nil {
				stmts := d.CreateTable(c.TableSpec())
				for i := range stmts {
					stmts[i] += ";"
				}
				return stmts
			}
		}
		return []string{fmt.Sprintf("CREATE TABLE %s (...);", d.QuoteIdentifier(ch.Table))}
	case AddColumn:
		col := core.ColumnSpec{Name: ch.Column, Type: ch.Type, Nullable: true}
		if lookup != nil {
			if c := lookup(name); c != nil {
				if f, ok := c.Field(ch.Column); ok {
					col = f.Column()
				}
			}
		}
		return []string{d.AddColumn(ch.Table, col) + ";"}
	case RemoveColumn:
		return []string{d.DropColumn(ch.Table, ch.Column) + ";"}
	}
	return nil
}

// CollectionLookup indexes collections by name for WriteSQL.
func CollectionLookup(collections []*collection.Collection) Lookup {
	byName := make(map[string]*collection.Collection, len(collections))
	for _, c := range collections {
		byName[c.Name] = c
	}
	return func(name string) *collection.Collection {
		return byName[name]
	}
}
