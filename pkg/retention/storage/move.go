package storage

import (
	"fmt"
	"strings"
	"time"
)

// Move copies the rows of From that match a join predicate into To. It is
// the primitive every retention pipeline is built from:
//
//	INSERT INTO <To> (<columns>[, archived_date])
//	SELECT <alias.columns>[, <stamp>]
//	FROM <From> <alias> <joins>
//	WHERE <where> AND NOT EXISTS (SELECT 1 FROM <To> d WHERE d.id = <alias>.id)
//	[GROUP BY <alias>.id]
//
// The NOT EXISTS clause makes every move idempotent, and grouping by the
// primary key collapses rows reached through several join paths into one.
type Move struct {
	// Name identifies the statement in errors and logs.
	Name string

	// From is the source table, read through Alias.
	From  Table
	Alias string

	// To is the destination table. Columns are taken from From.
	To Table

	// Joins are full JOIN clauses appended after the source table.
	Joins []string

	// Where holds predicates joined with AND. They use '?' placeholders
	// bound to Args in order.
	Where []string
	Args  []any

	// GroupBy groups the selection by the source primary key.
	GroupBy bool

	// Stamp, when non-zero, is written to the destination's archived_date.
	Stamp time.Time
}

// Statement renders the move for dialect d.
func (m Move) Statement(d Dialect) Statement {
	dst := make([]string, 0, len(m.From.Columns)+1)
	src := make([]string, 0, len(m.From.Columns)+1)
	for _, col := range m.From.Columns {
		dst = append(dst, col)
		src = append(src, m.Alias+"."+col)
	}

	args := make([]any, 0, len(m.Args)+1)
	if !m.Stamp.IsZero() {
		dst = append(dst, "archived_date")
		src = append(src, d.Timestamp())
		args = append(args, d.TimeArg(m.Stamp))
	}
	args = append(args, m.Args...)

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s)\nSELECT %s\nFROM %s %s",
		m.To.Name, strings.Join(dst, ", "), strings.Join(src, ", "), m.From.Name, m.Alias)
	for _, join := range m.Joins {
		sb.WriteString("\n")
		sb.WriteString(join)
	}

	where := append([]string{}, m.Where...)
	where = append(where, fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s d WHERE d.id = %s.id)", m.To.Name, m.Alias))
	sb.WriteString("\nWHERE ")
	sb.WriteString(strings.Join(where, "\n  AND "))

	if m.GroupBy {
		fmt.Fprintf(&sb, "\nGROUP BY %s.id", m.Alias)
	}

	return Statement{Name: m.Name, Query: sb.String(), Args: args}
}

// Delete removes the rows of Table matching Where.
type Delete struct {
	Name  string
	Table Table
	Alias string
	Where []string
	Args  []any
}

// Statement renders the delete.
func (del Delete) Statement() Statement {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DELETE FROM %s", del.Table.Name)
	if del.Alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(del.Alias)
	}
	if len(del.Where) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(del.Where, "\n  AND "))
	}
	return Statement{Name: del.Name, Query: sb.String(), Args: del.Args}
}
