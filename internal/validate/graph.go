package validate

import (
	"github.com/tordrt/schemadesigner/internal/schema"
)

// Issue is a failed or warning Result located in a graph. Column is empty
// for table level findings.
type Issue struct {
	Table  string `json:"table"`
	Column string `json:"column,omitempty"`
	Result
}

// Graph runs every table, column and parameter rule over g and returns the
// findings in table order. A graph with no issues returns nil.
func Graph(g schema.Graph) []Issue {
	var issues []Issue
	report := func(table, column string, r Result) {
		if !r.Valid || r.Warning != "" {
			issues = append(issues, Issue{Table: table, Column: column, Result: r})
		}
	}

	for _, t := range g.Tables {
		report(t.Name, "", TableName(t.Name, g.TableNames(t.ID)))
		report(t.Name, "", RowCount(t.RowCount))

		for ci, c := range t.Columns {
			siblings := make([]string, 0, len(t.Columns)-1)
			for cj, o := range t.Columns {
				if cj != ci {
					siblings = append(siblings, o.Name)
				}
			}
			report(t.Name, c.Name, ColumnName(c.Name, siblings))
			report(t.Name, c.Name, Params(c.Params))

			if target, ok := c.ForeignKeyTarget(); ok {
				if _, found := g.Table(target); !found {
					report(t.Name, c.Name, fail("foreign key target table no longer exists"))
				}
			}
		}
	}
	return issues
}

// HasErrors reports whether any issue blocks generation
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if !is.Valid {
			return true
		}
	}
	return false
}
