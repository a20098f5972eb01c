package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tordrt/schemadesigner/internal/curve"
	"github.com/tordrt/schemadesigner/internal/schema"
)

// reference is a relationship with its endpoints resolved to names
type reference struct {
	ParentTable  string
	ParentColumn string
	ChildTable   string
	ChildColumn  string
}

// references resolves every relationship touching tableID. outgoing are
// the ones where the table is the child (it holds the foreign key),
// incoming the ones where it is the parent. Unresolvable entries are
// skipped.
func references(g *schema.Graph, tableID string) (outgoing, incoming []reference) {
	for _, r := range g.Relationships {
		if !r.References(tableID) {
			continue
		}
		parent, parentCol, ok := g.Column(r.SourceTableID, r.SourceColumnID)
		if !ok {
			continue
		}
		child, childCol, ok := g.Column(r.TargetTableID, r.TargetColumnID)
		if !ok {
			continue
		}
		ref := reference{
			ParentTable:  parent.Name,
			ParentColumn: parentCol.Name,
			ChildTable:   child.Name,
			ChildColumn:  childCol.Name,
		}
		if r.TargetTableID == tableID {
			outgoing = append(outgoing, ref)
		}
		if r.SourceTableID == tableID {
			incoming = append(incoming, ref)
		}
	}
	return outgoing, incoming
}

// paramSummary renders generation parameters compactly, e.g. "0..1000"
// or "A|B|C"
func paramSummary(g *schema.Graph, c schema.Column) string {
	switch p := c.Params.(type) {
	case schema.IntegerParams:
		return fmt.Sprintf("%d..%d", p.Min, p.Max)
	case schema.FloatParams:
		return fmt.Sprintf("%s..%s, %d decimals", number(p.Min), number(p.Max), p.Decimals)
	case schema.TextParams:
		s := fmt.Sprintf("length %d-%d", p.MinLength, p.MaxLength)
		if p.Pattern != "" {
			s += fmt.Sprintf(", pattern %s", p.Pattern)
		}
		return s
	case schema.DateParams:
		return p.Start + ".." + p.End
	case schema.TimeParams:
		return p.Start + ".." + p.End
	case schema.DatetimeParams:
		return p.Start + ".." + p.End
	case schema.CategoricalParams:
		return strings.Join(p.Choices, "|")
	case schema.BooleanParams:
		return fmt.Sprintf("%s%% true", number(p.TrueRatio*100))
	case schema.ForeignKeyParams:
		if t, ok := g.Table(p.TargetTableID); ok {
			return "→ " + t.Name
		}
		return "→ (unset)"
	}
	return ""
}

// constraintSummary describes the outcome curve on a column, if any
func constraintSummary(ws schema.Workspace, tableID, columnID string) (string, bool) {
	g := ws.Graph()
	for _, c := range ws.Constraints {
		if c.TableID != tableID || c.ColumnID != columnID {
			continue
		}
		p, ok := curve.Pattern(c, &g)
		if !ok {
			return "", false
		}
		return p.Description, true
	}
	return "", false
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
