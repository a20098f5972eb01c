package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemadesigner"
	"github.com/tordrt/schemadesigner/internal/curve"
	"github.com/tordrt/schemadesigner/internal/schema"
)

var (
	curvePreset  string
	curvePeriods int
	curvePoints  string
	curveScale   float64
	curveUnit    string
	curveAvg     float64
	curveDryRun  bool
	curveRemove  bool
)

var curveCmd = &cobra.Command{
	Use:   "curve table.column",
	Short: "Set or remove the outcome curve of a numeric column",
	Long: `Curve edits the outcome curve of a numeric column. The curve starts from the
saved one, or from the flat preset when the column has none. A preset replaces
every value; --points replaces them with explicit raw values. The scale factor
is applied once when the curve is saved.`,
	Example: `  schemadesigner curve orders.amount --preset hockey_stick --scale 2.5
  schemadesigner curve orders.amount --points 10,20,35,60 --unit quarter
  schemadesigner curve orders.amount --remove`,
	Args: cobra.ExactArgs(1),
	RunE: runCurve,
}

func init() {
	curveCmd.Flags().StringVarP(&curvePreset, "preset", "p", "", "Preset: linear, hockey_stick, seasonal, flat or decline")
	curveCmd.Flags().IntVar(&curvePeriods, "periods", curve.DefaultPeriods, "Number of points generated by --preset")
	curveCmd.Flags().StringVar(&curvePoints, "points", "", "Raw values (comma-separated)")
	curveCmd.Flags().Float64Var(&curveScale, "scale", 1, "Scale factor applied on save")
	curveCmd.Flags().StringVarP(&curveUnit, "unit", "u", "", "Time unit: day, week, month, quarter or year")
	curveCmd.Flags().Float64Var(&curveAvg, "avg-transaction-value", 0, "Average transaction value")
	curveCmd.Flags().BoolVar(&curveDryRun, "dry-run", false, "Print the curve without saving it")
	curveCmd.Flags().BoolVar(&curveRemove, "remove", false, "Remove the column's curve")
}

func runCurve(cmd *cobra.Command, args []string) error {
	if curvePreset != "" && curvePoints != "" {
		return fmt.Errorf("cannot use both --preset and --points")
	}

	return withSession(cmd.Context(), func(sess *schemadesigner.Session) error {
		g := sess.Store.Graph()
		table, col, err := resolveColumn(g, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if curveRemove {
			if err := sess.Engine.Remove(table.ID, col.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, successFmt("Removed outcome curve of %s.%s", table.Name, col.Name))
			return nil
		}

		draft, err := sess.Engine.Begin(table.ID, col.ID)
		if err != nil {
			return err
		}
		if err := editDraft(cmd, draft); err != nil {
			return err
		}

		var c schema.OutcomeConstraint
		if curveDryRun {
			c, err = sess.Engine.Preview(draft)
		} else {
			c, err = sess.Engine.Save(draft)
		}
		if err != nil {
			return err
		}

		pattern, _ := curve.Pattern(c, &g)
		fmt.Fprintln(out, headingFmt("%s.%s: %s", table.Name, col.Name, pattern.Description))
		for _, p := range c.Points {
			fmt.Fprintf(out, "  %s  %s\n", p.Timestamp.Format("2006-01-02"), strconv.FormatFloat(p.Value, 'f', -1, 64))
		}
		if !curveDryRun {
			fmt.Fprintln(out, successFmt("Saved %d points", len(c.Points)))
		}
		return nil
	})
}

// editDraft applies the flags the user actually set
func editDraft(cmd *cobra.Command, d *curve.Draft) error {
	flags := cmd.Flags()
	if curvePreset != "" {
		if err := d.ApplyPreset(curve.Preset(curvePreset), curvePeriods); err != nil {
			return err
		}
	}
	if curvePoints != "" {
		var values []float64
		for _, s := range splitList(curvePoints) {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid point value %q: %w", s, err)
			}
			values = append(values, v)
		}
		d.Values = values
		d.Preset = ""
	}
	if err := d.SetScale(curveScale); err != nil {
		return err
	}
	if flags.Changed("unit") {
		if err := d.SetTimeUnit(schema.TimeUnit(curveUnit)); err != nil {
			return err
		}
	}
	if flags.Changed("avg-transaction-value") {
		if curveAvg <= 0 {
			d.SetAvgTransactionValue(nil)
		} else {
			d.SetAvgTransactionValue(&curveAvg)
		}
	}
	return nil
}
