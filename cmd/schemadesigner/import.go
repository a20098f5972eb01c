package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemadesigner"
	"github.com/tordrt/schemadesigner/internal/importer"
)

var (
	importTables  string
	importExclude string
	importSchema  string
	importShare   string
)

var importCmd = &cobra.Command{
	Use:   "import [database-url | schema-file]",
	Short: "Replace the workspace with an imported schema",
	Long: `Import reads a schema and replaces the cached workspace with it.

The source is a database URL (postgres://, postgresql://, mysql:// or
sqlite://), a .json/.yaml schema file, or a share link given with --share.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importTables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	importCmd.Flags().StringVarP(&importExclude, "exclude", "e", "", "Tables to exclude (comma-separated, optional)")
	importCmd.Flags().StringVarP(&importSchema, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	importCmd.Flags().StringVar(&importShare, "share", "", "Share link or token to import")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		res importer.Result
		err error
	)
	switch {
	case importShare != "" && len(args) > 0:
		return fmt.Errorf("cannot use both a source argument and --share")
	case importShare != "":
		res, err = schemadesigner.ImportShareLink(importShare)
	case len(args) == 0:
		return fmt.Errorf("a database URL, schema file or --share link is required")
	case schemadesigner.IsDatabaseURL(args[0]):
		res, err = schemadesigner.ImportDatabase(ctx, args[0], &schemadesigner.Options{
			Tables:        splitList(importTables),
			ExcludeTables: splitList(importExclude),
			SchemaName:    importSchema,
		})
	default:
		res, err = schemadesigner.ImportFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to import schema: %w", err)
	}

	return withSession(ctx, func(sess *schemadesigner.Session) error {
		if err := sess.Apply(res); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, line := range res.Skipped {
			fmt.Fprintln(out, warningFmt("skipped: %s", line))
		}
		fmt.Fprintln(out, successFmt("Imported %d tables, %d relationships and %d outcome curves into %q",
			len(res.Graph.Tables), len(res.Graph.Relationships), len(res.Constraints), sess.Store.Name()))
		return nil
	})
}
