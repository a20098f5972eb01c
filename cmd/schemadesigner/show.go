package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemadesigner"
	"github.com/tordrt/schemadesigner/internal/formatter"
	"github.com/tordrt/schemadesigner/internal/importer"
	"github.com/tordrt/schemadesigner/internal/serializer"
)

var (
	showFormat string
	showOutput string

	exportFormat string
	exportOutput string
	exportBundle string
	exportShare  bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the workspace in a compact, readable form",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the workspace as a generator document",
	Long: `Export serializes the workspace into the document the data generator
consumes. --bundle writes an overview, one markdown file per table and the
document into a directory; --share prints a share link token instead.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "Output format: text or markdown")
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "", "Output file (default: stdout)")

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Document format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVarP(&exportBundle, "bundle", "d", "", "Output directory for a multi-file bundle")
	exportCmd.Flags().BoolVar(&exportShare, "share", false, "Print a share link token")
}

// outputWriter returns stdout or the created file at path
func outputWriter(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
		}
	}, nil
}

func runShow(cmd *cobra.Command, _ []string) error {
	return withSession(cmd.Context(), func(sess *schemadesigner.Session) error {
		w, closeFn, err := outputWriter(cmd, showOutput)
		if err != nil {
			return err
		}
		defer closeFn()

		ws := sess.Store.Snapshot()
		switch showFormat {
		case "text":
			err = formatter.NewTextFormatter(w).Format(ws)
		case "markdown":
			err = formatter.NewMarkdownFormatter(w).Format(ws)
		default:
			return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", showFormat)
		}
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	})
}

func runExport(cmd *cobra.Command, _ []string) error {
	if exportBundle != "" && exportOutput != "" {
		return fmt.Errorf("cannot use both --bundle and --output flags")
	}
	format, err := serializer.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), func(sess *schemadesigner.Session) error {
		ws := sess.Store.Snapshot()

		if exportBundle != "" {
			if err := formatter.NewBundleWriter(exportBundle).Write(ws); err != nil {
				return fmt.Errorf("failed to write bundle: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successFmt("Wrote %d tables to %s", len(ws.Tables), exportBundle))
			return nil
		}

		w, closeFn, err := outputWriter(cmd, exportOutput)
		if err != nil {
			return err
		}
		defer closeFn()

		doc := serializer.Serialize(ws)
		if exportShare {
			token, err := importer.EncodeShareLink(doc)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, token)
			return err
		}
		return serializer.Encode(w, doc, format)
	})
}
