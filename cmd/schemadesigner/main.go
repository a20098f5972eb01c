package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tordrt/schemadesigner"
	"github.com/tordrt/schemadesigner/internal/config"
	"github.com/tordrt/schemadesigner/internal/schema"
)

var (
	configPath string
	cacheURL   string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

var (
	successFmt = color.New(color.FgGreen).SprintfFunc()
	warningFmt = color.New(color.FgYellow).SprintfFunc()
	errorFmt   = color.New(color.FgRed, color.Bold).SprintfFunc()
	headingFmt = color.New(color.FgBlue, color.Bold).SprintfFunc()
)

var rootCmd = &cobra.Command{
	Use:   "schemadesigner",
	Short: "Design relational schemas for synthetic data generation",
	Long: `SchemaDesigner keeps a cached schema workspace: tables, typed columns with
generation parameters, foreign keys and outcome curves. Schemas are imported
from PostgreSQL, MySQL, SQLite, schema files or share links, edited from the
command line or the HTTP API, and submitted to a remote data generator.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&cacheURL, "cache", "", "Workspace cache URL (overrides the configuration)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the configuration)")

	rootCmd.AddCommand(importCmd, showCmd, exportCmd, curveCmd, validateCmd, submitCmd, serveCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cacheURL != "" {
		loaded.Workspace.CacheURL = cacheURL
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}

	l, err := config.NewLogger(loaded.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	slog.SetDefault(l)
	return nil
}

// withSession opens the cached workspace for the duration of fn
func withSession(ctx context.Context, fn func(*schemadesigner.Session) error) error {
	sess, err := schemadesigner.OpenSession(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("failed to close workspace cache", slog.Any("error", err))
		}
	}()
	return fn(sess)
}

// splitList parses a comma separated flag value
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveColumn finds a column addressed as table.column, ignoring case
func resolveColumn(g schema.Graph, ref string) (*schema.Table, *schema.Column, error) {
	tableName, columnName, ok := strings.Cut(ref, ".")
	if !ok || tableName == "" || columnName == "" {
		return nil, nil, fmt.Errorf("column must be given as table.column, got %q", ref)
	}
	t, found := g.TableByName(tableName)
	if !found {
		return nil, nil, fmt.Errorf("table %q not found", tableName)
	}
	c, found := t.ColumnByName(columnName)
	if !found {
		return nil, nil, fmt.Errorf("column %q not found in table %s", columnName, t.Name)
	}
	return t, c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorFmt("error: %v", err))
		os.Exit(1)
	}
}
