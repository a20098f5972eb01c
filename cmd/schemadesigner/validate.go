package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemadesigner"
	"github.com/tordrt/schemadesigner/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the workspace against the naming, row count and parameter rules",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

// errInvalidWorkspace makes the command exit non-zero after printing issues
var errInvalidWorkspace = errors.New("workspace has validation errors")

func runValidate(cmd *cobra.Command, _ []string) error {
	return withSession(cmd.Context(), func(sess *schemadesigner.Session) error {
		issues := validate.Graph(sess.Store.Graph())
		printIssues(cmd, issues)
		if validate.HasErrors(issues) {
			return errInvalidWorkspace
		}
		if len(issues) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), successFmt("Workspace is valid"))
		}
		return nil
	})
}

func printIssues(cmd *cobra.Command, issues []validate.Issue) {
	out := cmd.OutOrStdout()
	for _, is := range issues {
		where := is.Table
		if is.Column != "" {
			where += "." + is.Column
		}
		if !is.Valid {
			fmt.Fprintln(out, errorFmt("ERROR   %s: %s", where, is.Error))
		} else {
			fmt.Fprintln(out, warningFmt("WARNING %s: %s", where, is.Warning))
		}
	}
}
