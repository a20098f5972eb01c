package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemadesigner"
	"github.com/tordrt/schemadesigner/internal/config"
	"github.com/tordrt/schemadesigner/internal/generator"
	"github.com/tordrt/schemadesigner/internal/serializer"
	"github.com/tordrt/schemadesigner/internal/validate"
)

var (
	submitOutput string
	submitForce  bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send the workspace to the data generator and wait for the report",
	Long: `Submit serializes the workspace, starts a generation job on the remote
service, follows its progress and prints the preview and quality report.
Workspaces with validation errors are refused unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitOutput, "output", "o", "", "Report file (default: stdout)")
	submitCmd.Flags().BoolVar(&submitForce, "force", false, "Submit even when validation fails")
}

func newGeneratorClient(c *config.Config) *generator.Client {
	return generator.New(c.Generator.BaseURL,
		generator.WithHTTPClient(&http.Client{Timeout: c.Generator.RequestTimeout}),
		generator.WithPollInterval(c.Generator.PollInterval),
		generator.WithMaxAttempts(c.Generator.MaxAttempts),
		generator.WithLogger(logger),
	)
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	return withSession(ctx, func(sess *schemadesigner.Session) error {
		ws := sess.Store.Snapshot()
		issues := validate.Graph(ws.Graph())
		if validate.HasErrors(issues) && !submitForce {
			printIssues(cmd, issues)
			return errInvalidWorkspace
		}

		errOut := cmd.ErrOrStderr()
		fmt.Fprintln(errOut, headingFmt("Submitting %q (%d tables) to %s", ws.Name, len(ws.Tables), cfg.Generator.BaseURL))

		report, err := newGeneratorClient(cfg).Run(ctx, serializer.Serialize(ws), func(st generator.JobStatus) {
			line := fmt.Sprintf("  %-8s %3d%%", st.Status, st.Progress)
			if st.Message != "" {
				line += "  " + st.Message
			}
			fmt.Fprintln(errOut, line)
		})
		if err != nil {
			var remote *generator.RemoteError
			if errors.As(err, &remote) {
				return fmt.Errorf("generator rejected the request (HTTP %d): %s", remote.StatusCode, remote.Body)
			}
			return fmt.Errorf("generation failed: %w", err)
		}
		fmt.Fprintln(errOut, successFmt("Job %s complete", report.JobID))

		w, closeFn, err := outputWriter(cmd, submitOutput)
		if err != nil {
			return err
		}
		defer closeFn()

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	})
}
