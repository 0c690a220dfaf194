// cmd/generate.go
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/observability"
	"github.com/xkilldash9x/scribe/internal/reporting"
	"github.com/xkilldash9x/scribe/internal/store"
	"github.com/xkilldash9x/scribe/internal/synth"
)

func newGenerateCmd() *cobra.Command {
	var (
		output      string
		sessionID   string
		testName    string
		moduleStyle string
	)

	generateCmd := &cobra.Command{
		Use:   "generate [actions.json]",
		Short: "Generate a Playwright test from a saved action log",
		Long: `Re-synthesizes a test script from an action log written by
"record --actions-out", or from a session saved in the database (--session).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			var saved action.SavedLog
			switch {
			case len(args) == 1 && sessionID != "":
				return errors.New("give either an action log file or --session, not both")
			case len(args) == 1:
				saved, err = reporting.ReadActions(args[0])
			case sessionID != "":
				url := cfg.Database().URL
				if url == "" {
					return errors.New("--session requires database.url (SCRIBE_DATABASE_URL)")
				}
				err = withStore(ctx, url, logger, func(s *store.Store) error {
					var loadErr error
					saved, loadErr = s.LoadSession(ctx, sessionID)
					return loadErr
				})
			default:
				return errors.New("an action log file or --session is required")
			}
			if err != nil {
				return fmt.Errorf("failed to load actions: %w", err)
			}

			opts := scriptOptions(cfg)
			if cmd.Flags().Changed("test-name") {
				opts.TestName = testName
			}
			if cmd.Flags().Changed("module-style") {
				opts.ModuleStyle = synth.ModuleStyle(moduleStyle)
			}
			switch opts.ModuleStyle {
			case synth.ModuleCommonJS, synth.ModuleESM:
			default:
				return fmt.Errorf("unsupported module style: %s", opts.ModuleStyle)
			}

			result := reporting.Result{Script: synth.Synthesize(saved.Actions, opts), Log: saved}
			if err := writeReport(reporting.FormatScript, output, result, cmd.OutOrStdout()); err != nil {
				return err
			}
			logger.Debug("Script generated",
				observability.SessionField(saved.SessionID),
				zap.Int("actions", len(saved.Actions)))
			return nil
		},
	}

	generateCmd.Flags().StringVarP(&output, "output", "o", "", "Write the script to this file (.br for brotli). Defaults to stdout.")
	generateCmd.Flags().StringVar(&sessionID, "session", "", "Load the actions of a session saved in the database.")
	generateCmd.Flags().StringVar(&testName, "test-name", synth.DefaultTestName, "Name of the generated test.")
	generateCmd.Flags().StringVar(&moduleStyle, "module-style", string(synth.ModuleCommonJS), "commonjs or esm.")
	return generateCmd
}
