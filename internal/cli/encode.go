package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/graft/internal/codec"
	"github.com/roach88/graft/internal/harness"
)

// EncodeResult holds encode output for JSON mode.
type EncodeResult struct {
	Scenario string   `json:"scenario"`
	Database string   `json:"database"`
	Records  int      `json:"records"`
	Entities []string `json:"entities"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "encode <scenario.yaml>",
		Short: "Encode a scenario's records into an entity store",
		Long: `Encode the records declared in a YAML scenario into a SQLite store.

The scenario names a schema directory (resolved relative to the scenario
file), the records to encode, and optional assertions evaluated after
encoding. Re-running against the same database is idempotent for
identical records.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(rootOpts, args[0], dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "graft.db", "path to the SQLite store")

	return cmd
}

func runEncode(opts *RootOptions, scenarioPath, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sc, err := harness.LoadScenario(scenarioPath)
	if err != nil {
		_ = formatter.Error("SCENARIO_ERROR", err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading scenario", err)
	}

	var extra []codec.Option
	if opts.Verbose {
		logger := slog.New(slog.NewTextHandler(formatter.GetErrWriter(), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		extra = append(extra, codec.WithTrace(codec.SlogTrace(logger)))
	}

	res, err := harness.Run(cmd.Context(), sc, filepath.Dir(scenarioPath), dbPath, extra...)
	if err != nil {
		_ = formatter.Error("ENCODE_ERROR", err.Error(), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("encode failed: %v", err))
	}
	defer res.Store.Close()

	return outputEncodeSuccess(formatter, sc.Name, dbPath, res)
}

func outputEncodeSuccess(formatter *OutputFormatter, name, dbPath string, res *harness.Result) error {
	entities := make([]string, 0, len(res.Refs))
	for _, ref := range res.Refs {
		entities = append(entities, ref.String())
	}

	if formatter.Format == "json" {
		return formatter.Success(EncodeResult{
			Scenario: name,
			Database: dbPath,
			Records:  len(res.Refs),
			Entities: entities,
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Encoded %d record(s) into %s\n", len(res.Refs), dbPath)
	for _, e := range entities {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}
	return nil
}
