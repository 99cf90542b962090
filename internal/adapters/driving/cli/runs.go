package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/output"
	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-sharepoint/internal/connectors/sharepoint"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect runs recorded with --sink sqlite",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the records of a run as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func openRunStore() (*sqlite.Store, error) {
	store, err := loadConfigStore()
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(store.GetString(sharepoint.KeyDataDir))
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	db, err := openRunStore()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		finished := "running"
		if run.FinishedAt != nil {
			finished = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		cmd.Printf("%s  %-8s  %s  %s\n", run.ID, run.Command, run.StartedAt.Local().Format(time.DateTime), finished)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	db, err := openRunStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	changes, err := db.Changes(ctx, args[0])
	if err != nil {
		return err
	}
	docs, err := db.Documents(ctx, args[0])
	if err != nil {
		return err
	}
	if len(changes) == 0 && len(docs) == 0 {
		return fmt.Errorf("run %s has no records", args[0])
	}

	sink := output.NewJSONLSink(cmd.OutOrStdout())
	for _, rec := range changes {
		if err := sink.WriteChange(ctx, rec); err != nil {
			return err
		}
	}
	for _, rec := range docs {
		if err := sink.WriteDocument(ctx, rec); err != nil {
			return err
		}
	}
	return sink.Close()
}
