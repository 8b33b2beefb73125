package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"autolrc/db"
	"autolrc/repository"
)

var failuresLimit int

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List recent failed jobs from the job-history database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		if gdb == nil {
			return fmt.Errorf("job history is disabled: DB_HOST is not set")
		}
		defer db.Close(gdb)

		history, err := repository.NewResultRepository(gdb)
		if err != nil {
			return err
		}
		records, err := history.RecentFailures(failuresLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no failed jobs recorded")
			return nil
		}

		for _, r := range records {
			fmt.Printf("%s  %s  [%s] %s\n",
				r.CreatedAt.Format(time.RFC3339), r.SourcePath, r.FailedStage, r.Reason)
		}
		return nil
	},
}

func init() {
	failuresCmd.Flags().IntVarP(&failuresLimit, "limit", "n", 20, "maximum number of records to list")
	rootCmd.AddCommand(failuresCmd)
}
