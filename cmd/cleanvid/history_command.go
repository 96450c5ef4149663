package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/boilthesea/cleanvid/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently completed cleaning jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("job history is disabled in the configuration")
			}

			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history database: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
					rec.Status,
					rec.Strategy,
					strconv.Itoa(rec.EditCount),
					strconv.Itoa(rec.MuteCount),
					rec.InputVideo,
					rec.OutputVideo,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Status", "Strategy", "Edits", "Mutes", "Input", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit history records as JSON")
	return cmd
}
