package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"realty-crm/internal/schedule"
)

func pendingCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List scheduled classifications that have not run yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd.Context(), false, true)
			if err != nil {
				return err
			}
			defer e.Close()

			tasks, err := schedule.NewRedisStore(e.rdb, "").List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list scheduled classifications: %w", err)
			}
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(tasks)
			}
			return printTasks(cmd, tasks, time.Now())
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func printTasks(cmd *cobra.Command, tasks []schedule.Task, now time.Time) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "no pending classifications")
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CALL ID\tCAMPAIGN\tDUE AT\tIN")
	for _, t := range tasks {
		in := t.DueAt.Sub(now).Round(time.Second)
		if in < 0 {
			in = 0
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.CallID, t.CampaignID, t.DueAt.Format(time.RFC3339), in)
	}
	return w.Flush()
}
