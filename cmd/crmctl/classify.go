package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"realty-crm/internal/outcome"
)

func classifyCmd() *cobra.Command {
	var (
		file string
		now  string
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a transcript file offline and print the result",
		Long: `Reads a transcript in the calling service's format
({"transcripts":[{"user":"user","text":"..."}],"summary":"..."}) and prints
the classification as JSON. No database or network access is needed.

Examples:
  crmctl classify --file call.json
  crmctl classify --file call.json --now 2026-10-15T09:30:00-04:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			var tr outcome.Transcript
			if err := json.Unmarshal(raw, &tr); err != nil {
				return fmt.Errorf("decode transcript: %w", err)
			}

			at := time.Now()
			if now != "" {
				at, err = time.Parse(time.RFC3339, now)
				if err != nil {
					return fmt.Errorf("--now must be RFC3339: %w", err)
				}
			}

			res := outcome.ClassifyAt(tr, at)
			out := struct {
				outcome.Result
				Outcome string `json:"outcome"`
			}{Result: res, Outcome: outcome.Outcome(res, tr.Summary)}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "transcript JSON file")
	cmd.Flags().StringVar(&now, "now", "", "reference time for relative dates (RFC3339, default now)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
