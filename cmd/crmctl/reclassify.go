package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"realty-crm/internal/audit"
	"realty-crm/internal/calls"
	"realty-crm/internal/campaigns"
	"realty-crm/internal/outcome"
	"realty-crm/internal/schedule"
	"realty-crm/internal/voice"
)

func reclassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reclassify <call-id>",
		Short: "Fetch a call's transcript now and rewrite its outcome",
		Long: `Runs the classification pass for one call immediately and drops its
scheduled pass, if any. Use it for records stuck in "initiated".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadEnv(ctx, true, true)
			if err != nil {
				return err
			}
			defer e.Close()

			client := voice.NewClient(e.cfg.Voice, nil)
			callRepo := calls.NewPostgresRepo(e.db)
			orch := campaigns.NewOrchestrator(campaigns.Deps{
				Transcripts: client,
				Classifier:  outcome.NewRuleClassifier(),
				Calls:       callRepo,
				Updater:     calls.NewUpdater(callRepo),
				Scheduler:   schedule.New(schedule.NewRedisStore(e.rdb, ""), e.log),
				Guard:       schedule.NewRedisGuard(e.rdb, "", e.cfg.Campaign.ClassifyLockTTL),
				Events:      audit.NewService(audit.NewPostgresRepo(e.db)),
				Log:         e.log,
			}, campaigns.Options{})

			completion, err := orch.ClassifyNow(ctx, args[0])
			if err != nil {
				return fmt.Errorf("reclassify %s: %w", args[0], err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(completion)
		},
	}
}
