package main

import (
	"fmt"
	"time"

	"medicine_reminder/internal/app"
	"medicine_reminder/internal/infra/config"
	"medicine_reminder/internal/infra/database"
	"medicine_reminder/internal/infra/logger"
	"medicine_reminder/internal/infra/schedules"
	"medicine_reminder/internal/infra/syncclient"

	"github.com/spf13/cobra"
)

func newSyncCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Flush queued acknowledgements to the sync server once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			coordinator := app.NewSyncCoordinator(database.NewSQLiteAckQueue(db),
				syncclient.New(cfg.SyncURL, cfg.SyncToken, cfg.SyncTimeout),
				logger.For("sync"))
			res, err := coordinator.Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d of %d queued acknowledgements\n", res.Sent, res.Pending)
			return nil
		},
	}
}

func newMatchCmd(cfg *config.AppConfig) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Print the reminders due at a given time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.ParseInLocation(time.RFC3339, at, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = t.In(time.Local)
			}

			list, err := schedules.NewFileSource(cfg.SchedulesFile, logger.For("schedules")).List(cmd.Context())
			if err != nil {
				return err
			}
			byID := make(map[string]string, len(list))
			for _, s := range list {
				byID[s.ID] = s.Name
			}

			due := app.Match(now, list)
			out := cmd.OutOrStdout()
			if len(due) == 0 {
				fmt.Fprintf(out, "nothing due at %s\n", now.Format("Monday 15:04"))
				return nil
			}
			for _, d := range due {
				fmt.Fprintf(out, "%s\t%s\t%s\n", d.FiredAt.Format("Monday 15:04"), d.ScheduleID, byID[d.ScheduleID])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluation time (RFC3339), defaults to now")
	return cmd
}

func newHistoryCmd(cfg *config.AppConfig) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the most recently dispatched reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := database.NewSQLiteNotificationLog(db).Recent(ctx, limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.Slot.Format("2006-01-02 Mon 15:04"), e.ScheduleID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to print")
	return cmd
}
