package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docpress/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the local job-audit store",
	}
	cmd.AddCommand(newHistoryListCommand(ctx))
	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled; enable it with history.enabled = true")
	}
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				entries, err := store.List(cmd.Context(), limitFlag)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, entries)
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					checks := "-"
					if entry.ChecksPassed != nil && entry.ChecksTotal != nil {
						checks = fmt.Sprintf("%d/%d", *entry.ChecksPassed, *entry.ChecksTotal)
					}
					rows = append(rows, []string{
						entry.ID,
						string(entry.State),
						entry.Filename,
						checks,
						entry.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Job", "State", "Artifact", "Checks", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of jobs to list")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				entry, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, entry)
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete records older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withHistory(func(store *history.Store) error {
				retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
				removed, err := store.Prune(cmd.Context(), retention)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d job records older than %d days\n",
					removed, cfg.History.RetentionDays)
				return nil
			})
		},
	}
}
