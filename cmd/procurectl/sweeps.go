package main

import (
	"strconv"
	"time"

	"github.com/procurement/backend/internal/app"
	"github.com/spf13/cobra"
)

func newRemindersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Reminder escalation",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one reminder sweep across every active tenant",
		Long: `Sends due reminders for pending approvals and supplier invitations and escalates
items that have waited past the escalation threshold. Equivalent to POST /cron/reminders.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				result, sweepErr := a.Services.Reminders.Sweep(cmd.Context(), time.Now())
				if err := c.render(cmd.OutOrStdout(), result, []string{"Scanned", "Reminded", "Escalated", "Skipped", "Failed"}, [][]string{{
					strconv.Itoa(result.Scanned),
					strconv.Itoa(result.Reminded),
					strconv.Itoa(result.Escalated),
					strconv.Itoa(result.Skipped),
					strconv.Itoa(result.Failed),
				}}); err != nil {
					return err
				}
				return sweepErr
			})
		},
	})
	return cmd
}

func newContractsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Contract lifecycle",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Renew, expire and send renewal notices for every active tenant",
		Long:  `Runs the daily contract sweep once. Equivalent to POST /cron/contracts.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				result, sweepErr := a.Services.Contracts.SweepAll(cmd.Context(), a.Services.Users, time.Now())
				if err := c.render(cmd.OutOrStdout(), result, []string{"Checked", "Renewed", "Expired", "Notices", "Conflicts"}, [][]string{{
					strconv.Itoa(result.Checked),
					strconv.Itoa(result.Renewed),
					strconv.Itoa(result.Expired),
					strconv.Itoa(result.Notices),
					strconv.Itoa(result.Conflicts),
				}}); err != nil {
					return err
				}
				return sweepErr
			})
		},
	})
	return cmd
}
