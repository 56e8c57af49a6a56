package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/app"
	"github.com/procurement/backend/internal/domain/report"
	"github.com/spf13/cobra"
)

func newDashboardCmd(c *cli) *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard summary of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := uuid.Parse(tenant)
			if err != nil {
				return fmt.Errorf("invalid --tenant %q", tenant)
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				summary, err := a.Services.Dashboard.Summary(cmd.Context(), tenantID)
				if err != nil {
					return err
				}
				return c.render(cmd.OutOrStdout(), summary, []string{"Metric", "Value"}, summaryRows(summary))
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant ID")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func summaryRows(s *report.Summary) [][]string {
	var rows [][]string
	add := func(metric, value string) { rows = append(rows, []string{metric, value}) }

	if s.Contracts != nil {
		for _, sc := range s.Contracts.ByStatus {
			add("contracts "+sc.Status, strconv.FormatInt(sc.Count, 10))
		}
		add("contracts active value", s.Contracts.ActiveValue.StringFixed(2))
		add("contracts expiring in 30 days", strconv.FormatInt(s.Contracts.ExpiringWithin30, 10))
		add("contracts expiring in 90 days", strconv.FormatInt(s.Contracts.ExpiringWithin90, 10))
	}
	if s.Spend != nil {
		add("spend total", s.Spend.Total.StringFixed(2))
		for _, b := range s.Spend.TopSuppliers {
			add("spend "+b.Label, b.Amount.StringFixed(2))
		}
	}
	if s.Evaluations != nil {
		add("evaluations", strconv.FormatInt(s.Evaluations.Count, 10))
		add("evaluation average", s.Evaluations.AverageScore.StringFixed(2))
	}
	if s.Onboarding != nil {
		for _, sc := range s.Onboarding.ByStatus {
			add("onboarding "+sc.Status, strconv.FormatInt(sc.Count, 10))
		}
		add("onboarding overdue", strconv.FormatInt(s.Onboarding.Overdue, 10))
		add("onboarding average days", strconv.FormatFloat(s.Onboarding.AverageDaysToApprove, 'f', 1, 64))
	}
	if s.Requisitions != nil {
		add("requisitions pending amount", s.Requisitions.PendingAmount.StringFixed(2))
		add("requisitions approved this month", s.Requisitions.ApprovedThisMonth.StringFixed(2))
	}
	return rows
}
