package cli

import (
	"github.com/spf13/cobra"
)

func scheduleCmd(flags *globalFlags) *cobra.Command {
	var cron string
	var now bool

	c := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := loadApplication(flags, cron)
			if err != nil {
				return err
			}
			return application.Schedule(cmd.Context(), now)
		},
	}

	c.Flags().StringVar(&cron, "cron", "", "Five-field cron expression (overrides config)")
	c.Flags().BoolVar(&now, "now", false, "Run once immediately before waiting for the first tick")
	return c
}
