package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/redact"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "run",
		Short: "Run the enrichment pipeline once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, flags, format)
		},
	}

	c.Flags().StringVar(&format, "format", "pretty", "Report format: pretty|json")
	return c
}

func runOnce(cmd *cobra.Command, flags *globalFlags, format string) error {
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}

	application, err := loadApplication(flags, "")
	if err != nil {
		return err
	}

	report, runErr := application.Run(cmd.Context())
	if report.Total > 0 || runErr == nil {
		if err := printReport(cmd.OutOrStdout(), report, format); err != nil {
			return err
		}
	}
	return runErr
}

type reportView struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Total        int           `json:"total"`
	Processed    int           `json:"processed"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	NotAttempted int           `json:"not_attempted"`
	Outcomes     []outcomeView `json:"outcomes"`
}

type outcomeView struct {
	ArticleID string   `json:"article_id"`
	Status    string   `json:"status"`
	Tags      []string `json:"tags,omitempty"`
	OriginURL *string  `json:"origin_url,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func newReportView(report domain.Report) reportView {
	view := reportView{
		RunID:        report.RunID,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
		Total:        report.Total,
		Processed:    report.Count(domain.StatusProcessed),
		Skipped:      report.Count(domain.StatusSkipped),
		Failed:       report.Count(domain.StatusFailed),
		NotAttempted: report.NotAttempted,
		Outcomes:     make([]outcomeView, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		ov := outcomeView{ArticleID: o.ArticleID, Status: string(o.Status), Error: redact.Error(o.Err)}
		if o.Payload != nil {
			ov.Tags = o.Payload.Tags
			ov.OriginURL = o.Payload.OriginURL
		}
		view.Outcomes = append(view.Outcomes, ov)
	}
	return view
}

func printReport(w io.Writer, report domain.Report, format string) error {
	view := newReportView(report)

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Fprintf(w, "Run ID:     %s\n", view.RunID)
	fmt.Fprintf(w, "Duration:   %s\n", view.FinishedAt.Sub(view.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Entries:    %d\n", view.Total)
	fmt.Fprintf(w, "Processed:  %d\n", view.Processed)
	fmt.Fprintf(w, "Skipped:    %d\n", view.Skipped)
	fmt.Fprintf(w, "Failed:     %d\n", view.Failed)
	if view.NotAttempted > 0 {
		fmt.Fprintf(w, "Not run:    %d\n", view.NotAttempted)
	}

	for _, o := range view.Outcomes {
		if o.Error != "" {
			fmt.Fprintf(w, "- [FAIL] %s: %s\n", o.ArticleID, o.Error)
		}
	}
	return nil
}
