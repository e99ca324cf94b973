package main

import (
	"fmt"
	"time"

	"github.com/gemlens/facet/internal/cli"
	"github.com/gemlens/facet/internal/classify"
	"github.com/spf13/cobra"
)

func jobsCmd() *cobra.Command {
	var (
		wait         string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List classification jobs on the remote service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, err := initClassifier()
			if err != nil {
				return err
			}

			if wait != "" {
				result, err := client.WaitForJob(ctx, wait, pollInterval)
				if err != nil {
					return err
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Job %s finished: %d stones detected in %s",
					wait, len(result.Classifications), result.Image)))
				return nil
			}

			jobs, err := client.ListJobs(ctx)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Println(cli.FormatInfo("No classification jobs found."))
				return nil
			}

			for _, job := range jobs {
				fmt.Printf("  %s  %-10s  %s\n", job.ID, formatJobState(job.State), job.Image)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&wait, "wait", "", "wait for the given job to finish")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 2*time.Second, "job polling interval")
	return cmd
}

func formatJobState(state classify.JobState) string {
	switch state {
	case classify.JobFinished:
		return cli.SuccessStyle.Render(string(state))
	case classify.JobFailed:
		return cli.ErrorStyle.Render(string(state))
	default:
		return cli.SubtleStyle.Render(string(state))
	}
}
