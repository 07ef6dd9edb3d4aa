package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wikilake/hopcheck/pkg/corpus"
	"github.com/wikilake/hopcheck/pkg/grader"
	"github.com/wikilake/hopcheck/pkg/store"
	"github.com/wikilake/hopcheck/pkg/task"
)

type ValidateCmd struct {
	rejected bool
}

func NewValidateCmd() *ValidateCmd {
	return &ValidateCmd{}
}

func (c *ValidateCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <tasks.yaml>",
		Short: "Ground and validate a task document against the corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
			if err != nil {
				return fmt.Errorf("failed to get verbose flag: %w", err)
			}
			bucket, err := cmd.Flags().GetString("bucket")
			if err != nil {
				return fmt.Errorf("failed to get bucket flag: %w", err)
			}
			prefix, err := cmd.Flags().GetString("prefix")
			if err != nil {
				return fmt.Errorf("failed to get prefix flag: %w", err)
			}
			region, err := cmd.Flags().GetString("region")
			if err != nil {
				return fmt.Errorf("failed to get region flag: %w", err)
			}
			localDir, err := cmd.Flags().GetString("local-dir")
			if err != nil {
				return fmt.Errorf("failed to get local-dir flag: %w", err)
			}
			timeout, err := cmd.Flags().GetDuration("timeout")
			if err != nil {
				return fmt.Errorf("failed to get timeout flag: %w", err)
			}
			workers, err := cmd.Flags().GetInt("workers")
			if err != nil {
				return fmt.Errorf("failed to get workers flag: %w", err)
			}
			minFiles, err := cmd.Flags().GetInt("min-files")
			if err != nil {
				return fmt.Errorf("failed to get min-files flag: %w", err)
			}
			minSteps, err := cmd.Flags().GetInt("min-steps")
			if err != nil {
				return fmt.Errorf("failed to get min-steps flag: %w", err)
			}
			metricsAddr, err := cmd.Flags().GetString("metrics-addr")
			if err != nil {
				return fmt.Errorf("failed to get metrics-addr flag: %w", err)
			}

			log := newLogger(verbose)
			ctx := context.Background()

			if metricsAddr != "" {
				serveMetrics(log, metricsAddr)
			}

			st, err := newStore(log, bucket, prefix, region, localDir)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read task document: %w", err)
			}
			doc, err := task.Parse(data)
			if err != nil {
				return err
			}

			// No task can be graded without the corpus listing, so a
			// listing failure is fatal to the run.
			listing, err := st.List(ctx)
			if err != nil {
				return err
			}
			index := corpus.BuildIndex(log, listing)

			g, err := grader.New(&grader.Config{
				Logger:            log,
				Index:             index,
				Store:             st,
				Timeout:           timeout,
				MinRequiredFiles:  minFiles,
				MinReasoningSteps: minSteps,
				Workers:           workers,
			})
			if err != nil {
				return err
			}

			report, err := g.GradeDocument(ctx, doc)
			if err != nil {
				return err
			}

			report.Render(os.Stdout)
			log.Info("validation complete",
				"task", report.Task,
				"accepted", report.AcceptedCount(),
				"rejected", report.RejectedCount())

			c.rejected = report.RejectedCount() > 0
			return nil
		},
	}

	cmd.Flags().String("bucket", "", "S3 bucket holding the corpus")
	cmd.Flags().String("prefix", "", "key prefix within the bucket")
	cmd.Flags().String("region", store.DefaultRegion, "bucket region")
	cmd.Flags().String("local-dir", "", "grade against a local corpus directory instead of S3")
	cmd.Flags().Duration("timeout", 30*time.Second, "per-question execution budget")
	cmd.Flags().Int("workers", 0, "concurrent question validations (0 = NumCPU)")
	cmd.Flags().Int("min-files", 5, "minimum required evidence files per question")
	cmd.Flags().Int("min-steps", 5, "minimum reasoning steps per question")
	cmd.Flags().String("metrics-addr", "", "address to serve prometheus metrics on (empty disables)")

	return cmd
}
