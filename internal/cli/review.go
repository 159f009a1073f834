package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/obstrace"
	"github.com/aicp/controlplane/internal/pipeline"
	"github.com/aicp/controlplane/internal/review"
	"github.com/spf13/cobra"
)

// NewReviewCmd builds the `aicpctl review` command: it reads a unified
// diff from a file (--diff-file) or stdin and drives it through
// review.BuildPipeline, the pipeline-backed adaptation of the teacher's
// two-pass branch review (diff fetch, parse, categorize, batch, AI
// walkthrough, per-batch AI review) that this module carries forward as a
// supplement to the distilled spec (see DESIGN.md).
func NewReviewCmd() *cobra.Command {
	var diffFile, providerName, model, strictness string

	cmd := &cobra.Command{
		Use:     "review [--diff-file=path] [--provider=] [--strictness=]",
		Short:   "Review a unified diff with AI-generated walkthrough and per-file comments.",
		Example: "git diff main... | aicpctl review --provider=mock",
		Run: func(cmd *cobra.Command, args []string) {
			diff, err := readDiff(diffFile)
			if err != nil {
				fatalf("reading diff: %v", err)
			}

			v := loadConfig(cmd)
			if providerName != "" {
				v.Set("providers", []string{providerName})
			}
			log := obslog.New()

			gw, err := buildGateway(v, log, sharedMetrics, obstrace.Noop())
			if err != nil {
				fatalf("%v", err)
			}

			cfg := review.DefaultConfig()
			if strictness != "" {
				cfg.Strictness = strictness
			}

			p := review.BuildPipeline(diff, gw, model, cfg, pipeline.WithLogger(log), pipeline.WithMetrics(sharedMetrics))
			run := p.Run(context.Background(), nil)

			if run.Status != pipeline.StatusCompleted {
				stage := run.Results["summarize_batches"]
				if stage != nil {
					fatalf("review pipeline failed: %s", stage.Error)
				}
				fatalf("review pipeline failed: deadlock or unknown error")
			}

			result := run.Results["summarize_batches"].Output.(*review.DiffReviewResult)
			printReviewResult(result)
		},
	}

	cmd.Flags().StringVar(&diffFile, "diff-file", "", "path to a unified diff file; defaults to stdin")
	cmd.Flags().StringVar(&providerName, "provider", "mock", "provider to use: mock|openai|gemini")
	cmd.Flags().StringVar(&model, "model", "mock-model", "model identifier to request")
	cmd.Flags().StringVar(&strictness, "strictness", "", "strict|normal|lenient")

	return cmd
}

func readDiff(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func printReviewResult(result *review.DiffReviewResult) {
	fmt.Printf("Walkthrough (%d files, +%d/-%d):\n%s\n\n",
		result.TotalFiles, result.TotalAdditions, result.TotalDeletions, result.Walkthrough.Summary)
	for _, fr := range result.FileReviews {
		fmt.Printf("--- %s ---\n%s\n\n", fr.FilePath, fr.Summary)
	}
}

func init() {
	rootCmd.AddCommand(NewReviewCmd())
}
