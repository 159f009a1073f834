package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/obstrace"
	"github.com/aicp/controlplane/internal/pipeline"
	"github.com/aicp/controlplane/internal/provider"
	"github.com/spf13/cobra"
)

// NewRunEvalCmd builds the `aicpctl run-eval` command: the sample
// two-stage evaluation pipeline ("generate_response" -> "validate_output")
// from original_source/src/aicp/cli.py's run_eval, printed as a plain
// table (the teacher carries no table-rendering dependency, so this
// extends its own tab-aligned printing convention with the standard
// library's text/tabwriter rather than pulling one in).
func NewRunEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run-eval [prompt]",
		Short:   "Run a sample model evaluation pipeline.",
		Example: "aicpctl run-eval \"Explain production AI.\"",
		Args:    cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			prompt := "Explain production AI."
			if len(args) == 1 {
				prompt = args[0]
			}

			v := loadConfig(cmd)
			v.Set("providers", []string{"mock"})
			log := obslog.New()

			gw, err := buildGateway(v, log, sharedMetrics, obstrace.Noop())
			if err != nil {
				fatalf("%v", err)
			}

			p := pipeline.New("eval-pipeline", pipeline.WithLogger(log), pipeline.WithMetrics(sharedMetrics))

			p.AddStage(pipeline.NewStage("generate_response", []string{"prompt"}, func(args map[string]interface{}) (interface{}, error) {
				promptArg, _ := args["prompt"].(string)
				result, err := gw.Complete(context.Background(), provider.CompletionRequest{
					Model:    "eval-model",
					Messages: []provider.Message{{Role: provider.RoleUser, Content: promptArg}},
				})
				if err != nil {
					return nil, err
				}
				return result.Response.Content, nil
			}, nil, nil, 0))

			p.AddStage(pipeline.NewStage("validate_output", []string{"generate_response"}, func(args map[string]interface{}) (interface{}, error) {
				content, _ := args["generate_response"].(string)
				if len(content) < 10 {
					return nil, fmt.Errorf("response too short: %d characters", len(content))
				}
				return map[string]interface{}{"valid": true, "length": len(content)}, nil
			}, []string{"generate_response"}, nil, 0))

			run := p.Run(context.Background(), map[string]interface{}{"prompt": prompt})
			printRunTable(run)
		},
	}
	return cmd
}

func printRunTable(run *pipeline.PipelineRun) {
	fmt.Printf("Pipeline Run: %s (run_id=%s, status=%s)\n", run.PipelineName, run.RunID, run.Status)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tSTATUS\tOUTPUT/ERROR")
	for _, name := range []string{"generate_response", "validate_output"} {
		res, ok := run.Results[name]
		if !ok {
			continue
		}
		outcome := res.Error
		if res.Output != nil {
			outcome = fmt.Sprintf("%v", res.Output)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.StageName, res.Status, outcome)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(NewRunEvalCmd())
}
