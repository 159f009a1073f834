package cli

import (
	"context"
	"fmt"

	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/obstrace"
	"github.com/aicp/controlplane/internal/provider"
	"github.com/spf13/cobra"
)

// NewChatCmd builds the `aicpctl chat` command: a single completion routed
// through the full Gateway (middleware, reliability/failover, cost
// estimate), matching original_source/src/aicp/cli.py's `chat` command.
func NewChatCmd() *cobra.Command {
	var providerName, model string
	var redact, noRedact bool

	cmd := &cobra.Command{
		Use:     "chat <message>",
		Short:   "Send a single completion request through the gateway.",
		Example: "aicpctl chat \"explain this error\" --provider=mock --model=mock-model",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			v := loadConfig(cmd)
			if providerName != "" {
				v.Set("providers", []string{providerName})
			}
			if noRedact {
				redact = false
			}
			v.Set("redact", redact)

			log := obslog.New()
			gw, err := buildGateway(v, log, sharedMetrics, obstrace.Noop())
			if err != nil {
				fatalf("%v", err)
			}

			result, err := gw.Complete(context.Background(), provider.CompletionRequest{
				Model:    model,
				Messages: []provider.Message{{Role: provider.RoleUser, Content: args[0]}},
			})
			if err != nil {
				fatalf("%v", err)
			}

			fmt.Println(result.Response.Content)
			fmt.Printf("(estimated cost: $%.6f, tokens: %d prompt / %d completion)\n",
				result.EstimatedCost, result.Response.Usage.PromptTokens, result.Response.Usage.CompletionTokens)
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "mock", "provider to use: mock|openai|gemini")
	cmd.Flags().StringVar(&model, "model", "mock-model", "model identifier to request")
	cmd.Flags().BoolVar(&redact, "redact", true, "redact PII from outgoing messages and responses")
	cmd.Flags().BoolVar(&noRedact, "no-redact", false, "disable PII redaction (same as --redact=false)")

	return cmd
}

func init() {
	rootCmd.AddCommand(NewChatCmd())
}
