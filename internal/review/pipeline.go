package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/aicp/controlplane/internal/gateway"
	"github.com/aicp/controlplane/internal/pipeline"
	"github.com/aicp/controlplane/internal/provider"
)

// BuildPipeline wires the two-stage review flow the package doc comment
// describes: "batch_files" groups a unified diff's files within the
// configured token budget, then "summarize_batches" calls through gw once
// per batch (plus one walkthrough call) to produce the AI review text.
// This is the one place in this module where a pipeline.Stage's fn
// internally calls the Gateway.
func BuildPipeline(diff string, gw *gateway.Gateway, model string, cfg Config, opts ...pipeline.Option) *pipeline.Pipeline {
	p := pipeline.New("diff_review", opts...)

	p.AddStage(pipeline.NewStage("batch_files", nil, func(args map[string]interface{}) (interface{}, error) {
		changes := ParseUnifiedDiff(diff)
		categorized := CategorizeChanges(changes)
		batches := BatchFiles(categorized, cfg.MaxBatchTokens)
		return batches, nil
	}, nil, nil, 0))

	p.AddStage(pipeline.NewStage("summarize_batches", []string{"batch_files"}, func(args map[string]interface{}) (interface{}, error) {
		batches, _ := args["batch_files"].([]FileBatch)
		return summarizeBatches(context.Background(), gw, model, cfg, batches)
	}, []string{"batch_files"}, nil, 1))

	return p
}

// summarizeBatches drives one walkthrough call and one per-batch review
// call through the gateway, then assembles the combined result.
func summarizeBatches(ctx context.Context, gw *gateway.Gateway, model string, cfg Config, batches []FileBatch) (*DiffReviewResult, error) {
	result := &DiffReviewResult{}

	var allFiles []CategorizedFile
	for _, b := range batches {
		allFiles = append(allFiles, b.Files...)
	}
	for _, f := range allFiles {
		result.TotalFiles++
		result.TotalAdditions += f.Additions
		result.TotalDeletions += f.Deletions
	}

	walkthroughPrompt := buildWalkthroughPrompt(allFiles, cfg)
	walkthroughResp, err := gw.Complete(ctx, provider.CompletionRequest{
		Model: model,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "You summarize code changes concisely for a pull-request description."},
			{Role: provider.RoleUser, Content: walkthroughPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("review: walkthrough: %w", err)
	}
	result.Walkthrough = WalkthroughResult{Summary: walkthroughResp.Response.Content}

	for _, batch := range batches {
		prompt := buildBatchReviewPrompt(batch, cfg)
		resp, err := gw.Complete(ctx, provider.CompletionRequest{
			Model: model,
			Messages: []provider.Message{
				{Role: provider.RoleSystem, Content: reviewSystemPrompt(cfg.Strictness)},
				{Role: provider.RoleUser, Content: prompt},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("review: batch of %d file(s): %w", len(batch.Files), err)
		}
		for _, f := range batch.Files {
			result.FileReviews = append(result.FileReviews, FileReviewResult{
				FilePath: firstNonEmpty(f.NewName, f.OldName),
				Summary:  resp.Response.Content,
			})
		}
	}

	return result, nil
}

func buildWalkthroughPrompt(files []CategorizedFile, cfg Config) string {
	var b strings.Builder
	b.WriteString("Summarize the following changed files as a short walkthrough:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- [%s/%s] %s (+%d/-%d)\n", f.Category, f.Group, firstNonEmpty(f.NewName, f.OldName), f.Additions, f.Deletions)
	}
	return b.String()
}

func buildBatchReviewPrompt(batch FileBatch, cfg Config) string {
	var b strings.Builder
	b.WriteString("Review the following diff hunks:\n\n")
	for _, f := range batch.Files {
		fmt.Fprintf(&b, "--- %s ---\n%s\n", firstNonEmpty(f.NewName, f.OldName), f.Patch)
	}
	return b.String()
}

func reviewSystemPrompt(strictness string) string {
	switch strictness {
	case "strict":
		return "You are a strict, thorough code reviewer. Flag every deviation from best practice."
	case "lenient":
		return "You are a lenient code reviewer. Only flag critical issues."
	default:
		return "You are a pragmatic code reviewer. Flag real bugs and risky patterns, skip style nitpicks."
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
