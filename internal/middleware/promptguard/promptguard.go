// Package promptguard implements a log-only prompt-injection heuristic,
// grounded on original_source/src/aicp/gateway/middleware.py's
// PromptGuard: it scans each outgoing message for a fixed list of
// suspicious phrases and logs a warning, never mutating the request or
// failing the call.
package promptguard

import (
	"strings"

	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/provider"
)

// injectionPatterns are matched case-insensitively against each message's
// content.
var injectionPatterns = []string{
	"ignore all previous instructions",
	"system prompt:",
	"you are now a",
	"bypass",
	"do not mention",
}

// Guard scans messages for injection heuristics and logs matches.
type Guard struct {
	log obslog.Logger
}

// New builds a Guard. A nil logger discards events.
func New(log obslog.Logger) *Guard {
	if log == nil {
		log = obslog.NewNop()
	}
	return &Guard{log: log}
}

// PreProcess scans every message and logs
// potential_prompt_injection_detected for each match. It never alters the
// request or returns an error.
func (g *Guard) PreProcess(req provider.CompletionRequest) (provider.CompletionRequest, error) {
	for _, m := range req.Messages {
		lower := strings.ToLower(m.Content)
		for _, pattern := range injectionPatterns {
			if strings.Contains(lower, pattern) {
				g.log.Warn("potential_prompt_injection_detected", map[string]interface{}{
					"pattern": pattern,
				})
			}
		}
	}
	return req, nil
}

// PostProcess is the identity transform; the guard only inspects outgoing
// requests.
func (g *Guard) PostProcess(resp provider.CompletionResponse) (provider.CompletionResponse, error) {
	return resp, nil
}
