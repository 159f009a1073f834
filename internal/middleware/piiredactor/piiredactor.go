// Package piiredactor implements the PII-redaction middleware, grounded on
// original_source/src/aicp/gateway/middleware.py's PIIRedactor: it scrubs
// email addresses, phone numbers, SSNs and credit card numbers from both
// outgoing request messages and incoming response content, replacing each
// match with "[<ENTITY>_REDACTED]".
//
// This is the one component in this module that stays on the standard
// library's regexp package rather than a third-party pattern-matching
// dependency: nothing in the retrieved example corpus ships a PII-
// detection library, and Go's RE2-based regexp has no catastrophic-
// backtracking risk, which matters when redaction runs on every request.
package piiredactor

import (
	"regexp"

	"github.com/aicp/controlplane/internal/provider"
)

// patterns maps an entity label to the regular expression that detects it,
// transliterated from the Python original's PII_PATTERNS.
var patterns = map[string]*regexp.Regexp{
	"EMAIL":       regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	"PHONE":       regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	"SSN":         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	"CREDIT_CARD": regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`),
}

// defaultEntities is the full set applied when Redactor is constructed
// with no explicit entity subset.
var defaultEntities = []string{"EMAIL", "PHONE", "SSN", "CREDIT_CARD"}

// Redactor redacts a configurable subset of PII entity types from message
// and response content. It implements middleware.Middleware.
type Redactor struct {
	entities []string
}

// New builds a Redactor. An empty entities slice redacts everything in
// defaultEntities; pass a subset to restrict redaction.
func New(entities ...string) *Redactor {
	if len(entities) == 0 {
		entities = defaultEntities
	}
	return &Redactor{entities: entities}
}

// Redact runs every configured entity pattern against content and returns
// the redacted text. It is idempotent: running it again on already-
// redacted text is a no-op since "[EMAIL_REDACTED]" etc. do not themselves
// match any PII pattern.
func (r *Redactor) Redact(content string) string {
	for _, entity := range r.entities {
		re, ok := patterns[entity]
		if !ok {
			continue
		}
		content = re.ReplaceAllString(content, "["+entity+"_REDACTED]")
	}
	return content
}

// PreProcess redacts PII from every outgoing message, leaving the
// original request untouched and returning a redacted copy.
func (r *Redactor) PreProcess(req provider.CompletionRequest) (provider.CompletionRequest, error) {
	redacted := make([]provider.Message, len(req.Messages))
	for i, m := range req.Messages {
		redacted[i] = provider.Message{Role: m.Role, Content: r.Redact(m.Content), Name: m.Name}
	}
	req.Messages = redacted
	return req, nil
}

// PostProcess redacts PII from the provider's response content.
func (r *Redactor) PostProcess(resp provider.CompletionResponse) (provider.CompletionResponse, error) {
	resp.Content = r.Redact(resp.Content)
	return resp, nil
}
