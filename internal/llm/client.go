// Package llm provides the AI-assisted personality classification path.
//
// The external text-completion service is treated as untrusted: every
// response is validated against the fixed personality taxonomy, and any
// transport, timeout, or validation failure degrades to a keyword
// heuristic so classification always terminates in a bucket name.
package llm

import (
	"context"
	"strings"
)

// Client defines the interface for text-completion providers.
type Client interface {
	// Complete sends a system instruction and user prompt and returns the
	// raw completion text.
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// cleanResponse strips markdown fences and surrounding whitespace from a
// completion so exact-match validation sees only the bucket name.
func cleanResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.Trim(content, "\"'")
	return strings.TrimSpace(content)
}
