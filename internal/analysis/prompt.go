package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/notelens/internal/deepseek"
	"github.com/starford/notelens/internal/models"
)

const (
	// MaxContextNotes is the hard ceiling on linked notes sent as context.
	MaxContextNotes = 5
	// ExcerptRunes is how much of each linked note is sent.
	ExcerptRunes = 500

	temperature = 0.7
	maxTokens   = 2000
)

const systemPrompt = "You are an advanced note analysis assistant. Analyze the provided notes and their connections to generate insights about relationships, themes, and patterns."

const userPromptFormat = `Please analyze these notes and provide a detailed analysis including:
1. A comprehensive summary
2. Key tags and their frequency
3. Important links and connections
4. Emerging themes and trends
5. Connection strength assessment (0-100)

Main note content:
%s

Related notes and context:
%s`

// ContextLimit returns how many linked notes a run may include for the
// configured maximum.
func ContextLimit(maxLinked int) int {
	if maxLinked <= 0 || maxLinked > MaxContextNotes {
		return MaxContextNotes
	}
	return maxLinked
}

// BuildContext reads up to limit of the linked notes and concatenates an
// excerpt of each. Notes that cannot be read are skipped and do not count
// towards the limit. It returns the context and the paths included.
func BuildContext(ctx context.Context, docs DocumentStore, linked []string, limit int) (string, []string) {
	var (
		b    strings.Builder
		used []string
	)
	for _, p := range linked {
		if len(used) >= limit {
			break
		}
		if ctx.Err() != nil {
			break
		}
		data, err := docs.Read(ctx, p)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\nLinked note (%s):\n%s...\n", models.Basename(p), excerpt(string(data), ExcerptRunes))
		used = append(used, p)
	}
	return b.String(), used
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// BuildRequest assembles the chat-completion request for one run.
func BuildRequest(model, content, linkedContext string) deepseek.Request {
	return deepseek.Request{
		Model: model,
		Messages: []deepseek.Message{
			{Role: deepseek.RoleSystem, Content: systemPrompt},
			{Role: deepseek.RoleUser, Content: fmt.Sprintf(userPromptFormat, content, linkedContext)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}
