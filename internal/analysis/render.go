package analysis

import (
	"fmt"
	"strings"
	"time"
)

// Result is what a run extracts from the completion. Only Summary is
// populated; the other fields render as their empty placeholders.
type Result struct {
	Summary            string   `json:"summary"`
	Tags               []string `json:"tags"`
	Links              []string `json:"links"`
	Themes             []string `json:"themes"`
	ConnectionStrength int      `json:"connection_strength"`
}

// ParseResult turns completion text into a Result.
func ParseResult(content string) Result {
	return Result{
		Summary: content,
		Tags:    []string{},
		Links:   []string{},
		Themes:  []string{},
	}
}

const (
	fileTimeLayout   = "2006-01-02T15:04:05.000Z"
	footerTimeLayout = "1/2/2006, 3:04:05 PM"
)

// FileName returns the analysis note name for a source basename at t. The
// timestamp is UTC with millisecond precision, with ':' and '.' replaced
// by '-'.
func FileName(basename string, t time.Time) string {
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(t.UTC().Format(fileTimeLayout))
	return fmt.Sprintf("Analysis - %s %s.md", basename, ts)
}

// Render produces the analysis note body. generatedAt is shown in its own
// location.
func Render(basename string, r Result, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis of %s\n\n", basename)
	fmt.Fprintf(&b, "## Summary\n%s\n\n", r.Summary)
	fmt.Fprintf(&b, "## Key Tags\n%s\n\n", joinOr(r.Tags, ", ", "No tags found"))
	fmt.Fprintf(&b, "## Important Links\n%s\n\n", joinOr(r.Links, "\n", "No links found"))
	fmt.Fprintf(&b, "## Emerging Themes\n%s\n\n", joinOr(r.Themes, "\n", "No themes identified"))
	fmt.Fprintf(&b, "## Connection Strength\n%d/100\n\n", r.ConnectionStrength)
	fmt.Fprintf(&b, "---\nAnalysis generated by DeepSeek AI at %s\n", generatedAt.Format(footerTimeLayout))
	return b.String()
}

func joinOr(items []string, sep, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, sep)
}
