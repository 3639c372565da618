// Package parser extracts frontmatter, outgoing links, and tags from Markdown content.
package parser

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Link kinds.
const (
	LinkWiki     = "wikilink"
	LinkMarkdown = "markdown"
)

var (
	wikilinkRe = regexp.MustCompile(`!?\[\[(.*?)\]\]`)
	mdLinkRe   = regexp.MustCompile(`!?\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	schemeRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// Ref is one outgoing reference as written in the note, before resolution.
type Ref struct {
	Target string
	Kind   string
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Refs        []Ref
	Tags        []string
	Title       string
}

// Targets returns the raw targets of r.Refs in order.
func (r *Result) Targets() []string {
	out := make([]string, len(r.Refs))
	for i, ref := range r.Refs {
		out[i] = ref.Target
	}
	return out
}

// Parse extracts frontmatter, body, outgoing references, and tags from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Refs:        extractRefs(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. Missing or invalid frontmatter leaves the whole
// content as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}

	afterDelim := rest[idx+1+len(delim):]
	return fm, strings.TrimLeft(string(afterDelim), "\n\r")
}

// extractRefs returns deduplicated link targets from [[wikilinks]] (aliases,
// headings and block refs stripped) and relative Markdown links.
func extractRefs(body string) []Ref {
	seen := make(map[string]struct{})
	var out []Ref
	add := func(target, kind string) {
		if target == "" {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		out = append(out, Ref{Target: target, Kind: kind})
	}

	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		add(cleanWikiTarget(m[1]), LinkWiki)
	}
	for _, m := range mdLinkRe.FindAllStringSubmatch(body, -1) {
		add(cleanMarkdownTarget(m[1]), LinkMarkdown)
	}
	return out
}

// cleanWikiTarget turns "Target#Heading|Alias" into "Target".
func cleanWikiTarget(raw string) string {
	target := raw
	if i := strings.Index(target, "|"); i >= 0 {
		target = target[:i]
	}
	if i := strings.IndexAny(target, "#^"); i >= 0 {
		target = target[:i]
	}
	return strings.TrimSpace(target)
}

// cleanMarkdownTarget keeps only vault-relative .md targets; URLs, anchors
// and non-note attachments are dropped.
func cleanMarkdownTarget(raw string) string {
	if schemeRe.MatchString(raw) || strings.HasPrefix(raw, "#") {
		return ""
	}
	target := raw
	if i := strings.Index(target, "#"); i >= 0 {
		target = target[:i]
	}
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	target = strings.TrimSpace(target)
	if !strings.HasSuffix(strings.ToLower(target), ".md") {
		return ""
	}
	return target
}

// extractTags collects #tags from body and from the frontmatter "tags" field,
// which may be a YAML list or a comma/space separated string.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimPrefix(strings.TrimSpace(s), "#")
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			add(s)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
