package index

import (
	"path"
	"sort"
	"strings"

	"github.com/starford/notelens/internal/parser"
)

// Resolver maps raw link targets to vault paths the way the desktop note
// apps do: exact path first, then path + ".md", then a basename match
// anywhere in the vault. Matching is case-insensitive.
type Resolver struct {
	byPath map[string]string   // lower(path) -> path
	byBase map[string][]string // lower(basename) -> paths, sorted
}

// NewResolver builds a Resolver over the given set of note paths.
func NewResolver(paths map[string]struct{}) *Resolver {
	r := &Resolver{
		byPath: make(map[string]string, len(paths)),
		byBase: make(map[string][]string, len(paths)),
	}
	for p := range paths {
		r.byPath[strings.ToLower(p)] = p
		base := strings.ToLower(strings.TrimSuffix(path.Base(p), ".md"))
		r.byBase[base] = append(r.byBase[base], p)
	}
	for _, list := range r.byBase {
		sort.Slice(list, func(i, j int) bool {
			if len(list[i]) != len(list[j]) {
				return len(list[i]) < len(list[j])
			}
			return list[i] < list[j]
		})
	}
	return r
}

// Resolve returns the vault path that target (written in source) points to.
// ok is false when no note matches.
func (r *Resolver) Resolve(source, target, kind string) (resolved string, ok bool) {
	target = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(target), "\\", "/"), "./")
	if target == "" {
		return "", false
	}
	dir := path.Dir(source)

	// Relative to the source note first, then relative to the vault root.
	candidates := []string{path.Join(dir, target), path.Clean(target)}
	if !strings.HasSuffix(strings.ToLower(target), ".md") {
		candidates = []string{path.Join(dir, target) + ".md", path.Clean(target) + ".md"}
	}
	for _, c := range candidates {
		if p, found := r.byPath[strings.ToLower(c)]; found {
			return p, true
		}
	}

	if strings.Contains(target, "/") && kind == parser.LinkMarkdown {
		return "", false
	}
	base := strings.ToLower(strings.TrimSuffix(path.Base(target), ".md"))
	matches := r.byBase[base]
	if len(matches) == 0 {
		return "", false
	}
	// Prefer a sibling of the source note; otherwise the shortest path wins.
	for _, m := range matches {
		if path.Dir(m) == dir {
			return m, true
		}
	}
	if strings.Contains(target, "/") {
		suffix := strings.ToLower(strings.TrimSuffix(target, ".md") + ".md")
		for _, m := range matches {
			if strings.HasSuffix(strings.ToLower(m), "/"+suffix) {
				return m, true
			}
		}
		return "", false
	}
	return matches[0], true
}

// Guess returns the path an unresolved target would occupy if it were
// created: the target with ".md" appended, relative to the vault root.
func Guess(target string) string {
	target = path.Clean(strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(target), "\\", "/"), "./"))
	if strings.HasSuffix(strings.ToLower(target), ".md") {
		return target
	}
	return target + ".md"
}
