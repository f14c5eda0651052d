// Package aggregate merges raw provider results into the cleaned
// candidate list the rest of the pipeline works with.
package aggregate

import (
	"html"
	"regexp"
	"strings"

	"github.com/modootree/searchstream/pkg/provider"
)

// perProviderCap bounds how many items each provider contributes, so a
// verbose source cannot crowd out the others.
const perProviderCap = 5

// Candidate is one cleaned search result ready for enrichment and
// synthesis.
type Candidate struct {
	Source  string            `json:"source"`
	Title   string            `json:"title"`
	Link    string            `json:"link"`
	Snippet string            `json:"snippet"`
	Extra   map[string]string `json:"extra,omitempty"`
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// StripMarkup removes embedded HTML tags and resolves entities. Search
// APIs highlight matched terms with <b> markup inside titles.
func StripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, "")))
}

// Merge flattens provider results into candidates. Errored results are
// skipped, each provider contributes at most perProviderCap items, and
// the order of the input slice is preserved so provider priority set by
// the fan-out carries through to synthesis.
func Merge(results []provider.Result) []Candidate {
	var out []Candidate
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		n := len(r.Items)
		if n > perProviderCap {
			n = perProviderCap
		}
		for _, it := range r.Items[:n] {
			title := StripMarkup(it.Title)
			if title == "" {
				continue
			}
			out = append(out, Candidate{
				Source:  r.Source,
				Title:   title,
				Link:    it.Link,
				Snippet: StripMarkup(it.Snippet),
				Extra:   it.Extra,
			})
		}
	}
	return out
}

// Links returns the candidate links with blanks removed, capped at max.
func Links(cands []Candidate, max int) []string {
	var out []string
	for _, c := range cands {
		if c.Link == "" {
			continue
		}
		out = append(out, c.Link)
		if len(out) >= max {
			break
		}
	}
	return out
}
