package aggregate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/modootree/searchstream/pkg/provider"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<b>진미</b>식당", "진미식당"},
		{"plain", "plain"},
		{"a &amp; b", "a & b"},
		{"  <em>spaced</em>  ", "spaced"},
		{"<b></b>", ""},
	}
	for _, tt := range tests {
		if got := StripMarkup(tt.in); got != tt.want {
			t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMergeCapsPerProvider(t *testing.T) {
	items := make([]provider.Item, 8)
	for i := range items {
		items[i] = provider.Item{Title: fmt.Sprintf("t%d", i), Link: fmt.Sprintf("https://x/%d", i)}
	}

	got := Merge([]provider.Result{{Source: "naver", Items: items}})
	if len(got) != 5 {
		t.Fatalf("got %d candidates, want 5", len(got))
	}
	if got[0].Title != "t0" || got[4].Title != "t4" {
		t.Errorf("cap should keep the first five, got %+v", got)
	}
}

func TestMergeSkipsErroredAndPreservesOrder(t *testing.T) {
	got := Merge([]provider.Result{
		{Source: "naver", Err: errors.New("timeout")},
		{Source: "google", Items: []provider.Item{{Title: "g1"}, {Title: "g2"}}},
		{Source: "youtube", Items: []provider.Item{{Title: "y1"}}},
	})

	want := []struct{ source, title string }{
		{"google", "g1"}, {"google", "g2"}, {"youtube", "y1"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Source != w.source || got[i].Title != w.title {
			t.Errorf("candidate %d = %s/%s, want %s/%s", i, got[i].Source, got[i].Title, w.source, w.title)
		}
	}
}

func TestMergeDropsBlankTitles(t *testing.T) {
	got := Merge([]provider.Result{
		{Source: "naver", Items: []provider.Item{
			{Title: "<b></b>", Snippet: "no title"},
			{Title: "ok", Snippet: "<b>bold</b> snippet", Extra: map[string]string{"address": "서울"}},
		}},
	})
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Snippet != "bold snippet" {
		t.Errorf("Snippet = %q", got[0].Snippet)
	}
	if got[0].Extra["address"] != "서울" {
		t.Errorf("Extra = %v", got[0].Extra)
	}
}

func TestLinks(t *testing.T) {
	cands := []Candidate{
		{Link: "https://a"},
		{Link: ""},
		{Link: "https://b"},
		{Link: "https://c"},
	}
	got := Links(cands, 2)
	if len(got) != 2 || got[0] != "https://a" || got[1] != "https://b" {
		t.Errorf("Links = %v", got)
	}
	if got := Links(nil, 10); got != nil {
		t.Errorf("Links(nil) = %v, want nil", got)
	}
}
