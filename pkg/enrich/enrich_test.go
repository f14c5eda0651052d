package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeExtractor struct {
	mu       sync.Mutex
	inflight int32
	peak     int32
	pages    map[string]string
	errs     map[string]error
	delay    time.Duration
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) (string, error) {
	cur := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)

	f.mu.Lock()
	if cur > f.peak {
		f.peak = cur
	}
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

func TestFetchAlignsResults(t *testing.T) {
	long := strings.Repeat("본문 ", 40)
	fx := &fakeExtractor{
		pages: map[string]string{
			"https://a": long + "A",
			"https://c": long + "C",
		},
		errs: map[string]error{"https://b": errors.New("403")},
	}
	e := New(fx, nil)

	pages := e.Fetch(context.Background(), []string{"https://a", "https://b", "https://c"})
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if pages[0].URL != "https://a" || pages[0].Err != nil {
		t.Errorf("pages[0] = %+v", pages[0])
	}
	if pages[1].Err == nil {
		t.Error("pages[1] should carry the extraction error")
	}
	if pages[2].URL != "https://c" || !strings.HasSuffix(pages[2].Content, "C") {
		t.Errorf("pages[2] = %+v", pages[2])
	}

	ok := Succeeded(pages)
	if len(ok) != 2 {
		t.Errorf("Succeeded returned %d pages, want 2", len(ok))
	}
}

func TestFetchShortContentFails(t *testing.T) {
	fx := &fakeExtractor{pages: map[string]string{"https://a": "too short"}}
	e := New(fx, nil)

	pages := e.Fetch(context.Background(), []string{"https://a"})
	if pages[0].Err == nil {
		t.Error("content under the minimum length should be an error")
	}
}

func TestFetchTruncatesLongContent(t *testing.T) {
	fx := &fakeExtractor{pages: map[string]string{"https://a": strings.Repeat("가", 3000)}}
	e := New(fx, nil)

	pages := e.Fetch(context.Background(), []string{"https://a"})
	if pages[0].Err != nil {
		t.Fatalf("unexpected error: %v", pages[0].Err)
	}
	if got := len([]rune(pages[0].Content)); got != maxContent {
		t.Errorf("content length = %d runes, want %d", got, maxContent)
	}
}

func TestFetchBoundsConcurrency(t *testing.T) {
	long := strings.Repeat("x", 200)
	fx := &fakeExtractor{pages: map[string]string{}, delay: 20 * time.Millisecond}
	var links []string
	for i := 0; i < 12; i++ {
		u := fmt.Sprintf("https://site/%d", i)
		fx.pages[u] = long
		links = append(links, u)
	}
	e := New(fx, nil)

	e.Fetch(context.Background(), links)
	if fx.peak > defaultConcurrency {
		t.Errorf("peak concurrency = %d, want <= %d", fx.peak, defaultConcurrency)
	}
}

func TestFetchCapsLinkCount(t *testing.T) {
	long := strings.Repeat("x", 200)
	fx := &fakeExtractor{pages: map[string]string{}}
	var links []string
	for i := 0; i < maxLinks+5; i++ {
		u := fmt.Sprintf("https://site/%d", i)
		fx.pages[u] = long
		links = append(links, u)
	}
	e := New(fx, nil)

	pages := e.Fetch(context.Background(), links)
	if len(pages) != maxLinks {
		t.Fatalf("got %d pages, want %d", len(pages), maxLinks)
	}
	// The first links in, in order, are the ones fetched.
	if pages[0].URL != links[0] || pages[maxLinks-1].URL != links[maxLinks-1] {
		t.Errorf("pages[0] = %q, pages[%d] = %q", pages[0].URL, maxLinks-1, pages[maxLinks-1].URL)
	}
}

func TestFetchNilExtractor(t *testing.T) {
	e := New(nil, nil)
	if pages := e.Fetch(context.Background(), []string{"https://a"}); pages != nil {
		t.Errorf("Fetch with nil extractor = %v, want nil", pages)
	}
}

func TestPageExtractor(t *testing.T) {
	para := strings.Repeat("서울에서 가볼 만한 곳을 소개합니다. ", 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<nav>메뉴 메뉴 메뉴 메뉴 메뉴 메뉴 메뉴</nav>
			<article><p>%s</p><li>short</li><h2>근처 명소를 둘러보는 코스 안내</h2></article>
			<script>var tracking = true;</script>
			<footer>회사 소개</footer>
		</body></html>`, para)
	}))
	defer srv.Close()

	p := NewPageExtractor()
	got, err := p.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(got, "서울에서 가볼 만한 곳") {
		t.Errorf("missing article text: %q", got)
	}
	if strings.Contains(got, "메뉴") || strings.Contains(got, "tracking") {
		t.Errorf("chrome or script text leaked: %q", got)
	}
	if strings.Contains(got, "short") {
		t.Errorf("short fragments should be skipped: %q", got)
	}
}

func TestPageExtractorParagraphFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div><p>이 페이지는 본문 영역 표시가 없는 오래된 블로그 글입니다.</p></div></body></html>`)
	}))
	defer srv.Close()

	p := NewPageExtractor()
	got, err := p.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(got, "오래된 블로그") {
		t.Errorf("fallback missed body paragraphs: %q", got)
	}
}

func TestPageExtractorErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewPageExtractor()
	if _, err := p.Extract(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error on 403")
	}
}
