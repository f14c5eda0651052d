package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const youtubeResultsURL = "https://www.youtube.com/results"

// YouTube searches by scraping the results page. There is no API key;
// video metadata is parsed out of the embedded ytInitialData payload.
type YouTube struct {
	baseURL string
	client  *http.Client
}

// NewYouTube creates a YouTube search provider.
func NewYouTube() *YouTube {
	return &YouTube{
		baseURL: youtubeResultsURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

var (
	videoBlockRe = regexp.MustCompile(`"videoRenderer":\{"videoId":"([A-Za-z0-9_-]{11})"`)
	titleRe      = regexp.MustCompile(`"title":\{"runs":\[\{"text":("(?:[^"\\]|\\.)*")`)
	channelRe    = regexp.MustCompile(`"longBylineText":\{"runs":\[\{"text":("(?:[^"\\]|\\.)*")`)
	durationRe   = regexp.MustCompile(`"lengthText":\{.*?"simpleText":("(?:[^"\\]|\\.)*")`)
	viewsRe      = regexp.MustCompile(`"viewCountText":\{"simpleText":("(?:[^"\\]|\\.)*")`)
)

func (y *YouTube) Name() string { return "youtube" }

// Search scrapes the results page and returns the top videos. Each
// video block in ytInitialData is sliced out and mined with small
// regexes rather than decoding the whole payload.
func (y *YouTube) Search(ctx context.Context, query string) ([]Item, error) {
	u := fmt.Sprintf("%s?search_query=%s", y.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	items := parseVideos(string(body), 10)
	if len(items) == 0 {
		return nil, fmt.Errorf("no videos found in results page")
	}
	return items, nil
}

func parseVideos(page string, max int) []Item {
	matches := videoBlockRe.FindAllStringSubmatchIndex(page, -1)

	var items []Item
	for i, m := range matches {
		if len(items) >= max {
			break
		}
		videoID := page[m[2]:m[3]]

		// Mine metadata only within this renderer's slice of the page
		// so fields from neighboring videos cannot bleed in.
		end := len(page)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		block := page[m[1]:end]

		title := firstJSONString(titleRe, block)
		if title == "" {
			continue
		}
		channel := firstJSONString(channelRe, block)
		duration := firstJSONString(durationRe, block)
		views := firstJSONString(viewsRe, block)

		items = append(items, Item{
			Title:   title,
			Link:    "https://www.youtube.com/watch?v=" + videoID,
			Snippet: fmt.Sprintf("%s · %s · %s", channel, duration, views),
			Extra: map[string]string{
				"channel":   channel,
				"duration":  duration,
				"views":     views,
				"thumbnail": fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID),
			},
		})
	}
	return items
}

// firstJSONString applies re to s and JSON-decodes the quoted capture,
// resolving escapes like \uXXXX in video titles.
func firstJSONString(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	var out string
	if err := json.Unmarshal([]byte(m[1]), &out); err != nil {
		return ""
	}
	return out
}
