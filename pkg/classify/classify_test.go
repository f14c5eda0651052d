package classify

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantCategory   Category
		wantNormalized string
	}{
		{"Restaurant with filler", "강남 맛집 추천", CategoryRestaurant, "강남 맛집"},
		{"Restaurant wins over cafe for dessert cafe", "홍대 카페 디저트", CategoryRestaurant, "홍대 카페 디저트"},
		{"Cafe keyword only reaches restaurant row first", "스타벅스 신메뉴", CategoryRestaurant, "스타벅스 신메뉴"},
		{"Video before music", "신나는 노래 유튜브 영상", CategoryVideo, "신나는 노래 유튜브 영상"},
		{"Music", "출근길 플레이리스트", CategoryMusic, "출근길 플레이리스트"},
		{"Accommodation", "제주도 펜션 알려줘", CategoryAccommodation, "제주도 펜션"},
		{"News", "오늘 경제 뉴스", CategoryNews, "오늘 경제 뉴스"},
		{"Shopping", "노트북 특가 쇼핑", CategoryShopping, "노트북 특가 쇼핑"},
		{"Product", "무선 이어폰 후기", CategoryProduct, "무선 이어폰 후기"},
		{"Review routes to video before product", "갤럭시 리뷰", CategoryVideo, "갤럭시 리뷰"},
		{"Bare recommendation routes to product", "책상 추천", CategoryProduct, "책상"},
		{"Activity", "주말 전시 데이트", CategoryActivity, "주말 전시 데이트"},
		{"Chat greeting", "안녕 반가워", CategoryChat, "안녕 반가워"},
		{"General keyword", "전입신고 방법", CategoryGeneral, "전입신고 방법"},
		{"No match falls through to general", "xyzzy", CategoryGeneral, "xyzzy"},
		{"Refresh directive stripped before matching", "[refresh:1699999999] 강남 맛집 추천", CategoryRestaurant, "강남 맛집"},
		{"Whitespace collapsed", "  강남   맛집  ", CategoryRestaurant, "강남 맛집"},
		{"English keyword case-insensitive", "Best YouTube clips", CategoryVideo, "Best YouTube clips"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.raw)
			if got.Category != tt.wantCategory {
				t.Errorf("Classify(%q).Category = %q, want %q", tt.raw, got.Category, tt.wantCategory)
			}
			if got.Normalized != tt.wantNormalized {
				t.Errorf("Classify(%q).Normalized = %q, want %q", tt.raw, got.Normalized, tt.wantNormalized)
			}
			if got.Raw != tt.raw {
				t.Errorf("Classify(%q).Raw = %q, want raw preserved", tt.raw, got.Raw)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	// Same input must always resolve to the same category: the table is
	// ordered and the first matching row wins.
	for i := 0; i < 50; i++ {
		if got := Classify("강남 카페 맛집").Category; got != CategoryRestaurant {
			t.Fatalf("iteration %d: got %q, want %q", i, got, CategoryRestaurant)
		}
	}
}

func TestHasBypass(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"[refresh:1699999999] 강남 맛집", true},
		{"강남 맛집 [refresh:42]", true},
		{"강남 맛집", false},
		{"[refresh:] 강남 맛집", false},
		{"[refresh:abc] 강남 맛집", false},
	}
	for _, tt := range tests {
		if got := HasBypass(tt.raw); got != tt.want {
			t.Errorf("HasBypass(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("  강남 맛집 추천 ")
	b := CacheKey("[refresh:123] 강남  맛집 추천")
	if a != b {
		t.Errorf("cache keys differ: %q vs %q", a, b)
	}
	if CacheKey("Seoul CAFE") != "seoul cafe" {
		t.Errorf("CacheKey should lowercase, got %q", CacheKey("Seoul CAFE"))
	}
}

func TestSchemaFor(t *testing.T) {
	catalog := []Category{
		CategoryRestaurant, CategoryCafe, CategoryAccommodation,
		CategoryNews, CategoryShopping, CategoryProduct, CategoryActivity,
	}
	for _, c := range catalog {
		s, ok := SchemaFor(c)
		if !ok {
			t.Errorf("SchemaFor(%q) missing", c)
			continue
		}
		if s.Count <= 0 {
			t.Errorf("SchemaFor(%q).Count = %d, want > 0", c, s.Count)
		}
		if len(s.Fields) == 0 || len(s.Ranking) == 0 {
			t.Errorf("SchemaFor(%q) has empty fields or ranking", c)
		}
		for _, f := range s.Fields {
			if strings.TrimSpace(f) == "" {
				t.Errorf("SchemaFor(%q) has blank field", c)
			}
		}
	}

	for _, c := range []Category{CategoryVideo, CategoryMusic, CategoryChat, CategoryGeneral} {
		if _, ok := SchemaFor(c); ok {
			t.Errorf("SchemaFor(%q) should be free-form", c)
		}
	}
}
