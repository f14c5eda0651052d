package classify

import (
	"regexp"
	"strings"
)

// Category of a search query. Determines provider selection and the
// synthesis mode (free-form prose vs. structured list).
type Category string

const (
	CategoryVideo         Category = "video"
	CategoryMusic         Category = "music"
	CategoryRestaurant    Category = "restaurant"
	CategoryCafe          Category = "cafe"
	CategoryAccommodation Category = "accommodation"
	CategoryNews          Category = "news"
	CategoryShopping      Category = "shopping"
	CategoryProduct       Category = "product"
	CategoryActivity      Category = "activity"
	CategoryChat          Category = "chat"
	CategoryGeneral       Category = "general"
)

// Query is the classified form of a raw user query. Immutable after Classify.
type Query struct {
	Raw        string
	Normalized string
	Category   Category
}

var (
	refreshRe = regexp.MustCompile(`\[refresh:\d+\]`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// HasBypass reports whether the raw query carries a cache-bypass directive
// of the form [refresh:<unix timestamp>].
func HasBypass(raw string) bool {
	return refreshRe.MatchString(raw)
}

// Normalize strips the refresh directive and collapses whitespace.
func Normalize(raw string) string {
	cleaned := refreshRe.ReplaceAllString(raw, "")
	cleaned = spaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// CacheKey derives the cache key for a raw query. It is computed before
// classification so identical raw queries share one key regardless of
// which pipeline branch handled them.
func CacheKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(Normalize(raw)))
}

// keywordTable is matched top to bottom; the first category with any
// keyword contained in the lowercased query wins. The order is load-bearing:
// "카페" appears under both restaurant and cafe, and restaurant must win for
// food-context queries.
var keywordTable = []struct {
	category Category
	keywords []string
}{
	{CategoryVideo, []string{
		"유튜브", "youtube", "영상", "동영상", "비디오", "video", "영화", "드라마",
		"예능", "다큐", "리뷰", "튜토리얼", "강의", "클립", "쇼츠",
	}},
	{CategoryMusic, []string{
		"노래", "음악", "뮤직", "곡", "song", "music", "가수", "아티스트",
		"앨범", "싱글", "차트", "멜론", "스포티파이", "플레이리스트",
	}},
	{CategoryRestaurant, []string{
		"맛집", "음식점", "레스토랑", "먹을곳", "식당", "요리", "음식", "메뉴",
		"한식", "중식", "일식", "양식", "분식", "치킨", "피자", "햄버거",
		"카페", "디저트", "베이커리", "빵집",
	}},
	{CategoryCafe, []string{
		"카페", "커피", "디저트", "베이커리", "빵집", "스타벅스", "이디야",
		"투썸", "할리스", "커피빈", "라떼", "아메리카노", "케이크",
	}},
	{CategoryAccommodation, []string{
		"숙소", "호텔", "모텔", "펜션", "리조트", "게스트하우스", "에어비앤비",
		"민박", "콘도", "캠핑", "글램핑", "여관", "찜질방",
	}},
	{CategoryNews, []string{
		"뉴스", "기사", "소식", "보도", "언론", "신문", "방송", "뉴스룸",
		"속보", "헤드라인", "이슈", "사건", "정치", "경제", "사회", "문화",
	}},
	{CategoryShopping, []string{
		"쇼핑", "구매", "온라인쇼핑", "쿠팡", "11번가", "지마켓", "옥션",
		"네이버쇼핑", "아마존", "이베이", "할인", "세일", "특가",
	}},
	{CategoryProduct, []string{
		"제품", "상품", "추천", "리뷰", "후기", "평점", "가격", "비교",
		"스펙", "성능", "브랜드", "모델", "신제품", "베스트",
	}},
	{CategoryActivity, []string{
		"체험", "관광", "여행", "놀거리", "데이트", "나들이", "축제", "이벤트",
		"전시", "공연", "콘서트", "뮤지컬", "연극", "스포츠", "운동", "취미",
	}},
	{CategoryChat, []string{
		"안녕", "반가워", "하이", "헬로", "고마워", "땡큐", "잘가", "바이",
	}},
	{CategoryGeneral, []string{
		"정보", "자료", "데이터", "알아보기", "찾기", "검색", "조회",
		"확인", "문의", "질문", "답변", "해결", "방법", "가이드",
		"튜토리얼", "설명", "안내", "도움", "지원", "서비스",
	}},
}

// fillerWords are request phrasing, not search terms. Removed from the
// normalized query after a category has matched.
var fillerWords = []string{"추천", "알려줘", "찾아줘", "검색", "해줘"}

// Classify maps a raw query to its category and normalized form.
// Deterministic and pure; it never fails, unmatched queries are General.
func Classify(raw string) Query {
	cleaned := Normalize(raw)
	q := strings.ToLower(cleaned)

	for _, row := range keywordTable {
		for _, kw := range row.keywords {
			if strings.Contains(q, kw) {
				return Query{Raw: raw, Normalized: stripFillers(cleaned), Category: row.category}
			}
		}
	}
	return Query{Raw: raw, Normalized: cleaned, Category: CategoryGeneral}
}

func stripFillers(s string) string {
	for _, w := range fillerWords {
		s = strings.ReplaceAll(s, w, "")
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
