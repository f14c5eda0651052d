package classify

// CategorySchema describes the structured answer shape for a catalog-style
// category: which fields each item carries, the ranking criteria the
// synthesizer is asked to apply, and how many items to produce.
// Resolved once at classification time and carried immutably through the
// pipeline.
type CategorySchema struct {
	Fields  []string
	Ranking []string
	Count   int
}

var categorySchemas = map[Category]CategorySchema{
	CategoryRestaurant: {
		Fields:  []string{"name", "summary", "address", "rating", "price"},
		Ranking: []string{"rating", "review_count"},
		Count:   5,
	},
	CategoryCafe: {
		Fields:  []string{"name", "summary", "address", "rating", "price"},
		Ranking: []string{"rating", "atmosphere"},
		Count:   5,
	},
	CategoryAccommodation: {
		Fields:  []string{"name", "summary", "address", "rating", "price"},
		Ranking: []string{"rating", "price"},
		Count:   5,
	},
	CategoryNews: {
		Fields:  []string{"name", "summary", "link"},
		Ranking: []string{"recency", "relevance"},
		Count:   5,
	},
	CategoryShopping: {
		Fields:  []string{"name", "summary", "price", "link"},
		Ranking: []string{"price", "rating"},
		Count:   5,
	},
	CategoryProduct: {
		Fields:  []string{"name", "summary", "price", "rating"},
		Ranking: []string{"rating", "value_for_money"},
		Count:   5,
	},
	CategoryActivity: {
		Fields:  []string{"name", "summary", "address", "link"},
		Ranking: []string{"popularity", "relevance"},
		Count:   5,
	},
}

// SchemaFor returns the structured-answer schema for catalog categories.
// Free-form categories (video, music, chat, general) have none.
func SchemaFor(c Category) (CategorySchema, bool) {
	s, ok := categorySchemas[c]
	return s, ok
}
