package classify

// The taxonomy tables below are immutable process-lifetime configuration.
// Slice order is significant: category scoring ties resolve to the first
// declared category, and subcategory matching scans in declared order.

// category pairs a name with its keyword list.
type category struct {
	name     string
	keywords []string
}

// subcategory pairs a name with its keyword list inside a category.
type subcategory struct {
	name     string
	keywords []string
}

var categories = []category{
	{name: CategorySports, keywords: []string{"game", "match", "score", "team", "player", "win", "lose", "championship"}},
	{name: CategoryPolitics, keywords: []string{"election", "vote", "poll", "candidate", "government", "senate", "congress"}},
	{name: CategoryEntertainment, keywords: []string{"movie", "film", "actor", "award", "show", "release", "box office"}},
	{name: CategoryCrypto, keywords: []string{"bitcoin", "ethereum", "blockchain", "token", "crypto", "defi", "nft"}},
	{name: CategoryWeather, keywords: []string{"temperature", "rain", "storm", "hurricane", "weather", "forecast"}},
	{name: CategoryEconomics, keywords: []string{"gdp", "inflation", "market", "stock", "economy", "recession", "growth"}},
	{name: CategoryTechnology, keywords: []string{"software", "hardware", "ai", "tech", "launch", "product", "innovation"}},
}

var subcategories = map[string][]subcategory{
	CategorySports: {
		{name: "football", keywords: []string{"football", "nfl", "super bowl", "quarterback"}},
		{name: "basketball", keywords: []string{"basketball", "nba", "finals", "playoff"}},
		{name: "soccer", keywords: []string{"soccer", "world cup", "fifa", "premier league"}},
	},
	CategoryPolitics: {
		{name: "elections", keywords: []string{"election", "vote", "ballot", "primary"}},
		{name: "legislation", keywords: []string{"bill", "law", "congress", "senate"}},
	},
}

// Fixed lookups keyed by category for time sensitivity and objectivity.
var highSensitivity = map[string]bool{
	CategorySports:  true,
	CategoryWeather: true,
	"breaking_news": true,
}

var mediumSensitivity = map[string]bool{
	CategoryPolitics:      true,
	CategoryEntertainment: true,
	CategoryTechnology:    true,
}

var objectiveCategories = map[string]bool{
	CategorySports:    true,
	CategoryWeather:   true,
	CategoryEconomics: true,
}

var subjectiveCategories = map[string]bool{
	CategoryEntertainment: true,
	CategoryPolitics:      true,
}
