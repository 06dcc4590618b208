// ABOUTME: Aggregate rows produced by the analytical queries
// ABOUTME: Shared by the stores, the analyze stage, the MCP tools and the charts
package models

// BankSummary is the per-bank volume, rating and sentiment summary
type BankSummary struct {
	Bank          string   `json:"bank" db:"bank"`
	TotalReviews  int      `json:"total_reviews" db:"total_reviews"`
	AverageRating *float64 `json:"average_rating" db:"average_rating"`
	PositiveCount int      `json:"positive_count" db:"positive_count"`
	NegativeCount int      `json:"negative_count" db:"negative_count"`
}

// ThemeCount is the negative-review volume for one (bank, theme) pair
type ThemeCount struct {
	Bank                string  `json:"bank" db:"bank"`
	ThemeID             int     `json:"theme_id" db:"theme_id"`
	NegativeReviewCount int     `json:"negative_review_count" db:"negative_review_count"`
	AvgNegativeScore    float64 `json:"avg_negative_score" db:"avg_negative_score"`
}

// RatingCount is the number of reviews with one star rating for a bank
type RatingCount struct {
	Bank        string `json:"bank" db:"bank"`
	Rating      int    `json:"rating" db:"rating"`
	RatingCount int    `json:"rating_count" db:"rating_count"`
}

// AnalyticalResults bundles the three aggregate queries for reporting
type AnalyticalResults struct {
	OverallSummary     []BankSummary `json:"overall_summary"`
	TopNegativeThemes  []ThemeCount  `json:"top_10_negative_themes"`
	RatingDistribution []RatingCount `json:"rating_distribution"`
}
