// ABOUTME: RawReview is a review exactly as scraped, before normalization
// ABOUTME: Field names follow the store payload (content, score, at)
package models

// RawReview is an unprocessed review collected from an app store
type RawReview struct {
	ReviewID      string
	BankName      string
	Content       string
	Score         Rating
	At            string // store timestamp, e.g. "2024-05-01 13:04:05"
	Source        Source
	ThumbsUpCount int
}
