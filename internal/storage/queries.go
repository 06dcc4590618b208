// ABOUTME: SQL for the review table in both supported dialects
// ABOUTME: Queries are written with ? placeholders and rebound per dialect
package storage

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Dialect selects the SQL flavour of a backend
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

func (d Dialect) bindType() int {
	if d == Postgres {
		return sqlx.DOLLAR
	}
	return sqlx.QUESTION
}

// Rebind converts ? placeholders to the dialect's form
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.bindType(), query)
}

// SchemaStatements returns the DDL that creates the review table and its index
func (d Dialect) SchemaStatements(table string) []string {
	dateType := "TEXT"
	if d == Postgres {
		dateType = "DATE"
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    bank TEXT NOT NULL,
    rating INTEGER CHECK (rating BETWEEN 1 AND 5),
    review_date %s,
    source TEXT NOT NULL,
    review_text TEXT NOT NULL,
    sentiment_label TEXT NOT NULL CHECK (sentiment_label IN ('POSITIVE', 'NEGATIVE')),
    sentiment_score NUMERIC(5,4) NOT NULL,
    theme_id INTEGER NOT NULL DEFAULT -1
)`, table, dateType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_bank ON %s(bank)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_sentiment ON %s(sentiment_label, theme_id)`, table, table),
	}
}

// upsertQuery builds a multi-row insert that overwrites rows with the same id
func upsertQuery(table string, rows int) string {
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(Columns)), ", ") + ")"
	values := make([]string, rows)
	for i := range values {
		values[i] = placeholders
	}
	updates := make([]string, 0, len(Columns)-1)
	for _, c := range Columns[1:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT(id) DO UPDATE SET %s",
		table, strings.Join(Columns, ", "), strings.Join(values, ", "), strings.Join(updates, ", "))
}

func summaryQuery(table string) string {
	return fmt.Sprintf(`SELECT bank,
    COUNT(*) AS total_reviews,
    ROUND(AVG(rating), 2) AS average_rating,
    SUM(CASE WHEN sentiment_label = 'POSITIVE' THEN 1 ELSE 0 END) AS positive_count,
    SUM(CASE WHEN sentiment_label = 'NEGATIVE' THEN 1 ELSE 0 END) AS negative_count
FROM %s
GROUP BY bank
ORDER BY average_rating DESC NULLS LAST, bank`, table)
}

func negativeThemesQuery(table string) string {
	return fmt.Sprintf(`SELECT bank,
    theme_id,
    COUNT(*) AS negative_review_count,
    ROUND(AVG(sentiment_score), 4) AS avg_negative_score
FROM %s
WHERE sentiment_label = 'NEGATIVE' AND theme_id >= 0
GROUP BY bank, theme_id
HAVING COUNT(*) >= ?
ORDER BY negative_review_count DESC, bank, theme_id
LIMIT ?`, table)
}

func ratingDistributionQuery(table string) string {
	return fmt.Sprintf(`SELECT bank,
    rating,
    COUNT(*) AS rating_count
FROM %s
WHERE rating IS NOT NULL
GROUP BY bank, rating
ORDER BY bank, rating`, table)
}

// listQuery builds the filtered select behind ListReviews
func (d Dialect) listQuery(table string, f ReviewFilter) (string, []any) {
	dateExpr := "review_date"
	if d == Postgres {
		dateExpr = "to_char(review_date, 'YYYY-MM-DD')"
	}
	var (
		where []string
		args  []any
	)
	if f.Bank != "" {
		where = append(where, "bank = ?")
		args = append(args, f.Bank)
	}
	if f.Sentiment != "" {
		where = append(where, "sentiment_label = ?")
		args = append(args, string(f.Sentiment))
	}
	if f.ThemeID != nil {
		where = append(where, "theme_id = ?")
		args = append(args, *f.ThemeID)
	}

	q := fmt.Sprintf(`SELECT id, bank, rating, %s AS review_date, source, review_text,
    sentiment_label, sentiment_score, theme_id
FROM %s`, dateExpr, table)
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY bank, id"
	if f.Limit > 0 {
		q += "\nLIMIT ?"
		args = append(args, f.Limit)
	}
	return q, args
}
