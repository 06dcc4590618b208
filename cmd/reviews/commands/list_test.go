// ABOUTME: Tests for list command
// ABOUTME: Verifies flags and the table and JSON renderings of reviews

package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/review-insights/internal/models"
)

func TestNewListCmd(t *testing.T) {
	cmd := NewListCmd()

	if cmd.Use != "list" {
		t.Errorf("Use = %q, want %q", cmd.Use, "list")
	}
	if cmd.RunE == nil {
		t.Error("RunE should be set")
	}

	tests := []struct {
		flagName  string
		shorthand string
		defValue  string
	}{
		{"bank", "", ""},
		{"sentiment", "", ""},
		{"theme", "", "0"},
		{"limit", "n", "20"},
	}
	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("--%s flag not found", tt.flagName)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("--%s shorthand = %q, want %q", tt.flagName, flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestListCmd_Examples(t *testing.T) {
	cmd := NewListCmd()

	for _, part := range []string{"reviews list", "--sentiment", "--format json"} {
		if !strings.Contains(cmd.Long, part) {
			t.Errorf("Long description should contain %q", part)
		}
	}
}

func TestRunList_RejectsBadFlags(t *testing.T) {
	t.Setenv("REVIEWS_SQLITE_PATH", filepath.Join(t.TempDir(), "reviews.db"))

	tests := []struct {
		name string
		flag string
		val  string
		want string
	}{
		{"zero limit", "limit", "0", "--limit"},
		{"unknown sentiment", "sentiment", "meh", "unknown sentiment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewListCmd()
			if err := cmd.Flags().Set(tt.flag, tt.val); err != nil {
				t.Fatalf("Set(%s) error = %v", tt.flag, err)
			}
			var output bytes.Buffer
			cmd.SetOut(&output)

			err := runList(cmd, nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("runList() error = %v, want %q", err, tt.want)
			}
			if output.Len() != 0 {
				t.Errorf("runList() printed %q before rejecting flags", output.String())
			}
		})
	}
}

func sampleReviews() []models.Review {
	return []models.Review{
		{
			ID:        "r1",
			Bank:      "CBE",
			Rating:    models.NewRating(1),
			Date:      time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Source:    models.SourceGooglePlay,
			Text:      "The app crashes every time I try to transfer money to another account",
			Sentiment: models.Negative,
			Score:     0.91,
			ThemeID:   2,
		},
		{
			ID:        "r2",
			Bank:      "BOA",
			Source:    models.SourceAppStore,
			Text:      "fine",
			Sentiment: models.Positive,
			Score:     0.6,
			ThemeID:   models.ThemeNone,
		},
	}
}

func TestPrintReviews_Table(t *testing.T) {
	var out bytes.Buffer
	if err := printReviews(&out, sampleReviews()); err != nil {
		t.Fatalf("printReviews() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header, rule and 2 rows:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "BANK") {
		t.Errorf("header = %q", lines[0])
	}
	for _, want := range []string{"CBE", "2024-03-02", "NEGATIVE", "0.9100", "..."} {
		if !strings.Contains(lines[2], want) {
			t.Errorf("row %q missing %q", lines[2], want)
		}
	}
	fields := strings.Fields(lines[3])
	if fields[1] != "-" || fields[2] != "-" || fields[5] != "-" {
		t.Errorf("unknown rating, date and theme should print as -, got %q", lines[3])
	}
}

func TestPrintReviews_JSON(t *testing.T) {
	outputFormat = "json"
	defer func() { outputFormat = "auto" }()

	var out bytes.Buffer
	if err := printReviews(&out, sampleReviews()); err != nil {
		t.Fatalf("printReviews() error = %v", err)
	}

	var got []map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(got) != 2 {
		t.Fatalf("got %d reviews, want 2", len(got))
	}
	if got[0]["rating"] != float64(1) || got[0]["date"] != "2024-03-02" {
		t.Errorf("first review = %v", got[0])
	}
	if got[1]["rating"] != nil {
		t.Errorf("unknown rating should be null, got %v", got[1]["rating"])
	}
	if _, ok := got[1]["date"]; ok {
		t.Errorf("unknown date should be omitted, got %v", got[1]["date"])
	}
}

func TestPrintReviews_Empty(t *testing.T) {
	var out bytes.Buffer
	if err := printReviews(&out, nil); err != nil {
		t.Fatalf("printReviews() error = %v", err)
	}
	if !strings.Contains(out.String(), "No reviews found") {
		t.Errorf("output = %q", out.String())
	}
}
