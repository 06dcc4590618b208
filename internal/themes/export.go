// ABOUTME: YAML export of cluster labels for human review
// ABOUTME: Labels are run metadata only and are never loaded into the store
package themes

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LabelFile is the on-disk form of a run's theme labels
type LabelFile struct {
	Clusters       int          `yaml:"clusters" json:"clusters"`
	Documents      int          `yaml:"documents" json:"documents"`
	VocabularySize int          `yaml:"vocabulary_size" json:"vocabulary_size"`
	Seed           uint64       `yaml:"seed" json:"seed"`
	Themes         []ThemeLabel `yaml:"themes" json:"themes"`
}

// ThemeLabel describes one cluster
type ThemeLabel struct {
	ID       int      `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Size     int      `yaml:"size" json:"size"`
	TopTerms []string `yaml:"top_terms" json:"top_terms"`
}

// NewLabelFile builds the export for a result
func NewLabelFile(result *Result, opts Options) *LabelFile {
	lf := &LabelFile{
		Clusters:       opts.Clusters,
		Documents:      result.Documents,
		VocabularySize: result.VocabularySize,
		Seed:           opts.Seed,
		Themes:         []ThemeLabel{},
	}
	for _, c := range result.Clusters {
		lf.Themes = append(lf.Themes, ThemeLabel{
			ID:       c.ID,
			Name:     c.Name(),
			Size:     c.Size,
			TopTerms: c.TopTerms,
		})
	}
	return lf
}

// WriteLabels writes the label file as YAML, creating parent directories
func WriteLabels(path string, lf *LabelFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("failed to marshal theme labels: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write theme labels: %w", err)
	}
	return nil
}

// ReadLabels loads a label file written by WriteLabels
func ReadLabels(path string) (*LabelFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme labels: %w", err)
	}
	var lf LabelFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse theme labels: %w", err)
	}
	return &lf, nil
}
