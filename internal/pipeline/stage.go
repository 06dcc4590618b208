// ABOUTME: Stage names and the selection of which stages a run executes
// ABOUTME: Stages always run in pipeline order, each reading its predecessor's output
package pipeline

import (
	"fmt"
	"strings"
)

// Stage names one step of the pipeline
type Stage string

const (
	StageScrape     Stage = "scrape"
	StagePreprocess Stage = "preprocess"
	StageSentiment  Stage = "sentiment"
	StageThemes     Stage = "themes"
	StageLoad       Stage = "load"
	StageAnalyze    Stage = "analyze"
	StageReport     Stage = "report"
)

// Stages lists every stage in execution order
var Stages = []Stage{
	StageScrape,
	StagePreprocess,
	StageSentiment,
	StageThemes,
	StageLoad,
	StageAnalyze,
	StageReport,
}

// ParseStage maps a stage name to a Stage
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages {
		if string(s) == strings.ToLower(strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q (valid: %s)", name, StageNames())
}

// StageNames returns the stage names joined for help text
func StageNames() string {
	names := make([]string, len(Stages))
	for i, s := range Stages {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Select returns the stages to run. only picks a single stage, from picks it
// and every later stage, and neither picks all of them.
func Select(only, from string) ([]Stage, error) {
	if only != "" && from != "" {
		return nil, fmt.Errorf("--only-stage and --from-stage are mutually exclusive")
	}
	if only != "" {
		s, err := ParseStage(only)
		if err != nil {
			return nil, err
		}
		return []Stage{s}, nil
	}
	if from != "" {
		s, err := ParseStage(from)
		if err != nil {
			return nil, err
		}
		for i, candidate := range Stages {
			if candidate == s {
				return append([]Stage(nil), Stages[i:]...), nil
			}
		}
	}
	return append([]Stage(nil), Stages...), nil
}
