// ABOUTME: Tests for the run command and the per-stage commands
// ABOUTME: Verifies flags, stage coverage and stage errors surfacing from the CLI

package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/harper/review-insights/internal/pipeline"
)

func TestNewRunCmd(t *testing.T) {
	cmd := NewRunCmd()

	if cmd.Use != "run" {
		t.Errorf("Use = %q, want %q", cmd.Use, "run")
	}
	if !strings.Contains(cmd.Long, pipeline.StageNames()) {
		t.Error("Long description should list the stages")
	}

	for _, name := range []string{"only-stage", "from-stage", "clusters", "seed", "per-bank"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

func TestRunCmd_OnlyAndFromExclusive(t *testing.T) {
	defer func() { onlyStage, fromStage = "", "" }()

	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"run", "--only-stage", "load", "--from-stage", "themes"})

	if err := cmd.Execute(); err == nil {
		t.Error("Expected error when both --only-stage and --from-stage are set")
	}
}

func TestRunCmd_UnknownStage(t *testing.T) {
	defer func() { onlyStage, fromStage = "", "" }()

	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"run", "--only-stage", "deploy"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "deploy") {
		t.Errorf("Execute() error = %v, want unknown stage error", err)
	}
}

func TestNewStageCmds(t *testing.T) {
	cmds := NewStageCmds()
	if len(cmds) != len(pipeline.Stages) {
		t.Fatalf("got %d stage commands, want %d", len(cmds), len(pipeline.Stages))
	}

	for i, cmd := range cmds {
		if cmd.Use != string(pipeline.Stages[i]) {
			t.Errorf("cmds[%d].Use = %q, want %q", i, cmd.Use, pipeline.Stages[i])
		}
		if cmd.Short == "" || cmd.Long == "" {
			t.Errorf("%s: descriptions should not be empty", cmd.Use)
		}
		if cmd.RunE == nil {
			t.Errorf("%s: RunE should be set", cmd.Use)
		}
	}

	flagsFor := map[string][]string{
		"scrape": {"per-bank"},
		"themes": {"clusters", "seed"},
	}
	for _, cmd := range cmds {
		for _, name := range flagsFor[cmd.Use] {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("%s: --%s flag not found", cmd.Use, name)
			}
		}
	}
}

func TestStageCmd_MissingInput(t *testing.T) {
	t.Setenv("REVIEWS_DATA_DIR", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"--quiet", "preprocess"})
	defer func() { quiet = false }()

	err := cmd.Execute()
	if err == nil {
		t.Fatal("preprocess without scraped reviews should fail")
	}
	if !strings.Contains(err.Error(), "preprocess stage") {
		t.Errorf("error = %v, want it to name the stage", err)
	}
}
