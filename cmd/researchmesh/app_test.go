package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/researchmesh"
	"github.com/hupe1980/researchmesh/config"
	"github.com/hupe1980/researchmesh/internal/testutil"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/model"
	"github.com/hupe1980/researchmesh/search"
)

func testApp(t *testing.T, stdout, stderr *bytes.Buffer) (*App, *config.Config) {
	t.Helper()

	var seen config.Config

	app := New().WithOutput(stdout, stderr)
	app.newMesh = func(cfg *config.Config) (*researchmesh.ResearchMesh, error) {
		seen = *cfg

		m := model.NewMockModel("mock").SetResponder(testutil.NewRouter().
			OnJSON("web search queries", map[string]any{"query": []string{"go"}, "rationale": "r"}).
			OnJSON("analyzing summaries", map[string]any{"is_sufficient": true, "answer": "Go is fun."}).
			Responder())

		return researchmesh.New(cfg, func(o *researchmesh.Options) {
			o.Model = m
			o.Searcher = search.NewStatic(search.Result{Title: "Go", URL: "https://go.dev", Content: "Go"})
			o.Logger = logging.NoOpLogger{}
		})
	}

	return app, &seen
}

func TestApp_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app, _ := testApp(t, &stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	if !strings.Contains(stdout.String(), "researchmesh version") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestApp_Run(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app, seen := testApp(t, &stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"run", "--mode", "deepsearch", "--parallel", "2", "Is Go fun?"})
	if err != nil {
		t.Fatalf("run command failed: %v", err)
	}

	if got := strings.TrimSpace(stdout.String()); got != "Go is fun." {
		t.Errorf("answer = %q, want %q", got, "Go is fun.")
	}

	if seen.Research.MaxConcurrentResearchUnits != 2 {
		t.Errorf("parallel override = %d, want 2", seen.Research.MaxConcurrentResearchUnits)
	}
}

func TestApp_RunJSONFromStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app, _ := testApp(t, &stdout, &stderr)
	app.stdin = strings.NewReader("Is Go fun?\n")

	if err := app.ExecuteWithArgs(context.Background(), []string{"run", "-m", "deepsearch", "--json"}); err != nil {
		t.Fatalf("run command failed: %v", err)
	}

	var out runOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output %q: %v", stdout.String(), err)
	}

	if out.Answer != "Go is fun." || out.RunID == "" {
		t.Errorf("unexpected output %+v", out)
	}
}

func TestApp_RunWithoutTopic(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app, _ := testApp(t, &stdout, &stderr)
	app.stdin = strings.NewReader("")

	if err := app.ExecuteWithArgs(context.Background(), []string{"run"}); err == nil {
		t.Fatal("expected an error without a topic")
	}
}

func TestApp_Search(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app, _ := testApp(t, &stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"search", "go", "language"}); err != nil {
		t.Fatalf("search command failed: %v", err)
	}

	if !strings.Contains(stdout.String(), "https://go.dev") {
		t.Errorf("search output = %q", stdout.String())
	}
}

func TestApp_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "researchmesh.yaml")
	if err := os.WriteFile(path, []byte("timeout: 42s\nresearch:\n  max_research_loops: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var stdout, stderr bytes.Buffer
	app, seen := testApp(t, &stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"-c", path, "run", "-m", "deepsearch", "topic"}); err != nil {
		t.Fatalf("run command failed: %v", err)
	}

	if seen.Timeout.String() != "42s" || seen.Research.MaxResearchLoops != 1 {
		t.Errorf("config not applied: timeout=%s loops=%d", seen.Timeout, seen.Research.MaxResearchLoops)
	}

	if err := app.ExecuteWithArgs(context.Background(), []string{"-c", filepath.Join(t.TempDir(), "missing.yaml"), "search", "x"}); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
