package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/gemeos-pipeline/internal/learning/prompts"
)

func TestDefaultPipeline(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	want := []string{"preprocess", "concept_extraction", "concept_structuring", "learning_goal_generation"}
	got := p.Order()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", got, want)
	}

	pre, ok := p.Stage("preprocess")
	if !ok {
		t.Fatalf("preprocess stage missing")
	}
	ups := pre.FollowUps()
	if len(ups) != 1 || ups[0].Topic != "content-extraction-requests" || ups[0].Stage != "concept_extraction" {
		t.Fatalf("preprocess follow-ups = %+v", ups)
	}

	ext, _ := p.Stage("concept_extraction")
	if len(ext.FollowUps()) != 0 {
		t.Fatalf("extraction must not auto-chain, got %+v", ext.FollowUps())
	}
	if len(ext.Next) != 2 {
		t.Fatalf("extraction should declare two gated edges, got %d", len(ext.Next))
	}

	st, ok := p.Stage("concept_structuring")
	if !ok || st.Route != "/structure-concepts" || !st.Guidance.Required {
		t.Fatalf("structuring stage = %+v", st)
	}
	if st.PromptName() != prompts.PromptConceptStructuring {
		t.Fatalf("structuring prompt = %q", st.PromptName())
	}
	if st.Temperature == nil || *st.Temperature != 0.2 {
		t.Fatalf("structuring temperature = %v", st.Temperature)
	}
}

func TestGuidanceLocations(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	locs := p.GuidanceLocations()
	if _, ok := locs["preprocess"]; ok {
		t.Fatalf("preprocess reads no guidance")
	}
	s := locs["concept_structuring"]
	if s.Examples != "" {
		t.Fatalf("structuring has no examples, got %q", s.Examples)
	}
	g := locs["learning_goal_generation"]
	if g.OutputKey != "learning_goals" || !strings.HasPrefix(g.Instruction, "{slug}/") {
		t.Fatalf("goal locations = %+v", g)
	}
}

func TestParseRejectsBadPipelines(t *testing.T) {
	cases := map[string]string{
		"empty":         "version: 1\nstages: []\n",
		"duplicate id":  "stages:\n  - id: a\n  - id: a\n",
		"unknown next":  "stages:\n  - id: a\n    next:\n      - stage: b\n        topic: t\n",
		"edge no topic": "stages:\n  - id: a\n    next:\n      - stage: b\n  - id: b\n",
		"cycle": "stages:\n  - id: a\n    next:\n      - {stage: b, topic: t}\n" +
			"  - id: b\n    next:\n      - {stage: a, topic: t}\n",
		"prompt without key": "stages:\n  - id: a\n    prompt: concept_extraction\n",
		"unknown prompt":     "stages:\n  - id: a\n    prompt: p\n    output_key: items\n",
		"key mismatch":       "stages:\n  - id: a\n    prompt: learning_goal_generation\n    output_key: hierarchy\n",
		"key without prompt": "stages:\n  - id: a\n    output_key: concepts\n",
		"required no path":   "stages:\n  - id: a\n    guidance:\n      required: true\n",
		"bad route":          "stages:\n  - id: a\n    route: nope\n",
		"duplicate route":    "stages:\n  - id: a\n    route: /x\n  - id: b\n    route: /x\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	raw := "version: 2\nstages:\n  - id: only\n    route: /only\n    required: [x]\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Version != 2 || len(p.Stages) != 1 {
		t.Fatalf("unexpected pipeline %+v", p)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseAcceptsPromptOverride(t *testing.T) {
	raw := "stages:\n" +
		"  - id: goals\n" +
		"    prompt: learning_goal_generation\n" +
		"    output_key: learning_goals\n" +
		"    guidance:\n" +
		"      instruction: \"{slug}/g.md\"\n" +
		"      required: true\n"
	p, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	st, _ := p.Stage("goals")
	if st.PromptName() != prompts.PromptLearningGoals || !st.Guidance.Required {
		t.Fatalf("unexpected stage %+v", st)
	}
}
