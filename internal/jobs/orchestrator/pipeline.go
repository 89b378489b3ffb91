package orchestrator

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/prompts"
)

//go:embed pipeline.yaml
var defaultPipeline []byte

type Guidance struct {
	Instruction string `yaml:"instruction"`
	Examples    string `yaml:"examples"`
	// Required stages fail with guidance_missing when the instruction
	// document is absent instead of falling back to a default.
	Required bool `yaml:"required"`
}

type Edge struct {
	Stage string `yaml:"stage"`
	Topic string `yaml:"topic"`
	// ManualGate edges are advanced by an external decision, never published.
	ManualGate bool `yaml:"manual_gate"`
}

type Stage struct {
	ID                 string   `yaml:"id"`
	Route              string   `yaml:"route"`
	Required           []string `yaml:"required"`
	Prompt             string   `yaml:"prompt"`
	OutputKey          string   `yaml:"output_key"`
	Temperature        *float64 `yaml:"temperature"`
	DefaultInstruction string   `yaml:"default_instruction"`
	Guidance           Guidance `yaml:"guidance"`
	Next               []Edge   `yaml:"next"`
}

// FollowUps returns the edges this stage publishes on success.
func (s Stage) FollowUps() []Edge {
	var out []Edge
	for _, e := range s.Next {
		if !e.ManualGate && e.Topic != "" {
			out = append(out, e)
		}
	}
	return out
}

type Pipeline struct {
	Version int     `yaml:"version"`
	Stages  []Stage `yaml:"stages"`

	byID  map[string]int
	order []string
}

// Default returns the embedded pipeline.
func Default() (*Pipeline, error) {
	return Parse(defaultPipeline)
}

// Load reads path, or the embedded pipeline when path is empty.
func Load(path string) (*Pipeline, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline %s: %w", path, err)
	}
	p, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", path, err)
	}
	return p, nil
}

func Parse(raw []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	if err := p.index(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Pipeline) index() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline has no stages")
	}
	p.byID = map[string]int{}
	routes := map[string]bool{}
	for i, s := range p.Stages {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("stage %d missing id", i)
		}
		if _, dup := p.byID[id]; dup {
			return fmt.Errorf("duplicate stage id %q", id)
		}
		p.byID[id] = i
		if s.Route != "" {
			if !strings.HasPrefix(s.Route, "/") {
				return fmt.Errorf("stage %q route %q must start with /", id, s.Route)
			}
			if routes[s.Route] {
				return fmt.Errorf("duplicate route %q", s.Route)
			}
			routes[s.Route] = true
		}
		if err := checkPrompt(s); err != nil {
			return fmt.Errorf("stage %q: %w", id, err)
		}
		if s.Guidance.Instruction == "" && (s.Guidance.Examples != "" || s.Guidance.Required) {
			return fmt.Errorf("stage %q declares guidance without an instruction location", id)
		}
	}
	for _, s := range p.Stages {
		for _, e := range s.Next {
			if _, ok := p.byID[e.Stage]; !ok {
				return fmt.Errorf("stage %q follows up to unknown stage %q", s.ID, e.Stage)
			}
			if !e.ManualGate && e.Topic == "" {
				return fmt.Errorf("stage %q edge to %q needs a topic or manual_gate", s.ID, e.Stage)
			}
		}
	}
	order, err := topoOrder(p.Stages)
	if err != nil {
		return err
	}
	p.order = order
	return nil
}

// checkPrompt keeps the stage's output key in step with the registered
// prompt, since examples are wrapped with one and responses parsed with the
// other.
func checkPrompt(s Stage) error {
	if s.Prompt == "" {
		if s.OutputKey != "" {
			return fmt.Errorf("output_key %q without a prompt", s.OutputKey)
		}
		return nil
	}
	t, ok := prompts.Lookup(prompts.PromptName(s.Prompt))
	if !ok {
		return fmt.Errorf("unknown prompt %q", s.Prompt)
	}
	if s.OutputKey == "" {
		return fmt.Errorf("prompt %q has no output_key", s.Prompt)
	}
	if s.OutputKey != t.OutputKey {
		return fmt.Errorf("output_key %q does not match prompt %q (%q)", s.OutputKey, s.Prompt, t.OutputKey)
	}
	return nil
}

// PromptName is the registered prompt the stage builds its request from.
func (s Stage) PromptName() prompts.PromptName {
	return prompts.PromptName(s.Prompt)
}

// topoOrder is a Kahn sort over follow-up edges, stable by declaration order.
func topoOrder(stages []Stage) ([]string, error) {
	deg := map[string]int{}
	out := map[string][]string{}
	for _, s := range stages {
		deg[s.ID] += 0
		for _, e := range s.Next {
			deg[e.Stage]++
			out[s.ID] = append(out[s.ID], e.Stage)
		}
	}
	order := make([]string, 0, len(stages))
	added := map[string]bool{}
	for {
		progressed := false
		for _, s := range stages {
			if added[s.ID] || deg[s.ID] != 0 {
				continue
			}
			added[s.ID] = true
			order = append(order, s.ID)
			for _, n := range out[s.ID] {
				deg[n]--
			}
			progressed = true
		}
		if !progressed {
			break
		}
	}
	if len(order) != len(stages) {
		return nil, fmt.Errorf("pipeline follow-up edges contain a cycle")
	}
	return order, nil
}

func (p *Pipeline) Stage(id string) (Stage, bool) {
	i, ok := p.byID[strings.TrimSpace(id)]
	if !ok {
		return Stage{}, false
	}
	return p.Stages[i], true
}

// Order lists stage ids upstream first.
func (p *Pipeline) Order() []string {
	return append([]string(nil), p.order...)
}

// GuidanceLocations is the loader table for every stage that reads guidance.
func (p *Pipeline) GuidanceLocations() map[string]guidance.Locations {
	out := map[string]guidance.Locations{}
	for _, s := range p.Stages {
		if s.Guidance.Instruction == "" {
			continue
		}
		out[s.ID] = guidance.Locations{
			Instruction: s.Guidance.Instruction,
			Examples:    s.Guidance.Examples,
			OutputKey:   s.OutputKey,
		}
	}
	return out
}
