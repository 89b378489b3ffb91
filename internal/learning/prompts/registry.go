package prompts

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNoInstruction means the stage has no default and guidance was absent.
var ErrNoInstruction = errors.New("no instruction: guidance required")

var (
	mu       sync.RWMutex
	registry = map[PromptName]Template{}
)

func Register(t Template) {
	mu.Lock()
	defer mu.Unlock()
	registry[t.Name] = t
}

func Lookup(name PromptName) (Template, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := registry[name]
	return t, ok
}

// Build assembles the request for name. The user channel is, in order:
// rendered examples, feedback, the task line, the labelled subject and the
// output-format instruction.
func Build(name PromptName, in Input) (Prompt, error) {
	t, ok := Lookup(name)
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", name)
	}
	for _, v := range t.Validators {
		if v == nil {
			continue
		}
		if err := v(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", name, err)
		}
	}

	system := strings.TrimSpace(in.Instruction)
	guided := system != ""
	if !guided {
		system = strings.TrimSpace(in.DefaultInstruction)
	}
	if system == "" {
		system = strings.TrimSpace(t.DefaultSystem)
	}
	if system == "" {
		return Prompt{}, fmt.Errorf("%s: %w", name, ErrNoInstruction)
	}

	var user strings.Builder
	user.WriteString(RenderExamples(in.Examples))
	if fb := strings.TrimSpace(in.Feedback); fb != "" {
		user.WriteString(fb)
		user.WriteString("\n\n")
	}
	if task := t.renderTask(in); task != "" {
		user.WriteString(task)
		user.WriteString("\n\n")
	}
	user.WriteString(t.SubjectLabel)
	user.WriteString(":\n")
	user.WriteString(strings.TrimSpace(in.Subject))
	user.WriteString("\n\n")
	user.WriteString(OutputInstruction(t.OutputKey, t.ItemShape))

	temp := t.Temperature
	if in.Temperature != nil {
		temp = *in.Temperature
	}
	return Prompt{
		Name:        string(t.Name),
		Version:     t.Version,
		System:      system,
		User:        strings.TrimSpace(user.String()),
		SchemaName:  t.SchemaName,
		Schema:      t.Schema(),
		OutputKey:   t.OutputKey,
		Temperature: &temp,
		Guided:      guided,
	}, nil
}
