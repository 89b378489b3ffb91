package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Spec declares one stage's request shape.
type Spec struct {
	Name       PromptName
	Version    int
	SchemaName string
	Schema     func() map[string]any
	// OutputKey is the single top-level key of the response object.
	OutputKey string
	// ItemShape describes list items in the output instruction.
	ItemShape string
	// DefaultSystem is used when no guidance instruction exists. Empty means
	// the stage cannot run without guidance.
	DefaultSystem string
	// Task is a go template over Input placed before the subject.
	Task         string
	SubjectLabel string
	Temperature  float64
	Validators   []Validator
}

type Validator func(Input) error

type Template struct {
	Spec
	task *template.Template
}

func MakeTemplate(s Spec) (Template, error) {
	switch {
	case strings.TrimSpace(string(s.Name)) == "":
		return Template{}, fmt.Errorf("missing prompt name")
	case s.Version <= 0:
		return Template{}, fmt.Errorf("invalid version for %s", s.Name)
	case strings.TrimSpace(s.SchemaName) == "" || s.Schema == nil:
		return Template{}, fmt.Errorf("missing schema for %s", s.Name)
	case strings.TrimSpace(s.OutputKey) == "":
		return Template{}, fmt.Errorf("missing output key for %s", s.Name)
	}
	t, err := template.New("task").Option("missingkey=zero").Parse(s.Task)
	if err != nil {
		return Template{}, fmt.Errorf("%s task template parse: %w", s.Name, err)
	}
	return Template{Spec: s, task: t}, nil
}

func (t Template) renderTask(in Input) string {
	var b bytes.Buffer
	_ = t.task.Execute(&b, in)
	return strings.TrimSpace(b.String())
}

func RegisterSpec(s Spec) {
	t, err := MakeTemplate(s)
	if err != nil {
		panic(err)
	}
	Register(t)
}

func RequireSubject(in Input) error {
	if strings.TrimSpace(in.Subject) == "" {
		return fmt.Errorf("missing subject")
	}
	return nil
}
