// Package guidance resolves the per-domain, per-stage instruction document
// and worked examples that steer a stage's model request.
package guidance

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/gemeos-pipeline/internal/platform/gcp"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// DefaultBucket is the shared guidance root.
const DefaultBucket = "gemeos-guidance"

// SlugPlaceholder is replaced by the domain slug in location templates.
const SlugPlaceholder = "{slug}"

// Locations are object path templates for one stage. An empty Examples
// template means the stage has no example collection.
type Locations struct {
	Instruction string
	Examples    string
	// OutputKey lets example lines use {"snippet": ..., "<OutputKey>": ...}.
	OutputKey string
}

func (l Locations) resolve(slug string) (instruction, examples string) {
	return strings.ReplaceAll(l.Instruction, SlugPlaceholder, slug),
		strings.ReplaceAll(l.Examples, SlugPlaceholder, slug)
}

// Example is one worked (input, expected structured output) pair.
type Example struct {
	Input  string
	Output json.RawMessage
}

// Bundle is the guidance for one (domain, stage). A zero Bundle means no
// guidance was found.
type Bundle struct {
	Instruction string
	Examples    []Example
}

func (b Bundle) HasInstruction() bool { return strings.TrimSpace(b.Instruction) != "" }

type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, name string) (*gcp.Object, error)
}

type Loader struct {
	log    *logger.Logger
	reader ObjectReader
	bucket string
	stages map[string]Locations
}

func NewLoader(log *logger.Logger, reader ObjectReader, bucket string, stages map[string]Locations) *Loader {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Loader{log: log.With("component", "GuidanceLoader", "bucket", bucket), reader: reader, bucket: bucket, stages: stages}
}

// Load returns the bundle for (domainSlug, stage). Any retrieval or parse
// failure yields an empty bundle and is only logged.
func (l *Loader) Load(ctx context.Context, domainSlug, stage string) Bundle {
	log := l.log.With("domain_slug", domainSlug, "stage", stage)
	loc, ok := l.stages[stage]
	if !ok || loc.Instruction == "" {
		log.Warn("No guidance locations configured for stage")
		return Bundle{}
	}
	if strings.TrimSpace(domainSlug) == "" {
		log.Warn("Empty domain slug, skipping guidance")
		return Bundle{}
	}
	instructionPath, examplesPath := loc.resolve(domainSlug)

	instruction, err := l.read(ctx, instructionPath)
	if err != nil {
		log.Warn("Guidance instruction unavailable, using default", "path", instructionPath, "error", err)
		return Bundle{}
	}
	b := Bundle{Instruction: strings.TrimSpace(string(instruction))}
	if examplesPath == "" {
		log.Info("Loaded guidance", "instruction_path", instructionPath, "examples", 0)
		return b
	}

	raw, err := l.read(ctx, examplesPath)
	if err != nil {
		log.Warn("Guidance examples unavailable, using default", "path", examplesPath, "error", err)
		return Bundle{}
	}
	examples, err := ParseExamples(raw, loc.OutputKey)
	if err != nil {
		log.Warn("Guidance examples malformed, using default", "path", examplesPath, "error", err)
		return Bundle{}
	}
	b.Examples = examples
	log.Info("Loaded guidance", "instruction_path", instructionPath, "examples_path", examplesPath, "examples", len(examples))
	return b
}

func (l *Loader) read(ctx context.Context, name string) ([]byte, error) {
	obj, err := l.reader.ReadObject(ctx, l.bucket, name)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("gs://%s/%s: empty read", l.bucket, name)
	}
	return obj.Data, nil
}

// ParseExamples decodes one JSON record per line. Records are either
// {"input": ..., "output": ...} or {"snippet": ..., outputKey: [...]}, in
// which case the output is wrapped as {outputKey: [...]}. Blank lines are
// skipped; any other malformed line fails the whole collection.
func ParseExamples(raw []byte, outputKey string) ([]Example, error) {
	var out []Example
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec map[string]json.RawMessage
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		ex, err := exampleFromRecord(rec, outputKey)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, ex)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func exampleFromRecord(rec map[string]json.RawMessage, outputKey string) (Example, error) {
	in, ok := rec["input"]
	if !ok {
		in, ok = rec["snippet"]
	}
	if !ok {
		return Example{}, fmt.Errorf("missing input")
	}
	input, err := rawText(in)
	if err != nil {
		return Example{}, fmt.Errorf("input: %w", err)
	}

	if o, ok := rec["output"]; ok {
		return Example{Input: input, Output: o}, nil
	}
	if outputKey != "" {
		if v, ok := rec[outputKey]; ok {
			wrapped, err := json.Marshal(map[string]json.RawMessage{outputKey: v})
			if err != nil {
				return Example{}, err
			}
			return Example{Input: input, Output: wrapped}, nil
		}
	}
	return Example{}, fmt.Errorf("missing output")
}

// rawText unquotes a JSON string, or keeps any other JSON value verbatim.
func rawText(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	if !json.Valid(v) {
		return "", fmt.Errorf("invalid JSON value")
	}
	return string(v), nil
}
