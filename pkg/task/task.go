// Package task defines the persisted task-document format exchanged with
// benchmark authors, and the step model their reasoning chains are
// written in.
package task

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one authored task file: a name and its questions.
type Document struct {
	Name      string     `yaml:"name" json:"name"`
	Questions []Question `yaml:"questions" json:"questions"`
}

// Question is one benchmark entry: the question text (ending in an
// answer-schema fragment), the declared answer, the evidence files, and
// the declared reasoning chain.
type Question struct {
	Question      string   `yaml:"question" json:"question"`
	Answer        string   `yaml:"answer" json:"answer"`
	RequiredFiles []string `yaml:"required_files" json:"required_files"`
	Reasoning     []Step   `yaml:"reasoning" json:"reasoning"`
}

// Step is one declared reasoning operation. Which operand fields are
// meaningful depends on Op; references are written as "file:<name>",
// "step:<index>", or a bare literal.
type Step struct {
	Op     string `yaml:"op" json:"op"`
	Input  string `yaml:"input,omitempty" json:"input,omitempty"`
	With   string `yaml:"with,omitempty" json:"with,omitempty"`
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
	// WithColumn projects the with operand when its column is named
	// differently from the input's.
	WithColumn string `yaml:"with_column,omitempty" json:"with_column,omitempty"`
	Equals     string `yaml:"equals,omitempty" json:"equals,omitempty"`
	Contains   string `yaml:"contains,omitempty" json:"contains,omitempty"`
	Category   string `yaml:"category,omitempty" json:"category,omitempty"`
	Direction  string `yaml:"direction,omitempty" json:"direction,omitempty"`
	TieBreak   string `yaml:"tie_break,omitempty" json:"tie_break,omitempty"`
	Pick       string `yaml:"pick,omitempty" json:"pick,omitempty"`
	Fn         string `yaml:"fn,omitempty" json:"fn,omitempty"`
	Component  string `yaml:"component,omitempty" json:"component,omitempty"`
	Value      string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Parse decodes a task document from YAML (and therefore also JSON).
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse task document: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("task document has no name")
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("task document %q has no questions", doc.Name)
	}
	return &doc, nil
}

const schemaMarker = "answer as:"

// AnswerSchema extracts the "Answer as: ..." fragment from the question
// text. The fragment is mandatory; authors must state the expected
// answer shape explicitly.
func (q Question) AnswerSchema() (string, bool) {
	lower := strings.ToLower(q.Question)
	i := strings.LastIndex(lower, schemaMarker)
	if i < 0 {
		return "", false
	}
	frag := strings.TrimSpace(q.Question[i+len(schemaMarker):])
	frag = strings.TrimSuffix(frag, ".")
	if frag == "" {
		return "", false
	}
	return frag, true
}

// RefKind distinguishes step operand references.
type RefKind int

const (
	RefLiteral RefKind = iota
	RefFile
	RefStep
)

// Ref is a parsed step operand reference.
type Ref struct {
	Kind RefKind
	Name string // file name or literal text
	Step int
}

// ParseRef parses an operand reference string.
func ParseRef(s string) (Ref, error) {
	switch {
	case strings.HasPrefix(s, "file:"):
		name := strings.TrimSpace(strings.TrimPrefix(s, "file:"))
		if name == "" {
			return Ref{}, fmt.Errorf("empty file reference")
		}
		return Ref{Kind: RefFile, Name: name}, nil
	case strings.HasPrefix(s, "step:"):
		raw := strings.TrimSpace(strings.TrimPrefix(s, "step:"))
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Ref{}, fmt.Errorf("invalid step reference %q", s)
		}
		return Ref{Kind: RefStep, Step: n}, nil
	default:
		return Ref{Kind: RefLiteral, Name: s}, nil
	}
}

// StepRefs returns every step index a step's operands reference.
func (s Step) StepRefs() []int {
	var refs []int
	for _, operand := range []string{s.Input, s.With} {
		if operand == "" {
			continue
		}
		r, err := ParseRef(operand)
		if err == nil && r.Kind == RefStep {
			refs = append(refs, r.Step)
		}
	}
	return refs
}

// FileRefs returns every file name a step's operands reference.
func (s Step) FileRefs() []string {
	var refs []string
	for _, operand := range []string{s.Input, s.With} {
		if operand == "" {
			continue
		}
		r, err := ParseRef(operand)
		if err == nil && r.Kind == RefFile {
			refs = append(refs, r.Name)
		}
	}
	return refs
}
